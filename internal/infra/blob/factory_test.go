package blob_test

import (
	"context"
	"testing"

	"matchcore/internal/infra/blob"
)

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("MATCHCORE_BLOB_DRIVER", "memory")
	store, err := blob.Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != blob.DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("MATCHCORE_BLOB_DRIVER", "fs")
	t.Setenv("MATCHCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = blob.Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != blob.DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("MATCHCORE_BLOB_DRIVER", "rados")
	if _, err := blob.Open(ctx); err == nil {
		t.Fatalf("unknown driver must fail")
	}
}
