package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a Store implementation using environment variables.
//
//	MATCHCORE_BLOB_DRIVER: memory|fs|s3 (default fs)
//	MATCHCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./artifacts)
//	(S3 variables documented on OpenS3FromEnv)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("MATCHCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFilesystem:
		return NewFilesystemStore(os.Getenv("MATCHCORE_BLOB_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
