package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"matchcore/internal/infra/persistence/memory"
	"matchcore/pkg/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTransactionCommitAndRollback(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateDemand(domain.Demand{CustomerName: "客户A", ProjectName: "项目A"})
		return err
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := len(store.ListDemands()); got != 1 {
		t.Fatalf("expected 1 demand after commit, got %d", got)
	}

	boom := errors.New("boom")
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateDemand(domain.Demand{CustomerName: "客户B", ProjectName: "项目B"}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected rollback error, got %v", err)
	}
	if got := len(store.ListDemands()); got != 1 {
		t.Fatalf("failed transaction must not commit, got %d demands", got)
	}
}

func TestNextIDFormatsAndCounters(t *testing.T) {
	store := memory.NewStore(nil)
	store.SetNowFunc(fixedClock(time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	var ids []string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for range 2 {
			d, err := tx.CreateDemand(domain.Demand{CustomerName: "客户", ProjectName: "项目"})
			if err != nil {
				return err
			}
			ids = append(ids, d.ID)
		}
		p, err := tx.CreatePartner(domain.Partner{CompanyName: "伙伴"})
		if err != nil {
			return err
		}
		ids = append(ids, p.ID)
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	want := []string{"REQ-20260205-001", "REQ-20260205-002", "PT-20260205-001"}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("id[%d] = %s, want %s", i, id, want[i])
		}
	}
}

func TestCountersNeverReuseAfterDeletion(t *testing.T) {
	store := memory.NewStore(nil)
	store.SetNowFunc(fixedClock(time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)))
	ctx := context.Background()

	var firstID string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		d, err := tx.CreateDemand(domain.Demand{CustomerName: "客户", ProjectName: "项目"})
		if err != nil {
			return err
		}
		firstID = d.ID
		return tx.DeleteDemand(d.ID)
	}); err != nil {
		t.Fatalf("create and delete: %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		d, err := tx.CreateDemand(domain.Demand{CustomerName: "客户", ProjectName: "项目"})
		if err != nil {
			return err
		}
		if d.ID == firstID {
			return fmt.Errorf("id %s reused after deletion", d.ID)
		}
		if d.ID != "REQ-20260205-002" {
			return fmt.Errorf("unexpected second id %s", d.ID)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestGroupIDDerivedFromTransactionClock(t *testing.T) {
	store := memory.NewStore(nil)
	at := time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)
	store.SetNowFunc(fixedClock(at))

	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		want := fmt.Sprintf("GRP-%d", at.UnixMilli())
		if got := tx.NextGroupID(); got != want {
			return fmt.Errorf("group id %s, want %s", got, want)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestActivityLogNewestFirstAndCapped(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for i := 0; i < domain.ActivityCap+5; i++ {
			tx.AppendActivity(fmt.Sprintf("entry %d", i), "#0984e3")
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	activities := store.ListActivities()
	if len(activities) != domain.ActivityCap {
		t.Fatalf("activity log holds %d entries, want %d", len(activities), domain.ActivityCap)
	}
	if activities[0].Text != fmt.Sprintf("entry %d", domain.ActivityCap+4) {
		t.Fatalf("newest entry first, got %q", activities[0].Text)
	}
}

func TestUpdateMutatorErrorLeavesEntityUntouched(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	var id string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		d, err := tx.CreateDemand(domain.Demand{CustomerName: "客户", ProjectName: "项目", Owner: "张伟"})
		id = d.ID
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("mutator failed")
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, uerr := tx.UpdateDemand(id, func(d *domain.Demand) error {
			d.Owner = "李明"
			return boom
		})
		return uerr
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	d, _ := store.GetDemand(id)
	if d.Owner != "张伟" {
		t.Fatalf("owner mutated despite error: %s", d.Owner)
	}
}

func TestUpdateAndDeleteMissingReturnNotFound(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, uerr := tx.UpdateDemand("REQ-20990101-001", func(*domain.Demand) error { return nil })
		return uerr
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("update missing: expected not-found, got %v", err)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteMatchCandidate("MC-20990101-001")
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("delete missing: expected not-found, got %v", err)
	}
}

func TestListMatchGroupOrdersByRank(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, rank := range []int{3, 1, 2} {
			if _, err := tx.CreateMatchCandidate(domain.MatchCandidate{
				GroupID:   "GRP-1",
				DemandID:  "REQ-20260205-001",
				PartnerID: fmt.Sprintf("PT-%03d", rank),
				Rank:      rank,
			}); err != nil {
				return err
			}
		}
		members := tx.ListMatchGroup("GRP-1")
		for i, m := range members {
			if m.Rank != i+1 {
				return fmt.Errorf("member %d has rank %d", i, m.Rank)
			}
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateDemand(domain.Demand{CustomerName: "客户", ProjectName: "项目"}); err != nil {
			return err
		}
		tx.AppendActivity("导出测试", "#00b894")
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	snap := store.ExportState()
	restored := memory.NewStore(nil)
	restored.ImportState(snap)

	if len(restored.ListDemands()) != 1 || len(restored.ListActivities()) != 1 {
		t.Fatalf("round trip lost state")
	}

	// Mutating the restored store must not leak back into the snapshot donor.
	if _, err := restored.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreatePartner(domain.Partner{CompanyName: "伙伴"})
		return err
	}); err != nil {
		t.Fatalf("mutate restored: %v", err)
	}
	if len(store.ListPartners()) != 0 {
		t.Fatalf("restored store shares state with donor")
	}
}

func TestRulesEngineBlocksCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockEverything{})
	store := memory.NewStore(engine)

	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, cerr := tx.CreateDemand(domain.Demand{CustomerName: "客户", ProjectName: "项目"})
		return cerr
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	if len(store.ListDemands()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

type blockEverything struct{}

func (blockEverything) Name() string { return "block_everything" }

func (blockEverything) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "block_everything",
			Severity: domain.SeverityBlock,
			Message:  "no writes allowed",
		})
	}
	return res, nil
}
