package core_test

import (
	"context"
	"errors"
	"testing"

	"matchcore/internal/core"
	"matchcore/internal/infra/persistence/memory"
	"matchcore/pkg/domain"
)

// expectBlockedBy runs fn in a transaction on a default-rules store and
// asserts the commit is blocked by the named rule.
func expectBlockedBy(t *testing.T, store *memory.Store, rule string, fn func(tx domain.Transaction) error) {
	t.Helper()
	_, err := store.RunInTransaction(context.Background(), fn)
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	for _, v := range violation.Result.Violations {
		if v.Rule == rule {
			return
		}
	}
	t.Fatalf("no %s violation in %+v", rule, violation.Result.Violations)
}

func validCandidate(groupID, demandID, partnerID string, rank int) domain.MatchCandidate {
	scores := domain.SubScores{Technical: 8, Industry: 8, Scale: 8, Schedule: 8}
	return domain.MatchCandidate{
		GroupID:    groupID,
		DemandID:   demandID,
		PartnerID:  partnerID,
		Rank:       rank,
		SubScores:  scores,
		TotalScore: domain.ComputeTotalScore(scores),
		Status:     domain.MatchStatusRecommended,
	}
}

func TestScoreRangeRuleBlocksOutOfBandSubScores(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	expectBlockedBy(t, store, "score_range", func(tx domain.Transaction) error {
		c := validCandidate("GRP-1", "REQ-1", "PT-1", 1)
		c.SubScores.Technical = 11
		c.TotalScore = domain.ComputeTotalScore(c.SubScores)
		_, err := tx.CreateMatchCandidate(c)
		return err
	})
}

func TestScoreRangeRuleBlocksStaleTotalScore(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	expectBlockedBy(t, store, "score_range", func(tx domain.Transaction) error {
		c := validCandidate("GRP-1", "REQ-1", "PT-1", 1)
		c.TotalScore = 99 // sub-scores of 8 across the board compute to 80
		_, err := tx.CreateMatchCandidate(c)
		return err
	})
}

func TestScoreRangeRuleBlocksTrackScoreOutOfBand(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	expectBlockedBy(t, store, "score_range", func(tx domain.Transaction) error {
		c := validCandidate("GRP-1", "REQ-1", "PT-1", 1)
		c.Product = &domain.Evaluation{Score: 0, Evaluator: "产品经理"}
		c.Status = domain.MatchStatusProductScored
		_, err := tx.CreateMatchCandidate(c)
		return err
	})
}

func TestGroupConsistencyRuleBlocksMixedDemands(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	expectBlockedBy(t, store, "group_consistency", func(tx domain.Transaction) error {
		if _, err := tx.CreateMatchCandidate(validCandidate("GRP-1", "REQ-1", "PT-1", 1)); err != nil {
			return err
		}
		_, err := tx.CreateMatchCandidate(validCandidate("GRP-1", "REQ-2", "PT-2", 2))
		return err
	})
}

func TestGroupConsistencyRuleBlocksTwoAcceptedCandidates(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	expectBlockedBy(t, store, "group_consistency", func(tx domain.Transaction) error {
		first := validCandidate("GRP-1", "REQ-1", "PT-1", 1)
		first.Status = domain.MatchStatusConfirmed
		if _, err := tx.CreateMatchCandidate(first); err != nil {
			return err
		}
		second := validCandidate("GRP-1", "REQ-1", "PT-2", 2)
		second.Status = domain.MatchStatusSigned
		_, err := tx.CreateMatchCandidate(second)
		return err
	})
}

func TestStatusTransitionRuleBlocksUnknownStatus(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	expectBlockedBy(t, store, "status_transition", func(tx domain.Transaction) error {
		_, err := tx.CreateDemand(domain.Demand{
			CustomerName: "客户",
			ProjectName:  "项目",
			Status:       domain.DemandStatus("archived"),
		})
		return err
	})
}

func TestStatusTransitionRuleBlocksLeavingSigned(t *testing.T) {
	store := memory.NewStore(core.NewDefaultRulesEngine())
	ctx := context.Background()

	var id string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		d, err := tx.CreateDemand(domain.Demand{
			CustomerName: "客户",
			ProjectName:  "项目",
			Status:       domain.DemandStatusSigned,
		})
		id = d.ID
		return err
	}); err != nil {
		t.Fatalf("create signed demand: %v", err)
	}

	expectBlockedBy(t, store, "status_transition", func(tx domain.Transaction) error {
		_, err := tx.UpdateDemand(id, func(d *domain.Demand) error {
			d.Status = domain.DemandStatusPending
			return nil
		})
		return err
	})

	// Edits that keep the terminal status stay allowed.
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateDemand(id, func(d *domain.Demand) error {
			d.Owner = "王芳"
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("owner edit on signed demand: %v", err)
	}

	expectBlockedBy(t, store, "status_transition", func(tx domain.Transaction) error {
		c := validCandidate("GRP-1", "REQ-1", "PT-1", 1)
		c.Status = domain.MatchStatus("shortlisted")
		_, err := tx.CreateMatchCandidate(c)
		return err
	})
}
