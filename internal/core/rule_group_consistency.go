package core

import (
	"context"
	"fmt"

	"matchcore/pkg/domain"
)

// GroupConsistencyRule enforces the recommendation-group invariants: every
// member of a group references the same demand, and at most one member holds
// an accepted status (confirmed or signed) at any time.
func GroupConsistencyRule() domain.Rule {
	return groupConsistencyRule{}
}

type groupConsistencyRule struct{}

func (groupConsistencyRule) Name() string { return "group_consistency" }

func (groupConsistencyRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	touched := map[string]struct{}{}
	for _, change := range changes {
		if change.Entity != domain.EntityMatchCandidate {
			continue
		}
		if m, ok := domain.DecodeChangePayload[domain.MatchCandidate](change.After); ok && m.GroupID != "" {
			touched[m.GroupID] = struct{}{}
		}
	}
	for groupID := range touched {
		members := view.ListMatchGroup(groupID)
		if len(members) == 0 {
			continue
		}
		demandID := members[0].DemandID
		accepted := 0
		for _, m := range members {
			if m.DemandID != demandID {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "group_consistency",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("group %s mixes demands %s and %s", groupID, demandID, m.DemandID),
					Entity:   domain.EntityMatchCandidate,
					EntityID: m.ID,
				})
			}
			if m.Status == domain.MatchStatusConfirmed || m.Status == domain.MatchStatusSigned {
				accepted++
				if accepted > 1 {
					res.Violations = append(res.Violations, domain.Violation{
						Rule:     "group_consistency",
						Severity: domain.SeverityBlock,
						Message:  fmt.Sprintf("group %s holds more than one accepted candidate", groupID),
						Entity:   domain.EntityMatchCandidate,
						EntityID: m.ID,
					})
				}
			}
		}
	}
	return res, nil
}
