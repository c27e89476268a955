package core

import (
	"context"
	"fmt"

	"matchcore/pkg/domain"
)

// StatusTransitionRule blocks illegal status values and transitions out of
// terminal states on stateful entities.
func StatusTransitionRule() domain.Rule {
	return statusTransitionRule{}
}

type statusTransitionRule struct{}

type statusMachine struct {
	entity    domain.EntityType
	label     string
	terminal  map[string]struct{}
	valid     map[string]struct{}
	extractor func(payload domain.ChangePayload) (id string, status string, ok bool)
}

var statusMachines = map[domain.EntityType]statusMachine{
	domain.EntityDemand: {
		entity:   domain.EntityDemand,
		label:    "demand",
		terminal: toSet(string(domain.DemandStatusSigned)),
		valid: toSet(
			string(domain.DemandStatusPending),
			string(domain.DemandStatusAnalyzing),
			string(domain.DemandStatusAnalyzed),
			string(domain.DemandStatusRecommended),
			string(domain.DemandStatusSigned),
		),
		extractor: func(payload domain.ChangePayload) (string, string, bool) {
			demand, ok := domain.DecodeChangePayload[domain.Demand](payload)
			if !ok {
				return "", "", false
			}
			return demand.ID, string(demand.Status), true
		},
	},
	domain.EntityAnalysis: {
		entity:   domain.EntityAnalysis,
		label:    "analysis",
		terminal: map[string]struct{}{},
		valid: toSet(
			string(domain.AnalysisStatusAnalyzing),
			string(domain.AnalysisStatusDone),
		),
		extractor: func(payload domain.ChangePayload) (string, string, bool) {
			analysis, ok := domain.DecodeChangePayload[domain.Analysis](payload)
			if !ok {
				return "", "", false
			}
			return analysis.ID, string(analysis.Status), true
		},
	},
	domain.EntityMatchCandidate: {
		entity:   domain.EntityMatchCandidate,
		label:    "match candidate",
		terminal: toSet(string(domain.MatchStatusSigned)),
		valid: toSet(
			string(domain.MatchStatusRecommended),
			string(domain.MatchStatusProductScored),
			string(domain.MatchStatusPresalesScored),
			string(domain.MatchStatusScored),
			string(domain.MatchStatusConfirmed),
			string(domain.MatchStatusSigned),
			string(domain.MatchStatusRejected),
		),
		extractor: func(payload domain.ChangePayload) (string, string, bool) {
			m, ok := domain.DecodeChangePayload[domain.MatchCandidate](payload)
			if !ok {
				return "", "", false
			}
			return m.ID, string(m.Status), true
		},
	},
}

func (statusTransitionRule) Name() string { return "status_transition" }

func (statusTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		machine, ok := statusMachines[change.Entity]
		if !ok {
			continue
		}

		afterID, newStatus, ok := machine.extractor(change.After)
		if ok {
			if _, valid := machine.valid[newStatus]; !valid {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "status_transition",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("%s %s is set to invalid status %s", machine.label, afterID, newStatus),
					Entity:   machine.entity,
					EntityID: afterID,
				})
				continue
			}
		}

		beforeID, beforeStatus, ok := machine.extractor(change.Before)
		if !ok {
			continue
		}
		if _, ok := machine.terminal[beforeStatus]; !ok {
			continue
		}
		afterID, afterStatus, ok := machine.extractor(change.After)
		if !ok {
			continue
		}
		if afterStatus != beforeStatus {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("cannot move %s %s from terminal status %s to %s", machine.label, beforeID, beforeStatus, afterStatus),
				Entity:   machine.entity,
				EntityID: afterID,
			})
		}
	}
	return res, nil
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
