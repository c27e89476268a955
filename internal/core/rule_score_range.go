package core

import (
	"context"
	"fmt"

	"matchcore/pkg/domain"
)

// ScoreRangeRule blocks candidates whose sub-scores or track scores leave the
// 1..10 band, and candidates whose stored total diverges from the scoring
// engine's output for their sub-scores.
func ScoreRangeRule() domain.Rule {
	return scoreRangeRule{}
}

type scoreRangeRule struct{}

func (scoreRangeRule) Name() string { return "score_range" }

func (scoreRangeRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityMatchCandidate {
			continue
		}
		m, ok := domain.DecodeChangePayload[domain.MatchCandidate](change.After)
		if !ok {
			continue
		}
		if !m.SubScores.Valid() {
			res.Violations = append(res.Violations, violationFor(m.ID, fmt.Sprintf("candidate %s has sub-scores outside 1..10", m.ID)))
		}
		if got, want := m.TotalScore, domain.ComputeTotalScore(m.SubScores); got != want {
			res.Violations = append(res.Violations, violationFor(m.ID, fmt.Sprintf("candidate %s total score %d does not match sub-scores (want %d)", m.ID, got, want)))
		}
		for track, eval := range map[domain.ScoreTrack]*domain.Evaluation{domain.TrackProduct: m.Product, domain.TrackPresales: m.Presales} {
			if eval == nil {
				continue
			}
			if eval.Score < 1 || eval.Score > 10 {
				res.Violations = append(res.Violations, violationFor(m.ID, fmt.Sprintf("candidate %s %s score %d outside 1..10", m.ID, track, eval.Score)))
			}
		}
	}
	return res, nil
}

func violationFor(id, message string) domain.Violation {
	return domain.Violation{
		Rule:     "score_range",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityMatchCandidate,
		EntityID: id,
	}
}
