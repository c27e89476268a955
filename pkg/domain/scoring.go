package domain

import "github.com/shopspring/decimal"

// Scoring weights. The system score scales four 1-10 sub-scores onto a 0-100
// band; the combined score blends it with the two human tracks. A missing
// track contributes zero instead of redistributing its weight, so a
// single-sided evaluation reads as provisional rather than optimistic.
var (
	subScoreScale  = decimal.RequireFromString("2.5")
	systemWeight   = decimal.RequireFromString("0.4")
	trackWeight    = decimal.RequireFromString("0.3")
	trackScoreBand = decimal.NewFromInt(10)
)

// ComputeTotalScore derives the 0-100 system-match score from the four
// sub-scores. It is recomputed whenever sub-scores change and is never
// user-entered directly.
func ComputeTotalScore(s SubScores) int {
	sum := decimal.NewFromInt(int64(s.Technical + s.Industry + s.Scale + s.Schedule))
	return int(sum.Mul(subScoreScale).Round(0).IntPart())
}

// ComputeCombinedScore blends the system score with the product and presales
// evaluations. With no human score present the system score stands alone.
func ComputeCombinedScore(m MatchCandidate) int {
	if m.Product == nil && m.Presales == nil {
		return m.TotalScore
	}
	combined := decimal.NewFromInt(int64(m.TotalScore)).Mul(systemWeight)
	combined = combined.Add(trackContribution(m.Product))
	combined = combined.Add(trackContribution(m.Presales))
	return int(combined.Round(0).IntPart())
}

func trackContribution(eval *Evaluation) decimal.Decimal {
	if eval == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(eval.Score)).Mul(trackScoreBand).Mul(trackWeight)
}
