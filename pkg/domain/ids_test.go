package domain_test

import (
	"testing"
	"time"

	"matchcore/pkg/domain"
)

func TestFormatIDUsesPrefixDateAndPaddedSequence(t *testing.T) {
	at := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		kind domain.EntityType
		seq  int
		want string
	}{
		{domain.EntityDemand, 1, "REQ-20260205-001"},
		{domain.EntityAnalysis, 12, "PA-20260205-012"},
		{domain.EntityPartner, 7, "PT-20260205-007"},
		{domain.EntityMatchCandidate, 123, "MC-20260205-123"},
	}
	for _, tc := range cases {
		got, err := domain.FormatID(tc.kind, at, tc.seq)
		if err != nil {
			t.Fatalf("FormatID(%s): %v", tc.kind, err)
		}
		if got != tc.want {
			t.Fatalf("FormatID(%s) = %s, want %s", tc.kind, got, tc.want)
		}
	}
}

func TestFormatIDRejectsUnknownKind(t *testing.T) {
	if _, err := domain.FormatID(domain.EntityType("widget"), time.Now(), 1); err == nil {
		t.Fatalf("expected error for unknown entity kind")
	}
}

func TestFormatIDDateRollover(t *testing.T) {
	day1 := time.Date(2026, 2, 5, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 2, 6, 0, 1, 0, 0, time.UTC)
	first, _ := domain.FormatID(domain.EntityDemand, day1, 3)
	second, _ := domain.FormatID(domain.EntityDemand, day2, 4)
	if first != "REQ-20260205-003" || second != "REQ-20260206-004" {
		t.Fatalf("rollover ids = %s, %s", first, second)
	}
}

func TestFormatGroupIDFromClock(t *testing.T) {
	at := time.UnixMilli(1760000000000).UTC()
	if got := domain.FormatGroupID(at); got != "GRP-1760000000000" {
		t.Fatalf("FormatGroupID = %s", got)
	}
}

func TestSnapshotStaleDetectsMissingGroupID(t *testing.T) {
	snap := domain.Snapshot{
		Matchings: map[string]domain.MatchCandidate{
			"MC-20260101-001": {GroupID: "GRP-1"},
		},
	}
	if snap.Stale() {
		t.Fatalf("snapshot with group ids must not be stale")
	}
	snap.Matchings["MC-20260101-002"] = domain.MatchCandidate{}
	if !snap.Stale() {
		t.Fatalf("matching without group id must mark the snapshot stale")
	}
}

func TestEffectiveRankPushesUnrankedLast(t *testing.T) {
	ranked := domain.MatchCandidate{Rank: 2}
	unranked := domain.MatchCandidate{}
	if ranked.EffectiveRank() != 2 {
		t.Fatalf("ranked candidate rank = %d", ranked.EffectiveRank())
	}
	if unranked.EffectiveRank() <= ranked.EffectiveRank() {
		t.Fatalf("unranked candidate must sort after ranked ones")
	}
}
