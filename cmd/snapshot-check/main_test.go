package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"matchcore/pkg/domain"
)

func validSnapshot() domain.Snapshot {
	scores := domain.SubScores{Technical: 9, Industry: 8, Scale: 8, Schedule: 9}
	return domain.Snapshot{
		Demands: map[string]domain.Demand{
			"REQ-20260205-001": {Base: domain.Base{ID: "REQ-20260205-001"}, CustomerName: "中建科技", ProjectName: "智慧工厂MES系统", Status: domain.DemandStatusRecommended},
		},
		Partners: map[string]domain.Partner{
			"PT-20260205-001": {Base: domain.Base{ID: "PT-20260205-001"}, CompanyName: "东软集团"},
			"PT-20260205-002": {Base: domain.Base{ID: "PT-20260205-002"}, CompanyName: "中软国际"},
		},
		Matchings: map[string]domain.MatchCandidate{
			"MC-20260205-001": {
				Base: domain.Base{ID: "MC-20260205-001"}, GroupID: "GRP-1", DemandID: "REQ-20260205-001",
				PartnerID: "PT-20260205-001", Rank: 1, SubScores: scores,
				TotalScore: domain.ComputeTotalScore(scores), Status: domain.MatchStatusRecommended,
			},
			"MC-20260205-002": {
				Base: domain.Base{ID: "MC-20260205-002"}, GroupID: "GRP-1", DemandID: "REQ-20260205-001",
				PartnerID: "PT-20260205-002", Rank: 2, SubScores: scores,
				TotalScore: domain.ComputeTotalScore(scores), Status: domain.MatchStatusRecommended,
			},
		},
		Counters: domain.Counters{Demand: 1, Partner: 2, Matching: 2},
	}
}

func TestCheckAcceptsConsistentSnapshot(t *testing.T) {
	if problems := check(validSnapshot()); len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
}

func TestCheckFlagsBrokenReferences(t *testing.T) {
	snap := validSnapshot()
	m := snap.Matchings["MC-20260205-001"]
	m.PartnerID = "PT-20990101-404"
	snap.Matchings["MC-20260205-001"] = m

	problems := check(snap)
	if len(problems) != 1 || !strings.Contains(problems[0], "missing partner") {
		t.Fatalf("problems = %v", problems)
	}
}

func TestCheckFlagsDuplicatePartnerInGroup(t *testing.T) {
	snap := validSnapshot()
	m := snap.Matchings["MC-20260205-002"]
	m.PartnerID = "PT-20260205-001"
	snap.Matchings["MC-20260205-002"] = m

	problems := check(snap)
	if len(problems) != 1 || !strings.Contains(problems[0], "twice") {
		t.Fatalf("problems = %v", problems)
	}
}

func TestCheckFlagsScoreInconsistencies(t *testing.T) {
	snap := validSnapshot()
	m := snap.Matchings["MC-20260205-001"]
	m.TotalScore = 100
	m.Presales = &domain.Evaluation{Score: 12, Evaluator: "售前顾问"}
	snap.Matchings["MC-20260205-001"] = m

	problems := check(snap)
	if len(problems) != 2 {
		t.Fatalf("problems = %v", problems)
	}
	joined := strings.Join(problems, "\n")
	if !strings.Contains(joined, "recomputed") || !strings.Contains(joined, "outside 1..10") {
		t.Fatalf("problems = %v", problems)
	}
}

func TestCheckFlagsTwoAcceptedMembers(t *testing.T) {
	snap := validSnapshot()
	for id, m := range snap.Matchings {
		m.Status = domain.MatchStatusConfirmed
		snap.Matchings[id] = m
	}

	problems := check(snap)
	if len(problems) != 1 || !strings.Contains(problems[0], "confirmed/signed") {
		t.Fatalf("problems = %v", problems)
	}
}

func TestCheckFlagsStaleSnapshot(t *testing.T) {
	snap := validSnapshot()
	m := snap.Matchings["MC-20260205-001"]
	m.GroupID = ""
	snap.Matchings["MC-20260205-001"] = m

	problems := check(snap)
	joined := strings.Join(problems, "\n")
	if !strings.Contains(joined, "stale") {
		t.Fatalf("problems = %v", problems)
	}
}

func writeSnapshot(t *testing.T, snap domain.Snapshot) string {
	t.Helper()
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestCLIExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer

	path := writeSnapshot(t, validSnapshot())
	if code := cli([]string{"-snapshot", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("valid snapshot exit = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "snapshot ok") {
		t.Fatalf("stdout = %s", stdout.String())
	}

	broken := validSnapshot()
	m := broken.Matchings["MC-20260205-001"]
	m.DemandID = "REQ-20990101-404"
	broken.Matchings["MC-20260205-001"] = m
	stdout.Reset()
	stderr.Reset()
	if code := cli([]string{"-snapshot", writeSnapshot(t, broken)}, &stdout, &stderr); code != 1 {
		t.Fatalf("broken snapshot exit = %d", code)
	}
	if !strings.Contains(stderr.String(), "problem(s) found") {
		t.Fatalf("stderr = %s", stderr.String())
	}

	stdout.Reset()
	stderr.Reset()
	if code := cli([]string{"-snapshot", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &stderr); code != 1 {
		t.Fatalf("missing file exit = %d", code)
	}

	if code := cli([]string{"-bogus-flag"}, &stdout, &stderr); code != 2 {
		t.Fatalf("bad flag exit = %d", code)
	}
}
