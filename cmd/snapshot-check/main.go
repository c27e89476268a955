// Command snapshot-check validates an exported tracker snapshot offline:
// referential integrity, recommendation-group consistency, score ranges and
// schema staleness. Intended for maintenance before restoring a snapshot
// into a live store.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"matchcore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("snapshot-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var path string
	fs.StringVar(&path, "snapshot", "snapshot.json", "path to snapshot json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	problems, err := run(path)
	if err != nil {
		fmt.Fprintf(stderr, "snapshot check failed: %v\n", err)
		return 1
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(stderr, p)
		}
		fmt.Fprintf(stderr, "%d problem(s) found\n", len(problems))
		return 1
	}
	fmt.Fprintln(stdout, "snapshot ok")
	return 0
}

func run(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return check(snap), nil
}

func check(snap domain.Snapshot) []string {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if snap.Stale() {
		report("snapshot is stale: at least one matching lacks a group id")
	}

	for id, d := range snap.Demands {
		if d.ID != id {
			report("demand key %s does not match id %s", id, d.ID)
		}
	}
	for id, p := range snap.Partners {
		if p.ID != id {
			report("partner key %s does not match id %s", id, p.ID)
		}
	}
	for id, a := range snap.Analyses {
		if a.ID != id {
			report("analysis key %s does not match id %s", id, a.ID)
		}
		if _, ok := snap.Demands[a.DemandID]; !ok {
			report("analysis %s references missing demand %s", id, a.DemandID)
		}
	}

	groups := map[string][]domain.MatchCandidate{}
	for id, m := range snap.Matchings {
		if m.ID != id {
			report("matching key %s does not match id %s", id, m.ID)
		}
		if _, ok := snap.Demands[m.DemandID]; !ok {
			report("matching %s references missing demand %s", id, m.DemandID)
		}
		if _, ok := snap.Partners[m.PartnerID]; !ok {
			report("matching %s references missing partner %s", id, m.PartnerID)
		}
		if !m.SubScores.Valid() {
			report("matching %s has sub-scores outside 1..10", id)
		} else if want := domain.ComputeTotalScore(m.SubScores); m.TotalScore != want {
			report("matching %s total score %d, recomputed %d", id, m.TotalScore, want)
		}
		for _, track := range []struct {
			name string
			eval *domain.Evaluation
		}{{"product", m.Product}, {"presales", m.Presales}} {
			if track.eval != nil && (track.eval.Score < 1 || track.eval.Score > 10) {
				report("matching %s %s score %d outside 1..10", id, track.name, track.eval.Score)
			}
		}
		if m.GroupID != "" {
			groups[m.GroupID] = append(groups[m.GroupID], m)
		}
	}

	groupIDs := make([]string, 0, len(groups))
	for gid := range groups {
		groupIDs = append(groupIDs, gid)
	}
	sort.Strings(groupIDs)
	for _, gid := range groupIDs {
		members := groups[gid]
		demandID := members[0].DemandID
		finals := 0
		partners := map[string]bool{}
		for _, m := range members {
			if m.DemandID != demandID {
				report("group %s spans demands %s and %s", gid, demandID, m.DemandID)
			}
			if m.Status == domain.MatchStatusConfirmed || m.Status == domain.MatchStatusSigned {
				finals++
			}
			if partners[m.PartnerID] {
				report("group %s recommends partner %s twice", gid, m.PartnerID)
			}
			partners[m.PartnerID] = true
		}
		if finals > 1 {
			report("group %s has %d confirmed/signed members", gid, finals)
		}
	}

	if n := len(snap.Activities); n > domain.ActivityCap {
		report("activity log holds %d entries, cap is %d", n, domain.ActivityCap)
	}
	if snap.Counters.Demand < 0 || snap.Counters.Analysis < 0 || snap.Counters.Partner < 0 || snap.Counters.Matching < 0 {
		report("counters must not be negative")
	}
	return problems
}
