package core

import (
	"context"
	"sort"
	"time"

	"matchcore/pkg/domain"
)

// MatchGroup is a read-side grouping of candidates sharing one GroupID,
// members ordered rank-ascending (missing rank sorts last).
type MatchGroup struct {
	GroupID  string
	DemandID string
	Members  []MatchCandidate
}

// Group returns the members of one recommendation group.
func (s *Service) Group(ctx context.Context, groupID string) (MatchGroup, error) {
	var group MatchGroup
	err := s.store.View(ctx, func(view TransactionView) error {
		members := view.ListMatchGroup(groupID)
		if len(members) == 0 {
			return domain.NotFoundError{Entity: EntityMatchCandidate, ID: groupID}
		}
		group = MatchGroup{GroupID: groupID, DemandID: members[0].DemandID, Members: members}
		return nil
	})
	return group, err
}

// GroupsForDemand returns every recommendation group of a demand, ordered by
// group id (creation order, since group ids are clock-derived).
func (s *Service) GroupsForDemand(ctx context.Context, demandID string) ([]MatchGroup, error) {
	var groups []MatchGroup
	err := s.store.View(ctx, func(view TransactionView) error {
		byGroup := map[string]struct{}{}
		for _, m := range view.ListMatchCandidates() {
			if m.DemandID != demandID {
				continue
			}
			byGroup[m.GroupID] = struct{}{}
		}
		ids := make([]string, 0, len(byGroup))
		for id := range byGroup {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			members := view.ListMatchGroup(id)
			groups = append(groups, MatchGroup{GroupID: id, DemandID: demandID, Members: members})
		}
		return nil
	})
	return groups, err
}

// DashboardStats aggregates the headline pipeline numbers.
type DashboardStats struct {
	DemandsByStatus map[DemandStatus]int `json:"demands_by_status"`
	TotalDemands    int                  `json:"total_demands"`
	TotalPartners   int                  `json:"total_partners"`
	ActivePartners  int                  `json:"active_partners"`
	TotalCandidates int                  `json:"total_candidates"`
	SignedDemands   int                  `json:"signed_demands"`
}

// Stats computes the dashboard aggregates from committed state.
func (s *Service) Stats(ctx context.Context) (DashboardStats, error) {
	stats := DashboardStats{DemandsByStatus: map[DemandStatus]int{}}
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, d := range view.ListDemands() {
			stats.TotalDemands++
			stats.DemandsByStatus[d.Status]++
			if d.Status == domain.DemandStatusSigned {
				stats.SignedDemands++
			}
		}
		for _, p := range view.ListPartners() {
			stats.TotalPartners++
			if p.CooperationStatus == domain.CooperationActive {
				stats.ActivePartners++
			}
		}
		stats.TotalCandidates = len(view.ListMatchCandidates())
		return nil
	})
	return stats, err
}

// KanbanColumn identifies one column of the pipeline board.
type KanbanColumn string

// Board columns. Analyzed demands sit in the to-match column awaiting a
// recommendation group.
const (
	ColumnPending     KanbanColumn = "pending"
	ColumnAnalyzing   KanbanColumn = "analyzing"
	ColumnToMatch     KanbanColumn = "to_match"
	ColumnRecommended KanbanColumn = "recommended"
	ColumnSigned      KanbanColumn = "signed"
)

func columnFor(status DemandStatus) KanbanColumn {
	switch status {
	case domain.DemandStatusPending:
		return ColumnPending
	case domain.DemandStatusAnalyzing:
		return ColumnAnalyzing
	case domain.DemandStatusAnalyzed:
		return ColumnToMatch
	case domain.DemandStatusRecommended:
		return ColumnRecommended
	case domain.DemandStatusSigned:
		return ColumnSigned
	default:
		return ColumnPending
	}
}

// Board groups all demands into pipeline columns.
func (s *Service) Board(ctx context.Context) (map[KanbanColumn][]Demand, error) {
	board := map[KanbanColumn][]Demand{
		ColumnPending:     {},
		ColumnAnalyzing:   {},
		ColumnToMatch:     {},
		ColumnRecommended: {},
		ColumnSigned:      {},
	}
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, d := range view.ListDemands() {
			col := columnFor(d.Status)
			board[col] = append(board[col], d)
		}
		return nil
	})
	return board, err
}

// GanttRow is one demand's schedule span for timeline rendering.
type GanttRow struct {
	DemandID    string       `json:"demand_id"`
	ProjectName string       `json:"project_name"`
	Status      DemandStatus `json:"status"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
}

// defaultGanttSpan is used when a demand carries no parseable deadline.
const defaultGanttSpan = 30 * 24 * time.Hour

// GanttRows derives the created-to-deadline span of every demand.
func (s *Service) GanttRows(ctx context.Context) ([]GanttRow, error) {
	var rows []GanttRow
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, d := range view.ListDemands() {
			row := GanttRow{
				DemandID:    d.ID,
				ProjectName: d.ProjectName,
				Status:      d.Status,
				Start:       d.CreatedAt,
			}
			if end, perr := time.Parse("2006-01-02", d.Deadline); perr == nil && end.After(row.Start) {
				row.End = end
			} else {
				row.End = row.Start.Add(defaultGanttSpan)
			}
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].DemandID < rows[j].DemandID })
		return nil
	})
	return rows, err
}
