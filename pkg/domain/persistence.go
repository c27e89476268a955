package domain

import (
	"context"
	"time"
)

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Mutations are applied to a private
// copy of the state and become visible only when the enclosing
// RunInTransaction call commits.
type Transaction interface {
	RuleView

	CreateDemand(Demand) (Demand, error)
	UpdateDemand(id string, mutator func(*Demand) error) (Demand, error)
	DeleteDemand(id string) error
	CreateAnalysis(Analysis) (Analysis, error)
	UpdateAnalysis(id string, mutator func(*Analysis) error) (Analysis, error)
	DeleteAnalysis(id string) error
	CreatePartner(Partner) (Partner, error)
	UpdatePartner(id string, mutator func(*Partner) error) (Partner, error)
	DeletePartner(id string) error
	CreateMatchCandidate(MatchCandidate) (MatchCandidate, error)
	UpdateMatchCandidate(id string, mutator func(*MatchCandidate) error) (MatchCandidate, error)
	DeleteMatchCandidate(id string) error

	// NextID issues the next human-readable identifier for the entity kind,
	// consuming the persisted per-kind counter.
	NextID(kind EntityType) (string, error)
	// NextGroupID issues a fresh recommendation-group identifier.
	NextGroupID() string
	// AppendActivity records an observability entry, evicting the oldest
	// beyond ActivityCap.
	AppendActivity(text, color string)
	// Now returns the transaction clock; every timestamp written during one
	// transaction shares it.
	Now() time.Time
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	ListActivities() []Activity
	Counters() Counters
}

// PersistentStore is a minimal abstraction over durable backends. Snapshotting
// implementations persist the entire state after every successful transaction.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetDemand(id string) (Demand, bool)
	ListDemands() []Demand
	GetPartner(id string) (Partner, bool)
	ListPartners() []Partner
	ListAnalyses() []Analysis
	ListMatchCandidates() []MatchCandidate
	ListActivities() []Activity
}

// Snapshot is the serialisable representation of the full store state. It is
// the only process boundary of the system.
type Snapshot struct {
	Demands    map[string]Demand         `json:"demands" yaml:"demands"`
	Analyses   map[string]Analysis       `json:"analyses" yaml:"analyses"`
	Partners   map[string]Partner        `json:"partners" yaml:"partners"`
	Matchings  map[string]MatchCandidate `json:"matchings" yaml:"matchings"`
	Activities []Activity                `json:"activities" yaml:"activities"`
	Counters   Counters                  `json:"counters" yaml:"counters"`
}

// Stale reports whether the snapshot predates the recommendation-group
// schema. Loaders discard stale snapshots and reseed sample data instead of
// attempting a migration.
func (s Snapshot) Stale() bool {
	for _, m := range s.Matchings {
		if m.GroupID == "" {
			return true
		}
	}
	return false
}
