// Package memory provides the in-memory transactional store backing the
// tracker. Durable backends embed it and persist a snapshot of its state
// after every committed transaction.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"matchcore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.Transaction     = (*transaction)(nil)
	_ domain.TransactionView = (transactionView{})
)

type (
	// Demand aliases domain.Demand for in-memory persistence operations.
	Demand = domain.Demand
	// Analysis aliases domain.Analysis.
	Analysis = domain.Analysis
	// Partner aliases domain.Partner.
	Partner = domain.Partner
	// MatchCandidate aliases domain.MatchCandidate.
	MatchCandidate = domain.MatchCandidate
	// Activity aliases domain.Activity.
	Activity = domain.Activity
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// Snapshot aliases domain.Snapshot, the serialisable full-state form.
	Snapshot = domain.Snapshot
)

func mustPayload(label string, v any) domain.ChangePayload {
	p, err := domain.NewChangePayloadFromValue(v)
	if err != nil {
		panic(fmt.Errorf("memory store %s payload: %w", label, err))
	}
	return p
}

type memoryState struct {
	demands    map[string]Demand
	analyses   map[string]Analysis
	partners   map[string]Partner
	matchings  map[string]MatchCandidate
	activities []Activity
	counters   domain.Counters
}

func newMemoryState() memoryState {
	return memoryState{
		demands:   make(map[string]Demand),
		analyses:  make(map[string]Analysis),
		partners:  make(map[string]Partner),
		matchings: make(map[string]MatchCandidate),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.demands {
		cloned.demands[k] = cloneDemand(v)
	}
	for k, v := range s.analyses {
		cloned.analyses[k] = cloneAnalysis(v)
	}
	for k, v := range s.partners {
		cloned.partners[k] = clonePartner(v)
	}
	for k, v := range s.matchings {
		cloned.matchings[k] = cloneMatching(v)
	}
	cloned.activities = cloneActivities(s.activities)
	cloned.counters = s.counters
	return cloned
}

func cloneDemand(d Demand) Demand {
	cp := d
	cp.ProjectTypes = append([]string(nil), d.ProjectTypes...)
	return cp
}

func cloneAnalysis(a Analysis) Analysis { return a }

func clonePartner(p Partner) Partner {
	cp := p
	cp.Industries = append([]string(nil), p.Industries...)
	cp.Skills = append([]string(nil), p.Skills...)
	cp.ProjectTypes = append([]string(nil), p.ProjectTypes...)
	return cp
}

func cloneMatching(m MatchCandidate) MatchCandidate {
	cp := m
	if m.Product != nil {
		eval := *m.Product
		cp.Product = &eval
	}
	if m.Presales != nil {
		eval := *m.Presales
		cp.Presales = &eval
	}
	return cp
}

func cloneActivities(in []Activity) []Activity {
	if in == nil {
		return nil
	}
	return append([]Activity(nil), in...)
}

func snapshotFromMemoryState(s memoryState) Snapshot {
	snap := Snapshot{
		Demands:    make(map[string]Demand, len(s.demands)),
		Analyses:   make(map[string]Analysis, len(s.analyses)),
		Partners:   make(map[string]Partner, len(s.partners)),
		Matchings:  make(map[string]MatchCandidate, len(s.matchings)),
		Activities: cloneActivities(s.activities),
		Counters:   s.counters,
	}
	for k, v := range s.demands {
		snap.Demands[k] = cloneDemand(v)
	}
	for k, v := range s.analyses {
		snap.Analyses[k] = cloneAnalysis(v)
	}
	for k, v := range s.partners {
		snap.Partners[k] = clonePartner(v)
	}
	for k, v := range s.matchings {
		snap.Matchings[k] = cloneMatching(v)
	}
	return snap
}

func memoryStateFromSnapshot(snap Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range snap.Demands {
		state.demands[k] = cloneDemand(v)
	}
	for k, v := range snap.Analyses {
		state.analyses[k] = cloneAnalysis(v)
	}
	for k, v := range snap.Partners {
		state.partners[k] = clonePartner(v)
	}
	for k, v := range snap.Matchings {
		state.matchings[k] = cloneMatching(v)
	}
	state.activities = cloneActivities(snap.Activities)
	if len(state.activities) > domain.ActivityCap {
		state.activities = state.activities[:domain.ActivityCap]
	}
	state.counters = snap.Counters
	return state
}

// Store provides an in-memory transactional store for the tracker domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snap)
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc replaces the time provider. Generated identifiers and every
// timestamp written by subsequent transactions derive from it.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListDemands returns all demands within the transaction snapshot.
func (v transactionView) ListDemands() []Demand {
	return listDemands(v.state)
}

// ListAnalyses returns all analyses.
func (v transactionView) ListAnalyses() []Analysis {
	return listAnalyses(v.state)
}

// ListPartners returns all partners.
func (v transactionView) ListPartners() []Partner {
	return listPartners(v.state)
}

// ListMatchCandidates returns all match candidates.
func (v transactionView) ListMatchCandidates() []MatchCandidate {
	return listMatchings(v.state)
}

// ListMatchGroup returns the members of one recommendation group ordered by rank.
func (v transactionView) ListMatchGroup(groupID string) []MatchCandidate {
	return listMatchGroup(v.state, groupID)
}

// FindDemand retrieves a demand by ID from the snapshot.
func (v transactionView) FindDemand(id string) (Demand, bool) {
	d, ok := v.state.demands[id]
	if !ok {
		return Demand{}, false
	}
	return cloneDemand(d), true
}

// FindAnalysis retrieves an analysis by ID from the snapshot.
func (v transactionView) FindAnalysis(id string) (Analysis, bool) {
	a, ok := v.state.analyses[id]
	if !ok {
		return Analysis{}, false
	}
	return cloneAnalysis(a), true
}

// FindPartner retrieves a partner by ID from the snapshot.
func (v transactionView) FindPartner(id string) (Partner, bool) {
	p, ok := v.state.partners[id]
	if !ok {
		return Partner{}, false
	}
	return clonePartner(p), true
}

// FindMatchCandidate retrieves a match candidate by ID from the snapshot.
func (v transactionView) FindMatchCandidate(id string) (MatchCandidate, bool) {
	m, ok := v.state.matchings[id]
	if !ok {
		return MatchCandidate{}, false
	}
	return cloneMatching(m), true
}

// ListActivities returns the retained activity log, newest first.
func (v transactionView) ListActivities() []Activity {
	return cloneActivities(v.state.activities)
}

// Counters returns the identifier sequences of the snapshot.
func (v transactionView) Counters() domain.Counters {
	return v.state.counters
}

func listDemands(state *memoryState) []Demand {
	out := make([]Demand, 0, len(state.demands))
	for _, d := range state.demands {
		out = append(out, cloneDemand(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func listAnalyses(state *memoryState) []Analysis {
	out := make([]Analysis, 0, len(state.analyses))
	for _, a := range state.analyses {
		out = append(out, cloneAnalysis(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func listPartners(state *memoryState) []Partner {
	out := make([]Partner, 0, len(state.partners))
	for _, p := range state.partners {
		out = append(out, clonePartner(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func listMatchings(state *memoryState) []MatchCandidate {
	out := make([]MatchCandidate, 0, len(state.matchings))
	for _, m := range state.matchings {
		out = append(out, cloneMatching(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func listMatchGroup(state *memoryState, groupID string) []MatchCandidate {
	var out []MatchCandidate
	for _, m := range state.matchings {
		if m.GroupID == groupID {
			out = append(out, cloneMatching(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].EffectiveRank(), out[j].EffectiveRank()
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Now returns the transaction clock shared by every write in this scope.
func (tx *transaction) Now() time.Time {
	return tx.now
}

// NextID issues the next human-readable identifier for the entity kind. The
// per-kind sequence is consumed even if the transaction later aborts on a
// separate error, which is acceptable: sequences must be unique, not dense.
func (tx *transaction) NextID(kind domain.EntityType) (string, error) {
	var seq int
	switch kind {
	case domain.EntityDemand:
		tx.state.counters.Demand++
		seq = tx.state.counters.Demand
	case domain.EntityAnalysis:
		tx.state.counters.Analysis++
		seq = tx.state.counters.Analysis
	case domain.EntityPartner:
		tx.state.counters.Partner++
		seq = tx.state.counters.Partner
	case domain.EntityMatchCandidate:
		tx.state.counters.Matching++
		seq = tx.state.counters.Matching
	default:
		return "", fmt.Errorf("next id: unknown entity kind %q", kind)
	}
	return domain.FormatID(kind, tx.now, seq)
}

// NextGroupID issues a recommendation-group identifier from the transaction clock.
func (tx *transaction) NextGroupID() string {
	return domain.FormatGroupID(tx.now)
}

// AppendActivity prepends an activity entry and evicts beyond the cap.
func (tx *transaction) AppendActivity(text, color string) {
	entry := Activity{Text: text, Color: color, At: tx.now}
	tx.state.activities = append([]Activity{entry}, tx.state.activities...)
	if len(tx.state.activities) > domain.ActivityCap {
		tx.state.activities = tx.state.activities[:domain.ActivityCap]
	}
}

// ListDemands returns all demands within the transaction scope.
func (tx *transaction) ListDemands() []Demand {
	return listDemands(&tx.state)
}

// ListAnalyses returns all analyses within the transaction scope.
func (tx *transaction) ListAnalyses() []Analysis {
	return listAnalyses(&tx.state)
}

// ListPartners returns all partners within the transaction scope.
func (tx *transaction) ListPartners() []Partner {
	return listPartners(&tx.state)
}

// ListMatchCandidates returns all match candidates within the transaction scope.
func (tx *transaction) ListMatchCandidates() []MatchCandidate {
	return listMatchings(&tx.state)
}

// ListMatchGroup returns one recommendation group ordered by rank.
func (tx *transaction) ListMatchGroup(groupID string) []MatchCandidate {
	return listMatchGroup(&tx.state, groupID)
}

// FindDemand exposes demand lookup within the transaction scope.
func (tx *transaction) FindDemand(id string) (Demand, bool) {
	d, ok := tx.state.demands[id]
	if !ok {
		return Demand{}, false
	}
	return cloneDemand(d), true
}

// FindAnalysis exposes analysis lookup within the transaction scope.
func (tx *transaction) FindAnalysis(id string) (Analysis, bool) {
	a, ok := tx.state.analyses[id]
	if !ok {
		return Analysis{}, false
	}
	return cloneAnalysis(a), true
}

// FindPartner exposes partner lookup within the transaction scope.
func (tx *transaction) FindPartner(id string) (Partner, bool) {
	p, ok := tx.state.partners[id]
	if !ok {
		return Partner{}, false
	}
	return clonePartner(p), true
}

// FindMatchCandidate exposes candidate lookup within the transaction scope.
func (tx *transaction) FindMatchCandidate(id string) (MatchCandidate, bool) {
	m, ok := tx.state.matchings[id]
	if !ok {
		return MatchCandidate{}, false
	}
	return cloneMatching(m), true
}

// CreateDemand stores a new demand within the transaction.
func (tx *transaction) CreateDemand(d Demand) (Demand, error) {
	if d.ID == "" {
		id, err := tx.NextID(domain.EntityDemand)
		if err != nil {
			return Demand{}, err
		}
		d.ID = id
	}
	if _, exists := tx.state.demands[d.ID]; exists {
		return Demand{}, fmt.Errorf("demand %q already exists", d.ID)
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.demands[d.ID] = cloneDemand(d)
	tx.recordChange(Change{Entity: domain.EntityDemand, Action: domain.ActionCreate, After: mustPayload("create demand", cloneDemand(d))})
	return cloneDemand(d), nil
}

// UpdateDemand mutates a demand using the provided mutator function.
func (tx *transaction) UpdateDemand(id string, mutator func(*Demand) error) (Demand, error) {
	current, ok := tx.state.demands[id]
	if !ok {
		return Demand{}, domain.NotFoundError{Entity: domain.EntityDemand, ID: id}
	}
	before := mustPayload("update demand", cloneDemand(current))
	if err := mutator(&current); err != nil {
		return Demand{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.demands[id] = cloneDemand(current)
	tx.recordChange(Change{Entity: domain.EntityDemand, Action: domain.ActionUpdate, Before: before, After: mustPayload("update demand", cloneDemand(current))})
	return cloneDemand(current), nil
}

// DeleteDemand removes a demand from the transaction state.
func (tx *transaction) DeleteDemand(id string) error {
	current, ok := tx.state.demands[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityDemand, ID: id}
	}
	delete(tx.state.demands, id)
	tx.recordChange(Change{Entity: domain.EntityDemand, Action: domain.ActionDelete, Before: mustPayload("delete demand", cloneDemand(current))})
	return nil
}

// CreateAnalysis stores a new analysis record.
func (tx *transaction) CreateAnalysis(a Analysis) (Analysis, error) {
	if a.ID == "" {
		id, err := tx.NextID(domain.EntityAnalysis)
		if err != nil {
			return Analysis{}, err
		}
		a.ID = id
	}
	if _, exists := tx.state.analyses[a.ID]; exists {
		return Analysis{}, fmt.Errorf("analysis %q already exists", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.analyses[a.ID] = cloneAnalysis(a)
	tx.recordChange(Change{Entity: domain.EntityAnalysis, Action: domain.ActionCreate, After: mustPayload("create analysis", cloneAnalysis(a))})
	return cloneAnalysis(a), nil
}

// UpdateAnalysis mutates an existing analysis.
func (tx *transaction) UpdateAnalysis(id string, mutator func(*Analysis) error) (Analysis, error) {
	current, ok := tx.state.analyses[id]
	if !ok {
		return Analysis{}, domain.NotFoundError{Entity: domain.EntityAnalysis, ID: id}
	}
	before := mustPayload("update analysis", cloneAnalysis(current))
	if err := mutator(&current); err != nil {
		return Analysis{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.analyses[id] = cloneAnalysis(current)
	tx.recordChange(Change{Entity: domain.EntityAnalysis, Action: domain.ActionUpdate, Before: before, After: mustPayload("update analysis", cloneAnalysis(current))})
	return cloneAnalysis(current), nil
}

// DeleteAnalysis removes an analysis from state.
func (tx *transaction) DeleteAnalysis(id string) error {
	current, ok := tx.state.analyses[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAnalysis, ID: id}
	}
	delete(tx.state.analyses, id)
	tx.recordChange(Change{Entity: domain.EntityAnalysis, Action: domain.ActionDelete, Before: mustPayload("delete analysis", cloneAnalysis(current))})
	return nil
}

// CreatePartner stores a new partner record.
func (tx *transaction) CreatePartner(p Partner) (Partner, error) {
	if p.ID == "" {
		id, err := tx.NextID(domain.EntityPartner)
		if err != nil {
			return Partner{}, err
		}
		p.ID = id
	}
	if _, exists := tx.state.partners[p.ID]; exists {
		return Partner{}, fmt.Errorf("partner %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.partners[p.ID] = clonePartner(p)
	tx.recordChange(Change{Entity: domain.EntityPartner, Action: domain.ActionCreate, After: mustPayload("create partner", clonePartner(p))})
	return clonePartner(p), nil
}

// UpdatePartner mutates an existing partner.
func (tx *transaction) UpdatePartner(id string, mutator func(*Partner) error) (Partner, error) {
	current, ok := tx.state.partners[id]
	if !ok {
		return Partner{}, domain.NotFoundError{Entity: domain.EntityPartner, ID: id}
	}
	before := mustPayload("update partner", clonePartner(current))
	if err := mutator(&current); err != nil {
		return Partner{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.partners[id] = clonePartner(current)
	tx.recordChange(Change{Entity: domain.EntityPartner, Action: domain.ActionUpdate, Before: before, After: mustPayload("update partner", clonePartner(current))})
	return clonePartner(current), nil
}

// DeletePartner removes a partner from state.
func (tx *transaction) DeletePartner(id string) error {
	current, ok := tx.state.partners[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityPartner, ID: id}
	}
	delete(tx.state.partners, id)
	tx.recordChange(Change{Entity: domain.EntityPartner, Action: domain.ActionDelete, Before: mustPayload("delete partner", clonePartner(current))})
	return nil
}

// CreateMatchCandidate stores a new candidate within the transaction.
func (tx *transaction) CreateMatchCandidate(m MatchCandidate) (MatchCandidate, error) {
	if m.ID == "" {
		id, err := tx.NextID(domain.EntityMatchCandidate)
		if err != nil {
			return MatchCandidate{}, err
		}
		m.ID = id
	}
	if _, exists := tx.state.matchings[m.ID]; exists {
		return MatchCandidate{}, fmt.Errorf("match candidate %q already exists", m.ID)
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.matchings[m.ID] = cloneMatching(m)
	tx.recordChange(Change{Entity: domain.EntityMatchCandidate, Action: domain.ActionCreate, After: mustPayload("create matching", cloneMatching(m))})
	return cloneMatching(m), nil
}

// UpdateMatchCandidate mutates an existing candidate.
func (tx *transaction) UpdateMatchCandidate(id string, mutator func(*MatchCandidate) error) (MatchCandidate, error) {
	current, ok := tx.state.matchings[id]
	if !ok {
		return MatchCandidate{}, domain.NotFoundError{Entity: domain.EntityMatchCandidate, ID: id}
	}
	before := mustPayload("update matching", cloneMatching(current))
	if err := mutator(&current); err != nil {
		return MatchCandidate{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.matchings[id] = cloneMatching(current)
	tx.recordChange(Change{Entity: domain.EntityMatchCandidate, Action: domain.ActionUpdate, Before: before, After: mustPayload("update matching", cloneMatching(current))})
	return cloneMatching(current), nil
}

// DeleteMatchCandidate removes a candidate from the transaction state.
func (tx *transaction) DeleteMatchCandidate(id string) error {
	current, ok := tx.state.matchings[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityMatchCandidate, ID: id}
	}
	delete(tx.state.matchings, id)
	tx.recordChange(Change{Entity: domain.EntityMatchCandidate, Action: domain.ActionDelete, Before: mustPayload("delete matching", cloneMatching(current))})
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetDemand retrieves a demand by ID from committed state.
func (s *Store) GetDemand(id string) (Demand, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.demands[id]
	if !ok {
		return Demand{}, false
	}
	return cloneDemand(d), true
}

// ListDemands returns all demands from committed state.
func (s *Store) ListDemands() []Demand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDemands(&s.state)
}

// GetPartner retrieves a partner by ID from committed state.
func (s *Store) GetPartner(id string) (Partner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.partners[id]
	if !ok {
		return Partner{}, false
	}
	return clonePartner(p), true
}

// ListPartners returns all partners from committed state.
func (s *Store) ListPartners() []Partner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPartners(&s.state)
}

// ListAnalyses returns all analyses from committed state.
func (s *Store) ListAnalyses() []Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAnalyses(&s.state)
}

// ListMatchCandidates returns all match candidates from committed state.
func (s *Store) ListMatchCandidates() []MatchCandidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listMatchings(&s.state)
}

// ListActivities returns the retained activity log from committed state.
func (s *Store) ListActivities() []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneActivities(s.state.activities)
}
