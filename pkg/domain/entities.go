// Package domain defines the persistent entities, value types, and rule
// evaluation primitives of the partner-collaboration tracker.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityDemand identifies a customer demand record.
	EntityDemand EntityType = "demand"
	// EntityAnalysis identifies a product feasibility analysis record.
	EntityAnalysis EntityType = "analysis"
	// EntityPartner identifies a collaborating-company record.
	EntityPartner EntityType = "partner"
	// EntityMatchCandidate identifies one partner proposed for one demand.
	EntityMatchCandidate EntityType = "match_candidate"
)

// DemandStatus tracks a demand through the pipeline from intake to signing.
type DemandStatus string

// Canonical demand statuses. A demand mirrors its most advanced child record;
// see the synchronizer rules in internal/core.
const (
	// DemandStatusPending marks a freshly submitted demand awaiting analysis.
	DemandStatusPending DemandStatus = "pending"
	// DemandStatusAnalyzing marks a demand with an in-flight analysis.
	DemandStatusAnalyzing DemandStatus = "analyzing"
	// DemandStatusAnalyzed marks a demand whose analysis completed.
	DemandStatusAnalyzed DemandStatus = "analyzed"
	// DemandStatusRecommended marks a demand with an active recommendation group.
	DemandStatusRecommended DemandStatus = "recommended"
	// DemandStatusSigned marks a contracted demand.
	DemandStatusSigned DemandStatus = "signed"
)

// AnalysisStatus enumerates feasibility-analysis workflow states.
type AnalysisStatus string

// Canonical analysis statuses.
const (
	AnalysisStatusAnalyzing AnalysisStatus = "analyzing"
	AnalysisStatusDone      AnalysisStatus = "done"
)

// MatchStatus enumerates candidate states within a recommendation group.
type MatchStatus string

// Canonical match-candidate statuses. Signed is terminal: no candidate-level
// transition leaves it, and a signed member freezes its whole group against
// destructive operations.
const (
	MatchStatusRecommended    MatchStatus = "recommended"
	MatchStatusProductScored  MatchStatus = "product_scored"
	MatchStatusPresalesScored MatchStatus = "presales_scored"
	MatchStatusScored         MatchStatus = "scored"
	MatchStatusConfirmed      MatchStatus = "confirmed"
	MatchStatusSigned         MatchStatus = "signed"
	MatchStatusRejected       MatchStatus = "rejected"
)

// ScoreTrack selects one of the two human evaluation tracks of a candidate.
type ScoreTrack string

// Evaluation tracks.
const (
	TrackProduct  ScoreTrack = "product"
	TrackPresales ScoreTrack = "presales"
)

// Complexity grades an analysed demand.
type Complexity string

// Complexity grades.
const (
	ComplexityLow  Complexity = "low"
	ComplexityMid  Complexity = "mid"
	ComplexityHigh Complexity = "high"
)

// Schedule describes a partner's delivery capacity.
type Schedule string

// Schedule bands.
const (
	ScheduleAmple Schedule = "ample"
	ScheduleTight Schedule = "tight"
	ScheduleFull  Schedule = "full"
)

// CooperationStatus marks whether a partner is currently eligible for matching.
type CooperationStatus string

// Cooperation statuses.
const (
	CooperationActive   CooperationStatus = "active"
	CooperationInactive CooperationStatus = "inactive"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Demand is a customer project request, the root unit of the pipeline.
type Demand struct {
	Base         `yaml:",inline"`
	Category     string       `json:"category" yaml:"category"`
	CustomerName string       `json:"customer_name" yaml:"customer_name"`
	Industry     string       `json:"industry" yaml:"industry"`
	ProjectName  string       `json:"project_name" yaml:"project_name"`
	ProjectTypes []string     `json:"project_types" yaml:"project_types"`
	Budget       string       `json:"budget" yaml:"budget"`
	Deadline     string       `json:"deadline" yaml:"deadline"`
	Source       string       `json:"source" yaml:"source"`
	Description  string       `json:"description" yaml:"description"`
	Painpoints   string       `json:"painpoints" yaml:"painpoints"`
	Status       DemandStatus `json:"status" yaml:"status"`
	Owner        string       `json:"owner" yaml:"owner"`
}

// Analysis is the product team's feasibility assessment of one demand. It
// references the demand, it does not own it.
type Analysis struct {
	Base          `yaml:",inline"`
	DemandID      string         `json:"demand_id" yaml:"demand_id"`
	Clarity       int            `json:"clarity" yaml:"clarity"`
	Complexity    Complexity     `json:"complexity" yaml:"complexity"`
	ProductForm   string         `json:"product_form" yaml:"product_form"`
	EstimatedDays int            `json:"estimated_days" yaml:"estimated_days"`
	Analyst       string         `json:"analyst" yaml:"analyst"`
	CoreFunctions string         `json:"core_functions" yaml:"core_functions"`
	Conclusion    string         `json:"conclusion" yaml:"conclusion"`
	Status        AnalysisStatus `json:"status" yaml:"status"`
	AnalysisDate  time.Time      `json:"analysis_date" yaml:"analysis_date"`
}

// Partner is an external company eligible to be matched to demands. Partners
// have an independent lifecycle and are only ever referenced by candidates.
type Partner struct {
	Base              `yaml:",inline"`
	CompanyName       string            `json:"company_name" yaml:"company_name"`
	CompanySize       string            `json:"company_size" yaml:"company_size"`
	Industries        []string          `json:"industries" yaml:"industries"`
	Skills            []string          `json:"skills" yaml:"skills"`
	ProjectTypes      []string          `json:"project_types" yaml:"project_types"`
	HistoryCount      int               `json:"history_count" yaml:"history_count"`
	QualityScore      int               `json:"quality_score" yaml:"quality_score"`
	AvailableStaff    int               `json:"available_staff" yaml:"available_staff"`
	Schedule          Schedule          `json:"schedule" yaml:"schedule"`
	CooperationStatus CooperationStatus `json:"cooperation_status" yaml:"cooperation_status"`
	Contact           string            `json:"contact" yaml:"contact"`
	Phone             string            `json:"phone" yaml:"phone"`
	Notes             string            `json:"notes" yaml:"notes"`
}

// SubScores are the four system-match dimensions captured when a partner is
// recommended. Each is graded 1-10.
type SubScores struct {
	Technical int `json:"technical" yaml:"technical"`
	Industry  int `json:"industry" yaml:"industry"`
	Scale     int `json:"scale" yaml:"scale"`
	Schedule  int `json:"schedule" yaml:"schedule"`
}

// Valid reports whether every sub-score lies in [1,10].
func (s SubScores) Valid() bool {
	for _, v := range []int{s.Technical, s.Industry, s.Scale, s.Schedule} {
		if v < 1 || v > 10 {
			return false
		}
	}
	return true
}

// Evaluation is one human score on a candidate, either product or presales.
type Evaluation struct {
	Score      int       `json:"score" yaml:"score"`
	Evaluator  string    `json:"evaluator" yaml:"evaluator"`
	Comment    string    `json:"comment" yaml:"comment"`
	RecordedAt time.Time `json:"recorded_at" yaml:"recorded_at"`
}

// MatchCandidate is one partner proposed for one demand within a
// recommendation group. All members of a group share GroupID and DemandID.
type MatchCandidate struct {
	Base            `yaml:",inline"`
	GroupID         string      `json:"group_id" yaml:"group_id"`
	DemandID        string      `json:"demand_id" yaml:"demand_id"`
	PartnerID       string      `json:"partner_id" yaml:"partner_id"`
	Rank            int         `json:"rank" yaml:"rank"`
	SubScores       SubScores   `json:"sub_scores" yaml:"sub_scores"`
	TotalScore      int         `json:"total_score" yaml:"total_score"`
	QualityScore    int         `json:"quality_score" yaml:"quality_score"`
	Product         *Evaluation `json:"product,omitempty" yaml:"product"`
	Presales        *Evaluation `json:"presales,omitempty" yaml:"presales"`
	CooperationMode string      `json:"cooperation_mode" yaml:"cooperation_mode"`
	Reason          string      `json:"reason" yaml:"reason"`
	Risks           string      `json:"risks" yaml:"risks"`
	Matcher         string      `json:"matcher" yaml:"matcher"`
	MatchedAt       time.Time   `json:"matched_at" yaml:"matched_at"`
	Status          MatchStatus `json:"status" yaml:"status"`
}

// BothScored reports whether both evaluation tracks carry a score.
func (m MatchCandidate) BothScored() bool {
	return m.Product != nil && m.Presales != nil
}

// EffectiveRank returns the display rank; unset ranks sort last, not first.
func (m MatchCandidate) EffectiveRank() int {
	if m.Rank <= 0 {
		return 99
	}
	return m.Rank
}

// Activity is an append-only observability entry. The store keeps the 20 most
// recent entries, newest first.
type Activity struct {
	Text  string    `json:"text" yaml:"text"`
	Color string    `json:"color" yaml:"color"`
	At    time.Time `json:"at" yaml:"at"`
}

// ActivityCap bounds the retained activity log.
const ActivityCap = 20

// Counters hold the per-kind identifier sequences. They only ever increase,
// even across deletions, so generated ids are never reused.
type Counters struct {
	Demand   int `json:"demand" yaml:"demand"`
	Analysis int `json:"analysis" yaml:"analysis"`
	Partner  int `json:"partner" yaml:"partner"`
	Matching int `json:"matching" yaml:"matching"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before ChangePayload
	After  ChangePayload
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured for rules.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
