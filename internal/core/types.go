// Package core implements the tracker's transactional service layer: entity
// CRUD, the matching state machine, the demand-status synchronizer, the
// built-in rules, and the observability hooks around them.
package core

import "matchcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	DemandStatus       = domain.DemandStatus
	AnalysisStatus     = domain.AnalysisStatus
	MatchStatus        = domain.MatchStatus
	ScoreTrack         = domain.ScoreTrack
	Severity           = domain.Severity
	Base               = domain.Base
	Demand             = domain.Demand
	Analysis           = domain.Analysis
	Partner            = domain.Partner
	MatchCandidate     = domain.MatchCandidate
	SubScores          = domain.SubScores
	Evaluation         = domain.Evaluation
	Activity           = domain.Activity
	Counters           = domain.Counters
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityDemand         = domain.EntityDemand
	EntityAnalysis       = domain.EntityAnalysis
	EntityPartner        = domain.EntityPartner
	EntityMatchCandidate = domain.EntityMatchCandidate
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

const (
	TrackProduct  = domain.TrackProduct
	TrackPresales = domain.TrackPresales
)
