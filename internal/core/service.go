package core

import (
	"context"
	"fmt"
	"time"

	"matchcore/internal/infra/persistence/memory"
	"matchcore/pkg/domain"
)

// Service exposes the transactional operations of the tracker: entity CRUD,
// the matching state machine (matching.go), and read-side queries. Every
// mutating operation runs inside one store transaction, appends an Activity,
// and is evaluated by the rules engine before commit.
type Service struct {
	store   PersistentStore
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// ServiceOption customises optional service collaborators.
type ServiceOption func(*Service)

// WithMetricsRecorder wires a metrics sink for operation outcomes.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = recorder }
}

// WithTracer wires a tracer producing one span per operation.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// WithAuditRecorder wires an audit sink receiving one entry per operation.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) { s.audit = recorder }
}

// NewService constructs a service backed by the supplied persistent store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// run executes fn in one store transaction wrapped by the configured
// observability hooks. fn returns the id of the primary entity touched, used
// for the audit entry.
func (s *Service) run(ctx context.Context, operation string, entity EntityType, fn func(tx Transaction) (string, error)) (Result, error) {
	started := time.Now()
	spanCtx := ctx
	var span TraceSpan
	if s.tracer != nil {
		spanCtx, span = s.tracer.Start(ctx, operation)
	}
	var entityID string
	res, err := s.store.RunInTransaction(spanCtx, func(tx Transaction) error {
		id, ferr := fn(tx)
		entityID = id
		return ferr
	})
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	}
	if s.audit != nil {
		entry := AuditEntry{
			Operation:  operation,
			Status:     AuditStatusSuccess,
			Entity:     entity,
			EntityID:   entityID,
			OccurredAt: time.Now().UTC(),
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
	return res, err
}

func validateDemandInput(d Demand, requireTypes bool) error {
	if d.CustomerName == "" {
		return domain.ValidationError{Field: "customer_name", Message: "required"}
	}
	if d.Industry == "" {
		return domain.ValidationError{Field: "industry", Message: "required"}
	}
	if d.ProjectName == "" {
		return domain.ValidationError{Field: "project_name", Message: "required"}
	}
	if requireTypes && len(d.ProjectTypes) == 0 {
		return domain.ValidationError{Field: "project_types", Message: "at least one required"}
	}
	return nil
}

func applyDemandDefaults(d *Demand) {
	if d.Status == "" {
		d.Status = domain.DemandStatusPending
	}
	if d.Owner == "" {
		d.Owner = "待分配"
	}
	if d.Budget == "" {
		d.Budget = "未定"
	}
	if d.Source == "" {
		d.Source = "未知"
	}
}

// CreateDemand persists a new demand from the manual entry path.
func (s *Service) CreateDemand(ctx context.Context, demand Demand) (Demand, Result, error) {
	var created Demand
	res, err := s.run(ctx, "create_demand", EntityDemand, func(tx Transaction) (string, error) {
		if err := validateDemandInput(demand, false); err != nil {
			return "", err
		}
		applyDemandDefaults(&demand)
		var err error
		created, err = tx.CreateDemand(demand)
		if err != nil {
			return "", err
		}
		tx.AppendActivity(fmt.Sprintf("新需求「%s」已创建，客户：%s", created.ProjectName, created.CustomerName), "#6c5ce7")
		return created.ID, nil
	})
	return created, res, err
}

// SubmitIntakeForm persists a demand arriving through the public submission
// form. It shares the creation path with manual entry but also requires at
// least one project type, and always starts pending and unassigned.
func (s *Service) SubmitIntakeForm(ctx context.Context, demand Demand) (Demand, Result, error) {
	var created Demand
	res, err := s.run(ctx, "submit_intake_form", EntityDemand, func(tx Transaction) (string, error) {
		if err := validateDemandInput(demand, true); err != nil {
			return "", err
		}
		demand.Status = domain.DemandStatusPending
		demand.Owner = "待分配"
		applyDemandDefaults(&demand)
		var err error
		created, err = tx.CreateDemand(demand)
		if err != nil {
			return "", err
		}
		tx.AppendActivity(fmt.Sprintf("新需求「%s」通过表单提交，客户：%s", created.ProjectName, created.CustomerName), "#6c5ce7")
		return created.ID, nil
	})
	return created, res, err
}

// UpdateDemand mutates a demand using the provided mutator.
func (s *Service) UpdateDemand(ctx context.Context, id string, mutator func(*Demand) error) (Demand, Result, error) {
	var updated Demand
	res, err := s.run(ctx, "update_demand", EntityDemand, func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateDemand(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteDemand removes a demand together with every analysis and match
// candidate referencing it. No orphan rows remain.
func (s *Service) DeleteDemand(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_demand", EntityDemand, func(tx Transaction) (string, error) {
		if _, ok := tx.FindDemand(id); !ok {
			return id, domain.NotFoundError{Entity: EntityDemand, ID: id}
		}
		for _, a := range tx.ListAnalyses() {
			if a.DemandID == id {
				if err := tx.DeleteAnalysis(a.ID); err != nil {
					return id, err
				}
			}
		}
		for _, m := range tx.ListMatchCandidates() {
			if m.DemandID == id {
				if err := tx.DeleteMatchCandidate(m.ID); err != nil {
					return id, err
				}
			}
		}
		return id, tx.DeleteDemand(id)
	})
}

// MarkDemandSigned contracts a demand. The confirmed candidate of that
// demand, if any, moves to signed with it. This is a demand-level operation;
// the matching state machine never invokes it.
func (s *Service) MarkDemandSigned(ctx context.Context, id string) (Demand, Result, error) {
	var signed Demand
	res, err := s.run(ctx, "mark_demand_signed", EntityDemand, func(tx Transaction) (string, error) {
		current, ok := tx.FindDemand(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityDemand, ID: id}
		}
		if current.Status == domain.DemandStatusSigned {
			signed = current
			return id, nil
		}
		var partnerName string
		for _, m := range tx.ListMatchCandidates() {
			if m.DemandID != id || m.Status != domain.MatchStatusConfirmed {
				continue
			}
			updated, err := tx.UpdateMatchCandidate(m.ID, func(c *MatchCandidate) error {
				c.Status = domain.MatchStatusSigned
				return nil
			})
			if err != nil {
				return id, err
			}
			if p, ok := tx.FindPartner(updated.PartnerID); ok {
				partnerName = p.CompanyName
			}
		}
		var err error
		signed, err = tx.UpdateDemand(id, func(d *Demand) error {
			d.Status = domain.DemandStatusSigned
			return nil
		})
		if err != nil {
			return id, err
		}
		tx.AppendActivity(fmt.Sprintf("需求「%s」已签约，伙伴：%s", signed.ProjectName, partnerName), "#00b894")
		return id, nil
	})
	return signed, res, err
}

// CreateAnalysis persists a feasibility analysis and mirrors its status onto
// the parent demand.
func (s *Service) CreateAnalysis(ctx context.Context, analysis Analysis) (Analysis, Result, error) {
	var created Analysis
	res, err := s.run(ctx, "create_analysis", EntityAnalysis, func(tx Transaction) (string, error) {
		demand, ok := tx.FindDemand(analysis.DemandID)
		if !ok {
			return "", domain.NotFoundError{Entity: EntityDemand, ID: analysis.DemandID}
		}
		if analysis.Status == "" {
			analysis.Status = domain.AnalysisStatusAnalyzing
		}
		if analysis.AnalysisDate.IsZero() {
			analysis.AnalysisDate = tx.Now()
		}
		var err error
		created, err = tx.CreateAnalysis(analysis)
		if err != nil {
			return "", err
		}
		if err := syncDemandForAnalysis(tx, created.DemandID, created.Status); err != nil {
			return created.ID, err
		}
		tx.AppendActivity(fmt.Sprintf("产品分析「%s」%s，关联需求：%s", created.ID, analysisProgressLabel(created.Status), demand.ProjectName), "#0984e3")
		return created.ID, nil
	})
	return created, res, err
}

// UpdateAnalysis mutates an analysis and re-mirrors its status onto the demand.
func (s *Service) UpdateAnalysis(ctx context.Context, id string, mutator func(*Analysis) error) (Analysis, Result, error) {
	var updated Analysis
	res, err := s.run(ctx, "update_analysis", EntityAnalysis, func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateAnalysis(id, mutator)
		if err != nil {
			return id, err
		}
		if err := syncDemandForAnalysis(tx, updated.DemandID, updated.Status); err != nil {
			return id, err
		}
		demandName := updated.DemandID
		if demand, ok := tx.FindDemand(updated.DemandID); ok {
			demandName = demand.ProjectName
		}
		tx.AppendActivity(fmt.Sprintf("产品分析「%s」%s，关联需求：%s", updated.ID, analysisProgressLabel(updated.Status), demandName), "#0984e3")
		return id, nil
	})
	return updated, res, err
}

func analysisProgressLabel(status AnalysisStatus) string {
	if status == domain.AnalysisStatusDone {
		return "已完成"
	}
	return "进行中"
}

// DeleteAnalysis removes an analysis record.
func (s *Service) DeleteAnalysis(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_analysis", EntityAnalysis, func(tx Transaction) (string, error) {
		return id, tx.DeleteAnalysis(id)
	})
}

// CreatePartner persists a new partner.
func (s *Service) CreatePartner(ctx context.Context, partner Partner) (Partner, Result, error) {
	var created Partner
	res, err := s.run(ctx, "create_partner", EntityPartner, func(tx Transaction) (string, error) {
		if partner.CompanyName == "" {
			return "", domain.ValidationError{Field: "company_name", Message: "required"}
		}
		if partner.CooperationStatus == "" {
			partner.CooperationStatus = domain.CooperationActive
		}
		var err error
		created, err = tx.CreatePartner(partner)
		if err != nil {
			return "", err
		}
		tx.AppendActivity(fmt.Sprintf("新伙伴「%s」已入库", created.CompanyName), "#00b894")
		return created.ID, nil
	})
	return created, res, err
}

// UpdatePartner mutates a partner using the provided mutator.
func (s *Service) UpdatePartner(ctx context.Context, id string, mutator func(*Partner) error) (Partner, Result, error) {
	var updated Partner
	res, err := s.run(ctx, "update_partner", EntityPartner, func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdatePartner(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeletePartner removes a partner. Deletion is blocked while any match
// candidate still references the partner.
func (s *Service) DeletePartner(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_partner", EntityPartner, func(tx Transaction) (string, error) {
		for _, m := range tx.ListMatchCandidates() {
			if m.PartnerID == id {
				return id, domain.InvalidStateError{Entity: EntityPartner, ID: id, Status: "referenced", Op: "delete"}
			}
		}
		return id, tx.DeletePartner(id)
	})
}

// Read helpers ---------------------------------------------------------------

// Demand retrieves a demand by id from committed state.
func (s *Service) Demand(id string) (Demand, bool) { return s.store.GetDemand(id) }

// Demands returns all demands.
func (s *Service) Demands() []Demand { return s.store.ListDemands() }

// Partner retrieves a partner by id from committed state.
func (s *Service) Partner(id string) (Partner, bool) { return s.store.GetPartner(id) }

// Partners returns all partners.
func (s *Service) Partners() []Partner { return s.store.ListPartners() }

// Analyses returns all analyses.
func (s *Service) Analyses() []Analysis { return s.store.ListAnalyses() }

// MatchCandidates returns all match candidates.
func (s *Service) MatchCandidates() []MatchCandidate { return s.store.ListMatchCandidates() }

// Activities returns the retained activity log, newest first.
func (s *Service) Activities() []Activity { return s.store.ListActivities() }
