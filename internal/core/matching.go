package core

import (
	"context"
	"fmt"

	"matchcore/pkg/domain"
)

// Matching state machine. Every operation runs in one transaction: the
// cascading effects (sibling rejection on finalist selection, demand status
// sync, group-wide clears) commit atomically or not at all.

const (
	defaultMatcher          = "生态负责人"
	defaultCandidateQuality = 8
	defaultSubScore         = 7
)

// GroupCandidate is one partner proposal in a group creation request.
type GroupCandidate struct {
	PartnerID       string
	SubScores       SubScores
	CooperationMode string
	Reason          string
}

// fillSubScores substitutes the default for unset dimensions, mirroring the
// intake forms which pre-fill 7 everywhere.
func fillSubScores(s SubScores) SubScores {
	if s.Technical == 0 {
		s.Technical = defaultSubScore
	}
	if s.Industry == 0 {
		s.Industry = defaultSubScore
	}
	if s.Scale == 0 {
		s.Scale = defaultSubScore
	}
	if s.Schedule == 0 {
		s.Schedule = defaultSubScore
	}
	return s
}

func clearEvaluations(m *MatchCandidate) {
	m.Product = nil
	m.Presales = nil
}

// statusAfterScoring derives the candidate status from which tracks carry a score.
func statusAfterScoring(m MatchCandidate) MatchStatus {
	switch {
	case m.Product != nil && m.Presales != nil:
		return domain.MatchStatusScored
	case m.Product != nil:
		return domain.MatchStatusProductScored
	case m.Presales != nil:
		return domain.MatchStatusPresalesScored
	default:
		return domain.MatchStatusRecommended
	}
}

func partnerName(tx Transaction, partnerID string) string {
	if p, ok := tx.FindPartner(partnerID); ok {
		return p.CompanyName
	}
	return partnerID
}

func demandName(tx Transaction, demandID string) string {
	if d, ok := tx.FindDemand(demandID); ok {
		return d.ProjectName
	}
	return demandID
}

func groupHasSigned(members []MatchCandidate) bool {
	for _, m := range members {
		if m.Status == domain.MatchStatusSigned {
			return true
		}
	}
	return false
}

// CreateGroup opens a recommendation group for a demand from 2..3 distinct
// partner proposals. Candidates start recommended with ranks in submission
// order, and the parent demand advances to recommended.
func (s *Service) CreateGroup(ctx context.Context, demandID string, candidates []GroupCandidate, matcher string) ([]MatchCandidate, Result, error) {
	var created []MatchCandidate
	res, err := s.run(ctx, "create_group", EntityMatchCandidate, func(tx Transaction) (string, error) {
		if _, ok := tx.FindDemand(demandID); !ok {
			return "", domain.NotFoundError{Entity: EntityDemand, ID: demandID}
		}
		if len(candidates) < 2 {
			return "", domain.ValidationError{Field: "candidates", Message: "at least 2 partners required"}
		}
		if len(candidates) > 3 {
			return "", domain.ValidationError{Field: "candidates", Message: "at most 3 partners per group"}
		}
		seen := make(map[string]struct{}, len(candidates))
		for _, c := range candidates {
			if c.PartnerID == "" {
				return "", domain.ValidationError{Field: "partner_id", Message: "required"}
			}
			if _, dup := seen[c.PartnerID]; dup {
				return "", domain.ValidationError{Field: "partner_id", Message: fmt.Sprintf("partner %s listed twice", c.PartnerID)}
			}
			seen[c.PartnerID] = struct{}{}
			if _, ok := tx.FindPartner(c.PartnerID); !ok {
				return "", domain.NotFoundError{Entity: EntityPartner, ID: c.PartnerID}
			}
		}
		if matcher == "" {
			matcher = defaultMatcher
		}
		groupID := tx.NextGroupID()
		for i, c := range candidates {
			scores := fillSubScores(c.SubScores)
			candidate := MatchCandidate{
				GroupID:         groupID,
				DemandID:        demandID,
				PartnerID:       c.PartnerID,
				Rank:            i + 1,
				SubScores:       scores,
				TotalScore:      domain.ComputeTotalScore(scores),
				QualityScore:    defaultCandidateQuality,
				CooperationMode: c.CooperationMode,
				Reason:          c.Reason,
				Matcher:         matcher,
				MatchedAt:       tx.Now(),
				Status:          domain.MatchStatusRecommended,
			}
			stored, err := tx.CreateMatchCandidate(candidate)
			if err != nil {
				return "", err
			}
			created = append(created, stored)
		}
		if err := syncDemandRecommended(tx, demandID); err != nil {
			return "", err
		}
		tx.AppendActivity(fmt.Sprintf("已为「%s」推荐 %d 个伙伴，待产品和售前评分", demandName(tx, demandID), len(created)), "#00b894")
		return groupID, nil
	})
	if err != nil {
		return nil, res, err
	}
	return created, res, nil
}

// ScoreCandidate records one track's evaluation on a candidate and derives
// the resulting status. Scoring a signed candidate fails.
func (s *Service) ScoreCandidate(ctx context.Context, id string, track ScoreTrack, score int, evaluator, comment string) (MatchCandidate, Result, error) {
	var updated MatchCandidate
	res, err := s.run(ctx, "score_candidate", EntityMatchCandidate, func(tx Transaction) (string, error) {
		current, ok := tx.FindMatchCandidate(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityMatchCandidate, ID: id}
		}
		if current.Status == domain.MatchStatusSigned {
			return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: id, Status: string(current.Status), Op: "score"}
		}
		if score < 1 || score > 10 {
			return id, domain.ValidationError{Field: "score", Message: "must be between 1 and 10"}
		}
		if evaluator == "" {
			if track == TrackProduct {
				evaluator = "产品经理"
			} else {
				evaluator = "售前顾问"
			}
		}
		var err error
		updated, err = tx.UpdateMatchCandidate(id, func(m *MatchCandidate) error {
			eval := &Evaluation{Score: score, Evaluator: evaluator, Comment: comment, RecordedAt: tx.Now()}
			switch track {
			case TrackProduct:
				m.Product = eval
			case TrackPresales:
				m.Presales = eval
			default:
				return domain.ValidationError{Field: "track", Message: fmt.Sprintf("unknown track %q", track)}
			}
			m.Status = statusAfterScoring(*m)
			return nil
		})
		if err != nil {
			return id, err
		}
		name := partnerName(tx, updated.PartnerID)
		switch updated.Status {
		case domain.MatchStatusScored:
			tx.AppendActivity(fmt.Sprintf("%s已获得产品和售前双方评分，综合得分：%d", name, domain.ComputeCombinedScore(updated)), "#00b894")
		case domain.MatchStatusProductScored:
			tx.AppendActivity(fmt.Sprintf("产品为伙伴「%s」评分：%d/10", name, score), "#0984e3")
		default:
			tx.AppendActivity(fmt.Sprintf("售前为伙伴「%s」评分：%d/10", name, score), "#0984e3")
		}
		return id, nil
	})
	return updated, res, err
}

// SelectFinal confirms a fully scored candidate as the finalist and rejects
// every other non-signed sibling in its group. Rejected candidates cannot be
// selected; the only way out of rejected is Reactivate.
func (s *Service) SelectFinal(ctx context.Context, id string) (MatchCandidate, Result, error) {
	var confirmed MatchCandidate
	res, err := s.run(ctx, "select_final", EntityMatchCandidate, func(tx Transaction) (string, error) {
		current, ok := tx.FindMatchCandidate(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityMatchCandidate, ID: id}
		}
		if current.Status == domain.MatchStatusConfirmed {
			confirmed = current
			return id, nil
		}
		if current.Status == domain.MatchStatusSigned || current.Status == domain.MatchStatusRejected {
			return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: id, Status: string(current.Status), Op: "select_final"}
		}
		if !current.BothScored() {
			return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: id, Status: string(current.Status), Op: "select_final"}
		}
		for _, sibling := range tx.ListMatchGroup(current.GroupID) {
			if sibling.ID == id {
				continue
			}
			if sibling.Status == domain.MatchStatusConfirmed || sibling.Status == domain.MatchStatusSigned {
				return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: sibling.ID, Status: string(sibling.Status), Op: "select_final"}
			}
		}
		var err error
		confirmed, err = tx.UpdateMatchCandidate(id, func(m *MatchCandidate) error {
			m.Status = domain.MatchStatusConfirmed
			return nil
		})
		if err != nil {
			return id, err
		}
		for _, sibling := range tx.ListMatchGroup(current.GroupID) {
			if sibling.ID == id || sibling.Status == domain.MatchStatusConfirmed || sibling.Status == domain.MatchStatusSigned || sibling.Status == domain.MatchStatusRejected {
				continue
			}
			if _, err := tx.UpdateMatchCandidate(sibling.ID, func(m *MatchCandidate) error {
				m.Status = domain.MatchStatusRejected
				return nil
			}); err != nil {
				return id, err
			}
		}
		if err := syncDemandRecommended(tx, confirmed.DemandID); err != nil {
			return id, err
		}
		tx.AppendActivity(fmt.Sprintf("🎉 选定伙伴「%s」，综合得分%d，需求：%s", partnerName(tx, confirmed.PartnerID), domain.ComputeCombinedScore(confirmed), demandName(tx, confirmed.DemandID)), "#00b894")
		return id, nil
	})
	return confirmed, res, err
}

// Reject moves a candidate to rejected. Rejecting an already rejected
// candidate is a no-op; confirmed and signed candidates cannot be rejected.
func (s *Service) Reject(ctx context.Context, id string) (MatchCandidate, Result, error) {
	var rejected MatchCandidate
	res, err := s.run(ctx, "reject_candidate", EntityMatchCandidate, func(tx Transaction) (string, error) {
		current, ok := tx.FindMatchCandidate(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityMatchCandidate, ID: id}
		}
		if current.Status == domain.MatchStatusRejected {
			rejected = current
			return id, nil
		}
		if current.Status == domain.MatchStatusSigned || current.Status == domain.MatchStatusConfirmed {
			return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: id, Status: string(current.Status), Op: "reject"}
		}
		var err error
		rejected, err = tx.UpdateMatchCandidate(id, func(m *MatchCandidate) error {
			m.Status = domain.MatchStatusRejected
			return nil
		})
		if err != nil {
			return id, err
		}
		tx.AppendActivity(fmt.Sprintf("伙伴「%s」已被拒绝", partnerName(tx, rejected.PartnerID)), "#e17055")
		return id, nil
	})
	return rejected, res, err
}

// UpdateCandidateScores edits a candidate's sub-scores and presentation
// fields, recomputing the system score. Signed candidates are immutable.
func (s *Service) UpdateCandidateScores(ctx context.Context, id string, scores SubScores, mode, reason, risks string) (MatchCandidate, Result, error) {
	var updated MatchCandidate
	res, err := s.run(ctx, "update_candidate_scores", EntityMatchCandidate, func(tx Transaction) (string, error) {
		current, ok := tx.FindMatchCandidate(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityMatchCandidate, ID: id}
		}
		if current.Status == domain.MatchStatusSigned {
			return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: id, Status: string(current.Status), Op: "update_scores"}
		}
		var err error
		updated, err = tx.UpdateMatchCandidate(id, func(m *MatchCandidate) error {
			// Unset dimensions keep their previous value.
			if scores.Technical != 0 {
				m.SubScores.Technical = scores.Technical
			}
			if scores.Industry != 0 {
				m.SubScores.Industry = scores.Industry
			}
			if scores.Scale != 0 {
				m.SubScores.Scale = scores.Scale
			}
			if scores.Schedule != 0 {
				m.SubScores.Schedule = scores.Schedule
			}
			m.TotalScore = domain.ComputeTotalScore(m.SubScores)
			if mode != "" {
				m.CooperationMode = mode
			}
			m.Reason = reason
			m.Risks = risks
			return nil
		})
		if err != nil {
			return id, err
		}
		tx.AppendActivity(fmt.Sprintf("匹配「%s」评分已更新，新匹配度：%d 分", updated.ID, updated.TotalScore), "#fdcb6e")
		return id, nil
	})
	return updated, res, err
}

// RevokeScore clears both evaluation tracks of a candidate and returns it to
// recommended. When the candidate was the confirmed finalist, siblings that
// were auto-rejected by that confirmation come back to scored or recommended.
func (s *Service) RevokeScore(ctx context.Context, id string) (MatchCandidate, Result, error) {
	var revoked MatchCandidate
	res, err := s.run(ctx, "revoke_score", EntityMatchCandidate, func(tx Transaction) (string, error) {
		current, ok := tx.FindMatchCandidate(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityMatchCandidate, ID: id}
		}
		if current.Status == domain.MatchStatusSigned {
			return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: id, Status: string(current.Status), Op: "revoke_score"}
		}
		wasConfirmed := current.Status == domain.MatchStatusConfirmed
		var err error
		revoked, err = tx.UpdateMatchCandidate(id, func(m *MatchCandidate) error {
			clearEvaluations(m)
			m.Status = domain.MatchStatusRecommended
			return nil
		})
		if err != nil {
			return id, err
		}
		if wasConfirmed {
			for _, sibling := range tx.ListMatchGroup(current.GroupID) {
				if sibling.ID == id || sibling.Status != domain.MatchStatusRejected {
					continue
				}
				if _, err := tx.UpdateMatchCandidate(sibling.ID, func(m *MatchCandidate) error {
					if m.BothScored() {
						m.Status = domain.MatchStatusScored
					} else {
						m.Status = domain.MatchStatusRecommended
					}
					return nil
				}); err != nil {
					return id, err
				}
			}
		}
		tx.AppendActivity(fmt.Sprintf("已撤回对伙伴「%s」的评分，重新进入评估", partnerName(tx, revoked.PartnerID)), "#fdcb6e")
		return id, nil
	})
	return revoked, res, err
}

// RevokeGroupScores clears every member's evaluations and returns the whole
// group to recommended. Blocked while the group holds a signed member.
func (s *Service) RevokeGroupScores(ctx context.Context, groupID string) (Result, error) {
	return s.run(ctx, "revoke_group_scores", EntityMatchCandidate, func(tx Transaction) (string, error) {
		members := tx.ListMatchGroup(groupID)
		if len(members) == 0 {
			return groupID, domain.NotFoundError{Entity: EntityMatchCandidate, ID: groupID}
		}
		if groupHasSigned(members) {
			return groupID, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: groupID, Status: string(domain.MatchStatusSigned), Op: "revoke_group_scores"}
		}
		for _, member := range members {
			if _, err := tx.UpdateMatchCandidate(member.ID, func(m *MatchCandidate) error {
				clearEvaluations(m)
				m.Status = domain.MatchStatusRecommended
				return nil
			}); err != nil {
				return groupID, err
			}
		}
		tx.AppendActivity(fmt.Sprintf("匹配组「%s」所有评分已撤回，重新进入评估", groupID), "#fdcb6e")
		return groupID, nil
	})
}

// ResetGroup deletes every candidate in the group and returns the demand to
// analyzed for a fresh matching round. Blocked while a member is signed.
func (s *Service) ResetGroup(ctx context.Context, groupID string) (Result, error) {
	return s.run(ctx, "reset_group", EntityMatchCandidate, func(tx Transaction) (string, error) {
		members := tx.ListMatchGroup(groupID)
		if len(members) == 0 {
			return groupID, domain.NotFoundError{Entity: EntityMatchCandidate, ID: groupID}
		}
		if groupHasSigned(members) {
			return groupID, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: groupID, Status: string(domain.MatchStatusSigned), Op: "reset_group"}
		}
		demandID := members[0].DemandID
		for _, member := range members {
			if err := tx.DeleteMatchCandidate(member.ID); err != nil {
				return groupID, err
			}
		}
		if _, err := tx.UpdateDemand(demandID, func(d *Demand) error {
			d.Status = domain.DemandStatusAnalyzed
			return nil
		}); err != nil {
			return groupID, err
		}
		tx.AppendActivity(fmt.Sprintf("需求「%s」的伙伴推荐已重置，需重新匹配", demandName(tx, demandID)), "#e17055")
		return groupID, nil
	})
}

// DeleteGroup deletes every candidate in the group. The demand falls back to
// analyzed only when no other group remains for it. Blocked while a member is
// signed.
func (s *Service) DeleteGroup(ctx context.Context, groupID string) (Result, error) {
	return s.run(ctx, "delete_group", EntityMatchCandidate, func(tx Transaction) (string, error) {
		members := tx.ListMatchGroup(groupID)
		if len(members) == 0 {
			return groupID, domain.NotFoundError{Entity: EntityMatchCandidate, ID: groupID}
		}
		if groupHasSigned(members) {
			return groupID, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: groupID, Status: string(domain.MatchStatusSigned), Op: "delete_group"}
		}
		demandID := members[0].DemandID
		for _, member := range members {
			if err := tx.DeleteMatchCandidate(member.ID); err != nil {
				return groupID, err
			}
		}
		if err := syncDemandAfterGroupRemoval(tx, demandID); err != nil {
			return groupID, err
		}
		tx.AppendActivity(fmt.Sprintf("已删除需求「%s」的整组匹配推荐", demandName(tx, demandID)), "#e17055")
		return groupID, nil
	})
}

// Reactivate brings a rejected candidate back to recommended with cleared
// evaluations.
func (s *Service) Reactivate(ctx context.Context, id string) (MatchCandidate, Result, error) {
	var reactivated MatchCandidate
	res, err := s.run(ctx, "reactivate_candidate", EntityMatchCandidate, func(tx Transaction) (string, error) {
		current, ok := tx.FindMatchCandidate(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityMatchCandidate, ID: id}
		}
		if current.Status != domain.MatchStatusRejected {
			return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: id, Status: string(current.Status), Op: "reactivate"}
		}
		var err error
		reactivated, err = tx.UpdateMatchCandidate(id, func(m *MatchCandidate) error {
			clearEvaluations(m)
			m.Status = domain.MatchStatusRecommended
			return nil
		})
		if err != nil {
			return id, err
		}
		tx.AppendActivity(fmt.Sprintf("伙伴「%s」已重新激活", partnerName(tx, reactivated.PartnerID)), "#0984e3")
		return id, nil
	})
	return reactivated, res, err
}

// ReplacePartner swaps the partner behind a candidate, resetting scores and
// status for a fresh evaluation. The new partner must not already sit in the
// same group; signed candidates cannot be replaced.
func (s *Service) ReplacePartner(ctx context.Context, id, newPartnerID string, scores SubScores, mode, reason string) (MatchCandidate, Result, error) {
	var replaced MatchCandidate
	res, err := s.run(ctx, "replace_partner", EntityMatchCandidate, func(tx Transaction) (string, error) {
		current, ok := tx.FindMatchCandidate(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityMatchCandidate, ID: id}
		}
		if current.Status == domain.MatchStatusSigned {
			return id, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: id, Status: string(current.Status), Op: "replace_partner"}
		}
		if _, ok := tx.FindPartner(newPartnerID); !ok {
			return id, domain.NotFoundError{Entity: EntityPartner, ID: newPartnerID}
		}
		for _, sibling := range tx.ListMatchGroup(current.GroupID) {
			if sibling.PartnerID == newPartnerID {
				return id, domain.ValidationError{Field: "partner_id", Message: fmt.Sprintf("partner %s already in group", newPartnerID)}
			}
		}
		oldName := partnerName(tx, current.PartnerID)
		var err error
		replaced, err = tx.UpdateMatchCandidate(id, func(m *MatchCandidate) error {
			m.PartnerID = newPartnerID
			m.SubScores = fillSubScores(scores)
			m.TotalScore = domain.ComputeTotalScore(m.SubScores)
			if mode != "" {
				m.CooperationMode = mode
			}
			m.Reason = reason
			clearEvaluations(m)
			m.Status = domain.MatchStatusRecommended
			m.MatchedAt = tx.Now()
			return nil
		})
		if err != nil {
			return id, err
		}
		tx.AppendActivity(fmt.Sprintf("伙伴替换：「%s」→「%s」", oldName, partnerName(tx, newPartnerID)), "#fdcb6e")
		return id, nil
	})
	return replaced, res, err
}

// AppendPartner adds one more candidate to an existing group at the next
// rank. The partner must not already sit in the group; signed groups are
// immutable.
func (s *Service) AppendPartner(ctx context.Context, groupID, partnerID string, scores SubScores, mode, reason string) (MatchCandidate, Result, error) {
	var appended MatchCandidate
	res, err := s.run(ctx, "append_partner", EntityMatchCandidate, func(tx Transaction) (string, error) {
		members := tx.ListMatchGroup(groupID)
		if len(members) == 0 {
			return groupID, domain.NotFoundError{Entity: EntityMatchCandidate, ID: groupID}
		}
		if groupHasSigned(members) {
			return groupID, domain.InvalidStateError{Entity: EntityMatchCandidate, ID: groupID, Status: string(domain.MatchStatusSigned), Op: "append_partner"}
		}
		if _, ok := tx.FindPartner(partnerID); !ok {
			return groupID, domain.NotFoundError{Entity: EntityPartner, ID: partnerID}
		}
		nextRank := 0
		for _, member := range members {
			if member.PartnerID == partnerID {
				return groupID, domain.ValidationError{Field: "partner_id", Message: fmt.Sprintf("partner %s already in group", partnerID)}
			}
			if member.Rank > nextRank {
				nextRank = member.Rank
			}
		}
		nextRank++
		filled := fillSubScores(scores)
		candidate := MatchCandidate{
			GroupID:         groupID,
			DemandID:        members[0].DemandID,
			PartnerID:       partnerID,
			Rank:            nextRank,
			SubScores:       filled,
			TotalScore:      domain.ComputeTotalScore(filled),
			QualityScore:    defaultCandidateQuality,
			CooperationMode: mode,
			Reason:          reason,
			Matcher:         defaultMatcher,
			MatchedAt:       tx.Now(),
			Status:          domain.MatchStatusRecommended,
		}
		var err error
		appended, err = tx.CreateMatchCandidate(candidate)
		if err != nil {
			return groupID, err
		}
		tx.AppendActivity(fmt.Sprintf("为「%s」追加推荐伙伴：%s", demandName(tx, appended.DemandID), partnerName(tx, partnerID)), "#0984e3")
		return appended.ID, nil
	})
	return appended, res, err
}
