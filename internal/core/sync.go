package core

import "matchcore/pkg/domain"

// The synchronizer keeps a demand's status mirroring its most advanced child
// record. It is invoked only from the call sites that touch the child records;
// there are no watchers or subscriptions.

// syncDemandForAnalysis mirrors an analysis status onto the parent demand:
// analyzing stays analyzing, done advances the demand to analyzed.
func syncDemandForAnalysis(tx Transaction, demandID string, status AnalysisStatus) error {
	target := domain.DemandStatusAnalyzing
	if status == domain.AnalysisStatusDone {
		target = domain.DemandStatusAnalyzed
	}
	_, err := tx.UpdateDemand(demandID, func(d *Demand) error {
		d.Status = target
		return nil
	})
	return err
}

// syncDemandRecommended marks the demand recommended after group creation or
// finalist selection.
func syncDemandRecommended(tx Transaction, demandID string) error {
	_, err := tx.UpdateDemand(demandID, func(d *Demand) error {
		d.Status = domain.DemandStatusRecommended
		return nil
	})
	return err
}

// syncDemandAfterGroupRemoval resets the demand to analyzed when no
// recommendation group remains for it. With another group still present the
// demand keeps its current status.
func syncDemandAfterGroupRemoval(tx Transaction, demandID string) error {
	for _, m := range tx.ListMatchCandidates() {
		if m.DemandID == demandID {
			return nil
		}
	}
	_, err := tx.UpdateDemand(demandID, func(d *Demand) error {
		d.Status = domain.DemandStatusAnalyzed
		return nil
	})
	return err
}
