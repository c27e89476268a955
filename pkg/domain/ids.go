package domain

import (
	"fmt"
	"time"
)

// Identifier prefixes carried over from the original tracker: demands read
// REQ-20260205-001, analyses PA-..., partners PT-..., candidates MC-....
const (
	demandIDPrefix   = "REQ"
	analysisIDPrefix = "PA"
	partnerIDPrefix  = "PT"
	matchingIDPrefix = "MC"
)

// IDPrefix returns the identifier prefix for an entity kind.
func IDPrefix(kind EntityType) (string, error) {
	switch kind {
	case EntityDemand:
		return demandIDPrefix, nil
	case EntityAnalysis:
		return analysisIDPrefix, nil
	case EntityPartner:
		return partnerIDPrefix, nil
	case EntityMatchCandidate:
		return matchingIDPrefix, nil
	default:
		return "", fmt.Errorf("no id prefix for entity kind %q", kind)
	}
}

// FormatID renders a date-scoped sequential identifier. The sequence is
// strictly increasing per kind and never reused; a date rollover changes the
// visible date segment only.
func FormatID(kind EntityType, at time.Time, seq int) (string, error) {
	prefix, err := IDPrefix(kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, at.UTC().Format("20060102"), seq), nil
}

// FormatGroupID renders a recommendation-group identifier from the
// transaction clock.
func FormatGroupID(at time.Time) string {
	return fmt.Sprintf("GRP-%d", at.UnixMilli())
}
