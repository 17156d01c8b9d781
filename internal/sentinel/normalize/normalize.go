// Package normalize canonicalizes raw detector/fixture signals: it assigns
// content-addressed IDs, sorts indicators, applies redaction, and produces
// the evidence sidecar.
package normalize

import (
	"sort"
	"time"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/scope"
)

// Normalize canonicalizes raw signals and returns the normalized signals
// and their evidence sidecar, both sorted ascending by id. The normalizer
// itself is infallible given well-formed input.
func Normalize(raw []core.Signal, sc *scope.Scope) ([]core.Signal, []core.Evidence) {
	signals := make([]core.Signal, len(raw))
	evidence := make([]core.Evidence, len(raw))

	for i, sig := range raw {
		sig.Indicators = core.SortedIndicators(sig.Indicators)

		if sig.EvidenceRef == "" {
			sig.EvidenceRef = core.EvidenceRef(sig.SignalType, sig.Subject, sig.Indicators)
		}
		if sig.ID == "" {
			sig.ID = core.StableSignalID(sig.SignalType, sig.Subject, sig.EvidenceRef, sig.Indicators)
		}
		if sig.DedupeKey == "" {
			sig.DedupeKey = core.DedupeKey(sig.SignalType, sig.Subject, sig.Indicators)
		}
		if sig.Timestamp.IsZero() || sig.Timestamp.Equal(time.Unix(0, 0).UTC()) {
			sig.Timestamp = core.NowUTC()
		}

		if !sc.Privacy.StoreRaw && len(sc.Privacy.CompiledPatterns) > 0 {
			for j, indicator := range sig.Indicators {
				sig.Indicators[j] = scope.Redact(sc.Privacy.CompiledPatterns, indicator)
			}
			sig.Rationale = scope.Redact(sc.Privacy.CompiledPatterns, sig.Rationale)
			for j, action := range sig.RecommendedActions {
				sig.RecommendedActions[j] = scope.Redact(sc.Privacy.CompiledPatterns, action)
			}
		}

		signals[i] = sig
		evidence[i] = core.Evidence{
			ID:         sig.EvidenceRef,
			Source:     sig.Source,
			ObservedAt: sig.Timestamp,
			URL:        nil,
			Note:       nil,
			Redacted:   !sc.Privacy.StoreRaw,
		}
	}

	sort.Slice(signals, func(i, j int) bool { return signals[i].ID < signals[j].ID })
	sort.Slice(evidence, func(i, j int) bool { return evidence[i].ID < evidence[j].ID })

	return signals, evidence
}
