// Package pipeline wires normalize, score, correlate, escalate, store, and
// report into the fixed batch order described in the system overview.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/correlate"
	"github.com/duskwatch/sentinel/internal/sentinel/escalate"
	"github.com/duskwatch/sentinel/internal/sentinel/logutil"
	"github.com/duskwatch/sentinel/internal/sentinel/normalize"
	"github.com/duskwatch/sentinel/internal/sentinel/report"
	"github.com/duskwatch/sentinel/internal/sentinel/score"
	"github.com/duskwatch/sentinel/internal/sentinel/scope"
	"github.com/duskwatch/sentinel/internal/sentinel/store"
)

// Input is everything one pipeline invocation needs.
type Input struct {
	RawSignals   []core.Signal
	Scope        *scope.Scope
	ScopeHash    string
	ConfigHash   string
	DetectorList []string
	Window       core.RunWindow
	OutputDir    string  // empty: skip file output
	Store        *store.Store // nil: skip persistence
	Version      string  // CLI build version stamped into the SARIF tool driver; defaults to report.ManifestVersion when empty
}

// Result carries everything downstream of one pipeline invocation.
type Result struct {
	RunID    string
	Manifest *core.Manifest
	Signals  []core.Signal
	Evidence []core.Evidence
	Findings []core.Finding
}

// Run executes normalize -> score -> correlate -> escalate -> store ->
// report, in that fixed order, over a materialized signal batch.
func Run(ctx context.Context, in Input) (*Result, error) {
	runTraceID := uuid.NewString()
	logger := logutil.RunLogger(runTraceID)
	metrics := core.GetMetrics()

	startedAt := core.NowUTC()

	stageStart := time.Now()
	logger.Debug().Str("stage", "normalize").Int("count", len(in.RawSignals)).Msg("normalizing signals")
	normalized, evidence := normalize.Normalize(in.RawSignals, in.Scope)
	metrics.ObserveStageDuration("normalize", time.Since(stageStart).Seconds())

	stageStart = time.Now()
	logger.Debug().Str("stage", "score").Msg("scoring signals")
	scored := score.Score(normalized, in.Scope)
	for _, sig := range scored {
		metrics.RecordSignalNormalized(sig.SignalType)
	}
	metrics.ObserveStageDuration("score", time.Since(stageStart).Seconds())

	stageStart = time.Now()
	logger.Debug().Str("stage", "correlate").Msg("correlating signals")
	findings := correlate.Correlate(scored)
	metrics.ObserveStageDuration("correlate", time.Since(stageStart).Seconds())

	stageStart = time.Now()
	logger.Debug().Str("stage", "escalate").Msg("escalating findings")
	escalated := escalate.Escalate(findings, in.Scope)
	for _, f := range escalated {
		metrics.RecordFinding(f.Disposition)
		logger.Info().Str("finding_id", f.ID).Str("disposition", string(f.Disposition)).Msg("finding escalated")
	}
	metrics.ObserveStageDuration("escalate", time.Since(stageStart).Seconds())

	manifest := report.BuildManifest(in.ScopeHash, in.ConfigHash, in.DetectorList, in.Window)

	var evidenceHash, outputHash string
	if in.OutputDir != "" {
		var err error
		evidenceHash, err = report.WriteEvidenceJSONL(in.OutputDir, evidence)
		if err != nil {
			return nil, err
		}
		outputHash, err = report.WriteSignalsJSONL(in.OutputDir, scored)
		if err != nil {
			return nil, err
		}
	}

	runID, err := report.FinalizeRunID(manifest, evidenceHash, outputHash)
	if err != nil {
		return nil, err
	}

	if in.OutputDir != "" {
		if err := report.WriteManifestJSON(in.OutputDir, manifest); err != nil {
			return nil, err
		}
		sarifVersion := in.Version
		if sarifVersion == "" {
			sarifVersion = report.ManifestVersion
		}
		if err := report.WriteAuxiliaryFormats(in.OutputDir, runID, scored, escalated, sarifVersion); err != nil {
			return nil, err
		}
	}

	endedAt := core.NowUTC()

	if in.Store != nil {
		if err := in.Store.StoreRun(runID, manifest, startedAt, endedAt, in.ScopeHash, in.ConfigHash, scored, escalated); err != nil {
			return nil, err
		}
	}

	logger.Info().Str("run_id", runID).Dur("duration", time.Since(startedAt)).Msg("run complete")

	return &Result{
		RunID:    runID,
		Manifest: manifest,
		Signals:  scored,
		Evidence: evidence,
		Findings: escalated,
	}, nil
}
