package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/scope"
	"github.com/duskwatch/sentinel/internal/sentinel/store"
	"github.com/stretchr/testify/require"
)

func testScope(t *testing.T) *scope.Scope {
	t.Helper()
	s := &scope.Scope{DemoSafe: true}
	require.NoError(t, s.Validate())
	return s
}

func TestRunProducesDeterministicRunID(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-01-02T00:00:00Z")
	t.Setenv("GITHUB_SHA", "test-hash")

	raw := []core.Signal{
		{SignalType: core.SignalNewCert, Subject: "acme.com", Source: "crtsh", Timestamp: core.NowUTC()},
	}

	in := Input{
		RawSignals:   raw,
		Scope:        testScope(t),
		ScopeHash:    "scopehash",
		ConfigHash:   "confighash",
		DetectorList: []string{"newcert"},
	}

	r1, err := Run(context.Background(), in)
	require.NoError(t, err)
	r2, err := Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, r1.RunID, r2.RunID)
	require.Regexp(t, "^run_[0-9a-f]{64}$", r1.RunID)
}

func TestRunWritesOutputFilesAndStore(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-01-02T00:00:00Z")
	dir := t.TempDir()

	s, err := store.Open(filepath.Join(dir, "sentinel.db"))
	require.NoError(t, err)
	defer s.Close()

	raw := []core.Signal{
		{SignalType: core.SignalImpersonation, Subject: "acme", Source: "x", Timestamp: core.NowUTC()},
		{SignalType: core.SignalMentionSpike, Subject: "acme", Source: "x", Timestamp: core.NowUTC()},
	}

	in := Input{
		RawSignals:   raw,
		Scope:        testScope(t),
		ScopeHash:    "scopehash",
		ConfigHash:   "confighash",
		DetectorList: []string{"impersonation", "mentionspike"},
		OutputDir:    dir,
		Store:        s,
	}

	result, err := Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	require.Equal(t, core.DispositionInvestigate, result.Findings[0].Disposition)

	latest, err := s.LatestSignals()
	require.NoError(t, err)
	require.Len(t, latest, 2)
}
