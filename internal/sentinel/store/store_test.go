package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentinel.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRunAndLatest(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	sig := core.Signal{ID: "sig_a", SignalType: core.SignalNewCert, Subject: "acme", DedupeKey: "k1", Timestamp: now}
	finding := core.Finding{ID: "finding_a", Severity: core.SeverityHigh, Confidence: 90, Disposition: core.DispositionAlert}
	manifest := &core.Manifest{Version: "1"}

	err := s.StoreRun("run_1", manifest, now, now, "scopehash", "confighash", []core.Signal{sig}, []core.Finding{finding})
	require.NoError(t, err)

	signals, err := s.LatestSignals()
	require.NoError(t, err)
	require.Len(t, signals, 1)
	require.Equal(t, "sig_a", signals[0].ID)

	findings, err := s.LatestFindings()
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "finding_a", findings[0].ID)
}

func TestStoreRunIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	sig := core.Signal{ID: "sig_a", SignalType: core.SignalNewCert, Subject: "acme", DedupeKey: "k1", Timestamp: now}
	manifest := &core.Manifest{Version: "1"}

	require.NoError(t, s.StoreRun("run_1", manifest, now, now, "h", "h", []core.Signal{sig}, nil))
	require.NoError(t, s.StoreRun("run_1", manifest, now, now, "h", "h", []core.Signal{sig}, nil))

	signals, err := s.LatestSignals()
	require.NoError(t, err)
	require.Len(t, signals, 1)
}

func TestPurgeOlderThan(t *testing.T) {
	s := openTestStore(t)
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := core.NowUTC()

	oldSig := core.Signal{ID: "sig_old", SignalType: core.SignalNewCert, Subject: "acme", DedupeKey: "k1", Timestamp: old}
	newSig := core.Signal{ID: "sig_new", SignalType: core.SignalNewCert, Subject: "acme", DedupeKey: "k2", Timestamp: recent}

	require.NoError(t, s.StoreRun("run_old", &core.Manifest{}, old, old, "h", "h", []core.Signal{oldSig}, nil))
	require.NoError(t, s.StoreRun("run_new", &core.Manifest{}, recent, recent, "h", "h", []core.Signal{newSig}, nil))

	require.NoError(t, s.PurgeOlderThan(context.Background(), 7))

	var runCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = 'run_old'`).Scan(&runCount))
	require.Equal(t, 0, runCount)

	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = 'run_new'`).Scan(&runCount))
	require.Equal(t, 1, runCount)
}

func TestTrendReportNewKeyInWindow(t *testing.T) {
	s := openTestStore(t)
	now := core.NowUTC()

	sig := core.Signal{ID: "sig_a", SignalType: core.SignalNewCert, Subject: "acme", DedupeKey: "k1", Timestamp: now}
	require.NoError(t, s.StoreRun("run_1", &core.Manifest{}, now, now, "h", "h", []core.Signal{sig}, nil))

	report, err := s.TrendReport(7 * 24 * time.Hour)
	require.NoError(t, err)
	require.Len(t, report.BySignalType, 1)
	b := report.BySignalType[0]
	require.Equal(t, uint64(1), b.Count)
	require.Equal(t, uint64(0), b.PrevCount)
	require.Equal(t, int64(1), b.Delta)
	require.True(t, b.FirstSeenInWindow)
}
