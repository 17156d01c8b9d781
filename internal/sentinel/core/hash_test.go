package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStableSignalIDIndicatorOrderIndependence(t *testing.T) {
	a := StableSignalID(SignalTyposquat, "example.com", "ev_abc", []string{"b", "a", "c"})
	b := StableSignalID(SignalTyposquat, "example.com", "ev_abc", []string{"c", "b", "a"})
	require.Equal(t, a, b)
	require.Regexp(t, "^sig_[0-9a-f]{64}$", a)
}

func TestDedupeKeyIndicatorOrderIndependence(t *testing.T) {
	a := DedupeKey(SignalImpersonation, "acme", []string{"y", "x"})
	b := DedupeKey(SignalImpersonation, "acme", []string{"x", "y"})
	require.Equal(t, a, b)
	require.Equal(t, "Impersonation:acme:x,y", a)
}

func TestEvidenceRefPureFunction(t *testing.T) {
	a := EvidenceRef(SignalNewCert, "acme.com", []string{"z", "a"})
	b := EvidenceRef(SignalNewCert, "acme.com", []string{"a", "z"})
	require.Equal(t, a, b)
	require.Regexp(t, "^ev_[0-9a-f]{64}$", a)
}

func TestFindingIDSortsContributors(t *testing.T) {
	a := FindingID("typosquat_newcert_landing", []string{"sig_2", "sig_1"})
	b := FindingID("typosquat_newcert_landing", []string{"sig_1", "sig_2"})
	require.Equal(t, a, b)
}

func TestStableRunIDDeterministic(t *testing.T) {
	m := &Manifest{
		Version:      "1",
		GitHash:      "test-hash",
		ScopeHash:    "scopehash",
		ConfigHash:   "confighash",
		DetectorList: []string{"a", "b"},
	}
	id1, err := StableRunID(m)
	require.NoError(t, err)
	id2, err := StableRunID(m)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.Regexp(t, "^run_[0-9a-f]{64}$", id1)
}

func TestGitHashPrefersGithubSha(t *testing.T) {
	t.Setenv("GITHUB_SHA", "gh-sha")
	t.Setenv("GIT_HASH", "git-hash")
	require.Equal(t, "gh-sha", GitHash())
}

func TestGitHashFallsBackToGitHash(t *testing.T) {
	t.Setenv("GITHUB_SHA", "")
	t.Setenv("GIT_HASH", "git-hash")
	require.Equal(t, "git-hash", GitHash())
}

func TestGitHashDefaultsUnknown(t *testing.T) {
	t.Setenv("GITHUB_SHA", "")
	t.Setenv("GIT_HASH", "")
	require.Equal(t, "unknown", GitHash())
}
