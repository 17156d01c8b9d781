package score

import (
	"testing"
	"time"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/scope"
	"github.com/stretchr/testify/require"
)

func testScope(t *testing.T) *scope.Scope {
	t.Helper()
	s := &scope.Scope{DemoSafe: true, NegativeKeywords: []string{"spam-test"}}
	require.NoError(t, s.Validate())
	return s
}

func TestApplyDefaultsConfidenceAndSeverity(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-01-02T00:00:00Z")
	sig := core.Signal{SignalType: core.SignalTyposquat, Timestamp: core.NowUTC()}
	out := Score([]core.Signal{sig}, testScope(t))
	require.Equal(t, 60, out[0].Confidence)
	require.Equal(t, core.SeverityMedium, out[0].Severity)
}

func TestNegativeKeywordSuppression(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-01-02T00:00:00Z")
	sig := core.Signal{
		SignalType: core.SignalMentionSpike,
		Subject:    "acme",
		Rationale:  "mentions spam-test content",
		Confidence: 90,
		Severity:   core.SeverityHigh,
		Timestamp:  core.NowUTC(),
	}
	out := Score([]core.Signal{sig}, testScope(t))
	require.LessOrEqual(t, out[0].Confidence, 20)
	require.Equal(t, core.SeverityLow, out[0].Severity)
	require.NotNil(t, out[0].SuppressionReason)
	require.Contains(t, out[0].PolicyFlags, "suppressed:negative_keyword")
}

func TestTemporalDecay(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-02-01T00:00:00Z")
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sig := core.Signal{
		SignalType: core.SignalNewCert,
		Confidence: 50,
		Severity:   core.SeverityMedium,
		Timestamp:  old,
	}
	out := Score([]core.Signal{sig}, testScope(t))
	require.Equal(t, 40, out[0].Confidence)
	require.Contains(t, out[0].PolicyFlags, "decay:temporal")
}

func TestTemporalDecayClampsAtTwenty(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-02-01T00:00:00Z")
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sig := core.Signal{
		SignalType: core.SignalNewCert,
		Confidence: 25,
		Severity:   core.SeverityMedium,
		Timestamp:  old,
	}
	out := Score([]core.Signal{sig}, testScope(t))
	require.Equal(t, 20, out[0].Confidence)
}

func TestTyposquatGenericTokenCap(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-01-02T00:00:00Z")
	sig := core.Signal{
		SignalType: core.SignalTyposquat,
		Subject:    "example.com",
		Indicators: []string{"example-login.com"},
		Confidence: 90,
		Severity:   core.SeverityHigh,
		Timestamp:  core.NowUTC(),
	}
	out := Score([]core.Signal{sig}, testScope(t))
	require.Equal(t, 60, out[0].Confidence)
	require.LessOrEqual(t, out[0].Severity.Rank(), core.SeverityMedium.Rank())
	require.NotNil(t, out[0].SuppressionReason)
	require.Contains(t, out[0].PolicyFlags, "suppressed:generic_token")
}

func TestTyposquatCorroborationEscapesGenericCap(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-01-02T00:00:00Z")
	sig := core.Signal{
		SignalType: core.SignalTyposquat,
		Subject:    "example.com",
		Indicators: []string{"example-login.com", "landing_similarity=0.9"},
		Confidence: 90,
		Severity:   core.SeverityHigh,
		Timestamp:  core.NowUTC(),
	}
	out := Score([]core.Signal{sig}, testScope(t))
	require.Equal(t, 90, out[0].Confidence)
	require.Nil(t, out[0].SuppressionReason)
}

func TestTyposquatOldDomainCap(t *testing.T) {
	t.Setenv(core.FixedTimeEnv, "2025-01-02T00:00:00Z")
	sig := core.Signal{
		SignalType: core.SignalTyposquat,
		Subject:    "example.com",
		Indicators: []string{"exampl3.com", "rdap_age_days=400"},
		Confidence: 90,
		Severity:   core.SeverityHigh,
		Timestamp:  core.NowUTC(),
	}
	out := Score([]core.Signal{sig}, testScope(t))
	require.Equal(t, 50, out[0].Confidence)
	require.Equal(t, core.SeverityMedium, out[0].Severity)
	require.Contains(t, out[0].PolicyFlags, "prefer_digest:old_domain")
}

func TestSldTokens(t *testing.T) {
	require.Equal(t, []string{"example", "login"}, sldTokens("example-login.com"))
	require.Equal(t, []string{"exampl3"}, sldTokens("exampl3.com"))
}
