package correlate

import (
	"testing"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/stretchr/testify/require"
)

func sig(id string, typ core.SignalType, subject string, confidence int, indicators ...string) core.Signal {
	return core.Signal{
		ID:         id,
		SignalType: typ,
		Subject:    subject,
		Confidence: confidence,
		Indicators: indicators,
	}
}

func TestRuleR1Fires(t *testing.T) {
	signals := []core.Signal{
		sig("sig_typo", core.SignalTyposquat, "example.com", 70, "exampl3.com"),
		sig("sig_cert", core.SignalNewCert, "example.com", 60),
		sig("sig_land", core.SignalThreatFeed, "example.com", 50, "landing_similarity=0.92"),
	}
	findings := Correlate(signals)
	require.Len(t, findings, 1)
	f := findings[0]
	require.Equal(t, core.SeverityHigh, f.Severity)
	require.Equal(t, 95, f.Confidence)
	require.Equal(t, []string{"sig_cert", "sig_land", "sig_typo"}, f.Signals)
}

func TestRuleR1AcceptsGenericOnlyWhenNewCertCorroborates(t *testing.T) {
	signals := []core.Signal{
		sig("sig_typo", core.SignalTyposquat, "example.com", 60, "example-login.com"),
		sig("sig_cert", core.SignalNewCert, "example.com", 60),
		sig("sig_land", core.SignalThreatFeed, "example.com", 50, "landing_similarity=0.92"),
	}
	findings := Correlate(signals)
	require.Len(t, findings, 1)
}

func TestRuleR2Fires(t *testing.T) {
	signals := []core.Signal{
		sig("sig_imp", core.SignalImpersonation, "acme", 60),
		sig("sig_spike", core.SignalMentionSpike, "acme", 40),
	}
	findings := Correlate(signals)
	require.Len(t, findings, 1)
	f := findings[0]
	require.Equal(t, core.SeverityMedium, f.Severity)
	require.Equal(t, 75, f.Confidence)
}

func TestSuppressionAggregationDropsGenericTokenWhenCorroborated(t *testing.T) {
	reason := "generic-token typosquat without corroboration"
	typo := sig("sig_typo", core.SignalTyposquat, "example.com", 60, "example-login.com", "landing_similarity=0.9")
	typo.SuppressionReason = &reason
	signals := []core.Signal{
		typo,
		sig("sig_cert", core.SignalNewCert, "example.com", 60),
		sig("sig_land", core.SignalThreatFeed, "example.com", 50, "landing_similarity=0.92"),
	}
	findings := Correlate(signals)
	require.Len(t, findings, 1)
	require.Nil(t, findings[0].SuppressionReason)
}

func TestFindingsSortedByID(t *testing.T) {
	signals := []core.Signal{
		sig("s1", core.SignalImpersonation, "zzz", 60),
		sig("s2", core.SignalMentionSpike, "zzz", 40),
		sig("s3", core.SignalImpersonation, "aaa", 60),
		sig("s4", core.SignalMentionSpike, "aaa", 40),
	}
	findings := Correlate(signals)
	require.Len(t, findings, 2)
	require.True(t, findings[0].ID < findings[1].ID)
}
