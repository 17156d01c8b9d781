// Package score fills in default confidence/severity, applies
// negative-keyword suppression, temporal decay, and typosquat-specific
// tuning to normalized signals.
package score

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/scope"
)

var defaultConfidence = map[core.SignalType]int{
	core.SignalTyposquat:     60,
	core.SignalExposureCode:  70,
	core.SignalExposurePaste: 70,
	core.SignalImpersonation: 55,
	core.SignalNewCert:       50,
	core.SignalMentionSpike:  40,
	core.SignalThreatFeed:    75,
}

var defaultSeverity = map[core.SignalType]core.Severity{
	core.SignalExposurePaste: core.SeverityHigh,
	core.SignalThreatFeed:    core.SeverityHigh,
	core.SignalExposureCode:  core.SeverityMedium,
	core.SignalTyposquat:     core.SeverityMedium,
	core.SignalNewCert:       core.SeverityMedium,
	core.SignalImpersonation: core.SeverityMedium,
	core.SignalMentionSpike:  core.SeverityLow,
}

// Score applies default confidence/severity, negative-keyword suppression,
// temporal decay, and typosquat-specific tuning, in that order, to each
// signal and returns the scored batch. The input slice is not mutated.
func Score(signals []core.Signal, sc *scope.Scope) []core.Signal {
	out := make([]core.Signal, len(signals))
	for i, sig := range signals {
		sig = applyDefaults(sig)
		sig = applyNegativeKeywordSuppression(sig, sc.NegativeKeywords)
		sig = applyTemporalDecay(sig)
		sig = applyTyposquatTuning(sig, sc.Policy.Typosquat.GenericTokens, sc.Policy.Typosquat.OldDomainDays)
		sig.Confidence = clampConfidence(sig.Confidence)
		out[i] = sig
	}
	return out
}

func applyDefaults(sig core.Signal) core.Signal {
	if sig.Confidence == 0 {
		if d, ok := defaultConfidence[sig.SignalType]; ok {
			sig.Confidence = d
		}
	}
	if !sig.Severity.Valid() {
		if d, ok := defaultSeverity[sig.SignalType]; ok {
			sig.Severity = d
		}
	}
	return sig
}

func applyNegativeKeywordSuppression(sig core.Signal, negativeKeywords []string) core.Signal {
	haystack := strings.ToLower(sig.Subject + " " + sig.Rationale + " " + strings.Join(sig.Indicators, " "))
	for _, kw := range negativeKeywords {
		if kw == "" {
			continue
		}
		lowerKw := strings.ToLower(kw)
		if strings.Contains(haystack, lowerKw) {
			if sig.Confidence > 20 {
				sig.Confidence = 20
			}
			sig.Severity = core.SeverityLow
			note := fmt.Sprintf("suppressed: negative keyword match '%s'", kw)
			if !strings.Contains(sig.Rationale, note) {
				sig.Rationale = appendRationale(sig.Rationale, note)
			}
			reason := "negative keyword match: " + kw
			sig.SuppressionReason = &reason
			sig.PolicyFlags = addFlag(sig.PolicyFlags, "suppressed:negative_keyword")
			break
		}
	}
	return sig
}

func applyTemporalDecay(sig core.Signal) core.Signal {
	now := core.NowUTC()
	if now.Sub(sig.Timestamp) > 30*24*time.Hour {
		days := int(now.Sub(sig.Timestamp).Hours() / 24)
		sig.Confidence -= 10
		if sig.Confidence < 20 {
			sig.Confidence = 20
		}
		note := fmt.Sprintf("policy: temporal decay applied (%dd)", days)
		sig.Rationale = appendRationale(sig.Rationale, note)
		sig.PolicyFlags = addFlag(sig.PolicyFlags, "decay:temporal")
	}
	return sig
}

func applyTyposquatTuning(sig core.Signal, genericTokens []string, oldDomainDays uint) core.Signal {
	if sig.SignalType != core.SignalTyposquat || len(sig.Indicators) == 0 || sig.Indicators[0] == "" {
		return sig
	}
	candidate := sig.Indicators[0]

	genericOnly := isGenericOnly(sig.Subject, candidate, genericTokens)
	corroborated := isCorroborated(sig.Indicators)

	if genericOnly && !corroborated {
		if sig.Confidence > 60 {
			sig.Confidence = 60
		}
		if sig.Severity == core.SeverityHigh || sig.Severity == core.SeverityCritical {
			sig.Severity = core.SeverityMedium
		}
		reason := "generic-token typosquat without corroboration"
		sig.SuppressionReason = &reason
		sig.PolicyFlags = addFlag(sig.PolicyFlags, "suppressed:generic_token")
	}

	if age, ok := rdapAgeDays(sig.Indicators); ok && uint(age) > oldDomainDays {
		if sig.Confidence > 50 {
			sig.Confidence = 50
		}
		if sig.Severity == core.SeverityHigh || sig.Severity == core.SeverityCritical {
			sig.Severity = core.SeverityMedium
		}
		note := fmt.Sprintf("policy: domain age %dd exceeds old_domain_days threshold", age)
		sig.Rationale = appendRationale(sig.Rationale, note)
		sig.PolicyFlags = addFlag(sig.PolicyFlags, "prefer_digest:old_domain")
	}

	return sig
}

// isGenericOnly reports whether every candidate SLD token not already
// present in the subject's own tokens is a generic token.
func isGenericOnly(subject, candidate string, genericTokens []string) bool {
	base := sldTokenSet(subject)
	candTokens := sldTokens(candidate)

	remaining := make([]string, 0, len(candTokens))
	for _, tok := range candTokens {
		if !base[tok] {
			remaining = append(remaining, tok)
		}
	}
	if len(remaining) == 0 {
		return false
	}
	generic := make(map[string]bool, len(genericTokens))
	for _, t := range genericTokens {
		generic[strings.ToLower(t)] = true
	}
	for _, tok := range remaining {
		if !generic[tok] {
			return false
		}
	}
	return true
}

// isCorroborated reports whether any indicator independently supports the
// typosquat signal: a recent RDAP registration, a certificate-transparency
// marker, or a landing/favicon similarity hit.
func isCorroborated(indicators []string) bool {
	for _, ind := range indicators {
		lower := strings.ToLower(ind)
		if age, ok := parseRdapAge(lower); ok && age < 30 {
			return true
		}
		if strings.Contains(lower, "ct_cert") || strings.Contains(lower, "ct_log") || strings.Contains(lower, "new_cert") {
			return true
		}
		if strings.Contains(lower, "landing_similarity") || strings.Contains(lower, "favicon_similarity") {
			return true
		}
	}
	return false
}

func rdapAgeDays(indicators []string) (int, bool) {
	for _, ind := range indicators {
		if age, ok := parseRdapAge(strings.ToLower(ind)); ok {
			return age, true
		}
	}
	return 0, false
}

// parseRdapAge expects indicator already lowercased.
func parseRdapAge(indicator string) (int, bool) {
	const prefix = "rdap_age_days="
	if !strings.HasPrefix(indicator, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(indicator, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// sldTokens splits domain's leftmost label on non-alphanumeric characters,
// dropping empties and lowercasing each token.
func sldTokens(domain string) []string {
	labels := strings.SplitN(domain, ".", 2)
	leftmost := labels[0]

	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}
	for _, r := range leftmost {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func sldTokenSet(domain string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range sldTokens(domain) {
		set[tok] = true
	}
	return set
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func appendRationale(rationale, note string) string {
	if rationale == "" {
		return note
	}
	return rationale + "; " + note
}

func addFlag(flags []string, flag string) []string {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}
