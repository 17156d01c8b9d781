// Package correlate groups scored signals by subject and emits findings
// when configured rule patterns match within a group.
package correlate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
)

// localGenericTokens is the correlator's own default generic-token list,
// used independently of scope.Policy.Typosquat.GenericTokens.
var localGenericTokens = map[string]bool{
	"login": true, "secure": true, "support": true,
	"billing": true, "account": true, "verify": true,
}

// Correlate groups signals by subject and applies the R1/R2 rules,
// returning findings sorted ascending by id.
func Correlate(signals []core.Signal) []core.Finding {
	groups := groupBySubject(signals)

	subjects := make([]string, 0, len(groups))
	for subject := range groups {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	var findings []core.Finding
	for _, subject := range subjects {
		findings = append(findings, correlateGroup(subject, groups[subject])...)
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].ID < findings[j].ID })
	return findings
}

func groupBySubject(signals []core.Signal) map[string][]core.Signal {
	groups := make(map[string][]core.Signal)
	for _, sig := range signals {
		groups[sig.Subject] = append(groups[sig.Subject], sig)
	}
	return groups
}

func correlateGroup(subject string, group []core.Signal) []core.Finding {
	var newCerts, impersonations, mentionSpikes, landingSignals, eligibleTypos []core.Signal

	corroborated := isSubjectCorroborated(group)

	for _, sig := range group {
		switch sig.SignalType {
		case core.SignalNewCert:
			newCerts = append(newCerts, sig)
		case core.SignalImpersonation:
			impersonations = append(impersonations, sig)
		case core.SignalMentionSpike:
			mentionSpikes = append(mentionSpikes, sig)
		}
		if hasAny(sig.Indicators, "landing_similarity", "favicon_similarity") {
			landingSignals = append(landingSignals, sig)
		}
		if sig.SignalType == core.SignalTyposquat {
			genericOnly := len(sig.Indicators) > 0 && isGenericOnlyLocal(sig.Subject, sig.Indicators[0])
			if !genericOnly || corroborated {
				eligibleTypos = append(eligibleTypos, sig)
			}
		}
	}

	var findings []core.Finding

	if len(eligibleTypos) > 0 && len(newCerts) > 0 && len(landingSignals) > 0 {
		findings = append(findings, buildFinding(
			"typosquat_newcert_landing",
			subject,
			fmt.Sprintf("Potential impersonation infrastructure for %s", subject),
			core.SeverityHigh,
			25,
			corroborated,
			concatSignals(eligibleTypos, newCerts, landingSignals),
		))
	}

	if len(impersonations) > 0 && len(mentionSpikes) > 0 {
		findings = append(findings, buildFinding(
			"impersonation_mentionspike",
			subject,
			fmt.Sprintf("Impersonation signals with mention spike for %s", subject),
			core.SeverityMedium,
			15,
			corroborated,
			concatSignals(impersonations, mentionSpikes),
		))
	}

	return findings
}

func buildFinding(rule, subject, title string, severity core.Severity, confidenceBoost int, corroborated bool, contributors []core.Signal) core.Finding {
	maxConfidence := 0
	signalIDs := make([]string, 0, len(contributors))
	flagSeen := make(map[string]bool)
	var flags []string
	var suppressionReasons []string
	seenReasons := make(map[string]bool)

	for _, sig := range contributors {
		if sig.Confidence > maxConfidence {
			maxConfidence = sig.Confidence
		}
		signalIDs = append(signalIDs, sig.ID)
		for _, f := range sig.PolicyFlags {
			if !flagSeen[f] {
				flagSeen[f] = true
				flags = append(flags, f)
			}
		}
		if sig.SuppressionReason != nil && *sig.SuppressionReason != "" && !seenReasons[*sig.SuppressionReason] {
			seenReasons[*sig.SuppressionReason] = true
			suppressionReasons = append(suppressionReasons, *sig.SuppressionReason)
		}
	}

	sort.Strings(signalIDs)
	sort.Strings(flags)

	confidence := maxConfidence + confidenceBoost
	if confidence > 100 {
		confidence = 100
	}

	ruleTrace := []string{
		"rule:" + rule,
		fmt.Sprintf("confidence:+%d (%s)", confidenceBoost, rule),
		"severity:" + strings.ToLower(string(severity)),
	}
	for _, f := range flags {
		ruleTrace = append(ruleTrace, "policy_flag:"+f)
	}

	if corroborated {
		filtered := suppressionReasons[:0:0]
		for _, r := range suppressionReasons {
			if !strings.Contains(r, "generic-token") {
				filtered = append(filtered, r)
			}
		}
		suppressionReasons = filtered
	}

	finding := core.Finding{
		ID:         core.FindingID(rule, signalIDs),
		Title:      title,
		Signals:    signalIDs,
		Confidence: confidence,
		Severity:   severity,
		Rationale:  fmt.Sprintf("%s matched for subject %s", rule, subject),
		RuleTrace:  ruleTrace,
	}
	if len(suppressionReasons) > 0 {
		reason := strings.Join(suppressionReasons, "; ")
		finding.SuppressionReason = &reason
	}

	return finding
}

func concatSignals(groups ...[]core.Signal) []core.Signal {
	var out []core.Signal
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, sig := range g {
			if !seen[sig.ID] {
				seen[sig.ID] = true
				out = append(out, sig)
			}
		}
	}
	return out
}

func isSubjectCorroborated(group []core.Signal) bool {
	for _, sig := range group {
		if sig.SignalType == core.SignalNewCert {
			return true
		}
		if hasCTMarker(sig.Indicators) {
			return true
		}
		if age, ok := rdapAgeDays(sig.Indicators); ok && age < 30 {
			return true
		}
	}
	return false
}

func hasCTMarker(indicators []string) bool {
	for _, ind := range indicators {
		lower := strings.ToLower(ind)
		if strings.Contains(lower, "ct_cert") || strings.Contains(lower, "ct_log") || strings.Contains(lower, "new_cert") {
			return true
		}
	}
	return false
}

func hasAny(indicators []string, markers ...string) bool {
	for _, ind := range indicators {
		lower := strings.ToLower(ind)
		for _, marker := range markers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func rdapAgeDays(indicators []string) (int, bool) {
	const prefix = "rdap_age_days="
	for _, ind := range indicators {
		lower := strings.ToLower(ind)
		if strings.HasPrefix(lower, prefix) {
			n, err := strconv.Atoi(strings.TrimPrefix(lower, prefix))
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// isGenericOnlyLocal mirrors score.isGenericOnly but against the
// correlator's own local default token list.
func isGenericOnlyLocal(subject, candidate string) bool {
	base := sldTokenSet(subject)
	remaining := make([]string, 0)
	for _, tok := range sldTokens(candidate) {
		if !base[tok] {
			remaining = append(remaining, tok)
		}
	}
	if len(remaining) == 0 {
		return false
	}
	for _, tok := range remaining {
		if !localGenericTokens[tok] {
			return false
		}
	}
	return true
}

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
