// Package escalate converts findings into dispositions using scope policy
// thresholds.
package escalate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/scope"
)

// Escalate computes disposition, policy_gates, and blocked_by for each
// finding, returning the batch sorted ascending by id.
func Escalate(findings []core.Finding, sc *scope.Scope) []core.Finding {
	out := make([]core.Finding, len(findings))
	for i, f := range findings {
		out[i] = escalateOne(f, sc.Policy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func escalateOne(f core.Finding, policy scope.Policy) core.Finding {
	sevOk := f.Severity.Rank() >= policy.MinSeverityAlert.Rank()
	confOk := f.Confidence >= int(policy.MinConfidenceAlert)

	f.PolicyGates = []string{
		fmt.Sprintf("min_severity_alert=%s (actual=%s)", policy.MinSeverityAlert, f.Severity),
		fmt.Sprintf("min_confidence_alert=%d (actual=%d)", policy.MinConfidenceAlert, f.Confidence),
	}

	switch {
	case f.SuppressionReason != nil && *f.SuppressionReason != "":
		f.Disposition = core.DispositionSuppressed
		blocked := "suppressed: " + *f.SuppressionReason
		f.BlockedBy = &blocked

	case containsTrace(f.RuleTrace, "policy_flag:prefer_digest:old_domain"):
		f.Disposition = core.DispositionDigest
		blocked := "policy: typosquat.old_domain_days"
		f.BlockedBy = &blocked

	case sevOk && confOk:
		f.Disposition = core.DispositionAlert
		f.BlockedBy = nil

	case f.Severity == core.SeverityMedium || f.Severity == core.SeverityHigh:
		f.Disposition = core.DispositionInvestigate
		blocked := blockedByReason(sevOk, confOk)
		f.BlockedBy = &blocked

	default:
		f.Disposition = core.DispositionDigest
		blocked := blockedByReason(sevOk, confOk)
		f.BlockedBy = &blocked
	}

	return f
}

func blockedByReason(sevOk, confOk bool) string {
	switch {
	case !sevOk && !confOk:
		return "policy: severity and confidence below thresholds"
	case !sevOk:
		return "policy: severity below threshold"
	case !confOk:
		return "policy: confidence below threshold"
	default:
		return "policy: none"
	}
}

func containsTrace(trace []string, literal string) bool {
	for _, t := range trace {
		if strings.TrimSpace(t) == literal {
			return true
		}
	}
	return false
}
