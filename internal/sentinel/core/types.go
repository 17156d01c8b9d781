// Package core defines the data model shared across the normalize, score,
// correlate, escalate, store, and report stages: signals, evidence,
// findings, the run manifest, and trend reports.
package core

import "time"

// SignalType is the closed set of brand-intelligence observation kinds.
type SignalType string

const (
	SignalImpersonation  SignalType = "Impersonation"
	SignalTyposquat      SignalType = "TyposquatDomain"
	SignalNewCert        SignalType = "NewCert"
	SignalExposureCode   SignalType = "ExposureCode"
	SignalExposurePaste  SignalType = "ExposurePaste"
	SignalMentionSpike   SignalType = "MentionSpike"
	SignalThreatFeed     SignalType = "ThreatFeedMatch"
)

// Valid reports whether t is one of the enumerated signal types.
func (t SignalType) Valid() bool {
	switch t {
	case SignalImpersonation, SignalTyposquat, SignalNewCert, SignalExposureCode,
		SignalExposurePaste, SignalMentionSpike, SignalThreatFeed:
		return true
	default:
		return false
	}
}

// Severity is the closed severity scale, ordered Low < Medium < High < Critical.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Valid reports whether s is one of the enumerated severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank orders severities for threshold comparisons: Low=0 .. Critical=3.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// ParseSeverity parses a case-insensitive severity string. It does not
// accept anything outside the closed enum.
func ParseSeverity(value string) (Severity, bool) {
	switch lower(value) {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	case "critical":
		return SeverityCritical, true
	default:
		return "", false
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Evidence is the sidecar row persisted per signal.
type Evidence struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
	URL        *string   `json:"url"`
	Note       *string   `json:"note"`
	Redacted   bool      `json:"redacted"`
}

// Signal is the atomic observation produced by a detector or replay fixture.
type Signal struct {
	ID                  string     `json:"id"`
	SignalType          SignalType `json:"signal_type"`
	Subject             string     `json:"subject"`
	Source              string     `json:"source"`
	EvidenceRef         string     `json:"evidence_ref"`
	Timestamp           time.Time  `json:"timestamp"`
	Indicators          []string   `json:"indicators"`
	Confidence          int        `json:"confidence"`
	Severity            Severity   `json:"severity"`
	Rationale           string     `json:"rationale"`
	RecommendedActions  []string   `json:"recommended_actions"`
	DedupeKey           string     `json:"dedupe_key"`
	Tags                []string   `json:"tags"`
	SuppressionReason   *string    `json:"suppression_reason,omitempty"`
	PolicyFlags         []string   `json:"policy_flags"`
}

// FindingDisposition is the post-policy fate of a finding.
type FindingDisposition string

const (
	DispositionAlert       FindingDisposition = "Alert"
	DispositionInvestigate FindingDisposition = "Investigate"
	DispositionDigest      FindingDisposition = "Digest"
	DispositionSuppressed  FindingDisposition = "Suppressed"
)

// Finding is a correlation result across one or more signals sharing a subject.
type Finding struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Signals           []string           `json:"signals"`
	Confidence        int                `json:"confidence"`
	Severity          Severity           `json:"severity"`
	Rationale         string             `json:"rationale"`
	RuleTrace         []string           `json:"rule_trace"`
	Disposition       FindingDisposition `json:"disposition"`
	PolicyGates       []string           `json:"policy_gates"`
	BlockedBy         *string            `json:"blocked_by,omitempty"`
	SuppressionReason *string            `json:"suppression_reason,omitempty"`
}

// Manifest is the per-run fingerprint; its canonical JSON hash is the run_id.
//
// Field order here IS the canonical field order for hashing — do not
// reorder without treating it as a breaking change to run_id stability.
type Manifest struct {
	Version         string    `json:"version"`
	GitHash         string    `json:"git_hash"`
	ScopeHash       string    `json:"scope_hash"`
	ConfigHash      string    `json:"config_hash"`
	DetectorList    []string  `json:"detector_list"`
	RunWindowStart  time.Time `json:"run_window_start"`
	RunWindowEnd    time.Time `json:"run_window_end"`
	EvidenceHash    string    `json:"evidence_hash"`
	OutputHash      string    `json:"output_hash"`
}

// TrendBucket is one key's worth of counts within a TrendReport dimension.
type TrendBucket struct {
	Key               string     `json:"key"`
	Count             uint64     `json:"count"`
	PrevCount         uint64     `json:"prev_count"`
	Delta             int64      `json:"delta"`
	FirstSeen         *time.Time `json:"first_seen,omitempty"`
	LastSeen          *time.Time `json:"last_seen,omitempty"`
	FirstSeenInWindow bool       `json:"first_seen_in_window"`
}

// TrendReport buckets recorded signals across a trailing window compared
// to the equal-width window immediately preceding it.
type TrendReport struct {
	WindowStart  time.Time     `json:"window_start"`
	WindowEnd    time.Time     `json:"window_end"`
	BySignalType []TrendBucket `json:"by_signal_type"`
	BySubject    []TrendBucket `json:"by_subject"`
	ByDedupeKey  []TrendBucket `json:"by_dedupe_key"`
	Summary      []string      `json:"summary"`
}

// OutputFormat is the set of reporter output encodings.
type OutputFormat string

const (
	FormatJSON     OutputFormat = "json"
	FormatJSONL    OutputFormat = "jsonl"
	FormatMarkdown OutputFormat = "md"
	FormatSARIF    OutputFormat = "sarif"
	FormatCSV      OutputFormat = "csv"
)
