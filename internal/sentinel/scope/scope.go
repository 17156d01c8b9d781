// Package scope owns the validated, in-memory Scope configuration consumed
// by every pipeline stage. Parsing a scope file from disk is an external
// collaborator's job (see cmd/sentinel for a minimal JSON loader); this
// package only validates and defaults an already-parsed value.
package scope

import (
	"regexp"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
)

// DefaultGenericTokens is the fallback list of generic typosquat tokens
// used when a scope does not declare its own.
var DefaultGenericTokens = []string{"login", "secure", "support", "billing", "account", "verify"}

// Privacy governs redaction and retention of raw signal content.
type Privacy struct {
	StoreRaw                 bool     `json:"store_raw"`
	RedactPatterns           []string `json:"redact_patterns"`
	MaxEvidenceRetentionDays uint     `json:"max_evidence_retention_days"`

	// CompiledPatterns holds RedactPatterns compiled in declaration order.
	// Populated by Validate; nil before it runs.
	CompiledPatterns []*regexp.Regexp `json:"-"`
}

// Typosquat holds policy tuning specific to typosquat-domain scoring.
type Typosquat struct {
	GenericTokens []string `json:"generic_tokens"`
	OldDomainDays uint     `json:"old_domain_days"`
}

// Policy holds the escalation thresholds and typosquat tuning.
type Policy struct {
	MinConfidenceAlert uint          `json:"min_confidence_alert"`
	MinSeverityAlert   core.Severity `json:"min_severity_alert"`
	DigestFrequency    string        `json:"digest_frequency"`
	Typosquat          Typosquat     `json:"typosquat"`
}

// Scope is the fully validated configuration passed into the pipeline.
type Scope struct {
	BrandTerms        []string `json:"brand_terms"`
	Domains           []string `json:"domains"`
	Products          []string `json:"products"`
	OfficialHandles   []string `json:"official_handles"`
	WatchKeywords     []string `json:"watch_keywords"`
	NegativeKeywords  []string `json:"negative_keywords"`
	AllowedSources    []string `json:"allowed_sources"`
	AllowedDetectors  []string `json:"allowed_detectors"`
	Privacy           Privacy  `json:"privacy"`
	Policy            Policy   `json:"policy"`
	RateLimits        map[string]interface{} `json:"rate_limits"`
	TyposquatOpaque   map[string]interface{} `json:"typosquat"`
	DemoSafe          bool     `json:"demo_safe"`
}

// Validate applies scope defaults and compiles redact patterns, returning a
// Configuration error if a field is malformed.
func (s *Scope) Validate() error {
	if s.Privacy.MaxEvidenceRetentionDays == 0 {
		s.Privacy.MaxEvidenceRetentionDays = 30
	}
	if s.Policy.MinConfidenceAlert == 0 {
		s.Policy.MinConfidenceAlert = 80
	}
	if s.Policy.MinSeverityAlert == "" {
		s.Policy.MinSeverityAlert = core.SeverityHigh
	}
	if !s.Policy.MinSeverityAlert.Valid() {
		return core.NewError(core.ErrorKindConfiguration, "policy.min_severity_alert: invalid severity \""+string(s.Policy.MinSeverityAlert)+"\"", nil)
	}
	if len(s.Policy.Typosquat.GenericTokens) == 0 {
		s.Policy.Typosquat.GenericTokens = append([]string(nil), DefaultGenericTokens...)
	}
	if s.Policy.Typosquat.OldDomainDays == 0 {
		s.Policy.Typosquat.OldDomainDays = 180
	}

	if !s.DemoSafe {
		if len(s.AllowedSources) == 0 {
			return core.NewError(core.ErrorKindConfiguration, "allowed_sources is required unless demo-safe", nil)
		}
		if len(s.AllowedDetectors) == 0 {
			return core.NewError(core.ErrorKindConfiguration, "allowed_detectors is required unless demo-safe", nil)
		}
	}

	compiled := make([]*regexp.Regexp, 0, len(s.Privacy.RedactPatterns))
	for _, pattern := range s.Privacy.RedactPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return core.NewError(core.ErrorKindConfiguration, "privacy.redact_patterns: invalid regex \""+pattern+"\"", err)
		}
		compiled = append(compiled, re)
	}
	s.Privacy.CompiledPatterns = compiled

	return nil
}

// SourceAllowed reports whether source is in the allow-list, or true when
// the scope is demo-safe and declares no allow-list.
func (s *Scope) SourceAllowed(source string) bool {
	if s.DemoSafe && len(s.AllowedSources) == 0 {
		return true
	}
	return contains(s.AllowedSources, source)
}

// DetectorAllowed reports whether detector is in the allow-list, or true
// when the scope is demo-safe and declares no allow-list.
func (s *Scope) DetectorAllowed(detector string) bool {
	if s.DemoSafe && len(s.AllowedDetectors) == 0 {
		return true
	}
	return contains(s.AllowedDetectors, detector)
}

func contains(list []string, needle string) bool {
	for _, v := range list {
		if v == needle {
			return true
		}
	}
	return false
}
