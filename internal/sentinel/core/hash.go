package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// Sha256Hex returns the lowercase hex SHA-256 digest of data.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sortedJoin returns a copy of values sorted ascending byte-wise and joined
// with commas. The input slice is not mutated.
func sortedJoin(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// SortedIndicators returns a sorted copy of indicators, ascending byte-wise.
func SortedIndicators(indicators []string) []string {
	sorted := append([]string(nil), indicators...)
	sort.Strings(sorted)
	return sorted
}

// StableSignalID computes "sig_" + sha256_hex(type|subject|evidence_ref|sorted_indicators).
func StableSignalID(signalType SignalType, subject, evidenceRef string, indicators []string) string {
	payload := string(signalType) + "|" + subject + "|" + evidenceRef + "|" + sortedJoin(indicators)
	return "sig_" + Sha256Hex([]byte(payload))
}

// DedupeKey computes "{type}:{subject}:{sorted_indicators}".
func DedupeKey(signalType SignalType, subject string, indicators []string) string {
	return string(signalType) + ":" + subject + ":" + sortedJoin(indicators)
}

// EvidenceRef computes "ev_" + sha256_hex(type|subject||sorted_indicators),
// mirroring StableSignalID with an empty evidence_ref component.
func EvidenceRef(signalType SignalType, subject string, indicators []string) string {
	payload := string(signalType) + "|" + subject + "|" + "" + "|" + sortedJoin(indicators)
	return "ev_" + Sha256Hex([]byte(payload))
}

// FindingID computes "finding_" + sha256_hex(rule|sorted_signal_ids).
func FindingID(rule string, signalIDs []string) string {
	payload := rule + "|" + sortedJoin(signalIDs)
	return "finding_" + Sha256Hex([]byte(payload))
}

// CanonicalJSON serializes v using compact (non-pretty) encoding with the
// struct's declared field order preserved; this is what StableRunID hashes.
func CanonicalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// StableRunID computes "run_" + sha256_hex(canonical_json(manifest)).
func StableRunID(manifest *Manifest) (string, error) {
	payload, err := CanonicalJSON(manifest)
	if err != nil {
		return "", err
	}
	return "run_" + Sha256Hex(payload), nil
}

// GitHash reads GITHUB_SHA then GIT_HASH, defaulting to "unknown".
func GitHash() string {
	if v := os.Getenv("GITHUB_SHA"); v != "" {
		return v
	}
	if v := os.Getenv("GIT_HASH"); v != "" {
		return v
	}
	return "unknown"
}
