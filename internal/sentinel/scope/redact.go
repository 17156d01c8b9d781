package scope

import "regexp"

// Redact applies every compiled redact pattern, in declaration order, to
// text, replacing each match with the literal "[REDACTED]". Substitution
// is global per pattern.
func Redact(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, "[REDACTED]")
	}
	return text
}
