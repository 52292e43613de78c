package common

import (
	"regexp"
	"strings"
)

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the basic shape check used at checkout.
func ValidEmail(s string) bool {
	return emailRx.MatchString(strings.TrimSpace(s))
}

// NormalizePhone strips every non-digit character.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone requires exactly ten digits once separators are stripped.
func ValidPhone(s string) bool {
	return len(NormalizePhone(s)) == 10
}
