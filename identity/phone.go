package identity

import (
	"regexp"
	"strings"
	"unicode"
)

// OperatorPrefixes are the known carrier prefixes in match order.
var OperatorPrefixes = []string{"010", "011", "012", "015"}

var (
	// Egyptian mobile: 01[0125] followed by 8 digits.
	mobileRegex = regexp.MustCompile(`(?:(?:\+20|0020)0?|0)1[0125][0-9]{8}`)
	digitsOnly  = regexp.MustCompile(`^\+?[0-9]+$`)
)

// stripPhone drops every Unicode space plus dashes and parentheses.
func stripPhone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, s)
}

// CleanPhone removes whitespace, dashes and parentheses, and rewrites the
// +20 / 0020 country prefix to the national leading zero.
func CleanPhone(raw string) string {
	cleaned := stripPhone(raw)
	cleaned = strings.Map(func(r rune) rune {
		if r >= '٠' && r <= '٩' {
			return '0' + (r - '٠')
		}
		return r
	}, cleaned)

	switch {
	case strings.HasPrefix(cleaned, "+20"):
		cleaned = "0" + strings.TrimPrefix(strings.TrimPrefix(cleaned, "+20"), "0")
	case strings.HasPrefix(cleaned, "0020"):
		cleaned = "0" + strings.TrimPrefix(strings.TrimPrefix(cleaned, "0020"), "0")
	}
	return cleaned
}

// ClassifyOperator returns the carrier prefix of a phone or "" when it is
// unrecognized. It never fails.
func ClassifyOperator(raw string) string {
	cleaned := CleanPhone(raw)
	for _, prefix := range OperatorPrefixes {
		if strings.HasPrefix(cleaned, prefix) {
			return prefix
		}
	}
	return ""
}

// LooksLikePhone reports whether s is only a phone number (chat exports
// show unsaved contacts by number).
func LooksLikePhone(s string) bool {
	cleaned := CleanPhone(s)
	return len(cleaned) >= 8 && digitsOnly.MatchString(cleaned)
}

// FindMobile returns the first Egyptian mobile number in free text, cleaned.
func FindMobile(text string) string {
	compact := stripPhone(text)
	compact = CleanPhone(compact)
	match := mobileRegex.FindString(compact)
	if match == "" {
		return ""
	}
	return CleanPhone(match)
}
