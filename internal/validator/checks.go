package validator

import (
	"strings"
	"time"
)

const (
	dateLayoutISO = "2006-01-02"
	dateLayoutBR  = "02/01/2006"
)

// parseFieldDate parses an extracted date string, trying ISO format first
// and the Brazilian day/month/year format second.
func parseFieldDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayoutISO, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayoutBR, s)
}

// truncateToDay drops the time-of-day component. All temporal derivations
// operate at day granularity.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from a to b (negative when b precedes a).
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// floorDiv divides rounding toward negative infinity, so negative day spans
// bucket the same way the age/validity derivations expect.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func alphanumericOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allIdentical(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}

// ValidCPF validates a Brazilian CPF number. Non-digit characters are
// stripped first; the number must be 11 digits, not all identical, and both
// modulo-11 check digits must match.
func ValidCPF(cpf string) bool {
	digits := digitsOnly(cpf)
	if len(digits) != 11 {
		return false
	}
	if allIdentical(digits) {
		return false
	}
	return cpfCheckDigit(digits, 9) == int(digits[9]-'0') &&
		cpfCheckDigit(digits, 10) == int(digits[10]-'0')
}

// cpfCheckDigit computes the modulo-11 check digit over the first n digits,
// with weights descending from n+1. Raw results of 10 or 11 map to 0.
func cpfCheckDigit(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	d := 11 - sum%11
	if d >= 10 {
		return 0
	}
	return d
}

// ValidDate reports whether s is a YYYY-MM-DD date with a plausible year:
// no earlier than 1900 and no more than 50 years past the reference time.
func ValidDate(s string, now time.Time) bool {
	t, err := time.Parse(dateLayoutISO, strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return t.Year() >= 1900 && t.Year() <= now.Year()+50
}

// Expired reports whether the YYYY-MM-DD date s falls strictly before
// today, comparing dates only. Unparseable input is not expired.
func Expired(s string, today time.Time) bool {
	t, err := time.Parse(dateLayoutISO, strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return t.Before(truncateToDay(today))
}
