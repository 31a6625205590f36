package channel

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "", "\t", "")

// NormalizeEmail trims and case-folds an email address.
func NormalizeEmail(addr string) string {
	return cases.Fold().String(strings.TrimSpace(addr))
}

// NormalizePhone strips formatting characters from a phone number.
// A leading plus sign is kept.
func NormalizePhone(addr string) string {
	return phoneSeparators.Replace(strings.TrimSpace(addr))
}

// ValidPhone reports whether addr, once normalized, looks like an E.164 number.
func ValidPhone(addr string) bool {
	return phoneRegex.MatchString(NormalizePhone(addr))
}

// Normalize returns the canonical form of addr for channel c. Two addresses
// are the same recipient if and only if their normalized forms are equal.
func Normalize(c Channel, addr string) string {
	switch c {
	case Email:
		return NormalizeEmail(addr)
	case SMS, WhatsApp:
		return NormalizePhone(addr)
	}
	return strings.TrimSpace(addr)
}
