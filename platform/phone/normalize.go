// Package phone normalises contact numbers captured by booking forms.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Schools book from Germany; other regions must carry a country code.
const defaultRegion = "DE"

var labelPrefixes = []string{"tel.:", "tel:", "tel.", "telefon:", "mobil:", "handy:"}

// NormalizeE164 formats a booking phone field as E.164. Forms often carry a
// label ("Tel.: ...") or several numbers ("030 1234 / 0171 5678"); the first
// valid number wins. Unparseable input is returned trimmed.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	for _, candidate := range candidates(trimmed) {
		number, err := phonenumbers.Parse(candidate, defaultRegion)
		if err != nil || !phonenumbers.IsValidNumber(number) {
			continue
		}
		return phonenumbers.Format(number, phonenumbers.E164)
	}
	return trimmed
}

func candidates(s string) []string {
	lower := strings.ToLower(s)
	for _, prefix := range labelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '|' })
	out := make([]string, 0, len(parts)+1)
	for _, part := range parts {
		// a spaced slash separates numbers; the whole field is tried last
		if halves := strings.Split(part, " / "); len(halves) > 1 {
			out = append(out, halves...)
			continue
		}
		out = append(out, part)
	}
	return append(out, s)
}
