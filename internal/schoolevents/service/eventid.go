package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
)

const maxSlugLength = 40

var umlautReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "ae", "Ö", "oe", "Ü", "ue",
)

// GenerateEventID builds the canonical event ID "<slug>-<yyyymmdd>-<hash8>".
// The hash covers school, date and booking reference, so two bookings of the
// same school on the same day still get distinct IDs.
func GenerateEventID(schoolName string, eventDate time.Time, bookingRef string) string {
	date := eventDate.Format("20060102")
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(schoolName)) + "|" + date + "|" + bookingRef))
	hash := hex.EncodeToString(sum[:])[:8]

	slug := slugify(schoolName)
	if slug == "" {
		slug = "event"
	}
	return slug + "-" + date + "-" + hash
}

func slugify(s string) string {
	s = umlautReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}
