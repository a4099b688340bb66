package reconcile

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug derives an id-safe key from an artist name: "Grahame Lesh & Friends"
// becomes "grahame-lesh-and-friends".
func Slug(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	s := strings.ReplaceAll(strings.ToLower(folded), "&", " and ")

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	slug := strings.Join(strings.Fields(b.String()), "-")
	if slug == "" {
		return "artist"
	}
	return slug
}

// SetlistID is the document key of the setlist an artist played at a concert.
func SetlistID(concertID int64, artistName string) string {
	return fmt.Sprintf("%d-%s", concertID, Slug(artistName))
}
