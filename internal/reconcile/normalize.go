package reconcile

import (
	"regexp"
	"strings"
)

var (
	nonNameChars   = regexp.MustCompile(`[^a-z0-9\s]`)
	leadingArticle = regexp.MustCompile(`^(the|a|an)\s+`)
)

// Normalize returns the comparison key for an artist name: lower-cased, reduced
// to [a-z0-9 ] with single spaces, and without a leading article.
//
// An article is only stripped while another word follows it, so "The The"
// normalizes to "the" and Normalize(Normalize(s)) == Normalize(s).
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = nonNameChars.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	for {
		stripped := leadingArticle.ReplaceAllString(s, "")
		if stripped == s {
			return s
		}
		s = stripped
	}
}
