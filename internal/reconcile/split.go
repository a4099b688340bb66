package reconcile

import "strings"

// separators are tried in order; the first one present decides the split.
var separators = []string{" and ", " & ", " with ", "/", ", ", ": "}

// SplitCombined breaks a billing string such as "Steve Miller Band with Dave Mason"
// into its artists. Names without a separator come back as a single element.
func SplitCombined(name string) []string {
	for _, sep := range separators {
		if !strings.Contains(name, sep) {
			continue
		}
		var parts []string
		for _, p := range strings.Split(name, sep) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return []string{name}
}

// IsCombined reports whether name splits into more than one artist.
func IsCombined(name string) bool {
	return len(SplitCombined(name)) > 1
}
