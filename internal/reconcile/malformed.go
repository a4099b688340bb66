package reconcile

import (
	"regexp"
	"strings"

	"earplugs/shared/go/models"
)

var combinatorPattern = regexp.MustCompile(`(?i) with | and | \+ | / `)

// IsMalformed reports whether name looks like several artists stored as one
// entry. others holds the names of the remaining entries on the same bill.
//
// A name is flagged when it joins two or more artists with combinators, when
// every part of its split already has its own entry, or when it joins artists
// and contains another entry's full name.
func IsMalformed(name string, others []string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	if len(combinatorPattern.FindAllStringIndex(name, -1)) >= 2 {
		return true
	}

	if parts := SplitCombined(name); len(parts) >= 2 && allPresent(parts, others) {
		return true
	}

	if combinatorPattern.MatchString(name) {
		lower := strings.ToLower(name)
		for _, other := range others {
			if other == "" || other == name {
				continue
			}
			if strings.Contains(lower, strings.ToLower(other)) {
				return true
			}
		}
	}

	return false
}

func allPresent(parts, names []string) bool {
	for _, p := range parts {
		found := false
		for _, n := range names {
			if n == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CleanupMalformed drops every malformed entry and renumbers the rest. Entries
// are judged against the roster as given, before anything is removed.
func CleanupMalformed(entries []models.ArtistEntry) (kept, removed []models.ArtistEntry) {
	for i, e := range entries {
		if IsMalformed(e.ArtistName, namesExcept(entries, i)) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	Renumber(kept)
	return kept, removed
}

// Renumber rewrites positions as 1..n in slice order.
func Renumber(entries []models.ArtistEntry) {
	for i := range entries {
		entries[i].Position = i + 1
	}
}

func namesExcept(entries []models.ArtistEntry, skip int) []string {
	names := make([]string, 0, len(entries))
	for i, e := range entries {
		if i != skip {
			names = append(names, e.ArtistName)
		}
	}
	return names
}
