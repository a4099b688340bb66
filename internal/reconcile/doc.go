// Package reconcile merges an imported setlist's artist into a concert's roster.
//
// The functions here are pure apart from Apply, which asks an ArtistResolver for
// the global artist id of a newly added entry. Name comparison goes through
// Normalize and Similar; combined billing strings ("A with B") are recognised by
// SplitCombined and removed by CleanupMalformed once their parts are present.
package reconcile
