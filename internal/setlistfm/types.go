// Package setlistfm is a small client for the setlist.fm REST API.
package setlistfm

// Setlist is a setlist as returned by setlist.fm. Submissions store the same
// JSON, so it is also what visitors post.
type Setlist struct {
	ID        string `json:"id"`
	EventDate string `json:"eventDate"` // dd-MM-yyyy
	URL       string `json:"url,omitempty"`
	Artist    Artist `json:"artist"`
	Venue     Venue  `json:"venue"`
	Tour      *Tour  `json:"tour,omitempty"`
	Sets      Sets   `json:"sets"`
}

type Artist struct {
	MBID string `json:"mbid,omitempty"`
	Name string `json:"name"`
}

type Venue struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Tour struct {
	Name string `json:"name"`
}

type Sets struct {
	Set []Set `json:"set"`
}

type Set struct {
	Name   string `json:"name,omitempty"`
	Encore int    `json:"encore,omitempty"`
	Song   []Song `json:"song"`
}

type Song struct {
	Name  string  `json:"name"`
	Info  string  `json:"info,omitempty"`
	Cover *Artist `json:"cover,omitempty"`
	Tape  bool    `json:"tape,omitempty"`
}

// SearchResult is one page of a setlist search.
type SearchResult struct {
	Setlist      []Setlist `json:"setlist"`
	Total        int       `json:"total"`
	Page         int       `json:"page"`
	ItemsPerPage int       `json:"itemsPerPage"`
}

// TourName returns the tour name or "" when the setlist has none.
func (s Setlist) TourName() string {
	if s.Tour == nil {
		return ""
	}
	return s.Tour.Name
}

// SongCount counts songs across every set.
func (s Setlist) SongCount() int {
	n := 0
	for _, set := range s.Sets.Set {
		n += len(set.Song)
	}
	return n
}
