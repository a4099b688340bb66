package search

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"earplugs/shared/go/logging"
)

const maxLimit = 50

// Handler responds to search requests backed by the Store.
type Handler struct {
	store Store
}

// NewHandler builds a handler using the provided store implementation.
func NewHandler(store Store) http.Handler {
	return &Handler{store: store}
}

// Response models the payload returned by the search handler.
type Response struct {
	Sections []Section `json:"sections"`
}

// Section groups related search results.
type Section struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Item represents a single search result entry.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Href     string `json:"href,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, Response{Sections: []Section{}})
		return
	}

	limit := 10
	if rawLimit := strings.TrimSpace(r.URL.Query().Get("limit")); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil && parsed > 0 {
			limit = min(parsed, maxLimit)
		}
	}

	results, err := h.store.Search(r.Context(), query, limit)
	if err != nil {
		logging.WithContext(r.Context()).Error().Err(err).Str("query", query).Msg("search failed")
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, buildResponse(results))
}

func buildResponse(results Results) Response {
	sections := []Section{}

	if len(results.Artists) > 0 {
		items := make([]Item, 0, len(results.Artists))
		for _, artist := range results.Artists {
			items = append(items, Item{
				ID:       "artist:" + artist.Slug,
				Title:    artist.Name,
				Subtitle: pluralize(artist.ConcertCount, "concert"),
			})
		}
		sections = append(sections, Section{Name: "artists", Items: items})
	}

	if len(results.Concerts) > 0 {
		items := make([]Item, 0, len(results.Concerts))
		for _, concert := range results.Concerts {
			title := concert.VenueName
			if len(concert.Headliners) > 0 {
				title = strings.Join(concert.Headliners, " / ") + " @ " + concert.VenueName
			}
			subtitle := concert.Date.Format("2006-01-02")
			if concert.TourName != "" {
				subtitle = subtitle + " · " + concert.TourName
			}
			items = append(items, Item{
				ID:       strconv.FormatInt(concert.ID, 10),
				Title:    title,
				Subtitle: subtitle,
				Href:     concert.Href,
			})
		}
		sections = append(sections, Section{Name: "concerts", Items: items})
	}

	return Response{Sections: sections}
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pluralize(count int, singular string) string {
	switch count {
	case 0:
		return ""
	case 1:
		return "1 " + singular
	default:
		return strconv.Itoa(count) + " " + singular + "s"
	}
}
