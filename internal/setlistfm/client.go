package setlistfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"earplugs/shared/go/logging"
)

const (
	DefaultBaseURL = "https://api.setlist.fm/rest/1.0"
	userAgent      = "earplugs/1.0"

	defaultRetryAfter = time.Second
	maxRateRetries    = 3
)

// ErrNotFound is returned when setlist.fm has no resource for the request.
var ErrNotFound = errors.New("setlist.fm: not found")

// APIError is any other non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("setlist.fm: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Config holds client settings.
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client calls setlist.fm within its published rate limit.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	logger     zerolog.Logger
}

// New creates a client. Zero values fall back to the public API at 2 requests per second.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logging.Component("setlistfm"),
	}
}

// Setlist fetches a single setlist by its setlist.fm id.
func (c *Client) Setlist(ctx context.Context, id string) (*Setlist, error) {
	var s Setlist
	if err := c.get(ctx, "/setlist/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SearchByVenueDate lists every setlist recorded at a venue on a date (dd-MM-yyyy).
func (c *Client) SearchByVenueDate(ctx context.Context, venueID, date string) ([]Setlist, error) {
	params := url.Values{
		"venueId": {venueID},
		"date":    {date},
	}

	var res SearchResult
	if err := c.get(ctx, "/search/setlists", params, &res); err != nil {
		return nil, err
	}
	return res.Setlist, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("requesting %s: %w", path, err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests && attempt < maxRateRetries:
			wait := retryAfter(resp.Header.Get("Retry-After"))
			c.logger.Warn().Str("path", path).Dur("wait", wait).Int("attempt", attempt+1).Msg("rate limited by setlist.fm")
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			continue
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parsing %s response: %w", path, err)
		}
		return nil
	}
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
