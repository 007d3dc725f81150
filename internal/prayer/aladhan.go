package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher obtains one day's schedule for a coordinate.
type Fetcher interface {
	Timings(ctx context.Context, lat, lng float64, date time.Time) (Schedule, error)
}

// AladhanClient fetches timings from the Aladhan REST API. Requests share a
// token bucket limiter so a large subscriber base cannot hammer the API at
// midnight when every cache entry expires at once.
type AladhanClient struct {
	httpClient *http.Client
	baseURL    string
	method     int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewAladhanClient creates a rate-limited Aladhan client. method selects the
// calculation authority (20 = KEMENAG, used for Indonesia).
func NewAladhanClient(baseURL string, method, requestsPerMinute int, logger *slog.Logger) *AladhanClient {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &AladhanClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		method:     method,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// timingsResponse is the subset of the Aladhan payload we consume.
type timingsResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings struct {
			Imsak   string `json:"Imsak"`
			Fajr    string `json:"Fajr"`
			Sunrise string `json:"Sunrise"`
			Dhuhr   string `json:"Dhuhr"`
			Asr     string `json:"Asr"`
			Maghrib string `json:"Maghrib"`
			Isha    string `json:"Isha"`
		} `json:"timings"`
	} `json:"data"`
}

// Timings fetches the schedule for a coordinate and date.
func (c *AladhanClient) Timings(ctx context.Context, lat, lng float64, date time.Time) (Schedule, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Schedule{}, fmt.Errorf("%w: rate limit wait: %v", ErrScheduleFetch, err)
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", lat))
	params.Set("longitude", fmt.Sprintf("%g", lng))
	params.Set("method", fmt.Sprintf("%d", c.method))

	u := fmt.Sprintf("%s/v1/timings/%s?%s",
		c.baseURL, date.Format("02-01-2006"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: create request: %v", ErrScheduleFetch, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %v", ErrScheduleFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: read response: %v", ErrScheduleFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Schedule{}, fmt.Errorf("%w: aladhan returned %d: %s",
			ErrScheduleFetch, resp.StatusCode, truncate(body, 200))
	}

	var result timingsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Schedule{}, fmt.Errorf("%w: decode response: %v", ErrScheduleFetch, err)
	}
	if result.Code != http.StatusOK {
		return Schedule{}, fmt.Errorf("%w: aladhan code %d", ErrScheduleFetch, result.Code)
	}

	t := result.Data.Timings
	return Schedule{
		Imsak:   CleanTime(t.Imsak),
		Subuh:   CleanTime(t.Fajr),
		Terbit:  CleanTime(t.Sunrise),
		Dzuhur:  CleanTime(t.Dhuhr),
		Ashar:   CleanTime(t.Asr),
		Maghrib: CleanTime(t.Maghrib),
		Isya:    CleanTime(t.Isha),
	}, nil
}

// Aladhan suffixes timings with the zone, e.g. "04:36 (WIB)".
var annotationRe = regexp.MustCompile(`\s*\(.*\)`)

// CleanTime strips a trailing parenthetical annotation from a timing.
func CleanTime(t string) string {
	return annotationRe.ReplaceAllString(t, "")
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
