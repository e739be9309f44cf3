package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/event-map-index/internal/domain"
	"github.com/couchcryptid/event-map-index/internal/observability"
	"github.com/couchcryptid/event-map-index/internal/ratelimit"
)

const (
	methodReverse = "reverse"
	methodSearch  = "search"
)

// Client implements domain.Geocoder using the Nominatim API. Every request,
// successful or not, passes through the shared rate limiter first.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration, limiter *ratelimit.Limiter, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}
}

// Reverse converts coordinates to the address of the closest OSM object.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*domain.Address, error) {
	params := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	query := fmt.Sprintf("%.6f,%.6f", lat, lon)

	body, err := c.doRequest(ctx, methodReverse, query, c.baseURL+"/reverse?"+params.Encode())
	if err != nil {
		return nil, err
	}

	// Unmatched coordinates come back as {"error": "..."} with status 200.
	var place reverseResponse
	if err := json.Unmarshal(body, &place); err != nil {
		return nil, c.fail(methodReverse, query, 0, fmt.Errorf("decode response: %w", err))
	}
	if place.Error != "" {
		c.logger.Debug("nominatim reverse no match", "query", query, "reason", place.Error)
	}
	return c.found(methodReverse, place.Address), nil
}

// Search resolves free text to the address of the first match.
func (c *Client) Search(ctx context.Context, text string) (*domain.Address, error) {
	params := url.Values{
		"format":         {"json"},
		"q":              {text},
		"addressdetails": {"1"},
		"limit":          {"1"},
	}

	body, err := c.doRequest(ctx, methodSearch, text, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	// Unlike reverse, search returns an array.
	var places []searchResult
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, c.fail(methodSearch, text, 0, fmt.Errorf("decode response: %w", err))
	}
	if len(places) == 0 {
		return c.found(methodSearch, nil), nil
	}
	return c.found(methodSearch, places[0].Address), nil
}

func (c *Client) doRequest(ctx context.Context, method, query, fullURL string) ([]byte, error) {
	if c.limiter != nil {
		waited, err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
		c.metrics.RateLimitWait.Observe(waited.Seconds())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, c.fail(method, query, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, c.fail(method, query, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(method, query, resp.StatusCode, fmt.Errorf("nominatim API error: %s", truncate(body, 200)))
	}
	if err != nil {
		return nil, c.fail(method, query, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	return body, nil
}

func (c *Client) fail(method, query string, status int, err error) error {
	c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
	c.logger.Debug("nominatim request failed", "method", method, "query", query, "status", status, "error", err)
	return &domain.GeocodeError{Op: method, Query: query, StatusCode: status, Err: err}
}

func (c *Client) found(method string, addr *address) *domain.Address {
	if addr == nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "empty").Inc()
		return nil
	}
	c.metrics.GeocodeRequests.WithLabelValues(method, "success").Inc()
	return addr.toDomain()
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// Nominatim API response types.

type reverseResponse struct {
	Address *address `json:"address"`
	Error   string   `json:"error"`
}

type searchResult struct {
	Address *address `json:"address"`
}

type address struct {
	Municipality string `json:"municipality"`
	CityDistrict string `json:"city_district"`
	City         string `json:"city"`
	Village      string `json:"village"`
	Town         string `json:"town"`
}

func (a *address) toDomain() *domain.Address {
	return &domain.Address{
		Municipality: a.Municipality,
		CityDistrict: a.CityDistrict,
		City:         a.City,
		Village:      a.Village,
		Town:         a.Town,
	}
}
