// Package upstream provides the shared HTTP plumbing for the external
// geocoding and weather services: a pooled client, per-service rate
// limiting and User-Agent handling.
package upstream

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// NominatimBaseURL is the OSM Nominatim geocoding service.
	NominatimBaseURL = "https://nominatim.openstreetmap.org"

	// OpenMeteoBaseURL is the Open-Meteo forecast API.
	OpenMeteoBaseURL = "https://api.open-meteo.com/v1"

	// DefaultUserAgent identifies this server to upstream services.
	// Nominatim's usage policy requires a meaningful User-Agent.
	DefaultUserAgent = "map-mcp-server/0.1.0"
)

// Client is an HTTP client for upstream API requests with per-host rate
// limiting. Throttling state lives on the instance rather than in
// process globals so tests can construct independent clients.
type Client struct {
	httpClient *http.Client

	mu        sync.RWMutex
	userAgent string
	limiters  map[string]*rate.Limiter
}

// NewClient creates a client with connection pooling and the default
// per-service rate limits: Nominatim is held to 1 request per second per
// its usage policy, Open-Meteo to 10 per second.
func NewClient() *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: 30 * time.Second,
		},
		userAgent: DefaultUserAgent,
		limiters:  make(map[string]*rate.Limiter),
	}

	c.SetRateLimit(hostFromURL(NominatimBaseURL), rate.Every(time.Second), 1)
	c.SetRateLimit(hostFromURL(OpenMeteoBaseURL), rate.Every(100*time.Millisecond), 5)

	return c
}

// SetUserAgent sets the User-Agent string sent with every request.
func (c *Client) SetUserAgent(ua string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userAgent = ua
}

// UserAgent returns the current User-Agent string.
func (c *Client) UserAgent() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userAgent
}

// SetRateLimit installs or replaces the rate limiter for a host.
func (c *Client) SetRateLimit(host string, limit rate.Limit, burst int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiters[host] = rate.NewLimiter(limit, burst)
}

// limiterFor returns the limiter for a host, or nil when the host is
// unthrottled.
func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limiters[host]
}

// Do performs an HTTP request, waiting on the host's rate limiter first
// and stamping the User-Agent header. Hosts without a configured limiter
// are not throttled.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.UserAgent())

	if limiter := c.limiterFor(req.URL.Host); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return c.httpClient.Do(req.WithContext(ctx))
}

// Get is a convenience wrapper building and performing a GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// hostFromURL extracts the host from a URL string
func hostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}

var (
	defaultClient     *Client
	defaultClientOnce sync.Once
)

// DefaultClient returns the shared client used by the tool handlers.
func DefaultClient() *Client {
	defaultClientOnce.Do(func() {
		defaultClient = NewClient()
	})
	return defaultClient
}
