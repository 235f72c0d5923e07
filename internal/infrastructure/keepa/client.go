// Package keepa implements the pricing API client for Keepa's /product endpoint.
package keepa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/pricecheck/backend/internal/domain"
	"github.com/pricecheck/backend/internal/logger"
	"github.com/pricecheck/backend/internal/metrics"
)

const (
	// DefaultTimeout bounds one pricing API request
	DefaultTimeout = 30 * time.Second
	// DefaultRequestsPerMinute is used when the configured rate is not positive
	DefaultRequestsPerMinute = 60
	// limiterBurst allows short bursts on top of the steady rate
	limiterBurst = 5
	// statsDays is the history window requested from the API
	statsDays = "30"
)

// Config configures a Client
type Config struct {
	APIKey            string
	BaseURL           string
	Domain            int
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client handles communication with the Keepa API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	domain      int
	rateLimiter *rate.Limiter
	logger      logger.Logger
	metrics     *metrics.Metrics
	debug       bool
}

// NewClient creates a new Keepa API client
func NewClient(cfg Config, log logger.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	if cfg.Domain <= 0 {
		cfg.Domain = 1
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		domain:      cfg.Domain,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), limiterBurst),
		logger:      log.With(logger.String("component", "keepa")),
		metrics:     m,
	}
}

// SetDebug enables logging of raw response bodies
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// GetProduct fetches 30-day price statistics for an ASIN
func (c *Client) GetProduct(ctx context.Context, asin string) (*domain.PricingProduct, error) {
	if !c.Configured() {
		return nil, domain.ErrConfiguration
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrPricingAPI, err)
	}

	start := time.Now()
	body, status, err := c.doRequest(ctx, c.productURL(asin))
	c.metrics.ObservePricing(time.Since(start))
	if err != nil {
		c.logger.Error("Request failed", logger.String("asin", asin), logger.Error(err))
		return nil, err
	}

	if c.debug {
		c.logger.Debug("Response body", logger.Int("status", status), logger.String("body", string(body)))
	}

	if err := statusError(status, body); err != nil {
		c.logger.Warn("API error", logger.String("asin", asin), logger.Int("status", status))
		return nil, err
	}

	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrPricingAPI, err)
	}

	if msg := errorMessage(resp.Error); msg != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrPricingAPI, msg)
	}

	if len(resp.Products) == 0 {
		c.logger.Info("No products returned", logger.String("asin", asin))
		return nil, fmt.Errorf("%w: %w", domain.ErrPricingAPI, domain.ErrProductNotFound)
	}

	result := MapProduct(&resp.Products[0])
	if result.ASIN == "" {
		result.ASIN = asin
	}
	c.logger.Debug("Product fetched",
		logger.String("asin", asin),
		logger.Int("tokens_left", resp.TokensLeft),
		logger.Bool("has_stats", result.Stats != nil),
	)
	return result, nil
}

// productURL builds the /product request URL
func (c *Client) productURL(asin string) string {
	params := url.Values{}
	params.Add("key", c.apiKey)
	params.Add("domain", strconv.Itoa(c.domain))
	params.Add("asin", asin)
	params.Add("stats", statsDays)
	params.Add("buybox", "1")
	return fmt.Sprintf("%s/product?%s", c.baseURL, params.Encode())
}

// doRequest executes an HTTP GET request and reads the whole body
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to create request: %v", domain.ErrPricingAPI, err)
	}
	req.Header.Set("User-Agent", "PriceCheck/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrPricingAPI, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: failed to read response: %v", domain.ErrPricingAPI, err)
	}
	return body, resp.StatusCode, nil
}

// statusError maps non-2xx statuses. 401 and 402 are auth/quota problems
// that callers may degrade on rather than fail.
func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	detail := ""
	var resp productResponse
	if json.Unmarshal(body, &resp) == nil {
		if msg := errorMessage(resp.Error); msg != "" {
			detail = ": " + msg
		}
	}

	switch status {
	case http.StatusUnauthorized, http.StatusPaymentRequired:
		return fmt.Errorf("%w: %w: status %d%s", domain.ErrPricingAPI, domain.ErrPricingUnauthorized, status, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w: status %d", domain.ErrPricingAPI, domain.ErrRateLimited, status)
	default:
		return fmt.Errorf("%w: status %d%s", domain.ErrPricingAPI, status, detail)
	}
}
