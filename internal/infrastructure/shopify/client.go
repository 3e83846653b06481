package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/stockhaus/backend/internal/domain/shopify"
	"github.com/stockhaus/backend/internal/infrastructure/ratelimit"
)

// Constants for the Shopify Admin API
const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
	// throttleWait is how long a request waits when the outbound budget is spent
	throttleWait = 100 * time.Millisecond
)

// Config holds Admin API client tuning. Zero values fall back to the
// documented Shopify limits.
type Config struct {
	// RequestTimeout bounds a single HTTP round trip
	RequestTimeout time.Duration
	// MaxRetries is the total number of attempts per request
	MaxRetries int
	// RetryBaseDelay is doubled on every failed attempt
	RetryBaseDelay time.Duration
	// PageLimit is the per-page record count requested from the API
	PageLimit int
	// MaxPages caps cursor pagination as a runaway guard
	MaxPages int
	// RequestsPerSecond is the per-store outbound budget
	RequestsPerSecond int
}

// DefaultConfig returns the client defaults
func DefaultConfig() Config {
	return Config{
		RequestTimeout:    30 * time.Second,
		MaxRetries:        3,
		RetryBaseDelay:    5 * time.Second,
		PageLimit:         250,
		MaxPages:          1000,
		RequestsPerSecond: 40,
	}
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = d.RetryBaseDelay
	}
	if c.PageLimit <= 0 || c.PageLimit > 250 {
		c.PageLimit = d.PageLimit
	}
	if c.MaxPages <= 0 {
		c.MaxPages = d.MaxPages
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
}

// Client talks to one store's Admin API. It applies the per-store
// request budget, retries transient failures with exponential backoff
// and follows cursor pagination.
type Client struct {
	storeURL    string
	accessToken string
	apiVersion  string
	config      Config

	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     *zap.Logger

	// sleep is overridable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client bound to one store's credentials
func NewClient(storeURL, accessToken, apiVersion string, config Config, limiter ratelimit.Limiter, logger *zap.Logger) *Client {
	config.normalize()
	if apiVersion == "" {
		apiVersion = shopify.DefaultAPIVersion
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		storeURL:    storeURL,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		config:      config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		limiter: limiter,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Factory builds clients from integration credentials
type Factory struct {
	config  Config
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

// NewFactory creates a client factory sharing one limiter and config
func NewFactory(config Config, limiter ratelimit.Limiter, logger *zap.Logger) *Factory {
	config.normalize()
	return &Factory{config: config, limiter: limiter, logger: logger}
}

// ForIntegration builds a client bound to the integration's credentials
func (f *Factory) ForIntegration(integration *shopify.Integration) shopify.RemoteClient {
	return NewClient(
		integration.StoreURL,
		integration.AccessToken,
		integration.APIVersion,
		f.config,
		f.limiter,
		f.logger.With(zap.String("store_url", integration.StoreURL)),
	)
}

// Ensure Factory implements ClientFactory
var _ shopify.ClientFactory = (*Factory)(nil)

// ---------------------------------------------------------------------------
// Fetch Operations
// ---------------------------------------------------------------------------

// Fetch returns an iterator over the store's collection for the entity.
// A store without an access token yields an empty iterator so callers
// can treat an unconfigured integration as a no-op.
func (c *Client) Fetch(ctx context.Context, entity shopify.EntityType, opts shopify.FetchOptions) shopify.RecordIterator {
	if c.accessToken == "" {
		c.logger.Warn("fetch skipped, no access token configured",
			zap.String("entity", entity.String()))
		return emptyIterator{}
	}

	limit := c.config.PageLimit
	if opts.Limit > 0 && opts.Limit <= 250 {
		limit = opts.Limit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if !opts.UpdatedAfter.IsZero() {
		params.Set("updated_at_min", opts.UpdatedAfter.UTC().Format(time.RFC3339))
	}

	switch entity {
	case shopify.EntityProducts:
		return newPageIterator(c, "products.json", "products", params)
	case shopify.EntityOrders:
		params.Set("status", "any")
		return newPageIterator(c, "orders.json", "orders", params)
	case shopify.EntityCustomers:
		return newPageIterator(c, "customers.json", "customers", params)
	case shopify.EntityInventory:
		return newInventoryIterator(c, params)
	default:
		return errorIterator{err: fmt.Errorf("shopify: entity %q is not fetchable", entity)}
	}
}

// TestConnection verifies credentials by loading the shop resource
func (c *Client) TestConnection(ctx context.Context) (*shopify.ShopInfo, error) {
	if c.accessToken == "" {
		return nil, shopify.ErrMissingAccessToken
	}

	body, _, err := c.get(ctx, "shop.json", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Shop shopify.ShopInfo `json:"shop"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shopify.ErrInvalidResponse, err)
	}
	return &resp.Shop, nil
}

// Ensure Client implements RemoteClient
var _ shopify.RemoteClient = (*Client)(nil)

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// get performs a throttled GET against the Admin API, retrying
// transient failures with exponential backoff. The response headers are
// returned alongside the body so callers can read the pagination cursor.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, http.Header, error) {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/%s", c.storeURL, c.apiVersion, path)

	var lastErr *shopify.APIError
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryBaseDelay * time.Duration(1<<(attempt-1))
			c.logger.Warn("retrying Shopify API request",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, nil, err
			}
		}

		if err := c.waitForBudget(ctx); err != nil {
			return nil, nil, err
		}

		body, header, apiErr := c.doRequest(ctx, endpoint, query)
		if apiErr == nil {
			return body, header, nil
		}
		if !apiErr.Retryable() {
			return nil, nil, apiErr
		}
		lastErr = apiErr
	}
	return nil, nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values) ([]byte, http.Header, *shopify.APIError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, shopify.NewAPIError(endpoint, 0, "failed to build request", err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, shopify.NewAPIError(endpoint, 0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, shopify.NewAPIError(endpoint, resp.StatusCode, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := http.StatusText(resp.StatusCode)
		if len(body) > 0 && len(body) < 512 {
			message = string(body)
		}
		apiErr := shopify.NewAPIError(req.URL.Path, resp.StatusCode, message, nil)
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			apiErr.Err = shopify.ErrRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			apiErr.Err = shopify.ErrUnauthorized
		default:
			apiErr.Err = shopify.ErrRequestFailed
		}
		return nil, nil, apiErr
	}

	return body, resp.Header, nil
}

// waitForBudget checks the per-store request budget. An exhausted
// budget backs off once for throttleWait and then proceeds; the 429
// retry path catches anything Shopify still rejects.
func (c *Client) waitForBudget(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	key := "shopify:" + c.storeURL
	ok, err := c.limiter.Allow(ctx, key, c.config.RequestsPerSecond, time.Second)
	if err != nil {
		// A broken limiter backend should not take syncing down
		// with it; log and proceed unthrottled.
		c.logger.Warn("rate limiter unavailable, proceeding", zap.Error(err))
		return nil
	}
	if ok {
		return nil
	}
	return c.sleep(ctx, throttleWait)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
