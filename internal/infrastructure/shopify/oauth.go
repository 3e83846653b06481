package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ---------------------------------------------------------------------------
// OAuth Client
// ---------------------------------------------------------------------------

// OAuthClient performs the Shopify OAuth authorization flow for the
// app's credentials
type OAuthClient struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewOAuthClient creates an OAuth client for the app credentials
func NewOAuthClient(clientID, clientSecret string, timeout time.Duration, logger *zap.Logger) *OAuthClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// AuthorizeURL builds the store's OAuth consent URL
func (c *OAuthClient) AuthorizeURL(shopURL, redirectURI, state string, scopes []string) string {
	query := url.Values{}
	query.Set("client_id", c.clientID)
	query.Set("scope", strings.Join(scopes, ","))
	query.Set("redirect_uri", redirectURI)
	query.Set("state", state)
	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shopURL, query.Encode())
}

// Exchange redeems an authorization code for a permanent access token
func (c *OAuthClient) Exchange(ctx context.Context, shopURL, code string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"code":          code,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", shopify.ErrTokenExchange, err)
	}

	endpoint := fmt.Sprintf("https://%s/admin/oauth/access_token", shopURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shopify.ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shopify.ErrTokenExchange, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shopify.ErrTokenExchange, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("OAuth token exchange rejected",
			zap.String("shop_url", shopURL),
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: status %d", shopify.ErrTokenExchange, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", shopify.ErrTokenExchange, err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", shopify.ErrTokenExchange)
	}
	return result.AccessToken, nil
}

// Ensure OAuthClient implements TokenExchanger
var _ shopify.TokenExchanger = (*OAuthClient)(nil)
