package shopify

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Shopify Errors
// ---------------------------------------------------------------------------

var (
	// Integration errors
	ErrIntegrationNotFound     = errors.New("shopify: integration not found")
	ErrIntegrationExists       = errors.New("shopify: integration already exists for store")
	ErrIntegrationPaused       = errors.New("shopify: integration is paused")
	ErrInvalidStoreURL         = errors.New("shopify: invalid store URL")
	ErrMissingAccessToken      = errors.New("shopify: access token not configured")
	ErrInvalidSyncFrequency    = errors.New("shopify: sync frequency must be positive")
	ErrInvalidStatusTransition = errors.New("shopify: invalid integration status transition")

	// API errors
	ErrRateLimited     = errors.New("shopify: API rate limit exceeded")
	ErrTooManyPages    = errors.New("shopify: pagination exceeded maximum page count")
	ErrInvalidResponse = errors.New("shopify: invalid API response")
	ErrRequestFailed   = errors.New("shopify: API request failed")
	ErrUnauthorized    = errors.New("shopify: API authentication failed")

	// Webhook errors
	ErrInvalidSignature   = errors.New("shopify: invalid webhook signature")
	ErrMissingSignature   = errors.New("shopify: missing webhook signature header")
	ErrUnknownTopic       = errors.New("shopify: unknown webhook topic")
	ErrMissingShopDomain  = errors.New("shopify: missing shop domain header")
	ErrWebhookSecretUnset = errors.New("shopify: webhook secret not configured")

	// OAuth errors
	ErrInvalidOAuthState = errors.New("shopify: invalid or expired OAuth state")
	ErrTokenExchange     = errors.New("shopify: OAuth token exchange failed")

	// Sync errors
	ErrSyncInProgress = errors.New("shopify: sync already in progress")
	ErrSyncLogClosed  = errors.New("shopify: sync log already completed")
)

// ---------------------------------------------------------------------------
// APIError
// ---------------------------------------------------------------------------

// APIError carries the HTTP status of a failed Shopify Admin API call.
// A zero StatusCode means the request never produced a response
// (network failure, timeout).
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("shopify: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("shopify: %s: %s", e.Endpoint, e.Message)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying.
// Client errors other than 429 indicate a bad request or revoked
// credentials and will not succeed on a second attempt.
func (e *APIError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	if e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}

// NewAPIError creates an APIError for a failed request
func NewAPIError(endpoint string, statusCode int, message string, err error) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Err:        err,
	}
}
