package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
)

// ---------------------------------------------------------------------------
// Webhook Verification
// ---------------------------------------------------------------------------

// WebhookEvent is one verified inbound webhook delivery
type WebhookEvent struct {
	Topic      Topic
	ShopDomain string
	Payload    json.RawMessage
}

// VerifyWebhookSignature checks the X-Shopify-Hmac-Sha256 header
// against the raw request body. The comparison is constant time.
func VerifyWebhookSignature(body []byte, secret, signature string) error {
	if secret == "" {
		return ErrWebhookSecretUnset
	}
	if signature == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// ComputeWebhookSignature returns the signature Shopify would send for
// a body. Used by tests and local tooling.
func ComputeWebhookSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
