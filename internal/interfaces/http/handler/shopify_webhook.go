package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	shopifyapp "github.com/stockhaus/backend/internal/application/shopify"
	"github.com/stockhaus/backend/internal/domain/shopify"
)

// Shopify webhook request headers
const (
	HeaderShopifyTopic      = "X-Shopify-Topic"
	HeaderShopifyDomain     = "X-Shopify-Shop-Domain"
	HeaderShopifyHmacSHA256 = "X-Shopify-Hmac-Sha256"
)

// ShopifyWebhookHandler receives inbound webhook deliveries from Shopify.
// The endpoint is unauthenticated; the HMAC signature is the proof of
// origin.
type ShopifyWebhookHandler struct {
	BaseHandler
	webhookService *shopifyapp.WebhookService
}

// NewShopifyWebhookHandler creates a new ShopifyWebhookHandler
func NewShopifyWebhookHandler(webhookService *shopifyapp.WebhookService) *ShopifyWebhookHandler {
	return &ShopifyWebhookHandler{
		webhookService: webhookService,
	}
}

// Receive godoc
// @Summary      Receive a Shopify webhook
// @Description  Verifies the delivery's HMAC signature and applies the
// @Description  payload as a single-record upsert. Unsupported topics are
// @Description  acknowledged and dropped.
// @Tags         shopify
// @Accept       json
// @Param        X-Shopify-Topic header string true "Webhook topic"
// @Param        X-Shopify-Shop-Domain header string true "Shop domain"
// @Param        X-Shopify-Hmac-Sha256 header string true "Payload signature"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shopify/webhook [post]
func (h *ShopifyWebhookHandler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	err = h.webhookService.HandleDelivery(
		c.Request.Context(),
		c.GetHeader(HeaderShopifyDomain),
		c.GetHeader(HeaderShopifyTopic),
		c.GetHeader(HeaderShopifyHmacSHA256),
		body,
	)
	if err != nil {
		switch {
		case errors.Is(err, shopify.ErrMissingShopDomain):
			h.BadRequest(c, err.Error())
		case errors.Is(err, shopify.ErrIntegrationNotFound):
			h.NotFound(c, "No integration for shop domain")
		case errors.Is(err, shopify.ErrInvalidSignature),
			errors.Is(err, shopify.ErrMissingSignature),
			errors.Is(err, shopify.ErrWebhookSecretUnset):
			h.BadRequest(c, err.Error())
		case errors.Is(err, shopify.ErrInvalidResponse):
			h.BadRequest(c, "Malformed webhook payload")
		default:
			h.InternalError(c, "Failed to process webhook")
		}
		return
	}

	h.NoContent(c)
}
