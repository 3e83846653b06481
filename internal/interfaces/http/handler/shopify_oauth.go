package handler

import (
	"github.com/gin-gonic/gin"

	shopifyapp "github.com/stockhaus/backend/internal/application/shopify"
)

// ShopifyOAuthHandler handles the OAuth authorization code flow
type ShopifyOAuthHandler struct {
	BaseHandler
	integrationService *shopifyapp.IntegrationService
}

// NewShopifyOAuthHandler creates a new ShopifyOAuthHandler
func NewShopifyOAuthHandler(integrationService *shopifyapp.IntegrationService) *ShopifyOAuthHandler {
	return &ShopifyOAuthHandler{
		integrationService: integrationService,
	}
}

// Initiate godoc
// @Summary      Start the OAuth flow for a store
// @Description  Stores a single-use state nonce and returns the Shopify
// @Description  consent URL to redirect the operator to
// @Tags         shopify
// @Accept       json
// @Produce      json
// @Param        request body shopifyapp.BeginOAuthRequest true "Store to authorize"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/oauth/initiate [post]
func (h *ShopifyOAuthHandler) Initiate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req shopifyapp.BeginOAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	authorizeURL, err := h.integrationService.BeginOAuth(c.Request.Context(), tenantID, req.StoreURL)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"authorize_url": authorizeURL})
}

// Callback godoc
// @Summary      Complete the OAuth flow
// @Description  Redeems the callback's state and authorization code for a
// @Description  permanent token and connects the store. A replayed or
// @Description  mismatched state is rejected.
// @Tags         shopify
// @Produce      json
// @Param        state query string true "State nonce issued by initiate"
// @Param        shop query string true "Shop domain"
// @Param        code query string true "Authorization code"
// @Success      200 {object} dto.Response{data=shopifyapp.IntegrationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /shopify/oauth/callback [get]
func (h *ShopifyOAuthHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	shop := c.Query("shop")
	code := c.Query("code")
	if state == "" || shop == "" || code == "" {
		h.BadRequest(c, "state, shop and code are required")
		return
	}

	integration, err := h.integrationService.CompleteOAuth(c.Request.Context(), state, shop, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shopifyapp.NewIntegrationResponse(integration))
}
