package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	shopifyapp "github.com/stockhaus/backend/internal/application/shopify"
	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ShopifyIntegrationHandler handles store connection lifecycle endpoints
type ShopifyIntegrationHandler struct {
	BaseHandler
	integrationService *shopifyapp.IntegrationService
}

// NewShopifyIntegrationHandler creates a new ShopifyIntegrationHandler
func NewShopifyIntegrationHandler(integrationService *shopifyapp.IntegrationService) *ShopifyIntegrationHandler {
	return &ShopifyIntegrationHandler{
		integrationService: integrationService,
	}
}

// Connect godoc
// @Summary      Connect a Shopify store
// @Description  Registers a store with a manually supplied Admin API token
// @Tags         shopify
// @Accept       json
// @Produce      json
// @Param        request body shopifyapp.ConnectStoreRequest true "Store connection request"
// @Success      201 {object} dto.Response{data=shopifyapp.IntegrationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/connect [post]
func (h *ShopifyIntegrationHandler) Connect(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req shopifyapp.ConnectStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	integration, err := h.integrationService.ConnectStore(
		c.Request.Context(),
		tenantID,
		req.StoreURL, req.StoreName, req.AccessToken, req.WebhookSecret,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, shopifyapp.NewIntegrationResponse(integration))
}

// DisconnectStore godoc
// @Summary      Remove a store connection
// @Description  Deletes the integration identified by store_url
// @Tags         shopify
// @Produce      json
// @Param        store_url query string true "Store URL"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/connect [delete]
func (h *ShopifyIntegrationHandler) DisconnectStore(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	storeURL := c.Query("store_url")
	if storeURL == "" {
		h.BadRequest(c, "store_url is required")
		return
	}

	if err := h.integrationService.DeleteByStoreURL(c.Request.Context(), tenantID, storeURL); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// List godoc
// @Summary      List store integrations
// @Tags         shopify
// @Produce      json
// @Success      200 {object} dto.Response{data=[]shopifyapp.IntegrationResponse}
// @Security     BearerAuth
// @Router       /shopify/integrations [get]
func (h *ShopifyIntegrationHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	integrations, err := h.integrationService.List(c.Request.Context(), tenantID, shared.Filter{})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]shopifyapp.IntegrationResponse, len(integrations))
	for i := range integrations {
		responses[i] = shopifyapp.NewIntegrationResponse(&integrations[i])
	}
	h.Success(c, responses)
}

// GetByID godoc
// @Summary      Get one store integration
// @Tags         shopify
// @Produce      json
// @Param        id path string true "Integration ID"
// @Success      200 {object} dto.Response{data=shopifyapp.IntegrationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/integrations/{id} [get]
func (h *ShopifyIntegrationHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	integration, err := h.integrationService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shopifyapp.NewIntegrationResponse(integration))
}

// ConnectionStatus godoc
// @Summary      Get the connection health of a tenant's store
// @Description  Returns integration health, record counts and recent runs.
// @Description  When no store is connected, responds with connected=false.
// @Tags         shopify
// @Produce      json
// @Param        store_url query string false "Store URL, defaults to the tenant's only store"
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /shopify/status [get]
func (h *ShopifyIntegrationHandler) ConnectionStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	integration, err := h.resolveIntegration(c, tenantID, c.Query("store_url"))
	if err != nil {
		if errors.Is(err, shopify.ErrIntegrationNotFound) {
			h.Success(c, gin.H{"connected": false})
			return
		}
		h.HandleError(c, err)
		return
	}

	status, err := h.integrationService.Status(c.Request.Context(), tenantID, integration.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"connected": integration.Status == shopify.IntegrationStatusConnected,
		"status":    status,
	})
}

// Status godoc
// @Summary      Get the health of one integration
// @Tags         shopify
// @Produce      json
// @Param        id path string true "Integration ID"
// @Success      200 {object} dto.Response{data=shopifyapp.IntegrationStatusResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/integrations/{id}/status [get]
func (h *ShopifyIntegrationHandler) Status(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	status, err := h.integrationService.Status(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// UpdateSettings godoc
// @Summary      Update sync settings
// @Description  Changes sync frequency and entity toggles; omitted fields are untouched
// @Tags         shopify
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID"
// @Param        request body shopifyapp.UpdateSettingsRequest true "Settings to change"
// @Success      200 {object} dto.Response{data=shopifyapp.IntegrationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/integrations/{id}/settings [put]
func (h *ShopifyIntegrationHandler) UpdateSettings(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req shopifyapp.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	integration, err := h.integrationService.UpdateSettings(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shopifyapp.NewIntegrationResponse(integration))
}

// Pause godoc
// @Summary      Pause scheduled syncing
// @Tags         shopify
// @Produce      json
// @Param        id path string true "Integration ID"
// @Success      204
// @Security     BearerAuth
// @Router       /shopify/integrations/{id}/pause [post]
func (h *ShopifyIntegrationHandler) Pause(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}
	if err := h.integrationService.Pause(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Resume godoc
// @Summary      Resume a paused store
// @Tags         shopify
// @Produce      json
// @Param        id path string true "Integration ID"
// @Success      204
// @Security     BearerAuth
// @Router       /shopify/integrations/{id}/resume [post]
func (h *ShopifyIntegrationHandler) Resume(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}
	if err := h.integrationService.Resume(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Delete godoc
// @Summary      Delete an integration
// @Tags         shopify
// @Produce      json
// @Param        id path string true "Integration ID"
// @Success      204
// @Security     BearerAuth
// @Router       /shopify/integrations/{id} [delete]
func (h *ShopifyIntegrationHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}
	if err := h.integrationService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// TestConnection godoc
// @Summary      Verify stored credentials
// @Description  Calls the shop resource with the stored access token
// @Tags         shopify
// @Produce      json
// @Param        id path string true "Integration ID"
// @Success      200 {object} dto.Response
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/integrations/{id}/test [post]
func (h *ShopifyIntegrationHandler) TestConnection(c *gin.Context) {
	tenantID, id, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	shop, err := h.integrationService.TestConnection(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shop)
}

// tenantAndID extracts the tenant and the :id path parameter, replying
// with an error response when either is invalid
func (h *ShopifyIntegrationHandler) tenantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, id, true
}

// resolveIntegration finds an integration by store URL, falling back to
// the tenant's only store when none is given
func (h *ShopifyIntegrationHandler) resolveIntegration(c *gin.Context, tenantID uuid.UUID, storeURL string) (*shopify.Integration, error) {
	if storeURL != "" {
		return h.integrationService.GetByStoreURL(c.Request.Context(), tenantID, storeURL)
	}

	integrations, err := h.integrationService.List(c.Request.Context(), tenantID, shared.Filter{})
	if err != nil {
		return nil, err
	}
	if len(integrations) == 0 {
		return nil, shopify.ErrIntegrationNotFound
	}
	return &integrations[0], nil
}
