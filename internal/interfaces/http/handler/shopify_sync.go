package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	shopifyapp "github.com/stockhaus/backend/internal/application/shopify"
	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
	"github.com/stockhaus/backend/internal/interfaces/http/dto"
)

// ShopifySyncHandler handles sync trigger, sync log and record endpoints
type ShopifySyncHandler struct {
	BaseHandler
	syncService        *shopifyapp.SyncService
	integrationService *shopifyapp.IntegrationService
}

// NewShopifySyncHandler creates a new ShopifySyncHandler
func NewShopifySyncHandler(
	syncService *shopifyapp.SyncService,
	integrationService *shopifyapp.IntegrationService,
) *ShopifySyncHandler {
	return &ShopifySyncHandler{
		syncService:        syncService,
		integrationService: integrationService,
	}
}

// TriggerSyncRequest starts a manual sync run
// @Description Request body for triggering a sync run
type TriggerSyncRequest struct {
	Entity        string  `json:"entity" binding:"required,oneof=products orders customers inventory full"`
	IntegrationID *string `json:"integration_id" binding:"omitempty,uuid"`
	StoreURL      *string `json:"store_url"`

	// Limit caps the per-page record count; UpdatedAfter narrows the
	// fetch window instead of the incremental cursor.
	Limit        *int       `json:"limit" binding:"omitempty,min=1,max=250"`
	UpdatedAfter *time.Time `json:"updated_after"`
}

// TriggerSync godoc
// @Summary      Run a sync now
// @Description  Runs the requested entity sync synchronously and returns the
// @Description  completed sync log. Partial and failed runs still return the
// @Description  log; its status field carries the outcome.
// @Tags         shopify
// @Accept       json
// @Produce      json
// @Param        request body TriggerSyncRequest true "Sync trigger request"
// @Success      200 {object} dto.Response{data=shopifyapp.SyncLogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/sync [post]
func (h *ShopifySyncHandler) TriggerSync(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entity := shopify.EntityType(req.Entity)
	integrationID, err := h.resolveIntegrationID(c, tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	opts := shopify.FetchOptions{}
	if req.Limit != nil {
		opts.Limit = *req.Limit
	}
	if req.UpdatedAfter != nil {
		opts.UpdatedAfter = *req.UpdatedAfter
	}

	log, err := h.syncService.SyncEntity(c.Request.Context(), tenantID, integrationID, entity, shopify.SyncTriggerManual, opts)
	if log == nil {
		// The run never started; the error says why.
		h.HandleError(c, err)
		return
	}

	h.Success(c, shopifyapp.NewSyncLogResponse(log))
}

// ListSyncLogs godoc
// @Summary      List recent sync runs
// @Tags         shopify
// @Produce      json
// @Param        integration_id query string false "Filter by integration"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]shopifyapp.SyncLogResponse}
// @Security     BearerAuth
// @Router       /shopify/sync-logs [get]
func (h *ShopifySyncHandler) ListSyncLogs(c *gin.Context) {
	tenantID, filter, ok := h.tenantAndFilter(c)
	if !ok {
		return
	}

	integrationID := uuid.Nil
	if raw := c.Query("integration_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid integration ID format")
			return
		}
		integrationID = id
	}

	page, err := h.syncService.ListSyncLogs(c.Request.Context(), tenantID, integrationID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]shopifyapp.SyncLogResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = shopifyapp.NewSyncLogResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// GetSyncLog godoc
// @Summary      Get one sync run
// @Tags         shopify
// @Produce      json
// @Param        id path string true "Sync log ID"
// @Success      200 {object} dto.Response{data=shopifyapp.SyncLogResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shopify/sync-logs/{id} [get]
func (h *ShopifySyncHandler) GetSyncLog(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sync log ID format")
		return
	}

	log, err := h.syncService.GetSyncLog(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shopifyapp.NewSyncLogResponse(log))
}

// ListProducts godoc
// @Summary      List synced products
// @Tags         shopify
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]shopifyapp.ProductResponse}
// @Security     BearerAuth
// @Router       /shopify/products [get]
func (h *ShopifySyncHandler) ListProducts(c *gin.Context) {
	tenantID, filter, ok := h.tenantAndFilter(c)
	if !ok {
		return
	}

	page, err := h.syncService.ListProducts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]shopifyapp.ProductResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = shopifyapp.NewProductResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// ListOrders godoc
// @Summary      List synced orders
// @Tags         shopify
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]shopifyapp.OrderResponse}
// @Security     BearerAuth
// @Router       /shopify/orders [get]
func (h *ShopifySyncHandler) ListOrders(c *gin.Context) {
	tenantID, filter, ok := h.tenantAndFilter(c)
	if !ok {
		return
	}

	page, err := h.syncService.ListOrders(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]shopifyapp.OrderResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = shopifyapp.NewOrderResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// ListCustomers godoc
// @Summary      List synced customers
// @Tags         shopify
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]shopifyapp.CustomerResponse}
// @Security     BearerAuth
// @Router       /shopify/customers [get]
func (h *ShopifySyncHandler) ListCustomers(c *gin.Context) {
	tenantID, filter, ok := h.tenantAndFilter(c)
	if !ok {
		return
	}

	page, err := h.syncService.ListCustomers(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]shopifyapp.CustomerResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = shopifyapp.NewCustomerResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// ListInventory godoc
// @Summary      List synced inventory levels
// @Tags         shopify
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]shopifyapp.InventoryLevelResponse}
// @Security     BearerAuth
// @Router       /shopify/inventory [get]
func (h *ShopifySyncHandler) ListInventory(c *gin.Context) {
	tenantID, filter, ok := h.tenantAndFilter(c)
	if !ok {
		return
	}

	page, err := h.syncService.ListInventoryLevels(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]shopifyapp.InventoryLevelResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = shopifyapp.NewInventoryLevelResponse(&page.Items[i])
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// tenantAndFilter extracts the tenant and pagination parameters
func (h *ShopifySyncHandler) tenantAndFilter(c *gin.Context) (uuid.UUID, shared.Filter, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, shared.Filter{}, false
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return uuid.Nil, shared.Filter{}, false
	}

	return tenantID, shared.Filter{Page: listReq.Page, PageSize: listReq.PageSize}, true
}

// resolveIntegrationID picks the integration a sync request targets:
// explicit ID, then store URL, then the tenant's only store
func (h *ShopifySyncHandler) resolveIntegrationID(c *gin.Context, tenantID uuid.UUID, req TriggerSyncRequest) (uuid.UUID, error) {
	if req.IntegrationID != nil {
		return uuid.Parse(*req.IntegrationID)
	}
	if req.StoreURL != nil && *req.StoreURL != "" {
		integration, err := h.integrationService.GetByStoreURL(c.Request.Context(), tenantID, *req.StoreURL)
		if err != nil {
			return uuid.Nil, err
		}
		return integration.ID, nil
	}

	integrations, err := h.integrationService.List(c.Request.Context(), tenantID, shared.Filter{})
	if err != nil {
		return uuid.Nil, err
	}
	if len(integrations) != 1 {
		return uuid.Nil, shopify.ErrIntegrationNotFound
	}
	return integrations[0].ID, nil
}
