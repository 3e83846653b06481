package shopify

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// ConnectStoreRequest registers a store with a manually supplied token
type ConnectStoreRequest struct {
	StoreURL      string `json:"store_url" binding:"required"`
	StoreName     string `json:"store_name"`
	AccessToken   string `json:"access_token" binding:"required"`
	WebhookSecret string `json:"webhook_secret"`
}

// UpdateSettingsRequest changes sync frequency and entity toggles.
// Nil fields are left untouched.
type UpdateSettingsRequest struct {
	SyncFrequencyMinutes *int  `json:"sync_frequency_minutes"`
	AutoSyncEnabled      *bool `json:"auto_sync_enabled"`
	SyncProducts         *bool `json:"sync_products"`
	SyncOrders           *bool `json:"sync_orders"`
	SyncCustomers        *bool `json:"sync_customers"`
	SyncInventory        *bool `json:"sync_inventory"`
}

// BeginOAuthRequest starts the authorization code flow for a store
type BeginOAuthRequest struct {
	StoreURL string `json:"store_url" binding:"required"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// IntegrationResponse represents an integration in API responses.
// Credentials never leave the backend.
type IntegrationResponse struct {
	ID                   uuid.UUID  `json:"id"`
	StoreURL             string     `json:"store_url"`
	StoreName            string     `json:"store_name"`
	APIVersion           string     `json:"api_version"`
	Status               string     `json:"status"`
	LastError            string     `json:"last_error,omitempty"`
	LastErrorAt          *time.Time `json:"last_error_at,omitempty"`
	ErrorCount           int        `json:"error_count"`
	AutoSyncEnabled      bool       `json:"auto_sync_enabled"`
	SyncProducts         bool       `json:"sync_products"`
	SyncOrders           bool       `json:"sync_orders"`
	SyncCustomers        bool       `json:"sync_customers"`
	SyncInventory        bool       `json:"sync_inventory"`
	SyncFrequencyMinutes int        `json:"sync_frequency_minutes"`
	LastSyncAt           *time.Time `json:"last_sync_at,omitempty"`
	LastSuccessfulSyncAt *time.Time `json:"last_successful_sync_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewIntegrationResponse converts an integration to its API shape
func NewIntegrationResponse(i *shopify.Integration) IntegrationResponse {
	return IntegrationResponse{
		ID:                   i.ID,
		StoreURL:             i.StoreURL,
		StoreName:            i.StoreName,
		APIVersion:           i.APIVersion,
		Status:               string(i.Status),
		LastError:            i.LastError,
		LastErrorAt:          i.LastErrorAt,
		ErrorCount:           i.ErrorCount,
		AutoSyncEnabled:      i.AutoSyncEnabled,
		SyncProducts:         i.SyncProducts,
		SyncOrders:           i.SyncOrders,
		SyncCustomers:        i.SyncCustomers,
		SyncInventory:        i.SyncInventory,
		SyncFrequencyMinutes: i.SyncFrequencyMinutes,
		LastSyncAt:           i.LastSyncAt,
		LastSuccessfulSyncAt: i.LastSuccessfulSyncAt,
		CreatedAt:            i.CreatedAt,
		UpdatedAt:            i.UpdatedAt,
	}
}

// SyncLogResponse represents a sync run in API responses
type SyncLogResponse struct {
	ID               uuid.UUID  `json:"id"`
	IntegrationID    uuid.UUID  `json:"integration_id"`
	EntityType       string     `json:"entity_type"`
	Status           string     `json:"status"`
	Trigger          string     `json:"trigger"`
	RecordsFetched   int        `json:"records_fetched"`
	RecordsProcessed int        `json:"records_processed"`
	RecordsCreated   int        `json:"records_created"`
	RecordsUpdated   int        `json:"records_updated"`
	RecordsFailed    int        `json:"records_failed"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	Details          string     `json:"details,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	DurationMs       int64      `json:"duration_ms"`
}

// NewSyncLogResponse converts a sync log to its API shape
func NewSyncLogResponse(l *shopify.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		ID:               l.ID,
		IntegrationID:    l.IntegrationID,
		EntityType:       string(l.EntityType),
		Status:           string(l.Status),
		Trigger:          string(l.Trigger),
		RecordsFetched:   l.RecordsFetched,
		RecordsProcessed: l.RecordsProcessed,
		RecordsCreated:   l.RecordsCreated,
		RecordsUpdated:   l.RecordsUpdated,
		RecordsFailed:    l.RecordsFailed,
		ErrorMessage:     l.ErrorMessage,
		Details:          l.Details,
		StartedAt:        l.StartedAt,
		CompletedAt:      l.CompletedAt,
		DurationMs:       l.Duration().Milliseconds(),
	}
}

// IntegrationStatusResponse is the health view of one store: the
// integration, its per-entity record counts and the most recent runs
type IntegrationStatusResponse struct {
	Integration  IntegrationResponse `json:"integration"`
	RecordCounts map[string]int64    `json:"record_counts"`
	RecentRuns   []SyncLogResponse   `json:"recent_runs"`
}

// NewIntegrationStatusResponse assembles the status view
func NewIntegrationStatusResponse(
	i *shopify.Integration,
	counts map[shopify.EntityType]int64,
	recent []shopify.SyncLog,
) *IntegrationStatusResponse {
	recordCounts := make(map[string]int64, len(counts))
	for entity, n := range counts {
		recordCounts[string(entity)] = n
	}

	runs := make([]SyncLogResponse, len(recent))
	for idx := range recent {
		runs[idx] = NewSyncLogResponse(&recent[idx])
	}

	return &IntegrationStatusResponse{
		Integration:  NewIntegrationResponse(i),
		RecordCounts: recordCounts,
		RecentRuns:   runs,
	}
}

// ---------------------------------------------------------------------------
// Record DTOs
// ---------------------------------------------------------------------------

// ProductResponse represents a synced product in API responses
type ProductResponse struct {
	ID               uuid.UUID        `json:"id"`
	IntegrationID    uuid.UUID        `json:"integration_id"`
	ShopifyProductID string           `json:"shopify_product_id"`
	Title            string           `json:"title"`
	Handle           string           `json:"handle"`
	Vendor           string           `json:"vendor"`
	ProductType      string           `json:"product_type"`
	Status           string           `json:"status"`
	Tags             string           `json:"tags"`
	PriceMin         *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax         *decimal.Decimal `json:"price_max,omitempty"`
	VariantCount     int              `json:"variant_count"`
	PublishedAt      *time.Time       `json:"published_at,omitempty"`
	ShopifyUpdatedAt *time.Time       `json:"shopify_updated_at,omitempty"`
}

// NewProductResponse converts a product record to its API shape
func NewProductResponse(p *shopify.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		IntegrationID:    p.IntegrationID,
		ShopifyProductID: p.ShopifyProductID,
		Title:            p.Title,
		Handle:           p.Handle,
		Vendor:           p.Vendor,
		ProductType:      p.ProductType,
		Status:           p.Status,
		Tags:             p.Tags,
		PriceMin:         p.PriceMin,
		PriceMax:         p.PriceMax,
		VariantCount:     p.VariantCount,
		PublishedAt:      p.PublishedAt,
		ShopifyUpdatedAt: p.ShopifyUpdatedAt,
	}
}

// OrderResponse represents a synced order in API responses
type OrderResponse struct {
	ID                uuid.UUID        `json:"id"`
	IntegrationID     uuid.UUID        `json:"integration_id"`
	ShopifyOrderID    string           `json:"shopify_order_id"`
	OrderNumber       string           `json:"order_number"`
	Name              string           `json:"name,omitempty"`
	Email             string           `json:"email"`
	Currency          string           `json:"currency"`
	TotalPrice        *decimal.Decimal `json:"total_price,omitempty"`
	SubtotalPrice     *decimal.Decimal `json:"subtotal_price,omitempty"`
	TotalTax          *decimal.Decimal `json:"total_tax,omitempty"`
	TotalDiscount     *decimal.Decimal `json:"total_discount,omitempty"`
	FinancialStatus   string           `json:"financial_status"`
	FulfillmentStatus string           `json:"fulfillment_status,omitempty"`
	ShopifyCustomerID string           `json:"shopify_customer_id,omitempty"`
	LineItemCount     int              `json:"line_item_count"`
	ProcessedAt       *time.Time       `json:"processed_at,omitempty"`
	ClosedAt          *time.Time       `json:"closed_at,omitempty"`
	CancelledAt       *time.Time       `json:"cancelled_at,omitempty"`
	ShopifyCreatedAt  *time.Time       `json:"shopify_created_at,omitempty"`
}

// NewOrderResponse converts an order record to its API shape
func NewOrderResponse(o *shopify.Order) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		IntegrationID:     o.IntegrationID,
		ShopifyOrderID:    o.ShopifyOrderID,
		OrderNumber:       o.OrderNumber,
		Name:              o.Name,
		Email:             o.Email,
		Currency:          o.Currency,
		TotalPrice:        o.TotalPrice,
		SubtotalPrice:     o.SubtotalPrice,
		TotalTax:          o.TotalTax,
		TotalDiscount:     o.TotalDiscount,
		FinancialStatus:   o.FinancialStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		ShopifyCustomerID: o.ShopifyCustomerID,
		LineItemCount:     o.LineItemCount,
		ProcessedAt:       o.ProcessedAt,
		ClosedAt:          o.ClosedAt,
		CancelledAt:       o.CancelledAt,
		ShopifyCreatedAt:  o.ShopifyCreatedAt,
	}
}

// CustomerResponse represents a synced customer in API responses
type CustomerResponse struct {
	ID                uuid.UUID        `json:"id"`
	IntegrationID     uuid.UUID        `json:"integration_id"`
	ShopifyCustomerID string           `json:"shopify_customer_id"`
	Email             string           `json:"email"`
	FullName          string           `json:"full_name"`
	Phone             string           `json:"phone,omitempty"`
	State             string           `json:"state"`
	Tags              string           `json:"tags,omitempty"`
	OrdersCount       int              `json:"orders_count"`
	TotalSpent        *decimal.Decimal `json:"total_spent,omitempty"`
	VerifiedEmail     bool             `json:"verified_email"`
	LastOrderID       string           `json:"last_order_id,omitempty"`
	LastOrderName     string           `json:"last_order_name,omitempty"`
}

// NewCustomerResponse converts a customer record to its API shape
func NewCustomerResponse(c *shopify.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                c.ID,
		IntegrationID:     c.IntegrationID,
		ShopifyCustomerID: c.ShopifyCustomerID,
		Email:             c.Email,
		FullName:          c.FullName(),
		Phone:             c.Phone,
		State:             c.State,
		Tags:              c.Tags,
		OrdersCount:       c.OrdersCount,
		TotalSpent:        c.TotalSpent,
		VerifiedEmail:     c.VerifiedEmail,
		LastOrderID:       c.LastOrderID,
		LastOrderName:     c.LastOrderName,
	}
}

// InventoryLevelResponse represents a synced inventory level in API responses
type InventoryLevelResponse struct {
	ID               uuid.UUID  `json:"id"`
	IntegrationID    uuid.UUID  `json:"integration_id"`
	InventoryItemID  string     `json:"inventory_item_id"`
	LocationID       string     `json:"location_id"`
	SKU              string     `json:"sku,omitempty"`
	Available        int        `json:"available"`
	Committed        int        `json:"committed"`
	Incoming         int        `json:"incoming"`
	ShopifyUpdatedAt *time.Time `json:"shopify_updated_at,omitempty"`
}

// NewInventoryLevelResponse converts an inventory level record to its API shape
func NewInventoryLevelResponse(l *shopify.InventoryLevel) InventoryLevelResponse {
	return InventoryLevelResponse{
		ID:               l.ID,
		IntegrationID:    l.IntegrationID,
		InventoryItemID:  l.InventoryItemID,
		LocationID:       l.LocationID,
		SKU:              l.SKU,
		Available:        l.Available,
		Committed:        l.Committed,
		Incoming:         l.Incoming,
		ShopifyUpdatedAt: l.ShopifyUpdatedAt,
	}
}
