package shopify

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockhaus/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Canonical Records
// ---------------------------------------------------------------------------
// Each record mirrors one remote Shopify resource inside the tenant's
// database. Records are keyed by (integration, remote ID) and written
// through idempotent upserts; a record never carries business state of
// its own beyond what the remote resource reported. Nested resource
// collections (variants, addresses, line items) are kept as JSON text
// blobs next to the flattened columns.

// Product mirrors a Shopify product and its variants
type Product struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	IntegrationID uuid.UUID

	// ShopifyProductID is the remote numeric ID, stored as a string
	ShopifyProductID string

	Title       string
	Handle      string
	Vendor      string
	ProductType string
	Status      string
	Tags        string
	BodyHTML    string

	// PriceMin and PriceMax span the prices of all variants that
	// carried a parseable price; nil when no variant did
	PriceMin     *decimal.Decimal
	PriceMax     *decimal.Decimal
	VariantCount int

	// Options, Variants and Images hold the nested collections as JSON
	Options  string
	Variants string
	Images   string

	PublishedAt      *time.Time
	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	// SyncedAt is stamped by the record store on every upsert
	SyncedAt time.Time

	// RawPayload preserves the source document as JSON
	RawPayload string
}

// Order mirrors a Shopify order
type Order struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	IntegrationID uuid.UUID

	// ShopifyOrderID is the remote numeric ID, stored as a string
	ShopifyOrderID string

	// Name is the display handle, e.g. "#1001"
	Name        string
	OrderNumber string
	Email       string
	Currency    string

	TotalPrice    *decimal.Decimal
	SubtotalPrice *decimal.Decimal
	TotalTax      *decimal.Decimal
	TotalDiscount *decimal.Decimal

	FinancialStatus   string
	FulfillmentStatus string

	// ShopifyCustomerID links the order to its customer record, empty
	// for guest checkouts
	ShopifyCustomerID string
	LineItemCount     int

	// Customer, LineItems, ShippingAddress and BillingAddress hold the
	// nested resources as JSON
	Customer        string
	LineItems       string
	ShippingAddress string
	BillingAddress  string

	ProcessedAt      *time.Time
	ClosedAt         *time.Time
	CancelledAt      *time.Time
	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	SyncedAt time.Time

	RawPayload string
}

// Customer mirrors a Shopify customer profile
type Customer struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	IntegrationID uuid.UUID

	// ShopifyCustomerID is the remote numeric ID, stored as a string
	ShopifyCustomerID string

	Email     string
	FirstName string
	LastName  string
	Phone     string
	State     string
	Tags      string

	OrdersCount   int
	TotalSpent    *decimal.Decimal
	VerifiedEmail bool

	LastOrderID   string
	LastOrderName string

	// Addresses and DefaultAddress hold the nested resources as JSON
	Addresses      string
	DefaultAddress string

	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	SyncedAt time.Time

	RawPayload string
}

// InventoryLevel mirrors the available quantity of one inventory item
// at one location
type InventoryLevel struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	IntegrationID uuid.UUID

	// InventoryItemID and LocationID form the remote natural key
	InventoryItemID string
	LocationID      string

	SKU       string
	Available int
	Committed int
	Incoming  int

	ShopifyUpdatedAt *time.Time

	SyncedAt time.Time

	RawPayload string
}

// FullName returns the customer's display name
func (c *Customer) FullName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.LastName
	}
}
