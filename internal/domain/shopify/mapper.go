package shopify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockhaus/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Payload Mapping
// ---------------------------------------------------------------------------
// Raw Admin API documents are translated into canonical records here.
// Mapping is pure: a malformed money or timestamp field degrades to nil
// rather than failing the record, but a document without its remote ID
// is rejected so the upsert key is always present.

// MapRecord translates one raw document for the given entity type
func MapRecord(tenantID, integrationID uuid.UUID, entity EntityType, raw json.RawMessage) (any, error) {
	switch entity {
	case EntityProducts:
		return MapProduct(tenantID, integrationID, raw)
	case EntityOrders:
		return MapOrder(tenantID, integrationID, raw)
	case EntityCustomers:
		return MapCustomer(tenantID, integrationID, raw)
	case EntityInventory:
		return MapInventoryLevel(tenantID, integrationID, raw)
	default:
		return nil, fmt.Errorf("shopify: no mapping for entity %q", entity)
	}
}

type productPayload struct {
	ID          json.Number     `json:"id"`
	Title       string          `json:"title"`
	Handle      string          `json:"handle"`
	Vendor      string          `json:"vendor"`
	ProductType string          `json:"product_type"`
	Status      string          `json:"status"`
	Tags        string          `json:"tags"`
	BodyHTML    string          `json:"body_html"`
	PublishedAt *string         `json:"published_at"`
	CreatedAt   *string         `json:"created_at"`
	UpdatedAt   *string         `json:"updated_at"`
	Options     json.RawMessage `json:"options"`
	Variants    json.RawMessage `json:"variants"`
	Images      json.RawMessage `json:"images"`
}

// MapProduct translates a product document
func MapProduct(tenantID, integrationID uuid.UUID, raw json.RawMessage) (*Product, error) {
	var p productPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: product: %v", ErrInvalidResponse, err)
	}
	if p.ID.String() == "" {
		return nil, fmt.Errorf("%w: product without id", ErrInvalidResponse)
	}

	var variants []variantPrice
	if len(p.Variants) > 0 {
		// A malformed variant list degrades to an empty one.
		_ = json.Unmarshal(p.Variants, &variants)
	}
	priceMin, priceMax := priceRange(variants)

	return &Product{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         tenantID,
		IntegrationID:    integrationID,
		ShopifyProductID: p.ID.String(),
		Title:            p.Title,
		Handle:           p.Handle,
		Vendor:           p.Vendor,
		ProductType:      p.ProductType,
		Status:           p.Status,
		Tags:             p.Tags,
		BodyHTML:         p.BodyHTML,
		PriceMin:         priceMin,
		PriceMax:         priceMax,
		VariantCount:     len(variants),
		Options:          jsonBlob(p.Options),
		Variants:         jsonBlob(p.Variants),
		Images:           jsonBlob(p.Images),
		PublishedAt:      safeTime(p.PublishedAt),
		ShopifyCreatedAt: safeTime(p.CreatedAt),
		ShopifyUpdatedAt: safeTime(p.UpdatedAt),
		RawPayload:       string(raw),
	}, nil
}

type variantPrice struct {
	Price string `json:"price"`
}

// priceRange spans the parseable variant prices; variants without a
// price are skipped
func priceRange(variants []variantPrice) (*decimal.Decimal, *decimal.Decimal) {
	var min, max *decimal.Decimal
	for _, v := range variants {
		price := safeDecimal(v.Price)
		if price == nil {
			continue
		}
		if min == nil || price.LessThan(*min) {
			min = price
		}
		if max == nil || price.GreaterThan(*max) {
			max = price
		}
	}
	return min, max
}

type orderPayload struct {
	ID                json.Number     `json:"id"`
	Name              string          `json:"name"`
	OrderNumber       json.Number     `json:"order_number"`
	Email             string          `json:"email"`
	Currency          string          `json:"currency"`
	TotalPrice        string          `json:"total_price"`
	SubtotalPrice     string          `json:"subtotal_price"`
	TotalTax          string          `json:"total_tax"`
	TotalDiscounts    string          `json:"total_discounts"`
	FinancialStatus   string          `json:"financial_status"`
	FulfillmentStatus *string         `json:"fulfillment_status"`
	Customer          json.RawMessage `json:"customer"`
	LineItems         json.RawMessage `json:"line_items"`
	ShippingAddress   json.RawMessage `json:"shipping_address"`
	BillingAddress    json.RawMessage `json:"billing_address"`
	ProcessedAt       *string         `json:"processed_at"`
	ClosedAt          *string         `json:"closed_at"`
	CancelledAt       *string         `json:"cancelled_at"`
	CreatedAt         *string         `json:"created_at"`
	UpdatedAt         *string         `json:"updated_at"`
}

// MapOrder translates an order document
func MapOrder(tenantID, integrationID uuid.UUID, raw json.RawMessage) (*Order, error) {
	var o orderPayload
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("%w: order: %v", ErrInvalidResponse, err)
	}
	if o.ID.String() == "" {
		return nil, fmt.Errorf("%w: order without id", ErrInvalidResponse)
	}

	var lineItems []json.RawMessage
	if len(o.LineItems) > 0 {
		_ = json.Unmarshal(o.LineItems, &lineItems)
	}

	order := &Order{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         tenantID,
		IntegrationID:    integrationID,
		ShopifyOrderID:   o.ID.String(),
		Name:             o.Name,
		OrderNumber:      o.OrderNumber.String(),
		Email:            o.Email,
		Currency:         o.Currency,
		TotalPrice:       safeDecimal(o.TotalPrice),
		SubtotalPrice:    safeDecimal(o.SubtotalPrice),
		TotalTax:         safeDecimal(o.TotalTax),
		TotalDiscount:    safeDecimal(o.TotalDiscounts),
		FinancialStatus:  o.FinancialStatus,
		LineItemCount:    len(lineItems),
		Customer:         jsonBlob(o.Customer),
		LineItems:        jsonBlob(o.LineItems),
		ShippingAddress:  jsonBlob(o.ShippingAddress),
		BillingAddress:   jsonBlob(o.BillingAddress),
		ProcessedAt:      safeTime(o.ProcessedAt),
		ClosedAt:         safeTime(o.ClosedAt),
		CancelledAt:      safeTime(o.CancelledAt),
		ShopifyCreatedAt: safeTime(o.CreatedAt),
		ShopifyUpdatedAt: safeTime(o.UpdatedAt),
		RawPayload:       string(raw),
	}
	if o.FulfillmentStatus != nil {
		order.FulfillmentStatus = *o.FulfillmentStatus
	}
	if len(o.Customer) > 0 {
		var customer struct {
			ID json.Number `json:"id"`
		}
		_ = json.Unmarshal(o.Customer, &customer)
		order.ShopifyCustomerID = customer.ID.String()
	}
	return order, nil
}

type customerPayload struct {
	ID             json.Number     `json:"id"`
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Phone          string          `json:"phone"`
	State          string          `json:"state"`
	Tags           string          `json:"tags"`
	OrdersCount    int             `json:"orders_count"`
	TotalSpent     string          `json:"total_spent"`
	VerifiedEmail  bool            `json:"verified_email"`
	LastOrderID    json.Number     `json:"last_order_id"`
	LastOrderName  string          `json:"last_order_name"`
	Addresses      json.RawMessage `json:"addresses"`
	DefaultAddress json.RawMessage `json:"default_address"`
	CreatedAt      *string         `json:"created_at"`
	UpdatedAt      *string         `json:"updated_at"`
}

// MapCustomer translates a customer document
func MapCustomer(tenantID, integrationID uuid.UUID, raw json.RawMessage) (*Customer, error) {
	var c customerPayload
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: customer: %v", ErrInvalidResponse, err)
	}
	if c.ID.String() == "" {
		return nil, fmt.Errorf("%w: customer without id", ErrInvalidResponse)
	}

	return &Customer{
		BaseEntity:        shared.NewBaseEntity(),
		TenantID:          tenantID,
		IntegrationID:     integrationID,
		ShopifyCustomerID: c.ID.String(),
		Email:             c.Email,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Phone:             c.Phone,
		State:             c.State,
		Tags:              c.Tags,
		OrdersCount:       c.OrdersCount,
		TotalSpent:        safeDecimal(c.TotalSpent),
		VerifiedEmail:     c.VerifiedEmail,
		LastOrderID:       c.LastOrderID.String(),
		LastOrderName:     c.LastOrderName,
		Addresses:         jsonBlob(c.Addresses),
		DefaultAddress:    jsonBlob(c.DefaultAddress),
		ShopifyCreatedAt:  safeTime(c.CreatedAt),
		ShopifyUpdatedAt:  safeTime(c.UpdatedAt),
		RawPayload:        string(raw),
	}, nil
}

type inventoryLevelPayload struct {
	InventoryItemID json.Number `json:"inventory_item_id"`
	LocationID      json.Number `json:"location_id"`
	SKU             string      `json:"sku"`
	Available       *int        `json:"available"`
	Committed       *int        `json:"committed"`
	Incoming        *int        `json:"incoming"`
	UpdatedAt       *string     `json:"updated_at"`
}

// MapInventoryLevel translates an inventory level document
func MapInventoryLevel(tenantID, integrationID uuid.UUID, raw json.RawMessage) (*InventoryLevel, error) {
	var l inventoryLevelPayload
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("%w: inventory level: %v", ErrInvalidResponse, err)
	}
	if l.InventoryItemID.String() == "" || l.LocationID.String() == "" {
		return nil, fmt.Errorf("%w: inventory level without item or location id", ErrInvalidResponse)
	}

	level := &InventoryLevel{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         tenantID,
		IntegrationID:    integrationID,
		InventoryItemID:  l.InventoryItemID.String(),
		LocationID:       l.LocationID.String(),
		SKU:              l.SKU,
		ShopifyUpdatedAt: safeTime(l.UpdatedAt),
		RawPayload:       string(raw),
	}
	if l.Available != nil {
		level.Available = *l.Available
	}
	if l.Committed != nil {
		level.Committed = *l.Committed
	}
	if l.Incoming != nil {
		level.Incoming = *l.Incoming
	}
	return level, nil
}

// safeDecimal parses a money string, returning nil when absent or
// malformed
func safeDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// safeTime parses an RFC 3339 timestamp, returning nil when absent or
// malformed
func safeTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

// jsonBlob returns the raw JSON as a string, empty for absent or null
// values
func jsonBlob(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return string(raw)
}
