package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ---------------------------------------------------------------------------
// Integration
// ---------------------------------------------------------------------------

// IntegrationModel is the persistence model for store integrations
type IntegrationModel struct {
	BaseModel
	TenantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shopify_integrations_tenant_store,priority:1"`
	StoreURL      string    `gorm:"size:255;not null;uniqueIndex:idx_shopify_integrations_tenant_store,priority:2;index"`
	StoreName     string    `gorm:"size:255"`
	AccessToken   string    `gorm:"size:512"`
	APIVersion    string    `gorm:"size:32;not null"`
	WebhookSecret string    `gorm:"size:512"`

	Status      string `gorm:"size:32;not null;index"`
	LastError   string `gorm:"type:text"`
	LastErrorAt *time.Time
	ErrorCount  int `gorm:"not null;default:0"`

	AutoSyncEnabled bool `gorm:"not null;default:true"`

	SyncProducts  bool `gorm:"not null;default:true"`
	SyncOrders    bool `gorm:"not null;default:true"`
	SyncCustomers bool `gorm:"not null;default:true"`
	SyncInventory bool `gorm:"not null;default:true"`

	SyncFrequencyMinutes int `gorm:"not null;default:15"`

	LastSyncAt           *time.Time
	LastSuccessfulSyncAt *time.Time
}

// TableName specifies the table name
func (IntegrationModel) TableName() string {
	return "shopify_integrations"
}

// ToDomain converts the model to a domain integration
func (m *IntegrationModel) ToDomain() *shopify.Integration {
	return &shopify.Integration{
		BaseEntity:           m.BaseModel.ToDomain(),
		TenantID:             m.TenantID,
		StoreURL:             m.StoreURL,
		StoreName:            m.StoreName,
		AccessToken:          m.AccessToken,
		APIVersion:           m.APIVersion,
		WebhookSecret:        m.WebhookSecret,
		Status:               shopify.IntegrationStatus(m.Status),
		LastError:            m.LastError,
		LastErrorAt:          m.LastErrorAt,
		ErrorCount:           m.ErrorCount,
		AutoSyncEnabled:      m.AutoSyncEnabled,
		SyncProducts:         m.SyncProducts,
		SyncOrders:           m.SyncOrders,
		SyncCustomers:        m.SyncCustomers,
		SyncInventory:        m.SyncInventory,
		SyncFrequencyMinutes: m.SyncFrequencyMinutes,
		LastSyncAt:           m.LastSyncAt,
		LastSuccessfulSyncAt: m.LastSuccessfulSyncAt,
	}
}

// FromDomain populates the model from a domain integration
func (m *IntegrationModel) FromDomain(i *shopify.Integration) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.TenantID = i.TenantID
	m.StoreURL = i.StoreURL
	m.StoreName = i.StoreName
	m.AccessToken = i.AccessToken
	m.APIVersion = i.APIVersion
	m.WebhookSecret = i.WebhookSecret
	m.Status = i.Status.String()
	m.LastError = i.LastError
	m.LastErrorAt = i.LastErrorAt
	m.ErrorCount = i.ErrorCount
	m.AutoSyncEnabled = i.AutoSyncEnabled
	m.SyncProducts = i.SyncProducts
	m.SyncOrders = i.SyncOrders
	m.SyncCustomers = i.SyncCustomers
	m.SyncInventory = i.SyncInventory
	m.SyncFrequencyMinutes = i.SyncFrequencyMinutes
	m.LastSyncAt = i.LastSyncAt
	m.LastSuccessfulSyncAt = i.LastSuccessfulSyncAt
}

// ---------------------------------------------------------------------------
// Sync Log
// ---------------------------------------------------------------------------

// SyncLogModel is the persistence model for sync run audit records
type SyncLogModel struct {
	TenantModel
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;index"`

	EntityType string `gorm:"size:32;not null;index"`
	Status     string `gorm:"size:32;not null;index"`
	Trigger    string `gorm:"size:32;not null"`

	RecordsFetched   int `gorm:"not null;default:0"`
	RecordsProcessed int `gorm:"not null;default:0"`
	RecordsCreated   int `gorm:"not null;default:0"`
	RecordsUpdated   int `gorm:"not null;default:0"`
	RecordsFailed    int `gorm:"not null;default:0"`

	ErrorMessage string `gorm:"type:text"`
	Details      string `gorm:"type:text"`

	StartedAt   time.Time `gorm:"not null;index"`
	CompletedAt *time.Time
}

// TableName specifies the table name
func (SyncLogModel) TableName() string {
	return "shopify_sync_logs"
}

// ToDomain converts the model to a domain sync log
func (m *SyncLogModel) ToDomain() *shopify.SyncLog {
	return &shopify.SyncLog{
		BaseEntity:       m.BaseModel.ToDomain(),
		TenantID:         m.TenantID,
		IntegrationID:    m.IntegrationID,
		EntityType:       shopify.EntityType(m.EntityType),
		Status:           shopify.SyncLogStatus(m.Status),
		Trigger:          shopify.SyncTrigger(m.Trigger),
		RecordsFetched:   m.RecordsFetched,
		RecordsProcessed: m.RecordsProcessed,
		RecordsCreated:   m.RecordsCreated,
		RecordsUpdated:   m.RecordsUpdated,
		RecordsFailed:    m.RecordsFailed,
		ErrorMessage:     m.ErrorMessage,
		Details:          m.Details,
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
	}
}

// FromDomain populates the model from a domain sync log
func (m *SyncLogModel) FromDomain(l *shopify.SyncLog) {
	m.FromDomainTenant(l.BaseEntity, l.TenantID)
	m.IntegrationID = l.IntegrationID
	m.EntityType = l.EntityType.String()
	m.Status = l.Status.String()
	m.Trigger = string(l.Trigger)
	m.RecordsFetched = l.RecordsFetched
	m.RecordsProcessed = l.RecordsProcessed
	m.RecordsCreated = l.RecordsCreated
	m.RecordsUpdated = l.RecordsUpdated
	m.RecordsFailed = l.RecordsFailed
	m.ErrorMessage = l.ErrorMessage
	m.Details = l.Details
	m.StartedAt = l.StartedAt
	m.CompletedAt = l.CompletedAt
}

// ---------------------------------------------------------------------------
// Canonical Records
// ---------------------------------------------------------------------------

// ProductModel is the persistence model for mirrored products
type ProductModel struct {
	TenantModel
	IntegrationID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shopify_products_remote,priority:1"`
	ShopifyProductID string    `gorm:"size:64;not null;uniqueIndex:idx_shopify_products_remote,priority:2"`

	Title       string `gorm:"size:512"`
	Handle      string `gorm:"size:255;index"`
	Vendor      string `gorm:"size:255"`
	ProductType string `gorm:"size:255"`
	Status      string `gorm:"size:32;index"`
	Tags        string `gorm:"type:text"`
	BodyHTML    string `gorm:"type:text"`

	PriceMin     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PriceMax     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	VariantCount int              `gorm:"not null;default:0"`

	Options  string `gorm:"type:text"`
	Variants string `gorm:"type:text"`
	Images   string `gorm:"type:text"`

	PublishedAt      *time.Time
	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	SyncedAt   time.Time `gorm:"not null"`
	RawPayload string    `gorm:"type:text"`
}

// TableName specifies the table name
func (ProductModel) TableName() string {
	return "shopify_products"
}

// ToDomain converts the model to a domain product
func (m *ProductModel) ToDomain() *shopify.Product {
	return &shopify.Product{
		BaseEntity:       m.BaseModel.ToDomain(),
		TenantID:         m.TenantID,
		IntegrationID:    m.IntegrationID,
		ShopifyProductID: m.ShopifyProductID,
		Title:            m.Title,
		Handle:           m.Handle,
		Vendor:           m.Vendor,
		ProductType:      m.ProductType,
		Status:           m.Status,
		Tags:             m.Tags,
		BodyHTML:         m.BodyHTML,
		PriceMin:         m.PriceMin,
		PriceMax:         m.PriceMax,
		VariantCount:     m.VariantCount,
		Options:          m.Options,
		Variants:         m.Variants,
		Images:           m.Images,
		PublishedAt:      m.PublishedAt,
		ShopifyCreatedAt: m.ShopifyCreatedAt,
		ShopifyUpdatedAt: m.ShopifyUpdatedAt,
		SyncedAt:         m.SyncedAt,
		RawPayload:       m.RawPayload,
	}
}

// FromDomain populates the model from a domain product
func (m *ProductModel) FromDomain(p *shopify.Product) {
	m.FromDomainTenant(p.BaseEntity, p.TenantID)
	m.IntegrationID = p.IntegrationID
	m.ShopifyProductID = p.ShopifyProductID
	m.Title = p.Title
	m.Handle = p.Handle
	m.Vendor = p.Vendor
	m.ProductType = p.ProductType
	m.Status = p.Status
	m.Tags = p.Tags
	m.BodyHTML = p.BodyHTML
	m.PriceMin = p.PriceMin
	m.PriceMax = p.PriceMax
	m.VariantCount = p.VariantCount
	m.Options = p.Options
	m.Variants = p.Variants
	m.Images = p.Images
	m.PublishedAt = p.PublishedAt
	m.ShopifyCreatedAt = p.ShopifyCreatedAt
	m.ShopifyUpdatedAt = p.ShopifyUpdatedAt
	m.SyncedAt = p.SyncedAt
	m.RawPayload = p.RawPayload
}

// OrderModel is the persistence model for mirrored orders
type OrderModel struct {
	TenantModel
	IntegrationID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shopify_orders_remote,priority:1"`
	ShopifyOrderID string    `gorm:"size:64;not null;uniqueIndex:idx_shopify_orders_remote,priority:2"`

	OrderNumber string `gorm:"size:64;index"`
	Name        string `gorm:"size:64;index"`
	Email       string `gorm:"size:255"`
	Currency    string `gorm:"size:8"`

	TotalPrice    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	SubtotalPrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TotalTax      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TotalDiscount *decimal.Decimal `gorm:"type:decimal(18,4)"`

	FinancialStatus   string `gorm:"size:32;index"`
	FulfillmentStatus string `gorm:"size:32"`

	ShopifyCustomerID string `gorm:"size:64;index"`
	LineItemCount     int    `gorm:"not null;default:0"`

	Customer        string `gorm:"type:text"`
	LineItems       string `gorm:"type:text"`
	ShippingAddress string `gorm:"type:text"`
	BillingAddress  string `gorm:"type:text"`

	ProcessedAt      *time.Time
	ClosedAt         *time.Time
	CancelledAt      *time.Time
	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	SyncedAt   time.Time `gorm:"not null"`
	RawPayload string    `gorm:"type:text"`
}

// TableName specifies the table name
func (OrderModel) TableName() string {
	return "shopify_orders"
}

// ToDomain converts the model to a domain order
func (m *OrderModel) ToDomain() *shopify.Order {
	return &shopify.Order{
		BaseEntity:        m.BaseModel.ToDomain(),
		TenantID:          m.TenantID,
		IntegrationID:     m.IntegrationID,
		ShopifyOrderID:    m.ShopifyOrderID,
		OrderNumber:       m.OrderNumber,
		Name:              m.Name,
		Email:             m.Email,
		Currency:          m.Currency,
		TotalPrice:        m.TotalPrice,
		SubtotalPrice:     m.SubtotalPrice,
		TotalTax:          m.TotalTax,
		TotalDiscount:     m.TotalDiscount,
		FinancialStatus:   m.FinancialStatus,
		FulfillmentStatus: m.FulfillmentStatus,
		ShopifyCustomerID: m.ShopifyCustomerID,
		LineItemCount:     m.LineItemCount,
		Customer:          m.Customer,
		LineItems:         m.LineItems,
		ShippingAddress:   m.ShippingAddress,
		BillingAddress:    m.BillingAddress,
		ProcessedAt:       m.ProcessedAt,
		ClosedAt:          m.ClosedAt,
		CancelledAt:       m.CancelledAt,
		ShopifyCreatedAt:  m.ShopifyCreatedAt,
		ShopifyUpdatedAt:  m.ShopifyUpdatedAt,
		SyncedAt:          m.SyncedAt,
		RawPayload:        m.RawPayload,
	}
}

// FromDomain populates the model from a domain order
func (m *OrderModel) FromDomain(o *shopify.Order) {
	m.FromDomainTenant(o.BaseEntity, o.TenantID)
	m.IntegrationID = o.IntegrationID
	m.ShopifyOrderID = o.ShopifyOrderID
	m.OrderNumber = o.OrderNumber
	m.Name = o.Name
	m.Email = o.Email
	m.Currency = o.Currency
	m.TotalPrice = o.TotalPrice
	m.SubtotalPrice = o.SubtotalPrice
	m.TotalTax = o.TotalTax
	m.TotalDiscount = o.TotalDiscount
	m.FinancialStatus = o.FinancialStatus
	m.FulfillmentStatus = o.FulfillmentStatus
	m.ShopifyCustomerID = o.ShopifyCustomerID
	m.LineItemCount = o.LineItemCount
	m.Customer = o.Customer
	m.LineItems = o.LineItems
	m.ShippingAddress = o.ShippingAddress
	m.BillingAddress = o.BillingAddress
	m.ProcessedAt = o.ProcessedAt
	m.ClosedAt = o.ClosedAt
	m.CancelledAt = o.CancelledAt
	m.ShopifyCreatedAt = o.ShopifyCreatedAt
	m.ShopifyUpdatedAt = o.ShopifyUpdatedAt
	m.SyncedAt = o.SyncedAt
	m.RawPayload = o.RawPayload
}

// CustomerModel is the persistence model for mirrored customers
type CustomerModel struct {
	TenantModel
	IntegrationID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shopify_customers_remote,priority:1"`
	ShopifyCustomerID string    `gorm:"size:64;not null;uniqueIndex:idx_shopify_customers_remote,priority:2"`

	Email     string `gorm:"size:255;index"`
	FirstName string `gorm:"size:255"`
	LastName  string `gorm:"size:255"`
	Phone     string `gorm:"size:64"`
	State     string `gorm:"size:32"`
	Tags      string `gorm:"type:text"`

	OrdersCount   int              `gorm:"not null;default:0"`
	TotalSpent    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	VerifiedEmail bool             `gorm:"not null;default:false"`

	LastOrderID   string `gorm:"size:64"`
	LastOrderName string `gorm:"size:64"`

	Addresses      string `gorm:"type:text"`
	DefaultAddress string `gorm:"type:text"`

	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	SyncedAt   time.Time `gorm:"not null"`
	RawPayload string    `gorm:"type:text"`
}

// TableName specifies the table name
func (CustomerModel) TableName() string {
	return "shopify_customers"
}

// ToDomain converts the model to a domain customer
func (m *CustomerModel) ToDomain() *shopify.Customer {
	return &shopify.Customer{
		BaseEntity:        m.BaseModel.ToDomain(),
		TenantID:          m.TenantID,
		IntegrationID:     m.IntegrationID,
		ShopifyCustomerID: m.ShopifyCustomerID,
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Phone:             m.Phone,
		State:             m.State,
		Tags:              m.Tags,
		OrdersCount:       m.OrdersCount,
		TotalSpent:        m.TotalSpent,
		VerifiedEmail:     m.VerifiedEmail,
		LastOrderID:       m.LastOrderID,
		LastOrderName:     m.LastOrderName,
		Addresses:         m.Addresses,
		DefaultAddress:    m.DefaultAddress,
		ShopifyCreatedAt:  m.ShopifyCreatedAt,
		ShopifyUpdatedAt:  m.ShopifyUpdatedAt,
		SyncedAt:          m.SyncedAt,
		RawPayload:        m.RawPayload,
	}
}

// FromDomain populates the model from a domain customer
func (m *CustomerModel) FromDomain(c *shopify.Customer) {
	m.FromDomainTenant(c.BaseEntity, c.TenantID)
	m.IntegrationID = c.IntegrationID
	m.ShopifyCustomerID = c.ShopifyCustomerID
	m.Email = c.Email
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Phone = c.Phone
	m.State = c.State
	m.Tags = c.Tags
	m.OrdersCount = c.OrdersCount
	m.TotalSpent = c.TotalSpent
	m.VerifiedEmail = c.VerifiedEmail
	m.LastOrderID = c.LastOrderID
	m.LastOrderName = c.LastOrderName
	m.Addresses = c.Addresses
	m.DefaultAddress = c.DefaultAddress
	m.ShopifyCreatedAt = c.ShopifyCreatedAt
	m.ShopifyUpdatedAt = c.ShopifyUpdatedAt
	m.SyncedAt = c.SyncedAt
	m.RawPayload = c.RawPayload
}

// InventoryLevelModel is the persistence model for mirrored inventory
// levels
type InventoryLevelModel struct {
	TenantModel
	IntegrationID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shopify_inventory_remote,priority:1"`
	InventoryItemID string    `gorm:"size:64;not null;uniqueIndex:idx_shopify_inventory_remote,priority:2"`
	LocationID      string    `gorm:"size:64;not null;uniqueIndex:idx_shopify_inventory_remote,priority:3"`

	SKU string `gorm:"size:255;index"`

	Available int `gorm:"not null;default:0"`
	Committed int `gorm:"not null;default:0"`
	Incoming  int `gorm:"not null;default:0"`

	ShopifyUpdatedAt *time.Time

	SyncedAt   time.Time `gorm:"not null"`
	RawPayload string    `gorm:"type:text"`
}

// TableName specifies the table name
func (InventoryLevelModel) TableName() string {
	return "shopify_inventory_levels"
}

// ToDomain converts the model to a domain inventory level
func (m *InventoryLevelModel) ToDomain() *shopify.InventoryLevel {
	return &shopify.InventoryLevel{
		BaseEntity:       m.BaseModel.ToDomain(),
		TenantID:         m.TenantID,
		IntegrationID:    m.IntegrationID,
		InventoryItemID:  m.InventoryItemID,
		LocationID:       m.LocationID,
		SKU:              m.SKU,
		Available:        m.Available,
		Committed:        m.Committed,
		Incoming:         m.Incoming,
		ShopifyUpdatedAt: m.ShopifyUpdatedAt,
		SyncedAt:         m.SyncedAt,
		RawPayload:       m.RawPayload,
	}
}

// FromDomain populates the model from a domain inventory level
func (m *InventoryLevelModel) FromDomain(l *shopify.InventoryLevel) {
	m.FromDomainTenant(l.BaseEntity, l.TenantID)
	m.IntegrationID = l.IntegrationID
	m.InventoryItemID = l.InventoryItemID
	m.LocationID = l.LocationID
	m.SKU = l.SKU
	m.Available = l.Available
	m.Committed = l.Committed
	m.Incoming = l.Incoming
	m.ShopifyUpdatedAt = l.ShopifyUpdatedAt
	m.SyncedAt = l.SyncedAt
	m.RawPayload = l.RawPayload
}
