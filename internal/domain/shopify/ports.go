package shopify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stockhaus/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Repository Ports
// ---------------------------------------------------------------------------

// IntegrationRepository persists store integrations
type IntegrationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Integration, error)
	FindByStoreURL(ctx context.Context, tenantID uuid.UUID, storeURL string) (*Integration, error)
	// FindByShopDomain resolves the integration for an inbound webhook.
	// Webhooks carry no tenant context, only the shop domain.
	FindByShopDomain(ctx context.Context, shopDomain string) (*Integration, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Integration, error)
	// FindDue returns integrations whose scheduled sync interval has
	// elapsed as of now
	FindDue(ctx context.Context, now time.Time) ([]Integration, error)
	Save(ctx context.Context, integration *Integration) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// SyncLogRepository persists sync run audit records
type SyncLogRepository interface {
	Create(ctx context.Context, log *SyncLog) error
	Update(ctx context.Context, log *SyncLog) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SyncLog, error)
	FindRecent(ctx context.Context, tenantID, integrationID uuid.UUID, filter shared.Filter) (shared.Paginated[SyncLog], error)
	// HasRunning reports whether a non-terminal run exists for the
	// integration and entity type
	HasRunning(ctx context.Context, integrationID uuid.UUID, entity EntityType) (bool, error)
}

// RecordStore persists canonical records through idempotent upserts.
// Each upsert returns true when the record was created, false when an
// existing record was overwritten.
type RecordStore interface {
	UpsertProduct(ctx context.Context, p *Product) (bool, error)
	UpsertOrder(ctx context.Context, o *Order) (bool, error)
	UpsertCustomer(ctx context.Context, c *Customer) (bool, error)
	UpsertInventoryLevel(ctx context.Context, l *InventoryLevel) (bool, error)

	ListProducts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[Product], error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[Order], error)
	ListCustomers(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[Customer], error)
	ListInventoryLevels(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[InventoryLevel], error)

	CountByEntity(ctx context.Context, integrationID uuid.UUID) (map[EntityType]int64, error)
}

// ---------------------------------------------------------------------------
// Admin API Ports
// ---------------------------------------------------------------------------

// FetchOptions narrows what a fetch run pulls from the Admin API
type FetchOptions struct {
	// UpdatedAfter limits results to records modified since the given
	// time; zero means fetch everything
	UpdatedAfter time.Time
	// Limit overrides the per-page record count when positive
	Limit int
}

// RecordIterator walks the pages of a remote collection. Next returns
// the raw documents of one page and false once the collection is
// exhausted or an error occurred.
type RecordIterator interface {
	Next(ctx context.Context) ([]json.RawMessage, bool, error)
}

// RemoteClient is the port to one store's Admin API.
// Implementations handle authentication, throttling, retries and
// cursor pagination; callers only see pages of raw documents.
type RemoteClient interface {
	Fetch(ctx context.Context, entity EntityType, opts FetchOptions) RecordIterator
	// TestConnection verifies credentials by loading the shop resource
	TestConnection(ctx context.Context) (*ShopInfo, error)
}

// ClientFactory builds a RemoteClient bound to one integration's
// credentials
type ClientFactory interface {
	ForIntegration(integration *Integration) RemoteClient
}

// ShopInfo is the subset of the shop resource used for connection checks
type ShopInfo struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
	Plan     string `json:"plan_name"`
}

// ---------------------------------------------------------------------------
// OAuth Ports
// ---------------------------------------------------------------------------

// OAuthStateStore keeps one-time OAuth state nonces. Take removes the
// state so a nonce can only be redeemed once.
type OAuthStateStore interface {
	Put(ctx context.Context, state string, payload OAuthStatePayload, ttl time.Duration) error
	Take(ctx context.Context, state string) (OAuthStatePayload, bool, error)
}

// OAuthStatePayload is the context bound to an OAuth state nonce
type OAuthStatePayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ShopURL  string    `json:"shop_url"`
}

// TokenExchanger redeems an OAuth authorization code for a permanent
// Admin API access token
type TokenExchanger interface {
	Exchange(ctx context.Context, shopURL, code string) (string, error)
}
