package shopify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
)

// AuthorizeURLBuilder builds the Shopify consent URL for a store
type AuthorizeURLBuilder interface {
	AuthorizeURL(shopURL, redirectURI, state string, scopes []string) string
}

// OAuthSettings carries the app-level OAuth parameters
type OAuthSettings struct {
	RedirectURI string
	Scopes      []string
}

// IntegrationService manages the lifecycle of store integrations:
// connecting, OAuth, pausing, entity toggles and teardown.
type IntegrationService struct {
	integrations shopify.IntegrationRepository
	syncLogs     shopify.SyncLogRepository
	records      shopify.RecordStore
	clients      shopify.ClientFactory
	states       shopify.OAuthStateStore
	exchanger    shopify.TokenExchanger
	authorizer   AuthorizeURLBuilder
	oauth        OAuthSettings
	stateTTL     time.Duration
	logger       *zap.Logger
}

// NewIntegrationService creates a new IntegrationService
func NewIntegrationService(
	integrations shopify.IntegrationRepository,
	syncLogs shopify.SyncLogRepository,
	records shopify.RecordStore,
	clients shopify.ClientFactory,
	states shopify.OAuthStateStore,
	exchanger shopify.TokenExchanger,
	authorizer AuthorizeURLBuilder,
	oauth OAuthSettings,
	stateTTL time.Duration,
	logger *zap.Logger,
) *IntegrationService {
	return &IntegrationService{
		integrations: integrations,
		syncLogs:     syncLogs,
		records:      records,
		clients:      clients,
		states:       states,
		exchanger:    exchanger,
		authorizer:   authorizer,
		oauth:        oauth,
		stateTTL:     stateTTL,
		logger:       logger,
	}
}

// ---------------------------------------------------------------------------
// Connection Lifecycle
// ---------------------------------------------------------------------------

// ConnectStore registers a store with a manually supplied Admin API
// token. Credentials are verified against the shop resource before the
// integration is persisted.
func (s *IntegrationService) ConnectStore(
	ctx context.Context,
	tenantID uuid.UUID,
	storeURL, storeName, accessToken, webhookSecret string,
) (*shopify.Integration, error) {
	integration, err := shopify.NewIntegration(tenantID, storeURL, storeName)
	if err != nil {
		return nil, err
	}

	existing, err := s.integrations.FindByStoreURL(ctx, tenantID, integration.StoreURL)
	if err == nil && existing != nil {
		return nil, shopify.ErrIntegrationExists
	}

	if err := integration.Connect(accessToken, webhookSecret); err != nil {
		return nil, err
	}

	shop, err := s.clients.ForIntegration(integration).TestConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("shopify: connection test failed: %w", err)
	}
	if integration.StoreName == "" {
		integration.StoreName = shop.Name
	}

	if err := s.integrations.Save(ctx, integration); err != nil {
		return nil, err
	}

	s.logger.Info("Store connected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("store_url", integration.StoreURL),
		zap.String("shop_name", shop.Name),
	)
	return integration, nil
}

// Disconnect clears the store's credentials. Synced records stay in
// place until the integration is deleted.
func (s *IntegrationService) Disconnect(ctx context.Context, tenantID, id uuid.UUID) error {
	integration, err := s.integrations.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	integration.Disconnect()
	return s.integrations.Save(ctx, integration)
}

// Pause suspends scheduled syncing for a store
func (s *IntegrationService) Pause(ctx context.Context, tenantID, id uuid.UUID) error {
	integration, err := s.integrations.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	integration.Pause()
	return s.integrations.Save(ctx, integration)
}

// Resume re-enables a paused store
func (s *IntegrationService) Resume(ctx context.Context, tenantID, id uuid.UUID) error {
	integration, err := s.integrations.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := integration.Resume(); err != nil {
		return err
	}
	return s.integrations.Save(ctx, integration)
}

// UpdateSettings changes sync frequency and entity toggles
func (s *IntegrationService) UpdateSettings(
	ctx context.Context,
	tenantID, id uuid.UUID,
	req UpdateSettingsRequest,
) (*shopify.Integration, error) {
	integration, err := s.integrations.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.SyncFrequencyMinutes != nil {
		if err := integration.SetSyncFrequency(*req.SyncFrequencyMinutes); err != nil {
			return nil, err
		}
	}
	if req.AutoSyncEnabled != nil {
		integration.AutoSyncEnabled = *req.AutoSyncEnabled
	}
	if req.SyncProducts != nil {
		integration.SyncProducts = *req.SyncProducts
	}
	if req.SyncOrders != nil {
		integration.SyncOrders = *req.SyncOrders
	}
	if req.SyncCustomers != nil {
		integration.SyncCustomers = *req.SyncCustomers
	}
	if req.SyncInventory != nil {
		integration.SyncInventory = *req.SyncInventory
	}

	if err := s.integrations.Save(ctx, integration); err != nil {
		return nil, err
	}
	return integration, nil
}

// Delete removes the integration and all records synced through it
func (s *IntegrationService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.integrations.Delete(ctx, tenantID, id)
}

// DeleteByStoreURL removes the integration identified by its store URL
func (s *IntegrationService) DeleteByStoreURL(ctx context.Context, tenantID uuid.UUID, storeURL string) error {
	normalized, err := shopify.NormalizeStoreURL(storeURL)
	if err != nil {
		return err
	}
	integration, err := s.integrations.FindByStoreURL(ctx, tenantID, normalized)
	if err != nil {
		return err
	}
	return s.integrations.Delete(ctx, tenantID, integration.ID)
}

// GetByStoreURL returns the integration identified by its store URL
func (s *IntegrationService) GetByStoreURL(ctx context.Context, tenantID uuid.UUID, storeURL string) (*shopify.Integration, error) {
	normalized, err := shopify.NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}
	return s.integrations.FindByStoreURL(ctx, tenantID, normalized)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Get returns one integration
func (s *IntegrationService) Get(ctx context.Context, tenantID, id uuid.UUID) (*shopify.Integration, error) {
	return s.integrations.FindByID(ctx, tenantID, id)
}

// List returns the tenant's integrations
func (s *IntegrationService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]shopify.Integration, error) {
	return s.integrations.FindAllForTenant(ctx, tenantID, filter)
}

// Status returns the integration's health together with per-entity
// record counts
func (s *IntegrationService) Status(ctx context.Context, tenantID, id uuid.UUID) (*IntegrationStatusResponse, error) {
	integration, err := s.integrations.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.records.CountByEntity(ctx, integration.ID)
	if err != nil {
		return nil, err
	}

	recent, err := s.syncLogs.FindRecent(ctx, tenantID, integration.ID, shared.Filter{Page: 1, PageSize: 5})
	if err != nil {
		return nil, err
	}

	return NewIntegrationStatusResponse(integration, counts, recent.Items), nil
}

// TestConnection verifies the stored credentials against the shop resource
func (s *IntegrationService) TestConnection(ctx context.Context, tenantID, id uuid.UUID) (*shopify.ShopInfo, error) {
	integration, err := s.integrations.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.clients.ForIntegration(integration).TestConnection(ctx)
}

// ---------------------------------------------------------------------------
// OAuth Flow
// ---------------------------------------------------------------------------

// BeginOAuth starts the authorization code flow for a store and
// returns the consent URL to redirect the operator to. The state nonce
// is single-use and expires with the store's TTL.
func (s *IntegrationService) BeginOAuth(ctx context.Context, tenantID uuid.UUID, storeURL string) (string, error) {
	normalized, err := shopify.NormalizeStoreURL(storeURL)
	if err != nil {
		return "", err
	}

	state, err := newStateNonce()
	if err != nil {
		return "", err
	}

	payload := shopify.OAuthStatePayload{TenantID: tenantID, ShopURL: normalized}
	if err := s.states.Put(ctx, state, payload, s.stateTTL); err != nil {
		return "", err
	}

	return s.authorizer.AuthorizeURL(normalized, s.oauth.RedirectURI, state, s.oauth.Scopes), nil
}

// CompleteOAuth redeems the callback's state and code for a permanent
// token and connects the store. The state is consumed even when the
// exchange fails, so a replayed callback is always rejected.
func (s *IntegrationService) CompleteOAuth(ctx context.Context, state, shopDomain, code string) (*shopify.Integration, error) {
	payload, ok, err := s.states.Take(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shopify.ErrInvalidOAuthState
	}

	normalized, err := shopify.NormalizeStoreURL(shopDomain)
	if err != nil {
		return nil, err
	}
	if normalized != payload.ShopURL {
		// The callback's shop does not match the shop the flow was
		// started for.
		return nil, shopify.ErrInvalidOAuthState
	}

	token, err := s.exchanger.Exchange(ctx, normalized, code)
	if err != nil {
		return nil, err
	}

	integration, err := s.integrations.FindByStoreURL(ctx, payload.TenantID, normalized)
	if err != nil {
		integration, err = shopify.NewIntegration(payload.TenantID, normalized, "")
		if err != nil {
			return nil, err
		}
	}

	if err := integration.Connect(token, integration.WebhookSecret); err != nil {
		return nil, err
	}

	shop, err := s.clients.ForIntegration(integration).TestConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("shopify: connection test failed: %w", err)
	}
	if integration.StoreName == "" {
		integration.StoreName = shop.Name
	}

	if err := s.integrations.Save(ctx, integration); err != nil {
		return nil, err
	}

	s.logger.Info("Store connected via OAuth",
		zap.String("tenant_id", payload.TenantID.String()),
		zap.String("store_url", normalized),
	)
	return integration, nil
}

// newStateNonce generates an unguessable OAuth state value
func newStateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
