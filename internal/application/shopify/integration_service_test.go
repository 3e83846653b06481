package shopify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
)

type integrationFixture struct {
	service      *IntegrationService
	integrations *memIntegrationRepo
	syncLogs     *memSyncLogRepo
	records      *memRecordStore
	client       *fakeClient
	states       *memStateStore
	exchanger    *fakeExchanger
	authorizer   *fakeAuthorizer
}

func newIntegrationFixture() *integrationFixture {
	integrations := newMemIntegrationRepo()
	syncLogs := newMemSyncLogRepo()
	records := newMemRecordStore()
	client := newFakeClient()
	states := newMemStateStore()
	exchanger := &fakeExchanger{token: "shpat_oauth_token"}
	authorizer := &fakeAuthorizer{}
	service := NewIntegrationService(
		integrations,
		syncLogs,
		records,
		&fakeClientFactory{client: client},
		states,
		exchanger,
		authorizer,
		OAuthSettings{
			RedirectURI: "https://app.example.com/callback",
			Scopes:      []string{"read_products", "read_orders"},
		},
		10*time.Minute,
		testLogger(),
	)
	return &integrationFixture{
		service:      service,
		integrations: integrations,
		syncLogs:     syncLogs,
		records:      records,
		client:       client,
		states:       states,
		exchanger:    exchanger,
		authorizer:   authorizer,
	}
}

// ---------------------------------------------------------------------------
// ConnectStore
// ---------------------------------------------------------------------------

func TestIntegrationServiceConnectStore(t *testing.T) {
	ctx := context.Background()

	t.Run("connects store with valid credentials", func(t *testing.T) {
		f := newIntegrationFixture()
		tenantID := uuid.New()

		integration, err := f.service.ConnectStore(ctx, tenantID, "https://acme.myshopify.com", "Acme", "shpat_token", "whsec")
		require.NoError(t, err)

		assert.Equal(t, shopify.IntegrationStatusConnected, integration.Status)
		assert.Equal(t, "acme.myshopify.com", integration.StoreURL)
		assert.Equal(t, "Acme", integration.StoreName)

		saved := f.integrations.get(integration.ID)
		assert.Equal(t, "shpat_token", saved.AccessToken)
	})

	t.Run("defaults store name from shop resource", func(t *testing.T) {
		f := newIntegrationFixture()
		f.client.shop.Name = "Acme Store"

		integration, err := f.service.ConnectStore(ctx, uuid.New(), "acme.myshopify.com", "", "shpat_token", "whsec")
		require.NoError(t, err)
		assert.Equal(t, "Acme Store", integration.StoreName)
	})

	t.Run("rejects duplicate store for tenant", func(t *testing.T) {
		f := newIntegrationFixture()
		tenantID := uuid.New()
		_, err := f.service.ConnectStore(ctx, tenantID, "acme.myshopify.com", "Acme", "shpat_token", "whsec")
		require.NoError(t, err)

		_, err = f.service.ConnectStore(ctx, tenantID, "acme.myshopify.com", "Acme", "shpat_other", "whsec")
		assert.ErrorIs(t, err, shopify.ErrIntegrationExists)
	})

	t.Run("allows same store for another tenant", func(t *testing.T) {
		f := newIntegrationFixture()
		_, err := f.service.ConnectStore(ctx, uuid.New(), "acme.myshopify.com", "Acme", "shpat_token", "whsec")
		require.NoError(t, err)

		_, err = f.service.ConnectStore(ctx, uuid.New(), "acme.myshopify.com", "Acme", "shpat_token", "whsec")
		assert.NoError(t, err)
	})

	t.Run("does not persist when connection test fails", func(t *testing.T) {
		f := newIntegrationFixture()
		f.client.connErr = shopify.ErrUnauthorized
		tenantID := uuid.New()

		_, err := f.service.ConnectStore(ctx, tenantID, "acme.myshopify.com", "Acme", "shpat_bad", "whsec")
		require.ErrorIs(t, err, shopify.ErrUnauthorized)

		_, err = f.integrations.FindByStoreURL(ctx, tenantID, "acme.myshopify.com")
		assert.ErrorIs(t, err, shopify.ErrIntegrationNotFound)
	})

	t.Run("rejects empty access token", func(t *testing.T) {
		f := newIntegrationFixture()
		_, err := f.service.ConnectStore(ctx, uuid.New(), "acme.myshopify.com", "Acme", "", "whsec")
		assert.ErrorIs(t, err, shopify.ErrMissingAccessToken)
	})

	t.Run("rejects invalid store URL", func(t *testing.T) {
		f := newIntegrationFixture()
		_, err := f.service.ConnectStore(ctx, uuid.New(), "not a url", "Acme", "shpat_token", "whsec")
		assert.ErrorIs(t, err, shopify.ErrInvalidStoreURL)
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestIntegrationServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	connect := func(t *testing.T, f *integrationFixture) *shopify.Integration {
		t.Helper()
		integration, err := f.service.ConnectStore(ctx, uuid.New(), "acme.myshopify.com", "Acme", "shpat_token", "whsec")
		require.NoError(t, err)
		return integration
	}

	t.Run("pause and resume", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)

		require.NoError(t, f.service.Pause(ctx, integration.TenantID, integration.ID))
		assert.Equal(t, shopify.IntegrationStatusPaused, f.integrations.get(integration.ID).Status)

		require.NoError(t, f.service.Resume(ctx, integration.TenantID, integration.ID))
		assert.Equal(t, shopify.IntegrationStatusConnected, f.integrations.get(integration.ID).Status)
	})

	t.Run("resume rejects non-paused integration", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)
		err := f.service.Resume(ctx, integration.TenantID, integration.ID)
		assert.ErrorIs(t, err, shopify.ErrInvalidStatusTransition)
	})

	t.Run("disconnect clears credentials", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)

		require.NoError(t, f.service.Disconnect(ctx, integration.TenantID, integration.ID))
		saved := f.integrations.get(integration.ID)
		assert.Equal(t, shopify.IntegrationStatusDisconnected, saved.Status)
		assert.Empty(t, saved.AccessToken)
	})

	t.Run("update settings applies only provided fields", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)

		freq := 60
		disabled := false
		updated, err := f.service.UpdateSettings(ctx, integration.TenantID, integration.ID, UpdateSettingsRequest{
			SyncFrequencyMinutes: &freq,
			SyncOrders:           &disabled,
		})
		require.NoError(t, err)

		assert.Equal(t, 60, updated.SyncFrequencyMinutes)
		assert.False(t, updated.SyncOrders)
		assert.True(t, updated.SyncProducts)
	})

	t.Run("update settings toggles auto sync", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)
		require.True(t, f.integrations.get(integration.ID).AutoSyncEnabled)

		off := false
		updated, err := f.service.UpdateSettings(ctx, integration.TenantID, integration.ID, UpdateSettingsRequest{
			AutoSyncEnabled: &off,
		})
		require.NoError(t, err)

		assert.False(t, updated.AutoSyncEnabled)
		assert.False(t, f.integrations.get(integration.ID).AutoSyncEnabled)
	})

	t.Run("update settings rejects invalid frequency", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)

		freq := 0
		_, err := f.service.UpdateSettings(ctx, integration.TenantID, integration.ID, UpdateSettingsRequest{
			SyncFrequencyMinutes: &freq,
		})
		assert.ErrorIs(t, err, shopify.ErrInvalidSyncFrequency)
	})

	t.Run("delete removes integration", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)

		require.NoError(t, f.service.Delete(ctx, integration.TenantID, integration.ID))
		_, err := f.service.Get(ctx, integration.TenantID, integration.ID)
		assert.ErrorIs(t, err, shopify.ErrIntegrationNotFound)
	})

	t.Run("status reports record counts and recent runs", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)

		product, err := shopify.MapProduct(integration.TenantID, integration.ID, []byte(`{"id": 1, "title": "Widget"}`))
		require.NoError(t, err)
		_, err = f.records.UpsertProduct(ctx, product)
		require.NoError(t, err)

		status, err := f.service.Status(ctx, integration.TenantID, integration.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), status.RecordCounts[string(shopify.EntityProducts)])
		assert.Empty(t, status.RecentRuns)
	})

	t.Run("list returns tenant integrations only", func(t *testing.T) {
		f := newIntegrationFixture()
		integration := connect(t, f)
		connect(t, f)

		list, err := f.service.List(ctx, integration.TenantID, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

// ---------------------------------------------------------------------------
// OAuth
// ---------------------------------------------------------------------------

func TestIntegrationServiceOAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("begin stores single-use state and builds consent URL", func(t *testing.T) {
		f := newIntegrationFixture()
		tenantID := uuid.New()

		url, err := f.service.BeginOAuth(ctx, tenantID, "https://acme.myshopify.com")
		require.NoError(t, err)

		assert.Equal(t, "acme.myshopify.com", f.authorizer.gotShop)
		assert.NotEmpty(t, f.authorizer.gotState)
		assert.True(t, strings.Contains(url, f.authorizer.gotState))

		payload, ok, err := f.states.Take(ctx, f.authorizer.gotState)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, tenantID, payload.TenantID)
		assert.Equal(t, "acme.myshopify.com", payload.ShopURL)
	})

	t.Run("begin rejects invalid store URL", func(t *testing.T) {
		f := newIntegrationFixture()
		_, err := f.service.BeginOAuth(ctx, uuid.New(), "not a url")
		assert.ErrorIs(t, err, shopify.ErrInvalidStoreURL)
	})

	t.Run("complete creates and connects a new integration", func(t *testing.T) {
		f := newIntegrationFixture()
		tenantID := uuid.New()
		_, err := f.service.BeginOAuth(ctx, tenantID, "acme.myshopify.com")
		require.NoError(t, err)

		integration, err := f.service.CompleteOAuth(ctx, f.authorizer.gotState, "acme.myshopify.com", "auth-code")
		require.NoError(t, err)

		assert.Equal(t, tenantID, integration.TenantID)
		assert.Equal(t, shopify.IntegrationStatusConnected, integration.Status)
		assert.Equal(t, "shpat_oauth_token", f.integrations.get(integration.ID).AccessToken)
		assert.Equal(t, "auth-code", f.exchanger.gotCode)
	})

	t.Run("complete reconnects an existing integration", func(t *testing.T) {
		f := newIntegrationFixture()
		tenantID := uuid.New()
		existing, err := f.service.ConnectStore(ctx, tenantID, "acme.myshopify.com", "Acme", "shpat_old", "whsec")
		require.NoError(t, err)

		_, err = f.service.BeginOAuth(ctx, tenantID, "acme.myshopify.com")
		require.NoError(t, err)

		integration, err := f.service.CompleteOAuth(ctx, f.authorizer.gotState, "acme.myshopify.com", "auth-code")
		require.NoError(t, err)

		assert.Equal(t, existing.ID, integration.ID)
		assert.Equal(t, "shpat_oauth_token", f.integrations.get(existing.ID).AccessToken)
		assert.Equal(t, "whsec", f.integrations.get(existing.ID).WebhookSecret)
	})

	t.Run("complete rejects unknown state", func(t *testing.T) {
		f := newIntegrationFixture()
		_, err := f.service.CompleteOAuth(ctx, "never-issued", "acme.myshopify.com", "auth-code")
		assert.ErrorIs(t, err, shopify.ErrInvalidOAuthState)
	})

	t.Run("complete rejects replayed state", func(t *testing.T) {
		f := newIntegrationFixture()
		_, err := f.service.BeginOAuth(ctx, uuid.New(), "acme.myshopify.com")
		require.NoError(t, err)
		state := f.authorizer.gotState

		_, err = f.service.CompleteOAuth(ctx, state, "acme.myshopify.com", "auth-code")
		require.NoError(t, err)

		_, err = f.service.CompleteOAuth(ctx, state, "acme.myshopify.com", "auth-code")
		assert.ErrorIs(t, err, shopify.ErrInvalidOAuthState)
	})

	t.Run("complete rejects shop domain mismatch", func(t *testing.T) {
		f := newIntegrationFixture()
		_, err := f.service.BeginOAuth(ctx, uuid.New(), "acme.myshopify.com")
		require.NoError(t, err)

		_, err = f.service.CompleteOAuth(ctx, f.authorizer.gotState, "evil.myshopify.com", "auth-code")
		assert.ErrorIs(t, err, shopify.ErrInvalidOAuthState)
	})

	t.Run("complete consumes state even when exchange fails", func(t *testing.T) {
		f := newIntegrationFixture()
		f.exchanger.err = errors.New("exchange refused")
		_, err := f.service.BeginOAuth(ctx, uuid.New(), "acme.myshopify.com")
		require.NoError(t, err)
		state := f.authorizer.gotState

		_, err = f.service.CompleteOAuth(ctx, state, "acme.myshopify.com", "auth-code")
		require.Error(t, err)

		f.exchanger.err = nil
		_, err = f.service.CompleteOAuth(ctx, state, "acme.myshopify.com", "auth-code")
		assert.ErrorIs(t, err, shopify.ErrInvalidOAuthState)
	})
}
