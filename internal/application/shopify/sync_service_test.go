package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type syncFixture struct {
	service      *SyncService
	integrations *memIntegrationRepo
	syncLogs     *memSyncLogRepo
	records      *memRecordStore
	client       *fakeClient
}

func newSyncFixture() *syncFixture {
	integrations := newMemIntegrationRepo()
	syncLogs := newMemSyncLogRepo()
	records := newMemRecordStore()
	client := newFakeClient()
	service := NewSyncService(integrations, syncLogs, records, &fakeClientFactory{client: client}, testLogger())
	return &syncFixture{
		service:      service,
		integrations: integrations,
		syncLogs:     syncLogs,
		records:      records,
		client:       client,
	}
}

func (f *syncFixture) addConnected(t *testing.T) *shopify.Integration {
	t.Helper()
	integration, err := shopify.NewIntegration(uuid.New(), "acme.myshopify.com", "Acme")
	require.NoError(t, err)
	require.NoError(t, integration.Connect("shpat_test_token", "whsec"))
	require.NoError(t, f.integrations.Save(context.Background(), integration))
	return integration
}

func productDoc(id int, title string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id": %d, "title": %q, "status": "active"}`, id, title))
}

func orderDoc(id int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id": %d, "name": "#%d", "currency": "USD", "total_price": "10.00", "financial_status": "paid"}`, id, id))
}

// ---------------------------------------------------------------------------
// SyncEntity
// ---------------------------------------------------------------------------

func TestSyncServiceSyncEntity(t *testing.T) {
	ctx := context.Background()

	t.Run("syncs all pages and records success", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{
			{productDoc(1, "Widget"), productDoc(2, "Gadget")},
			{productDoc(3, "Gizmo")},
		}

		log, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		require.NoError(t, err)

		assert.Equal(t, shopify.SyncLogStatusSuccess, log.Status)
		assert.Equal(t, 3, log.RecordsFetched)
		assert.Equal(t, 3, log.RecordsCreated)
		assert.Equal(t, 0, log.RecordsFailed)
		assert.Len(t, f.records.products, 3)

		saved := f.integrations.get(integration.ID)
		assert.Equal(t, shopify.IntegrationStatusConnected, saved.Status)
		assert.NotNil(t, saved.LastSuccessfulSyncAt)
		assert.Empty(t, saved.LastError)
		assert.Zero(t, saved.ErrorCount)
	})

	t.Run("counts reimported records as updated", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{
			{productDoc(1, "Widget")},
			{productDoc(1, "Widget v2")},
		}

		log, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, log.RecordsCreated)
		assert.Equal(t, 1, log.RecordsUpdated)
		assert.Len(t, f.records.products, 1)
	})

	t.Run("passes last successful sync as incremental window", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		lastSync := time.Now().Add(-2 * time.Hour).UTC().Truncate(time.Second)
		integration.LastSuccessfulSyncAt = &lastSync
		require.NoError(t, f.integrations.Save(ctx, integration))

		_, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		require.NoError(t, err)

		assert.Equal(t, lastSync, f.client.seenOpts[shopify.EntityProducts].UpdatedAfter)
	})

	t.Run("explicit window and limit override the cursor", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		lastSync := time.Now().Add(-2 * time.Hour).UTC().Truncate(time.Second)
		integration.LastSuccessfulSyncAt = &lastSync
		require.NoError(t, f.integrations.Save(ctx, integration))

		window := time.Now().Add(-15 * time.Minute).UTC().Truncate(time.Second)
		_, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{
			UpdatedAfter: window,
			Limit:        50,
		})
		require.NoError(t, err)

		seen := f.client.seenOpts[shopify.EntityProducts]
		assert.Equal(t, window, seen.UpdatedAfter)
		assert.Equal(t, 50, seen.Limit)
	})

	t.Run("marks run error when fetch fails before any record", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.fetchErr[shopify.EntityProducts] = shopify.ErrRateLimited

		log, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		require.ErrorIs(t, err, shopify.ErrRateLimited)
		require.NotNil(t, log)

		assert.Equal(t, shopify.SyncLogStatusError, log.Status)
		saved := f.integrations.get(integration.ID)
		assert.Equal(t, shopify.IntegrationStatusError, saved.Status)
		assert.NotEmpty(t, saved.LastError)
		assert.NotNil(t, saved.LastErrorAt)
		assert.Equal(t, 1, saved.ErrorCount)
		assert.Nil(t, saved.LastSuccessfulSyncAt)
	})

	t.Run("marks run partial when fetch fails midway", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{
			{productDoc(1, "Widget"), productDoc(2, "Gadget")},
		}
		f.client.fetchErr[shopify.EntityProducts] = shopify.ErrRateLimited

		log, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		require.ErrorIs(t, err, shopify.ErrRateLimited)

		assert.Equal(t, shopify.SyncLogStatusPartial, log.Status)
		assert.Equal(t, 2, log.RecordsProcessed)

		// Partial runs stay connected but do not advance the cursor,
		// so the same window is refetched next time.
		saved := f.integrations.get(integration.ID)
		assert.Equal(t, shopify.IntegrationStatusConnected, saved.Status)
		assert.NotEmpty(t, saved.LastError)
		assert.Nil(t, saved.LastSuccessfulSyncAt)
	})

	t.Run("marks run partial when records are rejected", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{
			{productDoc(1, "Widget"), json.RawMessage(`{"title": "no id"}`)},
		}

		log, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		require.NoError(t, err)

		assert.Equal(t, shopify.SyncLogStatusPartial, log.Status)
		assert.Equal(t, 1, log.RecordsFailed)
		assert.Contains(t, log.ErrorMessage, "1 records rejected")
		assert.Len(t, f.records.products, 1)
	})

	t.Run("rejects paused integration", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		integration.Pause()
		require.NoError(t, f.integrations.Save(ctx, integration))

		_, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		assert.ErrorIs(t, err, shopify.ErrIntegrationPaused)
	})

	t.Run("rejects disconnected integration", func(t *testing.T) {
		f := newSyncFixture()
		integration, err := shopify.NewIntegration(uuid.New(), "acme.myshopify.com", "Acme")
		require.NoError(t, err)
		require.NoError(t, f.integrations.Save(ctx, integration))

		_, err = f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		assert.ErrorIs(t, err, shopify.ErrMissingAccessToken)
	})

	t.Run("rejects concurrent run for same entity", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.syncLogs.runningFor[shopify.EntityProducts] = true

		_, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		assert.ErrorIs(t, err, shopify.ErrSyncInProgress)
	})

	t.Run("rejects integration already marked syncing", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		integration.BeginSync()
		require.NoError(t, f.integrations.Save(ctx, integration))

		_, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		assert.ErrorIs(t, err, shopify.ErrSyncInProgress)
	})

	t.Run("run leaves a terminal status behind", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{{productDoc(1, "Widget")}}

		_, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		require.NoError(t, err)

		saved := f.integrations.get(integration.ID)
		assert.NotEqual(t, shopify.IntegrationStatusSyncing, saved.Status)
	})

	t.Run("rejects unknown integration", func(t *testing.T) {
		f := newSyncFixture()
		_, err := f.service.SyncEntity(ctx, uuid.New(), uuid.New(), shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
		assert.ErrorIs(t, err, shopify.ErrIntegrationNotFound)
	})

	t.Run("rejects unfetchable entity", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		_, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityType("bogus"), shopify.SyncTriggerManual, shopify.FetchOptions{})
		assert.Error(t, err)
	})
}

// ---------------------------------------------------------------------------
// SyncAll
// ---------------------------------------------------------------------------

func TestSyncServiceSyncAll(t *testing.T) {
	ctx := context.Background()

	t.Run("accumulates counters across entities", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{{productDoc(1, "Widget")}}
		f.client.pages[shopify.EntityOrders] = [][]json.RawMessage{{orderDoc(500), orderDoc(501)}}

		log, err := f.service.SyncAll(ctx, integration.TenantID, integration.ID, shopify.SyncTriggerScheduled, shopify.FetchOptions{})
		require.NoError(t, err)

		assert.Equal(t, shopify.EntityFull, log.EntityType)
		assert.Equal(t, shopify.SyncLogStatusSuccess, log.Status)
		assert.Equal(t, 3, log.RecordsFetched)
		assert.Len(t, f.records.products, 1)
		assert.Len(t, f.records.orders, 2)
	})

	t.Run("skips disabled entities", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		integration.SyncOrders = false
		require.NoError(t, f.integrations.Save(ctx, integration))
		f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{{productDoc(1, "Widget")}}
		f.client.pages[shopify.EntityOrders] = [][]json.RawMessage{{orderDoc(500)}}

		log, err := f.service.SyncAll(ctx, integration.TenantID, integration.ID, shopify.SyncTriggerScheduled, shopify.FetchOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, log.RecordsFetched)
		assert.Empty(t, f.records.orders)
		_, seen := f.client.seenOpts[shopify.EntityOrders]
		assert.False(t, seen)
	})

	t.Run("continues past a failing entity", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.fetchErr[shopify.EntityProducts] = shopify.ErrUnauthorized
		f.client.pages[shopify.EntityOrders] = [][]json.RawMessage{{orderDoc(500)}}

		log, err := f.service.SyncAll(ctx, integration.TenantID, integration.ID, shopify.SyncTriggerScheduled, shopify.FetchOptions{})
		require.ErrorIs(t, err, shopify.ErrUnauthorized)

		// Orders were still pulled, so the umbrella run is partial.
		assert.Equal(t, shopify.SyncLogStatusPartial, log.Status)
		assert.Len(t, f.records.orders, 1)
	})

	t.Run("entity full delegates to full sync", func(t *testing.T) {
		f := newSyncFixture()
		integration := f.addConnected(t)
		f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{{productDoc(1, "Widget")}}

		log, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityFull, shopify.SyncTriggerManual, shopify.FetchOptions{})
		require.NoError(t, err)
		assert.Equal(t, shopify.EntityFull, log.EntityType)
	})
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestSyncServiceListSyncLogs(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	integration := f.addConnected(t)
	f.client.pages[shopify.EntityProducts] = [][]json.RawMessage{{productDoc(1, "Widget")}}

	log, err := f.service.SyncEntity(ctx, integration.TenantID, integration.ID, shopify.EntityProducts, shopify.SyncTriggerManual, shopify.FetchOptions{})
	require.NoError(t, err)

	found, err := f.service.GetSyncLog(ctx, integration.TenantID, log.ID)
	require.NoError(t, err)
	assert.Equal(t, log.ID, found.ID)

	page, err := f.service.ListSyncLogs(ctx, integration.TenantID, integration.ID, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
