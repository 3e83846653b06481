package shopify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
)

// SyncService orchestrates sync runs: it pulls pages from the Admin
// API, maps the raw documents into canonical records, upserts them and
// keeps the audit log and integration health current.
type SyncService struct {
	integrations shopify.IntegrationRepository
	syncLogs     shopify.SyncLogRepository
	records      shopify.RecordStore
	clients      shopify.ClientFactory
	logger       *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	integrations shopify.IntegrationRepository,
	syncLogs shopify.SyncLogRepository,
	records shopify.RecordStore,
	clients shopify.ClientFactory,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		integrations: integrations,
		syncLogs:     syncLogs,
		records:      records,
		clients:      clients,
		logger:       logger,
	}
}

// ---------------------------------------------------------------------------
// Sync Operations
// ---------------------------------------------------------------------------

// SyncEntity runs a sync for a single entity type. The returned log is
// the completed audit record; a non-nil error means the run finished
// with status error or partial, never that no log was written. The
// options narrow the fetch window: a zero UpdatedAfter falls back to
// the incremental cursor and a zero Limit keeps the default page size.
func (s *SyncService) SyncEntity(
	ctx context.Context,
	tenantID, integrationID uuid.UUID,
	entity shopify.EntityType,
	trigger shopify.SyncTrigger,
	opts shopify.FetchOptions,
) (*shopify.SyncLog, error) {
	if entity == shopify.EntityFull {
		return s.SyncAll(ctx, tenantID, integrationID, trigger, opts)
	}
	if !entity.IsFetchable() {
		return nil, fmt.Errorf("shopify: cannot sync entity %q", entity)
	}

	integration, err := s.integrations.FindByID(ctx, tenantID, integrationID)
	if err != nil {
		return nil, err
	}
	if err := s.guardRunnable(ctx, integration, entity); err != nil {
		return nil, err
	}

	log := shopify.StartSyncLog(integration, entity, trigger)
	if err := s.syncLogs.Create(ctx, log); err != nil {
		return nil, err
	}
	s.markSyncing(ctx, integration)

	runErr := s.runEntity(ctx, integration, log, entity, opts)
	return s.finish(ctx, integration, log, runErr)
}

// SyncAll runs a full sync covering every enabled entity. Counters of
// all entity runs accumulate into one umbrella log entry.
func (s *SyncService) SyncAll(
	ctx context.Context,
	tenantID, integrationID uuid.UUID,
	trigger shopify.SyncTrigger,
	opts shopify.FetchOptions,
) (*shopify.SyncLog, error) {
	integration, err := s.integrations.FindByID(ctx, tenantID, integrationID)
	if err != nil {
		return nil, err
	}
	if err := s.guardRunnable(ctx, integration, shopify.EntityFull); err != nil {
		return nil, err
	}

	log := shopify.StartSyncLog(integration, shopify.EntityFull, trigger)
	if err := s.syncLogs.Create(ctx, log); err != nil {
		return nil, err
	}
	s.markSyncing(ctx, integration)

	// A failed entity does not stop the remaining ones; the first
	// error decides the run's terminal status.
	var runErr error
	for _, entity := range shopify.FetchableEntities() {
		if !integration.EntityEnabled(entity) {
			continue
		}
		if err := s.runEntity(ctx, integration, log, entity, opts); err != nil {
			s.logger.Warn("Entity sync failed during full sync",
				zap.String("integration_id", integration.ID.String()),
				zap.String("entity", string(entity)),
				zap.Error(err),
			)
			if runErr == nil {
				runErr = err
			}
		}
	}

	return s.finish(ctx, integration, log, runErr)
}

// guardRunnable rejects runs the integration's state does not allow
func (s *SyncService) guardRunnable(ctx context.Context, integration *shopify.Integration, entity shopify.EntityType) error {
	if integration.Status == shopify.IntegrationStatusPaused {
		return shopify.ErrIntegrationPaused
	}
	if integration.Status == shopify.IntegrationStatusSyncing {
		return shopify.ErrSyncInProgress
	}
	if !integration.Status.CanSync() {
		return shopify.ErrMissingAccessToken
	}

	running, err := s.syncLogs.HasRunning(ctx, integration.ID, entity)
	if err != nil {
		return err
	}
	if running {
		return shopify.ErrSyncInProgress
	}
	return nil
}

// markSyncing flips the integration's status while a run is in flight.
// The flip is advisory; a failure to persist it never blocks the run.
func (s *SyncService) markSyncing(ctx context.Context, integration *shopify.Integration) {
	integration.BeginSync()
	if err := s.integrations.Save(ctx, integration); err != nil {
		s.logger.Warn("Failed to mark integration as syncing",
			zap.String("integration_id", integration.ID.String()),
			zap.Error(err),
		)
	}
}

// runEntity pulls every page for one entity and accumulates counters
// into the given log
func (s *SyncService) runEntity(
	ctx context.Context,
	integration *shopify.Integration,
	log *shopify.SyncLog,
	entity shopify.EntityType,
	opts shopify.FetchOptions,
) error {
	if opts.UpdatedAfter.IsZero() && integration.LastSuccessfulSyncAt != nil {
		opts.UpdatedAfter = *integration.LastSuccessfulSyncAt
	}

	client := s.clients.ForIntegration(integration)
	iter := client.Fetch(ctx, entity, opts)

	for {
		page, more, err := iter.Next(ctx)
		if err != nil {
			return err
		}

		var created, updated, failed int
		for _, raw := range page {
			wasCreated, upsertErr := s.upsertRecord(ctx, integration, entity, raw)
			switch {
			case upsertErr != nil:
				failed++
				s.logger.Warn("Record rejected during sync",
					zap.String("integration_id", integration.ID.String()),
					zap.String("entity", string(entity)),
					zap.Error(upsertErr),
				)
			case wasCreated:
				created++
			default:
				updated++
			}
		}

		log.RecordBatch(len(page), created, updated, failed)
		if err := s.syncLogs.Update(ctx, log); err != nil {
			s.logger.Warn("Failed to persist sync progress",
				zap.String("sync_log_id", log.ID.String()),
				zap.Error(err),
			)
		}

		if !more {
			return nil
		}
	}
}

// upsertRecord maps one raw document and writes it through the record store
func (s *SyncService) upsertRecord(
	ctx context.Context,
	integration *shopify.Integration,
	entity shopify.EntityType,
	raw []byte,
) (bool, error) {
	mapped, err := shopify.MapRecord(integration.TenantID, integration.ID, entity, raw)
	if err != nil {
		return false, err
	}

	switch record := mapped.(type) {
	case *shopify.Product:
		return s.records.UpsertProduct(ctx, record)
	case *shopify.Order:
		return s.records.UpsertOrder(ctx, record)
	case *shopify.Customer:
		return s.records.UpsertCustomer(ctx, record)
	case *shopify.InventoryLevel:
		return s.records.UpsertInventoryLevel(ctx, record)
	default:
		return false, fmt.Errorf("shopify: unexpected record type %T", mapped)
	}
}

// finish closes the log, applies the outcome to the integration and
// persists both
func (s *SyncService) finish(
	ctx context.Context,
	integration *shopify.Integration,
	log *shopify.SyncLog,
	runErr error,
) (*shopify.SyncLog, error) {
	status := shopify.SyncLogStatusSuccess
	errMsg := ""

	switch {
	case runErr != nil && log.RecordsProcessed > 0:
		status = shopify.SyncLogStatusPartial
		errMsg = runErr.Error()
	case runErr != nil:
		status = shopify.SyncLogStatusError
		errMsg = runErr.Error()
	case log.RecordsFailed > 0:
		// The fetch completed but some documents were rejected; the
		// window is refetched next run so the rejects get another pass.
		status = shopify.SyncLogStatusPartial
		errMsg = fmt.Sprintf("%d records rejected", log.RecordsFailed)
	}

	if err := log.Complete(status, errMsg); err != nil {
		return log, err
	}
	if err := s.syncLogs.Update(ctx, log); err != nil {
		return log, err
	}

	applied := integration.ApplyOutcome(log.Outcome())
	if err := s.integrations.Save(ctx, &applied); err != nil {
		return log, err
	}

	s.logger.Info("Sync run finished",
		zap.String("integration_id", integration.ID.String()),
		zap.String("entity", string(log.EntityType)),
		zap.String("status", string(log.Status)),
		zap.Int("fetched", log.RecordsFetched),
		zap.Int("created", log.RecordsCreated),
		zap.Int("updated", log.RecordsUpdated),
		zap.Int("failed", log.RecordsFailed),
		zap.Duration("duration", log.Duration()),
	)

	return log, runErr
}

// ---------------------------------------------------------------------------
// Sync Log Queries
// ---------------------------------------------------------------------------

// GetSyncLog returns one sync log entry
func (s *SyncService) GetSyncLog(ctx context.Context, tenantID, id uuid.UUID) (*shopify.SyncLog, error) {
	return s.syncLogs.FindByID(ctx, tenantID, id)
}

// ListSyncLogs returns recent sync runs, newest first. A nil
// integration ID lists runs across all of the tenant's stores.
func (s *SyncService) ListSyncLogs(
	ctx context.Context,
	tenantID, integrationID uuid.UUID,
	filter shared.Filter,
) (shared.Paginated[shopify.SyncLog], error) {
	return s.syncLogs.FindRecent(ctx, tenantID, integrationID, filter)
}

// ---------------------------------------------------------------------------
// Record Queries
// ---------------------------------------------------------------------------

// ListProducts returns the tenant's synced products
func (s *SyncService) ListProducts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Product], error) {
	return s.records.ListProducts(ctx, tenantID, filter)
}

// ListOrders returns the tenant's synced orders
func (s *SyncService) ListOrders(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Order], error) {
	return s.records.ListOrders(ctx, tenantID, filter)
}

// ListCustomers returns the tenant's synced customers
func (s *SyncService) ListCustomers(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Customer], error) {
	return s.records.ListCustomers(ctx, tenantID, filter)
}

// ListInventoryLevels returns the tenant's synced inventory levels
func (s *SyncService) ListInventoryLevels(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.InventoryLevel], error) {
	return s.records.ListInventoryLevels(ctx, tenantID, filter)
}
