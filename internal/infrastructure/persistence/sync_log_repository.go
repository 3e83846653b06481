package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
	"github.com/stockhaus/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Create persists a new sync log entry
func (r *GormSyncLogRepository) Create(ctx context.Context, log *shopify.SyncLog) error {
	var model models.SyncLogModel
	model.FromDomain(log)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists the mutable fields of a sync log entry
func (r *GormSyncLogRepository) Update(ctx context.Context, log *shopify.SyncLog) error {
	var model models.SyncLogModel
	model.FromDomain(log)

	result := r.db.WithContext(ctx).
		Model(&models.SyncLogModel{}).
		Where("id = ?", log.ID).
		Updates(map[string]any{
			"status":            model.Status,
			"records_fetched":   model.RecordsFetched,
			"records_processed": model.RecordsProcessed,
			"records_created":   model.RecordsCreated,
			"records_updated":   model.RecordsUpdated,
			"records_failed":    model.RecordsFailed,
			"error_message":     model.ErrorMessage,
			"completed_at":      model.CompletedAt,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a sync log by ID within a tenant
func (r *GormSyncLogRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shopify.SyncLog, error) {
	var model models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent returns the newest sync logs for an integration.
// A nil integration ID returns logs across all of the tenant's
// integrations.
func (r *GormSyncLogRepository) FindRecent(ctx context.Context, tenantID, integrationID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.SyncLog], error) {
	query := r.db.WithContext(ctx).
		Model(&models.SyncLogModel{}).
		Where("tenant_id = ?", tenantID)
	if integrationID != uuid.Nil {
		query = query.Where("integration_id = ?", integrationID)
	}
	if entity, ok := filter.Filters["entity_type"].(string); ok && entity != "" {
		query = query.Where("entity_type = ?", entity)
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[shopify.SyncLog]{}, err
	}

	orderBy := ValidateSortField(filter.OrderBy, SyncLogSortFields, "started_at")
	var modelList []models.SyncLogModel
	if err := query.
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&modelList).Error; err != nil {
		return shared.Paginated[shopify.SyncLog]{}, err
	}

	logs := make([]shopify.SyncLog, 0, len(modelList))
	for i := range modelList {
		logs = append(logs, *modelList[i].ToDomain())
	}
	return shared.NewPaginated(logs, total, filter.Page, filter.PageSize), nil
}

// HasRunning reports whether a non-terminal run exists for the
// integration and entity type
func (r *GormSyncLogRepository) HasRunning(ctx context.Context, integrationID uuid.UUID, entity shopify.EntityType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SyncLogModel{}).
		Where("integration_id = ? AND entity_type = ? AND status = ?",
			integrationID, entity.String(), shopify.SyncLogStatusStarted.String()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ shopify.SyncLogRepository = (*GormSyncLogRepository)(nil)
