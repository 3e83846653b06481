package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
	"github.com/stockhaus/backend/internal/infrastructure/persistence/models"
)

// GormIntegrationRepository implements IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// FindByID finds an integration by ID within a tenant
func (r *GormIntegrationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shopify.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shopify.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStoreURL finds an integration by its store URL within a tenant
func (r *GormIntegrationRepository) FindByStoreURL(ctx context.Context, tenantID uuid.UUID, storeURL string) (*shopify.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND store_url = ?", tenantID, storeURL).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shopify.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShopDomain resolves the integration for an inbound webhook by
// shop domain, across tenants
func (r *GormIntegrationRepository) FindByShopDomain(ctx context.Context, shopDomain string) (*shopify.Integration, error) {
	normalized, err := shopify.NormalizeStoreURL(shopDomain)
	if err != nil {
		return nil, err
	}
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("store_url = ?", normalized).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shopify.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all integrations for a tenant
func (r *GormIntegrationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]shopify.Integration, error) {
	var modelList []models.IntegrationModel
	query := r.db.WithContext(ctx).
		Model(&models.IntegrationModel{}).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(filter.Limit()).
		Offset(filter.Offset())
	if filter.Search != "" {
		query = query.Where("store_url LIKE ? OR store_name LIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if err := query.Find(&modelList).Error; err != nil {
		return nil, err
	}

	integrations := make([]shopify.Integration, 0, len(modelList))
	for i := range modelList {
		integrations = append(integrations, *modelList[i].ToDomain())
	}
	return integrations, nil
}

// FindDue returns integrations whose scheduled sync interval has
// elapsed. The status and auto-sync filters run in SQL; the
// per-integration interval check is domain logic and runs on the
// loaded rows.
func (r *GormIntegrationRepository) FindDue(ctx context.Context, now time.Time) ([]shopify.Integration, error) {
	var modelList []models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("auto_sync_enabled = ?", true).
		Where("status IN ?", []string{
			shopify.IntegrationStatusConnected.String(),
			shopify.IntegrationStatusError.String(),
		}).
		Find(&modelList).Error; err != nil {
		return nil, err
	}

	due := make([]shopify.Integration, 0, len(modelList))
	for i := range modelList {
		integration := modelList[i].ToDomain()
		if integration.SyncDue(now) {
			due = append(due, *integration)
		}
	}
	return due, nil
}

// Save upserts the integration by primary key
func (r *GormIntegrationRepository) Save(ctx context.Context, integration *shopify.Integration) error {
	var model models.IntegrationModel
	model.FromDomain(integration)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// Delete removes the integration and its mirrored records
func (r *GormIntegrationRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).
			Delete(&models.IntegrationModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shopify.ErrIntegrationNotFound
		}

		for _, model := range []any{
			&models.ProductModel{},
			&models.OrderModel{},
			&models.CustomerModel{},
			&models.InventoryLevelModel{},
			&models.SyncLogModel{},
		} {
			if err := tx.Where("integration_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormIntegrationRepository implements IntegrationRepository
var _ shopify.IntegrationRepository = (*GormIntegrationRepository)(nil)
