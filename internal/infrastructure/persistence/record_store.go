package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockhaus/backend/internal/domain/shared"
	"github.com/stockhaus/backend/internal/domain/shopify"
	"github.com/stockhaus/backend/internal/infrastructure/persistence/models"
)

// GormRecordStore implements RecordStore using GORM.
// Upserts insert with ON CONFLICT DO NOTHING on the remote natural key
// and fall back to an update when the row already existed, so
// concurrent writers of the same remote record never fail. Every
// upsert stamps synced_at with the write time.
type GormRecordStore struct {
	db *gorm.DB
}

// NewGormRecordStore creates a new GormRecordStore
func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

// ---------------------------------------------------------------------------
// Upserts
// ---------------------------------------------------------------------------

// UpsertProduct writes a mirrored product, returning true on create
func (s *GormRecordStore) UpsertProduct(ctx context.Context, p *shopify.Product) (bool, error) {
	var model models.ProductModel
	model.FromDomain(p)
	model.SyncedAt = time.Now().UTC()

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "integration_id"}, {Name: "shopify_product_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	return false, s.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("integration_id = ? AND shopify_product_id = ?", p.IntegrationID, p.ShopifyProductID).
		Updates(map[string]any{
			"title":              model.Title,
			"handle":             model.Handle,
			"vendor":             model.Vendor,
			"product_type":       model.ProductType,
			"status":             model.Status,
			"tags":               model.Tags,
			"body_html":          model.BodyHTML,
			"price_min":          model.PriceMin,
			"price_max":          model.PriceMax,
			"variant_count":      model.VariantCount,
			"options":            model.Options,
			"variants":           model.Variants,
			"images":             model.Images,
			"published_at":       model.PublishedAt,
			"shopify_created_at": model.ShopifyCreatedAt,
			"shopify_updated_at": model.ShopifyUpdatedAt,
			"synced_at":          model.SyncedAt,
			"raw_payload":        model.RawPayload,
			"updated_at":         model.UpdatedAt,
		}).Error
}

// UpsertOrder writes a mirrored order, returning true on create
func (s *GormRecordStore) UpsertOrder(ctx context.Context, o *shopify.Order) (bool, error) {
	var model models.OrderModel
	model.FromDomain(o)
	model.SyncedAt = time.Now().UTC()

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "integration_id"}, {Name: "shopify_order_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	return false, s.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("integration_id = ? AND shopify_order_id = ?", o.IntegrationID, o.ShopifyOrderID).
		Updates(map[string]any{
			"order_number":        model.OrderNumber,
			"name":                model.Name,
			"email":               model.Email,
			"currency":            model.Currency,
			"total_price":         model.TotalPrice,
			"subtotal_price":      model.SubtotalPrice,
			"total_tax":           model.TotalTax,
			"total_discount":      model.TotalDiscount,
			"financial_status":    model.FinancialStatus,
			"fulfillment_status":  model.FulfillmentStatus,
			"shopify_customer_id": model.ShopifyCustomerID,
			"line_item_count":     model.LineItemCount,
			"customer":            model.Customer,
			"line_items":          model.LineItems,
			"shipping_address":    model.ShippingAddress,
			"billing_address":     model.BillingAddress,
			"processed_at":        model.ProcessedAt,
			"closed_at":           model.ClosedAt,
			"cancelled_at":        model.CancelledAt,
			"shopify_created_at":  model.ShopifyCreatedAt,
			"shopify_updated_at":  model.ShopifyUpdatedAt,
			"synced_at":           model.SyncedAt,
			"raw_payload":         model.RawPayload,
			"updated_at":          model.UpdatedAt,
		}).Error
}

// UpsertCustomer writes a mirrored customer, returning true on create
func (s *GormRecordStore) UpsertCustomer(ctx context.Context, c *shopify.Customer) (bool, error) {
	var model models.CustomerModel
	model.FromDomain(c)
	model.SyncedAt = time.Now().UTC()

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "integration_id"}, {Name: "shopify_customer_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	return false, s.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("integration_id = ? AND shopify_customer_id = ?", c.IntegrationID, c.ShopifyCustomerID).
		Updates(map[string]any{
			"email":              model.Email,
			"first_name":         model.FirstName,
			"last_name":          model.LastName,
			"phone":              model.Phone,
			"state":              model.State,
			"tags":               model.Tags,
			"orders_count":       model.OrdersCount,
			"total_spent":        model.TotalSpent,
			"verified_email":     model.VerifiedEmail,
			"last_order_id":      model.LastOrderID,
			"last_order_name":    model.LastOrderName,
			"addresses":          model.Addresses,
			"default_address":    model.DefaultAddress,
			"shopify_created_at": model.ShopifyCreatedAt,
			"shopify_updated_at": model.ShopifyUpdatedAt,
			"synced_at":          model.SyncedAt,
			"raw_payload":        model.RawPayload,
			"updated_at":         model.UpdatedAt,
		}).Error
}

// UpsertInventoryLevel writes a mirrored inventory level, returning
// true on create
func (s *GormRecordStore) UpsertInventoryLevel(ctx context.Context, l *shopify.InventoryLevel) (bool, error) {
	var model models.InventoryLevelModel
	model.FromDomain(l)
	model.SyncedAt = time.Now().UTC()

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "integration_id"},
				{Name: "inventory_item_id"},
				{Name: "location_id"},
			},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	return false, s.db.WithContext(ctx).
		Model(&models.InventoryLevelModel{}).
		Where("integration_id = ? AND inventory_item_id = ? AND location_id = ?",
			l.IntegrationID, l.InventoryItemID, l.LocationID).
		Updates(map[string]any{
			"sku":                model.SKU,
			"available":          model.Available,
			"committed":          model.Committed,
			"incoming":           model.Incoming,
			"shopify_updated_at": model.ShopifyUpdatedAt,
			"synced_at":          model.SyncedAt,
			"raw_payload":        model.RawPayload,
			"updated_at":         model.UpdatedAt,
		}).Error
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *GormRecordStore) listQuery(ctx context.Context, model any, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(model).Where("tenant_id = ?", tenantID)
	if integrationID, ok := filter.Filters["integration_id"].(uuid.UUID); ok && integrationID != uuid.Nil {
		query = query.Where("integration_id = ?", integrationID)
	}
	return query
}

// ListProducts returns mirrored products for a tenant
func (s *GormRecordStore) ListProducts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Product], error) {
	query := s.listQuery(ctx, &models.ProductModel{}, tenantID, filter)
	if filter.Search != "" {
		query = query.Where("title LIKE ? OR vendor LIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[shopify.Product]{}, err
	}

	orderBy := ValidateSortField(filter.OrderBy, ProductSortFields, "shopify_updated_at")
	var modelList []models.ProductModel
	if err := query.
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&modelList).Error; err != nil {
		return shared.Paginated[shopify.Product]{}, err
	}

	items := make([]shopify.Product, 0, len(modelList))
	for i := range modelList {
		items = append(items, *modelList[i].ToDomain())
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// ListOrders returns mirrored orders for a tenant
func (s *GormRecordStore) ListOrders(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Order], error) {
	query := s.listQuery(ctx, &models.OrderModel{}, tenantID, filter)
	if status, ok := filter.Filters["financial_status"].(string); ok && status != "" {
		query = query.Where("financial_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[shopify.Order]{}, err
	}

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "shopify_created_at")
	var modelList []models.OrderModel
	if err := query.
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&modelList).Error; err != nil {
		return shared.Paginated[shopify.Order]{}, err
	}

	items := make([]shopify.Order, 0, len(modelList))
	for i := range modelList {
		items = append(items, *modelList[i].ToDomain())
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// ListCustomers returns mirrored customers for a tenant
func (s *GormRecordStore) ListCustomers(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.Customer], error) {
	query := s.listQuery(ctx, &models.CustomerModel{}, tenantID, filter)
	if filter.Search != "" {
		query = query.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[shopify.Customer]{}, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CustomerSortFields, "shopify_updated_at")
	var modelList []models.CustomerModel
	if err := query.
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&modelList).Error; err != nil {
		return shared.Paginated[shopify.Customer]{}, err
	}

	items := make([]shopify.Customer, 0, len(modelList))
	for i := range modelList {
		items = append(items, *modelList[i].ToDomain())
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// ListInventoryLevels returns mirrored inventory levels for a tenant
func (s *GormRecordStore) ListInventoryLevels(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[shopify.InventoryLevel], error) {
	query := s.listQuery(ctx, &models.InventoryLevelModel{}, tenantID, filter)
	if locationID, ok := filter.Filters["location_id"].(string); ok && locationID != "" {
		query = query.Where("location_id = ?", locationID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[shopify.InventoryLevel]{}, err
	}

	orderBy := ValidateSortField(filter.OrderBy, InventoryLevelSortFields, "shopify_updated_at")
	var modelList []models.InventoryLevelModel
	if err := query.
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&modelList).Error; err != nil {
		return shared.Paginated[shopify.InventoryLevel]{}, err
	}

	items := make([]shopify.InventoryLevel, 0, len(modelList))
	for i := range modelList {
		items = append(items, *modelList[i].ToDomain())
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// CountByEntity returns the mirrored record counts for one integration
func (s *GormRecordStore) CountByEntity(ctx context.Context, integrationID uuid.UUID) (map[shopify.EntityType]int64, error) {
	counts := make(map[shopify.EntityType]int64, 4)
	entities := []struct {
		entity shopify.EntityType
		model  any
	}{
		{shopify.EntityProducts, &models.ProductModel{}},
		{shopify.EntityOrders, &models.OrderModel{}},
		{shopify.EntityCustomers, &models.CustomerModel{}},
		{shopify.EntityInventory, &models.InventoryLevelModel{}},
	}
	for _, e := range entities {
		var count int64
		if err := s.db.WithContext(ctx).
			Model(e.model).
			Where("integration_id = ?", integrationID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		counts[e.entity] = count
	}
	return counts, nil
}

// Ensure GormRecordStore implements RecordStore
var _ shopify.RecordStore = (*GormRecordStore)(nil)
