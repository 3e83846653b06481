package shopify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/stockhaus/backend/internal/domain/shopify"
)

// WebhookService ingests inbound webhook deliveries: it resolves the
// integration from the shop domain, verifies the HMAC signature and
// applies the payload as a single-record upsert. Every applied event
// leaves one sync log row behind.
type WebhookService struct {
	integrations shopify.IntegrationRepository
	syncLogs     shopify.SyncLogRepository
	records      shopify.RecordStore
	logger       *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	integrations shopify.IntegrationRepository,
	syncLogs shopify.SyncLogRepository,
	records shopify.RecordStore,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		integrations: integrations,
		syncLogs:     syncLogs,
		records:      records,
		logger:       logger,
	}
}

// HandleDelivery processes one raw webhook delivery.
//
// Signature verification happens before topic parsing: a delivery that
// fails the HMAC check is rejected no matter what it claims to carry.
// Unsupported topics verify fine but are acknowledged and dropped.
func (s *WebhookService) HandleDelivery(
	ctx context.Context,
	shopDomain, topicHeader, signature string,
	body []byte,
) error {
	if shopDomain == "" {
		return shopify.ErrMissingShopDomain
	}

	integration, err := s.integrations.FindByShopDomain(ctx, shopDomain)
	if err != nil {
		return err
	}

	if err := shopify.VerifyWebhookSignature(body, integration.WebhookSecret, signature); err != nil {
		s.logger.Warn("Webhook signature rejected",
			zap.String("shop_domain", shopDomain),
			zap.String("topic", topicHeader),
			zap.Error(err),
		)
		return err
	}

	topic, ok := shopify.ParseTopic(topicHeader)
	if !ok {
		// Acknowledge so Shopify stops redelivering; there is nothing
		// to apply for a topic we never subscribed to.
		s.logger.Debug("Ignoring unsupported webhook topic",
			zap.String("shop_domain", shopDomain),
			zap.String("topic", topicHeader),
		)
		return nil
	}

	entity := topic.Entity()
	if !integration.EntityEnabled(entity) {
		s.logger.Debug("Webhook for disabled entity dropped",
			zap.String("shop_domain", shopDomain),
			zap.String("entity", string(entity)),
		)
		return nil
	}

	event := shopify.WebhookEvent{
		Topic:      topic,
		ShopDomain: shopDomain,
		Payload:    body,
	}
	return s.apply(ctx, integration, event)
}

// apply maps the event payload, upserts the resulting record and
// leaves a completed sync log row for the event
func (s *WebhookService) apply(ctx context.Context, integration *shopify.Integration, event shopify.WebhookEvent) error {
	entity := event.Topic.Entity()

	mapped, err := shopify.MapRecord(integration.TenantID, integration.ID, entity, event.Payload)
	if err != nil {
		return err
	}

	var created bool
	switch record := mapped.(type) {
	case *shopify.Product:
		created, err = s.records.UpsertProduct(ctx, record)
	case *shopify.Order:
		created, err = s.records.UpsertOrder(ctx, record)
	case *shopify.Customer:
		created, err = s.records.UpsertCustomer(ctx, record)
	case *shopify.InventoryLevel:
		created, err = s.records.UpsertInventoryLevel(ctx, record)
	default:
		return fmt.Errorf("shopify: unexpected record type %T", mapped)
	}
	if err != nil {
		return err
	}

	s.recordEvent(ctx, integration, event, created)

	s.logger.Info("Webhook applied",
		zap.String("shop_domain", event.ShopDomain),
		zap.String("topic", string(event.Topic)),
		zap.String("entity", string(entity)),
		zap.Bool("created", created),
	)
	return nil
}

// recordEvent writes the audit row for one applied event. The upsert
// already landed, so a failed audit write is logged but does not turn
// the delivery into a redelivery.
func (s *WebhookService) recordEvent(ctx context.Context, integration *shopify.Integration, event shopify.WebhookEvent, created bool) {
	log := shopify.StartSyncLog(integration, event.Topic.Entity(), shopify.SyncTriggerWebhook)

	details, _ := json.Marshal(map[string]string{
		"topic":       string(event.Topic),
		"shop_domain": event.ShopDomain,
	})
	log.Details = string(details)

	if created {
		log.RecordBatch(1, 1, 0, 0)
	} else {
		log.RecordBatch(1, 0, 1, 0)
	}

	if err := log.Complete(shopify.SyncLogStatusSuccess, ""); err != nil {
		s.logger.Warn("Failed to close webhook sync log",
			zap.String("integration_id", integration.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.syncLogs.Create(ctx, log); err != nil {
		s.logger.Warn("Failed to persist webhook sync log",
			zap.String("integration_id", integration.ID.String()),
			zap.Error(err),
		)
	}
}
