package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockhaus/backend/internal/domain/shopify"
)

// ---------------------------------------------------------------------------
// SyncCronTriggerConfig
// ---------------------------------------------------------------------------

// SyncCronTriggerConfig holds configuration for the sync cron trigger
type SyncCronTriggerConfig struct {
	// CheckInterval is how often to look for integrations that are due
	CheckInterval time.Duration

	// DefaultSyncIntervalMinutes is the default sync interval if an
	// integration has none configured
	DefaultSyncIntervalMinutes int
}

// DefaultSyncCronTriggerConfig returns default configuration
func DefaultSyncCronTriggerConfig() SyncCronTriggerConfig {
	return SyncCronTriggerConfig{
		CheckInterval:              time.Minute,
		DefaultSyncIntervalMinutes: shopify.DefaultSyncFrequencyMinutes,
	}
}

// ---------------------------------------------------------------------------
// SyncCronTrigger
// ---------------------------------------------------------------------------

// SyncCronTrigger periodically scans for due integrations and submits
// full-sync jobs for them
type SyncCronTrigger struct {
	config       SyncCronTriggerConfig
	scheduler    *SyncScheduler
	integrations shopify.IntegrationRepository
	logger       *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Track last scheduled time per integration to avoid duplicate scheduling
	lastScheduledMu sync.RWMutex
	lastScheduled   map[uuid.UUID]time.Time

	now func() time.Time
}

// NewSyncCronTrigger creates a new sync cron trigger
func NewSyncCronTrigger(
	config SyncCronTriggerConfig,
	scheduler *SyncScheduler,
	integrations shopify.IntegrationRepository,
	logger *zap.Logger,
) *SyncCronTrigger {
	return &SyncCronTrigger{
		config:        config,
		scheduler:     scheduler,
		integrations:  integrations,
		logger:        logger,
		lastScheduled: make(map[uuid.UUID]time.Time),
		now:           time.Now,
	}
}

// Start starts the cron trigger
func (c *SyncCronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Sync cron trigger started",
		zap.Duration("check_interval", c.config.CheckInterval),
		zap.Int("default_sync_interval_minutes", c.config.DefaultSyncIntervalMinutes),
	)

	return nil
}

// Stop stops the cron trigger
func (c *SyncCronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Sync cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically checks and triggers sync jobs
func (c *SyncCronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	// Run immediately on start
	c.checkAndSchedule(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndSchedule(ctx)
		}
	}
}

// checkAndSchedule scans for due integrations and schedules full syncs
func (c *SyncCronTrigger) checkAndSchedule(ctx context.Context) {
	now := c.now()

	due, err := c.integrations.FindDue(ctx, now)
	if err != nil {
		c.logger.Error("Failed to find due integrations", zap.Error(err))
		return
	}

	if len(due) == 0 {
		c.logger.Debug("No integrations due for sync")
		return
	}

	c.logger.Debug("Checking sync schedules",
		zap.Int("due_count", len(due)),
	)

	for _, integ := range due {
		if !c.shouldSchedule(integ, now) {
			continue
		}

		c.logger.Info("Scheduling store sync",
			zap.String("integration_id", integ.ID.String()),
			zap.String("tenant_id", integ.TenantID.String()),
			zap.String("store_url", integ.StoreURL),
		)

		if err := c.scheduler.ScheduleFullSync(integ.TenantID, integ.ID, shopify.SyncTriggerScheduled); err != nil {
			c.logger.Error("Failed to schedule store sync",
				zap.String("integration_id", integ.ID.String()),
				zap.Error(err),
			)
			continue
		}

		c.updateLastScheduled(integ.ID, now)
	}
}

// shouldSchedule reports whether enough time has passed since this
// integration was last handed to the scheduler. The repository already
// filters on the integration's own interval; this guard stops the same
// integration being queued again while its previous job is still pending.
func (c *SyncCronTrigger) shouldSchedule(integ shopify.Integration, now time.Time) bool {
	intervalMinutes := integ.SyncFrequencyMinutes
	if intervalMinutes <= 0 {
		intervalMinutes = c.config.DefaultSyncIntervalMinutes
	}
	interval := time.Duration(intervalMinutes) * time.Minute

	c.lastScheduledMu.RLock()
	lastScheduled, exists := c.lastScheduled[integ.ID]
	c.lastScheduledMu.RUnlock()

	return !exists || now.Sub(lastScheduled) >= interval
}

// updateLastScheduled records when an integration was last queued
func (c *SyncCronTrigger) updateLastScheduled(integrationID uuid.UUID, t time.Time) {
	c.lastScheduledMu.Lock()
	c.lastScheduled[integrationID] = t
	c.lastScheduledMu.Unlock()
}

// TriggerManualSync queues an immediate sync for a single entity
func (c *SyncCronTrigger) TriggerManualSync(tenantID, integrationID uuid.UUID, entity shopify.EntityType) error {
	if !entity.IsValid() {
		return ErrUnknownEntity
	}

	c.logger.Info("Manual sync triggered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("integration_id", integrationID.String()),
		zap.String("entity", string(entity)),
	)

	return c.scheduler.ScheduleSync(tenantID, integrationID, entity, shopify.SyncTriggerManual)
}

// GetStats returns statistics about the trigger for monitoring endpoints
func (c *SyncCronTrigger) GetStats() map[string]interface{} {
	c.lastScheduledMu.RLock()
	defer c.lastScheduledMu.RUnlock()

	stats := make(map[string]interface{})
	stats["is_running"] = c.isRunning
	stats["check_interval"] = c.config.CheckInterval.String()
	stats["tracked_integrations"] = len(c.lastScheduled)

	lastScheduledTimes := make(map[string]string)
	for id, t := range c.lastScheduled {
		lastScheduledTimes[id.String()] = t.Format(time.RFC3339)
	}
	stats["last_scheduled"] = lastScheduledTimes

	return stats
}
