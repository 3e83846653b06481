package shopify

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockhaus/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// EntityType represents a syncable Shopify entity
// ---------------------------------------------------------------------------

// EntityType represents a syncable Shopify entity
type EntityType string

const (
	// EntityProducts covers the product catalog including variants
	EntityProducts EntityType = "products"
	// EntityOrders covers orders and their line items
	EntityOrders EntityType = "orders"
	// EntityCustomers covers customer profiles
	EntityCustomers EntityType = "customers"
	// EntityInventory covers inventory levels per location
	EntityInventory EntityType = "inventory"
	// EntityFull is the umbrella log entry written by a full sync run
	EntityFull EntityType = "full"
)

// IsValid returns true if the entity type is valid
func (e EntityType) IsValid() bool {
	switch e {
	case EntityProducts, EntityOrders, EntityCustomers, EntityInventory, EntityFull:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityType
func (e EntityType) String() string {
	return string(e)
}

// IsFetchable returns true if the entity can be fetched from the Admin API.
// EntityFull is a roll-up and never fetched directly.
func (e EntityType) IsFetchable() bool {
	return e.IsValid() && e != EntityFull
}

// FetchableEntities returns the entity types a full sync iterates, in order
func FetchableEntities() []EntityType {
	return []EntityType{EntityProducts, EntityOrders, EntityCustomers, EntityInventory}
}

// ---------------------------------------------------------------------------
// SyncLogStatus represents the lifecycle state of a sync run
// ---------------------------------------------------------------------------

// SyncLogStatus represents the lifecycle state of a sync run
type SyncLogStatus string

const (
	// SyncLogStatusStarted indicates the run is in progress
	SyncLogStatusStarted SyncLogStatus = "started"
	// SyncLogStatusSuccess indicates every fetched record was processed
	SyncLogStatusSuccess SyncLogStatus = "success"
	// SyncLogStatusError indicates the run failed before processing anything
	SyncLogStatusError SyncLogStatus = "error"
	// SyncLogStatusPartial indicates some records were processed before a failure
	SyncLogStatusPartial SyncLogStatus = "partial"
)

// IsValid returns true if the status is valid
func (s SyncLogStatus) IsValid() bool {
	switch s {
	case SyncLogStatusStarted, SyncLogStatusSuccess, SyncLogStatusError, SyncLogStatusPartial:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncLogStatus
func (s SyncLogStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the run has finished
func (s SyncLogStatus) IsTerminal() bool {
	return s == SyncLogStatusSuccess || s == SyncLogStatusError || s == SyncLogStatusPartial
}

// ---------------------------------------------------------------------------
// SyncLog Entity
// ---------------------------------------------------------------------------

// SyncLog is the audit record of a single sync run for one entity type
type SyncLog struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	IntegrationID uuid.UUID

	EntityType EntityType
	Status     SyncLogStatus
	Trigger    SyncTrigger

	RecordsFetched   int
	RecordsProcessed int
	RecordsCreated   int
	RecordsUpdated   int
	RecordsFailed    int

	ErrorMessage string

	// Details carries run context as JSON, e.g. the webhook topic and
	// shop domain for webhook-triggered entries
	Details string

	StartedAt   time.Time
	CompletedAt *time.Time
}

// SyncTrigger identifies what started a sync run
type SyncTrigger string

const (
	// SyncTriggerManual is an operator-initiated run
	SyncTriggerManual SyncTrigger = "manual"
	// SyncTriggerScheduled is a run started by the cron trigger
	SyncTriggerScheduled SyncTrigger = "scheduled"
	// SyncTriggerWebhook is a run started in response to a webhook event
	SyncTriggerWebhook SyncTrigger = "webhook"
)

// IsValid returns true if the trigger is valid
func (t SyncTrigger) IsValid() bool {
	switch t {
	case SyncTriggerManual, SyncTriggerScheduled, SyncTriggerWebhook:
		return true
	default:
		return false
	}
}

// StartSyncLog opens a log entry for a run that is beginning now
func StartSyncLog(integration *Integration, entity EntityType, trigger SyncTrigger) *SyncLog {
	return &SyncLog{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      integration.TenantID,
		IntegrationID: integration.ID,
		EntityType:    entity,
		Status:        SyncLogStatusStarted,
		Trigger:       trigger,
		StartedAt:     time.Now(),
	}
}

// Complete closes the log entry with a terminal status
func (l *SyncLog) Complete(status SyncLogStatus, errMsg string) error {
	if l.Status.IsTerminal() {
		return ErrSyncLogClosed
	}
	if !status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	l.Status = status
	l.ErrorMessage = errMsg
	l.CompletedAt = &now
	l.UpdatedAt = now
	return nil
}

// RecordBatch accumulates the counters for one processed page
func (l *SyncLog) RecordBatch(fetched, created, updated, failed int) {
	l.RecordsFetched += fetched
	l.RecordsCreated += created
	l.RecordsUpdated += updated
	l.RecordsFailed += failed
	l.RecordsProcessed += created + updated
}

// Duration returns how long the run took, or zero if still in progress
func (l *SyncLog) Duration() time.Duration {
	if l.CompletedAt == nil {
		return 0
	}
	return l.CompletedAt.Sub(l.StartedAt)
}

// Outcome converts a finished log into the outcome applied to the integration
func (l *SyncLog) Outcome() SyncOutcome {
	finishedAt := time.Now()
	if l.CompletedAt != nil {
		finishedAt = *l.CompletedAt
	}
	return SyncOutcome{
		Status:     l.Status,
		Error:      l.ErrorMessage,
		FinishedAt: finishedAt,
	}
}
