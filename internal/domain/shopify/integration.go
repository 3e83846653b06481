package shopify

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockhaus/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// IntegrationStatus represents the connection health of a store integration
// ---------------------------------------------------------------------------

// IntegrationStatus represents the connection health of a store integration
type IntegrationStatus string

const (
	// IntegrationStatusDisconnected indicates no valid credentials are present
	IntegrationStatusDisconnected IntegrationStatus = "DISCONNECTED"
	// IntegrationStatusConnected indicates credentials verified, ready to sync
	IntegrationStatusConnected IntegrationStatus = "CONNECTED"
	// IntegrationStatusSyncing indicates a sync run is currently executing
	IntegrationStatusSyncing IntegrationStatus = "SYNCING"
	// IntegrationStatusError indicates the last sync run failed
	IntegrationStatusError IntegrationStatus = "ERROR"
	// IntegrationStatusPaused indicates syncing is suspended by an operator
	IntegrationStatusPaused IntegrationStatus = "PAUSED"
)

// IsValid returns true if the status is valid
func (s IntegrationStatus) IsValid() bool {
	switch s {
	case IntegrationStatusDisconnected, IntegrationStatusConnected,
		IntegrationStatusSyncing, IntegrationStatusError, IntegrationStatusPaused:
		return true
	default:
		return false
	}
}

// String returns the string representation of IntegrationStatus
func (s IntegrationStatus) String() string {
	return string(s)
}

// CanSync returns true if a sync run may be started in this status
func (s IntegrationStatus) CanSync() bool {
	switch s {
	case IntegrationStatusConnected, IntegrationStatusError:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Integration Aggregate
// ---------------------------------------------------------------------------

// Integration is a tenant's connection to a single Shopify store.
// Health fields (Status, LastSyncAt, LastSuccessfulSyncAt, LastError,
// LastErrorAt, ErrorCount) are only advanced through BeginSync and
// ApplyOutcome.
type Integration struct {
	shared.BaseEntity
	TenantID uuid.UUID

	// StoreURL is the myshopify domain, e.g. "acme.myshopify.com"
	StoreURL    string
	StoreName   string
	AccessToken string
	APIVersion  string

	WebhookSecret string

	Status IntegrationStatus

	LastError   string
	LastErrorAt *time.Time
	// ErrorCount is the number of consecutive failed runs; a
	// successful run resets it to zero.
	ErrorCount int

	// AutoSyncEnabled gates scheduled runs only; manual triggers and
	// webhooks still apply.
	AutoSyncEnabled bool

	SyncProducts  bool
	SyncOrders    bool
	SyncCustomers bool
	SyncInventory bool

	// SyncFrequencyMinutes is the scheduled interval between automatic runs
	SyncFrequencyMinutes int

	LastSyncAt           *time.Time
	LastSuccessfulSyncAt *time.Time
}

// DefaultAPIVersion is the Shopify Admin API version used when none is configured.
const DefaultAPIVersion = "2024-10"

// DefaultSyncFrequencyMinutes is the default scheduled sync interval.
const DefaultSyncFrequencyMinutes = 15

// NewIntegration creates an integration for a tenant's store
func NewIntegration(tenantID uuid.UUID, storeURL, storeName string) (*Integration, error) {
	normalized, err := NormalizeStoreURL(storeURL)
	if err != nil {
		return nil, err
	}
	return &Integration{
		BaseEntity:           shared.NewBaseEntity(),
		TenantID:             tenantID,
		StoreURL:             normalized,
		StoreName:            storeName,
		APIVersion:           DefaultAPIVersion,
		Status:               IntegrationStatusDisconnected,
		AutoSyncEnabled:      true,
		SyncProducts:         true,
		SyncOrders:           true,
		SyncCustomers:        true,
		SyncInventory:        true,
		SyncFrequencyMinutes: DefaultSyncFrequencyMinutes,
	}, nil
}

// NormalizeStoreURL strips the scheme and trailing slashes from a store
// domain and validates the remainder looks like a myshopify hostname.
func NormalizeStoreURL(raw string) (string, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "/")
	if s == "" || strings.ContainsAny(s, " /?#") || !strings.Contains(s, ".") {
		return "", ErrInvalidStoreURL
	}
	return s, nil
}

// Connect stores verified credentials and marks the integration connected
func (i *Integration) Connect(accessToken, webhookSecret string) error {
	if accessToken == "" {
		return ErrMissingAccessToken
	}
	i.AccessToken = accessToken
	i.WebhookSecret = webhookSecret
	i.Status = IntegrationStatusConnected
	i.LastError = ""
	i.Touch()
	return nil
}

// Disconnect clears credentials and marks the integration disconnected
func (i *Integration) Disconnect() {
	i.AccessToken = ""
	i.Status = IntegrationStatusDisconnected
	i.Touch()
}

// Pause suspends scheduled syncing
func (i *Integration) Pause() {
	i.Status = IntegrationStatusPaused
	i.Touch()
}

// Resume re-enables a paused integration
func (i *Integration) Resume() error {
	if i.Status != IntegrationStatusPaused {
		return ErrInvalidStatusTransition
	}
	if i.AccessToken == "" {
		i.Status = IntegrationStatusDisconnected
	} else {
		i.Status = IntegrationStatusConnected
	}
	i.Touch()
	return nil
}

// SetSyncFrequency updates the scheduled sync interval
func (i *Integration) SetSyncFrequency(minutes int) error {
	if minutes <= 0 {
		return ErrInvalidSyncFrequency
	}
	i.SyncFrequencyMinutes = minutes
	i.Touch()
	return nil
}

// EntityEnabled returns true if syncing is enabled for the given entity type
func (i *Integration) EntityEnabled(entity EntityType) bool {
	switch entity {
	case EntityProducts:
		return i.SyncProducts
	case EntityOrders:
		return i.SyncOrders
	case EntityCustomers:
		return i.SyncCustomers
	case EntityInventory:
		return i.SyncInventory
	default:
		return false
	}
}

// SyncDue returns true if the integration's scheduled interval has elapsed
// since the last run. Integrations that never ran are always due.
func (i *Integration) SyncDue(now time.Time) bool {
	if !i.AutoSyncEnabled {
		return false
	}
	if !i.Status.CanSync() {
		return false
	}
	if i.LastSyncAt == nil {
		return true
	}
	interval := time.Duration(i.SyncFrequencyMinutes) * time.Minute
	return now.Sub(*i.LastSyncAt) >= interval
}

// ---------------------------------------------------------------------------
// Sync Outcomes
// ---------------------------------------------------------------------------

// SyncOutcome summarizes a finished sync run as seen by the orchestrator
type SyncOutcome struct {
	Status     SyncLogStatus
	Error      string
	FinishedAt time.Time
}

// BeginSync marks the integration as having a run in flight
func (i *Integration) BeginSync() {
	i.Status = IntegrationStatusSyncing
	i.Touch()
}

// ApplyOutcome returns a copy of the integration with its health fields
// advanced according to the outcome of a sync run. The receiver is not
// modified; callers persist the returned value.
func (i Integration) ApplyOutcome(outcome SyncOutcome) Integration {
	next := i
	finishedAt := outcome.FinishedAt
	next.LastSyncAt = &finishedAt
	next.UpdatedAt = finishedAt

	switch outcome.Status {
	case SyncLogStatusSuccess:
		next.Status = IntegrationStatusConnected
		next.LastSuccessfulSyncAt = &finishedAt
		next.LastError = ""
		next.ErrorCount = 0
	case SyncLogStatusPartial:
		// The incremental cursor stays put so the next run refetches
		// the window that failed mid-way.
		next.Status = IntegrationStatusConnected
		next.LastError = outcome.Error
		next.LastErrorAt = &finishedAt
		next.ErrorCount++
	case SyncLogStatusError:
		next.Status = IntegrationStatusError
		next.LastError = outcome.Error
		next.LastErrorAt = &finishedAt
		next.ErrorCount++
	default:
		// A non-terminal outcome leaves the health fields alone.
		next.Status = i.Status
	}
	return next
}
