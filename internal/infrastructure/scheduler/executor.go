package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockhaus/backend/internal/domain/shopify"
)

// SyncRunner is the application-layer operation a job maps onto
type SyncRunner interface {
	SyncEntity(ctx context.Context, tenantID, integrationID uuid.UUID, entity shopify.EntityType, trigger shopify.SyncTrigger, opts shopify.FetchOptions) (*shopify.SyncLog, error)
}

// RunnerExecutor adapts a SyncRunner to the scheduler's executor port
type RunnerExecutor struct {
	runner SyncRunner
}

// NewRunnerExecutor creates a new RunnerExecutor
func NewRunnerExecutor(runner SyncRunner) *RunnerExecutor {
	return &RunnerExecutor{runner: runner}
}

// Execute runs the job's sync and copies the run counters back onto the job
func (e *RunnerExecutor) Execute(ctx context.Context, job *SyncJob) error {
	log, err := e.runner.SyncEntity(ctx, job.TenantID, job.IntegrationID, job.Entity, job.Trigger, shopify.FetchOptions{})
	if log != nil {
		job.Complete(log.RecordsFetched, log.RecordsProcessed, log.RecordsFailed)
	}
	return err
}

var _ SyncExecutor = (*RunnerExecutor)(nil)
