package store

import (
	"context"

	"github.com/eventlens/warehouse/internal/reconciler"
	"github.com/eventlens/warehouse/internal/store/schema"
)

// Store defines the interface for provisioning journal operations
type Store interface {
	// BeginApplyRun journals the start of a provisioning run and returns its ID
	BeginApplyRun(ctx context.Context, plan *reconciler.Plan) (string, error)
	// FinishApplyRun marks a run as succeeded or failed
	FinishApplyRun(ctx context.Context, runID string, runErr error) error
	// GetApplyRun retrieves a run by ID, or nil if it does not exist
	GetApplyRun(ctx context.Context, runID string) (*schema.ApplyRun, error)
	// ListApplyRuns retrieves the most recent runs for a dataset, newest first
	ListApplyRuns(ctx context.Context, datasetID string, limit int) ([]schema.ApplyRun, error)
	// UpsertTableStates records the declared fingerprint of each table after a run
	UpsertTableStates(ctx context.Context, states []schema.TableState) error
	// GetTableStates retrieves the recorded table states for a dataset
	GetTableStates(ctx context.Context, datasetID string) ([]schema.TableState, error)
}
