package schema

import (
	"time"

	"gorm.io/datatypes"
)

// RunStatus represents the lifecycle state of an apply run
type RunStatus string

const (
	// RunStatusRunning indicates the run is still applying changes
	RunStatusRunning RunStatus = "running"
	// RunStatusSucceeded indicates every planned action was applied
	RunStatusSucceeded RunStatus = "succeeded"
	// RunStatusFailed indicates the run stopped before completing its plan
	RunStatusFailed RunStatus = "failed"
)

// ApplyRun represents the apply_runs table - journal of every provisioning run
// executed against a warehouse dataset
type ApplyRun struct {
	// ID is a ULID assigned when the run starts; lexical order is start order
	ID string `gorm:"column:id;primaryKey;type:text"`
	// DatasetID is the warehouse dataset the run targeted
	DatasetID string `gorm:"column:dataset_id;not null;type:text;index"`
	// Status tracks the run lifecycle (running, succeeded, failed)
	Status RunStatus `gorm:"column:status;not null;type:text"`
	// Actions records the planned actions as JSON, in execution order
	Actions datatypes.JSON `gorm:"column:actions;type:jsonb"`
	// Skipped records destructive changes the plan refused to take
	Skipped datatypes.JSON `gorm:"column:skipped;type:jsonb"`
	// Error holds the failure message when Status is failed
	Error *string `gorm:"column:error;type:text"`
	// StartedAt is when the run began applying
	StartedAt time.Time `gorm:"column:started_at;not null;type:timestamptz"`
	// FinishedAt is when the run reached a terminal status
	FinishedAt *time.Time `gorm:"column:finished_at;type:timestamptz"`
}

// TableName specifies the table name for the ApplyRun model
func (ApplyRun) TableName() string {
	return "apply_runs"
}
