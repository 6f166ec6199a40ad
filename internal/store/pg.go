package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventlens/warehouse/internal/reconciler"
	"github.com/eventlens/warehouse/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the journal tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&schema.ApplyRun{}, &schema.TableState{})
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 5
//   - MaxIdleConns: 2
//   - ConnMaxLifetime: 1 hour
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 5
	}
	if maxIdleConns == 0 {
		maxIdleConns = 2
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = time.Hour
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// BeginApplyRun journals the start of a provisioning run and returns its ID
func (s *pgStore) BeginApplyRun(ctx context.Context, plan *reconciler.Plan) (string, error) {
	actions := make([]string, 0, len(plan.Actions))
	for _, action := range plan.Actions {
		actions = append(actions, action.String())
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal actions: %w", err)
	}
	skippedJSON, err := json.Marshal(plan.Skipped)
	if err != nil {
		return "", fmt.Errorf("failed to marshal skipped changes: %w", err)
	}

	run := schema.ApplyRun{
		ID:        ulid.MustNewDefault(time.Now()).String(),
		DatasetID: plan.DatasetID,
		Status:    schema.RunStatusRunning,
		Actions:   actionsJSON,
		Skipped:   skippedJSON,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return "", fmt.Errorf("failed to create apply run: %w", err)
	}
	return run.ID, nil
}

// FinishApplyRun marks a run as succeeded, or failed when runErr is non-nil
func (s *pgStore) FinishApplyRun(ctx context.Context, runID string, runErr error) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":      schema.RunStatusSucceeded,
		"finished_at": now,
	}
	if runErr != nil {
		updates["status"] = schema.RunStatusFailed
		updates["error"] = runErr.Error()
	}

	result := s.db.WithContext(ctx).
		Model(&schema.ApplyRun{}).
		Where("id = ?", runID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to finish apply run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("apply run %s not found", runID)
	}
	return nil
}

// GetApplyRun retrieves a run by ID, or nil if it does not exist
func (s *pgStore) GetApplyRun(ctx context.Context, runID string) (*schema.ApplyRun, error) {
	var run schema.ApplyRun
	err := s.db.WithContext(ctx).Where("id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get apply run: %w", err)
	}
	return &run, nil
}

// ListApplyRuns retrieves the most recent runs for a dataset, newest first.
// ULIDs sort lexically by creation time, so ordering by ID is ordering by start.
func (s *pgStore) ListApplyRuns(ctx context.Context, datasetID string, limit int) ([]schema.ApplyRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []schema.ApplyRun
	err := s.db.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list apply runs: %w", err)
	}
	return runs, nil
}

// UpsertTableStates records the declared fingerprint of each table after a run
func (s *pgStore) UpsertTableStates(ctx context.Context, states []schema.TableState) error {
	if len(states) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range states {
		states[i].UpdatedAt = now
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dataset_id"}, {Name: "table_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"fingerprint", "apply_run_id", "updated_at"}),
	}).Create(&states).Error
	if err != nil {
		return fmt.Errorf("failed to upsert table states: %w", err)
	}
	return nil
}

// GetTableStates retrieves the recorded table states for a dataset
func (s *pgStore) GetTableStates(ctx context.Context, datasetID string) ([]schema.TableState, error) {
	var states []schema.TableState
	err := s.db.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("table_name ASC").
		Find(&states).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get table states: %w", err)
	}
	return states, nil
}
