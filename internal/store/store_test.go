package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/warehouse/internal/reconciler"
	"github.com/eventlens/warehouse/internal/schema"
	storeschema "github.com/eventlens/warehouse/internal/store/schema"
)

func testPlan() *reconciler.Plan {
	return &reconciler.Plan{
		DatasetID: "event_warehouse",
		Actions: []reconciler.Action{
			{Kind: reconciler.ActionCreateDataset},
			{Kind: reconciler.ActionCreateTable, Table: "dim_user"},
			{Kind: reconciler.ActionAddColumns, Table: "dim_location", Fields: []schema.Field{
				{Name: "region", Type: schema.TypeString},
			}},
		},
		Skipped: []string{"table legacy_export is not declared but the dataset protects its contents"},
	}
}

// RunStoreTests runs the full journal test suite against a store
// implementation. Each test gets a fresh store from initDB.
func RunStoreTests(t *testing.T, initDB func(*testing.T) Store) {
	ctx := context.Background()

	t.Run("BeginApplyRun", func(t *testing.T) {
		s := initDB(t)

		runID, err := s.BeginApplyRun(ctx, testPlan())
		require.NoError(t, err)
		require.NotEmpty(t, runID)

		run, err := s.GetApplyRun(ctx, runID)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, "event_warehouse", run.DatasetID)
		assert.Equal(t, storeschema.RunStatusRunning, run.Status)
		assert.Nil(t, run.Error)
		assert.Nil(t, run.FinishedAt)
		assert.WithinDuration(t, time.Now().UTC(), run.StartedAt, time.Minute)

		var actions []string
		require.NoError(t, json.Unmarshal(run.Actions, &actions))
		require.Len(t, actions, 3)
		assert.Equal(t, "create dataset", actions[0])
		assert.Equal(t, "create table dim_user", actions[1])
		assert.Equal(t, "alter table dim_location: add columns region", actions[2])

		var skipped []string
		require.NoError(t, json.Unmarshal(run.Skipped, &skipped))
		require.Len(t, skipped, 1)
		assert.Contains(t, skipped[0], "legacy_export")
	})

	t.Run("FinishApplyRun success", func(t *testing.T) {
		s := initDB(t)

		runID, err := s.BeginApplyRun(ctx, testPlan())
		require.NoError(t, err)

		require.NoError(t, s.FinishApplyRun(ctx, runID, nil))

		run, err := s.GetApplyRun(ctx, runID)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, storeschema.RunStatusSucceeded, run.Status)
		assert.Nil(t, run.Error)
		require.NotNil(t, run.FinishedAt)
	})

	t.Run("FinishApplyRun failure", func(t *testing.T) {
		s := initDB(t)

		runID, err := s.BeginApplyRun(ctx, testPlan())
		require.NoError(t, err)

		require.NoError(t, s.FinishApplyRun(ctx, runID, errors.New("dataset quota exceeded")))

		run, err := s.GetApplyRun(ctx, runID)
		require.NoError(t, err)
		require.NotNil(t, run)
		assert.Equal(t, storeschema.RunStatusFailed, run.Status)
		require.NotNil(t, run.Error)
		assert.Equal(t, "dataset quota exceeded", *run.Error)
		require.NotNil(t, run.FinishedAt)
	})

	t.Run("FinishApplyRun unknown run", func(t *testing.T) {
		s := initDB(t)

		err := s.FinishApplyRun(ctx, "01K00000000000000000000000", nil)
		require.Error(t, err)
	})

	t.Run("GetApplyRun missing returns nil", func(t *testing.T) {
		s := initDB(t)

		run, err := s.GetApplyRun(ctx, "01K00000000000000000000000")
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("ListApplyRuns", func(t *testing.T) {
		s := initDB(t)

		var ids []string
		for range 3 {
			id, err := s.BeginApplyRun(ctx, testPlan())
			require.NoError(t, err)
			ids = append(ids, id)
		}
		otherID, err := s.BeginApplyRun(ctx, &reconciler.Plan{DatasetID: "scratch"})
		require.NoError(t, err)

		runs, err := s.ListApplyRuns(ctx, "event_warehouse", 10)
		require.NoError(t, err)
		require.Len(t, runs, 3)

		// Newest first: ULIDs carry the start time in their prefix.
		assert.Equal(t, ids[2], runs[0].ID)
		assert.Equal(t, ids[0], runs[2].ID)
		for _, run := range runs {
			assert.NotEqual(t, otherID, run.ID)
		}

		limited, err := s.ListApplyRuns(ctx, "event_warehouse", 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("UpsertTableStates", func(t *testing.T) {
		s := initDB(t)

		runID, err := s.BeginApplyRun(ctx, testPlan())
		require.NoError(t, err)

		states := []storeschema.TableState{
			{DatasetID: "event_warehouse", TableName: "dim_user", Fingerprint: "aaa", ApplyRunID: runID},
			{DatasetID: "event_warehouse", TableName: "fact_events", Fingerprint: "bbb", ApplyRunID: runID},
		}
		require.NoError(t, s.UpsertTableStates(ctx, states))

		got, err := s.GetTableStates(ctx, "event_warehouse")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "dim_user", got[0].TableName)
		assert.Equal(t, "aaa", got[0].Fingerprint)
		assert.Equal(t, "fact_events", got[1].TableName)

		// Re-recording the same table replaces the fingerprint in place.
		secondRunID, err := s.BeginApplyRun(ctx, testPlan())
		require.NoError(t, err)
		require.NoError(t, s.UpsertTableStates(ctx, []storeschema.TableState{
			{DatasetID: "event_warehouse", TableName: "dim_user", Fingerprint: "ccc", ApplyRunID: secondRunID},
		}))

		got, err = s.GetTableStates(ctx, "event_warehouse")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "ccc", got[0].Fingerprint)
		assert.Equal(t, secondRunID, got[0].ApplyRunID)
		assert.Equal(t, "bbb", got[1].Fingerprint)
	})

	t.Run("UpsertTableStates empty is a no-op", func(t *testing.T) {
		s := initDB(t)

		require.NoError(t, s.UpsertTableStates(ctx, nil))
	})

	t.Run("GetTableStates empty dataset", func(t *testing.T) {
		s := initDB(t)

		states, err := s.GetTableStates(ctx, "never_provisioned")
		require.NoError(t, err)
		assert.Empty(t, states)
	})
}
