// Package reconciler diffs a declarative dataset spec against remote
// warehouse state and applies the difference. Applying the same declaration
// twice is a no-op: the second plan is empty.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/eventlens/warehouse/internal/domain"
	"github.com/eventlens/warehouse/internal/logger"
	"github.com/eventlens/warehouse/internal/schema"
	"github.com/eventlens/warehouse/internal/warehouse"
)

// Reconciler plans and applies schema changes through a warehouse client.
type Reconciler struct {
	client warehouse.Client
	// maxRetryTime bounds the per-action retry window during Apply
	maxRetryTime time.Duration
}

// New creates a reconciler on top of a warehouse client.
func New(client warehouse.Client) *Reconciler {
	return &Reconciler{
		client:       client,
		maxRetryTime: 2 * time.Minute,
	}
}

// Plan computes the ordered actions that bring the remote warehouse to the
// declared state. The spec is validated first; a conflicting remote state
// (type change, partitioning change, dropped column) fails the plan rather
// than producing a destructive action.
func (r *Reconciler) Plan(ctx context.Context, spec schema.DatasetSpec) (*Plan, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid declaration: %w", err)
	}

	plan := &Plan{DatasetID: spec.ID}

	_, err := r.client.DatasetMetadata(ctx)
	switch {
	case errors.Is(err, warehouse.ErrNotFound):
		// No dataset means no tables: everything is a create.
		plan.Actions = append(plan.Actions, Action{Kind: ActionCreateDataset})
		for _, table := range spec.Tables {
			plan.Actions = append(plan.Actions, Action{Kind: ActionCreateTable, Table: table.Name})
		}
		return plan, nil
	case err != nil:
		return nil, err
	}

	remoteNames, err := r.client.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	for _, table := range spec.Tables {
		if !slices.Contains(remoteNames, table.Name) {
			plan.Actions = append(plan.Actions, Action{Kind: ActionCreateTable, Table: table.Name})
			continue
		}

		remote, err := r.client.TableMetadata(ctx, table.Name)
		if err != nil {
			return nil, err
		}
		action, err := diffTable(table, *remote)
		if err != nil {
			return nil, err
		}
		if action != nil {
			plan.Actions = append(plan.Actions, *action)
		}
	}

	// Remote tables not in the declaration are deleted only when the dataset
	// allows destroying contents and the table itself is not delete protected;
	// otherwise they are reported and left alone.
	for _, name := range remoteNames {
		if _, declared := spec.Table(name); declared {
			continue
		}
		if spec.ProtectContents {
			plan.Skipped = append(plan.Skipped, fmt.Sprintf("table %s is not declared but the dataset protects its contents", name))
			continue
		}
		remote, err := r.client.TableMetadata(ctx, name)
		if err != nil {
			return nil, err
		}
		if remote.DeleteProtected {
			plan.Skipped = append(plan.Skipped, fmt.Sprintf("table %s is not declared but is delete protected", name))
			continue
		}
		plan.Actions = append(plan.Actions, Action{Kind: ActionDeleteTable, Table: name})
	}

	return plan, nil
}

// diffTable compares a declared table with its remote counterpart. It returns
// an add-columns action for declared columns the remote table lacks, nil when
// they already match, and an error for any change the warehouse cannot apply
// in place.
func diffTable(want, remote schema.TableSpec) (*Action, error) {
	for _, rf := range remote.Fields {
		wf, ok := want.Field(rf.Name)
		if !ok {
			return nil, fmt.Errorf("table %s: remote column %s is not declared and columns cannot be dropped: %w",
				want.Name, rf.Name, domain.ErrSchemaConflict)
		}
		if wf.Type != rf.Type {
			return nil, fmt.Errorf("table %s: column %s is %s remotely but declared %s: %w",
				want.Name, rf.Name, rf.Type, wf.Type, domain.ErrSchemaConflict)
		}
		if wf.Required != rf.Required {
			return nil, fmt.Errorf("table %s: column %s nullability cannot be changed in place: %w",
				want.Name, rf.Name, domain.ErrSchemaConflict)
		}
	}

	if !partitioningEqual(want.Partitioning, remote.Partitioning) {
		return nil, fmt.Errorf("table %s: partitioning cannot be changed on an existing table: %w",
			want.Name, domain.ErrSchemaConflict)
	}
	if !slices.Equal(want.Clustering, remote.Clustering) {
		return nil, fmt.Errorf("table %s: clustering cannot be changed on an existing table: %w",
			want.Name, domain.ErrSchemaConflict)
	}

	var added []schema.Field
	for _, wf := range want.Fields {
		if _, ok := remote.Field(wf.Name); ok {
			continue
		}
		if wf.Required {
			return nil, fmt.Errorf("table %s: new column %s must be nullable to be added in place: %w",
				want.Name, wf.Name, domain.ErrSchemaConflict)
		}
		added = append(added, wf)
	}
	if len(added) == 0 {
		return nil, nil
	}
	return &Action{Kind: ActionAddColumns, Table: want.Name, Fields: added}, nil
}

func partitioningEqual(a, b *schema.TimePartitioning) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Field == b.Field
}

// Apply executes a plan against the remote warehouse. Each action is retried
// with exponential backoff on transient failures; schema conflicts never
// reach Apply because Plan fails on them.
func (r *Reconciler) Apply(ctx context.Context, spec schema.DatasetSpec, plan *Plan) error {
	for _, action := range plan.Actions {
		logger.InfoCtx(ctx, "applying", zap.String("dataset", spec.ID), zap.String("action", action.String()))

		op, err := r.operation(spec, action)
		if err != nil {
			return err
		}

		policy := backoff.WithContext(backoff.NewExponentialBackOff(
			backoff.WithMaxElapsedTime(r.maxRetryTime),
		), ctx)
		if err := backoff.Retry(func() error { return op(ctx) }, policy); err != nil {
			return fmt.Errorf("apply %s: %w", action.String(), err)
		}
	}
	return nil
}

func (r *Reconciler) operation(spec schema.DatasetSpec, action Action) (func(context.Context) error, error) {
	switch action.Kind {
	case ActionCreateDataset:
		return func(ctx context.Context) error {
			return r.client.CreateDataset(ctx, spec)
		}, nil
	case ActionCreateTable:
		table, ok := spec.Table(action.Table)
		if !ok {
			return nil, fmt.Errorf("plan references undeclared table %s", action.Table)
		}
		return func(ctx context.Context) error {
			return r.client.CreateTable(ctx, table)
		}, nil
	case ActionAddColumns:
		return func(ctx context.Context) error {
			return r.client.AddColumns(ctx, action.Table, action.Fields)
		}, nil
	case ActionDeleteTable:
		return func(ctx context.Context) error {
			return r.client.DeleteTable(ctx, action.Table)
		}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", action.Kind)
	}
}
