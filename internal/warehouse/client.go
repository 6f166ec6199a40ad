// Package warehouse defines the client surface the provisioner reconciles
// through. Implementations translate the declarative schema model into
// create/alter calls against a cloud data-warehouse service.
package warehouse

import (
	"context"
	"errors"

	"github.com/eventlens/warehouse/internal/schema"
)

// ErrNotFound is returned when a remote dataset or table does not exist.
var ErrNotFound = errors.New("warehouse object not found")

// DatasetInfo is the remote metadata of an existing dataset.
type DatasetInfo struct {
	ID       string
	Location string
}

// Client is a connection to a remote warehouse scoped to a single dataset.
type Client interface {
	// DatasetMetadata fetches the dataset's remote metadata, or ErrNotFound.
	DatasetMetadata(ctx context.Context) (*DatasetInfo, error)

	// CreateDataset creates the dataset container. The dataset is the parent
	// of every table, so reconcilers call this before any table operation.
	CreateDataset(ctx context.Context, spec schema.DatasetSpec) error

	// DeleteDataset destroys the dataset together with its tables. Datasets
	// that protect their contents refuse with domain.ErrProtected.
	DeleteDataset(ctx context.Context) error

	// ListTables lists the names of all tables in the dataset.
	ListTables(ctx context.Context) ([]string, error)

	// TableMetadata fetches a table's remote schema, or ErrNotFound.
	TableMetadata(ctx context.Context, table string) (*schema.TableSpec, error)

	// CreateTable creates a table from its declaration, including partitioning
	// and clustering.
	CreateTable(ctx context.Context, spec schema.TableSpec) error

	// AddColumns appends columns to an existing table. Only nullable columns
	// can be added in place.
	AddColumns(ctx context.Context, table string, fields []schema.Field) error

	// DeleteTable removes a table and its contents.
	DeleteTable(ctx context.Context, table string) error

	// Insert streams rows into a table. Each row maps column name to value.
	Insert(ctx context.Context, table string, rows []map[string]any) error

	// Close releases the underlying connection.
	Close() error
}
