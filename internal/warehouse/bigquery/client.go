// Package bigquery implements the warehouse client against Google BigQuery.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/eventlens/warehouse/internal/domain"
	"github.com/eventlens/warehouse/internal/schema"
	"github.com/eventlens/warehouse/internal/warehouse"
)

// Config holds the connection parameters for a BigQuery dataset.
type Config struct {
	ProjectID string
	DatasetID string
	Location  string
	// CredentialsFile is the path to a service-account key file. When empty,
	// application default credentials are used.
	CredentialsFile string
}

// Client is a warehouse.Client backed by a BigQuery dataset.
type Client struct {
	client   *bq.Client
	dataset  *bq.Dataset
	location string
}

var _ warehouse.Client = (*Client)(nil)

// New connects to BigQuery and scopes the client to the configured dataset.
func New(ctx context.Context, cfg Config) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bq.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	return &Client{
		client:   client,
		dataset:  client.Dataset(cfg.DatasetID),
		location: cfg.Location,
	}, nil
}

// DatasetMetadata implements warehouse.Client.
func (c *Client) DatasetMetadata(ctx context.Context) (*warehouse.DatasetInfo, error) {
	md, err := c.dataset.Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("dataset %s: %w", c.dataset.DatasetID, warehouse.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dataset metadata: %w", err)
	}
	return &warehouse.DatasetInfo{ID: c.dataset.DatasetID, Location: md.Location}, nil
}

// CreateDataset implements warehouse.Client.
func (c *Client) CreateDataset(ctx context.Context, spec schema.DatasetSpec) error {
	location := spec.Location
	if location == "" {
		location = c.location
	}
	md := &bq.DatasetMetadata{
		Location:    location,
		Description: spec.Description,
	}
	if spec.ProtectContents {
		md.Labels = map[string]string{protectContentsLabel: "true"}
	}
	if err := c.dataset.Create(ctx, md); err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", spec.ID, err)
	}
	return nil
}

// DeleteDataset implements warehouse.Client. Datasets labeled as protecting
// their contents refuse deletion.
func (c *Client) DeleteDataset(ctx context.Context) error {
	md, err := c.dataset.Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("dataset %s: %w", c.dataset.DatasetID, warehouse.ErrNotFound)
		}
		return fmt.Errorf("failed to get dataset metadata: %w", err)
	}
	if md.Labels[protectContentsLabel] == "true" {
		return fmt.Errorf("dataset %s: %w", c.dataset.DatasetID, domain.ErrProtected)
	}
	if err := c.dataset.DeleteWithContents(ctx); err != nil {
		return fmt.Errorf("failed to delete dataset %s: %w", c.dataset.DatasetID, err)
	}
	return nil
}

// ListTables implements warehouse.Client.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	it := c.dataset.Tables(ctx)
	tables := make([]string, 0)
	for {
		table, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		tables = append(tables, table.TableID)
	}
	return tables, nil
}

// TableMetadata implements warehouse.Client.
func (c *Client) TableMetadata(ctx context.Context, table string) (*schema.TableSpec, error) {
	md, err := c.dataset.Table(table).Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("table %s: %w", table, warehouse.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get metadata for table %s: %w", table, err)
	}
	spec := specFromMetadata(table, md)
	return &spec, nil
}

// CreateTable implements warehouse.Client.
func (c *Client) CreateTable(ctx context.Context, spec schema.TableSpec) error {
	if err := c.dataset.Table(spec.Name).Create(ctx, metadataFromSpec(spec)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", spec.Name, err)
	}
	return nil
}

// AddColumns implements warehouse.Client. BigQuery only supports appending
// nullable columns to an existing schema; the reconciler guarantees that.
func (c *Client) AddColumns(ctx context.Context, table string, fields []schema.Field) error {
	ref := c.dataset.Table(table)
	md, err := ref.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to get metadata for table %s: %w", table, err)
	}

	updated := md.Schema
	for _, f := range fields {
		updated = append(updated, fieldSchema(f))
	}

	_, err = ref.Update(ctx, bq.TableMetadataToUpdate{Schema: updated}, md.ETag)
	if err != nil {
		return fmt.Errorf("failed to add columns to table %s: %w", table, err)
	}
	return nil
}

// DeleteTable implements warehouse.Client. Delete-protected tables refuse
// deletion regardless of what the caller planned.
func (c *Client) DeleteTable(ctx context.Context, table string) error {
	ref := c.dataset.Table(table)
	md, err := ref.Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("table %s: %w", table, warehouse.ErrNotFound)
		}
		return fmt.Errorf("failed to get metadata for table %s: %w", table, err)
	}
	if md.Labels[deleteProtectedLabel] == "true" {
		return fmt.Errorf("table %s: %w", table, domain.ErrProtected)
	}
	if err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", table, err)
	}
	return nil
}

// Insert implements warehouse.Client using the streaming inserter.
func (c *Client) Insert(ctx context.Context, table string, rows []map[string]any) error {
	savers := make([]bq.ValueSaver, 0, len(rows))
	for _, row := range rows {
		savers = append(savers, mapSaver(row))
	}
	if err := c.dataset.Table(table).Inserter().Put(ctx, savers); err != nil {
		return fmt.Errorf("failed to insert %d rows into %s: %w", len(rows), table, err)
	}
	return nil
}

// Close implements warehouse.Client.
func (c *Client) Close() error {
	return c.client.Close()
}

// mapSaver adapts a column-keyed row map to the inserter's ValueSaver.
type mapSaver map[string]any

// Save implements bigquery.ValueSaver with a best-effort insert id.
func (m mapSaver) Save() (map[string]bq.Value, string, error) {
	values := make(map[string]bq.Value, len(m))
	for k, v := range m {
		values[k] = v
	}
	return values, "", nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
