package warehouse

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/eventlens/warehouse/internal/domain"
	"github.com/eventlens/warehouse/internal/schema"
)

// Fake is an in-memory Client used by reconciler and seeder tests. It mimics
// the remote warehouse's observable behavior: objects exist or not, creating
// an existing object fails, and only nullable columns can be added in place.
type Fake struct {
	mu      sync.Mutex
	dataset *schema.DatasetSpec
	tables  map[string]schema.TableSpec
	rows    map[string][]map[string]any
	closed  bool
}

// NewFake returns an empty in-memory warehouse.
func NewFake() *Fake {
	return &Fake{
		tables: make(map[string]schema.TableSpec),
		rows:   make(map[string][]map[string]any),
	}
}

// DatasetMetadata implements Client.
func (f *Fake) DatasetMetadata(ctx context.Context) (*DatasetInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataset == nil {
		return nil, ErrNotFound
	}
	return &DatasetInfo{ID: f.dataset.ID, Location: f.dataset.Location}, nil
}

// CreateDataset implements Client.
func (f *Fake) CreateDataset(ctx context.Context, spec schema.DatasetSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataset != nil {
		return fmt.Errorf("dataset %s already exists", spec.ID)
	}
	ds := spec
	ds.Tables = nil
	f.dataset = &ds
	return nil
}

// DeleteDataset implements Client.
func (f *Fake) DeleteDataset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataset == nil {
		return ErrNotFound
	}
	if f.dataset.ProtectContents {
		return fmt.Errorf("dataset %s: %w", f.dataset.ID, domain.ErrProtected)
	}
	f.dataset = nil
	f.tables = make(map[string]schema.TableSpec)
	f.rows = make(map[string][]map[string]any)
	return nil
}

// ListTables implements Client.
func (f *Fake) ListTables(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// TableMetadata implements Client.
func (f *Fake) TableMetadata(ctx context.Context, table string) (*schema.TableSpec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, ErrNotFound)
	}
	return &t, nil
}

// CreateTable implements Client.
func (f *Fake) CreateTable(ctx context.Context, spec schema.TableSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataset == nil {
		return fmt.Errorf("dataset does not exist")
	}
	if _, ok := f.tables[spec.Name]; ok {
		return fmt.Errorf("table %s already exists", spec.Name)
	}
	// Clone the field slice so later mutations of the caller's spec cannot
	// reach into the stored remote state.
	spec.Fields = slices.Clone(spec.Fields)
	f.tables[spec.Name] = spec
	return nil
}

// AddColumns implements Client.
func (f *Fake) AddColumns(ctx context.Context, table string, fields []schema.Field) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[table]
	if !ok {
		return fmt.Errorf("table %s: %w", table, ErrNotFound)
	}
	for _, field := range fields {
		if field.Required {
			return fmt.Errorf("table %s: cannot add required column %s to an existing table", table, field.Name)
		}
		if _, exists := t.Field(field.Name); exists {
			return fmt.Errorf("table %s: column %s already exists", table, field.Name)
		}
		t.Fields = append(t.Fields, field)
	}
	f.tables[table] = t
	return nil
}

// DeleteTable implements Client. Delete-protected tables refuse deletion even
// when a caller plans one.
func (f *Fake) DeleteTable(ctx context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[table]
	if !ok {
		return fmt.Errorf("table %s: %w", table, ErrNotFound)
	}
	if t.DeleteProtected {
		return fmt.Errorf("table %s: %w", table, domain.ErrProtected)
	}
	delete(f.tables, table)
	delete(f.rows, table)
	return nil
}

// Insert implements Client.
func (f *Fake) Insert(ctx context.Context, table string, rows []map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[table]
	if !ok {
		return fmt.Errorf("table %s: %w", table, ErrNotFound)
	}
	for _, row := range rows {
		for column := range row {
			if _, ok := t.Field(column); !ok {
				return fmt.Errorf("table %s: row references %s: %w", table, column, schema.ErrUnknownColumn)
			}
		}
	}
	f.rows[table] = append(f.rows[table], rows...)
	return nil
}

// Close implements Client.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// RowCount reports how many rows have been inserted into a table.
func (f *Fake) RowCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[table])
}

// SeedTable installs a remote table directly, bypassing the dataset existence
// check. Tests use it to shape remote state.
func (f *Fake) SeedTable(spec schema.TableSpec) {
	f.mu.Lock()
	defer f.mu.Unlock()
	spec.Fields = slices.Clone(spec.Fields)
	f.tables[spec.Name] = spec
}
