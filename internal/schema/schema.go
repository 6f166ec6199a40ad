package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// FieldType represents the semantic type of a warehouse column
type FieldType string

const (
	TypeInteger   FieldType = "INTEGER"
	TypeFloat     FieldType = "FLOAT"
	TypeString    FieldType = "STRING"
	TypeBoolean   FieldType = "BOOLEAN"
	TypeTimestamp FieldType = "TIMESTAMP"
	TypeDate      FieldType = "DATE"
)

var (
	// ErrDuplicateColumn is returned when a table declares the same column name twice
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrUnknownColumn is returned when a partition, clustering or key column
	// does not exist in the table that references it
	ErrUnknownColumn = errors.New("unknown column")

	// ErrBadPartitionType is returned when the partition column is not a timestamp or date
	ErrBadPartitionType = errors.New("partition column must be timestamp or date")

	// ErrKeyTypeMismatch is returned when a fact foreign key column and the
	// dimension surrogate key it names disagree on type
	ErrKeyTypeMismatch = errors.New("surrogate key type mismatch")

	// ErrDuplicateTable is returned when a dataset declares the same table name twice
	ErrDuplicateTable = errors.New("duplicate table")
)

// Field is a single column declaration: name, semantic type and nullability mode.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
}

// TimePartitioning declares day-level time partitioning on a named column.
type TimePartitioning struct {
	Field string
}

// TableSpec is the declarative shape of a single warehouse table.
type TableSpec struct {
	Name        string
	Description string
	Fields      []Field
	// Partitioning, when set, partitions storage by day on the named column
	Partitioning *TimePartitioning
	// Clustering is the ordered list of columns the physical layout is sorted by
	Clustering []string
	// DeleteProtected marks tables whose data is durable and must survive
	// destructive applies
	DeleteProtected bool
}

// Field returns the declared field with the given name.
func (t TableSpec) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the internal consistency of a single table declaration:
// column names are unique, and the partition and clustering columns reference
// columns that exist in the table's own schema.
func (t TableSpec) Validate() error {
	if t.Name == "" {
		return errors.New("table name is required")
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("table %s declares no columns", t.Name)
	}

	seen := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name == "" {
			return fmt.Errorf("table %s: column name is required", t.Name)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("table %s: column %s: %w", t.Name, f.Name, ErrDuplicateColumn)
		}
		seen[f.Name] = struct{}{}
	}

	if t.Partitioning != nil {
		f, ok := t.Field(t.Partitioning.Field)
		if !ok {
			return fmt.Errorf("table %s: partition column %s: %w", t.Name, t.Partitioning.Field, ErrUnknownColumn)
		}
		if f.Type != TypeTimestamp && f.Type != TypeDate {
			return fmt.Errorf("table %s: partition column %s has type %s: %w", t.Name, f.Name, f.Type, ErrBadPartitionType)
		}
	}

	for _, c := range t.Clustering {
		if _, ok := t.Field(c); !ok {
			return fmt.Errorf("table %s: clustering column %s: %w", t.Name, c, ErrUnknownColumn)
		}
	}

	return nil
}

// Fingerprint returns a stable hash of the table declaration. Two tables with
// the same columns, modes, partitioning and clustering have equal fingerprints.
func (t TableSpec) Fingerprint() string {
	var b strings.Builder
	b.WriteString(t.Name)
	for _, f := range t.Fields {
		mode := "NULLABLE"
		if f.Required {
			mode = "REQUIRED"
		}
		fmt.Fprintf(&b, "|%s:%s:%s", f.Name, f.Type, mode)
	}
	if t.Partitioning != nil {
		fmt.Fprintf(&b, "|partition:%s", t.Partitioning.Field)
	}
	if len(t.Clustering) > 0 {
		fmt.Fprintf(&b, "|cluster:%s", strings.Join(t.Clustering, ","))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// DatasetSpec is the declarative shape of the dataset container and all of its
// tables. The dataset is the parent of every table it declares: a reconciler
// must create it first and delete it last.
type DatasetSpec struct {
	ID          string
	Location    string
	Description string
	// ProtectContents, when true, forbids destroying the dataset's tables or
	// any table not declared in the spec. It must only be disabled in
	// development environments.
	ProtectContents bool
	Tables          []TableSpec
}

// Table returns the declared table with the given name.
func (d DatasetSpec) Table(name string) (TableSpec, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}

// Validate checks the dataset declaration and every table in it.
func (d DatasetSpec) Validate() error {
	if d.ID == "" {
		return errors.New("dataset id is required")
	}

	seen := make(map[string]struct{}, len(d.Tables))
	for _, t := range d.Tables {
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("dataset %s: table %s: %w", d.ID, t.Name, ErrDuplicateTable)
		}
		seen[t.Name] = struct{}{}

		if err := t.Validate(); err != nil {
			return fmt.Errorf("dataset %s: %w", d.ID, err)
		}
	}

	return nil
}

// surrogateKeySuffix is the naming convention for dimension surrogate keys and
// the fact columns that reference them.
const surrogateKeySuffix = "_sk"

// ValidateStarKeys checks the star-schema key convention: every column of the
// fact table named "*_sk" must be declared by exactly one other table in the
// dataset as a required column of the same type. This is the only referential
// guarantee the warehouse gives; row-level integrity is checked at load time.
func ValidateStarKeys(d DatasetSpec, factTable string) error {
	fact, ok := d.Table(factTable)
	if !ok {
		return fmt.Errorf("fact table %s: %w", factTable, ErrUnknownColumn)
	}

	for _, f := range fact.Fields {
		if !strings.HasSuffix(f.Name, surrogateKeySuffix) {
			continue
		}

		var dim *TableSpec
		for i := range d.Tables {
			t := d.Tables[i]
			if t.Name == factTable {
				continue
			}
			if _, ok := t.Field(f.Name); ok {
				dim = &t
				break
			}
		}
		if dim == nil {
			return fmt.Errorf("fact table %s: key column %s names no dimension: %w", factTable, f.Name, ErrUnknownColumn)
		}

		key, _ := dim.Field(f.Name)
		if key.Type != f.Type {
			return fmt.Errorf("fact table %s: column %s is %s but %s.%s is %s: %w",
				factTable, f.Name, f.Type, dim.Name, key.Name, key.Type, ErrKeyTypeMismatch)
		}
		if !key.Required {
			return fmt.Errorf("dimension %s: surrogate key %s must be required", dim.Name, key.Name)
		}
	}

	return nil
}
