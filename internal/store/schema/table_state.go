package schema

import "time"

// TableState represents the table_states table - the last known shape of each
// warehouse table, keyed by dataset and table name. The fingerprint lets a
// later run detect drift without calling the warehouse.
type TableState struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// DatasetID and TableName identify the warehouse table
	DatasetID string `gorm:"column:dataset_id;not null;type:text;uniqueIndex:idx_table_states_dataset_table"`
	TableName string `gorm:"column:table_name;not null;type:text;uniqueIndex:idx_table_states_dataset_table"`
	// Fingerprint is a stable hash of the table declaration
	Fingerprint string `gorm:"column:fingerprint;not null;type:text"`
	// ApplyRunID is the run that last touched the table
	ApplyRunID string    `gorm:"column:apply_run_id;not null;type:text"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null;type:timestamptz"`

	// Associations
	ApplyRun ApplyRun `gorm:"foreignKey:ApplyRunID;constraint:OnDelete:CASCADE"`
}

// GORM's default naming strategy maps TableState to the "table_states"
// table. A TableName() method would collide with the TableName field, so
// the default mapping is relied on here.
