package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/warehouse/internal/schema"
)

func factLike(clustering []string) schema.TableSpec {
	return schema.TableSpec{
		Name: "fact_events",
		Fields: []schema.Field{
			{Name: "event_id", Type: schema.TypeString, Required: true},
			{Name: "event_timestamp", Type: schema.TypeTimestamp, Required: true},
			{Name: "user_sk", Type: schema.TypeInteger},
			{Name: "content_sk", Type: schema.TypeInteger},
			{Name: "banner_sk", Type: schema.TypeInteger},
		},
		Partitioning: &schema.TimePartitioning{Field: "event_timestamp"},
		Clustering:   clustering,
	}
}

func TestTableSpecValidate(t *testing.T) {
	t.Run("valid table", func(t *testing.T) {
		table := factLike([]string{"user_sk", "content_sk", "banner_sk"})
		require.NoError(t, table.Validate())
	})

	t.Run("duplicate column rejected", func(t *testing.T) {
		table := schema.TableSpec{
			Name: "dim_user",
			Fields: []schema.Field{
				{Name: "user_sk", Type: schema.TypeInteger, Required: true},
				{Name: "user_sk", Type: schema.TypeInteger, Required: true},
			},
		}
		err := table.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrDuplicateColumn)
	})

	t.Run("partition column must exist", func(t *testing.T) {
		table := factLike(nil)
		table.Partitioning = &schema.TimePartitioning{Field: "created_at"}
		err := table.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrUnknownColumn)
	})

	t.Run("partition column must be time typed", func(t *testing.T) {
		table := factLike(nil)
		table.Partitioning = &schema.TimePartitioning{Field: "event_id"}
		err := table.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrBadPartitionType)
	})

	t.Run("clustering column absent from column list fails", func(t *testing.T) {
		table := factLike([]string{"user_sk", "content_sk", "banner_sk"})
		table.Fields = table.Fields[:4] // drop banner_sk
		err := table.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrUnknownColumn)
		assert.Contains(t, err.Error(), "banner_sk")
	})

	t.Run("empty table rejected", func(t *testing.T) {
		table := schema.TableSpec{Name: "empty"}
		require.Error(t, table.Validate())
	})
}

func TestDatasetSpecValidate(t *testing.T) {
	t.Run("duplicate table rejected", func(t *testing.T) {
		ds := schema.DatasetSpec{
			ID:     "events",
			Tables: []schema.TableSpec{factLike(nil), factLike(nil)},
		}
		err := ds.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrDuplicateTable)
	})

	t.Run("dataset id required", func(t *testing.T) {
		ds := schema.DatasetSpec{}
		require.Error(t, ds.Validate())
	})

	t.Run("table errors surface with dataset context", func(t *testing.T) {
		bad := factLike([]string{"missing_sk"})
		ds := schema.DatasetSpec{ID: "events", Tables: []schema.TableSpec{bad}}
		err := ds.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "events")
		assert.Contains(t, err.Error(), "missing_sk")
	})
}

func TestFingerprint(t *testing.T) {
	a := factLike([]string{"user_sk"})
	b := factLike([]string{"user_sk"})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Fields[2].Type = schema.TypeString
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := factLike([]string{"content_sk"})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
