package bigquery

import (
	bq "cloud.google.com/go/bigquery"

	"github.com/eventlens/warehouse/internal/schema"
)

// BigQuery carries no native per-table delete-protection flag, so the model's
// flag rides on labels and round-trips through metadata like everything else.
const (
	deleteProtectedLabel = "delete_protected"
	protectContentsLabel = "protect_contents"
)

// fieldType maps the schema model's semantic types to BigQuery field types.
func fieldType(t schema.FieldType) bq.FieldType {
	switch t {
	case schema.TypeInteger:
		return bq.IntegerFieldType
	case schema.TypeFloat:
		return bq.FloatFieldType
	case schema.TypeBoolean:
		return bq.BooleanFieldType
	case schema.TypeTimestamp:
		return bq.TimestampFieldType
	case schema.TypeDate:
		return bq.DateFieldType
	default:
		return bq.StringFieldType
	}
}

// modelType maps BigQuery field types back to the schema model. Types the
// model does not declare collapse to string, the loosest staging type.
func modelType(t bq.FieldType) schema.FieldType {
	switch t {
	case bq.IntegerFieldType:
		return schema.TypeInteger
	case bq.FloatFieldType:
		return schema.TypeFloat
	case bq.BooleanFieldType:
		return schema.TypeBoolean
	case bq.TimestampFieldType:
		return schema.TypeTimestamp
	case bq.DateFieldType:
		return schema.TypeDate
	default:
		return schema.TypeString
	}
}

func fieldSchema(f schema.Field) *bq.FieldSchema {
	return &bq.FieldSchema{
		Name:        f.Name,
		Type:        fieldType(f.Type),
		Required:    f.Required,
		Description: f.Description,
	}
}

// metadataFromSpec translates a table declaration into BigQuery table
// metadata, including day partitioning and clustering.
func metadataFromSpec(spec schema.TableSpec) *bq.TableMetadata {
	fields := make(bq.Schema, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		fields = append(fields, fieldSchema(f))
	}

	md := &bq.TableMetadata{
		Name:        spec.Name,
		Description: spec.Description,
		Schema:      fields,
	}
	if spec.Partitioning != nil {
		md.TimePartitioning = &bq.TimePartitioning{
			Type:  bq.DayPartitioningType,
			Field: spec.Partitioning.Field,
		}
	}
	if len(spec.Clustering) > 0 {
		md.Clustering = &bq.Clustering{Fields: spec.Clustering}
	}
	if spec.DeleteProtected {
		md.Labels = map[string]string{deleteProtectedLabel: "true"}
	}
	return md
}

// specFromMetadata translates remote table metadata back into the schema
// model so the reconciler can diff it against the declaration.
func specFromMetadata(name string, md *bq.TableMetadata) schema.TableSpec {
	spec := schema.TableSpec{
		Name:        name,
		Description: md.Description,
	}
	for _, f := range md.Schema {
		spec.Fields = append(spec.Fields, schema.Field{
			Name:        f.Name,
			Type:        modelType(f.Type),
			Required:    f.Required,
			Description: f.Description,
		})
	}
	if md.TimePartitioning != nil && md.TimePartitioning.Field != "" {
		spec.Partitioning = &schema.TimePartitioning{Field: md.TimePartitioning.Field}
	}
	if md.Clustering != nil {
		spec.Clustering = md.Clustering.Fields
	}
	spec.DeleteProtected = md.Labels[deleteProtectedLabel] == "true"
	return spec
}
