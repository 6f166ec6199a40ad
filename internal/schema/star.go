package schema

// Table names of the event warehouse star schema.
const (
	TableStaging     = "staging_raw_events"
	TableDimUser     = "dim_user"
	TableDimContent  = "dim_content"
	TableDimBanner   = "dim_banner"
	TableDimLocation = "dim_location"
	TableDimTime     = "dim_time"
	TableFactEvents  = "fact_events"
)

// StarParams parameterizes the canonical dataset declaration.
type StarParams struct {
	DatasetID string
	Location  string
	// ProtectContents should only be false in development environments.
	ProtectContents bool
}

// Star returns the canonical star-schema declaration of the event warehouse:
// one loosely-typed staging table, five dimension tables and one fact table.
//
// The staging table is a transient landing zone: every column is a nullable
// scalar and its contents are replaced wholesale on each load cycle. The
// dimension tables are insert-only and keyed by 64-bit surrogate keys; the
// fact table references them through nullable foreign keys, is partitioned by
// day on the event timestamp and clustered by the dimension keys.
func Star(p StarParams) DatasetSpec {
	return DatasetSpec{
		ID:              p.DatasetID,
		Location:        p.Location,
		Description:     "Event analytics star schema",
		ProtectContents: p.ProtectContents,
		Tables: []TableSpec{
			stagingTable(),
			dimUser(),
			dimContent(),
			dimBanner(),
			dimLocation(),
			dimTime(),
			factEvents(),
		},
	}
}

func stagingTable() TableSpec {
	return TableSpec{
		Name:        TableStaging,
		Description: "Raw event landing zone, truncated on every load cycle",
		Fields: []Field{
			{Name: "event_id", Type: TypeString},
			{Name: "user_id", Type: TypeString},
			{Name: "url", Type: TypeString},
			{Name: "event_name", Type: TypeString},
			{Name: "element_id", Type: TypeString},
			{Name: "sentiment_score", Type: TypeFloat},
			{Name: "entities", Type: TypeString},
			{Name: "ip", Type: TypeString},
			{Name: "country", Type: TypeString},
			{Name: "city", Type: TypeString},
			{Name: "event_time", Type: TypeString},
			{Name: "banner", Type: TypeString},
			{Name: "unit_name", Type: TypeString},
			{Name: "unit_value", Type: TypeString},
			{Name: "category_level_1", Type: TypeString},
			{Name: "category_level_2", Type: TypeString},
			{Name: "category_level_3", Type: TypeString},
		},
	}
}

func dimUser() TableSpec {
	return TableSpec{
		Name:            TableDimUser,
		Description:     "User dimension keyed by source-system user identifier",
		DeleteProtected: true,
		Fields: []Field{
			{Name: "user_sk", Type: TypeInteger, Required: true, Description: "Surrogate key"},
			{Name: "user_id", Type: TypeString, Required: true, Description: "Natural key: source-system user identifier"},
		},
	}
}

func dimContent() TableSpec {
	return TableSpec{
		Name:            TableDimContent,
		Description:     "Content dimension keyed by URL",
		DeleteProtected: true,
		Fields: []Field{
			{Name: "content_sk", Type: TypeInteger, Required: true, Description: "Surrogate key"},
			{Name: "url", Type: TypeString, Required: true, Description: "Natural key"},
			{Name: "sentiment_score", Type: TypeFloat},
			{Name: "entities", Type: TypeString, Description: "Free-text entity list"},
			{Name: "category_level_1", Type: TypeString},
			{Name: "category_level_2", Type: TypeString},
			{Name: "category_level_3", Type: TypeString},
		},
	}
}

func dimBanner() TableSpec {
	return TableSpec{
		Name:            TableDimBanner,
		Description:     "Banner dimension keyed by (name, size) parsed from the composite banner identifier",
		DeleteProtected: true,
		Fields: []Field{
			{Name: "banner_sk", Type: TypeInteger, Required: true, Description: "Surrogate key"},
			{Name: "banner_name", Type: TypeString, Required: true},
			{Name: "banner_size", Type: TypeString},
		},
	}
}

func dimLocation() TableSpec {
	return TableSpec{
		Name:            TableDimLocation,
		Description:     "Location dimension keyed by IP address",
		DeleteProtected: true,
		Fields: []Field{
			{Name: "location_sk", Type: TypeInteger, Required: true, Description: "Surrogate key"},
			{Name: "ip", Type: TypeString, Required: true, Description: "Natural key"},
			{Name: "country", Type: TypeString},
			{Name: "city", Type: TypeString},
		},
	}
}

func dimTime() TableSpec {
	return TableSpec{
		Name:            TableDimTime,
		Description:     "Calendar dimension, densely pre-populated independent of observed events",
		DeleteProtected: true,
		Fields: []Field{
			{Name: "time_sk", Type: TypeInteger, Required: true, Description: "Surrogate key: date encoded as yyyymmdd"},
			{Name: "date", Type: TypeDate, Required: true, Description: "Natural key"},
			{Name: "year", Type: TypeInteger, Required: true},
			{Name: "quarter", Type: TypeInteger, Required: true},
			{Name: "month", Type: TypeInteger, Required: true},
			{Name: "month_name", Type: TypeString, Required: true},
			{Name: "day", Type: TypeInteger, Required: true},
			{Name: "day_of_week", Type: TypeInteger, Required: true, Description: "1 = Sunday through 7 = Saturday"},
			{Name: "day_name", Type: TypeString, Required: true},
			{Name: "is_weekend", Type: TypeBoolean, Required: true},
		},
	}
}

func factEvents() TableSpec {
	return TableSpec{
		Name:            TableFactEvents,
		Description:     "One row per source event, referencing all dimensions",
		DeleteProtected: true,
		Partitioning:    &TimePartitioning{Field: "event_timestamp"},
		Clustering:      []string{"user_sk", "content_sk", "banner_sk", "location_sk"},
		Fields: []Field{
			{Name: "event_id", Type: TypeString, Required: true, Description: "Unique source event identifier"},
			{Name: "event_timestamp", Type: TypeTimestamp, Required: true},
			{Name: "time_sk", Type: TypeInteger},
			{Name: "user_sk", Type: TypeInteger},
			{Name: "content_sk", Type: TypeInteger},
			{Name: "banner_sk", Type: TypeInteger},
			{Name: "location_sk", Type: TypeInteger},
			{Name: "event_name", Type: TypeString},
			{Name: "element_id", Type: TypeString, Description: "Interacting page element"},
			{Name: "unit_name", Type: TypeString, Description: "Measurement unit name"},
			{Name: "unit_value", Type: TypeFloat, Description: "Measurement value"},
		},
	}
}
