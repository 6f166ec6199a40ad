package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// StagingEvent is one raw record from the staging table. Every field is a
// loosely-typed string; empty means null. The staging table is overwritten
// wholesale on each load cycle, so nothing here carries identity guarantees.
type StagingEvent struct {
	EventID        string
	UserID         string
	URL            string
	EventName      string
	ElementID      string
	SentimentScore string
	Entities       string
	IP             string
	Country        string
	City           string
	EventTime      string
	Banner         string
	UnitName       string
	UnitValue      string
	CategoryLevel1 string
	CategoryLevel2 string
	CategoryLevel3 string
}

// UserRow is a row of dim_user.
type UserRow struct {
	UserSK int64
	UserID string
}

// NaturalKey returns the natural key of the row.
func (r UserRow) NaturalKey() string { return r.UserID }

// ContentRow is a row of dim_content.
type ContentRow struct {
	ContentSK      int64
	URL            string
	SentimentScore *float64
	Entities       *string
	CategoryLevel1 *string
	CategoryLevel2 *string
	CategoryLevel3 *string
}

// NaturalKey returns the natural key of the row.
func (r ContentRow) NaturalKey() string { return r.URL }

// BannerRow is a row of dim_banner. The natural key is the (name, size) pair
// parsed from the composite raw banner identifier.
type BannerRow struct {
	BannerSK   int64
	BannerName string
	BannerSize *string
}

// NaturalKey returns the natural key of the row. A missing size participates
// as the empty string so sized and unsized banners with the same name stay
// distinct rows.
func (r BannerRow) NaturalKey() string {
	size := ""
	if r.BannerSize != nil {
		size = *r.BannerSize
	}
	return r.BannerName + "\x00" + size
}

// LocationRow is a row of dim_location.
type LocationRow struct {
	LocationSK int64
	IP         string
	Country    *string
	City       *string
}

// NaturalKey returns the natural key of the row.
func (r LocationRow) NaturalKey() string { return r.IP }

// TimeRow is a row of dim_time: fully pre-computed calendar attributes for a
// single date. The surrogate key is the date encoded as yyyymmdd.
type TimeRow struct {
	TimeSK    int64
	Date      civil.Date
	Year      int
	Quarter   int
	Month     int
	MonthName string
	Day       int
	// DayOfWeek is 1 = Sunday through 7 = Saturday
	DayOfWeek int
	DayName   string
	IsWeekend bool
}

// NaturalKey returns the natural key of the row.
func (r TimeRow) NaturalKey() string { return r.Date.String() }

// Values returns the row as a column-name-keyed map suitable for a warehouse
// row insert.
func (r TimeRow) Values() map[string]any {
	return map[string]any{
		"time_sk":     r.TimeSK,
		"date":        r.Date,
		"year":        r.Year,
		"quarter":     r.Quarter,
		"month":       r.Month,
		"month_name":  r.MonthName,
		"day":         r.Day,
		"day_of_week": r.DayOfWeek,
		"day_name":    r.DayName,
		"is_weekend":  r.IsWeekend,
	}
}

// FactRow is a row of fact_events. Foreign keys are nullable: an event may
// reference a dimension the transform could not resolve.
type FactRow struct {
	EventID        string
	EventTimestamp time.Time
	TimeSK         *int64
	UserSK         *int64
	ContentSK      *int64
	BannerSK       *int64
	LocationSK     *int64
	EventName      *string
	ElementID      *string
	UnitName       *string
	UnitValue      *float64
}
