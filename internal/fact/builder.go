package fact

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/eventlens/warehouse/internal/dimension"
	"github.com/eventlens/warehouse/internal/domain"
	"github.com/eventlens/warehouse/internal/types"
)

// Dimensions indexes dimension rows by natural key for fact resolution, plus
// the set of valid surrogate keys per dimension for the referential check.
type Dimensions struct {
	users     map[string]int64
	content   map[string]int64
	banners   map[string]int64
	locations map[string]int64
	times     map[int64]struct{}
}

// IndexDimensions builds the lookup indexes the fact builder resolves against.
func IndexDimensions(
	users []domain.UserRow,
	content []domain.ContentRow,
	banners []domain.BannerRow,
	locations []domain.LocationRow,
	times []domain.TimeRow,
) Dimensions {
	d := Dimensions{
		users:     make(map[string]int64, len(users)),
		content:   make(map[string]int64, len(content)),
		banners:   make(map[string]int64, len(banners)),
		locations: make(map[string]int64, len(locations)),
		times:     make(map[int64]struct{}, len(times)),
	}
	for _, r := range users {
		d.users[r.NaturalKey()] = r.UserSK
	}
	for _, r := range content {
		d.content[r.NaturalKey()] = r.ContentSK
	}
	for _, r := range banners {
		d.banners[r.NaturalKey()] = r.BannerSK
	}
	for _, r := range locations {
		d.locations[r.NaturalKey()] = r.LocationSK
	}
	for _, r := range times {
		d.times[r.TimeSK] = struct{}{}
	}
	return d
}

// BuildError records why a single staging event could not become a fact row.
type BuildError struct {
	Index   int
	EventID string
	Err     error
}

func (e BuildError) Error() string {
	return fmt.Sprintf("event %d (%q): %v", e.Index, e.EventID, e.Err)
}

func (e BuildError) Unwrap() error { return e.Err }

// Build assembles fact rows from staging events, resolving foreign keys
// against the dimension indexes. A fact row needs a unique event identifier
// and a parsable timestamp; events missing either are returned as errors and
// skipped. Dimensions that cannot be resolved leave the foreign key null, so
// an event with an unknown IP still loads, just without a location.
func Build(events []domain.StagingEvent, dims Dimensions) ([]domain.FactRow, []BuildError) {
	rows := make([]domain.FactRow, 0, len(events))
	var errs []BuildError

	seen := make(map[string]struct{}, len(events))
	for i, e := range events {
		id := strings.TrimSpace(e.EventID)
		if id == "" {
			errs = append(errs, BuildError{Index: i, Err: domain.ErrMissingEventID})
			continue
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, BuildError{Index: i, EventID: id, Err: domain.ErrDuplicateNaturalKey})
			continue
		}

		ts, err := dimension.ParseEventTime(e.EventTime)
		if err != nil {
			errs = append(errs, BuildError{Index: i, EventID: id, Err: err})
			continue
		}
		seen[id] = struct{}{}

		row := domain.FactRow{
			EventID:        id,
			EventTimestamp: ts,
			EventName:      types.StringOrNil(e.EventName),
			ElementID:      types.StringOrNil(e.ElementID),
			UnitName:       types.StringOrNil(e.UnitName),
			UnitValue:      types.FloatOrNil(e.UnitValue),
		}

		if sk := dimension.TimeKey(civil.DateOf(ts)); hasTime(dims, sk) {
			row.TimeSK = types.Int64Ptr(sk)
		}
		if sk, ok := dims.users[strings.TrimSpace(e.UserID)]; ok {
			row.UserSK = types.Int64Ptr(sk)
		}
		if sk, ok := dims.content[strings.TrimSpace(e.URL)]; ok {
			row.ContentSK = types.Int64Ptr(sk)
		}
		if e.Banner != "" {
			name, size := dimension.ParseBanner(e.Banner)
			if sk, ok := dims.banners[name+"\x00"+size]; ok {
				row.BannerSK = types.Int64Ptr(sk)
			}
		}
		if sk, ok := dims.locations[strings.TrimSpace(e.IP)]; ok {
			row.LocationSK = types.Int64Ptr(sk)
		}

		rows = append(rows, row)
	}

	return rows, errs
}

func hasTime(dims Dimensions, sk int64) bool {
	_, ok := dims.times[sk]
	return ok
}
