package fact_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/warehouse/internal/dimension"
	"github.com/eventlens/warehouse/internal/domain"
	"github.com/eventlens/warehouse/internal/fact"
	"github.com/eventlens/warehouse/internal/types"
)

func indexedDims(t *testing.T, events []domain.StagingEvent) fact.Dimensions {
	t.Helper()
	times, err := dimension.BuildCalendar(2025, 2025)
	require.NoError(t, err)
	return fact.IndexDimensions(
		dimension.ExtractUsers(events),
		dimension.ExtractContent(events),
		dimension.ExtractBanners(events),
		dimension.ExtractLocations(events),
		times,
	)
}

func TestBuild(t *testing.T) {
	events := []domain.StagingEvent{
		{
			EventID:   "ev-1",
			UserID:    "u-1",
			URL:       "https://example.com/a",
			EventName: "click",
			ElementID: "cta-button",
			IP:        "10.0.0.1",
			EventTime: "2025-08-01 13:45:09",
			Banner:    "summer_promo_300x250",
			UnitName:  "duration_ms",
			UnitValue: "420.5",
		},
		{
			EventID:   "ev-2",
			EventTime: "2025-08-02 08:00:00",
			// no user, url, banner or ip: all foreign keys stay null
		},
	}
	dims := indexedDims(t, events)

	rows, errs := fact.Build(events, dims)
	require.Empty(t, errs)
	require.Len(t, rows, 2)

	t.Run("fully resolved event", func(t *testing.T) {
		row := rows[0]
		assert.Equal(t, "ev-1", row.EventID)
		assert.Equal(t, time.Date(2025, 8, 1, 13, 45, 9, 0, time.UTC), row.EventTimestamp)
		require.NotNil(t, row.TimeSK)
		assert.Equal(t, int64(20250801), *row.TimeSK)
		require.NotNil(t, row.UserSK)
		assert.Equal(t, dimension.UserKey("u-1"), *row.UserSK)
		require.NotNil(t, row.ContentSK)
		require.NotNil(t, row.BannerSK)
		assert.Equal(t, dimension.BannerKey("summer_promo", "300x250"), *row.BannerSK)
		require.NotNil(t, row.LocationSK)
		assert.Equal(t, "click", types.SafeString(row.EventName))
		assert.Equal(t, "duration_ms", types.SafeString(row.UnitName))
		require.NotNil(t, row.UnitValue)
		assert.InDelta(t, 420.5, *row.UnitValue, 1e-9)
	})

	t.Run("unresolved dimensions leave keys null", func(t *testing.T) {
		row := rows[1]
		require.NotNil(t, row.TimeSK, "time always resolves inside the seeded range")
		assert.Nil(t, row.UserSK)
		assert.Nil(t, row.ContentSK)
		assert.Nil(t, row.BannerSK)
		assert.Nil(t, row.LocationSK)
		assert.Nil(t, row.UnitValue)
	})
}

func TestBuildRejections(t *testing.T) {
	events := []domain.StagingEvent{
		{EventTime: "2025-08-01 10:00:00"},                     // no event id
		{EventID: "ev-1", EventTime: "yesterday"},              // bad timestamp
		{EventID: "ev-2", EventTime: "2025-08-01 10:00:00"},    // ok
		{EventID: "ev-2", EventTime: "2025-08-01 10:00:01"},    // duplicate id
		{EventID: "ev-5", EventTime: "2019-06-01 10:00:00.25"}, // outside calendar
	}
	dims := indexedDims(t, events)

	rows, errs := fact.Build(events, dims)
	require.Len(t, rows, 2)
	require.Len(t, errs, 3)

	assert.ErrorIs(t, errs[0], domain.ErrMissingEventID)
	assert.Equal(t, 0, errs[0].Index)
	assert.ErrorIs(t, errs[1], domain.ErrBadEventTime)
	assert.ErrorIs(t, errs[2], domain.ErrDuplicateNaturalKey)

	// An event dated outside the seeded calendar loads with a null time key.
	assert.Nil(t, rows[1].TimeSK)
}

func TestCheckReferences(t *testing.T) {
	events := []domain.StagingEvent{
		{EventID: "ev-1", UserID: "u-1", EventTime: "2025-08-01 10:00:00"},
	}
	dims := indexedDims(t, events)
	rows, errs := fact.Build(events, dims)
	require.Empty(t, errs)

	t.Run("built rows pass", func(t *testing.T) {
		require.NoError(t, fact.CheckReferences(rows, dims))
	})

	t.Run("foreign key to a missing dimension row fails", func(t *testing.T) {
		bad := rows[0]
		bad.UserSK = types.Int64Ptr(12345)
		err := fact.CheckReferences([]domain.FactRow{bad}, dims)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnresolvedReference)
		assert.Contains(t, err.Error(), "user_sk")
	})

	t.Run("null keys are legal", func(t *testing.T) {
		row := domain.FactRow{EventID: "ev-9", EventTimestamp: time.Now()}
		require.NoError(t, fact.CheckReferences([]domain.FactRow{row}, dims))
	})
}
