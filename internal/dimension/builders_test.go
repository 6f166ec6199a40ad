package dimension_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/warehouse/internal/dimension"
	"github.com/eventlens/warehouse/internal/domain"
	"github.com/eventlens/warehouse/internal/types"
)

func stagingBatch() []domain.StagingEvent {
	return []domain.StagingEvent{
		{
			EventID:        "ev-1",
			UserID:         "u-1",
			URL:            "https://example.com/a",
			SentimentScore: "0.82",
			Entities:       "acme, widgets",
			IP:             "10.0.0.1",
			Country:        "DE",
			City:           "Berlin",
			Banner:         "summer_promo_300x250",
			CategoryLevel1: "electronics",
			CategoryLevel2: "audio",
		},
		{
			EventID: "ev-2",
			UserID:  "u-1", // repeat user
			URL:     "https://example.com/a",
			IP:      "10.0.0.2",
			Banner:  "summer_promo_728x90",
		},
		{
			EventID:        "ev-3",
			UserID:         "u-2",
			URL:            "https://example.com/b",
			SentimentScore: "not-a-number",
			CategoryLevel1: "/news/politics/europe", // composite path revision
		},
		{
			EventID: "ev-4", // no user, no url, no ip
		},
	}
}

func TestExtractUsers(t *testing.T) {
	rows := dimension.ExtractUsers(stagingBatch())
	require.Len(t, rows, 2)
	assert.Equal(t, "u-1", rows[0].UserID)
	assert.Equal(t, dimension.UserKey("u-1"), rows[0].UserSK)
	assert.Equal(t, "u-2", rows[1].UserID)
}

func TestExtractContent(t *testing.T) {
	rows := dimension.ExtractContent(stagingBatch())
	require.Len(t, rows, 2)

	a := rows[0]
	assert.Equal(t, "https://example.com/a", a.URL)
	assert.Equal(t, dimension.ContentKey(a.URL), a.ContentSK)
	require.NotNil(t, a.SentimentScore)
	assert.InDelta(t, 0.82, *a.SentimentScore, 1e-9)
	assert.Equal(t, "electronics", types.SafeString(a.CategoryLevel1))
	assert.Equal(t, "audio", types.SafeString(a.CategoryLevel2))
	assert.Nil(t, a.CategoryLevel3)

	b := rows[1]
	assert.Nil(t, b.SentimentScore, "unparsable score becomes null")
	assert.Equal(t, "news", types.SafeString(b.CategoryLevel1))
	assert.Equal(t, "politics", types.SafeString(b.CategoryLevel2))
	assert.Equal(t, "europe", types.SafeString(b.CategoryLevel3))
}

func TestExtractBanners(t *testing.T) {
	rows := dimension.ExtractBanners(stagingBatch())
	require.Len(t, rows, 2)

	assert.Equal(t, "summer_promo", rows[0].BannerName)
	assert.Equal(t, "300x250", types.SafeString(rows[0].BannerSize))
	assert.Equal(t, "summer_promo", rows[1].BannerName)
	assert.Equal(t, "728x90", types.SafeString(rows[1].BannerSize))
	assert.NotEqual(t, rows[0].BannerSK, rows[1].BannerSK)
}

func TestExtractLocations(t *testing.T) {
	rows := dimension.ExtractLocations(stagingBatch())
	require.Len(t, rows, 2)
	assert.Equal(t, "10.0.0.1", rows[0].IP)
	assert.Equal(t, "DE", types.SafeString(rows[0].Country))
	assert.Equal(t, "Berlin", types.SafeString(rows[0].City))
	assert.Nil(t, rows[1].Country)
}

func TestMerge(t *testing.T) {
	existing := []domain.UserRow{
		{UserSK: dimension.UserKey("u-1"), UserID: "u-1"},
	}
	incoming := []domain.UserRow{
		{UserSK: dimension.UserKey("u-1"), UserID: "u-1"},
		{UserSK: dimension.UserKey("u-2"), UserID: "u-2"},
		{UserSK: dimension.UserKey("u-2"), UserID: "u-2"}, // duplicate in batch
	}

	t.Run("insert only keeps existing rows", func(t *testing.T) {
		merged, err := dimension.Merge(existing, incoming, dimension.PolicyInsertOnly)
		require.NoError(t, err)
		require.Len(t, merged, 2)
		assert.Equal(t, "u-1", merged[0].UserID)
		assert.Equal(t, "u-2", merged[1].UserID)
	})

	t.Run("overwrite replaces attributes in place", func(t *testing.T) {
		berlin := "Berlin"
		hamburg := "Hamburg"
		old := []domain.LocationRow{
			{LocationSK: dimension.LocationKey("10.0.0.1"), IP: "10.0.0.1", City: &berlin},
		}
		update := []domain.LocationRow{
			{LocationSK: dimension.LocationKey("10.0.0.1"), IP: "10.0.0.1", City: &hamburg},
		}

		merged, err := dimension.Merge(old, update, dimension.PolicyOverwrite)
		require.NoError(t, err)
		require.Len(t, merged, 1)
		assert.Equal(t, "Hamburg", types.SafeString(merged[0].City))

		kept, err := dimension.Merge(old, update, dimension.PolicyInsertOnly)
		require.NoError(t, err)
		assert.Equal(t, "Berlin", types.SafeString(kept[0].City))
	})

	t.Run("unknown policy rejected", func(t *testing.T) {
		_, err := dimension.Merge(existing, incoming, dimension.Policy("versioned"))
		require.Error(t, err)
	})
}
