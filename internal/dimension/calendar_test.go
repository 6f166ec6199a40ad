package dimension_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/warehouse/internal/dimension"
	"github.com/eventlens/warehouse/internal/domain"
)

func TestBuildCalendar(t *testing.T) {
	t.Run("default range is dense", func(t *testing.T) {
		rows, err := dimension.BuildCalendar(dimension.DefaultCalendarFromYear, dimension.DefaultCalendarToYear)
		require.NoError(t, err)
		// 2020 through 2030: eleven years, three of them leap years.
		assert.Len(t, rows, 11*365+3)
		assert.NoError(t, dimension.ValidateCalendar(rows))

		assert.Equal(t, int64(20200101), rows[0].TimeSK)
		assert.Equal(t, int64(20301231), rows[len(rows)-1].TimeSK)
	})

	t.Run("derived attributes", func(t *testing.T) {
		rows, err := dimension.BuildCalendar(2025, 2025)
		require.NoError(t, err)
		require.Len(t, rows, 365)

		var aug1 domain.TimeRow
		for _, r := range rows {
			if r.TimeSK == 20250801 {
				aug1 = r
			}
		}
		require.NotZero(t, aug1.TimeSK)
		assert.Equal(t, 2025, aug1.Year)
		assert.Equal(t, 3, aug1.Quarter)
		assert.Equal(t, 8, aug1.Month)
		assert.Equal(t, "August", aug1.MonthName)
		assert.Equal(t, 1, aug1.Day)
		assert.Equal(t, 6, aug1.DayOfWeek) // Friday, with Sunday = 1
		assert.Equal(t, "Friday", aug1.DayName)
		assert.False(t, aug1.IsWeekend)
	})

	t.Run("weekend flag", func(t *testing.T) {
		rows, err := dimension.BuildCalendar(2025, 2025)
		require.NoError(t, err)

		weekends := 0
		for _, r := range rows {
			if r.IsWeekend {
				weekends++
				assert.Contains(t, []string{"Saturday", "Sunday"}, r.DayName)
			}
		}
		// 2025 has 52 Saturdays and 52 Sundays.
		assert.Equal(t, 104, weekends)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := dimension.BuildCalendar(2030, 2020)
		require.Error(t, err)
	})
}

func TestValidateCalendar(t *testing.T) {
	rows, err := dimension.BuildCalendar(2025, 2025)
	require.NoError(t, err)

	// Declaring two rows for the same date is a duplicate natural key.
	rows = append(rows, rows[0])
	err = dimension.ValidateCalendar(rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateNaturalKey)
}
