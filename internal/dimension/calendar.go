package dimension

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/eventlens/warehouse/internal/domain"
)

// Default calendar range the time dimension is pre-populated for.
const (
	DefaultCalendarFromYear = 2020
	DefaultCalendarToYear   = 2030
)

// BuildCalendar returns one TimeRow per calendar day from January 1st of
// fromYear through December 31st of toYear, with all derived attributes
// pre-computed. The time dimension is populated densely up front, independent
// of observed events.
func BuildCalendar(fromYear, toYear int) ([]domain.TimeRow, error) {
	if fromYear > toYear {
		return nil, fmt.Errorf("calendar range %d-%d is inverted", fromYear, toYear)
	}

	start := time.Date(fromYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(toYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	rows := make([]domain.TimeRow, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rows = append(rows, timeRow(d))
	}
	return rows, nil
}

// ValidateCalendar rejects row sets carrying the same date more than once.
// The date is the natural key of the time dimension; the warehouse itself
// enforces no uniqueness, so this check runs before every seed.
func ValidateCalendar(rows []domain.TimeRow) error {
	seen := make(map[int64]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.TimeSK]; ok {
			return fmt.Errorf("date %s: %w", r.Date, domain.ErrDuplicateNaturalKey)
		}
		seen[r.TimeSK] = struct{}{}
	}
	return nil
}

func timeRow(t time.Time) domain.TimeRow {
	date := civil.DateOf(t)
	weekday := t.Weekday()
	return domain.TimeRow{
		TimeSK:    TimeKey(date),
		Date:      date,
		Year:      t.Year(),
		Quarter:   (int(t.Month())-1)/3 + 1,
		Month:     int(t.Month()),
		MonthName: t.Month().String(),
		Day:       t.Day(),
		DayOfWeek: int(weekday) + 1,
		DayName:   weekday.String(),
		IsWeekend: weekday == time.Saturday || weekday == time.Sunday,
	}
}
