package evaluation

import (
	"fmt"
	"time"

	"github.com/mweber/quotesd/internal/contracts"
)

// SubtractInterval moves a date back by a calendar interval.
//
// Subtraction is calendar-correct, not fixed-duration: the day of month is
// clamped to the last day of the target month, so one month before
// 2024-03-31 is 2024-02-29 and never a day in April. time.AddDate would
// normalize the overflow forward, which is exactly the behavior this
// function exists to avoid.
func SubtractInterval(date time.Time, count int, unit contracts.IntervalUnit) (time.Time, error) {
	if count < 1 {
		return time.Time{}, fmt.Errorf("%w, got %d", contracts.ErrInvalidInterval, count)
	}

	switch unit {
	case contracts.UnitDay:
		// Day subtraction never overflows a month boundary
		return date.AddDate(0, 0, -count), nil
	case contracts.UnitMonth:
		return subtractMonths(date, count), nil
	case contracts.UnitYear:
		return subtractMonths(date, count*12), nil
	default:
		return time.Time{}, fmt.Errorf("unknown interval unit %q", unit)
	}
}

// subtractMonths subtracts whole months with the day clamped to the target
// month's length
func subtractMonths(date time.Time, months int) time.Time {
	year := date.Year()
	month := int(date.Month()) - months

	// Normalize month into 1..12, borrowing from the year
	for month < 1 {
		month += 12
		year--
	}

	day := date.Day()
	if last := lastDayOfMonth(year, time.Month(month)); day > last {
		day = last
	}

	return time.Date(year, time.Month(month), day,
		date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}

// lastDayOfMonth returns the number of days in the given month
func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
