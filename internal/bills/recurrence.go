package bills

import (
	"time"

	"github.com/angelmondragon/billminder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
)

// NextDueDate computes the due date of the next cycle. Month-based rules keep
// the original day-of-month, clamped to the last valid day of the target
// month (Jan 31 + 1 month is Feb 29 in leap years, Feb 28 otherwise; Feb 29
// + 1 year is Feb 28). Asking for the next occurrence of a one-time bill is a
// programming error.
func NextDueDate(current time.Time, recurrence enums.Recurrence) (time.Time, error) {
	switch recurrence {
	case enums.RecurrenceWeekly:
		return current.AddDate(0, 0, 7), nil
	case enums.RecurrenceMonthly:
		return addMonthsClamped(current, 1), nil
	case enums.RecurrenceTermly:
		return addMonthsClamped(current, 4), nil
	case enums.RecurrenceYearly:
		return addMonthsClamped(current, 12), nil
	default:
		return time.Time{}, pkgerrors.New(pkgerrors.CodeInvalidRecurrence, "recurrence has no next occurrence")
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	target := time.Date(year, month+time.Month(months), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
