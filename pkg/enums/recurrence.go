package enums

import "fmt"

// Recurrence describes how a bill repeats after it is paid.
type Recurrence string

const (
	RecurrenceOneTime Recurrence = "one-time"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceTermly  Recurrence = "termly"
	RecurrenceYearly  Recurrence = "yearly"
)

var validRecurrences = []Recurrence{
	RecurrenceOneTime,
	RecurrenceWeekly,
	RecurrenceMonthly,
	RecurrenceTermly,
	RecurrenceYearly,
}

// String implements fmt.Stringer.
func (r Recurrence) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Recurrence.
func (r Recurrence) IsValid() bool {
	for _, candidate := range validRecurrences {
		if candidate == r {
			return true
		}
	}
	return false
}

// Repeats reports whether paying the bill rolls it into a next cycle.
func (r Recurrence) Repeats() bool {
	return r.IsValid() && r != RecurrenceOneTime
}

// ParseRecurrence converts raw input into a Recurrence.
func ParseRecurrence(value string) (Recurrence, error) {
	for _, candidate := range validRecurrences {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recurrence %q", value)
}
