package enums

import (
	"fmt"
	"time"
)

// ReminderStage marks one of the reminder thresholds leading up to a bill's
// due date. Each stage fires at most once per due-date cycle.
type ReminderStage string

const (
	ReminderStageSevenDay ReminderStage = "7-day"
	ReminderStageThreeDay ReminderStage = "3-day"
	ReminderStageDueDate  ReminderStage = "due-date"
)

var validReminderStages = []ReminderStage{
	ReminderStageSevenDay,
	ReminderStageThreeDay,
	ReminderStageDueDate,
}

// ReminderStages returns all stages in firing order (earliest threshold first).
func ReminderStages() []ReminderStage {
	stages := make([]ReminderStage, len(validReminderStages))
	copy(stages, validReminderStages)
	return stages
}

// String implements fmt.Stringer.
func (s ReminderStage) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ReminderStage.
func (s ReminderStage) IsValid() bool {
	for _, candidate := range validReminderStages {
		if candidate == s {
			return true
		}
	}
	return false
}

// Lead returns how far ahead of the due date the stage becomes eligible.
func (s ReminderStage) Lead() time.Duration {
	switch s {
	case ReminderStageSevenDay:
		return 7 * 24 * time.Hour
	case ReminderStageThreeDay:
		return 3 * 24 * time.Hour
	default:
		return 0
	}
}

// ParseReminderStage converts raw input into a ReminderStage.
func ParseReminderStage(value string) (ReminderStage, error) {
	for _, candidate := range validReminderStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reminder stage %q", value)
}
