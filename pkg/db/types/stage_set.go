package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/angelmondragon/billminder-backend/pkg/enums"
)

// StageSet stores the reminder stages already fired for the current due-date
// cycle. Persisted as a comma-joined text column; serialized as a JSON array
// by the file backend.
type StageSet []enums.ReminderStage

func (s *StageSet) Scan(src any) error {
	if src == nil {
		*s = StageSet{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return s.parseFromString(v)
	case []byte:
		return s.parseFromString(string(v))
	default:
		return fmt.Errorf("StageSet: unsupported Scan type %T", src)
	}
}

func (s StageSet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(s))
	for _, stage := range s {
		parts = append(parts, stage.String())
	}
	return strings.Join(parts, ","), nil
}

func (s *StageSet) parseFromString(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*s = StageSet{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(StageSet, 0, len(parts))
	for _, part := range parts {
		stage, err := enums.ParseReminderStage(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("StageSet: %w", err)
		}
		out = append(out, stage)
	}
	*s = out
	return nil
}

// Contains reports whether the stage has already fired this cycle.
func (s StageSet) Contains(stage enums.ReminderStage) bool {
	for _, candidate := range s {
		if candidate == stage {
			return true
		}
	}
	return false
}

// Add appends the stage unless it is already present.
func (s StageSet) Add(stage enums.ReminderStage) StageSet {
	if s.Contains(stage) {
		return s
	}
	return append(s, stage)
}
