package bills

import (
	"time"

	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	"github.com/angelmondragon/billminder-backend/pkg/enums"
)

// EvaluateStages returns the reminder stages newly eligible at now. Stages
// are independent and cumulative: a bill created the day before its due date
// fires only the stages whose thresholds have passed, without retroactively
// fabricating earlier ones. Stages already sent this cycle and paid bills
// never fire, so re-evaluating at the same instant returns nothing.
func EvaluateStages(bill models.Bill, now time.Time) []enums.ReminderStage {
	if bill.IsPaid {
		return nil
	}

	var fired []enums.ReminderStage
	for _, stage := range enums.ReminderStages() {
		if bill.RemindersSent.Contains(stage) {
			continue
		}
		threshold := bill.DueDate.Add(-stage.Lead())
		if !now.Before(threshold) {
			fired = append(fired, stage)
		}
	}
	return fired
}
