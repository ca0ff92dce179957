package bills

import (
	"testing"
	"time"

	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/billminder-backend/pkg/db/types"
	"github.com/angelmondragon/billminder-backend/pkg/enums"
)

func reminderBill(dueDate time.Time) models.Bill {
	return models.Bill{
		Name:          "Rent",
		DueDate:       dueDate,
		Recurrence:    enums.RecurrenceMonthly,
		RemindersSent: dbtypes.StageSet{},
	}
}

func stagesEqual(got, want []enums.ReminderStage) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestEvaluateStagesFiresEarliestFirst(t *testing.T) {
	due := date(2024, time.March, 10)
	bill := reminderBill(due)

	got := EvaluateStages(bill, date(2024, time.March, 3))
	if !stagesEqual(got, []enums.ReminderStage{enums.ReminderStageSevenDay}) {
		t.Fatalf("expected only the 7-day stage, got %v", got)
	}
}

func TestEvaluateStagesCumulativeWhenCreatedLate(t *testing.T) {
	// Bill created two days before the due date: both the 7-day and 3-day
	// thresholds are already behind us, but not the due-date stage.
	due := date(2024, time.March, 10)
	bill := reminderBill(due)

	got := EvaluateStages(bill, date(2024, time.March, 8))
	want := []enums.ReminderStage{enums.ReminderStageSevenDay, enums.ReminderStageThreeDay}
	if !stagesEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEvaluateStagesAllOnDueDate(t *testing.T) {
	due := date(2024, time.March, 10)
	bill := reminderBill(due)

	got := EvaluateStages(bill, due)
	want := enums.ReminderStages()
	if !stagesEqual(got, want) {
		t.Fatalf("expected all stages, got %v", got)
	}
}

func TestEvaluateStagesSkipsAlreadySent(t *testing.T) {
	due := date(2024, time.March, 10)
	bill := reminderBill(due)
	bill.RemindersSent = bill.RemindersSent.Add(enums.ReminderStageSevenDay)

	got := EvaluateStages(bill, date(2024, time.March, 8))
	if !stagesEqual(got, []enums.ReminderStage{enums.ReminderStageThreeDay}) {
		t.Fatalf("expected only the 3-day stage, got %v", got)
	}
}

func TestEvaluateStagesIdempotent(t *testing.T) {
	due := date(2024, time.March, 10)
	bill := reminderBill(due)
	now := date(2024, time.March, 8)

	for _, stage := range EvaluateStages(bill, now) {
		bill.RemindersSent = bill.RemindersSent.Add(stage)
	}
	if again := EvaluateStages(bill, now); len(again) != 0 {
		t.Fatalf("re-evaluating at the same instant must fire nothing, got %v", again)
	}
}

func TestEvaluateStagesPaidBillNeverFires(t *testing.T) {
	due := date(2024, time.March, 10)
	bill := reminderBill(due)
	bill.IsPaid = true

	if got := EvaluateStages(bill, due); len(got) != 0 {
		t.Fatalf("paid bill must not fire reminders, got %v", got)
	}
}

func TestEvaluateStagesBeforeAnyThreshold(t *testing.T) {
	due := date(2024, time.March, 10)
	bill := reminderBill(due)

	if got := EvaluateStages(bill, date(2024, time.March, 1)); len(got) != 0 {
		t.Fatalf("expected no stages before the 7-day threshold, got %v", got)
	}
}
