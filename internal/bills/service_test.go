package bills

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/billminder-backend/internal/state"
	"github.com/angelmondragon/billminder-backend/pkg/config"
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	"github.com/angelmondragon/billminder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
	"github.com/angelmondragon/billminder-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const testAdminEmail = "admin@example.com"

func newService(t *testing.T) (*Service, state.Store) {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})

	store, err := state.NewFileStore(filepath.Join(t.TempDir(), "snapshot.json"), config.LimitsConfig{FreeBillLimit: 5}, logg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	svc, err := NewService(ServiceParams{Store: store, AdminEmail: testAdminEmail, Logger: logg})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func seedUser(t *testing.T, store state.Store, email string, tier enums.SubscriptionTier) models.User {
	t.Helper()
	ctx := context.Background()
	user := models.User{
		ID:       uuid.New(),
		FullName: "Test User",
		Email:    email,
		Role:     enums.UserRoleUser,
		Tier:     tier,
		IsActive: true,
	}
	if email == testAdminEmail {
		user.Role = enums.UserRoleAdmin
	}

	snapshot := store.Load(ctx)
	snapshot.Users = append(snapshot.Users, user)
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func createRequest(name string) CreateBillRequest {
	return CreateBillRequest{
		Name:       name,
		Category:   enums.BillCategoryRent,
		Amount:     decimal.NewFromInt(1200),
		Currency:   enums.CurrencyUSD,
		DueDate:    date(2024, time.March, 1),
		Recurrence: enums.RecurrenceMonthly,
	}
}

func TestCreatePersistsBillAndAudits(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if bill.IsPaid {
		t.Fatalf("new bill must start unpaid")
	}
	if len(bill.RemindersSent) != 0 {
		t.Fatalf("new bill must start with no reminders sent")
	}

	snapshot := store.Load(ctx)
	if got := snapshot.BillByID(bill.ID); got == nil {
		t.Fatalf("expected bill persisted")
	}
	last := snapshot.Logs[len(snapshot.Logs)-1]
	if last.Action != "BILL_CREATED" || last.UserID != owner.ID {
		t.Fatalf("expected BILL_CREATED audit for owner, got %+v", last)
	}
}

func TestCreateEnforcesFreeTierQuota(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	for i := 0; i < 5; i++ {
		if _, err := svc.Create(ctx, owner, createRequest(fmt.Sprintf("Bill %d", i))); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	_, err := svc.Create(ctx, owner, createRequest("One too many"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeQuotaExceeded) {
		t.Fatalf("expected quota error on sixth bill, got %v", err)
	}
	if got := len(store.Load(ctx).BillsByUser(owner.ID)); got != 5 {
		t.Fatalf("rejected create must not persist, got %d bills", got)
	}
}

func TestCreatePremiumTierIsUnbounded(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierPremium)

	for i := 0; i < 12; i++ {
		if _, err := svc.Create(ctx, owner, createRequest(fmt.Sprintf("Bill %d", i))); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	req := createRequest("Rent")
	req.Amount = decimal.NewFromInt(-5)
	if _, err := svc.Create(ctx, owner, req); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}

	req = createRequest("")
	if _, err := svc.Create(ctx, owner, req); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func TestMarkPaidRecurringSpawnsSuccessor(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paid, successor, err := svc.MarkPaid(ctx, owner, bill.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if !paid.IsPaid {
		t.Fatalf("expected bill marked paid")
	}
	if successor == nil {
		t.Fatalf("monthly bill must spawn a successor")
	}
	if !successor.DueDate.Equal(date(2024, time.April, 1)) {
		t.Fatalf("expected successor due 2024-04-01, got %s", successor.DueDate.Format(time.DateOnly))
	}
	if successor.IsPaid || len(successor.RemindersSent) != 0 {
		t.Fatalf("successor must start unpaid with no reminders")
	}

	snapshot := store.Load(ctx)
	if got := len(snapshot.BillsByUser(owner.ID)); got != 2 {
		t.Fatalf("paid instance must be retained alongside successor, got %d bills", got)
	}
	last := snapshot.Logs[len(snapshot.Logs)-1]
	if last.Action != "BILL_PAID" {
		t.Fatalf("expected BILL_PAID audit, got %s", last.Action)
	}
}

func TestMarkPaidOneTimeHasNoSuccessor(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	req := createRequest("Deposit")
	req.Recurrence = enums.RecurrenceOneTime
	bill, err := svc.Create(ctx, owner, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, successor, err := svc.MarkPaid(ctx, owner, bill.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if successor != nil {
		t.Fatalf("one-time bill must not spawn a successor")
	}
}

func TestMarkPaidTwiceIsNoOp(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.MarkPaid(ctx, owner, bill.ID); err != nil {
		t.Fatalf("first mark paid: %v", err)
	}
	before := len(store.Load(ctx).Bills)

	paid, successor, err := svc.MarkPaid(ctx, owner, bill.ID)
	if err != nil {
		t.Fatalf("second mark paid: %v", err)
	}
	if !paid.IsPaid || successor != nil {
		t.Fatalf("repeated payment must be a no-op")
	}
	if after := len(store.Load(ctx).Bills); after != before {
		t.Fatalf("repeated payment must not add bills: %d != %d", after, before)
	}
}

func TestMarkPaidRequiresOwner(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)
	other := seedUser(t, store, "bob@example.com", enums.SubscriptionTierFree)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := svc.MarkPaid(ctx, other, bill.ID); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
}

func TestUpdateEditsFields(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Rent (new lease)"
	amount := decimal.NewFromInt(1350)
	updated, err := svc.Update(ctx, owner, bill.ID, UpdateBillRequest{Name: &name, Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || !updated.Amount.Equal(amount) {
		t.Fatalf("expected updated fields, got %+v", updated)
	}
	if updated.Currency != bill.Currency {
		t.Fatalf("untouched fields must survive")
	}

	snapshot := store.Load(ctx)
	last := snapshot.Logs[len(snapshot.Logs)-1]
	if last.Action != "BILL_UPDATED" {
		t.Fatalf("expected BILL_UPDATED audit, got %s", last.Action)
	}
}

func TestDeleteByOwner(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, owner, bill.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	snapshot := store.Load(ctx)
	if snapshot.BillByID(bill.ID) != nil {
		t.Fatalf("expected bill removed")
	}
	last := snapshot.Logs[len(snapshot.Logs)-1]
	if last.Action != "BILL_DELETED" || last.UserID != owner.ID {
		t.Fatalf("expected BILL_DELETED audit for owner, got %+v", last)
	}
}

func TestDeleteByAdminAuditsActor(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)
	admin := seedUser(t, store, testAdminEmail, enums.SubscriptionTierPremium)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, admin, bill.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	snapshot := store.Load(ctx)
	last := snapshot.Logs[len(snapshot.Logs)-1]
	if last.UserID != admin.ID {
		t.Fatalf("audit must name the acting administrator, got %s", last.UserID)
	}
}

func TestDeleteByStrangerForbidden(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)
	other := seedUser(t, store, "bob@example.com", enums.SubscriptionTierFree)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, other, bill.ID); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteMissingBillNotFound(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	if err := svc.Delete(ctx, owner, uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEvaluateRemindersPersistsFiredStages(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)

	bill, err := svc.Create(ctx, owner, createRequest("Rent"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := date(2024, time.February, 27)
	fired, err := svc.EvaluateReminders(ctx, owner, bill.ID, now)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	want := []enums.ReminderStage{enums.ReminderStageSevenDay, enums.ReminderStageThreeDay}
	if !stagesEqual(fired, want) {
		t.Fatalf("expected %v, got %v", want, fired)
	}

	again, err := svc.EvaluateReminders(ctx, owner, bill.ID, now)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second evaluation must fire nothing, got %v", again)
	}

	persisted := store.Load(ctx).BillByID(bill.ID)
	if !persisted.RemindersSent.Contains(enums.ReminderStageSevenDay) || !persisted.RemindersSent.Contains(enums.ReminderStageThreeDay) {
		t.Fatalf("fired stages must be persisted, got %v", persisted.RemindersSent)
	}
}

func TestListByOwnerKeepsInsertionOrder(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "alice@example.com", enums.SubscriptionTierFree)
	other := seedUser(t, store, "bob@example.com", enums.SubscriptionTierFree)

	for _, name := range []string{"Rent", "Internet", "Gym"} {
		if _, err := svc.Create(ctx, owner, createRequest(name)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := svc.Create(ctx, other, createRequest("Phone")); err != nil {
		t.Fatalf("create: %v", err)
	}

	bills := svc.ListByOwner(ctx, owner)
	if len(bills) != 3 {
		t.Fatalf("expected 3 bills, got %d", len(bills))
	}
	for i, want := range []string{"Rent", "Internet", "Gym"} {
		if bills[i].Name != want {
			t.Fatalf("expected %s at %d, got %s", want, i, bills[i].Name)
		}
	}
}
