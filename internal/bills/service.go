package bills

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/billminder-backend/internal/audit"
	"github.com/angelmondragon/billminder-backend/internal/state"
	"github.com/angelmondragon/billminder-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/billminder-backend/pkg/db/types"
	"github.com/angelmondragon/billminder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/billminder-backend/pkg/errors"
	"github.com/angelmondragon/billminder-backend/pkg/logger"
	"github.com/angelmondragon/billminder-backend/pkg/validate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBillRequest is the draft for a new bill.
type CreateBillRequest struct {
	Name       string             `json:"name" validate:"required"`
	Category   enums.BillCategory `json:"category"`
	Amount     decimal.Decimal    `json:"amount"`
	Currency   enums.Currency     `json:"currency"`
	DueDate    time.Time          `json:"dueDate"`
	Recurrence enums.Recurrence   `json:"recurrence"`
}

// UpdateBillRequest carries the owner-editable fields. Nil pointers leave the
// field unchanged.
type UpdateBillRequest struct {
	Name     *string             `json:"name,omitempty"`
	Category *enums.BillCategory `json:"category,omitempty"`
	Amount   *decimal.Decimal    `json:"amount,omitempty"`
	Currency *enums.Currency     `json:"currency,omitempty"`
	DueDate  *time.Time          `json:"dueDate,omitempty"`
}

// ServiceParams bundles the dependencies for the bill lifecycle engine.
type ServiceParams struct {
	Store      state.Store
	AdminEmail string
	Logger     *logger.Logger
}

// Service creates, updates, pays, and deletes bills and drives their
// recurrence and reminder state.
type Service struct {
	store      state.Store
	adminEmail string
	logg       *logger.Logger
}

// NewService constructs the bill service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if params.AdminEmail == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{store: params.Store, adminEmail: params.AdminEmail, logg: params.Logger}, nil
}

// Create adds a bill for the owner, enforcing the free-tier quota. Premium
// accounts are unbounded.
func (s *Service) Create(ctx context.Context, owner models.User, req CreateBillRequest) (models.Bill, error) {
	if err := validate.Struct(req); err != nil {
		return models.Bill{}, err
	}
	if !req.Category.IsValid() {
		return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid bill category")
	}
	if !req.Currency.IsValid() {
		return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if !req.Recurrence.IsValid() {
		return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid recurrence")
	}
	if req.Amount.IsNegative() {
		return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	if req.DueDate.IsZero() {
		return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "due date is required")
	}

	snapshot := s.store.Load(ctx)

	if owner.Tier == enums.SubscriptionTierFree {
		if held := len(snapshot.BillsByUser(owner.ID)); held >= snapshot.Limits.FreeBillLimit {
			return models.Bill{}, pkgerrors.New(pkgerrors.CodeQuotaExceeded,
				fmt.Sprintf("free tier is limited to %d bills", snapshot.Limits.FreeBillLimit))
		}
	}

	bill := models.Bill{
		ID:            uuid.New(),
		UserID:        owner.ID,
		Name:          req.Name,
		Category:      req.Category,
		Amount:        req.Amount,
		Currency:      req.Currency,
		DueDate:       req.DueDate,
		Recurrence:    req.Recurrence,
		IsPaid:        false,
		RemindersSent: dbtypes.StageSet{},
		CreatedAt:     time.Now().UTC(),
	}

	snapshot.Bills = append(snapshot.Bills, bill)
	snapshot.AppendLog(audit.Record(audit.ActionBillCreated, owner.ID, fmt.Sprintf("Created bill: %s", bill.Name)))
	if err := s.store.Save(ctx, snapshot); err != nil {
		return models.Bill{}, err
	}

	s.logg.Info(s.logg.WithBillID(s.logg.WithUserID(ctx, owner.ID.String()), bill.ID.String()), "bill created")
	return bill, nil
}

// MarkPaid settles the bill. A recurring bill immediately spawns its next
// cycle: a fresh unpaid instance with the rolled-over due date and an empty
// reminder set, while the settled instance is retained for history. Paying an
// already-paid bill is a no-op.
func (s *Service) MarkPaid(ctx context.Context, actor models.User, billID uuid.UUID) (models.Bill, *models.Bill, error) {
	snapshot := s.store.Load(ctx)

	bill := snapshot.BillByID(billID)
	if bill == nil {
		return models.Bill{}, nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
	}
	if bill.UserID != actor.ID {
		return models.Bill{}, nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can pay a bill")
	}
	if bill.IsPaid {
		return *bill, nil, nil
	}

	bill.IsPaid = true

	var successor *models.Bill
	if bill.Recurrence.Repeats() {
		nextDue, err := NextDueDate(bill.DueDate, bill.Recurrence)
		if err != nil {
			return models.Bill{}, nil, err
		}
		next := models.Bill{
			ID:            uuid.New(),
			UserID:        bill.UserID,
			Name:          bill.Name,
			Category:      bill.Category,
			Amount:        bill.Amount,
			Currency:      bill.Currency,
			DueDate:       nextDue,
			Recurrence:    bill.Recurrence,
			IsPaid:        false,
			RemindersSent: dbtypes.StageSet{},
			CreatedAt:     time.Now().UTC(),
		}
		snapshot.Bills = append(snapshot.Bills, next)
		successor = &next
	}

	snapshot.AppendLog(audit.Record(audit.ActionBillPaid, actor.ID, fmt.Sprintf("Marked bill paid: %s", bill.Name)))

	paid := *bill
	if err := s.store.Save(ctx, snapshot); err != nil {
		return models.Bill{}, nil, err
	}

	s.logg.Info(s.logg.WithBillID(s.logg.WithUserID(ctx, actor.ID.String()), billID.String()), "bill paid")
	return paid, successor, nil
}

// Update edits the owner-editable fields of a bill.
func (s *Service) Update(ctx context.Context, actor models.User, billID uuid.UUID, req UpdateBillRequest) (models.Bill, error) {
	snapshot := s.store.Load(ctx)

	bill := snapshot.BillByID(billID)
	if bill == nil {
		return models.Bill{}, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
	}
	if bill.UserID != actor.ID {
		return models.Bill{}, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can edit a bill")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		bill.Name = *req.Name
	}
	if req.Category != nil {
		if !req.Category.IsValid() {
			return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid bill category")
		}
		bill.Category = *req.Category
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() {
			return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
		}
		bill.Amount = *req.Amount
	}
	if req.Currency != nil {
		if !req.Currency.IsValid() {
			return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		bill.Currency = *req.Currency
	}
	if req.DueDate != nil {
		if req.DueDate.IsZero() {
			return models.Bill{}, pkgerrors.New(pkgerrors.CodeValidation, "due date must not be zero")
		}
		bill.DueDate = *req.DueDate
	}

	snapshot.AppendLog(audit.Record(audit.ActionBillUpdated, actor.ID, fmt.Sprintf("Updated bill: %s", bill.Name)))
	updated := *bill
	if err := s.store.Save(ctx, snapshot); err != nil {
		return models.Bill{}, err
	}
	return updated, nil
}

// Delete removes a bill. The owner may delete their own bills; the
// administrator may delete anyone's. The audit entry names the actor so an
// administrative deletion of another user's bill stays accountable.
func (s *Service) Delete(ctx context.Context, actor models.User, billID uuid.UUID) error {
	snapshot := s.store.Load(ctx)

	bill := snapshot.BillByID(billID)
	if bill == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
	}
	if bill.UserID != actor.ID && !actor.IsAdminAccount(s.adminEmail) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to delete this bill")
	}

	details := fmt.Sprintf("Deleted bill: %s", bill.Name)
	if bill.UserID != actor.ID {
		details = fmt.Sprintf("Deleted bill %q owned by %s", bill.Name, bill.UserID)
	}

	snapshot.RemoveBill(billID)
	snapshot.AppendLog(audit.Record(audit.ActionBillDeleted, actor.ID, details))
	if err := s.store.Save(ctx, snapshot); err != nil {
		return err
	}

	s.logg.Info(s.logg.WithBillID(s.logg.WithUserID(ctx, actor.ID.String()), billID.String()), "bill deleted")
	return nil
}

// EvaluateReminders fires the newly eligible reminder stages for the bill at
// now, records them on the current cycle, and returns them. Re-evaluating at
// the same instant returns an empty set.
func (s *Service) EvaluateReminders(ctx context.Context, actor models.User, billID uuid.UUID, now time.Time) ([]enums.ReminderStage, error) {
	snapshot := s.store.Load(ctx)

	bill := snapshot.BillByID(billID)
	if bill == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
	}
	if bill.UserID != actor.ID && !actor.IsAdminAccount(s.adminEmail) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to evaluate this bill")
	}

	fired := EvaluateStages(*bill, now)
	if len(fired) == 0 {
		return nil, nil
	}

	for _, stage := range fired {
		bill.RemindersSent = bill.RemindersSent.Add(stage)
	}
	if err := s.store.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return fired, nil
}

// ListByOwner returns the owner's bills in insertion order.
func (s *Service) ListByOwner(ctx context.Context, owner models.User) []models.Bill {
	return s.store.Load(ctx).BillsByUser(owner.ID)
}
