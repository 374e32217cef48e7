package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/billsplit/billsplit/internal/engine"
	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/notify"
	"github.com/billsplit/billsplit/internal/storage"
)

// shareFetchConcurrency bounds the parallel per-expense share queries.
const shareFetchConcurrency = 8

// ExpenseService handles expense creation, listing, and soft deletion.
type ExpenseService struct {
	store    storage.Store
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, notifier notify.Notifier, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{store: store, notifier: notifier, logger: logger}
}

// ParticipantInput names one participant of an expense. Exactly one of
// UserID (registered) or Email (pending) is set. Amount is used for
// CUSTOM splits and ignored for EQUAL.
type ParticipantInput struct {
	UserID int64
	Email  string
	Amount float64
}

// ExpenseInput is the request to record an expense.
type ExpenseInput struct {
	Description string
	Amount      float64
	SplitType   models.SplitType

	// PaidBy is the registered payer. Zero means the acting user.
	PaidBy int64

	// PendingPayerEmail marks a pending member as the real payer. The
	// acting user is stored as the registered proxy.
	PendingPayerEmail string

	Participants []ParticipantInput
}

// ExpenseDetail is an expense with its share rows loaded.
type ExpenseDetail struct {
	Expense       *models.Expense
	Shares        []models.ExpenseShare
	PendingShares []models.PendingShare
}

// CreateExpense validates and records an expense with its share rows.
//
// EQUAL splits compute the per-participant amounts once, here, and store
// them; any cent remainder lands on the first participant so the shares
// always sum to the expense amount. CUSTOM splits use the caller's
// amounts, which must sum to the expense amount.
func (s *ExpenseService) CreateExpense(ctx context.Context, groupID string, actorID int64, in ExpenseInput) (*ExpenseDetail, error) {
	s.logger.Info("CreateExpense request",
		"group_id", groupID, "actor_id", actorID,
		"amount", in.Amount, "split_type", in.SplitType,
		"participants", len(in.Participants),
	)

	if _, err := s.store.GetGroupMember(ctx, groupID, actorID); err != nil {
		return nil, ErrNotMember
	}
	if err := s.validateInput(ctx, groupID, &in, actorID); err != nil {
		return nil, err
	}

	shares, pendingShares, err := buildShares(in)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:           groupID,
		Description:       strings.TrimSpace(in.Description),
		Amount:            in.Amount,
		PaidBy:            in.PaidBy,
		PendingPayerEmail: normalizeEmail(in.PendingPayerEmail),
		SplitType:         in.SplitType,
	}
	if err := s.store.CreateExpense(ctx, expense, shares, pendingShares); err != nil {
		s.logger.Error("CreateExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}

	if err := s.notifier.ExpenseAdded(ctx, groupID, expense.Description, expense.Amount); err != nil {
		s.logger.Warn("Expense notification failed", "expense_id", expense.ID, "error", err)
	}

	s.logger.Info("Expense created", "expense_id", expense.ID, "group_id", groupID)
	return &ExpenseDetail{Expense: expense, Shares: shares, PendingShares: pendingShares}, nil
}

// ListExpenses retrieves a group's expenses with share rows, newest first.
// Share rows for distinct expenses are fetched concurrently.
func (s *ExpenseService) ListExpenses(ctx context.Context, groupID string, actorID int64) ([]*ExpenseDetail, error) {
	if _, err := s.store.GetGroupMember(ctx, groupID, actorID); err != nil {
		return nil, ErrNotMember
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	details := make([]*ExpenseDetail, len(expenses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(shareFetchConcurrency)
	for i, expense := range expenses {
		i, expense := i, expense
		g.Go(func() error {
			shares, err := s.store.ListExpenseShares(gctx, expense.ID)
			if err != nil {
				return fmt.Errorf("shares for expense %s: %w", expense.ID, err)
			}
			pendingShares, err := s.store.ListPendingShares(gctx, expense.ID)
			if err != nil {
				return fmt.Errorf("pending shares for expense %s: %w", expense.ID, err)
			}
			details[i] = &ExpenseDetail{Expense: expense, Shares: shares, PendingShares: pendingShares}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// DeleteExpense soft-deletes an expense. Only the payer or a group admin
// may delete; the row is kept for audit display and excluded from balance
// computation.
func (s *ExpenseService) DeleteExpense(ctx context.Context, groupID, expenseID string, actorID int64) error {
	s.logger.Info("DeleteExpense request", "expense_id", expenseID, "actor_id", actorID)

	actor, err := s.store.GetGroupMember(ctx, groupID, actorID)
	if err != nil {
		return ErrNotMember
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if expense.GroupID != groupID {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if expense.PaidBy != actorID && actor.Role != models.RoleAdmin {
		return ErrForbidden
	}

	return s.store.SoftDeleteExpense(ctx, expenseID, actorID, time.Now().Unix())
}

func (s *ExpenseService) validateInput(ctx context.Context, groupID string, in *ExpenseInput, actorID int64) error {
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if in.SplitType != models.SplitEqual && in.SplitType != models.SplitCustom {
		return fmt.Errorf("%w: unknown split type %q", ErrInvalidInput, in.SplitType)
	}
	if len(in.Participants) == 0 {
		return fmt.Errorf("%w: at least one participant is required", ErrInvalidInput)
	}

	// Pending participants must already be invited to the group.
	pending, err := s.store.ListPendingMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to list pending members: %w", err)
	}
	invited := make(map[string]bool, len(pending))
	for _, pm := range pending {
		invited[normalizeEmail(pm.Email)] = true
	}

	for i := range in.Participants {
		p := &in.Participants[i]
		p.Email = normalizeEmail(p.Email)
		if (p.UserID == 0) == (p.Email == "") {
			return fmt.Errorf("%w: participant needs exactly one of user id or email", ErrInvalidInput)
		}
		if p.UserID != 0 {
			if _, err := s.store.GetGroupMember(ctx, groupID, p.UserID); err != nil {
				return fmt.Errorf("%w: user %d is not a group member", ErrInvalidInput, p.UserID)
			}
		} else if !invited[p.Email] {
			return fmt.Errorf("%w: %s is not a pending member of the group", ErrInvalidInput, p.Email)
		}
	}

	// Resolve the payer: a pending payer is recorded with the acting
	// user as the registered proxy.
	in.PendingPayerEmail = normalizeEmail(in.PendingPayerEmail)
	if in.PendingPayerEmail != "" {
		if !invited[in.PendingPayerEmail] {
			return fmt.Errorf("%w: %s is not a pending member of the group", ErrInvalidInput, in.PendingPayerEmail)
		}
		in.PaidBy = actorID
	} else {
		if in.PaidBy == 0 {
			in.PaidBy = actorID
		}
		if _, err := s.store.GetGroupMember(ctx, groupID, in.PaidBy); err != nil {
			return fmt.Errorf("%w: payer %d is not a group member", ErrInvalidInput, in.PaidBy)
		}
	}

	if in.SplitType == models.SplitCustom {
		var sum float64
		for _, p := range in.Participants {
			if p.Amount < 0 {
				return fmt.Errorf("%w: negative share amount", ErrInvalidInput)
			}
			sum += p.Amount
		}
		if math.Abs(sum-in.Amount) > engine.Epsilon {
			return fmt.Errorf("%w: shares sum to %.2f, expense amount is %.2f", ErrInvalidInput, sum, in.Amount)
		}
	}
	return nil
}

// buildShares turns validated participant inputs into share rows.
func buildShares(in ExpenseInput) ([]models.ExpenseShare, []models.PendingShare, error) {
	amounts := make([]float64, len(in.Participants))

	switch in.SplitType {
	case models.SplitEqual:
		// Split whole cents; the remainder cents go to the first
		// participant so the stored shares sum to the amount exactly.
		totalCents := int64(math.Round(in.Amount * 100))
		n := int64(len(in.Participants))
		per := totalCents / n
		rem := totalCents % n
		for i := range amounts {
			cents := per
			if i == 0 {
				cents += rem
			}
			amounts[i] = float64(cents) / 100
		}
	case models.SplitCustom:
		for i, p := range in.Participants {
			amounts[i] = p.Amount
		}
	default:
		return nil, nil, fmt.Errorf("%w: unknown split type %q", ErrInvalidInput, in.SplitType)
	}

	var shares []models.ExpenseShare
	var pendingShares []models.PendingShare
	for i, p := range in.Participants {
		if p.UserID != 0 {
			shares = append(shares, models.ExpenseShare{UserID: p.UserID, AmountOwed: amounts[i]})
		} else {
			pendingShares = append(pendingShares, models.PendingShare{Email: p.Email, AmountOwed: amounts[i]})
		}
	}
	return shares, pendingShares, nil
}
