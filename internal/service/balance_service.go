package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/billsplit/billsplit/internal/engine"
	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/observability"
	"github.com/billsplit/billsplit/internal/storage"
)

// BalanceService captures group snapshots and runs the balance engine
// over them.
type BalanceService struct {
	store   storage.Store
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(store storage.Store, metrics *observability.Metrics, logger *slog.Logger) *BalanceService {
	return &BalanceService{store: store, metrics: metrics, logger: logger}
}

// Balances computes the current balance map for a group. The caller must
// be a member.
func (s *BalanceService) Balances(ctx context.Context, groupID string, actorID int64) (*engine.Result, error) {
	if _, err := s.store.GetGroupMember(ctx, groupID, actorID); err != nil {
		return nil, ErrNotMember
	}

	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}

	res := engine.ComputeBalances(snap)
	if s.metrics != nil {
		s.metrics.RecordBalanceRun(res.ShareFailures, res.UnknownSettlementRefs)
	}
	if res.ShareFailures > 0 || res.UnknownSettlementRefs > 0 {
		s.logger.Warn("Balance computation degraded",
			"group_id", groupID,
			"share_failures", res.ShareFailures,
			"unknown_settlement_refs", res.UnknownSettlementRefs,
		)
	}
	return &res, nil
}

// Plan computes the minimal-ish set of payments that settles the group.
func (s *BalanceService) Plan(ctx context.Context, groupID string, actorID int64) ([]engine.PlanEntry, *engine.Result, error) {
	res, err := s.Balances(ctx, groupID, actorID)
	if err != nil {
		return nil, nil, err
	}
	return engine.PlanSettlements(res.Balances), res, nil
}

// snapshot captures one immutable input set for the engine. Roster,
// expenses, and settlements are fetched concurrently, then the share rows
// of every expense. A failed share fetch is captured on that expense
// instead of aborting: the engine drops only its owed contribution.
func (s *BalanceService) snapshot(ctx context.Context, groupID string) (engine.Snapshot, error) {
	var (
		members     []*models.GroupMember
		pending     []*models.PendingMember
		expenses    []*models.Expense
		settlements []*models.Settlement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		members, err = s.store.ListGroupMembers(gctx, groupID)
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.store.ListPendingMembers(gctx, groupID)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpensesByGroup(gctx, groupID)
		return err
	})
	g.Go(func() (err error) {
		settlements, err = s.store.ListSettlementsByGroup(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return engine.Snapshot{}, fmt.Errorf("failed to capture snapshot for group %s: %w", groupID, err)
	}

	snap := engine.Snapshot{
		Members:     make([]engine.Member, 0, len(members)),
		Pending:     make([]engine.Pending, 0, len(pending)),
		Expenses:    make([]engine.ExpenseInput, len(expenses)),
		Settlements: make([]engine.SettlementRecord, 0, len(settlements)),
	}
	for _, m := range members {
		snap.Members = append(snap.Members, engine.Member{
			ID:    m.UserID,
			Name:  m.User.Name,
			Email: m.User.Email,
		})
	}
	for _, p := range pending {
		snap.Pending = append(snap.Pending, engine.Pending{Email: p.Email, Name: p.Name})
	}
	for _, st := range settlements {
		snap.Settlements = append(snap.Settlements, engine.SettlementRecord{
			From:   engine.RegisteredKey(st.FromUserID),
			To:     engine.RegisteredKey(st.ToUserID),
			Amount: st.Amount,
		})
	}

	// Share fetches run concurrently across expenses. Individual
	// failures are recorded per expense, never returned.
	sg, sctx := errgroup.WithContext(ctx)
	sg.SetLimit(shareFetchConcurrency)
	for i, expense := range expenses {
		snap.Expenses[i].Expense = engine.RawExpense{
			ID:                expense.ID,
			Amount:            expense.Amount,
			Description:       expense.Description,
			PayerID:           expense.PaidBy,
			PendingPayerEmail: expense.PendingPayerEmail,
			SplitType:         string(expense.SplitType),
			CreatedAt:         expense.CreatedAt,
			DeletedAt:         expense.DeletedAt,
		}
		if expense.Deleted() {
			continue // the engine skips it; don't fetch shares
		}
		i, expense := i, expense
		sg.Go(func() error {
			in := &snap.Expenses[i]

			shares, err := s.store.ListExpenseShares(sctx, expense.ID)
			if err != nil {
				in.SharesErr = err
				return nil
			}
			pendingShares, err := s.store.ListPendingShares(sctx, expense.ID)
			if err != nil {
				in.SharesErr = err
				return nil
			}

			in.Shares = make([]engine.RawShare, len(shares))
			for j, sh := range shares {
				in.Shares[j] = engine.RawShare{UserID: sh.UserID, AmountOwed: sh.AmountOwed}
			}
			in.PendingShares = make([]engine.RawPendingShare, len(pendingShares))
			for j, sh := range pendingShares {
				in.PendingShares[j] = engine.RawPendingShare{Email: sh.Email, AmountOwed: sh.AmountOwed}
			}
			return nil
		})
	}
	_ = sg.Wait() // goroutines never return errors

	return snap, nil
}
