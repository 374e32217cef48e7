package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/notify"
	"github.com/billsplit/billsplit/internal/storage"
)

// SettlementService records and manages real-world payments between
// members.
type SettlementService struct {
	store    storage.Store
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store, notifier notify.Notifier, logger *slog.Logger) *SettlementService {
	return &SettlementService{store: store, notifier: notifier, logger: logger}
}

// SettlementInput is the request to record a payment.
type SettlementInput struct {
	FromUserID int64
	ToUserID   int64
	Amount     float64
	Message    string
	ProofURL   string
}

// RecordSettlement records a payment that already happened between two
// group members. Over-payment is allowed; balances simply flip sign.
func (s *SettlementService) RecordSettlement(ctx context.Context, groupID string, actorID int64, in SettlementInput) (*models.Settlement, error) {
	s.logger.Info("RecordSettlement request",
		"group_id", groupID, "actor_id", actorID,
		"from_user_id", in.FromUserID, "to_user_id", in.ToUserID,
		"amount", in.Amount,
	)

	if _, err := s.store.GetGroupMember(ctx, groupID, actorID); err != nil {
		return nil, ErrNotMember
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if in.FromUserID == in.ToUserID {
		return nil, fmt.Errorf("%w: payer and recipient must differ", ErrInvalidInput)
	}
	for _, userID := range []int64{in.FromUserID, in.ToUserID} {
		if _, err := s.store.GetGroupMember(ctx, groupID, userID); err != nil {
			return nil, fmt.Errorf("%w: user %d is not a group member", ErrInvalidInput, userID)
		}
	}

	settlement := &models.Settlement{
		GroupID:    groupID,
		FromUserID: in.FromUserID,
		ToUserID:   in.ToUserID,
		Amount:     in.Amount,
		Message:    in.Message,
		ProofURL:   in.ProofURL,
		CreatedBy:  actorID,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		s.logger.Error("RecordSettlement failed", "group_id", groupID, "error", err)
		return nil, err
	}

	if err := s.notifier.SettlementRecorded(ctx, groupID, in.FromUserID, in.ToUserID, in.Amount); err != nil {
		s.logger.Warn("Settlement notification failed", "settlement_id", settlement.ID, "error", err)
	}

	s.logger.Info("Settlement recorded", "settlement_id", settlement.ID, "group_id", groupID)
	return settlement, nil
}

// ListSettlements retrieves a group's settlement history, newest first.
func (s *SettlementService) ListSettlements(ctx context.Context, groupID string, actorID int64) ([]*models.Settlement, error) {
	if _, err := s.store.GetGroupMember(ctx, groupID, actorID); err != nil {
		return nil, ErrNotMember
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	// Storage returns chronological order (what the engine applies);
	// history displays newest first.
	for i, j := 0, len(settlements)-1; i < j; i, j = i+1, j-1 {
		settlements[i], settlements[j] = settlements[j], settlements[i]
	}
	return settlements, nil
}

// DeleteSettlement removes a recorded settlement. Group admins only.
func (s *SettlementService) DeleteSettlement(ctx context.Context, groupID, settlementID string, actorID int64) error {
	s.logger.Info("DeleteSettlement request", "settlement_id", settlementID, "actor_id", actorID)

	actor, err := s.store.GetGroupMember(ctx, groupID, actorID)
	if err != nil {
		return ErrNotMember
	}
	if actor.Role != models.RoleAdmin {
		return ErrForbidden
	}

	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return err
	}
	if settlement.GroupID != groupID {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}

	return s.store.DeleteSettlement(ctx, settlementID)
}
