// Package notify is the outbound notification boundary. The server never
// depends on delivery succeeding: callers fire and log failures.
package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers user-facing notifications. Implementations may send
// email, push, or nothing at all.
type Notifier interface {
	// GroupInvite notifies an invited (possibly unregistered) person.
	GroupInvite(ctx context.Context, email, groupName, inviterName string) error

	// ExpenseAdded notifies group members about a new expense.
	ExpenseAdded(ctx context.Context, groupID, description string, amount float64) error

	// SettlementRecorded notifies the counterparty of a recorded payment.
	SettlementRecorded(ctx context.Context, groupID string, fromUserID, toUserID int64, amount float64) error
}

// LogNotifier writes notifications to the structured log instead of
// delivering them. The default until a real mail backend is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) GroupInvite(ctx context.Context, email, groupName, inviterName string) error {
	slog.InfoContext(ctx, "Notification: group invite",
		"email", email,
		"group", groupName,
		"invited_by", inviterName,
	)
	return nil
}

func (n *LogNotifier) ExpenseAdded(ctx context.Context, groupID, description string, amount float64) error {
	slog.InfoContext(ctx, "Notification: expense added",
		"group_id", groupID,
		"description", description,
		"amount", amount,
	)
	return nil
}

func (n *LogNotifier) SettlementRecorded(ctx context.Context, groupID string, fromUserID, toUserID int64, amount float64) error {
	slog.InfoContext(ctx, "Notification: settlement recorded",
		"group_id", groupID,
		"from_user_id", fromUserID,
		"to_user_id", toUserID,
		"amount", amount,
	)
	return nil
}
