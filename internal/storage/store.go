// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/billsplit/billsplit/internal/models"
)

// ErrNotFound is returned when a requested record does not exist. Callers
// match it with errors.Is.
var ErrNotFound = errors.New("not found")

// Store defines the interface for billsplit storage operations. This
// abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user. The user.ID field is populated by
	// the store.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no
	// such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// CreateGroup persists a new group. The group.ID field is populated by
	// the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by id.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// UpdateGroup updates a group's name and image.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// ListGroupsForUser retrieves every group the user is a member of.
	ListGroupsForUser(ctx context.Context, userID int64) ([]*models.Group, error)

	// AddGroupMember adds a registered user to a group.
	AddGroupMember(ctx context.Context, member *models.GroupMember) error

	// GetGroupMember retrieves one membership, with the user record loaded.
	GetGroupMember(ctx context.Context, groupID string, userID int64) (*models.GroupMember, error)

	// ListGroupMembers retrieves a group's memberships with user records
	// loaded, in join order.
	ListGroupMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)

	// RemoveGroupMember removes a registered user from a group.
	RemoveGroupMember(ctx context.Context, groupID string, userID int64) error

	// CreatePendingMember records an invited-but-unregistered member.
	CreatePendingMember(ctx context.Context, pending *models.PendingMember) error

	// ListPendingMembers retrieves a group's pending members.
	ListPendingMembers(ctx context.Context, groupID string) ([]*models.PendingMember, error)

	// ListPendingInvitesByEmail retrieves every pending membership for an
	// email address, across groups. Used to promote invites on
	// registration.
	ListPendingInvitesByEmail(ctx context.Context, email string) ([]*models.PendingMember, error)

	// DeletePendingMember removes a pending membership.
	DeletePendingMember(ctx context.Context, groupID, email string) error

	// CreateExpense persists an expense with its share rows in one
	// transaction. The expense.ID field is populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense, shares []models.ExpenseShare, pendingShares []models.PendingShare) error

	// GetExpense retrieves an expense by id, including soft-deleted ones.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup retrieves all of a group's expenses, newest
	// first, including soft-deleted ones (callers filter for computation
	// and keep them for audit display).
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListExpenseShares retrieves the registered-member shares of one
	// expense.
	ListExpenseShares(ctx context.Context, expenseID string) ([]models.ExpenseShare, error)

	// ListPendingShares retrieves the pending-member shares of one expense.
	ListPendingShares(ctx context.Context, expenseID string) ([]models.PendingShare, error)

	// SoftDeleteExpense marks an expense deleted without removing it.
	SoftDeleteExpense(ctx context.Context, expenseID string, deletedBy int64, deletedAt int64) error

	// CreateSettlement persists a recorded payment. The settlement.ID
	// field is populated by the store.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by id.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByGroup retrieves a group's settlements in
	// chronological order (the order balances apply them in).
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// DeleteSettlement removes a settlement by id.
	DeleteSettlement(ctx context.Context, settlementID string) error

	// Close releases any resources held by the store.
	Close() error
}
