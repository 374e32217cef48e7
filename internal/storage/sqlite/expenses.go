package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/storage"
)

// CreateExpense persists an expense and its share rows in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, shares []models.ExpenseShare, pendingShares []models.PendingShare) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pendingPayer interface{}
	if expense.PendingPayerEmail != "" {
		pendingPayer = expense.PendingPayerEmail
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, paid_by, pending_payer_email, split_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount,
		expense.PaidBy, pendingPayer, string(expense.SplitType), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, share := range shares {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_shares (expense_id, user_id, amount_owed) VALUES (?, ?, ?)`,
			expense.ID, share.UserID, share.AmountOwed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}

	for _, share := range pendingShares {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pending_shares (expense_id, email, amount_owed) VALUES (?, ?, ?)`,
			expense.ID, share.Email, share.AmountOwed,
		)
		if err != nil {
			return fmt.Errorf("failed to insert pending share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by id, including soft-deleted ones.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, pending_payer_email,
		        split_type, created_at, deleted_at, deleted_by
		 FROM expenses WHERE id = ?`,
		expenseID,
	)

	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// ListExpensesByGroup retrieves all of a group's expenses, newest first.
// Soft-deleted expenses are included; callers filter them out of balance
// computation but keep them for audit display.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, pending_payer_email,
		        split_type, created_at, deleted_at, deleted_by
		 FROM expenses WHERE group_id = ?
		 ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// ListExpenseShares retrieves the registered-member shares of one expense.
func (s *SQLiteStore) ListExpenseShares(ctx context.Context, expenseID string) ([]models.ExpenseShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, user_id, amount_owed
		 FROM expense_shares WHERE expense_id = ?
		 ORDER BY user_id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense shares: %w", err)
	}
	defer rows.Close()

	var shares []models.ExpenseShare
	for rows.Next() {
		var share models.ExpenseShare
		if err := rows.Scan(&share.ExpenseID, &share.UserID, &share.AmountOwed); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return shares, nil
}

// ListPendingShares retrieves the pending-member shares of one expense.
func (s *SQLiteStore) ListPendingShares(ctx context.Context, expenseID string) ([]models.PendingShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, email, amount_owed
		 FROM pending_shares WHERE expense_id = ?
		 ORDER BY email`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending shares: %w", err)
	}
	defer rows.Close()

	var shares []models.PendingShare
	for rows.Next() {
		var share models.PendingShare
		if err := rows.Scan(&share.ExpenseID, &share.Email, &share.AmountOwed); err != nil {
			return nil, fmt.Errorf("failed to scan pending share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending shares: %w", err)
	}
	return shares, nil
}

// SoftDeleteExpense marks an expense deleted without removing its rows.
func (s *SQLiteStore) SoftDeleteExpense(ctx context.Context, expenseID string, deletedBy int64, deletedAt int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at IS NULL`,
		deletedAt, deletedBy, expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row scanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var pendingPayer sql.NullString
	var splitType string
	var deletedAt, deletedBy sql.NullInt64

	err := row.Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.Amount,
		&expense.PaidBy, &pendingPayer, &splitType, &expense.CreatedAt, &deletedAt, &deletedBy)
	if err != nil {
		return nil, err
	}

	if pendingPayer.Valid {
		expense.PendingPayerEmail = pendingPayer.String
	}
	expense.SplitType = models.SplitType(splitType)
	if deletedAt.Valid {
		expense.DeletedAt = &deletedAt.Int64
	}
	if deletedBy.Valid {
		expense.DeletedBy = &deletedBy.Int64
	}
	return expense, nil
}
