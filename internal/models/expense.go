package models

// SplitType describes how an expense is divided among participants.
type SplitType string

const (
	// SplitEqual divides the amount equally among all group participants.
	// The authoritative per-person amounts are computed once at creation
	// time and stored as shares; any rounding remainder lands on the first
	// participant so the shares always sum to the expense amount.
	SplitEqual SplitType = "EQUAL"

	// SplitCustom uses caller-provided per-participant amounts, which must
	// sum to the expense amount.
	SplitCustom SplitType = "CUSTOM"
)

// Expense represents one purchase event within a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is the human-readable text for the expense. Legacy rows
	// may still carry encoded pending markers inside this text; new rows
	// use the typed fields below instead.
	Description string

	// Amount is the total paid, always positive.
	Amount float64

	// PaidBy is the user ID of the registered payer. When a pending member
	// paid, this holds the recording user as a proxy and PendingPayerEmail
	// identifies the real payer.
	PaidBy int64

	// PendingPayerEmail is set when a pending member paid for the expense.
	PendingPayerEmail string

	SplitType SplitType

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// DeletedAt marks a soft-deleted expense. Soft-deleted expenses are
	// excluded from all balance computation but kept for audit display.
	DeletedAt *int64

	// DeletedBy is the user ID who soft-deleted the expense.
	DeletedBy *int64
}

// Deleted reports whether the expense has been soft-deleted.
func (e *Expense) Deleted() bool {
	return e.DeletedAt != nil
}

// ExpenseShare is the portion of one expense owed by one registered user.
type ExpenseShare struct {
	ExpenseID  string
	UserID     int64
	AmountOwed float64
}

// PendingShare is the portion of one expense owed by a pending member,
// identified by email since no account exists yet.
type PendingShare struct {
	ExpenseID  string
	Email      string
	AmountOwed float64
}
