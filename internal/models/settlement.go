package models

// Settlement represents a payment between group members, already executed
// by the users in the real world and recorded here to clear debt.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID int64

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID int64

	// Amount is the payment amount, always positive. Over-payment is a
	// legitimate input and simply flips the sign of the resulting balance.
	Amount float64

	// Message is an optional note attached to the payment.
	Message string

	// ProofURL is an optional link to a payment receipt or screenshot.
	ProofURL string

	// SettledAt is the Unix timestamp when the settlement was recorded.
	SettledAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy int64
}
