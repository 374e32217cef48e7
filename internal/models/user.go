package models

// User represents a registered user account.
type User struct {
	// ID is the unique numeric identifier for the user.
	ID int64

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique).
	// Used for login and notifications.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized to API responses.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64
}
