package models

// GroupRole is a member's role within a group.
type GroupRole string

const (
	RoleAdmin  GroupRole = "ADMIN"
	RoleMember GroupRole = "MEMBER"
)

// Group represents a set of people who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// ImageURL is an optional picture for the group.
	ImageURL string

	// CreatedBy is the user ID of the group creator (first admin).
	CreatedBy int64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// GroupMember links a registered user to a group.
type GroupMember struct {
	GroupID string
	UserID  int64
	Role    GroupRole

	// JoinedAt is the Unix timestamp when the user joined the group.
	JoinedAt int64

	// User carries the joined user record when loaded with the membership.
	User *User
}

// PendingMember is an invited person who has no account yet.
// They can owe and be owed money before registering; an external
// registration workflow promotes them to a GroupMember.
type PendingMember struct {
	GroupID string

	// Email identifies the pending member within the group.
	Email string

	// Name is an optional display name, usually derived from the email.
	Name string

	// InvitedBy is the user ID of the inviting member.
	InvitedBy int64

	// InvitedAt is the Unix timestamp of the invitation.
	InvitedAt int64
}
