package service

import "errors"

var (
	// ErrInvalidInput marks a request the caller can fix.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotMember is returned when the acting user does not belong to the
	// group they are operating on.
	ErrNotMember = errors.New("not a member of this group")

	// ErrForbidden is returned when the acting user lacks the role the
	// operation requires.
	ErrForbidden = errors.New("operation requires group admin")
)
