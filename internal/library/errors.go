package library

import "errors"

// Workflow errors surfaced directly to the caller. Messages match the
// API responses the frontend expects.
var (
	ErrBookNotFound      = errors.New("book not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNoCopies          = errors.New("no copies available for borrowing")
	ErrNotBorrowed       = errors.New("book not borrowed by this user")
	ErrInvalidReturnDate = errors.New("return date cannot be more than 7 days from borrowing date")
)
