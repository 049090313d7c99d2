package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// BorrowEntry links a user to a borrowed book with borrow and due dates.
type BorrowEntry struct {
	Book       primitive.ObjectID `json:"book"       bson:"book"`
	BorrowDate time.Time          `json:"borrowDate" bson:"borrow_date"`
	ReturnDate time.Time          `json:"returnDate" bson:"return_date"`
}

// User is an account document stored in MongoDB. The email is stored
// lowercased and carries a unique index.
type User struct {
	ID            primitive.ObjectID `json:"id"            bson:"_id,omitempty"`
	Name          string             `json:"name"          bson:"name"`
	Email         string             `json:"email"         bson:"email"`
	Password      string             `json:"-"             bson:"password"` // bcrypt hash
	Role          string             `json:"role"          bson:"role"`
	BorrowedBooks []BorrowEntry      `json:"borrowedBooks" bson:"borrowed_books"`
	CreatedAt     time.Time          `json:"createdAt"     bson:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt"     bson:"updated_at"`
}

// RegisterRequest is the JSON body for POST /api/users/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate is the JSON body for PUT /api/users/me. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Actions recorded in the borrow history.
const (
	ActionBorrow = "borrow"
	ActionReturn = "return"
)

// BorrowEvent is an immutable history row persisted in PostgreSQL for
// every successful borrow or return.
type BorrowEvent struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	BookID     string     `json:"bookId"`
	BookTitle  string     `json:"bookTitle"`
	Action     string     `json:"action"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}
