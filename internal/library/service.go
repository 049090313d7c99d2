package library

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bookden/library-app/backend/internal/models"
)

// BorrowWindow is the longest allowed loan, measured from the moment
// of borrowing. A return date of exactly now+7d is accepted.
const BorrowWindow = 7 * 24 * time.Hour

// BookStore defines the interface for book persistence.
type BookStore interface {
	GetBook(ctx context.Context, id string) (*models.Book, error)
	InsertBook(ctx context.Context, b *models.Book) (string, error)
	UpdateBook(ctx context.Context, b *models.Book) error
	DeleteBook(ctx context.Context, id string) error
	ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, error)
	// DecrementAvailable atomically decrements available_copies when it
	// is greater than zero and returns the updated book, or nil when no
	// copy was available.
	DecrementAvailable(ctx context.Context, id string) (*models.Book, error)
	// IncrementAvailable atomically increments available_copies and
	// returns the updated book, or nil when the book no longer exists.
	IncrementAvailable(ctx context.Context, id string) (*models.Book, error)
	SetCover(ctx context.Context, id, coverKey, imageURI string) error
}

// UserStore defines the slice of user persistence the workflow needs.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetBorrowedBooks(ctx context.Context, id string, entries []models.BorrowEntry) error
}

// HistoryStore records borrow/return events for audit and user history.
type HistoryStore interface {
	Append(ctx context.Context, ev models.BorrowEvent) error
	ListByUser(ctx context.Context, userID string) ([]models.BorrowEvent, error)
}

// Service runs the borrow/return workflow across the book and user
// stores. The two writes are not wrapped in a shared transaction; the
// available-copies invariant is held by the conditional decrement
// alone, and a failure between the writes is surfaced, not compensated.
type Service struct {
	books   BookStore
	users   UserStore
	history HistoryStore
	now     func() time.Time
}

func NewService(books BookStore, users UserStore, history HistoryStore) *Service {
	return &Service{books: books, users: users, history: history, now: time.Now}
}

// Borrow lends one copy of the book to the user until returnDate.
// Nothing stops a user from borrowing a book they already hold; the
// duplicate entry is tracked and returned one call at a time.
func (s *Service) Borrow(ctx context.Context, bookID, userID string, returnDate time.Time) (*models.Book, *models.User, error) {
	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, nil, ErrBookNotFound
	}
	if book.AvailableCopies < 1 {
		return nil, nil, ErrNoCopies
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	now := s.now()
	if returnDate.After(now.Add(BorrowWindow)) {
		return nil, nil, ErrInvalidReturnDate
	}

	// The conditional decrement is the authoritative availability gate:
	// two callers racing over the last copy cannot both pass it.
	book, err = s.books.DecrementAvailable(ctx, bookID)
	if err != nil {
		return nil, nil, fmt.Errorf("decrement availability: %w", err)
	}
	if book == nil {
		return nil, nil, ErrNoCopies
	}

	entries := append(user.BorrowedBooks, models.BorrowEntry{
		Book:       book.ID,
		BorrowDate: now,
		ReturnDate: returnDate,
	})
	if err := s.users.SetBorrowedBooks(ctx, userID, entries); err != nil {
		return nil, nil, fmt.Errorf("save borrow entry: %w", err)
	}
	user.BorrowedBooks = entries

	s.record(ctx, models.BorrowEvent{
		UserID:    userID,
		BookID:    bookID,
		BookTitle: book.Title,
		Action:    models.ActionBorrow,
		DueDate:   &returnDate,
	})

	return book, user, nil
}

// Return gives back one copy of the book. Only the first matching
// borrow entry is removed, and the available count is incremented
// once, even when the user holds duplicate entries for the book.
func (s *Service) Return(ctx context.Context, bookID, userID string) (*models.Book, *models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	idx := -1
	for i, entry := range user.BorrowedBooks {
		if entry.Book.Hex() == bookID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil, ErrNotBorrowed
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, nil, ErrBookNotFound
	}

	entries := append([]models.BorrowEntry{}, user.BorrowedBooks[:idx]...)
	entries = append(entries, user.BorrowedBooks[idx+1:]...)
	if err := s.users.SetBorrowedBooks(ctx, userID, entries); err != nil {
		return nil, nil, fmt.Errorf("remove borrow entry: %w", err)
	}
	user.BorrowedBooks = entries

	book, err = s.books.IncrementAvailable(ctx, bookID)
	if err != nil {
		return nil, nil, fmt.Errorf("increment availability: %w", err)
	}
	if book == nil {
		return nil, nil, ErrBookNotFound
	}

	s.record(ctx, models.BorrowEvent{
		UserID:    userID,
		BookID:    bookID,
		BookTitle: book.Title,
		Action:    models.ActionReturn,
	})

	return book, user, nil
}

// History lists the user's borrow/return events, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]models.BorrowEvent, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListByUser(ctx, userID)
}

// record appends a history row best-effort; the workflow outcome does
// not depend on it.
func (s *Service) record(ctx context.Context, ev models.BorrowEvent) {
	if s.history == nil {
		return
	}
	ev.OccurredAt = s.now()
	if err := s.history.Append(ctx, ev); err != nil {
		log.Printf("history append error: %v", err)
	}
}
