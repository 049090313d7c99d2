package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bookden/library-app/backend/internal/models"
)

type fakeBooks struct {
	books map[string]*models.Book
}

func newFakeBooks(books ...*models.Book) *fakeBooks {
	f := &fakeBooks{books: make(map[string]*models.Book)}
	for _, b := range books {
		f.books[b.ID.Hex()] = b
	}
	return f
}

func (f *fakeBooks) GetBook(_ context.Context, id string) (*models.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBooks) InsertBook(_ context.Context, b *models.Book) (string, error) {
	b.ID = primitive.NewObjectID()
	f.books[b.ID.Hex()] = b
	return b.ID.Hex(), nil
}

func (f *fakeBooks) UpdateBook(_ context.Context, b *models.Book) error {
	f.books[b.ID.Hex()] = b
	return nil
}

func (f *fakeBooks) DeleteBook(_ context.Context, id string) error {
	delete(f.books, id)
	return nil
}

func (f *fakeBooks) ListBooks(_ context.Context, _ models.BookFilter) ([]models.Book, error) {
	var out []models.Book
	for _, b := range f.books {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBooks) DecrementAvailable(_ context.Context, id string) (*models.Book, error) {
	b, ok := f.books[id]
	if !ok || b.AvailableCopies < 1 {
		return nil, nil
	}
	b.AvailableCopies--
	cp := *b
	return &cp, nil
}

func (f *fakeBooks) IncrementAvailable(_ context.Context, id string) (*models.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	b.AvailableCopies++
	cp := *b
	return &cp, nil
}

func (f *fakeBooks) SetCover(_ context.Context, id, coverKey, imageURI string) error {
	if b, ok := f.books[id]; ok {
		b.CoverKey = coverKey
		b.Image = imageURI
	}
	return nil
}

type fakeUsers struct {
	users map[string]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.BorrowedBooks = append([]models.BorrowEntry{}, u.BorrowedBooks...)
	return &cp, nil
}

func (f *fakeUsers) SetBorrowedBooks(_ context.Context, id string, entries []models.BorrowEntry) error {
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	u.BorrowedBooks = entries
	return nil
}

type fakeHistory struct {
	events []models.BorrowEvent
}

func (f *fakeHistory) Append(_ context.Context, ev models.BorrowEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeHistory) ListByUser(_ context.Context, userID string) ([]models.BorrowEvent, error) {
	var out []models.BorrowEvent
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].UserID == userID {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

func testBook(copies int) *models.Book {
	return &models.Book{
		ID:              primitive.NewObjectID(),
		Title:           "The Go Programming Language",
		Author:          "Donovan & Kernighan",
		Genre:           "Programming",
		AvailableCopies: copies,
	}
}

func testUser() *models.User {
	return &models.User{
		ID:            primitive.NewObjectID(),
		Name:          "Alice",
		Email:         "alice@example.com",
		Role:          models.RoleUser,
		BorrowedBooks: []models.BorrowEntry{},
	}
}

func newTestService(books *fakeBooks, users *fakeUsers, history *fakeHistory, now time.Time) *Service {
	var h HistoryStore
	if history != nil {
		h = history
	}
	svc := NewService(books, users, h)
	svc.now = func() time.Time { return now }
	return svc
}

func TestBorrow_Success(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	book := testBook(2)
	user := testUser()
	history := &fakeHistory{}
	svc := newTestService(newFakeBooks(book), newFakeUsers(user), history, now)

	returnDate := now.Add(5 * 24 * time.Hour)
	gotBook, gotUser, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), returnDate)
	require.NoError(t, err)

	assert.Equal(t, 1, gotBook.AvailableCopies)
	require.Len(t, gotUser.BorrowedBooks, 1)
	entry := gotUser.BorrowedBooks[0]
	assert.Equal(t, book.ID, entry.Book)
	assert.Equal(t, now, entry.BorrowDate)
	assert.Equal(t, returnDate, entry.ReturnDate)

	require.Len(t, history.events, 1)
	assert.Equal(t, models.ActionBorrow, history.events[0].Action)
	assert.Equal(t, book.Title, history.events[0].BookTitle)
}

func TestBorrow_ExactlySevenDaysAllowed(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	book := testBook(1)
	user := testUser()
	svc := newTestService(newFakeBooks(book), newFakeUsers(user), nil, now)

	_, _, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), now.Add(BorrowWindow))
	assert.NoError(t, err)
}

func TestBorrow_BeyondSevenDaysRejected(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	book := testBook(1)
	user := testUser()
	svc := newTestService(newFakeBooks(book), newFakeUsers(user), nil, now)

	_, _, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), now.Add(BorrowWindow+time.Second))
	assert.ErrorIs(t, err, ErrInvalidReturnDate)
	assert.Equal(t, 1, book.AvailableCopies, "failed borrow must not touch the count")
}

func TestBorrow_NoCopiesAvailable(t *testing.T) {
	now := time.Now()
	book := testBook(0)
	user := testUser()
	svc := newTestService(newFakeBooks(book), newFakeUsers(user), nil, now)

	_, _, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), now.Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrNoCopies)
}

func TestBorrow_BookNotFound(t *testing.T) {
	now := time.Now()
	user := testUser()
	svc := newTestService(newFakeBooks(), newFakeUsers(user), nil, now)

	_, _, err := svc.Borrow(context.Background(), primitive.NewObjectID().Hex(), user.ID.Hex(), now)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestBorrow_UserNotFound(t *testing.T) {
	now := time.Now()
	book := testBook(1)
	svc := newTestService(newFakeBooks(book), newFakeUsers(), nil, now)

	_, _, err := svc.Borrow(context.Background(), book.ID.Hex(), primitive.NewObjectID().Hex(), now)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBorrowThenReturn_RestoresCount(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	book := testBook(3)
	user := testUser()
	svc := newTestService(newFakeBooks(book), newFakeUsers(user), &fakeHistory{}, now)

	_, _, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), now.Add(48*time.Hour))
	require.NoError(t, err)

	gotBook, gotUser, err := svc.Return(context.Background(), book.ID.Hex(), user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 3, gotBook.AvailableCopies)
	assert.Empty(t, gotUser.BorrowedBooks)
}

func TestReturn_NotBorrowed(t *testing.T) {
	book := testBook(1)
	user := testUser()
	svc := newTestService(newFakeBooks(book), newFakeUsers(user), nil, time.Now())

	_, _, err := svc.Return(context.Background(), book.ID.Hex(), user.ID.Hex())
	assert.ErrorIs(t, err, ErrNotBorrowed)
}

func TestReturn_UserNotFound(t *testing.T) {
	book := testBook(1)
	svc := newTestService(newFakeBooks(book), newFakeUsers(), nil, time.Now())

	_, _, err := svc.Return(context.Background(), book.ID.Hex(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestReturn_BookDeletedAfterBorrow(t *testing.T) {
	now := time.Now()
	book := testBook(1)
	user := testUser()
	books := newFakeBooks(book)
	svc := newTestService(books, newFakeUsers(user), nil, now)

	_, _, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), now.Add(24*time.Hour))
	require.NoError(t, err)

	require.NoError(t, books.DeleteBook(context.Background(), book.ID.Hex()))
	_, _, err = svc.Return(context.Background(), book.ID.Hex(), user.ID.Hex())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

// Book with one copy: A borrows, B is turned away, A returns, the
// copy is lendable again.
func TestSingleCopy_TwoUsers(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	book := testBook(1)
	alice := testUser()
	bob := &models.User{
		ID:            primitive.NewObjectID(),
		Name:          "Bob",
		Email:         "bob@example.com",
		Role:          models.RoleUser,
		BorrowedBooks: []models.BorrowEntry{},
	}
	svc := newTestService(newFakeBooks(book), newFakeUsers(alice, bob), &fakeHistory{}, now)

	gotBook, gotAlice, err := svc.Borrow(context.Background(), book.ID.Hex(), alice.ID.Hex(), now.Add(5*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, gotBook.AvailableCopies)
	assert.Len(t, gotAlice.BorrowedBooks, 1)

	_, _, err = svc.Borrow(context.Background(), book.ID.Hex(), bob.ID.Hex(), now.Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrNoCopies)

	gotBook, gotAlice, err = svc.Return(context.Background(), book.ID.Hex(), alice.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, gotBook.AvailableCopies)
	assert.Empty(t, gotAlice.BorrowedBooks)
}

// Duplicate borrows of the same book are allowed; each return removes
// one entry and increments the count once.
func TestDuplicateBorrow_ReturnedOneAtATime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	book := testBook(2)
	user := testUser()
	svc := newTestService(newFakeBooks(book), newFakeUsers(user), nil, now)

	_, _, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), now.Add(24*time.Hour))
	require.NoError(t, err)
	gotBook, gotUser, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, gotBook.AvailableCopies)
	require.Len(t, gotUser.BorrowedBooks, 2)

	gotBook, gotUser, err = svc.Return(context.Background(), book.ID.Hex(), user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, gotBook.AvailableCopies)
	require.Len(t, gotUser.BorrowedBooks, 1)
	// The first entry goes first; the later due date remains.
	assert.Equal(t, now.Add(48*time.Hour), gotUser.BorrowedBooks[0].ReturnDate)
}

func TestHistory_NewestFirst(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	book := testBook(1)
	user := testUser()
	history := &fakeHistory{}
	svc := newTestService(newFakeBooks(book), newFakeUsers(user), history, now)

	_, _, err := svc.Borrow(context.Background(), book.ID.Hex(), user.ID.Hex(), now.Add(24*time.Hour))
	require.NoError(t, err)
	_, _, err = svc.Return(context.Background(), book.ID.Hex(), user.ID.Hex())
	require.NoError(t, err)

	events, err := svc.History(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.ActionReturn, events[0].Action)
	assert.Equal(t, models.ActionBorrow, events[1].Action)
}
