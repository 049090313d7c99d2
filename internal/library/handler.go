package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookden/library-app/backend/internal/api"
	"github.com/bookden/library-app/backend/internal/auth"
	"github.com/bookden/library-app/backend/internal/models"
)

// maxCoverSize caps cover image uploads at 5 MiB.
const maxCoverSize = 5 << 20

// FileStore defines the interface for cover image storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds the catalog and borrow/return HTTP handlers.
type Handler struct {
	books  BookStore
	covers FileStore
	svc    *Service
}

func NewHandler(books BookStore, covers FileStore, svc *Service) *Handler {
	return &Handler{books: books, covers: covers, svc: svc}
}

// List returns all books matching the optional query filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.BookFilter{
		Genre:           r.URL.Query().Get("genre"),
		Author:          r.URL.Query().Get("author"),
		PublicationDate: r.URL.Query().Get("publicationDate"),
		Search:          r.URL.Query().Get("search"),
	}

	books, err := h.books.ListBooks(r.Context(), filter)
	if err != nil {
		log.Printf("list books error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to retrieve books")
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	api.Respond(w, http.StatusOK, books, "Books retrieved successfully")
}

// Get returns a single book by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := h.books.GetBook(r.Context(), id)
	if err != nil {
		log.Printf("get book error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to retrieve book")
		return
	}
	if book == nil {
		api.Error(w, http.StatusNotFound, "Book not found")
		return
	}
	api.Respond(w, http.StatusOK, book, "Book details retrieved successfully")
}

// Create adds a new book to the catalog. All core fields are required.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	book, verrs := models.NewBook(in)
	if verrs != nil {
		api.Error(w, http.StatusBadRequest, "All fields are required: "+verrs.Error())
		return
	}

	if _, err := h.books.InsertBook(r.Context(), book); err != nil {
		log.Printf("insert book error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to add book")
		return
	}
	api.Respond(w, http.StatusCreated, book, "Book added successfully")
}

// Update applies a partial field replacement to an existing book.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := h.books.GetBook(r.Context(), id)
	if err != nil {
		log.Printf("get book error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to retrieve book")
		return
	}
	if book == nil {
		api.Error(w, http.StatusNotFound, "Book not found")
		return
	}

	var upd models.BookUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if verrs := upd.Apply(book); verrs != nil {
		api.Error(w, http.StatusBadRequest, verrs.Error())
		return
	}

	if err := h.books.UpdateBook(r.Context(), book); err != nil {
		log.Printf("update book error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to update book")
		return
	}
	api.Respond(w, http.StatusOK, book, "Book updated successfully")
}

// Delete removes a book and its stored cover image.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := h.books.GetBook(r.Context(), id)
	if err != nil {
		log.Printf("get book error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to retrieve book")
		return
	}
	if book == nil {
		api.Error(w, http.StatusNotFound, "Book not found")
		return
	}

	if book.CoverKey != "" {
		if err := h.covers.Remove(r.Context(), book.CoverKey); err != nil {
			log.Printf("remove cover error: %v", err)
		}
	}

	if err := h.books.DeleteBook(r.Context(), id); err != nil {
		log.Printf("delete book error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to delete book")
		return
	}
	api.Respond(w, http.StatusOK, nil, "Book deleted successfully")
}

// Borrow runs the borrow workflow for the authenticated user.
func (h *Handler) Borrow(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		ReturnDate string `json:"returnDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.ReturnDate) == "" {
		api.Error(w, http.StatusBadRequest, "Return date is required")
		return
	}
	returnDate, err := models.ParseDate(req.ReturnDate)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Return date must be a valid date")
		return
	}

	bookID := chi.URLParam(r, "bookId")
	book, user, err := h.svc.Borrow(r.Context(), bookID, p.UserID, returnDate)
	if err != nil {
		h.workflowError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, map[string]interface{}{
		"book": book,
		"user": user,
	}, "Book borrowed successfully")
}

// Return runs the return workflow for the authenticated user.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	bookID := chi.URLParam(r, "bookId")
	book, user, err := h.svc.Return(r.Context(), bookID, p.UserID)
	if err != nil {
		h.workflowError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, map[string]interface{}{
		"book": book,
		"user": user,
	}, "Book returned successfully")
}

// History lists the caller's borrow/return events, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	events, err := h.svc.History(r.Context(), p.UserID)
	if err != nil {
		log.Printf("history error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}
	if events == nil {
		events = []models.BorrowEvent{}
	}
	api.Respond(w, http.StatusOK, events, "History retrieved successfully")
}

// UploadCover stores a cover image for the book and points the book's
// image URI at the serving endpoint.
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := h.books.GetBook(r.Context(), id)
	if err != nil {
		log.Printf("get book error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to retrieve book")
		return
	}
	if book == nil {
		api.Error(w, http.StatusNotFound, "Book not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverSize)
	file, header, err := r.FormFile("cover")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Cover file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Failed to read cover file")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key := fmt.Sprintf("covers/%s", id)
	if err := h.covers.Upload(r.Context(), key, data, contentType); err != nil {
		log.Printf("cover upload error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to store cover")
		return
	}

	imageURI := fmt.Sprintf("/api/books/%s/cover", id)
	if err := h.books.SetCover(r.Context(), id, key, imageURI); err != nil {
		log.Printf("set cover error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to update book")
		return
	}

	book.CoverKey = key
	book.Image = imageURI
	api.Respond(w, http.StatusOK, book, "Cover uploaded successfully")
}

// GetCover streams the stored cover image.
func (h *Handler) GetCover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := h.books.GetBook(r.Context(), id)
	if err != nil {
		log.Printf("get book error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to retrieve book")
		return
	}
	if book == nil || book.CoverKey == "" {
		api.Error(w, http.StatusNotFound, "Cover not available")
		return
	}

	data, contentType, err := h.covers.Download(r.Context(), book.CoverKey)
	if err != nil {
		log.Printf("cover download error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to download cover")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// workflowError maps workflow sentinels onto the API error responses.
func (h *Handler) workflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBookNotFound):
		api.Error(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, ErrUserNotFound):
		api.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrNoCopies):
		api.Error(w, http.StatusBadRequest, "No copies available for borrowing")
	case errors.Is(err, ErrNotBorrowed):
		api.Error(w, http.StatusBadRequest, "Book not borrowed by this user")
	case errors.Is(err, ErrInvalidReturnDate):
		api.Error(w, http.StatusBadRequest, "Return date cannot be more than 7 days from borrowing date")
	default:
		log.Printf("workflow error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Internal error")
	}
}
