package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book is a catalog entry stored in MongoDB.
type Book struct {
	ID              primitive.ObjectID `json:"id"              bson:"_id,omitempty"`
	Title           string             `json:"title"           bson:"title"`
	Author          string             `json:"author"          bson:"author"`
	Genre           string             `json:"genre"           bson:"genre"`
	PublicationDate time.Time          `json:"publicationDate" bson:"publication_date"`
	Description     string             `json:"description"     bson:"description"`
	Image           string             `json:"image"           bson:"image"`
	AvailableCopies int                `json:"availableCopies" bson:"available_copies"`
	CoverKey        string             `json:"-"               bson:"cover_key,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"       bson:"created_at"`
	UpdatedAt       time.Time          `json:"updatedAt"       bson:"updated_at"`
}

// BookInput is the JSON body for POST /api/books.
type BookInput struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	Genre           string `json:"genre"`
	PublicationDate string `json:"publicationDate"`
	Description     string `json:"description"`
	Image           string `json:"image"`
	AvailableCopies int    `json:"availableCopies"`
}

// BookUpdate is the JSON body for PUT /api/books/{id}. Nil fields are
// left unchanged.
type BookUpdate struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	Genre           *string `json:"genre"`
	PublicationDate *string `json:"publicationDate"`
	Description     *string `json:"description"`
	Image           *string `json:"image"`
	AvailableCopies *int    `json:"availableCopies"`
}

// FieldError describes a single invalid or missing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects all field errors found during validation.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// ParseDate accepts the date-only form used by the frontend as well as
// full RFC 3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// NewBook validates the input and builds a Book ready for insertion.
// Validation failures are returned as a field-error list; a non-nil
// Book is returned only when the list is empty.
func NewBook(in BookInput) (*Book, ValidationErrors) {
	var errs ValidationErrors

	required := []struct {
		field, value string
	}{
		{"title", in.Title},
		{"author", in.Author},
		{"genre", in.Genre},
		{"publicationDate", in.PublicationDate},
		{"description", in.Description},
		{"image", in.Image},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{Field: r.field, Message: "is required"})
		}
	}

	var pubDate time.Time
	if strings.TrimSpace(in.PublicationDate) != "" {
		var err error
		pubDate, err = ParseDate(in.PublicationDate)
		if err != nil {
			errs = append(errs, FieldError{Field: "publicationDate", Message: "must be a valid date"})
		}
	}

	if in.AvailableCopies < 0 {
		errs = append(errs, FieldError{Field: "availableCopies", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	copies := in.AvailableCopies
	if copies == 0 {
		copies = 1
	}

	return &Book{
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		Genre:           strings.TrimSpace(in.Genre),
		PublicationDate: pubDate,
		Description:     strings.TrimSpace(in.Description),
		Image:           strings.TrimSpace(in.Image),
		AvailableCopies: copies,
	}, nil
}

// Apply copies the non-nil fields of the update onto the book.
func (u BookUpdate) Apply(b *Book) ValidationErrors {
	var errs ValidationErrors

	if u.Title != nil {
		b.Title = strings.TrimSpace(*u.Title)
	}
	if u.Author != nil {
		b.Author = strings.TrimSpace(*u.Author)
	}
	if u.Genre != nil {
		b.Genre = strings.TrimSpace(*u.Genre)
	}
	if u.Description != nil {
		b.Description = strings.TrimSpace(*u.Description)
	}
	if u.Image != nil {
		b.Image = strings.TrimSpace(*u.Image)
	}
	if u.PublicationDate != nil {
		t, err := ParseDate(*u.PublicationDate)
		if err != nil {
			errs = append(errs, FieldError{Field: "publicationDate", Message: "must be a valid date"})
		} else {
			b.PublicationDate = t
		}
	}
	if u.AvailableCopies != nil {
		if *u.AvailableCopies < 0 {
			errs = append(errs, FieldError{Field: "availableCopies", Message: "must not be negative"})
		} else {
			b.AvailableCopies = *u.AvailableCopies
		}
	}

	return errs
}

// BookFilter carries the optional query filters for listing books.
type BookFilter struct {
	Genre           string
	Author          string
	PublicationDate string
	Search          string
}
