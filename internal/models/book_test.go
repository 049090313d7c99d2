package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() BookInput {
	return BookInput{
		Title:           "Dune",
		Author:          "Frank Herbert",
		Genre:           "Science Fiction",
		PublicationDate: "1965-08-01",
		Description:     "Desert planet epic",
		Image:           "https://example.com/dune.jpg",
	}
}

func TestNewBook_Valid(t *testing.T) {
	book, errs := NewBook(validInput())
	require.Nil(t, errs)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, 1, book.AvailableCopies, "copies default to 1")
	assert.Equal(t, time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC), book.PublicationDate)
}

func TestNewBook_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookInput)
		field  string
	}{
		{"missing_title", func(in *BookInput) { in.Title = "" }, "title"},
		{"missing_author", func(in *BookInput) { in.Author = "  " }, "author"},
		{"missing_genre", func(in *BookInput) { in.Genre = "" }, "genre"},
		{"missing_date", func(in *BookInput) { in.PublicationDate = "" }, "publicationDate"},
		{"missing_description", func(in *BookInput) { in.Description = "" }, "description"},
		{"missing_image", func(in *BookInput) { in.Image = "" }, "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			book, errs := NewBook(in)
			assert.Nil(t, book)
			require.NotNil(t, errs)
			assert.Contains(t, errs.Error(), tt.field)
		})
	}
}

func TestNewBook_BadDateAndNegativeCopies(t *testing.T) {
	in := validInput()
	in.PublicationDate = "August 1965"
	in.AvailableCopies = -2

	book, errs := NewBook(in)
	assert.Nil(t, book)
	require.Len(t, errs, 2)
}

func TestNewBook_ExplicitCopiesKept(t *testing.T) {
	in := validInput()
	in.AvailableCopies = 7

	book, errs := NewBook(in)
	require.Nil(t, errs)
	assert.Equal(t, 7, book.AvailableCopies)
}

func TestBookUpdate_Apply(t *testing.T) {
	book, errs := NewBook(validInput())
	require.Nil(t, errs)

	title := "Dune Messiah"
	copies := 3
	date := "1969-10-15"
	verrs := BookUpdate{Title: &title, AvailableCopies: &copies, PublicationDate: &date}.Apply(book)
	require.Nil(t, verrs)

	assert.Equal(t, "Dune Messiah", book.Title)
	assert.Equal(t, 3, book.AvailableCopies)
	assert.Equal(t, time.Date(1969, 10, 15, 0, 0, 0, 0, time.UTC), book.PublicationDate)
	assert.Equal(t, "Frank Herbert", book.Author, "absent fields stay untouched")
}

func TestBookUpdate_RejectsNegativeCopies(t *testing.T) {
	book, _ := NewBook(validInput())
	copies := -1
	verrs := BookUpdate{AvailableCopies: &copies}.Apply(book)
	require.Len(t, verrs, 1)
	assert.Equal(t, "availableCopies", verrs[0].Field)
	assert.Equal(t, 1, book.AvailableCopies)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2025-01-31T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	_, err = ParseDate("31/01/2025")
	assert.Error(t, err)
}
