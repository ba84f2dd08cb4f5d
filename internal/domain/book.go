package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Book is a single stored e-book with its metadata.
type Book struct {
	// ID is the unique identifier for the book.
	ID uuid.UUID `json:"id"`

	Name            string `json:"name"`
	Author          string `json:"author"`
	PublishedInYear int    `json:"publishedInYear"`
	NumberOfPages   int    `json:"numberOfPages"`

	// BookshelfID is the bookshelf the book lives on. It never changes after creation.
	BookshelfID uuid.UUID `json:"bookshelfId"`

	// CategoryID is optional. When set, the category's parent must be BookshelfID.
	CategoryID *uuid.UUID `json:"categoryId"`

	// ContentHash is the SHA-256 of the stored content (64 hex characters).
	ContentHash string `json:"contentHash"`

	// ContentSize is the size of the stored content in bytes.
	ContentSize int64 `json:"contentSize"`

	// ContentName is the original filename supplied at upload.
	ContentName string `json:"contentName"`

	// ContentType is the MIME type supplied at upload.
	ContentType string `json:"contentType"`

	CreatedAt time.Time `json:"dateCreated"`
	UpdatedAt time.Time `json:"dateModified"`
}

// BookContent describes content that has already been persisted to the content store.
type BookContent struct {
	Hash string
	Size int64
	Name string
	Type string
}

// NewBook creates a new Book on bookshelfID, optionally in categoryID.
func NewBook(bookshelfID uuid.UUID, categoryID *uuid.UUID, name string, content BookContent) *Book {
	now := time.Now().UTC()
	return &Book{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		BookshelfID: bookshelfID,
		CategoryID:  categoryID,
		ContentHash: content.Hash,
		ContentSize: content.Size,
		ContentName: content.Name,
		ContentType: content.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch bumps UpdatedAt.
func (b *Book) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// InCategory reports whether the book is assigned to id.
func (b *Book) InCategory(id uuid.UUID) bool {
	return b.CategoryID != nil && *b.CategoryID == id
}

// ValidateBookDetails checks the optional numeric metadata of a book.
func ValidateBookDetails(publishedInYear, numberOfPages int) error {
	if publishedInYear < 0 || publishedInYear > 9999 {
		return ErrInvalidYear
	}
	if numberOfPages < 0 {
		return ErrInvalidPageCount
	}
	return nil
}

// SameCategory reports whether two optional category references point at the
// same category (both nil counts as the same).
func SameCategory(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
