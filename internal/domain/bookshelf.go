package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength bounds bookshelf, category and book names.
const MaxNameLength = 255

// Bookshelf is the top-level container a user organizes books into.
// It is the only entity that stores a direct owner reference.
type Bookshelf struct {
	// ID is the unique identifier for the bookshelf.
	ID uuid.UUID `json:"id"`

	// OwnerID is the ID of the user who owns this bookshelf.
	OwnerID uuid.UUID `json:"parentId"`

	// Name is unique among the owner's bookshelves.
	Name string `json:"name"`

	CreatedAt time.Time `json:"dateCreated"`
	UpdatedAt time.Time `json:"dateModified"`
}

// NewBookshelf creates a new Bookshelf owned by ownerID.
func NewBookshelf(ownerID uuid.UUID, name string) *Bookshelf {
	now := time.Now().UTC()
	return &Bookshelf{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Rename changes the bookshelf name and bumps UpdatedAt.
func (b *Bookshelf) Rename(name string) {
	b.Name = strings.TrimSpace(name)
	b.UpdatedAt = time.Now().UTC()
}

// ValidateName checks a bookshelf, category or book name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}
