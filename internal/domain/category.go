package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category groups books inside a single bookshelf.
// Ownership is transitive through the parent bookshelf.
type Category struct {
	// ID is the unique identifier for the category.
	ID uuid.UUID `json:"id"`

	// BookshelfID is the parent bookshelf.
	BookshelfID uuid.UUID `json:"parentId"`

	// Name is unique within the parent bookshelf.
	Name string `json:"name"`

	// NBooks is the number of books currently referencing this category.
	// It is maintained with atomic increments, never recomputed on the read path.
	NBooks int64 `json:"nBooks"`

	CreatedAt time.Time `json:"dateCreated"`
	UpdatedAt time.Time `json:"dateModified"`
}

// NewCategory creates an empty Category under bookshelfID.
func NewCategory(bookshelfID uuid.UUID, name string) *Category {
	now := time.Now().UTC()
	return &Category{
		ID:          uuid.New(),
		BookshelfID: bookshelfID,
		Name:        strings.TrimSpace(name),
		NBooks:      0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Rename changes the category name and bumps UpdatedAt.
func (c *Category) Rename(name string) {
	c.Name = strings.TrimSpace(name)
	c.UpdatedAt = time.Now().UTC()
}

// IsEmpty reports whether the counter says no book references the category.
func (c *Category) IsEmpty() bool {
	return c.NBooks == 0
}
