package mongodb

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/domain"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

type bookshelfDoc struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newBookshelfDoc(b *domain.Bookshelf) bookshelfDoc {
	return bookshelfDoc{
		ID:        b.ID.String(),
		OwnerID:   b.OwnerID.String(),
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (d bookshelfDoc) toDomain() (*domain.Bookshelf, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid bookshelf id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", d.OwnerID, err)
	}
	return &domain.Bookshelf{
		ID:        id,
		OwnerID:   owner,
		Name:      d.Name,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

type categoryDoc struct {
	ID          string    `bson:"_id"`
	OwnerID     string    `bson:"owner_id"`
	BookshelfID string    `bson:"bookshelf_id"`
	Name        string    `bson:"name"`
	NBooks      int64     `bson:"n_books"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func newCategoryDoc(c *domain.Category, ownerID string) categoryDoc {
	return categoryDoc{
		ID:          c.ID.String(),
		OwnerID:     ownerID,
		BookshelfID: c.BookshelfID.String(),
		Name:        c.Name,
		NBooks:      c.NBooks,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (d categoryDoc) toDomain() (*domain.Category, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid category id %q: %w", d.ID, err)
	}
	shelf, err := uuid.Parse(d.BookshelfID)
	if err != nil {
		return nil, fmt.Errorf("invalid bookshelf id %q: %w", d.BookshelfID, err)
	}
	return &domain.Category{
		ID:          id,
		BookshelfID: shelf,
		Name:        d.Name,
		NBooks:      d.NBooks,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

type bookDoc struct {
	ID              string    `bson:"_id"`
	OwnerID         string    `bson:"owner_id"`
	BookshelfID     string    `bson:"bookshelf_id"`
	CategoryID      *string   `bson:"category_id"`
	Name            string    `bson:"name"`
	Author          string    `bson:"author"`
	PublishedInYear int       `bson:"published_in_year"`
	NumberOfPages   int       `bson:"number_of_pages"`
	ContentHash     string    `bson:"content_hash"`
	ContentSize     int64     `bson:"content_size"`
	ContentName     string    `bson:"content_name"`
	ContentType     string    `bson:"content_type"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func newBookDoc(b *domain.Book, ownerID string) bookDoc {
	return bookDoc{
		ID:              b.ID.String(),
		OwnerID:         ownerID,
		BookshelfID:     b.BookshelfID.String(),
		CategoryID:      optionalID(b.CategoryID),
		Name:            b.Name,
		Author:          b.Author,
		PublishedInYear: b.PublishedInYear,
		NumberOfPages:   b.NumberOfPages,
		ContentHash:     b.ContentHash,
		ContentSize:     b.ContentSize,
		ContentName:     b.ContentName,
		ContentType:     b.ContentType,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (d bookDoc) toDomain() (*domain.Book, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid book id %q: %w", d.ID, err)
	}
	shelf, err := uuid.Parse(d.BookshelfID)
	if err != nil {
		return nil, fmt.Errorf("invalid bookshelf id %q: %w", d.BookshelfID, err)
	}

	var category *uuid.UUID
	if d.CategoryID != nil {
		parsed, err := uuid.Parse(*d.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category id %q: %w", *d.CategoryID, err)
		}
		category = &parsed
	}

	return &domain.Book{
		ID:              id,
		Name:            d.Name,
		Author:          d.Author,
		PublishedInYear: d.PublishedInYear,
		NumberOfPages:   d.NumberOfPages,
		BookshelfID:     shelf,
		CategoryID:      category,
		ContentHash:     d.ContentHash,
		ContentSize:     d.ContentSize,
		ContentName:     d.ContentName,
		ContentType:     d.ContentType,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}, nil
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
