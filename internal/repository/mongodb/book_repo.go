package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// bookRepository implements repository.BookRepository for MongoDB.
type bookRepository struct {
	db   *DB
	coll *mongo.Collection
}

// NewBookRepository creates a new MongoDB book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db, coll: db.collection(bookCollection)}
}

// Create creates a new book on an existing bookshelf.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	owner, err := ownerOf(ctx, r.db, book.BookshelfID)
	if err != nil {
		return err
	}
	if err := r.checkCategory(ctx, book.CategoryID); err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, newBookDoc(book, owner)); err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (r *bookRepository) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	found, err := exists(ctx, r.db.collection(categoryCollection), bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to check category existence: %w", err)
	}
	if !found {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// GetByID retrieves a book by ID.
func (r *bookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	var doc bookDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}
	return doc.toDomain()
}

// Update updates book metadata and category assignment.
func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	if err := r.checkCategory(ctx, book.CategoryID); err != nil {
		return err
	}

	result, err := r.coll.UpdateByID(ctx, book.ID.String(), bson.M{
		"$set": bson.M{
			"category_id":       optionalID(book.CategoryID),
			"name":              book.Name,
			"author":            book.Author,
			"published_in_year": book.PublishedInYear,
			"number_of_pages":   book.NumberOfPages,
			"updated_at":        book.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// Delete deletes a book by ID.
func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// List returns one window of books, newest first.
func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter, opts repository.ListOptions) ([]*domain.Book, error) {
	cur, err := r.coll.Find(ctx, bookQuery(filter), findPage(opts.Offset, opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	books, err := decodeAll[domain.Book, bookDoc](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
}

// Count returns the number of books matching filter.
func (r *bookRepository) Count(ctx context.Context, filter repository.BookFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bookQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return n, nil
}

// CountByContentHash returns how many books reference the given content.
func (r *bookRepository) CountByContentHash(ctx context.Context, contentHash string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"content_hash": contentHash})
	if err != nil {
		return 0, fmt.Errorf("failed to count books by content hash: %w", err)
	}
	return n, nil
}

func bookQuery(filter repository.BookFilter) bson.M {
	query := bson.M{}
	if filter.OwnerID != uuid.Nil {
		query["owner_id"] = filter.OwnerID.String()
	}
	if filter.BookshelfID != nil {
		query["bookshelf_id"] = filter.BookshelfID.String()
	}
	if filter.CategoryID != nil {
		query["category_id"] = filter.CategoryID.String()
	}
	return query
}

// Ensure bookRepository implements repository.BookRepository.
var _ repository.BookRepository = (*bookRepository)(nil)
