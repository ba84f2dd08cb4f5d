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

// bookshelfRepository implements repository.BookshelfRepository for MongoDB.
type bookshelfRepository struct {
	db   *DB
	coll *mongo.Collection
}

// NewBookshelfRepository creates a new MongoDB bookshelf repository.
func NewBookshelfRepository(db *DB) repository.BookshelfRepository {
	return &bookshelfRepository{db: db, coll: db.collection(bookshelfCollection)}
}

// Create creates a new bookshelf.
func (r *bookshelfRepository) Create(ctx context.Context, shelf *domain.Bookshelf) error {
	if _, err := r.coll.InsertOne(ctx, newBookshelfDoc(shelf)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrBookshelfAlreadyExists, shelf.Name)
		}
		return fmt.Errorf("failed to create bookshelf: %w", err)
	}
	return nil
}

// GetByID retrieves a bookshelf by ID.
func (r *bookshelfRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bookshelf, error) {
	var doc bookshelfDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrBookshelfNotFound
		}
		return nil, fmt.Errorf("failed to get bookshelf by ID: %w", err)
	}
	return doc.toDomain()
}

// Update updates the bookshelf name.
func (r *bookshelfRepository) Update(ctx context.Context, shelf *domain.Bookshelf) error {
	result, err := r.coll.UpdateByID(ctx, shelf.ID.String(), bson.M{
		"$set": bson.M{"name": shelf.Name, "updated_at": shelf.UpdatedAt},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrBookshelfAlreadyExists, shelf.Name)
		}
		return fmt.Errorf("failed to update bookshelf: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrBookshelfNotFound
	}
	return nil
}

// Delete deletes a bookshelf by ID. Without foreign keys the emptiness
// check happens here; callers hold the bookshelf lock.
func (r *bookshelfRepository) Delete(ctx context.Context, id uuid.UUID) error {
	empty, err := r.IsEmpty(ctx, id)
	if err != nil {
		return err
	}
	if !empty {
		return domain.ErrBookshelfNotEmpty
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete bookshelf: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrBookshelfNotFound
	}
	return nil
}

// ExistsByName checks if the owner has a bookshelf with the given name.
func (r *bookshelfRepository) ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	found, err := exists(ctx, r.coll, bson.M{"owner_id": ownerID.String(), "name": name})
	if err != nil {
		return false, fmt.Errorf("failed to check bookshelf existence: %w", err)
	}
	return found, nil
}

// List returns one window of bookshelves, newest first.
func (r *bookshelfRepository) List(ctx context.Context, filter repository.BookshelfFilter, opts repository.ListOptions) ([]*domain.Bookshelf, error) {
	cur, err := r.coll.Find(ctx, bookshelfQuery(filter), findPage(opts.Offset, opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookshelves: %w", err)
	}
	shelves, err := decodeAll[domain.Bookshelf, bookshelfDoc](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bookshelves: %w", err)
	}
	return shelves, nil
}

// Count returns the number of bookshelves matching filter.
func (r *bookshelfRepository) Count(ctx context.Context, filter repository.BookshelfFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bookshelfQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookshelves: %w", err)
	}
	return n, nil
}

// IsEmpty checks that no category and no book references the bookshelf.
func (r *bookshelfRepository) IsEmpty(ctx context.Context, id uuid.UUID) (bool, error) {
	ref := bson.M{"bookshelf_id": id.String()}
	for _, name := range []string{categoryCollection, bookCollection} {
		found, err := exists(ctx, r.db.collection(name), ref)
		if err != nil {
			return false, fmt.Errorf("failed to check if bookshelf is empty: %w", err)
		}
		if found {
			return false, nil
		}
	}
	return true, nil
}

func bookshelfQuery(filter repository.BookshelfFilter) bson.M {
	query := bson.M{}
	if filter.OwnerID != uuid.Nil {
		query["owner_id"] = filter.OwnerID.String()
	}
	return query
}

// ownerOf returns the owner of a bookshelf in stored form.
func ownerOf(ctx context.Context, db *DB, bookshelfID uuid.UUID) (string, error) {
	var doc bookshelfDoc
	err := db.collection(bookshelfCollection).FindOne(ctx, bson.M{"_id": bookshelfID.String()}).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return "", domain.ErrBookshelfNotFound
		}
		return "", fmt.Errorf("failed to resolve bookshelf owner: %w", err)
	}
	return doc.OwnerID, nil
}

// Ensure bookshelfRepository implements repository.BookshelfRepository.
var _ repository.BookshelfRepository = (*bookshelfRepository)(nil)
