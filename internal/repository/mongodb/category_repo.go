package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// categoryRepository implements repository.CategoryRepository for MongoDB.
type categoryRepository struct {
	db   *DB
	coll *mongo.Collection
}

// NewCategoryRepository creates a new MongoDB category repository.
func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &categoryRepository{db: db, coll: db.collection(categoryCollection)}
}

// Create creates a new category under an existing bookshelf.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	owner, err := ownerOf(ctx, r.db, category.BookshelfID)
	if err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, newCategoryDoc(category, owner)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, category.Name)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by ID.
func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var doc categoryDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}
	return doc.toDomain()
}

// Update updates the category name. n_books is never written here.
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	result, err := r.coll.UpdateByID(ctx, category.ID.String(), bson.M{
		"$set": bson.M{"name": category.Name, "updated_at": category.UpdatedAt},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, category.Name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// Delete deletes a category that no book references.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	referenced, err := exists(ctx, r.db.collection(bookCollection), bson.M{"category_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to check category references: %w", err)
	}
	if referenced {
		return domain.ErrCategoryNotEmpty
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// ExistsByName checks if the bookshelf has a category with the given name.
func (r *categoryRepository) ExistsByName(ctx context.Context, bookshelfID uuid.UUID, name string) (bool, error) {
	found, err := exists(ctx, r.coll, bson.M{"bookshelf_id": bookshelfID.String(), "name": name})
	if err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}
	return found, nil
}

// List returns one window of categories, newest first.
func (r *categoryRepository) List(ctx context.Context, filter repository.CategoryFilter, opts repository.ListOptions) ([]*domain.Category, error) {
	cur, err := r.coll.Find(ctx, categoryQuery(filter), findPage(opts.Offset, opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories, err := decodeAll[domain.Category, categoryDoc](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

// Count returns the number of categories matching filter.
func (r *categoryRepository) Count(ctx context.Context, filter repository.CategoryFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, categoryQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return n, nil
}

// AdjustBookCount applies $inc guarded so the counter never drops below zero.
func (r *categoryRepository) AdjustBookCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	filter := bson.M{"_id": id.String(), "n_books": bson.M{"$gte": -delta}}
	update := bson.M{"$inc": bson.M{"n_books": delta}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc categoryDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.NBooks, nil
	}
	if !isNoDocuments(err) {
		return 0, fmt.Errorf("failed to adjust category book count: %w", err)
	}

	found, err := exists(ctx, r.coll, bson.M{"_id": id.String()})
	if err != nil {
		return 0, fmt.Errorf("failed to check category existence: %w", err)
	}
	if !found {
		return 0, domain.ErrCategoryNotFound
	}
	return 0, domain.ErrCategoryCountUnderflow
}

func categoryQuery(filter repository.CategoryFilter) bson.M {
	query := bson.M{}
	if filter.OwnerID != uuid.Nil {
		query["owner_id"] = filter.OwnerID.String()
	}
	if filter.BookshelfID != nil {
		query["bookshelf_id"] = filter.BookshelfID.String()
	}
	return query
}

// Ensure categoryRepository implements repository.CategoryRepository.
var _ repository.CategoryRepository = (*categoryRepository)(nil)
