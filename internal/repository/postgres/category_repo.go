package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// categoryRepository implements repository.CategoryRepository.
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new PostgreSQL category repository.
func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, bookshelf_id, name, n_books, created_at, updated_at`

// Create creates a new category.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, bookshelf_id, name, n_books, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		category.ID,
		category.BookshelfID,
		category.Name,
		category.NBooks,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, category.Name)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrBookshelfNotFound
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetByID retrieves a category by ID.
func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := scanCategory(r.db.Pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}
	return category, nil
}

// Update updates the category name. The book counter is left untouched.
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE categories SET name = $2, updated_at = $3 WHERE id = $1`,
		category.ID, category.Name, category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, category.Name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// Delete deletes a category by ID.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotEmpty
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// ExistsByName checks if the bookshelf has a category with the given name.
func (r *categoryRepository) ExistsByName(ctx context.Context, bookshelfID uuid.UUID, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE bookshelf_id = $1 AND name = $2)`,
		bookshelfID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}
	return exists, nil
}

// List returns one window of categories, newest first.
func (r *categoryRepository) List(ctx context.Context, filter repository.CategoryFilter, opts repository.ListOptions) ([]*domain.Category, error) {
	where := categoryWhere(filter)
	query := fmt.Sprintf(`
		SELECT %s
		FROM categories%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, categoryColumns, where, where.next(1), where.next(2))

	rows, err := r.db.Pool.Query(ctx, query, append(where.args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Count returns the number of categories matching filter.
func (r *categoryRepository) Count(ctx context.Context, filter repository.CategoryFilter) (int64, error) {
	where := categoryWhere(filter)

	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+where.String(), where.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// AdjustBookCount atomically adds delta to n_books and returns the new value.
func (r *categoryRepository) AdjustBookCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	query := `
		UPDATE categories
		SET n_books = n_books + $2
		WHERE id = $1 AND n_books + $2 >= 0
		RETURNING n_books
	`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, id, delta).Scan(&count)
	if err == nil {
		return count, nil
	}
	if isCheckViolation(err) {
		return 0, domain.ErrCategoryCountUnderflow
	}
	if !isNoRows(err) {
		return 0, fmt.Errorf("failed to adjust category book count: %w", err)
	}

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check category existence: %w", err)
	}
	if !exists {
		return 0, domain.ErrCategoryNotFound
	}
	return 0, domain.ErrCategoryCountUnderflow
}

func categoryWhere(filter repository.CategoryFilter) *whereClause {
	where := &whereClause{}
	if filter.OwnerID != uuid.Nil {
		where.add("bookshelf_id IN (SELECT id FROM bookshelves WHERE owner_id = $%d)", filter.OwnerID)
	}
	if filter.BookshelfID != nil {
		where.add("bookshelf_id = $%d", *filter.BookshelfID)
	}
	return where
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	category := &domain.Category{}
	err := row.Scan(
		&category.ID,
		&category.BookshelfID,
		&category.Name,
		&category.NBooks,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	category.CreatedAt = category.CreatedAt.UTC()
	category.UpdatedAt = category.UpdatedAt.UTC()
	return category, nil
}

// Ensure categoryRepository implements repository.CategoryRepository.
var _ repository.CategoryRepository = (*categoryRepository)(nil)
