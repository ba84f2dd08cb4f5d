package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// categoryRepository implements repository.CategoryRepository for SQLite.
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new SQLite category repository.
func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, bookshelf_id, name, n_books, created_at, updated_at`

// Create creates a new category.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, bookshelf_id, name, n_books, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		category.ID.String(),
		category.BookshelfID.String(),
		category.Name,
		category.NBooks,
		formatTime(category.CreatedAt),
		formatTime(category.UpdatedAt),
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
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}
	return category, nil
}

// Update updates the category name.
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `UPDATE categories SET name = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, category.Name, formatTime(category.UpdatedAt), category.ID.String())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrCategoryAlreadyExists, category.Name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}

	return nil
}

// Delete deletes a category by ID.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotEmpty
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}

	return nil
}

// ExistsByName checks if the bookshelf has a category with the given name.
func (r *categoryRepository) ExistsByName(ctx context.Context, bookshelfID uuid.UUID, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE bookshelf_id = ? AND name = ?`,
		bookshelfID.String(), name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}
	return count > 0, nil
}

// List returns one window of categories, newest first.
func (r *categoryRepository) List(ctx context.Context, filter repository.CategoryFilter, opts repository.ListOptions) ([]*domain.Category, error) {
	where, args := categoryWhere(filter)
	query := `
		SELECT ` + categoryColumns + `
		FROM categories` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
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
	where, args := categoryWhere(filter)

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// AdjustBookCount atomically adds delta to n_books and returns the new value.
// The guard keeps the counter from going negative; a guarded miss is told
// apart from a missing row with a follow-up existence check.
func (r *categoryRepository) AdjustBookCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	query := `
		UPDATE categories
		SET n_books = n_books + ?
		WHERE id = ? AND n_books + ? >= 0
		RETURNING n_books
	`

	var count int64
	err := r.db.QueryRowContext(ctx, query, delta, id.String(), delta).Scan(&count)
	if err == nil {
		return count, nil
	}
	if isCheckViolation(err) {
		return 0, domain.ErrCategoryCountUnderflow
	}
	if !isNoRows(err) {
		return 0, fmt.Errorf("failed to adjust category book count: %w", err)
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE id = ?`, id.String()).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check category existence: %w", err)
	}
	if exists == 0 {
		return 0, domain.ErrCategoryNotFound
	}
	return 0, domain.ErrCategoryCountUnderflow
}

func categoryWhere(filter repository.CategoryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.OwnerID != uuid.Nil {
		conds = append(conds, "bookshelf_id IN (SELECT id FROM bookshelves WHERE owner_id = ?)")
		args = append(args, filter.OwnerID.String())
	}
	if filter.BookshelfID != nil {
		conds = append(conds, "bookshelf_id = ?")
		args = append(args, filter.BookshelfID.String())
	}
	return joinWhere(conds), args
}

func scanCategory(row scanner) (*domain.Category, error) {
	var (
		category             domain.Category
		id, bookshelfID      string
		createdAt, updatedAt string
	)

	if err := row.Scan(&id, &bookshelfID, &category.Name, &category.NBooks, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if category.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid category id %q: %w", id, err)
	}
	if category.BookshelfID, err = uuid.Parse(bookshelfID); err != nil {
		return nil, fmt.Errorf("invalid bookshelf id %q: %w", bookshelfID, err)
	}
	category.CreatedAt = parseTime(createdAt)
	category.UpdatedAt = parseTime(updatedAt)

	return &category, nil
}

// Ensure categoryRepository implements repository.CategoryRepository.
var _ repository.CategoryRepository = (*categoryRepository)(nil)
