package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// bookshelfRepository implements repository.BookshelfRepository.
type bookshelfRepository struct {
	db *DB
}

// NewBookshelfRepository creates a new PostgreSQL bookshelf repository.
func NewBookshelfRepository(db *DB) repository.BookshelfRepository {
	return &bookshelfRepository{db: db}
}

const bookshelfColumns = `id, owner_id, name, created_at, updated_at`

// Create creates a new bookshelf.
func (r *bookshelfRepository) Create(ctx context.Context, shelf *domain.Bookshelf) error {
	query := `
		INSERT INTO bookshelves (id, owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query, shelf.ID, shelf.OwnerID, shelf.Name, shelf.CreatedAt, shelf.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrBookshelfAlreadyExists, shelf.Name)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to create bookshelf: %w", err)
	}

	return nil
}

// GetByID retrieves a bookshelf by ID.
func (r *bookshelfRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bookshelf, error) {
	shelf, err := scanBookshelf(r.db.Pool.QueryRow(ctx, `SELECT `+bookshelfColumns+` FROM bookshelves WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBookshelfNotFound
		}
		return nil, fmt.Errorf("failed to get bookshelf by ID: %w", err)
	}
	return shelf, nil
}

// Update updates the bookshelf name.
func (r *bookshelfRepository) Update(ctx context.Context, shelf *domain.Bookshelf) error {
	result, err := r.db.Pool.Exec(ctx,
		`UPDATE bookshelves SET name = $2, updated_at = $3 WHERE id = $1`,
		shelf.ID, shelf.Name, shelf.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrBookshelfAlreadyExists, shelf.Name)
		}
		return fmt.Errorf("failed to update bookshelf: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBookshelfNotFound
	}
	return nil
}

// Delete deletes a bookshelf by ID.
func (r *bookshelfRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM bookshelves WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBookshelfNotEmpty
		}
		return fmt.Errorf("failed to delete bookshelf: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBookshelfNotFound
	}
	return nil
}

// ExistsByName checks if the owner has a bookshelf with the given name.
func (r *bookshelfRepository) ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookshelves WHERE owner_id = $1 AND name = $2)`,
		ownerID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookshelf existence: %w", err)
	}
	return exists, nil
}

// List returns one window of bookshelves, newest first.
func (r *bookshelfRepository) List(ctx context.Context, filter repository.BookshelfFilter, opts repository.ListOptions) ([]*domain.Bookshelf, error) {
	where := bookshelfWhere(filter)
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookshelves%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, bookshelfColumns, where, where.next(1), where.next(2))

	rows, err := r.db.Pool.Query(ctx, query, append(where.args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookshelves: %w", err)
	}
	defer rows.Close()

	var shelves []*domain.Bookshelf
	for rows.Next() {
		shelf, err := scanBookshelf(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookshelf: %w", err)
		}
		shelves = append(shelves, shelf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookshelves: %w", err)
	}

	return shelves, nil
}

// Count returns the number of bookshelves matching filter.
func (r *bookshelfRepository) Count(ctx context.Context, filter repository.BookshelfFilter) (int64, error) {
	where := bookshelfWhere(filter)

	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookshelves`+where.String(), where.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookshelves: %w", err)
	}
	return count, nil
}

// IsEmpty checks that no category and no book references the bookshelf.
func (r *bookshelfRepository) IsEmpty(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT NOT EXISTS(SELECT 1 FROM categories WHERE bookshelf_id = $1)
		   AND NOT EXISTS(SELECT 1 FROM books WHERE bookshelf_id = $1)
	`

	var empty bool
	if err := r.db.Pool.QueryRow(ctx, query, id).Scan(&empty); err != nil {
		return false, fmt.Errorf("failed to check if bookshelf is empty: %w", err)
	}
	return empty, nil
}

func bookshelfWhere(filter repository.BookshelfFilter) *whereClause {
	where := &whereClause{}
	if filter.OwnerID != uuid.Nil {
		where.add("owner_id = $%d", filter.OwnerID)
	}
	return where
}

func scanBookshelf(row pgx.Row) (*domain.Bookshelf, error) {
	shelf := &domain.Bookshelf{}
	if err := row.Scan(&shelf.ID, &shelf.OwnerID, &shelf.Name, &shelf.CreatedAt, &shelf.UpdatedAt); err != nil {
		return nil, err
	}
	shelf.CreatedAt = shelf.CreatedAt.UTC()
	shelf.UpdatedAt = shelf.UpdatedAt.UTC()
	return shelf, nil
}

// Ensure bookshelfRepository implements repository.BookshelfRepository.
var _ repository.BookshelfRepository = (*bookshelfRepository)(nil)
