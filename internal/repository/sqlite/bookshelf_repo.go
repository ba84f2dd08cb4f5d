package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// bookshelfRepository implements repository.BookshelfRepository for SQLite.
type bookshelfRepository struct {
	db *DB
}

// NewBookshelfRepository creates a new SQLite bookshelf repository.
func NewBookshelfRepository(db *DB) repository.BookshelfRepository {
	return &bookshelfRepository{db: db}
}

const bookshelfColumns = `id, owner_id, name, created_at, updated_at`

// Create creates a new bookshelf.
func (r *bookshelfRepository) Create(ctx context.Context, shelf *domain.Bookshelf) error {
	query := `
		INSERT INTO bookshelves (id, owner_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		shelf.ID.String(),
		shelf.OwnerID.String(),
		shelf.Name,
		formatTime(shelf.CreatedAt),
		formatTime(shelf.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrBookshelfAlreadyExists, shelf.Name)
		}
		return fmt.Errorf("failed to create bookshelf: %w", err)
	}

	return nil
}

// GetByID retrieves a bookshelf by ID.
func (r *bookshelfRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bookshelf, error) {
	query := `SELECT ` + bookshelfColumns + ` FROM bookshelves WHERE id = ?`

	shelf, err := scanBookshelf(r.db.QueryRowContext(ctx, query, id.String()))
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
	query := `UPDATE bookshelves SET name = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, shelf.Name, formatTime(shelf.UpdatedAt), shelf.ID.String())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrBookshelfAlreadyExists, shelf.Name)
		}
		return fmt.Errorf("failed to update bookshelf: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookshelfNotFound
	}

	return nil
}

// Delete deletes a bookshelf by ID.
func (r *bookshelfRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookshelves WHERE id = ?`, id.String())
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBookshelfNotEmpty
		}
		return fmt.Errorf("failed to delete bookshelf: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookshelfNotFound
	}

	return nil
}

// ExistsByName checks if the owner has a bookshelf with the given name.
func (r *bookshelfRepository) ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookshelves WHERE owner_id = ? AND name = ?`,
		ownerID.String(), name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check bookshelf existence: %w", err)
	}
	return count > 0, nil
}

// List returns one window of bookshelves, newest first.
func (r *bookshelfRepository) List(ctx context.Context, filter repository.BookshelfFilter, opts repository.ListOptions) ([]*domain.Bookshelf, error) {
	where, args := bookshelfWhere(filter)
	query := `
		SELECT ` + bookshelfColumns + `
		FROM bookshelves` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
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
	where, args := bookshelfWhere(filter)

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookshelves`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookshelves: %w", err)
	}
	return count, nil
}

// IsEmpty checks that no category and no book references the bookshelf.
func (r *bookshelfRepository) IsEmpty(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM categories WHERE bookshelf_id = ?) +
			(SELECT COUNT(*) FROM books WHERE bookshelf_id = ?)
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, id.String(), id.String()).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check if bookshelf is empty: %w", err)
	}
	return count == 0, nil
}

func bookshelfWhere(filter repository.BookshelfFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.OwnerID != uuid.Nil {
		conds = append(conds, "owner_id = ?")
		args = append(args, filter.OwnerID.String())
	}
	return joinWhere(conds), args
}

// joinWhere renders conditions as a WHERE clause, or nothing when empty.
func joinWhere(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func scanBookshelf(row scanner) (*domain.Bookshelf, error) {
	var (
		shelf                domain.Bookshelf
		id, ownerID          string
		createdAt, updatedAt string
	)

	if err := row.Scan(&id, &ownerID, &shelf.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if shelf.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid bookshelf id %q: %w", id, err)
	}
	if shelf.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", ownerID, err)
	}
	shelf.CreatedAt = parseTime(createdAt)
	shelf.UpdatedAt = parseTime(updatedAt)

	return &shelf, nil
}

// Ensure bookshelfRepository implements repository.BookshelfRepository.
var _ repository.BookshelfRepository = (*bookshelfRepository)(nil)
