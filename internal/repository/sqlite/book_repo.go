package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// bookRepository implements repository.BookRepository for SQLite.
type bookRepository struct {
	db *DB
}

// NewBookRepository creates a new SQLite book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, bookshelf_id, category_id, name, author, published_in_year, number_of_pages,
	content_hash, content_size, content_name, content_type, created_at, updated_at`

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		book.ID.String(),
		book.BookshelfID.String(),
		nullableID(book.CategoryID),
		book.Name,
		book.Author,
		book.PublishedInYear,
		book.NumberOfPages,
		book.ContentHash,
		book.ContentSize,
		book.ContentName,
		book.ContentType,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced bookshelf or category is gone", domain.ErrBookshelfNotFound)
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by ID.
func (r *bookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`

	book, err := scanBook(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}
	return book, nil
}

// Update updates book metadata and category assignment.
func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	query := `
		UPDATE books
		SET category_id = ?, name = ?, author = ?, published_in_year = ?, number_of_pages = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableID(book.CategoryID),
		book.Name,
		book.Author,
		book.PublishedInYear,
		book.NumberOfPages,
		formatTime(book.UpdatedAt),
		book.ID.String(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// Delete deletes a book by ID.
func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// List returns one window of books, newest first.
func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter, opts repository.ListOptions) ([]*domain.Book, error) {
	where, args := bookWhere(filter)
	query := `
		SELECT ` + bookColumns + `
		FROM books` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// Count returns the number of books matching filter.
func (r *bookRepository) Count(ctx context.Context, filter repository.BookFilter) (int64, error) {
	where, args := bookWhere(filter)

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// CountByContentHash returns how many books reference the given content.
func (r *bookRepository) CountByContentHash(ctx context.Context, contentHash string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE content_hash = ?`, contentHash).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count books by content hash: %w", err)
	}
	return count, nil
}

func bookWhere(filter repository.BookFilter) (string, []any) {
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
	if filter.CategoryID != nil {
		conds = append(conds, "category_id = ?")
		args = append(args, filter.CategoryID.String())
	}
	return joinWhere(conds), args
}

func scanBook(row scanner) (*domain.Book, error) {
	var (
		book                 domain.Book
		id, bookshelfID      string
		categoryID           sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&id,
		&bookshelfID,
		&categoryID,
		&book.Name,
		&book.Author,
		&book.PublishedInYear,
		&book.NumberOfPages,
		&book.ContentHash,
		&book.ContentSize,
		&book.ContentName,
		&book.ContentType,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if book.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid book id %q: %w", id, err)
	}
	if book.BookshelfID, err = uuid.Parse(bookshelfID); err != nil {
		return nil, fmt.Errorf("invalid bookshelf id %q: %w", bookshelfID, err)
	}
	if book.CategoryID, err = scanNullID(categoryID); err != nil {
		return nil, fmt.Errorf("invalid category id %q: %w", categoryID.String, err)
	}
	book.CreatedAt = parseTime(createdAt)
	book.UpdatedAt = parseTime(updatedAt)

	return &book, nil
}

// Ensure bookRepository implements repository.BookRepository.
var _ repository.BookRepository = (*bookRepository)(nil)
