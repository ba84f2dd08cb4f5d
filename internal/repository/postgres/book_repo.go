package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
)

// bookRepository implements repository.BookRepository.
type bookRepository struct {
	db *DB
}

// NewBookRepository creates a new PostgreSQL book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, bookshelf_id, category_id, name, author, published_in_year, number_of_pages,
	content_hash, content_size, content_name, content_type, created_at, updated_at`

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		book.ID,
		book.BookshelfID,
		book.CategoryID,
		book.Name,
		book.Author,
		book.PublishedInYear,
		book.NumberOfPages,
		book.ContentHash,
		book.ContentSize,
		book.ContentName,
		book.ContentType,
		book.CreatedAt,
		book.UpdatedAt,
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
	book, err := scanBook(r.db.Pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
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
		SET category_id = $2, name = $3, author = $4, published_in_year = $5, number_of_pages = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		book.ID,
		book.CategoryID,
		book.Name,
		book.Author,
		book.PublishedInYear,
		book.NumberOfPages,
		book.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// Delete deletes a book by ID.
func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// List returns one window of books, newest first.
func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter, opts repository.ListOptions) ([]*domain.Book, error) {
	where := bookWhere(filter)
	query := fmt.Sprintf(`
		SELECT %s
		FROM books%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, bookColumns, where, where.next(1), where.next(2))

	rows, err := r.db.Pool.Query(ctx, query, append(where.args, opts.Limit, opts.Offset)...)
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
	where := bookWhere(filter)

	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`+where.String(), where.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// CountByContentHash returns how many books reference the given content.
func (r *bookRepository) CountByContentHash(ctx context.Context, contentHash string) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM books WHERE content_hash = $1`, contentHash).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count books by content hash: %w", err)
	}
	return count, nil
}

func bookWhere(filter repository.BookFilter) *whereClause {
	where := &whereClause{}
	if filter.OwnerID != uuid.Nil {
		where.add("bookshelf_id IN (SELECT id FROM bookshelves WHERE owner_id = $%d)", filter.OwnerID)
	}
	if filter.BookshelfID != nil {
		where.add("bookshelf_id = $%d", *filter.BookshelfID)
	}
	if filter.CategoryID != nil {
		where.add("category_id = $%d", *filter.CategoryID)
	}
	return where
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	book := &domain.Book{}
	err := row.Scan(
		&book.ID,
		&book.BookshelfID,
		&book.CategoryID,
		&book.Name,
		&book.Author,
		&book.PublishedInYear,
		&book.NumberOfPages,
		&book.ContentHash,
		&book.ContentSize,
		&book.ContentName,
		&book.ContentType,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	book.CreatedAt = book.CreatedAt.UTC()
	book.UpdatedAt = book.UpdatedAt.UTC()
	return book, nil
}

// Ensure bookRepository implements repository.BookRepository.
var _ repository.BookRepository = (*bookRepository)(nil)
