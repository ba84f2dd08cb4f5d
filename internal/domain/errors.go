// Package domain contains the core business entities for the Alexander library.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same email exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidEmail indicates the email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword indicates the password does not meet the strength rules.
	ErrWeakPassword = errors.New("password must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and a special character")

	// ===========================================
	// Bookshelf Errors
	// ===========================================

	// ErrBookshelfNotFound indicates the requested bookshelf does not exist.
	ErrBookshelfNotFound = errors.New("bookshelf does not exist")

	// ErrBookshelfAlreadyExists indicates the owner already has a bookshelf with that name.
	ErrBookshelfAlreadyExists = errors.New("bookshelf name already exists")

	// ErrBookshelfNotEmpty indicates the bookshelf still holds categories or books.
	ErrBookshelfNotEmpty = errors.New("bookshelf is not empty")

	// ===========================================
	// Category Errors
	// ===========================================

	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = errors.New("category does not exist")

	// ErrCategoryAlreadyExists indicates the bookshelf already has a category with that name.
	ErrCategoryAlreadyExists = errors.New("category name already exists in bookshelf")

	// ErrCategoryNotEmpty indicates the category still holds books.
	ErrCategoryNotEmpty = errors.New("category is not empty")

	// ErrCategoryNotInBookshelf indicates a category was referenced under a bookshelf
	// that is not its parent.
	ErrCategoryNotInBookshelf = errors.New("category does not exist in given bookshelf")

	// ErrCategoryCountUnderflow indicates a book-count decrement would go below zero.
	ErrCategoryCountUnderflow = errors.New("category book count would become negative")

	// ===========================================
	// Book Errors
	// ===========================================

	// ErrBookNotFound indicates the requested book does not exist.
	ErrBookNotFound = errors.New("book does not exist")

	// ErrBookContentMissing indicates a book was created without content.
	ErrBookContentMissing = errors.New("no book content was provided")

	// ErrBookshelfImmutable indicates an update tried to move a book to another bookshelf.
	ErrBookshelfImmutable = errors.New("a book cannot be moved to another bookshelf")

	// ErrContentNotFound indicates the stored content for a book is gone.
	ErrContentNotFound = errors.New("book content not found")

	// ===========================================
	// Validation Errors
	// ===========================================

	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name must not be missing")

	// ErrNameTooLong indicates a name exceeds MaxNameLength.
	ErrNameTooLong = errors.New("name exceeds maximum length of 255 characters")

	// ErrInvalidYear indicates the published year is outside the accepted range.
	ErrInvalidYear = errors.New("publishedInYear must be between 0 and 9999")

	// ErrInvalidPageCount indicates a negative page count.
	ErrInvalidPageCount = errors.New("numberOfPages must not be negative")

	// ===========================================
	// Authorization Errors
	// ===========================================

	// ErrAccessDenied indicates the entity exists but is not owned by the requester.
	ErrAccessDenied = errors.New("access denied")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., bookshelf name).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// WrapError wraps an error with domain context if it's not already a DomainError.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	return &DomainError{
		Err:     err,
		Message: message,
	}
}
