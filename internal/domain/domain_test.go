package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Passw0rd!", false},
		{"Abcdef1_", false},
		{"Abcd 1234", false},
		{"short1A!", false},
		{"Sh0rt!", true},
		{"password1!", true},
		{"PASSWORD1!", true},
		{"Password!!", true},
		{"Password11", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrWeakPassword)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, ValidateEmail("a@x.com"))
	require.NoError(t, ValidateEmail("first.last@sub.example.org"))
	require.ErrorIs(t, ValidateEmail("a@x"), ErrInvalidEmail)
	require.ErrorIs(t, ValidateEmail("a x@x.com"), ErrInvalidEmail)
	require.ErrorIs(t, ValidateEmail("@x.com"), ErrInvalidEmail)
	require.ErrorIs(t, ValidateEmail(""), ErrInvalidEmail)
}

func TestNewUser_NormalizesEmail(t *testing.T) {
	u := NewUser("Ann", "  A@X.com ", "hash")
	require.Equal(t, "a@x.com", u.Email)
	require.NotEqual(t, uuid.Nil, u.ID)
	require.Equal(t, u.CreatedAt, u.UpdatedAt)
}

func TestValidateName(t *testing.T) {
	require.NoError(t, ValidateName("Fiction"))
	require.ErrorIs(t, ValidateName("   "), ErrNameRequired)
	require.ErrorIs(t, ValidateName(strings.Repeat("x", MaxNameLength+1)), ErrNameTooLong)
	require.NoError(t, ValidateName(strings.Repeat("é", MaxNameLength)))
}

func TestNewCategory_StartsEmpty(t *testing.T) {
	shelf := NewBookshelf(uuid.New(), " Fiction ")
	require.Equal(t, "Fiction", shelf.Name)

	c := NewCategory(shelf.ID, "Novels")
	require.Equal(t, int64(0), c.NBooks)
	require.True(t, c.IsEmpty())
	require.Equal(t, shelf.ID, c.BookshelfID)
}

func TestSameCategory(t *testing.T) {
	a := uuid.New()
	a2 := a
	b := uuid.New()

	require.True(t, SameCategory(nil, nil))
	require.True(t, SameCategory(&a, &a2))
	require.False(t, SameCategory(&a, nil))
	require.False(t, SameCategory(nil, &a))
	require.False(t, SameCategory(&a, &b))
}

func TestBook_InCategory(t *testing.T) {
	cat := uuid.New()
	book := NewBook(uuid.New(), &cat, "Dune", BookContent{Hash: "h"})
	require.True(t, book.InCategory(cat))
	require.False(t, book.InCategory(uuid.New()))

	book.CategoryID = nil
	require.False(t, book.InCategory(cat))
}

func TestValidateBookDetails(t *testing.T) {
	require.NoError(t, ValidateBookDetails(1965, 412))
	require.NoError(t, ValidateBookDetails(0, 0))
	require.ErrorIs(t, ValidateBookDetails(-1, 10), ErrInvalidYear)
	require.ErrorIs(t, ValidateBookDetails(10000, 10), ErrInvalidYear)
	require.ErrorIs(t, ValidateBookDetails(2000, -5), ErrInvalidPageCount)
}
