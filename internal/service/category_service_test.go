package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/validation"
)

func TestCategoryService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	shelf := env.shelf(t, alice.ID, "A")
	other := env.shelf(t, alice.ID, "B")

	category := env.category(t, alice.ID, shelf.ID, "SciFi")
	assert.Equal(t, shelf.ID, category.BookshelfID)
	assert.Zero(t, category.NBooks)

	_, err := env.svc.Categories.Create(ctx, alice.ID, CreateCategoryInput{Name: "SciFi", ParentID: shelf.ID})
	require.ErrorIs(t, err, domain.ErrCategoryAlreadyExists)

	// Same name under another bookshelf is fine.
	env.category(t, alice.ID, other.ID, "SciFi")

	_, err = env.svc.Categories.Create(ctx, alice.ID, CreateCategoryInput{Name: "X"})
	require.ErrorIs(t, err, validation.ErrValidation)
	_, err = env.svc.Categories.Create(ctx, bob.ID, CreateCategoryInput{Name: "X", ParentID: shelf.ID})
	require.ErrorIs(t, err, domain.ErrAccessDenied)
	_, err = env.svc.Categories.Create(ctx, alice.ID, CreateCategoryInput{Name: "X", ParentID: uuid.New()})
	require.ErrorIs(t, err, domain.ErrBookshelfNotFound)

	env.book(t, alice.ID, shelf.ID, &category.ID, "Dune")

	renamed, err := env.svc.Categories.Rename(ctx, alice.ID, category.ID, RenameCategoryInput{Name: "Science Fiction"})
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", renamed.Name)
	assert.EqualValues(t, 1, renamed.NBooks)

	_, err = env.svc.Categories.Get(ctx, bob.ID, category.ID)
	require.ErrorIs(t, err, domain.ErrAccessDenied)
	_, err = env.svc.Categories.Get(ctx, alice.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCategoryService_DeleteRequiresEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	shelf := env.shelf(t, alice.ID, "A")
	category := env.category(t, alice.ID, shelf.ID, "C")
	book := env.book(t, alice.ID, shelf.ID, &category.ID, "Dune")

	require.ErrorIs(t, env.svc.Categories.Delete(ctx, alice.ID, category.ID), domain.ErrCategoryNotEmpty)
	require.ErrorIs(t, env.svc.Categories.Delete(ctx, bob.ID, category.ID), domain.ErrAccessDenied)

	_, err := env.svc.Books.Update(ctx, alice.ID, book.ID, UpdateBookInput{Name: "Dune", CategoryID: OptionalID{Set: true}})
	require.NoError(t, err)

	require.NoError(t, env.svc.Categories.Delete(ctx, alice.ID, category.ID))
	require.ErrorIs(t, env.svc.Categories.Delete(ctx, alice.ID, category.ID), domain.ErrCategoryNotFound)
}

func TestCategoryService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	shelfA := env.shelf(t, alice.ID, "A")
	shelfB := env.shelf(t, alice.ID, "B")
	bobShelf := env.shelf(t, bob.ID, "Bob")
	env.category(t, alice.ID, shelfA.ID, "one")
	env.category(t, alice.ID, shelfA.ID, "two")
	env.category(t, alice.ID, shelfB.ID, "three")
	env.category(t, bob.ID, bobShelf.ID, "bob")

	page, err := env.svc.Categories.List(ctx, alice.ID, nil, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)

	page, err = env.svc.Categories.List(ctx, alice.ID, &shelfA.ID, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "two", page.Items[0].Name, "newest first")

	_, err = env.svc.Categories.List(ctx, alice.ID, &bobShelf.ID, 0)
	require.ErrorIs(t, err, domain.ErrAccessDenied)
}
