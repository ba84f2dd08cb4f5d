package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-library/internal/repository"
)

// sliceLister serves a fixed slice, newest first.
type sliceLister struct {
	items []string
	err   error
}

func (s sliceLister) List(_ context.Context, prefix string, opts repository.ListOptions) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []string
	for i := opts.Offset; i < len(s.items) && len(out) < opts.Limit; i++ {
		out = append(out, prefix+s.items[i])
	}
	return out, nil
}

func (s sliceLister) Count(_ context.Context, _ string) (int64, error) {
	return int64(len(s.items)), nil
}

func items(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprint(i)
	}
	return out
}

func TestListPage(t *testing.T) {
	ctx := context.Background()
	lister := sliceLister{items: items(15)}

	first, err := ListPage[string, string](ctx, lister, "", 0)
	require.NoError(t, err)
	assert.Len(t, first.Items, PageSize)
	assert.EqualValues(t, 15, first.Total)
	assert.Equal(t, 1, first.CurrentPage)
	assert.Nil(t, first.PreviousPage)
	require.NotNil(t, first.NextPage)
	assert.Equal(t, 1, *first.NextPage)

	second, err := ListPage[string, string](ctx, lister, "", 1)
	require.NoError(t, err)
	assert.Len(t, second.Items, 5)
	assert.Equal(t, 2, second.CurrentPage)
	require.NotNil(t, second.PreviousPage)
	assert.Equal(t, 0, *second.PreviousPage)
	assert.Nil(t, second.NextPage)

	beyond, err := ListPage[string, string](ctx, lister, "", 5)
	require.NoError(t, err)
	assert.NotNil(t, beyond.Items)
	assert.Empty(t, beyond.Items)
	assert.Nil(t, beyond.NextPage)

	_, err = ListPage[string, string](ctx, lister, "", -1)
	require.ErrorIs(t, err, ErrInvalidPage)
}

func TestListPage_PageRange(t *testing.T) {
	ctx := context.Background()
	lister := sliceLister{items: items(3)}

	last, err := ListPage[string, string](ctx, lister, "", MaxPage)
	require.NoError(t, err)
	assert.Empty(t, last.Items)
	assert.Equal(t, MaxPage+1, last.CurrentPage)
	assert.Positive(t, last.CurrentPage)
	assert.Nil(t, last.NextPage)

	for _, page := range []int{MaxPage + 1, math.MaxInt} {
		_, err := ListPage[string, string](ctx, lister, "", page)
		require.ErrorIs(t, err, ErrInvalidPage, "page %d", page)
	}
}

func TestListPage_ExactFit(t *testing.T) {
	page, err := ListPage[string, string](context.Background(), sliceLister{items: items(PageSize)}, "", 0)
	require.NoError(t, err)
	assert.Nil(t, page.NextPage)
	assert.Nil(t, page.PreviousPage)

	empty, err := ListPage[string, string](context.Background(), sliceLister{}, "", 0)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Total)
}

func TestListPage_FilterReachesBothQueries(t *testing.T) {
	page, err := ListPage[string, string](context.Background(), sliceLister{items: items(2)}, "x", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x0", "x1"}, page.Items)
}

func TestListPage_StoreFailure(t *testing.T) {
	_, err := ListPage[string, string](context.Background(), sliceLister{err: errors.New("boom")}, "", 0)
	require.ErrorIs(t, err, ErrInternalError)
}

func TestBookshelfService_ListPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")

	for i := 0; i < 15; i++ {
		env.shelf(t, alice.ID, fmt.Sprintf("shelf-%02d", i))
	}
	env.shelf(t, bob.ID, "bob")

	first, err := env.svc.Bookshelves.List(ctx, alice.ID, 0)
	require.NoError(t, err)
	second, err := env.svc.Bookshelves.List(ctx, alice.ID, 1)
	require.NoError(t, err)

	assert.EqualValues(t, 15, first.Total)
	assert.Len(t, first.Items, 10)
	assert.Len(t, second.Items, 5)

	seen := map[string]bool{}
	for _, s := range append(first.Items, second.Items...) {
		assert.Equal(t, alice.ID, s.OwnerID)
		assert.False(t, seen[s.Name], "duplicate %s", s.Name)
		seen[s.Name] = true
	}
	assert.Len(t, seen, 15)

	_, err = env.svc.Bookshelves.List(ctx, alice.ID, -1)
	require.ErrorIs(t, err, ErrInvalidPage)
}
