package service

import (
	"context"
	"fmt"
	"math"

	"github.com/prn-tf/alexander-library/internal/repository"
)

// PageSize is the fixed number of items per listing page.
const PageSize = 10

// MaxPage is the highest zero-based page whose offset and next index fit in an int.
const MaxPage = math.MaxInt/PageSize - 1

// Lister is the part of a repository a paginated listing needs.
type Lister[T any, F any] interface {
	List(ctx context.Context, filter F, opts repository.ListOptions) ([]T, error)
	Count(ctx context.Context, filter F) (int64, error)
}

// Page is one window of a listing ordered newest first.
type Page[T any] struct {
	Items []T

	// Total counts every item matching the filter.
	Total int64

	// Index is the zero-based page that was requested.
	Index int

	// CurrentPage is Index+1.
	CurrentPage int

	// PreviousPage and NextPage are zero-based page indexes, nil at the edges.
	PreviousPage *int
	NextPage     *int
}

// ListPage returns page (zero-based) of the items matching filter. The same
// filter value drives both the window query and the count.
func ListPage[T any, F any](ctx context.Context, lister Lister[T, F], filter F, page int) (*Page[T], error) {
	if page < 0 || page > MaxPage {
		return nil, ErrInvalidPage
	}

	items, err := lister.List(ctx, filter, repository.ListOptions{
		Offset: page * PageSize,
		Limit:  PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	total, err := lister.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if items == nil {
		items = []T{}
	}

	p := &Page[T]{
		Items:       items,
		Total:       total,
		Index:       page,
		CurrentPage: page + 1,
	}
	if page > 0 {
		prev := page - 1
		p.PreviousPage = &prev
	}
	if int64(page*PageSize+len(items)) < total {
		next := page + 1
		p.NextPage = &next
	}
	return p, nil
}
