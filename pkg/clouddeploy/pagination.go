package clouddeploy

import (
	"context"
	"errors"
	"fmt"
)

// Page is one page of a cursor-paginated listing. Next is nil on the last
// page.
type Page[T any] struct {
	Items []T     `json:"items"`
	Next  *string `json:"next"`
}

// PageFetcher fetches the page at the given cursor; an empty cursor means
// the first page.
type PageFetcher[T any] func(ctx context.Context, cursor string) (*Page[T], error)

// PageIterator lazily walks a paginated listing, fetching each follow-up
// page only when the caller consumes past the buffered items. At most one
// page fetch is in flight at a time. A fetch failure is surfaced at the
// point of demand and ends the sequence; items already yielded stay valid.
//
// An iterator is owned by a single consumer; share across goroutines only
// with external synchronization.
type PageIterator[T any] struct {
	ctx     context.Context
	fetch   PageFetcher[T]
	buffer  []T
	cursor  string
	started bool
	done    bool
	failed  error
}

// NewPageIterator creates an iterator over the pages served by fetch.
func NewPageIterator[T any](ctx context.Context, fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{
		ctx:   ctx,
		fetch: fetch,
	}
}

// HasNext reports whether another item may be available. It never issues a
// request; a true result can still be followed by an error or ErrNoMoreItems
// from Next when the next page turns out to be empty.
func (it *PageIterator[T]) HasNext() bool {
	if it.failed != nil {
		return false
	}

	if len(it.buffer) > 0 {
		return true
	}

	return !it.started || !it.done
}

// Next returns the next item, fetching the next page on demand.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if it.failed != nil {
		return zero, it.failed
	}

	if len(it.buffer) == 0 {
		if it.started && it.done {
			return zero, ErrNoMoreItems
		}

		page, err := it.fetch(it.ctx, it.cursor)
		if err != nil {
			it.failed = fmt.Errorf("fetching page: %w", err)

			return zero, it.failed
		}

		it.started = true
		it.buffer = page.Items

		if page.Next != nil && *page.Next != "" {
			it.cursor = *page.Next
			it.done = false
		} else {
			it.cursor = ""
			it.done = true
		}

		if len(it.buffer) == 0 {
			if it.done {
				return zero, ErrNoMoreItems
			}

			// Empty page mid-sequence; advance to the next one.
			return it.Next()
		}
	}

	item := it.buffer[0]
	it.buffer = it.buffer[1:]

	return item, nil
}

// All consumes the remaining items into a slice.
func (it *PageIterator[T]) All() ([]T, error) {
	var items []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				break
			}

			return items, err
		}

		items = append(items, item)
	}

	return items, nil
}

// ForEach applies fn to the remaining items, stopping at the first error.
func (it *PageIterator[T]) ForEach(fn func(T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return nil
			}

			return err
		}

		if err := fn(item); err != nil {
			return err
		}
	}

	return nil
}

// Restart rewinds the iterator to the first page, clearing any failure.
func (it *PageIterator[T]) Restart() {
	it.buffer = nil
	it.cursor = ""
	it.started = false
	it.done = false
	it.failed = nil
}
