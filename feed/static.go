package feed

import (
	"context"
	"fmt"
	"strconv"
)

// Static pages through a fixed slice. Cursors are decimal offsets.
type Static[T any] struct {
	items []T
}

// NewStatic returns a provider over a copy of items.
func NewStatic[T any](items []T) *Static[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return &Static[T]{items: cp}
}

// Len returns the total number of items.
func (s *Static[T]) Len() int { return len(s.items) }

// FetchPage implements Provider.
func (s *Static[T]) FetchPage(ctx context.Context, cursor string, size int) (Page[T], error) {
	if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n <= 0 || n > len(s.items) {
			return Page[T]{}, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
		}
		start = n
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	end := min(start+size, len(s.items))

	page := Page[T]{Items: make([]T, end-start)}
	copy(page.Items, s.items[start:end])
	if end < len(s.items) {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}
