package helpdesk

import (
	"context"
	"fmt"
)

// PageFetcher fetches one page of a list resource. Resource address and
// credentials are bound by the caller.
type PageFetcher[T any] func(ctx context.Context, limit, offset int) (Page[T], error)

// Matcher inspects one page of items and reports the first match, if any.
// Implementations carry their own target (label, username, threshold) and
// must not touch pagination state.
type Matcher[T, R any] interface {
	Match(items []T) (R, bool)
}

// MatcherFunc adapts a plain function to the Matcher interface.
type MatcherFunc[T, R any] func(items []T) (R, bool)

// Match calls f(items).
func (f MatcherFunc[T, R]) Match(items []T) (R, bool) {
	return f(items)
}

// Search scans a paginated collection from offset 0 and returns the first
// match. The number of remaining items is taken from the first page's
// meta.total and reduced by pageSize after each page; once it drops to zero
// or below the search ends with found == false. Any fetch error aborts the
// search and is returned as is, never as "not found".
func Search[T, R any](ctx context.Context, fetch PageFetcher[T], pageSize int, m Matcher[T, R]) (R, bool, error) {
	var zero R
	if pageSize < 1 {
		return zero, false, fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize)
	}

	offset := 0
	remaining := 0
	for first := true; ; first = false {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}

		page, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return zero, false, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}

		if result, ok := m.Match(page.Data); ok {
			return result, true, nil
		}

		if first {
			remaining = page.Meta.Total
		}
		remaining -= pageSize
		offset += pageSize

		if remaining <= 0 {
			return zero, false, nil
		}
	}
}
