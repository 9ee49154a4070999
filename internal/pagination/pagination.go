// Package pagination splits ordered result sets into fixed-size numbered pages.
package pagination

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultPerPage is used when a Paginator is built with a non-positive size.
const DefaultPerPage = 10

// Paginator resolves page numbers for a fixed page size.
type Paginator struct {
	PerPage int
}

// New returns a Paginator for perPage items per page.
func New(perPage int) Paginator {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return Paginator{PerPage: perPage}
}

// NumPages returns max(1, ceil(count/PerPage)).
func (p Paginator) NumPages(count int64) int {
	if count <= 0 {
		return 1
	}
	per := int64(p.PerPage)
	n := (count + per - 1) / per
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// Clamp turns a raw page request into a valid page number in [1, numPages].
// Empty or non-numeric input and numbers below 1 give the first page, numbers
// past the end (including ones too large to parse) give the last page, and
// "last" is accepted as an alias for the last page.
func Clamp(raw string, numPages int) int {
	if numPages < 1 {
		numPages = 1
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}
	if raw == "last" {
		return numPages
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(raw, "-") {
				return 1
			}
			return numPages
		}
		return 1
	}
	switch {
	case n < 1:
		return 1
	case n > numPages:
		return numPages
	default:
		return n
	}
}

// Canonical reduces a raw page request to the form Clamp treats it as before
// the page count is known: "1" for anything that lands on the first page,
// "last" for the last-page alias and positive overflow, and the plain decimal
// otherwise. Requests that Clamp resolves identically share a canonical form.
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "last" {
		return "last"
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return "last"
		}
		return "1"
	}
	if n < 1 {
		return "1"
	}
	return strconv.Itoa(n)
}

// Offset returns the zero-based index of the first item on page number.
func (p Paginator) Offset(number int) int {
	if number < 1 {
		number = 1
	}
	return (number - 1) * p.PerPage
}

// Page is one resolved page of a result set.
type Page[T any] struct {
	Number       int   `json:"number"`
	NumPages     int   `json:"num_pages"`
	Count        int64 `json:"count"`
	PerPage      int   `json:"per_page"`
	HasNext      bool  `json:"has_next"`
	HasPrevious  bool  `json:"has_previous"`
	NextPage     *int  `json:"next_page"`
	PreviousPage *int  `json:"previous_page"`
	PageRange    []int `json:"page_range"`
	Items        []T   `json:"items"`
}

// NewPage builds page number of a result set with count items in total.
func NewPage[T any](p Paginator, number int, count int64, items []T) Page[T] {
	numPages := p.NumPages(count)
	if items == nil {
		items = []T{}
	}
	page := Page[T]{
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     p.PerPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
		PageRange:   Window(number, numPages, 5),
		Items:       items,
	}
	if page.HasNext {
		next := number + 1
		page.NextPage = &next
	}
	if page.HasPrevious {
		prev := number - 1
		page.PreviousPage = &prev
	}
	return page
}

// Window returns up to size page numbers centred on current.
func Window(current, numPages, size int) []int {
	if numPages < 1 || size < 1 {
		return []int{}
	}
	if size > numPages {
		size = numPages
	}
	start := current - size/2
	if start < 1 {
		start = 1
	}
	if start+size-1 > numPages {
		start = numPages - size + 1
	}
	out := make([]int, size)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// CountFunc returns the total number of items in a result set.
type CountFunc func(ctx context.Context) (int64, error)

// ListFunc returns the items in [offset, offset+limit) of a result set.
type ListFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// Fetch resolves raw against the result set size and loads that page.
// The count runs first so out-of-range requests are clamped before the slice query.
func Fetch[T any](ctx context.Context, p Paginator, raw string, count CountFunc, list ListFunc[T]) (Page[T], error) {
	total, err := count(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	number := Clamp(raw, p.NumPages(total))

	var items []T
	if total > 0 {
		items, err = list(ctx, p.PerPage, p.Offset(number))
		if err != nil {
			return Page[T]{}, err
		}
	}
	return NewPage(p, number, total, items), nil
}
