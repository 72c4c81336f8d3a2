// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of cards or rows shown per page.
const PageSize = 6

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Window describes the visible slice of a client-side paged list.
//
// Paging only kicks in when the list is longer than one page; shorter lists
// report Enabled=false and show everything.
type Window struct {
	Enabled  bool
	Page     int // 1-based, clamped to [1, Pages]
	Pages    int
	Start    int // 0-based inclusive offset
	End      int // 0-based exclusive offset
	HasPrev  bool
	HasNext  bool
	PrevPage int
	NextPage int
}

// Compute returns the window for page over total items. size <= 0 uses
// PageSize.
func Compute(total, page, size int) Window {
	if size <= 0 {
		size = PageSize
	}
	if total <= size {
		return Window{Page: 1, Pages: 1, Start: 0, End: total, PrevPage: 1, NextPage: 1}
	}

	pages := (total + size - 1) / size
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}

	prev, next := page-1, page+1
	if prev < 1 {
		prev = 1
	}
	if next > pages {
		next = pages
	}
	return Window{
		Enabled:  true,
		Page:     page,
		Pages:    pages,
		Start:    start,
		End:      end,
		HasPrev:  page > 1,
		HasNext:  page < pages,
		PrevPage: prev,
		NextPage: next,
	}
}

// Slice returns the rows inside w. The result shares rows' backing array.
func Slice[T any](rows []T, w Window) []T {
	if w.Start >= len(rows) {
		return rows[:0]
	}
	end := w.End
	if end > len(rows) {
		end = len(rows)
	}
	return rows[w.Start:end]
}
