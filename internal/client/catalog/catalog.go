// Package catalog holds the list processing done on the client: filtering,
// sorting and paging of scholarships and admin users, and CSV reports.
package catalog

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collate.Collator is not safe for concurrent use
var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English, collate.IgnoreCase)
)

// compareText orders strings the way a person reading the list expects:
// case-insensitive, accents significant
func compareText(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// Page is one page of a client-side paginated list
type Page[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	Total      int
}

// Paginate cuts items into pages of size and returns page number page.
// The page is clamped to [1, TotalPages]; an empty list has one empty page
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = 10
	}
	totalPages := max(1, (len(items)+size-1)/size)
	page = min(max(page, 1), totalPages)

	start := (page - 1) * size
	end := min(start+size, len(items))
	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      len(items),
	}
}
