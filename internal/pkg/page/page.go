// Package page slices in-memory result sets into numbered pages.
package page

// Meta is the pagination block returned alongside list responses.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Params is a requested page. Zero values are replaced by Normalize.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps page to >= 1 and perPage to [1, max], using def when perPage is unset.
func (p Params) Normalize(def, max int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = def
	}
	if p.PerPage > max {
		p.PerPage = max
	}
	return p
}

// Slice returns the items of the requested page and its Meta.
// p must already be normalized.
func Slice[T any](items []T, p Params) ([]T, Meta) {
	total := len(items)
	last := (total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		last = 1
	}
	meta := Meta{CurrentPage: p.Page, LastPage: last, PerPage: p.PerPage, Total: total}
	// compare page indexes first; (Page-1)*PerPage overflows for huge pages
	if total == 0 || p.Page-1 > (total-1)/p.PerPage {
		return []T{}, meta
	}
	start := (p.Page - 1) * p.PerPage
	end := start + p.PerPage
	if end > total {
		end = total
	}
	return items[start:end], meta
}
