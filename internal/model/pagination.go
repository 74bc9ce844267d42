package model

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// PaginationParams selects a page of results. Zero values mean "default".
type PaginationParams struct {
	Page    int `json:"page,omitempty"`
	PerPage int `json:"perPage,omitempty"`
}

// CurrentPage returns the 1-based page number, default 1.
func (p PaginationParams) CurrentPage() int {
	return max(p.Page, 1)
}

// Limit returns records per page: default 20, clamped to 1..100.
func (p PaginationParams) Limit() int {
	if p.PerPage == 0 {
		return defaultPerPage
	}
	return min(max(p.PerPage, 1), maxPerPage)
}

// Offset returns the number of records to skip.
func (p PaginationParams) Offset() int {
	return (p.CurrentPage() - 1) * p.Limit()
}

// Paginated is one page of results plus totals.
type Paginated[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalPages int `json:"totalPages"`
}

// NewPaginated builds a page from items and the unpaginated total.
func NewPaginated[T any](items []T, total int, p PaginationParams) *Paginated[T] {
	if items == nil {
		items = []T{}
	}
	perPage := p.Limit()
	return &Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       p.CurrentPage(),
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}
}
