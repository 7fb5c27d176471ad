package models

// Page selects a 1-based page of a listing.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Paginated is the listing envelope used by paginated endpoints.
type Paginated[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
	PrevPage    *int  `json:"prevPage"`
	NextPage    *int  `json:"nextPage"`
}

// NewPaginated computes page metadata for docs taken from a total of total rows.
func NewPaginated[T any](docs []T, total int64, p Page) Paginated[T] {
	if docs == nil {
		docs = []T{}
	}
	totalPages := 1
	if p.Limit > 0 && total > 0 {
		totalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}

	out := Paginated[T]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       p.Limit,
		Page:        p.Page,
		TotalPages:  totalPages,
		HasPrevPage: p.Page > 1,
		HasNextPage: p.Page < totalPages,
	}
	if out.HasPrevPage {
		prev := p.Page - 1
		out.PrevPage = &prev
	}
	if out.HasNextPage {
		next := p.Page + 1
		out.NextPage = &next
	}
	return out
}
