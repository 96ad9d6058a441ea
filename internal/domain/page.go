package domain

// PaginationParams carries page/limit values from the HTTP layer to the
// trip-list composition. Page is 1-indexed. Limit is capped at 100 by
// NewPaginationParams.
type PaginationParams struct {
	// Page is the current page number, starting at 1.
	Page int
	// Limit is the maximum number of items to return.
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional HTTP query
// params. Nil pointers fall back to defaults (page=1, limit=20). The limit
// is capped at 100 — the dashboard never renders more than a screenful.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: 20}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = *limit
		if p.Limit > 100 {
			p.Limit = 100
		}
	}
	return p
}

// Offset returns the zero-based index of the first item on the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Slice applies the pagination window to an already-sorted trip list.
// The visible-trip list is the merge of two queries, so the window is
// applied in memory after composition rather than in SQL.
func (p PaginationParams) Slice(views []TripView) []TripView {
	lo := p.Offset()
	if lo >= len(views) {
		return []TripView{}
	}
	hi := lo + p.Limit
	if hi > len(views) {
		hi = len(views)
	}
	return views[lo:hi]
}
