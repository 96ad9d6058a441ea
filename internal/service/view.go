package service

import (
	"context"
	"sort"

	"github.com/tabiplan/backend/internal/domain"
)

// NameResolver resolves principal ids to display names, one output entry
// per input id, order preserved. Satisfied by ProfileService.
type NameResolver interface {
	ResolveDisplayNames(ctx context.Context, ids []string) ([]string, error)
}

// ComposeTripList merges the owned and shared query results into the
// display-ready dashboard list. It is pure given its inputs and safe to
// call repeatedly for re-renders:
//
//   - trips appearing in both inputs (owner erroneously on its own share
//     list) are kept once, owned copy first
//   - each trip is annotated with the resolved display names of its
//     members (share list plus owner, de-duplicated)
//   - the list sorts ascending by start date; equal start dates order by
//     trip id so the result is deterministic
//
// The second return value is the total count before pagination, for the
// client's pager.
func ComposeTripList(ctx context.Context, owned, shared []domain.Trip, resolve NameResolver, page domain.PaginationParams) ([]domain.TripView, int, error) {
	merged := make([]domain.Trip, 0, len(owned)+len(shared))
	seen := make(map[string]struct{}, len(owned)+len(shared))
	for _, t := range append(append([]domain.Trip{}, owned...), shared...) {
		key := t.ID.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, t)
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].StartDate.Equal(merged[j].StartDate) {
			return merged[i].StartDate.Before(merged[j].StartDate)
		}
		return merged[i].ID.String() < merged[j].ID.String()
	})

	views := make([]domain.TripView, len(merged))
	for i, t := range merged {
		names, err := resolve.ResolveDisplayNames(ctx, t.Members())
		if err != nil {
			return nil, 0, err
		}
		views[i] = domain.TripView{Trip: t, SharedUsers: names}
	}

	return page.Slice(views), len(views), nil
}
