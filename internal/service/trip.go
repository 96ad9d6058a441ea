package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tabiplan/backend/internal/domain"
	"github.com/tabiplan/backend/internal/policy"
	"github.com/tabiplan/backend/internal/repo"
)

// TripService implements business logic for trip operations. Every mutating
// call re-checks the access policy against the stored record — query
// scoping on reads is visibility, not authorization.
type TripService struct {
	trips    repo.TripRepo
	profiles NameResolver
}

// NewTripService constructs a TripService backed by the provided repo and
// name resolver (normally the ProfileService).
func NewTripService(trips repo.TripRepo, profiles NameResolver) *TripService {
	return &TripService{trips: trips, profiles: profiles}
}

// Create validates the draft and persists a new trip owned by actorID.
// The owner always comes from the authenticated principal — whatever a
// client put in a created_by field never reaches this point — and the
// actor is stripped from its own share list.
func (s *TripService) Create(ctx context.Context, actorID string, draft domain.TripDraft) (domain.Trip, error) {
	if actorID == "" {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", domain.ErrAuthentication)
	}
	if err := validateDraft(draft); err != nil {
		return domain.Trip{}, err
	}

	trip := draftToTrip(draft)
	trip.CreatedBy = actorID
	trip.SharedWith = withoutID(trip.SharedWith, actorID)

	created, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

// Get returns a single trip if the actor may read it.
// Returns domain.ErrForbidden when the actor is neither the owner nor a
// share member.
func (s *TripService) Get(ctx context.Context, actorID string, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	if !policy.CanRead(trip, actorID) {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", domain.ErrForbidden)
	}
	return trip, nil
}

// ListVisible returns every trip the actor may see — owned plus shared —
// as a display-ready, de-duplicated list sorted ascending by start date
// (trip id breaks ties) and windowed by page. The total count before
// paging is returned for the client's pager.
//
// An empty actorID short-circuits to an empty list without querying: a
// request racing a sign-out must not run with an undefined principal.
func (s *TripService) ListVisible(ctx context.Context, actorID string, page domain.PaginationParams) ([]domain.TripView, int, error) {
	if actorID == "" {
		return []domain.TripView{}, 0, nil
	}

	owned, err := s.trips.ListOwned(ctx, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListVisible: %w", err)
	}
	shared, err := s.trips.ListShared(ctx, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListVisible: %w", err)
	}

	views, total, err := ComposeTripList(ctx, owned, shared, s.profiles, page)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListVisible: %w", err)
	}
	return views, total, nil
}

// Update validates the draft and replaces the mutable fields of the trip.
// Owner-only. Destinations and the share list are replaced wholesale with
// whatever the draft carries — last-write-wins, concurrent editors
// overwrite each other — and created_by never changes.
func (s *TripService) Update(ctx context.Context, actorID string, id uuid.UUID, draft domain.TripDraft) (domain.Trip, error) {
	existing, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if !policy.CanWrite(existing, actorID) {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", domain.ErrForbidden)
	}
	if err := validateDraft(draft); err != nil {
		return domain.Trip{}, err
	}

	trip := draftToTrip(draft)
	trip.ID = existing.ID
	trip.CreatedBy = existing.CreatedBy
	trip.SharedWith = withoutID(trip.SharedWith, existing.CreatedBy)

	updated, err := s.trips.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes the trip. Owner-only.
func (s *TripService) Delete(ctx context.Context, actorID string, id uuid.UUID) error {
	existing, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if !policy.CanDelete(existing, actorID) {
		return fmt.Errorf("service.TripService.Delete: %w", domain.ErrForbidden)
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// validateDraft enforces business rules common to Create and Update.
func validateDraft(draft domain.TripDraft) error {
	if strings.TrimSpace(draft.TripName) == "" {
		return fmt.Errorf("%w: trip name is required", domain.ErrValidation)
	}
	if draft.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", domain.ErrValidation)
	}
	if draft.EndDate.Before(draft.StartDate) {
		return fmt.Errorf("%w: end date must not be before start date", domain.ErrValidation)
	}
	if draft.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", domain.ErrValidation)
	}
	for i, d := range draft.Destinations {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("%w: destination %d: name is required", domain.ErrValidation, i+1)
		}
		if d.Cost < 0 {
			return fmt.Errorf("%w: destination %d: cost must not be negative", domain.ErrValidation, i+1)
		}
	}
	for i, id := range draft.SharedWith {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: share member %d: id is required", domain.ErrValidation, i+1)
		}
	}
	return nil
}

func draftToTrip(draft domain.TripDraft) domain.Trip {
	return domain.Trip{
		TripName:     strings.TrimSpace(draft.TripName),
		StartDate:    draft.StartDate,
		EndDate:      draft.EndDate,
		Budget:       draft.Budget,
		Notes:        draft.Notes,
		SharedWith:   draft.SharedWith,
		Destinations: draft.Destinations,
	}
}

// withoutID returns ids with every occurrence of id removed. The owner is
// implicit on every trip; keeping it out of the stored share list avoids
// redundant membership rows.
func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
