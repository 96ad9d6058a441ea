// Package service contains the business logic for the trip planner API.
// Services validate inputs, enforce the access policy, and orchestrate repo
// calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tabiplan/backend/internal/cache"
	"github.com/tabiplan/backend/internal/domain"
	"github.com/tabiplan/backend/internal/repo"
)

// ProfileService implements business logic for user profiles and display
// name resolution.
type ProfileService struct {
	profiles repo.ProfileRepo
	names    *cache.NameCache // nil when Redis is not configured
}

// NewProfileService constructs a ProfileService. names may be nil; the
// service then resolves every lookup straight from the repo.
func NewProfileService(profiles repo.ProfileRepo, names *cache.NameCache) *ProfileService {
	return &ProfileService{profiles: profiles, names: names}
}

// Ensure upserts the provider fields for the principal. Called on every
// successful sign-in; idempotent, and never overwrites registration data.
func (s *ProfileService) Ensure(ctx context.Context, principal domain.Principal) error {
	if principal.ID == "" {
		return fmt.Errorf("service.ProfileService.Ensure: %w: principal id is required", domain.ErrValidation)
	}
	if err := s.profiles.Ensure(ctx, principal); err != nil {
		return fmt.Errorf("service.ProfileService.Ensure: %w", err)
	}
	return nil
}

// Get returns the profile for the principal id.
func (s *ProfileService) Get(ctx context.Context, id string) (domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("service.ProfileService.Get: %w", err)
	}
	return p, nil
}

// Register stores the user-entered nickname and birthday. The cached
// display name is invalidated so other users' dashboards pick up the new
// nickname on their next load.
func (s *ProfileService) Register(ctx context.Context, id, nickname string, birthday *time.Time) error {
	if strings.TrimSpace(nickname) == "" {
		return fmt.Errorf("service.ProfileService.Register: %w: nickname is required", domain.ErrValidation)
	}
	if err := s.profiles.Register(ctx, id, strings.TrimSpace(nickname), birthday); err != nil {
		return fmt.Errorf("service.ProfileService.Register: %w", err)
	}
	s.names.Invalidate(ctx, id)
	return nil
}

// ResolveDisplayNames maps each principal id to a display name. The output
// always has exactly one entry per input id, in input order: nickname when
// registered, provider name when not, and the raw id when no profile exists
// at all. Unknown ids never drop out of the result.
//
// Ids already cached are served from Redis; the rest are fetched in one
// batch query and written back to the cache.
func (s *ProfileService) ResolveDisplayNames(ctx context.Context, ids []string) ([]string, error) {
	resolved := make(map[string]string, len(ids))

	var misses []string
	for _, id := range ids {
		if _, ok := resolved[id]; ok {
			continue
		}
		if name, ok := s.names.Get(ctx, id); ok {
			resolved[id] = name
			continue
		}
		misses = append(misses, id)
		resolved[id] = "" // placeholder so duplicates fetch once
	}

	if len(misses) > 0 {
		profiles, err := s.profiles.GetByIDs(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("service.ProfileService.ResolveDisplayNames: %w", err)
		}
		for _, id := range misses {
			name := id // fallback for ids with no profile row
			if p, ok := profiles[id]; ok {
				name = p.DisplayName()
			}
			resolved[id] = name
			s.names.Set(ctx, id, name)
		}
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = resolved[id]
	}
	return out, nil
}
