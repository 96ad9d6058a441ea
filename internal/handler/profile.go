package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tabiplan/backend/internal/domain"
	"github.com/tabiplan/backend/internal/middleware"
)

// profileResponse is the JSON shape of the caller's own profile page.
type profileResponse struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	AvatarURL  string              `json:"avatar_url,omitempty"`
	Nickname   string              `json:"nickname,omitempty"`
	Birthday   *openapi_types.Date `json:"birthday,omitempty"`
	Registered bool                `json:"registered"`
}

// registerRequest is the body for PUT /me/profile.
type registerRequest struct {
	Nickname string              `json:"nickname"`
	Birthday *openapi_types.Date `json:"birthday,omitempty"`
}

// GetMe handles GET /me: the caller's profile.
// A signed-in user whose profile row is somehow missing gets a minimal
// unregistered view built from the session instead of a 404 — the profile
// page must render something to recover from.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	profile, err := s.profiles.Get(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, profileResponse{
				ID:    principal.ID,
				Name:  principal.Name,
				Email: principal.Email,
			})
			return
		}
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

// RegisterProfile handles PUT /me/profile: the registration step that fills
// in nickname and birthday. Safe to call again later to change them.
func (s *Server) RegisterProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	var body registerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestErr(w, "request body is required and must be valid JSON")
		return
	}

	var birthday *time.Time
	if body.Birthday != nil {
		birthday = &body.Birthday.Time
	}

	if err := s.profiles.Register(r.Context(), principal.ID, body.Nickname, birthday); err != nil {
		writeErr(w, r, err)
		return
	}

	profile, err := s.profiles.Get(r.Context(), principal.ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

func profileToResponse(p domain.Profile) profileResponse {
	resp := profileResponse{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		AvatarURL:  p.AvatarURL,
		Nickname:   p.Nickname,
		Registered: p.Registered(),
	}
	if p.Birthday != nil {
		resp.Birthday = &openapi_types.Date{Time: *p.Birthday}
	}
	return resp
}
