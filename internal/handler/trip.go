package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tabiplan/backend/internal/domain"
	"github.com/tabiplan/backend/internal/middleware"
)

// tripRequest is the create/update body. The full document is supplied on
// every write — destinations and shared_with replace the stored arrays
// wholesale. There is deliberately no created_by field: the owner always
// comes from the session.
type tripRequest struct {
	TripName     string               `json:"trip_name"`
	StartDate    openapi_types.Date   `json:"start_date"`
	EndDate      openapi_types.Date   `json:"end_date"`
	Budget       int64                `json:"budget"`
	Notes        *string              `json:"notes,omitempty"`
	SharedWith   []string             `json:"shared_with"`
	Destinations []destinationPayload `json:"destinations"`
}

type destinationPayload struct {
	Name          string             `json:"name"`
	Date          openapi_types.Date `json:"date"`
	Cost          int64              `json:"cost"`
	Notes         *string            `json:"notes,omitempty"`
	GoogleMapLink *string            `json:"googleMapLink,omitempty"`
}

// tripResponse is the JSON shape of a single trip, including the cost
// summary the detail page renders.
type tripResponse struct {
	ID            uuid.UUID            `json:"id"`
	TripName      string               `json:"trip_name"`
	StartDate     openapi_types.Date   `json:"start_date"`
	EndDate       openapi_types.Date   `json:"end_date"`
	Budget        int64                `json:"budget"`
	Notes         *string              `json:"notes,omitempty"`
	CreatedBy     string               `json:"created_by"`
	SharedWith    []string             `json:"shared_with"`
	Destinations  []destinationPayload `json:"destinations"`
	TotalCost     int64                `json:"total_cost"`
	BudgetBalance int64                `json:"budget_balance"`
	SharedUsers   []string             `json:"shared_users,omitempty"`
}

type tripListResponse struct {
	Data       []tripResponse `json:"data"`
	Pagination pagination     `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	draft, err := decodeTripRequest(r)
	if err != nil {
		requestErr(w, err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), principal.ID, draft)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tripToResponse(created, nil))
}

// ListTrips handles GET /trips.
// Returns every trip visible to the caller — owned plus shared — sorted by
// start date. Supports ?page= and ?limit= (defaults: page=1, limit=20,
// max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	views, total, err := s.trips.ListVisible(r.Context(), principal.ID, params)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	data := make([]tripResponse, len(views))
	for i, v := range views {
		data[i] = tripToResponse(v.Trip, v.SharedUsers)
	}
	writeJSON(w, http.StatusOK, tripListResponse{
		Data: data,
		Pagination: pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, domain.ErrNotFound)
		return
	}

	trip, err := s.trips.Get(r.Context(), principal.ID, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tripToResponse(trip, nil))
}

// UpdateTrip handles PUT /trips/{id}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, domain.ErrNotFound)
		return
	}

	draft, err := decodeTripRequest(r)
	if err != nil {
		requestErr(w, err.Error())
		return
	}

	updated, err := s.trips.Update(r.Context(), principal.ID, id, draft)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tripToResponse(updated, nil))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, domain.ErrNotFound)
		return
	}

	if err := s.trips.Delete(r.Context(), principal.ID, id); err != nil {
		writeErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// decodeTripRequest parses and converts the request body into a TripDraft.
func decodeTripRequest(r *http.Request) (domain.TripDraft, error) {
	var body tripRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.TripDraft{}, errors.New("request body is required and must be valid JSON")
	}

	draft := domain.TripDraft{
		TripName:   body.TripName,
		StartDate:  body.StartDate.Time,
		EndDate:    body.EndDate.Time,
		Budget:     body.Budget,
		SharedWith: body.SharedWith,
	}
	if body.Notes != nil {
		draft.Notes = *body.Notes
	}
	for _, d := range body.Destinations {
		dest := domain.Destination{
			Name: d.Name,
			Date: d.Date.Time,
			Cost: d.Cost,
		}
		if d.Notes != nil {
			dest.Notes = *d.Notes
		}
		if d.GoogleMapLink != nil {
			dest.GoogleMapLink = *d.GoogleMapLink
		}
		draft.Destinations = append(draft.Destinations, dest)
	}
	return draft, nil
}

// tripToResponse converts a domain.Trip into the response shape.
// sharedUsers may be nil for single-trip responses.
func tripToResponse(t domain.Trip, sharedUsers []string) tripResponse {
	resp := tripResponse{
		ID:            t.ID,
		TripName:      t.TripName,
		StartDate:     openapi_types.Date{Time: t.StartDate},
		EndDate:       openapi_types.Date{Time: t.EndDate},
		Budget:        t.Budget,
		CreatedBy:     t.CreatedBy,
		SharedWith:    t.SharedWith,
		Destinations:  make([]destinationPayload, len(t.Destinations)),
		TotalCost:     t.TotalCost(),
		BudgetBalance: t.BudgetBalance(),
		SharedUsers:   sharedUsers,
	}
	if resp.SharedWith == nil {
		resp.SharedWith = []string{}
	}
	if t.Notes != "" {
		resp.Notes = &t.Notes
	}
	for i, d := range t.Destinations {
		p := destinationPayload{
			Name: d.Name,
			Date: openapi_types.Date{Time: d.Date},
			Cost: d.Cost,
		}
		if d.Notes != "" {
			notes := d.Notes
			p.Notes = &notes
		}
		if d.GoogleMapLink != "" {
			link := d.GoogleMapLink
			p.GoogleMapLink = &link
		}
		resp.Destinations[i] = p
	}
	return resp
}

// queryInt parses an optional integer query parameter, returning nil when
// absent or malformed.
func queryInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
