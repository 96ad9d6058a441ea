// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (auth.go, trip.go, profile.go, health.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tabiplan/backend/internal/domain"
	"github.com/tabiplan/backend/internal/middleware"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, actorID string, draft domain.TripDraft) (domain.Trip, error)
	Get(ctx context.Context, actorID string, id uuid.UUID) (domain.Trip, error)
	ListVisible(ctx context.Context, actorID string, page domain.PaginationParams) ([]domain.TripView, int, error)
	Update(ctx context.Context, actorID string, id uuid.UUID, draft domain.TripDraft) (domain.Trip, error)
	Delete(ctx context.Context, actorID string, id uuid.UUID) error
}

// ProfileServicer defines the profile operations the handlers depend on.
type ProfileServicer interface {
	Ensure(ctx context.Context, principal domain.Principal) error
	Get(ctx context.Context, id string) (domain.Profile, error)
	Register(ctx context.Context, id, nickname string, birthday *time.Time) error
}

// IdentityProvider drives the external sign-in flow.
// Satisfied by *auth.GoogleVerifier.
type IdentityProvider interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (domain.Principal, error)
}

// SessionIssuer signs session tokens for authenticated principals.
// Satisfied by *auth.Sessions.
type SessionIssuer interface {
	Issue(principal domain.Principal) (string, error)
}

// Server holds the dependencies for all API endpoints.
type Server struct {
	trips    TripServicer
	profiles ProfileServicer
	identity IdentityProvider
	sessions SessionIssuer
	openapi  []byte
}

// NewServer constructs the Server with all its dependencies.
// openapi is the raw embedded OpenAPI document served at /openapi.yaml;
// pass nil to disable the route.
func NewServer(trips TripServicer, profiles ProfileServicer, identity IdentityProvider, sessions SessionIssuer, openapi []byte) *Server {
	return &Server{
		trips:    trips,
		profiles: profiles,
		identity: identity,
		sessions: sessions,
		openapi:  openapi,
	}
}

// Routes mounts every endpoint on a chi router. The caller applies the
// global middleware stack (request id, logging, CORS, body limit); only the
// session requirement is wired here because it is part of the API contract,
// not deployment configuration.
func (s *Server) Routes(sessions middleware.SessionVerifier) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	if s.openapi != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", s.Login)
		r.Get("/callback", s.Callback)
		r.Post("/logout", s.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthenticator(sessions))

		r.Get("/me", s.GetMe)
		r.Put("/me/profile", s.RegisterProfile)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)
			r.Get("/{id}", s.GetTrip)
			r.Put("/{id}", s.UpdateTrip)
			r.Delete("/{id}", s.DeleteTrip)
		})
	})

	return r
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetOpenAPI handles GET /openapi.yaml, serving the embedded API document.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.openapi)
}
