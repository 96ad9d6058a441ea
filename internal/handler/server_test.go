package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabiplan/backend/internal/domain"
	"github.com/tabiplan/backend/internal/handler"
	"github.com/tabiplan/backend/internal/middleware"
)

// --- doubles ----------------------------------------------------------------

type mockTripService struct {
	CreateFunc      func(ctx context.Context, actorID string, draft domain.TripDraft) (domain.Trip, error)
	GetFunc         func(ctx context.Context, actorID string, id uuid.UUID) (domain.Trip, error)
	ListVisibleFunc func(ctx context.Context, actorID string, page domain.PaginationParams) ([]domain.TripView, int, error)
	UpdateFunc      func(ctx context.Context, actorID string, id uuid.UUID, draft domain.TripDraft) (domain.Trip, error)
	DeleteFunc      func(ctx context.Context, actorID string, id uuid.UUID) error
}

var _ handler.TripServicer = (*mockTripService)(nil)

func (m *mockTripService) Create(ctx context.Context, actorID string, draft domain.TripDraft) (domain.Trip, error) {
	return m.CreateFunc(ctx, actorID, draft)
}

func (m *mockTripService) Get(ctx context.Context, actorID string, id uuid.UUID) (domain.Trip, error) {
	return m.GetFunc(ctx, actorID, id)
}

func (m *mockTripService) ListVisible(ctx context.Context, actorID string, page domain.PaginationParams) ([]domain.TripView, int, error) {
	return m.ListVisibleFunc(ctx, actorID, page)
}

func (m *mockTripService) Update(ctx context.Context, actorID string, id uuid.UUID, draft domain.TripDraft) (domain.Trip, error) {
	return m.UpdateFunc(ctx, actorID, id, draft)
}

func (m *mockTripService) Delete(ctx context.Context, actorID string, id uuid.UUID) error {
	return m.DeleteFunc(ctx, actorID, id)
}

type mockProfileService struct {
	EnsureFunc   func(ctx context.Context, principal domain.Principal) error
	GetFunc      func(ctx context.Context, id string) (domain.Profile, error)
	RegisterFunc func(ctx context.Context, id, nickname string, birthday *time.Time) error
}

var _ handler.ProfileServicer = (*mockProfileService)(nil)

func (m *mockProfileService) Ensure(ctx context.Context, principal domain.Principal) error {
	return m.EnsureFunc(ctx, principal)
}

func (m *mockProfileService) Get(ctx context.Context, id string) (domain.Profile, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockProfileService) Register(ctx context.Context, id, nickname string, birthday *time.Time) error {
	return m.RegisterFunc(ctx, id, nickname, birthday)
}

type mockIdentity struct {
	AuthURLFunc      func(state string) string
	ExchangeCodeFunc func(ctx context.Context, code string) (domain.Principal, error)
}

var _ handler.IdentityProvider = (*mockIdentity)(nil)

func (m *mockIdentity) AuthURL(state string) string {
	return m.AuthURLFunc(state)
}

func (m *mockIdentity) ExchangeCode(ctx context.Context, code string) (domain.Principal, error) {
	return m.ExchangeCodeFunc(ctx, code)
}

type mockSessions struct {
	IssueFunc  func(principal domain.Principal) (string, error)
	VerifyFunc func(token string) (domain.Principal, error)
}

var _ handler.SessionIssuer = (*mockSessions)(nil)
var _ middleware.SessionVerifier = (*mockSessions)(nil)

func (m *mockSessions) Issue(principal domain.Principal) (string, error) {
	return m.IssueFunc(principal)
}

func (m *mockSessions) Verify(token string) (domain.Principal, error) {
	return m.VerifyFunc(token)
}

// --- helpers ----------------------------------------------------------------

var alice = domain.Principal{ID: "user-a", Name: "Alice", Email: "alice@example.com"}

// doAuthed serves req through a handler func with alice already in the
// request context, bypassing the session middleware.
func doAuthed(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req.WithContext(middleware.WithPrincipal(req.Context(), alice)))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error.Code
}

// --- routing / auth gate ----------------------------------------------------

func TestRoutesHealth(t *testing.T) {
	srv := handler.NewServer(nil, nil, nil, nil, nil)
	h := srv.Routes(&mockSessions{VerifyFunc: func(string) (domain.Principal, error) {
		return domain.Principal{}, domain.ErrAuthentication
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutesServeOpenAPI(t *testing.T) {
	doc := []byte("openapi: 3.0.0\n")
	srv := handler.NewServer(nil, nil, nil, nil, doc)
	h := srv.Routes(&mockSessions{VerifyFunc: func(string) (domain.Principal, error) {
		return domain.Principal{}, domain.ErrAuthentication
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, string(doc), rec.Body.String())
}

func TestRoutesRequireSession(t *testing.T) {
	srv := handler.NewServer(nil, nil, nil, nil, nil)
	h := srv.Routes(&mockSessions{VerifyFunc: func(string) (domain.Principal, error) {
		return domain.Principal{}, domain.ErrAuthentication
	}})

	for _, tt := range []struct {
		method, path string
	}{
		{http.MethodGet, "/me"},
		{http.MethodPut, "/me/profile"},
		{http.MethodGet, "/trips"},
		{http.MethodPost, "/trips"},
		{http.MethodGet, "/trips/" + uuid.NewString()},
		{http.MethodPut, "/trips/" + uuid.NewString()},
		{http.MethodDelete, "/trips/" + uuid.NewString()},
	} {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRoutesPassPrincipalToHandler(t *testing.T) {
	trips := &mockTripService{
		ListVisibleFunc: func(_ context.Context, actorID string, _ domain.PaginationParams) ([]domain.TripView, int, error) {
			assert.Equal(t, alice.ID, actorID)
			return nil, 0, nil
		},
	}
	srv := handler.NewServer(trips, nil, nil, nil, nil)
	h := srv.Routes(&mockSessions{VerifyFunc: func(token string) (domain.Principal, error) {
		require.Equal(t, "session-token", token)
		return alice, nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- trips ------------------------------------------------------------------

func sampleTrip(owner string) domain.Trip {
	return domain.Trip{
		ID:        uuid.MustParse("5cbd414d-e0e3-4a91-8fc7-0e25f0b8bbf7"),
		TripName:  "Japan 2026",
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Budget:    50000,
		CreatedBy: owner,
		Destinations: []domain.Destination{
			{Name: "Kyoto", Date: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), Cost: 20000},
			{Name: "Nara", Date: time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC), Cost: 40000},
		},
	}
}

func TestCreateTrip(t *testing.T) {
	trips := &mockTripService{
		CreateFunc: func(_ context.Context, actorID string, draft domain.TripDraft) (domain.Trip, error) {
			assert.Equal(t, alice.ID, actorID)
			assert.Equal(t, "Japan 2026", draft.TripName)
			assert.Equal(t, int64(50000), draft.Budget)
			require.Len(t, draft.Destinations, 2)
			assert.Equal(t, "Kyoto", draft.Destinations[0].Name)
			return sampleTrip(alice.ID), nil
		},
	}
	srv := handler.NewServer(trips, nil, nil, nil, nil)

	body := `{
		"trip_name": "Japan 2026",
		"start_date": "2026-04-01",
		"end_date": "2026-04-10",
		"budget": 50000,
		"destinations": [
			{"name": "Kyoto", "date": "2026-04-02", "cost": 20000},
			{"name": "Nara", "date": "2026-04-04", "cost": 40000}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(body))
	rec := doAuthed(srv.CreateTrip, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got struct {
		ID            string `json:"id"`
		TotalCost     int64  `json:"total_cost"`
		BudgetBalance int64  `json:"budget_balance"`
		StartDate     string `json:"start_date"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, "5cbd414d-e0e3-4a91-8fc7-0e25f0b8bbf7", got.ID)
	assert.Equal(t, int64(60000), got.TotalCost)
	assert.Equal(t, int64(-10000), got.BudgetBalance)
	assert.Equal(t, "2026-04-01", got.StartDate)
}

func TestCreateTripInvalidBody(t *testing.T) {
	srv := handler.NewServer(&mockTripService{}, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader("{not json"))
	rec := doAuthed(srv.CreateTrip, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestCreateTripValidationError(t *testing.T) {
	trips := &mockTripService{
		CreateFunc: func(context.Context, string, domain.TripDraft) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("%w: trip name is required", domain.ErrValidation)
		},
	}
	srv := handler.NewServer(trips, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(`{"trip_name":""}`))
	rec := doAuthed(srv.CreateTrip, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "trip name is required", body.Error.Message)
}

func TestListTrips(t *testing.T) {
	trip := sampleTrip(alice.ID)
	trips := &mockTripService{
		ListVisibleFunc: func(_ context.Context, actorID string, page domain.PaginationParams) ([]domain.TripView, int, error) {
			assert.Equal(t, alice.ID, actorID)
			assert.Equal(t, 2, page.Page)
			assert.Equal(t, 5, page.Limit)
			return []domain.TripView{{Trip: trip, SharedUsers: []string{"Bob", "Alice"}}}, 6, nil
		},
	}
	srv := handler.NewServer(trips, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/trips?page=2&limit=5", nil)
	rec := doAuthed(srv.ListTrips, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Data []struct {
			TripName    string   `json:"trip_name"`
			SharedUsers []string `json:"shared_users"`
		} `json:"data"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"pagination"`
	}
	decodeBody(t, rec, &got)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "Japan 2026", got.Data[0].TripName)
	assert.Equal(t, []string{"Bob", "Alice"}, got.Data[0].SharedUsers)
	assert.Equal(t, 2, got.Pagination.Page)
	assert.Equal(t, 5, got.Pagination.Limit)
	assert.Equal(t, 6, got.Pagination.Total)
}

func TestGetTrip(t *testing.T) {
	trip := sampleTrip(alice.ID)
	trips := &mockTripService{
		GetFunc: func(_ context.Context, actorID string, id uuid.UUID) (domain.Trip, error) {
			assert.Equal(t, alice.ID, actorID)
			assert.Equal(t, trip.ID, id)
			return trip, nil
		},
	}
	srv := handler.NewServer(trips, nil, nil, nil, nil)
	h := srv.Routes(&mockSessions{VerifyFunc: func(string) (domain.Principal, error) {
		return alice, nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/trips/"+trip.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		ID           string `json:"id"`
		Destinations []struct {
			Name string `json:"name"`
			Date string `json:"date"`
			Cost int64  `json:"cost"`
		} `json:"destinations"`
	}
	decodeBody(t, rec, &got)
	assert.Equal(t, trip.ID.String(), got.ID)
	require.Len(t, got.Destinations, 2)
	assert.Equal(t, "Kyoto", got.Destinations[0].Name)
	assert.Equal(t, "2026-04-02", got.Destinations[0].Date)
	assert.Equal(t, int64(20000), got.Destinations[0].Cost)
}

func TestGetTripBadID(t *testing.T) {
	srv := handler.NewServer(&mockTripService{}, nil, nil, nil, nil)
	h := srv.Routes(&mockSessions{VerifyFunc: func(string) (domain.Principal, error) {
		return alice, nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/trips/not-a-uuid", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTripForbidden(t *testing.T) {
	trips := &mockTripService{
		GetFunc: func(context.Context, string, uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrForbidden
		},
	}
	srv := handler.NewServer(trips, nil, nil, nil, nil)
	h := srv.Routes(&mockSessions{VerifyFunc: func(string) (domain.Principal, error) {
		return alice, nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateTripNotFound(t *testing.T) {
	trips := &mockTripService{
		UpdateFunc: func(context.Context, string, uuid.UUID, domain.TripDraft) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}
	srv := handler.NewServer(trips, nil, nil, nil, nil)
	h := srv.Routes(&mockSessions{VerifyFunc: func(string) (domain.Principal, error) {
		return alice, nil
	}})

	body := `{"trip_name":"x","start_date":"2026-04-01","end_date":"2026-04-02","budget":0}`
	req := httptest.NewRequest(http.MethodPut, "/trips/"+uuid.NewString(), strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTrip(t *testing.T) {
	tripID := uuid.New()
	deleted := false
	trips := &mockTripService{
		DeleteFunc: func(_ context.Context, actorID string, id uuid.UUID) error {
			assert.Equal(t, alice.ID, actorID)
			assert.Equal(t, tripID, id)
			deleted = true
			return nil
		},
	}
	srv := handler.NewServer(trips, nil, nil, nil, nil)
	h := srv.Routes(&mockSessions{VerifyFunc: func(string) (domain.Principal, error) {
		return alice, nil
	}})

	req := httptest.NewRequest(http.MethodDelete, "/trips/"+tripID.String(), nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, deleted)
}
