// Package repo contains all database access logic for the trip planner API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping. In particular,
// access control is the service layer's job; the owned/shared queries scope
// visibility but do not enforce write permissions.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tabiplan/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListOwned returns all trips created by the principal, ordered by
	// start_date ascending.
	ListOwned(ctx context.Context, principalID string) ([]domain.Trip, error)

	// ListShared returns all trips whose share list contains the principal,
	// ordered by start_date ascending.
	ListShared(ctx context.Context, principalID string) ([]domain.Trip, error)

	// Update overwrites the mutable fields of an existing trip and returns
	// the updated record. Destinations and the share list are replaced
	// wholesale. created_by is never touched.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, trip_name, start_date, end_date, budget, notes,
		created_by, shared_with, destinations, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (trip_name, start_date, end_date, budget, notes,
		                   created_by, shared_with, destinations)
		VALUES (@trip_name, @start_date, @end_date, @budget, @notes,
		        @created_by, @shared_with, @destinations)
		RETURNING ` + tripColumns

	args, err := tripArgs(trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListOwned returns all trips created by the principal.
func (r *pgTripRepo) ListOwned(ctx context.Context, principalID string) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE created_by = @principal_id
		ORDER BY start_date, id`

	trips, err := r.list(ctx, q, pgx.NamedArgs{"principal_id": principalID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListOwned: %w", err)
	}
	return trips, nil
}

// ListShared returns all trips shared with the principal.
func (r *pgTripRepo) ListShared(ctx context.Context, principalID string) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE shared_with @> ARRAY[@principal_id]::text[]
		ORDER BY start_date, id`

	trips, err := r.list(ctx, q, pgx.NamedArgs{"principal_id": principalID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListShared: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return trips, nil
}

// Update overwrites the mutable fields of a trip and returns the updated
// record. Two concurrent editors overwrite each other last-write-wins;
// there is no concurrency token.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET trip_name    = @trip_name,
		    start_date   = @start_date,
		    end_date     = @end_date,
		    budget       = @budget,
		    notes        = @notes,
		    shared_with  = @shared_with,
		    destinations = @destinations,
		    updated_at   = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args, err := tripArgs(trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	args["id"] = trip.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// tripArgs builds the named args shared by Create and Update.
// Destinations are serialized to jsonb in their canonical form; a nil share
// list is stored as an empty array, never NULL.
func tripArgs(trip domain.Trip) (pgx.NamedArgs, error) {
	dests := trip.Destinations
	if dests == nil {
		dests = []domain.Destination{}
	}
	destJSON, err := json.Marshal(dests)
	if err != nil {
		return nil, fmt.Errorf("marshal destinations: %w", err)
	}

	shared := trip.SharedWith
	if shared == nil {
		shared = []string{}
	}

	return pgx.NamedArgs{
		"trip_name":    trip.TripName,
		"start_date":   trip.StartDate,
		"end_date":     trip.EndDate,
		"budget":       trip.Budget,
		"notes":        trip.Notes,
		"created_by":   trip.CreatedBy,
		"shared_with":  shared,
		"destinations": destJSON,
	}, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles UUID and date conversion and decodes the jsonb destination
// sequence, tolerating the legacy field shapes (see domain.Destination).
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
		destRaw   []byte
	)

	err := s.Scan(&id, &t.TripName, &startDate, &endDate, &t.Budget, &t.Notes,
		&t.CreatedBy, &t.SharedWith, &destRaw, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = startDate.Time
	t.EndDate = endDate.Time
	if t.SharedWith == nil {
		t.SharedWith = []string{}
	}

	if len(destRaw) > 0 {
		if err := json.Unmarshal(destRaw, &t.Destinations); err != nil {
			return domain.Trip{}, fmt.Errorf("decode destinations: %w", err)
		}
	}
	if t.Destinations == nil {
		t.Destinations = []domain.Destination{}
	}

	return t, nil
}
