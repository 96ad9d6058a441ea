package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tabiplan/backend/internal/domain"
)

// ProfileRepo defines the persistence operations for user profiles.
type ProfileRepo interface {
	// Ensure upserts the provider-supplied fields for the principal.
	// The upsert merges: name, email, and avatar refresh on every call, but
	// nickname and birthday are left exactly as the user set them. A repeat
	// sign-in must never wipe registration data.
	Ensure(ctx context.Context, principal domain.Principal) error

	// GetByID retrieves a profile by principal id.
	// Returns domain.ErrNotFound if no profile exists.
	GetByID(ctx context.Context, id string) (domain.Profile, error)

	// GetByIDs retrieves the profiles for the given ids in one query.
	// Missing ids are simply absent from the result; callers handle fallback.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Profile, error)

	// Register sets the user-entered nickname and birthday.
	// Returns domain.ErrNotFound if no profile row exists for the id.
	Register(ctx context.Context, id, nickname string, birthday *time.Time) error
}

// pgProfileRepo is the Postgres implementation of ProfileRepo.
type pgProfileRepo struct {
	db db
}

// NewProfileRepo constructs a ProfileRepo backed by the provided db connection.
func NewProfileRepo(db db) ProfileRepo {
	return &pgProfileRepo{db: db}
}

// Ensure upserts provider fields without touching nickname/birthday.
// ON CONFLICT updates only the provider-mirrored columns, which is what
// makes repeat sign-ins idempotent for user-entered data.
func (r *pgProfileRepo) Ensure(ctx context.Context, principal domain.Principal) error {
	const q = `
		INSERT INTO users (id, name, email, profile_image)
		VALUES (@id, @name, @email, @profile_image)
		ON CONFLICT (id) DO UPDATE
		SET name          = EXCLUDED.name,
		    email         = EXCLUDED.email,
		    profile_image = EXCLUDED.profile_image,
		    updated_at    = now()`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":            principal.ID,
		"name":          principal.Name,
		"email":         principal.Email,
		"profile_image": principal.AvatarURL,
	})
	if err != nil {
		return fmt.Errorf("repo.ProfileRepo.Ensure: %w", err)
	}
	return nil
}

const profileColumns = `id, name, email, profile_image, nickname, birthday, created_at, updated_at`

// GetByID retrieves a single profile.
func (r *pgProfileRepo) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM users WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	p, err := scanProfile(row)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.ProfileRepo.GetByID: %w", err)
	}
	return p, nil
}

// GetByIDs batch-fetches profiles keyed by id. One round-trip regardless of
// how many members a trip list references.
func (r *pgProfileRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	result := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	const q = `SELECT ` + profileColumns + ` FROM users WHERE id = ANY(@ids)`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.ProfileRepo.GetByIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ProfileRepo.GetByIDs: scan: %w", err)
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ProfileRepo.GetByIDs: rows: %w", err)
	}

	return result, nil
}

// Register stores the user-entered fields.
func (r *pgProfileRepo) Register(ctx context.Context, id, nickname string, birthday *time.Time) error {
	const q = `
		UPDATE users
		SET nickname   = @nickname,
		    birthday   = @birthday,
		    updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":       id,
		"nickname": nickname,
		"birthday": birthday,
	})
	if err != nil {
		return fmt.Errorf("repo.ProfileRepo.Register: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ProfileRepo.Register: %w", domain.ErrNotFound)
	}
	return nil
}

// scanProfile maps a single database row into a domain.Profile,
// handling the nullable nickname and birthday columns.
func scanProfile(s scanner) (domain.Profile, error) {
	var (
		p        domain.Profile
		nickname pgtype.Text
		birthday pgtype.Date
	)

	err := s.Scan(&p.ID, &p.Name, &p.Email, &p.AvatarURL, &nickname, &birthday,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, err
	}

	if nickname.Valid {
		p.Nickname = nickname.String
	}
	if birthday.Valid {
		b := birthday.Time
		p.Birthday = &b
	}

	return p, nil
}
