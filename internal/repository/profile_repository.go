package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ProfileRepository is the identity store for super-admin accounts.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetActiveByEmail(ctx context.Context, email string) (*domain.Profile, error)
	FindByEmailOrUsername(ctx context.Context, login string) (*domain.Profile, error)
}

type profileRepository struct {
	db DB
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(db DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, username, email, phone, password_hash, is_active, is_super_admin, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (username, email, phone, password_hash, is_active, is_super_admin)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		profile.Username,
		profile.Email,
		profile.Phone,
		profile.PasswordHash,
		profile.IsActive,
		profile.IsSuperAdmin,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	return mapInsertError(err)
}

// Delete is only used to compensate a registration whose invite consume failed.
func (r *profileRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, id)
}

func (r *profileRepository) GetActiveByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE LOWER(email)=LOWER($1) AND is_active`, email)
}

func (r *profileRepository) FindByEmailOrUsername(ctx context.Context, login string) (*domain.Profile, error) {
	const query = `SELECT ` + profileColumns + ` FROM profiles
        WHERE (LOWER(email)=LOWER($1) OR username=$1)
        ORDER BY is_active DESC, created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, login)
}

func (r *profileRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&profile.ID,
		&profile.Username,
		&profile.Email,
		&profile.Phone,
		&profile.PasswordHash,
		&profile.IsActive,
		&profile.IsSuperAdmin,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
