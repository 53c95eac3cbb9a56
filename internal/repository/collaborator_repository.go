package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CollaboratorRepository handles persistence for collaborators.
type CollaboratorRepository interface {
	Create(ctx context.Context, collaborator *domain.Collaborator) error
	GetByID(ctx context.Context, id string) (*domain.Collaborator, error)
	GetByUsername(ctx context.Context, username string) (*domain.Collaborator, error)
}

type collaboratorRepository struct {
	db DB
}

// NewCollaboratorRepository instantiates the repository.
func NewCollaboratorRepository(db DB) CollaboratorRepository {
	return &collaboratorRepository{db: db}
}

const collaboratorColumns = `id, owner_id, username, email, password_hash, access_level, is_active, created_at, updated_at`

func (r *collaboratorRepository) Create(ctx context.Context, collaborator *domain.Collaborator) error {
	const query = `
        INSERT INTO colaboradores (owner_id, username, email, password_hash, access_level, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		collaborator.OwnerID,
		collaborator.Username,
		collaborator.Email,
		collaborator.PasswordHash,
		collaborator.AccessLevel,
		collaborator.IsActive,
	).Scan(&collaborator.ID, &collaborator.CreatedAt, &collaborator.UpdatedAt)
	return mapInsertError(err)
}

func (r *collaboratorRepository) GetByID(ctx context.Context, id string) (*domain.Collaborator, error) {
	return r.fetchSingle(ctx, `SELECT `+collaboratorColumns+` FROM colaboradores WHERE id=$1`, id)
}

func (r *collaboratorRepository) GetByUsername(ctx context.Context, username string) (*domain.Collaborator, error) {
	return r.fetchSingle(ctx, `SELECT `+collaboratorColumns+` FROM colaboradores WHERE username=$1`, username)
}

func (r *collaboratorRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Collaborator, error) {
	var c domain.Collaborator
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.OwnerID,
		&c.Username,
		&c.Email,
		&c.PasswordHash,
		&c.AccessLevel,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
