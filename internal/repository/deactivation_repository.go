package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// DeactivationRepository applies a profile deactivation cascade as one transaction.
type DeactivationRepository interface {
	Deactivate(ctx context.Context, profileID string, steps []domain.CascadeStep) (domain.CascadeResult, error)
}

type deactivationRepository struct {
	db DB
}

// NewDeactivationRepository builds repository.
func NewDeactivationRepository(db DB) DeactivationRepository {
	return &deactivationRepository{db: db}
}

var cascadeStatements = map[domain.CascadeStep]string{
	domain.CascadeStepProfile: `
        UPDATE profiles SET is_active=FALSE, updated_at=NOW() WHERE id=$1`,
	domain.CascadeStepAuthCodes: `
        UPDATE auth_codes SET is_active=FALSE WHERE owner_id=$1`,
	domain.CascadeStepCollaborators: `
        UPDATE colaboradores SET is_active=FALSE, updated_at=NOW() WHERE owner_id=$1`,
	domain.CascadeStepDevices: `
        UPDATE dispositivos SET is_active=FALSE, updated_at=NOW()
        WHERE auth_code_id IN (SELECT id FROM auth_codes WHERE owner_id=$1)`,
}

// Deactivate runs every step or none. A missing profile aborts with pgx.ErrNoRows.
func (r *deactivationRepository) Deactivate(ctx context.Context, profileID string, steps []domain.CascadeStep) (domain.CascadeResult, error) {
	result := domain.CascadeResult{}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		// Row lock keeps concurrent cascades for the same profile serialized.
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM profiles WHERE id=$1 FOR UPDATE`, profileID).Scan(&locked); err != nil {
			return err
		}
		for _, step := range steps {
			stmt, ok := cascadeStatements[step]
			if !ok {
				return fmt.Errorf("unknown cascade step %q", step)
			}
			cmd, err := tx.Exec(ctx, stmt, profileID)
			if err != nil {
				return fmt.Errorf("cascade step %s: %w", step, err)
			}
			result[step] = cmd.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
