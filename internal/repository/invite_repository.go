package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// InviteFilter narrows invite listings.
type InviteFilter struct {
	UsedByEmail *string
	Limit       int
	Offset      int
}

// InviteRecord is an invite joined with the profile that redeemed it.
type InviteRecord struct {
	Invite         domain.SuperAdminInvite
	UsedByUsername *string
	UsedByEmail    *string
}

// InviteRepository persists super-admin invite codes.
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.SuperAdminInvite) error
	GetByID(ctx context.Context, id string) (*InviteRecord, error)
	GetByCode(ctx context.Context, code string) (*domain.SuperAdminInvite, error)
	List(ctx context.Context, filter InviteFilter) ([]InviteRecord, error)
	// MarkUsed flips used=false to used=true only while the code is redeemable at now.
	MarkUsed(ctx context.Context, code, profileID string, now time.Time) (bool, error)
	// Revoke succeeds only while the code is neither used nor revoked. An empty revokedBy is stored as NULL.
	Revoke(ctx context.Context, id, revokedBy, reason string, now time.Time) (bool, error)
}

type inviteRepository struct {
	db DB
}

// NewInviteRepository builds repository.
func NewInviteRepository(db DB) InviteRepository {
	return &inviteRepository{db: db}
}

const inviteSelect = `
        SELECT i.id, i.code, i.used, i.used_by, i.used_at, i.created_by, i.created_at, i.expires_at,
               i.revoked_at, i.revoked_by, i.revocation_reason, p.username, p.email
        FROM super_admin_invites i
        LEFT JOIN profiles p ON p.id = i.used_by`

func (r *inviteRepository) Create(ctx context.Context, invite *domain.SuperAdminInvite) error {
	const query = `
        INSERT INTO super_admin_invites (code, created_by, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, invite.Code, invite.CreatedBy, invite.ExpiresAt).
		Scan(&invite.ID, &invite.CreatedAt)
	return mapInsertError(err)
}

func (r *inviteRepository) GetByID(ctx context.Context, id string) (*InviteRecord, error) {
	rows, err := r.db.Query(ctx, inviteSelect+` WHERE i.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records, err := scanInvites(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &records[0], nil
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*domain.SuperAdminInvite, error) {
	rows, err := r.db.Query(ctx, inviteSelect+` WHERE i.code=$1`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records, err := scanInvites(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &records[0].Invite, nil
}

func (r *inviteRepository) List(ctx context.Context, filter InviteFilter) ([]InviteRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.UsedByEmail != nil && strings.TrimSpace(*filter.UsedByEmail) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.UsedByEmail))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(p.email) LIKE $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`%s WHERE %s ORDER BY i.created_at DESC LIMIT %d OFFSET %d`,
		inviteSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvites(rows)
}

func (r *inviteRepository) MarkUsed(ctx context.Context, code, profileID string, now time.Time) (bool, error) {
	const query = `
        UPDATE super_admin_invites SET used=TRUE, used_by=$2, used_at=$3
        WHERE code=$1 AND used=FALSE AND revoked_at IS NULL AND expires_at > $3`
	cmd, err := r.db.Exec(ctx, query, code, profileID, now)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *inviteRepository) Revoke(ctx context.Context, id, revokedBy, reason string, now time.Time) (bool, error) {
	const query = `
        UPDATE super_admin_invites SET revoked_at=$4, revoked_by=$2, revocation_reason=$3
        WHERE id=$1 AND used=FALSE AND revoked_at IS NULL`
	var by *string
	if revokedBy != "" {
		by = &revokedBy
	}
	cmd, err := r.db.Exec(ctx, query, id, by, reason, now)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func scanInvites(rows pgx.Rows) ([]InviteRecord, error) {
	var result []InviteRecord
	for rows.Next() {
		var rec InviteRecord
		inv := &rec.Invite
		if err := rows.Scan(
			&inv.ID,
			&inv.Code,
			&inv.Used,
			&inv.UsedBy,
			&inv.UsedAt,
			&inv.CreatedBy,
			&inv.CreatedAt,
			&inv.ExpiresAt,
			&inv.RevokedAt,
			&inv.RevokedBy,
			&inv.RevocationReason,
			&rec.UsedByUsername,
			&rec.UsedByEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
