package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SystemLogRepository appends audit records.
type SystemLogRepository interface {
	Create(ctx context.Context, entry *domain.SystemLog) error
}

type systemLogRepository struct {
	db DB
}

// NewSystemLogRepository builds repository.
func NewSystemLogRepository(db DB) SystemLogRepository {
	return &systemLogRepository{db: db}
}

func (r *systemLogRepository) Create(ctx context.Context, entry *domain.SystemLog) error {
	const query = `
        INSERT INTO system_logs (user_id, user_type, action, resource_type, resource_id, details, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.ActorID,
		entry.ActorType,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
}
