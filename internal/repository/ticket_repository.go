package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	OwnerID    *string
	DeviceID   *string
	AssignedTo *string
	Statuses   []domain.TicketStatus
	Limit      int
	Offset     int
}

// TicketTransition describes a conditional status change.
type TicketTransition struct {
	TicketID string
	From     domain.TicketStatus
	To       domain.TicketStatus
	// ExpectedAssignee guards against the ticket changing hands between read and write.
	ExpectedAssignee *string
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
	ClearAssignee    bool
}

// TicketRepository encapsulates ticket and comment persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Stats(ctx context.Context, ownerID, collaboratorID string) (domain.TicketStats, error)
	// Assign takes an open, unassigned ticket and appends comment in the same transaction.
	Assign(ctx context.Context, ticketID, collaboratorID string, comment *domain.TicketComment) (bool, error)
	// Transition applies a status change predicated on the prior status.
	Transition(ctx context.Context, change TicketTransition, comment *domain.TicketComment) (bool, error)
	// AddComment appends a comment and bumps the ticket's updated_at.
	AddComment(ctx context.Context, comment *domain.TicketComment) error
	ListComments(ctx context.Context, ticketIDs []string) (map[string][]domain.TicketComment, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, ticket_number, owner_id, dispositivo_id, colaborador_id, title, description, category,
               priority, status, assigned_to, resolved_at, closed_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, owner_id, dispositivo_id, colaborador_id, title, description, category, priority, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.OwnerID,
		ticket.DeviceID,
		ticket.CollaboratorID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return mapInsertError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if filter.DeviceID != nil {
		args = append(args, *filter.DeviceID)
		clauses = append(clauses, fmt.Sprintf("dispositivo_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Stats(ctx context.Context, ownerID, collaboratorID string) (domain.TicketStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE assigned_to=$2),
               COUNT(*) FILTER (WHERE status='open'),
               COUNT(*) FILTER (WHERE status='resolved')
        FROM tickets WHERE owner_id=$1`
	var stats domain.TicketStats
	err := r.db.QueryRow(ctx, query, ownerID, collaboratorID).
		Scan(&stats.Total, &stats.Assigned, &stats.Open, &stats.Resolved)
	return stats, err
}

func (r *ticketRepository) Assign(ctx context.Context, ticketID, collaboratorID string, comment *domain.TicketComment) (bool, error) {
	const query = `
        UPDATE tickets SET assigned_to=$2, status='in_progress', updated_at=NOW()
        WHERE id=$1 AND assigned_to IS NULL AND status='open'`
	taken := false
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, query, ticketID, collaboratorID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return nil
		}
		taken = true
		if comment == nil {
			return nil
		}
		return insertComment(ctx, tx, comment)
	})
	if err != nil {
		return false, err
	}
	return taken, nil
}

func (r *ticketRepository) Transition(ctx context.Context, change TicketTransition, comment *domain.TicketComment) (bool, error) {
	const query = `
        UPDATE tickets SET status=$3,
            resolved_at=COALESCE(resolved_at, $4),
            closed_at=COALESCE($5, closed_at),
            assigned_to=CASE WHEN $6 THEN NULL ELSE assigned_to END,
            updated_at=NOW()
        WHERE id=$1 AND status=$2 AND ($7::uuid IS NULL OR assigned_to=$7::uuid)`
	applied := false
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, query,
			change.TicketID,
			change.From,
			change.To,
			change.ResolvedAt,
			change.ClosedAt,
			change.ClearAssignee,
			change.ExpectedAssignee,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return nil
		}
		applied = true
		if comment == nil {
			return nil
		}
		return insertComment(ctx, tx, comment)
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ticketRepository) AddComment(ctx context.Context, comment *domain.TicketComment) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, comment.TicketID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return insertComment(ctx, tx, comment)
	})
}

func (r *ticketRepository) ListComments(ctx context.Context, ticketIDs []string) (map[string][]domain.TicketComment, error) {
	result := make(map[string][]domain.TicketComment, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT id, ticket_id, author_id, author_type, content, is_internal, created_at
        FROM ticket_comments WHERE ticket_id = ANY($1) ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.TicketComment
		var authorID *string
		if err := rows.Scan(
			&c.ID,
			&c.TicketID,
			&authorID,
			&c.Author.Kind,
			&c.Content,
			&c.IsInternal,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		if authorID != nil {
			c.Author.ID = *authorID
		}
		result[c.TicketID] = append(result[c.TicketID], c)
	}
	return result, rows.Err()
}

func insertComment(ctx context.Context, q DB, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, author_id, author_type, content, is_internal)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	var authorID *string
	if comment.Author.ID != "" {
		authorID = &comment.Author.ID
	}
	return q.QueryRow(ctx, query,
		comment.TicketID,
		authorID,
		comment.Author.Kind,
		comment.Content,
		comment.IsInternal,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TicketNumber,
			&ticket.OwnerID,
			&ticket.DeviceID,
			&ticket.CollaboratorID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.AssignedTo,
			&ticket.ResolvedAt,
			&ticket.ClosedAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
