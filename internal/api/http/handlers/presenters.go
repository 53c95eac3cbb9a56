package handlers

import (
	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func sessionResponse(session service.Session, subjectID string, subject domain.SubjectType) dto.SessionResponse {
	return dto.SessionResponse{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		ExpiresAt:   session.ExpiresAt,
		SubjectID:   subjectID,
		Subject:     string(subject),
	}
}

func profileResponse(p *domain.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:           p.ID,
		Username:     p.Username,
		Email:        p.Email,
		Phone:        p.Phone,
		IsActive:     p.IsActive,
		IsSuperAdmin: p.IsSuperAdmin,
		CreatedAt:    p.CreatedAt,
	}
}

func collaboratorResponse(c *domain.Collaborator) dto.CollaboratorResponse {
	return dto.CollaboratorResponse{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Username:    c.Username,
		Email:       c.Email,
		AccessLevel: string(c.AccessLevel),
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}

func deviceResponse(d *domain.Device) dto.DeviceResponse {
	return dto.DeviceResponse{
		ID:         d.ID,
		DeviceName: d.DeviceName,
		UserEmail:  d.UserEmail,
		UserName:   d.UserName,
		IsActive:   d.IsActive,
		CreatedAt:  d.CreatedAt,
	}
}

func inviteResponse(v service.InviteView) dto.InviteResponse {
	return dto.InviteResponse{
		ID:               v.ID,
		Code:             v.Code,
		State:            string(v.State),
		Used:             v.Used,
		UsedBy:           v.UsedBy,
		UsedByUsername:   v.UsedByUsername,
		UsedByEmail:      v.UsedByEmail,
		UsedAt:           v.UsedAt,
		CreatedBy:        v.CreatedBy,
		CreatedAt:        v.CreatedAt,
		ExpiresAt:        v.ExpiresAt,
		RevokedAt:        v.RevokedAt,
		RevokedBy:        v.RevokedBy,
		RevocationReason: v.RevocationReason,
	}
}

func ticketResponse(t *domain.Ticket, comments []domain.TicketComment) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:             t.ID,
		TicketNumber:   t.TicketNumber,
		OwnerID:        t.OwnerID,
		DeviceID:       t.DeviceID,
		CollaboratorID: t.CollaboratorID,
		Title:          t.Title,
		Description:    t.Description,
		Category:       t.Category,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		AssignedTo:     t.AssignedTo,
		ResolvedAt:     t.ResolvedAt,
		ClosedAt:       t.ClosedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if len(comments) > 0 {
		resp.Comments = make([]dto.CommentResponse, 0, len(comments))
		for i := range comments {
			resp.Comments = append(resp.Comments, commentResponse(&comments[i]))
		}
	}
	return resp
}

func ticketViews(views []service.TicketView) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(views))
	for i := range views {
		items = append(items, ticketResponse(&views[i].Ticket, views[i].Comments))
	}
	return items
}

func commentResponse(c *domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorKind: string(c.Author.Kind),
		AuthorID:   c.Author.ID,
		Content:    c.Content,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
	}
}
