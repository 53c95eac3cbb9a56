package domain

import "time"

// AuthorKind tags who wrote a comment.
type AuthorKind string

const (
	AuthorKindProfile      AuthorKind = "profile"
	AuthorKindCollaborator AuthorKind = "colaborador"
	AuthorKindDevice       AuthorKind = "dispositivo"
	AuthorKindSystem       AuthorKind = "system"
)

// Author is the tagged comment author. System authors carry the acting collaborator id.
type Author struct {
	Kind AuthorKind
	ID   string
}

// AuthorFromActor maps a caller onto its comment author variant.
func AuthorFromActor(actor Actor) Author {
	switch actor.Kind {
	case SubjectTypeProfile:
		return Author{Kind: AuthorKindProfile, ID: actor.ID}
	case SubjectTypeCollaborator:
		return Author{Kind: AuthorKindCollaborator, ID: actor.ID}
	default:
		return Author{Kind: AuthorKindDevice, ID: actor.ID}
	}
}

// TicketComment is an entry in a ticket thread.
type TicketComment struct {
	ID         string
	TicketID   string
	Author     Author
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}

// VisibleTo reports whether the reader may see the comment.
func (c *TicketComment) VisibleTo(reader Actor) bool {
	if !c.IsInternal {
		return true
	}
	return reader.IsStaff()
}

// FilterComments drops comments the reader may not see.
func FilterComments(comments []TicketComment, reader Actor) []TicketComment {
	visible := make([]TicketComment, 0, len(comments))
	for i := range comments {
		if comments[i].VisibleTo(reader) {
			visible = append(visible, comments[i])
		}
	}
	return visible
}
