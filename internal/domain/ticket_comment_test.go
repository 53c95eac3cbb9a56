package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterComments(t *testing.T) {
	comments := []TicketComment{
		{ID: "1", Content: "Ticket assumido por k1", IsInternal: true},
		{ID: "2", Content: "Please restart"},
		{ID: "3", Content: "VPN issue", IsInternal: true},
	}

	tests := []struct {
		name   string
		reader Actor
		want   []string
	}{
		{name: "device", reader: DeviceActor("d1"), want: []string{"2"}},
		{name: "collaborator", reader: CollaboratorActor("k1"), want: []string{"1", "2", "3"}},
		{name: "profile", reader: ProfileActor("p1"), want: []string{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterComments(comments, tt.reader)
			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestAuthorFromActor(t *testing.T) {
	assert.Equal(t, Author{Kind: AuthorKindProfile, ID: "p"}, AuthorFromActor(ProfileActor("p")))
	assert.Equal(t, Author{Kind: AuthorKindCollaborator, ID: "k"}, AuthorFromActor(CollaboratorActor("k")))
	assert.Equal(t, Author{Kind: AuthorKindDevice, ID: "d"}, AuthorFromActor(DeviceActor("d")))
}

func TestCollaborator_CanMutateTickets(t *testing.T) {
	var missing *Collaborator
	assert.False(t, missing.CanMutateTickets())
	assert.False(t, (&Collaborator{AccessLevel: AccessLevelViewer, IsActive: true}).CanMutateTickets())
	assert.False(t, (&Collaborator{AccessLevel: AccessLevelAdmin, IsActive: false}).CanMutateTickets())
	assert.True(t, (&Collaborator{AccessLevel: AccessLevelEditor, IsActive: true}).CanMutateTickets())
	assert.True(t, (&Collaborator{AccessLevel: AccessLevelAdmin, IsActive: true}).CanMutateTickets())
}
