package normalize

import (
	"strings"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
)

// Groups maps a group upsert batch, keeping every participant in order.
func Groups(raw []ports.RawGroup) []domain.Group {
	out := make([]domain.Group, 0, len(raw))
	for _, g := range raw {
		if strings.TrimSpace(g.ID) == "" {
			continue
		}
		group := groupMetadata(g)
		group.Participants = participants(g.Participants)
		out = append(out, group)
	}
	return out
}

// GroupUpdates maps a metadata-only batch. Participants is always empty:
// updates say which fields changed, not who is a member.
func GroupUpdates(raw []ports.RawGroup) []domain.Group {
	out := make([]domain.Group, 0, len(raw))
	for _, g := range raw {
		if strings.TrimSpace(g.ID) == "" {
			continue
		}
		out = append(out, groupMetadata(g))
	}
	return out
}

// ParticipantContacts derives contact upserts from the participants of every
// group in the batch, first occurrence wins.
func ParticipantContacts(raw []ports.RawGroup) []domain.Contact {
	seen := map[string]struct{}{}
	out := []domain.Contact{}
	for _, g := range raw {
		for _, p := range g.Participants {
			if strings.TrimSpace(p.ID) == "" {
				continue
			}
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}

			contact := domain.Contact{JID: p.ID, PhoneNumber: participantPhone(p)}
			if strings.HasSuffix(p.ID, lidServer) {
				lid := p.ID
				contact.LID = &lid
			}
			out = append(out, contact)
		}
	}
	return out
}

func groupMetadata(g ports.RawGroup) domain.Group {
	return domain.Group{
		JID:          g.ID,
		Subject:      g.Subject,
		Owner:        g.Owner,
		Description:  g.Desc,
		Participants: []domain.Participant{},
	}
}

func participants(raw []ports.RawParticipant) []domain.Participant {
	out := make([]domain.Participant, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.Participant{
			ID:          p.ID,
			Admin:       p.Admin,
			PhoneNumber: participantPhone(p),
		})
	}
	return out
}

func participantPhone(p ports.RawParticipant) *string {
	if p.PhoneNumber != nil {
		return p.PhoneNumber
	}
	return PhoneNumber(p.ID)
}
