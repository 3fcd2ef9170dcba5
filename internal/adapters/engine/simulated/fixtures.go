package simulated

import "github.com/bnema/chat-sessiond/internal/ports"

// FixtureGroups is the group list served when none is configured.
func FixtureGroups() []ports.RawGroup {
	subject := "sessiond sandbox"
	desc := "Simulated group for local runs"
	owner := "15550000001@s.whatsapp.net"
	admin := "superadmin"

	return []ports.RawGroup{{
		ID:      "120363000000000001@g.us",
		Subject: &subject,
		Owner:   &owner,
		Desc:    &desc,
		Participants: []ports.RawParticipant{
			{ID: owner, Admin: &admin},
			{ID: "15550000002@s.whatsapp.net"},
		},
	}}
}
