// Package summary renders a human-readable view of a stored credential blob.
package summary

import (
	"fmt"
	"sort"

	"github.com/bnema/chat-sessiond/internal/adapters/authstate"
	"github.com/bnema/chat-sessiond/internal/adapters/normalize"
	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Summary is the inspectable part of a credential blob. Key material itself
// is never included.
type Summary struct {
	AccountID      domain.AccountID `toml:"account_id"`
	Registered     bool             `toml:"registered"`
	MeID           string           `toml:"me_id,omitempty"`
	Phone          string           `toml:"phone,omitempty"`
	RegistrationID uint16           `toml:"registration_id"`
	Platform       string           `toml:"platform,omitempty"`
	NextPreKeyID   uint32           `toml:"next_pre_key_id"`
	Keys           map[string]int   `toml:"keys"`
}

func FromStore(store *authstate.Store) Summary {
	creds := store.Creds()
	out := Summary{
		AccountID:      store.AccountID(),
		Registered:     creds.Registered,
		RegistrationID: creds.RegistrationID,
		Platform:       creds.Platform,
		NextPreKeyID:   creds.NextPreKeyID,
		Keys:           store.Categories(),
	}
	if creds.Me != nil {
		out.MeID = creds.Me.ID
		if phone := normalize.PhoneNumber(creds.Me.ID); phone != nil {
			out.Phone = *phone
		}
	}
	return out
}

// TotalKeys sums the per-category key counts.
func (s Summary) TotalKeys() int {
	total := 0
	for _, n := range s.Keys {
		total += n
	}
	return total
}

func renderView(summary Summary, s styles) string {
	lines := []string{
		s.title.Render("Credential State"),
		s.header.Render(fmt.Sprintf("keys: %d", summary.TotalKeys())),
		s.section.Render(renderIdentity(summary, s)),
		s.section.Render(renderKeys(summary, s)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderIdentity(summary Summary, s styles) string {
	title := string(summary.AccountID)
	if title == "" {
		title = "(unnamed)"
	}

	status := s.unpaired.Render("not paired")
	if summary.Registered {
		status = s.paired.Render("paired")
	}

	parts := []string{
		s.account.Render(title) + " " + status,
		field(s, "registration id", fmt.Sprintf("%d", summary.RegistrationID)),
		field(s, "next pre-key id", fmt.Sprintf("%d", summary.NextPreKeyID)),
	}
	if summary.MeID != "" {
		parts = append(parts, field(s, "device", summary.MeID))
	}
	if summary.Phone != "" {
		parts = append(parts, field(s, "phone", summary.Phone))
	}
	if summary.Platform != "" {
		parts = append(parts, field(s, "platform", summary.Platform))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderKeys(summary Summary, s styles) string {
	if len(summary.Keys) == 0 {
		return s.empty.Render("No key records stored.")
	}

	categories := make([]string, 0, len(summary.Keys))
	for category := range summary.Keys {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	parts := make([]string, 0, len(categories))
	for _, category := range categories {
		parts = append(parts, field(s, category, fmt.Sprintf("%d", summary.Keys[category])))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func field(s styles, label, value string) string {
	return s.key.Render(label+":") + " " + s.detail.Render(value)
}
