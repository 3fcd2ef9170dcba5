package normalize

import (
	"strings"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
)

const (
	userServer = "@s.whatsapp.net"
	lidServer  = "@lid"
)

func Contacts(raw []ports.RawContact) []domain.Contact {
	out := make([]domain.Contact, 0, len(raw))
	for _, c := range raw {
		if strings.TrimSpace(c.ID) == "" {
			continue
		}
		out = append(out, domain.Contact{
			JID:          c.ID,
			LID:          c.LID,
			PhoneNumber:  c.PhoneNumber,
			Name:         c.Name,
			Notify:       c.Notify,
			VerifiedName: c.VerifiedName,
			ImgURL:       c.ImgURL,
			Status:       c.Status,
		})
	}
	return out
}

// JID turns a bare phone number into a user JID. Anything already carrying a
// server part is returned trimmed but otherwise untouched.
func JID(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" || strings.Contains(addr, "@") {
		return addr
	}
	digits := strings.TrimPrefix(addr, "+")
	digits = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(digits)
	return digits + userServer
}

// PhoneNumber extracts the user part of a phone-number JID, dropping any
// device suffix ("5511999999999:3@s.whatsapp.net" -> "5511999999999").
func PhoneNumber(jid string) *string {
	if !strings.HasSuffix(jid, userServer) {
		return nil
	}
	user := strings.TrimSuffix(jid, userServer)
	if idx := strings.IndexAny(user, ":."); idx >= 0 {
		user = user[:idx]
	}
	if user == "" {
		return nil
	}
	for _, r := range user {
		if r < '0' || r > '9' {
			return nil
		}
	}
	return &user
}
