package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
)

// Messages maps a message batch. Records without a key id or chat are dropped
// because the host cannot key them.
func Messages(raw []ports.RawMessage, now time.Time) []domain.Message {
	out := make([]domain.Message, 0, len(raw))
	for _, m := range raw {
		if strings.TrimSpace(m.Key.ID) == "" || strings.TrimSpace(m.Key.RemoteJID) == "" {
			continue
		}

		messageType, content := Classify(m.Message)
		out = append(out, domain.Message{
			MessageID:   m.Key.ID,
			ChatJID:     m.Key.RemoteJID,
			SenderJID:   senderJID(m.Key),
			Content:     content,
			MessageType: messageType,
			Timestamp:   Timestamp(m.MessageTimestamp, now),
			IsFromMe:    m.Key.FromMe,
			RawJSON:     rawJSON(m),
		})
	}
	return out
}

type classifier struct {
	kind    domain.MessageType
	present func(*ports.RawMessageContent) bool
	label   string
}

// Checked in order; the first match decides the type.
var classifiers = []classifier{
	{kind: domain.MessageImage, label: "[Image]", present: func(c *ports.RawMessageContent) bool { return c.ImageMessage != nil }},
	{kind: domain.MessageVideo, label: "[Video]", present: func(c *ports.RawMessageContent) bool { return c.VideoMessage != nil }},
	{kind: domain.MessageAudio, label: "[Audio]", present: func(c *ports.RawMessageContent) bool { return c.AudioMessage != nil }},
	{kind: domain.MessageDocument, label: "[Document]", present: func(c *ports.RawMessageContent) bool { return c.DocumentMessage != nil }},
	{kind: domain.MessageSticker, label: "[Sticker]", present: func(c *ports.RawMessageContent) bool { return c.StickerMessage != nil }},
	{kind: domain.MessageContact, label: "[Contact]", present: func(c *ports.RawMessageContent) bool { return c.ContactMessage != nil }},
	{kind: domain.MessageLocation, label: "[Location]", present: func(c *ports.RawMessageContent) bool { return c.LocationMessage != nil }},
}

// Classify returns the message type and its content preview. Text wins over
// everything else; absent or undecryptable payloads have no content.
func Classify(content *ports.RawMessageContent) (domain.MessageType, *string) {
	if content == nil {
		return domain.MessageUnknown, nil
	}
	if text, ok := textOf(content); ok {
		return domain.MessageText, &text
	}
	for _, c := range classifiers {
		if c.present(content) {
			label := c.label
			return c.kind, &label
		}
	}
	return domain.MessageUnknown, nil
}

func textOf(content *ports.RawMessageContent) (string, bool) {
	if content.Conversation != nil {
		return *content.Conversation, true
	}
	if content.ExtendedTextMessage != nil && content.ExtendedTextMessage.Text != nil {
		return *content.ExtendedTextMessage.Text, true
	}
	return "", false
}

func senderJID(key ports.RawMessageKey) string {
	if key.Participant != nil && *key.Participant != "" {
		return *key.Participant
	}
	return key.RemoteJID
}

func rawJSON(m ports.RawMessage) *string {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	raw := string(payload)
	return &raw
}
