package domain

type Contact struct {
	JID          string  `json:"jid"`
	LID          *string `json:"lid"`
	PhoneNumber  *string `json:"phone_number"`
	Name         *string `json:"name"`
	Notify       *string `json:"notify"`
	VerifiedName *string `json:"verified_name"`
	ImgURL       *string `json:"img_url"`
	Status       *string `json:"status"`
}

type Participant struct {
	ID          string  `json:"id"`
	Admin       *string `json:"admin"`
	PhoneNumber *string `json:"phone_number"`
}

// Group carries participants in source order. On GroupsUpdate the list is
// always empty: membership is not reported by metadata updates.
type Group struct {
	JID          string        `json:"jid"`
	Subject      *string       `json:"subject"`
	Owner        *string       `json:"owner"`
	Description  *string       `json:"description"`
	Participants []Participant `json:"participants"`
}

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageVideo    MessageType = "video"
	MessageAudio    MessageType = "audio"
	MessageDocument MessageType = "document"
	MessageSticker  MessageType = "sticker"
	MessageContact  MessageType = "contact"
	MessageLocation MessageType = "location"
	MessageUnknown  MessageType = "unknown"
)

type Message struct {
	MessageID   string      `json:"message_id"`
	ChatJID     string      `json:"chat_jid"`
	SenderJID   string      `json:"sender_jid"`
	Content     *string     `json:"content"`
	MessageType MessageType `json:"message_type"`
	Timestamp   int64       `json:"timestamp"`
	IsFromMe    bool        `json:"is_from_me"`
	RawJSON     *string     `json:"raw_json"`
}
