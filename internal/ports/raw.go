package ports

// Raw* types mirror the engine's JSON payloads. Field names follow the
// engine, not the host schema; the normalizer owns the translation.

type RawContact struct {
	ID           string  `json:"id"`
	LID          *string `json:"lid,omitempty"`
	PhoneNumber  *string `json:"phoneNumber,omitempty"`
	Name         *string `json:"name,omitempty"`
	Notify       *string `json:"notify,omitempty"`
	VerifiedName *string `json:"verifiedName,omitempty"`
	ImgURL       *string `json:"imgUrl,omitempty"`
	Status       *string `json:"status,omitempty"`
}

type RawParticipant struct {
	ID          string  `json:"id"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Admin       *string `json:"admin,omitempty"`
}

type RawGroup struct {
	ID           string           `json:"id"`
	Subject      *string          `json:"subject,omitempty"`
	Owner        *string          `json:"owner,omitempty"`
	Desc         *string          `json:"desc,omitempty"`
	Participants []RawParticipant `json:"participants,omitempty"`
}

type RawMessageKey struct {
	RemoteJID   string  `json:"remoteJid"`
	FromMe      bool    `json:"fromMe"`
	ID          string  `json:"id"`
	Participant *string `json:"participant,omitempty"`
}

// RawMessage is one message record. MessageTimestamp is whatever the engine
// decoded: a number, a numeric string, or something unusable.
type RawMessage struct {
	Key              RawMessageKey      `json:"key"`
	MessageTimestamp any                `json:"messageTimestamp,omitempty"`
	PushName         *string            `json:"pushName,omitempty"`
	Message          *RawMessageContent `json:"message,omitempty"`
}

type RawMessageContent struct {
	Conversation        *string          `json:"conversation,omitempty"`
	ExtendedTextMessage *RawExtendedText `json:"extendedTextMessage,omitempty"`
	ImageMessage        *RawMedia        `json:"imageMessage,omitempty"`
	VideoMessage        *RawMedia        `json:"videoMessage,omitempty"`
	AudioMessage        *RawMedia        `json:"audioMessage,omitempty"`
	DocumentMessage     *RawMedia        `json:"documentMessage,omitempty"`
	StickerMessage      *RawMedia        `json:"stickerMessage,omitempty"`
	ContactMessage      *RawContactCard  `json:"contactMessage,omitempty"`
	LocationMessage     *RawLocation     `json:"locationMessage,omitempty"`
}

type RawExtendedText struct {
	Text *string `json:"text,omitempty"`
}

type RawMedia struct {
	Caption  *string `json:"caption,omitempty"`
	Mimetype *string `json:"mimetype,omitempty"`
	FileName *string `json:"fileName,omitempty"`
}

type RawContactCard struct {
	DisplayName *string `json:"displayName,omitempty"`
	Vcard       *string `json:"vcard,omitempty"`
}

type RawLocation struct {
	DegreesLatitude  float64 `json:"degreesLatitude"`
	DegreesLongitude float64 `json:"degreesLongitude"`
	Name             *string `json:"name,omitempty"`
}
