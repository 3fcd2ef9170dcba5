package domain

type EventKind string

const (
	EventReady               EventKind = "Ready"
	EventQRCode              EventKind = "QrCode"
	EventConnected           EventKind = "Connected"
	EventDisconnected        EventKind = "Disconnected"
	EventLoggedOut           EventKind = "LoggedOut"
	EventAuthStateUpdated    EventKind = "AuthStateUpdated"
	EventContactsUpsert      EventKind = "ContactsUpsert"
	EventContactsUpdate      EventKind = "ContactsUpdate"
	EventGroupsUpsert        EventKind = "GroupsUpsert"
	EventGroupsUpdate        EventKind = "GroupsUpdate"
	EventMessagesUpsert      EventKind = "MessagesUpsert"
	EventHistorySyncComplete EventKind = "HistorySyncComplete"
	EventError               EventKind = "Error"
	EventCommandResult       EventKind = "CommandResult"
)

const (
	ReasonStoppedByUser = "stopped by user"
	ReasonShutdown      = "shutdown"
)

// Event is one outbound domain event. Payload is one of the *Payload types
// below and is encoded as the wire "payload" object.
type Event struct {
	Kind    EventKind
	Payload any
}

type AccountPayload struct {
	AccountID AccountID `json:"account_id"`
}

type QRCodePayload struct {
	AccountID AccountID `json:"account_id"`
	QR        string    `json:"qr"`
}

type ConnectedPayload struct {
	AccountID   AccountID `json:"account_id"`
	PhoneNumber *string   `json:"phone_number"`
}

type DisconnectedPayload struct {
	AccountID AccountID `json:"account_id"`
	Reason    string    `json:"reason"`
}

type AuthStatePayload struct {
	AccountID AccountID `json:"account_id"`
	AuthState string    `json:"auth_state"`
}

type ContactsPayload struct {
	AccountID AccountID `json:"account_id"`
	Contacts  []Contact `json:"contacts"`
}

type GroupsPayload struct {
	AccountID AccountID `json:"account_id"`
	Groups    []Group   `json:"groups"`
}

type MessagesPayload struct {
	AccountID AccountID `json:"account_id"`
	Messages  []Message `json:"messages"`
}

type HistorySyncPayload struct {
	AccountID     AccountID `json:"account_id"`
	MessagesCount int       `json:"messages_count"`
}

type ErrorPayload struct {
	AccountID *AccountID `json:"account_id"`
	Error     string     `json:"error"`
}

type CommandResultPayload struct {
	CommandID string `json:"command_id"`
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

func NewAccountEvent(kind EventKind, id AccountID) Event {
	return Event{Kind: kind, Payload: AccountPayload{AccountID: id}}
}

func NewDisconnected(id AccountID, reason string) Event {
	return Event{Kind: EventDisconnected, Payload: DisconnectedPayload{AccountID: id, Reason: reason}}
}

// NewError builds an Error event; an empty id produces an account-less error.
func NewError(id AccountID, err error) Event {
	payload := ErrorPayload{Error: err.Error()}
	if id != "" {
		payload.AccountID = &id
	}
	return Event{Kind: EventError, Payload: payload}
}
