package ports

import (
	"context"
	"strconv"

	"github.com/bnema/chat-sessiond/internal/domain"
)

// StatusLoggedOut is the disconnect status the engine reports when the
// account was unlinked from the phone. It is the only terminal close.
const StatusLoggedOut = 401

type EventHandler func(EngineEvent)

type Engine interface {
	// Connect opens a connection for accountID using auth. It returns once the
	// handle exists; progress is reported through handle. ctx bounds the
	// lifetime of the connection, not just the call.
	Connect(ctx context.Context, accountID domain.AccountID, auth AuthState, handle EventHandler) (Connection, error)
}

type Connection interface {
	SendText(ctx context.Context, to string, text string) (string, error)
	FetchGroups(ctx context.Context) ([]RawGroup, error)
	// Close releases the connection. Implementations must not deliver events
	// synchronously from Close.
	Close() error
}

// EngineEvent is implemented by every event the engine may deliver.
type EngineEvent interface {
	engineEvent()
}

type ConnectionState string

const (
	ConnectionConnecting ConnectionState = "connecting"
	ConnectionOpen       ConnectionState = "open"
	ConnectionClose      ConnectionState = "close"
)

type Disconnect struct {
	StatusCode int
	Err        error
}

// Reason renders the disconnect cause for host-facing events.
func (d *Disconnect) Reason() string {
	if d == nil {
		return "connection closed"
	}
	if d.Err != nil {
		return d.Err.Error()
	}
	if d.StatusCode != 0 {
		return "connection closed with status " + strconv.Itoa(d.StatusCode)
	}
	return "connection closed"
}

type ConnectionUpdate struct {
	State          ConnectionState
	QR             string
	LastDisconnect *Disconnect
}

// CredsUpdate signals that the engine changed the credentials it holds.
type CredsUpdate struct{}

type ContactsUpsert struct {
	Contacts []RawContact
}

type ContactsUpdate struct {
	Contacts []RawContact
}

type GroupsUpsert struct {
	Groups []RawGroup
}

type GroupsUpdate struct {
	Groups []RawGroup
}

type MessagesUpsert struct {
	Messages []RawMessage
	Type     string
}

type HistorySet struct {
	Contacts []RawContact
	Messages []RawMessage
	IsLatest bool
}

func (ConnectionUpdate) engineEvent() {}
func (CredsUpdate) engineEvent()      {}
func (ContactsUpsert) engineEvent()   {}
func (ContactsUpdate) engineEvent()   {}
func (GroupsUpsert) engineEvent()     {}
func (GroupsUpdate) engineEvent()     {}
func (MessagesUpsert) engineEvent()   {}
func (HistorySet) engineEvent()       {}
