package domain

import (
	"fmt"
	"strings"
)

type CommandKind string

const (
	CommandStartAccount CommandKind = "StartAccount"
	CommandStopAccount  CommandKind = "StopAccount"
	CommandSetAuthState CommandKind = "SetAuthState"
	CommandSendMessage  CommandKind = "SendMessage"
	CommandGetContacts  CommandKind = "GetContacts"
	CommandGetGroups    CommandKind = "GetGroups"
	CommandGetMessages  CommandKind = "GetMessages"
	CommandShutdown     CommandKind = "Shutdown"
)

// Command is a decoded inbound command. Payload is one of the payload types
// below, matching Kind.
type Command struct {
	ID      string
	Kind    CommandKind
	Payload CommandPayload
}

type CommandPayload interface {
	Kind() CommandKind
	Validate() error
}

type StartAccount struct {
	AccountID AccountID `json:"account_id"`
}

type StopAccount struct {
	AccountID AccountID `json:"account_id"`
}

type SetAuthState struct {
	AccountID AccountID `json:"account_id"`
	AuthState string    `json:"auth_state"`
}

type SendMessage struct {
	AccountID AccountID `json:"account_id"`
	To        string    `json:"to"`
	Content   string    `json:"content"`
}

type GetContacts struct {
	AccountID AccountID `json:"account_id"`
}

type GetGroups struct {
	AccountID AccountID `json:"account_id"`
}

type GetMessages struct {
	AccountID AccountID `json:"account_id"`
	ChatJID   *string   `json:"chat_jid"`
	Limit     int64     `json:"limit"`
}

type Shutdown struct{}

func (StartAccount) Kind() CommandKind { return CommandStartAccount }
func (StopAccount) Kind() CommandKind  { return CommandStopAccount }
func (SetAuthState) Kind() CommandKind { return CommandSetAuthState }
func (SendMessage) Kind() CommandKind  { return CommandSendMessage }
func (GetContacts) Kind() CommandKind  { return CommandGetContacts }
func (GetGroups) Kind() CommandKind    { return CommandGetGroups }
func (GetMessages) Kind() CommandKind  { return CommandGetMessages }
func (Shutdown) Kind() CommandKind     { return CommandShutdown }

func (c StartAccount) Validate() error { return requireAccount(c.AccountID) }
func (c StopAccount) Validate() error  { return requireAccount(c.AccountID) }
func (c GetContacts) Validate() error  { return requireAccount(c.AccountID) }
func (c GetGroups) Validate() error    { return requireAccount(c.AccountID) }
func (c GetMessages) Validate() error  { return requireAccount(c.AccountID) }
func (Shutdown) Validate() error       { return nil }

func (c SetAuthState) Validate() error {
	if err := requireAccount(c.AccountID); err != nil {
		return err
	}
	if strings.TrimSpace(c.AuthState) == "" {
		return fmt.Errorf("%w: missing auth_state", ErrInvalidPayload)
	}
	return nil
}

func (c SendMessage) Validate() error {
	if err := requireAccount(c.AccountID); err != nil {
		return err
	}
	if strings.TrimSpace(c.To) == "" {
		return fmt.Errorf("%w: missing to", ErrInvalidPayload)
	}
	return nil
}

func requireAccount(id AccountID) error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: missing account_id", ErrInvalidPayload)
	}
	return nil
}

// SentMessage is the success data of a SendMessage command.
type SentMessage struct {
	MessageID string `json:"message_id"`
}

// Result is the single answer to one Command.
type Result struct {
	CommandID string
	Success   bool
	Data      any
	Err       error
}

func Succeeded(commandID string, data any) Result {
	return Result{CommandID: commandID, Success: true, Data: data}
}

func Failed(commandID string, err error) Result {
	return Result{CommandID: commandID, Err: err}
}

// Payload renders the result as its wire payload.
func (r Result) Payload() CommandResultPayload {
	out := CommandResultPayload{CommandID: r.CommandID, Success: r.Success, Data: r.Data}
	if !r.Success {
		if r.Err != nil {
			out.Error = r.Err.Error()
		} else {
			out.Error = "command failed"
		}
	}
	return out
}
