package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/chat-sessiond/internal/domain"
)

var ErrMalformedLine = errors.New("malformed command line")

type inbound struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outbound struct {
	ID      string           `json:"id"`
	Type    domain.EventKind `json:"type"`
	Payload any              `json:"payload"`
}

type payloadDecoder func(json.RawMessage) (domain.CommandPayload, error)

var decoders = map[domain.CommandKind]payloadDecoder{
	domain.CommandStartAccount: decodePayload[domain.StartAccount],
	domain.CommandStopAccount:  decodePayload[domain.StopAccount],
	domain.CommandSetAuthState: decodePayload[domain.SetAuthState],
	domain.CommandSendMessage:  decodePayload[domain.SendMessage],
	domain.CommandGetContacts:  decodePayload[domain.GetContacts],
	domain.CommandGetGroups:    decodePayload[domain.GetGroups],
	domain.CommandGetMessages:  decodePayload[domain.GetMessages],
	domain.CommandShutdown:     decodePayload[domain.Shutdown],
}

// Decode parses one inbound line. A non-empty Command.ID alongside an error
// means the envelope was readable and the failure belongs to that command;
// an empty ID means the line itself was unusable.
func Decode(line []byte) (domain.Command, error) {
	var env inbound
	if err := json.Unmarshal(line, &env); err != nil {
		return domain.Command{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	if strings.TrimSpace(env.ID) == "" {
		return domain.Command{}, fmt.Errorf("%w: missing id", ErrMalformedLine)
	}

	cmd := domain.Command{ID: env.ID, Kind: domain.CommandKind(env.Type)}
	decode, ok := decoders[cmd.Kind]
	if !ok {
		return cmd, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, env.Type)
	}

	payload, err := decode(env.Payload)
	if err != nil {
		return cmd, err
	}
	cmd.Payload = payload
	return cmd, nil
}

func decodePayload[T domain.CommandPayload](raw json.RawMessage) (domain.CommandPayload, error) {
	var payload T
	if len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}
