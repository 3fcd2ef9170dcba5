package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
)

var (
	ErrPairingLoggedOut = errors.New("account was logged out during pairing")
	ErrPairingClosed    = errors.New("connection closed before pairing completed")
)

// Pair connects accountID once, outside any supervisor, and waits for the
// connection to open. onQR receives every pairing payload the engine shows.
// On success the store holds the paired credentials and its serialized form
// is returned.
func Pair(ctx context.Context, engine ports.Engine, store ports.CredentialStore, accountID domain.AccountID, onQR func(string)) (string, error) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan ports.EngineEvent, 16)
	handle := func(event ports.EngineEvent) {
		select {
		case events <- event:
		case <-connCtx.Done():
		}
	}

	conn, err := engine.Connect(connCtx, accountID, store, handle)
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("wait for pairing: %w", ctx.Err())
		case event := <-events:
			switch e := event.(type) {
			case ports.CredsUpdate:
				store.Save()
			case ports.ConnectionUpdate:
				switch {
				case e.QR != "":
					if onQR != nil {
						onQR(e.QR)
					}
				case e.State == ports.ConnectionOpen:
					return store.Serialize()
				case e.State == ports.ConnectionClose:
					if e.LastDisconnect != nil && e.LastDisconnect.StatusCode == ports.StatusLoggedOut {
						return "", ErrPairingLoggedOut
					}
					return "", fmt.Errorf("%w: %s", ErrPairingClosed, e.LastDisconnect.Reason())
				}
			}
		}
	}
}
