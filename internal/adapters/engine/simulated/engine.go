// Package simulated is an in-process engine. It pairs an unregistered account
// through a QR challenge, echoes sent messages back as upserts, and serves a
// fixed group list. It backs local runs and end-to-end tests of the
// supervisor; it never touches the network.
package simulated

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultPairingDelay = 2 * time.Second

var ErrConnectionClosed = errors.New("connection closed")

type Options struct {
	Logger       zerolog.Logger
	PairingDelay time.Duration
	Groups       []ports.RawGroup
}

type Engine struct {
	log          zerolog.Logger
	pairingDelay time.Duration
	groups       []ports.RawGroup
}

var _ ports.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	if opts.PairingDelay < 0 {
		opts.PairingDelay = 0
	}
	return &Engine{
		log:          opts.Logger.With().Str("component", "engine").Logger(),
		pairingDelay: opts.PairingDelay,
		groups:       opts.Groups,
	}
}

func (e *Engine) Connect(ctx context.Context, accountID domain.AccountID, auth ports.AuthState, handle ports.EventHandler) (ports.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	connCtx, cancel := context.WithCancel(ctx)
	conn := &connection{
		engine:    e,
		accountID: accountID,
		auth:      auth,
		handle:    handle,
		ctx:       connCtx,
		cancel:    cancel,
	}
	go conn.handshake()
	return conn, nil
}

type connection struct {
	engine    *Engine
	accountID domain.AccountID
	auth      ports.AuthState
	handle    ports.EventHandler
	ctx       context.Context
	cancel    context.CancelFunc

	mu     sync.Mutex
	closed bool
}

var _ ports.Connection = (*connection)(nil)

func (c *connection) handshake() {
	log := c.engine.log.With().Str("account_id", string(c.accountID)).Logger()
	c.deliver(ports.ConnectionUpdate{State: ports.ConnectionConnecting})

	if !c.auth.Creds().Registered {
		qr := pairingCode(c.auth.Creds())
		log.Debug().Msg("waiting for QR pairing")
		c.deliver(ports.ConnectionUpdate{State: ports.ConnectionConnecting, QR: qr})

		timer := time.NewTimer(c.engine.pairingDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			return
		}

		if err := c.register(); err != nil {
			log.Error().Err(err).Msg("pairing failed")
			c.deliver(ports.ConnectionUpdate{
				State:          ports.ConnectionClose,
				LastDisconnect: &ports.Disconnect{Err: fmt.Errorf("pairing: %w", err)},
			})
			return
		}
		c.deliver(ports.CredsUpdate{})
	}

	c.deliver(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	log.Debug().Msg("connection open")
}

// register stores what a successful pairing leaves behind: the device
// identity and a first batch of one-time pre-keys.
func (c *connection) register() error {
	keys := make(map[string][]byte, 4)
	for i := 1; i <= 4; i++ {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("generate pre-key: %w", err)
		}
		keys[fmt.Sprint(i)] = key
	}
	c.auth.Set(ports.KeyRecords{"pre-key": keys})

	name := "sessiond " + string(c.accountID)
	c.auth.UpdateCreds(func(creds *domain.Credentials) {
		creds.Registered = true
		creds.Me = &domain.Me{ID: phoneNumber(c.accountID) + ":1@s.whatsapp.net", Name: &name}
		creds.Platform = "simulated"
		creds.NextPreKeyID = 5
		creds.FirstUnuploadedPreKeyID = 5
	})
	return nil
}

func (c *connection) SendText(ctx context.Context, to string, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.isClosed() {
		return "", ErrConnectionClosed
	}

	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:20]
	c.deliver(ports.MessagesUpsert{
		Type: "append",
		Messages: []ports.RawMessage{{
			Key:              ports.RawMessageKey{RemoteJID: to, FromMe: true, ID: id},
			MessageTimestamp: time.Now().Unix(),
			Message:          &ports.RawMessageContent{Conversation: &text},
		}},
	})
	return id, nil
}

func (c *connection) FetchGroups(ctx context.Context) ([]ports.RawGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	return append([]ports.RawGroup(nil), c.engine.groups...), nil
}

func (c *connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()
	return nil
}

func (c *connection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed || c.ctx.Err() != nil
}

func (c *connection) deliver(event ports.EngineEvent) {
	if c.isClosed() {
		return
	}
	c.handle(event)
}

// pairingCode renders the QR payload: ref, noise key, identity key and adv
// secret, comma separated.
func pairingCode(creds domain.Credentials) string {
	return strings.Join([]string{
		"2@" + uuid.NewString(),
		base64.StdEncoding.EncodeToString(creds.NoiseKey.Public),
		base64.StdEncoding.EncodeToString(creds.SignedIdentityKey.Public),
		creds.AdvSecretKey,
	}, ",")
}

// phoneNumber derives a stable fake number so reruns pair to the same JID.
func phoneNumber(accountID domain.AccountID) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(accountID))
	return fmt.Sprintf("1555%08d", h.Sum64()%100_000_000)
}
