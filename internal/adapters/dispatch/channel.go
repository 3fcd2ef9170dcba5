// Package dispatch carries the host protocol: one JSON command per inbound
// line, one JSON event per outbound line.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultMaxLineBytes = 16 * 1024 * 1024

// Dispatcher is the command handler side of the channel.
type Dispatcher interface {
	Dispatch(cmd domain.Command, reply func(domain.Result))
	Done() <-chan struct{}
}

type Options struct {
	Logger       zerolog.Logger
	MaxLineBytes int
	// NewID generates outbound event ids. Defaults to random UUIDs.
	NewID func() string
	Now   func() time.Time
}

type Channel struct {
	in      io.Reader
	out     io.Writer
	log     zerolog.Logger
	maxLine int
	newID   func() string
	now     func() time.Time

	writeMu sync.Mutex
	pending *pendingSet
}

var _ ports.EventSink = (*Channel)(nil)

func NewChannel(in io.Reader, out io.Writer, opts Options) *Channel {
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = DefaultMaxLineBytes
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Channel{
		in:      in,
		out:     out,
		log:     opts.Logger.With().Str("component", "dispatch").Logger(),
		maxLine: opts.MaxLineBytes,
		newID:   opts.NewID,
		now:     opts.Now,
		pending: newPendingSet(),
	}
}

// Emit writes one event line. Safe for concurrent use.
func (c *Channel) Emit(event domain.Event) error {
	line, err := json.Marshal(outbound{ID: c.newID(), Type: event.Kind, Payload: event.Payload})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Kind, err)
	}
	line = append(line, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.out.Write(line); err != nil {
		return fmt.Errorf("write %s event: %w", event.Kind, err)
	}
	return nil
}

// Pending lists accepted commands still waiting for their result, oldest
// first.
func (c *Channel) Pending() []PendingCommand {
	return c.pending.list()
}

// Serve reads commands until the host closes its end, ctx is cancelled, or
// the dispatcher finishes. Host EOF returns nil.
func (c *Channel) Serve(ctx context.Context, d Dispatcher) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		reader := newLineReader(c.in, c.maxLine)
		for {
			line, err := reader.next()
			if errors.Is(err, ErrLineTooLong) {
				c.reportMalformed(err)
				continue
			}
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			case <-d.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				c.log.Info().Msg("host closed the command stream")
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		case line := <-lines:
			c.handleLine(d, line)
		}
	}
}

func (c *Channel) handleLine(d Dispatcher, line []byte) {
	if len(line) == 0 {
		return
	}

	cmd, err := Decode(line)
	if err != nil && cmd.ID == "" {
		c.reportMalformed(err)
		return
	}

	reply := c.replier(cmd)
	if err != nil {
		c.log.Warn().Err(err).Str("command_id", cmd.ID).Msg("rejecting command")
		reply(domain.Failed(cmd.ID, err))
		return
	}
	d.Dispatch(cmd, reply)
}

// replier tracks cmd as pending and returns its once-only reply function.
func (c *Channel) replier(cmd domain.Command) func(domain.Result) {
	key := c.pending.add(cmd, c.now())
	var answered atomic.Bool

	return func(result domain.Result) {
		if !answered.CompareAndSwap(false, true) {
			c.log.Warn().Str("command_id", cmd.ID).Msg("dropping duplicate command result")
			return
		}
		item, _ := c.pending.settle(key)
		c.log.Debug().
			Str("command_id", cmd.ID).
			Str("type", string(cmd.Kind)).
			Bool("success", result.Success).
			Dur("elapsed", c.now().Sub(item.ReceivedAt)).
			Msg("command settled")

		if err := c.Emit(domain.Event{Kind: domain.EventCommandResult, Payload: result.Payload()}); err != nil {
			c.log.Error().Err(err).Str("command_id", cmd.ID).Msg("write command result")
			if result.Success {
				// The data could not be encoded; the host still gets an answer.
				fallback := domain.Failed(cmd.ID, err).Payload()
				if err := c.Emit(domain.Event{Kind: domain.EventCommandResult, Payload: fallback}); err != nil {
					c.log.Error().Err(err).Str("command_id", cmd.ID).Msg("write fallback command result")
				}
			}
		}
	}
}

func (c *Channel) reportMalformed(err error) {
	c.log.Warn().Err(err).Msg("malformed command line")
	if emitErr := c.Emit(domain.NewError("", err)); emitErr != nil {
		c.log.Error().Err(emitErr).Msg("write error event")
	}
}
