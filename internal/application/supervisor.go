package application

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultQueueSize      = 1024
)

var ErrAlreadyRunning = errors.New("supervisor already running")

type SupervisorOptions struct {
	Logger         zerolog.Logger
	ReconnectDelay time.Duration
	QueueSize      int
}

// op is one unit of work for the run loop. abort answers whatever run would
// have answered when the loop is gone before op gets its turn.
type op struct {
	run   func()
	abort func()
}

type session struct {
	gen          uint64
	state        domain.SessionState
	conn         ports.Connection
	store        ports.CredentialStore
	cancel       context.CancelFunc
	fetchPending bool
}

type retry struct {
	token uint64
	timer ports.Timer
}

// Supervisor owns every account session. All registry state below is touched
// only from the Run goroutine.
type Supervisor struct {
	engine         ports.Engine
	credentials    ports.CredentialOpener
	sink           ports.EventSink
	clock          ports.Clock
	log            zerolog.Logger
	reconnectDelay time.Duration

	ops      chan op
	quit     chan struct{}
	ready    chan struct{}
	done     chan struct{}
	quitOnce sync.Once
	postMu   sync.RWMutex
	closed   bool
	started  bool
	inflight sync.WaitGroup

	runCtx    context.Context
	sessions  map[domain.AccountID]*session
	blobs     map[domain.AccountID]string
	retries   map[domain.AccountID]*retry
	seq       uint64
	finishing bool
}

func NewSupervisor(engine ports.Engine, credentials ports.CredentialOpener, sink ports.EventSink, clock ports.Clock, opts SupervisorOptions) *Supervisor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	return &Supervisor{
		engine:         engine,
		credentials:    credentials,
		sink:           sink,
		clock:          clock,
		log:            opts.Logger.With().Str("component", "supervisor").Logger(),
		reconnectDelay: opts.ReconnectDelay,
		ops:            make(chan op, opts.QueueSize),
		quit:           make(chan struct{}),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
		sessions:       map[domain.AccountID]*session{},
		blobs:          map[domain.AccountID]string{},
		retries:        map[domain.AccountID]*retry{},
	}
}

// Ready is closed once Run has emitted the process-level Ready event.
func (s *Supervisor) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed once Run has returned and every accepted command has been
// answered.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Run drives the registry until a Shutdown command or ctx cancellation, then
// tears every session down. It may be called once.
func (s *Supervisor) Run(ctx context.Context) error {
	s.postMu.Lock()
	if s.started {
		s.postMu.Unlock()
		return ErrAlreadyRunning
	}
	s.started = true
	s.postMu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.runCtx = runCtx

	s.emit(domain.NewAccountEvent(domain.EventReady, ""))
	close(s.ready)
	s.log.Info().Msg("supervisor ready")

	for !s.finishing {
		select {
		case o := <-s.ops:
			s.apply(o)
		case <-ctx.Done():
			s.log.Info().Msg("context cancelled, shutting down")
			s.teardown(domain.ReasonShutdown)
			s.finishing = true
		}
	}

	s.stop()
	cancel()
	s.inflight.Wait()
	close(s.done)
	s.log.Info().Msg("supervisor stopped")
	return nil
}

// Dispatch queues cmd. reply is called exactly once, from whichever goroutine
// settles the command.
func (s *Supervisor) Dispatch(cmd domain.Command, reply func(domain.Result)) {
	o := op{
		run: func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Str("command_id", cmd.ID).Interface("panic", r).Msg("command handler panicked")
					reply(domain.Failed(cmd.ID, fmt.Errorf("%v", r)))
				}
			}()
			s.handle(cmd, reply)
		},
		abort: func() {
			reply(domain.Failed(cmd.ID, domain.ErrSupervisorStopped))
		},
	}
	if !s.post(o) {
		o.abort()
	}
}

// Shutdown queues a teardown behind every command accepted so far. It is how
// host EOF ends a run.
func (s *Supervisor) Shutdown() {
	s.Dispatch(domain.Command{Kind: domain.CommandShutdown, Payload: domain.Shutdown{}}, func(domain.Result) {})
}

func (s *Supervisor) post(o op) bool {
	s.postMu.RLock()
	defer s.postMu.RUnlock()
	if s.closed {
		return false
	}

	select {
	case s.ops <- o:
		return true
	case <-s.quit:
		return false
	}
}

// stop refuses further posts and aborts whatever is still queued.
func (s *Supervisor) stop() {
	s.quitOnce.Do(func() { close(s.quit) })

	s.postMu.Lock()
	s.closed = true
	s.postMu.Unlock()

	for {
		select {
		case o := <-s.ops:
			if o.abort != nil {
				o.abort()
			}
		default:
			return
		}
	}
}

func (s *Supervisor) apply(o op) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("supervisor op panicked")
		}
	}()
	o.run()
}

// async runs work on its own goroutine and posts the continuation it returns
// back to the loop. If the loop is gone the continuation's abort runs instead.
func (s *Supervisor) async(work func(ctx context.Context) op) {
	ctx := s.runCtx
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		next := work(ctx)
		if !s.post(next) && next.abort != nil {
			next.abort()
		}
	}()
}

func (s *Supervisor) emit(event domain.Event) {
	if err := s.sink.Emit(event); err != nil {
		s.log.Error().Err(err).Str("event", string(event.Kind)).Msg("emit event")
	}
}

func (s *Supervisor) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// teardown releases every session and pending reconnect, emitting one
// Disconnected per account.
func (s *Supervisor) teardown(reason string) {
	accounts := map[domain.AccountID]struct{}{}
	for id := range s.sessions {
		accounts[id] = struct{}{}
	}
	for id := range s.retries {
		accounts[id] = struct{}{}
	}

	for _, id := range slices.Sorted(maps.Keys(accounts)) {
		s.cancelRetry(id)
		if sess, ok := s.sessions[id]; ok {
			delete(s.sessions, id)
			s.release(id, sess)
		}
		s.emit(domain.NewDisconnected(id, reason))
	}
}

// release cancels the session context and closes its connection off the
// loop.
func (s *Supervisor) release(id domain.AccountID, sess *session) {
	sess.cancel()
	if sess.conn != nil {
		s.closeConn(id, sess.conn)
	}
}

func (s *Supervisor) closeConn(id domain.AccountID, conn ports.Connection) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := conn.Close(); err != nil {
			s.log.Warn().Err(err).Str("account_id", string(id)).Msg("close connection")
		}
	}()
}
