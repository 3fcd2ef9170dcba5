package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bnema/chat-sessiond/internal/adapters/authstate"
	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
	"github.com/bnema/chat-sessiond/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingSink) Emit(event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) snapshot() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

func (r *recordingSink) ofKind(kind domain.EventKind) []domain.Event {
	var out []domain.Event
	for _, event := range r.snapshot() {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}

func (r *recordingSink) kinds() []domain.EventKind {
	events := r.snapshot()
	out := make([]domain.EventKind, 0, len(events))
	for _, event := range events {
		out = append(out, event.Kind)
	}
	return out
}

func (r *recordingSink) waitFor(t *testing.T, kind domain.EventKind, n int) []domain.Event {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.ofKind(kind)) >= n
	}, waitFor, 5*time.Millisecond, "waiting for %d %s event(s), got %v", n, kind, r.kinds())
	return r.ofKind(kind)
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) ports.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, timer := range c.timers {
		if timer.stopped || timer.fired || timer.at.After(c.now) {
			continue
		}
		timer.fired = true
		due = append(due, timer.fn)
	}
	c.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

// fireStopped runs callbacks of timers that were stopped, as if each had
// already fired when Stop was called.
func (c *fakeClock) fireStopped() int {
	c.mu.Lock()
	var due []func()
	for _, timer := range c.timers {
		if timer.stopped && !timer.fired {
			timer.fired = true
			due = append(due, timer.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range due {
		fn()
	}
	return len(due)
}

func (c *fakeClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired {
			n++
		}
	}
	return n
}

type harness struct {
	sup    *Supervisor
	engine *mocks.MockEngine
	sink   *recordingSink
	clock  *fakeClock
	cancel context.CancelFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	engine := mocks.NewMockEngine(t)
	sink := &recordingSink{}
	clock := newFakeClock()
	sup := NewSupervisor(engine, authstate.Opener{Logger: zerolog.Nop()}, sink, clock, SupervisorOptions{
		Logger: zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sup.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-sup.Done()
	})

	h := &harness{sup: sup, engine: engine, sink: sink, clock: clock, cancel: cancel}
	sink.waitFor(t, domain.EventReady, 1)
	return h
}

type connectCall struct {
	auth   ports.AuthState
	handle ports.EventHandler
}

// expectConnect answers every Connect for id with conn and reports each call.
func (h *harness) expectConnect(id domain.AccountID, conn ports.Connection) chan connectCall {
	calls := make(chan connectCall, 8)
	h.engine.EXPECT().
		Connect(mock.Anything, id, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _ domain.AccountID, auth ports.AuthState, handle ports.EventHandler) (ports.Connection, error) {
			calls <- connectCall{auth: auth, handle: handle}
			return conn, nil
		})
	return calls
}

func (h *harness) dispatch(t *testing.T, cmd domain.Command) domain.Result {
	t.Helper()
	results := make(chan domain.Result, 2)
	h.sup.Dispatch(cmd, func(result domain.Result) { results <- result })

	select {
	case result := <-results:
		return result
	case <-time.After(waitFor):
		t.Fatalf("no result for command %s", cmd.ID)
		return domain.Result{}
	}
}

func (h *harness) start(t *testing.T, id domain.AccountID) domain.Result {
	t.Helper()
	return h.dispatch(t, domain.Command{ID: "start-" + string(id), Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: id}})
}

func (h *harness) stop(t *testing.T, id domain.AccountID) domain.Result {
	t.Helper()
	return h.dispatch(t, domain.Command{ID: "stop-" + string(id), Kind: domain.CommandStopAccount, Payload: domain.StopAccount{AccountID: id}})
}

func nextCall(t *testing.T, calls chan connectCall) connectCall {
	t.Helper()
	select {
	case call := <-calls:
		return call
	case <-time.After(waitFor):
		t.Fatal("engine Connect was not called")
		return connectCall{}
	}
}

func assertNoCall(t *testing.T, calls chan connectCall) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected engine Connect")
	case <-time.After(50 * time.Millisecond):
	}
}

// openConnection builds a connection mock whose group fetch returns groups.
func openConnection(t *testing.T, groups []ports.RawGroup) *mocks.MockConnection {
	conn := mocks.NewMockConnection(t)
	conn.EXPECT().FetchGroups(mock.Anything).Return(groups, nil).Maybe()
	conn.EXPECT().Close().Return(nil).Maybe()
	return conn
}

func accountOf(t *testing.T, event domain.Event) domain.AccountID {
	t.Helper()
	switch p := event.Payload.(type) {
	case domain.AccountPayload:
		return p.AccountID
	case domain.DisconnectedPayload:
		return p.AccountID
	case domain.ConnectedPayload:
		return p.AccountID
	case domain.ErrorPayload:
		if p.AccountID == nil {
			return ""
		}
		return *p.AccountID
	default:
		t.Fatalf("unexpected payload %T", event.Payload)
		return ""
	}
}

func strPtr(v string) *string { return &v }
