package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
)

// connect registers id as Connecting and asks the engine for a connection.
// finish runs on the loop once the attempt is settled, or on the attempt's
// goroutine with ErrSupervisorStopped if the loop is gone by then.
func (s *Supervisor) connect(id domain.AccountID, finish func(error)) {
	store, err := s.credentials.Open(id, s.blobs[id])
	if err != nil {
		finish(fmt.Errorf("open auth state: %w", err))
		return
	}

	ctx, cancel := context.WithCancel(s.runCtx)
	sess := &session{
		gen:    s.nextSeq(),
		state:  domain.SessionConnecting,
		store:  store,
		cancel: cancel,
	}
	s.sessions[id] = sess

	gen := sess.gen
	handle := func(event ports.EngineEvent) {
		s.post(op{run: func() { s.onEngineEvent(id, gen, event) }})
	}

	s.log.Info().Str("account_id", string(id)).Uint64("gen", gen).Msg("connecting")
	s.async(func(context.Context) op {
		conn, err := s.engine.Connect(ctx, id, store, handle)
		return op{
			run: func() { s.attach(id, gen, conn, err, finish) },
			abort: func() {
				cancel()
				if conn != nil {
					_ = conn.Close()
				}
				finish(domain.ErrSupervisorStopped)
			},
		}
	})
}

func (s *Supervisor) attach(id domain.AccountID, gen uint64, conn ports.Connection, err error, finish func(error)) {
	sess, ok := s.sessions[id]
	if !ok || sess.gen != gen {
		// Stopped, closed, or replaced while the engine was connecting.
		if conn != nil {
			s.closeConn(id, conn)
		}
		if err == nil && s.retryArmedAfter(id, gen) {
			// A retryable close arrived before Connect returned; the account
			// stays started and reconnects on its own.
			finish(nil)
			return
		}
		if err == nil {
			err = domain.ErrConnectionAborted
		}
		finish(err)
		return
	}

	if err != nil {
		delete(s.sessions, id)
		sess.cancel()
		s.log.Warn().Err(err).Str("account_id", string(id)).Msg("connect failed")
		finish(fmt.Errorf("connect: %w", err))
		return
	}

	sess.conn = conn
	s.emit(domain.NewAccountEvent(domain.EventReady, id))
	if sess.fetchPending {
		sess.fetchPending = false
		s.fetchGroups(id, sess)
	}
	finish(nil)
}

func (s *Supervisor) scheduleReconnect(id domain.AccountID) {
	s.cancelRetry(id)

	token := s.nextSeq()
	timer := s.clock.AfterFunc(s.reconnectDelay, func() {
		s.post(op{run: func() { s.reconnect(id, token) }})
	})
	s.retries[id] = &retry{token: token, timer: timer}
	s.log.Info().Str("account_id", string(id)).Dur("delay", s.reconnectDelay).Msg("reconnect scheduled")
}

// retryArmedAfter reports whether the pending retry for id was scheduled by
// the session of generation gen or a later one.
func (s *Supervisor) retryArmedAfter(id domain.AccountID, gen uint64) bool {
	r, ok := s.retries[id]
	return ok && r.token > gen
}

func (s *Supervisor) cancelRetry(id domain.AccountID) {
	if r, ok := s.retries[id]; ok {
		r.timer.Stop()
		delete(s.retries, id)
	}
}

// reconnect runs when a retry timer fires. A timer that was cancelled or
// superseded after it fired finds a different token and does nothing.
func (s *Supervisor) reconnect(id domain.AccountID, token uint64) {
	r, ok := s.retries[id]
	if !ok || r.token != token {
		return
	}
	delete(s.retries, id)
	if _, live := s.sessions[id]; live {
		return
	}

	s.connect(id, func(err error) {
		if err == nil || errors.Is(err, domain.ErrSupervisorStopped) || errors.Is(err, domain.ErrConnectionAborted) {
			return
		}
		s.emit(domain.NewError(id, fmt.Errorf("reconnect: %w", err)))
		if _, live := s.sessions[id]; !live {
			s.scheduleReconnect(id)
		}
	})
}
