package application

import (
	"context"
	"fmt"

	"github.com/bnema/chat-sessiond/internal/adapters/normalize"
	"github.com/bnema/chat-sessiond/internal/domain"
)

func (s *Supervisor) handle(cmd domain.Command, reply func(domain.Result)) {
	s.log.Debug().Str("command_id", cmd.ID).Str("type", string(cmd.Kind)).Msg("command received")

	switch p := cmd.Payload.(type) {
	case domain.StartAccount:
		s.startAccount(cmd.ID, p, reply)
	case domain.StopAccount:
		s.stopAccount(cmd.ID, p, reply)
	case domain.SetAuthState:
		s.blobs[p.AccountID] = p.AuthState
		reply(domain.Succeeded(cmd.ID, nil))
	case domain.SendMessage:
		s.sendMessage(cmd.ID, p, reply)
	case domain.Shutdown:
		s.teardown(domain.ReasonShutdown)
		s.finishing = true
		reply(domain.Succeeded(cmd.ID, nil))
	case domain.GetContacts, domain.GetGroups, domain.GetMessages:
		reply(domain.Failed(cmd.ID, domain.UnsupportedCommandError{Kind: cmd.Kind}))
	default:
		reply(domain.Failed(cmd.ID, fmt.Errorf("%w: %s", domain.ErrUnknownCommand, cmd.Kind)))
	}
}

func (s *Supervisor) startAccount(commandID string, p domain.StartAccount, reply func(domain.Result)) {
	id := p.AccountID
	if _, ok := s.sessions[id]; ok {
		s.emit(domain.NewError(id, domain.ErrAccountAlreadyStarted))
		reply(domain.Failed(commandID, domain.ErrAccountAlreadyStarted))
		return
	}

	s.cancelRetry(id)
	s.connect(id, func(err error) {
		if err != nil {
			reply(domain.Failed(commandID, err))
			return
		}
		reply(domain.Succeeded(commandID, nil))
	})
}

// stopAccount also accepts an account that is only waiting for a reconnect:
// from the host's side it is still running.
func (s *Supervisor) stopAccount(commandID string, p domain.StopAccount, reply func(domain.Result)) {
	id := p.AccountID
	sess, live := s.sessions[id]
	_, retrying := s.retries[id]
	if !live && !retrying {
		reply(domain.Failed(commandID, domain.ErrAccountNotFound))
		return
	}

	s.cancelRetry(id)
	if live {
		delete(s.sessions, id)
		s.release(id, sess)
	}
	s.emit(domain.NewDisconnected(id, domain.ReasonStoppedByUser))
	reply(domain.Succeeded(commandID, nil))
}

func (s *Supervisor) sendMessage(commandID string, p domain.SendMessage, reply func(domain.Result)) {
	id := p.AccountID
	sess, ok := s.sessions[id]
	if !ok || sess.state != domain.SessionOpen || sess.conn == nil {
		reply(domain.Failed(commandID, domain.ErrAccountNotConnected))
		return
	}

	conn := sess.conn
	to := normalize.JID(p.To)
	s.async(func(ctx context.Context) op {
		messageID, err := conn.SendText(ctx, to, p.Content)
		if err != nil {
			err = fmt.Errorf("send message: %w", err)
			return op{
				run: func() {
					s.emit(domain.NewError(id, err))
					reply(domain.Failed(commandID, err))
				},
				abort: func() { reply(domain.Failed(commandID, err)) },
			}
		}

		result := domain.Succeeded(commandID, domain.SentMessage{MessageID: messageID})
		return op{
			run:   func() { reply(result) },
			abort: func() { reply(result) },
		}
	})
}
