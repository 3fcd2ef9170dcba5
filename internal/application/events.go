package application

import (
	"context"
	"fmt"

	"github.com/bnema/chat-sessiond/internal/adapters/normalize"
	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
)

func (s *Supervisor) onEngineEvent(id domain.AccountID, gen uint64, event ports.EngineEvent) {
	sess, ok := s.sessions[id]
	if !ok || sess.gen != gen {
		s.log.Debug().Str("account_id", string(id)).Uint64("gen", gen).Msgf("dropping stale %T", event)
		return
	}

	switch e := event.(type) {
	case ports.ConnectionUpdate:
		s.onConnectionUpdate(id, sess, e)
	case ports.CredsUpdate:
		s.onCredsUpdate(id, sess)
	case ports.ContactsUpsert:
		s.emitContacts(domain.EventContactsUpsert, id, normalize.Contacts(e.Contacts))
	case ports.ContactsUpdate:
		s.emitContacts(domain.EventContactsUpdate, id, normalize.Contacts(e.Contacts))
	case ports.GroupsUpsert:
		s.emitGroups(domain.EventGroupsUpsert, id, normalize.Groups(e.Groups))
		s.emitContacts(domain.EventContactsUpsert, id, normalize.ParticipantContacts(e.Groups))
	case ports.GroupsUpdate:
		s.emitGroups(domain.EventGroupsUpdate, id, normalize.GroupUpdates(e.Groups))
		s.emitContacts(domain.EventContactsUpsert, id, normalize.ParticipantContacts(e.Groups))
	case ports.MessagesUpsert:
		s.emitMessages(id, normalize.Messages(e.Messages, s.clock.Now()))
	case ports.HistorySet:
		s.onHistorySet(id, e)
	default:
		s.log.Debug().Str("account_id", string(id)).Msgf("ignoring engine event %T", event)
	}
}

func (s *Supervisor) onConnectionUpdate(id domain.AccountID, sess *session, update ports.ConnectionUpdate) {
	if update.QR != "" {
		s.emit(domain.Event{
			Kind:    domain.EventQRCode,
			Payload: domain.QRCodePayload{AccountID: id, QR: update.QR},
		})
	}

	switch update.State {
	case ports.ConnectionOpen:
		s.onOpen(id, sess)
	case ports.ConnectionClose:
		s.onClose(id, sess, update.LastDisconnect)
	}
}

func (s *Supervisor) onOpen(id domain.AccountID, sess *session) {
	if sess.state == domain.SessionOpen {
		return
	}
	sess.state = domain.SessionOpen

	var phone *string
	if me := sess.store.Creds().Me; me != nil {
		phone = normalize.PhoneNumber(me.ID)
	}
	s.log.Info().Str("account_id", string(id)).Msg("connection open")
	s.emit(domain.Event{
		Kind:    domain.EventConnected,
		Payload: domain.ConnectedPayload{AccountID: id, PhoneNumber: phone},
	})

	if sess.conn == nil {
		sess.fetchPending = true
		return
	}
	s.fetchGroups(id, sess)
}

func (s *Supervisor) onClose(id domain.AccountID, sess *session, cause *ports.Disconnect) {
	delete(s.sessions, id)
	s.release(id, sess)

	if cause != nil && cause.StatusCode == ports.StatusLoggedOut {
		delete(s.blobs, id)
		s.log.Info().Str("account_id", string(id)).Msg("logged out")
		s.emit(domain.NewAccountEvent(domain.EventLoggedOut, id))
		return
	}

	reason := cause.Reason()
	s.log.Info().Str("account_id", string(id)).Str("reason", reason).Msg("connection closed")
	s.emit(domain.NewDisconnected(id, reason))
	s.scheduleReconnect(id)
}

func (s *Supervisor) onCredsUpdate(id domain.AccountID, sess *session) {
	sess.store.Save()
	blob, err := sess.store.Serialize()
	if err != nil {
		s.emit(domain.NewError(id, fmt.Errorf("serialize auth state: %w", err)))
		return
	}

	s.blobs[id] = blob
	s.emit(domain.Event{
		Kind:    domain.EventAuthStateUpdated,
		Payload: domain.AuthStatePayload{AccountID: id, AuthState: blob},
	})
}

func (s *Supervisor) onHistorySet(id domain.AccountID, history ports.HistorySet) {
	messages := normalize.Messages(history.Messages, s.clock.Now())
	s.emitContacts(domain.EventContactsUpsert, id, normalize.Contacts(history.Contacts))
	s.emitMessages(id, messages)
	s.emit(domain.Event{
		Kind:    domain.EventHistorySyncComplete,
		Payload: domain.HistorySyncPayload{AccountID: id, MessagesCount: len(messages)},
	})
}

func (s *Supervisor) fetchGroups(id domain.AccountID, sess *session) {
	conn, gen := sess.conn, sess.gen
	s.async(func(ctx context.Context) op {
		groups, err := conn.FetchGroups(ctx)
		return op{run: func() { s.onGroupsFetched(id, gen, groups, err) }}
	})
}

func (s *Supervisor) onGroupsFetched(id domain.AccountID, gen uint64, groups []ports.RawGroup, err error) {
	if sess, ok := s.sessions[id]; !ok || sess.gen != gen {
		return
	}
	if err != nil {
		s.emit(domain.NewError(id, fmt.Errorf("fetch groups: %w", err)))
		return
	}
	s.emitGroups(domain.EventGroupsUpsert, id, normalize.Groups(groups))
	s.emitContacts(domain.EventContactsUpsert, id, normalize.ParticipantContacts(groups))
}

func (s *Supervisor) emitContacts(kind domain.EventKind, id domain.AccountID, contacts []domain.Contact) {
	if len(contacts) == 0 {
		return
	}
	s.emit(domain.Event{Kind: kind, Payload: domain.ContactsPayload{AccountID: id, Contacts: contacts}})
}

func (s *Supervisor) emitGroups(kind domain.EventKind, id domain.AccountID, groups []domain.Group) {
	if len(groups) == 0 {
		return
	}
	s.emit(domain.Event{Kind: kind, Payload: domain.GroupsPayload{AccountID: id, Groups: groups}})
}

func (s *Supervisor) emitMessages(id domain.AccountID, messages []domain.Message) {
	if len(messages) == 0 {
		return
	}
	s.emit(domain.Event{
		Kind:    domain.EventMessagesUpsert,
		Payload: domain.MessagesPayload{AccountID: id, Messages: messages},
	})
}
