package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/chat-sessiond/internal/adapters/authstate"
	"github.com/bnema/chat-sessiond/internal/domain"
	"github.com/bnema/chat-sessiond/internal/ports"
	"github.com/bnema/chat-sessiond/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSupervisorEmitsProcessReadyFirst(t *testing.T) {
	h := newHarness(t)

	events := h.sink.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.NewAccountEvent(domain.EventReady, ""), events[0])

	select {
	case <-h.sup.Ready():
	default:
		t.Fatal("Ready channel not closed after the Ready event")
	}
}

func TestStartAccountConnectsThenFetchesGroups(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, []ports.RawGroup{{
		ID:      "120363000000000000@g.us",
		Subject: strPtr("Family"),
		Participants: []ports.RawParticipant{
			{ID: "5511999999999@s.whatsapp.net", Admin: strPtr("admin")},
			{ID: "5511888888888@s.whatsapp.net"},
		},
	}})
	calls := h.expectConnect("a1", conn)

	result := h.start(t, "a1")
	require.True(t, result.Success, "start failed: %v", result.Err)
	assert.Equal(t, "start-a1", result.CommandID)

	call := nextCall(t, calls)
	assert.False(t, call.auth.Creds().Registered)
	call.handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})

	connected := h.sink.waitFor(t, domain.EventConnected, 1)
	assert.Equal(t, domain.ConnectedPayload{AccountID: "a1"}, connected[0].Payload)

	groups := h.sink.waitFor(t, domain.EventGroupsUpsert, 1)
	payload := groups[0].Payload.(domain.GroupsPayload)
	require.Len(t, payload.Groups, 1)
	assert.Len(t, payload.Groups[0].Participants, 2)

	contacts := h.sink.waitFor(t, domain.EventContactsUpsert, 1)
	assert.Len(t, contacts[0].Payload.(domain.ContactsPayload).Contacts, 2)

	assert.Empty(t, h.sink.ofKind(domain.EventQRCode))
	ready := h.sink.ofKind(domain.EventReady)
	require.Len(t, ready, 2)
	assert.Equal(t, domain.AccountID("a1"), accountOf(t, ready[1]))
	conn.AssertCalled(t, "FetchGroups", mock.Anything)
}

func TestStartAccountRejectsLiveAccount(t *testing.T) {
	testCases := []struct {
		name string
		open bool
	}{
		{name: "connecting", open: false},
		{name: "open", open: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			conn := openConnection(t, nil)
			calls := make(chan connectCall, 2)
			h.engine.EXPECT().
				Connect(mock.Anything, domain.AccountID("a1"), mock.Anything, mock.Anything).
				RunAndReturn(func(_ context.Context, _ domain.AccountID, auth ports.AuthState, handle ports.EventHandler) (ports.Connection, error) {
					calls <- connectCall{auth: auth, handle: handle}
					return conn, nil
				}).
				Once()

			require.True(t, h.start(t, "a1").Success)
			call := nextCall(t, calls)
			if tc.open {
				call.handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
				h.sink.waitFor(t, domain.EventConnected, 1)
			}

			result := h.dispatch(t, domain.Command{ID: "dup", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "a1"}})
			assert.False(t, result.Success)
			assert.ErrorIs(t, result.Err, domain.ErrAccountAlreadyStarted)
			assert.Equal(t, "Account already started", result.Payload().Error)

			errs := h.sink.waitFor(t, domain.EventError, 1)
			assert.Equal(t, domain.AccountID("a1"), accountOf(t, errs[0]))
			assertNoCall(t, calls)
		})
	}
}

func TestStartAccountWhileEngineIsStillConnecting(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	h.engine.EXPECT().
		Connect(mock.Anything, domain.AccountID("a1"), mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, domain.AccountID, ports.AuthState, ports.EventHandler) (ports.Connection, error) {
			entered <- struct{}{}
			<-release
			return conn, nil
		}).
		Once()

	first := make(chan domain.Result, 1)
	h.sup.Dispatch(domain.Command{ID: "c1", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "a1"}}, func(r domain.Result) { first <- r })
	<-entered

	second := h.dispatch(t, domain.Command{ID: "c2", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "a1"}})
	assert.ErrorIs(t, second.Err, domain.ErrAccountAlreadyStarted)

	close(release)
	select {
	case result := <-first:
		assert.True(t, result.Success)
	case <-time.After(waitFor):
		t.Fatal("first start never answered")
	}
}

func TestStartAccountConnectFailureRemovesSession(t *testing.T) {
	h := newHarness(t)
	h.engine.EXPECT().
		Connect(mock.Anything, domain.AccountID("a1"), mock.Anything, mock.Anything).
		Return(nil, errors.New("dial failed")).
		Twice()

	first := h.start(t, "a1")
	assert.False(t, first.Success)
	assert.Equal(t, "connect: dial failed", first.Payload().Error)

	second := h.start(t, "a1")
	assert.False(t, second.Success)
	assert.NotErrorIs(t, second.Err, domain.ErrAccountAlreadyStarted)
}

func TestSendMessageRequiresOpenSession(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	h.expectConnect("a1", conn)

	send := domain.Command{ID: "s1", Kind: domain.CommandSendMessage, Payload: domain.SendMessage{AccountID: "a1", To: "123", Content: "x"}}
	result := h.dispatch(t, send)
	assert.False(t, result.Success)
	assert.Equal(t, "Account not connected", result.Payload().Error)

	require.True(t, h.start(t, "a1").Success)
	result = h.dispatch(t, send)
	assert.ErrorIs(t, result.Err, domain.ErrAccountNotConnected)

	assert.Empty(t, h.sink.ofKind(domain.EventError))
	conn.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageDeliversThroughConnection(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	conn.EXPECT().SendText(mock.Anything, "5511999999999@s.whatsapp.net", "hello").Return("MSG-1", nil).Once()
	calls := h.expectConnect("a1", conn)

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	h.sink.waitFor(t, domain.EventConnected, 1)

	result := h.dispatch(t, domain.Command{ID: "s1", Kind: domain.CommandSendMessage, Payload: domain.SendMessage{AccountID: "a1", To: "+55 11 99999-9999", Content: "hello"}})
	require.True(t, result.Success)
	assert.Equal(t, domain.SentMessage{MessageID: "MSG-1"}, result.Data)
}

func TestSendMessageFailureLeavesSessionOpen(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	conn.EXPECT().SendText(mock.Anything, "a@s.whatsapp.net", "first").Return("", errors.New("socket hiccup")).Once()
	conn.EXPECT().SendText(mock.Anything, "a@s.whatsapp.net", "second").Return("MSG-2", nil).Once()
	calls := h.expectConnect("a1", conn)

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	h.sink.waitFor(t, domain.EventConnected, 1)

	failed := h.dispatch(t, domain.Command{ID: "s1", Kind: domain.CommandSendMessage, Payload: domain.SendMessage{AccountID: "a1", To: "a@s.whatsapp.net", Content: "first"}})
	assert.False(t, failed.Success)
	assert.Equal(t, "send message: socket hiccup", failed.Payload().Error)

	errs := h.sink.waitFor(t, domain.EventError, 1)
	assert.Equal(t, domain.NewError("a1", errors.New("send message: socket hiccup")), errs[0])

	ok := h.dispatch(t, domain.Command{ID: "s2", Kind: domain.CommandSendMessage, Payload: domain.SendMessage{AccountID: "a1", To: "a@s.whatsapp.net", Content: "second"}})
	assert.True(t, ok.Success)
	assert.Empty(t, h.sink.ofKind(domain.EventDisconnected))
	assert.Zero(t, h.clock.armed())
}

func TestLogoutDropsCredentialsAndDoesNotReconnect(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	calls := h.expectConnect("a1", conn)

	require.True(t, h.dispatch(t, domain.Command{ID: "auth", Kind: domain.CommandSetAuthState, Payload: domain.SetAuthState{AccountID: "a1", AuthState: registeredBlob(t, "a1")}}).Success)
	require.True(t, h.start(t, "a1").Success)
	call := nextCall(t, calls)
	require.True(t, call.auth.Creds().Registered)

	call.handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	call.handle(ports.ConnectionUpdate{
		State:          ports.ConnectionClose,
		LastDisconnect: &ports.Disconnect{StatusCode: ports.StatusLoggedOut, Err: errors.New("logged out")},
	})

	loggedOut := h.sink.waitFor(t, domain.EventLoggedOut, 1)
	assert.Equal(t, domain.NewAccountEvent(domain.EventLoggedOut, "a1"), loggedOut[0])
	assert.Empty(t, h.sink.ofKind(domain.EventDisconnected))
	assert.Zero(t, h.clock.armed())

	h.clock.Advance(10 * time.Second)
	assertNoCall(t, calls)

	require.True(t, h.start(t, "a1").Success)
	assert.False(t, nextCall(t, calls).auth.Creds().Registered, "cached credentials survived logout")
}

func TestRetryableCloseReconnectsAfterDelay(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, []ports.RawGroup{{ID: "g@g.us"}})
	calls := h.expectConnect("a1", conn)

	require.True(t, h.start(t, "a1").Success)
	first := nextCall(t, calls)
	first.handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	first.handle(ports.ConnectionUpdate{State: ports.ConnectionClose, LastDisconnect: &ports.Disconnect{StatusCode: 428}})

	disconnected := h.sink.waitFor(t, domain.EventDisconnected, 1)
	assert.Equal(t, domain.NewDisconnected("a1", "connection closed with status 428"), disconnected[0])
	require.Eventually(t, func() bool { return h.clock.armed() == 1 }, waitFor, 5*time.Millisecond)

	h.clock.Advance(2900 * time.Millisecond)
	assertNoCall(t, calls)

	h.clock.Advance(100 * time.Millisecond)
	second := nextCall(t, calls)
	h.sink.waitFor(t, domain.EventReady, 3)

	second.handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	h.sink.waitFor(t, domain.EventConnected, 2)
	h.sink.waitFor(t, domain.EventGroupsUpsert, 2)
}

func TestCloseBeforeConnectReturnsKeepsAccountStarted(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	calls := make(chan connectCall, 4)
	attempts := 0
	var mu sync.Mutex
	h.engine.EXPECT().
		Connect(mock.Anything, domain.AccountID("a1"), mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _ domain.AccountID, auth ports.AuthState, handle ports.EventHandler) (ports.Connection, error) {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			if n == 1 {
				handle(ports.ConnectionUpdate{State: ports.ConnectionClose, LastDisconnect: &ports.Disconnect{StatusCode: 515}})
			}
			calls <- connectCall{auth: auth, handle: handle}
			return conn, nil
		})

	result := h.start(t, "a1")
	require.True(t, result.Success, "start failed: %v", result.Err)
	nextCall(t, calls)

	disconnected := h.sink.waitFor(t, domain.EventDisconnected, 1)
	assert.Equal(t, domain.NewDisconnected("a1", "connection closed with status 515"), disconnected[0])
	assert.Equal(t, 1, h.clock.armed())

	h.clock.Advance(3 * time.Second)
	nextCall(t, calls).handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	h.sink.waitFor(t, domain.EventConnected, 1)
}

func TestStopWhileConnectingStillAbortsStart(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	conn := openConnection(t, nil)
	h.engine.EXPECT().
		Connect(mock.Anything, domain.AccountID("a1"), mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, domain.AccountID, ports.AuthState, ports.EventHandler) (ports.Connection, error) {
			<-release
			return conn, nil
		})

	results := make(chan domain.Result, 1)
	h.sup.Dispatch(domain.Command{ID: "s", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "a1"}},
		func(result domain.Result) { results <- result })
	require.True(t, h.stop(t, "a1").Success)
	close(release)

	select {
	case result := <-results:
		assert.ErrorIs(t, result.Err, domain.ErrConnectionAborted)
	case <-time.After(waitFor):
		t.Fatal("start was not answered")
	}
	assert.Zero(t, h.clock.armed())
}

func TestFailedReconnectIsReportedAndRescheduled(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	calls := make(chan connectCall, 4)
	attempts := 0
	var mu sync.Mutex
	h.engine.EXPECT().
		Connect(mock.Anything, domain.AccountID("a1"), mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _ domain.AccountID, auth ports.AuthState, handle ports.EventHandler) (ports.Connection, error) {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			calls <- connectCall{auth: auth, handle: handle}
			if n == 2 {
				return nil, errors.New("network unreachable")
			}
			return conn, nil
		})

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.ConnectionUpdate{State: ports.ConnectionClose})
	h.sink.waitFor(t, domain.EventDisconnected, 1)
	require.Eventually(t, func() bool { return h.clock.armed() == 1 }, waitFor, 5*time.Millisecond)

	h.clock.Advance(3 * time.Second)
	nextCall(t, calls)
	errs := h.sink.waitFor(t, domain.EventError, 1)
	assert.Equal(t, domain.NewError("a1", errors.New("reconnect: connect: network unreachable")), errs[0])
	require.Eventually(t, func() bool { return h.clock.armed() == 1 }, waitFor, 5*time.Millisecond)

	h.clock.Advance(3 * time.Second)
	nextCall(t, calls)
	h.sink.waitFor(t, domain.EventReady, 3)
}

func TestStopAccountCancelsPendingReconnect(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	calls := h.expectConnect("a1", conn)

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.ConnectionUpdate{State: ports.ConnectionClose, LastDisconnect: &ports.Disconnect{StatusCode: 503}})
	h.sink.waitFor(t, domain.EventDisconnected, 1)
	require.Eventually(t, func() bool { return h.clock.armed() == 1 }, waitFor, 5*time.Millisecond)

	result := h.stop(t, "a1")
	require.True(t, result.Success)
	disconnected := h.sink.waitFor(t, domain.EventDisconnected, 2)
	assert.Equal(t, domain.NewDisconnected("a1", domain.ReasonStoppedByUser), disconnected[1])
	assert.Zero(t, h.clock.armed())

	// A callback that was already running when the timer was stopped.
	assert.Equal(t, 1, h.clock.fireStopped())
	h.clock.Advance(10 * time.Second)
	assertNoCall(t, calls)

	assert.ErrorIs(t, h.stop(t, "a1").Err, domain.ErrAccountNotFound)
}

func TestStopAccountTearsDownOpenSession(t *testing.T) {
	h := newHarness(t)
	conn := mocks.NewMockConnection(t)
	conn.EXPECT().FetchGroups(mock.Anything).Return(nil, nil).Maybe()
	closed := make(chan struct{})
	conn.EXPECT().Close().RunAndReturn(func() error {
		close(closed)
		return nil
	}).Once()
	calls := h.expectConnect("a1", conn)

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	h.sink.waitFor(t, domain.EventConnected, 1)

	require.True(t, h.stop(t, "a1").Success)
	select {
	case <-closed:
	case <-time.After(waitFor):
		t.Fatal("connection was not closed")
	}

	disconnected := h.sink.waitFor(t, domain.EventDisconnected, 1)
	assert.Equal(t, domain.NewDisconnected("a1", "stopped by user"), disconnected[0])
	assert.Zero(t, h.clock.armed())

	send := h.dispatch(t, domain.Command{ID: "s1", Kind: domain.CommandSendMessage, Payload: domain.SendMessage{AccountID: "a1", To: "x@s.whatsapp.net"}})
	assert.ErrorIs(t, send.Err, domain.ErrAccountNotConnected)
}

func TestStopAccountUnknown(t *testing.T) {
	h := newHarness(t)

	result := h.stop(t, "ghost")
	assert.False(t, result.Success)
	assert.Equal(t, domain.CommandResultPayload{CommandID: "stop-ghost", Error: "Account not found"}, result.Payload())
	assert.Empty(t, h.sink.ofKind(domain.EventDisconnected))
}

func TestEventsFromReplacedConnectionAreIgnored(t *testing.T) {
	h := newHarness(t)
	conn := openConnection(t, nil)
	calls := h.expectConnect("a1", conn)

	require.True(t, h.start(t, "a1").Success)
	stale := nextCall(t, calls)
	require.True(t, h.stop(t, "a1").Success)
	require.True(t, h.start(t, "a1").Success)
	current := nextCall(t, calls)

	stale.handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	stale.handle(ports.ConnectionUpdate{State: ports.ConnectionClose, LastDisconnect: &ports.Disconnect{StatusCode: ports.StatusLoggedOut}})
	stale.handle(ports.CredsUpdate{})
	current.handle(ports.ConnectionUpdate{QR: "barrier"})
	h.sink.waitFor(t, domain.EventQRCode, 1)

	assert.Empty(t, h.sink.ofKind(domain.EventConnected))
	assert.Empty(t, h.sink.ofKind(domain.EventLoggedOut))
	assert.Empty(t, h.sink.ofKind(domain.EventAuthStateUpdated))
	assert.Len(t, h.sink.ofKind(domain.EventDisconnected), 1)

	current.handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	h.sink.waitFor(t, domain.EventConnected, 1)
}

func TestQRCodeIsForwardedVerbatim(t *testing.T) {
	h := newHarness(t)
	calls := h.expectConnect("a1", openConnection(t, nil))

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.ConnectionUpdate{State: ports.ConnectionConnecting, QR: "2@abc,def,ghi"})

	qr := h.sink.waitFor(t, domain.EventQRCode, 1)
	assert.Equal(t, domain.QRCodePayload{AccountID: "a1", QR: "2@abc,def,ghi"}, qr[0].Payload)
	assert.Empty(t, h.sink.ofKind(domain.EventConnected))
}

func TestCredsUpdateCachesBlobForNextStart(t *testing.T) {
	h := newHarness(t)
	calls := h.expectConnect("a1", openConnection(t, nil))

	require.True(t, h.start(t, "a1").Success)
	call := nextCall(t, calls)
	call.auth.UpdateCreds(func(creds *domain.Credentials) {
		creds.Registered = true
		creds.Me = &domain.Me{ID: "5511999999999:7@s.whatsapp.net"}
	})
	call.auth.Set(ports.KeyRecords{"pre-key": {"1": []byte{1, 2, 3}}})
	call.handle(ports.CredsUpdate{})

	updated := h.sink.waitFor(t, domain.EventAuthStateUpdated, 1)
	payload := updated[0].Payload.(domain.AuthStatePayload)
	assert.Equal(t, domain.AccountID("a1"), payload.AccountID)
	restored, err := authstate.Parse("a1", payload.AuthState)
	require.NoError(t, err)
	assert.True(t, restored.Creds().Registered)
	assert.Equal(t, map[string][]byte{"1": {1, 2, 3}}, restored.Get("pre-key", []string{"1"}))

	call.handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	connected := h.sink.waitFor(t, domain.EventConnected, 1)
	assert.Equal(t, strPtr("5511999999999"), connected[0].Payload.(domain.ConnectedPayload).PhoneNumber)

	require.True(t, h.stop(t, "a1").Success)
	require.True(t, h.start(t, "a1").Success)
	assert.True(t, nextCall(t, calls).auth.Creds().Registered)
}

func TestSetAuthStateWithCorruptBlobFallsBackToFreshCredentials(t *testing.T) {
	h := newHarness(t)
	calls := h.expectConnect("a1", openConnection(t, nil))

	result := h.dispatch(t, domain.Command{ID: "auth", Kind: domain.CommandSetAuthState, Payload: domain.SetAuthState{AccountID: "a1", AuthState: "{not json"}})
	require.True(t, result.Success)

	require.True(t, h.start(t, "a1").Success)
	creds := nextCall(t, calls).auth.Creds()
	assert.False(t, creds.Registered)
	assert.Len(t, creds.NoiseKey.Public, 32)
	assert.Empty(t, h.sink.ofKind(domain.EventError))
}

func TestMessageBatchesAreNormalized(t *testing.T) {
	h := newHarness(t)
	calls := h.expectConnect("a1", openConnection(t, nil))

	require.True(t, h.start(t, "a1").Success)
	call := nextCall(t, calls)
	call.handle(ports.MessagesUpsert{Type: "notify", Messages: []ports.RawMessage{{
		Key:              ports.RawMessageKey{RemoteJID: "5511999999999@s.whatsapp.net", ID: "M1"},
		MessageTimestamp: int64(1700000000),
		Message:          &ports.RawMessageContent{Conversation: strPtr("hi")},
	}}})
	call.handle(ports.MessagesUpsert{Messages: []ports.RawMessage{{Key: ports.RawMessageKey{}}}})
	call.handle(ports.ConnectionUpdate{QR: "barrier"})
	h.sink.waitFor(t, domain.EventQRCode, 1)

	batches := h.sink.ofKind(domain.EventMessagesUpsert)
	require.Len(t, batches, 1, "empty batches must not be emitted")
	payload := batches[0].Payload.(domain.MessagesPayload)
	require.Len(t, payload.Messages, 1)
	msg := payload.Messages[0]
	assert.Equal(t, "hi", *msg.Content)
	assert.Equal(t, domain.MessageText, msg.MessageType)
	assert.False(t, msg.IsFromMe)
	assert.Equal(t, int64(1700000000), msg.Timestamp)
}

func TestHistorySetEmitsContactsMessagesThenCompletion(t *testing.T) {
	h := newHarness(t)
	calls := h.expectConnect("a1", openConnection(t, nil))

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.HistorySet{
		Contacts: []ports.RawContact{{ID: "1@s.whatsapp.net", Name: strPtr("Ana")}},
		Messages: []ports.RawMessage{
			{Key: ports.RawMessageKey{RemoteJID: "1@s.whatsapp.net", ID: "h1"}, MessageTimestamp: "1700000000"},
			{Key: ports.RawMessageKey{RemoteJID: "1@s.whatsapp.net", ID: "h2"}, MessageTimestamp: "garbage"},
		},
		IsLatest: true,
	})

	complete := h.sink.waitFor(t, domain.EventHistorySyncComplete, 1)
	assert.Equal(t, domain.HistorySyncPayload{AccountID: "a1", MessagesCount: 2}, complete[0].Payload)

	kinds := h.sink.kinds()
	require.GreaterOrEqual(t, len(kinds), 3)
	assert.Equal(t, []domain.EventKind{domain.EventContactsUpsert, domain.EventMessagesUpsert, domain.EventHistorySyncComplete}, kinds[len(kinds)-3:])

	messages := h.sink.ofKind(domain.EventMessagesUpsert)[0].Payload.(domain.MessagesPayload).Messages
	assert.Equal(t, h.clock.Now().Unix(), messages[1].Timestamp)
}

func TestGroupUpdatesEmitEmptyParticipants(t *testing.T) {
	h := newHarness(t)
	calls := h.expectConnect("a1", openConnection(t, nil))

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.GroupsUpdate{Groups: []ports.RawGroup{{ID: "g@g.us", Subject: strPtr("renamed")}}})

	updates := h.sink.waitFor(t, domain.EventGroupsUpdate, 1)
	groups := updates[0].Payload.(domain.GroupsPayload).Groups
	require.Len(t, groups, 1)
	assert.Equal(t, []domain.Participant{}, groups[0].Participants)
}

func TestGroupFetchFailureIsReported(t *testing.T) {
	h := newHarness(t)
	conn := mocks.NewMockConnection(t)
	conn.EXPECT().FetchGroups(mock.Anything).Return(nil, errors.New("rate limited")).Once()
	conn.EXPECT().Close().Return(nil).Maybe()
	calls := h.expectConnect("a1", conn)

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls).handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})

	errs := h.sink.waitFor(t, domain.EventError, 1)
	assert.Equal(t, domain.NewError("a1", errors.New("fetch groups: rate limited")), errs[0])
	assert.Empty(t, h.sink.ofKind(domain.EventDisconnected))
}

func TestQueryCommandsAreUnsupported(t *testing.T) {
	h := newHarness(t)

	testCases := []domain.Command{
		{ID: "q1", Kind: domain.CommandGetContacts, Payload: domain.GetContacts{AccountID: "a1"}},
		{ID: "q2", Kind: domain.CommandGetGroups, Payload: domain.GetGroups{AccountID: "a1"}},
		{ID: "q3", Kind: domain.CommandGetMessages, Payload: domain.GetMessages{AccountID: "a1", Limit: 10}},
	}

	for _, cmd := range testCases {
		t.Run(string(cmd.Kind), func(t *testing.T) {
			result := h.dispatch(t, cmd)
			assert.False(t, result.Success)
			assert.ErrorIs(t, result.Err, domain.ErrUnsupportedCommand)
			assert.Equal(t, fmt.Sprintf("command %s is not supported", cmd.Kind), result.Payload().Error)
		})
	}
}

func TestShutdownTearsDownEverySession(t *testing.T) {
	h := newHarness(t)
	connA := openConnection(t, nil)
	connB := openConnection(t, nil)
	callsA := h.expectConnect("a", connA)
	callsB := h.expectConnect("b", connB)
	callsC := h.expectConnect("c", openConnection(t, nil))

	require.True(t, h.start(t, "b").Success)
	require.True(t, h.start(t, "a").Success)
	require.True(t, h.start(t, "c").Success)
	nextCall(t, callsA).handle(ports.ConnectionUpdate{State: ports.ConnectionOpen})
	nextCall(t, callsB)
	nextCall(t, callsC).handle(ports.ConnectionUpdate{State: ports.ConnectionClose})
	h.sink.waitFor(t, domain.EventDisconnected, 1)

	result := h.dispatch(t, domain.Command{ID: "bye", Kind: domain.CommandShutdown, Payload: domain.Shutdown{}})
	require.True(t, result.Success)

	select {
	case <-h.sup.Done():
	case <-time.After(waitFor):
		t.Fatal("supervisor did not stop")
	}

	shutdown := h.sink.ofKind(domain.EventDisconnected)[1:]
	require.Len(t, shutdown, 3)
	for i, id := range []domain.AccountID{"a", "b", "c"} {
		assert.Equal(t, domain.NewDisconnected(id, domain.ReasonShutdown), shutdown[i])
	}
	assert.Zero(t, h.clock.armed())
	connA.AssertCalled(t, "Close")
	connB.AssertCalled(t, "Close")

	late := h.dispatch(t, domain.Command{ID: "late", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "a"}})
	assert.ErrorIs(t, late.Err, domain.ErrSupervisorStopped)
}

func TestContextCancellationTearsDownSessions(t *testing.T) {
	h := newHarness(t)
	calls := h.expectConnect("a1", openConnection(t, nil))

	require.True(t, h.start(t, "a1").Success)
	nextCall(t, calls)

	h.cancel()
	<-h.sup.Done()

	disconnected := h.sink.ofKind(domain.EventDisconnected)
	require.Len(t, disconnected, 1)
	assert.Equal(t, domain.NewDisconnected("a1", domain.ReasonShutdown), disconnected[0])
}

func TestShutdownRunsAfterQueuedCommands(t *testing.T) {
	h := newHarness(t)

	results := make(chan domain.Result, 1)
	h.sup.Dispatch(domain.Command{ID: "auth", Kind: domain.CommandSetAuthState, Payload: domain.SetAuthState{AccountID: "a1", AuthState: "{}"}},
		func(result domain.Result) { results <- result })
	h.sup.Shutdown()

	select {
	case <-h.sup.Done():
	case <-time.After(waitFor):
		t.Fatal("supervisor did not stop")
	}
	result := <-results
	assert.True(t, result.Success)
}

func TestRunRefusesSecondCall(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.sup.Run(context.Background()), ErrAlreadyRunning)
}

func TestEveryCommandIsAnsweredExactlyOnce(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	conn := openConnection(t, nil)
	h.engine.EXPECT().
		Connect(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ domain.AccountID, _ ports.AuthState, _ ports.EventHandler) (ports.Connection, error) {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return conn, nil
		}).
		Maybe()

	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
	)
	commands := []domain.Command{
		{ID: "1", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "a"}},
		{ID: "2", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "a"}},
		{ID: "3", Kind: domain.CommandSendMessage, Payload: domain.SendMessage{AccountID: "a", To: "x"}},
		{ID: "4", Kind: domain.CommandStopAccount, Payload: domain.StopAccount{AccountID: "zz"}},
		{ID: "5", Kind: domain.CommandGetGroups, Payload: domain.GetGroups{AccountID: "a"}},
		{ID: "6", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "b"}},
		{ID: "7", Kind: domain.CommandShutdown, Payload: domain.Shutdown{}},
		{ID: "8", Kind: domain.CommandStartAccount, Payload: domain.StartAccount{AccountID: "c"}},
	}
	wg.Add(len(commands))
	for _, cmd := range commands {
		h.sup.Dispatch(cmd, func(result domain.Result) {
			mu.Lock()
			counts[result.CommandID]++
			mu.Unlock()
			wg.Done()
		})
	}

	<-h.sup.Done()
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for _, cmd := range commands {
		assert.Equal(t, 1, counts[cmd.ID], "command %s", cmd.ID)
	}
}

func registeredBlob(t *testing.T, id domain.AccountID) string {
	t.Helper()
	store, _, err := authstate.Create(id, "")
	require.NoError(t, err)
	store.UpdateCreds(func(creds *domain.Credentials) {
		creds.Registered = true
		creds.Me = &domain.Me{ID: "5511999999999@s.whatsapp.net"}
	})
	blob, err := store.Serialize()
	require.NoError(t, err)
	return blob
}
