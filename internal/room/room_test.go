package room

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-budget/internal/notify"
	"github.com/npezzotti/go-budget/internal/stats"
	"github.com/npezzotti/go-budget/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHost(t *testing.T, secret string, idle time.Duration) (*Host, *httptest.Server) {
	h := NewHost(testutil.TestLogger(t), stats.NewPermissiveMock(), secret, time.Hour, idle)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(h.Shutdown)
	return h, srv
}

func dialRoom(t *testing.T, srv *httptest.Server, ownerId, userId int, username string, header http.Header) *websocket.Conn {
	t.Helper()

	if header == nil {
		header = http.Header{}
	}
	header.Set(HeaderUserId, strconv.Itoa(userId))
	header.Set(HeaderUsername, username)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WebSocketPath(ownerId)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err, "failed to dial room")
	t.Cleanup(func() { conn.Close() })

	var frame notify.ControlFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, notify.FrameConnected, frame.Type)
	assert.Equal(t, userId, frame.UserId)

	return conn
}

func postBroadcast(t *testing.T, srv *httptest.Server, ownerId int, body string, header http.Header) (*http.Response, BroadcastResponse) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, srv.URL+BroadcastPath(ownerId), strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out BroadcastResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func assertNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, msg, err := conn.ReadMessage()
	var netErr net.Error
	if assert.ErrorAs(t, err, &netErr, "expected read timeout, got message %q", msg) {
		assert.True(t, netErr.Timeout())
	}
}

func TestServeWebSocket_RequiresIdentity(t *testing.T) {
	_, srv := newTestHost(t, "", time.Minute)

	tcs := []struct {
		name   string
		path   string
		header map[string]string
	}{
		{
			name:   "missing user id",
			path:   WebSocketPath(10),
			header: map[string]string{HeaderUsername: "alice"},
		},
		{
			name:   "invalid user id",
			path:   WebSocketPath(10),
			header: map[string]string{HeaderUserId: "abc", HeaderUsername: "alice"},
		},
		{
			name:   "missing username",
			path:   WebSocketPath(10),
			header: map[string]string{HeaderUserId: "1"},
		},
		{
			name:   "invalid owner",
			path:   "/rooms/zero/websocket",
			header: map[string]string{HeaderUserId: "1", HeaderUsername: "alice"},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			for k, v := range tc.header {
				header.Set(k, v)
			}

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + tc.path
			_, resp, err := websocket.DefaultDialer.Dial(url, header)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRequireSecret(t *testing.T) {
	h, srv := newTestHost(t, "s3cret", time.Minute)

	resp, _ := postBroadcast(t, srv, 10, `{"type":"ping"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set(HeaderSecret, "s3cret")
	resp, out := postBroadcast(t, srv, 10, `{"type":"ping"}`, header)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, out.Sent, "expected no sessions for unloaded room")
	assert.Zero(t, h.RoomCount(), "expected broadcast not to load a room")
}

func TestBroadcast_ExcludesUser(t *testing.T) {
	_, srv := newTestHost(t, "", time.Minute)
	alice := dialRoom(t, srv, 10, 1, "alice", nil)
	bob := dialRoom(t, srv, 10, 2, "bob", nil)

	header := http.Header{}
	header.Set(HeaderExcludeUserId, "1")
	resp, out := postBroadcast(t, srv, 10, `{"type":"memo_created","params":{"content":"hi"}}`, header)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, out.Sent)

	_, msg, err := bob.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"memo_created","params":{"content":"hi"}}`, string(msg))

	assertNoMessage(t, alice)
}

func TestBroadcast_RejectsBadInput(t *testing.T) {
	_, srv := newTestHost(t, "", time.Minute)

	resp, _ := postBroadcast(t, srv, 10, `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	header := http.Header{}
	header.Set(HeaderExcludeUserId, "abc")
	resp, _ = postBroadcast(t, srv, 10, `{}`, header)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoom_DropsClosedSessions(t *testing.T) {
	h, srv := newTestHost(t, "", time.Minute)
	alice := dialRoom(t, srv, 10, 1, "alice", nil)
	dialRoom(t, srv, 10, 2, "bob", nil)

	alice.Close()

	assert.Eventually(t, func() bool {
		sent, err := h.Broadcast(10, []byte(`{"type":"ping"}`), 0)
		return err == nil && sent == 1
	}, 2*time.Second, 20*time.Millisecond, "expected closed session to be dropped")
}

func TestRoom_IgnoresInboundMessages(t *testing.T) {
	h, srv := newTestHost(t, "", time.Minute)
	alice := dialRoom(t, srv, 10, 1, "alice", nil)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","owner":99}`)))

	sent, err := h.Broadcast(10, []byte(`{"type":"todo_created"}`), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	_, msg, err := alice.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"todo_created"}`, string(msg))
	assert.Equal(t, 1, h.RoomCount())
}

func TestRoom_UnloadsWhenIdle(t *testing.T) {
	h, srv := newTestHost(t, "", 50*time.Millisecond)
	alice := dialRoom(t, srv, 10, 1, "alice", nil)
	assert.Equal(t, 1, h.RoomCount())

	alice.Close()

	assert.Eventually(t, func() bool { return h.RoomCount() == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestRoom_Heartbeat(t *testing.T) {
	h := NewHost(testutil.TestLogger(t), stats.NewPermissiveMock(), "", 20*time.Millisecond, time.Minute)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(h.Shutdown)

	alice := dialRoom(t, srv, 10, 1, "alice", nil)

	var frame notify.ControlFrame
	alice.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, alice.ReadJSON(&frame))
	assert.Equal(t, notify.FramePing, frame.Type)
}

func TestHost_Shutdown(t *testing.T) {
	h := NewHost(testutil.TestLogger(t), stats.NewPermissiveMock(), "", time.Hour, time.Minute)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	alice := dialRoom(t, srv, 10, 1, "alice", nil)
	h.Shutdown()

	_, _, err := alice.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "expected going away close, got %v", err)

	_, err = h.Broadcast(10, []byte(`{}`), 0)
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestBroadcaster_Publish(t *testing.T) {
	_, srv := newTestHost(t, "s3cret", time.Minute)
	header := http.Header{}
	header.Set(HeaderSecret, "s3cret")
	alice := dialRoom(t, srv, 10, 1, "alice", header.Clone())
	bob := dialRoom(t, srv, 10, 2, "bob", header.Clone())

	resolver, err := NewResolver([]string{srv.URL})
	require.NoError(t, err)
	b := NewBroadcaster(testutil.TestLogger(t), resolver, "s3cret")

	sent := b.Publish(context.Background(), notify.Event{
		Id:             "per-recipient",
		Type:           notify.TypeMemoCreated,
		Params:         json.RawMessage(`{"content":"hi"}`),
		SourceUsername: "alice",
		SourceUserId:   1,
		BudgetOwnerId:  10,
	}, nil)
	assert.Equal(t, 1, sent)

	_, msg, err := bob.ReadMessage()
	require.NoError(t, err)
	var ev notify.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Empty(t, ev.Id, "expected room frames without per-recipient id")
	assert.Equal(t, notify.TypeMemoCreated, ev.Type)
	assert.Equal(t, "alice", ev.SourceUsername)
	assert.False(t, bytes.Contains(msg, []byte("budget_owner_id")))

	assertNoMessage(t, alice)
}

func TestBroadcaster_HostErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	resolver, err := NewResolver([]string{srv.URL})
	require.NoError(t, err)
	b := NewBroadcaster(testutil.TestLogger(t), resolver, "")

	_, err = b.Broadcast(context.Background(), 10, map[string]string{"type": "ping"}, 0)
	assert.Error(t, err)
	assert.Zero(t, b.Publish(context.Background(), notify.Event{BudgetOwnerId: 10}, nil))
}

func TestResolver(t *testing.T) {
	hosts := []string{"http://room-a:8100", "http://room-b:8100", "http://room-c:8100"}
	r1, err := NewResolver(hosts)
	require.NoError(t, err)
	r2, err := NewResolver([]string{hosts[2], hosts[0], hosts[1]})
	require.NoError(t, err)

	used := map[string]bool{}
	for owner := 1; owner <= 200; owner++ {
		a, b := r1.HostFor(owner), r2.HostFor(owner)
		assert.Equal(t, a.String(), b.String(), "expected host order not to matter for owner %d", owner)
		used[a.Host] = true
	}
	assert.Len(t, used, 3, "expected owners to spread over all hosts")

	reduced, err := NewResolver(hosts[:2])
	require.NoError(t, err)
	for owner := 1; owner <= 200; owner++ {
		if h := r1.HostFor(owner); h.Host != "room-c:8100" {
			assert.Equal(t, h.String(), reduced.HostFor(owner).String(), "expected owner %d to stay put", owner)
		}
	}

	assert.Equal(t, "http://room-a:8100/rooms/7/broadcast", mustResolver(t, hosts[0]).URL(7, BroadcastPath(7)).String())
	assert.Equal(t, "http://room-a:8100/base/rooms/7/websocket", mustResolver(t, hosts[0]+"/base/").URL(7, WebSocketPath(7)).String())

	_, err = NewResolver(nil)
	assert.Error(t, err)
	_, err = NewResolver([]string{"room-a:8100"})
	assert.Error(t, err)
}

func mustResolver(t *testing.T, host string) *Resolver {
	r, err := NewResolver([]string{host})
	require.NoError(t, err)
	return r
}
