package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func TestSessionRunAppliesGatewayState(t *testing.T) {
	t.Parallel()

	handler := newRecordingHandler()
	url := newGatewayServer(t, func(conn *websocket.Conn, r *http.Request) {
		assert.Equal(t, "Bot token-main", r.Header.Get("Authorization"))

		sendFrame(t, conn, FrameReady, readyPayload{SessionID: 9001, Name: "Remote", Tenants: []uint64{1000, 2000, 1000}})
		sendFrame(t, conn, FrameVoiceState, voiceStatePayload{Tenant: 1000, Channel: 77, Participant: 501})
		sendFrame(t, conn, FrameVoiceState, voiceStatePayload{Tenant: 1000, Channel: 77, Self: true})
		sendFrame(t, conn, FrameTenantCreate, tenantPayload{Tenant: 3000})
		sendFrame(t, conn, FrameTenantDelete, tenantPayload{Tenant: 2000})
		sendFrame(t, conn, FrameMessageCreate, messagePayload{ID: 1, Tenant: 1000, Channel: 5, Author: 501, Content: "!!play"})
		waitForClose(conn)
	})

	session := newTestSession(t, url, handler)
	ctx, cancel := context.WithCancel(context.Background())
	done := runSession(ctx, session)

	select {
	case ev := <-handler.texts:
		assert.Equal(t, domain.TenantID(1000), ev.Tenant)
		assert.Equal(t, "!!play", ev.Content)
	case <-time.After(waitFor):
		t.Fatal("text event not delivered")
	}

	assert.True(t, session.Ready())
	assert.Equal(t, uint64(9001), session.RemoteID())
	assert.Equal(t, "Main", session.Name())
	assert.Equal(t, []domain.TenantID{1000, 3000}, session.Tenants())
	assert.True(t, session.IsMember(3000))
	assert.False(t, session.IsMember(2000))

	occupancy, ok := session.Occupancy(1000)
	require.True(t, ok)
	assert.Equal(t, domain.ChannelID(77), occupancy.Channel)
	assert.True(t, occupancy.Has(501))

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, session.Ready())
}

func TestSessionRunDeliversInteractions(t *testing.T) {
	t.Parallel()

	handler := newRecordingHandler()
	url := newGatewayServer(t, func(conn *websocket.Conn, _ *http.Request) {
		sendFrame(t, conn, FrameReady, readyPayload{SessionID: 1, Tenants: []uint64{1000}})
		sendFrame(t, conn, FrameInteractionCreate, interactionPayload{
			ID: 2, Tenant: 1000, Author: 501, Kind: "command", Name: "Skip",
			Options: map[string]string{"count": "2"}, RequireExistingSession: true,
		})
		waitForClose(conn)
	})

	session := newTestSession(t, url, handler)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runSession(ctx, session)

	select {
	case ev := <-handler.interactions:
		assert.Equal(t, domain.EventKindCommand, ev.Kind)
		assert.Equal(t, "Skip", ev.Name)
		assert.Equal(t, "2", ev.Options["count"])
		assert.True(t, ev.Route.RequireExistingSession)
		assert.False(t, ev.Route.OnlyAmongConnected)
	case <-time.After(waitFor):
		t.Fatal("interaction not delivered")
	}
}

func TestSessionRunClassifiesCloseCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code int
		want error
	}{
		{name: "rate limited", code: CloseRateLimited, want: domain.ErrRateLimited},
		{name: "authentication failed", code: CloseAuthenticationFailed, want: domain.ErrAuthenticationFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			url := newGatewayServer(t, func(conn *websocket.Conn, _ *http.Request) {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(tc.code, "rejected"))
				waitForClose(conn)
			})

			err := newTestSession(t, url, nil).Run(context.Background())
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSessionRunOtherCloseIsPlainError(t *testing.T) {
	t.Parallel()

	url := newGatewayServer(t, func(conn *websocket.Conn, _ *http.Request) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom"))
		waitForClose(conn)
	})

	err := newTestSession(t, url, nil).Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRateLimited)
	assert.NotErrorIs(t, err, context.Canceled)
}

func TestSessionRunHandshakeRateLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	err := newTestSession(t, wsURL(server.URL), nil).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestSessionJoinVoiceSendsFrameAndClaimsChannel(t *testing.T) {
	t.Parallel()

	received := make(chan frame, 1)
	url := newGatewayServer(t, func(conn *websocket.Conn, _ *http.Request) {
		sendFrame(t, conn, FrameReady, readyPayload{SessionID: 1, Tenants: []uint64{1000}})
		sendFrame(t, conn, FrameVoiceState, voiceStatePayload{Tenant: 1000, Channel: 42, Participant: 501})
		_, data, err := conn.ReadMessage()
		if err == nil {
			var msg frame
			if json.Unmarshal(data, &msg) == nil {
				received <- msg
			}
		}
		waitForClose(conn)
	})

	session := newTestSession(t, url, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runSession(ctx, session)

	require.Eventually(t, func() bool {
		_, ok := session.ChannelOf(1000, 501)
		return session.Ready() && ok
	}, waitFor, 10*time.Millisecond)

	channel, _ := session.ChannelOf(1000, 501)
	require.NoError(t, session.JoinVoice(ctx, 1000, channel))

	occupancy, ok := session.Occupancy(1000)
	require.True(t, ok)
	assert.True(t, occupancy.Has(501))

	select {
	case msg := <-received:
		assert.Equal(t, FrameVoiceJoin, msg.Type)
		var payload voiceJoinPayload
		require.NoError(t, json.Unmarshal(msg.Data, &payload))
		assert.Equal(t, voiceJoinPayload{Tenant: 1000, Channel: 42}, payload)
	case <-time.After(waitFor):
		t.Fatal("voice join not received")
	}
}

func TestSessionJoinVoiceRequiresConnection(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, "ws://127.0.0.1:1/ws", nil)
	err := session.JoinVoice(context.Background(), 1000, 42)
	require.Error(t, err)
	_, ok := session.Occupancy(1000)
	assert.False(t, ok)
}

func TestNewSessionValidatesOptions(t *testing.T) {
	t.Parallel()

	_, err := NewSession(Options{Name: "Main", Token: "t", URL: "ws://x"}, nil, nil)
	require.Error(t, err)
	_, err = NewSession(Options{ID: 1, Name: "Main", URL: "ws://x"}, nil, nil)
	require.Error(t, err)
	_, err = NewSession(Options{ID: 1, Name: "Main", Token: "t"}, nil, nil)
	require.Error(t, err)

	session, err := NewSession(Options{ID: 1, Name: "Main", Token: "t", URL: "ws://x", Prefix: "?", Public: true}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "?", session.DefaultPrefix())
	assert.True(t, session.Public())
	assert.NotEmpty(t, session.ConnID())
	assert.False(t, session.Ready())
}

func newTestSession(t *testing.T, url string, handler Handler) *Session {
	t.Helper()

	session, err := NewSession(Options{ID: 1, Name: "Main", Token: "token-main", URL: url, HandshakeTimeout: time.Second}, handler, nil)
	require.NoError(t, err)
	return session
}

func runSession(ctx context.Context, session *Session) <-chan error {
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()
	return done
}

func newGatewayServer(t *testing.T, serve func(conn *websocket.Conn, r *http.Request)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn, r)
	}))
	t.Cleanup(server.Close)

	return wsURL(server.URL)
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func sendFrame(t *testing.T, conn *websocket.Conn, frameType string, payload any) {
	t.Helper()

	data, err := encodeFrame(frameType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// waitForClose blocks until the client goes away.
func waitForClose(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type recordingHandler struct {
	texts        chan domain.TextEvent
	interactions chan domain.InteractionEvent
	mu           sync.Mutex
	origins      []ports.Session
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		texts:        make(chan domain.TextEvent, 8),
		interactions: make(chan domain.InteractionEvent, 8),
	}
}

func (h *recordingHandler) HandleText(_ context.Context, origin ports.Session, ev domain.TextEvent) error {
	h.mu.Lock()
	h.origins = append(h.origins, origin)
	h.mu.Unlock()
	h.texts <- ev
	return nil
}

func (h *recordingHandler) HandleInteraction(_ context.Context, origin ports.Session, ev domain.InteractionEvent) error {
	h.mu.Lock()
	h.origins = append(h.origins, origin)
	h.mu.Unlock()
	h.interactions <- ev
	return nil
}
