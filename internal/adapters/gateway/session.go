package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc"
)

const (
	defaultHandshakeTimeout = 15 * time.Second
	closeWriteTimeout       = time.Second
	maxFrameBytes           = 1 << 20
)

// Handler receives the inbound events a session observes.
type Handler interface {
	HandleText(ctx context.Context, origin ports.Session, ev domain.TextEvent) error
	HandleInteraction(ctx context.Context, origin ports.Session, ev domain.InteractionEvent) error
}

type Options struct {
	// ID is the pool-local identity; it must be unique and stable across
	// reconnects.
	ID               domain.SessionID
	Name             string
	Token            string
	URL              string
	Prefix           string
	Public           bool
	HandshakeTimeout time.Duration
}

// Session is one bot connection to the websocket gateway. State is built
// from inbound frames and guarded by mu; writes are serialized by writeMu.
type Session struct {
	opts    Options
	connID  string
	handler Handler
	logger  *slog.Logger
	dialer  *websocket.Dialer

	mu       sync.RWMutex
	ready    bool
	remoteID uint64
	name     string
	tenants  []domain.TenantID
	voice    map[domain.TenantID]*domain.VoiceStates

	writeMu sync.Mutex
	conn    *websocket.Conn
}

var (
	_ ports.Session         = (*Session)(nil)
	_ ports.PrefixedSession = (*Session)(nil)
)

func NewSession(opts Options, handler Handler, logger *slog.Logger) (*Session, error) {
	if opts.ID == 0 {
		return nil, errors.New("session id is required")
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("session %q: token is empty", opts.Name)
	}
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("gateway url is empty")
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	connID := uuid.NewString()
	return &Session{
		opts:    opts,
		connID:  connID,
		handler: handler,
		logger:  logger.With("component", "gateway", "session_id", opts.ID, "session_name", opts.Name, "conn_id", connID),
		dialer:  &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		name:    opts.Name,
		voice:   map[domain.TenantID]*domain.VoiceStates{},
	}, nil
}

func (s *Session) ID() domain.SessionID {
	return s.opts.ID
}

func (s *Session) ConnID() string {
	return s.connID
}

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Session) Public() bool {
	return s.opts.Public
}

func (s *Session) DefaultPrefix() string {
	return s.opts.Prefix
}

// RemoteID is the identity the gateway reported in READY, zero before that.
func (s *Session) RemoteID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remoteID
}

func (s *Session) Tenants() []domain.TenantID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tenants)
}

func (s *Session) IsMember(tenant domain.TenantID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.tenants, tenant)
}

func (s *Session) Occupancy(tenant domain.TenantID) (domain.Occupancy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states, ok := s.voice[tenant]
	if !ok || states.Self() == 0 {
		return domain.Occupancy{}, false
	}
	return states.Occupancy(), true
}

// ChannelOf returns the voice channel participant sits in, as observed by
// this session.
func (s *Session) ChannelOf(tenant domain.TenantID, participant domain.ParticipantID) (domain.ChannelID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states, ok := s.voice[tenant]
	if !ok {
		return 0, false
	}
	return states.ChannelOf(participant)
}

// JoinVoice asks the gateway to connect this session to channel. The
// session records the channel as its own immediately so concurrent routing
// decisions see the new owner.
func (s *Session) JoinVoice(ctx context.Context, tenant domain.TenantID, channel domain.ChannelID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeFrame(FrameVoiceJoin, voiceJoinPayload{Tenant: uint64(tenant), Channel: uint64(channel)})
	if err != nil {
		return fmt.Errorf("encode voice join: %w", err)
	}
	if err := s.write(data); err != nil {
		return fmt.Errorf("send voice join: %w", err)
	}

	s.mu.Lock()
	s.voiceStates(tenant).SetSelf(channel)
	s.mu.Unlock()
	return nil
}

// Run connects to the gateway and processes frames until the connection
// ends. It returns ctx.Err() on shutdown; rate limiting and authentication
// failures are reported as the matching domain errors.
func (s *Session) Run(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bot "+s.opts.Token)

	conn, resp, err := s.dialer.DialContext(ctx, s.opts.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return classifyDialError(resp, err)
	}
	conn.SetReadLimit(maxFrameBytes)

	s.writeMu.Lock()
	s.conn = conn
	s.writeMu.Unlock()
	s.logger.Info("gateway connected")

	stop := context.AfterFunc(ctx, func() {
		s.closeConn(websocket.CloseNormalClosure, "shutdown")
	})

	var inflight conc.WaitGroup
	defer func() {
		stop()
		s.closeConn(websocket.CloseNormalClosure, "")
		if recovered := inflight.WaitAndRecover(); recovered != nil {
			s.logger.Error("event handler panicked", "panic", recovered.Value, "stack", string(recovered.Stack))
		}
		s.reset()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return classifyReadError(err)
		}

		var msg frame
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("invalid gateway frame", "error", err)
			continue
		}
		s.handleFrame(ctx, msg, &inflight)
	}
}

func (s *Session) handleFrame(ctx context.Context, msg frame, inflight *conc.WaitGroup) {
	switch msg.Type {
	case FrameReady:
		var payload readyPayload
		if !s.decode(msg, &payload) {
			return
		}
		s.applyReady(payload)
		s.logger.Info("session ready", "tenants", len(payload.Tenants))
	case FrameTenantCreate:
		var payload tenantPayload
		if !s.decode(msg, &payload) {
			return
		}
		s.addTenant(domain.TenantID(payload.Tenant))
	case FrameTenantDelete:
		var payload tenantPayload
		if !s.decode(msg, &payload) {
			return
		}
		s.removeTenant(domain.TenantID(payload.Tenant))
	case FrameVoiceState:
		var payload voiceStatePayload
		if !s.decode(msg, &payload) {
			return
		}
		s.applyVoiceState(payload)
	case FrameMessageCreate:
		var payload messagePayload
		if !s.decode(msg, &payload) || s.handler == nil {
			return
		}
		ev := domain.TextEvent{
			ID:          domain.EventID(payload.ID),
			Tenant:      domain.TenantID(payload.Tenant),
			Channel:     domain.ChannelID(payload.Channel),
			Author:      domain.ParticipantID(payload.Author),
			AuthorIsBot: payload.Bot,
			Content:     payload.Content,
		}
		inflight.Go(func() {
			if err := s.handler.HandleText(ctx, s, ev); err != nil {
				s.logger.Warn("text event failed", "tenant_id", ev.Tenant, "event_id", ev.ID, "error", err)
			}
		})
	case FrameInteractionCreate:
		var payload interactionPayload
		if !s.decode(msg, &payload) || s.handler == nil {
			return
		}
		ev := domain.InteractionEvent{
			ID:      domain.EventID(payload.ID),
			Tenant:  domain.TenantID(payload.Tenant),
			Channel: domain.ChannelID(payload.Channel),
			Author:  domain.ParticipantID(payload.Author),
			Kind:    domain.EventKind(payload.Kind),
			Name:    payload.Name,
			Options: payload.Options,
			Route: domain.RouteOptions{
				OnlyAmongConnected:     payload.OnlyAmongConnected,
				RequireExistingSession: payload.RequireExistingSession,
			},
		}
		inflight.Go(func() {
			if err := s.handler.HandleInteraction(ctx, s, ev); err != nil {
				s.logger.Warn("interaction failed", "tenant_id", ev.Tenant, "event_id", ev.ID, "error", err)
			}
		})
	default:
		s.logger.Debug("unhandled gateway frame", "type", msg.Type)
	}
}

func (s *Session) decode(msg frame, target any) bool {
	if err := json.Unmarshal(msg.Data, target); err != nil {
		s.logger.Warn("invalid gateway payload", "type", msg.Type, "error", err)
		return false
	}
	return true
}

func (s *Session) applyReady(payload readyPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remoteID = payload.SessionID
	if s.opts.Name == "" && payload.Name != "" {
		s.name = payload.Name
	}
	s.tenants = s.tenants[:0]
	for _, tenant := range payload.Tenants {
		if !slices.Contains(s.tenants, domain.TenantID(tenant)) {
			s.tenants = append(s.tenants, domain.TenantID(tenant))
		}
	}
	s.ready = true
}

func (s *Session) addTenant(tenant domain.TenantID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.tenants, tenant) {
		s.tenants = append(s.tenants, tenant)
	}
}

func (s *Session) removeTenant(tenant domain.TenantID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tenants = slices.DeleteFunc(s.tenants, func(existing domain.TenantID) bool { return existing == tenant })
	delete(s.voice, tenant)
}

func (s *Session) applyVoiceState(payload voiceStatePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant := domain.TenantID(payload.Tenant)
	states := s.voiceStates(tenant)
	if payload.Self {
		states.SetSelf(domain.ChannelID(payload.Channel))
		return
	}
	states.Set(domain.ParticipantID(payload.Participant), domain.ChannelID(payload.Channel))
}

// voiceStates must be called with mu held for writing.
func (s *Session) voiceStates(tenant domain.TenantID) *domain.VoiceStates {
	states, ok := s.voice[tenant]
	if !ok {
		states = domain.NewVoiceStates()
		s.voice[tenant] = states
	}
	return states
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = false
	s.voice = map[domain.TenantID]*domain.VoiceStates{}
}

func (s *Session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.conn == nil {
		return errors.New("gateway not connected")
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) closeConn(code int, reason string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.conn == nil {
		return
	}
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(closeWriteTimeout))
	_ = s.conn.Close()
	s.conn = nil
}

func classifyDialError(resp *http.Response, err error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("dial gateway: %w", domain.ErrRateLimited)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("dial gateway: %w", domain.ErrAuthenticationFailed)
		}
	}
	return fmt.Errorf("dial gateway: %w", err)
}

func classifyReadError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case CloseRateLimited:
			return fmt.Errorf("gateway closed: %s: %w", closeErr.Text, domain.ErrRateLimited)
		case CloseAuthenticationFailed:
			return fmt.Errorf("gateway closed: %s: %w", closeErr.Text, domain.ErrAuthenticationFailed)
		}
		return fmt.Errorf("gateway closed: %w", err)
	}
	return fmt.Errorf("read gateway frame: %w", err)
}
