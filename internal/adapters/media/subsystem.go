package media

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

// VoiceSession is implemented by sessions able to open a media connection.
type VoiceSession interface {
	ChannelOf(tenant domain.TenantID, participant domain.ParticipantID) (domain.ChannelID, bool)
	JoinVoice(ctx context.Context, tenant domain.TenantID, channel domain.ChannelID) error
}

type queueKey struct {
	session domain.SessionID
	tenant  domain.TenantID
}

// Subsystem joins the requesting participant's channel on the routed session
// when it is not connected yet, then queues the command there.
type Subsystem struct {
	logger *slog.Logger

	mu     sync.Mutex
	queues map[queueKey][]domain.Command
}

var _ ports.MediaSubsystem = (*Subsystem)(nil)

func NewSubsystem(logger *slog.Logger) *Subsystem {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subsystem{
		logger: logger.With("component", "media"),
		queues: map[queueKey][]domain.Command{},
	}
}

func (m *Subsystem) Dispatch(ctx context.Context, session ports.Session, cmd domain.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if occupancy, ok := session.Occupancy(cmd.Tenant); !ok || !occupancy.Connected {
		voice, ok := session.(VoiceSession)
		if !ok {
			return fmt.Errorf("session %s cannot open media connections", session.Name())
		}
		channel, ok := voice.ChannelOf(cmd.Tenant, cmd.Participant)
		if !ok {
			return domain.ErrNotInVoice
		}
		if err := voice.JoinVoice(ctx, cmd.Tenant, channel); err != nil {
			return fmt.Errorf("join voice channel %s: %w", channel, err)
		}
		m.logger.Info("media connection opened", "session_id", session.ID(), "tenant_id", cmd.Tenant, "channel_id", channel)
	}

	m.mu.Lock()
	key := queueKey{session: session.ID(), tenant: cmd.Tenant}
	m.queues[key] = append(m.queues[key], cmd)
	m.mu.Unlock()

	m.logger.Debug("command queued", "request_id", cmd.RequestID, "command", cmd.Name, "session_id", session.ID(), "tenant_id", cmd.Tenant)
	return nil
}

// Queue returns the commands handed to session for tenant, oldest first.
func (m *Subsystem) Queue(session domain.SessionID, tenant domain.TenantID) []domain.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.queues[queueKey{session: session, tenant: tenant}])
}

// Pending counts queued commands across every session.
func (m *Subsystem) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, queue := range m.queues {
		total += len(queue)
	}
	return total
}
