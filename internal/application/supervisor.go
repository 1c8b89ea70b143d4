package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"
)

const DefaultGraceDelay = 5 * time.Second

// Policy controls how the supervisor reacts to gateway rate limits.
type Policy struct {
	KillOnRateLimit bool
	GraceDelay      time.Duration
}

// Task is a background maintenance loop owned by the supervisor.
type Task func(ctx context.Context) error

// Supervisor owns the registry: it starts sessions, watches them exit and
// applies the restart/kill policy so one failure never affects siblings.
type Supervisor struct {
	registry   *Registry
	terminator ports.Terminator
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	policy Policy
	state  domain.PoolState
}

func NewSupervisor(registry *Registry, terminator ports.Terminator, policy Policy, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.GraceDelay <= 0 {
		policy.GraceDelay = DefaultGraceDelay
	}

	return &Supervisor{
		registry:   registry,
		terminator: terminator,
		logger:     logger.With("component", "supervisor"),
		sleep:      sleepContext,
		policy:     policy,
		state:      domain.PoolStateRunning,
	}
}

// Bootstrap registers sessions in order. An empty pool is fatal.
func (s *Supervisor) Bootstrap(sessions []ports.Session) error {
	for _, session := range sessions {
		if !s.registry.Add(session) {
			s.logger.Warn("duplicate session ignored", "session_id", session.ID(), "session_name", session.Name())
		}
	}

	if s.registry.Len() == 0 {
		return domain.ErrNoSessions
	}

	s.logger.Info("pool bootstrapped", "sessions", s.registry.Len())
	return nil
}

// StartAll runs every registered session concurrently and returns once all
// of them have exited. A panicking session is treated like a failed one.
func (s *Supervisor) StartAll(ctx context.Context) {
	var wg conc.WaitGroup
	for _, session := range s.registry.Snapshot() {
		wg.Go(func() {
			var runErr error
			if recovered := panics.Try(func() { runErr = session.Run(ctx) }); recovered != nil {
				runErr = fmt.Errorf("session panicked: %w", recovered.AsError())
			}
			s.OnSessionTerminated(ctx, session, runErr)
		})
	}
	wg.Wait()
}

// OnSessionTerminated applies the failure policy to a session whose run loop
// exited with cause.
func (s *Supervisor) OnSessionTerminated(ctx context.Context, session ports.Session, cause error) {
	logger := s.logger.With("session_id", session.ID(), "session_name", session.Name())

	switch {
	case cause == nil || errors.Is(cause, context.Canceled):
		logger.Info("session stopped")
	case errors.Is(cause, domain.ErrRateLimited):
		s.handleRateLimit(ctx, logger)
	default:
		removed := s.registry.Remove(session.ID())
		logger.Error("session failed, removed from pool",
			"error", cause.Error(),
			"removed", removed,
			"remaining", s.registry.Len(),
		)
	}
}

func (s *Supervisor) handleRateLimit(ctx context.Context, logger *slog.Logger) {
	s.mu.Lock()
	policy := s.policy

	if !policy.KillOnRateLimit {
		if s.state != domain.PoolStateRunning {
			s.mu.Unlock()
			logger.Debug("rate limit already recorded")
			return
		}
		s.state = domain.PoolStateRateLimited
		s.mu.Unlock()
		logger.Warn("gateway rate limited, session left inert")
		return
	}

	if s.state == domain.PoolStateTerminating {
		s.mu.Unlock()
		return
	}
	s.state = domain.PoolStateTerminating
	s.mu.Unlock()

	logger.Warn("gateway rate limited, terminating process", "grace_delay", policy.GraceDelay.String())
	if err := s.sleep(ctx, policy.GraceDelay); err != nil {
		logger.Info("termination abandoned, shutdown already in progress")
		return
	}
	if err := s.terminator.Terminate(); err != nil {
		logger.Error("terminate process", "error", err.Error())
	}
}

// RunMaintenance runs background tasks until ctx is cancelled or one fails.
func (s *Supervisor) RunMaintenance(ctx context.Context, tasks ...Task) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		group.Go(func() error {
			return task(groupCtx)
		})
	}
	return group.Wait()
}

func (s *Supervisor) SetPolicy(policy Policy) {
	if policy.GraceDelay <= 0 {
		policy.GraceDelay = DefaultGraceDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy
}

func (s *Supervisor) Policy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

func (s *Supervisor) State() domain.PoolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) Status() domain.PoolStatus {
	sessions := s.registry.Snapshot()
	status := domain.PoolStatus{
		State:    s.State(),
		Sessions: make([]domain.SessionStatus, 0, len(sessions)),
	}

	for _, session := range sessions {
		tenants := session.Tenants()
		connected := make([]domain.TenantID, 0)
		for _, tenant := range tenants {
			if occupancy, ok := session.Occupancy(tenant); ok && occupancy.Connected {
				connected = append(connected, tenant)
			}
		}
		status.Sessions = append(status.Sessions, domain.SessionStatus{
			ID:        session.ID(),
			Name:      session.Name(),
			Ready:     session.Ready(),
			Public:    session.Public(),
			Tenants:   len(tenants),
			Connected: connected,
		})
	}

	return status
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
