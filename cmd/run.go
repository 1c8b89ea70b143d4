package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bnema/voicepool/internal/adapters/gateway"
	"github.com/bnema/voicepool/internal/adapters/httpapi"
	mediaadapter "github.com/bnema/voicepool/internal/adapters/media"
	processadapter "github.com/bnema/voicepool/internal/adapters/process"
	chainstore "github.com/bnema/voicepool/internal/adapters/secrets/chain"
	"github.com/bnema/voicepool/internal/application"
	"github.com/bnema/voicepool/internal/config"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/logging"
	"github.com/bnema/voicepool/internal/ports"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var errPoolEmpty = errors.New("every session stopped; pool is empty")

type tokenResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

func newRunCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start every configured session and serve the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := load(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, unix.SIGTERM)
			defer stop()

			resolver, err := chainstore.NewDefaultResolver(app.cfg.Secrets.Backend, app.cfg.Secrets.Dir)
			if err != nil {
				return fmt.Errorf("wire secret resolver: %w", err)
			}
			terminator := processadapter.NewTerminator(app.cfg.Pool.TerminatePID, app.logger)

			return runPool(ctx, app, resolver, terminator)
		},
	}
}

func runPool(ctx context.Context, app *app, resolver tokenResolver, terminator ports.Terminator) error {
	cfg := app.cfg
	logger := app.logger

	store, closeStore, err := app.openConfigStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("close config store", "error", err)
		}
	}()

	registry := application.NewRegistry()
	cache := application.NewConfigCache(store, logger)
	dedup := application.NewDedupSet(cfg.Dedup.Timeout, nil)
	dispatcher := application.NewDispatcher(
		application.NewRouter(registry),
		dedup,
		cache,
		mediaadapter.NewSubsystem(logger),
		application.DispatcherOptions{
			DefaultPrefix: cfg.Commands.DefaultPrefix,
			CommandRoutes: cfg.Commands.RouteOptions(),
			LogCommands:   cfg.Commands.Log,
		},
		logger,
	)

	sessions := buildSessions(ctx, cfg, resolver, dispatchHandler{dispatcher: dispatcher, logger: logger}, logger)
	supervisor := application.NewSupervisor(registry, terminator, policyFrom(cfg), logger)
	if err := supervisor.Bootstrap(sessions); err != nil {
		return err
	}

	server := httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(
		httpapi.NewPoolHandler(application.NewStatusQuery(supervisor, cache, dedup), application.NewConfigService(cache)),
		logger,
	), logger)
	watcher := config.NewWatcher(cfg.File, func(next config.Config) {
		supervisor.SetPolicy(policyFrom(next))
		app.level.Set(logging.ParseLevel(next.Log.Level))
		logger.Info("config reloaded", "kill_on_rate_limit", next.Pool.KillOnRateLimit, "log_level", next.Log.Level)
	}, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg             conc.WaitGroup
		maintenanceErr error
		poolErr        error
	)
	wg.Go(func() {
		maintenanceErr = supervisor.RunMaintenance(runCtx,
			cache.InvalidationTask(cfg.Cache.CleanupInterval),
			dedup.EvictionTask(),
			watcher.Run,
			server.Run,
		)
		cancel()
	})
	wg.Go(func() {
		supervisor.StartAll(runCtx)
		if runCtx.Err() == nil && registry.Len() == 0 {
			poolErr = errPoolEmpty
			cancel()
		}
	})

	logger.Info("pool started", "sessions", registry.Len(), "store", cfg.Store.Driver)
	wg.Wait()
	logger.Info("pool stopped")

	if poolErr != nil {
		return poolErr
	}
	if maintenanceErr != nil && !errors.Is(maintenanceErr, context.Canceled) {
		return fmt.Errorf("pool maintenance: %w", maintenanceErr)
	}
	return nil
}

// buildSessions creates one gateway session per configured entry, in order.
// Entries whose token cannot be resolved are skipped with a warning.
func buildSessions(ctx context.Context, cfg config.Config, resolver tokenResolver, handler gateway.Handler, logger *slog.Logger) []ports.Session {
	sessions := make([]ports.Session, 0, len(cfg.Sessions))
	for i, entry := range cfg.Sessions {
		token := entry.Token
		if token == "" && entry.TokenRef != "" {
			resolved, err := resolver.Resolve(ctx, entry.TokenRef)
			if err != nil {
				logger.Warn("session skipped: token unresolved", "session_name", entry.Name, "error", err)
				continue
			}
			token = resolved
		}
		if token == "" {
			logger.Warn("session skipped: no token", "session_name", entry.Name)
			continue
		}

		session, err := gateway.NewSession(gateway.Options{
			ID:               domain.SessionID(i + 1),
			Name:             entry.Name,
			Token:            token,
			URL:              cfg.Gateway.URL,
			Prefix:           entry.Prefix,
			Public:           entry.Public,
			HandshakeTimeout: cfg.Gateway.HandshakeTimeout,
		}, handler, logger)
		if err != nil {
			logger.Warn("session skipped", "session_name", entry.Name, "error", err)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions
}

// dispatchHandler feeds gateway events to the dispatcher. Routing misses are
// expected traffic and only logged.
type dispatchHandler struct {
	dispatcher *application.Dispatcher
	logger     *slog.Logger
}

func (h dispatchHandler) HandleText(ctx context.Context, origin ports.Session, ev domain.TextEvent) error {
	_, err := h.dispatcher.HandleText(ctx, origin, ev)
	return h.report(ev.Tenant, err)
}

func (h dispatchHandler) HandleInteraction(ctx context.Context, origin ports.Session, ev domain.InteractionEvent) error {
	_, err := h.dispatcher.HandleInteraction(ctx, origin, ev)
	return h.report(ev.Tenant, err)
}

func (h dispatchHandler) report(tenant domain.TenantID, err error) error {
	var unavailable *domain.NoAvailableSessionError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &unavailable):
		names := make([]string, 0, len(unavailable.Invitable))
		for _, ref := range unavailable.Invitable {
			names = append(names, ref.Name)
		}
		h.logger.Info("no session available", "tenant_id", tenant, "invitable", names)
		return nil
	case errors.Is(err, domain.ErrNoRoutingContext), errors.Is(err, domain.ErrNotInVoice):
		h.logger.Debug("event not routed", "tenant_id", tenant, "reason", err.Error())
		return nil
	default:
		return err
	}
}
