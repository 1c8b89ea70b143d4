package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
	"github.com/mattn/go-shellwords"
)

const DefaultCommandPrefix = "!!"

type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeDispatched Outcome = "dispatched"
)

type DispatcherOptions struct {
	DefaultPrefix string
	// CommandRoutes narrows routing for specific command names.
	CommandRoutes map[string]domain.RouteOptions
	LogCommands   bool
}

// Dispatcher turns inbound gateway events into routed commands: dedup,
// parse, resolve an owner, then hand off to the media subsystem.
type Dispatcher struct {
	router  *Router
	dedup   *DedupSet
	cache   *ConfigCache
	media   ports.MediaSubsystem
	options DispatcherOptions
	logger  *slog.Logger
}

func NewDispatcher(router *Router, dedup *DedupSet, cache *ConfigCache, media ports.MediaSubsystem, options DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if options.DefaultPrefix == "" {
		options.DefaultPrefix = DefaultCommandPrefix
	}

	return &Dispatcher{
		router:  router,
		dedup:   dedup,
		cache:   cache,
		media:   media,
		options: options,
		logger:  logger.With("component", "dispatcher"),
	}
}

// HandleText processes a prefixed text command. Every session in the tenant
// sees the same message, so the first one to acquire the dedup key wins.
func (d *Dispatcher) HandleText(ctx context.Context, origin ports.Session, ev domain.TextEvent) (Outcome, error) {
	if ev.AuthorIsBot || !origin.Ready() {
		return OutcomeIgnored, nil
	}
	content := strings.TrimSpace(ev.Content)
	if content == "" {
		return OutcomeIgnored, nil
	}

	prefix, err := d.prefix(ctx, origin, ev.Tenant)
	if err != nil {
		return OutcomeIgnored, err
	}
	if !strings.HasPrefix(content, prefix) {
		return OutcomeIgnored, nil
	}
	body := strings.TrimSpace(strings.TrimPrefix(content, prefix))
	if body == "" {
		return OutcomeIgnored, nil
	}

	if !d.dedup.TryAcquire(domain.DedupKey{Tenant: ev.Tenant, Channel: ev.Channel, Event: ev.ID}) {
		return OutcomeDuplicate, nil
	}

	words, err := shellwords.Parse(body)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("parse command: %w", err)
	}
	if len(words) == 0 {
		return OutcomeIgnored, nil
	}

	name := strings.ToLower(words[0])
	req := NewWorkRequest(origin, ev.Tenant, ev.Author, domain.EventKindCommand, d.options.CommandRoutes[name])

	return d.dispatch(ctx, req, domain.Command{
		RequestID:   req.ID,
		Name:        name,
		Args:        words[1:],
		Tenant:      ev.Tenant,
		Channel:     ev.Channel,
		Participant: ev.Author,
	})
}

// HandleInteraction routes an interaction. Interactions are delivered to a
// single session, so no dedup key is taken.
func (d *Dispatcher) HandleInteraction(ctx context.Context, origin ports.Session, ev domain.InteractionEvent) (Outcome, error) {
	if !origin.Ready() {
		return OutcomeIgnored, nil
	}

	kind := ev.Kind
	if kind == "" {
		kind = domain.EventKindCommand
	}
	req := NewWorkRequest(origin, ev.Tenant, ev.Author, kind, ev.Route)

	return d.dispatch(ctx, req, domain.Command{
		RequestID:   req.ID,
		Name:        strings.ToLower(ev.Name),
		Args:        optionArgs(ev.Options),
		Tenant:      ev.Tenant,
		Channel:     ev.Channel,
		Participant: ev.Author,
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, req *WorkRequest, cmd domain.Command) (Outcome, error) {
	session, err := d.router.Resolve(req)
	if err != nil {
		return OutcomeIgnored, err
	}

	if d.options.LogCommands {
		d.logger.Info("command routed",
			"request_id", req.ID,
			"command", cmd.Name,
			"tenant_id", cmd.Tenant,
			"origin", req.Origin.Name(),
			"session_id", session.ID(),
			"session_name", session.Name(),
		)
	}

	if err := d.media.Dispatch(ctx, session, cmd); err != nil {
		return OutcomeIgnored, fmt.Errorf("dispatch command %s: %w", cmd.Name, err)
	}
	return OutcomeDispatched, nil
}

// prefix resolves the tenant's prefix, then the origin's own default, then
// the pool default.
func (d *Dispatcher) prefix(ctx context.Context, origin ports.Session, tenant domain.TenantID) (string, error) {
	doc, err := d.cache.Read(ctx, domain.GlobalScope(domain.ConfigKindGuilds), tenant)
	if err != nil {
		return "", fmt.Errorf("resolve prefix: %w", err)
	}
	if prefix := doc.String(domain.PrefixField); prefix != "" {
		return prefix, nil
	}
	if prefixed, ok := origin.(ports.PrefixedSession); ok && prefixed.DefaultPrefix() != "" {
		return prefixed.DefaultPrefix(), nil
	}
	return d.options.DefaultPrefix, nil
}

func optionArgs(options map[string]string) []string {
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, key := range keys {
		args = append(args, key+"="+options[key])
	}
	return args
}
