package status

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const loadBarWidth = 20

type RenderOptions struct {
	// ShowTenants lists the tenant ids each session holds a media
	// connection in.
	ShowTenants bool
}

func renderView(status domain.PoolStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Voice Pool"),
		s.header.Render(fmt.Sprintf("state: %s  sessions: %d (%d ready)", stateLabel(status.State), len(status.Sessions), status.ReadyCount())),
		s.header.Render(fmt.Sprintf("cached configs: %d  dedup tokens: %d", status.CachedConfigs, status.DedupTokens)),
	}

	if status.State != domain.PoolStateRunning {
		lines = append(lines, s.warning.Render(stateWarning(status.State)))
	}

	if len(status.Sessions) == 0 {
		lines = append(lines, s.empty.Render("No sessions registered."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, session := range status.Sessions {
		lines = append(lines, s.section.Render(renderSession(session, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(session domain.SessionStatus, opts RenderOptions, s styles) string {
	title := s.session.Render(fmt.Sprintf("%s (%s)", session.Name, session.ID))

	readiness := s.warning.Render("not ready")
	if session.Ready {
		readiness = s.ready.Render("ready")
	}
	flags := []string{readiness}
	if session.Public {
		flags = append(flags, s.detail.Render("public"))
	}

	parts := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, title, " ", strings.Join(flags, " ")),
		loadLine(session, s),
	}
	if opts.ShowTenants && len(session.Connected) > 0 {
		parts = append(parts, s.detail.Render("connected in: "+joinTenants(session.Connected)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func loadLine(session domain.SessionStatus, s styles) string {
	percent := 0.0
	if session.Tenants > 0 {
		percent = float64(len(session.Connected)) / float64(session.Tenants) * 100
	}

	meta := lipgloss.NewStyle().Foreground(interpolateColor(100-percent, 0, 100)).
		Render(fmt.Sprintf("%d/%d tenants connected", len(session.Connected), session.Tenants))

	return lipgloss.JoinHorizontal(lipgloss.Top, s.detail.Render("load:"), " ", renderProgressBar(percent, loadBarWidth, s), " ", meta)
}

func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	used := clampPercent(usedPercent)
	filled := int(math.Round(float64(width) * used / 100.0))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func stateLabel(state domain.PoolState) string {
	if state == "" {
		return "unknown"
	}
	return strings.ReplaceAll(string(state), "_", " ")
}

func stateWarning(state domain.PoolState) string {
	switch state {
	case domain.PoolStateRateLimited:
		return "Gateway rate limit hit: new sessions cannot connect until the process restarts."
	case domain.PoolStateTerminating:
		return "Rate limited: the process is restarting."
	default:
		return "Pool state unknown."
	}
}

func joinTenants(tenants []domain.TenantID) string {
	ids := make([]string, 0, len(tenants))
	for _, tenant := range tenants {
		ids = append(ids, tenant.String())
	}
	return strings.Join(ids, ", ")
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	colorCode := int(240.0 + 15.0*normalized)
	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}
