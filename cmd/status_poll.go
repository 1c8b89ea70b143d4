package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type statusFetcher func(ctx context.Context) (domain.PoolStatus, error)

type pollResultMsg struct {
	status domain.PoolStatus
	err    error
}

type pollAgainMsg struct{}

// statusPollModel queries the pool once, or with wait set keeps polling
// until at least one session reports ready. Fetch errors end a single
// query but only delay a wait, since the pool may still be starting.
type statusPollModel struct {
	spinner  spinner.Model
	fetch    tea.Cmd
	interval time.Duration
	wait     bool

	status   domain.PoolStatus
	err      error
	attempts int
	done     bool
}

func newStatusPollModel(fetch tea.Cmd, interval time.Duration, wait bool) statusPollModel {
	return statusPollModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("42"))),
		),
		fetch:    fetch,
		interval: interval,
		wait:     wait,
	}
}

func (m statusPollModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch)
}

func (m statusPollModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case pollAgainMsg:
		return m, m.fetch
	case pollResultMsg:
		m.attempts++
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		if !m.wait || (msg.err == nil && msg.status.ReadyCount() > 0) {
			m.done = true
			return m, tea.Quit
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return pollAgainMsg{} })
	default:
		return m, nil
	}
}

func (m statusPollModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.label()
}

func (m statusPollModel) label() string {
	switch {
	case !m.wait:
		return "Querying pool status..."
	case m.attempts == 0:
		return "Waiting for the pool..."
	case m.err != nil:
		return fmt.Sprintf("Waiting for the pool (attempt %d): %v", m.attempts, m.err)
	default:
		return fmt.Sprintf("Waiting for a ready session (%d/%d ready)", m.status.ReadyCount(), len(m.status.Sessions))
	}
}

// pollStatus drives statusPollModel, drawing progress on output. Pass
// io.Discard to poll without any terminal output.
func pollStatus(ctx context.Context, output io.Writer, fetch statusFetcher, interval time.Duration, wait bool) (domain.PoolStatus, error) {
	fetchCmd := func() tea.Msg {
		status, err := fetch(ctx)
		return pollResultMsg{status: status, err: err}
	}

	p := tea.NewProgram(
		newStatusPollModel(fetchCmd, interval, wait),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.PoolStatus{}, fmt.Errorf("wait for pool: %w", ctxErr)
	}
	if err != nil {
		return domain.PoolStatus{}, err
	}

	result, ok := final.(statusPollModel)
	if !ok {
		return domain.PoolStatus{}, fmt.Errorf("unexpected final poll model type %T", final)
	}
	return result.status, result.err
}
