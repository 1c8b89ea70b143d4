package status

import (
	"cmp"
	"errors"
	"io"
	"slices"

	"github.com/bnema/voicepool/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final status model type")

// statusPreparedMsg carries a normalized copy of the snapshot: sessions in
// id order and connected tenants sorted, so output is stable across polls.
type statusPreparedMsg struct {
	status domain.PoolStatus
}

type statusModel struct {
	raw      domain.PoolStatus
	opts     RenderOptions
	styles   styles
	rendered string
}

func (m statusModel) Init() tea.Cmd {
	raw := m.raw
	return func() tea.Msg {
		return statusPreparedMsg{status: normalize(raw)}
	}
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	prepared, ok := msg.(statusPreparedMsg)
	if !ok {
		return m, nil
	}
	m.rendered = renderView(prepared.status, m.opts, m.styles)
	return m, tea.Quit
}

func (m statusModel) View() string {
	return m.rendered
}

func normalize(status domain.PoolStatus) domain.PoolStatus {
	sessions := make([]domain.SessionStatus, len(status.Sessions))
	for i, session := range status.Sessions {
		session.Connected = slices.Clone(session.Connected)
		slices.Sort(session.Connected)
		sessions[i] = session
	}
	slices.SortStableFunc(sessions, func(a, b domain.SessionStatus) int {
		return cmp.Compare(a.ID, b.ID)
	})
	status.Sessions = sessions
	return status
}

// Render draws the pool status once and returns the resulting text.
func Render(status domain.PoolStatus, opts RenderOptions) (string, error) {
	program := tea.NewProgram(
		statusModel{raw: status, opts: opts, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	final, err := program.Run()
	if err != nil {
		return "", err
	}
	done, ok := final.(statusModel)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}
	return done.View(), nil
}
