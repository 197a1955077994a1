package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newsgraph/internal/core"
)

// Refiner answers a follow-up query on a finished run.
type Refiner interface {
	Refine(ctx context.Context, runID, query string) (*core.RunState, error)
}

// refinedMsg carries the result of a refine round back into the update loop.
type refinedMsg struct {
	state *core.RunState
	err   error
}

// model is an interactive follow-up session over one finished run: the
// cluster list on the left, the current answer on the right and a query
// line at the bottom.
type model struct {
	ctx      context.Context
	refiner  Refiner
	state    *core.RunState
	input    []rune
	selected int
	width    int
	height   int
	busy     bool
	err      error
	quitting bool
}

func newModel(ctx context.Context, refiner Refiner, state *core.RunState) model {
	return model{
		ctx:     ctx,
		refiner: refiner,
		state:   state,
		width:   100,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case refinedMsg:
		m.busy = false
		m.err = msg.err
		if msg.state != nil {
			m.state = msg.state
			if m.selected >= len(m.state.DraftClusters()) {
				m.selected = 0
			}
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
			}
		case tea.KeyDown:
			if m.selected < len(m.state.DraftClusters())-1 {
				m.selected++
			}
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case tea.KeySpace:
			m.input = append(m.input, ' ')
		case tea.KeyRunes:
			m.input = append(m.input, msg.Runes...)
		case tea.KeyEnter:
			query := strings.TrimSpace(string(m.input))
			if query == "" || m.busy {
				return m, nil
			}
			m.input = nil
			m.busy = true
			m.err = nil
			return m, m.refine(query)
		}
	}

	return m, nil
}

func (m model) refine(query string) tea.Cmd {
	ctx, refiner, runID := m.ctx, m.refiner, m.state.ID
	return func() tea.Msg {
		state, err := refiner.Refine(ctx, runID, query)
		return refinedMsg{state: state, err: err}
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	paneWidth := m.width/2 - 5
	if paneWidth < 20 {
		paneWidth = 20
	}

	docStyle := lipgloss.NewStyle().Margin(1, 2)
	titleStyle := lipgloss.NewStyle().Bold(true)
	paneStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1).Width(paneWidth)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle := lipgloss.NewStyle().Faint(true)

	var list strings.Builder
	list.WriteString(titleStyle.Render("Stories") + "\n\n")
	clusters := m.state.DraftClusters()
	if len(clusters) == 0 {
		list.WriteString(dimStyle.Render("No clusters."))
	}
	for i, c := range clusters {
		cursor := " "
		if i == m.selected {
			cursor = ">"
		}
		fmt.Fprintf(&list, "%s [CID %d] %s\n", cursor, c.ID, headline(c))
	}
	if m.selected < len(clusters) {
		list.WriteString("\n" + dimStyle.Render(clusters[m.selected].Summary))
	}

	var answer strings.Builder
	heading := m.state.Topic
	if m.state.AnsweredQuery != "" {
		heading = m.state.AnsweredQuery
	}
	answer.WriteString(titleStyle.Render(heading) + "\n\n")
	answer.WriteString(m.state.Answer)

	body := lipgloss.JoinHorizontal(lipgloss.Top, paneStyle.Render(list.String()), paneStyle.Render(answer.String()))

	var footer strings.Builder
	footer.WriteString("\n\n")
	switch {
	case m.busy:
		footer.WriteString(dimStyle.Render("Refining..."))
	case m.err != nil:
		footer.WriteString(errStyle.Render(m.err.Error()))
	}
	fmt.Fprintf(&footer, "\n> %s\n", string(m.input))
	footer.WriteString(dimStyle.Render(fmt.Sprintf("[enter] Ask | [↑/↓] Select story | [esc] Quit | round %d", m.state.RefineRounds)))

	return docStyle.Render(body + footer.String())
}

// headline is the title of a cluster's first article.
func headline(c core.Cluster) string {
	if len(c.Articles) == 0 {
		return fmt.Sprintf("%d articles", len(c.Members))
	}
	return c.Articles[0].Title
}

// Start runs the interactive session until the user quits and returns the
// last state it displayed.
func Start(ctx context.Context, refiner Refiner, state *core.RunState) (*core.RunState, error) {
	p := tea.NewProgram(newModel(ctx, refiner, state), tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return state, fmt.Errorf("failed to run session: %w", err)
	}
	if m, ok := final.(model); ok {
		return m.state, nil
	}
	return state, nil
}
