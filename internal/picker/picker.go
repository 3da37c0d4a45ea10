// Package picker is the interactive chooser offered when `go` resolves to
// more than one host and a terminal is attached.
package picker

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/treykane/auth-helper/internal/model"
)

// LineFunc renders one candidate row.
type LineFunc func(model.MatchResult) string

// Model is the bubbletea model for the picker. It keeps every candidate and
// a filtered index into them; chosen stays -1 until enter is pressed on a
// visible row.
type Model struct {
	candidates []model.MatchResult
	lines      []string
	filtered   []int
	sel        int

	filter     textinput.Model
	filterMode bool

	chosen   int
	canceled bool
}

// New builds a picker over candidates. Each row is rendered once with line,
// and the filter matches against that rendered text.
func New(candidates []model.MatchResult, line LineFunc) Model {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.CharLimit = 128
	ti.Width = 40

	m := Model{candidates: candidates, filter: ti, chosen: -1}
	for _, c := range candidates {
		m.lines = append(m.lines, line(c))
	}
	m.applyFilter()
	return m
}

// applyFilter rebuilds the visible rows and keeps the selection in range.
func (m *Model) applyFilter() {
	f := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.filtered = nil
	for i, l := range m.lines {
		if f == "" || strings.Contains(strings.ToLower(l), f) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.sel >= len(m.filtered) {
		m.sel = len(m.filtered) - 1
	}
	if m.sel < 0 {
		m.sel = 0
	}
}

// Init starts no commands; the picker only reacts to keys.
func (m Model) Init() tea.Cmd { return nil }

// Update handles key presses. In filter mode keys edit the filter until
// enter or esc; otherwise j/k move, / filters, enter picks and q quits.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filterMode {
		switch key.String() {
		case "enter", "esc":
			m.filterMode = false
			m.filter.Blur()
			return m, nil
		case "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(key)
		m.applyFilter()
		return m, cmd
	}

	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.canceled = true
		return m, tea.Quit
	case "j", "down":
		if m.sel < len(m.filtered)-1 {
			m.sel++
		}
	case "k", "up":
		if m.sel > 0 {
			m.sel--
		}
	case "/":
		m.filterMode = true
		return m, m.filter.Focus()
	case "enter":
		if len(m.filtered) == 0 {
			break
		}
		m.chosen = m.filtered[m.sel]
		return m, tea.Quit
	}
	return m, nil
}

// View draws the filter line, then one row per visible candidate with the
// cursor row highlighted.
func (m Model) View() string {
	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).
		Render(fmt.Sprintf("%d hosts match, pick one", len(m.candidates)))

	var b strings.Builder
	b.WriteString(head + "\n")
	if m.filterMode || m.filter.Value() != "" {
		b.WriteString(m.filter.View() + "\n")
	}
	b.WriteString("\n")

	cursor := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	for i, idx := range m.filtered {
		if i == m.sel {
			b.WriteString(cursor.Render("> "+m.lines[idx]) + "\n")
			continue
		}
		b.WriteString("  " + m.lines[idx] + "\n")
	}
	if len(m.filtered) == 0 {
		b.WriteString("  (no hosts match filter)\n")
	}

	help := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString("\n" + help.Render("j/k move  / filter  enter connect  q quit") + "\n")
	return b.String()
}

// Choice returns the selected candidate once the program has finished.
func (m Model) Choice() (model.MatchResult, bool) {
	if m.canceled || m.chosen < 0 {
		return model.MatchResult{}, false
	}
	return m.candidates[m.chosen], true
}

// Available reports whether both stdin and stderr are terminals.
func Available() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// Run shows the picker on stderr and blocks until the user chooses or quits.
func Run(ctx context.Context, candidates []model.MatchResult, line LineFunc) (model.MatchResult, bool, error) {
	p := tea.NewProgram(New(candidates, line), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return model.MatchResult{}, false, fmt.Errorf("run picker: %w", err)
	}
	res, ok := final.(Model).Choice()
	return res, ok, nil
}
