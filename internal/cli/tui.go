package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dhuston/livingmap/pkg/sim"
)

// Progress bar styles.
var (
	barFilledStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

const barWidth = 40

// progressMsg carries one engine progress report into the TUI.
type progressMsg sim.Progress

// layoutDoneMsg signals the simulation finished.
type layoutDoneMsg struct {
	result sim.Result
	err    error
}

// LayoutProgressModel is the bubbletea model showing live iteration progress
// for `livingmap layout --watch`.
type LayoutProgressModel struct {
	updates <-chan tea.Msg

	iteration  int
	iterations int
	mean       float64
	nodeCount  int

	Result    sim.Result
	Err       error
	Cancelled bool
	done      bool
}

// NewLayoutProgressModel creates a progress model fed by updates.
// The channel must be closed-free: send a layoutDoneMsg to finish.
func NewLayoutProgressModel(nodeCount int, updates <-chan tea.Msg) LayoutProgressModel {
	return LayoutProgressModel{updates: updates, nodeCount: nodeCount}
}

func (m LayoutProgressModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

func (m LayoutProgressModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m LayoutProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Cancelled = true
			return m, tea.Quit
		}
	case progressMsg:
		m.iteration = msg.Iteration
		m.iterations = msg.Iterations
		m.mean = msg.MeanDisplacement
		return m, m.waitForUpdate()
	case layoutDoneMsg:
		m.Result = msg.result
		m.Err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m LayoutProgressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Computing layout"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes", m.nodeCount)))
	b.WriteString("\n\n")

	filled := 0
	if m.iterations > 0 {
		filled = m.iteration * barWidth / m.iterations
	}
	filled = min(filled, barWidth)
	b.WriteString("  ")
	b.WriteString(barFilledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(barEmptyStyle.Render(strings.Repeat("░", barWidth-filled)))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d", m.iteration, m.iterations)))
	b.WriteString("\n\n")

	b.WriteString(StyleDim.Render(fmt.Sprintf("  mean displacement: %.4f", m.mean)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("  q to cancel"))
	b.WriteString("\n")
	return b.String()
}

// runLayoutWithTUI runs the simulation with a live progress display.
// Returns the result, whether the user cancelled, and any engine error.
func runLayoutWithTUI(nodes []sim.Node, edges []sim.Edge, settings sim.Settings) (sim.Result, bool, error) {
	updates := make(chan tea.Msg, 16)
	p := tea.NewProgram(NewLayoutProgressModel(len(nodes), updates))

	go func() {
		res, err := sim.RunWithProgress(nodes, edges, settings, func(pr sim.Progress) {
			select {
			case updates <- progressMsg(pr):
			default: // drop updates rather than stall the engine
			}
		})
		updates <- layoutDoneMsg{result: res, err: err}
	}()

	final, err := p.Run()
	if err != nil {
		return sim.Result{}, false, err
	}
	model := final.(LayoutProgressModel)
	if model.Cancelled {
		return sim.Result{}, true, nil
	}
	return model.Result, false, model.Err
}
