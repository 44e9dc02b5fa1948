package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cloudstrap/cloudstrap/internal/install"
)

// StepView is one pipeline step as displayed in the dashboard.
type StepView struct {
	Label   string
	Percent int
	Done    bool
	Active  bool
	Failed  bool
}

// Model is the Bubble Tea model for the install dashboard.
type Model struct {
	Steps   []StepView
	Percent int // last observed progress percent

	// Terminal outcome
	Finished bool
	Result   install.Result
	// SawTerminal records whether a 100% event arrived before the stream
	// closed; closure without it is abnormal.
	SawTerminal bool

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
}

// NewModel creates a dashboard model for the given step list.
func NewModel(steps []install.Step) Model {
	views := make([]StepView, len(steps))
	for i, s := range steps {
		views[i] = StepView{Label: s.Label, Percent: s.Percent}
	}
	return Model{Steps: views}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ProgressMsg:
		m.applyProgress(msg)

	case ResultMsg:
		m.Finished = true
		m.Result = msg.Result
		switch msg.Result.Status {
		case install.Succeeded:
			for i := range m.Steps {
				m.Steps[i].Done = true
				m.Steps[i].Active = false
			}
		case install.Failed:
			m.MarkFailedStep(msg.Result.StepLabel)
		}
		return m, tea.Quit

	case StreamClosedMsg:
		if !m.Finished {
			m.Finished = true
			m.Result = install.Result{Status: install.Failed}
		}
		return m, tea.Quit

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()
	}

	return m, nil
}

// applyProgress marks the step matching the event active and everything
// before it done.
func (m *Model) applyProgress(msg ProgressMsg) {
	m.Percent = msg.Percent
	if msg.Percent == 100 {
		m.SawTerminal = true
	}

	idx := -1
	for i, step := range m.Steps {
		if step.Percent == msg.Percent && step.Label == msg.Message {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	for i := 0; i < idx; i++ {
		m.Steps[i].Done = true
		m.Steps[i].Active = false
	}
	m.Steps[idx].Active = true
}

// MarkFailedStep flags the named step after a Failed result so the view
// can point at it.
func (m *Model) MarkFailedStep(label string) {
	for i := range m.Steps {
		if m.Steps[i].Label == label {
			m.Steps[i].Failed = true
			m.Steps[i].Active = false
		}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
