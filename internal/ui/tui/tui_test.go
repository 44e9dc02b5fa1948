package tui

import (
	"strings"
	"testing"

	"github.com/cloudstrap/cloudstrap/internal/install"
)

func testSteps() []install.Step {
	return []install.Step{
		{Percent: 10, Label: "one"},
		{Percent: 30, Label: "two"},
		{Percent: 100, Label: "three"},
	}
}

func TestProgressMarksEarlierStepsDone(t *testing.T) {
	m := NewModel(testSteps())

	updated, _ := m.Update(ProgressMsg{Percent: 30, Message: "two"})
	m = updated.(Model)

	if !m.Steps[0].Done {
		t.Error("step one should be done")
	}
	if !m.Steps[1].Active || m.Steps[1].Done {
		t.Error("step two should be active, not done")
	}
	if m.Steps[2].Done || m.Steps[2].Active {
		t.Error("step three should be pending")
	}
	if m.Percent != 30 {
		t.Errorf("Percent = %d, want 30", m.Percent)
	}
}

func TestTerminalEventRecorded(t *testing.T) {
	m := NewModel(testSteps())

	updated, _ := m.Update(ProgressMsg{Percent: 100, Message: "three"})
	m = updated.(Model)

	if !m.SawTerminal {
		t.Error("100%% event not recorded")
	}
}

func TestSuccessResultCompletesAllSteps(t *testing.T) {
	m := NewModel(testSteps())

	updated, cmd := m.Update(ResultMsg{Result: install.Result{Status: install.Succeeded}})
	m = updated.(Model)

	if !m.Finished {
		t.Error("model not finished")
	}
	for i, s := range m.Steps {
		if !s.Done {
			t.Errorf("step %d not marked done", i)
		}
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestFailedResultMarksStep(t *testing.T) {
	m := NewModel(testSteps())
	updated, _ := m.Update(ProgressMsg{Percent: 30, Message: "two"})
	m = updated.(Model)

	updated, _ = m.Update(ResultMsg{Result: install.Result{Status: install.Failed, StepLabel: "two"}})
	m = updated.(Model)

	if !m.Steps[1].Failed {
		t.Error("failing step not flagged")
	}
	view := m.View()
	if !strings.Contains(view, "two failed") {
		t.Errorf("view does not point at the failing step:\n%s", view)
	}
	if !strings.Contains(view, "install log") {
		t.Error("view should direct the user to the log file")
	}
}

func TestStreamClosureWithoutTerminalIsAbnormal(t *testing.T) {
	m := NewModel(testSteps())
	updated, _ := m.Update(ProgressMsg{Percent: 30, Message: "two"})
	m = updated.(Model)

	updated, _ = m.Update(StreamClosedMsg{})
	m = updated.(Model)

	if !m.Finished {
		t.Error("model not finished after stream closure")
	}
	if m.Result.Status != install.Failed {
		t.Errorf("status = %v, closure without 100%% must read as failure", m.Result.Status)
	}
}

func TestViewShowsProgressBar(t *testing.T) {
	m := NewModel(testSteps())
	updated, _ := m.Update(ProgressMsg{Percent: 30, Message: "two"})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "30%") {
		t.Errorf("view missing percent:\n%s", view)
	}
	if !strings.Contains(view, "one") || !strings.Contains(view, "three") {
		t.Error("view missing step labels")
	}
}
