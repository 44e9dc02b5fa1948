package tui

import (
	"fmt"
	"strings"

	"github.com/cloudstrap/cloudstrap/internal/install"
)

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderSteps(&b, m)
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render("cloudstrap install"))

	status := " "
	switch {
	case m.Finished && m.Result.Status == install.Succeeded:
		status += doneStyle.Render("Complete")
	case m.Finished && m.Result.Status == install.Aborted:
		status += warningStyle.Render("Aborted")
	case m.Finished:
		status += failedStyle.Render("Failed")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame))
	}
	b.WriteString(status)
	b.WriteString("\n\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := barWidth * m.Percent / 100
	if filled > barWidth {
		filled = barWidth
	}

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	fmt.Fprintf(b, "  %s %d%%\n", bar, m.Percent)
}

func renderSteps(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Steps"))
	b.WriteString("\n")

	for _, step := range m.Steps {
		var icon string
		var style func(...string) string
		switch {
		case step.Failed:
			icon = crossMark
			style = failedStyle.Render
		case step.Done:
			icon = checkMark
			style = doneStyle.Render
		case step.Active:
			icon = currentSpinner(m.SpinnerFrame)
			style = activeStyle.Render
		default:
			icon = pending
			style = dimStyle.Render
		}
		fmt.Fprintf(b, "    %s %s\n", style(icon), style(step.Label))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	if m.Finished && m.Result.Status == install.Failed {
		label := m.Result.StepLabel
		if label == "" {
			label = "install"
		}
		b.WriteString(failedStyle.Render(fmt.Sprintf("  %s failed, see the install log for details", label)))
		b.WriteString("\n")
		return
	}
	b.WriteString(footerStyle.Render("  q to quit"))
	b.WriteString("\n")
}

func currentSpinner(frame int) string {
	return spinnerFrames[frame%len(spinnerFrames)]
}
