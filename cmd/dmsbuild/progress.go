// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/andonyns/Data-Management-Service/internal/app/pipeline"
	"github.com/andonyns/Data-Management-Service/internal/bootstrap"
	"github.com/andonyns/Data-Management-Service/internal/step"
)

// progressPrinter prints one line as each step starts and finishes.
type progressPrinter struct {
	w io.Writer
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

// StepStarted implements step.Observer.
func (p *progressPrinter) StepStarted(s step.Step, index, total int) {
	fmt.Fprintf(p.w, "%s %s %s\n",
		SubtitleStyle.Render(fmt.Sprintf("[%d/%d]", index+1, total)),
		TitleStyle.Render(s.Name().String()),
		SubtitleStyle.Render(s.Description()))
}

// StepFinished implements step.Observer. Would-run and skipped steps are
// left to the plan and summary.
func (p *progressPrinter) StepFinished(r step.Result, index, total int) {
	switch r.Status {
	case step.StatusSucceeded:
		fmt.Fprintf(p.w, "%s %s %s\n", SuccessStyle.Render("✓"), r.Step, SubtitleStyle.Render(formatDuration(r.Duration)))
	case step.StatusFailed:
		fmt.Fprintf(p.w, "%s %s %s\n", ErrorStyle.Render("✗"), r.Step, SubtitleStyle.Render(formatDuration(r.Duration)))
	}
}

// renderBootstrap reports what the local-build bootstrap did.
func renderBootstrap(w io.Writer, out pipeline.Outcome) {
	b := out.Bootstrap
	switch b.Action {
	case bootstrap.ActionWouldDownload:
		fmt.Fprintf(w, "%s bootstrap\n", WarningStyle.Render("would run"))
		for _, line := range out.BootstrapPlan {
			fmt.Fprintf(w, "    %s\n", CmdStyle.Render(line))
		}
	case bootstrap.ActionDownloaded:
		fmt.Fprintf(w, "%s downloaded %s\n", SuccessStyle.Render("✓"), b.Path)
	default:
		fmt.Fprintf(w, "%s using %s\n", SubtitleStyle.Render("•"), b.Path)
	}
}

// renderPlan lists every would-run step with the actions it would take.
func renderPlan(w io.Writer, run step.RunResult) {
	fmt.Fprintln(w, TitleStyle.Render("Dry run: "+run.Command))
	for _, r := range run.Steps {
		fmt.Fprintf(w, "%s %s %s\n", WarningStyle.Render("would run"), r.Step, SubtitleStyle.Render(r.Description))
		for _, line := range r.Plan {
			fmt.Fprintf(w, "    %s\n", CmdStyle.Render(line))
		}
	}
}

// renderSummary prints the per-step timing table and the total. A dry run
// only gets the verdict line since renderPlan already listed its steps.
func renderSummary(w io.Writer, run step.RunResult) {
	if run.DryRun {
		fmt.Fprintf(w, "\n%s %s: %d steps would run\n", CmdStyle.Render(run.Command), WarningStyle.Render("dry run"), run.Count(step.StatusWouldRun))
		return
	}

	rows := [][]string{{"STEP", "STATUS", "DURATION"}}
	for _, r := range run.Steps {
		duration := "-"
		if r.Status == step.StatusSucceeded || r.Status == step.StatusFailed {
			duration = formatDuration(r.Duration)
		}
		rows = append(rows, []string{r.Step.String(), r.Status.String(), duration})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			style := summaryCellStyle.Width(widths[j] + 2)
			switch {
			case i == 0:
				style = summaryHeaderStyle.Width(widths[j] + 2)
			case j == 1:
				style = style.Foreground(statusColor(run.Steps[i-1].Status))
			}
			cells[j] = style.Render(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	verdict := SuccessStyle.Render("succeeded")
	if !run.Succeeded() {
		verdict = ErrorStyle.Render("failed")
	}
	fmt.Fprintf(&b, "%s %s in %s\n", CmdStyle.Render(run.Command), verdict, formatDuration(run.Duration))
	fmt.Fprint(w, b.String())
}

func statusColor(s step.Status) lipgloss.Color {
	switch s {
	case step.StatusSucceeded:
		return ColorSuccess
	case step.StatusFailed:
		return ColorError
	case step.StatusSkipped, step.StatusWouldRun:
		return ColorWarning
	default:
		return ColorMuted
	}
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
