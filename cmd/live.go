package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/monopub/engine/internal/model"
	"github.com/monopub/engine/internal/pipeline"
	"github.com/monopub/engine/internal/ui"
)

// statusMsg carries one package's updated status into the live view.
type statusMsg model.PublishStatus

// doneMsg signals the pipeline run has returned.
type doneMsg struct {
	report *model.PublishReport
	err    error
}

// liveModel renders per-package publish progress while the pipeline runs in
// the background, one line per package, updated in place.
type liveModel struct {
	spinner  spinner.Model
	order    []string
	statuses map[string]model.PublishStatus
	start    time.Time
	done     bool
	result   doneMsg
	updates  <-chan statusMsg
	finished <-chan doneMsg
}

func newLiveModel(names []string, updates <-chan statusMsg, finished <-chan doneMsg) liveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ui.ColorAccent))

	statuses := make(map[string]model.PublishStatus, len(names))
	for _, n := range names {
		statuses[n] = model.PublishStatus{Package: n, Status: model.StatusPending}
	}

	ordered := append([]string{}, names...)
	sort.Strings(ordered)

	return liveModel{
		spinner:  s,
		order:    ordered,
		statuses: statuses,
		start:    time.Now(),
		updates:  updates,
		finished: finished,
	}
}

func (m liveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates), waitForDone(m.finished))
}

func waitForUpdate(ch <-chan statusMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func waitForDone(ch <-chan doneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.statuses[msg.Package] = model.PublishStatus(msg)
		return m, waitForUpdate(m.updates)
	case doneMsg:
		m.done = true
		m.result = msg
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m liveModel) View() string {
	if m.done {
		if m.result.report != nil {
			return ui.RenderReport(m.result.report)
		}
		if m.result.err != nil {
			return ui.ErrorStyle.Render(m.result.err.Error()) + "\n"
		}
		return ""
	}

	out := fmt.Sprintf("%s publishing %d packages (%s)\n", m.spinner.View(), len(m.order), time.Since(m.start).Round(time.Second))
	for _, name := range m.order {
		status := m.statuses[name]
		out += fmt.Sprintf("  %s %s\n", statusGlyph(status.Status), name)
	}
	return out
}

func statusGlyph(status model.Status) string {
	switch status {
	case model.StatusPublished:
		return ui.SuccessStyle.Render("✓")
	case model.StatusFailed:
		return ui.ErrorStyle.Render("✗")
	case model.StatusSkipped:
		return ui.MutedStyle.Render("-")
	case model.StatusPublishing:
		return ui.AccentStyle.Render("●")
	default:
		return ui.MutedStyle.Render("·")
	}
}

// runLive drives the pipeline in the background while rendering liveModel,
// returning the pipeline's final report.
func runLive(ctx context.Context, pl *pipeline.Pipeline, names []string, runOpts pipeline.RunOptions) (*model.PublishReport, error) {
	updates := make(chan statusMsg, 64)
	finished := make(chan doneMsg, 1)

	runOpts.Progress = func(status model.PublishStatus) {
		select {
		case updates <- statusMsg(status):
		default:
		}
	}

	go func() {
		rpt, err := pl.Run(ctx, runOpts)
		close(updates)
		finished <- doneMsg{report: rpt, err: err}
	}()

	program := tea.NewProgram(newLiveModel(names, updates, finished))
	finalModel, err := program.Run()
	if err != nil {
		return nil, err
	}
	result := finalModel.(liveModel).result
	return result.report, result.err
}
