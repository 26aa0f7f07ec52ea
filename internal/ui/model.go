package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytlinks/internal/tasks"
)

const recentRows = 5

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConvertView ViewState = iota
	ResultView
)

// Converter runs a spreadsheet conversion, reporting progress on the channel.
type Converter interface {
	ConvertFile(ctx context.Context, progress chan<- tasks.ProgressUpdate, opts tasks.ConvertOpts) (*tasks.ConvertResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	engine       Converter
	opts         tasks.ConvertOpts
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan convertOutcome
	update       tasks.ProgressUpdate
	recent       []string
	stopping     bool
	result       *tasks.ConvertResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that converts opts.Input with engine.
func NewModel(ctx context.Context, engine Converter, opts tasks.ConvertOpts) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    ConvertView,
		engine:  engine,
		opts:    opts,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom())),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the finished conversion, or nil while it runs.
func (m *Model) Result() *tasks.ConvertResult { return m.result }

// Err returns the error that ended the conversion, if any.
func (m *Model) Err() error { return m.err }

// Init starts the conversion and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startConvert())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-10, 10), 80)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != ConvertView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.applyProgress(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()
		case MsgConvertComplete:
			outcome := msg.data.(convertOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.view = ResultView
			m.cancel()
			return m, nil
		}
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ConvertView:
		if key.Matches(msg, m.keys.cancel) {
			m.stopping = true
			m.cancel()
		}
	case ResultView:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) applyProgress(update tasks.ProgressUpdate) {
	m.update = update
	if update.Phase == tasks.ConvertRows && update.Step > 0 {
		m.recent = append(m.recent, update.Message)
		if len(m.recent) > recentRows {
			m.recent = slices.Delete(m.recent, 0, len(m.recent)-recentRows)
		}
	}
}

func (m *Model) percent() float64 {
	if m.update.Phase != tasks.ConvertRows || m.update.Total == 0 {
		if m.update.Phase == tasks.WriteSheet {
			return 1
		}
		return 0
	}
	return float64(m.update.Step) / float64(m.update.Total)
}

func (m *Model) startConvert() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan convertOutcome, 1)

	go func(progress chan tasks.ProgressUpdate, done chan<- convertOutcome) {
		result, err := m.engine.ConvertFile(m.ctx, progress, m.opts)
		done <- convertOutcome{result, err}
		close(progress)
	}(m.progressChan, m.done)

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			outcome := <-done
			return convertCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConvertView:
		return m.renderConvert()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderConvert() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Converting %s", m.opts.Input)))
	b.WriteString("\n")

	status := m.update.Message
	if status == "" {
		status = "Starting..."
	}
	if m.stopping {
		status = styles.warn.Render("Stopping after the current row...")
	}
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), status)

	if m.update.Phase == tasks.ConvertRows {
		fmt.Fprintf(&b, "%s  %d/%d\n\n", m.bar.ViewAs(m.percent()), m.update.Step, m.update.Total)
	}

	for _, line := range m.recent {
		b.WriteString(styles.help.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.cancel}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	if m.result == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Conversion failed: %v", m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	var title string
	if m.err != nil {
		title = styles.warn.Render(fmt.Sprintf("Conversion stopped: %v", m.err))
	} else {
		title = styles.ok.Render("✓ Conversion Complete!")
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, styles.box.Render(Summary(m.result)), helpView)
}

// Summary renders the counts and grouped failures of a conversion.
func Summary(r *tasks.ConvertResult) string {
	var b strings.Builder
	if r.Output != "" {
		fmt.Fprintf(&b, "Output: %s\n", r.Output)
	}
	fmt.Fprintf(&b, "Matched: %d/%d (%.1f%%)", r.SuccessCount, r.Total, r.MatchPercentage)
	if r.CachedCount > 0 {
		fmt.Fprintf(&b, ", %d from cache", r.CachedCount)
	}

	failures := r.Failures()
	if len(failures) == 0 {
		return b.String()
	}

	b.WriteString("\n\n")
	b.WriteString(styles.warn.Render(fmt.Sprintf("Failed to convert %d rows:", r.FailedCount)))

	kinds := make([]string, 0, len(failures))
	for kind := range failures {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	for _, kind := range kinds {
		rows := failures[kind]
		fmt.Fprintf(&b, "\n  %s (%d)", styles.err.Render(kind), len(rows))
		for _, row := range rows {
			fmt.Fprintf(&b, "\n    • row %d: %s", row.Row+2, row.Link)
		}
	}
	return b.String()
}
