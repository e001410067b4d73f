package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"curator/internal/formatter"
	"curator/internal/planner"
	"curator/internal/reconcile"
	"curator/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlanView ViewState = iota
	ConfirmView
	RunView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.SyncEngine
	width        int
	height       int
	plan         *planner.Plan
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	report       *reconcile.Report
	err          error
	spinner      spinner.Model
	help         help.Model
	keys         keyMap
}

type planComputedMsg struct {
	plan *planner.Plan
	err  error
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	report *reconcile.Report
	err    error
}

// NewModel creates a new TUI model with the provided sync engine.
func NewModel(ctx context.Context, engine tasks.SyncEngine) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{
		ctx:     ctx,
		view:    PlanView,
		engine:  engine,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by computing the plan.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.computePlan())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView, PlanView:
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case RunView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}
		return m, nil

	case planComputedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.plan = msg.plan
		m.view = ConfirmView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.report = msg.report
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlanView:
		return fmt.Sprintf("%s Computing plan...\n", m.spinner.View())
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		return m, tea.Quit
	case "y":
		m.view = RunView
		return m, tea.Batch(m.spinner.Tick, m.startRun())
	}
	return m, nil
}

func (m *Model) computePlan() tea.Cmd {
	return func() tea.Msg {
		plan, err := m.engine.Plan(m.ctx)
		return planComputedMsg{plan: plan, err: err}
	}
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		report, err := m.engine.RunSync(m.ctx, m.progressChan)
		m.report = report
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return runCompleteMsg{report: m.report, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return runCompleteMsg{report: m.report, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Sync playlists?")
	info := formatter.PlanTable(m.plan)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Syncing Playlists")

	var phase string
	switch m.progress.Phase {
	case tasks.LoadSnapshot, tasks.FetchLiked:
		phase = "Loading library snapshot..."
	case tasks.FetchRemote:
		phase = "Listing playlists..."
	case tasks.ComputePlan:
		phase = "Computing plan..."
	case tasks.ReconcileSlots, tasks.Consolidate:
		phase = "Reconciling..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress q to quit", m.err))
	}

	if m.report == nil {
		return styles.err.Render("No report available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete")
	body := formatter.ReportTable(m.report)

	helpKeys := []key.Binding{m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, body, helpView)
}
