package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rocketscienceinc/llm-arena/internal/entity"
)

const (
	listModelsTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var errNoModels = errors.New("no models installed")

type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Runner is a single tournament run started from the UI.
type Runner interface {
	Run(ctx context.Context, updates chan<- entity.Snapshot) (*entity.Result, error)
}

// RunnerFactory builds a fresh run for the two selected players.
type RunnerFactory func(playerX, playerO *entity.Player) (Runner, error)

type modelsMsg struct {
	models []string
	err    error
}

type snapshotMsg struct {
	run      int
	snapshot entity.Snapshot
}

type runDoneMsg struct {
	run    int
	result *entity.Result
	err    error
}

type model struct {
	ctx    context.Context
	logger *slog.Logger
	lister modelLister
	newRun RunnerFactory

	models   []string
	loadErr  string
	selected [2]int
	focus    int

	spinner spinner.Model

	run      int
	running  bool
	stopping bool
	cancel   context.CancelFunc
	sub      chan entity.Snapshot
	done     chan struct{}

	snapshot *entity.Snapshot
	result   *entity.Result
	runErr   string
}

// InitialModel preselects defaultX and defaultO until the model list arrives.
func InitialModel(ctx context.Context, logger *slog.Logger, lister modelLister, newRun RunnerFactory, defaultX, defaultO string) *model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	models := []string{defaultX}
	if defaultO != defaultX {
		models = append(models, defaultO)
	}

	return &model{
		ctx:      ctx,
		logger:   logger.With("component", "tui"),
		lister:   lister,
		newRun:   newRun,
		models:   models,
		selected: [2]int{0, len(models) - 1},
		spinner:  s,
	}
}

func (m *model) Init() tea.Cmd {
	return loadModels(m.ctx, m.lister)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case modelsMsg:
		if msg.err != nil {
			m.logger.Warn("could not load models", "error", msg.err)
			m.loadErr = fmt.Sprintf("Error loading models: %v", msg.err)
			return m, nil
		}

		m.setModels(msg.models)
		return m, nil

	case snapshotMsg:
		if msg.run != m.run {
			return m, nil
		}

		snapshot := msg.snapshot
		m.snapshot = &snapshot
		return m, waitForSnapshot(m.run, m.sub)

	case runDoneMsg:
		if msg.run != m.run {
			return m, nil
		}

		m.finishRun(msg.result, msg.err)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.stop()
		return m, tea.Quit

	case "s":
		if m.running {
			m.stop()
			return m, nil
		}

		return m, m.start()

	case "r":
		m.reset()

	case "tab", "left", "right":
		if !m.running {
			m.focus = 1 - m.focus
		}

	case "up", "k":
		if !m.running {
			m.selected[m.focus] = (m.selected[m.focus] - 1 + len(m.models)) % len(m.models)
		}

	case "down", "j":
		if !m.running {
			m.selected[m.focus] = (m.selected[m.focus] + 1) % len(m.models)
		}
	}

	return m, nil
}

func (m *model) start() tea.Cmd {
	playerX := entity.NewPlayer("", m.models[m.selected[0]], "")
	playerO := entity.NewPlayer("", m.models[m.selected[1]], "")

	runner, err := m.newRun(playerX, playerO)
	if err != nil {
		m.runErr = err.Error()
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)

	m.run++
	m.running = true
	m.stopping = false
	m.cancel = cancel
	m.sub = make(chan entity.Snapshot)
	m.done = make(chan struct{})
	m.snapshot = nil
	m.result = nil
	m.runErr = ""

	m.logger.Info("run started", "x", playerX.Model, "o", playerO.Model)

	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.run, m.sub), runTournament(ctx, m.run, runner, m.sub, m.done))
}

func (m *model) stop() {
	if !m.running || m.cancel == nil {
		return
	}

	m.cancel()
	m.stopping = true
}

// wait blocks until the latest run has returned, so a stopped run can still store its result.
func (m *model) wait() {
	if m.done == nil {
		return
	}

	select {
	case <-m.done:
	case <-time.After(shutdownTimeout):
		m.logger.Warn("run did not finish in time")
	}
}

// reset drops the current board, scores and any run still winding down.
func (m *model) reset() {
	m.stop()

	m.run++
	m.running = false
	m.stopping = false
	m.cancel = nil
	m.sub = nil
	m.snapshot = nil
	m.result = nil
	m.runErr = ""
}

func (m *model) finishRun(result *entity.Result, err error) {
	if m.cancel != nil {
		m.cancel()
	}

	m.running = false
	m.stopping = false
	m.cancel = nil
	m.result = result

	if err != nil {
		m.logger.Error("run failed", "error", err)
		m.runErr = err.Error()
	}
}

// setModels swaps in the discovered models and keeps the current picks when they are still installed.
func (m *model) setModels(models []string) {
	if len(models) == 0 {
		m.loadErr = fmt.Sprintf("Error loading models: %v", errNoModels)
		return
	}

	current := [2]string{m.models[m.selected[0]], m.models[m.selected[1]]}

	m.models = models
	m.loadErr = ""

	for i, name := range current {
		if index := slices.Index(models, name); index >= 0 {
			m.selected[i] = index
		} else {
			m.selected[i] = 0
		}
	}
}

func loadModels(ctx context.Context, lister modelLister) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, listModelsTimeout)
		defer cancel()

		models, err := lister.ListModels(ctx)
		return modelsMsg{models: models, err: err}
	}
}

func waitForSnapshot(run int, sub chan entity.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-sub
		if !ok {
			return nil
		}

		return snapshotMsg{run: run, snapshot: snapshot}
	}
}

func runTournament(ctx context.Context, run int, runner Runner, sub chan entity.Snapshot, done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		defer close(done)

		result, err := runner.Run(ctx, sub)
		return runDoneMsg{run: run, result: result, err: err}
	}
}
