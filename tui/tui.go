// Package tui is the terminal surface. The layout is drawn with the ASCII
// renderer and a cell cursor stands in for the mouse.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/TFMV/graphsurface/config"
	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/models"
	"github.com/TFMV/graphsurface/physics"
	"github.com/TFMV/graphsurface/render"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Styles
var (
	boardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#808080"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e6e6e6"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a6a6a6")).
			Bold(true)
)

const (
	defaultCols = 78
	defaultRows = 24
	cursorRune  = '+'
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Create key.Binding
	Grab   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Create: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new vertex"),
	),
	Grab: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "grab/release"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Create, k.Grab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Create, k.Grab, k.Quit},
	}
}

type tickMsg time.Time

// Model is the bubbletea model of the terminal surface.
type Model struct {
	sim      *physics.Simulation
	session  uuid.UUID
	renderer *render.ASCIIRenderer
	options  *render.OutputOptions
	frame    models.Frame
	interval time.Duration
	keys     keyMap
	help     help.Model
	logger   *slog.Logger

	cols, rows int
	col, row   int
	grabbed    int
}

// New creates a model over sim. The simulation area is the configured
// window size; interval is the tick period.
func New(cfg config.Window, sim *physics.Simulation, interval time.Duration, logger *slog.Logger) Model {
	opts := render.NewDefaultOptions("ascii")
	opts.Width = float64(cfg.Width)
	opts.Height = float64(cfg.Height)
	opts.FgRadius = cfg.FgRadius
	opts.BgRadius = cfg.BgRadius

	session := uuid.New()
	return Model{
		sim:      sim,
		session:  session,
		renderer: &render.ASCIIRenderer{},
		options:  opts,
		frame:    models.Frame{Session: session, Vertices: []models.VertexState{}},
		interval: interval,
		keys:     keys,
		help:     help.New(),
		logger:   logger,
		cols:     defaultCols,
		rows:     defaultRows,
		col:      defaultCols / 2,
		row:      defaultRows / 2,
		grabbed:  -1,
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update handles keys, resizes and ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width-2, 10)
		m.rows = max(msg.Height-5, 5)
		m.col = min(m.col, m.cols-1)
		m.row = min(m.row, m.rows-1)
		m.help.Width = msg.Width

	case tickMsg:
		m.step()
		return m, m.tickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.row = max(m.row-1, 0)
		case key.Matches(msg, m.keys.Down):
			m.row = min(m.row+1, m.rows-1)
		case key.Matches(msg, m.keys.Left):
			m.col = max(m.col-1, 0)
		case key.Matches(msg, m.keys.Right):
			m.col = min(m.col+1, m.cols-1)
		case key.Matches(msg, m.keys.Create):
			v := m.sim.CreateVertex(m.Cursor())
			m.logger.Debug("vertex created", "id", v.ID)
		case key.Matches(msg, m.keys.Grab):
			m.toggleGrab()
		}
		m.dragGrabbed()
	}
	return m, nil
}

// step ticks the simulation once and keeps the published frame.
func (m *Model) step() {
	m.dragGrabbed()
	m.frame = models.NewFrame(m.session, m.sim.Tick())
}

func (m *Model) toggleGrab() {
	if m.grabbed >= 0 {
		m.grabbed = -1
		return
	}
	c := m.Cursor()
	if v, ok := models.NewFrame(m.session, physics.Result{Vertices: m.sim.Snapshot()}).Nearest(c.X, c.Y, math.Inf(1)); ok {
		m.grabbed = v.ID
	}
}

func (m *Model) dragGrabbed() {
	if m.grabbed < 0 {
		return
	}
	if err := m.sim.Drag(m.grabbed, m.Cursor()); err != nil {
		m.logger.Warn("drag ignored", "id", m.grabbed, "error", err)
		m.grabbed = -1
	}
}

// Cursor returns the simulation-space position at the centre of the cursor cell.
func (m Model) Cursor() graph.Vec2 {
	cellW := m.options.Width / float64(m.cols)
	cellH := m.options.Height / float64(m.rows)
	return render.FromScreen((float64(m.col)+0.5)*cellW, (float64(m.row)+0.5)*cellH, m.options.Width, m.options.Height)
}

// Grabbed returns the id of the vertex following the cursor.
func (m Model) Grabbed() (int, bool) {
	return m.grabbed, m.grabbed >= 0
}

// Frame returns the frame of the last tick.
func (m Model) Frame() models.Frame {
	return m.frame
}

// View draws the board, a status line and the key help.
func (m Model) View() string {
	grid := m.renderer.Grid(m.frame, m.options, m.cols, m.rows)

	var board strings.Builder
	for r, line := range grid {
		if r == m.row {
			board.WriteString(string(line[:m.col]))
			board.WriteString(cursorStyle.Render(string(cursorRune)))
			board.WriteString(string(line[m.col+1:]))
		} else {
			board.WriteString(string(line))
		}
		if r < len(grid)-1 {
			board.WriteByte('\n')
		}
	}

	var status string
	if len(m.frame.Vertices) == 0 {
		status = promptStyle.Render("To create a new vertex press n")
	} else {
		status = statusStyle.Render(fmt.Sprintf("tick %d  vertices %d  stable %t", m.frame.Tick, len(m.frame.Vertices), m.frame.Stable))
		if m.grabbed >= 0 {
			status += statusStyle.Render(fmt.Sprintf("  grabbed %d", m.grabbed))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		boardStyle.Render(board.String()),
		status,
		m.help.View(m.keys),
	)
}

// Run starts the terminal surface and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, cfg config.Window, sim *physics.Simulation, logger *slog.Logger) error {
	interval := time.Second / time.Duration(cfg.TPS)
	p := tea.NewProgram(New(cfg, sim, interval, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run terminal: %w", err)
	}
	return nil
}
