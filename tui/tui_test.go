package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/TFMV/graphsurface/config"
	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/physics"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (Model, *physics.Simulation) {
	t.Helper()
	sim := physics.New(physics.DefaultSettings())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(config.Default().Window, sim, 10*time.Millisecond, logger), sim
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCreateAtCursor(t *testing.T) {
	m, sim := newTestModel(t)
	m, _ = send(t, m, runes("n"))

	require.Equal(t, 1, sim.Len())
	v, ok := sim.Vertex(0)
	require.True(t, ok)
	assert.Equal(t, m.Cursor(), v.Position)
}

func TestCursorMovement(t *testing.T) {
	m, _ := newTestModel(t)
	start := m.Cursor()

	m, _ = send(t, m, runes("l"))
	assert.Greater(t, m.Cursor().X, start.X)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, start, m.Cursor())

	m, _ = send(t, m, runes("k"))
	assert.Greater(t, m.Cursor().Y, start.Y, "up in the terminal is up in the layout")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, start, m.Cursor())

	for i := 0; i < 200; i++ {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, m.row)
}

func TestGrabDragsVertex(t *testing.T) {
	m, sim := newTestModel(t)
	m, _ = send(t, m, runes("n"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})

	id, grabbed := m.Grabbed()
	require.True(t, grabbed)
	assert.Equal(t, 0, id)

	for i := 0; i < 5; i++ {
		m, _ = send(t, m, runes("l"))
	}
	m, cmd := send(t, m, tickMsg(time.Now()))
	assert.NotNil(t, cmd)

	v, _ := sim.Vertex(0)
	assert.Equal(t, m.Cursor(), v.Position)
	assert.Equal(t, uint64(1), m.Frame().Tick)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	_, grabbed = m.Grabbed()
	assert.False(t, grabbed)
}

func TestGrabWithoutVertices(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	_, grabbed := m.Grabbed()
	assert.False(t, grabbed)
}

func TestTickRepels(t *testing.T) {
	m, sim := newTestModel(t)
	sim.CreateVertex(graph.Vec2{})
	sim.CreateVertex(graph.Vec2{X: 10})

	for i := 0; i < 3; i++ {
		m, _ = send(t, m, tickMsg(time.Now()))
	}
	require.Len(t, m.Frame().Vertices, 2)
	assert.Greater(t, m.Frame().Vertices[1].X-m.Frame().Vertices[0].X, 10.0)
}

func TestResizeClampsCursor(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 20, Height: 12})
	assert.Equal(t, 18, m.cols)
	assert.Equal(t, 7, m.rows)
	assert.Less(t, m.col, m.cols)
	assert.Less(t, m.row, m.rows)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := send(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "To create a new vertex press n")
	assert.Contains(t, view, string(cursorRune))

	m, _ = send(t, m, runes("n"))
	m, _ = send(t, m, tickMsg(time.Now()))
	view = m.View()
	assert.Contains(t, view, "tick 1  vertices 1")
	assert.Contains(t, view, "o")
	assert.True(t, strings.Contains(view, "quit"))
}
