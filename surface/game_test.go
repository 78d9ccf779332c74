package surface

import (
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/TFMV/graphsurface/config"
	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/physics"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
)

type fakeInput struct {
	x, y    int
	buttons map[ebiten.MouseButton]bool
	keys    map[ebiten.Key]bool
}

func newFakeInput() *fakeInput {
	return &fakeInput{buttons: map[ebiten.MouseButton]bool{}, keys: map[ebiten.Key]bool{}}
}

func (f *fakeInput) CursorPosition() (int, int) { return f.x, f.y }

func (f *fakeInput) IsMouseButtonPressed(b ebiten.MouseButton) bool { return f.buttons[b] }

func (f *fakeInput) IsKeyPressed(k ebiten.Key) bool { return f.keys[k] }

func newTestGame(t *testing.T) (*Game, *fakeInput) {
	t.Helper()
	in := newFakeInput()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sim := physics.New(physics.DefaultSettings())
	return NewGame(config.Default().Window, sim, in, logger), in
}

// click presses and releases button at screen point (x, y) over two frames.
func click(t *testing.T, g *Game, in *fakeInput, b ebiten.MouseButton, x, y int) {
	t.Helper()
	in.x, in.y = x, y
	in.buttons[b] = true
	require.NoError(t, g.Update())
	in.buttons[b] = false
	require.NoError(t, g.Update())
}

func TestRightClickCreatesVertex(t *testing.T) {
	g, in := newTestGame(t)
	assert.True(t, g.PromptVisible())

	in.x, in.y = 740, 310
	in.buttons[ebiten.MouseButtonRight] = true
	require.NoError(t, g.Update())
	assert.Empty(t, g.Scene().Glyphs(), "vertex is created on release")

	in.buttons[ebiten.MouseButtonRight] = false
	require.NoError(t, g.Update())

	glyph, ok := g.Scene().Glyph(0)
	require.True(t, ok)
	assert.Equal(t, graph.Vec2{X: 100, Y: 50}, glyph.Position)
	assert.False(t, g.PromptVisible())
	assert.Len(t, g.Scene().Frame().Vertices, 1)
}

func TestLeftDragMovesVertex(t *testing.T) {
	g, in := newTestGame(t)
	click(t, g, in, ebiten.MouseButtonRight, 640, 360)

	in.buttons[ebiten.MouseButtonLeft] = true
	require.NoError(t, g.Update())
	id, dragging := g.Dragging()
	require.True(t, dragging)
	assert.Equal(t, 0, id)

	in.x, in.y = 700, 300
	require.NoError(t, g.Update())
	glyph, ok := g.Scene().Glyph(0)
	require.True(t, ok)
	assert.Equal(t, graph.Vec2{X: 60, Y: 60}, glyph.Position)
	assert.True(t, glyph.Pressed)
	assert.False(t, glyph.Hovered)

	in.buttons[ebiten.MouseButtonLeft] = false
	require.NoError(t, g.Update())
	_, dragging = g.Dragging()
	assert.False(t, dragging)
	assert.False(t, glyph.Pressed)
	assert.True(t, glyph.Hovered)
}

func TestLeftPressAwayFromGlyphDoesNotDrag(t *testing.T) {
	g, in := newTestGame(t)
	click(t, g, in, ebiten.MouseButtonRight, 640, 360)

	in.x, in.y = 900, 100
	in.buttons[ebiten.MouseButtonLeft] = true
	require.NoError(t, g.Update())
	_, dragging := g.Dragging()
	assert.False(t, dragging)
}

func TestCreatedVerticesRepel(t *testing.T) {
	g, in := newTestGame(t)
	click(t, g, in, ebiten.MouseButtonRight, 640, 360)
	click(t, g, in, ebiten.MouseButtonRight, 650, 360)

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Update())
	}
	a, _ := g.Scene().Glyph(0)
	b, _ := g.Scene().Glyph(1)
	assert.Greater(t, b.Position.X-a.Position.X, 10.0)
}

func TestEscapeTerminates(t *testing.T) {
	g, in := newTestGame(t)
	in.keys[ebiten.KeyEscape] = true
	assert.ErrorIs(t, g.Update(), ebiten.Termination)
}

func TestLayout(t *testing.T) {
	g, _ := newTestGame(t)
	w, h := g.Layout(300, 200)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
}

func TestSpawnTween(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewScene(physics.New(physics.DefaultSettings()), logger)
	s.RequestCreate(graph.Vec2{})
	s.Step(1.0 / 60)

	glyph, ok := s.Glyph(0)
	require.True(t, ok)
	assert.Greater(t, glyph.Scale, float32(0))
	assert.Less(t, glyph.Scale, float32(1))

	for i := 0; i < 30; i++ {
		s.Step(1.0 / 60)
	}
	assert.Equal(t, float32(1), glyph.Scale)
}

func TestSceneEventsAndPick(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewScene(physics.New(physics.DefaultSettings()), logger)

	var created []CreateRequest
	CreateEvent.Subscribe(s.World(), func(w donburi.World, e CreateRequest) {
		created = append(created, e)
	})

	s.RequestCreate(graph.Vec2{X: -300})
	s.RequestCreate(graph.Vec2{X: 300})
	s.RequestDrag(9, graph.Vec2{})
	frame := s.Step(1.0 / 60)

	assert.Len(t, created, 2)
	assert.Len(t, frame.Vertices, 2)
	require.Len(t, s.Glyphs(), 2)
	assert.Equal(t, 0, s.Glyphs()[0].ID)
	assert.Equal(t, 1, s.Glyphs()[1].ID)

	id, ok := s.Pick(graph.Vec2{X: 290}, 40)
	require.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = s.Pick(graph.Vec2{}, 40)
	assert.False(t, ok)

	_, ok = s.Glyph(5)
	assert.False(t, ok)
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}, hexColor("#333333"))
	assert.Equal(t, color.RGBA{R: 0xa6, G: 0xa6, B: 0xa6, A: 0xff}, hexColor("#a6a6a6"))
	assert.Equal(t, color.RGBA{A: 0xff}, hexColor("grey"))
}

func TestDrawBothLayers(t *testing.T) {
	g, in := newTestGame(t)
	click(t, g, in, ebiten.MouseButtonRight, 640, 360)
	click(t, g, in, ebiten.MouseButtonRight, 900, 200)

	screen := ebiten.NewImage(g.cfg.Width, g.cfg.Height)
	defer screen.Deallocate()
	assert.NotPanics(t, func() { g.Draw(screen) })
	assert.False(t, g.PromptVisible())
}
