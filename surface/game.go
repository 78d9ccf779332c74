// Package surface is the interactive window: vertices are created with the
// right mouse button and dragged with the left one while the layout runs.
package surface

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/TFMV/graphsurface/config"
	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/physics"
	"github.com/TFMV/graphsurface/render"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Prompt is shown until the first vertex is created.
const Prompt = "To create a new vertex press RMB"

type colors struct {
	background color.RGBA
	bgNode     color.RGBA
	fgNode     color.RGBA
	hovered    color.RGBA
	pressed    color.RGBA
}

var _ ebiten.Game = (*Game)(nil)

// Game implements ebiten.Game over a Scene.
type Game struct {
	cfg    config.Window
	scene  *Scene
	input  Input
	colors colors
	logger *slog.Logger

	left, right buttonState
	dragging    int
	hovered     int
	prompt      bool
}

// NewGame creates a game reading input from in.
func NewGame(cfg config.Window, sim *physics.Simulation, in Input, logger *slog.Logger) *Game {
	p := render.DefaultPalette()
	return &Game{
		cfg:   cfg,
		scene: NewScene(sim, logger),
		input: in,
		colors: colors{
			background: hexColor(p.Background),
			bgNode:     hexColor(p.BgNode),
			fgNode:     hexColor(p.FgNode),
			hovered:    hexColor(p.Hovered),
			pressed:    hexColor(p.Pressed),
		},
		logger:   logger,
		dragging: -1,
		hovered:  -1,
		prompt:   true,
	}
}

// Scene returns the scene driven by the game.
func (g *Game) Scene() *Scene {
	return g.scene
}

// Dragging returns the id of the vertex being dragged.
func (g *Game) Dragging() (int, bool) {
	return g.dragging, g.dragging >= 0
}

// PromptVisible reports whether the start prompt is still shown.
func (g *Game) PromptVisible() bool {
	return g.prompt
}

// Update handles input, then advances the scene one tick.
func (g *Game) Update() error {
	if g.input.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	cx, cy := g.input.CursorPosition()
	cursor := g.cursorAt(cx, cy)

	if _, released := g.right.update(g.input.IsMouseButtonPressed(ebiten.MouseButtonRight)); released {
		g.scene.RequestCreate(cursor)
		g.prompt = false
	}

	pressed, released := g.left.update(g.input.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	switch {
	case pressed:
		if id, ok := g.scene.Pick(cursor, g.cfg.FgRadius); ok {
			g.dragging = id
			g.logger.Debug("drag started", "id", id)
		}
	case released && g.dragging >= 0:
		g.logger.Debug("drag ended", "id", g.dragging)
		g.dragging = -1
	}
	if g.dragging >= 0 {
		g.scene.RequestDrag(g.dragging, cursor)
	}

	g.scene.Step(1 / float32(g.cfg.TPS))

	g.hovered = -1
	if id, ok := g.scene.Pick(cursor, g.cfg.FgRadius); ok {
		g.hovered = id
	}
	for _, glyph := range g.scene.Glyphs() {
		glyph.Pressed = glyph.ID == g.dragging
		glyph.Hovered = glyph.ID == g.hovered && !glyph.Pressed
	}
	return nil
}

// Draw paints every background glyph before any foreground glyph.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.colors.background)
	w, h := float64(g.cfg.Width), float64(g.cfg.Height)
	glyphs := g.scene.Glyphs()

	for _, glyph := range glyphs {
		x, y := render.ToScreen(glyph.Position, w, h)
		r := float32(g.cfg.BgRadius) * glyph.Scale
		vector.FillCircle(screen, float32(x), float32(y), r, g.colors.bgNode, true)
	}
	for _, glyph := range glyphs {
		x, y := render.ToScreen(glyph.Position, w, h)
		r := float32(g.cfg.FgRadius) * glyph.Scale
		vector.FillCircle(screen, float32(x), float32(y), r, g.fill(glyph), true)
	}

	if g.prompt {
		ebitenutil.DebugPrintAt(screen, Prompt, g.cfg.Width/2-len(Prompt)*3, g.cfg.Height/2-8)
	}
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.0f  TPS: %.0f  vertices: %d",
			ebiten.ActualFPS(), ebiten.ActualTPS(), len(glyphs)), 4, 4)
	}
}

// cursorAt is the simulation-space position of screen point (x, y).
func (g *Game) cursorAt(x, y int) graph.Vec2 {
	return render.FromScreen(float64(x), float64(y), float64(g.cfg.Width), float64(g.cfg.Height))
}

func (g *Game) fill(glyph *Glyph) color.RGBA {
	switch {
	case glyph.Pressed:
		return g.colors.pressed
	case glyph.Hovered:
		return g.colors.hovered
	default:
		return g.colors.fgNode
	}
}

// Layout fixes the logical screen to the configured size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run opens the window and blocks until it is closed.
func Run(cfg config.Window, sim *physics.Simulation, logger *slog.Logger) error {
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(cfg.TPS)

	logger.Info("opening window", "width", cfg.Width, "height", cfg.Height, "tps", cfg.TPS)
	if err := ebiten.RunGame(NewGame(cfg, sim, EbitenInput{}, logger)); err != nil {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

// hexColor parses a #rrggbb palette entry.
func hexColor(s string) color.RGBA {
	c := color.RGBA{A: 0xff}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}
