package surface

import "github.com/hajimehoshi/ebiten/v2"

// Input is the subset of ebiten's input state the surface reads each frame.
type Input interface {
	CursorPosition() (int, int)
	IsMouseButtonPressed(button ebiten.MouseButton) bool
	IsKeyPressed(key ebiten.Key) bool
}

// EbitenInput reads the live window input.
type EbitenInput struct{}

func (EbitenInput) CursorPosition() (int, int) { return ebiten.CursorPosition() }

func (EbitenInput) IsMouseButtonPressed(button ebiten.MouseButton) bool {
	return ebiten.IsMouseButtonPressed(button)
}

func (EbitenInput) IsKeyPressed(key ebiten.Key) bool { return ebiten.IsKeyPressed(key) }

// buttonState tracks one mouse button across frames to detect edges.
type buttonState struct {
	down bool
}

// update stores the new state and reports whether it was pressed or
// released this frame.
func (b *buttonState) update(down bool) (pressed, released bool) {
	pressed = down && !b.down
	released = !down && b.down
	b.down = down
	return pressed, released
}
