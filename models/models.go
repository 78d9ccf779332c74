// Package models provides the wire types exchanged between the layout engine
// and the surfaces that drive it: input events, published frames and the
// session that owns a running simulation.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Action names an inbound event.
type Action string

const (
	ActionCreate Action = "create" // create a vertex at (X, Y)
	ActionDrag   Action = "drag"   // vertex ID is now at (X, Y)
	ActionTick   Action = "tick"   // advance Frames ticks
)

// Event is one inbound step from a presentation layer or a script.
type Event struct {
	Action Action  `json:"action"`
	ID     int     `json:"id,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// Script is an ordered list of events.
type Script struct {
	Name  string  `json:"name,omitempty"`
	Steps []Event `json:"steps"`
}

// VertexState is a vertex as published after a tick.
type VertexState struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	FX float64 `json:"fx"`
	FY float64 `json:"fy"`
}

// Frame is the outbound state of one tick.
type Frame struct {
	Session   uuid.UUID     `json:"session"`
	Tick      uint64        `json:"tick"`
	Stable    bool          `json:"stable"`
	Vertices  []VertexState `json:"vertices"`
	CreatedAt time.Time     `json:"created_at"`
}

// Session identifies one running simulation.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Rect is an axis-aligned bounding box in simulation space.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }
