package models

import (
	"fmt"
	"time"

	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/physics"
	"github.com/google/uuid"
)

// NewSession creates a session with a fresh id
func NewSession(name string) *Session {
	return &Session{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// NewFrame builds the published frame for a tick result.
func NewFrame(session uuid.UUID, res physics.Result) Frame {
	f := Frame{
		Session:   session,
		Tick:      res.Stats.Tick,
		Stable:    res.Stats.Stable,
		Vertices:  make([]VertexState, 0, len(res.Vertices)),
		CreatedAt: time.Now(),
	}
	for _, v := range res.Vertices {
		f.Vertices = append(f.Vertices, StateOf(v))
	}
	return f
}

// StateOf converts a vertex to its wire form.
func StateOf(v graph.Vertex) VertexState {
	return VertexState{
		ID: v.ID,
		X:  v.Position.X,
		Y:  v.Position.Y,
		FX: v.Force.X,
		FY: v.Force.Y,
	}
}

// Position returns the state's position as a vector.
func (s VertexState) Position() graph.Vec2 {
	return graph.Vec2{X: s.X, Y: s.Y}
}

// Position returns the event's coordinates as a vector.
func (e Event) Position() graph.Vec2 {
	return graph.Vec2{X: e.X, Y: e.Y}
}

// Validate checks that the event is well formed
func (e Event) Validate() error {
	switch e.Action {
	case ActionCreate:
		if !e.Position().IsFinite() {
			return fmt.Errorf("create: non-finite position (%g, %g)", e.X, e.Y)
		}
		return nil
	case ActionDrag:
		if e.ID < 0 {
			return fmt.Errorf("drag: negative vertex id %d", e.ID)
		}
		if !e.Position().IsFinite() {
			return fmt.Errorf("drag: non-finite position (%g, %g)", e.X, e.Y)
		}
		return nil
	case ActionTick:
		if e.Frames < 0 {
			return fmt.Errorf("tick: negative frame count %d", e.Frames)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
}

// Apply validates the event and feeds it to sim. Tick events run
// max(Frames, 1) ticks and return the last result; other events return a
// nil result.
func (e Event) Apply(sim *physics.Simulation) (*physics.Result, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	switch e.Action {
	case ActionCreate:
		sim.CreateVertex(e.Position())
		return nil, nil
	case ActionDrag:
		return nil, sim.Drag(e.ID, e.Position())
	case ActionTick:
		n := e.Frames
		if n < 1 {
			n = 1
		}
		var res physics.Result
		for i := 0; i < n; i++ {
			res = sim.Tick()
		}
		return &res, nil
	default:
		return nil, fmt.Errorf("unknown action %q", e.Action)
	}
}
