package physics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TFMV/graphsurface/graph"
)

// ErrUnknownVertex is returned when an override names an id the graph never
// assigned.
var ErrUnknownVertex = errors.New("unknown vertex")

// Settings holds the tunable constants of the layout.
type Settings struct {
	Strength        float64 // repulsion at contact
	Radius          float64 // interaction radius
	Falloff         string  // "linear" or "quadratic"
	Seed            int64   // coincident-direction seed
	Step            float64 // integration step
	Damping         float64 // displacement damping in (0, 1]
	MaxDisplacement float64 // per-tick displacement limit
	Epsilon         float64 // stability threshold on displacement
}

// DefaultSettings returns settings sized for glyphs with a 50 unit
// background radius.
func DefaultSettings() Settings {
	return Settings{
		Strength:        60,
		Radius:          120,
		Falloff:         string(FalloffLinear),
		Seed:            7,
		Step:            0.5,
		Damping:         0.9,
		MaxDisplacement: 40,
		Epsilon:         0.01,
	}
}

// Stats describes one tick.
type Stats struct {
	Tick            uint64
	Vertices        int
	Pairs           int
	Overrides       int
	MaxDisplacement float64
	Duration        time.Duration
	Stable          bool
}

// Result is what a tick publishes: the new vertex states in insertion order.
type Result struct {
	Stats    Stats
	Vertices []graph.Vertex
}

// Observer receives the stats of every tick.
type Observer interface {
	ObserveTick(Stats)
}

// Advance runs one tick over g. overrides are applied before any force is
// computed; forces are then accumulated against a snapshot taken after the
// overrides and the integrated states are swapped in at the end. The pass
// is O(n²) in the number of vertices.
func Advance(g *graph.Graph, overrides map[int]graph.Vec2, law ForceLaw, integ Integrator) Stats {
	stats := Stats{Vertices: g.Len()}

	for _, v := range g.Vertices() {
		v.ResetForce()
		if pos, ok := overrides[v.ID]; ok {
			v.Position = pos
			stats.Overrides++
		}
	}

	snapshot := g.Snapshot()
	next := make([]graph.Vertex, len(snapshot))

	for i, self := range snapshot {
		out := self
		for _, other := range snapshot {
			if other == self {
				continue
			}
			out.AddForce(law.Relate(self, other))
			stats.Pairs++
		}

		moved := integ.Integrate(out)
		if d := moved.Position.Dist(self.Position); d > stats.MaxDisplacement {
			stats.MaxDisplacement = d
		}
		next[i] = moved
	}

	g.Replace(next)
	return stats
}

// Simulation owns a graph and the overrides reported since the last tick.
// It is single-threaded: callers serialize access.
type Simulation struct {
	graph      *graph.Graph
	law        ForceLaw
	integrator Integrator
	epsilon    float64
	pending    map[int]graph.Vec2
	tick       uint64
	last       Stats
	observer   Observer
	logger     *slog.Logger
}

// New creates a simulation over an empty graph from settings.
func New(s Settings) *Simulation {
	law := NewForceLaw(s.Falloff, s.Strength, s.Radius, s.Seed)
	integ := DampedEuler{Step: s.Step, Damping: s.Damping, MaxDisplacement: s.MaxDisplacement}
	return NewWithLaw(law, integ, s.Epsilon)
}

// NewWithLaw creates a simulation with an explicit force law and integrator.
func NewWithLaw(law ForceLaw, integ Integrator, epsilon float64) *Simulation {
	return &Simulation{
		graph:      graph.NewGraph(),
		law:        law,
		integrator: integ,
		epsilon:    epsilon,
		pending:    make(map[int]graph.Vec2),
		logger:     slog.Default(),
	}
}

// SetObserver installs o to receive tick stats.
func (s *Simulation) SetObserver(o Observer) {
	s.observer = o
}

// SetLogger replaces the logger.
func (s *Simulation) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Law returns the force law in use.
func (s *Simulation) Law() ForceLaw {
	return s.law
}

// Len returns the number of vertices.
func (s *Simulation) Len() int {
	return s.graph.Len()
}

// CreateVertex adds a vertex at pos.
func (s *Simulation) CreateVertex(pos graph.Vec2) graph.Vertex {
	v := s.graph.CreateVertex(pos)
	s.logger.Debug("vertex created", "id", v.ID, "x", pos.X, "y", pos.Y)
	return v
}

// Drag records that the user has moved vertex id to pos. The position takes
// effect at the start of the next tick; the last drag before a tick wins.
func (s *Simulation) Drag(id int, pos graph.Vec2) error {
	if _, ok := s.graph.Vertex(id); !ok {
		return fmt.Errorf("drag vertex %d: %w", id, ErrUnknownVertex)
	}
	s.pending[id] = pos
	return nil
}

// Vertex returns the current state of vertex id.
func (s *Simulation) Vertex(id int) (graph.Vertex, bool) {
	return s.graph.Vertex(id)
}

// Tick runs one simulation step and returns the new state.
func (s *Simulation) Tick() Result {
	start := time.Now()

	overrides := s.pending
	s.pending = make(map[int]graph.Vec2)

	stats := Advance(s.graph, overrides, s.law, s.integrator)
	s.tick++
	stats.Tick = s.tick
	stats.Duration = time.Since(start)
	stats.Stable = stats.Overrides == 0 && stats.MaxDisplacement < s.epsilon
	s.last = stats

	if s.observer != nil {
		s.observer.ObserveTick(stats)
	}

	return Result{Stats: stats, Vertices: s.graph.Snapshot()}
}

// Step performs one tick and reports whether the layout is at rest.
func (s *Simulation) Step() bool {
	return s.Tick().Stats.Stable
}

// Last returns the stats of the most recent tick.
func (s *Simulation) Last() Stats {
	return s.last
}

// Positions returns the current position of every vertex keyed by id.
func (s *Simulation) Positions() map[int]graph.Vec2 {
	out := make(map[int]graph.Vec2, s.graph.Len())
	for _, v := range s.graph.Snapshot() {
		out[v.ID] = v.Position
	}
	return out
}

// Snapshot returns a copy of the current vertex states.
func (s *Simulation) Snapshot() []graph.Vertex {
	return s.graph.Snapshot()
}

// Settle ticks until the layout is stable, maxTicks is reached or ctx is
// done. It returns the number of ticks run.
func (s *Simulation) Settle(ctx context.Context, maxTicks int) (int, error) {
	for i := 0; i < maxTicks; i++ {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}
		if s.Step() {
			return i + 1, nil
		}
	}
	s.logger.Warn("layout did not stabilize", "ticks", maxTicks, "max_displacement", s.last.MaxDisplacement)
	return maxTicks, nil
}
