package surface

import (
	"log/slog"
	"sort"

	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/models"
	"github.com/TFMV/graphsurface/physics"
	"github.com/google/uuid"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// spawnDuration is how long a new glyph takes to grow to full size, in seconds.
const spawnDuration = 0.25

// Glyph is the presentation of one vertex.
type Glyph struct {
	ID       int
	Position graph.Vec2
	Scale    float32
	Hovered  bool
	Pressed  bool

	spawn *gween.Tween
}

// CreateRequest asks for a vertex at Position.
type CreateRequest struct {
	Position graph.Vec2
}

// DragRequest moves vertex ID to Position on the next tick.
type DragRequest struct {
	ID       int
	Position graph.Vec2
}

var (
	GlyphComponent = donburi.NewComponentType[Glyph]()

	CreateEvent = events.NewEventType[CreateRequest]()
	DragEvent   = events.NewEventType[DragRequest]()

	glyphQuery = donburi.NewQuery(filter.Contains(GlyphComponent))
)

// Scene binds a simulation to a donburi world of glyphs keyed by vertex id.
type Scene struct {
	world   donburi.World
	sim     *physics.Simulation
	session uuid.UUID
	glyphs  map[int]donburi.Entity
	frame   models.Frame
	logger  *slog.Logger
}

// NewScene creates a scene driving sim.
func NewScene(sim *physics.Simulation, logger *slog.Logger) *Scene {
	s := &Scene{
		world:   donburi.NewWorld(),
		sim:     sim,
		session: uuid.New(),
		glyphs:  make(map[int]donburi.Entity),
		logger:  logger,
	}
	s.frame = models.Frame{Session: s.session, Vertices: []models.VertexState{}}

	CreateEvent.Subscribe(s.world, s.onCreate)
	DragEvent.Subscribe(s.world, s.onDrag)
	return s
}

// World returns the underlying ECS world.
func (s *Scene) World() donburi.World {
	return s.world
}

// RequestCreate queues a vertex creation for the next Step.
func (s *Scene) RequestCreate(pos graph.Vec2) {
	CreateEvent.Publish(s.world, CreateRequest{Position: pos})
}

// RequestDrag queues a drag override for the next Step.
func (s *Scene) RequestDrag(id int, pos graph.Vec2) {
	DragEvent.Publish(s.world, DragRequest{ID: id, Position: pos})
}

func (s *Scene) onCreate(w donburi.World, req CreateRequest) {
	v := s.sim.CreateVertex(req.Position)
	entity := w.Create(GlyphComponent)
	GlyphComponent.SetValue(w.Entry(entity), Glyph{
		ID:       v.ID,
		Position: v.Position,
		spawn:    gween.New(0, 1, spawnDuration, ease.OutCubic),
	})
	s.glyphs[v.ID] = entity
	s.logger.Debug("vertex created", "id", v.ID, "x", v.Position.X, "y", v.Position.Y)
}

func (s *Scene) onDrag(w donburi.World, req DragRequest) {
	if err := s.sim.Drag(req.ID, req.Position); err != nil {
		s.logger.Warn("drag ignored", "id", req.ID, "error", err)
	}
}

// Step processes queued events, runs one simulation tick, and writes the
// results back to the glyphs. dt advances the spawn tweens, in seconds.
func (s *Scene) Step(dt float32) models.Frame {
	events.ProcessAllEvents(s.world)

	res := s.sim.Tick()
	s.frame = models.NewFrame(s.session, res)
	for _, v := range res.Vertices {
		g, ok := s.Glyph(v.ID)
		if !ok {
			continue
		}
		g.Position = v.Position
	}

	glyphQuery.Each(s.world, func(entry *donburi.Entry) {
		g := GlyphComponent.Get(entry)
		if g.spawn == nil {
			g.Scale = 1
			return
		}
		scale, finished := g.spawn.Update(dt)
		g.Scale = scale
		if finished {
			g.Scale = 1
			g.spawn = nil
		}
	})
	return s.frame
}

// Frame returns the frame published by the last Step.
func (s *Scene) Frame() models.Frame {
	return s.frame
}

// Glyph returns the glyph of vertex id.
func (s *Scene) Glyph(id int) (*Glyph, bool) {
	entity, ok := s.glyphs[id]
	if !ok || !s.world.Valid(entity) {
		return nil, false
	}
	return GlyphComponent.Get(s.world.Entry(entity)), true
}

// Glyphs returns all glyphs ordered by vertex id.
func (s *Scene) Glyphs() []*Glyph {
	out := make([]*Glyph, 0, len(s.glyphs))
	glyphQuery.Each(s.world, func(entry *donburi.Entry) {
		out = append(out, GlyphComponent.Get(entry))
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pick returns the id of the glyph nearest to pos within radius.
func (s *Scene) Pick(pos graph.Vec2, radius float64) (int, bool) {
	best, found := -1, false
	bestDist := 0.0
	for _, g := range s.Glyphs() {
		d := g.Position.Dist(pos)
		if d > radius {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = g.ID, d, true
		}
	}
	return best, found
}
