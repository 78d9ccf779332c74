package physics

import (
	"math"
	"strings"

	"github.com/TFMV/graphsurface/graph"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// ForceLaw computes the force other exerts on self.
type ForceLaw interface {
	Relate(self, other graph.Vertex) graph.Vec2
	Radius() float64
	Name() string
}

// Falloff selects how repulsion decays between contact and the interaction
// radius.
type Falloff string

const (
	FalloffLinear    Falloff = "linear"
	FalloffQuadratic Falloff = "quadratic"
)

// Repulsion pushes vertices apart inside a fixed interaction radius and
// leaves them alone beyond it. The magnitude is continuous in separation
// and reaches its maximum, Strength, at contact.
type Repulsion struct {
	strength float64
	radius   float64
	falloff  Falloff
	noise    opensimplex.Noise
}

// NewRepulsion creates a repulsion law. seed fixes the direction chosen for
// coincident vertices.
func NewRepulsion(strength, radius float64, falloff Falloff, seed int64) *Repulsion {
	if falloff != FalloffQuadratic {
		falloff = FalloffLinear
	}
	return &Repulsion{
		strength: strength,
		radius:   radius,
		falloff:  falloff,
		noise:    opensimplex.New(seed),
	}
}

// Name returns the name of the force law
func (r *Repulsion) Name() string {
	return "repulsion/" + string(r.falloff)
}

// Radius returns the separation beyond which the law contributes nothing.
func (r *Repulsion) Radius() float64 {
	return r.radius
}

// Relate returns the repulsive force on self from other.
func (r *Repulsion) Relate(self, other graph.Vertex) graph.Vec2 {
	d := self.Position.Sub(other.Position)
	dist := d.Len()

	if dist == 0 {
		return r.tieBreak(self.ID, other.ID).Scale(r.strength)
	}
	if dist >= r.radius || math.IsNaN(dist) {
		return graph.Vec2{}
	}

	// Normalize before scaling so tiny separations cannot overflow.
	unit := graph.Vec2{X: d.X / dist, Y: d.Y / dist}
	return unit.Scale(r.magnitude(dist))
}

func (r *Repulsion) magnitude(dist float64) float64 {
	t := 1 - dist/r.radius
	if r.falloff == FalloffQuadratic {
		return r.strength * t * t
	}
	return r.strength * t
}

// tieBreak returns a unit vector for a coincident pair. The angle depends
// only on the unordered pair; the sign flips with the order so that both
// sides are pushed apart.
func (r *Repulsion) tieBreak(a, b int) graph.Vec2 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	angle := math.Pi * r.noise.Eval2(float64(lo)*0.61+0.17, float64(hi)*0.37+0.43)
	u := graph.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
	if a > b {
		return u.Scale(-1)
	}
	return u
}

// NewForceLaw returns a force law by falloff name
func NewForceLaw(name string, strength, radius float64, seed int64) ForceLaw {
	switch strings.ToLower(name) {
	case string(FalloffQuadratic):
		return NewRepulsion(strength, radius, FalloffQuadratic, seed)
	default:
		// Default to linear
		return NewRepulsion(strength, radius, FalloffLinear, seed)
	}
}
