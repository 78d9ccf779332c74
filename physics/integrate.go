package physics

import "github.com/TFMV/graphsurface/graph"

// Integrator advances one vertex by one tick from its accumulated force.
type Integrator interface {
	Integrate(v graph.Vertex) graph.Vertex
}

// DampedEuler treats force as a positional displacement. There is no
// velocity field, so motion stops as soon as the force does.
type DampedEuler struct {
	Step            float64
	Damping         float64
	MaxDisplacement float64 // zero disables the limit
}

// Integrate moves v by Damping*Step*Force, limited to MaxDisplacement.
func (e DampedEuler) Integrate(v graph.Vertex) graph.Vertex {
	if !v.Force.IsFinite() {
		return v
	}

	delta := v.Force.Scale(e.Damping * e.Step)
	if e.MaxDisplacement > 0 {
		if l := delta.Len(); l > e.MaxDisplacement {
			delta = delta.Scale(e.MaxDisplacement / l)
		}
	}

	v.Position = v.Position.Add(delta)
	return v
}
