package graph

import "fmt"

// Vertex is a point-mass in the layout. It is a plain value: two vertices
// are equal exactly when every field matches.
type Vertex struct {
	ID       int
	Position Vec2
	Force    Vec2 // accumulated during a tick, zeroed before the next one
}

// ResetForce clears the accumulator.
func (v *Vertex) ResetForce() {
	v.Force = Vec2{}
}

// AddForce adds f to the accumulator.
func (v *Vertex) AddForce(f Vec2) {
	v.Force = v.Force.Add(f)
}

// Graph is the ordered collection of vertices and the only place ids are
// minted. It is not safe for concurrent use; the simulation owns it.
type Graph struct {
	vertices []Vertex
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{vertices: make([]Vertex, 0)}
}

// CreateVertex appends a vertex at pos with a zero accumulator. Its id is
// the graph size before insertion.
func (g *Graph) CreateVertex(pos Vec2) Vertex {
	v := Vertex{ID: len(g.vertices), Position: pos}
	g.vertices = append(g.vertices, v)
	return v
}

// Len returns the number of vertices, which is also the next id.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// Vertices returns pointers to the live vertices in insertion order. The
// pointers are invalidated by the next CreateVertex or Replace.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, len(g.vertices))
	for i := range g.vertices {
		out[i] = &g.vertices[i]
	}
	return out
}

// Vertex returns a copy of the vertex with the given id.
func (g *Graph) Vertex(id int) (Vertex, bool) {
	if id < 0 || id >= len(g.vertices) {
		return Vertex{}, false
	}
	return g.vertices[id], true
}

// Snapshot returns a copy of every vertex in insertion order.
func (g *Graph) Snapshot() []Vertex {
	out := make([]Vertex, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Replace swaps in next as the new vertex state. next must hold the same
// ids in the same order; anything else is a programming error.
func (g *Graph) Replace(next []Vertex) {
	if len(next) != len(g.vertices) {
		panic(fmt.Sprintf("graph: replace with %d vertices, have %d", len(next), len(g.vertices)))
	}
	for i := range next {
		if next[i].ID != g.vertices[i].ID {
			panic(fmt.Sprintf("graph: replace id mismatch at %d: %d != %d", i, next[i].ID, g.vertices[i].ID))
		}
	}
	copy(g.vertices, next)
}
