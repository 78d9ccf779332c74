package models

import (
	"fmt"
	"math"
)

// VertexFilter selects vertices of a frame
type VertexFilter func(VertexState) bool

// Find returns the state of vertex id.
func (f Frame) Find(id int) (VertexState, error) {
	for _, v := range f.Vertices {
		if v.ID == id {
			return v, nil
		}
	}
	return VertexState{}, fmt.Errorf("vertex %d not in frame %d", id, f.Tick)
}

// Filter returns the vertices matching filter.
func (f Frame) Filter(filter VertexFilter) []VertexState {
	var out []VertexState
	for _, v := range f.Vertices {
		if filter(v) {
			out = append(out, v)
		}
	}
	return out
}

// Bounds returns the bounding box of the vertex centres. An empty frame has
// a zero box.
func (f Frame) Bounds() Rect {
	if len(f.Vertices) == 0 {
		return Rect{}
	}
	r := Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, v := range f.Vertices {
		r.MinX = math.Min(r.MinX, v.X)
		r.MinY = math.Min(r.MinY, v.Y)
		r.MaxX = math.Max(r.MaxX, v.X)
		r.MaxY = math.Max(r.MaxY, v.Y)
	}
	return r
}

// Nearest returns the vertex closest to (x, y) within maxDist.
func (f Frame) Nearest(x, y, maxDist float64) (VertexState, bool) {
	best, bestDist := VertexState{}, math.Inf(1)
	for _, v := range f.Vertices {
		d := math.Hypot(v.X-x, v.Y-y)
		if d <= maxDist && d < bestDist {
			best, bestDist = v, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}
