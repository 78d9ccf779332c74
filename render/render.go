package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/models"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format     string   // Output format (svg, ascii, json, dot)
	Width      float64  // Width of the output
	Height     float64  // Height of the output
	BgRadius   float64  // Radius of the background glyph
	FgRadius   float64  // Radius of the foreground glyph
	Palette    *Palette // Glyph colors
	Timestamp  bool     // Include timestamp in visualization
	ShowLabels bool     // Show vertex ids
	FontSize   float64  // Font size for labels
}

// Palette holds the glyph colors.
type Palette struct {
	Background string
	BgNode     string
	FgNode     string
	Hovered    string
	Pressed    string
	Text       string
	Prompt     string
}

// DefaultPalette returns the grey palette of the interactive surface.
func DefaultPalette() *Palette {
	return &Palette{
		Background: "#1a1a1a",
		BgNode:     "#333333", // rgb(0.2, 0.2, 0.2)
		FgNode:     "#808080", // rgb(0.5, 0.5, 0.5)
		Hovered:    "#a6a6a6", // rgb(0.65, 0.65, 0.65)
		Pressed:    "#4d4d4d", // rgb(0.3, 0.3, 0.3)
		Text:       "#e6e6e6", // rgb(0.9, 0.9, 0.9)
		Prompt:     "#666666", // rgb(0.4, 0.4, 0.4)
	}
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the frame using the provided options
	Render(frame models.Frame, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:     format,
		Width:      1280,
		Height:     720,
		BgRadius:   50,
		FgRadius:   40,
		Palette:    DefaultPalette(),
		Timestamp:  false,
		ShowLabels: true,
		FontSize:   14,
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "svg":
		return "image/svg+xml"
	case "json":
		return "application/json"
	case "dot":
		return "text/vnd.graphviz"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ToScreen maps an origin-centred, y-up simulation position to top-left,
// y-down screen coordinates of a width x height surface.
func ToScreen(p graph.Vec2, width, height float64) (float64, float64) {
	return width/2 + p.X, height/2 - p.Y
}

// FromScreen is the inverse of ToScreen.
func FromScreen(sx, sy, width, height float64) graph.Vec2 {
	return graph.Vec2{X: sx - width/2, Y: height/2 - sy}
}

// ordered returns the frame's vertices sorted by id so every renderer
// draws in identity order regardless of how the frame was assembled.
func ordered(frame models.Frame) []models.VertexState {
	out := make([]models.VertexState, len(frame.Vertices))
	copy(out, frame.Vertices)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func palette(options *OutputOptions) *Palette {
	if options.Palette == nil {
		return DefaultPalette()
	}
	return options.Palette
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders the layout as Scalable Vector Graphics (SVG)"
}

// Render creates an SVG representation of the frame. All background glyphs
// are emitted before any foreground glyph.
func (r *SVGRenderer) Render(frame models.Frame, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	pal := palette(options)
	vertices := ordered(frame)

	buf.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%f" height="%f" viewBox="0 0 %f %f" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, pal.Background))

	buf.WriteString(`<g class="background">` + "\n")
	for _, v := range vertices {
		x, y := ToScreen(v.Position(), options.Width, options.Height)
		buf.WriteString(fmt.Sprintf(`  <circle class="bg" data-id="%d" cx="%f" cy="%f" r="%f" fill="%s"/>`+"\n",
			v.ID, x, y, options.BgRadius, pal.BgNode))
	}
	buf.WriteString("</g>\n")

	buf.WriteString(`<g class="foreground">` + "\n")
	for _, v := range vertices {
		x, y := ToScreen(v.Position(), options.Width, options.Height)
		buf.WriteString(fmt.Sprintf(`  <circle class="fg" data-id="%d" cx="%f" cy="%f" r="%f" fill="%s"/>`+"\n",
			v.ID, x, y, options.FgRadius, pal.FgNode))
		if options.ShowLabels {
			buf.WriteString(fmt.Sprintf(`  <text x="%f" y="%f" font-family="sans-serif" font-size="%f" fill="%s" text-anchor="middle" dominant-baseline="middle">%d</text>`+"\n",
				x, y, options.FontSize, pal.Text, v.ID))
		}
	}
	buf.WriteString("</g>\n")

	if len(vertices) == 0 {
		buf.WriteString(fmt.Sprintf(`<text x="%f" y="%f" font-family="sans-serif" font-size="%f" fill="%s" text-anchor="middle">To create a new vertex press RMB</text>`+"\n",
			options.Width/2, options.Height/2, options.FontSize*2, pal.Prompt))
	}

	if options.Timestamp {
		timeStr := time.Now().Format("2006-01-02 15:04:05")
		buf.WriteString(fmt.Sprintf(`<text x="5" y="%f" font-family="sans-serif" font-size="8" fill="#808080">%s</text>`+"\n",
			options.Height-5, timeStr))
	}

	buf.WriteString(`</svg>`)
	return buf.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders the layout as ASCII art for terminal or text-based output"
}

// Grid returns the ASCII cell grid of the frame, without a border.
// Background glyphs are drawn as '.', foreground glyphs as 'o' and the
// centre as the last digit of the vertex id.
func (r *ASCIIRenderer) Grid(frame models.Frame, options *OutputOptions, cols, rows int) [][]rune {
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}
	if cols == 0 || rows == 0 {
		return grid
	}

	cellW := options.Width / float64(cols)
	cellH := options.Height / float64(rows)
	vertices := ordered(frame)

	stamp := func(radius float64, glyph rune) {
		for _, v := range vertices {
			cx, cy := ToScreen(v.Position(), options.Width, options.Height)
			for row := 0; row < rows; row++ {
				for col := 0; col < cols; col++ {
					x := (float64(col) + 0.5) * cellW
					y := (float64(row) + 0.5) * cellH
					if math.Hypot(x-cx, y-cy) <= radius {
						grid[row][col] = glyph
					}
				}
			}
		}
	}
	stamp(options.BgRadius, '.')
	stamp(options.FgRadius, 'o')

	for _, v := range vertices {
		cx, cy := ToScreen(v.Position(), options.Width, options.Height)
		col := clamp(int(cx/cellW), 0, cols-1)
		row := clamp(int(cy/cellH), 0, rows-1)
		if cx >= 0 && cx < options.Width && cy >= 0 && cy < options.Height {
			grid[row][col] = rune('0' + v.ID%10)
		}
	}
	return grid
}

// Render creates an ASCII representation of the frame
func (r *ASCIIRenderer) Render(frame models.Frame, options *OutputOptions) ([]byte, error) {
	// Calculate dimensions based on options
	width := max(int(options.Width/10), 40)
	height := max(int(options.Height/20), 20)

	inner := r.Grid(frame, options, width-2, height-2)

	var result strings.Builder
	border := "+" + strings.Repeat("-", width-2) + "+\n"
	result.WriteString(border)
	for _, row := range inner {
		result.WriteRune('|')
		result.WriteString(string(row))
		result.WriteString("|\n")
	}
	result.WriteString(border)
	result.WriteString(fmt.Sprintf("tick %d  vertices %d  stable %t\n", frame.Tick, len(frame.Vertices), frame.Stable))

	return []byte(result.String()), nil
}

// JSONRenderer outputs raw JSON format
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders the frame as JSON data for machine consumption or custom visualizations"
}

// Render creates a JSON representation of the frame with screen positions
// and depths for both glyphs of every vertex
func (r *JSONRenderer) Render(frame models.Frame, options *OutputOptions) ([]byte, error) {
	type jsonGlyph struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Z      float64 `json:"z"`
		Radius float64 `json:"radius"`
	}
	type jsonVertex struct {
		models.VertexState
		Background jsonGlyph `json:"background"`
		Foreground jsonGlyph `json:"foreground"`
	}
	type jsonFrame struct {
		Vertices []jsonVertex   `json:"vertices"`
		Metadata map[string]any `json:"metadata"`
	}

	out := jsonFrame{
		Vertices: make([]jsonVertex, 0, len(frame.Vertices)),
		Metadata: map[string]any{
			"session":     frame.Session.String(),
			"tick":        frame.Tick,
			"stable":      frame.Stable,
			"width":       options.Width,
			"height":      options.Height,
			"vertexCount": len(frame.Vertices),
		},
	}
	if options.Timestamp {
		out.Metadata["timestamp"] = time.Now().Format(time.RFC3339)
	}

	for _, v := range ordered(frame) {
		x, y := ToScreen(v.Position(), options.Width, options.Height)
		out.Vertices = append(out.Vertices, jsonVertex{
			VertexState: v,
			Background:  jsonGlyph{X: x, Y: y, Z: 0, Radius: options.BgRadius},
			Foreground:  jsonGlyph{X: x, Y: y, Z: 1, Radius: options.FgRadius},
		})
	}

	return json.MarshalIndent(out, "", "  ")
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders pinned vertex positions in Graphviz DOT format (use neato -n)"
}

// Render creates a DOT representation of the frame
func (r *DOTRenderer) Render(frame models.Frame, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	pal := palette(options)

	buf.WriteString("graph G {\n")
	buf.WriteString(fmt.Sprintf("  graph [bgcolor=\"%s\", size=\"%f,%f\"];\n",
		pal.Background, options.Width/72.0, options.Height/72.0))
	buf.WriteString(fmt.Sprintf("  node [shape=circle, style=filled, fixedsize=true, width=%f, fillcolor=\"%s\", color=\"%s\", penwidth=%f];\n",
		2*options.FgRadius/72.0, pal.FgNode, pal.BgNode, options.BgRadius-options.FgRadius))

	for _, v := range ordered(frame) {
		buf.WriteString(fmt.Sprintf("  \"%d\" [pos=\"%f,%f!\"];\n", v.ID, v.X, v.Y))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
