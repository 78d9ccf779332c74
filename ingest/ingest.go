// Package ingest loads event scripts that drive a simulation without a
// window: recorded sessions, fixtures and regression scenarios.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TFMV/graphsurface/models"
	"github.com/TFMV/graphsurface/physics"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrEmptyScript is returned for a script without steps.
var ErrEmptyScript = errors.New("script has no steps")

// ScriptProcessor defines the interface that all script processors must implement
type ScriptProcessor interface {
	// ProcessData takes raw data bytes and returns the script they describe
	ProcessData(data []byte) (*models.Script, error)

	// GetName returns the name of the processor
	GetName() string
}

const scriptSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["steps"],
  "properties": {
    "name": {"type": "string"},
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["action"],
        "additionalProperties": false,
        "properties": {
          "action": {"enum": ["create", "drag", "tick"]},
          "id": {"type": "integer", "minimum": 0},
          "x": {"type": "number"},
          "y": {"type": "number"},
          "frames": {"type": "integer", "minimum": 0}
        },
        "allOf": [
          {
            "if": {"properties": {"action": {"const": "drag"}}},
            "then": {"required": ["id", "x", "y"]}
          },
          {
            "if": {"properties": {"action": {"const": "create"}}},
            "then": {"required": ["x", "y"]}
          }
        ]
      }
    }
  }
}`

// JSONProcessor handles JSON scripts, validated against a JSON Schema
type JSONProcessor struct {
	schema *jsonschema.Schema
}

// NewJSONProcessor creates a JSON processor with the compiled script schema
func NewJSONProcessor() (*JSONProcessor, error) {
	sch, err := jsonschema.CompileString("script.json", scriptSchema)
	if err != nil {
		return nil, fmt.Errorf("compile script schema: %w", err)
	}
	return &JSONProcessor{schema: sch}, nil
}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData parses and validates a JSON script
func (p *JSONProcessor) ProcessData(data []byte) (*models.Script, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	if err := p.schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}

	var script models.Script
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("error decoding script: %w", err)
	}
	return finish(&script)
}

// CSVProcessor handles CSV scripts with an action,id,x,y,frames header
type CSVProcessor struct{}

// NewCSVProcessor creates a new CSV processor
func NewCSVProcessor() *CSVProcessor {
	return &CSVProcessor{}
}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData parses a CSV script. Columns are located by header name and
// may appear in any order; only "action" is required.
func (p *CSVProcessor) ProcessData(data []byte) (*models.Script, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	cols := map[string]int{"action": -1, "id": -1, "x": -1, "y": -1, "frames": -1}
	for i, col := range header {
		if _, ok := cols[strings.ToLower(strings.TrimSpace(col))]; ok {
			cols[strings.ToLower(strings.TrimSpace(col))] = i
		}
	}
	if cols["action"] == -1 {
		return nil, fmt.Errorf("CSV must contain an action column")
	}

	script := &models.Script{Name: "csv"}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row %d: %w", line, err)
		}

		field := func(name string) string {
			i := cols[name]
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		ev := models.Event{Action: models.Action(strings.ToLower(field("action")))}
		if ev.ID, err = parseInt(field("id")); err != nil {
			return nil, fmt.Errorf("row %d: id: %w", line, err)
		}
		if ev.Frames, err = parseInt(field("frames")); err != nil {
			return nil, fmt.Errorf("row %d: frames: %w", line, err)
		}
		if ev.X, err = parseFloat(field("x")); err != nil {
			return nil, fmt.Errorf("row %d: x: %w", line, err)
		}
		if ev.Y, err = parseFloat(field("y")); err != nil {
			return nil, fmt.Errorf("row %d: y: %w", line, err)
		}
		script.Steps = append(script.Steps, ev)
	}

	return finish(script)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func finish(script *models.Script) (*models.Script, error) {
	if len(script.Steps) == 0 {
		return nil, ErrEmptyScript
	}
	for i, ev := range script.Steps {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return script, nil
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string) (ScriptProcessor, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return NewJSONProcessor()
	case "csv":
		return NewCSVProcessor(), nil
	default:
		return nil, fmt.Errorf("unsupported script format: %s", format)
	}
}

// Play applies every step of script to sim in order and returns the result
// of the last tick. A script that never ticks returns the current state
// without advancing.
func Play(ctx context.Context, sim *physics.Simulation, script *models.Script) (physics.Result, error) {
	last := physics.Result{Stats: sim.Last(), Vertices: sim.Snapshot()}
	for i, ev := range script.Steps {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		res, err := ev.Apply(sim)
		if err != nil {
			return last, fmt.Errorf("step %d (%s): %w", i, ev.Action, err)
		}
		if res != nil {
			last = *res
		}
	}
	if sim.Len() != len(last.Vertices) {
		last.Vertices = sim.Snapshot()
	}
	return last, nil
}
