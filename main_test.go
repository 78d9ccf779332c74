package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/TFMV/graphsurface/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenario = `{"name": "scenario", "steps": [
  {"action": "create", "x": 100, "y": 50},
  {"action": "create", "x": 105, "y": 50},
  {"action": "tick"},
  {"action": "drag", "id": 0, "x": 500, "y": 500},
  {"action": "tick", "frames": 2}
]}`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReplayWritesOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "scenario.json")
	require.NoError(t, os.WriteFile(script, []byte(scenario), 0644))

	cfg := config.Default()
	opts := &Configuration{
		Mode:       "replay",
		ScriptFile: script,
		OutputFile: filepath.Join(dir, "out.json"),
		Format:     "json",
		Ticks:      0,
	}
	applyFlags(cfg, opts)
	require.NoError(t, run(context.Background(), cfg, opts, discard()))

	data, err := os.ReadFile(opts.OutputFile)
	require.NoError(t, err)

	var out struct {
		Vertices []struct {
			ID int     `json:"id"`
			X  float64 `json:"x"`
			Y  float64 `json:"y"`
		} `json:"vertices"`
		Metadata map[string]any `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 3.0, out.Metadata["tick"])
	require.Len(t, out.Vertices, 2)
	assert.Equal(t, 500.0, out.Vertices[0].X)
	assert.Equal(t, 500.0, out.Vertices[0].Y)
}

func TestReplaySettles(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "pair.csv")
	csv := "action,id,x,y,frames\ncreate,,0,0,\ncreate,,10,0,\n"
	require.NoError(t, os.WriteFile(script, []byte(csv), 0644))

	cfg := config.Default()
	opts := &Configuration{
		Mode:       "replay",
		ScriptFile: script,
		OutputFile: filepath.Join(dir, "out.txt"),
		Format:     "ascii",
		Ticks:      200,
	}
	applyFlags(cfg, opts)
	require.NoError(t, run(context.Background(), cfg, opts, discard()))

	data, err := os.ReadFile(opts.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stable true")
}

func TestReplayErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()

	_, err := loadScript(filepath.Join(dir, "script.yaml"))
	assert.Error(t, err)

	_, err = loadScript(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"steps":[{"action":"explode"}]}`), 0644))
	err = run(context.Background(), cfg, &Configuration{Mode: "replay", ScriptFile: bad, Format: "svg"}, discard())
	assert.Error(t, err)

	err = run(context.Background(), cfg, &Configuration{Mode: "nope"}, discard())
	assert.ErrorContains(t, err, "unsupported mode")
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	applyFlags(cfg, &Configuration{Addr: ":9999", Ticks: -1, DebugMode: true})
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 1000, cfg.Physics.SettleTicks)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestOutputExtension(t *testing.T) {
	assert.Equal(t, "txt", outputExtension("ascii"))
	assert.Equal(t, "svg", outputExtension("svg"))
	assert.Equal(t, "dot", outputExtension("dot"))
}
