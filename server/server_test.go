package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TFMV/graphsurface/config"
	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(config.Default(), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateVertex(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/vertices", `{"x": 10, "y": -4}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var v models.VertexState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, 0, v.ID)
	assert.Equal(t, 10.0, v.X)
	assert.Equal(t, -4.0, v.Y)

	resp = do(t, http.MethodPost, ts.URL+"/api/vertices", `{"x": 0, "y": 0}`)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, 1, v.ID)
}

func TestCreateVertexRejectsBadBody(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing y", `{"x": 1}`},
		{"empty", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/api/vertices", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestDragVertex(t *testing.T) {
	s, ts := newTestServer(t)
	s.Session().CreateVertex(graph.Vec2{})

	resp := do(t, http.MethodPut, ts.URL+"/api/vertices/0/position", `{"x": 30, "y": 40}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	frame := s.Session().Tick()
	require.Len(t, frame.Vertices, 1)
	assert.Equal(t, 30.0, frame.Vertices[0].X)
	assert.Equal(t, 40.0, frame.Vertices[0].Y)
}

func TestDragUnknownVertex(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPut, ts.URL+"/api/vertices/7/position", `{"x": 1, "y": 1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPut, ts.URL+"/api/vertices/abc/position", `{"x": 1, "y": 1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFrameReflectsTicks(t *testing.T) {
	s, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/frame", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var frame models.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	assert.Empty(t, frame.Vertices)
	assert.Equal(t, s.Session().Info().ID, frame.Session)

	s.Session().CreateVertex(graph.Vec2{})
	s.Session().CreateVertex(graph.Vec2{X: 10})
	s.Session().Tick()

	resp = do(t, http.MethodGet, ts.URL+"/api/frame", "")
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	assert.Equal(t, uint64(1), frame.Tick)
	require.Len(t, frame.Vertices, 2)
	assert.Less(t, frame.Vertices[0].X, 0.0)
	assert.Greater(t, frame.Vertices[1].X, 10.0)
}

func TestRender(t *testing.T) {
	s, ts := newTestServer(t)
	s.Session().CreateVertex(graph.Vec2{})
	s.Session().Tick()

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"", "image/svg+xml", "<svg"},
		{"svg", "image/svg+xml", "<svg"},
		{"dot", "text/vnd.graphviz", "graph G"},
		{"ascii", "text/plain", "o"},
	}
	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.URL+"/api/render?format="+tt.format, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.contains)
		})
	}

	resp := do(t, http.MethodGet, ts.URL+"/api/render?format=webgl", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionAndHealth(t *testing.T) {
	s, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info models.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, s.Session().Info().ID, info.ID)
	assert.Equal(t, "http", info.Name)

	resp = do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s, ts := newTestServer(t)
	s.Session().CreateVertex(graph.Vec2{})
	s.Session().CreateVertex(graph.Vec2{X: 1})
	s.Session().Tick()
	do(t, http.MethodGet, ts.URL+"/api/frame", "")

	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "graphsurface_ticks_total 1")
	assert.Contains(t, buf.String(), `route="frame"`)
}

func TestOversizedBodyRejected(t *testing.T) {
	s, ts := newTestServer(t)
	s.Session().CreateVertex(graph.Vec2{})

	body := `{"x": 1, "y": 2, "pad": "` + strings.Repeat("a", maxBodyBytes) + `"}`

	resp := do(t, http.MethodPost, ts.URL+"/api/vertices", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = do(t, http.MethodPut, ts.URL+"/api/vertices/0/position", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	frame := s.Session().Tick()
	require.Len(t, frame.Vertices, 1)
	assert.Equal(t, 0.0, frame.Vertices[0].X)
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	s := New(config.Default(), slog.New(slog.NewTextHandler(&logs, nil)))

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, math.NaN())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "failed to encode response")
}
