package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/TFMV/graphsurface/config"
	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/metrics"
	"github.com/TFMV/graphsurface/physics"
	"github.com/TFMV/graphsurface/render"
)

// Server exposes one session over HTTP
type Server struct {
	config  *config.Config
	session *Session
	metrics *metrics.Registry
	logger  *slog.Logger
}

// maxBodyBytes bounds the request bodies read by the vertex handlers.
const maxBodyBytes = 4 << 10

type positionRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// New creates a server around a fresh simulation built from cfg
func New(cfg *config.Config, logger *slog.Logger) *Server {
	reg := metrics.NewRegistry()
	sim := physics.New(cfg.Physics.Settings())
	sim.SetObserver(reg)
	sim.SetLogger(logger)

	return &Server{
		config:  cfg,
		session: NewSession("http", sim, logger),
		metrics: reg,
		logger:  logger,
	}
}

// Session returns the session served
func (s *Server) Session() *Session {
	return s.session
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/vertices", s.instrument("create", s.handleCreate()))
	mux.HandleFunc("PUT /api/vertices/{id}/position", s.instrument("drag", s.handleDrag()))
	mux.HandleFunc("GET /api/frame", s.instrument("frame", s.handleFrame()))
	mux.HandleFunc("GET /api/render", s.instrument("render", s.handleRender()))
	mux.HandleFunc("GET /api/session", s.instrument("session", s.handleSession()))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Start runs the tick loop and serves HTTP until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go s.session.Run(ctx, s.config.Server.TickInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", srv.Addr, "session", s.session.Info().ID.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.RecordHTTPRequest(route, strconv.Itoa(rec.status))
		s.logger.Debug("request", "route", route, "method", r.Method, "status", rec.status)
	}
}

// handleCreate creates a vertex at the posted position
func (s *Server) handleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pos, err := decodePosition(w, r)
		if err != nil {
			http.Error(w, err.Error(), decodeStatus(err))
			return
		}
		v := s.session.CreateVertex(pos)
		s.writeJSON(w, http.StatusCreated, v)
	}
}

// handleDrag records the dragged position of a vertex
func (s *Server) handleDrag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid vertex id", http.StatusBadRequest)
			return
		}
		pos, err := decodePosition(w, r)
		if err != nil {
			http.Error(w, err.Error(), decodeStatus(err))
			return
		}
		if err := s.session.Drag(id, pos); err != nil {
			if errors.Is(err, physics.ErrUnknownVertex) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleFrame returns the latest published frame
func (s *Server) handleFrame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.session.Frame())
	}
}

// handleRender renders the latest frame in the requested format
func (s *Server) handleRender() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "svg" // Default format
		}

		renderer, err := render.GetRenderer(format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		options := render.NewDefaultOptions(format)
		options.Width = float64(s.config.Window.Width)
		options.Height = float64(s.config.Window.Height)
		options.FgRadius = s.config.Window.FgRadius
		options.BgRadius = s.config.Window.BgRadius
		if v := r.URL.Query().Get("width"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				options.Width = float64(n)
			}
		}
		if v := r.URL.Query().Get("height"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				options.Height = float64(n)
			}
		}

		output, err := renderer.Render(s.session.Frame(), options)
		if err != nil {
			http.Error(w, "Error generating visualization: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", render.ContentType(format))
		w.Write(output)
	}
}

// handleSession returns the session metadata
func (s *Server) handleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.session.Info())
	}
}

func decodePosition(w http.ResponseWriter, r *http.Request) (graph.Vec2, error) {
	var req positionRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return graph.Vec2{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.X == nil || req.Y == nil {
		return graph.Vec2{}, errors.New("body must contain x and y")
	}
	pos := graph.Vec2{X: *req.X, Y: *req.Y}
	if !pos.IsFinite() {
		return graph.Vec2{}, errors.New("position must be finite")
	}
	return pos, nil
}

// decodeStatus maps a decodePosition error to a response status.
func decodeStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		s.logger.Error("failed to encode response", "status", status, "error", err)
	}
}
