package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/TFMV/graphsurface/graph"
	"github.com/TFMV/graphsurface/models"
	"github.com/TFMV/graphsurface/physics"
)

// Session owns one simulation. The mutex serializes HTTP requests and the
// tick loop, so each tick still runs as a single uninterrupted step.
type Session struct {
	mu     sync.Mutex
	info   *models.Session
	sim    *physics.Simulation
	frame  models.Frame
	logger *slog.Logger
}

// NewSession wraps sim in a new session.
func NewSession(name string, sim *physics.Simulation, logger *slog.Logger) *Session {
	info := models.NewSession(name)
	return &Session{
		info:   info,
		sim:    sim,
		frame:  models.Frame{Session: info.ID, Vertices: []models.VertexState{}, CreatedAt: info.CreatedAt},
		logger: logger.With("session", info.ID.String()),
	}
}

// Info returns the session metadata.
func (s *Session) Info() models.Session {
	return *s.info
}

// CreateVertex adds a vertex at pos.
func (s *Session) CreateVertex(pos graph.Vec2) models.VertexState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.StateOf(s.sim.CreateVertex(pos))
}

// Drag records a drag override for the next tick.
func (s *Session) Drag(id int, pos graph.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Drag(id, pos)
}

// Tick advances the simulation once and stores the published frame.
func (s *Session) Tick() models.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = models.NewFrame(s.info.ID, s.sim.Tick())
	return s.frame
}

// Frame returns the most recently published frame.
func (s *Session) Frame() models.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Run ticks every interval until ctx is done.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("tick loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tick loop stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
