// Package web serves the panbot status dashboard: a small JSON API and
// a websocket feed of live motion state. Purely observational except for
// a tracking on/off toggle that goes through the same flag store the
// voice commands use.
package web

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/astromech/panbot/internal/log"
	"github.com/astromech/panbot/pkg/hub"
	"github.com/astromech/panbot/pkg/motion"
	"github.com/astromech/panbot/pkg/perception"
)

// statusPeriod is how often the live status feed is pushed.
const statusPeriod = 250 * time.Millisecond

// maxLogEntries bounds the in-memory log ring.
const maxLogEntries = 500

// Status is the dashboard snapshot.
type Status struct {
	CurrentAngle    float64 `json:"current_angle"`
	TargetAngle     float64 `json:"target_angle"`
	TrackingEnabled bool    `json:"tracking_enabled"`
	Muted           bool    `json:"muted"`
	Interpolating   bool    `json:"interpolating"`
	TargetAcquired  bool    `json:"target_acquired"`
	Ticks           uint64  `json:"ticks"`
	Commands        uint64  `json:"commands"`
	Overruns        uint64  `json:"overruns"`
	Polls           uint64  `json:"polls"`
	Detections      uint64  `json:"detections"`
	Clients         int     `json:"clients"`
}

// LogEntry is one dashboard log line.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Server is the dashboard HTTP server.
type Server struct {
	app  *fiber.App
	addr string

	state   *motion.State
	loop    *motion.Loop
	adapter *perception.Adapter

	statusHub *hub.Hub

	logsMu sync.RWMutex
	logs   []LogEntry
}

// NewServer builds the dashboard over the shared motion state.
// adapter may be nil when perception is not running.
func NewServer(addr string, state *motion.State, loop *motion.Loop, adapter *perception.Adapter) *Server {
	s := &Server{
		addr:      addr,
		state:     state,
		loop:      loop,
		adapter:   adapter,
		statusHub: hub.New("status"),
		logs:      make([]LogEntry, 0, maxLogEntries),
	}

	app := fiber.New(fiber.Config{
		AppName:               "panbot dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleLogs)
	api.Post("/tracking", s.handleTracking)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Run serves until the context is cancelled, then shuts the listener
// down. Intended to be run as its own goroutine group member.
func (s *Server) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	go s.statusHub.Run(ctx)
	go s.broadcastLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr)
	}()
	log.Info("dashboard listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			log.Warn("dashboard shutdown", "error", err)
		}
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error("dashboard server failed", "error", err)
		}
	}
	log.Info("dashboard stopped")
}

// AddLog appends a dashboard log line.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	}
	s.logsMu.Lock()
	if len(s.logs) >= maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logs = append(s.logs, entry)
	s.logsMu.Unlock()
}

func (s *Server) snapshot() Status {
	current, target := s.state.Angles()
	tracking, muted := s.state.Flags()
	stats := s.loop.Stats()

	st := Status{
		CurrentAngle:    current,
		TargetAngle:     target,
		TrackingEnabled: tracking,
		Muted:           muted,
		Interpolating:   s.loop.Interpolating(),
		Ticks:           stats.Ticks,
		Commands:        stats.Commands,
		Overruns:        stats.Overruns,
		Clients:         s.statusHub.ClientCount(),
	}
	if s.adapter != nil {
		st.TargetAcquired = s.adapter.TargetAcquired()
		st.Polls, st.Detections = s.adapter.Stats()
	}
	return st
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(statusPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.statusHub.ClientCount() > 0 {
				if err := s.statusHub.BroadcastJSON(s.snapshot()); err != nil {
					log.Warn("status broadcast failed", "error", err)
				}
			}
		}
	}
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.snapshot())
}

func (s *Server) handleLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	logs := make([]LogEntry, len(s.logs))
	copy(logs, s.logs)
	s.logsMu.RUnlock()
	return c.JSON(logs)
}

// handleTracking toggles target following from the dashboard. Uses the
// same flag methods as the voice dispatcher, so the loops can't tell the
// difference.
func (s *Server) handleTracking(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected {\"enabled\": bool}")
	}
	s.state.SetTrackingEnabled(body.Enabled)
	log.Info("tracking toggled from dashboard", "enabled", body.Enabled)
	if body.Enabled {
		s.AddLog("info", "tracking enabled from dashboard")
	} else {
		s.AddLog("info", "tracking disabled from dashboard")
	}
	return c.JSON(fiber.Map{"tracking_enabled": body.Enabled})
}

func (s *Server) handleStatusWS(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)
	client.Run()
}
