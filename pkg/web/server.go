// Package web provides the live overlay dashboard
package web

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-faceoverlay/internal/log"
	"github.com/teslashibe/go-faceoverlay/pkg/camera"
	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
	"github.com/teslashibe/go-faceoverlay/pkg/hub"
	"github.com/teslashibe/go-faceoverlay/pkg/overlay"
)

// StatsSource reports frame processing counters
type StatsSource interface {
	Stats() facetrack.Stats
}

// Deps are the pipeline components the dashboard reads from
type Deps struct {
	Tracker *facetrack.Tracker
	Overlay *overlay.Overlay
	Stats   StatsSource     // optional
	Camera  *camera.Manager // optional
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	deps   Deps
	logger *slog.Logger

	// Hubs for websocket broadcast
	overlayHub *hub.Hub
	cameraHub  *hub.Hub
}

// NewServer creates a new web dashboard server
func NewServer(port string, deps Deps) *Server {
	s := &Server{
		port:       port,
		deps:       deps,
		logger:     log.Component("web"),
		overlayHub: hub.New("overlay"),
		cameraHub:  hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Face Overlay",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/faces", s.handleFaces)
	api.Get("/overlay", s.handleOverlay)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleUpdateCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/overlay", websocket.New(s.handleOverlayWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured port until ctx is done or Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hubs and serves HTTP on ln
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("dashboard listening", "addr", ln.Addr().String())

	go s.overlayHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	return s.app.Listener(ln)
}

// PublishScene broadcasts an overlay scene to /ws/overlay clients
func (s *Server) PublishScene(scene overlay.Scene) {
	if err := s.overlayHub.BroadcastJSON(scene); err != nil {
		s.logger.Error("encode scene", "error", err)
	}
}

// SendCameraFrame sends a JPEG frame to /ws/camera clients
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// OverlayClients returns the number of connected overlay viewers
func (s *Server) OverlayClients() int {
	return s.overlayHub.ClientCount()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
