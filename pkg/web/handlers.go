package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
	"github.com/teslashibe/go-faceoverlay/pkg/hub"
)

// Status is the dashboard summary
type Status struct {
	TrackedFaces   int              `json:"tracked_faces"`
	Graphics       int              `json:"graphics"`
	OverlayClients int              `json:"overlay_clients"`
	CameraClients  int              `json:"camera_clients"`
	Frames         *facetrack.Stats `json:"frames,omitempty"`
}

// FaceInfo describes one tracked face
type FaceInfo struct {
	TrackingID int     `json:"tracking_id"`
	GraphicID  string  `json:"graphic_id,omitempty"`
	Left       int     `json:"left"`
	Top        int     `json:"top"`
	Right      int     `json:"right"`
	Bottom     int     `json:"bottom"`
	Confidence float64 `json:"confidence"`
	HeadEulerY float64 `json:"head_euler_y"`
	HeadEulerZ float64 `json:"head_euler_z"`
}

type identified interface {
	ID() string
}

// handleStatus returns pipeline counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := Status{
		TrackedFaces:   s.deps.Tracker.Len(),
		Graphics:       s.deps.Overlay.Len(),
		OverlayClients: s.overlayHub.ClientCount(),
		CameraClients:  s.cameraHub.ClientCount(),
	}
	if s.deps.Stats != nil {
		frames := s.deps.Stats.Stats()
		st.Frames = &frames
	}
	return c.JSON(st)
}

// handleFaces returns the currently tracked faces
func (s *Server) handleFaces(c *fiber.Ctx) error {
	tracked := s.deps.Tracker.Snapshot()

	out := make([]FaceInfo, 0, len(tracked))
	for _, tf := range tracked {
		b := tf.Face.Bounds
		info := FaceInfo{
			TrackingID: tf.Face.TrackingID,
			Left:       b.Min.X,
			Top:        b.Min.Y,
			Right:      b.Max.X,
			Bottom:     b.Max.Y,
			Confidence: tf.Face.Confidence,
			HeadEulerY: tf.Face.HeadEulerY,
			HeadEulerZ: tf.Face.HeadEulerZ,
		}
		if g, ok := tf.Graphic.(identified); ok {
			info.GraphicID = g.ID()
		}
		out = append(out, info)
	}
	return c.JSON(out)
}

// handleOverlay returns the rendered overlay
func (s *Server) handleOverlay(c *fiber.Ctx) error {
	return c.JSON(s.deps.Overlay.Snapshot())
}

// handleGetCamera returns the camera configuration
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.deps.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "camera not configured"})
	}
	return c.JSON(s.deps.Camera.GetConfig())
}

// handleUpdateCamera applies runtime camera settings
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.deps.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "camera not configured"})
	}

	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	if err := s.deps.Camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.deps.Camera.GetConfig())
}

// handleOverlayWS sends the current scene, then every published scene
func (s *Server) handleOverlayWS(c *websocket.Conn) {
	if err := c.WriteJSON(s.deps.Overlay.Snapshot()); err != nil {
		return
	}
	hub.NewClient(s.overlayHub, c).Run()
}

// handleCameraWS streams camera frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
