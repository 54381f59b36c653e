// Package camera provides camera settings and a gocv-backed frame source.
package camera

import (
	"time"

	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
)

// Config holds all camera configuration parameters.
type Config struct {
	// === Device ===
	DeviceID int    `json:"device_id"` // VideoCapture device index
	Facing   string `json:"facing"`    // "back" or "front"

	// === Resolution ===
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100
}

// Capture limits
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns a 640x480 back-camera configuration.
// Face detection does not gain from more pixels at typical distances.
func DefaultConfig() Config {
	return Config{
		DeviceID:  0,
		Facing:    "back",
		Width:     640,
		Height:    480,
		Framerate: 15,
		Quality:   80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c Config) Validate() []string {
	var errors []string

	if c.DeviceID < 0 {
		errors = append(errors, "device_id must not be negative")
	}
	if c.Facing != "back" && c.Facing != "front" {
		errors = append(errors, "facing must be back or front")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}

// CameraFacing returns the facing as a facetrack value.
func (c Config) CameraFacing() facetrack.CameraFacing {
	return facetrack.ParseFacing(c.Facing)
}

// FrameInterval is the time between frames at the configured framerate.
func (c Config) FrameInterval() time.Duration {
	if c.Framerate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.Framerate)
}
