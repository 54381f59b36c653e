// Package config loads go-faceoverlay runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name, e.g. FACEOVERLAY_PORT.
const Prefix = "faceoverlay"

// Config is the full set of runtime settings for the faceoverlay command.
type Config struct {
	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Dashboard
	Port string `envconfig:"PORT" default:"8181"`

	// Camera
	CameraDevice int    `envconfig:"CAMERA_DEVICE" default:"0"`
	CameraFacing string `envconfig:"CAMERA_FACING" default:"back"`
	FrameWidth   int    `envconfig:"FRAME_WIDTH" default:"640"`
	FrameHeight  int    `envconfig:"FRAME_HEIGHT" default:"480"`
	Framerate    int    `envconfig:"FRAMERATE" default:"15"`
	JPEGQuality  int    `envconfig:"JPEG_QUALITY" default:"80"`

	// Detection
	ModelPath           string        `envconfig:"MODEL_PATH" default:"models/face_detection_yunet.onnx"`
	ConfidenceThreshold float64       `envconfig:"CONFIDENCE_THRESHOLD" default:"0.6"`
	IoUThreshold        float64       `envconfig:"IOU_THRESHOLD" default:"0.3"`
	DetectTimeout       time.Duration `envconfig:"DETECT_TIMEOUT" default:"2s"`

	// Overlay view size; zero means "same as the frame".
	ViewWidth  int `envconfig:"VIEW_WIDTH" default:"0"`
	ViewHeight int `envconfig:"VIEW_HEIGHT" default:"0"`
}

// Load reads the configuration from FACEOVERLAY_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.CameraFacing) {
	case "back", "front":
	default:
		errs = append(errs, fmt.Errorf("camera facing must be back or front, got %q", c.CameraFacing))
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		errs = append(errs, fmt.Errorf("frame size must be positive, got %dx%d", c.FrameWidth, c.FrameHeight))
	}
	if c.Framerate <= 0 {
		errs = append(errs, fmt.Errorf("framerate must be positive, got %d", c.Framerate))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality must be 1-100, got %d", c.JPEGQuality))
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("confidence threshold must be in (0,1], got %v", c.ConfidenceThreshold))
	}
	if c.IoUThreshold <= 0 || c.IoUThreshold >= 1 {
		errs = append(errs, fmt.Errorf("iou threshold must be in (0,1), got %v", c.IoUThreshold))
	}
	if c.ViewWidth < 0 || c.ViewHeight < 0 {
		errs = append(errs, fmt.Errorf("view size must not be negative, got %dx%d", c.ViewWidth, c.ViewHeight))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// View returns the overlay view size, falling back to the frame size.
func (c *Config) View() (width, height int) {
	width, height = c.ViewWidth, c.ViewHeight
	if width == 0 {
		width = c.FrameWidth
	}
	if height == 0 {
		height = c.FrameHeight
	}
	return width, height
}
