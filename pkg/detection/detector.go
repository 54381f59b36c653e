// Package detection provides face detection using computer vision
package detection

import (
	"errors"
	"image"
)

// ErrClosed is returned by detectors used after Close.
var ErrClosed = errors.New("detection: detector closed")

// Point is a normalized (0-1) image position
type Point struct {
	X, Y float64
}

// Landmark indices in Detection.Landmarks, in YuNet output order
const (
	LandmarkRightEye = iota
	LandmarkLeftEye
	LandmarkNose
	LandmarkMouthRight
	LandmarkMouthLeft
	numLandmarks
)

// Detection represents a detected face
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)

	Landmarks [numLandmarks]Point
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Rect scales the normalized box to a pixel rectangle for a width x height image
func (d Detection) Rect(width, height int) image.Rectangle {
	w, h := float64(width), float64(height)
	return image.Rect(
		int(d.X*w+0.5),
		int(d.Y*h+0.5),
		int((d.X+d.W)*w+0.5),
		int((d.Y+d.H)*h+0.5),
	)
}

// Backend is the interface for face detection backends
type Backend interface {
	// Detect finds faces in the image and returns their positions
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.6)
	NMSThresh        float64 // Non-maximum suppression overlap
	TopK             int     // Max candidates before NMS
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
	IoUThresh        float64 // Minimum overlap to keep a tracking ID between frames
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.6,
		NMSThresh:        0.3,
		TopK:             5000,
		InputWidth:       320,
		InputHeight:      320,
		IoUThresh:        0.3,
	}
}
