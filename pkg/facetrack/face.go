// Package facetrack keeps the set of faces visible on screen in step with a
// face detector. Each frame's detections are reconciled against the faces
// already tracked: new tracking IDs get a graphic on the overlay, known IDs
// have their graphic's pose refreshed, and IDs missing from the frame have
// their graphic removed.
package facetrack

import (
	"image"
	"strings"
	"time"
)

// Unclassified marks a classification probability the detector did not compute.
const Unclassified = -1.0

// CameraFacing is the direction the capturing camera points.
type CameraFacing int

const (
	// FacingBack is a camera pointing away from the user.
	FacingBack CameraFacing = iota
	// FacingFront is a camera pointing at the user; its frames are shown mirrored.
	FacingFront
)

func (f CameraFacing) String() string {
	if f == FacingFront {
		return "front"
	}
	return "back"
}

// ParseFacing converts "front" to FacingFront; anything else is FacingBack.
func ParseFacing(s string) CameraFacing {
	if strings.EqualFold(strings.TrimSpace(s), "front") {
		return FacingFront
	}
	return FacingBack
}

// LandmarkType identifies a facial landmark.
type LandmarkType int

const (
	RightEye LandmarkType = iota
	LeftEye
	NoseBase
	MouthRight
	MouthLeft
)

var landmarkNames = [...]string{"right_eye", "left_eye", "nose_base", "mouth_right", "mouth_left"}

func (l LandmarkType) String() string {
	if l < 0 || int(l) >= len(landmarkNames) {
		return "unknown"
	}
	return landmarkNames[l]
}

// Landmark is a facial landmark position in image pixels.
type Landmark struct {
	Type LandmarkType
	X, Y float64
}

// DetectedFace is one face found in one frame.
// Only TrackingID is read by the Tracker; the rest is for the graphic.
type DetectedFace struct {
	TrackingID int
	Bounds     image.Rectangle // image pixels
	Confidence float64

	HeadEulerY float64 // yaw, degrees
	HeadEulerZ float64 // roll, degrees

	SmilingProbability      float64
	LeftEyeOpenProbability  float64
	RightEyeOpenProbability float64

	Landmarks []Landmark
}

// Landmark returns the landmark of the given type, if present.
func (f DetectedFace) Landmark(t LandmarkType) (Landmark, bool) {
	for _, l := range f.Landmarks {
		if l.Type == t {
			return l, true
		}
	}
	return Landmark{}, false
}

// FrameMetadata describes how a frame was captured.
type FrameMetadata struct {
	Width        int
	Height       int
	Rotation     int // degrees, 0/90/180/270
	CameraFacing CameraFacing
}

// Frame is one encoded camera image with its metadata.
type Frame struct {
	Seq        uint64
	Image      []byte // JPEG
	Metadata   FrameMetadata
	CapturedAt time.Time
}
