package detection

import (
	"context"
	"image"
	"math"
	"sync"

	"github.com/teslashibe/go-faceoverlay/pkg/debug"
	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
)

// FaceDetector runs a Backend with tracking enabled and reports faces in
// image pixels. It implements facetrack.Detector.
type FaceDetector struct {
	backend Backend

	mu     sync.Mutex
	ids    *IDAssigner
	closed bool
}

// NewFaceDetector wraps backend, keeping tracking IDs across frames whose
// boxes overlap by more than iouThresh.
func NewFaceDetector(backend Backend, iouThresh float64) *FaceDetector {
	return &FaceDetector{
		backend: backend,
		ids:     NewIDAssigner(iouThresh),
	}
}

// Detect finds the faces in frame.
func (d *FaceDetector) Detect(ctx context.Context, frame facetrack.Frame) ([]facetrack.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	dets, err := d.backend.Detect(frame.Image)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := frame.Metadata.Width, frame.Metadata.Height
	boxes := make([]image.Rectangle, len(dets))
	for i, det := range dets {
		boxes[i] = det.Rect(w, h)
	}

	d.mu.Lock()
	ids := d.ids.Assign(boxes)
	d.mu.Unlock()

	faces := make([]facetrack.DetectedFace, len(dets))
	for i, det := range dets {
		faces[i] = toFace(det, ids[i], boxes[i], w, h)
	}

	debug.TrackLog("tracked faces", "seq", frame.Seq, "ids", ids)
	return faces, nil
}

// Close releases the backend. Closing twice returns ErrClosed.
func (d *FaceDetector) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.mu.Unlock()

	return d.backend.Close()
}

var landmarkTypes = [numLandmarks]facetrack.LandmarkType{
	LandmarkRightEye:   facetrack.RightEye,
	LandmarkLeftEye:    facetrack.LeftEye,
	LandmarkNose:       facetrack.NoseBase,
	LandmarkMouthRight: facetrack.MouthRight,
	LandmarkMouthLeft:  facetrack.MouthLeft,
}

func toFace(det Detection, id int, box image.Rectangle, width, height int) facetrack.DetectedFace {
	w, h := float64(width), float64(height)

	landmarks := make([]facetrack.Landmark, numLandmarks)
	for i, p := range det.Landmarks {
		landmarks[i] = facetrack.Landmark{Type: landmarkTypes[i], X: p.X * w, Y: p.Y * h}
	}

	yaw, roll := headPose(landmarks)
	return facetrack.DetectedFace{
		TrackingID:              id,
		Bounds:                  box,
		Confidence:              det.Confidence,
		HeadEulerY:              yaw,
		HeadEulerZ:              roll,
		SmilingProbability:      facetrack.Unclassified,
		LeftEyeOpenProbability:  facetrack.Unclassified,
		RightEyeOpenProbability: facetrack.Unclassified,
		Landmarks:               landmarks,
	}
}

// headPose estimates yaw and roll in degrees from the eye and nose landmarks.
// Roll is the tilt of the eye line; yaw is the nose offset from the eye
// midpoint relative to the eye distance, mapped to +-90 degrees.
func headPose(l []facetrack.Landmark) (yaw, roll float64) {
	right, left, nose := l[LandmarkRightEye], l[LandmarkLeftEye], l[LandmarkNose]

	dx, dy := left.X-right.X, left.Y-right.Y
	eyeDist := math.Hypot(dx, dy)
	if eyeDist == 0 {
		return 0, 0
	}

	roll = math.Atan2(dy, dx) * 180 / math.Pi

	midX := (left.X + right.X) / 2
	offset := (nose.X - midX) / eyeDist
	yaw = math.Max(-90, math.Min(90, offset*180))
	return yaw, roll
}
