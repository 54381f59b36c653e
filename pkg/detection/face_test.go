package detection

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
)

type fakeBackend struct {
	frames [][]Detection
	calls  int
	err    error
	closed int
}

func (b *fakeBackend) Detect([]byte) ([]Detection, error) {
	if b.err != nil {
		return nil, b.err
	}
	i := b.calls
	b.calls++
	if i < len(b.frames) {
		return b.frames[i], nil
	}
	return nil, nil
}

func (b *fakeBackend) Close() error {
	b.closed++
	return nil
}

func testFrame() facetrack.Frame {
	return facetrack.Frame{
		Image:    []byte{0xff, 0xd8},
		Metadata: facetrack.FrameMetadata{Width: 640, Height: 480},
	}
}

// level builds a detection with eyes level and the nose centered between them.
func level(x, y float64) Detection {
	return Detection{
		X: x, Y: y, W: 0.2, H: 0.2, Confidence: 0.9,
		Landmarks: [numLandmarks]Point{
			LandmarkRightEye:   {X: x + 0.05, Y: y + 0.08},
			LandmarkLeftEye:    {X: x + 0.15, Y: y + 0.08},
			LandmarkNose:       {X: x + 0.10, Y: y + 0.12},
			LandmarkMouthRight: {X: x + 0.06, Y: y + 0.16},
			LandmarkMouthLeft:  {X: x + 0.14, Y: y + 0.16},
		},
	}
}

func TestFaceDetector_StableIDs(t *testing.T) {
	backend := &fakeBackend{frames: [][]Detection{
		{level(0.1, 0.1), level(0.6, 0.1)},
		{level(0.61, 0.11), level(0.11, 0.1)},
	}}
	d := NewFaceDetector(backend, 0.3)
	ctx := context.Background()

	first, err := d.Detect(ctx, testFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	second, err := d.Detect(ctx, testFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if second[0].TrackingID != first[1].TrackingID || second[1].TrackingID != first[0].TrackingID {
		t.Errorf("tracking IDs not stable: first %d,%d second %d,%d",
			first[0].TrackingID, first[1].TrackingID, second[0].TrackingID, second[1].TrackingID)
	}
}

func TestFaceDetector_PixelCoordinates(t *testing.T) {
	backend := &fakeBackend{frames: [][]Detection{{level(0.25, 0.5)}}}
	d := NewFaceDetector(backend, 0.3)

	faces, err := d.Detect(context.Background(), testFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("got %d faces, want 1", len(faces))
	}

	f := faces[0]
	if f.Bounds.Min.X != 160 || f.Bounds.Min.Y != 240 || f.Bounds.Max.X != 288 || f.Bounds.Max.Y != 336 {
		t.Errorf("Bounds: got %v", f.Bounds)
	}

	nose, ok := f.Landmark(facetrack.NoseBase)
	if !ok {
		t.Fatal("nose landmark missing")
	}
	if math.Abs(nose.X-0.35*640) > 1e-6 || math.Abs(nose.Y-0.62*480) > 1e-6 {
		t.Errorf("nose: got (%.2f, %.2f)", nose.X, nose.Y)
	}

	if math.Abs(f.HeadEulerZ) > 1e-6 || math.Abs(f.HeadEulerY) > 1e-6 {
		t.Errorf("level face should have zero pose, got yaw %.2f roll %.2f", f.HeadEulerY, f.HeadEulerZ)
	}
	if f.SmilingProbability != facetrack.Unclassified {
		t.Errorf("SmilingProbability: got %v, want Unclassified", f.SmilingProbability)
	}
}

func TestFaceDetector_BackendError(t *testing.T) {
	boom := errors.New("inference failed")
	d := NewFaceDetector(&fakeBackend{err: boom}, 0.3)

	if _, err := d.Detect(context.Background(), testFrame()); !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestFaceDetector_CanceledContext(t *testing.T) {
	backend := &fakeBackend{}
	d := NewFaceDetector(backend, 0.3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Detect(ctx, testFrame()); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if backend.calls != 0 {
		t.Errorf("backend called %d times after cancel", backend.calls)
	}
}

func TestFaceDetector_Close(t *testing.T) {
	backend := &fakeBackend{}
	d := NewFaceDetector(backend, 0.3)

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := d.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close: got %v, want ErrClosed", err)
	}
	if backend.closed != 1 {
		t.Errorf("backend closed %d times, want 1", backend.closed)
	}
	if _, err := d.Detect(context.Background(), testFrame()); !errors.Is(err, ErrClosed) {
		t.Errorf("Detect after Close: got %v, want ErrClosed", err)
	}
}

func TestHeadPose(t *testing.T) {
	tilted := []facetrack.Landmark{
		{Type: facetrack.RightEye, X: 0, Y: 0},
		{Type: facetrack.LeftEye, X: 10, Y: 10},
		{Type: facetrack.NoseBase, X: 5, Y: 8},
	}
	_, roll := headPose(tilted)
	if math.Abs(roll-45) > 1e-6 {
		t.Errorf("roll: got %.2f, want 45", roll)
	}

	turned := []facetrack.Landmark{
		{Type: facetrack.RightEye, X: 0, Y: 0},
		{Type: facetrack.LeftEye, X: 10, Y: 0},
		{Type: facetrack.NoseBase, X: 8, Y: 5},
	}
	yaw, _ := headPose(turned)
	if yaw <= 0 {
		t.Errorf("nose toward left eye should give positive yaw, got %.2f", yaw)
	}

	same := []facetrack.Landmark{{}, {}, {}}
	if yaw, roll := headPose(same); yaw != 0 || roll != 0 {
		t.Errorf("degenerate landmarks: got yaw %.2f roll %.2f", yaw, roll)
	}
}
