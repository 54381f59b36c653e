package camera

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
)

// ErrNoFrame is returned when the device produced no image.
var ErrNoFrame = errors.New("camera: no frame")

// Source captures JPEG frames from a local video device.
type Source struct {
	cfg Config

	mu      sync.Mutex // Protects capture and img
	capture *gocv.VideoCapture
	img     gocv.Mat

	seq     atomic.Uint64
	quality atomic.Int32
	facing  atomic.Int32
}

// Open starts capturing from cfg.DeviceID.
func Open(cfg Config) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid camera config: %v", errs)
	}

	capture, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	s := &Source{
		cfg:     cfg,
		capture: capture,
		img:     gocv.NewMat(),
	}
	s.Apply(cfg)
	return s, nil
}

// Apply picks up the runtime-adjustable settings of cfg.
func (s *Source) Apply(cfg Config) {
	s.quality.Store(int32(cfg.Quality))
	s.facing.Store(int32(cfg.CameraFacing()))
}

// Capture reads one frame and returns it JPEG-encoded.
func (s *Source) Capture() (facetrack.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return facetrack.Frame{}, fmt.Errorf("camera closed")
	}
	if ok := s.capture.Read(&s.img); !ok || s.img.Empty() {
		return facetrack.Frame{}, ErrNoFrame
	}
	capturedAt := time.Now()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.img, []int{int(gocv.IMWriteJpegQuality), int(s.quality.Load())})
	if err != nil {
		return facetrack.Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// The buffer is backed by native memory released on Close.
	data := append([]byte(nil), buf.GetBytes()...)

	return facetrack.Frame{
		Seq:   s.seq.Add(1),
		Image: data,
		Metadata: facetrack.FrameMetadata{
			Width:        s.img.Cols(),
			Height:       s.img.Rows(),
			CameraFacing: facetrack.CameraFacing(s.facing.Load()),
		},
		CapturedAt: capturedAt,
	}, nil
}

// Close releases the device.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	s.img.Close()
	return err
}
