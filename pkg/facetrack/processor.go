package facetrack

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-faceoverlay/internal/log"
)

// ErrStopped is reported for detections that complete after Stop.
var ErrStopped = errors.New("facetrack: processor stopped")

// Detector finds faces in a frame. Implementations must have tracking
// enabled so every returned face carries a stable TrackingID.
type Detector interface {
	Detect(ctx context.Context, frame Frame) ([]DetectedFace, error)

	// Close releases the detector's resources.
	Close() error
}

// Stats counts what happened to submitted frames.
type Stats struct {
	Submitted   uint64        `json:"submitted"`
	Dropped     uint64        `json:"dropped"`
	Processed   uint64        `json:"processed"`
	Failed      uint64        `json:"failed"`
	LastFaces   int           `json:"last_faces"`
	LastLatency time.Duration `json:"last_latency_ns"`
}

// Option configures a Processor.
type Option func(*Processor)

// WithTimeout bounds each detection. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) { p.timeout = d }
}

// WithResultHook is called after each successful reconcile.
func WithResultHook(fn func(faces []DetectedFace, meta FrameMetadata)) Option {
	return func(p *Processor) { p.onResult = fn }
}

// WithFailureHook is called after each failed detection.
func WithFailureHook(fn func(frame Frame, err error)) Option {
	return func(p *Processor) { p.onFailure = fn }
}

// WithLogger overrides the processor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// Processor runs detection asynchronously, one frame at a time, and feeds
// successful results into a Tracker.
type Processor struct {
	detector Detector
	tracker  *Tracker

	timeout   time.Duration
	onResult  func(faces []DetectedFace, meta FrameMetadata)
	onFailure func(frame Frame, err error)
	logger    *slog.Logger

	busy     atomic.Bool
	stopped  atomic.Bool
	stopMu   sync.Mutex // held across the stopped check and Reconcile
	stopOnce sync.Once
	wg       sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a processor feeding detector results into tracker.
func NewProcessor(detector Detector, tracker *Tracker, opts ...Option) *Processor {
	p := &Processor{
		detector: detector,
		tracker:  tracker,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Component("facetrack")
	}
	return p
}

// Process submits frame for detection and returns immediately.
// It returns false, dropping the frame, if a detection is still
// outstanding or the processor has been stopped.
func (p *Processor) Process(ctx context.Context, frame Frame) bool {
	if p.stopped.Load() || !p.busy.CompareAndSwap(false, true) {
		p.count(func(s *Stats) { s.Dropped++ })
		return false
	}
	p.count(func(s *Stats) { s.Submitted++ })

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.busy.Store(false)
		p.run(ctx, frame)
	}()
	return true
}

func (p *Processor) run(ctx context.Context, frame Frame) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	faces, err := p.detector.Detect(ctx, frame)
	latency := time.Since(start)

	if err != nil {
		p.fail(frame, err)
		return
	}

	p.stopMu.Lock()
	if p.stopped.Load() {
		p.stopMu.Unlock()
		p.fail(frame, ErrStopped)
		return
	}
	p.tracker.Reconcile(faces, frame.Metadata.CameraFacing)
	p.stopMu.Unlock()

	p.count(func(s *Stats) {
		s.Processed++
		s.LastFaces = len(faces)
		s.LastLatency = latency
	})

	if p.onResult != nil {
		p.onResult(faces, frame.Metadata)
	}
}

// fail logs a failed detection. The tracker is left untouched.
func (p *Processor) fail(frame Frame, err error) {
	p.count(func(s *Stats) { s.Failed++ })
	p.logger.Error("face detection failed", "seq", frame.Seq, "error", err)

	if p.onFailure != nil {
		p.onFailure(frame, err)
	}
}

// Stop releases the detector. Errors are logged, never returned.
// A reconcile already under way finishes before Stop returns; a detection
// still in flight completes on the failure path.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		p.stopMu.Lock()
		p.stopped.Store(true)
		p.stopMu.Unlock()

		if err := p.detector.Close(); err != nil {
			p.logger.Error("close face detector", "error", err)
		}
	})
}

// Wait blocks until the outstanding detection, if any, has finished.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Busy reports whether a detection is outstanding.
func (p *Processor) Busy() bool {
	return p.busy.Load()
}

// Stats returns a copy of the current counters.
func (p *Processor) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

func (p *Processor) count(update func(*Stats)) {
	p.statsMu.Lock()
	update(&p.stats)
	p.statsMu.Unlock()
}
