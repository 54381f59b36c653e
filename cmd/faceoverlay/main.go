// faceoverlay - live face tracking overlay
// Detects faces in camera frames with YuNet and streams one graphic per
// tracked face to a browser dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-faceoverlay/internal/config"
	"github.com/teslashibe/go-faceoverlay/internal/log"
	"github.com/teslashibe/go-faceoverlay/pkg/camera"
	"github.com/teslashibe/go-faceoverlay/pkg/debug"
	"github.com/teslashibe/go-faceoverlay/pkg/detection"
	"github.com/teslashibe/go-faceoverlay/pkg/facetrack"
	"github.com/teslashibe/go-faceoverlay/pkg/overlay"
	"github.com/teslashibe/go-faceoverlay/pkg/web"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("faceoverlay stopped", "error", err)
		os.Exit(1)
	}
}

// parseFlags loads the environment configuration and applies flag overrides.
func parseFlags() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Log every detection and tracking ID assignment")
	port := flag.String("port", cfg.Port, "Dashboard HTTP port")
	device := flag.Int("device", cfg.CameraDevice, "Camera device index")
	model := flag.String("model", cfg.ModelPath, "Path to the YuNet ONNX model")
	facing := flag.String("facing", cfg.CameraFacing, "Camera facing: back or front")
	flag.Parse()

	cfg.Port, cfg.CameraDevice, cfg.ModelPath = *port, *device, *model
	cfg.CameraFacing = strings.ToLower(strings.TrimSpace(*facing))
	if *debugFlag || *debugTracking {
		cfg.LogLevel = "debug"
	}
	debug.Enabled = *debugFlag || *debugTracking
	debug.Tracking = *debugTracking

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Init(cfg.LogLevel)
	logger := log.Component("main")

	camCfg := camera.Config{
		DeviceID:  cfg.CameraDevice,
		Facing:    cfg.CameraFacing,
		Width:     cfg.FrameWidth,
		Height:    cfg.FrameHeight,
		Framerate: cfg.Framerate,
		Quality:   cfg.JPEGQuality,
	}
	source, err := camera.Open(camCfg)
	if err != nil {
		return err
	}
	defer source.Close()

	detCfg := detection.DefaultConfig()
	detCfg.ModelPath = cfg.ModelPath
	detCfg.ConfidenceThresh = cfg.ConfidenceThreshold
	detCfg.IoUThresh = cfg.IoUThreshold
	backend, err := detection.NewYuNet(detCfg)
	if err != nil {
		return fmt.Errorf("face detector: %w", err)
	}
	detector := detection.NewFaceDetector(backend, detCfg.IoUThresh)

	viewW, viewH := cfg.View()
	ov := overlay.New(viewW, viewH)
	ov.SetCameraInfo(cfg.FrameWidth, cfg.FrameHeight, camCfg.CameraFacing())
	tracker := facetrack.NewTracker(ov, overlay.Factory)

	cameras := camera.NewManager(camCfg)
	cameras.OnConfigChange = func(c camera.Config) error {
		source.Apply(c)
		logger.Info("camera settings changed", "facing", c.Facing, "quality", c.Quality, "framerate", c.Framerate)
		return nil
	}

	processor := facetrack.NewProcessor(detector, tracker,
		facetrack.WithTimeout(cfg.DetectTimeout),
		facetrack.WithResultHook(func(faces []facetrack.DetectedFace, meta facetrack.FrameMetadata) {
			debug.TrackLog("frame reconciled", "faces", len(faces), "tracked", tracker.Len())
			ov.Refresh(meta)
		}),
	)
	server := web.NewServer(cfg.Port, web.Deps{
		Tracker: tracker,
		Overlay: ov,
		Stats:   processor,
		Camera:  cameras,
	})
	ov.OnInvalidate(server.PublishScene)

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start(ctx) }()

	logger.Info("face overlay started",
		"device", cfg.CameraDevice, "facing", cfg.CameraFacing,
		"size", fmt.Sprintf("%dx%d", cfg.FrameWidth, cfg.FrameHeight),
		"port", cfg.Port)

	err = captureLoop(ctx, source, cameras, processor, server, serverErr)

	processor.Stop()
	processor.Wait()
	tracker.Clear()
	ov.Invalidate()
	if shutdownErr := server.Shutdown(); shutdownErr != nil {
		logger.Warn("dashboard shutdown", "error", shutdownErr)
	}

	logger.Info("face overlay stopped", "stats", processor.Stats())
	return err
}

// captureLoop feeds camera frames into the processor at the configured
// framerate until ctx is done or the dashboard fails.
func captureLoop(ctx context.Context, source *camera.Source, cameras *camera.Manager,
	processor *facetrack.Processor, server *web.Server, serverErr <-chan error) error {
	logger := log.Component("capture")

	timer := time.NewTimer(0)
	defer timer.Stop()

	misses := 0
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil

		case <-timer.C:
			timer.Reset(cameras.GetConfig().FrameInterval())

			frame, err := source.Capture()
			if err != nil {
				misses++
				if errors.Is(err, camera.ErrNoFrame) && misses%30 != 1 {
					continue
				}
				logger.Warn("capture failed", "error", err, "misses", misses)
				continue
			}
			if misses > 0 {
				debug.Log("capture recovered", "misses", misses, "size", fmt.Sprintf("%dx%d", frame.Metadata.Width, frame.Metadata.Height))
			}
			misses = 0

			server.SendCameraFrame(frame.Image)
			if !processor.Process(ctx, frame) {
				debug.TrackLog("frame dropped, detection busy", "seq", frame.Seq)
			}
		}
	}
}
