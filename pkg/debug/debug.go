// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-faceoverlay/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether per-frame tracking logs are shown (detections, ID assignment).
// Use -debug-tracking to enable these very verbose logs
var Tracking bool

// Log logs at debug level only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// TrackLog logs at debug level only if tracking debug mode is enabled
func TrackLog(msg string, args ...any) {
	if Tracking {
		log.Debug(msg, append([]any{"scope", "tracking"}, args...)...)
	}
}
