package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current camera configuration and handles runtime updates.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// Callback when config changes (for applying to the pipeline)
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new camera manager with cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and applies cfg.
func (m *Manager) SetConfig(cfg Config) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// UpdateConfig updates the runtime-adjustable fields named in params.
// Resolution and device are fixed once capture has started.
func (m *Manager) UpdateConfig(params map[string]any) error {
	cfg := m.GetConfig()

	for key, value := range params {
		switch key {
		case "facing":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("facing must be a string")
			}
			cfg.Facing = v
		case "quality":
			v, ok := toInt(value)
			if !ok {
				return fmt.Errorf("quality must be a number")
			}
			cfg.Quality = v
		case "framerate":
			v, ok := toInt(value)
			if !ok {
				return fmt.Errorf("framerate must be a number")
			}
			cfg.Framerate = v
		default:
			return fmt.Errorf("unknown or read-only setting: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
