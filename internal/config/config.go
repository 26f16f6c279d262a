package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port            int    `envconfig:"PORT" default:"8080"`
	AllowedOrigins  string `envconfig:"ALLOWED_ORIGINS" default:"localhost:5173,localhost:3000"`
	AssetDir        string `envconfig:"ASSET_DIR" default:"./data/assets"`
	ArchiveMaxBytes int64  `envconfig:"ARCHIVE_MAX_BYTES" default:"52428800"`

	// Embedded so its keys are read without a prefix.
	Engine
}

// Engine holds the interaction tunables. It is passed explicitly into every
// session; no package reads it globally.
type Engine struct {
	SnapFactor        float64 `envconfig:"SNAP_FACTOR" default:"5"`
	SnapQuantizeStep  float64 `envconfig:"SNAP_QUANTIZE_STEP" default:"0.01"`
	SnapThresholdStep float64 `envconfig:"SNAP_THRESHOLD_STEP" default:"1"`
	SnapTolerance     float64 `envconfig:"SNAP_TOLERANCE" default:"0.01"`
	// InsertMaxDepth bounds the hit-test stack walk. Zero means unlimited.
	InsertMaxDepth    int     `envconfig:"INSERT_MAX_DEPTH" default:"0"`
	FitMargin         float64 `envconfig:"FIT_MARGIN" default:"64"`
}

// DefaultEngine returns the engine settings used when nothing is configured.
// It mirrors the default tags on Engine and is checked against them in tests.
func DefaultEngine() Engine {
	return Engine{
		SnapFactor:        5,
		SnapQuantizeStep:  0.01,
		SnapThresholdStep: 1,
		SnapTolerance:     0.01,
		InsertMaxDepth:    0,
		FitMargin:         64,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into websocket origin patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
