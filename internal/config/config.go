// Package config loads the service configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// StaticDir is served at / when set.
	StaticDir      string        `toml:"static_dir"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxBodyBytes   int64         `toml:"max_body_bytes"`

	// classifier artifacts
	ModelDir string `toml:"model_dir"`
	// TorsoSizeMultiplier scales the widest landmark distance into the pose size.
	TorsoSizeMultiplier float64 `toml:"torso_size_multiplier"`

	// sessions
	WindowSize           int           `toml:"window_size"`
	SessionIdleTimeout   time.Duration `toml:"session_idle_timeout"`
	SessionPruneInterval time.Duration `toml:"session_prune_interval"`

	// pose detector
	DetectorScript         string        `toml:"detector_script"`
	DetectorPython         string        `toml:"detector_python"`
	DetectorIdleTimeout    time.Duration `toml:"detector_idle_timeout"`
	MinDetectionConfidence float64       `toml:"min_detection_confidence"`
	MinTrackingConfidence  float64       `toml:"min_tracking_confidence"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`

	MetricsEnabled bool `toml:"metrics_enabled"`
	TrayEnabled    bool `toml:"tray_enabled"`
}

// Default returns the configuration used for any value the file leaves out.
func Default() *Config {
	return &Config{
		Host:                   "127.0.0.1",
		Port:                   5000,
		RequestTimeout:         10 * time.Second,
		MaxBodyBytes:           16 << 20,
		ModelDir:               "models",
		TorsoSizeMultiplier:    2.5,
		WindowSize:             35,
		SessionIdleTimeout:     30 * time.Minute,
		SessionPruneInterval:   time.Minute,
		DetectorIdleTimeout:    30 * time.Second,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
		LogLevel:               "info",
		LogToStdout:            true,
		MetricsEnabled:         true,
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("window_size must be positive, got %d", c.WindowSize))
	}
	if c.TorsoSizeMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("torso_size_multiplier must be positive, got %v", c.TorsoSizeMultiplier))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes))
	}
	for name, v := range map[string]float64{
		"min_detection_confidence": c.MinDetectionConfidence,
		"min_tracking_confidence":  c.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, v))
		}
	}
	return errors.Join(errs...)
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the section for env from the TOML file at path. Keys missing
// from the file keep their Default values.
func Load(env, path string) (*Config, error) {
	t := &Toml{
		Development: Default(),
		Production:  Default(),
	}

	md, err := toml.DecodeFile(path, t)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Warnf("config: unknown key %s", key)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}
	return cfg, nil
}
