// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/longexposure/pkg/adapters/smartprobe"
	"github.com/user/longexposure/pkg/orchestrator"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config represents the full configuration for longexposure.
type Config struct {
	// Input/Output
	InputPath  string `yaml:"input"`
	OutputPath string `yaml:"output"`

	// Encoding. fps 0 keeps the source frame rate.
	FPS         float64 `yaml:"fps"`
	Codec       string  `yaml:"codec"`
	PixelFormat string  `yaml:"pixel_format"`

	// Collaborators
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	Probe       string `yaml:"probe"`

	// Run behavior
	StrictFrameCount bool          `yaml:"strict_frame_count"`
	FinalizeTimeout  time.Duration `yaml:"finalize_timeout"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`

	// DebugPlain saves composed frames without the index label.
	DebugPlain bool `yaml:"debug_plain"`

	// Summary is the path of the Markdown run report. Empty disables it.
	Summary string `yaml:"summary"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	oc := orchestrator.DefaultConfig()
	return Config{
		FPS:             oc.FPS,
		Codec:           oc.Codec,
		PixelFormat:     oc.PixelFormat,
		Probe:           string(smartprobe.ModeAuto),
		FinalizeTimeout: oc.FinalizeTimeout,
		LogLevel:        "info",
		LogFormat:       "text",
		DebugDir:        "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration can start a run.
func (c Config) Validate() error {
	var errs []error
	if c.InputPath == "" {
		errs = append(errs, errors.New("input path is required"))
	}
	if c.OutputPath == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if c.InputPath != "" && filepath.Clean(c.InputPath) == filepath.Clean(c.OutputPath) {
		errs = append(errs, errors.New("output must differ from input"))
	}
	if c.FPS < 0 {
		errs = append(errs, fmt.Errorf("fps must not be negative, got %g", c.FPS))
	}
	if c.Codec == "" {
		errs = append(errs, errors.New("codec is required"))
	}
	if _, err := smartprobe.ParseMode(c.Probe); err != nil {
		errs = append(errs, err)
	}
	if c.FinalizeTimeout < 0 {
		errs = append(errs, fmt.Errorf("finalize_timeout must not be negative, got %s", c.FinalizeTimeout))
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error", "quiet":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// ProbeMode returns the parsed probe mode. Call Validate first.
func (c Config) ProbeMode() smartprobe.Mode {
	mode, err := smartprobe.ParseMode(c.Probe)
	if err != nil {
		return smartprobe.ModeAuto
	}
	return mode
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		InputPath:  c.InputPath,
		OutputPath: c.OutputPath,

		FPS:         c.FPS,
		Codec:       c.Codec,
		PixelFormat: c.PixelFormat,

		StrictFrameCount: c.StrictFrameCount,
		FinalizeTimeout:  c.FinalizeTimeout,
	}
}
