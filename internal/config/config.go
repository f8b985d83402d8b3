// Package config loads the render settings from defaults, a YAML file and
// the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/celebrate/internal/compose"
	"github.com/abhisek/celebrate/internal/encoder"
	"github.com/abhisek/celebrate/internal/particles"
)

// Config holds all render settings.
type Config struct {
	// OutputDir receives one <tier>_celebration.mp4 per job.
	OutputDir string `yaml:"output_dir"`

	// FFmpeg is the encoder binary name or path.
	FFmpeg string `yaml:"ffmpeg"`

	// Timeout bounds a single encode, e.g. "90s".
	Timeout string `yaml:"timeout"`

	// Seed feeds the particle generator. Every job starts from it.
	Seed uint64 `yaml:"seed"`

	Video VideoConfig `yaml:"video"`

	// Background is "transparent" or an opaque #RRGGBB color.
	Background string `yaml:"background"`

	// Parallel is the number of jobs encoded at once. 1 keeps the batch
	// sequential.
	Parallel int `yaml:"parallel"`

	Quality QualityConfig `yaml:"quality"`

	// DB is the render history database path. Empty uses the default
	// location.
	DB string `yaml:"db"`

	// HistoryLimit caps the rows kept in the history database (0 = keep all).
	HistoryLimit int `yaml:"history_limit"`
}

// VideoConfig configures the clip geometry and timing.
type VideoConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	FPS      int    `yaml:"fps"`
	Duration string `yaml:"duration"`
}

// QualityConfig holds the x264 settings.
type QualityConfig struct {
	CRF    int    `yaml:"crf"`
	Preset string `yaml:"preset"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	v := compose.DefaultVideoParams()
	return &Config{
		OutputDir: "out",
		FFmpeg:    encoder.DefaultBinary,
		Timeout:   encoder.DefaultTimeout.String(),
		Seed:      particles.DefaultSeed,
		Video: VideoConfig{
			Width:    v.Width,
			Height:   v.Height,
			FPS:      v.FPS,
			Duration: v.Duration.String(),
		},
		Background: "transparent",
		Parallel:   1,
		Quality: QualityConfig{
			CRF:    encoder.DefaultCRF,
			Preset: encoder.DefaultPreset,
		},
		HistoryLimit: 1000,
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults. The document is checked against the config schema before it
// is decoded.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from CELEBRATE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CELEBRATE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("CELEBRATE_FFMPEG"); v != "" {
		c.FFmpeg = v
	}
	if v := os.Getenv("CELEBRATE_TIMEOUT"); v != "" {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("CELEBRATE_TIMEOUT: %w", err)
		}
		c.Timeout = v
	}
	if v := os.Getenv("CELEBRATE_DB"); v != "" {
		c.DB = v
	}
	return nil
}

// GetTimeout returns the encode timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return encoder.DefaultTimeout
	}
	return d
}

// VideoParams converts the video section to compose parameters.
func (c *Config) VideoParams() compose.VideoParams {
	d, err := time.ParseDuration(c.Video.Duration)
	if err != nil {
		d = compose.DefaultVideoParams().Duration
	}
	return compose.VideoParams{
		Width:    c.Video.Width,
		Height:   c.Video.Height,
		FPS:      c.Video.FPS,
		Duration: d,
	}
}

// GetBackground parses the background setting.
func (c *Config) GetBackground() (compose.Background, error) {
	return compose.ParseBackground(c.Background)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, "output_dir is required")
	}
	if strings.TrimSpace(c.FFmpeg) == "" {
		errs = append(errs, "ffmpeg is required")
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil {
		errs = append(errs, fmt.Sprintf("timeout: %v", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Sprintf("timeout %s must be positive", d))
	}
	if _, err := time.ParseDuration(c.Video.Duration); err != nil {
		errs = append(errs, fmt.Sprintf("video.duration: %v", err))
	} else if err := c.VideoParams().Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := c.GetBackground(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Parallel < 1 {
		errs = append(errs, fmt.Sprintf("parallel %d must be at least 1", c.Parallel))
	}
	if c.Quality.CRF < 0 || c.Quality.CRF > 51 {
		errs = append(errs, fmt.Sprintf("quality.crf %d must be within 0..51", c.Quality.CRF))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, fmt.Sprintf("history_limit %d must not be negative", c.HistoryLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
