package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/celebrate/internal/compose"
	"github.com/abhisek/celebrate/internal/rarity"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "celebrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ffmpeg", cfg.FFmpeg)
	assert.Equal(t, 90*time.Second, cfg.GetTimeout())
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, compose.DefaultVideoParams(), cfg.VideoParams())
	assert.Equal(t, 1, cfg.Parallel)

	bg, err := cfg.GetBackground()
	require.NoError(t, err)
	assert.True(t, bg.IsTransparent())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
output_dir: renders
ffmpeg: /opt/ffmpeg/bin/ffmpeg
timeout: 2m
seed: 7
video:
  width: 1080
  height: 1920
  fps: 60
  duration: 2s
background: "#101010"
parallel: 3
quality:
  crf: 20
  preset: medium
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "renders", cfg.OutputDir)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpeg)
	assert.Equal(t, 2*time.Minute, cfg.GetTimeout())
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, compose.VideoParams{Width: 1080, Height: 1920, FPS: 60, Duration: 2 * time.Second}, cfg.VideoParams())
	assert.Equal(t, 3, cfg.Parallel)
	assert.Equal(t, 20, cfg.Quality.CRF)
	assert.Equal(t, "medium", cfg.Quality.Preset)

	bg, err := cfg.GetBackground()
	require.NoError(t, err)
	assert.Equal(t, rarity.Color("#101010"), bg.Color)

	// Unset keys keep their defaults.
	assert.Equal(t, 1000, cfg.HistoryLimit)
}

func TestLoad_SchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "colour: red\n"},
		{"unknown nested key", "video:\n  bitrate: 5\n"},
		{"wrong type", "parallel: many\n"},
		{"zero parallel", "parallel: 0\n"},
		{"bad background", "background: purple\n"},
		{"bad preset", "quality:\n  preset: ludicrous\n"},
		{"crf out of range", "quality:\n  crf: 99\n"},
		{"bad timeout", "timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation failed")
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "video: [unclosed\n"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CELEBRATE_OUTPUT_DIR", "/tmp/celebrations")
	t.Setenv("CELEBRATE_FFMPEG", "/usr/local/bin/ffmpeg")
	t.Setenv("CELEBRATE_TIMEOUT", "45s")
	t.Setenv("CELEBRATE_DB", "/tmp/h.db")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "/tmp/celebrations", cfg.OutputDir)
	assert.Equal(t, "/usr/local/bin/ffmpeg", cfg.FFmpeg)
	assert.Equal(t, 45*time.Second, cfg.GetTimeout())
	assert.Equal(t, "/tmp/h.db", cfg.DB)
}

func TestApplyEnv_BadTimeout(t *testing.T) {
	t.Setenv("CELEBRATE_TIMEOUT", "forever")
	cfg := DefaultConfig()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CELEBRATE_TIMEOUT")
	assert.Equal(t, "1m30s", cfg.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = " " }, "output_dir"},
		{"empty ffmpeg", func(c *Config) { c.FFmpeg = "" }, "ffmpeg"},
		{"unparseable timeout", func(c *Config) { c.Timeout = "x" }, "timeout"},
		{"zero timeout", func(c *Config) { c.Timeout = "0s" }, "timeout"},
		{"bad duration", func(c *Config) { c.Video.Duration = "long" }, "video.duration"},
		{"zero width", func(c *Config) { c.Video.Width = 0 }, "resolution"},
		{"zero fps", func(c *Config) { c.Video.FPS = 0 }, "fps"},
		{"bad background", func(c *Config) { c.Background = "#12" }, "background"},
		{"zero parallel", func(c *Config) { c.Parallel = 0 }, "parallel"},
		{"crf", func(c *Config) { c.Quality.CRF = 60 }, "crf"},
		{"history", func(c *Config) { c.HistoryLimit = -1 }, "history_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parallel = 0
	cfg.Quality.CRF = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel")
	assert.Contains(t, err.Error(), "crf")
}
