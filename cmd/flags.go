package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/celebrate/internal/config"
)

// addRenderFlags registers the flags shared by render and graph.
func addRenderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Uint64("seed", 0, "Particle generator seed (default 42)")
	f.Int("width", 0, "Frame width in pixels (default 720)")
	f.Int("height", 0, "Frame height in pixels (default 1280)")
	f.Int("fps", 0, "Frames per second (default 30)")
	f.Duration("duration", 0, "Clip duration (default 1.5s)")
	f.String("background", "", `Background: "transparent" or #RRGGBB (default transparent)`)
	f.String("ffmpeg", "", "ffmpeg binary name or path (overrides CELEBRATE_FFMPEG)")
	f.Int("crf", 0, "x264 constant rate factor (default 18)")
	f.String("preset", "", "x264 preset (default fast)")
}

// applyFlags copies explicitly set flags over cfg. Flags a command does not
// define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	changed := func(name string) bool {
		return f.Lookup(name) != nil && f.Changed(name)
	}

	if changed("out") {
		cfg.OutputDir, _ = f.GetString("out")
	}
	if changed("ffmpeg") {
		cfg.FFmpeg, _ = f.GetString("ffmpeg")
	}
	if changed("timeout") {
		d, _ := f.GetDuration("timeout")
		if d <= 0 {
			return fmt.Errorf("--timeout must be positive, got %s", d)
		}
		cfg.Timeout = d.String()
	}
	if changed("seed") {
		cfg.Seed, _ = f.GetUint64("seed")
	}
	if changed("width") {
		cfg.Video.Width, _ = f.GetInt("width")
	}
	if changed("height") {
		cfg.Video.Height, _ = f.GetInt("height")
	}
	if changed("fps") {
		cfg.Video.FPS, _ = f.GetInt("fps")
	}
	if changed("duration") {
		var d time.Duration
		d, _ = f.GetDuration("duration")
		cfg.Video.Duration = d.String()
	}
	if changed("background") {
		cfg.Background, _ = f.GetString("background")
	}
	if changed("parallel") {
		cfg.Parallel, _ = f.GetInt("parallel")
	}
	if changed("crf") {
		cfg.Quality.CRF, _ = f.GetInt("crf")
	}
	if changed("preset") {
		cfg.Quality.Preset, _ = f.GetString("preset")
	}
	return nil
}
