package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/celebrate/internal/config"
	"github.com/abhisek/celebrate/internal/encoder"
	"github.com/abhisek/celebrate/internal/logging"
	"github.com/abhisek/celebrate/internal/rarity"
	"github.com/abhisek/celebrate/internal/render"
	"github.com/abhisek/celebrate/internal/ui/progress"
	"github.com/abhisek/celebrate/internal/ui/report"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one celebration clip per rarity tier",
	Long: `Renders <tier>_celebration.mp4 for every tier (or the tiers given with
--tier) into the output directory. Exits non-zero if any tier failed.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringSlice("tier", nil, "Tier to render (repeatable, default all)")
	renderCmd.Flags().StringP("out", "o", "", "Output directory (overrides CELEBRATE_OUTPUT_DIR)")
	renderCmd.Flags().Duration("timeout", 0, "Per-clip encoder timeout (default 90s)")
	renderCmd.Flags().Int("parallel", 0, "Number of clips encoded at once (default 1)")
	renderCmd.Flags().Bool("progress", false, "Show a live progress view")
	addRenderFlags(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tiers, _ := cmd.Flags().GetStringSlice("tier")
	if len(tiers) == 0 {
		for _, t := range rarity.Tiers() {
			tiers = append(tiers, string(t))
		}
	}
	showProgress, _ := cmd.Flags().GetBool("progress")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runLog := logger
	if showProgress {
		// The progress view owns the terminal.
		if runLog, err = logging.Quiet(); err != nil {
			return err
		}
	}

	st, err := openStore(cmd, cfg)
	if err != nil {
		logger.Warn("render history disabled", zap.Error(err))
	}
	var recorder render.Recorder
	if st != nil {
		defer st.Close()
		recorder = st.JobRepo()
	}

	opts, err := runnerOptions(cfg, runLog, recorder)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, observe render.Observer) (*render.Summary, error) {
		opts.Observer = observe
		runner, err := render.NewRunner(opts)
		if err != nil {
			return nil, err
		}
		return runner.Run(ctx, tiers)
	}

	var sum *render.Summary
	if showProgress {
		sum, err = progress.Run(ctx, len(tiers), run)
	} else {
		sum, err = run(ctx, nil)
	}

	if sum != nil && len(sum.Jobs) > 0 {
		if rerr := report.Summary(cmd.OutOrStdout(), sum); rerr != nil {
			return rerr
		}
	}
	if st != nil && cfg.HistoryLimit > 0 {
		if perr := st.JobRepo().Prune(context.WithoutCancel(ctx), cfg.HistoryLimit); perr != nil {
			logger.Warn("prune render history", zap.Error(perr))
		}
	}
	if err != nil {
		return err
	}
	if !sum.OK() {
		return fmt.Errorf("%d of %d tiers failed", sum.Failed(), len(sum.Jobs))
	}
	return nil
}

// runnerOptions builds the runner configuration from cfg.
func runnerOptions(cfg *config.Config, log *zap.Logger, recorder render.Recorder) (render.Options, error) {
	bg, err := cfg.GetBackground()
	if err != nil {
		return render.Options{}, err
	}
	enc := encoder.New(
		encoder.WithBinary(cfg.FFmpeg),
		encoder.WithTimeout(cfg.GetTimeout()),
		encoder.WithQuality(cfg.Quality.CRF, cfg.Quality.Preset),
		encoder.WithLogger(log),
	)
	return render.Options{
		OutputDir:  cfg.OutputDir,
		Seed:       cfg.Seed,
		Video:      cfg.VideoParams(),
		Background: bg,
		Parallel:   cfg.Parallel,
		Encoder:    enc,
		Recorder:   recorder,
		Logger:     log,
	}, nil
}
