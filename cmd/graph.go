package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/celebrate/internal/compose"
	"github.com/abhisek/celebrate/internal/encoder"
	"github.com/abhisek/celebrate/internal/particles"
	"github.com/abhisek/celebrate/internal/rarity"
	"github.com/abhisek/celebrate/internal/render"
)

var graphCmd = &cobra.Command{
	Use:   "graph <tier>",
	Short: "Print the compiled filter graph of a tier without encoding",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().Bool("args", false, "Print the full ffmpeg command line instead of the graph")
	graphCmd.Flags().StringP("out", "o", "", "Output directory used in the printed command line")
	addRenderFlags(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	g, err := compileTier(args[0], cfg.Seed, cfg.VideoParams(), cfg.Background)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showArgs, _ := cmd.Flags().GetBool("args"); showArgs {
		enc := encoder.New(
			encoder.WithBinary(cfg.FFmpeg),
			encoder.WithQuality(cfg.Quality.CRF, cfg.Quality.Preset),
		)
		argv := enc.Args(g, render.OutputPath(cfg.OutputDir, g.Tier))
		quoted := make([]string, 0, len(argv)+1)
		quoted = append(quoted, shellQuote(cfg.FFmpeg))
		for _, a := range argv {
			quoted = append(quoted, shellQuote(a))
		}
		_, err := fmt.Fprintln(out, strings.Join(quoted, " "))
		return err
	}

	fmt.Fprintf(out, "# %s: %d layers, output [%s]\n", g.Tier, g.LayerCount(), g.Output())
	for _, s := range g.Statements() {
		fmt.Fprintln(out, s+";")
	}
	return nil
}

// compileTier resolves, simulates and compiles one tier.
func compileTier(tier string, seed uint64, v compose.VideoParams, background string) (*compose.Graph, error) {
	p, err := rarity.Resolve(tier)
	if err != nil {
		return nil, err
	}
	bg, err := compose.ParseBackground(background)
	if err != nil {
		return nil, err
	}
	sim, err := particles.Simulate(p, v.Canvas(), particles.NewSource(seed))
	if err != nil {
		return nil, err
	}
	return compose.Compile(sim, v, bg)
}

// shellQuote wraps s in single quotes when it contains anything beyond a
// conservative set of safe characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:+=,@", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
