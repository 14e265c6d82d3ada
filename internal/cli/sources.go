package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/tenderwatch/internal/keywords"
	"github.com/ppiankov/tenderwatch/internal/pipeline"
	"github.com/ppiankov/tenderwatch/internal/ratelimit"
	"github.com/ppiankov/tenderwatch/internal/score"
	"github.com/ppiankov/tenderwatch/internal/validate"
	"github.com/spf13/cobra"
)

var (
	probeSources bool
	probeWorkers int
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and optionally probe them",
	Long: `List the tender listing pages TenderWatch reads.

With --check every page is fetched once and the selector is applied, so a
site redesign shows up as a reachable page with no anchors. State is not
read or written and no email is sent.

Example:
  tenderwatch sources
  tenderwatch sources --check`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().BoolVar(&probeSources, "check", false, "fetch each source and report its health")
	sourcesCmd.Flags().IntVar(&probeWorkers, "concurrency", 4, "number of sources probed at once")
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !probeSources {
		for _, s := range cfg.Sources {
			fmt.Fprintf(out, "%-30s %-10s %s\n", s.Name, s.Selector, s.URL)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := pipeline.NewFetcher(cfg.HTTP,
		pipeline.WithLimiter(ratelimit.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)),
	)
	scorer := score.NewScorer(keywords.Load(cfg.Keywords.Path))

	reports := validate.NewProber(fetcher, scorer, probeWorkers).Probe(ctx, cfg.Sources)

	unhealthy := 0
	for _, r := range reports {
		status := "✓"
		if !r.Healthy() {
			status = "✗"
			unhealthy++
		}
		fmt.Fprintf(out, "%s %-30s anchors=%-4d relevant=%-3d %6dms", status, r.Name, r.Anchors, r.Relevant, r.Duration.Milliseconds())
		if r.Error != "" {
			fmt.Fprintf(out, "  %s", r.Error)
		}
		fmt.Fprintln(out)
	}

	if unhealthy > 0 {
		return fmt.Errorf("%d of %d sources unhealthy", unhealthy, len(reports))
	}
	return nil
}
