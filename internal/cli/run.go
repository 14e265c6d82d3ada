package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/ppiankov/tenderwatch/internal/cache"
	"github.com/ppiankov/tenderwatch/internal/extract/adapters"
	"github.com/ppiankov/tenderwatch/internal/keywords"
	"github.com/ppiankov/tenderwatch/internal/logger"
	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/ppiankov/tenderwatch/internal/notify"
	"github.com/ppiankov/tenderwatch/internal/pipeline"
	"github.com/ppiankov/tenderwatch/internal/ratelimit"
	"github.com/ppiankov/tenderwatch/internal/score"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	dryRun       bool
	statePath    string
	keywordsPath string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check every source once and email new notices",
	Long: `Run performs one watch cycle:
- Fetch every configured source page
- Keep anchors whose text matches a keyword
- Drop notices already recorded in the state file
- Email a digest of new notices, or the daily heartbeat when there are none

Example:
  tenderwatch run
  tenderwatch run --dry-run
  tenderwatch run --state /var/lib/tenderwatch/seen.json --keywords ./keywords.txt`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest instead of sending it and do not save state")
	runCmd.Flags().StringVar(&statePath, "state", "", "state file path (overrides state.path)")
	runCmd.Flags().StringVar(&keywordsPath, "keywords", "", "keyword file path (overrides keywords.path)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, cfgUsed, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	applyRunFlags(cfg)

	baseLog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = baseLog.Sync() }()

	log := baseLog.With(logger.String("run_id", uuid.NewString()))
	if cfgUsed != "" {
		log.Debug("Using config file", logger.String("path", cfgUsed))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(cfg, log, dryRun)
	if err != nil {
		return err
	}

	summary, err := p.Run(ctx)
	if err != nil {
		log.Error("Run failed", logger.Error(err))
		return err
	}

	printSummary(cmd.ErrOrStderr(), summary)

	if dryRun {
		return printDigest(cmd.OutOrStdout(), summary)
	}
	return nil
}

func applyRunFlags(cfg *model.Config) {
	if statePath != "" {
		cfg.State.Path = statePath
	}
	if keywordsPath != "" {
		cfg.Keywords.Path = keywordsPath
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
}

// buildPipeline wires fetcher, adapters, scorer and notifier from cfg
func buildPipeline(cfg *model.Config, log logger.Logger, dryRun bool) (*pipeline.Pipeline, error) {
	kw := keywords.Load(cfg.Keywords.Path)
	log.Info("Keywords loaded",
		logger.Int("count", kw.Len()),
		logger.String("origin", string(kw.Origin())),
		logger.String("path", cfg.Keywords.Path),
	)
	log.Debug("Keyword set", logger.Strings("keywords", kw.Words()))
	scorer := score.NewScorer(kw)

	fetcherOpts := []pipeline.FetcherOption{
		pipeline.WithLogger(log),
		pipeline.WithLimiter(ratelimit.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)),
	}
	if cfg.Cache.Enabled {
		fetcherOpts = append(fetcherOpts, pipeline.WithCache(cache.NewMemoryStore(cfg.Cache.TTL)))
	}
	if cfg.HTTP.RespectRobots {
		fetcherOpts = append(fetcherOpts, pipeline.WithRobots())
	}
	fetcher := pipeline.NewFetcher(cfg.HTTP, fetcherOpts...)

	registry, err := adapters.NewRegistry(cfg.Sources, fetcher, scorer, log)
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}
	registered := registry.Adapters()
	sources := make([]pipeline.Source, 0, len(registered))
	for _, a := range registered {
		sources = append(sources, a)
	}

	if !dryRun && !cfg.SMTP.Configured() {
		log.Warn("SMTP credentials incomplete; email will not be sent")
	}
	notifier := notify.NewNotifier(notify.NewSMTPSender(cfg.SMTP), cfg.Heartbeat, log)

	return pipeline.NewPipeline(sources, scorer, cfg.State.Path, cfg.State.Retention, notifier,
		pipeline.WithDryRun(dryRun),
		pipeline.WithPipelineLogger(log),
	), nil
}

func printSummary(w io.Writer, summary *pipeline.RunSummary) {
	cycle := summary.Cycle

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Sources:\n")
	for _, s := range cycle.Sources {
		status := "ok"
		if s.Err != nil {
			status = "failed: " + s.Err.Error()
		}
		fmt.Fprintf(w, "    %-30s candidates=%-4d new=%-3d %s\n", s.Name, s.Candidates, s.Accepted, status)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Checked:      %d\n", cycle.Checked)
	fmt.Fprintf(w, "  New:          %d\n", len(cycle.Notices))
	fmt.Fprintf(w, "  Evicted:      %d\n", cycle.Evicted)
	fmt.Fprintf(w, "  Errors:       %d\n", len(multierr.Errors(cycle.Err)))
	fmt.Fprintf(w, "  Digest sent:  %t\n", summary.DigestSent)
	fmt.Fprintf(w, "  Heartbeat:    %t\n", summary.HeartbeatSent)
	fmt.Fprintf(w, "\n")
}

func printDigest(w io.Writer, summary *pipeline.RunSummary) error {
	msg := summary.Digest
	if msg == nil {
		empty, err := notify.FormatDigest(nil, summary.Cycle.Checked)
		if err != nil {
			return err
		}
		msg = &empty
	}
	_, err := fmt.Fprintf(w, "Subject: %s\n\n%s\n", msg.Subject, msg.HTML)
	return err
}
