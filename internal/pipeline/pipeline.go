package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/tenderwatch/internal/logger"
	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/ppiankov/tenderwatch/internal/notify"
	"github.com/ppiankov/tenderwatch/internal/score"
	"github.com/ppiankov/tenderwatch/internal/state"
	"go.uber.org/multierr"
)

// Source produces notice candidates; adapters.Adapter satisfies it
type Source interface {
	Name() string
	FetchNotices(ctx context.Context) ([]model.Notice, error)
}

// Pipeline runs one fetch, filter, dedupe, persist and notify cycle
type Pipeline struct {
	sources   []Source
	scorer    *score.Scorer
	statePath string
	retention time.Duration
	notifier  *notify.Notifier
	now       func() time.Time
	dryRun    bool
	log       logger.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithDryRun disables state persistence and email delivery
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// WithPipelineLogger sets the logger
func WithPipelineLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// NewPipeline creates a pipeline over sources, persisting state at statePath
func NewPipeline(sources []Source, scorer *score.Scorer, statePath string, retention time.Duration, notifier *notify.Notifier, opts ...Option) *Pipeline {
	if retention <= 0 {
		retention = model.DefaultRetention
	}
	p := &Pipeline{
		sources:   sources,
		scorer:    scorer,
		statePath: statePath,
		retention: retention,
		notifier:  notifier,
		now:       time.Now,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SourceStats summarizes one source's contribution to a cycle
type SourceStats struct {
	Name       string
	Candidates int
	Accepted   int
	Err        error
}

// CycleResult is the outcome of one cycle
type CycleResult struct {
	Notices []model.Notice // accepted, in source then page order
	Checked int            // every candidate examined, accepted or not
	Evicted int            // state entries dropped by retention
	Sources []SourceStats
	Err     error // combined source failures; never aborts the cycle
}

// RunSummary is the outcome of a full run
type RunSummary struct {
	Cycle         *CycleResult
	Digest        *notify.Message
	DigestSent    bool
	HeartbeatSent bool
}

// RunCycle loads state, collects new relevant notices from every source,
// applies retention and saves state. Only a failure to save is returned as an error.
func (p *Pipeline) RunCycle(ctx context.Context) (*CycleResult, error) {
	st := state.Load(p.statePath, p.log)
	return p.runCycle(ctx, st)
}

// Run performs a cycle, then sends the digest when there is something new,
// otherwise the daily heartbeat if it is due. Send failures are logged only.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	st := state.Load(p.statePath, p.log)

	cycle, err := p.runCycle(ctx, st)
	if err != nil {
		return nil, err
	}
	summary := &RunSummary{Cycle: cycle}

	if len(cycle.Notices) > 0 {
		msg, err := notify.FormatDigest(cycle.Notices, cycle.Checked)
		if err != nil {
			return summary, fmt.Errorf("format digest: %w", err)
		}
		summary.Digest = &msg
		if p.dryRun || p.notifier == nil {
			return summary, nil
		}

		sent, err := p.notifier.SendDigest(ctx, cycle.Notices, cycle.Checked)
		if err != nil {
			p.log.Error("Digest email failed", logger.Error(err))
		}
		summary.DigestSent = sent
		return summary, nil
	}

	if p.dryRun || p.notifier == nil {
		return summary, nil
	}

	before := st.LastHeartbeat()
	sent, err := p.notifier.MaybeSendHeartbeat(ctx, st)
	if err != nil {
		p.log.Error("Heartbeat email failed", logger.Error(err))
	}
	summary.HeartbeatSent = sent
	if !st.LastHeartbeat().Equal(before) {
		if err := p.save(st); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (p *Pipeline) runCycle(ctx context.Context, st *state.Store) (*CycleResult, error) {
	result := &CycleResult{}
	for _, src := range p.sources {
		stats := SourceStats{Name: src.Name()}

		items, err := p.collect(ctx, src)
		if err != nil {
			p.log.Warn("Source failed", logger.String("source", src.Name()), logger.Error(err))
			stats.Err = err
			result.Err = multierr.Append(result.Err, err)
		}
		stats.Candidates = len(items)

		for _, n := range items {
			result.Checked++

			// accepted notices are marked immediately, so a repeat later in the run is also skipped
			fp := n.Fingerprint()
			if st.Has(fp) {
				continue
			}
			if !p.scorer.Relevant(n.RelevanceText()) {
				continue
			}

			st.Mark(fp, p.now())
			result.Notices = append(result.Notices, n)
			stats.Accepted++
		}

		result.Sources = append(result.Sources, stats)
	}

	result.Evicted = st.Prune(p.now().Add(-p.retention))

	if !p.dryRun {
		if err := p.save(st); err != nil {
			return nil, err
		}
	}

	p.log.Info("Cycle complete",
		logger.Int("checked", result.Checked),
		logger.Int("new", len(result.Notices)),
		logger.Int("evicted", result.Evicted),
		logger.Int("failed_sources", len(multierr.Errors(result.Err))),
		logger.Bool("dry_run", p.dryRun),
	)

	return result, nil
}

func (p *Pipeline) save(st *state.Store) error {
	if err := st.Save(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	p.log.Debug("State saved", logger.String("path", st.Path()), logger.Int("entries", st.Len()))
	return nil
}

// collect runs one source, converting a panic into an error so the other sources still run
func (p *Pipeline) collect(ctx context.Context, src Source) (items []model.Notice, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("source %s crashed: %v", src.Name(), r)
		}
	}()
	return src.FetchNotices(ctx)
}
