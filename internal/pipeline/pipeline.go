package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/protest-map-etl/internal/domain"
	"github.com/couchcryptid/protest-map-etl/internal/observability"
)

// MobilizeFetcher pulls raw feed events from the Mobilize API.
type MobilizeFetcher interface {
	FetchEvents(ctx context.Context) ([]domain.MobilizeEvent, error)
}

// BlopFetcher pulls parsed rows from the spreadsheet CSV export.
type BlopFetcher interface {
	FetchRows(ctx context.Context) ([]domain.BlopRow, error)
}

// Snapshot persists a source's normalized output between runs.
type Snapshot interface {
	Load(ctx context.Context) ([]domain.Event, error)
	Save(ctx context.Context, events []domain.Event) error
}

// ManualSource lists stored manual events.
type ManualSource interface {
	List(ctx context.Context) ([]domain.ManualEvent, error)
}

// OverrideReader returns the stored field corrections by source event id.
type OverrideReader interface {
	All(ctx context.Context) (map[string]domain.Override, error)
}

// SuppressionReader returns the set of hidden source event ids.
type SuppressionReader interface {
	All(ctx context.Context) (map[string]struct{}, error)
}

// Publisher emits the merged included events for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Options is the explicit pipeline configuration, passed in at construction
// rather than read from process-wide state.
type Options struct {
	IncludeMobilize bool
	IncludeBlop     bool
	IncludeManual   bool
	StartDate       time.Time // zero means "now" at each evaluation
	Bounds          domain.Bounds
	BlopTimezone    *time.Location
	SyncInterval    time.Duration
}

// Deps are the pipeline's collaborators. Publisher may be nil.
type Deps struct {
	Mobilize     MobilizeFetcher
	Blop         BlopFetcher
	Geocoder     domain.Geocoder      // uncached, used by the feed normalizer
	BlopGeocoder domain.KeyedGeocoder // cache-then-service path
	MobilizeSnap Snapshot
	BlopSnap     Snapshot
	Manual       ManualSource
	Overrides    OverrideReader
	Suppressed   SuppressionReader
	Publisher    Publisher
}

// Pipeline orchestrates the fetch-normalize-persist sync runs and assembles
// the merged serve-path output.
type Pipeline struct {
	deps    Deps
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given collaborators and options.
func New(deps Deps, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		deps:    deps,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one sync run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a sync run yet")
	}
	return nil
}

// cutoff resolves the admission cutoff at evaluation time.
func (p *Pipeline) cutoff() time.Time {
	if !p.opts.StartDate.IsZero() {
		return p.opts.StartDate
	}
	return domain.Now()
}

// Run executes an initial sync and then one per interval until the context
// is cancelled. Sync errors are logged; the next tick retries.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.Sync(ctx); err != nil {
		p.logger.Error("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(p.opts.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := p.Sync(ctx); err != nil {
				p.logger.Error("sync failed", "error", err)
			}
		}
	}
}

// Sync fetches and normalizes every enabled feed source, persists the
// per-source snapshots, and publishes the merged result when a publisher is
// configured. A failing source contributes its previous snapshot; the other
// sources still run.
func (p *Pipeline) Sync(ctx context.Context) error {
	start := time.Now()
	p.metrics.SyncRunning.Set(1)
	defer p.metrics.SyncRunning.Set(0)

	cutoff := p.cutoff()
	var errs []error

	if p.opts.IncludeMobilize {
		if err := p.syncMobilize(ctx, cutoff); err != nil {
			p.metrics.SourceErrors.WithLabelValues(string(domain.SourceMobilize)).Inc()
			p.logger.Error("mobilize sync failed", "error", err)
			errs = append(errs, err)
		}
	}
	if p.opts.IncludeBlop {
		if err := p.syncBlop(ctx, cutoff); err != nil {
			p.metrics.SourceErrors.WithLabelValues(string(domain.SourceBlop)).Inc()
			p.logger.Error("blop sync failed", "error", err)
			errs = append(errs, err)
		}
	}

	if p.deps.Publisher != nil {
		if err := p.publish(ctx); err != nil {
			p.logger.Error("publish failed", "error", err)
			errs = append(errs, err)
		}
	}

	p.metrics.SyncsTotal.Inc()
	p.metrics.SyncDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	return errors.Join(errs...)
}

func (p *Pipeline) syncMobilize(ctx context.Context, cutoff time.Time) error {
	raw, err := p.deps.Mobilize.FetchEvents(ctx)
	if err != nil {
		return err
	}

	included := make([]domain.Event, 0, len(raw))
	for _, rec := range raw {
		out := domain.NormalizeMobilize(ctx, rec, cutoff, p.opts.Bounds, p.deps.Geocoder)
		if out.Included {
			included = append(included, out.Event)
			p.metrics.EventsIncluded.WithLabelValues(string(domain.SourceMobilize)).Inc()
			continue
		}
		p.metrics.EventsSkipped.WithLabelValues(string(domain.SourceMobilize), string(out.Reason)).Inc()
		p.logger.Debug("mobilize record skipped", "title", rec.Title, "reason", out.Reason)
	}

	if err := p.deps.MobilizeSnap.Save(ctx, included); err != nil {
		return err
	}
	p.logger.Info("mobilize synced", "raw", len(raw), "included", len(included))
	return nil
}

func (p *Pipeline) syncBlop(ctx context.Context, cutoff time.Time) error {
	rows, err := p.deps.Blop.FetchRows(ctx)
	if err != nil {
		return err
	}

	included := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		out := domain.NormalizeBlopRow(ctx, row, cutoff, p.opts.BlopTimezone, p.deps.BlopGeocoder)
		switch {
		case out.Included:
			included = append(included, out.Event)
			p.metrics.EventsIncluded.WithLabelValues(string(domain.SourceBlop)).Inc()
		case out.Reason != "":
			p.metrics.EventsSkipped.WithLabelValues(string(domain.SourceBlop), string(out.Reason)).Inc()
			p.logger.Debug("blop row skipped", "title", row.Title, "reason", out.Reason)
		}
		// Rows without a reason are export noise, not candidate events.
	}

	if err := p.deps.BlopSnap.Save(ctx, included); err != nil {
		return err
	}
	p.logger.Info("blop synced", "rows", len(rows), "included", len(included))
	return nil
}

func (p *Pipeline) publish(ctx context.Context) error {
	events, err := p.Events(ctx)
	if err != nil {
		return err
	}
	return p.deps.Publisher.Publish(ctx, events)
}

// Events assembles the merged serve-path output: stored snapshots and
// manual events, admission-filtered, moderated, and sorted ascending by
// date. Per-source failures degrade to an empty contribution; the result is
// always best-effort, never a wholesale failure.
func (p *Pipeline) Events(ctx context.Context) ([]domain.Event, error) {
	cutoff := p.cutoff()

	var feed []domain.Event
	if p.opts.IncludeMobilize {
		feed = append(feed, p.loadSnapshot(ctx, domain.SourceMobilize, p.deps.MobilizeSnap, cutoff)...)
	}
	if p.opts.IncludeBlop {
		feed = append(feed, p.loadSnapshot(ctx, domain.SourceBlop, p.deps.BlopSnap, cutoff)...)
	}

	feed = domain.Moderate(feed, p.loadOverrides(ctx), p.loadSuppressed(ctx))

	var manual []domain.Event
	if p.opts.IncludeManual {
		manual = p.loadManual(ctx, cutoff)
	}

	return domain.Merge(feed, manual), nil
}

func (p *Pipeline) loadSnapshot(ctx context.Context, source domain.Source, snap Snapshot, cutoff time.Time) []domain.Event {
	events, err := snap.Load(ctx)
	if err != nil {
		p.metrics.SourceErrors.WithLabelValues(string(source)).Inc()
		p.logger.Error("snapshot load failed", "source", source, "error", err)
		return nil
	}
	return domain.AdmitAll(events, cutoff, p.opts.Bounds)
}

func (p *Pipeline) loadManual(ctx context.Context, cutoff time.Time) []domain.Event {
	stored, err := p.deps.Manual.List(ctx)
	if err != nil {
		p.metrics.SourceErrors.WithLabelValues(string(domain.SourceManual)).Inc()
		p.logger.Error("manual events load failed", "error", err)
		return nil
	}

	included := make([]domain.Event, 0, len(stored))
	for _, ev := range stored {
		if !ev.IsVisible() {
			continue
		}
		out := domain.NormalizeManual(ev, cutoff)
		if out.Included {
			included = append(included, out.Event)
		}
	}
	return domain.AdmitAll(included, cutoff, p.opts.Bounds)
}

func (p *Pipeline) loadOverrides(ctx context.Context) map[string]domain.Override {
	overrides, err := p.deps.Overrides.All(ctx)
	if err != nil {
		p.logger.Error("overrides load failed", "error", err)
		return nil
	}
	return overrides
}

func (p *Pipeline) loadSuppressed(ctx context.Context) map[string]struct{} {
	suppressed, err := p.deps.Suppressed.All(ctx)
	if err != nil {
		p.logger.Error("suppression set load failed", "error", err)
		return nil
	}
	return suppressed
}
