// Package pipeline drives the research-and-ranking run: fetch the event
// catalog, gather evidence, estimate probabilities, rank suggestions, and
// persist the snapshot. A run degrades rather than aborts: individual event
// failures are logged and the remaining events still complete.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polyscout/internal/analyzer"
	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/ledger"
	"github.com/alanyoungcy/polyscout/internal/suggest"
)

// eventWorkers bounds the per-event fan-out. Evidence search and model calls
// are further throttled inside their own clients, so this only caps how many
// events are in flight at once.
const eventWorkers = 4

// Catalog fetches events from the market catalog.
type Catalog interface {
	FetchEvents(ctx context.Context, limit int, active, closed bool) ([]domain.Event, error)
}

// PriceSource refreshes live prices for outcome tokens.
type PriceSource interface {
	FetchPricesBatch(ctx context.Context, tokenIDs []string) map[string]float64
}

// Researcher gathers supporting evidence for an event.
type Researcher interface {
	SearchTopics(ctx context.Context, topics []string, maxResults int) []domain.EvidenceItem
}

// Assessor produces probability assessments for an event's markets.
type Assessor interface {
	AnalyzeEventBatch(ctx context.Context, event domain.Event, markets []domain.Market, evidence []domain.EvidenceItem) []analyzer.Analyzed
}

// Archiver mirrors snapshots to object storage. Optional.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, snap *domain.Snapshot, localPath string) (string, error)
}

// Notifier delivers run results. Optional.
type Notifier interface {
	NotifySuggestions(ctx context.Context, suggestions []domain.Suggestion, report string) error
}

// Config holds the run-driver knobs.
type Config struct {
	MaxEvents       int
	MaxResults      int // evidence results per event
	MaxSuggestions  int
	IncludeAnalyzed bool
}

// Runner executes research-and-ranking runs.
type Runner struct {
	catalog  Catalog
	prices   PriceSource
	research Researcher
	assessor Assessor
	engine   *suggest.Engine
	ledger   *ledger.Ledger
	archiver Archiver // nil disables archival
	notifier Notifier // nil disables notifications
	cfg      Config
	logger   *slog.Logger
}

// NewRunner wires a Runner. archiver and notifier may be nil.
func NewRunner(
	catalog Catalog,
	prices PriceSource,
	research Researcher,
	assessor Assessor,
	engine *suggest.Engine,
	led *ledger.Ledger,
	archiver Archiver,
	notifier Notifier,
	cfg Config,
	logger *slog.Logger,
) *Runner {
	if cfg.MaxEvents < 1 {
		cfg.MaxEvents = 10
	}
	if cfg.MaxResults < 1 {
		cfg.MaxResults = 5
	}
	return &Runner{
		catalog:  catalog,
		prices:   prices,
		research: research,
		assessor: assessor,
		engine:   engine,
		ledger:   led,
		archiver: archiver,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "pipeline")),
	}
}

// RunOnce executes a single end-to-end run and returns the persisted
// snapshot. Catalog and snapshot-write failures abort the run; everything
// downstream of the catalog degrades per event instead of failing the run.
func (r *Runner) RunOnce(ctx context.Context) (*domain.Snapshot, error) {
	runID := uuid.NewString()
	logger := r.logger.With(slog.String("run_id", runID))
	logger.Info("run starting", slog.Int("max_events", r.cfg.MaxEvents))

	events, err := r.catalog.FetchEvents(ctx, r.cfg.MaxEvents, true, false)
	if err != nil {
		return nil, fmt.Errorf("pipeline: fetch events: %w", err)
	}
	logger.Info("fetched events", slog.Int("count", len(events)))

	events, err = r.filterAnalyzed(events, logger)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		logger.Info("no new events to analyze")
		return r.finish(ctx, runID, nil, nil, logger)
	}

	r.refreshPrices(ctx, events)

	results := r.analyzeEvents(ctx, events, logger)

	candidates := make([]suggest.Candidate, 0, len(results))
	processed := make([]domain.ProcessedMarket, 0, len(results))
	for _, res := range results {
		candidates = append(candidates, suggest.Candidate{
			Event:      res.event,
			Market:     res.analyzed.Market,
			Research:   res.analyzed.Research,
			Assessment: res.analyzed.Assessment,
		})
		processed = append(processed, domain.ProcessedMarket{
			EventID:  res.event.ID,
			MarketID: res.analyzed.Market.ID,
		})
	}

	suggestions := r.engine.Generate(candidates)
	suggestions = suggest.Top(suggestions, r.cfg.MaxSuggestions, "")

	return r.finish(ctx, runID, suggestions, processed, logger)
}

// filterAnalyzed drops events already covered by earlier snapshots.
func (r *Runner) filterAnalyzed(events []domain.Event, logger *slog.Logger) ([]domain.Event, error) {
	if r.cfg.IncludeAnalyzed {
		return events, nil
	}
	seen, err := r.ledger.Scan()
	if err != nil {
		return nil, fmt.Errorf("pipeline: scan ledger: %w", err)
	}

	kept := events[:0]
	for _, e := range events {
		if seen.HasEvent(e.ID) {
			continue
		}
		kept = append(kept, e)
	}
	if dropped := len(events) - len(kept); dropped > 0 {
		logger.Info("excluded previously analyzed events", slog.Int("count", dropped))
	}
	return kept, nil
}

// refreshPrices replaces catalog outcome prices with live CLOB quotes where
// a quote is available. A zero quote means the fetch failed for that token
// and the catalog price is kept.
func (r *Runner) refreshPrices(ctx context.Context, events []domain.Event) {
	var tokenIDs []string
	for _, e := range events {
		for _, m := range e.Markets {
			for _, o := range m.Outcomes {
				if o.TokenID != "" {
					tokenIDs = append(tokenIDs, o.TokenID)
				}
			}
		}
	}
	if len(tokenIDs) == 0 {
		return
	}

	quotes := r.prices.FetchPricesBatch(ctx, tokenIDs)
	for ei := range events {
		for mi := range events[ei].Markets {
			outcomes := events[ei].Markets[mi].Outcomes
			for oi := range outcomes {
				if q, ok := quotes[outcomes[oi].TokenID]; ok && q > 0 {
					outcomes[oi].Price = q
				}
			}
		}
	}
}

// eventResult pairs an analyzed market with its event for downstream ranking.
type eventResult struct {
	event    domain.Event
	analyzed analyzer.Analyzed
}

// analyzeEvents fans out over events: one evidence search plus one batch
// assessment per event. Results keep catalog order so ranking ties resolve
// deterministically.
func (r *Runner) analyzeEvents(ctx context.Context, events []domain.Event, logger *slog.Logger) []eventResult {
	perEvent := make([][]eventResult, len(events))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(eventWorkers)

	for i := range events {
		i := i
		g.Go(func() error {
			event := events[i]
			markets := event.Markets

			logger.Info("analyzing event",
				slog.String("event_id", event.ID),
				slog.String("title", event.Title),
				slog.Int("markets", len(markets)),
			)

			topics := append([]string{event.Title}, event.Tags...)
			evidence := r.research.SearchTopics(gctx, topics, r.cfg.MaxResults)

			analyzed := r.assessor.AnalyzeEventBatch(gctx, event, markets, evidence)

			results := make([]eventResult, 0, len(analyzed))
			for _, a := range analyzed {
				results = append(results, eventResult{event: event, analyzed: a})
			}

			mu.Lock()
			perEvent[i] = results
			mu.Unlock()
			return nil
		})
	}

	// Workers only return nil; Wait is for completion, not errors.
	_ = g.Wait()

	var out []eventResult
	for _, results := range perEvent {
		out = append(out, results...)
	}
	return out
}

// finish writes the snapshot, then runs the best-effort tail: archival and
// notification failures are logged but never fail the run.
func (r *Runner) finish(ctx context.Context, runID string, suggestions []domain.Suggestion, processed []domain.ProcessedMarket, logger *slog.Logger) (*domain.Snapshot, error) {
	snap := ledger.NewSnapshot(runID, suggestions, processed)

	path, err := r.ledger.WriteSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("pipeline: persist snapshot: %w", err)
	}

	if r.archiver != nil {
		if _, err := r.archiver.ArchiveSnapshot(ctx, snap, path); err != nil {
			logger.Warn("snapshot archival failed", slog.String("error", err.Error()))
		}
	}

	if r.notifier != nil && len(suggestions) > 0 {
		report := suggest.Report(suggestions)
		if err := r.notifier.NotifySuggestions(ctx, suggestions, report); err != nil {
			logger.Warn("notification failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("run complete",
		slog.Int("suggestions", len(suggestions)),
		slog.Int("processed", len(processed)),
		slog.String("snapshot", path),
	)
	return snap, nil
}
