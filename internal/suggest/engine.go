// Package suggest implements the suggestion engine: it filters analyzed
// markets against the configured thresholds, ranks survivors by edge, and
// renders the result for output. Generate is deterministic given its inputs
// and thresholds.
package suggest

import (
	"log/slog"
	"sort"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// Candidate is one analyzed market together with its owning event.
type Candidate struct {
	Event      domain.Event
	Market     domain.Market
	Research   domain.ResearchResult
	Assessment domain.Assessment
}

// Engine filters and ranks trading suggestions.
type Engine struct {
	minConfidence int
	minEdge       float64
	minVolume     float64
	logger        *slog.Logger
}

// NewEngine creates a suggestion engine with the given thresholds.
func NewEngine(minConfidence int, minEdge, minVolume float64, logger *slog.Logger) *Engine {
	return &Engine{
		minConfidence: minConfidence,
		minEdge:       minEdge,
		minVolume:     minVolume,
		logger:        logger.With(slog.String("component", "suggest")),
	}
}

// Generate turns candidates into ranked suggestions. Every filter must pass:
// recommendation is not AVOID, edge and confidence clear their minimums
// (boundary inclusive), and the market's volume clears the floor. The result
// is sorted by descending edge, ties broken by descending confidence, then
// by the candidates' input order (the catalog's volume-descending order), so
// ranking is a total order and the output deterministic.
func (e *Engine) Generate(candidates []Candidate) []domain.Suggestion {
	suggestions := make([]domain.Suggestion, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if !e.accept(c) {
			continue
		}
		suggestions = append(suggestions, domain.NewSuggestion(c.Event, c.Market, c.Research, c.Assessment))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Edge != suggestions[j].Edge {
			return suggestions[i].Edge > suggestions[j].Edge
		}
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	e.logger.Info("generated suggestions",
		slog.Int("candidates", len(candidates)),
		slog.Int("suggestions", len(suggestions)),
	)
	return suggestions
}

// accept applies the threshold filters. Order only affects short-circuit
// efficiency, not the final set.
func (e *Engine) accept(c *Candidate) bool {
	a := &c.Assessment
	switch {
	case a.Recommendation == domain.RecommendationAvoid:
		e.logger.Debug("skipping market: recommendation is AVOID", slog.String("market_id", a.MarketID))
		return false
	case a.Edge < e.minEdge:
		e.logger.Debug("skipping market: edge below threshold",
			slog.String("market_id", a.MarketID),
			slog.Float64("edge", a.Edge),
		)
		return false
	case a.Confidence < e.minConfidence:
		e.logger.Debug("skipping market: confidence below threshold",
			slog.String("market_id", a.MarketID),
			slog.Int("confidence", a.Confidence),
		)
		return false
	case c.Market.Volume < e.minVolume:
		e.logger.Debug("skipping market: volume below threshold",
			slog.String("market_id", a.MarketID),
			slog.Float64("volume", c.Market.Volume),
		)
		return false
	}
	return true
}

// Top limits the suggestions to at most n entries, optionally keeping only
// one recommendation type. Pass rec == "" to keep every type.
func Top(suggestions []domain.Suggestion, n int, rec domain.Recommendation) []domain.Suggestion {
	filtered := suggestions
	if rec != "" {
		filtered = make([]domain.Suggestion, 0, len(suggestions))
		for _, s := range suggestions {
			if s.Recommendation == rec {
				filtered = append(filtered, s)
			}
		}
	}
	if n > 0 && len(filtered) > n {
		filtered = filtered[:n]
	}
	return filtered
}
