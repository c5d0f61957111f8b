// Package analyzer implements the estimation engine: it combines market
// facts and gathered evidence into a reasoning-model request, enforces the
// global concurrency cap and retry discipline on model calls, and guarantees
// a well-formed assessment for every market via a deterministic fallback.
package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/alanyoungcy/polyscout/internal/domain"
	"github.com/alanyoungcy/polyscout/internal/platform/zai"
	"github.com/alanyoungcy/polyscout/internal/retry"
)

// fallbackRiskFactor is the generic risk factor attached to fallback
// assessments.
const fallbackRiskFactor = "No model analysis available"

// ModelClient is the narrow surface the analyzer needs from the reasoning
// model service.
type ModelClient interface {
	ChatCompletion(ctx context.Context, messages []zai.Message) (string, error)
	Available() bool
}

// Config holds the analyzer's call discipline.
type Config struct {
	// Concurrency is the hard cap on in-flight model calls. Evidence
	// gathering is not subject to it.
	Concurrency int
	// EdgeThreshold is the band around the market probability inside which
	// the recommendation is AVOID.
	EdgeThreshold float64
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
}

// Analyzer is the estimation engine.
type Analyzer struct {
	model         ModelClient
	sem           *semaphore.Weighted
	policy        retry.Policy
	edgeThreshold float64
	logger        *slog.Logger
}

// New creates an Analyzer. The semaphore it builds is global: every model
// call made through this Analyzer shares the same cap.
func New(model ModelClient, cfg Config, logger *slog.Logger) *Analyzer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 2
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 60 * time.Second
	}

	return &Analyzer{
		model: model,
		sem:   semaphore.NewWeighted(int64(cfg.Concurrency)),
		policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			MaxDelay:    cfg.MaxDelay,
			Retryable:   retryable,
		},
		edgeThreshold: cfg.EdgeThreshold,
		logger:        logger.With(slog.String("component", "analyzer")),
	}
}

// retryable is the transient-error predicate for model calls: rate limits,
// 5xx responses, and transport failures. Missing keys and malformed
// responses are permanent for the run and degrade immediately.
func retryable(err error) bool {
	return domain.IsTransient(err) || errors.Is(err, domain.ErrModelUnavailable)
}

// Analyzed pairs a market with the research and assessment produced for it.
type Analyzed struct {
	Market     domain.Market
	Research   domain.ResearchResult
	Assessment domain.Assessment
}

// AnalyzeMarket produces a research result and probability assessment for a
// single market. It never returns an error: any failure path degrades to the
// deterministic fallback.
func (a *Analyzer) AnalyzeMarket(ctx context.Context, market domain.Market, evidence []domain.EvidenceItem) Analyzed {
	content, err := a.callModel(ctx, buildPrompt(&market, evidence))
	if err != nil {
		a.logger.WarnContext(ctx, "model call failed, using fallback",
			slog.String("market_id", market.ID),
			slog.String("error", err.Error()),
		)
		return a.fallback(market)
	}

	results := extractResults(content)
	if len(results) == 0 {
		a.logger.WarnContext(ctx, "no JSON in model response, using fallback",
			slog.String("market_id", market.ID),
		)
		return a.fallback(market)
	}

	return a.fromModelResult(market, results[0], evidence, content)
}

// AnalyzeEventBatch produces one Analyzed per market of the event with a
// single model call, sharing the given evidence across the batch. The result
// slice always has exactly len(markets) entries in input order: market ids
// missing from the model's response are filled with the fallback.
func (a *Analyzer) AnalyzeEventBatch(ctx context.Context, event domain.Event, markets []domain.Market, evidence []domain.EvidenceItem) []Analyzed {
	if len(markets) == 0 {
		return nil
	}
	if len(markets) == 1 {
		return []Analyzed{a.AnalyzeMarket(ctx, markets[0], evidence)}
	}

	content, err := a.callModel(ctx, buildBatchPrompt(&event, markets, evidence))
	var byID map[string]modelResult
	if err != nil {
		a.logger.WarnContext(ctx, "batch model call failed, using fallbacks",
			slog.String("event_id", event.ID),
			slog.Int("markets", len(markets)),
			slog.String("error", err.Error()),
		)
	} else {
		results := extractResults(content)
		byID = make(map[string]modelResult, len(results))
		for _, r := range results {
			byID[r.MarketID] = r
		}
	}

	out := make([]Analyzed, 0, len(markets))
	for _, market := range markets {
		r, ok := byID[market.ID]
		if !ok || r.EstimatedProbability == nil {
			out = append(out, a.fallback(market))
			continue
		}
		out = append(out, a.fromModelResult(market, r, evidence, content))
	}
	return out
}

// callModel acquires the global model semaphore, then runs the completion
// under the retry policy.
func (a *Analyzer) callModel(ctx context.Context, prompt string) (string, error) {
	if !a.model.Available() {
		return "", domain.ErrNoAPIKey
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer a.sem.Release(1)

	var content string
	err := a.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		content, callErr = a.model.ChatCompletion(ctx, []zai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		})
		return callErr
	})
	return content, err
}

// fromModelResult converts a parsed model result into an Analyzed, deriving
// edge and recommendation from the clamped probabilities. The derivation is
// the same code path the fallback uses, so model- and fallback-produced
// assessments are always consistent.
func (a *Analyzer) fromModelResult(market domain.Market, r modelResult, evidence []domain.EvidenceItem, raw string) Analyzed {
	marketProb := market.ImpliedProbability()
	estimated := marketProb
	if r.EstimatedProbability != nil {
		estimated = domain.ClampProbability(*r.EstimatedProbability)
	}

	sources := capList(r.Sources, 5)
	if len(sources) == 0 {
		for _, item := range evidence {
			if item.URL == "" {
				continue
			}
			sources = append(sources, item.URL)
			if len(sources) == 5 {
				break
			}
		}
	}

	confidence := domain.ClampConfidence(r.Confidence)
	now := time.Now().UTC()

	research := domain.ResearchResult{
		MarketID:    market.ID,
		Question:    market.Question,
		KeyFindings: capList(r.KeyFindings, 5),
		RecentNews:  capList(r.RecentNews, 3),
		Sentiment:   domain.ParseSentiment(r.Sentiment),
		Confidence:  confidence,
		Sources:     sources,
		RawResponse: raw,
		Timestamp:   now,
	}

	reasoning := r.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}

	assessment := domain.Assessment{
		MarketID:             market.ID,
		Question:             market.Question,
		EstimatedProbability: estimated,
		MarketProbability:    marketProb,
		Edge:                 math.Abs(estimated - marketProb),
		Recommendation:       a.recommend(estimated, marketProb),
		Confidence:           confidence,
		Reasoning:            reasoning,
		RiskFactors:          capList(r.RiskFactors, 5),
		Timestamp:            now,
	}

	return Analyzed{Market: market, Research: research, Assessment: assessment}
}

// recommend derives the trading direction from the estimated and market
// probabilities: LONG when the estimate clears the market by more than the
// edge threshold, SHORT when it trails by more, otherwise AVOID.
func (a *Analyzer) recommend(estimated, market float64) domain.Recommendation {
	switch {
	case estimated > market+a.edgeThreshold:
		return domain.RecommendationLong
	case estimated < market-a.edgeThreshold:
		return domain.RecommendationShort
	default:
		return domain.RecommendationAvoid
	}
}

// fallback is the deterministic degraded-mode result: the market's own
// implied probability as the estimate, zero edge, AVOID, confidence 1. It
// guarantees the pipeline always produces a well-formed assessment per
// market.
func (a *Analyzer) fallback(market domain.Market) Analyzed {
	prob := market.ImpliedProbability()
	now := time.Now().UTC()

	return Analyzed{
		Market: market,
		Research: domain.ResearchResult{
			MarketID:    market.ID,
			Question:    market.Question,
			KeyFindings: []string{"Research unavailable - API key not configured or request failed"},
			Sentiment:   domain.SentimentNeutral,
			Confidence:  1,
			Timestamp:   now,
		},
		Assessment: domain.Assessment{
			MarketID:             market.ID,
			Question:             market.Question,
			EstimatedProbability: prob,
			MarketProbability:    prob,
			Edge:                 0,
			Recommendation:       domain.RecommendationAvoid,
			Confidence:           1,
			Reasoning:            "Analysis unavailable - using market odds as estimate",
			RiskFactors:          []string{fallbackRiskFactor},
			Timestamp:            now,
		},
	}
}
