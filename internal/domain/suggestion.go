package domain

import (
	"math"
	"time"
)

// Suggestion is a ranked trading signal combining event/market identity with
// the research and assessment that produced it. It is built once and never
// mutated; the JSON tags define the snapshot artifact schema consumed by the
// notification layer.
type Suggestion struct {
	EventID              string         `json:"event_id"`
	EventTitle           string         `json:"event_title"`
	MarketID             string         `json:"market_id"`
	MarketQuestion       string         `json:"market_question"`
	CurrentOdds          float64        `json:"current_odds"`
	EstimatedProbability float64        `json:"estimated_probability"`
	Edge                 float64        `json:"-"`
	EdgePercentage       float64        `json:"edge_percentage"`
	Recommendation       Recommendation `json:"recommendation"`
	Confidence           int            `json:"confidence"`
	Reasoning            string         `json:"reasoning"`
	RiskFactors          []string       `json:"risk_factors"`
	KeyFindings          []string       `json:"key_findings"`
	Sources              []string       `json:"sources"`
	Timestamp            time.Time      `json:"timestamp"`
}

// NewSuggestion assembles a Suggestion from its parts. EdgePercentage is the
// edge expressed in percent, rounded to two decimals for the artifact.
func NewSuggestion(event Event, market Market, research ResearchResult, assessment Assessment) Suggestion {
	return Suggestion{
		EventID:              event.ID,
		EventTitle:           event.Title,
		MarketID:             market.ID,
		MarketQuestion:       market.Question,
		CurrentOdds:          assessment.MarketProbability,
		EstimatedProbability: assessment.EstimatedProbability,
		Edge:                 assessment.Edge,
		EdgePercentage:       math.Round(assessment.Edge*10000) / 100,
		Recommendation:       assessment.Recommendation,
		Confidence:           assessment.Confidence,
		Reasoning:            assessment.Reasoning,
		RiskFactors:          assessment.RiskFactors,
		KeyFindings:          research.KeyFindings,
		Sources:              research.Sources,
		Timestamp:            time.Now().UTC(),
	}
}

// ProcessedMarket records one (event, market) pair that a completed run has
// observed, whether or not it produced a suggestion. The ledger is the union
// of these across all snapshots and grows monotonically.
type ProcessedMarket struct {
	EventID  string `json:"event_id"`
	MarketID string `json:"market_id"`
}

// Snapshot is the JSON document written after each run. It doubles as the
// output artifact for the notification layer and as a ledger segment.
type Snapshot struct {
	RunID            string            `json:"run_id"`
	Timestamp        time.Time         `json:"timestamp"`
	TotalSuggestions int               `json:"total_suggestions"`
	Suggestions      []Suggestion      `json:"suggestions"`
	Processed        []ProcessedMarket `json:"processed"`
}
