package domain

import "time"

// Recommendation is the trading action derived from an assessment.
type Recommendation string

const (
	RecommendationLong  Recommendation = "LONG"
	RecommendationShort Recommendation = "SHORT"
	RecommendationAvoid Recommendation = "AVOID"
)

// ParseRecommendation maps free-form model output to a Recommendation,
// defaulting to AVOID for anything unrecognised.
func ParseRecommendation(s string) Recommendation {
	switch Recommendation(s) {
	case RecommendationLong:
		return RecommendationLong
	case RecommendationShort:
		return RecommendationShort
	default:
		return RecommendationAvoid
	}
}

// Sentiment summarises the direction of the gathered evidence.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentNeutral Sentiment = "NEUTRAL"
)

// ParseSentiment maps free-form model output to a Sentiment, defaulting to
// NEUTRAL for anything unrecognised.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentBullish:
		return SentimentBullish
	case SentimentBearish:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// EvidenceItem is a single normalized web-search result. Evidence is
// ephemeral: produced per query and never persisted beyond the run.
type EvidenceItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	PublishedAt string `json:"date"`
}

// ResearchResult holds the research findings for one market.
type ResearchResult struct {
	MarketID    string
	Question    string
	KeyFindings []string // at most 5
	RecentNews  []string // at most 3
	Sentiment   Sentiment
	Confidence  int      // 1-10
	Sources     []string // at most 5
	RawResponse string
	Timestamp   time.Time
}

// Assessment is the probability assessment for one market. Edge is always
// |EstimatedProbability - MarketProbability|, computed after both
// probabilities have been clamped to [0,1], so it is never negative.
type Assessment struct {
	MarketID             string
	Question             string
	EstimatedProbability float64
	MarketProbability    float64
	Edge                 float64
	Recommendation       Recommendation
	Confidence           int // 1-10
	Reasoning            string
	RiskFactors          []string // at most 5
	Timestamp            time.Time
}

// ClampConfidence clamps a raw confidence score to the [1,10] scale.
func ClampConfidence(c int) int {
	if c < 1 {
		return 1
	}
	if c > 10 {
		return 10
	}
	return c
}
