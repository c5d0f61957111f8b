package analyzer

import (
	"encoding/json"
	"regexp"
)

// jsonBlockRe matches the outermost {...} block in free-form model output,
// covering responses wrapped in prose or markdown code fences.
var jsonBlockRe = regexp.MustCompile(`\{[\s\S]*\}`)

// modelResult is one market's assessment as emitted by the model.
type modelResult struct {
	MarketID             string   `json:"market_id"`
	KeyFindings          []string `json:"key_findings"`
	RecentNews           []string `json:"recent_news"`
	Sentiment            string   `json:"sentiment"`
	Sources              []string `json:"sources"`
	EstimatedProbability *float64 `json:"estimated_probability"`
	Confidence           int      `json:"confidence"`
	Reasoning            string   `json:"reasoning"`
	RiskFactors          []string `json:"risk_factors"`
}

// modelEnvelope is the batched response shape. Single-market responses may
// be a bare modelResult instead; extractResults accepts both.
type modelEnvelope struct {
	Assessments []modelResult `json:"assessments"`
}

// extractJSON pulls a JSON document out of free-form model output: direct
// parse first, then a regex scan for the outermost {...} block. It returns
// nil when no JSON can be recovered; the caller degrades to the fallback.
func extractJSON(content string) []byte {
	if json.Valid([]byte(content)) {
		return []byte(content)
	}
	if m := jsonBlockRe.FindString(content); m != "" && json.Valid([]byte(m)) {
		return []byte(m)
	}
	return nil
}

// extractResults parses model output into per-market results. It accepts
// either the batched {"assessments": [...]} envelope or a bare single-market
// object. A response with no recoverable JSON yields an empty slice.
func extractResults(content string) []modelResult {
	raw := extractJSON(content)
	if raw == nil {
		return nil
	}

	var envelope modelEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Assessments) > 0 {
		return envelope.Assessments
	}

	var single modelResult
	if err := json.Unmarshal(raw, &single); err == nil && single.EstimatedProbability != nil {
		return []modelResult{single}
	}
	return nil
}

// capList bounds a string list to at most n entries.
func capList(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
