package analyzer

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

const (
	// descriptionBudget caps how much of a market description goes into the
	// prompt; descriptions are often multi-page resolution criteria.
	descriptionBudget = 500
	// snippetBudget caps each evidence snippet in the prompt.
	snippetBudget = 500
)

const systemPrompt = `You are an expert prediction market analyst. Analyze web search results and provide probability assessments. Always respond with valid JSON only.`

// marketSection renders one market's facts for the prompt.
func marketSection(m *domain.Market) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Market ID: %s\n", m.ID)
	fmt.Fprintf(&b, "- Question: %s\n", m.Question)
	fmt.Fprintf(&b, "- Description: %s\n", truncate(m.Description, descriptionBudget))
	fmt.Fprintf(&b, "- Current Market Odds: %.1f%%\n", m.ImpliedProbability()*100)
	end := m.EndDate
	if end == "" {
		end = "Not specified"
	}
	fmt.Fprintf(&b, "- End Date: %s\n", end)
	return b.String()
}

// formatEvidence renders the gathered evidence items for the prompt. Each
// snippet is truncated to a fixed character budget.
func formatEvidence(items []domain.EvidenceItem) string {
	if len(items) == 0 {
		return "No search results available."
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "### Result %d\n", i+1)
		fmt.Fprintf(&b, "- Title: %s\n", item.Title)
		fmt.Fprintf(&b, "- URL: %s\n", item.URL)
		fmt.Fprintf(&b, "- Date: %s\n", item.PublishedAt)
		fmt.Fprintf(&b, "- Content: %s\n\n", truncate(item.Snippet, snippetBudget))
	}
	return b.String()
}

// buildPrompt constructs the analysis prompt for a single market.
func buildPrompt(market *domain.Market, evidence []domain.EvidenceItem) string {
	var b strings.Builder
	b.WriteString("Analyze the following prediction market using the provided web search results.\n\n")
	b.WriteString("## Market Information\n")
	b.WriteString(marketSection(market))
	b.WriteString("\n## Web Search Results\n")
	b.WriteString(formatEvidence(evidence))
	b.WriteString(`
## Instructions
Estimate the true probability of the market outcome based only on factual
information from the search results. Consider contrary viewpoints and list
realistic, specific risk factors.

## Output Format (JSON only)
{
  "market_id": "...",
  "key_findings": ["finding1", "finding2", "finding3"],
  "recent_news": ["news1", "news2"],
  "sentiment": "BULLISH|BEARISH|NEUTRAL",
  "sources": ["url1", "url2"],
  "estimated_probability": 0.XX,
  "confidence": 1-10,
  "reasoning": "Detailed explanation of your analysis...",
  "risk_factors": ["risk1", "risk2", "risk3"]
}

Respond ONLY with valid JSON. No additional text.`)
	return b.String()
}

// buildBatchPrompt constructs the analysis prompt for all markets of one
// event. The evidence is shared across the batch; the model must return one
// assessment per listed market id.
func buildBatchPrompt(event *domain.Event, markets []domain.Market, evidence []domain.EvidenceItem) string {
	var b strings.Builder
	b.WriteString("Analyze each of the following prediction markets using the provided web search results.\n\n")
	fmt.Fprintf(&b, "## Event\n- Title: %s\n- Description: %s\n\n", event.Title, truncate(event.Description, descriptionBudget))
	b.WriteString("## Markets\n")
	for i := range markets {
		fmt.Fprintf(&b, "### Market %d\n%s\n", i+1, marketSection(&markets[i]))
	}
	b.WriteString("## Web Search Results\n")
	b.WriteString(formatEvidence(evidence))
	b.WriteString(`
## Instructions
Estimate the true probability of each market's outcome based only on factual
information from the search results. The same evidence applies to every
market in this event; weigh only the parts relevant to each question.

## Output Format (JSON only)
{
  "assessments": [
    {
      "market_id": "...",
      "key_findings": ["finding1", "finding2"],
      "recent_news": ["news1"],
      "sentiment": "BULLISH|BEARISH|NEUTRAL",
      "sources": ["url1", "url2"],
      "estimated_probability": 0.XX,
      "confidence": 1-10,
      "reasoning": "Detailed explanation...",
      "risk_factors": ["risk1", "risk2"]
    }
  ]
}

Include exactly one entry per market id listed above.
Respond ONLY with valid JSON. No additional text.`)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
