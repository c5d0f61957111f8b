package suggest

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

const reportRule = "============================================================"
const reportSep = "------------------------------------------------------------"

// Report renders suggestions as a plain-text report for the terminal.
func Report(suggestions []domain.Suggestion) string {
	if len(suggestions) == 0 {
		return "No trading suggestions meet the criteria."
	}

	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString("POLYMARKET TRADING SUGGESTIONS\n")
	b.WriteString(reportRule + "\n\n")

	for i, s := range suggestions {
		fmt.Fprintf(&b, "#%d - %s\n", i+1, s.Recommendation)
		fmt.Fprintf(&b, "Event: %s\n", s.EventTitle)
		fmt.Fprintf(&b, "Question: %s\n", s.MarketQuestion)
		fmt.Fprintf(&b, "Current Odds: %.1f%%\n", s.CurrentOdds*100)
		fmt.Fprintf(&b, "Estimated Probability: %.1f%%\n", s.EstimatedProbability*100)
		fmt.Fprintf(&b, "Edge: %.1f%%\n", s.Edge*100)
		fmt.Fprintf(&b, "Confidence: %d/10\n\n", s.Confidence)
		fmt.Fprintf(&b, "Reasoning: %s\n\n", truncate(s.Reasoning, 200))

		b.WriteString("Key Findings:\n")
		for _, f := range capStrings(s.KeyFindings, 3) {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
		b.WriteString("\nRisk Factors:\n")
		for _, r := range capStrings(s.RiskFactors, 3) {
			fmt.Fprintf(&b, "  ! %s\n", r)
		}
		b.WriteString("\n" + reportSep + "\n\n")
	}

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func capStrings(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
