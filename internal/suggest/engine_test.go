package suggest

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func candidate(marketID string, rec domain.Recommendation, edge float64, confidence int, volume float64) Candidate {
	return Candidate{
		Event:  domain.Event{ID: "e-" + marketID, Title: "Event " + marketID},
		Market: domain.Market{ID: marketID, Question: "Q " + marketID, Volume: volume},
		Assessment: domain.Assessment{
			MarketID:       marketID,
			Edge:           edge,
			Recommendation: rec,
			Confidence:     confidence,
		},
	}
}

func TestGenerateFilters(t *testing.T) {
	e := NewEngine(5, 0.10, 1000, testLogger())

	candidates := []Candidate{
		candidate("keep", domain.RecommendationLong, 0.20, 7, 5000),
		candidate("avoid", domain.RecommendationAvoid, 0.30, 9, 5000),
		candidate("low-edge", domain.RecommendationLong, 0.05, 9, 5000),
		candidate("low-conf", domain.RecommendationShort, 0.20, 3, 5000),
		candidate("thin", domain.RecommendationLong, 0.20, 7, 500),
	}

	got := e.Generate(candidates)
	if len(got) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(got))
	}
	if got[0].MarketID != "keep" {
		t.Errorf("kept %q", got[0].MarketID)
	}
}

func TestGenerateBoundariesAreInclusive(t *testing.T) {
	e := NewEngine(5, 0.10, 1000, testLogger())

	candidates := []Candidate{
		candidate("exact", domain.RecommendationLong, 0.10, 5, 1000),
	}
	got := e.Generate(candidates)
	if len(got) != 1 {
		t.Errorf("candidate exactly at all thresholds should pass, got %d", len(got))
	}

	below := []Candidate{
		candidate("under", domain.RecommendationLong, 0.0999, 5, 1000),
	}
	if got := e.Generate(below); len(got) != 0 {
		t.Errorf("edge just under the minimum should be filtered, got %d", len(got))
	}
}

func TestGenerateRanking(t *testing.T) {
	e := NewEngine(1, 0.0, 0, testLogger())

	candidates := []Candidate{
		candidate("c", domain.RecommendationLong, 0.15, 9, 100),
		candidate("a", domain.RecommendationLong, 0.30, 5, 100),
		candidate("b", domain.RecommendationShort, 0.30, 8, 100),
		// Full tie with b except input order.
		candidate("d", domain.RecommendationLong, 0.15, 9, 100),
	}

	got := e.Generate(candidates)
	order := make([]string, len(got))
	for i, s := range got {
		order[i] = s.MarketID
	}

	// edge desc, then confidence desc, then input order.
	want := []string{"b", "a", "c", "d"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestTop(t *testing.T) {
	suggestions := []domain.Suggestion{
		{MarketID: "1", Recommendation: domain.RecommendationLong},
		{MarketID: "2", Recommendation: domain.RecommendationShort},
		{MarketID: "3", Recommendation: domain.RecommendationLong},
	}

	if got := Top(suggestions, 2, ""); len(got) != 2 {
		t.Errorf("Top(2) = %d", len(got))
	}
	longs := Top(suggestions, 0, domain.RecommendationLong)
	if len(longs) != 2 || longs[0].MarketID != "1" || longs[1].MarketID != "3" {
		t.Errorf("Top(LONG) = %+v", longs)
	}
	if got := Top(suggestions, 10, ""); len(got) != 3 {
		t.Errorf("Top(10) = %d", len(got))
	}
}

func TestReport(t *testing.T) {
	if got := Report(nil); !strings.Contains(got, "No trading suggestions") {
		t.Errorf("empty report = %q", got)
	}

	s := domain.Suggestion{
		EventTitle:           "Election",
		MarketQuestion:       "Will X win?",
		CurrentOdds:          0.30,
		EstimatedProbability: 0.55,
		Edge:                 0.25,
		Recommendation:       domain.RecommendationLong,
		Confidence:           7,
		Reasoning:            "polls moved",
		KeyFindings:          []string{"f1", "f2", "f3", "f4"},
		RiskFactors:          []string{"r1"},
	}
	got := Report([]domain.Suggestion{s})

	for _, want := range []string{
		"#1 - LONG",
		"Event: Election",
		"Current Odds: 30.0%",
		"Estimated Probability: 55.0%",
		"Edge: 25.0%",
		"Confidence: 7/10",
		"f1",
		"r1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q\n%s", want, got)
		}
	}
	// Findings render at most three.
	if strings.Contains(got, "f4") {
		t.Error("report should cap findings at 3")
	}
}
