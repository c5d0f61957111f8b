package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSender records plain-text deliveries.
type fakeSender struct {
	name     string
	err      error
	titles   []string
	messages []string
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

// fakeEmbedSender additionally accepts structured suggestions.
type fakeEmbedSender struct {
	fakeSender
	suggestions [][]domain.Suggestion
}

func (f *fakeEmbedSender) SendSuggestions(_ context.Context, s []domain.Suggestion) error {
	f.suggestions = append(f.suggestions, s)
	return f.err
}

func sampleSuggestions(n int) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Suggestion{
			EventTitle:           "Election Night",
			MarketQuestion:       "Will turnout exceed 60%?",
			Recommendation:       domain.RecommendationLong,
			CurrentOdds:          0.40,
			EstimatedProbability: 0.55,
			Edge:                 0.15,
			Confidence:           7,
			Reasoning:            "Polling averages show a durable lead.",
		})
	}
	return out
}

func TestNotifyEventFilter(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := NewNotifier([]Sender{s}, []string{"error"}, testLogger())

	if err := n.Notify(context.Background(), "suggestions", "t", "m"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.titles) != 0 {
		t.Errorf("filtered event reached sender: %v", s.titles)
	}

	if err := n.Notify(context.Background(), "error", "boom", "details"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.titles) != 1 || s.titles[0] != "boom" {
		t.Errorf("titles = %v", s.titles)
	}
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	s := &fakeSender{name: "test"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	if err := n.Notify(context.Background(), "anything", "t", "m"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.titles) != 1 {
		t.Errorf("titles = %v", s.titles)
	}
}

func TestNotifyCollectsSenderErrors(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("webhook down")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), "error", "t", "m")
	if err == nil {
		t.Fatal("expected combined error")
	}
	if !strings.Contains(err.Error(), "bad: webhook down") {
		t.Errorf("error = %v", err)
	}
	// Failure of one sender must not block the other.
	if len(good.titles) != 1 {
		t.Errorf("good sender not reached: %v", good.titles)
	}
}

func TestNotifySuggestionsPrefersStructuredSender(t *testing.T) {
	embed := &fakeEmbedSender{fakeSender: fakeSender{name: "discord"}}
	plain := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{embed, plain}, []string{"suggestions"}, testLogger())

	suggestions := sampleSuggestions(2)
	if err := n.NotifySuggestions(context.Background(), suggestions, "report body"); err != nil {
		t.Fatalf("NotifySuggestions: %v", err)
	}

	if len(embed.suggestions) != 1 || len(embed.suggestions[0]) != 2 {
		t.Errorf("embed sender got %v", embed.suggestions)
	}
	if len(embed.titles) != 0 {
		t.Errorf("embed sender should not get plain text: %v", embed.titles)
	}
	if len(plain.titles) != 1 || plain.titles[0] != "Polymarket Trading Suggestions (2)" {
		t.Errorf("plain titles = %v", plain.titles)
	}
	if plain.messages[0] != "report body" {
		t.Errorf("plain message = %q", plain.messages[0])
	}
}

func TestNotifySuggestionsEmpty(t *testing.T) {
	s := &fakeEmbedSender{fakeSender: fakeSender{name: "discord"}}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	if err := n.NotifySuggestions(context.Background(), nil, ""); err != nil {
		t.Fatalf("NotifySuggestions: %v", err)
	}
	if len(s.suggestions) != 0 {
		t.Errorf("empty run should not notify: %v", s.suggestions)
	}
}

func TestNotifySuggestionsFiltered(t *testing.T) {
	s := &fakeEmbedSender{fakeSender: fakeSender{name: "discord"}}
	n := NewNotifier([]Sender{s}, []string{"error"}, testLogger())

	if err := n.NotifySuggestions(context.Background(), sampleSuggestions(1), "r"); err != nil {
		t.Fatalf("NotifySuggestions: %v", err)
	}
	if len(s.suggestions) != 0 {
		t.Errorf("filtered suggestions reached sender")
	}
}

func TestDiscordSendSuggestionsPayload(t *testing.T) {
	var captured struct {
		Content string `json:"content"`
		Embeds  []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Color       int    `json:"color"`
			Fields      []struct {
				Name   string `json:"name"`
				Value  string `json:"value"`
				Inline bool   `json:"inline"`
			} `json:"fields"`
			Footer struct {
				Text string `json:"text"`
			} `json:"footer"`
		} `json:"embeds"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	suggestions := sampleSuggestions(7)
	suggestions[1].Recommendation = domain.RecommendationShort

	d := NewDiscordSender(srv.URL)
	if err := d.SendSuggestions(context.Background(), suggestions); err != nil {
		t.Fatalf("SendSuggestions: %v", err)
	}

	if captured.Content != "**Polymarket Trading Suggestions**" {
		t.Errorf("content = %q", captured.Content)
	}
	if len(captured.Embeds) != maxEmbeds {
		t.Fatalf("embeds = %d, want %d", len(captured.Embeds), maxEmbeds)
	}
	first := captured.Embeds[0]
	if first.Color != embedColorLong {
		t.Errorf("long color = %#x", first.Color)
	}
	if captured.Embeds[1].Color != embedColorShort {
		t.Errorf("short color = %#x", captured.Embeds[1].Color)
	}
	if !strings.HasPrefix(first.Title, "LONG: ") {
		t.Errorf("title = %q", first.Title)
	}
	if first.Footer.Text != "Event: Election Night" {
		t.Errorf("footer = %q", first.Footer.Text)
	}
	wantFields := map[string]string{
		"Current Odds":     "40.0%",
		"Est. Probability": "55.0%",
		"Edge":             "15.0%",
		"Confidence":       "7/10",
	}
	if len(first.Fields) != len(wantFields) {
		t.Fatalf("fields = %v", first.Fields)
	}
	for _, f := range first.Fields {
		if wantFields[f.Name] != f.Value {
			t.Errorf("field %s = %q, want %q", f.Name, f.Value, wantFields[f.Name])
		}
	}
}

func TestDiscordSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	err := d.Send(context.Background(), "title", "body")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("err = %v", err)
	}
}
