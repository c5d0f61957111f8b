package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

const (
	maxEmbeds         = 5
	embedColorLong    = 0x00FF00
	embedColorShort   = 0xFF0000
	embedTitleBudget  = 100
	embedReasonBudget = 500
)

// DiscordSender delivers notifications via a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL. It uses a
// default HTTP client with a 10-second timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a message to the Discord webhook. The title is rendered in bold
// using Discord markdown syntax.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	content := fmt.Sprintf("**%s**\n%s", title, message)

	payload := map[string]string{
		"content": content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Footer      discordFooter  `json:"footer"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// SendSuggestions posts ranked suggestions as rich embeds, one per
// suggestion, capped at the top five. LONG signals render green, SHORT red.
// An empty slice sends nothing and returns nil.
func (d *DiscordSender) SendSuggestions(ctx context.Context, suggestions []domain.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	if len(suggestions) > maxEmbeds {
		suggestions = suggestions[:maxEmbeds]
	}

	embeds := make([]discordEmbed, 0, len(suggestions))
	for _, s := range suggestions {
		color := embedColorShort
		if s.Recommendation == domain.RecommendationLong {
			color = embedColorLong
		}
		embeds = append(embeds, discordEmbed{
			Title:       fmt.Sprintf("%s: %s", s.Recommendation, clip(s.MarketQuestion, embedTitleBudget)),
			Description: clip(s.Reasoning, embedReasonBudget),
			Color:       color,
			Fields: []discordField{
				{Name: "Current Odds", Value: fmt.Sprintf("%.1f%%", s.CurrentOdds*100), Inline: true},
				{Name: "Est. Probability", Value: fmt.Sprintf("%.1f%%", s.EstimatedProbability*100), Inline: true},
				{Name: "Edge", Value: fmt.Sprintf("%.1f%%", s.Edge*100), Inline: true},
				{Name: "Confidence", Value: fmt.Sprintf("%d/10", s.Confidence), Inline: true},
			},
			Footer: discordFooter{Text: "Event: " + s.EventTitle},
		})
	}

	payload := struct {
		Content string         `json:"content"`
		Embeds  []discordEmbed `json:"embeds"`
	}{
		Content: "**Polymarket Trading Suggestions**",
		Embeds:  embeds,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal embeds: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
