package domain

// Outcome is a single tradable outcome within a market. Price is the
// market-implied probability of the outcome, in [0,1]. Immutable once parsed.
type Outcome struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	TokenID string  `json:"token_id"`
}

// Market represents a Polymarket prediction market. Active and the price
// fields may be stale between catalog refreshes.
type Market struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	Description string    `json:"description"`
	Outcomes    []Outcome `json:"outcomes"`
	Volume      float64   `json:"volume"`
	Liquidity   float64   `json:"liquidity"`
	EndDate     string    `json:"end_date"`
	Slug        string    `json:"slug"`
	Active      bool      `json:"active"`
}

// ImpliedProbability returns the price of the market's first outcome,
// clamped to [0,1]. Markets with no outcomes default to 0.5 (even odds).
func (m *Market) ImpliedProbability() float64 {
	if len(m.Outcomes) == 0 {
		return 0.5
	}
	return ClampProbability(m.Outcomes[0].Price)
}

// Event is the top-level unit fetched from the catalog. It owns its markets;
// every market belongs to exactly one event.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Slug        string   `json:"slug"`
	EndDate     string   `json:"end_date"`
	Markets     []Market `json:"markets"`
	Tags        []string `json:"tags"`
}

// ClampProbability clamps p to the [0,1] range.
func ClampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
