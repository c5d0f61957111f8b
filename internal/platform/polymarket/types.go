package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Anything it
// cannot parse decodes to 0 rather than failing the record.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(n)
	return nil
}

// flexStrings unmarshals from a JSON array of strings or from a JSON-encoded
// string containing such an array (the Gamma API delivers "outcomes",
// "outcomePrices" and "clobTokenIds" both ways). A value that cannot be
// decoded yields an empty list, never an error: never trust the wire shape.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = nil
		return nil
	}
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		*f = nil
		return nil
	}
	*f = arr
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APITag is a tag entry attached to a Gamma API event.
type APITag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets.
type APIEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Slug        string      `json:"slug"`
	EndDate     string      `json:"endDate"`
	Active      flexBool    `json:"active"`
	Closed      bool        `json:"closed"`
	Markets     []APIMarket `json:"markets"`
	Tags        []APITag    `json:"tags"`
}

// ToDomainEvent converts an APIEvent to a domain.Event, keeping at most
// maxMarkets markets per event.
func (e *APIEvent) ToDomainEvent(maxMarkets int) domain.Event {
	ev := domain.Event{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Slug:        e.Slug,
		EndDate:     e.EndDate,
	}

	for i := range e.Markets {
		if maxMarkets > 0 && len(ev.Markets) >= maxMarkets {
			break
		}
		ev.Markets = append(ev.Markets, e.Markets[i].ToDomainMarket())
	}

	for _, t := range e.Tags {
		label := t.Label
		if label == "" {
			label = t.Slug
		}
		if label != "" {
			ev.Tags = append(ev.Tags, label)
		}
	}

	return ev
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	Description   string      `json:"description"`
	Slug          string      `json:"slug"`
	Outcomes      flexStrings `json:"outcomes"`      // often JSON-encoded: "[\"Yes\",\"No\"]"
	OutcomePrices flexStrings `json:"outcomePrices"` // often JSON-encoded: "[\"0.5\",\"0.5\"]"
	ClobTokenIDs  flexStrings `json:"clobTokenIds"`  // often JSON-encoded: "[\"123\",\"456\"]"
	Volume        flexFloat   `json:"volume"`
	Liquidity     flexFloat   `json:"liquidity"`
	EndDate       string      `json:"endDate"`
	Active        flexBool    `json:"active"`
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market. Outcome
// names, prices, and token IDs arrive as parallel lists; entries missing a
// price default to 0 and entries missing a token ID to "". A price that
// fails to parse also defaults to 0 so one bad field never drops the record.
func (m *APIMarket) ToDomainMarket() domain.Market {
	dm := domain.Market{
		ID:          m.ID,
		Question:    m.Question,
		Description: m.Description,
		Slug:        m.Slug,
		Volume:      float64(m.Volume),
		Liquidity:   float64(m.Liquidity),
		EndDate:     m.EndDate,
		Active:      bool(m.Active),
	}

	for i, name := range m.Outcomes {
		out := domain.Outcome{Name: name}
		if i < len(m.OutcomePrices) {
			if p, err := strconv.ParseFloat(m.OutcomePrices[i], 64); err == nil {
				out.Price = domain.ClampProbability(p)
			}
		}
		if i < len(m.ClobTokenIDs) {
			out.TokenID = m.ClobTokenIDs[i]
		}
		dm.Outcomes = append(dm.Outcomes, out)
	}

	return dm
}
