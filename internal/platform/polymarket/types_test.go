package polymarket

import (
	"encoding/json"
	"testing"
)

func TestFlexStringsDecodesBothShapes(t *testing.T) {
	var direct struct {
		Outcomes flexStrings `json:"outcomes"`
	}
	if err := json.Unmarshal([]byte(`{"outcomes": ["Yes", "No"]}`), &direct); err != nil {
		t.Fatalf("direct array: %v", err)
	}
	if len(direct.Outcomes) != 2 || direct.Outcomes[0] != "Yes" {
		t.Errorf("direct array = %v", direct.Outcomes)
	}

	var encoded struct {
		Outcomes flexStrings `json:"outcomes"`
	}
	if err := json.Unmarshal([]byte(`{"outcomes": "[\"Yes\", \"No\"]"}`), &encoded); err != nil {
		t.Fatalf("encoded array: %v", err)
	}
	if len(encoded.Outcomes) != 2 || encoded.Outcomes[1] != "No" {
		t.Errorf("encoded array = %v", encoded.Outcomes)
	}
}

func TestFlexStringsMalformedYieldsEmpty(t *testing.T) {
	var v struct {
		Outcomes flexStrings `json:"outcomes"`
	}
	if err := json.Unmarshal([]byte(`{"outcomes": "not json"}`), &v); err != nil {
		t.Fatalf("malformed value should not error: %v", err)
	}
	if len(v.Outcomes) != 0 {
		t.Errorf("Outcomes = %v, want empty", v.Outcomes)
	}
}

func TestFlexFloatDecodesNumberAndString(t *testing.T) {
	var v struct {
		Volume flexFloat `json:"volume"`
	}
	if err := json.Unmarshal([]byte(`{"volume": 12000.5}`), &v); err != nil {
		t.Fatalf("number: %v", err)
	}
	if float64(v.Volume) != 12000.5 {
		t.Errorf("Volume = %g, want 12000.5", float64(v.Volume))
	}

	if err := json.Unmarshal([]byte(`{"volume": "987.25"}`), &v); err != nil {
		t.Fatalf("string: %v", err)
	}
	if float64(v.Volume) != 987.25 {
		t.Errorf("Volume = %g, want 987.25", float64(v.Volume))
	}

	if err := json.Unmarshal([]byte(`{"volume": "n/a"}`), &v); err != nil {
		t.Fatalf("unparseable string should not error: %v", err)
	}
	if float64(v.Volume) != 0 {
		t.Errorf("Volume = %g, want 0", float64(v.Volume))
	}
}

func TestFlexBoolDecodesBothShapes(t *testing.T) {
	var v struct {
		Active flexBool `json:"active"`
	}
	for _, raw := range []string{`{"active": true}`, `{"active": "true"}`, `{"active": "1"}`} {
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if !bool(v.Active) {
			t.Errorf("%s decoded to false", raw)
		}
	}
}

func TestToDomainMarketPairsParallelLists(t *testing.T) {
	m := APIMarket{
		ID:            "m1",
		Question:      "Will it rain?",
		Outcomes:      flexStrings{"Yes", "No"},
		OutcomePrices: flexStrings{"0.7", "0.3"},
		ClobTokenIDs:  flexStrings{"tok-yes", "tok-no"},
		Volume:        5000,
		Active:        true,
	}

	dm := m.ToDomainMarket()
	if len(dm.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(dm.Outcomes))
	}
	if dm.Outcomes[0].Name != "Yes" || dm.Outcomes[0].Price != 0.7 || dm.Outcomes[0].TokenID != "tok-yes" {
		t.Errorf("first outcome = %+v", dm.Outcomes[0])
	}
	if dm.Outcomes[1].Price != 0.3 {
		t.Errorf("second outcome price = %g", dm.Outcomes[1].Price)
	}
	if dm.Volume != 5000 || !dm.Active {
		t.Errorf("scalar fields not carried: %+v", dm)
	}
}

func TestToDomainMarketShortPriceList(t *testing.T) {
	m := APIMarket{
		ID:            "m1",
		Outcomes:      flexStrings{"Yes", "No"},
		OutcomePrices: flexStrings{"0.4"},
	}

	dm := m.ToDomainMarket()
	if dm.Outcomes[0].Price != 0.4 {
		t.Errorf("first price = %g, want 0.4", dm.Outcomes[0].Price)
	}
	if dm.Outcomes[1].Price != 0 {
		t.Errorf("missing price should default to 0, got %g", dm.Outcomes[1].Price)
	}
	if dm.Outcomes[1].TokenID != "" {
		t.Errorf("missing token should default to empty, got %q", dm.Outcomes[1].TokenID)
	}
}

func TestToDomainEventCapsMarketsAndFlattensTags(t *testing.T) {
	e := APIEvent{
		ID:    "e1",
		Title: "Election night",
		Markets: []APIMarket{
			{ID: "m1"}, {ID: "m2"}, {ID: "m3"}, {ID: "m4"},
		},
		Tags: []APITag{
			{Label: "Politics"},
			{Slug: "us-election"},
			{},
		},
	}

	ev := e.ToDomainEvent(3)
	if len(ev.Markets) != 3 {
		t.Errorf("markets = %d, want 3", len(ev.Markets))
	}
	if len(ev.Tags) != 2 || ev.Tags[0] != "Politics" || ev.Tags[1] != "us-election" {
		t.Errorf("tags = %v", ev.Tags)
	}
}
