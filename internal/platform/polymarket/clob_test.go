package polymarket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchPriceDecodesStringNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token_id"); got != "tok-1" {
			t.Errorf("token_id = %q", got)
		}
		io.WriteString(w, `{"price": "0.53"}`)
	}))
	defer srv.Close()

	c := NewClobClient(srv.URL, time.Second, 5, nil, testLogger())
	price, err := c.FetchPrice(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("FetchPrice: %v", err)
	}
	if price != 0.53 {
		t.Errorf("price = %g, want 0.53", price)
	}
}

func TestFetchPricesBatchCompleteOnPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("token_id") {
		case "good":
			io.WriteString(w, `{"price": "0.42"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClobClient(srv.URL, time.Second, 2, nil, testLogger())
	prices := c.FetchPricesBatch(context.Background(), []string{"good", "bad", "worse"})

	if len(prices) != 3 {
		t.Fatalf("batch returned %d entries, want 3", len(prices))
	}
	if prices["good"] != 0.42 {
		t.Errorf("good = %g, want 0.42", prices["good"])
	}
	if prices["bad"] != 0 || prices["worse"] != 0 {
		t.Errorf("failed tokens should be 0.0: bad=%g worse=%g", prices["bad"], prices["worse"])
	}
}

// fakePriceCache is a map-backed PriceCache for read-through tests.
type fakePriceCache struct {
	values map[string]float64
	sets   int
}

func (f *fakePriceCache) SetPrice(ctx context.Context, tokenID string, price float64, ts time.Time) error {
	if f.values == nil {
		f.values = map[string]float64{}
	}
	f.values[tokenID] = price
	f.sets++
	return nil
}

func (f *fakePriceCache) GetPrices(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, id := range tokenIDs {
		if p, ok := f.values[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func TestFetchPricesBatchUsesCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		io.WriteString(w, `{"price": "0.8"}`)
	}))
	defer srv.Close()

	cache := &fakePriceCache{values: map[string]float64{"cached": 0.25}}
	c := NewClobClient(srv.URL, time.Second, 2, cache, testLogger())

	prices := c.FetchPricesBatch(context.Background(), []string{"cached", "fresh"})
	if hits != 1 {
		t.Errorf("API hits = %d, want 1 (cached token must not be fetched)", hits)
	}
	if prices["cached"] != 0.25 {
		t.Errorf("cached = %g, want 0.25", prices["cached"])
	}
	if prices["fresh"] != 0.8 {
		t.Errorf("fresh = %g, want 0.8", prices["fresh"])
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}
}
