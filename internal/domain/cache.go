package domain

import (
	"context"
	"time"
)

// MarketCache provides read-through access to static per-market metadata.
// Implementations must return ErrNotFound on a miss.
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	Get(ctx context.Context, id string) (Market, error)
	Invalidate(ctx context.Context, id string) error
}

// PriceCache stores the most recently observed token prices. Entries must
// expire on their own: there is no feed refreshing them between runs, so a
// lookup after the TTL has to miss and force a live fetch.
type PriceCache interface {
	SetPrice(ctx context.Context, tokenID string, price float64, ts time.Time) error
	GetPrices(ctx context.Context, tokenIDs []string) (map[string]float64, error)
}
