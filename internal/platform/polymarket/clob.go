package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// ClobClient is the REST client for the Polymarket CLOB API. The research
// pipeline only consumes its public price endpoint.
type ClobClient struct {
	baseURL     string
	httpClient  *http.Client
	concurrency int64
	prices      domain.PriceCache // optional, nil disables caching
	logger      *slog.Logger
}

// NewClobClient creates a new CLOB price client. concurrency bounds the
// price-fetch fan-out in FetchPricesBatch. prices may be nil, in which case
// every lookup goes to the API.
func NewClobClient(baseURL string, timeout time.Duration, concurrency int, prices domain.PriceCache, logger *slog.Logger) *ClobClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if concurrency < 1 {
		concurrency = 5
	}
	return &ClobClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		concurrency: int64(concurrency),
		prices:      prices,
		logger:      logger.With(slog.String("component", "clob")),
	}
}

// FetchPrice returns the current price for a single token.
func (c *ClobClient) FetchPrice(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/price?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get price %s: %w", tokenID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: read response: %w", err)
	}
	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return 0, fmt.Errorf("polymarket/clob: get price %s: %w", tokenID, err)
	}

	// The price comes back as {"price": "0.53"} with the number as a string.
	var payload struct {
		Price flexFloat `json:"price"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode price %s: %w", tokenID, err)
	}
	return float64(payload.Price), nil
}

// FetchPricesBatch fetches current prices for several tokens concurrently,
// bounded by the client's concurrency limit. Cached prices are used where
// available. A failure for any single token is logged and recorded as 0.0;
// the batch itself never fails. The returned map has exactly one entry per
// requested token ID.
func (c *ClobClient) FetchPricesBatch(ctx context.Context, tokenIDs []string) map[string]float64 {
	prices := make(map[string]float64, len(tokenIDs))

	missing := tokenIDs
	if c.prices != nil {
		cached, err := c.prices.GetPrices(ctx, tokenIDs)
		if err != nil {
			c.logger.WarnContext(ctx, "price cache read failed", slog.String("error", err.Error()))
		} else if len(cached) > 0 {
			missing = missing[:0:0]
			for _, id := range tokenIDs {
				if p, ok := cached[id]; ok {
					prices[id] = p
				} else {
					missing = append(missing, id)
				}
			}
		}
	}

	sem := semaphore.NewWeighted(c.concurrency)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, tokenID := range missing {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			prices[tokenID] = 0
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)

			price, err := c.FetchPrice(ctx, id)
			if err != nil {
				c.logger.WarnContext(ctx, "price fetch failed",
					slog.String("token_id", id),
					slog.String("error", err.Error()),
				)
				price = 0
			} else if c.prices != nil {
				if cerr := c.prices.SetPrice(ctx, id, price, time.Now().UTC()); cerr != nil {
					c.logger.WarnContext(ctx, "price cache write failed",
						slog.String("token_id", id),
						slog.String("error", cerr.Error()),
					)
				}
			}

			mu.Lock()
			prices[id] = price
			mu.Unlock()
		}(tokenID)
	}

	wg.Wait()

	c.logger.DebugContext(ctx, "fetched price batch",
		slog.Int("requested", len(tokenIDs)),
		slog.Int("returned", len(prices)),
	)
	return prices
}
