package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides event and market discovery for the research pipeline.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	maxMarkets int
	cache      domain.MarketCache // optional read-through cache, may be nil
	logger     *slog.Logger
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// maxMarkets caps the number of markets kept per event; cache is an optional
// read-through cache for static market metadata and may be nil.
func NewGammaClient(baseURL string, timeout time.Duration, maxMarkets int, cache domain.MarketCache, logger *slog.Logger) *GammaClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GammaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxMarkets: maxMarkets,
		cache:      cache,
		logger:     logger.With(slog.String("component", "gamma")),
	}
}

// FetchEvents returns up to limit events ordered by descending trading
// volume as reported upstream. An event that fails to decode is logged and
// excluded; it never aborts the batch.
func (g *GammaClient) FetchEvents(ctx context.Context, limit int, active, closed bool) ([]domain.Event, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("active", strconv.FormatBool(active))
	params.Set("closed", strconv.FormatBool(closed))
	params.Set("order", "volume")
	params.Set("ascending", "false")

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	// Decode each event independently so one malformed entry cannot take
	// down the whole listing.
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}

	events := make([]domain.Event, 0, len(raw))
	for i, msg := range raw {
		var apiEvent APIEvent
		if err := json.Unmarshal(msg, &apiEvent); err != nil {
			g.logger.WarnContext(ctx, "skipping unparseable event",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		events = append(events, apiEvent.ToDomainEvent(g.maxMarkets))
	}

	g.logger.InfoContext(ctx, "fetched events", slog.Int("count", len(events)))
	return events, nil
}

// FetchMarket returns a single market by its ID, consulting the read-through
// metadata cache first when one is configured.
func (g *GammaClient) FetchMarket(ctx context.Context, id string) (domain.Market, error) {
	if g.cache != nil {
		if m, err := g.cache.Get(ctx, id); err == nil {
			return m, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			g.logger.WarnContext(ctx, "market cache read failed",
				slog.String("market_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	body, err := g.doGet(ctx, "/markets/"+url.PathEscape(id))
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}

	market := apiMarket.ToDomainMarket()
	if g.cache != nil {
		// A closed market is done changing; drop any cached copy rather than
		// refresh it so later lookups go back upstream.
		var cacheErr error
		if market.Active {
			cacheErr = g.cache.Set(ctx, market)
		} else {
			cacheErr = g.cache.Invalidate(ctx, id)
		}
		if cacheErr != nil {
			g.logger.WarnContext(ctx, "market cache write failed",
				slog.String("market_id", id),
				slog.String("error", cacheErr.Error()),
			)
		}
	}
	return market, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrRateLimited, statusCode, bodyStr)
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrUpstream, statusCode, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
