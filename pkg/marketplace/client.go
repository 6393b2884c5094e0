// Package marketplace provides a client for the supplier marketplace API.
// It lists purchase orders and enriches them with cost and shipment data.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/resale-group/backoffice-cli/internal/model"
	"github.com/resale-group/backoffice-cli/internal/resilience"
)

// Client defines the marketplace operations the matcher needs.
type Client interface {
	// Purchases returns all purchase orders placed at or after since,
	// oldest first.
	Purchases(ctx context.Context, since time.Time) ([]model.PurchaseCandidate, error)

	// Enrich fills in cost, tracking, and checkout type for each
	// candidate. Input order is preserved; the input slice is not mutated.
	Enrich(ctx context.Context, candidates []model.PurchaseCandidate) ([]model.PurchaseCandidate, error)
}

// Option configures the marketplace client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit overrides the default request rate (4 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

// WithEnrichConcurrency sets the number of parallel enrichment requests.
func WithEnrichConcurrency(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.enrichConcurrency = n
		}
	}
}

type httpClient struct {
	apiKey            string
	baseURL           string
	http              *http.Client
	limiter           *rate.Limiter
	retry             resilience.RetryConfig
	enrichConcurrency int
}

// NewClient creates a marketplace client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://marketplace.example.com/v1",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:           rate.NewLimiter(4, 4),
		retry:             resilience.DefaultRetryConfig(),
		enrichConcurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire types for the purchases endpoints.
type purchasesResponse struct {
	Purchases  []purchase `json:"purchases"`
	NextCursor string     `json:"next_cursor"`
	HasMore    bool       `json:"has_more"`
}

type purchase struct {
	ChainID     string    `json:"chain_id"`
	ID          string    `json:"id"`
	OrderNumber string    `json:"order_number"`
	PurchasedAt time.Time `json:"purchased_at"`
	Title       string    `json:"title"`
	SKU         string    `json:"sku"`
	Size        string    `json:"size"`
	Status      string    `json:"status"`
}

type purchaseDetail struct {
	TotalCost      *float64 `json:"total_cost"`
	TrackingNumber string   `json:"tracking_number"`
	CheckoutType   string   `json:"checkout_type"`
}

func (c *httpClient) Purchases(ctx context.Context, since time.Time) ([]model.PurchaseCandidate, error) {
	var candidates []model.PurchaseCandidate

	cursor := ""
	for {
		q := url.Values{}
		q.Set("purchased_at_min", since.UTC().Format(time.RFC3339))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var page purchasesResponse
		err := c.getJSON(ctx, fmt.Sprintf("%s/purchases?%s", c.baseURL, q.Encode()), "purchases", &page)
		if err != nil {
			return nil, err
		}

		for _, p := range page.Purchases {
			candidates = append(candidates, model.PurchaseCandidate{
				ChainID:     p.ChainID,
				OrderID:     p.ID,
				OrderNumber: p.OrderNumber,
				PurchasedAt: p.PurchasedAt.UTC(),
				Title:       p.Title,
				SKUKey:      p.SKU,
				Size:        p.Size,
				Status:      model.PurchaseStatus(p.Status),
			})
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	return candidates, nil
}

func (c *httpClient) Enrich(ctx context.Context, candidates []model.PurchaseCandidate) ([]model.PurchaseCandidate, error) {
	enriched := make([]model.PurchaseCandidate, len(candidates))
	copy(enriched, candidates)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.enrichConcurrency)

	for i := range enriched {
		g.Go(func() error {
			var detail purchaseDetail
			u := fmt.Sprintf("%s/purchases/%s", c.baseURL, url.PathEscape(enriched[i].OrderID))
			if err := c.getJSON(ctx, u, "purchase detail", &detail); err != nil {
				return eris.Wrapf(err, "marketplace: enrich %s", enriched[i].OrderNumber)
			}

			enriched[i].TotalCost = detail.TotalCost
			enriched[i].TrackingNumber = detail.TrackingNumber
			enriched[i].CheckoutType = detail.CheckoutType
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return enriched, nil
}

func (c *httpClient) getJSON(ctx context.Context, reqURL, operation string, out any) error {
	retry := c.retry
	retry.OnRetry = resilience.RetryLogger("marketplace", operation)

	body, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "marketplace: rate limit")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "marketplace: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "marketplace: request")
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "marketplace: read response")
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("marketplace: status %d: %s", resp.StatusCode, string(body)),
				resp.StatusCode,
			)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("marketplace: unexpected status %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	})
	if err != nil {
		return err
	}

	return eris.Wrap(json.Unmarshal(body, out), "marketplace: unmarshal response")
}
