// Package storefront provides a client for the storefront orders API and
// flattens order payloads into sale line items.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/resale-group/backoffice-cli/internal/model"
	"github.com/resale-group/backoffice-cli/internal/resilience"
)

// Client defines the storefront operations the matcher needs.
type Client interface {
	// Orders returns all sale line items created at or after since,
	// flattened to one item per sold unit, oldest first.
	Orders(ctx context.Context, since time.Time) ([]model.SaleLineItem, error)
}

// Option configures the storefront client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit overrides the default request rate (2 req/s).
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

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a storefront client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://storefront.example.com/admin/api",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(2, 2),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire types for the orders endpoint.
type ordersResponse struct {
	Orders     []order `json:"orders"`
	NextCursor string  `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

type order struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	Currency  string     `json:"currency"`
	LineItems []lineItem `json:"line_items"`
}

type lineItem struct {
	Title    string  `json:"title"`
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Variant  struct {
		Size string `json:"size"`
	} `json:"variant"`
}

func (c *httpClient) Orders(ctx context.Context, since time.Time) ([]model.SaleLineItem, error) {
	var items []model.SaleLineItem

	cursor := ""
	for {
		page, err := c.ordersPage(ctx, since, cursor)
		if err != nil {
			return nil, err
		}

		for _, o := range page.Orders {
			items = append(items, flatten(o)...)
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	return items, nil
}

func (c *httpClient) ordersPage(ctx context.Context, since time.Time, cursor string) (*ordersResponse, error) {
	q := url.Values{}
	q.Set("created_at_min", since.UTC().Format(time.RFC3339))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	reqURL := fmt.Sprintf("%s/orders?%s", c.baseURL, q.Encode())

	retry := c.retry
	retry.OnRetry = resilience.RetryLogger("storefront", "orders")
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*ordersResponse, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "storefront: rate limit")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "storefront: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "storefront: request")
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "storefront: read response")
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("storefront: status %d: %s", resp.StatusCode, string(body)),
				resp.StatusCode,
			)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("storefront: unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var page ordersResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, eris.Wrap(err, "storefront: unmarshal orders")
		}
		return &page, nil
	})
}

// flatten expands an order to one SaleLineItem per sold unit. A line item
// with quantity 3 yields three items sharing the order id.
func flatten(o order) []model.SaleLineItem {
	var items []model.SaleLineItem
	for _, li := range o.LineItems {
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		for i := 0; i < qty; i++ {
			items = append(items, model.SaleLineItem{
				OrderID:    o.ID,
				OrderName:  o.Name,
				CreatedAt:  o.CreatedAt.UTC(),
				Title:      li.Title,
				SKU:        li.SKU,
				Size:       li.Variant.Size,
				Currency:   o.Currency,
				TotalPrice: li.Price,
			})
		}
	}
	return items
}
