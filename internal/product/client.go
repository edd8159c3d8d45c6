package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/speedsneakers/order-service/internal/order/domain"
	"github.com/speedsneakers/order-service/internal/platform/log"
)

// Snapshot is the catalog's view of a product at the moment of the call.
// Its price is authoritative for order pricing at that moment.
type Snapshot struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	log     *log.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "product-catalog",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= 0.6
		},
		// A 404 is a healthy catalog answer; only transport-level
		// trouble should trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrProductNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				log.Str("circuit", name),
				log.Str("from", from.String()),
				log.Str("to", to.String()),
			)
		},
	})

	return &Client{http: rc, breaker: cb, log: logger}
}

// GetByID fetches one product. Every call goes to the catalog; nothing is
// cached across requests.
func (c *Client) GetByID(ctx context.Context, productID int64) (*Snapshot, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.get(ctx, productID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.log.Warn("catalog circuit open", log.Int("product_id", int(productID)))
		return nil, fmt.Errorf("%w: circuit open", domain.ErrCatalogUnavailable)
	}
	if err != nil {
		return nil, err
	}

	return out.(*Snapshot), nil
}

func (c *Client) get(ctx context.Context, productID int64) (*Snapshot, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/products/%d", productID))
	if err != nil {
		c.log.Warn("catalog request failed", log.Int("product_id", int(productID)), log.Err(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: productId=%d", domain.ErrProductNotFound, productID)
	case resp.StatusCode() != http.StatusOK:
		c.log.Warn("catalog returned error status",
			log.Int("product_id", int(productID)),
			log.Int("status", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode())
	}

	var snap Snapshot
	if err := json.Unmarshal(resp.Body(), &snap); err != nil {
		return nil, fmt.Errorf("%w: productId=%d: %v", domain.ErrCatalogMalformed, productID, err)
	}
	if snap.ID == 0 || snap.Price.IsNegative() {
		return nil, fmt.Errorf("%w: productId=%d", domain.ErrCatalogMalformed, productID)
	}

	return &snap, nil
}
