package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
)

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/store/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) ListEvents(ctx context.Context, q models.EventQuery) ([]models.Event, error) {
	query := url.Values{}
	if q.Active != nil {
		query.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		query.Set("offset", strconv.Itoa(q.Offset))
	}

	var events []models.Event
	if err := c.do(ctx, http.MethodGet, "/events", query, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Ping checks that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
