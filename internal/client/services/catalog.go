package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
)

var ErrProductNotFound = api.Precondition("Product not found.")

// DefaultEventLimit is used when a query asks for no explicit page size.
const DefaultEventLimit = 20

type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListEvents(ctx context.Context, q models.EventQuery) ([]models.Event, error)
}

// CatalogService lists store products and community events.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	FindProduct(ctx context.Context, id string) (models.Product, error)
	ListEvents(ctx context.Context, q models.EventQuery) ([]models.Event, error)
}

type catalogService struct {
	api CatalogAPI
}

func NewCatalogService(catalogAPI CatalogAPI) CatalogService {
	return &catalogService{api: catalogAPI}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products error: %w", err)
	}
	return products, nil
}

// FindProduct looks id up in the product list.
func (s *catalogService) FindProduct(ctx context.Context, id string) (models.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return models.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, fmt.Errorf("product %q: %w", id, ErrProductNotFound)
}

func (s *catalogService) ListEvents(ctx context.Context, q models.EventQuery) ([]models.Event, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultEventLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	events, err := s.api.ListEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list events error: %w", err)
	}
	return events, nil
}
