package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
)

type catalogClient interface {
	ListCategories(ctx context.Context) ([]backend.Category, error)
	ListSubcategories(ctx context.Context) ([]backend.Subcategory, error)
	ListProducts(ctx context.Context) ([]backend.Product, error)
	GetProduct(ctx context.Context, productID string) (*backend.Product, error)
}

// Service exposes the browse surface of the backend catalog.
type Service interface {
	Categories(ctx context.Context) ([]backend.Category, error)
	Subcategories(ctx context.Context) ([]backend.Subcategory, error)
	Products(ctx context.Context) ([]backend.Product, error)
	Product(ctx context.Context, productID string) (*backend.Product, error)
}

type service struct {
	client catalogClient
}

// NewService wires the catalog proxy.
func NewService(client catalogClient) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	return &service{client: client}, nil
}

func (s *service) Categories(ctx context.Context) ([]backend.Category, error) {
	return s.client.ListCategories(ctx)
}

func (s *service) Subcategories(ctx context.Context) ([]backend.Subcategory, error) {
	return s.client.ListSubcategories(ctx)
}

func (s *service) Products(ctx context.Context) ([]backend.Product, error) {
	return s.client.ListProducts(ctx)
}

func (s *service) Product(ctx context.Context, productID string) (*backend.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.client.GetProduct(ctx, productID)
}
