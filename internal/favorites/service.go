package favorites

import (
	"context"
	"fmt"
	"strings"

	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/localstate"
)

type stateStore interface {
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, dest any) (bool, error)
}

// Service keeps a user's favorited products, persisted per user. Favoriting
// stores the product snapshot so the list renders without a catalog fetch.
type Service interface {
	List(ctx context.Context, userID string) ([]backend.Product, error)
	Add(ctx context.Context, userID string, product backend.Product) ([]backend.Product, error)
	Remove(ctx context.Context, userID, productID string) ([]backend.Product, error)
}

type service struct {
	state stateStore
}

// NewService builds a favorites service over the state store.
func NewService(state stateStore) (Service, error) {
	if state == nil {
		return nil, fmt.Errorf("state store required")
	}
	return &service{state: state}, nil
}

func (s *service) List(ctx context.Context, userID string) ([]backend.Product, error) {
	return s.load(ctx, userID)
}

// Add favorites a product. Favoriting twice is a no-op; the stored snapshot
// is not refreshed.
func (s *service) Add(ctx context.Context, userID string, product backend.Product) ([]backend.Product, error) {
	if strings.TrimSpace(product.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range current {
		if p.ID == product.ID {
			return current, nil
		}
	}
	current = append(current, product)

	if err := s.persist(ctx, userID, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Remove unfavorites a product. Removing an absent product is a no-op.
func (s *service) Remove(ctx context.Context, userID, productID string) ([]backend.Product, error) {
	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := current[:0]
	for _, p := range current {
		if p.ID != productID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(current) {
		return current, nil
	}

	if err := s.persist(ctx, userID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *service) load(ctx context.Context, userID string) ([]backend.Product, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	products := []backend.Product{}
	if _, err := s.state.Get(ctx, localstate.FavoritesKey(userID), &products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load favorites")
	}
	return products, nil
}

func (s *service) persist(ctx context.Context, userID string, products []backend.Product) error {
	if err := s.state.Put(ctx, localstate.FavoritesKey(userID), products); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist favorites")
	}
	return nil
}
