package addresses

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/types"
)

type addressClient interface {
	ListAddresses(ctx context.Context, token string) ([]types.Address, error)
	CreateAddress(ctx context.Context, token string, address types.Address) (*types.Address, error)
	UpdateAddress(ctx context.Context, token, addressID string, address types.Address) (*types.Address, error)
	DeleteAddress(ctx context.Context, token, addressID string) error
	SetDefaultAddress(ctx context.Context, token, addressID string) error
}

// Service proxies the address book with boundary validation.
type Service interface {
	List(ctx context.Context, token string) ([]types.Address, error)
	Create(ctx context.Context, token string, address types.Address) (*types.Address, error)
	Update(ctx context.Context, token, addressID string, address types.Address) (*types.Address, error)
	Delete(ctx context.Context, token, addressID string) error
	SetDefault(ctx context.Context, token, addressID string) error
}

type service struct {
	client addressClient
}

// NewService wires the address proxy.
func NewService(client addressClient) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("address client required")
	}
	return &service{client: client}, nil
}

func (s *service) List(ctx context.Context, token string) ([]types.Address, error) {
	return s.client.ListAddresses(ctx, token)
}

func (s *service) Create(ctx context.Context, token string, address types.Address) (*types.Address, error) {
	if !address.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete")
	}
	return s.client.CreateAddress(ctx, token, address)
}

func (s *service) Update(ctx context.Context, token, addressID string, address types.Address) (*types.Address, error) {
	if strings.TrimSpace(addressID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if !address.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete")
	}
	return s.client.UpdateAddress(ctx, token, addressID, address)
}

func (s *service) Delete(ctx context.Context, token, addressID string) error {
	if strings.TrimSpace(addressID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	return s.client.DeleteAddress(ctx, token, addressID)
}

// SetDefault promotes one address; the backend demotes the previous default.
func (s *service) SetDefault(ctx context.Context, token, addressID string) error {
	if strings.TrimSpace(addressID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	return s.client.SetDefaultAddress(ctx, token, addressID)
}
