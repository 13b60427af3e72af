package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/bucketcart/storefront-gateway/internal/pricing"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/localstate"
	"github.com/bucketcart/storefront-gateway/pkg/types"
)

// Snapshot is the persisted cart blob for one user.
type Snapshot struct {
	Items           []backend.OrderItem `json:"cartItems"`
	ShippingAddress *types.Address      `json:"shippingAddress,omitempty"`
	PaymentMethod   string              `json:"paymentMethod,omitempty"`
}

// View is a snapshot priced for display.
type View struct {
	Items           []backend.OrderItem `json:"cartItems"`
	ShippingAddress *types.Address      `json:"shippingAddress,omitempty"`
	PaymentMethod   string              `json:"paymentMethod,omitempty"`
	Quote           pricing.Quote       `json:"quote"`
}

type stateStore interface {
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, dest any) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Service exposes cart persistence operations. Every mutation writes through
// to the state store before returning, so a crash never loses a cart edit.
type Service interface {
	Get(ctx context.Context, userID string) (*View, error)
	AddItem(ctx context.Context, userID string, item backend.OrderItem) (*View, error)
	SetQuantity(ctx context.Context, userID, productID string, qty int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID string) (*View, error)
	SetShippingAddress(ctx context.Context, userID string, addr types.Address) (*View, error)
	SetPaymentMethod(ctx context.Context, userID, method string) (*View, error)
	Clear(ctx context.Context, userID string) error
}

type service struct {
	state stateStore
	calc  *pricing.Calculator
}

// NewService builds a cart service backed by the provided stack.
func NewService(state stateStore, calc *pricing.Calculator) (Service, error) {
	if state == nil {
		return nil, fmt.Errorf("state store required")
	}
	if calc == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	return &service{state: state, calc: calc}, nil
}

func (s *service) Get(ctx context.Context, userID string) (*View, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(snap), nil
}

// AddItem inserts the line, replacing any existing line for the same product.
// The incoming quantity wins outright; it is not summed with the old line.
func (s *service) AddItem(ctx context.Context, userID string, item backend.OrderItem) (*View, error) {
	if strings.TrimSpace(item.Product) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range snap.Items {
		if snap.Items[i].Product == item.Product {
			snap.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		snap.Items = append(snap.Items, item)
	}

	if err := s.persist(ctx, userID, snap); err != nil {
		return nil, err
	}
	return s.view(snap), nil
}

// SetQuantity updates a line's quantity. Zero or negative removes the line.
func (s *service) SetQuantity(ctx context.Context, userID, productID string, qty int) (*View, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range snap.Items {
		if snap.Items[i].Product == productID {
			snap.Items[i].Qty = qty
			if err := s.persist(ctx, userID, snap); err != nil {
				return nil, err
			}
			return s.view(snap), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
}

// RemoveItem drops a line. Removing an absent product is a no-op.
func (s *service) RemoveItem(ctx context.Context, userID, productID string) (*View, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := snap.Items[:0]
	for _, it := range snap.Items {
		if it.Product != productID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(snap.Items) {
		return s.view(snap), nil
	}
	snap.Items = kept

	if err := s.persist(ctx, userID, snap); err != nil {
		return nil, err
	}
	return s.view(snap), nil
}

func (s *service) SetShippingAddress(ctx context.Context, userID string, addr types.Address) (*View, error) {
	if !addr.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}

	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap.ShippingAddress = &addr

	if err := s.persist(ctx, userID, snap); err != nil {
		return nil, err
	}
	return s.view(snap), nil
}

func (s *service) SetPaymentMethod(ctx context.Context, userID, method string) (*View, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap.PaymentMethod = method

	if err := s.persist(ctx, userID, snap); err != nil {
		return nil, err
	}
	// Mirror under the dedicated key so checkout can read it without the cart.
	if err := s.state.Put(ctx, localstate.PaymentMethodKey(userID), method); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist payment method")
	}
	return s.view(snap), nil
}

// Clear empties the cart lines after a placed order. The shipping address and
// payment method survive so the next checkout starts pre-filled.
func (s *service) Clear(ctx context.Context, userID string) error {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	snap.Items = nil
	return s.persist(ctx, userID, snap)
}

func (s *service) load(ctx context.Context, userID string) (*Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	snap := &Snapshot{}
	if _, err := s.state.Get(ctx, localstate.CartKey(userID), snap); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return snap, nil
}

func (s *service) persist(ctx context.Context, userID string, snap *Snapshot) error {
	if err := s.state.Put(ctx, localstate.CartKey(userID), snap); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist cart")
	}
	return nil
}

func (s *service) view(snap *Snapshot) *View {
	quote := s.calc.QuoteItems(snap.Items)
	items := snap.Items
	if items == nil {
		items = []backend.OrderItem{}
	}
	return &View{
		Items:           items,
		ShippingAddress: snap.ShippingAddress,
		PaymentMethod:   snap.PaymentMethod,
		Quote:           quote,
	}
}
