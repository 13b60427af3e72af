// Package backend is the typed client for the remote storefront REST API.
// Every endpoint gets an explicit result type narrowed at this boundary;
// nothing downstream touches raw response bodies.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bucketcart/storefront-gateway/pkg/config"
	pkgerrors "github.com/bucketcart/storefront-gateway/pkg/errors"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
	"github.com/bucketcart/storefront-gateway/pkg/types"
)

// Client calls the storefront backend.
type Client struct {
	http    *http.Client
	baseURL string
	logg    *logger.Logger
}

// New validates the configuration and builds a client.
func New(cfg config.BackendConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: base,
		logg:    logg,
	}, nil
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path, token string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if stdErrors.Is(err, context.DeadlineExceeded) || stdErrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "request timed out")
		}
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp, method, path)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, fmt.Sprintf("decode %s %s response", method, path))
	}
	return nil
}

func (c *Client) statusError(resp *http.Response, method, path string) error {
	msg := fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)
	var parsed errorBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		if parsed.Message != "" {
			msg = parsed.Message
		} else if parsed.Error != "" {
			msg = parsed.Error
		}
	}

	code := pkgerrors.CodeNetwork
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		code = pkgerrors.CodeValidation
	case resp.StatusCode == http.StatusUnauthorized:
		code = pkgerrors.CodeAuth
	case resp.StatusCode == http.StatusPaymentRequired:
		code = pkgerrors.CodePayment
	case resp.StatusCode == http.StatusForbidden:
		code = pkgerrors.CodeForbidden
	case resp.StatusCode == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case resp.StatusCode == http.StatusConflict:
		code = pkgerrors.CodeConflict
	case resp.StatusCode == http.StatusTooManyRequests:
		code = pkgerrors.CodeRateLimit
	}
	return pkgerrors.New(code, msg)
}

// Login authenticates against the backend. The context should carry the
// login deadline; expiry surfaces as a distinct timeout error.
func (c *Client) Login(ctx context.Context, creds Credentials) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/users/auth", "", creds, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, reg Registration) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/users", "", reg, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateOrder submits the checkout draft; order creation is backend-owned.
func (c *Client) CreateOrder(ctx context.Context, token string, draft OrderDraft) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", token, draft, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches a single order projection.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+orderID, token, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListMyOrders returns the caller's orders.
func (c *Client) ListMyOrders(ctx context.Context, token string) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/mine", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrders returns every order; admin only.
func (c *Client) ListOrders(ctx context.Context, token string) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// PayOrder marks an order paid with the supplied gateway details.
func (c *Client) PayOrder(ctx context.Context, token, orderID string, details PaymentDetails) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+orderID+"/pay", token, details, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ShipOrder marks an order shipped; admin only.
func (c *Client) ShipOrder(ctx context.Context, token, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+orderID+"/ship", token, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DeliverOrder marks an order delivered; admin only.
func (c *Client) DeliverOrder(ctx context.Context, token, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+orderID+"/deliver", token, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ValidateCoupon asks the backend to validate a coupon for the user.
func (c *Client) ValidateCoupon(ctx context.Context, token, code, userID string) (*CouponResult, error) {
	payload := map[string]string{"code": code, "userId": userID}
	var result CouponResult
	if err := c.do(ctx, http.MethodPost, "/api/coupons/validate", token, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAddresses returns the caller's saved addresses.
func (c *Client) ListAddresses(ctx context.Context, token string) ([]types.Address, error) {
	var addresses []types.Address
	if err := c.do(ctx, http.MethodGet, "/api/address", token, nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAddress saves a new address.
func (c *Client) CreateAddress(ctx context.Context, token string, address types.Address) (*types.Address, error) {
	var saved types.Address
	if err := c.do(ctx, http.MethodPost, "/api/address", token, address, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateAddress replaces an existing address.
func (c *Client) UpdateAddress(ctx context.Context, token, addressID string, address types.Address) (*types.Address, error) {
	var saved types.Address
	if err := c.do(ctx, http.MethodPut, "/api/address/"+addressID, token, address, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteAddress removes a saved address.
func (c *Client) DeleteAddress(ctx context.Context, token, addressID string) error {
	return c.do(ctx, http.MethodDelete, "/api/address/"+addressID, token, nil, nil)
}

// SetDefaultAddress marks an address for pre-selection at checkout.
func (c *Client) SetDefaultAddress(ctx context.Context, token, addressID string) error {
	return c.do(ctx, http.MethodPut, "/api/address/"+addressID+"/default", token, nil, nil)
}

// ListCategories returns the top-level browse taxonomy.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.do(ctx, http.MethodGet, "/api/category", "", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListSubcategories returns the second-level taxonomy.
func (c *Client) ListSubcategories(ctx context.Context) ([]Subcategory, error) {
	var subcategories []Subcategory
	if err := c.do(ctx, http.MethodGet, "/api/subcategory", "", nil, &subcategories); err != nil {
		return nil, err
	}
	return subcategories, nil
}

// ListProducts returns the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+productID, "", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
