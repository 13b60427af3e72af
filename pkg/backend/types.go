package backend

import (
	"time"

	"github.com/bucketcart/storefront-gateway/pkg/types"
	"github.com/shopspring/decimal"
)

// User is the authenticated user projection returned by the auth endpoints.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	Token    string `json:"token"`
}

// Product is the catalog projection the storefront renders.
type Product struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	Description  string          `json:"description,omitempty"`
	CountInStock int             `json:"countInStock"`
}

// OrderItem is the immutable snapshot of a cart line at order creation.
type OrderItem struct {
	Product  string          `json:"product"`
	Name     string          `json:"name"`
	Qty      int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Category string          `json:"category,omitempty"`
}

// Order is the read-only projection of a server-created order.
type Order struct {
	ID              string          `json:"_id"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress types.Address   `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	IsShipped       bool            `json:"isShipped"`
	IsDelivered     bool            `json:"isDelivered"`
	CreatedAt       time.Time       `json:"createdAt"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
}

// OrderDraft is the payload POSTed to create an order.
type OrderDraft struct {
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress types.Address   `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	CouponCode      string          `json:"couponCode,omitempty"`
	CouponDiscount  decimal.Decimal `json:"couponDiscount"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

// CouponResult reports the backend's verdict on a coupon code.
type CouponResult struct {
	Valid    bool            `json:"valid"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
}

// PaymentDetails is forwarded to the backend when marking an order paid.
type PaymentDetails struct {
	PaymentSessionID string `json:"paymentSessionId,omitempty"`
	Payer            any    `json:"payer,omitempty"`
}

// Category and Subcategory are the browse taxonomy.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Subcategory struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up payload.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
