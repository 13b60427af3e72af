package localstate

// Storage key prefixes, one per persisted client concern.
const (
	CartPrefix          = "cart-"
	FavoritesPrefix     = "favorites-"
	PaymentMethodPrefix = "payment-method-"
	ProgressPrefix      = "order-progress-"
)

func CartKey(userID string) string {
	return CartPrefix + userID
}

func FavoritesKey(userID string) string {
	return FavoritesPrefix + userID
}

func PaymentMethodKey(userID string) string {
	return PaymentMethodPrefix + userID
}

func ProgressKey(orderID string) string {
	return ProgressPrefix + orderID
}
