package model

// OrderType is the side of an order.
type OrderType string

const (
	OrderBuy  OrderType = "buy"
	OrderSell OrderType = "sell"
)

// OrderStatus tracks an order through its lifecycle.
// filled, cancelled and expired are terminal.
type OrderStatus string

const (
	OrderOpen            OrderStatus = "open"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderFilled          OrderStatus = "filled"
	OrderCancelled       OrderStatus = "cancelled"
	OrderExpired         OrderStatus = "expired"
)

// Order is a resting buy or sell order for shares of one property.
type Order struct {
	ID            uint64      `db:"id" json:"id"`
	PropertyID    uint64      `db:"property_id" json:"property_id"`
	Creator       string      `db:"creator" json:"creator"`
	Type          OrderType   `db:"order_type" json:"order_type"`
	Shares        uint64      `db:"shares" json:"shares"`
	Remaining     uint64      `db:"remaining" json:"remaining"`
	PricePerShare uint64      `db:"price_per_share" json:"price_per_share"`
	Status        OrderStatus `db:"status" json:"status"`
	CreatedAt     uint64      `db:"created_at" json:"created_at"`
	ExpiresAt     uint64      `db:"expires_at" json:"expires_at"`
}

// Live reports whether the order can still be matched or cancelled,
// ignoring expiry.
func (o *Order) Live() bool {
	return o.Status == OrderOpen || o.Status == OrderPartiallyFilled
}

// ExpiredAt reports whether the order has lapsed at the given height.
func (o *Order) ExpiredAt(height uint64) bool {
	return height > o.ExpiresAt
}

// EffectiveStatus is the status a reader should see at height: live orders
// past their deadline are reported as expired even before a sweep writes it.
func (o *Order) EffectiveStatus(height uint64) OrderStatus {
	if o.Live() && o.ExpiredAt(height) {
		return OrderExpired
	}
	return o.Status
}

// Trade is an immutable settlement record.
type Trade struct {
	ID            uint64 `db:"id" json:"id"`
	BuyOrderID    uint64 `db:"buy_order_id" json:"buy_order_id"`
	SellOrderID   uint64 `db:"sell_order_id" json:"sell_order_id"`
	PropertyID    uint64 `db:"property_id" json:"property_id"`
	Shares        uint64 `db:"shares" json:"shares"`
	PricePerShare uint64 `db:"price_per_share" json:"price_per_share"`
	Fee           uint64 `db:"fee" json:"fee"`
	Buyer         string `db:"buyer" json:"buyer"`
	Seller        string `db:"seller" json:"seller"`
	ExecutedAt    uint64 `db:"executed_at" json:"executed_at"`
}
