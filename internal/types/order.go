package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType identifies how an order executes. The venue backend in this
// repository only accepts the limit family; MARKET exists for wire
// completeness and is rejected on placement.
type OrderType string

const (
	OrderTypeLimit    OrderType = "LIMIT"
	OrderTypePostOnly OrderType = "POST_ONLY"
	OrderTypeFOK      OrderType = "FOK"
	OrderTypeIOC      OrderType = "IOC"
	OrderTypeMarket   OrderType = "MARKET"
)

// IsLimitFamily reports whether the order type carries a price and is
// accepted by the simulated backend.
func (t OrderType) IsLimitFamily() bool {
	switch t {
	case OrderTypeLimit, OrderTypePostOnly, OrderTypeFOK, OrderTypeIOC:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of an order. Once an order leaves
// OPEN it never transitions back.
type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "OPEN"
	OrderStatusCanceled OrderStatus = "CANCELED"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusRejected OrderStatus = "REJECTED"
	OrderStatusExpired  OrderStatus = "EXPIRED"
)

// IsTerminal reports whether no further transition to OPEN can occur.
func (s OrderStatus) IsTerminal() bool {
	return s != OrderStatusOpen
}

// Order is the authoritative order record owned by the ledger. All
// monetary fields use decimals; Remaining, Cost and Average are derived
// at snapshot time.
type Order struct {
	OrderID   string          `json:"order_id"`
	ClientID  string          `json:"client_id,omitempty"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	OrderType OrderType       `json:"order_type"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Filled    decimal.Decimal `json:"filled"`
	Remaining decimal.Decimal `json:"remaining"`
	Cost      decimal.Decimal `json:"cost"`
	Average   decimal.Decimal `json:"average"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderEventType classifies user-data stream events.
type OrderEventType string

const (
	OrderEventPlaced   OrderEventType = "ORDER_PLACED"
	OrderEventCanceled OrderEventType = "ORDER_CANCELED"
)

// OrderEvent is the payload delivered on the user-data stream for every
// order-state change.
type OrderEvent struct {
	Type      OrderEventType `json:"event_type"`
	Order     Order          `json:"order"`
	Timestamp time.Time      `json:"timestamp"`
}
