package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/meridianhft/venue-api/internal/types"
)

// record is the mutable order state owned exclusively by the ledger.
// Everything outside the ledger works with value snapshots and refers to
// orders by id only.
type record struct {
	orderID   string
	clientID  string
	symbol    string
	side      types.Side
	orderType types.OrderType
	price     decimal.Decimal
	amount    decimal.Decimal
	filled    decimal.Decimal
	status    types.OrderStatus
	createdAt time.Time
	updatedAt time.Time
}

// Ledger is the authoritative in-memory store for orders, per-symbol
// position sizes and the account balance. A single mutex serializes every
// mutation and every read that needs a consistent multi-field snapshot.
// This also serializes operations on unrelated symbols, which is accepted
// for the call volume of a single-venue client.
type Ledger struct {
	mu        sync.Mutex
	orders    map[string]*record
	sequence  []string // order ids in creation order, for history
	positions map[string]decimal.Decimal
	balance   types.Balance

	orderSeq atomic.Uint64
}

// New creates a ledger with the given balance currency and free amount.
// The balance is immutable for the ledger's lifetime: this backend does
// not deduct fees or margin on placement, fill or cancel.
func New(currency string, free decimal.Decimal) *Ledger {
	return &Ledger{
		orders:    make(map[string]*record),
		positions: make(map[string]decimal.Decimal),
		balance: types.Balance{
			Currency: currency,
			Free:     free,
			Used:     decimal.Zero,
			Total:    free,
			USDValue: free,
		},
	}
}

// PlaceLimitOrder creates a new OPEN order. Non-limit-family order types
// are rejected with types.ErrUnsupportedOrderType. If clientOrderID is
// non-empty it is used verbatim as the order id, and reusing one replaces
// the previous record under that id; otherwise an id is
// synthesized from the wall clock plus a process-lifetime counter so that
// concurrent placements within the same millisecond never collide.
func (l *Ledger) PlaceLimitOrder(symbol string, side types.Side, orderType types.OrderType, amount, price decimal.Decimal, clientOrderID string) (*types.Order, error) {
	if !orderType.IsLimitFamily() {
		return nil, types.ErrUnsupportedOrderType
	}

	orderID := clientOrderID
	if orderID == "" {
		orderID = l.nextOrderID()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	rec := &record{
		orderID:   orderID,
		clientID:  clientOrderID,
		symbol:    symbol,
		side:      side,
		orderType: orderType,
		price:     price,
		amount:    amount,
		filled:    decimal.Zero,
		status:    types.OrderStatusOpen,
		createdAt: now,
		updatedAt: now,
	}
	// Reusing a client order id replaces the existing record; the id
	// occupies exactly one slot in the history.
	if _, exists := l.orders[orderID]; !exists {
		l.sequence = append(l.sequence, orderID)
	}
	l.orders[orderID] = rec

	log.Info().
		Str("order_id", orderID).
		Str("symbol", symbol).
		Str("side", string(side)).
		Str("price", price.String()).
		Str("amount", amount.String()).
		Msg("limit order placed")

	return rec.snapshot(), nil
}

// CancelOrder marks the order CANCELED and refreshes updated_at. The
// status is overwritten regardless of its current value: canceling an
// already-canceled or already-filled order is an idempotent success that
// returns the record in its current terminal state. Unknown ids fail with
// types.ErrOrderNotFound.
func (l *Ledger) CancelOrder(orderID string) (*types.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}

	rec.status = types.OrderStatusCanceled
	rec.updatedAt = time.Now().UTC()

	log.Info().
		Str("order_id", orderID).
		Str("symbol", rec.symbol).
		Msg("order canceled")

	return rec.snapshot(), nil
}

// CancelAll cancels every order that is currently OPEN, optionally
// filtered by symbol (empty string matches all). Orders already in a
// terminal state are untouched and excluded from the result.
func (l *Ledger) CancelAll(symbol string) []*types.Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	var canceled []*types.Order
	for _, orderID := range l.sequence {
		rec := l.orders[orderID]
		if rec.status.IsTerminal() {
			continue
		}
		if symbol != "" && rec.symbol != symbol {
			continue
		}
		rec.status = types.OrderStatusCanceled
		rec.updatedAt = now
		canceled = append(canceled, rec.snapshot())
	}

	log.Info().
		Str("symbol", symbol).
		Int("canceled", len(canceled)).
		Msg("canceled all open orders")

	return canceled
}

// OpenOrders returns every order with status OPEN, optionally filtered by
// symbol, in creation order.
func (l *Ledger) OpenOrders(symbol string) []*types.Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	var open []*types.Order
	for _, orderID := range l.sequence {
		rec := l.orders[orderID]
		if rec.status.IsTerminal() {
			continue
		}
		if symbol != "" && rec.symbol != symbol {
			continue
		}
		open = append(open, rec.snapshot())
	}
	return open
}

// Order looks up a single order by id. Terminal orders remain retrievable
// for the ledger's lifetime; records are never deleted.
func (l *Ledger) Order(orderID string) (*types.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.orders[orderID]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	return rec.snapshot(), nil
}

// OrderHistory returns every order the ledger has ever seen, optionally
// filtered by symbol, irrespective of status, in creation order.
func (l *Ledger) OrderHistory(symbol string) []*types.Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	var history []*types.Order
	for _, orderID := range l.sequence {
		rec := l.orders[orderID]
		if symbol != "" && rec.symbol != symbol {
			continue
		}
		history = append(history, rec.snapshot())
	}
	return history
}

// Position returns the position snapshot for a symbol. The side is
// derived from the sign of the size: LONG for size >= 0, SHORT otherwise.
func (l *Ledger) Position(symbol string) *types.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.positions[symbol]
	side := types.PositionSideLong
	if size.IsNegative() {
		side = types.PositionSideShort
	}

	return &types.Position{
		Symbol:     symbol,
		Side:       side,
		Size:       size.Abs(),
		EntryPrice: decimal.Zero,
		Leverage:   1,
		MarginMode: types.MarginModeCross,
		Timestamp:  time.Now().UTC(),
	}
}

// SetPositionSize seeds the signed position size for a symbol. In a full
// implementation fills would drive this; here it exists for simulation
// and seeding.
func (l *Ledger) SetPositionSize(symbol string, size decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[symbol] = size
}

// Balance returns the account balance. It is a constant in this backend.
func (l *Ledger) Balance() *types.Balance {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.balance
	b.Timestamp = time.Now().UTC()
	return &b
}

func (l *Ledger) nextOrderID() string {
	// Wall-clock millis alone collide under concurrent placement; the
	// counter breaks ties.
	return fmt.Sprintf("grvt_%d_%d", time.Now().UnixMilli(), l.orderSeq.Add(1))
}

// snapshot converts the mutable record into an immutable value with the
// derived fields filled in. Callers must hold the ledger mutex.
func (r *record) snapshot() *types.Order {
	return &types.Order{
		OrderID:   r.orderID,
		ClientID:  r.clientID,
		Symbol:    r.symbol,
		Side:      r.side,
		OrderType: r.orderType,
		Price:     r.price,
		Amount:    r.amount,
		Filled:    r.filled,
		Remaining: r.amount.Sub(r.filled),
		Cost:      r.price.Mul(r.amount),
		Average:   r.price,
		Status:    r.status,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
}
