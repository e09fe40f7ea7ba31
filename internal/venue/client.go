// Package venue implements the trading client for a GRVT-style perpetual
// venue: the operation surface over a pluggable backend, plus the
// user-data event stream that republishes every order-state change.
package venue

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/meridianhft/venue-api/internal/stream"
	"github.com/meridianhft/venue-api/internal/types"
	"github.com/meridianhft/venue-api/pkg/config"
)

// LeverageUpdate acknowledges a leverage change request.
type LeverageUpdate struct {
	Symbol   string `json:"symbol"`
	Leverage int    `json:"leverage"`
	Status   string `json:"status"`
}

// MarginModeUpdate acknowledges a margin mode change request.
type MarginModeUpdate struct {
	Symbol     string           `json:"symbol"`
	MarginMode types.MarginMode `json:"margin_mode"`
	Status     string           `json:"status"`
}

// Client is the venue connectivity client. Every state mutation goes
// through the backend, and every resulting order is republished on the
// user-data stream.
type Client struct {
	backend Backend
	stream  *stream.Channel

	venueID       string
	apiKey        string
	defaultSymbol string

	mu        sync.Mutex
	connected bool
}

// NewClient creates a client over the configured backend.
func NewClient(cfg *config.Config, backend Backend) *Client {
	return &Client{
		backend:       backend,
		stream:        stream.New(),
		venueID:       cfg.Venue.ID,
		apiKey:        cfg.Venue.APIKey,
		defaultSymbol: cfg.Venue.Symbol,
	}
}

// Connect establishes the session and starts the user-data stream.
// Reconnecting while connected is a no-op success.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.stream.Connect(); err != nil {
		return err
	}
	c.connected = true

	log.Info().Str("venue", c.venueID).Msg("venue client connected")
	return nil
}

// Disconnect tears down the user-data stream, waiting for the consumer to
// terminate. Undelivered events are dropped.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.stream.Disconnect()

	log.Info().Str("venue", c.venueID).Msg("venue client disconnected")
}

// Authenticate reports whether a credential is present. No cryptographic
// check happens at this layer.
func (c *Client) Authenticate() bool {
	return c.apiKey != ""
}

// HealthCheck reports connectivity health.
func (c *Client) HealthCheck() *types.HealthStatus {
	return &types.HealthStatus{
		Status:    "healthy",
		Venue:     c.venueID,
		Timestamp: time.Now().UTC(),
	}
}

// PlaceOrder places a limit-family order and publishes the resulting
// record on the user-data stream. Market orders are rejected with
// types.ErrUnsupportedOrderType.
func (c *Client) PlaceOrder(symbol string, side types.Side, orderType types.OrderType, amount, price decimal.Decimal, clientOrderID string) (*types.Order, error) {
	order, err := c.backend.PlaceLimitOrder(symbol, side, orderType, amount, price, clientOrderID)
	if err != nil {
		return nil, err
	}

	c.emit(types.OrderEventPlaced, order)
	return order, nil
}

// CancelOrder cancels by id and publishes the result. The symbol argument
// mirrors the venue API shape; lookup is by id alone.
func (c *Client) CancelOrder(orderID, symbol string) (*types.Order, error) {
	order, err := c.backend.CancelOrder(orderID)
	if err != nil {
		return nil, err
	}

	c.emit(types.OrderEventCanceled, order)
	return order, nil
}

// CancelAllOrders cancels every open order, optionally filtered by
// symbol, publishing one event per canceled order.
func (c *Client) CancelAllOrders(symbol string) []*types.Order {
	canceled := c.backend.CancelAll(symbol)
	for _, order := range canceled {
		c.emit(types.OrderEventCanceled, order)
	}
	return canceled
}

// GetOrder searches open orders first and falls back to the full ledger,
// so terminal orders remain retrievable by id.
func (c *Client) GetOrder(orderID, symbol string) (*types.Order, error) {
	for _, order := range c.backend.OpenOrders(symbol) {
		if order.OrderID == orderID {
			return order, nil
		}
	}
	return c.backend.Order(orderID)
}

// GetOpenOrders returns all OPEN orders, optionally filtered by symbol.
func (c *Client) GetOpenOrders(symbol string) []*types.Order {
	return c.backend.OpenOrders(symbol)
}

// GetOrderHistory returns every known order irrespective of status,
// optionally filtered by symbol, created at or after since (when
// non-zero), capped at limit entries (when positive).
func (c *Client) GetOrderHistory(symbol string, since time.Time, limit int) []*types.Order {
	history := c.backend.OrderHistory(symbol)

	if !since.IsZero() {
		filtered := history[:0]
		for _, order := range history {
			if !order.CreatedAt.Before(since) {
				filtered = append(filtered, order)
			}
		}
		history = filtered
	}

	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history
}

// GetBalances returns the account balances (a single currency here).
func (c *Client) GetBalances() []*types.Balance {
	return []*types.Balance{c.backend.Balance()}
}

// GetPositions returns positions for the given symbols. With no symbols
// the configured default symbol is used; with none configured the result
// is empty.
func (c *Client) GetPositions(symbols []string) []*types.Position {
	if len(symbols) == 0 {
		if c.defaultSymbol == "" {
			return nil
		}
		symbols = []string{c.defaultSymbol}
	}

	positions := make([]*types.Position, 0, len(symbols))
	for _, symbol := range symbols {
		positions = append(positions, c.backend.Position(symbol))
	}
	return positions
}

// SetLeverage acknowledges a leverage change. The simulated backend does
// not track leverage per order.
func (c *Client) SetLeverage(symbol string, leverage int) *LeverageUpdate {
	return &LeverageUpdate{Symbol: symbol, Leverage: leverage, Status: "ok"}
}

// SetMarginMode acknowledges a margin mode change.
func (c *Client) SetMarginMode(symbol string, mode types.MarginMode) *MarginModeUpdate {
	return &MarginModeUpdate{Symbol: symbol, MarginMode: mode, Status: "ok"}
}

// SubscribeUserData registers a callback for every order-state change
// event and returns its subscription handle.
func (c *Client) SubscribeUserData(fn stream.Subscriber) *stream.Subscription {
	return c.stream.Subscribe(fn)
}

// Unsubscribe clears ALL user-data subscribers, not just the caller's.
// See stream.Channel.Unsubscribe.
func (c *Client) Unsubscribe() {
	c.stream.Unsubscribe()
}

// UserData exposes the underlying stream, mainly for wiring auxiliary
// consumers such as the journal.
func (c *Client) UserData() *stream.Channel {
	return c.stream
}

func (c *Client) emit(eventType types.OrderEventType, order *types.Order) {
	c.stream.Emit(types.OrderEvent{
		Type:      eventType,
		Order:     *order,
		Timestamp: time.Now().UTC(),
	})
}
