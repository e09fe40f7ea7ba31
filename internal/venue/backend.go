package venue

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridianhft/venue-api/internal/ledger"
	"github.com/meridianhft/venue-api/internal/types"
	"github.com/meridianhft/venue-api/pkg/config"
)

// Backend is the venue capability set behind the client: place, cancel,
// and query orders, positions and balance. The in-memory ledger is one
// variant; a real network-backed client is another, selected by
// configuration rather than subclassing.
type Backend interface {
	PlaceLimitOrder(symbol string, side types.Side, orderType types.OrderType, amount, price decimal.Decimal, clientOrderID string) (*types.Order, error)
	CancelOrder(orderID string) (*types.Order, error)
	CancelAll(symbol string) []*types.Order
	OpenOrders(symbol string) []*types.Order
	Order(orderID string) (*types.Order, error)
	OrderHistory(symbol string) []*types.Order
	Position(symbol string) *types.Position
	Balance() *types.Balance
}

// NewBackend constructs the backend selected by the configuration.
func NewBackend(cfg *config.Config) (Backend, error) {
	switch cfg.Venue.Backend {
	case config.BackendMemory:
		return ledger.New(cfg.Venue.Currency, cfg.BalanceAmount()), nil
	case config.BackendNetwork:
		return nil, fmt.Errorf("network backend is not implemented: the wire protocol client is out of scope")
	default:
		return nil, fmt.Errorf("unknown venue backend %q", cfg.Venue.Backend)
	}
}
