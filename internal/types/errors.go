package types

import "errors"

var (
	// ErrUnsupportedOrderType is returned when a non-limit-family order is
	// placed. The simulated backend only accepts orders that carry a price.
	ErrUnsupportedOrderType = errors.New("unsupported order type: only limit-family orders are accepted")

	// ErrOrderNotFound is returned when a cancel or lookup references an
	// order id the ledger has never seen.
	ErrOrderNotFound = errors.New("order not found")
)
