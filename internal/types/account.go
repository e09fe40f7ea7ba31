package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionSide is derived from the sign of the position size: LONG for
// size >= 0, SHORT otherwise.
type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// MarginMode is the margin treatment for a position.
type MarginMode string

const (
	MarginModeCross    MarginMode = "CROSS"
	MarginModeIsolated MarginMode = "ISOLATED"
)

// Position is a per-symbol position snapshot.
type Position struct {
	Symbol        string          `json:"symbol"`
	Side          PositionSide    `json:"side"`
	Size          decimal.Decimal `json:"size"`
	EntryPrice    decimal.Decimal `json:"entry_price"`
	MarkPrice     decimal.Decimal `json:"mark_price"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	Leverage      int             `json:"leverage"`
	MarginMode    MarginMode      `json:"margin_mode"`
	Margin        decimal.Decimal `json:"margin"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Balance is a single-currency account balance. In the simulated backend
// the balance never changes: no fee or margin is deducted on placement,
// fill or cancel.
type Balance struct {
	Currency  string          `json:"currency"`
	Free      decimal.Decimal `json:"free"`
	Used      decimal.Decimal `json:"used"`
	Total     decimal.Decimal `json:"total"`
	USDValue  decimal.Decimal `json:"usd_value"`
	Timestamp time.Time       `json:"timestamp"`
}
