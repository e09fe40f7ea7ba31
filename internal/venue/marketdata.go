package venue

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianhft/venue-api/internal/types"
)

// Market-data retrieval is pure pass-through on this client: calls return
// placeholder data and never touch the ledger or the user-data stream.

// GetTicker returns a placeholder ticker for the symbol.
func (c *Client) GetTicker(symbol string) *types.Ticker {
	return &types.Ticker{Symbol: symbol, Timestamp: time.Now().UTC()}
}

// GetTickers returns placeholder tickers for the given symbols.
func (c *Client) GetTickers(symbols []string) []*types.Ticker {
	tickers := make([]*types.Ticker, 0, len(symbols))
	for _, symbol := range symbols {
		tickers = append(tickers, c.GetTicker(symbol))
	}
	return tickers
}

// GetOrderBook returns an empty depth snapshot.
func (c *Client) GetOrderBook(symbol string, limit int) *types.OrderBook {
	return &types.OrderBook{
		Symbol:    symbol,
		Bids:      []types.OrderBookLevel{},
		Asks:      []types.OrderBookLevel{},
		Timestamp: time.Now().UTC(),
	}
}

// GetOHLCV returns no candles.
func (c *Client) GetOHLCV(symbol, timeframe string, since time.Time, limit int) []types.OHLCV {
	return nil
}

// GetTrades returns no trade prints.
func (c *Client) GetTrades(symbol string, since time.Time, limit int) []types.Trade {
	return nil
}

// SubscribeTicker delivers a single placeholder ticker to the callback.
// There is no live ticker feed on this client.
func (c *Client) SubscribeTicker(symbol string, fn func(*types.Ticker)) {
	fn(c.GetTicker(symbol))
}

// SubscribeOrderBook delivers a single empty snapshot to the callback.
func (c *Client) SubscribeOrderBook(symbol string, fn func(*types.OrderBook)) {
	fn(c.GetOrderBook(symbol, 0))
}

// SubscribeTrades is a no-op: there is no trade feed to push.
func (c *Client) SubscribeTrades(symbol string, fn func(types.Trade)) {
	log.Debug().Str("symbol", symbol).Msg("trade subscription requested, no live feed available")
}
