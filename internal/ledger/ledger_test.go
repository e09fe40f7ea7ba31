package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhft/venue-api/internal/types"
)

func newTestLedger() *Ledger {
	return New("USDC", decimal.NewFromInt(100000))
}

func TestPlaceLimitOrder(t *testing.T) {
	l := newTestLedger()

	order, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(2), decimal.NewFromInt(50000), "")
	require.NoError(t, err)

	assert.NotEmpty(t, order.OrderID)
	assert.Equal(t, types.OrderStatusOpen, order.Status)
	assert.True(t, order.Filled.IsZero())
	assert.True(t, order.Remaining.Equal(decimal.NewFromInt(2)))
	assert.True(t, order.Cost.Equal(decimal.NewFromInt(100000)))
	assert.False(t, order.CreatedAt.IsZero())
	assert.Equal(t, order.CreatedAt, order.UpdatedAt)
}

func TestPlaceRejectsNonLimitFamily(t *testing.T) {
	l := newTestLedger()

	_, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeMarket,
		decimal.NewFromInt(1), decimal.Zero, "")
	assert.ErrorIs(t, err, types.ErrUnsupportedOrderType)

	// All limit-family variants are accepted
	for _, typ := range []types.OrderType{types.OrderTypeLimit, types.OrderTypePostOnly, types.OrderTypeFOK, types.OrderTypeIOC} {
		_, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, typ,
			decimal.NewFromInt(1), decimal.NewFromInt(100), "")
		assert.NoError(t, err, string(typ))
	}
}

func TestClientOrderIDUsedVerbatim(t *testing.T) {
	l := newTestLedger()

	order, err := l.PlaceLimitOrder("BTC-PERP", types.SideSell, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(100), "my-client-id")
	require.NoError(t, err)

	assert.Equal(t, "my-client-id", order.OrderID)
	assert.Equal(t, "my-client-id", order.ClientID)
}

func TestReusedClientOrderIDReplacesRecord(t *testing.T) {
	l := newTestLedger()

	_, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(100), "dup-id")
	require.NoError(t, err)
	replacement, err := l.PlaceLimitOrder("BTC-PERP", types.SideSell, types.OrderTypeLimit,
		decimal.NewFromInt(2), decimal.NewFromInt(200), "dup-id")
	require.NoError(t, err)

	// The id holds a single record with the replacement's fields
	open := l.OpenOrders("")
	require.Len(t, open, 1)
	assert.Equal(t, "dup-id", open[0].OrderID)
	assert.True(t, open[0].Price.Equal(replacement.Price))
	assert.Equal(t, types.SideSell, open[0].Side)

	require.Len(t, l.OrderHistory(""), 1)
	assert.Len(t, l.CancelAll(""), 1)
}

func TestOrderIDsUniqueUnderConcurrentPlacement(t *testing.T) {
	l := newTestLedger()

	const workers = 20
	const ordersPerWorker = 50

	var wg sync.WaitGroup
	ids := make(chan string, workers*ordersPerWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < ordersPerWorker; i++ {
				order, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
					decimal.NewFromInt(1), decimal.NewFromInt(100), "")
				if err == nil {
					ids <- order.OrderID
				}
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	total := 0
	for id := range ids {
		assert.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true
		total++
	}
	assert.Equal(t, workers*ordersPerWorker, total)
}

func TestCancelUnknownOrder(t *testing.T) {
	l := newTestLedger()

	_, err := l.CancelOrder("does-not-exist")
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}

func TestCancelIsIdempotent(t *testing.T) {
	l := newTestLedger()

	order, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(100), "")
	require.NoError(t, err)

	first, err := l.CancelOrder(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCanceled, first.Status)

	// Canceling an already-canceled order succeeds and returns the record
	// in its terminal state, with updated_at refreshed
	second, err := l.CancelOrder(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCanceled, second.Status)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestCancelAllOnlyAffectsOpenOrders(t *testing.T) {
	l := newTestLedger()

	a1, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(100), "")
	require.NoError(t, err)
	a2, err := l.PlaceLimitOrder("BTC-PERP", types.SideSell, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(110), "")
	require.NoError(t, err)
	b1, err := l.PlaceLimitOrder("ETH-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(100), "")
	require.NoError(t, err)

	// Terminal orders are untouched and excluded from the result
	_, err = l.CancelOrder(a1.OrderID)
	require.NoError(t, err)

	canceled := l.CancelAll("BTC-PERP")
	require.Len(t, canceled, 1)
	assert.Equal(t, a2.OrderID, canceled[0].OrderID)
	assert.Equal(t, types.OrderStatusCanceled, canceled[0].Status)
	assert.True(t, canceled[0].Status.IsTerminal())

	// The other symbol is untouched
	other, err := l.Order(b1.OrderID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusOpen, other.Status)
	assert.False(t, other.Status.IsTerminal())
}

func TestCancelAllWithoutSymbolSweepsEverything(t *testing.T) {
	l := newTestLedger()

	for i := 0; i < 5; i++ {
		_, err := l.PlaceLimitOrder(fmt.Sprintf("SYM-%d", i), types.SideBuy, types.OrderTypeLimit,
			decimal.NewFromInt(1), decimal.NewFromInt(100), "")
		require.NoError(t, err)
	}

	canceled := l.CancelAll("")
	assert.Len(t, canceled, 5)
	assert.Empty(t, l.OpenOrders(""))
}

func TestOpenOrdersFiltering(t *testing.T) {
	l := newTestLedger()

	btc, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(100), "")
	require.NoError(t, err)
	eth, err := l.PlaceLimitOrder("ETH-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(100), "")
	require.NoError(t, err)
	_, err = l.CancelOrder(eth.OrderID)
	require.NoError(t, err)

	open := l.OpenOrders("")
	require.Len(t, open, 1)
	assert.Equal(t, btc.OrderID, open[0].OrderID)

	assert.Empty(t, l.OpenOrders("ETH-PERP"))
	assert.Len(t, l.OpenOrders("BTC-PERP"), 1)
}

func TestBalanceIsInvariant(t *testing.T) {
	l := newTestLedger()

	before := l.Balance()

	order, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(10), decimal.NewFromInt(50000), "")
	require.NoError(t, err)
	_, err = l.CancelOrder(order.OrderID)
	require.NoError(t, err)

	after := l.Balance()
	assert.True(t, before.Free.Equal(after.Free))
	assert.True(t, before.Used.Equal(after.Used))
	assert.True(t, before.Total.Equal(after.Total))
	assert.Equal(t, "USDC", after.Currency)
}

func TestPositionSideDerivedFromSize(t *testing.T) {
	l := newTestLedger()

	// No fills ever happen in this backend, so the default is flat long
	flat := l.Position("BTC-PERP")
	assert.Equal(t, types.PositionSideLong, flat.Side)
	assert.True(t, flat.Size.IsZero())

	l.SetPositionSize("BTC-PERP", decimal.NewFromInt(-3))
	short := l.Position("BTC-PERP")
	assert.Equal(t, types.PositionSideShort, short.Side)
	assert.True(t, short.Size.Equal(decimal.NewFromInt(3)))
}

func TestOrderLifecycleScenario(t *testing.T) {
	l := newTestLedger()

	order, err := l.PlaceLimitOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(50000), "")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusOpen, order.Status)
	assert.True(t, order.Filled.IsZero())
	assert.True(t, order.Remaining.Equal(decimal.NewFromInt(1)))
	assert.True(t, order.Cost.Equal(decimal.NewFromInt(50000)))

	canceled, err := l.CancelOrder(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCanceled, canceled.Status)

	assert.Empty(t, l.OpenOrders(""))

	history := l.OrderHistory("")
	require.Len(t, history, 1)
	assert.Equal(t, order.OrderID, history[0].OrderID)
	assert.Equal(t, types.OrderStatusCanceled, history[0].Status)
}
