package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/meridianhft/venue-api/internal/journal"
	"github.com/meridianhft/venue-api/internal/types"
	"github.com/meridianhft/venue-api/internal/venue"
	"github.com/meridianhft/venue-api/pkg/config"
)

const (
	minOrders  = 15
	maxOrders  = 150
	numWorkers = 5
)

var (
	symbols = []string{"BTC-PERP", "ETH-PERP", "SOL-PERP"}
	sides   = []types.Side{types.SideBuy, types.SideSell}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for a client operation
type routeStats struct {
	mu         sync.Mutex
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the operation
func (rs *routeStats) addDuration(d time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

func (rs *routeStats) addFailure() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.failures++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// printPerformanceStats outputs formatted performance statistics for all operations
func printPerformanceStats(stats map[string]*routeStats) {
	fmt.Println("\nClient Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Operation", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, rs := range stats {
		min, max, mean, median, p95, p99 := rs.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			rs.name,
			rs.totalCalls,
			rs.failures,
			min.Round(time.Microsecond),
			max.Round(time.Microsecond),
			mean.Round(time.Microsecond),
			median.Round(time.Microsecond),
			p95.Round(time.Microsecond),
			p99.Round(time.Microsecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// main runs the venue client simulation: concurrent workers place and
// cancel orders directly against the client while a counting subscriber
// and the journal consume the user-data stream.
func main() {
	cfg := config.Default()
	cfg.Venue.APIKey = "sim-api-key"
	cfg.Venue.Symbol = symbols[0]

	backend, err := venue.NewBackend(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize venue backend")
	}

	client := venue.NewClient(cfg, backend)
	if err := client.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect venue client")
	}
	defer client.Disconnect()

	if !client.Authenticate() {
		log.Fatal().Msg("Client failed credential check")
	}

	// Counting subscriber: one delivery per emitted event
	var placedEvents, canceledEvents atomic.Int64
	client.SubscribeUserData(func(ev types.OrderEvent) {
		switch ev.Type {
		case types.OrderEventPlaced:
			placedEvents.Add(1)
		case types.OrderEventCanceled:
			canceledEvents.Add(1)
		}
	})

	// Journal everything to an ephemeral database
	journalDB, err := journal.NewDatabase(":memory:")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize journal database")
	}
	journal.New(journalDB).Attach(client.UserData())

	stats := map[string]*routeStats{
		"place":      {name: "Place Order"},
		"cancel":     {name: "Cancel Order"},
		"cancel_all": {name: "Cancel All"},
		"open":       {name: "Open Orders"},
		"history":    {name: "Order History"},
	}

	targetOrders := rand.Intn(maxOrders-minOrders) + minOrders
	log.Info().Int("target_orders", targetOrders).Msg("Starting simulation")

	startTime := time.Now()

	// Place orders concurrently
	ordersChan := make(chan *types.Order, targetOrders)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			placeOrders(workerID, targetOrders/numWorkers, client, stats, ordersChan)
		}(i)
	}
	wg.Wait()
	close(ordersChan)

	var orders []*types.Order
	symbolCounts := make(map[string]int)
	sideCounts := make(map[types.Side]int)
	for order := range ordersChan {
		orders = append(orders, order)
		symbolCounts[order.Symbol]++
		sideCounts[order.Side]++
	}
	log.Info().Int("orders_placed", len(orders)).Msg("All orders placed")

	// Cancel roughly half of the orders individually
	canceled := 0
	for i, order := range orders {
		if i%2 != 0 {
			continue
		}
		start := time.Now()
		if _, err := client.CancelOrder(order.OrderID, order.Symbol); err != nil {
			stats["cancel"].addFailure()
			log.Error().Err(err).Str("order_id", order.OrderID).Msg("Failed to cancel order")
			continue
		}
		stats["cancel"].addDuration(time.Since(start))
		canceled++
	}

	// Sweep the remainder per symbol
	swept := 0
	for _, symbol := range symbols {
		start := time.Now()
		result := client.CancelAllOrders(symbol)
		stats["cancel_all"].addDuration(time.Since(start))
		swept += len(result)
	}

	// Query round: open orders should now be empty, history complete
	start := time.Now()
	open := client.GetOpenOrders("")
	stats["open"].addDuration(time.Since(start))

	start = time.Now()
	history := client.GetOrderHistory("", time.Time{}, 0)
	stats["history"].addDuration(time.Since(start))

	// Let the consumer drain the queue before reading counters
	for i := 0; i < 100 && client.UserData().QueueDepth() > 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	journaled, _ := journalDB.Count()
	balance := client.GetBalances()[0]
	duration := time.Since(startTime)

	// Print summary
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("VENUE CLIENT SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Order Statistics
----------------
Orders Placed:    %d
Canceled (solo):  %d
Canceled (sweep): %d
Open Remaining:   %d
History Size:     %d
Events Delivered: %d placed / %d canceled
Journaled Events: %d
Final Balance:    %s %s
Duration:         %v

Symbol Distribution
-------------------
`, len(orders), canceled, swept, len(open), len(history),
		placedEvents.Load(), canceledEvents.Load(), journaled,
		balance.Free.String(), balance.Currency, duration.Round(time.Millisecond))

	// Print symbol distribution with simple ASCII bar chart
	maxSymbolCount := 0
	for _, count := range symbolCounts {
		if count > maxSymbolCount {
			maxSymbolCount = count
		}
	}
	for symbol, count := range symbolCounts {
		barLength := int(float64(count) / float64(maxSymbolCount) * 20)
		fmt.Printf("%-10s: %s (%d)\n", symbol, strings.Repeat("#", barLength), count)
	}

	fmt.Println("\nSide Distribution")
	fmt.Println("-----------------")
	for side, count := range sideCounts {
		barLength := int(float64(count) / float64(len(orders)) * 20)
		fmt.Printf("%-4s: %s (%d)\n", side, strings.Repeat("#", barLength), count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	log.Info().
		Int("orders_placed", len(orders)).
		Int64("events_delivered", placedEvents.Load()+canceledEvents.Load()).
		Int64("events_journaled", journaled).
		Dur("duration", duration).
		Msg("Simulation completed")

	printPerformanceStats(stats)
}

// placeOrders generates and places random limit orders against the client
// Runs as a worker goroutine, sending placed orders to ordersChan
func placeOrders(workerID, numOrders int, client *venue.Client, stats map[string]*routeStats, ordersChan chan<- *types.Order) {
	for i := 0; i < numOrders; i++ {
		symbol := symbols[rand.Intn(len(symbols))]
		side := sides[rand.Intn(len(sides))]
		amount := decimal.NewFromInt(int64(rand.Intn(10) + 1))
		price := decimal.NewFromInt(int64(rand.Intn(1000) + 100))

		// Every third order supplies its own client order id
		clientOrderID := ""
		if i%3 == 0 {
			clientOrderID = fmt.Sprintf("sim-%d-%s", workerID, uuid.New().String())
		}

		start := time.Now()
		order, err := client.PlaceOrder(symbol, side, types.OrderTypeLimit, amount, price, clientOrderID)
		if err != nil {
			stats["place"].addFailure()
			log.Error().Err(err).
				Int("worker_id", workerID).
				Str("symbol", symbol).
				Msg("Failed to place order")
			continue
		}
		stats["place"].addDuration(time.Since(start))

		ordersChan <- order
		log.Debug().
			Int("worker_id", workerID).
			Str("order_id", order.OrderID).
			Str("symbol", order.Symbol).
			Str("side", string(order.Side)).
			Str("amount", order.Amount.String()).
			Str("price", order.Price.String()).
			Msg("Order placed")
	}
}
