// Package journal persists the user-data event stream to SQLite as an
// audit trail. The journal is derived data: the ledger itself stays
// in-memory and nothing is replayed from here on restart.
package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/meridianhft/venue-api/internal/stream"
	"github.com/meridianhft/venue-api/internal/types"
)

// Journal records order events from a user-data stream.
type Journal struct {
	db *Database
}

// New creates a journal over the given database.
func New(db *Database) *Journal {
	return &Journal{db: db}
}

// Attach subscribes the journal to the stream. Recording failures are
// logged and swallowed: the journal must never disturb fan-out to other
// subscribers.
func (j *Journal) Attach(ch *stream.Channel) *stream.Subscription {
	return ch.Subscribe(func(ev types.OrderEvent) {
		if err := j.Record(ev); err != nil {
			log.Error().
				Err(err).
				Str("order_id", ev.Order.OrderID).
				Msg("failed to journal order event")
		}
	})
}

// Record writes a single event row.
func (j *Journal) Record(ev types.OrderEvent) error {
	entry := &Entry{
		EntryID:   uuid.New().String(),
		EventType: string(ev.Type),
		OrderID:   ev.Order.OrderID,
		Symbol:    ev.Order.Symbol,
		Side:      string(ev.Order.Side),
		OrderType: string(ev.Order.OrderType),
		Price:     ev.Order.Price.String(),
		Amount:    ev.Order.Amount.String(),
		Filled:    ev.Order.Filled.String(),
		Status:    string(ev.Order.Status),
		EmittedAt: ev.Timestamp,
		CreatedAt: time.Now().UTC(),
	}
	return j.db.CreateEntry(entry)
}
