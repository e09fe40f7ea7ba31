// Package stream implements the user-data event channel: an unbounded
// ordered queue drained by a single consumer goroutine that fans each
// event out to every registered subscriber in registration order.
package stream

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/meridianhft/venue-api/internal/types"
)

// Subscriber receives user-data events. Callbacks are invoked
// synchronously by the consumer, one subscriber at a time, and must be
// fast: there is no invocation timeout, so a callback that never returns
// stalls all subsequent dispatch. That is a contract the caller must
// respect, not a condition the channel guards against.
type Subscriber func(types.OrderEvent)

// Subscription is the handle returned by Subscribe. Today it only
// identifies the registration; Unsubscribe clears every subscriber
// regardless of handle (see Unsubscribe). The handle exists so a
// per-subscriber removal can be added without changing the Subscribe
// signature.
type Subscription struct {
	ID uint64
}

type registration struct {
	id uint64
	fn Subscriber
}

// Channel owns the event queue, the subscriber list and the connection
// state. Producers only enqueue; the single consumer goroutine is the
// only dequeuer, which rules out multi-consumer races by construction.
type Channel struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue       []types.OrderEvent
	subscribers []registration
	nextSubID   uint64

	connected bool
	// generation invalidates the running consumer on disconnect; a consumer
	// only drains the queue while its generation is current.
	generation uint64
	done       chan struct{}
}

// New creates a disconnected channel with no subscribers.
func New() *Channel {
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Connect transitions the channel to connected and starts the consumer
// goroutine. Calling Connect while already connected is a no-op success.
func (c *Channel) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Channel) connectLocked() error {
	if c.connected {
		return nil
	}

	c.connected = true
	c.generation++
	c.done = make(chan struct{})
	go c.consume(c.generation, c.done)

	log.Info().Msg("user-data stream connected")
	return nil
}

// Disconnect cancels the consumer and waits for it to terminate before
// returning. Events still queued at disconnect time are dropped, not
// redelivered on the next connect: delivery is at-most-once.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.generation++
	c.queue = nil
	done := c.done
	c.cond.Broadcast()
	c.mu.Unlock()

	<-done

	log.Info().Msg("user-data stream disconnected")
}

// IsConnected reports the current connection state.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Subscribe appends the callback to the subscriber list and returns its
// handle. There is no deduplication: subscribing the same function twice
// delivers every event twice.
func (c *Channel) Subscribe(fn Subscriber) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	c.subscribers = append(c.subscribers, registration{id: c.nextSubID, fn: fn})
	return &Subscription{ID: c.nextSubID}
}

// Unsubscribe clears the ENTIRE subscriber list, not just the caller's
// registration. This mirrors the venue client's historical behavior and
// is a known sharp edge: every listener is dropped unconditionally.
func (c *Channel) Unsubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := len(c.subscribers)
	c.subscribers = nil

	log.Info().Int("dropped", dropped).Msg("all user-data subscribers cleared")
}

// SubscriberCount returns the number of registered subscribers.
func (c *Channel) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribers)
}

// Emit enqueues an event for delivery. If the channel is disconnected it
// reconnects first, so an emit is never silently dropped just because the
// connection was down.
func (c *Channel) Emit(ev types.OrderEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		log.Warn().Msg("user-data stream disconnected, reconnecting before emit")
		if err := c.connectLocked(); err != nil {
			return
		}
	}

	c.queue = append(c.queue, ev)
	c.cond.Signal()
}

// QueueDepth returns the number of undelivered events.
func (c *Channel) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// consume pops events in FIFO order and fans each out to all subscribers
// in registration order, invoking each to completion before the next.
func (c *Channel) consume(generation uint64, done chan struct{}) {
	defer close(done)

	for {
		c.mu.Lock()
		for len(c.queue) == 0 && c.generation == generation {
			c.cond.Wait()
		}
		if c.generation != generation {
			c.mu.Unlock()
			return
		}

		ev := c.queue[0]
		c.queue = c.queue[1:]
		subs := make([]registration, len(c.subscribers))
		copy(subs, c.subscribers)
		c.mu.Unlock()

		for _, sub := range subs {
			c.dispatch(sub, ev)
		}
	}
}

// dispatch invokes a single subscriber, isolating panics so a failing
// callback neither aborts delivery to the remaining subscribers nor kills
// the consumer loop. Failures are logged at this boundary and never
// surface to the emitter.
func (c *Channel) dispatch(sub registration, ev types.OrderEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Uint64("subscription_id", sub.id).
				Str("event_type", string(ev.Type)).
				Str("order_id", ev.Order.OrderID).
				Interface("panic", r).
				Msg("subscriber callback failed")
		}
	}()

	sub.fn(ev)
}
