// Package events implements the server's in-process event bus: a per-owner,
// multi-subscriber broadcast of blob mutations, consumed by the events
// server (C7) to push live updates to connected clients.
package events

import (
	"github.com/google/uuid"

	"github.com/dreamware/csync/internal/types"
)

// sinkBuffer bounds how many undelivered events a single subscriber can
// accumulate before the bus starts dropping the oldest ones for it.
const sinkBuffer = 500

// Sink is a subscriber's inbound event channel.
type Sink <-chan types.Event

// Bus fans blob-mutation events out to subscribers, partitioned by the
// owner whose blobs the event describes. All mutable state lives inside a
// single dispatcher goroutine (run, in dispatcher.go); Bus's exported
// methods only ever talk to it over channels. Adapted from
// cuemby-warren/pkg/events.Broker, generalized from one global subscriber
// set to a registry keyed by owner, per the dispatch rule of partitioning
// an incoming Event's items by owner before delivery.
type Bus struct {
	publishCh     chan types.Event
	subscribeCh   chan subscribeRequest
	unsubscribeCh chan unsubscribeRequest
	countCh       chan chan int
}

type subscribeRequest struct {
	owner string
	reply chan chan types.Event
}

type unsubscribeRequest struct {
	owner string
	sink  chan types.Event
}

// NewBus starts the dispatcher goroutine and returns a ready-to-use Bus.
func NewBus() *Bus {
	b := &Bus{
		publishCh:     make(chan types.Event, 64),
		subscribeCh:   make(chan subscribeRequest),
		unsubscribeCh: make(chan unsubscribeRequest),
		countCh:       make(chan chan int),
	}
	go b.run()
	return b
}

// Subscribe registers a new sink for owner and returns it along with an
// unsubscribe function the caller must invoke exactly once, typically via
// defer, when it stops reading.
func (b *Bus) Subscribe(owner string) (Sink, func()) {
	reply := make(chan chan types.Event)
	b.subscribeCh <- subscribeRequest{owner: owner, reply: reply}
	ch := <-reply

	var once bool
	unsubscribe := func() {
		if once {
			return
		}
		once = true
		b.unsubscribeCh <- unsubscribeRequest{owner: owner, sink: ch}
	}
	return ch, unsubscribe
}

// Publish posts event for dispatch, assigning it a fresh ID if the caller
// left one unset. Items are partitioned by owner inside the dispatcher;
// callers need not know which owners are represented.
func (b *Bus) Publish(event types.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	b.publishCh <- event
}

// SubscriberCount returns the total number of live subscriptions across all
// owners, for the subscriber gauge metric.
func (b *Bus) SubscriberCount() int {
	reply := make(chan int)
	b.countCh <- reply
	return <-reply
}
