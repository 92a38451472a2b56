// Package events fans out vault, sync and prompt events to SSE and
// WebSocket subscribers.
package events

import (
	"sync/atomic"
)

// Event is one broadcast message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// subscriberBuffer is the per-subscriber queue depth; events beyond it are dropped.
const subscriberBuffer = 64

// Broker manages subscribers and broadcasts events.
//
// A single event loop goroutine owns the subscriber set. Public methods talk to
// it through channels, so no mutexes are required.
type Broker struct {
	subscribeCh   chan chan Event
	unsubscribeCh chan chan Event
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan chan Event),
		unsubscribeCh: make(chan chan Event),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan Event]struct{})
	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			for ch := range clients {
				select {
				case ch <- event:
				default:
					// Slow subscriber; drop rather than block the loop.
				}
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes all subscriber channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a new subscriber.
func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(ch chan Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of subscribers.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish broadcasts event to every subscriber.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishVaultEvent broadcasts vault.<kind> for path.
func (b *Broker) PublishVaultEvent(kind, path string) {
	b.Publish(Event{Type: "vault." + kind, Data: map[string]string{"path": path}})
}
