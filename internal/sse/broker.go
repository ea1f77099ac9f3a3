// Package sse implements a Server-Sent Events broker for label change
// notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	TypeLabelSet       = "label.set"
	TypeLabelsImported = "labels.imported"
	TypeLabelsSaved    = "labels.saved"
	TypeExternalChange = "labels.external_change"
	TypeStatsUpdated   = "stats.updated"
)

// labelEventTypes maps service event kinds to SSE event types.
var labelEventTypes = map[string]string{
	"set":             TypeLabelSet,
	"imported":        TypeLabelsImported,
	"saved":           TypeLabelsSaved,
	"external_change": TypeExternalChange,
}

// historySize is how many recent frames are kept for clients that reconnect
// with a Last-Event-ID header. A subscriber channel holds a full replay plus
// clientSlack live frames.
const (
	historySize = 128
	clientSlack = 64
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type frame struct {
	id  uint64
	raw []byte
}

type labelEventReq struct {
	kind string
	data any
}

type subscribeReq struct {
	ch    chan []byte
	since uint64
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set, the event sequence,
// the replay history and the stats throttle timestamp. Public methods talk
// to it over channels.
type Broker struct {
	statsMin  time.Duration
	heartbeat time.Duration

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	labelEventCh  chan labelEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one stats.updated event per
// statsThrottle.
func NewBroker(statsThrottle time.Duration) *Broker {
	if statsThrottle <= 0 {
		statsThrottle = 2 * time.Second
	}

	b := &Broker{
		statsMin:      statsThrottle,
		heartbeat:     25 * time.Second,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		labelEventCh:  make(chan labelEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]frame, 0, historySize)
	var (
		seq       uint64
		lastStats time.Time
	)

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Slow client; drop rather than stall the loop.
		}
	}

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("event: %s\nid: %d\ndata: %s\n\n", event.Type, seq, payload))

		if len(history) == historySize {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, frame{id: seq, raw: raw})

		for ch := range clients {
			send(ch, raw)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.ch] = struct{}{}
			if req.since == 0 {
				continue
			}
			for _, f := range history {
				if f.id > req.since {
					send(req.ch, f.raw)
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.labelEventCh:
			typ, ok := labelEventTypes[req.kind]
			if !ok {
				continue
			}
			broadcast(Event{Type: typ, Data: req.data})

			now := time.Now()
			if now.Sub(lastStats) >= b.statsMin {
				lastStats = now
				broadcast(Event{Type: TypeStatsUpdated, Data: map[string]string{"reason": typ}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the event loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeSince(0)
}

// SubscribeSince adds a new client and first queues the buffered events
// whose id is greater than lastID. Zero means no replay.
func (b *Broker) SubscribeSince(lastID uint64) chan []byte {
	ch := make(chan []byte, historySize+clientSlack)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{ch: ch, since: lastID}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishLabelEvent publishes a label service event and a throttled
// stats.updated hint. Unknown kinds are dropped.
func (b *Broker) PublishLabelEvent(kind string, data any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.labelEventCh <- labelEventReq{kind: kind, data: data}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). A client that
// reconnects with Last-Event-ID receives the buffered events it missed.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	ch := b.SubscribeSince(lastID)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
