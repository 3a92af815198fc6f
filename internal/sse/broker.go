// Package sse implements a Server-Sent Events broker for spec and pricing
// change notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	EventSpecCreated    = "spec.created"
	EventSpecUpdated    = "spec.updated"
	EventSpecDeleted    = "spec.deleted"
	EventTotalsUpdated  = "totals.updated"
	EventPricingUpdated = "pricing.updated"
)

// Event represents an SSE event to broadcast. An event with a Project is
// only delivered to clients watching that project or all projects.
type Event struct {
	Type    string `json:"type"`
	Data    any    `json:"data"`
	Project string `json:"-"`
}

// keepAlive is how often an idle stream gets a comment line so proxies
// keep the connection open.
const keepAlive = 25 * time.Second

type subscription struct {
	ch      chan []byte
	project string
}

type specEventReq struct {
	kind      string
	projectID string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set and the per-project
// totals throttle. Public methods talk to it over channels.
type Broker struct {
	totalsMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	specEventCh   chan specEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that sends totals.updated at most once per
// totalsThrottle for each project.
func NewBroker(totalsThrottle time.Duration) *Broker {
	if totalsThrottle <= 0 {
		totalsThrottle = 2 * time.Second
	}

	b := &Broker{
		totalsMin:     totalsThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		specEventCh:   make(chan specEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	lastTotals := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, project := range clients {
			if project != "" && event.Project != "" && project != event.Project {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.project

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.specEventCh:
			data := map[string]string{"project_id": req.projectID}
			switch req.kind {
			case "created":
				broadcast(Event{Type: EventSpecCreated, Data: data, Project: req.projectID})
			case "updated":
				broadcast(Event{Type: EventSpecUpdated, Data: data, Project: req.projectID})
			case "deleted":
				broadcast(Event{Type: EventSpecDeleted, Data: data, Project: req.projectID})
				delete(lastTotals, req.projectID)
				continue
			default:
				continue
			}

			now := time.Now()
			if now.Sub(lastTotals[req.projectID]) >= b.totalsMin {
				lastTotals[req.projectID] = now
				broadcast(Event{Type: EventTotalsUpdated, Data: data, Project: req.projectID})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. A non-empty project
// limits project events to that project; events without a project, such
// as pricing reloads, always arrive.
func (b *Broker) Subscribe(project string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, project: project}:
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

// PublishSpecEvent publishes spec.<kind> for a project, followed by a
// throttled totals.updated for created and updated specs.
func (b *Broker) PublishSpecEvent(kind, projectID string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.specEventCh <- specEventReq{kind: kind, projectID: projectID}:
	case <-b.stopped:
	}
}

// PublishPricingReloaded tells clients the price table changed and totals
// should be refetched.
func (b *Broker) PublishPricingReloaded(path string) {
	b.Publish(Event{Type: EventPricingUpdated, Data: map[string]string{"file": path}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events?project=<id>).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.URL.Query().Get("project"))
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
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
