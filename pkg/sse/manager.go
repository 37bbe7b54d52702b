package sse

import (
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Message is a single frame pushed to subscribers.
type Message struct {
	Event string
	Data  interface{}
}

// Client is one live connection. Its send channel is buffered; when a
// subscriber falls behind, the hub drops frames for it instead of
// blocking delivery to everyone else. Clients recover missed frames
// through their next snapshot poll.
type Client struct {
	send   chan Message
	events map[string]bool // event IDs this client follows; owned by the hub goroutine
}

// Receive returns the channel of pushed frames. It is closed when the
// client is disconnected.
func (c *Client) Receive() <-chan Message {
	return c.send
}

type subscription struct {
	client  *Client
	eventID string
}

type envelope struct {
	eventID string
	msg     Message
}

type countQuery struct {
	eventID string
	reply   chan int
}

// Manager is the realtime hub: a registry of event-scoped subscriber
// sets mutated only by the Run goroutine, so no locks are needed.
type Manager struct {
	subscribe   chan subscription
	unsubscribe chan subscription
	disconnect  chan *Client
	publish     chan envelope
	counts      chan countQuery

	clients map[string]map[*Client]bool // eventID -> subscriber set
	buffer  int
}

func NewManager(buffer int) *Manager {
	if buffer <= 0 {
		buffer = 16
	}
	return &Manager{
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		disconnect:  make(chan *Client),
		publish:     make(chan envelope, 64),
		counts:      make(chan countQuery),
		clients:     make(map[string]map[*Client]bool),
		buffer:      buffer,
	}
}

// Run processes hub commands until the process exits. Start it once:
// go manager.Run()
func (m *Manager) Run() {
	for {
		select {
		case sub := <-m.subscribe:
			set, ok := m.clients[sub.eventID]
			if !ok {
				set = make(map[*Client]bool)
				m.clients[sub.eventID] = set
			}
			set[sub.client] = true
			sub.client.events[sub.eventID] = true

		case sub := <-m.unsubscribe:
			m.drop(sub.client, sub.eventID)

		case cl := <-m.disconnect:
			for eventID := range cl.events {
				m.drop(cl, eventID)
			}
			close(cl.send)

		case env := <-m.publish:
			for cl := range m.clients[env.eventID] {
				select {
				case cl.send <- env.msg:
				default:
					// Slow consumer: skip it, never stall the fan-out.
				}
			}

		case q := <-m.counts:
			q.reply <- len(m.clients[q.eventID])
		}
	}
}

func (m *Manager) drop(cl *Client, eventID string) {
	if set, ok := m.clients[eventID]; ok {
		delete(set, cl)
		if len(set) == 0 {
			delete(m.clients, eventID)
		}
	}
	delete(cl.events, eventID)
}

// Connect creates a client that can then be subscribed to one or more
// events. Callers must eventually call Disconnect.
func (m *Manager) Connect() *Client {
	return &Client{
		send:   make(chan Message, m.buffer),
		events: make(map[string]bool),
	}
}

// Subscribe adds the client to an event's subscriber set. Idempotent.
func (m *Manager) Subscribe(cl *Client, eventID string) {
	m.subscribe <- subscription{client: cl, eventID: eventID}
}

// Unsubscribe removes the client from one event's subscriber set.
func (m *Manager) Unsubscribe(cl *Client, eventID string) {
	m.unsubscribe <- subscription{client: cl, eventID: eventID}
}

// Disconnect removes the client from every subscriber set and closes
// its channel. Safe to call exactly once per client.
func (m *Manager) Disconnect(cl *Client) {
	m.disconnect <- cl
}

// Publish fans a frame out to every client currently subscribed to the
// event. Best-effort and non-blocking: there is no replay for late
// subscribers, and a saturated hub drops the frame entirely.
func (m *Manager) Publish(eventID, event string, data interface{}) {
	select {
	case m.publish <- envelope{eventID: eventID, msg: Message{Event: event, Data: data}}:
	default:
		log.Printf("[SSE] publish queue full, dropping %s for event %s", event, eventID)
	}
}

// Subscribers reports how many clients follow the given event.
func (m *Manager) Subscribers(eventID string) int {
	reply := make(chan int, 1)
	m.counts <- countQuery{eventID: eventID, reply: reply}
	return <-reply
}

// ServeHTTP streams the event's frames to one HTTP client until it
// goes away. A periodic ping keeps intermediaries from closing the
// connection and lets us notice dead peers.
func (m *Manager) ServeHTTP(c *gin.Context, eventID string) {
	cl := m.Connect()
	m.Subscribe(cl, eventID)
	defer m.Disconnect(cl)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-cl.send:
			if !ok {
				return false
			}
			c.SSEvent(msg.Event, msg.Data)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-done:
			return false
		}
	})
}
