// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"

	"factorypulse-gateway/internal/data"
	"factorypulse-gateway/internal/logger"
	"factorypulse-gateway/internal/metrics"
)

const broadcastBuffer = 64

// Message is the envelope of every frame sent to dashboards.
type Message struct {
	Type    string      `json:"type"` // readings, alert, dismissed, history
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte // Channel for messages to broadcast
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	done       chan struct{} // closed when Run returns
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	log := logger.WithComponent("ws_hub")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			log.Info().Msg("hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			log.Debug().Str("remote", client.remoteAddr()).Msg("client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Debug().Str("remote", client.remoteAddr()).Msg("client unregistered")
			}

		case reply := <-h.count:
			reply <- len(h.clients)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Assume client is blocked or gone, unregister
					log.Warn().Str("remote", client.remoteAddr()).Msg("client send buffer full, removing")
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	metrics.WebsocketClients.Set(float64(len(h.clients)))
}

// RegisterClient hands a new client to the hub. It blocks until the hub
// accepts it or ctx is done.
func (h *Hub) RegisterClient(ctx context.Context, client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-ctx.Done():
		return false
	case <-h.done:
		return false
	}
}

// ClientCount asks the hub goroutine how many clients are connected.
func (h *Hub) ClientCount(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-ctx.Done():
		return 0
	case <-h.done:
		return 0
	}
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		log := logger.WithComponent("ws_hub")
		log.Error().Err(err).Str("type", msg.Type).Msg("marshal broadcast")
		return
	}
	select {
	case h.broadcast <- messageBytes:
	default:
		metrics.WebsocketDropped.Inc()
		log := logger.WithComponent("ws_hub")
		log.Warn().Str("type", msg.Type).Msg("broadcast queue full, message dropped")
	}
}

// BroadcastReadings sends the latest readings to all clients
func (h *Hub) BroadcastReadings(readings []data.BandedReading) {
	h.Broadcast(Message{Type: "readings", Payload: readings})
}

// BroadcastAlert sends an alert message to all clients
func (h *Hub) BroadcastAlert(alert data.Alert) {
	h.Broadcast(Message{Type: "alert", Payload: alert})
}

// BroadcastDismissed tells clients to drop an alert from their list
func (h *Hub) BroadcastDismissed(id string) {
	h.Broadcast(Message{Type: "dismissed", Payload: map[string]string{"id": id}})
}

// AlertRaised implements alerting.Listener.
func (h *Hub) AlertRaised(alert data.Alert) { h.BroadcastAlert(alert) }

// AlertDismissed implements alerting.Listener.
func (h *Hub) AlertDismissed(id string) { h.BroadcastDismissed(id) }
