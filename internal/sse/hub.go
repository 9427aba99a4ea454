package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

type Event string

const (
	EventChatMessageCreated  Event = "ChatMessageCreated"
	EventNotificationCreated Event = "NotificationCreated"
	EventApplicationDecided  Event = "ApplicationDecided"
)

// ChatChannel names the fanout channel for one application's chat thread.
func ChatChannel(applicationID uuid.UUID) string {
	return "chat:" + applicationID.String()
}

// NotificationChannel names the per-user notification channel.
func NotificationChannel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan Message
	done     chan struct{}
}

// Hub fans messages out to connected SSE clients by channel name.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client.Channels[channel] = true

	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[channel] = clients
	}
	clients[client] = true

	h.log.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.Channels, channel)

	if subs, ok := h.subscriptions[channel]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, channel)
		}
	}
}

// Remove detaches the client from every channel and closes its stream.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range client.Channels {
		if subs, ok := h.subscriptions[channel]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, channel)
			}
		}
	}
	client.Channels = make(map[string]bool)

	select {
	case <-client.done:
	default:
		close(client.done)
	}
}

// Broadcast delivers the message to every subscriber of its channel.
// Slow clients are skipped rather than blocking the hub.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.subscriptions[msg.Channel] {
		select {
		case client.Outbound <- msg:
		default:
			h.log.Warn("SSE client buffer full, dropping message",
				"client_id", client.ID,
				"channel", msg.Channel,
			)
		}
	}
}

// Stream writes SSE frames to w until the client disconnects or the hub
// removes the client.
func (h *Hub) Stream(w http.ResponseWriter, r *http.Request, client *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			h.Remove(client)
			return
		case <-client.done:
			return
		case msg := <-client.Outbound:
			data, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("SSE message marshal failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
			flusher.Flush()
		}
	}
}
