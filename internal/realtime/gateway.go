// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package realtime implements the websocket gateway: chat broadcast,
// connection-count updates and targeted notification pushes.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mileusna/useragent"

	"github.com/olegiv/community-portal/internal/metrics"
)

// Message types.
const (
	TypeChat         = "chat"
	TypeConnections  = "connections"
	TypeNotification = "notification"
	TypeEventSeats   = "event_seats"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// ErrGatewayFull is returned when the registry is at its bound.
var ErrGatewayFull = errors.New("realtime: too many connections")

// Message is the JSON frame exchanged with clients.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ChatMessage is the payload of a broadcast chat frame.
type ChatMessage struct {
	From    string    `json:"from"`
	UserID  int64     `json:"userId,omitempty"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// ClientInfo describes a connected client.
type ClientInfo struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"userId,omitempty"`
	Browser     string    `json:"browser"`
	OS          string    `json:"os"`
	Device      string    `json:"device"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Authenticator resolves a bearer token to a user ID.
type Authenticator func(ctx context.Context, token string) (int64, error)

// Options configures a Gateway.
type Options struct {
	MaxClients     int
	Authenticate   Authenticator
	AllowedOrigins []string
	Logger         *slog.Logger
}

type client struct {
	info ClientInfo
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// close signals the write pump; send is never closed so late senders cannot panic.
func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Gateway owns the bounded registry of connected clients.
type Gateway struct {
	mu       sync.RWMutex
	clients  map[string]*client
	max      int
	auth     Authenticator
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(opts Options) *Gateway {
	if opts.MaxClients <= 0 {
		opts.MaxClients = 1000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	g := &Gateway{
		clients: make(map[string]*client),
		max:     opts.MaxClients,
		auth:    opts.Authenticate,
		logger:  opts.Logger,
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return g
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP upgrades the request and runs the client until it disconnects.
// A token may be passed as ?token= or a bearer Authorization header.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if token := requestToken(r); token != "" && g.auth != nil {
		id, err := g.auth(r.Context(), token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = id
	}

	ua := useragent.Parse(r.UserAgent())
	c := &client{
		info: ClientInfo{
			ID:          uuid.NewString(),
			UserID:      userID,
			Browser:     orUnknown(ua.Name),
			OS:          orUnknown(ua.OS),
			Device:      deviceType(ua),
			ConnectedAt: time.Now().UTC(),
		},
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	if err := g.register(c); err != nil {
		metrics.RealtimeRejected.Inc()
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.unregister(c)
		g.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c.conn = conn

	g.logger.Debug("realtime client connected", "client_id", c.info.ID, "user_id", userID)
	g.broadcastCount()

	go g.writePump(c)
	g.readPump(c)
}

// register reserves a registry slot. The bound is checked under the lock.
func (g *Gateway) register(c *client) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.clients) >= g.max {
		return ErrGatewayFull
	}
	g.clients[c.info.ID] = c
	metrics.RealtimeClients.Set(float64(len(g.clients)))
	return nil
}

func (g *Gateway) unregister(c *client) bool {
	g.mu.Lock()
	_, ok := g.clients[c.info.ID]
	if ok {
		delete(g.clients, c.info.ID)
	}
	n := len(g.clients)
	g.mu.Unlock()

	if ok {
		c.close()
		metrics.RealtimeClients.Set(float64(n))
	}
	return ok
}

func (g *Gateway) readPump(c *client) {
	defer func() {
		if g.unregister(c) {
			g.logger.Debug("realtime client disconnected", "client_id", c.info.ID)
			g.broadcastCount()
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Debug("realtime read error", "client_id", c.info.ID, "error", err)
			}
			return
		}
		g.handle(c, msg)
	}
}

func (g *Gateway) handle(c *client, msg Message) {
	switch msg.Type {
	case TypeChat:
		var text string
		if err := json.Unmarshal(msg.Data, &text); err != nil || strings.TrimSpace(text) == "" {
			g.sendTo(c, TypeError, "chat data must be a non-empty string")
			return
		}
		g.Broadcast(TypeChat, ChatMessage{
			From:    c.info.ID,
			UserID:  c.info.UserID,
			Message: text,
			SentAt:  time.Now().UTC(),
		})
	case TypePing:
		g.sendTo(c, TypePong, nil)
	default:
		g.sendTo(c, TypeError, "unknown message type")
	}
}

func (g *Gateway) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(msgType string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(Message{Type: msgType, Data: data})
}

// enqueue drops clients whose buffer is full rather than blocking the sender.
func (g *Gateway) enqueue(targets []*client, frame []byte) {
	for _, c := range targets {
		select {
		case c.send <- frame:
		case <-c.done:
		default:
			g.logger.Warn("realtime client too slow, dropping", "client_id", c.info.ID)
			g.unregister(c)
		}
	}
}

func (g *Gateway) sendTo(c *client, msgType string, payload any) {
	frame, err := encode(msgType, payload)
	if err != nil {
		g.logger.Error("encoding realtime message", "type", msgType, "error", err)
		return
	}
	g.mu.RLock()
	_, ok := g.clients[c.info.ID]
	g.mu.RUnlock()
	if ok {
		g.enqueue([]*client{c}, frame)
	}
}

func (g *Gateway) snapshot(filter func(*client) bool) []*client {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*client, 0, len(g.clients))
	for _, c := range g.clients {
		if filter == nil || filter(c) {
			out = append(out, c)
		}
	}
	return out
}

// Broadcast sends a message to every connected client.
func (g *Gateway) Broadcast(msgType string, payload any) {
	frame, err := encode(msgType, payload)
	if err != nil {
		g.logger.Error("encoding realtime message", "type", msgType, "error", err)
		return
	}
	g.enqueue(g.snapshot(nil), frame)
}

// PublishToUser sends a message to every connection of one user.
func (g *Gateway) PublishToUser(userID int64, msgType string, payload any) {
	if userID == 0 {
		return
	}
	frame, err := encode(msgType, payload)
	if err != nil {
		g.logger.Error("encoding realtime message", "type", msgType, "error", err)
		return
	}
	g.enqueue(g.snapshot(func(c *client) bool { return c.info.UserID == userID }), frame)
}

func (g *Gateway) broadcastCount() {
	g.Broadcast(TypeConnections, map[string]int{"count": g.Count()})
}

// Count returns the number of connected clients.
func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// Clients returns a copy of the connected clients' metadata.
func (g *Gateway) Clients() []ClientInfo {
	cs := g.snapshot(nil)
	out := make([]ClientInfo, len(cs))
	for i, c := range cs {
		out[i] = c.info
	}
	return out
}

// Close disconnects every client.
func (g *Gateway) Close() {
	for _, c := range g.snapshot(nil) {
		g.unregister(c)
	}
}

func requestToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Bot:
		return "bot"
	default:
		return "desktop"
	}
}
