package websocket

import (
	"context"
	"encoding/json"

	"taskboard/internal/app/chat"
	"taskboard/internal/models"
	"taskboard/internal/utils"

	"go.uber.org/zap"
)

const (
	EventJoinBoard   = "join-board"
	EventLeaveBoard  = "leave-board"
	EventJoinedBoard = "joined-board"
	EventError       = "error"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type MembershipChecker interface {
	IsMember(ctx context.Context, boardID, userID string) (bool, error)
}

type ChatPoster interface {
	Post(ctx context.Context, boardID, userID, text string) (*chat.MessageView, error)
}

type roomRequest struct {
	client *Client
	room   string
	ack    []byte
}

type directMessage struct {
	client  *Client
	payload []byte
}

// Hub owns every room and client. All state is touched only from Run.
type Hub struct {
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	join       chan roomRequest
	leave      chan roomRequest
	direct     chan directMessage
	done       chan struct{}
	events     <-chan utils.Event
	auth       Authenticator
	boards     MembershipChecker
	chat       ChatPoster
	origins    []string
	logger     *zap.SugaredLogger
}

func NewHub(logger *zap.Logger, eventBus *utils.EventBus, auth Authenticator, boards MembershipChecker, chat ChatPoster, origins []string) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan roomRequest),
		leave:      make(chan roomRequest),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
		events:     eventBus.SubscribeCh(),
		auth:       auth,
		boards:     boards,
		chat:       chat,
		origins:    origins,
		logger:     logger.Sugar(),
	}
}

// Run serves hub operations until ctx is cancelled, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket Hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Infow("Client connected",
				"client_id", client.ID,
				"user_id", client.UserID,
				"clients_count", len(h.clients),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Infow("Client disconnected",
					"client_id", client.ID,
					"clients_count", len(h.clients),
				)
			}

		case req := <-h.join:
			if _, ok := h.clients[req.client]; !ok {
				continue
			}
			room, ok := h.rooms[req.room]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[req.room] = room
			}
			room[req.client] = struct{}{}
			req.client.rooms[req.room] = struct{}{}
			h.deliver(req.client, req.ack)

		case req := <-h.leave:
			h.removeFromRoom(req.client, req.room)

		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.deliver(msg.client, msg.payload)
			}

		case event := <-h.events:
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event utils.Event) {
	room := h.rooms[event.Room]
	if len(room) == 0 {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorw("Failed to encode event", "event", event.Event, "board_id", event.Room, "error", err)
		return
	}
	for client := range room {
		h.deliver(client, payload)
	}
}

// deliver queues payload without blocking. A client that cannot keep up is dropped.
func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.logger.Warnw("Dropping slow client", "client_id", client.ID, "user_id", client.UserID)
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	for room := range client.rooms {
		h.removeFromRoom(client, room)
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) removeFromRoom(client *Client, roomID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(room, client)
	delete(client.rooms, roomID)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// submit hands an operation to Run. It reports false once the hub has stopped.
func submit[T any](h *Hub, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leaveAll(c *Client) {
	submit(h, h.unregister, c)
}

func (h *Hub) sendTo(c *Client, event, room string, data interface{}) {
	payload, err := json.Marshal(utils.Event{Event: event, Room: room, Data: data})
	if err != nil {
		h.logger.Errorw("Failed to encode reply", "event", event, "error", err)
		return
	}
	submit(h, h.direct, directMessage{client: c, payload: payload})
}

func (h *Hub) sendError(c *Client, room, message string) {
	h.sendTo(c, EventError, room, map[string]string{"message": message})
}
