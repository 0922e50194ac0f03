package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/app/chat"
	"taskboard/internal/middleware"
	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const opTimeout = 5 * time.Second

type frame struct {
	Event   string          `json:"event"`
	BoardID string          `json:"boardId"`
	Data    json.RawMessage `json:"data"`
}

type roomPayload struct {
	BoardID string `json:"boardId"`
}

type chatPayload struct {
	BoardID string `json:"boardId"`
	Message string `json:"message"`
}

func (h *Hub) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// @Summary Realtime board channel
// @Description Upgrades to a websocket. The token comes from the token query parameter or a bearer header.
// @Tags Realtime
// @Param token query string false "JWT"
// @Success 101
// @Failure 401 {object} apierrors.JsonErr
// @Router /ws [get]
func (h *Hub) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		h.logger.Warnw("WebSocket connection rejected: token missing", "client_ip", c.ClientIP())
		apierrors.Respond(c, apierrors.New(apierrors.ErrUnauthenticated, "No token provided"))
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.logger.Warnw("WebSocket connection rejected: invalid token", "client_ip", c.ClientIP())
		apierrors.Respond(c, err)
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("Failed to upgrade connection", "user_id", user.ID, "error", err)
		return
	}

	client := newClient(h, conn, user.ID)
	if !submit(h, h.register, client) {
		conn.Close()
		return
	}
	h.logger.Infow("WebSocket connection established",
		"client_id", client.ID,
		"user_id", client.UserID,
		"client_ip", c.ClientIP(),
	)

	go client.writePump()
	client.readPump()
}

func (h *Hub) dispatch(c *Client, raw []byte) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		h.logger.Warnw("Malformed frame", "client_id", c.ID, "error", err)
		h.sendError(c, "", "Malformed frame")
		return
	}

	switch f.Event {
	case EventJoinBoard:
		h.handleJoin(c, f)
	case EventLeaveBoard:
		if boardID := roomOf(f); boardID != "" {
			submit(h, h.leave, roomRequest{client: c, room: boardID})
		}
	case chat.EventChatMessage:
		h.handleChat(c, f)
	case "task-created", "task-updated", "task-moved", "task-deleted":
		h.logger.Warnw("Ignoring client task event", "event", f.Event, "user_id", c.UserID)
	default:
		h.logger.Debugw("Unknown event", "event", f.Event, "user_id", c.UserID)
	}
}

func (h *Hub) handleJoin(c *Client, f frame) {
	boardID := roomOf(f)
	if boardID == "" {
		h.sendError(c, "", "boardId is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	ok, err := h.boards.IsMember(ctx, boardID, c.UserID)
	if err != nil {
		h.logger.Warnw("Join rejected", "board_id", boardID, "user_id", c.UserID, "error", err)
		h.sendError(c, boardID, apierrors.Build(err).ErrDetails.Message)
		return
	}
	if !ok {
		h.sendError(c, boardID, "You are not a member of this board")
		return
	}

	ack, err := json.Marshal(struct {
		Event   string      `json:"event"`
		BoardID string      `json:"boardId"`
		Data    roomPayload `json:"data"`
	}{EventJoinedBoard, boardID, roomPayload{BoardID: boardID}})
	if err != nil {
		return
	}
	submit(h, h.join, roomRequest{client: c, room: boardID, ack: ack})
}

func (h *Hub) handleChat(c *Client, f frame) {
	var p chatPayload
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, &p); err != nil {
			h.sendError(c, f.BoardID, "Malformed chat message")
			return
		}
	}
	if p.BoardID == "" {
		p.BoardID = f.BoardID
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if _, err := h.chat.Post(ctx, p.BoardID, c.UserID, p.Message); err != nil {
		h.logger.Warnw("Chat message rejected", "board_id", p.BoardID, "user_id", c.UserID, "error", err)
		message := "Failed to send message"
		var domainErr *apierrors.Error
		if errors.As(err, &domainErr) {
			message = domainErr.Message
		}
		h.sendError(c, p.BoardID, message)
	}
}

// roomOf reads the board id from a bare string payload, a {boardId} object or
// the frame itself.
func roomOf(f frame) string {
	if len(f.Data) > 0 {
		var s string
		if err := json.Unmarshal(f.Data, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var p roomPayload
		if err := json.Unmarshal(f.Data, &p); err == nil && p.BoardID != "" {
			return strings.TrimSpace(p.BoardID)
		}
	}
	return strings.TrimSpace(f.BoardID)
}
