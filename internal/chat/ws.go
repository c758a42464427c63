package chat

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ietfeiheh2016/smilecare-dental-website/internal/security"
	"golang.org/x/net/websocket"
)

// InboundMessage is what the widget sends over the WebSocket.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what the server sends to the widget.
type OutboundMessage struct {
	Type        string `json:"type"` // "session", "typing", "message", "pong", "error"
	Text        string `json:"text,omitempty"`
	Intent      Intent `json:"intent,omitempty"`
	IsEmergency bool   `json:"isEmergency,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// HandleWebSocket upgrades to WebSocket and runs the widget's
// real-time conversation. History lives on the connection only; when
// the socket closes the conversation is gone.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "session",
		SessionID: sessionID,
	})

	h.logger.Info("chat: websocket opened", "session_id", sessionID)

	var history []Message
	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat: websocket closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		validation := security.ValidateChatMessage(msg.Text)
		if !validation.IsValid {
			_ = websocket.JSON.Send(conn, OutboundMessage{
				Type: "error",
				Text: strings.Join(validation.Errors, "; "),
			})
			continue
		}

		message := security.SanitizeMessage(msg.Text)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})

		reply := h.svc.Respond(r.Context(), message, history)
		history = append(history,
			Message{Role: RoleUser, Text: message},
			Message{Role: RoleModel, Text: reply.Response},
		)

		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:        "message",
			Text:        reply.Response,
			Intent:      reply.Intent,
			IsEmergency: reply.IsEmergency,
			Timestamp:   reply.Timestamp.Format(time.RFC3339),
		})
	}
}
