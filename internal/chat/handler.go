package chat

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ietfeiheh2016/smilecare-dental-website/internal/security"
	"github.com/ietfeiheh2016/smilecare-dental-website/pkg/logging"
)

// Handler exposes the chat HTTP surface.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates the chat handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// historyEntry mirrors the Gemini-style history the widget sends:
// {"role": "user", "parts": [{"text": "..."}]}.
type historyEntry struct {
	Role  string        `json:"role"`
	Parts []historyPart `json:"parts"`
}

type historyPart struct {
	Text string `json:"text"`
}

type chatRequest struct {
	Message             string         `json:"message"`
	ConversationHistory []historyEntry `json:"conversationHistory"`
}

type chatResponse struct {
	Response    string `json:"response"`
	Intent      Intent `json:"intent"`
	IsEmergency bool   `json:"isEmergency"`
	Timestamp   string `json:"timestamp"`
}

// HandleChat serves POST /chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "invalid request body",
		})
		return
	}

	validation := security.ValidateChatMessage(req.Message)
	if !validation.IsValid {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid message content",
			"details": validation.Errors,
		})
		return
	}

	message := security.SanitizeMessage(req.Message)
	reply := h.svc.Respond(r.Context(), message, flattenHistory(req.ConversationHistory))

	h.writeJSON(w, http.StatusOK, chatResponse{
		Response:    reply.Response,
		Intent:      reply.Intent,
		IsEmergency: reply.IsEmergency,
		Timestamp:   reply.Timestamp.Format(time.RFC3339),
	})
}

// flattenHistory converts wire-format history into model messages,
// dropping empty turns.
func flattenHistory(entries []historyEntry) []Message {
	var history []Message
	for _, e := range entries {
		for _, p := range e.Parts {
			if p.Text == "" {
				continue
			}
			history = append(history, Message{Role: e.Role, Text: p.Text})
		}
	}
	return history
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("chat: failed to encode response", "error", err)
	}
}
