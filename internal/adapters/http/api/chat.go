package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/tianji/internal/adapters/oracle"
	"github.com/okian/tianji/pkg/logger"
)

// Chat responses use a single error field rather than the code/message pair
// of the other endpoints; the front end reads it as is.
const (
	msgMessageRequired = "Message is required"
	msgInternalError   = "Internal server error"
)

// ChatHandler proxies conversation turns to the oracle.
type ChatHandler struct {
	deps ChatDependencies
	log  logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(deps ChatDependencies, log logger.Logger) *ChatHandler {
	return &ChatHandler{deps: deps, log: log}
}

type chatRequest struct {
	Message        string           `json:"message"`
	History        []oracle.Message `json:"history"`
	ConversationID string           `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type chatErrorResponse struct {
	Error string `json:"error"`
}

type chatStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandlePostChat handles POST /api/chat.
func (h *ChatHandler) HandlePostChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatErrorResponse{Error: msgMessageRequired})
		return
	}
	// Only a missing or empty message is refused; whitespace is passed on.
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, chatErrorResponse{Error: msgMessageRequired})
		return
	}

	conversationID := req.ConversationID
	if _, err := uuid.Parse(conversationID); err != nil {
		conversationID = uuid.NewString()
	}
	ctx := logger.WithFields(r.Context(), logger.String("conversation_id", conversationID))

	reply, err := h.deps.Converse(ctx, conversationID, req.Message, req.History)
	if err != nil {
		if errors.Is(err, oracle.ErrEmptyMessage) {
			writeJSON(w, http.StatusBadRequest, chatErrorResponse{Error: msgMessageRequired})
			return
		}
		h.log.Error(ctx, "chat failed", logger.Error(Wrap("api.post_chat", err)))
		writeJSON(w, http.StatusInternalServerError, chatErrorResponse{Error: msgInternalError})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Message: reply, ConversationID: conversationID})
}

// HandleChatStatus handles GET /api/chat.
func (h *ChatHandler) HandleChatStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, chatStatusResponse{Status: "ok", Message: "Chat API is running"})
}
