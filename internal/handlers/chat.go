package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"llmchat-backend/internal/middleware"
	"llmchat-backend/internal/models"
	"llmchat-backend/internal/services"
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type conversationReader interface {
	GetByID(ctx context.Context, id, userID int64) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID int64, skip, limit int) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error)
}

type ChatHandler struct {
	users         userReader
	conversations conversationReader
	chatService   *services.ChatService
}

func NewChatHandler(users userReader, conversations conversationReader, chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		users:         users,
		conversations: conversations,
		chatService:   chatService,
	}
}

// Chat streams the completion back as text/event-stream. Once streaming has
// begun the response status is already committed, so upstream failures arrive
// as error frames inside the stream, and a client disconnect only stops
// writes: the frame channel is drained to completion either way.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "User not found", r))
		return
	}

	frames, err := h.chatService.StartChat(r.Context(), user, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)

	disconnected := false
	for frame := range frames {
		if disconnected {
			continue
		}
		if _, err := io.WriteString(w, frame); err != nil {
			disconnected = true
			continue
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	conversations, err := h.conversations.ListByUser(r.Context(), userID, skip, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list conversations", r))
		return
	}

	out := make([]models.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		out = append(out, models.NewConversationResponse(&conversations[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *ChatHandler) GetConversationHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid conversation ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	// Owner-scoped lookup: a conversation owned by someone else is
	// indistinguishable from a missing one.
	conv, err := h.conversations.GetByID(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Conversation not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load conversation", r))
		return
	}

	messages, err := h.conversations.ListMessages(r.Context(), conv.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load messages", r))
		return
	}

	out := make([]models.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, models.MessageResponse{
			Role:         m.Role,
			Content:      m.Content,
			ResponseTime: m.ResponseTime,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
