package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"llmchat-backend/internal/models"
	"llmchat-backend/internal/sse"
)

const assistantSaveTimeout = 10 * time.Second

type conversationStore interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id, userID int64) (*models.Conversation, error)
	UpdateParams(ctx context.Context, id int64, topP, temperature float64) error
	AppendMessage(ctx context.Context, msg *models.Message) error
}

type completionStreamer interface {
	StreamResponse(ctx context.Context, message string, history []models.ChatMessage, topP, temperature float64, onComplete CompletionFunc) <-chan string
}

// ChatService runs the chat pipeline: resolve or create the conversation,
// persist the user turn, stream the completion, inject the conversation id
// into the metadata frame, and persist the assistant turn after the stream
// completes.
type ChatService struct {
	conversations conversationStore
	llm           completionStreamer
	logger        *zap.Logger
}

func NewChatService(conversations conversationStore, llm completionStreamer, logger *zap.Logger) *ChatService {
	return &ChatService{
		conversations: conversations,
		llm:           llm,
		logger:        logger,
	}
}

// StartChat resolves the conversation and the user turn synchronously, so a
// NotFound or persistence failure surfaces before any byte is streamed. The
// returned channel yields rewritten SSE frames until the stream ends.
func (s *ChatService) StartChat(ctx context.Context, user *models.User, req models.ChatRequest) (<-chan string, error) {
	conv, err := s.resolveConversation(ctx, user, req)
	if err != nil {
		return nil, err
	}

	// The user turn is recorded before the upstream call so it survives a
	// completion failure.
	userMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        req.Message,
	}
	if err := s.conversations.AppendMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	conversationID := conv.ID

	onComplete := func(content string, durationMs int64) {
		// The request context may already be torn down when the stream
		// finishes; the save gets its own deadline and the pool-backed
		// store handle. Failure is logged and swallowed: the client's
		// stream has already completed.
		saveCtx, cancel := context.WithTimeout(context.Background(), assistantSaveTimeout)
		defer cancel()

		responseTime := durationMs
		msg := &models.Message{
			ConversationID: conversationID,
			Role:           models.RoleAssistant,
			Content:        content,
			ResponseTime:   &responseTime,
		}
		if err := s.conversations.AppendMessage(saveCtx, msg); err != nil {
			s.logger.Error("failed to save assistant message",
				zap.Int64("conversation_id", conversationID),
				zap.Error(err))
		}
	}

	// A client disconnect must not cancel upstream consumption or the
	// completion callback.
	upstream := s.llm.StreamResponse(context.WithoutCancel(ctx), req.Message, req.History, conv.TopP, conv.Temperature, onComplete)

	out := make(chan string)
	go func() {
		defer close(out)
		for frame := range upstream {
			out <- sse.InjectConversationID(frame, conversationID)
		}
	}()

	return out, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, user *models.User, req models.ChatRequest) (*models.Conversation, error) {
	if req.ConversationID != nil {
		conv, err := s.conversations.GetByID(ctx, *req.ConversationID, user.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &NotFoundError{Message: "Conversation not found"}
			}
			return nil, err
		}

		if req.TopP != nil || req.Temperature != nil {
			conv.TopP = models.ClampTopP(req.TopP, conv.TopP)
			conv.Temperature = models.ClampTemperature(req.Temperature, conv.Temperature)
			if err := s.conversations.UpdateParams(ctx, conv.ID, conv.TopP, conv.Temperature); err != nil {
				return nil, err
			}
		}
		return conv, nil
	}

	conv := &models.Conversation{
		UserID:      user.ID,
		Title:       conversationTitle(req.Message),
		TopP:        models.ClampTopP(req.TopP, user.DefaultTopP),
		Temperature: models.ClampTemperature(req.Temperature, user.DefaultTemperature),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// conversationTitle derives a title from the first five whitespace-split
// tokens of the opening message.
func conversationTitle(message string) string {
	words := strings.Fields(message)
	if len(words) > 5 {
		words = words[:5]
	}
	title := strings.Join(words, " ")
	if title == "" {
		return "New Chat"
	}
	return title
}
