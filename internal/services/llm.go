package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"llmchat-backend/internal/models"
	"llmchat-backend/internal/sse"
)

// CompletionFunc receives the full concatenated response text and the
// elapsed latency once a stream finishes normally.
type CompletionFunc func(content string, durationMs int64)

// LLMService streams chat completions from an OpenAI-compatible endpoint.
// No retries: a transport failure surfaces as a single error frame and the
// stream ends.
type LLMService struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewLLMService(baseURL, apiKey, model string, logger *zap.Logger) *LLMService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &LLMService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// StreamResponse opens a streaming completion for history + the new user
// message and returns a channel of SSE frames: content deltas, then either
// one metadata frame (after onComplete has run) or one error frame. The
// channel is closed when the stream ends.
func (s *LLMService) StreamResponse(
	ctx context.Context,
	message string,
	history []models.ChatMessage,
	topP, temperature float64,
	onComplete CompletionFunc,
) <-chan string {
	frames := make(chan string)

	go func() {
		defer close(frames)

		messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
		for _, m := range history {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    m.Role,
				Content: m.Content,
			})
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: message,
		})

		req := openai.ChatCompletionRequest{
			Model:       s.model,
			Messages:    messages,
			Stream:      true,
			TopP:        float32(topP),
			Temperature: float32(temperature),
		}

		start := time.Now()

		stream, err := s.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			s.logger.Error("failed to open completion stream", zap.Error(err))
			frames <- sse.ErrorFrame(err)
			return
		}
		defer stream.Close()

		var full strings.Builder
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				s.logger.Error("completion stream failed", zap.Error(err))
				frames <- sse.ErrorFrame(err)
				return
			}

			if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
				delta := resp.Choices[0].Delta.Content
				full.WriteString(delta)
				frames <- sse.ContentFrame(delta)
			}
		}

		durationMs := time.Since(start).Milliseconds()

		if onComplete != nil {
			onComplete(full.String(), durationMs)
		}

		frames <- sse.MetadataFrame(durationMs)
	}()

	return frames
}
