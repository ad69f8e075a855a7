package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Conversation struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Title       string    `json:"title"`
	TopP        float64   `json:"top_p"`
	Temperature float64   `json:"temperature"`
	CreatedAt   time.Time `json:"created_at"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	ResponseTime   *int64    `json:"response_time"` // milliseconds, assistant turns only
	CreatedAt      time.Time `json:"created_at"`
}

// ChatMessage is a single turn of client-supplied history, in the upstream
// completion API's role/content shape.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message        string        `json:"message"`
	History        []ChatMessage `json:"history"`
	ConversationID *int64        `json:"conversation_id"`
	TopP           *float64      `json:"top_p"`
	Temperature    *float64      `json:"temperature"`
}

type ConversationResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	CreatedAt   string  `json:"created_at"`
	TopP        float64 `json:"top_p"`
	Temperature float64 `json:"temperature"`
}

func NewConversationResponse(c *Conversation) ConversationResponse {
	return ConversationResponse{
		ID:          c.ID,
		Title:       c.Title,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		TopP:        c.TopP,
		Temperature: c.Temperature,
	}
}

type MessageResponse struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	ResponseTime *int64 `json:"response_time"`
}
