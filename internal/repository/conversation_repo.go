package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"llmchat-backend/internal/models"
)

// ConversationRepo owns conversations and their messages. Every conversation
// read is scoped by the owning user; a row owned by someone else scans as
// pgx.ErrNoRows, not as a permission error.
type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	query := `
		INSERT INTO conversations (user_id, title, top_p, temperature)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		conv.UserID, conv.Title, conv.TopP, conv.Temperature,
	).Scan(&conv.ID, &conv.CreatedAt)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id, userID int64) (*models.Conversation, error) {
	conv := &models.Conversation{}
	query := `SELECT id, user_id, title, top_p, temperature, created_at
		FROM conversations WHERE id = $1 AND user_id = $2`

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&conv.ID, &conv.UserID, &conv.Title, &conv.TopP, &conv.Temperature, &conv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *ConversationRepo) UpdateParams(ctx context.Context, id int64, topP, temperature float64) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE conversations SET top_p = $1, temperature = $2 WHERE id = $3",
		topP, temperature, id,
	)
	return err
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]models.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, top_p, temperature, created_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`,
		userID, skip, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID, &conv.UserID, &conv.Title, &conv.TopP, &conv.Temperature, &conv.CreatedAt,
		); err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

func (r *ConversationRepo) AppendMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, role, content, response_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		msg.ConversationID, msg.Role, msg.Content, msg.ResponseTime,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *ConversationRepo) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, role, content, response_time, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.ResponseTime, &msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
