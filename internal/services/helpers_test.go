package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"llmchat-backend/internal/models"
	"llmchat-backend/internal/sse"
)

// ─── Fake user store ───

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

// ─── Fake session store ───

type fakeSessionStore struct {
	mu     sync.Mutex
	tokens map[string]int64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{tokens: make(map[string]int64)}
}

func (f *fakeSessionStore) SaveRefreshToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = userID
	return nil
}

func (f *fakeSessionStore) ResolveRefreshToken(ctx context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	if !ok {
		return 0, errors.New("token not found")
	}
	return id, nil
}

func (f *fakeSessionStore) DeleteRefreshToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

// ─── Fake conversation store ───

type fakeConversationStore struct {
	mu                sync.Mutex
	nextID            int64
	conversations     map[int64]*models.Conversation
	messages          []models.Message
	failAssistantSave bool
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{conversations: make(map[int64]*models.Conversation)}
}

func (f *fakeConversationStore) Create(ctx context.Context, conv *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	conv.ID = f.nextID
	conv.CreatedAt = time.Now()
	clone := *conv
	f.conversations[conv.ID] = &clone
	return nil
}

func (f *fakeConversationStore) GetByID(ctx context.Context, id, userID int64) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	clone := *conv
	return &clone, nil
}

func (f *fakeConversationStore) UpdateParams(ctx context.Context, id int64, topP, temperature float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return pgx.ErrNoRows
	}
	conv.TopP = topP
	conv.Temperature = temperature
	return nil
}

func (f *fakeConversationStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAssistantSave && msg.Role == models.RoleAssistant {
		return errors.New("insert failed")
	}
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeConversationStore) snapshotMessages() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *fakeConversationStore) conversationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conversations)
}

// ─── Fake completion streamer ───

// fakeStreamer mirrors LLMService frame ordering: content deltas, then
// either one error frame, or the completion callback followed by the
// metadata frame. rawFrames are emitted verbatim before the terminal frame.
type fakeStreamer struct {
	deltas    []string
	rawFrames []string
	err       error
	latency   int64

	mu       sync.Mutex
	lastTopP float64
	lastTemp float64
}

func (f *fakeStreamer) StreamResponse(ctx context.Context, message string, history []models.ChatMessage, topP, temperature float64, onComplete CompletionFunc) <-chan string {
	f.mu.Lock()
	f.lastTopP = topP
	f.lastTemp = temperature
	f.mu.Unlock()

	frames := make(chan string)
	go func() {
		defer close(frames)

		var full strings.Builder
		for _, d := range f.deltas {
			full.WriteString(d)
			frames <- sse.ContentFrame(d)
		}
		for _, raw := range f.rawFrames {
			frames <- raw
		}
		if f.err != nil {
			frames <- sse.ErrorFrame(f.err)
			return
		}
		if onComplete != nil {
			onComplete(full.String(), f.latency)
		}
		frames <- sse.MetadataFrame(f.latency)
	}()
	return frames
}

func collectFrames(ch <-chan string) []string {
	frames := make([]string, 0)
	for frame := range ch {
		frames = append(frames, frame)
	}
	return frames
}
