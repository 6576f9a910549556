package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"receptionist/models"

	"github.com/go-redis/redis/v8"
)

// Store keeps the per-call transcript. Append failures are side effects the
// pipeline logs and moves past; they must never abort utterance processing.
type Store interface {
	Append(ctx context.Context, msg models.ChatMessage) error
	History(ctx context.Context, callID string) ([]models.ChatMessage, error)
	// Summary renders the transcript as "role: text" lines for prompt context.
	Summary(ctx context.Context, callID string) ([]string, error)
	Clear(ctx context.Context, callID string) error
}

const historyPrefix = "call:history:"

// RedisStore implements Store on a Redis list with a per-call TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Append(ctx context.Context, msg models.ChatMessage) error {
	key := historyPrefix + msg.CallID
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, key, b).Err(); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

func (s *RedisStore) History(ctx context.Context, callID string) ([]models.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, historyPrefix+callID, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	out := make([]models.ChatMessage, 0, len(raw))
	for _, r := range raw {
		var m models.ChatMessage
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisStore) Summary(ctx context.Context, callID string) ([]string, error) {
	history, err := s.History(ctx, callID)
	if err != nil {
		return nil, err
	}
	return summarize(history), nil
}

func (s *RedisStore) Clear(ctx context.Context, callID string) error {
	return s.client.Del(ctx, historyPrefix+callID).Err()
}

// MemoryStore implements Store in-process, for tests and databaseless runs.
type MemoryStore struct {
	mu      sync.Mutex
	history map[string][]models.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{history: make(map[string][]models.ChatMessage)}
}

func (s *MemoryStore) Append(ctx context.Context, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[msg.CallID] = append(s.history[msg.CallID], msg)
	return nil
}

func (s *MemoryStore) History(ctx context.Context, callID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.history[callID]))
	copy(out, s.history[callID])
	return out, nil
}

func (s *MemoryStore) Summary(ctx context.Context, callID string) ([]string, error) {
	history, err := s.History(ctx, callID)
	if err != nil {
		return nil, err
	}
	return summarize(history), nil
}

func (s *MemoryStore) Clear(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, callID)
	return nil
}

func summarize(history []models.ChatMessage) []string {
	out := make([]string, 0, len(history))
	for _, m := range history {
		out = append(out, m.Role+": "+m.Text)
	}
	return out
}
