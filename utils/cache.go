package utils

import (
	"context"
	"log"
	"time"

	"receptionist/config"

	"github.com/go-redis/redis/v8"
)

// ConversationCacheClient is the Redis client backing the call transcript store.
var ConversationCacheClient *redis.Client

// InitRedis initializes the Redis client used for conversation history.
func InitRedis() {
	ConversationCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisConversationDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := ConversationCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Conversation): %v", err)
	}
}

// GetConversationCacheClient returns the conversation cache client.
func GetConversationCacheClient() *redis.Client {
	if ConversationCacheClient == nil {
		InitRedis()
	}
	return ConversationCacheClient
}
