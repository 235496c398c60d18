package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/liamwears/popular/internal/listing"
)

// RedisClient wraps the redis client
type RedisClient struct {
	*redis.Client
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping Redis: %w", err)
	}

	log.Println("Successfully connected to Redis")

	return &RedisClient{Client: client}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.Client != nil {
		log.Println("Closing Redis connection")
		return r.Client.Close()
	}
	return nil
}

// Health checks the Redis connection health
func (r *RedisClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.Ping(ctx).Err()
}

// RedisScreenStore keeps screen state in Redis as JSON
type RedisScreenStore struct {
	client *RedisClient
	ttl    time.Duration
}

// NewRedisScreenStore creates a new screen store
func NewRedisScreenStore(client *RedisClient, ttl time.Duration) *RedisScreenStore {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return &RedisScreenStore{
		client: client,
		ttl:    ttl,
	}
}

func screenKey(id uuid.UUID) string {
	return fmt.Sprintf("screen:%s", id.String())
}

// Save stores the state of a screen
func (s *RedisScreenStore) Save(ctx context.Context, id uuid.UUID, state listing.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode screen state: %w", err)
	}
	return s.client.Set(ctx, screenKey(id), payload, s.ttl).Err()
}

// Load retrieves the state of a screen
func (s *RedisScreenStore) Load(ctx context.Context, id uuid.UUID) (listing.State, error) {
	key := screenKey(id)

	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return listing.State{}, listing.ErrScreenNotFound
	}
	if err != nil {
		return listing.State{}, fmt.Errorf("failed to get screen: %w", err)
	}

	var state listing.State
	if err := json.Unmarshal(val, &state); err != nil {
		return listing.State{}, fmt.Errorf("invalid screen state: %w", err)
	}

	// Refresh TTL on access
	s.client.Expire(ctx, key, s.ttl)

	return state, nil
}

// Delete removes a screen
func (s *RedisScreenStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, screenKey(id)).Err()
}
