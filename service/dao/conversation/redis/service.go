package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viant/turnflow/model/state"
	"github.com/viant/turnflow/service/dao"
	"github.com/viant/turnflow/service/dao/criteria"
)

// Config represents redis store settings
type Config struct {
	Addr     string        `json:"addr" yaml:"addr"`
	Password string        `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int           `json:"db" yaml:"db"`
	Prefix   string        `json:"prefix" yaml:"prefix"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
}

// DefaultConfig returns local redis settings
func DefaultConfig() Config {
	return Config{Addr: "localhost:6379", Prefix: "turnflow"}
}

// Service stores each conversation as a JSON value; a set indexes ids for List
type Service struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ dao.Service[string, state.Conversation] = (*Service)(nil)

// Save persists a conversation and refreshes its TTL
func (s *Service) Save(ctx context.Context, conversation *state.Conversation) error {
	if conversation == nil {
		return dao.ErrNilEntity
	}
	if conversation.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(conversation.ID), data, s.ttl)
		pipe.SAdd(ctx, s.indexKey(), conversation.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", conversation.ID, err)
	}
	return nil
}

// Load retrieves a conversation
func (s *Service) Load(ctx context.Context, id string) (*state.Conversation, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("conversation %s: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	var conversation state.Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation %s: %w", id, err)
	}
	return &conversation, nil
}

// Delete removes a conversation
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if deleted.Val() == 0 {
		return fmt.Errorf("conversation %s: %w", id, dao.ErrNotFound)
	}
	return nil
}

// List returns conversations matching parameters; expired ids are pruned from the index
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*state.Conversation, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	var result []*state.Conversation
	var expired []interface{}
	for i, value := range values {
		text, ok := value.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var conversation state.Conversation
		if err := json.Unmarshal([]byte(text), &conversation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversation %s: %w", ids[i], err)
		}
		if !criteria.FilterByFlow(conversation.ActiveFlowID, parameters) {
			continue
		}
		result = append(result, &conversation)
	}
	if len(expired) > 0 {
		if err := s.client.SRem(ctx, s.indexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune conversation index: %w", err)
		}
	}
	return result, nil
}

// Close closes the underlying client
func (s *Service) Close() error {
	return s.client.Close()
}

func (s *Service) key(id string) string {
	return s.prefix + ":conversation:" + id
}

func (s *Service) indexKey() string {
	return s.prefix + ":conversations"
}

// New connects to redis and verifies the connection
func New(ctx context.Context, config Config) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", config.Addr, err)
	}
	return NewWithClient(client, config.Prefix, config.TTL), nil
}

// NewWithClient creates a store using an existing client
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Service {
	if prefix == "" {
		prefix = DefaultConfig().Prefix
	}
	return &Service{client: client, prefix: prefix, ttl: ttl}
}
