package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/cryptox"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "ermil:session:"

// RedisStore keeps sessions in Redis under a key TTL. Payloads are sealed
// since they carry identity tokens.
type RedisStore struct {
	client *backend.Client
	sealer *cryptox.Sealer
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedisStore(client *backend.Client, sealer *cryptox.Sealer, ttl time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		sealer: sealer,
		prefix: defaultPrefix,
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var sess Session
	if err := s.sealer.Open(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	return &sess, nil
}

// Save writes the session and restarts its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	data, err := s.sealer.Seal(sess)
	if err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
