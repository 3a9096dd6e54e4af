package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/infrastructure/resilience"
)

const keyPrefix = "archivo:token:revoked:"

// RevocationStore keeps logged-out token ids until the token would have expired anyway.
type RevocationStore struct {
	client  *goredis.Client
	breaker *resilience.Breakers
	now     func() time.Time
}

func NewRevocationStore(client *goredis.Client) *RevocationStore {
	return &RevocationStore{client: client, now: time.Now}
}

// WithBreaker guards every Redis call with a circuit breaker so an outage fails fast.
func (s *RevocationStore) WithBreaker(b *resilience.Breakers) *RevocationStore {
	s.breaker = b
	return s
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.breaker.Execute(ctx, "redis.revoke", func(ctx context.Context) error {
		if err := s.client.Set(ctx, keyPrefix+tokenID, 1, ttl).Err(); err != nil {
			return domain.WrapError(domain.ErrTemporary, "revoke token", err)
		}
		return nil
	})
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var n int64
	err := s.breaker.Execute(ctx, "redis.is_revoked", func(ctx context.Context) error {
		var err error
		n, err = s.client.Exists(ctx, keyPrefix+tokenID).Result()
		if err != nil {
			return domain.WrapError(domain.ErrTemporary, "check token revocation", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
