package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type State int

const (
	// Acquired means the caller owns the key and must Complete or Release it.
	Acquired State = iota
	// InFlight means another request holds the key and has not finished.
	InFlight
	// Done means a previous request completed; its result is returned.
	Done
)

const pending = "\x00pending"

type Keeper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Claim(ctx context.Context, key string) (State, string, error)
	Complete(ctx context.Context, key, result string) error
	Release(ctx context.Context, key string) error
}

type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

func RequestKey(scope, key string) string {
	return fmt.Sprintf("idem:req:%s:%s", scope, key)
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}

	return !ok, nil
}

func (s *Store) Claim(ctx context.Context, key string) (State, string, error) {
	ok, err := s.rdb.SetNX(ctx, key, pending, s.ttl).Result()
	if err != nil {
		return Acquired, "", err
	}
	if ok {
		return Acquired, "", nil
	}
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return s.Claim(ctx, key)
	}
	if err != nil {
		return Acquired, "", err
	}
	if v == pending {
		return InFlight, "", nil
	}
	return Done, v, nil
}

func (s *Store) Complete(ctx context.Context, key, result string) error {
	return s.rdb.Set(ctx, key, result, s.ttl).Err()
}

func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
