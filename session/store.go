package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis failure other than a cache miss.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrInvalidRecord is returned for empty subjects, types, or token ids.
var ErrInvalidRecord = errors.New("invalid session record")

// DefaultPrefix is the key namespace used when NewStore receives an empty prefix.
const DefaultPrefix = "token"

// RefreshField is the hash field whose writes carry the key expiry.
const RefreshField = "refresh"

const recordActiveScript = `
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
local ttl = tonumber(ARGV[3])
if ARGV[1] == ARGV[4] and ttl > 0 then
  redis.call("PEXPIRE", KEYS[1], ttl)
end
return 1
`

var recordActiveLua = redis.NewScript(recordActiveScript)

// Store is the Redis-backed session record store. It is safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] backed by the given Redis client. prefix sets the key
// namespace and defaults to [DefaultPrefix].
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

// Key returns the Redis key holding subject's record.
func (s *Store) Key(subject string) string {
	return s.prefix + ":" + subject
}

// RecordActive marks tokenID as the only active token of tokenType for subject.
// For refresh writes with ttl > 0 the record's expiry is reset to ttl in the same
// script; other writes leave the expiry untouched.
//
//	Performance: 1 EVALSHA.
func (s *Store) RecordActive(ctx context.Context, subject, tokenType, tokenID string, ttl time.Duration) error {
	if subject == "" || tokenType == "" || tokenID == "" {
		return ErrInvalidRecord
	}

	err := recordActiveLua.Run(ctx, s.redis,
		[]string{s.Key(subject)},
		tokenType, tokenID, ttl.Milliseconds(), RefreshField,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsActive reports whether tokenID is the active token of tokenType for subject.
// A missing record or field is reported as inactive, not as an error.
//
//	Performance: 1 HGET.
func (s *Store) IsActive(ctx context.Context, subject, tokenType, tokenID string) (bool, error) {
	stored, err := s.redis.HGet(ctx, s.Key(subject), tokenType).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return tokenID != "" && stored == tokenID, nil
}

// Revoke drops the active ids for the given token types. Revoking the refresh type
// deletes the whole record. Revoke is idempotent.
//
//	Performance: 1 MULTI/EXEC with HDEL and an optional DEL.
func (s *Store) Revoke(ctx context.Context, subject string, tokenTypes ...string) error {
	if len(tokenTypes) == 0 {
		return nil
	}

	key := s.Key(subject)
	dropKey := false
	for _, t := range tokenTypes {
		if t == RefreshField {
			dropKey = true
		}
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, tokenTypes...)
		if dropKey {
			pipe.Del(ctx, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns subject's current record. A subject without a record yields an empty
// [Record] and no error.
//
//	Performance: 1 MULTI/EXEC with HGETALL and PTTL.
func (s *Store) Get(ctx context.Context, subject string) (Record, error) {
	key := s.Key(subject)

	var (
		fields *redis.MapStringStringCmd
		ttl    *redis.DurationCmd
	)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec := Record{Subject: subject, Tokens: fields.Val()}
	if rec.Tokens == nil {
		rec.Tokens = map[string]string{}
	}
	if d := ttl.Val(); d > 0 {
		rec.TTL = d
	}
	return rec, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
