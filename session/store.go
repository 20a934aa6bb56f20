package session

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meshtrust/meshauth/internal"
)

// ErrRedisUnavailable is an exported constant or variable used by the authorization engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultPrefix is the Redis key namespace used when none is configured.
const DefaultPrefix = "ms"

// Session binds an opaque session identifier to an access token value.
type Session struct {
	SessionID   string
	AccessToken string
}

// Store is a Redis-backed session store. Each entry carries a TTL equal to
// the access-token lifetime; a reverse index keyed by the access-token hash
// supports revocation when only the token half of the pair is known.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; empty selects [DefaultPrefix].
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) reverseKey(accessToken string) string {
	sum := internal.HashToken(accessToken)
	return s.prefix + ":a:" + hex.EncodeToString(sum[:])
}

// Save stores a fresh {sessionID -> accessToken} entry with the given TTL and
// returns the new [Session]. Every call generates a new random session
// identifier; saving the same access token twice yields two distinct sessions,
// of which the last written reverse index wins.
//
//	Performance: 1 Redis MULTI/EXEC (2 SETs).
func (s *Store) Save(ctx context.Context, accessToken string, ttl time.Duration) (Session, error) {
	if accessToken == "" {
		return Session{}, errors.New("empty access token")
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return Session{}, err
	}
	sessionID := sid.String()

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sessionID), accessToken, ttl)
		pipe.Set(ctx, s.reverseKey(accessToken), sessionID, ttl)
		return nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return Session{SessionID: sessionID, AccessToken: accessToken}, nil
}

// Validate reports whether sessionID currently maps to exactly the presented
// access token. Missing, expired, and superseded entries are all false, not
// errors; only Redis unavailability returns a non-nil error.
//
//	Performance: 1 Redis GET.
func (s *Store) Validate(ctx context.Context, sessionID, accessToken string) (bool, error) {
	if sessionID == "" || accessToken == "" {
		return false, nil
	}

	stored, err := s.redis.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(accessToken)) == 1, nil
}

// Delete revokes a session by its identifier. Deleting a missing session is a
// no-op.
//
//	Performance: 1 GET + 1 MULTI/EXEC.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	stored, err := s.redis.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.Del(ctx, s.reverseKey(stored))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteByAccessToken revokes the session bound to the given access token via
// the reverse index. Missing entries are a no-op.
//
//	Performance: 1 GET + 1 MULTI/EXEC.
func (s *Store) DeleteByAccessToken(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}

	sessionID, err := s.redis.Get(ctx, s.reverseKey(accessToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.Del(ctx, s.reverseKey(accessToken))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
