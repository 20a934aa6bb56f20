package refresh

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

// Fingerprint is the device binding digest derived from the caller's user
// agent and client city. It is a weak, spoofable replay signal and is treated
// as such: a defense-in-depth layer, never the sole gate.
type Fingerprint [32]byte

// NewFingerprint derives the device fingerprint for a caller.
func NewFingerprint(userAgent, clientCity string) Fingerprint {
	return internal.HashFingerprint(userAgent, clientCity)
}

// Hex returns the fingerprint in the form used inside Redis keys.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

// Store persists refresh-token hashes keyed by (user ID, fingerprint).
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a refresh [Store] backed by the given Redis client.
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

func (s *Store) key(userID string, fp Fingerprint) string {
	return s.prefix + ":r:" + userID + ":" + fp.Hex()
}

// Upsert stores the hash of refreshToken under (userID, fp), replacing any
// prior record for that device fingerprint. This is the rotation primitive:
// after an upsert the previously issued refresh token no longer matches.
//
//	Performance: 1 Redis SET.
func (s *Store) Upsert(ctx context.Context, userID string, fp Fingerprint, refreshToken string, ttl time.Duration) error {
	if userID == "" || refreshToken == "" {
		return errors.New("empty user id or refresh token")
	}

	sum := internal.HashToken(refreshToken)
	if err := s.redis.Set(ctx, s.key(userID, fp), sum[:], ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Matches reports whether the presented refreshToken hashes to the record
// stored under (userID, fp). A missing record, an expired record, and a hash
// mismatch are all false; only Redis unavailability returns an error. Callers
// must have verified the token signature first — this check binds the token
// to the device, it does not authenticate it.
//
//	Performance: 1 Redis GET.
func (s *Store) Matches(ctx context.Context, userID string, fp Fingerprint, refreshToken string) (bool, error) {
	if userID == "" || refreshToken == "" {
		return false, nil
	}

	stored, err := s.redis.Get(ctx, s.key(userID, fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sum := internal.HashToken(refreshToken)
	return subtle.ConstantTimeCompare(stored, sum[:]) == 1, nil
}

// Delete revokes the refresh record for (userID, fp). Deleting a missing
// record is a no-op.
//
//	Performance: 1 Redis DEL.
func (s *Store) Delete(ctx context.Context, userID string, fp Fingerprint) error {
	if userID == "" {
		return nil
	}

	if err := s.redis.Del(ctx, s.key(userID, fp)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
