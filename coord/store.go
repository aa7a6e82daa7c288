package coord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrStoreUnavailable wraps connectivity and backend faults. It is
	// propagated to the caller unmodified; this layer never retries.
	ErrStoreUnavailable = errors.New("coordination store unavailable")
	// ErrCorrupt is returned when a stored payload exists but cannot be
	// decoded. It is deliberately distinct from absence.
	ErrCorrupt = errors.New("corrupt coordination entry")
)

// incrementScript arms the TTL exactly when the INCRBY creates the key.
// EXISTS and INCRBY run in one atomic script, so arming cannot be fooled
// by a counter that merely happens to land back on the increment amount.
const incrementScript = `
local existed = redis.call("EXISTS", KEYS[1])
local value = redis.call("INCRBY", KEYS[1], ARGV[1])
if existed == 0 and tonumber(ARGV[2]) > 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return value
`

var incrementLua = redis.NewScript(incrementScript)

// compareAndDeleteScript deletes the key only while it still holds the
// exact payload the caller read. GET and DEL run in one atomic script, so
// two callers racing to consume the same entry cannot both win.
const compareAndDeleteScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var compareAndDeleteLua = redis.NewScript(compareAndDeleteScript)

// Store provides namespaced coordination primitives over a shared Redis
// client. All methods are safe for concurrent use; the client handles
// request interleaving.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a [Store] whose keys live under "<prefix>:".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(key string) string {
	return s.prefix + ":" + key
}

// Set JSON-encodes value under key. A positive ttl makes the entry expire
// automatically; ttl <= 0 persists it until deleted.
//
//	Performance: 1 Redis SET.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Get decodes the entry under key into out and reports whether it existed.
// Absence (including TTL expiry) is (false, nil); a present but
// undecodable payload is [ErrCorrupt].
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return true, nil
}

// GetRaw returns the stored payload bytes under key without decoding
// them, for callers that need the exact representation back (see
// [Store.CompareAndDelete]). Absence is (nil, false, nil).
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return data, true, nil
}

// CompareAndDelete deletes key only if its current payload is
// byte-for-byte equal to expected, reporting whether this call consumed
// the entry. A mismatched or absent entry is left untouched. Callers use
// it to claim single-use entries under concurrency: of N racing claims
// against the same bytes, exactly one succeeds.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-delete).
func (s *Store) CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error) {
	n, err := compareAndDeleteLua.Run(ctx, s.redis, []string{s.key(key)}, expected).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return n == 1, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Exists reports whether key is present and unexpired.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Increment atomically adds by to the counter under key and returns the
// new value. If ttl > 0 and this call created the key, the TTL is armed;
// increments on an existing counter never reset or extend it.
//
//	Performance: 1 Lua EVALSHA (EXISTS + INCRBY + conditional PEXPIRE).
func (s *Store) Increment(ctx context.Context, key string, by int64, ttl time.Duration) (int64, error) {
	value, err := incrementLua.Run(
		ctx,
		s.redis,
		[]string{s.key(key)},
		by,
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return value, nil
}

// Decrement atomically subtracts by from the counter under key and
// returns the new value. An absent key counts from zero.
func (s *Store) Decrement(ctx context.Context, key string, by int64) (int64, error) {
	value, err := s.redis.DecrBy(ctx, s.key(key), by).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value, nil
}

// SetIfAbsent JSON-encodes value under key only if the key does not
// already exist, arming ttl in the same atomic command. It reports whether
// this call won the write; a losing call has no side effect.
//
//	Performance: 1 Redis SET NX PX.
func (s *Store) SetIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	acquired, err := s.redis.SetNX(ctx, s.key(key), payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return acquired, nil
}
