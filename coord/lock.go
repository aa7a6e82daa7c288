package coord

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AcquireLock attempts to take the cooperative lock under key for ttl.
// On success it returns the random holder token that proves ownership;
// contention is reported as acquired == false, not as an error. There is
// no renew operation — holding past ttl requires re-acquisition, so a
// crashed holder releases naturally.
//
// Lock values are written raw (not JSON) so [Store.ReleaseLock] can
// compare them byte-for-byte inside Redis.
//
//	Performance: 1 Redis SET NX PX.
func (s *Store) AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error) {
	holder := uuid.NewString()

	acquired, err = s.redis.SetNX(ctx, s.key(key), holder, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !acquired {
		return "", false, nil
	}

	return holder, true, nil
}

// ReleaseLock releases the lock under key if and only if it is still held
// by token, via [Store.CompareAndDelete]. A mismatched or absent lock is
// left untouched; that is not an error, the lock simply belongs to someone
// else now — so a holder whose TTL lapsed cannot delete a lock re-acquired
// by someone else.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-delete).
func (s *Store) ReleaseLock(ctx context.Context, key string, token string) error {
	_, err := s.CompareAndDelete(ctx, key, []byte(token))
	return err
}
