package coord

import (
	"context"
	"time"
)

// blacklistPrefix nests the revocation registry inside the store's
// namespace, e.g. "<prefix>:jwt:blacklist:<token-id>".
const blacklistPrefix = "jwt:blacklist:"

// BlacklistToken records a revocation marker for tokenID. ttl should be
// the token's remaining validity: once it lapses the token would have
// expired on its own, so the marker need not outlive it.
func (s *Store) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.Set(ctx, blacklistPrefix+tokenID, true, ttl)
}

// IsTokenBlacklisted reports whether tokenID has an unexpired revocation
// marker.
func (s *Store) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	return s.Exists(ctx, blacklistPrefix+tokenID)
}
