package token

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/google/uuid"
)

const (
	refreshSecretSize = 32
	refreshSeparator  = "."
)

// RefreshToken is the plaintext refresh credential: a session id and a
// high-entropy secret. The secret is transmitted to the client once and
// never persisted or logged.
type RefreshToken struct {
	SessionID uuid.UUID
	Secret    string
}

// RefreshTokenHash is the persistable counterpart of a [RefreshToken]:
// the session id and the Argon2id PHC hash of the secret.
type RefreshTokenHash struct {
	SessionID uuid.UUID
	Hash      string
}

// CreateRefreshCredential generates a fresh session id and a 32-byte
// secret from the configured entropy source, hashes the secret under a
// unique salt, and returns both halves. The caller hands the plaintext to
// the client and persists only the hash.
func (a *Authority) CreateRefreshCredential() (RefreshToken, RefreshTokenHash, error) {
	sessionID, err := uuid.NewRandomFromReader(a.config.Rand)
	if err != nil {
		return RefreshToken{}, RefreshTokenHash{}, err
	}

	var raw [refreshSecretSize]byte
	if _, err := io.ReadFull(a.config.Rand, raw[:]); err != nil {
		return RefreshToken{}, RefreshTokenHash{}, err
	}
	secret := base64.RawURLEncoding.EncodeToString(raw[:])

	hash, err := a.hasher.Hash(secret)
	if err != nil {
		return RefreshToken{}, RefreshTokenHash{}, err
	}

	return RefreshToken{SessionID: sessionID, Secret: secret},
		RefreshTokenHash{SessionID: sessionID, Hash: hash},
		nil
}

// FormatRefreshToken encodes a credential for the wire as
// "<session-id>.<secret>". The canonical hyphenated uuid form contains no
// ".", so the first separator splits unambiguously.
func FormatRefreshToken(sessionID uuid.UUID, secret string) string {
	return sessionID.String() + refreshSeparator + secret
}

// ParseRefreshToken decodes the wire form produced by
// [FormatRefreshToken]. It returns nil — never an error — for an empty
// string, a missing separator, or an invalid session id segment.
func ParseRefreshToken(token string) *RefreshToken {
	id, secret, ok := strings.Cut(token, refreshSeparator)
	if !ok {
		return nil
	}

	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	return &RefreshToken{SessionID: sessionID, Secret: secret}
}

// VerifyRefreshSecret checks secret against a stored PHC hash. It returns
// false on any malformed stored hash; the underlying comparison is
// constant-time with respect to the digest.
func (a *Authority) VerifyRefreshSecret(secret, storedHash string) bool {
	ok, err := a.hasher.Verify(secret, storedHash)
	return err == nil && ok
}

// HashRefreshSecret hashes a refresh secret under a fresh salt. Rotation
// paths use it when they need to re-hash an existing secret with the
// current parameters.
func (a *Authority) HashRefreshSecret(secret string) (string, error) {
	return a.hasher.Hash(secret)
}

// RefreshHashNeedsUpgrade reports whether storedHash was produced with
// weaker parameters than the current configuration. Malformed hashes
// report false; they fail verification anyway.
func (a *Authority) RefreshHashNeedsUpgrade(storedHash string) bool {
	needs, err := a.hasher.NeedsRehash(storedHash)
	return err == nil && needs
}
