package authplane

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/authplane/authplane/coord"
	"github.com/authplane/authplane/token"
)

const sessionKeyPrefix = "session:"

// TokenPair is the result of a successful login or refresh: a signed
// claims token, the refresh credential in wire form, and the session id
// the stored hash is keyed by.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
}

// sessionRecord is what the engine persists per refresh session. Only the
// hash of the refresh secret is stored, never the plaintext.
type sessionRecord struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
	Hash    string `json:"hash"`
}

// Engine composes the token authority and coordination store into the
// session lifecycle. Construct it through [Builder.Build]; all methods
// are safe for concurrent use.
type Engine struct {
	config    Config
	authority *token.Authority
	store     *coord.Store
	logger    zerolog.Logger
	now       func() time.Time
	metrics   *metrics
}

// Store exposes the engine's coordination store so callers can share its
// namespace for locks and counters.
func (e *Engine) Store() *coord.Store {
	return e.store
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

// Login issues a claims token for subject and role, creates a refresh
// credential, and persists the credential's hash keyed by session id.
// The plaintext refresh secret exists only in the returned pair.
func (e *Engine) Login(ctx context.Context, subject, role string) (*TokenPair, error) {
	access, err := e.authority.Issue(subject, role)
	if err != nil {
		return nil, err
	}

	cred, credHash, err := e.authority.CreateRefreshCredential()
	if err != nil {
		return nil, err
	}

	record := sessionRecord{Subject: subject, Role: role, Hash: credHash.Hash}
	if err := e.store.Set(ctx, sessionKey(cred.SessionID), record, e.config.Refresh.TTL); err != nil {
		return nil, err
	}

	e.metrics.logins.Add(1)
	e.logger.Debug().
		Str("subject", subject).
		Str("session_id", cred.SessionID.String()).
		Msg("session created")

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: token.FormatRefreshToken(cred.SessionID, cred.Secret),
		SessionID:    cred.SessionID.String(),
	}, nil
}

// Validate verifies a claims token and rejects it if its token id has been
// blacklisted. Every verification failure returns [ErrUnauthorized]; the
// internal kind is logged at debug level. Store faults propagate as
// coord.ErrStoreUnavailable so callers can tell an outage from a bad
// token.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*token.Claims, error) {
	claims, err := e.authority.Verify(accessToken)
	if err != nil {
		e.metrics.validationFailures.Add(1)
		e.logger.Debug().Err(err).Msg("access token rejected")
		return nil, ErrUnauthorized
	}

	if claims.ID != "" {
		revoked, err := e.store.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			e.metrics.validationFailures.Add(1)
			e.logger.Debug().Str("jti", claims.ID).Msg("access token revoked")
			return nil, ErrUnauthorized
		}
	}

	e.metrics.validations.Add(1)
	return claims, nil
}

// Refresh exchanges a refresh credential for a new token pair, rotating
// the session: the old session record is claimed atomically before the new
// one is written, so the presented credential dies with this call. Of N
// concurrent redemptions of the same credential exactly one succeeds; the
// rest lose the claim. Invalid, unknown, mismatched, and already-rotated
// credentials all collapse to [ErrUnauthorized].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	cred := token.ParseRefreshToken(refreshToken)
	if cred == nil {
		return nil, e.refreshRejected(nil, "refresh token malformed")
	}

	key := sessionKey(cred.SessionID)

	raw, found, err := e.store.GetRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, e.refreshRejected(nil, "session not found")
	}

	var record sessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, e.refreshRejected(err, "session record corrupt")
	}

	if !e.authority.VerifyRefreshSecret(cred.Secret, record.Hash) {
		return nil, e.refreshRejected(nil, "refresh secret mismatch")
	}

	// Claim the session against the exact bytes just read. A concurrent
	// redemption that claimed first leaves nothing to delete, and this one
	// is rejected. A crash after the claim logs the user out rather than
	// leaving two live credentials for one session.
	claimed, err := e.store.CompareAndDelete(ctx, key, raw)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, e.refreshRejected(nil, "session already rotated")
	}

	next, nextHash, err := e.authority.CreateRefreshCredential()
	if err != nil {
		return nil, err
	}

	access, err := e.authority.Issue(record.Subject, record.Role)
	if err != nil {
		return nil, err
	}

	record.Hash = nextHash.Hash
	if err := e.store.Set(ctx, sessionKey(next.SessionID), record, e.config.Refresh.TTL); err != nil {
		return nil, err
	}

	e.metrics.refreshes.Add(1)
	e.logger.Debug().
		Str("session_id", cred.SessionID.String()).
		Str("next_session_id", next.SessionID.String()).
		Msg("session rotated")

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: token.FormatRefreshToken(next.SessionID, next.Secret),
		SessionID:    next.SessionID.String(),
	}, nil
}

func (e *Engine) refreshRejected(err error, reason string) error {
	e.metrics.refreshFailures.Add(1)
	e.logger.Debug().Err(err).Msg(reason)
	return ErrUnauthorized
}

// Revoke verifies accessToken and blacklists its token id for the
// remainder of its validity window, making it unusable before its natural
// expiry. Tokens that fail verification return [ErrUnauthorized]; an
// already-expired token needs no marker.
func (e *Engine) Revoke(ctx context.Context, accessToken string) error {
	claims, err := e.authority.Verify(accessToken)
	if err != nil {
		e.logger.Debug().Err(err).Msg("revocation target rejected")
		return ErrUnauthorized
	}
	if claims.ID == "" {
		return ErrUnauthorized
	}

	remaining := claims.ExpiresAt.Sub(e.now())
	if remaining <= 0 {
		return nil
	}

	if err := e.store.BlacklistToken(ctx, claims.ID, remaining); err != nil {
		return err
	}

	e.metrics.revocations.Add(1)
	e.logger.Info().Str("jti", claims.ID).Msg("access token revoked")
	return nil
}

// Logout deletes the session record behind a refresh credential, ending
// the refresh chain. The credential itself is not verified: possession of
// a well-formed token for an existing session is enough to end it.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	cred := token.ParseRefreshToken(refreshToken)
	if cred == nil {
		return ErrUnauthorized
	}

	key := sessionKey(cred.SessionID)
	exists, err := e.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}

	if err := e.store.Delete(ctx, key); err != nil {
		return err
	}

	e.logger.Debug().Str("session_id", cred.SessionID.String()).Msg("session ended")
	return nil
}
