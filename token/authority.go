package token

import (
	"crypto/rand"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/authplane/authplane/phc"
)

var (
	// ErrMalformed is returned when a token cannot be decoded at all.
	ErrMalformed = errors.New("malformed token")
	// ErrExpired is returned when a correctly signed token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalidSignature is returned when the signature does not verify
	// against the configured secret.
	ErrInvalidSignature = errors.New("invalid token signature")
)

const minSecretBytes = 32

// Config configures an [Authority]. Secret and AccessTTL are required.
// Now and Rand default to the system clock and crypto/rand; tests inject
// fakes through them.
type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string

	Now  func() time.Time
	Rand io.Reader

	Hash phc.Config
}

// Claims is the signed session payload: subject, role, and the registered
// iat/exp/jti fields. Claims are never mutated after issuance.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authority issues and verifies claims tokens and refresh credentials.
// It is purely computational: no I/O, no persistence, safe for concurrent
// use after construction.
type Authority struct {
	config Config
	hasher *phc.Hasher
}

// NewAuthority validates cfg and returns an [Authority]. An unusable
// signing secret is rejected here rather than surfacing as silently
// unverifiable tokens later.
func NewAuthority(cfg Config) (*Authority, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}

	hashCfg := cfg.Hash
	if hashCfg == (phc.Config{}) {
		hashCfg = phc.DefaultConfig()
	}
	if hashCfg.Rand == nil {
		hashCfg.Rand = cfg.Rand
	}

	hasher, err := phc.NewHasher(hashCfg)
	if err != nil {
		return nil, err
	}

	return &Authority{config: cfg, hasher: hasher}, nil
}

// Issue builds claims for subject and role with iat = now and
// exp = now + AccessTTL, mints a random jti, and returns the signed
// compact token. Failures here are configuration faults, not runtime
// conditions.
func (a *Authority) Issue(subject, role string) (string, error) {
	now := a.config.Now()

	jti, err := uuid.NewRandomFromReader(a.config.Rand)
	if err != nil {
		return "", err
	}

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.AccessTTL)),
		},
	}
	if a.config.Issuer != "" {
		claims.Issuer = a.config.Issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.config.Secret)
}

// Verify decodes tokenStr, checks the HS256 signature against the
// configured secret, and checks expiry against the injected clock. Both
// checks gate success. Failures map to [ErrInvalidSignature], [ErrExpired],
// or [ErrMalformed].
func (a *Authority) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.config.Now),
		jwt.WithExpirationRequired(),
	}
	if a.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(a.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.config.Secret, nil
	})
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

// classifyVerifyError collapses the jwt library's joined errors into the
// authority's taxonomy. Signature takes precedence: a token signed with
// the wrong secret is always a signature failure regardless of its exp.
func classifyVerifyError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
