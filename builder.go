package authplane

import (
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/authplane/authplane/coord"
	"github.com/authplane/authplane/token"
)

// Builder assembles an [Engine]. Configure it fluently and call Build
// exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger *zerolog.Logger
	now    func() time.Time
	rand   io.Reader

	built bool
}

// New returns a [Builder] seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the shared Redis client backing the coordination store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. Without one the engine logs
// nothing.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithClock injects the time source used for claim timestamps and expiry
// checks. Tests substitute a deterministic fake here.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithRand injects the entropy source used for session ids, token ids,
// and refresh secrets. It must be cryptographically secure in production;
// the default is crypto/rand.
func (b *Builder) WithRand(r io.Reader) *Builder {
	b.rand = r
	return b
}

// Build validates the configuration, constructs the token authority and
// coordination store, and returns the [Engine]. A builder can only be
// consumed once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	authority, err := token.NewAuthority(token.Config{
		Secret:    cfg.JWT.Secret,
		AccessTTL: cfg.JWT.AccessTTL,
		Issuer:    cfg.JWT.Issuer,
		Now:       now,
		Rand:      b.rand,
		Hash:      cfg.Hash,
	})
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}

	b.built = true

	return &Engine{
		config:    cfg,
		authority: authority,
		store:     coord.NewStore(b.redis, cfg.Store.Prefix),
		logger:    logger,
		now:       now,
		metrics:   &metrics{},
	}, nil
}
