package authplane

import (
	"errors"
	"time"

	"github.com/authplane/authplane/phc"
)

// JWTConfig configures claims-token issuance: the HS256 signing secret,
// the access-token lifetime, and an optional issuer claim.
type JWTConfig struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
}

// RefreshConfig controls the lifetime of refresh sessions. TTL bounds how
// long a stored session record (and therefore its refresh credential)
// stays usable without rotation.
type RefreshConfig struct {
	TTL time.Duration
}

// StoreConfig configures the coordination-store namespace. Every key the
// engine writes is prefixed with "<Prefix>:".
type StoreConfig struct {
	Prefix string
}

// Config is the full engine configuration. Construct it with
// [DefaultConfig] and override fields; Build validates it once and treats
// it as immutable afterwards.
type Config struct {
	JWT     JWTConfig
	Refresh RefreshConfig
	Store   StoreConfig
	Hash    phc.Config
}

// DefaultConfig returns a baseline configuration: 15-minute access
// tokens, 30-day refresh sessions, "ap" key prefix, and the default
// Argon2id parameters. The JWT secret has no default and must be set.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL: 15 * time.Minute,
		},
		Refresh: RefreshConfig{
			TTL: 30 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Prefix: "ap",
		},
		Hash: phc.DefaultConfig(),
	}
}

// Validate rejects configurations that would produce unusable tokens or
// colliding keyspaces. Misconfiguration is a hard failure at construction,
// not a runtime condition.
func (c Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT access TTL must be positive")
	}
	if c.Refresh.TTL <= 0 {
		return errors.New("refresh TTL must be positive")
	}
	if c.Refresh.TTL < c.JWT.AccessTTL {
		return errors.New("refresh TTL must not be shorter than the access TTL")
	}
	if c.Store.Prefix == "" {
		return errors.New("store prefix must not be empty")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = append([]byte(nil), cfg.JWT.Secret...)
	return out
}
