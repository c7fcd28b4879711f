// Package config loads the process configuration from the environment. There are no global
// singletons: every component that needs configuration takes the piece it needs as an explicit
// argument at construction time.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/soonish-io/notifycore/internal/db"
)

// DatabaseConfig holds the attributes needed to connect to the Postgres instance backing the
// storage gateway.
type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" required:"true"`
	Password string `envconfig:"PASSWORD" required:"true"`
	Name     string `envconfig:"NAME" default:"notifycore"`
}

// ToPgConfig adapts DatabaseConfig to the shape internal/db.NewPgxPool expects.
func (c DatabaseConfig) ToPgConfig() db.PgConfig {
	return db.PgConfig{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Name,
	}
}

// TemporalConfig holds the attributes needed to connect to the Temporal cluster that hosts the
// event orchestrator and reminder task workflows.
type TemporalConfig struct {
	HostPort  string `envconfig:"HOST_PORT" default:"localhost:7233"`
	Namespace string `envconfig:"NAMESPACE" default:"default"`
	TaskQueue string `envconfig:"TASK_QUEUE" default:"notifycore"`
}

// SMTPCredential is one (user, app password) pair the service authenticates to the SMTP relay
// with.
type SMTPCredential struct {
	User        string `envconfig:"USER"`
	AppPassword string `envconfig:"APP_PASSWORD"`
}

// FallbackSMTPConfig holds the service SMTP relay used by the Channel Resolver when a
// subscription resolves to no channels at all (§4.3 step 5, §6). Two credential pairs are kept so
// the relay can be gated on the subscriber's verified flag: Unverified sends through the
// lower-trust pair, Verified through the other. Host is empty (the zero value) when the fallback
// is not configured, which disables it entirely rather than erroring.
type FallbackSMTPConfig struct {
	Host       string         `envconfig:"HOST"`
	Port       string         `envconfig:"PORT" default:"587"`
	Unverified SMTPCredential `envconfig:"UNVERIFIED"`
	Verified   SMTPCredential `envconfig:"VERIFIED"`
}

// Enabled reports whether the fallback relay is configured at all.
func (c FallbackSMTPConfig) Enabled() bool {
	return c.Host != ""
}

// CredentialFor selects the Unverified or Verified credential pair for a subscriber, per §4.3
// step 5's "gated by verified-vs-unverified on which server to use."
func (c FallbackSMTPConfig) CredentialFor(verified bool) SMTPCredential {
	if verified {
		return c.Verified
	}
	return c.Unverified
}

// CryptoConfig holds the symmetric key used to seal and open channel delivery URLs.
type CryptoConfig struct {
	// Key is the base64-encoded 32-byte ChaCha20-Poly1305 key.
	Key string `envconfig:"KEY" required:"true"`
}

// Config is the complete process configuration, loaded once at startup.
type Config struct {
	Database DatabaseConfig     `envconfig:"DATABASE"`
	Temporal TemporalConfig     `envconfig:"TEMPORAL"`
	Fallback FallbackSMTPConfig `envconfig:"FALLBACK_SMTP"`
	Crypto   CryptoConfig       `envconfig:"CRYPTO"`
}

// Load reads the configuration from environment variables prefixed NOTIFYCORE, e.g.
// NOTIFYCORE_DATABASE_HOST, NOTIFYCORE_TEMPORAL_HOST_PORT, NOTIFYCORE_CRYPTO_KEY.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("notifycore", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return &cfg, nil
}
