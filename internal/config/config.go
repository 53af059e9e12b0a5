// Package config aggregates the engine's environment-driven configuration.
// Each package owns its Config struct and env tags; this package only
// composes them and runs the parse.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/hauntworks/platform/internal/domains"
	"github.com/hauntworks/platform/internal/resolver"
	"github.com/hauntworks/platform/pkg/db"
	"github.com/hauntworks/platform/pkg/logger"
	"github.com/hauntworks/platform/pkg/redis"
)

// App holds the process-level settings.
type App struct {
	// Environment gates development-only wiring such as the DNS
	// verification bypass.
	Environment string `env:"APP_ENV" envDefault:"production"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// DNS holds the verification lookup settings.
type DNS struct {
	// Resolvers are the pinned public resolvers (host:port) queried for
	// ownership proofs, bypassing the host's configured DNS.
	Resolvers []string `env:"DNS_RESOLVERS" envSeparator:"," envDefault:"8.8.8.8:53,1.1.1.1:53"`

	// SkipVerification replaces DNS proofs with an always-pass verifier.
	// Refused outside development environments.
	SkipVerification bool `env:"DNS_SKIP_VERIFICATION" envDefault:"false"`
}

// Config is the full engine configuration.
type Config struct {
	App      App
	DNS      DNS
	Domains  domains.Config
	Resolver resolver.Config
	Database db.Config
	Redis    redis.Config
	Sentry   logger.SentryConfig
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
