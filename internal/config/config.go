package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from FILOGATE_-prefixed environment variables.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Addr            string        `env:"ADDR" envDefault:":8080"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
		WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
		MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
		RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"50"`
		RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"100"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN string `env:"DSN,required"`
	} `envPrefix:"PG_"`
	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD"`
		DB       int    `env:"DB" envDefault:"0"`
	} `envPrefix:"REDIS_"`
	Auth struct {
		TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
		Issuer      string        `env:"ISSUER" envDefault:"filogate"`
		AccessTTL   time.Duration `env:"ACCESS_TTL" envDefault:"30m"`
		RefreshTTL  time.Duration `env:"REFRESH_TTL" envDefault:"720h"`
		AdminEmail  string        `env:"ADMIN_EMAIL"`
	} `envPrefix:"AUTH_"`
	Lockout struct {
		MaxFailures int           `env:"MAX_FAILURES" envDefault:"5"`
		Window      time.Duration `env:"WINDOW" envDefault:"15m"`
		Duration    time.Duration `env:"DURATION" envDefault:"30m"`
	} `envPrefix:"LOCKOUT_"`
	// APIKeys holds service credentials as name:key pairs, e.g.
	// "telemetry:k1,export:k2". Key requests act with ReadOnly
	// permissions under an unrestricted scope.
	APIKeys []string `env:"API_KEYS"`
	Sweep   struct {
		// Cron expression for the expired-token sweep.
		Schedule string `env:"SCHEDULE" envDefault:"*/10 * * * *"`
	} `envPrefix:"SWEEP_"`
}

// Load parses the environment. Missing required variables surface as a
// single error rather than an aggregate wall of text.
func Load() (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: "FILOGATE_"}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}

// APIKeyPairs splits the configured API keys into name→key form.
// Malformed entries are skipped.
func (c *Config) APIKeyPairs() map[string]string {
	keys := make(map[string]string, len(c.APIKeys))
	for _, entry := range c.APIKeys {
		name, key, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" || key == "" {
			continue
		}
		keys[name] = key
	}
	return keys
}
