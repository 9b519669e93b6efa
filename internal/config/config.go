package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string `env:"PORT" envDefault:"3000"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	IdleTimeout   time.Duration `env:"GAME_IDLE_TIMEOUT" envDefault:"30m"`
	SweepInterval time.Duration `env:"GAME_SWEEP_INTERVAL" envDefault:"5m"`

	// OriginPatterns are host patterns accepted for cross-origin websocket
	// handshakes, e.g. "localhost:5173,*.example.com".
	OriginPatterns []string      `env:"WS_ORIGIN_PATTERNS" envSeparator:","`
	WriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"5s"`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`

	// CORSOrigins applies to the JSON endpoints only.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// DatabaseURL enables the results archive when set.
	DatabaseURL string `env:"DATABASE_URL"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (c Config) Addr() string {
	return ":" + c.Port
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads dotenvPath (if it exists) and then the environment.
func Load(dotenvPath string) (Config, error) {
	var cfg Config
	if err := LoadDotEnv(dotenvPath); err != nil {
		return cfg, fmt.Errorf("load %s: %w", dotenvPath, err)
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: PORT must not be empty")
	}
	if c.IdleTimeout <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("config: GAME_IDLE_TIMEOUT and GAME_SWEEP_INTERVAL must be positive")
	}
	if c.PingInterval <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("config: WS_PING_INTERVAL and WS_WRITE_TIMEOUT must be positive")
	}
	return nil
}
