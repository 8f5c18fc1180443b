package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration loaded from the environment (and an optional
// .env file for local development).
type Config struct {
	// Server
	Port     string `env:"APP_PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"development"` // development | production
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Storage
	DatabaseURL string `env:"DATABASE_URL,required"`
	// RedisURL is optional; opening drafts are kept in memory when it is empty.
	RedisURL string        `env:"REDIS_URL"`
	DraftTTL time.Duration `env:"OPENING_DRAFT_TTL" envDefault:"12h"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// Cash desk
	POSRoute              string `env:"POS_ROUTE" envDefault:"/pdv"`
	TerminalPrefix        string `env:"TERMINAL_LABEL_PREFIX" envDefault:"Terminal"`
	DefaultPriceTable     string `env:"DEFAULT_PRICE_TABLE" envDefault:"Tabela Padrão"`
	HeadquartersStoreID   string `env:"HEADQUARTERS_STORE_ID" envDefault:"matriz"`
	HeadquartersStoreName string `env:"HEADQUARTERS_STORE_NAME" envDefault:"Matriz"`
	Timezone              string `env:"TIMEZONE" envDefault:"UTC"`
	EnforceUniqueRegister bool   `env:"ENFORCE_UNIQUE_REGISTER" envDefault:"false"`
}

// Load reads the given dotenv files (".env" when none are given) and parses the
// environment into a Config. Missing dotenv files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Location resolves Timezone, falling back to UTC for an unknown zone name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool { return c.Env == "production" }
