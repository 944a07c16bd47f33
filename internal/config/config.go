package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the api, worker and admin tools read from the environment.
type Config struct {
	Port           string        `mapstructure:"PORT"`
	StoreDriver    string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBUser         string        `mapstructure:"DB_USER"`
	DBPassword     string        `mapstructure:"DB_PASSWORD"`
	DBHost         string        `mapstructure:"DB_HOST"`
	DBPort         string        `mapstructure:"DB_PORT"`
	DBName         string        `mapstructure:"DB_NAME"`
	DBSSLMode      string        `mapstructure:"DB_SSLMODE"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	LogMode        string        `mapstructure:"LOG_MODE"`
	HeightGenesis  string        `mapstructure:"HEIGHT_GENESIS"`
	HeightInterval time.Duration `mapstructure:"HEIGHT_INTERVAL"`
	AuthRateLimit  float64       `mapstructure:"AUTH_RATE_LIMIT"`
}

var defaults = map[string]interface{}{
	"PORT":            "8080",
	"STORE_DRIVER":    "postgres",
	"DATABASE_URL":    "",
	"DB_USER":         "postgres",
	"DB_PASSWORD":     "",
	"DB_HOST":         "localhost",
	"DB_PORT":         "5432",
	"DB_NAME":         "gigledger",
	"DB_SSLMODE":      "disable",
	"JWT_SECRET":      "",
	"TOKEN_TTL":       "72h",
	"REDIS_ADDR":      "",
	"LOG_MODE":        "development",
	"HEIGHT_GENESIS":  "2024-01-01T00:00:00Z",
	"HEIGHT_INTERVAL": "10m",
	"AUTH_RATE_LIMIT": 20,
}

// Load reads an optional app.env from path, then the process environment.
// A .env in the working directory is loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if path != "" {
		v.AddConfigPath(path)
		v.SetConfigName("app")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.HeightInterval <= 0 {
		return errors.New("HEIGHT_INTERVAL must be positive")
	}
	if _, err := c.Genesis(); err != nil {
		return err
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise assembles one from the DB_* parts.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

func (c Config) Genesis() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, c.HeightGenesis)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid HEIGHT_GENESIS: %w", err)
	}
	return t, nil
}
