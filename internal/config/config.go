// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database struct {
		Host     string `json:"host"`
		Port     string `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		Name     string `json:"name"`
		SSLMode  string `json:"sslmode"`
	} `json:"database"`
	JWT struct {
		Secret       string        `json:"secret"`
		ExpiryPeriod time.Duration `json:"expiry_period"`
	} `json:"jwt"`
	Server struct {
		Port         string        `json:"port"`
		ReadTimeout  time.Duration `json:"read_timeout"`
		WriteTimeout time.Duration `json:"write_timeout"`
	}
	Sendgrid struct {
		APIKey string `json:"api_key"`
		From   string `json:"from"`
	} `json:"sendgrid"`
	// DefaultMaxUsers is applied to newly registered organizations.
	DefaultMaxUsers int    `json:"default_max_users"`
	BaseURL         string `json:"base_url"`
}

func Load() *Config {
	cfg := &Config{}

	// Database configuration
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "taskhive")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	// JWT configuration
	cfg.JWT.Secret = getEnv("JWT_SECRET", "your-secret-key")
	cfg.JWT.ExpiryPeriod = time.Hour * 24

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = time.Second * 15
	cfg.Server.WriteTimeout = time.Second * 15

	// Sendgrid configuration
	cfg.Sendgrid.APIKey = getEnv("SENDGRID_API_KEY", "")
	cfg.Sendgrid.From = getEnv("SENDGRID_FROM", "")

	cfg.DefaultMaxUsers = getEnvInt("DEFAULT_MAX_USERS", 15)
	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:8080")

	return cfg
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
