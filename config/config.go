package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port int `toml:"port"`
}

// MailConfig describes the remote mail service the client talks to.
type MailConfig struct {
	BaseURL        string `toml:"base_url"`
	DomainSuffix   string `toml:"domain_suffix"` // required suffix for registration emails
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration
func (c MailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type SessionConfig struct {
	Folder          string `toml:"folder"`           // on-disk session storage
	CookieName      string `toml:"cookie_name"`
	ExpirationHours int    `toml:"expiration_hours"`
	EncryptionKey   string `toml:"encryption_key"` // 32-byte key for session files at rest
}

func (c SessionConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

type JWTConfig struct {
	Secret string `toml:"secret"` // For JWT signing
}

// AuthConfig holds session-invalidation policy. LogoutOnUnauthorized controls
// whether a 401 from the profile or mailbox endpoints clears the session and
// redirects to login, or is surfaced in place.
type AuthConfig struct {
	LogoutOnUnauthorized bool `toml:"logout_on_unauthorized"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Mail    MailConfig    `toml:"mail"`
	Session SessionConfig `toml:"session"`
	JWT     JWTConfig     `toml:"jwt"`
	Auth    AuthConfig    `toml:"auth"`
}

// Load reads configuration from a TOML file, applies environment overrides
// (a .env file is honored when present) and validates required settings.
func Load(filepath string) (*Config, error) {
	var config Config

	// Set default values
	config.Server.Port = 3000
	config.Mail.DomainSuffix = "@miracmail.com"
	config.Mail.TimeoutSeconds = 30
	config.Session.Folder = "./sessions"
	config.Session.CookieName = "miracmail_session"
	config.Session.ExpirationHours = 24
	config.Auth.LogoutOnUnauthorized = true

	if _, err := toml.DecodeFile(filepath, &config); err != nil {
		return nil, err
	}

	// .env is optional; real env vars still apply without one
	_ = godotenv.Load()

	if v := os.Getenv("MIRACMAIL_API_URL"); v != "" {
		config.Mail.BaseURL = v
	}
	if v := os.Getenv("MIRACMAIL_JWT_SECRET"); v != "" {
		config.JWT.Secret = v
	}
	if v := os.Getenv("MIRACMAIL_SESSION_KEY"); v != "" {
		config.Session.EncryptionKey = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Mail.BaseURL == "" {
		return fmt.Errorf("mail.base_url is required")
	}
	if !strings.HasPrefix(c.Mail.DomainSuffix, "@") {
		return fmt.Errorf("mail.domain_suffix must start with '@', got %q", c.Mail.DomainSuffix)
	}
	if c.Session.EncryptionKey != "" && len(c.Session.EncryptionKey) != 32 {
		return fmt.Errorf("session.encryption_key must be exactly 32 bytes, got %d", len(c.Session.EncryptionKey))
	}
	return nil
}
