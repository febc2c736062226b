package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Mail transports understood by the mailer package.
const (
	MailTransportLog    = "log"
	MailTransportSMTP   = "smtp"
	MailTransportQueue  = "queue"
	MailTransportResend = "resend"
)

// Database drivers understood by the database package.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is built once at startup and passed by value to every component that needs it.
type Config struct {
	AppPort string
	BaseURL string

	SecretKey        string
	VerificationSalt string
	TokenMaxAge      time.Duration

	DatabaseDriver string
	DatabaseDSN    string

	SessionExpiration time.Duration
	RedisURL          string

	Mail MailConfig
}

// MailConfig holds the notification transport settings.
type MailConfig struct {
	Transport    string
	Sender       string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	ResendAPIKey string
	RabbitMQURL  string
	Queue        string
	Consumer     bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("VERIFICATION_SALT", "verification-salt")
	v.SetDefault("TOKEN_MAX_AGE", 1800*time.Second)
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "todolist.db")
	v.SetDefault("SESSION_EXPIRATION", 24*time.Hour)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("MAIL_TRANSPORT", MailTransportLog)
	v.SetDefault("MAIL_SENDER", "no-reply@localhost")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("MAIL_QUEUE", "mail_queue")
	v.SetDefault("MAIL_CONSUMER", false)
}

// Load reads configuration from the environment and an optional config file
// in the working directory.
func Load() (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:           v.GetString("APP_PORT"),
		BaseURL:           strings.TrimRight(v.GetString("BASE_URL"), "/"),
		SecretKey:         v.GetString("SECRET_KEY"),
		VerificationSalt:  v.GetString("VERIFICATION_SALT"),
		TokenMaxAge:       v.GetDuration("TOKEN_MAX_AGE"),
		DatabaseDriver:    strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		SessionExpiration: v.GetDuration("SESSION_EXPIRATION"),
		RedisURL:          v.GetString("REDIS_URL"),
		Mail: MailConfig{
			Transport:    strings.ToLower(v.GetString("MAIL_TRANSPORT")),
			Sender:       v.GetString("MAIL_SENDER"),
			SMTPHost:     v.GetString("SMTP_HOST"),
			SMTPPort:     v.GetInt("SMTP_PORT"),
			SMTPUsername: v.GetString("SMTP_USERNAME"),
			SMTPPassword: v.GetString("SMTP_PASSWORD"),
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			RabbitMQURL:  v.GetString("RABBITMQ_URL"),
			Queue:        v.GetString("MAIL_QUEUE"),
			Consumer:     v.GetBool("MAIL_CONSUMER"),
		},
	}

	if cfg.SecretKey == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return Config{}, fmt.Errorf("failed to generate secret key: %w", err)
		}
		cfg.SecretKey = hex.EncodeToString(secret)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TokenMaxAge <= 0 {
		return fmt.Errorf("TOKEN_MAX_AGE must be positive, got %s", c.TokenMaxAge)
	}
	if c.VerificationSalt == "" {
		return errors.New("VERIFICATION_SALT must not be empty")
	}

	switch c.DatabaseDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.Mail.Transport {
	case MailTransportLog:
	case MailTransportSMTP:
		if c.Mail.SMTPHost == "" {
			return errors.New("SMTP_HOST is required for the smtp mail transport")
		}
	case MailTransportResend:
		if c.Mail.ResendAPIKey == "" {
			return errors.New("RESEND_API_KEY is required for the resend mail transport")
		}
	case MailTransportQueue:
		if c.Mail.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required for the queue mail transport")
		}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport)
	}

	if c.Mail.Consumer && c.Mail.SMTPHost == "" {
		return errors.New("MAIL_CONSUMER delivers over SMTP and requires SMTP_HOST")
	}
	return nil
}
