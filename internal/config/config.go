package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerPort string
	JWTSecret  string
	Chat       ChatConfig
	Guidance   GuidanceConfig
	Postgres   PostgresConfig
	Mongo      MongoConfig
	Logging    LoggingConfig
}

// ChatConfig holds the conversational pipeline options.
type ChatConfig struct {
	MaxMessageLength     int
	TypingIndicatorDelay time.Duration
	AutoScrollDefer      time.Duration
	// RetryAttempts is recognised and carried but intentionally applied to
	// nothing: the guidance call is attempted exactly once per submission.
	RetryAttempts int
}

// GuidanceConfig describes the outbound guidance-service endpoint and the
// ordered token sources used to authenticate against it.
type GuidanceConfig struct {
	Endpoint    string
	Token       string
	TokenEnvKey string
	CookieName  string
	Timeout     time.Duration
}

type PostgresConfig struct {
	Enabled           bool
	DSN               string
	Host              string
	Port              int
	User              string
	Password          string
	Database          string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type LoggingConfig struct {
	Level        string
	Encoding     string
	Development  bool
	EnableCaller bool
	ServiceName  string
}

func LoadConfig() (*Config, error) {
	port := envOrDefault("PORT", "8080")
	jwtSecret := envOrDefault("JWT_SECRET", "dev-secret")

	pgPort, _ := strconv.Atoi(envOrDefault("POSTGRES_PORT", "5432"))
	maxConns := parseInt32(envOrDefault("POSTGRES_MAX_CONNS", "8"), 8)
	minConns := parseInt32(envOrDefault("POSTGRES_MIN_CONNS", "1"), 1)

	chat := ChatConfig{
		MaxMessageLength:     parsePositiveInt(envOrDefault("CHAT_MAX_MESSAGE_LENGTH", "500"), 500),
		TypingIndicatorDelay: parseDuration(envOrDefault("CHAT_TYPING_INDICATOR_DELAY", "1s"), time.Second),
		AutoScrollDefer:      parseDuration(envOrDefault("CHAT_AUTO_SCROLL_DEFER", "100ms"), 100*time.Millisecond),
		RetryAttempts:        parsePositiveInt(envOrDefault("CHAT_RETRY_ATTEMPTS", "3"), 3),
	}

	logging := LoggingConfig{
		Level:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		Encoding:     strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
		Development:  parseBool(envOrDefault("LOG_DEVELOPMENT", "false"), false),
		EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
		ServiceName:  envOrDefault("SERVICE_NAME", "uniguide"),
	}

	cfg := &Config{
		ServerPort: port,
		JWTSecret:  jwtSecret,
		Chat:       chat,
		Guidance: GuidanceConfig{
			Endpoint:    envOrDefault("GUIDANCE_ENDPOINT", "http://localhost:8000/chatbot/process-message/"),
			Token:       os.Getenv("GUIDANCE_TOKEN"),
			TokenEnvKey: envOrDefault("GUIDANCE_TOKEN_ENV", "GUIDANCE_META_TOKEN"),
			CookieName:  envOrDefault("GUIDANCE_TOKEN_COOKIE", "csrftoken"),
			Timeout:     parseDuration(envOrDefault("GUIDANCE_TIMEOUT", "20s"), 20*time.Second),
		},
		Postgres: PostgresConfig{
			Enabled:           parseBool(envOrDefault("POSTGRES_ENABLED", "false"), false),
			DSN:               os.Getenv("POSTGRES_DSN"),
			Host:              envOrDefault("POSTGRES_HOST", "localhost"),
			Port:              pgPort,
			User:              envOrDefault("POSTGRES_USER", "postgres"),
			Password:          os.Getenv("POSTGRES_PASSWORD"),
			Database:          envOrDefault("POSTGRES_DB", "uniguide"),
			MaxConns:          maxConns,
			MinConns:          minConns,
			MaxConnLifetime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_LIFETIME", "1h"), time.Hour),
			MaxConnIdleTime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_IDLE", "30m"), 30*time.Minute),
			HealthCheckPeriod: parseDuration(envOrDefault("POSTGRES_HEALTH_CHECK_PERIOD", "1m"), time.Minute),
			ConnectTimeout:    parseDuration(envOrDefault("POSTGRES_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		Mongo: MongoConfig{
			URI:            strings.TrimSpace(os.Getenv("MONGO_URI")),
			Database:       envOrDefault("MONGO_DATABASE", "uniguide"),
			ConnectTimeout: parseDuration(envOrDefault("MONGO_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		Logging: logging,
	}

	return cfg, nil
}

func (c PostgresConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt32(value string, fallback int32) int32 {
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return int32(i)
}

func parsePositiveInt(value string, fallback int) int {
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}
