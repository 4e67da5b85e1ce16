// Package config provides configuration loading and validation for the board
// engine. Configuration is loaded in layers, highest precedence last:
// defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import "time"

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Client    ClientConfig    `koanf:"client"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Engine    EngineConfig    `koanf:"engine"`
	Store     StoreConfig     `koanf:"store"`
	Redis     RedisConfig     `koanf:"redis"`
	PubSub    PubSubConfig    `koanf:"pubsub"`
	Auth      AuthConfig      `koanf:"auth"`
	Identity  IdentityConfig  `koanf:"identity"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ClientConfig holds settings for the outbound HTTP client used to reach the
// identity service.
type ClientConfig struct {
	BaseURL        string               `koanf:"base_url"`
	Timeout        time.Duration        `koanf:"timeout"`
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
}

// RetryConfig holds retry policy settings with exponential backoff.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	Multiplier      float64       `koanf:"multiplier"`
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}

// RateLimitConfig holds client-side rate limiting settings. A zero
// RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	BurstSize         int     `koanf:"burst_size"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}

// EngineConfig tunes the board aggregate store.
type EngineConfig struct {
	// LockTimeout bounds how long a mutation waits for a board's lock when
	// the caller's context carries no earlier deadline.
	LockTimeout time.Duration `koanf:"lock_timeout"`
	// ListWorkers caps concurrent board loads when listing an actor's boards.
	ListWorkers int `koanf:"list_workers"`
	// LeaseTTL is how long a board's cross-instance lease outlives a holder
	// that stopped renewing it. Used with the redis store only.
	LeaseTTL time.Duration `koanf:"lease_ttl"`
}

// Store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
)

// StoreConfig selects and configures the board repository.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	// DSN is a postgres URL or DSN for the sql driver; anything else is
	// opened as a sqlite file.
	DSN            string               `koanf:"dsn"`
	KeyPrefix      string               `koanf:"key_prefix"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// RedisConfig holds the shared Redis connection used by the redis store and
// the redis change relay.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// PubSub drivers.
const (
	PubSubLocal = "local"
	PubSubRedis = "redis"
)

// PubSubConfig selects the change propagator.
type PubSubConfig struct {
	Driver           string `koanf:"driver"`
	Channel          string `koanf:"channel"`
	SubscriberBuffer int    `koanf:"subscriber_buffer"`

	// Heartbeat is the keepalive interval on change streams.
	Heartbeat time.Duration `koanf:"heartbeat"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
	Audience  string `koanf:"audience"`
	// AdminRoles grant member management and board deletion to non-owner
	// members carrying any of them.
	AdminRoles []string `koanf:"admin_roles"`
}

// IdentityConfig toggles role enrichment from the identity service.
type IdentityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// RedisNeeded reports whether any configured component talks to Redis.
func (c *Config) RedisNeeded() bool {
	return c.Store.Driver == StoreRedis || c.PubSub.Driver == PubSubRedis
}
