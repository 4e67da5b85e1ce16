package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Client.validate(),
		c.Telemetry.validate(),
		c.Engine.validate(),
		c.Store.validate(),
		c.PubSub.validate(),
		c.Auth.validate(),
		c.validateRedis(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (cl *ClientConfig) validate() error {
	var errs []error

	if cl.BaseURL == "" {
		errs = append(errs, errors.New("client.base_url must not be empty"))
	}
	if cl.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if cl.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("client.retry.max_attempts must be >= 1, got %d", cl.Retry.MaxAttempts))
	}
	if cl.Retry.Multiplier <= 0 {
		errs = append(errs, fmt.Errorf("client.retry.multiplier must be positive, got %f", cl.Retry.Multiplier))
	}
	if cl.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("client.circuit_breaker.max_failures must be >= 1, got %d",
			cl.CircuitBreaker.MaxFailures))
	}
	if cl.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("client.rate_limit.requests_per_second must not be negative, got %f",
			cl.RateLimit.RequestsPerSecond))
	}
	if cl.RateLimit.RequestsPerSecond > 0 && cl.RateLimit.BurstSize < 1 {
		errs = append(errs, fmt.Errorf("client.rate_limit.burst_size must be >= 1, got %d", cl.RateLimit.BurstSize))
	}

	return errors.Join(errs...)
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case "stdout", "otlp":
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}

func (e *EngineConfig) validate() error {
	var errs []error

	if e.LockTimeout <= 0 {
		errs = append(errs, errors.New("engine.lock_timeout must be positive"))
	}
	if e.ListWorkers < 1 {
		errs = append(errs, fmt.Errorf("engine.list_workers must be >= 1, got %d", e.ListWorkers))
	}
	if e.LeaseTTL < time.Second {
		errs = append(errs, fmt.Errorf("engine.lease_ttl must be at least 1s, got %s", e.LeaseTTL))
	}

	return errors.Join(errs...)
}

func (s *StoreConfig) validate() error {
	var errs []error

	switch s.Driver {
	case StoreMemory, StoreRedis:
	case StoreSQL:
		if s.DSN == "" {
			errs = append(errs, errors.New("store.dsn must not be empty when driver is sql"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be one of: memory, redis, sql; got %q", s.Driver))
	}

	if s.Driver != StoreMemory && s.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("store.circuit_breaker.max_failures must be >= 1, got %d",
			s.CircuitBreaker.MaxFailures))
	}

	return errors.Join(errs...)
}

func (p *PubSubConfig) validate() error {
	var errs []error

	switch p.Driver {
	case PubSubLocal:
	case PubSubRedis:
		if p.Channel == "" {
			errs = append(errs, errors.New("pubsub.channel must not be empty when driver is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("pubsub.driver must be one of: local, redis; got %q", p.Driver))
	}

	if p.SubscriberBuffer < 1 {
		errs = append(errs, fmt.Errorf("pubsub.subscriber_buffer must be >= 1, got %d", p.SubscriberBuffer))
	}
	if p.Heartbeat < time.Second {
		errs = append(errs, fmt.Errorf("pubsub.heartbeat must be >= 1s, got %s", p.Heartbeat))
	}

	return errors.Join(errs...)
}

// minSecretLen is the shortest HS256 secret accepted.
const minSecretLen = 32

func (a *AuthConfig) validate() error {
	if len(a.JWTSecret) < minSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", minSecretLen)
	}
	return nil
}

func (c *Config) validateRedis() error {
	if c.RedisNeeded() && c.Redis.Addr == "" {
		return errors.New("redis.addr must not be empty when a redis driver is selected")
	}
	return nil
}
