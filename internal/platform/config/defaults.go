package config

const (
	defaultServerPort = 8080

	defaultRetryMaxAttempts = 3
	defaultRetryMultiplier  = 2.0

	defaultCircuitBreakerMaxFailures = 5
	defaultCircuitBreakerHalfOpen    = 1

	defaultListWorkers      = 8
	defaultSubscriberBuffer = 64
)

// defaults returns the default configuration values.
// These are loaded first and can be overridden by base.yaml, profile YAML, and env vars.
// Every overridable key must appear here so that its APP_ env var resolves.
func defaults() map[string]any {
	return map[string]any{
		"server.host":          "0.0.0.0",
		"server.port":          defaultServerPort,
		"server.read_timeout":  "5s",
		"server.write_timeout": "10s",
		"server.idle_timeout":  "120s",

		"log.level":  "info",
		"log.format": "json",

		"client.base_url":                        "http://localhost:8081",
		"client.timeout":                         "30s",
		"client.retry.max_attempts":              defaultRetryMaxAttempts,
		"client.retry.initial_interval":          "100ms",
		"client.retry.max_interval":              "10s",
		"client.retry.multiplier":                defaultRetryMultiplier,
		"client.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"client.circuit_breaker.timeout":         "30s",
		"client.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,
		"client.rate_limit.requests_per_second":  0,
		"client.rate_limit.burst_size":           1,

		"telemetry.enabled":      false,
		"telemetry.exporter":     "stdout",
		"telemetry.endpoint":     "",
		"telemetry.service_name": "board-engine",

		"engine.lock_timeout": "2s",
		"engine.list_workers": defaultListWorkers,
		"engine.lease_ttl":    "10s",

		"store.driver":                          StoreMemory,
		"store.dsn":                             "",
		"store.key_prefix":                      "board:",
		"store.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"store.circuit_breaker.timeout":         "10s",
		"store.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,

		"redis.addr":     "localhost:6379",
		"redis.password": "",
		"redis.db":       0,

		"pubsub.driver":            PubSubLocal,
		"pubsub.channel":           "board-events",
		"pubsub.subscriber_buffer": defaultSubscriberBuffer,
		"pubsub.heartbeat":         "15s",

		"auth.jwt_secret":  "",
		"auth.issuer":      "",
		"auth.audience":    "",
		"auth.admin_roles": []string{"admin"},

		"identity.enabled":      false,
		"identity.service_name": "identity-api",
	}
}
