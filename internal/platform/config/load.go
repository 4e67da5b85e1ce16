package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix        = "APP_"
	defaultConfigDir = "configs"
)

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	configDir string
}

// WithConfigDir sets the directory holding base.yaml and the profile files.
// The default is "configs" under the working directory.
func WithConfigDir(dir string) Option {
	return func(o *loadOptions) {
		o.configDir = dir
	}
}

// layer is one configuration source; later layers win.
type layer struct {
	name     string
	provider koanf.Provider
	parser   koanf.Parser
}

// Load merges, in increasing precedence, the built-in defaults,
// {configDir}/base.yaml, {configDir}/{profile}.yaml and APP_ environment
// variables, then validates the result.
//
// Env names are matched against the keys already loaded, so underscores
// inside a key survive:
//
//	APP_SERVER_READ_TIMEOUT        -> server.read_timeout
//	APP_STORE_CIRCUIT_BREAKER_TIMEOUT -> store.circuit_breaker.timeout
//	APP_AUTH_JWT_SECRET            -> auth.jwt_secret
//
// Keys holding lists take comma-separated values:
//
//	APP_AUTH_ADMIN_ROLES=admin,support -> auth.admin_roles
func Load(profile string, opts ...Option) (*Config, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	o := &loadOptions{configDir: defaultConfigDir}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")
	files := []layer{
		{name: "defaults", provider: confmap.Provider(defaults(), ".")},
		{name: "base config", provider: file.Provider(filepath.Join(o.configDir, "base.yaml")), parser: yaml.Parser()},
		{name: "profile config", provider: file.Provider(filepath.Join(o.configDir, profile+".yaml")), parser: yaml.Parser()},
	}
	for _, l := range files {
		if err := k.Load(l.provider, l.parser); err != nil {
			return nil, fmt.Errorf("loading %s: %w", l.name, err)
		}
	}

	// Every known key is registered by now, defaults included.
	if err := k.Load(envProvider(k), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// envProvider maps APP_ variables onto the keys k already holds. Unknown
// names fall back to splitting on every underscore.
func envProvider(k *koanf.Koanf) koanf.Provider {
	known := make(map[string]string, len(k.Keys()))
	lists := make(map[string]bool)
	for _, key := range k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
		if _, ok := k.Get(key).([]any); ok {
			lists[key] = true
		}
		if _, ok := k.Get(key).([]string); ok {
			lists[key] = true
		}
	}

	return env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(name, value string) (string, any) {
			name = strings.ToLower(strings.TrimPrefix(name, envPrefix))
			key, ok := known[name]
			if !ok {
				return strings.ReplaceAll(name, "_", "."), value
			}
			if lists[key] {
				return key, splitList(value)
			}
			return key, value
		},
	})
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateProfile(profile string) error {
	switch {
	case strings.TrimSpace(profile) == "":
		return errors.New("profile must not be empty")
	case strings.ContainsAny(profile, `/\`):
		return fmt.Errorf("profile must not contain path separators, got %q", profile)
	case strings.Contains(profile, ".."):
		return fmt.Errorf("profile must not contain path traversal, got %q", profile)
	}
	return nil
}
