package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/gaborage/netkit/httpclient"
	"github.com/gaborage/netkit/logger"
)

// EnvPrefix is the prefix of environment variables read by Load.
// NETKIT_CLIENT_TIMEOUT maps to client.timeout.
const EnvPrefix = "NETKIT_"

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path, when path is not empty
// 3. Default values (lowest priority)
func Load(path string) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if path == "" {
			return nil
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	})
}

// LoadBytes is Load with the YAML document given in memory.
func LoadBytes(data []byte) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
		return nil
	})
}

func load(source func(*koanf.Koanf) error) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := source(k); err != nil {
		return nil, err
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// Convert NETKIT_CLIENT_BASEURL to client.baseurl for koanf
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.timeout":         httpclient.DefaultTimeout.String(),
		"client.maxretries":      0,
		"client.requestidheader": "X-Request-ID",

		"log.level":  LogLevelInfo,
		"log.pretty": false,

		"observability.enabled":      false,
		"observability.service.name": "netkit",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// Configuration converts the client settings into a validated client configuration.
func (c ClientConfig) Configuration() (*httpclient.Configuration, error) {
	return httpclient.NewConfiguration(c.BaseURL,
		httpclient.WithBasePath(c.BasePath),
		httpclient.WithGlobalHeaders(c.Headers),
		httpclient.WithTimeout(c.Timeout),
	)
}

// ClientOptions returns the client options described by c, configuration included.
func (c ClientConfig) ClientOptions() ([]httpclient.Option, error) {
	cfg, err := c.Configuration()
	if err != nil {
		return nil, err
	}
	return []httpclient.Option{
		httpclient.WithConfiguration(cfg),
		httpclient.WithMaxRetries(c.MaxRetries),
		httpclient.WithRequestIDHeader(c.RequestIDHeader),
	}, nil
}

// Logger builds the zerolog-backed logger described by c.
func (c LogConfig) Logger() logger.Logger {
	return logger.New(c.Level, c.Pretty)
}

// RequestTimeout is the effective default timeout.
func (c ClientConfig) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return httpclient.DefaultTimeout
	}
	return c.Timeout
}
