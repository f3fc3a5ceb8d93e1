package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/netkit/observability"
)

// Config represents the netkit configuration: the service the client talks to,
// how it logs and where its telemetry goes. The koanf instance is kept for
// access to custom keys.
type Config struct {
	Client        ClientConfig         `koanf:"client" json:"client" yaml:"client" mapstructure:"client"`
	Log           LogConfig            `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Observability observability.Config `koanf:"observability" json:"observability" yaml:"observability" mapstructure:"observability"`

	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// ClientConfig holds the request client settings.
type ClientConfig struct {
	// BaseURL is the absolute URL of the service (scheme and host required).
	BaseURL string `koanf:"baseurl" json:"baseurl" yaml:"baseurl" mapstructure:"baseurl" validate:"required,url"`
	// BasePath is prepended to every endpoint path as-is.
	BasePath string `koanf:"basepath" json:"basepath" yaml:"basepath" mapstructure:"basepath"`
	// Timeout is the default per-request timeout. Default: 30s.
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// MaxRetries is how many times a transport failure is retried. Default: 0.
	MaxRetries int `koanf:"maxretries" json:"maxretries" yaml:"maxretries" mapstructure:"maxretries" validate:"gte=0,lte=10"`
	// Headers are sent with every request.
	Headers map[string]string `koanf:"headers" json:"headers" yaml:"headers" mapstructure:"headers"`
	// RequestIDHeader names the request ID header. Default: X-Request-ID.
	RequestIDHeader string `koanf:"requestidheader" json:"requestidheader" yaml:"requestidheader" mapstructure:"requestidheader"`
	// UserAgent is sent by the default transport when set.
	UserAgent string `koanf:"useragent" json:"useragent" yaml:"useragent" mapstructure:"useragent"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// String returns the raw value stored under key, for settings outside the struct.
func (c *Config) String(key string) string {
	if c.k == nil {
		return ""
	}
	return c.k.String(key)
}
