package observability

import (
	"maps"
	"strings"
	"time"
)

const (
	// EndpointStdout writes telemetry as pretty-printed JSON to the provider's writer.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name.
	EnvironmentDevelopment = "development"

	defaultSampleRate    = 1.0
	defaultBatchTimeout  = 5 * time.Second
	defaultInterval      = 10 * time.Second
	defaultExportTimeout = 30 * time.Second
)

// BoolPtr returns a pointer to the provided bool value.
func BoolPtr(v bool) *bool {
	return &v
}

// Float64Ptr returns a pointer to the provided float64 value.
func Float64Ptr(v float64) *float64 {
	return &v
}

// Config defines the telemetry export settings of the client.
// Field tags follow the koanf layout used by the config package.
type Config struct {
	// Enabled controls whether telemetry is exported at all.
	// When false, NewProvider returns a no-op provider.
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	Service ServiceConfig `koanf:"service" json:"service" yaml:"service" mapstructure:"service"`

	Environment string `koanf:"environment" json:"environment" yaml:"environment" mapstructure:"environment"`

	Trace TraceConfig `koanf:"trace" json:"trace" yaml:"trace" mapstructure:"trace"`

	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// ServiceConfig identifies the emitting process in exported resources.
type ServiceConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" mapstructure:"name"`
	Version string `koanf:"version" json:"version" yaml:"version" mapstructure:"version"`
}

// TraceConfig configures span export.
type TraceConfig struct {
	// Enabled defaults to true when observability is enabled.
	Enabled *bool `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Endpoint is "stdout" or an OTLP collector address.
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Protocol is "http" or "grpc" and is ignored for stdout.
	Protocol string `koanf:"protocol" json:"protocol" yaml:"protocol" mapstructure:"protocol"`

	// Insecure disables TLS for gRPC export.
	Insecure bool `koanf:"insecure" json:"insecure" yaml:"insecure" mapstructure:"insecure"`

	Headers map[string]string `koanf:"headers" json:"headers" yaml:"headers" mapstructure:"headers"`

	// SampleRate is the ratio of traces kept, in [0.0, 1.0].
	SampleRate *float64 `koanf:"samplerate" json:"samplerate" yaml:"samplerate" mapstructure:"samplerate"`

	BatchTimeout time.Duration `koanf:"batchtimeout" json:"batchtimeout" yaml:"batchtimeout" mapstructure:"batchtimeout"`
}

// MetricsConfig configures metric export. Metrics share the trace protocol,
// headers and TLS settings.
type MetricsConfig struct {
	Enabled *bool `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Endpoint defaults to the trace endpoint.
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	Interval      time.Duration `koanf:"interval" json:"interval" yaml:"interval" mapstructure:"interval"`
	ExportTimeout time.Duration `koanf:"exporttimeout" json:"exporttimeout" yaml:"exporttimeout" mapstructure:"exporttimeout"`
}

// ApplyDefaults sets default values for any config fields that are not specified.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}

	if c.Trace.Enabled == nil {
		c.Trace.Enabled = BoolPtr(true)
	}
	if c.Trace.Endpoint == "" {
		c.Trace.Endpoint = EndpointStdout
	}
	if c.Trace.Protocol == "" {
		c.Trace.Protocol = ProtocolHTTP
	}
	if c.Trace.SampleRate == nil {
		c.Trace.SampleRate = Float64Ptr(defaultSampleRate)
	}
	if c.Trace.BatchTimeout <= 0 {
		c.Trace.BatchTimeout = defaultBatchTimeout
	}
	c.Trace.Headers = maps.Clone(c.Trace.Headers)

	if c.Metrics.Enabled == nil {
		c.Metrics.Enabled = BoolPtr(true)
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = c.Trace.Endpoint
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = defaultInterval
	}
	if c.Metrics.ExportTimeout == 0 {
		c.Metrics.ExportTimeout = defaultExportTimeout
	}
}

// Validate checks an enabled configuration. Defaults should be applied first.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}

	if !c.Enabled {
		return nil
	}

	if c.Service.Name == "" {
		return ErrMissingServiceName
	}

	if c.Trace.SampleRate != nil {
		rate := *c.Trace.SampleRate
		if rate < 0.0 || rate > 1.0 {
			return ErrInvalidSampleRate
		}
	}

	if c.Trace.Protocol != ProtocolHTTP && c.Trace.Protocol != ProtocolGRPC {
		return ErrInvalidProtocol
	}

	if err := validateEndpointFormat(c.Trace.Endpoint, c.Trace.Protocol); err != nil {
		return err
	}
	if err := validateEndpointFormat(c.Metrics.Endpoint, c.Trace.Protocol); err != nil {
		return err
	}

	if c.Metrics.Interval < 0 || c.Metrics.ExportTimeout < 0 {
		return ErrInvalidInterval
	}

	return nil
}

func (c *Config) traceEnabled() bool {
	return c.Trace.Enabled != nil && *c.Trace.Enabled
}

func (c *Config) metricsEnabled() bool {
	return c.Metrics.Enabled != nil && *c.Metrics.Enabled
}

// validateEndpointFormat checks that the endpoint format matches the protocol.
func validateEndpointFormat(endpoint, protocol string) error {
	if endpoint == EndpointStdout || endpoint == "" {
		return nil
	}

	hasScheme := strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")

	if protocol == ProtocolGRPC && hasScheme {
		return ErrInvalidEndpointFormat
	}
	if protocol == ProtocolHTTP && !hasScheme {
		return ErrInvalidEndpointFormat
	}

	return nil
}
