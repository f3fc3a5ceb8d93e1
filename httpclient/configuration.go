package httpclient

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultTimeout applies when a configuration sets no timeout
const DefaultTimeout = 30 * time.Second

// ErrInvalidConfiguration matches every *ConfigurationError through errors.Is
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigurationError reports a configuration value that cannot be used.
// Messages are lowercase, following the config package.
type ConfigurationError struct {
	Field   string
	Message string
	Value   string
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("config_invalid: %s %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("config_invalid: %s %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidConfiguration) match
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// Configuration is the base service a client talks to. It is immutable once built.
type Configuration struct {
	baseURL       string
	basePath      string
	globalHeaders map[string]string
	timeout       time.Duration
}

// ConfigOption configures a Configuration
type ConfigOption func(*configInput)

type configInput struct {
	BaseURL       string `validate:"required,url"`
	BasePath      string
	GlobalHeaders map[string]string
	Timeout       time.Duration `validate:"gte=0"`
}

// WithBasePath sets a prefix placed between the base URL and every endpoint path
func WithBasePath(path string) ConfigOption {
	return func(c *configInput) {
		c.BasePath = path
	}
}

// WithGlobalHeaders sets headers sent with every request. Endpoint headers win on conflict.
func WithGlobalHeaders(headers map[string]string) ConfigOption {
	return func(c *configInput) {
		c.GlobalHeaders = headers
	}
}

// WithTimeout sets the default request timeout. Zero means DefaultTimeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *configInput) {
		c.Timeout = d
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewConfiguration validates its input and returns an immutable configuration.
// baseURL must be absolute with a scheme and host.
func NewConfiguration(baseURL string, opts ...ConfigOption) (*Configuration, error) {
	in := configInput{BaseURL: strings.TrimSpace(baseURL)}
	for _, opt := range opts {
		opt(&in)
	}

	if err := configValidator().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fieldError(verrs[0])
		}
		return nil, err
	}

	u, err := url.Parse(in.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ConfigurationError{
			Field:   "base_url",
			Message: "must be an absolute url with scheme and host",
			Value:   in.BaseURL,
		}
	}

	timeout := in.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Configuration{
		baseURL:       in.BaseURL,
		basePath:      in.BasePath,
		globalHeaders: maps.Clone(in.GlobalHeaders),
		timeout:       timeout,
	}, nil
}

func fieldError(fe validator.FieldError) *ConfigurationError {
	switch fe.Field() {
	case "BaseURL":
		msg := "must be an absolute url with scheme and host"
		if fe.Tag() == "required" {
			msg = "is required"
		}
		return &ConfigurationError{Field: "base_url", Message: msg, Value: fmt.Sprintf("%v", fe.Value())}
	case "Timeout":
		return &ConfigurationError{Field: "timeout", Message: "must not be negative", Value: fmt.Sprintf("%v", fe.Value())}
	default:
		return &ConfigurationError{Field: strings.ToLower(fe.Field()), Message: "failed " + fe.Tag() + " validation"}
	}
}

func (c *Configuration) BaseURL() string { return c.baseURL }

func (c *Configuration) BasePath() string { return c.basePath }

// GlobalHeaders returns a copy of the headers sent with every request
func (c *Configuration) GlobalHeaders() map[string]string { return maps.Clone(c.globalHeaders) }

func (c *Configuration) Timeout() time.Duration { return c.timeout }
