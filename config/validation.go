package config

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Log level constants
const (
	LogLevelDebug    = "debug"
	LogLevelInfo     = "info"
	LogLevelWarn     = "warn"
	LogLevelError    = "error"
	LogLevelDisabled = "disabled"
)

var logLevels = []string{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelDisabled}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks cfg and returns the first problem as a *ConfigError.
func Validate(cfg *Config) error {
	if err := structValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toConfigError(verrs[0])
		}
		return fmt.Errorf("validating config: %w", err)
	}

	// validator's url tag accepts opaque URLs such as mailto:
	u, err := url.Parse(cfg.Client.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewValidationError("client.baseurl", "must be an absolute url with scheme and host")
	}

	obs := cfg.Observability
	obs.ApplyDefaults()
	if err := obs.Validate(); err != nil {
		return NewValidationError("observability", err.Error())
	}

	return nil
}

func toConfigError(fe validator.FieldError) *ConfigError {
	switch fe.StructNamespace() {
	case "Config.Client.BaseURL":
		if fe.Tag() == "required" {
			return NewMissingFieldError("client.baseurl", "NETKIT_CLIENT_BASEURL", "client.baseurl")
		}
		return NewValidationError("client.baseurl", "must be an absolute url with scheme and host")
	case "Config.Client.Timeout":
		return NewValidationError("client.timeout", "must not be negative")
	case "Config.Client.MaxRetries":
		return NewValidationError("client.maxretries", "must be between 0 and 10")
	case "Config.Log.Level":
		return NewInvalidFieldError("log.level", fmt.Sprintf("unsupported level %q", fe.Value()), logLevels)
	default:
		return NewValidationError(fe.Namespace(), "failed "+fe.Tag()+" validation")
	}
}
