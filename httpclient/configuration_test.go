package httpclient

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nktesting "github.com/gaborage/netkit/testing"
)

func TestNewConfigurationDefaults(t *testing.T) {
	cfg, err := NewConfiguration(nktesting.TestBaseURL)
	require.NoError(t, err)

	assert.Equal(t, nktesting.TestBaseURL, cfg.BaseURL())
	assert.Empty(t, cfg.BasePath())
	assert.Nil(t, cfg.GlobalHeaders())
	assert.Equal(t, DefaultTimeout, cfg.Timeout())
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestNewConfigurationOptions(t *testing.T) {
	headers := map[string]string{"X-API-Key": "k"}
	cfg, err := NewConfiguration("  "+nktesting.TestBaseURL+"  ",
		WithBasePath(nktesting.TestBasePath),
		WithGlobalHeaders(headers),
		WithTimeout(3*time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, nktesting.TestBaseURL, cfg.BaseURL())
	assert.Equal(t, nktesting.TestBasePath, cfg.BasePath())
	assert.Equal(t, 3*time.Second, cfg.Timeout())

	headers["X-API-Key"] = "changed"
	assert.Equal(t, "k", cfg.GlobalHeaders()["X-API-Key"], "configuration must copy headers")

	cfg.GlobalHeaders()["X-API-Key"] = "mutated"
	assert.Equal(t, "k", cfg.GlobalHeaders()["X-API-Key"])
}

func TestNewConfigurationRejectsMalformedBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		message string
	}{
		{name: "empty", baseURL: "", message: "is required"},
		{name: "whitespace", baseURL: "   ", message: "is required"},
		{name: "no_scheme", baseURL: "api.example.com", message: "must be an absolute url with scheme and host"},
		{name: "scheme_only", baseURL: "https://", message: "must be an absolute url with scheme and host"},
		{name: "no_host", baseURL: "mailto:someone@example.com", message: "must be an absolute url with scheme and host"},
		{name: "relative_path", baseURL: "/v1/users", message: "must be an absolute url with scheme and host"},
		{name: "garbage", baseURL: "not a url", message: "must be an absolute url with scheme and host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfiguration(tt.baseURL)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "base_url", cfgErr.Field)
			assert.Equal(t, tt.message, cfgErr.Message)

			// deterministic: same input, same error
			_, again := NewConfiguration(tt.baseURL)
			assert.Equal(t, err.Error(), again.Error())
		})
	}
}

func TestNewConfigurationRejectsNegativeTimeout(t *testing.T) {
	_, err := NewConfiguration(nktesting.TestBaseURL, WithTimeout(-time.Second))
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "timeout", cfgErr.Field)
	assert.Contains(t, err.Error(), "config_invalid: timeout must not be negative")
}

func TestConfigurationErrorFormatting(t *testing.T) {
	err := &ConfigurationError{Field: "base_url", Message: "is required"}
	assert.Equal(t, "config_invalid: base_url is required", err.Error())

	err.Value = "x"
	assert.Equal(t, `config_invalid: base_url is required (got "x")`, err.Error())
}
