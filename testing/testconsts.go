package testing

// Logger Constants
// These constants define common logger configurations used across test files.
const (
	// TestLoggerLevelDebug is the debug log level used in most tests
	TestLoggerLevelDebug = "debug"
	// TestLoggerLevelDisabled completely disables logging in tests
	TestLoggerLevelDisabled = "disabled"
)

// Service Constants
// Common base URLs and paths used in client tests.
const (
	TestBaseURL  = "https://api.example.com"
	TestBasePath = "/v1"
	TestUserPath = "/users/42"
)
