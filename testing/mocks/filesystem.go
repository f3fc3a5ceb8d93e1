package mocks

import "github.com/stretchr/testify/mock"

// MockFileSystem provides a testify-based mock of the client's file system.
// It satisfies httpclient.FileSystem.
type MockFileSystem struct {
	mock.Mock
}

// Move records the call and returns the configured error
func (m *MockFileSystem) Move(from, to string) error {
	args := m.Called(from, to)
	return args.Error(0)
}
