package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/gaborage/netkit/codec"
)

// MockDecoder provides a testify-based mock implementation of codec.Decoder
type MockDecoder struct {
	mock.Mock
}

var _ codec.Decoder = (*MockDecoder)(nil)

// Decode implements codec.Decoder
func (m *MockDecoder) Decode(data []byte, v any) error {
	args := m.Called(data, v)
	return args.Error(0)
}
