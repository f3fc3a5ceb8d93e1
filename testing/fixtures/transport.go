package fixtures

import (
	"errors"
	"net"

	"github.com/gaborage/netkit/testing/mocks"
	"github.com/gaborage/netkit/transport"
)

// Content type constants
const (
	ApplicationJSONContentType = "application/json"
	TextPlainContentType       = "text/plain"
)

// ErrConnectionRefused is a transient, non-timeout transport failure
var ErrConnectionRefused = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

// ErrTimeout is a transport failure whose Timeout method reports true
var ErrTimeout net.Error = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// NewWorkingTransport creates a mock transport whose Send always returns status and body.
// This is useful for testing happy path scenarios.
func NewWorkingTransport(status int, body []byte) *mocks.MockTransport {
	mt := &mocks.MockTransport{}
	mt.ExpectSend(status, body)
	return mt
}

// NewFailingTransport creates a mock transport whose Send always fails with err
func NewFailingTransport(err error) *mocks.MockTransport {
	mt := &mocks.MockTransport{}
	mt.ExpectSendError(err)
	return mt
}

// NewFlakyTransport creates a mock transport that fails failures times with err
// and then returns status and body. This is useful for testing retry logic.
func NewFlakyTransport(failures int, err error, status int, body []byte) *mocks.MockTransport {
	mt := &mocks.MockTransport{}
	if failures > 0 {
		mt.ExpectSendError(err).Times(failures)
	}
	mt.ExpectSend(status, body)
	return mt
}

// Response builds a transport response
func Response(status int, body string) *transport.Response {
	return &transport.Response{StatusCode: status, Body: []byte(body)}
}
