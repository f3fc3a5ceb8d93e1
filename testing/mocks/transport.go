package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/netkit/transport"
)

// MockTransport provides a testify-based mock implementation of transport.Transport.
//
// Example usage:
//
//	mt := &mocks.MockTransport{}
//	mt.ExpectSend(200, []byte(`{"user_id":1}`))
//	client := httpclient.New(httpclient.WithConfiguration(cfg), httpclient.WithTransport(mt))
type MockTransport struct {
	mock.Mock
}

var _ transport.Transport = (*MockTransport)(nil)

// Send implements transport.Transport
func (m *MockTransport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	args := m.Called(ctx, req)
	return responseArg(args, 0), args.Error(1)
}

// Download implements transport.Transport
func (m *MockTransport) Download(ctx context.Context, url string, timeout time.Duration) (string, int, error) {
	args := m.Called(ctx, url, timeout)
	return args.String(0), args.Int(1), args.Error(2)
}

// Upload implements transport.Transport
func (m *MockTransport) Upload(ctx context.Context, req *transport.Request, localFilePath string) (*transport.Response, error) {
	args := m.Called(ctx, req, localFilePath)
	return responseArg(args, 0), args.Error(1)
}

// UploadMultipart implements transport.Transport
func (m *MockTransport) UploadMultipart(ctx context.Context, req *transport.Request, field, localFilePath string) (*transport.Response, error) {
	args := m.Called(ctx, req, field, localFilePath)
	return responseArg(args, 0), args.Error(1)
}

// ExpectSend makes every Send return a response with status and body
func (m *MockTransport) ExpectSend(status int, body []byte) *mock.Call {
	return m.On("Send", mock.Anything, mock.Anything).
		Return(&transport.Response{StatusCode: status, Body: body}, nil)
}

// ExpectSendError makes every Send fail with err
func (m *MockTransport) ExpectSendError(err error) *mock.Call {
	return m.On("Send", mock.Anything, mock.Anything).Return(nil, err)
}

// ExpectDownload makes every Download deliver tempPath with status
func (m *MockTransport) ExpectDownload(tempPath string, status int) *mock.Call {
	return m.On("Download", mock.Anything, mock.Anything, mock.Anything).Return(tempPath, status, nil)
}

// ExpectUpload makes every Upload return a response with status and body
func (m *MockTransport) ExpectUpload(status int, body []byte) *mock.Call {
	return m.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return(&transport.Response{StatusCode: status, Body: body}, nil)
}

func responseArg(args mock.Arguments, i int) *transport.Response {
	if r := args.Get(i); r != nil {
		return r.(*transport.Response)
	}
	return nil
}
