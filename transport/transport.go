// Package transport defines the byte-level network collaborator used by the client
// and provides the default implementation built on resty.
package transport

import (
	"context"
	nethttp "net/http"
	"time"
)

// Request is a fully resolved request ready to be sent.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// Timeout bounds the whole exchange; zero falls back to the transport default.
	Timeout time.Duration
}

// Response is what came back over the wire. Any status code is a valid response.
type Response struct {
	StatusCode int
	Body       []byte
	Header     nethttp.Header
}

// Transport performs network I/O. Errors are transport-level failures only
// (connectivity, timeout, cancellation); HTTP status codes are never errors.
type Transport interface {
	// Send performs one request and reads the whole response body.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Download GETs url and streams the body into a temporary file owned by the caller.
	// tempPath is set whenever a response was received, regardless of status.
	Download(ctx context.Context, url string, timeout time.Duration) (tempPath string, statusCode int, err error)

	// Upload sends the bytes of localFilePath as the request body.
	Upload(ctx context.Context, req *Request, localFilePath string) (*Response, error)

	// UploadMultipart sends localFilePath as a multipart/form-data part named field.
	UploadMultipart(ctx context.Context, req *Request, field, localFilePath string) (*Response, error)
}

// Factory builds a Transport whose default timeout is timeout.
type Factory func(timeout time.Duration) Transport

// IdleCloser is implemented by transports that pool connections.
type IdleCloser interface {
	CloseIdleConnections()
}
