package transport

import (
	"bytes"
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gaborage/netkit/logger"
)

const (
	// DefaultTimeout applies when neither the request nor the transport sets one
	DefaultTimeout = 30 * time.Second

	tempFilePattern = "netkit-download-*"
)

// Resty is the default Transport. It never retries on its own; each call is one exchange.
type Resty struct {
	client  *resty.Client
	timeout time.Duration
	tempDir string
}

var (
	_ Transport  = (*Resty)(nil)
	_ IdleCloser = (*Resty)(nil)
)

// Option configures a Resty transport
type Option func(*Resty)

// WithRoundTripper replaces the underlying http.RoundTripper
func WithRoundTripper(rt nethttp.RoundTripper) Option {
	return func(r *Resty) {
		if rt != nil {
			r.client.SetTransport(rt)
		}
	}
}

// WithTempDir sets the directory downloads are staged in (default os.TempDir)
func WithTempDir(dir string) Option {
	return func(r *Resty) {
		r.tempDir = dir
	}
}

// WithUserAgent sets a User-Agent header on every request
func WithUserAgent(ua string) Option {
	return func(r *Resty) {
		if ua != "" {
			r.client.SetHeader("User-Agent", ua)
		}
	}
}

// WithLogger routes resty's internal warnings through l
func WithLogger(l logger.Logger) Option {
	return func(r *Resty) {
		if l != nil {
			r.client.SetLogger(restyLogger{log: l})
		}
	}
}

// NewResty creates a resty-backed transport. timeout is the per-exchange default
// used when a request carries none; zero means DefaultTimeout.
func NewResty(timeout time.Duration, opts ...Option) *Resty {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetRetryCount(0).
		SetAllowGetMethodPayload(true).
		SetLogger(restyLogger{log: logger.Nop()})

	r := &Resty{client: client, timeout: timeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RestyFactory is a Factory producing Resty transports with opts applied.
func RestyFactory(opts ...Option) Factory {
	return func(timeout time.Duration) Transport {
		return NewResty(timeout, opts...)
	}
}

// CloseIdleConnections closes pooled connections that are not carrying a request.
// Connections in use are left alone and return to the pool when their call ends.
func (r *Resty) CloseIdleConnections() {
	r.client.GetClient().CloseIdleConnections()
}

// Send implements Transport
func (r *Resty) Send(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := r.withDeadline(ctx, req.Timeout)
	defer cancel()

	rr := r.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if len(req.Body) > 0 {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	return toResponse(resp), nil
}

// Download implements Transport
func (r *Resty) Download(ctx context.Context, url string, timeout time.Duration) (string, int, error) {
	ctx, cancel := r.withDeadline(ctx, timeout)
	defer cancel()

	tmp, err := os.CreateTemp(r.tempDir, tempFilePattern)
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("closing temp file: %w", err)
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetOutput(tempPath).
		Execute(nethttp.MethodGet, url)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, err
	}

	return tempPath, resp.StatusCode(), nil
}

// Upload implements Transport
func (r *Resty) Upload(ctx context.Context, req *Request, localFilePath string) (*Response, error) {
	data, err := os.ReadFile(localFilePath)
	if err != nil {
		return nil, fmt.Errorf("reading upload file: %w", err)
	}

	ctx, cancel := r.withDeadline(ctx, req.Timeout)
	defer cancel()

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetBody(data).
		Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	return toResponse(resp), nil
}

// UploadMultipart implements Transport
func (r *Resty) UploadMultipart(ctx context.Context, req *Request, field, localFilePath string) (*Response, error) {
	data, err := os.ReadFile(localFilePath)
	if err != nil {
		return nil, fmt.Errorf("reading upload file: %w", err)
	}

	ctx, cancel := r.withDeadline(ctx, req.Timeout)
	defer cancel()

	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		// the multipart writer owns the boundary-carrying Content-Type
		if strings.EqualFold(k, "Content-Type") {
			continue
		}
		headers[k] = v
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetFileReader(field, filepath.Base(localFilePath), bytes.NewReader(data)).
		Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	return toResponse(resp), nil
}

func (r *Resty) withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = r.timeout
	}
	return context.WithTimeout(ctx, timeout)
}

func toResponse(resp *resty.Response) *Response {
	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Header:     resp.Header(),
	}
}

// restyLogger adapts logger.Logger to resty.Logger
type restyLogger struct {
	log logger.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
