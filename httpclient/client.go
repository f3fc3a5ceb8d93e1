package httpclient

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/netkit/codec"
	"github.com/gaborage/netkit/internal/tracking"
	"github.com/gaborage/netkit/logger"
	"github.com/gaborage/netkit/trace"
	"github.com/gaborage/netkit/transport"
)

// Requester is the client surface used by callers that want to swap in a fake
type Requester interface {
	Raw(ctx context.Context, ep Endpoint) ([]byte, error)
	Download(ctx context.Context, sourceURL, destinationPath string) error
	Upload(ctx context.Context, localFilePath string, ep Endpoint) ([]byte, error)
}

var _ Requester = (*Client)(nil)

// state is replaced as a whole by the setters. A call loads it once and
// keeps using that snapshot until it returns.
type state struct {
	config     *Configuration
	transport  transport.Transport
	log        logger.Logger
	maxRetries int

	// ownsTransport is set when transport came from the factory and nothing
	// outside the client holds it.
	ownsTransport bool
}

// Client executes endpoints against a configured service.
// It is safe for concurrent use, including concurrent calls to the setters.
type Client struct {
	current atomic.Pointer[state]

	factory         transport.Factory
	decoder         codec.Decoder
	fs              FileSystem
	requestIDHeader string
}

// Option configures a Client
type Option func(*options)

type options struct {
	config          *Configuration
	transport       transport.Transport
	factory         transport.Factory
	decoder         codec.Decoder
	fs              FileSystem
	log             logger.Logger
	maxRetries      int
	requestIDHeader string
}

// WithConfiguration binds the client to cfg
func WithConfiguration(cfg *Configuration) Option {
	return func(o *options) { o.config = cfg }
}

// WithTransport sets the transport used until the next SetConfiguration or SetTransport
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithTransportFactory sets how transports are built when the configuration changes
func WithTransportFactory(f transport.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithDecoder replaces the default snake_case JSON decoder
func WithDecoder(d codec.Decoder) Option {
	return func(o *options) { o.decoder = d }
}

// WithFileSystem replaces the OS file system used by Download
func WithFileSystem(fs FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithLogger sets the diagnostic logger
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMaxRetries sets how many times a transient failure is retried
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = n }
}

// WithRequestIDHeader sets the header stamped with the request ID. Empty disables stamping.
func WithRequestIDHeader(name string) Option {
	return func(o *options) { o.requestIDHeader = name }
}

// New creates a client. Without WithConfiguration every call fails with
// KindPreconditionViolation until SetConfiguration is called.
func New(opts ...Option) *Client {
	o := options{requestIDHeader: trace.HeaderXRequestID}
	for _, opt := range opts {
		opt(&o)
	}

	if o.factory == nil {
		o.factory = transport.RestyFactory()
	}
	if o.decoder == nil {
		o.decoder = codec.SnakeCase()
	}
	if o.fs == nil {
		o.fs = OSFileSystem{}
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	owned := o.transport == nil
	if owned {
		timeout := DefaultTimeout
		if o.config != nil {
			timeout = o.config.Timeout()
		}
		o.transport = o.factory(timeout)
	}

	c := &Client{
		factory:         o.factory,
		decoder:         o.decoder,
		fs:              o.fs,
		requestIDHeader: o.requestIDHeader,
	}
	c.current.Store(&state{
		config:        o.config,
		transport:     o.transport,
		log:           o.log,
		maxRetries:    max(o.maxRetries, 0),
		ownsTransport: owned,
	})
	return c
}

// update applies fn to a copy of the current state and returns the state it replaced.
func (c *Client) update(fn func(s *state)) *state {
	for {
		old := c.current.Load()
		next := *old
		fn(&next)
		if c.current.CompareAndSwap(old, &next) {
			return old
		}
	}
}

// retire releases the idle connections of a replaced transport the client built.
// Connections still serving in-flight calls go back to that transport's pool
// and expire with its idle timeout.
func retire(old *state) {
	if !old.ownsTransport {
		return
	}
	if ic, ok := old.transport.(transport.IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// SetConfiguration binds the client to cfg and rebuilds the transport with cfg's timeout.
// Calls already in flight finish on the previous configuration and transport,
// whose idle connections are closed.
func (c *Client) SetConfiguration(cfg *Configuration) {
	timeout := DefaultTimeout
	if cfg != nil {
		timeout = cfg.Timeout()
	}
	t := c.factory(timeout)
	retire(c.update(func(s *state) {
		s.config = cfg
		s.transport = t
		s.ownsTransport = true
	}))
}

// SetMaxRetryCount sets the retry budget. Negative values are treated as 0.
func (c *Client) SetMaxRetryCount(n int) {
	c.update(func(s *state) { s.maxRetries = max(n, 0) })
}

// SetLogger replaces the diagnostic logger. nil silences logging.
func (c *Client) SetLogger(l logger.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	c.update(func(s *state) { s.log = l })
}

// SetTransport replaces the transport, typically with a fake in tests.
// The client never closes connections of a transport set this way.
func (c *Client) SetTransport(t transport.Transport) {
	if t == nil {
		return
	}
	retire(c.update(func(s *state) {
		s.transport = t
		s.ownsTransport = false
	}))
}

// Configuration returns the current configuration, or nil
func (c *Client) Configuration() *Configuration {
	return c.current.Load().config
}

// MaxRetryCount returns the current retry budget
func (c *Client) MaxRetryCount() int {
	return c.current.Load().maxRetries
}

// Do executes ep and decodes a 2xx body into T.
//
// Transport failures are retried immediately up to the client's retry budget;
// the last one is returned as KindTimeout or KindNetworkFailure. A non-2xx
// status is returned as KindServerError and a body that does not decode as
// KindDecodingFailed; neither is retried.
func Do[T any](ctx context.Context, c *Client, ep Endpoint) (T, error) {
	var out T
	_, err := c.execute(ctx, ep, func(st *state, body []byte) error {
		if err := c.decoder.Decode(body, &out); err != nil {
			st.log.Error().Err(err).Msgf("Decoding failed: %v", err)
			return newError(KindDecodingFailed, "", err)
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Raw executes ep like Do and returns the 2xx body undecoded
func (c *Client) Raw(ctx context.Context, ep Endpoint) ([]byte, error) {
	return c.execute(ctx, ep, nil)
}

func (c *Client) execute(ctx context.Context, ep Endpoint, decode func(*state, []byte) error) ([]byte, error) {
	st := c.current.Load()
	req, err := c.resolve(ctx, st, ep)
	if err != nil {
		return nil, err
	}

	ctx, span := tracking.StartSpan(ctx, tracking.OpRequest, string(req.Method), req.URL)
	start := time.Now()

	body, status, err := c.sendWithRetry(ctx, st, req)
	if err == nil && decode != nil {
		err = decode(st, body)
		var e *Error
		if errors.As(err, &e) {
			e.URL = req.URL
		}
	}

	finish(ctx, span, tracking.OpRequest, string(req.Method), status, start, err)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// resolve checks the precondition, resolves ep and stamps the request ID
func (c *Client) resolve(ctx context.Context, st *state, ep Endpoint) (*ResolvedRequest, error) {
	if st.config == nil {
		st.log.Error().Msg("Client used before a configuration was set")
		return nil, newError(KindPreconditionViolation, "", ErrNotConfigured)
	}

	req, err := Resolve(ep, st.config)
	if err != nil {
		st.log.Error().Err(err).Str("path", ep.Path()).Msgf("Invalid URL for endpoint: %s", ep.Path())
		return nil, err
	}

	if c.requestIDHeader != "" {
		req.Headers = trace.Stamp(ctx, req.Headers, c.requestIDHeader)
	}
	return req, nil
}

func (c *Client) sendWithRetry(ctx context.Context, st *state, req *ResolvedRequest) ([]byte, int, error) {
	method := string(req.Method)
	st.log.Info().
		Str("method", method).
		Str("url", req.URL).
		Interface("headers", req.Headers).
		Msgf("Request: %s %s", method, req.URL)

	var lastErr *Error
	for attempt := 0; attempt <= st.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, contextError(ctx, req, err)
		}

		resp, err := st.transport.Send(ctx, req.transportRequest())
		if err != nil {
			classified := classify(ctx, req, err)
			if classified.Kind == KindCancelled || ctx.Err() != nil {
				tracking.RecordAttempt(ctx, tracking.OpRequest, method, attempt, tracking.OutcomeFailure)
				return nil, 0, classified
			}

			st.log.Warn().Err(err).Int("attempt", attempt).Msgf("Network error: %v, attempt: %d", err, attempt)
			lastErr = classified
			outcome := tracking.OutcomeRetry
			if attempt == st.maxRetries {
				outcome = tracking.OutcomeFailure
			}
			tracking.RecordAttempt(ctx, tracking.OpRequest, method, attempt, outcome)
			continue
		}

		if resp == nil {
			tracking.RecordAttempt(ctx, tracking.OpRequest, method, attempt, tracking.OutcomeFailure)
			return nil, 0, newError(KindInvalidResponse, req.URL, nil)
		}

		st.log.Info().Int("status", resp.StatusCode).Msgf("Response: %d", resp.StatusCode)
		if !IsSuccessStatus(resp.StatusCode) {
			tracking.RecordAttempt(ctx, tracking.OpRequest, method, attempt, tracking.OutcomeFailure)
			return nil, resp.StatusCode, newServerError(req.URL, resp.StatusCode, resp.Body)
		}

		tracking.RecordAttempt(ctx, tracking.OpRequest, method, attempt, tracking.OutcomeSuccess)
		return resp.Body, resp.StatusCode, nil
	}

	if lastErr != nil {
		return nil, 0, lastErr
	}
	return nil, 0, newError(KindInvalidResponse, req.URL, nil)
}

// classify maps a transport error onto an error kind. The caller's context
// decides first: a cancelled call is never reported as a network failure.
func classify(ctx context.Context, req *ResolvedRequest, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return contextError(ctx, req, ctxErr)
	}
	if errors.Is(err, context.Canceled) {
		return newError(KindCancelled, req.URL, err)
	}
	if isTimeout(err) {
		return newTimeoutError(req.URL, req.Timeout, err)
	}
	return newError(KindNetworkFailure, req.URL, err)
}

func contextError(ctx context.Context, req *ResolvedRequest, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newTimeoutError(req.URL, req.Timeout, context.Cause(ctx))
	}
	return newError(KindCancelled, req.URL, context.Cause(ctx))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func finish(ctx context.Context, span oteltrace.Span, operation, method string, status int, start time.Time, err error) {
	errorType := string(KindOf(err))
	if err != nil && errorType == "" {
		errorType = "error"
	}
	tracking.RecordDuration(ctx, operation, method, status, errorType, time.Since(start))
	tracking.EndSpan(span, status, errorType, err)
}
