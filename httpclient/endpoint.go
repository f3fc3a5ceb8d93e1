package httpclient

import (
	"maps"
	"slices"
	"time"
)

// Method is an HTTP request method
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodConnect Method = "CONNECT"
)

// Valid reports whether m is one of the supported methods
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch,
		MethodHead, MethodOptions, MethodTrace, MethodConnect:
		return true
	}
	return false
}

// String implements fmt.Stringer
func (m Method) String() string { return string(m) }

// QueryItem is one name/value pair of a query string. Order is preserved.
type QueryItem struct {
	Name  string
	Value string
}

// Endpoint describes one logical request independent of where it is sent.
// Zero values mean "not set": an empty method is GET and a zero timeout
// falls back to the configuration.
type Endpoint interface {
	Path() string
	Method() Method
	Headers() map[string]string
	Query() []QueryItem
	Body() []byte
	Timeout() time.Duration
	// ContentType and Accept are shorthands for the matching headers.
	ContentType() string
	Accept() string
}

// Spec is an immutable Endpoint value built with NewSpec
type Spec struct {
	path        string
	method      Method
	headers     map[string]string
	query       []QueryItem
	body        []byte
	timeout     time.Duration
	contentType string
	accept      string
}

var _ Endpoint = Spec{}

// SpecOption configures a Spec
type SpecOption func(*Spec)

// NewSpec builds an endpoint for method and path
func NewSpec(method Method, path string, opts ...SpecOption) Spec {
	s := Spec{path: path, method: method}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Get is shorthand for NewSpec(MethodGet, path, opts...)
func Get(path string, opts ...SpecOption) Spec {
	return NewSpec(MethodGet, path, opts...)
}

// Post is shorthand for NewSpec(MethodPost, path, opts...)
func Post(path string, opts ...SpecOption) Spec {
	return NewSpec(MethodPost, path, opts...)
}

// WithHeader sets one header
func WithHeader(key, value string) SpecOption {
	return func(s *Spec) {
		if s.headers == nil {
			s.headers = make(map[string]string)
		}
		s.headers[key] = value
	}
}

// WithHeaders sets several headers
func WithHeaders(headers map[string]string) SpecOption {
	return func(s *Spec) {
		if len(headers) == 0 {
			return
		}
		if s.headers == nil {
			s.headers = make(map[string]string, len(headers))
		}
		maps.Copy(s.headers, headers)
	}
}

// WithQuery appends a query item
func WithQuery(name, value string) SpecOption {
	return func(s *Spec) {
		s.query = append(s.query, QueryItem{Name: name, Value: value})
	}
}

// WithBody sets the request body. The slice is copied.
func WithBody(body []byte) SpecOption {
	return func(s *Spec) {
		s.body = slices.Clone(body)
	}
}

// WithRequestTimeout overrides the configuration timeout for this endpoint
func WithRequestTimeout(d time.Duration) SpecOption {
	return func(s *Spec) {
		s.timeout = d
	}
}

// WithContentType sets the Content-Type header
func WithContentType(ct string) SpecOption {
	return func(s *Spec) {
		s.contentType = ct
	}
}

// WithAccept sets the Accept header
func WithAccept(accept string) SpecOption {
	return func(s *Spec) {
		s.accept = accept
	}
}

func (s Spec) Path() string { return s.path }

func (s Spec) Method() Method { return s.method }

// Headers returns a copy of the endpoint headers
func (s Spec) Headers() map[string]string { return maps.Clone(s.headers) }

// Query returns a copy of the query items
func (s Spec) Query() []QueryItem { return slices.Clone(s.query) }

// Body returns a copy of the body
func (s Spec) Body() []byte { return slices.Clone(s.body) }

func (s Spec) Timeout() time.Duration { return s.timeout }

func (s Spec) ContentType() string { return s.contentType }

func (s Spec) Accept() string { return s.accept }
