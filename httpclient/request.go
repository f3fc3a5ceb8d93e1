package httpclient

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/gaborage/netkit/transport"
)

const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
)

// ResolvedRequest is an endpoint bound to a configuration, ready to send
type ResolvedRequest struct {
	URL     string
	Method  Method
	Headers map[string]string
	Timeout time.Duration
	Body    []byte
}

// Resolve builds the request for ep against cfg.
//
// The URL is the base URL followed by the base path and the endpoint path,
// joined exactly as given: no separator is added or removed. Endpoint query
// items replace any query on the base URL and keep their order. Headers are
// merged global first, then endpoint headers, then the endpoint's Content-Type
// and Accept shorthands. The endpoint timeout wins when set.
//
// Every failure is a KindInvalidURL *Error.
func Resolve(ep Endpoint, cfg *Configuration) (*ResolvedRequest, error) {
	if cfg == nil {
		return nil, newError(KindPreconditionViolation, "", ErrNotConfigured)
	}

	method := ep.Method()
	if method == "" {
		method = MethodGet
	}
	if !method.Valid() {
		return nil, newError(KindInvalidURL, "", fmt.Errorf("unsupported method %q", method))
	}

	target, err := buildURL(cfg, ep)
	if err != nil {
		return nil, newError(KindInvalidURL, "", err)
	}

	timeout := ep.Timeout()
	if timeout <= 0 {
		timeout = cfg.Timeout()
	}

	return &ResolvedRequest{
		URL:     target,
		Method:  method,
		Headers: mergeHeaders(cfg.globalHeaders, ep),
		Timeout: timeout,
		Body:    ep.Body(),
	}, nil
}

// buildURL appends basePath and the endpoint path to the base URL's path,
// never to the URL text, so neither can reach the host. Characters such as
// '?' in the endpoint path are escaped into the path.
func buildURL(cfg *Configuration, ep Endpoint) (string, error) {
	u, err := url.Parse(cfg.baseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url: %s", cfg.baseURL)
	}

	path := u.Path + cfg.basePath + ep.Path()
	if path != "" && !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("path %q must start with '/' after host %s", path, u.Host)
	}
	if strings.ContainsFunc(path, unicode.IsControl) {
		return "", fmt.Errorf("path %q contains control characters", path)
	}

	u.Path = path
	u.RawPath = ""
	u.RawQuery = encodeQuery(ep.Query())
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// encodeQuery keeps item order, which url.Values.Encode does not
func encodeQuery(items []QueryItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(item.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(item.Value))
	}
	return b.String()
}

func mergeHeaders(global map[string]string, ep Endpoint) map[string]string {
	epHeaders := ep.Headers()
	out := make(map[string]string, len(global)+len(epHeaders)+2)

	for k, v := range global {
		setHeader(out, k, v)
	}
	for k, v := range epHeaders {
		setHeader(out, k, v)
	}
	if ct := ep.ContentType(); ct != "" {
		setHeader(out, headerContentType, ct)
	}
	if accept := ep.Accept(); accept != "" {
		setHeader(out, headerAccept, accept)
	}
	return out
}

// setHeader replaces any existing key that differs only in case
func setHeader(h map[string]string, key, value string) {
	for k := range h {
		if k != key && strings.EqualFold(k, key) {
			delete(h, k)
		}
	}
	h[key] = value
}

func hasHeader(h map[string]string, key string) bool {
	for k := range h {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func (r *ResolvedRequest) transportRequest() *transport.Request {
	return &transport.Request{
		Method:  string(r.Method),
		URL:     r.URL,
		Headers: r.Headers,
		Body:    r.Body,
		Timeout: r.Timeout,
	}
}
