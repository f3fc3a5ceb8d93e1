package transport

import (
	"context"
	"errors"
	"io"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey   = "X-API-Key"
	testAPIValue = "test-key"
	testPayload  = "hello upload"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRestySendRoundTrip(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodPost, r.Method)
		assert.Equal(t, testAPIValue, r.Header.Get(testAPIKey))
		assert.Equal(t, "a=1&b=2", r.URL.RawQuery)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"x":1}`, string(body))

		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(nethttp.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := NewResty(time.Second)
	resp, err := tr.Send(context.Background(), &Request{
		Method:  nethttp.MethodPost,
		URL:     server.URL + "/things?a=1&b=2",
		Headers: map[string]string{testAPIKey: testAPIValue, "Content-Type": "application/json"},
		Body:    []byte(`{"x":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "yes", resp.Header.Get("X-Reply"))
}

func TestRestySendReturnsErrorStatusesAsResponses(t *testing.T) {
	var calls int
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		calls++
		w.WriteHeader(nethttp.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := NewResty(time.Second).Send(context.Background(), &Request{Method: nethttp.MethodGet, URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 1, calls, "transport must not retry")
}

func TestRestySendHonorsRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewResty(time.Minute).Send(context.Background(), &Request{
		Method:  nethttp.MethodGet,
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)

	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	assert.True(t, timedOut, "expected a timeout-class error, got %v", err)
}

func TestRestySendConnectionRefused(t *testing.T) {
	server := httptest.NewServer(nethttp.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewResty(time.Second).Send(context.Background(), &Request{Method: nethttp.MethodGet, URL: url})
	assert.Error(t, err)
}

func TestRestyDownloadWritesTempFile(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodGet, r.Method)
		_, _ = w.Write([]byte("file-contents"))
	}))
	defer server.Close()

	dir := t.TempDir()
	tempPath, status, err := NewResty(time.Second, WithTempDir(dir)).Download(context.Background(), server.URL+"/f.bin", 0)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, dir, filepath.Dir(tempPath))

	data, err := os.ReadFile(tempPath)
	require.NoError(t, err)
	assert.Equal(t, "file-contents", string(data))
}

func TestRestyDownloadReportsStatus(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
	}))
	defer server.Close()

	tempPath, status, err := NewResty(time.Second, WithTempDir(t.TempDir())).Download(context.Background(), server.URL, 0)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.NotEmpty(t, tempPath)
}

func TestRestyDownloadFailureRemovesTempFile(t *testing.T) {
	server := httptest.NewServer(nethttp.NotFoundHandler())
	url := server.URL
	server.Close()

	dir := t.TempDir()
	_, _, err := NewResty(time.Second, WithTempDir(dir)).Download(context.Background(), url, 0)
	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestRestyUploadSendsFileBytes(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodPut, r.Method)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, testPayload, string(body))
		_, _ = w.Write([]byte("stored"))
	}))
	defer server.Close()

	path := writeTempFile(t, "note.txt", testPayload)
	resp, err := NewResty(time.Second).Upload(context.Background(), &Request{
		Method:  nethttp.MethodPut,
		URL:     server.URL,
		Headers: map[string]string{"Content-Type": "text/plain"},
	}, path)
	require.NoError(t, err)
	assert.Equal(t, "stored", string(resp.Body))
}

func TestRestyUploadMissingFile(t *testing.T) {
	_, err := NewResty(time.Second).Upload(context.Background(), &Request{Method: nethttp.MethodPost, URL: "http://127.0.0.1:1"}, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRestyUploadMultipart(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "note.txt", header.Filename)
		assert.Equal(t, testPayload, string(data))
		assert.Equal(t, testAPIValue, r.Header.Get(testAPIKey))
		w.WriteHeader(nethttp.StatusAccepted)
	}))
	defer server.Close()

	path := writeTempFile(t, "note.txt", testPayload)
	resp, err := NewResty(time.Second).UploadMultipart(context.Background(), &Request{
		Method:  nethttp.MethodPost,
		URL:     server.URL,
		Headers: map[string]string{testAPIKey: testAPIValue, "Content-Type": "application/octet-stream"},
	}, "document", path)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusAccepted, resp.StatusCode)
}

func TestRestyOptions(t *testing.T) {
	var seenUA string
	server := httptest.NewServer(nethttp.HandlerFunc(func(_ nethttp.ResponseWriter, r *nethttp.Request) {
		seenUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	var roundTrips int
	rt := roundTripperFunc(func(r *nethttp.Request) (*nethttp.Response, error) {
		roundTrips++
		return nethttp.DefaultTransport.RoundTrip(r)
	})

	tr := NewResty(0, WithUserAgent("netkit-test/1.0"), WithRoundTripper(rt), WithLogger(nil))
	assert.Equal(t, DefaultTimeout, tr.timeout)

	_, err := tr.Send(context.Background(), &Request{Method: nethttp.MethodGet, URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "netkit-test/1.0", seenUA)
	assert.Equal(t, 1, roundTrips)
}

func TestRestyFactory(t *testing.T) {
	tr := RestyFactory(WithTempDir("/tmp"))(5 * time.Second)
	r, ok := tr.(*Resty)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, r.timeout)
	assert.Equal(t, "/tmp", r.tempDir)
}

type roundTripperFunc func(*nethttp.Request) (*nethttp.Response, error)

func (f roundTripperFunc) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	return f(req)
}

type idleCountingTripper struct {
	nethttp.RoundTripper
	closed int
}

func (t *idleCountingTripper) CloseIdleConnections() {
	t.closed++
}

func TestRestyCloseIdleConnections(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer server.Close()

	rt := &idleCountingTripper{RoundTripper: nethttp.DefaultTransport.(*nethttp.Transport).Clone()}
	tr := NewResty(time.Second, WithRoundTripper(rt))

	_, err := tr.Send(context.Background(), &Request{Method: nethttp.MethodGet, URL: server.URL})
	require.NoError(t, err)

	tr.CloseIdleConnections()
	assert.Equal(t, 1, rt.closed)

	_, err = tr.Send(context.Background(), &Request{Method: nethttp.MethodGet, URL: server.URL})
	require.NoError(t, err)
}
