package httpclient

import (
	"context"
	"io"
	"io/fs"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/netkit/logger"
	"github.com/gaborage/netkit/testing/fixtures"
	"github.com/gaborage/netkit/testing/mocks"
	"github.com/gaborage/netkit/transport"
)

const downloadURL = "https://cdn.example.com/files/report.pdf"

func TestDownloadMovesArtifactToDestination(t *testing.T) {
	dir := t.TempDir()
	tempPath := writeFile(t, dir, "artifact.tmp", "pdf-bytes")
	dest := filepath.Join(dir, "out", "report.pdf")
	require.NoError(t, os.Mkdir(filepath.Dir(dest), 0o700))

	mt := &mocks.MockTransport{}
	mt.On("Download", mock.Anything, downloadURL, 5*time.Second).Return(tempPath, 200, nil)

	lines := &logLines{}
	c := newTestClient(t, mt, WithLogger(logger.NewSink(lines.sink)))

	require.NoError(t, c.Download(context.Background(), downloadURL, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(got))
	_, err = os.Stat(tempPath)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, lines.all(), "Downloaded file to: "+dest)
	mt.AssertExpectations(t)
}

func TestDownloadUsesInjectedFileSystem(t *testing.T) {
	mt := &mocks.MockTransport{}
	mt.ExpectDownload("/tmp/netkit-download-1", 200)
	mfs := &mocks.MockFileSystem{}
	mfs.On("Move", "/tmp/netkit-download-1", "/data/report.pdf").Return(nil)

	c := newTestClient(t, mt, WithFileSystem(mfs))
	require.NoError(t, c.Download(context.Background(), downloadURL, "/data/report.pdf"))
	mfs.AssertExpectations(t)
}

func TestDownloadServerErrorBeforeMove(t *testing.T) {
	dir := t.TempDir()
	tempPath := writeFile(t, dir, "artifact.tmp", "<html>error</html>")

	mt := &mocks.MockTransport{}
	mt.ExpectDownload(tempPath, 500)
	mfs := &mocks.MockFileSystem{}

	c := newTestClient(t, mt, WithFileSystem(mfs))
	err := c.Download(context.Background(), downloadURL, filepath.Join(dir, "dest"))

	require.Error(t, err)
	assert.True(t, IsServerStatus(err, 500))
	mfs.AssertNotCalled(t, "Move", mock.Anything, mock.Anything)
	_, statErr := os.Stat(tempPath)
	assert.ErrorIs(t, statErr, fs.ErrNotExist, "temporary artifact must be cleaned up")
}

func TestDownloadExistingDestination(t *testing.T) {
	dir := t.TempDir()
	tempPath := writeFile(t, dir, "artifact.tmp", "new")
	dest := writeFile(t, dir, "dest", "old")

	mt := &mocks.MockTransport{}
	mt.ExpectDownload(tempPath, 200)
	c := newTestClient(t, mt)

	err := c.Download(context.Background(), downloadURL, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)
	assert.Equal(t, ErrorKind(""), KindOf(err), "file system failures are not client error kinds")

	got, _ := os.ReadFile(dest)
	assert.Equal(t, "old", string(got))
	_, statErr := os.Stat(tempPath)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestDownloadFailures(t *testing.T) {
	t.Run("invalid_url", func(t *testing.T) {
		mt := &mocks.MockTransport{}
		c := newTestClient(t, mt)

		err := c.Download(context.Background(), "/relative/file", "/tmp/x")
		assert.True(t, IsKind(err, KindInvalidURL))
		mt.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("network", func(t *testing.T) {
		mt := &mocks.MockTransport{}
		mt.On("Download", mock.Anything, mock.Anything, mock.Anything).Return("", 0, fixtures.ErrConnectionRefused)
		c := newTestClient(t, mt, WithMaxRetries(3))

		err := c.Download(context.Background(), downloadURL, "/tmp/x")
		assert.True(t, IsKind(err, KindNetworkFailure))
		mt.AssertNumberOfCalls(t, "Download", 1)
	})

	t.Run("timeout", func(t *testing.T) {
		mt := &mocks.MockTransport{}
		mt.On("Download", mock.Anything, mock.Anything, mock.Anything).Return("", 0, fixtures.ErrTimeout)
		c := newTestClient(t, mt)

		err := c.Download(context.Background(), downloadURL, "/tmp/x")
		assert.True(t, IsKind(err, KindTimeout))
	})

	t.Run("cancelled", func(t *testing.T) {
		mt := &mocks.MockTransport{}
		c := newTestClient(t, mt)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := c.Download(ctx, downloadURL, "/tmp/x")
		assert.True(t, IsKind(err, KindCancelled))
		mt.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDownloadWithoutConfigurationUsesDefaultTimeout(t *testing.T) {
	mt := &mocks.MockTransport{}
	mt.On("Download", mock.Anything, downloadURL, DefaultTimeout).Return("/tmp/t", 200, nil)
	mfs := &mocks.MockFileSystem{}
	mfs.On("Move", "/tmp/t", "/tmp/d").Return(nil)

	c := New(WithTransport(mt), WithFileSystem(mfs))
	require.NoError(t, c.Download(context.Background(), downloadURL, "/tmp/d"))
	mt.AssertExpectations(t)
}

func TestUploadSendsFileAndReturnsRawBody(t *testing.T) {
	content := "line one\nline two\n"
	reply := []byte{0x01, 0x02, 'o', 'k'}

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodPut, r.Method)
		assert.Equal(t, "/v1/files/notes.txt", r.URL.Path)
		assert.Equal(t, "text/plain; charset=utf-8", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, content, string(body))
		_, _ = w.Write(reply)
	}))
	defer server.Close()

	cfg := mustConfig(t, server.URL, WithBasePath("/v1"))
	lines := &logLines{}
	c := New(WithConfiguration(cfg), WithLogger(logger.NewSink(lines.sink)))

	path := writeFile(t, t.TempDir(), "notes.txt", content)
	got, err := c.Upload(context.Background(), path, NewSpec(MethodPut, "/files/notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, reply, got)

	logged := lines.all()
	require.Len(t, logged, 2)
	assert.Equal(t, "Upload request: PUT "+server.URL+"/v1/files/notes.txt", logged[0])
	assert.Equal(t, "Upload response: 200", logged[1])
}

func TestUploadKeepsEndpointContentType(t *testing.T) {
	var captured *transport.Request
	mt := &mocks.MockTransport{}
	mt.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*transport.Request) }).
		Return(fixtures.Response(201, "created"), nil)

	path := writeFile(t, t.TempDir(), "data.bin", "plain text")
	c := newTestClient(t, mt)

	got, err := c.Upload(context.Background(), path, Post("/blobs", WithContentType("application/octet-stream")))
	require.NoError(t, err)
	assert.Equal(t, []byte("created"), got)
	require.NotNil(t, captured)
	assert.Equal(t, "application/octet-stream", captured.Headers["Content-Type"])
	mt.AssertCalled(t, "Upload", mock.Anything, mock.Anything, path)
}

func TestUploadFailures(t *testing.T) {
	path := writeFile(t, t.TempDir(), "f.txt", "x")

	t.Run("server_error", func(t *testing.T) {
		mt := &mocks.MockTransport{}
		mt.ExpectUpload(413, []byte("too large"))
		c := newTestClient(t, mt)

		_, err := c.Upload(context.Background(), path, Post("/up"))
		assert.True(t, IsServerStatus(err, 413))
		mt.AssertNumberOfCalls(t, "Upload", 1)
	})

	t.Run("network_not_retried", func(t *testing.T) {
		mt := &mocks.MockTransport{}
		mt.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(nil, fixtures.ErrConnectionRefused)
		c := newTestClient(t, mt, WithMaxRetries(2))

		_, err := c.Upload(context.Background(), path, Post("/up"))
		assert.True(t, IsKind(err, KindNetworkFailure))
		mt.AssertNumberOfCalls(t, "Upload", 1)
	})

	t.Run("missing_file", func(t *testing.T) {
		mt := &mocks.MockTransport{}
		c := newTestClient(t, mt)

		_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "missing"), Post("/up"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
		mt.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid_endpoint", func(t *testing.T) {
		mt := &mocks.MockTransport{}
		c := newTestClient(t, mt)

		_, err := c.Upload(context.Background(), path, NewSpec("BOGUS", "/up"))
		assert.True(t, IsKind(err, KindInvalidURL))
	})
}

func TestUploadMultipart(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("attachment")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "photo.png", header.Filename)
		assert.Equal(t, "image-bytes", string(data))
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer server.Close()

	cfg := mustConfig(t, server.URL)
	c := New(WithConfiguration(cfg))

	path := writeFile(t, t.TempDir(), "photo.png", "image-bytes")
	got, err := c.UploadMultipart(context.Background(), path, "attachment", Post("/attachments"))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"abc"}`, string(got))
}
