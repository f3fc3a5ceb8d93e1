package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/gaborage/netkit/internal/tracking"
	"github.com/gaborage/netkit/transport"
)

// Download fetches sourceURL with a single GET and moves the body to destinationPath.
//
// sourceURL must be absolute; it is not resolved against the configuration,
// whose timeout still applies when one is set. A non-2xx status fails with
// KindServerError before anything is moved. Failures of the move itself are
// returned as file system errors, and an existing destinationPath fails with
// an error matching fs.ErrExist.
func (c *Client) Download(ctx context.Context, sourceURL, destinationPath string) error {
	st := c.current.Load()

	u, err := url.Parse(sourceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		st.log.Error().Str("url", sourceURL).Msgf("Invalid URL for download: %s", sourceURL)
		return newError(KindInvalidURL, sourceURL, err)
	}

	timeout := DefaultTimeout
	if st.config != nil {
		timeout = st.config.Timeout()
	}
	req := &ResolvedRequest{URL: sourceURL, Method: MethodGet, Timeout: timeout}

	ctx, span := tracking.StartSpan(ctx, tracking.OpDownload, string(MethodGet), sourceURL)
	start := time.Now()

	status, err := c.download(ctx, st, req, destinationPath)
	finish(ctx, span, tracking.OpDownload, string(MethodGet), status, start, err)
	return err
}

func (c *Client) download(ctx context.Context, st *state, req *ResolvedRequest, destinationPath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, contextError(ctx, req, err)
	}

	st.log.Info().Str("url", req.URL).Msgf("Download request: %s", req.URL)
	tempPath, status, err := st.transport.Download(ctx, req.URL, req.Timeout)
	if err != nil {
		tracking.RecordAttempt(ctx, tracking.OpDownload, string(req.Method), 0, tracking.OutcomeFailure)
		st.log.Warn().Err(err).Msgf("Network error: %v, attempt: %d", err, 0)
		return 0, classify(ctx, req, err)
	}

	if !IsSuccessStatus(status) {
		tracking.RecordAttempt(ctx, tracking.OpDownload, string(req.Method), 0, tracking.OutcomeFailure)
		removeTemp(tempPath)
		return status, newServerError(req.URL, status, nil)
	}
	tracking.RecordAttempt(ctx, tracking.OpDownload, string(req.Method), 0, tracking.OutcomeSuccess)

	if err := c.fs.Move(tempPath, destinationPath); err != nil {
		removeTemp(tempPath)
		st.log.Error().Err(err).Str("destination", destinationPath).Msgf("Moving download failed: %v", err)
		return status, fmt.Errorf("moving download to %s: %w", destinationPath, err)
	}

	st.log.Info().Str("destination", destinationPath).Msgf("Downloaded file to: %s", destinationPath)
	return status, nil
}

func removeTemp(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

// Upload sends the contents of localFilePath as the body of ep and returns the
// 2xx response body unmodified. When ep sets no Content-Type it is detected
// from the file. Uploads are attempted once.
func (c *Client) Upload(ctx context.Context, localFilePath string, ep Endpoint) ([]byte, error) {
	return c.upload(ctx, tracking.OpUpload, localFilePath, ep,
		func(ctx context.Context, t transport.Transport, req *transport.Request) (*transport.Response, error) {
			return t.Upload(ctx, req, localFilePath)
		})
}

// UploadMultipart sends localFilePath as a multipart/form-data part named field
func (c *Client) UploadMultipart(ctx context.Context, localFilePath, field string, ep Endpoint) ([]byte, error) {
	return c.upload(ctx, tracking.OpUploadMultipart, localFilePath, ep,
		func(ctx context.Context, t transport.Transport, req *transport.Request) (*transport.Response, error) {
			return t.UploadMultipart(ctx, req, field, localFilePath)
		})
}

type sendFunc func(ctx context.Context, t transport.Transport, req *transport.Request) (*transport.Response, error)

func (c *Client) upload(ctx context.Context, operation, localFilePath string, ep Endpoint, send sendFunc) ([]byte, error) {
	st := c.current.Load()
	req, err := c.resolve(ctx, st, ep)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(localFilePath); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	if operation == tracking.OpUpload && !hasHeader(req.Headers, headerContentType) {
		if mt, err := mimetype.DetectFile(localFilePath); err == nil {
			req.Headers[headerContentType] = mt.String()
		}
	}

	method := string(req.Method)
	ctx, span := tracking.StartSpan(ctx, operation, method, req.URL)
	start := time.Now()

	body, status, err := c.sendUpload(ctx, st, operation, req, send)
	finish(ctx, span, operation, method, status, start, err)
	return body, err
}

func (c *Client) sendUpload(ctx context.Context, st *state, operation string, req *ResolvedRequest, send sendFunc) ([]byte, int, error) {
	method := string(req.Method)
	if err := ctx.Err(); err != nil {
		return nil, 0, contextError(ctx, req, err)
	}

	st.log.Info().Str("method", method).Str("url", req.URL).Msgf("Upload request: %s %s", method, req.URL)
	resp, err := send(ctx, st.transport, req.transportRequest())
	if err != nil {
		tracking.RecordAttempt(ctx, operation, method, 0, tracking.OutcomeFailure)
		st.log.Warn().Err(err).Msgf("Network error: %v, attempt: %d", err, 0)
		return nil, 0, classify(ctx, req, err)
	}
	if resp == nil {
		tracking.RecordAttempt(ctx, operation, method, 0, tracking.OutcomeFailure)
		return nil, 0, newError(KindInvalidResponse, req.URL, nil)
	}

	st.log.Info().Int("status", resp.StatusCode).Msgf("Upload response: %d", resp.StatusCode)
	if !IsSuccessStatus(resp.StatusCode) {
		tracking.RecordAttempt(ctx, operation, method, 0, tracking.OutcomeFailure)
		return nil, resp.StatusCode, newServerError(req.URL, resp.StatusCode, resp.Body)
	}

	tracking.RecordAttempt(ctx, operation, method, 0, tracking.OutcomeSuccess)
	return resp.Body, resp.StatusCode, nil
}
