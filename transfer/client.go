package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/moyoez/shareit-go/progress"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

// UploadFieldName is the multipart field the service reads the file from.
const UploadFieldName = "file"

const maxErrorBody = 64 * 1024

// ProgressFunc receives non-decreasing percentages while a transfer runs.
type ProgressFunc func(percent int)

// Client performs the upload and download exchanges against the transfer service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. A nil httpClient uses one without a timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = tool.NewHTTPClient(0)
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// ParseCode validates a share code: it must be a non-negative integer.
func ParseCode(code string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || port < 0 {
		return 0, ErrInvalidCode
	}
	return port, nil
}

// Upload sends file as a multipart form and returns the code the service assigned.
func (c *Client) Upload(ctx context.Context, file types.FileRef, onProgress ProgressFunc) (*types.UploadResponse, error) {
	if file.Open == nil {
		return nil, fmt.Errorf("invalid parameters: file %q cannot be opened", file.Name)
	}
	url, err := tool.BuildUploadURL(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload URL: %v", err)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()

	// The multipart envelope is built up front so the request has an exact length
	// and only the file bytes in the middle are streamed.
	var envelope bytes.Buffer
	mw := multipart.NewWriter(&envelope)
	if _, err := mw.CreateFormFile(UploadFieldName, file.Name); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %v", err)
	}
	head := bytes.Clone(envelope.Bytes())
	envelope.Reset()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %v", err)
	}
	tail := envelope.Bytes()

	tracker := progress.NewTracker()
	src := &localReader{r: rc}
	counted := progress.NewReader(src, file.Size, func(loaded, total int64) {
		if pct, ok := tracker.Update(loaded, total); ok {
			report(onProgress, pct)
		}
	})
	body := io.MultiReader(bytes.NewReader(head), counted, bytes.NewReader(tail))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if file.Size >= 0 {
		req.ContentLength = int64(len(head)) + file.Size + int64(len(tail))
	} else {
		req.ContentLength = -1
	}

	tool.DefaultLogger.Infof("Uploading %s (%d bytes) to %s", file.Name, file.Size, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if readErr := src.Err(); readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, readErr)
		}
		return nil, &OpError{Op: "upload", Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &OpError{Op: "upload", StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body), Responded: true}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &OpError{Op: "upload", StatusCode: resp.StatusCode, Responded: true, Err: fmt.Errorf("failed to read upload response: %v", err)}
	}
	var parsed struct {
		Port *int `json:"port"`
	}
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return nil, &OpError{Op: "upload", StatusCode: resp.StatusCode, Responded: true, Err: fmt.Errorf("failed to parse upload response: %v", err)}
	}
	if parsed.Port == nil || *parsed.Port < 0 {
		return nil, &OpError{Op: "upload", StatusCode: resp.StatusCode, Responded: true, Err: fmt.Errorf("upload response missing port")}
	}

	if pct, ok := tracker.Complete(); ok {
		report(onProgress, pct)
	}
	tool.DefaultLogger.Infof("Uploaded %s, code %d", file.Name, *parsed.Port)
	return &types.UploadResponse{Port: *parsed.Port}, nil
}

// Download fetches the content offered under code, streaming it into dst.
// The code is validated before any request is made.
func (c *Client) Download(ctx context.Context, code string, dst io.Writer, onProgress ProgressFunc) (*types.DownloadResult, error) {
	port, err := ParseCode(code)
	if err != nil {
		return nil, err
	}
	url, err := tool.BuildDownloadURL(c.baseURL, port)
	if err != nil {
		return nil, fmt.Errorf("failed to build download URL: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %v", err)
	}

	tool.DefaultLogger.Infof("Downloading code %d from %s", port, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &OpError{Op: "download", Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &OpError{Op: "download", StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body), Responded: true}
	}

	disposition := resp.Header.Get("Content-Disposition")
	tool.DefaultLogger.Debugf("Content-Disposition header: %q", disposition)
	filename := tool.FilenameFromDisposition(disposition)

	tracker := progress.NewTracker()
	counted := progress.NewReader(resp.Body, resp.ContentLength, func(loaded, total int64) {
		if pct, ok := tracker.Update(loaded, total); ok {
			report(onProgress, pct)
		}
	})
	n, err := tool.CopyWithContext(ctx, dst, counted)
	if err != nil {
		return nil, &OpError{Op: "download", StatusCode: resp.StatusCode, Responded: true, Err: fmt.Errorf("transfer interrupted after %d bytes: %v", n, err)}
	}

	if pct, ok := tracker.Complete(); ok {
		report(onProgress, pct)
	}
	tool.DefaultLogger.Infof("Downloaded %s (%d bytes) for code %d", filename, n, port)
	return &types.DownloadResult{Filename: filename, Size: n}, nil
}

func report(fn ProgressFunc, pct int) {
	if fn != nil {
		fn(pct)
	}
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

// localReader remembers a read error from the local file so it is not mistaken for a network failure.
type localReader struct {
	r   io.Reader
	mu  sync.Mutex
	err error
}

func (l *localReader) Read(b []byte) (int, error) {
	n, err := l.r.Read(b)
	if err != nil && err != io.EOF {
		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
	}
	return n, err
}

func (l *localReader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
