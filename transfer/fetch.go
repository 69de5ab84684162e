package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/moyoez/localsend-uploader/tool"
)

// Fetcher retrieves file content referenced by a record URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPFetcher fetches http(s) URLs with a GET request and reads file:// URLs from disk.
type HTTPFetcher struct {
	client  *http.Client
	maxSize int64
}

// NewHTTPFetcher creates a fetcher. maxSize <= 0 disables the size limit.
func NewHTTPFetcher(client *http.Client, maxSize int64) *HTTPFetcher {
	if client == nil {
		client = tool.GetHttpClient()
	}
	return &HTTPFetcher{client: client, maxSize: maxSize}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := tool.ParseRecordURL(rawURL)
	if err != nil {
		return nil, &RetrievalError{URL: rawURL, Cause: err}
	}
	if u.Scheme == "file" {
		return f.readLocal(rawURL, u.Path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &RetrievalError{URL: rawURL, Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RetrievalError{URL: rawURL, Cause: err, Transient: isTransientNetworkError(err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &RetrievalError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("unexpected status %s", resp.Status),
			Transient:  isTransientStatus(resp.StatusCode),
		}
	}

	data, err := tool.ReadAllWithLimit(resp.Body, f.maxSize)
	if err != nil {
		if tool.IsTooLarge(err) {
			return nil, &RetrievalError{URL: rawURL, Cause: err}
		}
		return nil, &RetrievalError{URL: rawURL, Cause: fmt.Errorf("failed to read body: %w", err), Transient: true}
	}
	tool.DefaultLogger.Debugf("[Fetch] %s: %d bytes", rawURL, len(data))
	return data, nil
}

func (f *HTTPFetcher) readLocal(rawURL, path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		// a missing or unreadable file will not appear by retrying
		transient := !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission)
		return nil, &RetrievalError{URL: rawURL, Cause: err, Transient: transient}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &RetrievalError{URL: rawURL, Cause: fmt.Errorf("failed to stat file: %w", err), Transient: true}
	}
	if info.IsDir() {
		return nil, &RetrievalError{URL: rawURL, Cause: fmt.Errorf("path is a directory, not a file")}
	}
	data, err := tool.ReadAllWithLimit(file, f.maxSize)
	if err != nil {
		return nil, &RetrievalError{URL: rawURL, Cause: err, Transient: !tool.IsTooLarge(err)}
	}
	return data, nil
}
