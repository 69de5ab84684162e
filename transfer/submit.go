package transfer

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/moyoez/localsend-uploader/tool"
	"github.com/moyoez/localsend-uploader/types"
)

const maxErrorBodyBytes = 4 * 1024

// Submission is one file plus the batch's resolved extra fields.
type Submission struct {
	Filename string
	Content  []byte
	Fields   types.ResolvedFields
}

// Submitter transmits a submission to the action endpoint.
type Submitter interface {
	Submit(ctx context.Context, action string, sub Submission) error
}

// MultipartOptions names the form parts of a multipart submission.
type MultipartOptions struct {
	FileField    string // part holding the file, default "file"
	BlobField    string // part holding an opaque extraData string, default "data"
	SendChecksum bool   // add X-Content-Sha256 with the file digest
}

// MultipartSubmitter POSTs multipart/form-data: extra fields first, then the file part.
type MultipartSubmitter struct {
	client *http.Client
	opts   MultipartOptions
}

func NewMultipartSubmitter(client *http.Client, opts MultipartOptions) *MultipartSubmitter {
	if client == nil {
		client = tool.GetHttpClient()
	}
	if opts.FileField == "" {
		opts.FileField = "file"
	}
	if opts.BlobField == "" {
		opts.BlobField = "data"
	}
	return &MultipartSubmitter{client: client, opts: opts}
}

func (s *MultipartSubmitter) Submit(ctx context.Context, action string, sub Submission) error {
	body, contentType, err := s.encode(sub)
	if err != nil {
		return &SubmissionError{Action: action, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, body)
	if err != nil {
		return &SubmissionError{Action: action, Cause: fmt.Errorf("failed to create upload request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	if s.opts.SendChecksum {
		req.Header.Set("X-Content-Sha256", tool.Sha256Hex(sub.Content))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &SubmissionError{Action: action, Cause: fmt.Errorf("failed to send upload request: %w", err), Transient: isTransientNetworkError(err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		tool.DefaultLogger.Debugf("[Submit] %s -> %s: %s", sub.Filename, action, resp.Status)
		return nil
	}

	msg := resp.Status
	if raw, readErr := tool.ReadAllWithLimit(resp.Body, maxErrorBodyBytes); readErr == nil && len(raw) > 0 {
		msg = fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return &SubmissionError{
		Action:     action,
		StatusCode: resp.StatusCode,
		Cause:      fmt.Errorf("upload rejected: %s", msg),
		Transient:  isTransientStatus(resp.StatusCode),
	}
}

func (s *MultipartSubmitter) encode(sub Submission) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if sub.Fields.HasBlob {
		if err := w.WriteField(s.opts.BlobField, sub.Fields.Blob); err != nil {
			return nil, "", fmt.Errorf("failed to write %s field: %w", s.opts.BlobField, err)
		}
	}
	for _, field := range sub.Fields.Fields {
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", field.Name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(s.opts.FileField), escapeQuotes(sub.Filename)))
	header.Set("Content-Type", tool.ContentTypeFor(sub.Filename))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(sub.Content); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
