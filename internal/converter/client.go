package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetdrop/internal/types"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

const (
	DefaultEndpoint  = "http://localhost:5000/upload"
	DefaultFieldName = "files"

	RequestIDHeader = "X-Request-ID"
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("conversion endpoint returned %s", e.Status)
}

// Client posts PDFs to a remote conversion endpoint.
type Client struct {
	Endpoint   string
	FieldName  string
	HTTPClient *http.Client
	Logger     log.Logger
}

// NewClient returns a client for endpoint. No timeout is configured: a
// request runs until the server answers or the connection fails.
func NewClient(endpoint string, logger log.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Client{
		Endpoint:   endpoint,
		FieldName:  DefaultFieldName,
		HTTPClient: &http.Client{},
		Logger:     logger,
	}
}

// Convert uploads files as one multipart request and returns the raw
// response body. An empty file list still produces a request.
func (c *Client) Convert(ctx context.Context, files []types.SelectedFile) ([]byte, error) {
	body, contentType, err := c.buildBody(files)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(RequestIDHeader, requestID)

	level.Debug(c.Logger).Log("method", "Convert", "request_id", requestID, "endpoint", c.Endpoint, "files", len(files))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	level.Info(c.Logger).Log("method", "Convert", "request_id", requestID, "status", resp.StatusCode, "bytes", len(data))
	return data, nil
}

func (c *Client) buildBody(files []types.SelectedFile) (*bytes.Buffer, string, error) {
	field := c.FieldName
	if field == "" {
		field = DefaultFieldName
	}

	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	for _, f := range files {
		mimeType := f.MIME
		if mimeType == "" {
			mimeType = "application/pdf"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(field), escapeQuotes(partFilename(f))))
		h.Set("Content-Type", mimeType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func partFilename(f types.SelectedFile) string {
	if f.Name != "" {
		return filepath.Base(f.Name)
	}
	return filepath.Base(f.Path)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
