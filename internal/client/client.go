package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	fieldImage   = "image"
	fieldContext = "context"

	DefaultTimeout = 60 * time.Second
)

// Policy controls how SubmitImage treats the response.
type Policy struct {
	// CheckStatus turns non-2xx responses into a *StatusError. Without it the body
	// is returned as the blob whatever the status.
	CheckStatus bool
}

// ImageClient submits images to the embed and verify endpoints.
type ImageClient struct {
	httpClient *http.Client
}

// NewImageClient creates a client with the given request timeout. A zero timeout
// uses DefaultTimeout.
func NewImageClient(timeout time.Duration) *ImageClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ImageClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewImageClientWithHTTPClient wraps an existing *http.Client.
func NewImageClientWithHTTPClient(httpClient *http.Client) *ImageClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &ImageClient{httpClient: httpClient}
}

// SubmitImage posts file to endpoint as multipart field "image" and returns the
// response body as an opaque blob.
func (c *ImageClient) SubmitImage(ctx context.Context, endpoint string, file *File, policy Policy) (*Blob, error) {
	if !file.selected() {
		return nil, ErrNoFile
	}

	resp, err := c.post(ctx, endpoint, file, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("ImageClient: failed to close response body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if policy.CheckStatus && !isSuccess(resp.StatusCode) {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mimeOctetStream
	}

	slog.Debug("ImageClient: image submitted",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"input_size_bytes", len(file.Data),
		"output_size_bytes", len(data))

	return &Blob{Data: data, ContentType: contentType}, nil
}

// Verify posts file and usageContext to endpoint and decodes the JSON verdict.
// The body is decoded whatever the status; a non-2xx response is an error only
// when it carries an error payload instead of a verdict.
func (c *ImageClient) Verify(ctx context.Context, endpoint string, file *File, usageContext string) (*VerifyResult, error) {
	if !file.selected() {
		return nil, ErrNoFile
	}

	resp, err := c.post(ctx, endpoint, file, map[string]string{fieldContext: usageContext})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("ImageClient: failed to close response body", "error", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var payload struct {
		VerifyResult
		errorBody
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode verify response (status %d): %w", resp.StatusCode, err)
	}

	if !isSuccess(resp.StatusCode) && payload.Error != "" && payload.Decision == "" {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	result := payload.VerifyResult
	slog.Debug("ImageClient: verification received",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"detection_status", result.DetectionStatus,
		"decision", result.Decision)

	return &result, nil
}

func (c *ImageClient) post(ctx context.Context, endpoint string, file *File, fields map[string]string) (*http.Response, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldImage, escapeQuotes(file.Name)))
	header.Set("Content-Type", file.partContentType())
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// errorMessage extracts the message of a {"error": "..."} body, falling back to
// the raw body text.
func errorMessage(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
