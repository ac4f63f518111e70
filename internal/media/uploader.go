// Package media uploads plant images to the external media host.  The host
// accepts a multipart POST with a single "file" part and answers with a
// JSON body carrying the public URL of the stored object.  The upload is
// the only call in this service with meaningful latency, so it gets its
// own client timeout and a single retry; a failed upload is reported to
// the caller and never rolls back the plant row that was already created.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client talks to the media host.  BaseURL is the full upload endpoint;
// an empty BaseURL disables uploads (Upload returns ErrDisabled).
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// ErrDisabled is returned when no media host is configured.
var ErrDisabled = errors.New("media uploads disabled")

// NewClient builds a Client with a 30s request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload pushes the file to the media host and returns its secure URL.
// The body is buffered once so the request can be retried after a
// transient failure.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if c.BaseURL == "" {
		return "", ErrDisabled
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second):
			}
		}
		url, err := c.post(ctx, filename, data)
		if err == nil {
			return url, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *Client) post(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("media host: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("media host: unexpected status %d", resp.StatusCode)
	}
	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("media host: decode response: %w", err)
	}
	if out.SecureURL == "" {
		return "", errors.New("media host: empty secure_url")
	}
	return out.SecureURL, nil
}
