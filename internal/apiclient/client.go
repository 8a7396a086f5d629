// Package apiclient wraps the game server's REST API. It attaches the
// session credential, normalizes JSON and error handling, and performs no
// retries: a failed call surfaces immediately to the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sansoyunu/sansoyunu/internal/session"
)

// RequestError is returned for any non-2xx response. Detail is extracted
// from the response body; Method, Path and Status are kept for diagnostics.
type RequestError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s -> HTTP %d | %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s -> HTTP %d", e.Method, e.Path, e.Status)
}

type Client struct {
	baseURL    string
	session    *session.Store
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL string, sess *session.Store, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sess,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Named("api"),
	}
}

// Request performs one API call and returns the raw response body. Most
// callers want the typed endpoint methods; this is the escape hatch.
//
// Structured bodies are marshalled to JSON; string and []byte bodies pass
// through untouched. Content-Type is only set when the caller has not set
// one. The session credential, when present, is attached as
// "Authorization: Token <credential>".
func (c *Client) Request(ctx context.Context, method, path string, body any, header http.Header) ([]byte, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = strings.NewReader(b)
	default:
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, vals := range header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred := c.session.Credential(); cred != "" {
		req.Header.Set("Authorization", "Token "+cred)
	}

	c.logger.Debug("request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, &RequestError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Detail: errorDetail(data),
		}
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	return c.Request(ctx, method, path, body, nil)
}

// errorDetail extracts a human-readable message from an error body: a
// "detail" field, the first non_field_errors entry, or the raw text.
// Bodies may be JSON or plain text.
func errorDetail(body []byte) string {
	var shaped struct {
		Detail         string   `json:"detail"`
		NonFieldErrors []string `json:"non_field_errors"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil {
		if shaped.Detail != "" {
			return shaped.Detail
		}
		if len(shaped.NonFieldErrors) > 0 {
			return shaped.NonFieldErrors[0]
		}
	}
	return strings.TrimSpace(string(body))
}
