// Package client is a typed Go client for the ClassBridge API. Sessions
// are explicit values returned by Signup and Login and passed to every
// authenticated call; there is no ambient token storage.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to one ClassBridge server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout on the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client for the server at baseURL (scheme and host, no
// trailing path)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response decoded from the server's error envelope
type APIError struct {
	Status  int
	Code    string
	Message string
	Details interface{}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// envelope mirrors the server's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details"`
	} `json:"error"`
}

// Upload is one file to send in a multipart request
type Upload struct {
	Name   string
	Reader io.Reader
}

// Health checks the server's health endpoint
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// do sends a JSON request and decodes the data payload into out
func (c *Client) do(ctx context.Context, method, path string, session *Session, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req, session)

	return c.send(req, out)
}

// doMultipart sends files under the given form field and decodes the data
// payload into out
func (c *Client) doMultipart(ctx context.Context, path string, session *Session, field string, uploads []Upload, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, u := range uploads {
		part, err := writer.CreateFormFile(field, u.Name)
		if err != nil {
			return fmt.Errorf("build multipart body: %w", err)
		}
		if _, err := io.Copy(part, u.Reader); err != nil {
			return fmt.Errorf("read %s: %w", u.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req, session)

	return c.send(req, out)
}

func (c *Client) authorize(req *http.Request, session *Session) {
	req.Header.Set("Accept", "application/json")
	if session != nil && session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
