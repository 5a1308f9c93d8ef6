// Package apiclient talks to the koalbot REST backend on behalf of a signed-in operator.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenCookie is the cookie holding the operator's bearer token
const TokenCookie = "token"

// ErrUnauthorized marks a 401 from the backend. The session is over and must be cleared.
var ErrUnauthorized = errors.New("session expired")

// RequestError is returned for every failed backend call
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *RequestError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return e.Err
}

// MessageOf extracts the backend message carried by err, if any
func MessageOf(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return ""
}

// Observer receives the outcome of every backend call. Status is 0 on transport errors.
type Observer func(method, path string, status int, elapsed time.Duration)

// RequestOptions carries the optional parts of a request
type RequestOptions struct {
	Params url.Values
	Data   any
	Token  string
}

// Client is a thin JSON client for the backend API
type Client struct {
	baseURL  string
	client   *http.Client
	observer Observer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithObserver installs a hook called after every request
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client for the backend rooted at baseURL
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenKey struct{}

// WithToken returns a context carrying the operator's token
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token stored by WithToken
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// TokenFromRequest reads the token cookie of an incoming browser request
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if decoded, err := url.QueryUnescape(cookie.Value); err == nil {
		return decoded
	}
	return cookie.Value
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Request performs one call and decodes a successful JSON body into out.
// The explicit token wins over the one carried by ctx. Calls are never retried.
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	var bodyReader io.Reader
	if opts.Data != nil {
		data, err := json.Marshal(opts.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, opts.Params), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	token := opts.Token
	if token == "" {
		token = TokenFromContext(ctx)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(method, path, 0, start)
		return &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	c.observe(method, path, resp.StatusCode, start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: backendMessage(body),
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	if c.observer != nil {
		c.observer(method, path, status, time.Since(start))
	}
}

// backendMessage prefers the human "message" field and falls back to the "error" code
func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.Request(ctx, http.MethodGet, path, RequestOptions{Params: params}, out)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, data any, out any) error {
	return c.Request(ctx, http.MethodPost, path, RequestOptions{Data: data}, out)
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, data any, out any) error {
	return c.Request(ctx, http.MethodPut, path, RequestOptions{Data: data}, out)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Request(ctx, http.MethodDelete, path, RequestOptions{}, out)
}
