// Package apiclient talks to the gradebook REST API.
//
// A Client is shared by the whole process. Each signed-in request gets a
// Session from Client.WithToken that sends the user's bearer token.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// maxBody caps how much of a response body is read.
const maxBody = 4 << 20

// Client is the unauthenticated API client.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (tests pass the
// httptest server's client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be an absolute http(s) URL", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Session is a Client bound to one user's access token.
type Session struct {
	c     *Client
	http  *http.Client
	token string
}

// WithToken returns a Session that authenticates with token. The token is
// never refreshed; an expired token surfaces as a 401 HTTPError.
func (c *Client) WithToken(token string) *Session {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Session{
		c:     c,
		http:  oauth2.NewClient(ctx, src),
		token: token,
	}
}

// Get decodes the JSON response of GET path into out.
func (s *Session) Get(ctx context.Context, path string, out any) error {
	return s.c.do(ctx, s.http, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out (nil to ignore it).
func (s *Session) Post(ctx context.Context, path string, body, out any) error {
	return s.c.do(ctx, s.http, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (s *Session) Put(ctx context.Context, path string, body, out any) error {
	return s.c.do(ctx, s.http, http.MethodPut, path, body, out)
}

// Delete issues a DELETE. Several API endpoints take a JSON body on DELETE,
// so body is sent when non-nil.
func (s *Session) Delete(ctx context.Context, path string, body, out any) error {
	return s.c.do(ctx, s.http, http.MethodDelete, path, body, out)
}

// Ping checks the API answers at all. Any HTTP response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: http.MethodGet, Path: "/", Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	resp.Body.Close()
	return nil
}

func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base.String() + path
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), rdr)
	if err != nil {
		return fmt.Errorf("apiclient: build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Debug("api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(method, path, resp.StatusCode, resp.Header.Get("Content-Type"), data)
	}
	if out == nil {
		return nil
	}
	if err := decode(data, out); err != nil {
		return &DecodeError{Method: method, Path: path, Err: err}
	}
	return nil
}
