// internal/client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/communityhub/internal/client/session"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every request made by the default HTTP client.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response. Message comes from the server's
// {"message": ...} envelope when there is one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %s", http.StatusText(e.Status))
	}
	return e.Message
}

// IsAuthError reports whether err is a 401 or 403 from the server.
func IsAuthError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden)
}

// Client talks to the communityhub REST API. Every request carries the
// session's bearer token; a 401/403 clears the session.
type Client struct {
	base    *url.URL
	http    *http.Client
	session *session.Provider
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	http        *http.Client
	log         *zap.Logger
	onLogout    func()
	logoutDelay time.Duration
}

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// wrapped, not replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.http = hc }
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.log = l }
}

// WithLogoutHandler runs fn after delay once an auth failure has cleared
// the session (the "go to login" step).
func WithLogoutHandler(fn func(), delay time.Duration) Option {
	return func(c *clientConfig) {
		c.onLogout = fn
		c.logoutDelay = delay
	}
}

// New builds a client for baseURL.
func New(baseURL string, sess *session.Provider, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}
	cfg := clientConfig{log: zap.NewNop(), logoutDelay: DefaultLogoutDelay}
	for _, o := range opts {
		o(&cfg)
	}

	hc := &http.Client{Timeout: DefaultTimeout}
	if cfg.http != nil {
		cp := *cfg.http
		hc = &cp
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &authTransport{
		base:     base,
		session:  sess,
		log:      cfg.log,
		onLogout: cfg.onLogout,
		delay:    cfg.logoutDelay,
	}

	return &Client{base: u, http: hc, session: sess, log: cfg.log}, nil
}

// Session exposes the session provider.
func (c *Client) Session() *session.Provider { return c.session }

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do sends a request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send returns a 2xx response (caller closes the body) or an error.
func (c *Client) send(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	return resp, nil
}

func readAPIError(resp *http.Response) error {
	var env struct {
		Message string `json:"message"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(b, &env); err != nil || env.Message == "" {
		env.Message = strings.TrimSpace(string(b))
	}
	return &APIError{Status: resp.StatusCode, Message: env.Message}
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}
