package api

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

	"github.com/rs/zerolog"

	"github.com/fragmede/threadview/internal/logging"
)

const (
	requestTimeout = 15 * time.Second
	userAgent      = "threadview/1.0"

	// csrfCookie is the cookie holding the token unsafe requests must echo.
	csrfCookie = "csrftoken"
)

// Client talks to the comments REST API of one site.
type Client struct {
	http          *http.Client
	baseURL       *url.URL
	pageSize      int
	maxConcurrent int
	log           zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Pass the session's client
// so requests carry its cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPaging sets the page size requested from the list endpoint and how
// many pages are fetched in parallel.
func WithPaging(pageSize, maxConcurrent int) Option {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
		if maxConcurrent > 0 {
			c.maxConcurrent = maxConcurrent
		}
	}
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		http:          &http.Client{Timeout: requestTimeout},
		baseURL:       u,
		pageSize:      20,
		maxConcurrent: 4,
		log:           logging.Component("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the site root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// csrfToken returns the CSRF cookie value stored in the client's jar.
func (c *Client) csrfToken() string {
	if c.http.Jar == nil {
		return ""
	}
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == csrfCookie {
			return ck.Value
		}
	}
	return ""
}

// do sends a request with an optional JSON body and decodes a JSON response
// into dst when dst is non-nil.
func (c *Client) do(ctx context.Context, method, rawURL string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && method != http.MethodHead {
		if tok := c.csrfToken(); tok != "" {
			req.Header.Set("X-CSRFToken", tok)
		}
		req.Header.Set("Referer", c.baseURL.String()+"/")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return errorFromResponse(resp.StatusCode, data)
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}
