package fetch

import (
	"context"
	"crypto/tls"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const defaultCookieName = "PHPSESSID"

// Client fetches export pages from the legacy application using a
// pre-established session cookie. It performs no retries and mutates no
// shared state; each Get is one HTTP request.
type Client struct {
	cookieName string
	token      string
	httpClient *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCookieName sets the session cookie name. Default: PHPSESSID.
func WithCookieName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// WithInsecureTLS disables certificate verification. The legacy server
// serves an incomplete chain; the original job ran with verification off.
func WithInsecureTLS() Option {
	return func(c *Client) {
		tr := c.httpClient.Transport.(*http.Transport)
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
}

// New creates a Client authenticated with the given session token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		cookieName: defaultCookieName,
		token:      token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches one page and returns its body as UTF-8 text.
//
// Non-2xx statuses and network failures return *TransportError. A 2xx body
// that looks like the application's login page returns *AuthExpiredError
// instead, so callers can tell "refresh the session" apart from "the
// server is down".
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &TransportError{URL: url, Err: err}
	}
	req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.token})
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", &TransportError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	if looksLikeLoginPage(body, c.cookieName) {
		return "", &AuthExpiredError{URL: url}
	}
	return body, nil
}

// decodeBody reads the response body and transcodes it to UTF-8 when the
// Content-Type declares a different charset.
func decodeBody(resp *http.Response) (string, error) {
	var r io.Reader = resp.Body
	if cs := charsetOf(resp.Header.Get("Content-Type")); cs != "" && cs != "utf-8" {
		if enc, err := htmlindex.Get(cs); err == nil {
			r = transform.NewReader(r, enc.NewDecoder())
		}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

// Login-page markers. The export endpoint never renders a form, so a form
// that mentions logging in, or a password input next to a reference to the
// session cookie, means the session was invalidated server-side.
var loginMarkers = []string{
	`id="login`,
	`class="login`,
	`action="login`,
	`name="login`,
}

const passwordMarker = `type="password"`

func looksLikeLoginPage(body, cookieName string) bool {
	b := strings.ToLower(body)
	for _, m := range loginMarkers {
		if strings.Contains(b, m) {
			return true
		}
	}
	return strings.Contains(b, passwordMarker) &&
		strings.Contains(b, strings.ToLower(cookieName))
}
