// Package transport is the HTTP abstraction the enrollment driver and
// time synchronizer depend on. It owns nothing about Steam's protocol:
// callers supply method, URL, form values and a cookie jar, and get back
// a response body or a TransportError.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// DefaultUserAgent is the mobile-browser UA string Steam requires to
// serve the mobile login/enrollment flow instead of the desktop one.
const DefaultUserAgent = "Mozilla/5.0 (Linux; Android 4.4.4; en-us; Nexus 4 Build/JOP40D) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/42.0.2307.2 Mobile Safari/537.36"

const defaultReferer = "https://steamcommunity.com/mobilelogin"
const defaultAccept = "application/json, text/javascript, text/html, application/xml, text/xml, */*"

// TransportError wraps any HTTP-layer failure: non-2xx status, socket or
// TLS errors, or a cancelled context.
type TransportError struct {
	Method string
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("transport: %s %s: unexpected status %d", e.Method, e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Doer is the interface the rest of this module depends on. The default
// implementation is Client, backed by net/http; tests substitute a fake.
type Doer interface {
	// Do issues method against rawURL with form either appended to the
	// query string (GET) or sent as an
	// application/x-www-form-urlencoded body (everything else), using
	// jar for cookie storage across calls. It returns the decoded
	// response body as a string, or a *TransportError.
	Do(ctx context.Context, method, rawURL string, form url.Values, jar http.CookieJar) (string, error)
}

// Client is the default Doer, backed by net/http.Client.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
}

// New returns a Client configured with Steam's required mobile headers.
func New() *Client {
	return &Client{
		HTTPClient: &http.Client{},
		UserAgent:  DefaultUserAgent,
	}
}

// NewCookieJar returns an empty, ready-to-use cookie jar.
func NewCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{})
}

func (c *Client) Do(ctx context.Context, method, rawURL string, form url.Values, jar http.CookieJar) (string, error) {
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	reqURL := rawURL
	var body io.Reader
	if method == http.MethodGet {
		if len(form) > 0 {
			u, err := url.Parse(rawURL)
			if err != nil {
				return "", &TransportError{Method: method, URL: rawURL, Err: err}
			}
			q := u.Query()
			for k, vs := range form {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
			reqURL = u.String()
		}
	} else {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return "", &TransportError{Method: method, URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", defaultReferer)
	req.Header.Set("Accept", defaultAccept)
	req.Header.Set("Cache-Control", "no-cache")
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if jar != nil {
		// A shallow clone keeps the shared http.Client config (transport,
		// timeout) while swapping in the caller's per-enrollment jar.
		clone := *httpClient
		clone.Jar = jar
		httpClient = &clone
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Method: method, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Method: method, URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{Method: method, URL: rawURL, Status: resp.StatusCode}
	}

	return string(respBytes), nil
}
