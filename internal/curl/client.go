// Package curl is a small HTTP client for scripts and CLI commands.
//
// It wraps net/http with the conveniences a one-off call usually needs:
// query params, body encoding sniffed from the Go value, basic auth that
// answers a 401 challenge, transparent gzip and deflate decoding, and
// charset-aware text content. HTTP error statuses are not errors; callers
// inspect Response.Code.
package curl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Common errors.
var (
	ErrUnsupportedMethod = errors.New("curl: unsupported request method")
	ErrTimeout           = errors.New("curl: request timed out")
	ErrRequestFailed     = errors.New("curl: request failed")
	ErrStreamContent     = errors.New("curl: stream content could be obtained only via Body")
)

const acceptEncoding = "gzip, x-gzip, deflate"

type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

func (m Method) valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}

func (m Method) hasBody() bool {
	return m == MethodPost || m == MethodPut
}

// ParseMethod accepts a method name in any case.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	if m == "" {
		return MethodGet, nil
	}
	if !m.valid() {
		return "", fmt.Errorf("%w %q", ErrUnsupportedMethod, raw)
	}
	return m, nil
}

// Request describes a single call.
type Request struct {
	// Method defaults to GET.
	Method Method
	URL    string
	// Params are appended to URL as a query string.
	Params url.Values
	Auth   *Auth
	// Body is sent with POST and PUT only. Strings are sent as form data
	// when they look like k=v pairs and as plain text otherwise; []byte and
	// io.Reader are sent as is; anything else is encoded as JSON.
	Body    any
	Headers map[string]string
	// Timeout overrides Options.Timeout for this request.
	Timeout time.Duration
	// DisableGzip stops advertising gzip and deflate support.
	DisableGzip bool
	// Stream leaves the body unread; it must be consumed through
	// Response.Body and closed.
	Stream bool
}

// Options configures the client.
type Options struct {
	// Timeout bounds a whole request, body included. Zero means no limit.
	Timeout time.Duration

	// UserAgent is sent unless the request sets its own.
	UserAgent string

	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

func DefaultOptions() Options {
	return Options{UserAgent: "apputils-curl/2.0"}
}

// Client issues requests. It is safe for concurrent use.
type Client struct {
	client *http.Client
	opts   Options
}

func NewClient(opts Options) *Client {
	return &Client{
		client: &http.Client{Transport: opts.Transport},
		opts:   opts,
	}
}

var defaultClient = NewClient(DefaultOptions())

// Do performs req with the default client.
func Do(ctx context.Context, req Request) (*Response, error) {
	return defaultClient.Do(ctx, req)
}

// Async performs req with the default client in the background.
func Async(ctx context.Context, req Request) <-chan Result {
	return defaultClient.Async(ctx, req)
}

// Do performs req. HTTP error statuses are returned as responses; only
// transport failures are errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = MethodGet
	}
	if !method.valid() {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedMethod, method)
	}

	target := req.URL
	if len(req.Params) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Params.Encode()
	}

	headers := http.Header{}
	var payload []byte
	if method.hasBody() && req.Body != nil {
		data, contentType, err := encodeBody(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = data
		if contentType != "" {
			headers.Set("Content-Type", contentType)
		}
	}

	if c.opts.UserAgent != "" {
		headers.Set("User-Agent", c.opts.UserAgent)
	}
	if !req.DisableGzip {
		headers.Set("Accept-Encoding", acceptEncoding)
	}
	if req.Auth != nil && req.Auth.Force {
		for k, v := range req.Auth.headers() {
			headers.Set(k, v)
		}
	}
	for k, v := range req.Headers {
		if strings.EqualFold(k, "Accept-Encoding") && !req.DisableGzip && !strings.Contains(v, "gzip") {
			v += ", " + acceptEncoding
		}
		headers.Set(k, v)
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.opts.Timeout
	}
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	resp, err := c.send(ctx, method, target, headers, payload)
	if err != nil {
		cancel()
		return nil, translateError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized && req.Auth != nil && !req.Auth.Force &&
		isBasicChallenge(resp.Header.Values("WWW-Authenticate")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		for k, v := range req.Auth.challengeHeaders() {
			headers.Set(k, v)
		}
		resp, err = c.send(ctx, method, target, headers, payload)
		if err != nil {
			cancel()
			return nil, translateError(err)
		}
	}

	return newResponse(resp, req.Stream, cancel)
}

func (c *Client) send(ctx context.Context, method Method, target string, headers http.Header, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, string(method), target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header = headers.Clone()
	return c.client.Do(httpReq)
}

// Result is the outcome of an asynchronous request.
type Result struct {
	Response *Response
	Err      error
}

// Async runs Do on its own goroutine. The channel yields exactly one
// result and is then closed.
func (c *Client) Async(ctx context.Context, req Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := c.Do(ctx, req)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}

// DoAll performs reqs concurrently, at most limit at a time (unbounded when
// limit <= 0). Responses keep the order of reqs. The first failure cancels
// the remaining requests.
func (c *Client) DoAll(ctx context.Context, reqs []Request, limit int) ([]*Response, error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	out := make([]*Response, len(reqs))
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			resp, err := c.Do(gctx, req)
			if err != nil {
				return &RequestError{Index: i, Request: req, Err: err}
			}
			out[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, resp := range out {
			if resp != nil {
				_ = resp.Close()
			}
		}
		return nil, err
	}
	return out, nil
}

// RequestError identifies the request that failed a DoAll batch.
type RequestError struct {
	Index   int
	Request Request
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", methodOrGet(e.Request.Method), e.Request.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func methodOrGet(m Method) Method {
	if m == "" {
		return MethodGet
	}
	return m
}

func translateError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrRequestFailed, err)
}
