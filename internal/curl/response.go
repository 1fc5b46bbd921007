package curl

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Response is the result of a request. Non-stream responses hold the raw
// (possibly compressed) body in memory.
type Response struct {
	code          int
	header        http.Header
	contentLength int64
	stream        bool
	body          io.ReadCloser
	content       []byte
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func newResponse(resp *http.Response, stream bool, cancel context.CancelFunc) (*Response, error) {
	r := &Response{
		code:          resp.StatusCode,
		header:        resp.Header,
		contentLength: resp.ContentLength,
		stream:        stream,
	}
	if stream {
		r.body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return r, nil
	}

	defer cancel()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, translateError(fmt.Errorf("read response body: %w", err))
	}
	r.content = data
	return r, nil
}

// Code returns the HTTP status code.
func (r *Response) Code() int {
	return r.code
}

func (r *Response) Header() http.Header {
	return r.header
}

// ContentLength is the length announced by the server, -1 when unknown.
func (r *Response) ContentLength() int64 {
	return r.contentLength
}

func (r *Response) IsStream() bool {
	return r.stream
}

// Content returns the body decompressed and decoded to text using the
// charset of the Content-Type header (UTF-8 by default).
func (r *Response) Content() (string, error) {
	if r.stream {
		return "", ErrStreamContent
	}
	data, err := decompress(r.header.Get("Content-Encoding"), r.content)
	if err != nil {
		return "", err
	}
	return decodeCharset(r.header.Get("Content-Type"), data)
}

// Raw returns the body exactly as received. It is nil for stream responses.
func (r *Response) Raw() []byte {
	return r.content
}

// Body returns the body as a reader. For stream responses this is the live
// connection and must be closed.
func (r *Response) Body() io.ReadCloser {
	if r.stream {
		return r.body
	}
	return io.NopCloser(bytes.NewReader(r.content))
}

// FromJSON parses the content as JSON, returning nil when that fails.
func (r *Response) FromJSON() any {
	var v any
	if err := r.DecodeJSON(&v); err != nil {
		return nil
	}
	return v
}

func (r *Response) DecodeJSON(v any) error {
	content, err := r.Content()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(content), v)
}

// Close releases a stream body. It is a no-op for buffered responses.
func (r *Response) Close() error {
	if r.stream && r.body != nil {
		return r.body.Close()
	}
	return nil
}

func decompress(encoding string, data []byte) ([]byte, error) {
	enc := strings.ToLower(encoding)
	var reader io.ReadCloser
	var err error
	switch {
	case strings.Contains(enc, "gzip"):
		reader, err = gzip.NewReader(bytes.NewReader(data))
	case strings.Contains(enc, "deflate"):
		reader, err = zlib.NewReader(bytes.NewReader(data))
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decompress %s body: %w", enc, err)
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decompress %s body: %w", enc, err)
	}
	return out, nil
}

func decodeCharset(contentType string, data []byte) (string, error) {
	if contentType == "" {
		return string(data), nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(data), nil
	}
	charset := strings.ToLower(strings.TrimSpace(params["charset"]))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(data), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("decode response charset %q: %w", charset, err)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode response charset %q: %w", charset, err)
	}
	return string(decoded), nil
}
