// Package rest holds the HTTP plumbing shared by the auth, postgrest and
// storage clients: common headers, JSON bodies, trace propagation and spans.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ClientInfo is sent as X-Client-Info on every request.
	ClientInfo = "supabase-go/1.0"

	instrumentationName = "github.com/Aleph-Alpha/supabase-go"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenFunc returns the bearer token for the next request. An empty string
// falls back to the API key.
type TokenFunc func() string

// Client issues requests against one service root, e.g. https://x.supabase.co/rest/v1.
type Client struct {
	baseURL    string
	apiKey     string
	headers    map[string]string
	httpClient Doer
	token      TokenFunc
	component  string
}

// Options configure a Client.
type Options struct {
	BaseURL   string
	APIKey    string
	Headers   map[string]string
	Timeout   time.Duration
	HTTP      Doer
	Token     TokenFunc
	Component string
}

// NewClient builds a Client. No request is made.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTP
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		headers:    headers,
		httpClient: httpClient,
		token:      opts.Token,
		component:  opts.Component,
	}
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one call. Path is relative to the base URL and RawQuery
// is appended verbatim so parameter order is preserved.
type Request struct {
	Operation string
	Method    string
	Path      string
	RawQuery  string
	Header    http.Header

	// Body is JSON encoded unless it is nil, a []byte or an io.Reader.
	Body interface{}

	// BearerToken overrides the client's token source for this request.
	BearerToken string
}

// Response is a fully read HTTP response. Non-2xx statuses are not errors at
// this level; callers decode their own error bodies.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do sends req and reads the whole response body.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, c.component+"."+req.Operation,
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	resp, err := c.do(ctx, span, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if !resp.OK() {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, span trace.Span, req Request) (*Response, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	target := c.baseURL + req.Path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", c.baseURL+req.Path),
	)

	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.bearer(req.BearerToken))
	httpReq.Header.Set("X-Client-Info", ClientInfo)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, c.baseURL+req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func (c *Client) bearer(override string) string {
	if override != "" {
		return override
	}
	if c.token != nil {
		if t := c.token(); t != "" {
			return t
		}
	}
	return c.apiKey
}

func encodeBody(body interface{}) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "application/json", nil
	case io.Reader:
		return b, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
