// Package apiclient performs single authenticated requests against the admin
// REST API and classifies their outcome. It never retries and never touches
// the token store beyond reading the current access token.
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

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	defaultUserAgent = "vpn-admin/1"
	defaultTimeout   = 15 * time.Second

	contentTypeJSON = "application/json"
	requestIDHeader = "X-Request-ID"
)

// TokenSource supplies the access token attached to each request.
// *token.Store satisfies it.
type TokenSource interface {
	AccessToken() (*string, error)
}

// Client issues requests relative to a base URL such as http://host/api/v1.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	userAgent  string
	tracing    bool
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		withTimeout := *client.httpClient
		withTimeout.Timeout = d
		client.httpClient = &withTimeout
	}
}

// WithTracing instruments the transport with OpenTelemetry spans.
func WithTracing() Option {
	return func(client *Client) {
		client.tracing = true
	}
}

func New(baseURL string, tokens TokenSource, options ...Option) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("[apiclient.New] base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("[apiclient.New] invalid base url: %w", err)
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.tracing {
		transport := c.httpClient.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		traced := *c.httpClient
		traced.Transport = otelhttp.NewTransport(transport)
		c.httpClient = &traced
	}
	return c, nil
}

// BaseURL returns the API root requests are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestOptions struct {
	query     url.Values
	headers   http.Header
	multipart *multipartBody
	noAuth    bool
}

type RequestOption func(*requestOptions)

func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) {
		o.query = q
	}
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.headers.Set(key, value)
	}
}

// WithMultipart sends fields as multipart/form-data named prefix[field]
// instead of a JSON body.
func WithMultipart(prefix string, fields map[string]any) RequestOption {
	return func(o *requestOptions) {
		o.multipart = &multipartBody{prefix: prefix, fields: fields}
	}
}

// WithoutAuth skips the Authorization header even when a token is stored.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) {
		o.noAuth = true
	}
}

// Do performs one request. A nil error means a 2xx response whose body is
// returned verbatim. Failures are *HTTPError except token store read
// failures, which are returned as they are.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	o := requestOptions{headers: http.Header{}}
	for _, opt := range opts {
		opt(&o)
	}

	req, err := c.newRequest(ctx, method, path, body, &o)
	if err != nil {
		return nil, err
	}

	if !o.noAuth && c.tokens != nil {
		accessToken, err := c.tokens.AccessToken()
		if err != nil {
			return nil, err
		}
		if accessToken != nil && *accessToken != "" {
			(&oauth2.Token{AccessToken: *accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed without response")
		return nil, &HTTPError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HTTPError{Kind: KindNetwork, Err: fmt.Errorf("read body: %w", err)}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Str("request_id", req.Header.Get(requestIDHeader)).
		Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, respBody)
	}
	return json.RawMessage(respBody), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, o *requestOptions) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}

	var reader io.Reader
	contentType := ""
	switch {
	case o.multipart != nil:
		buf, ct, err := o.multipart.encode()
		if err != nil {
			return nil, fmt.Errorf("[apiclient.Do] multipart: %w", err)
		}
		reader, contentType = buf, ct
	case body != nil:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[apiclient.Do] marshal body: %w", err)
		}
		reader, contentType = bytes.NewReader(data), contentTypeJSON
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("[apiclient.Do] new request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())
	for k, values := range o.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}
