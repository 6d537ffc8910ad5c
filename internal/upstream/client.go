package upstream

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"
	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/wdglance/internal/model"
)

const (
	// defaultTimeout bounds a single backend call.
	defaultTimeout = 60 * time.Second

	// maxErrorMessageLen limits the body excerpt used as error message.
	maxErrorMessageLen = 512

	// maxRedirects prevents redirect loops.
	maxRedirects = 10
)

// Cache stores raw backend response bodies.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Client performs backend calls.
type Client struct {
	httpClient   *http.Client
	proxyAddress string
	userAgent    string
	cache        Cache
	cacheTTL     time.Duration
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	proxyAddress string
	timeout      time.Duration
	headers      map[string]string
	userAgent    string
	cache        Cache
	cacheTTL     time.Duration
	logger       *slog.Logger
	httpClient   *http.Client
}

// WithProxy routes backend calls through a SOCKS5 proxy ("host:port").
func WithProxy(address string) Option {
	return func(o *clientOptions) {
		o.proxyAddress = address
	}
}

// WithTimeout sets the timeout of a single call.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}

// WithCache enables the response cache. A non-positive ttl disables it.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(o *clientOptions) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client. Proxy, timeout and
// header options are ignored in that case.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// New creates a Client. It validates the proxy address format but does not
// connect to the proxy; use CheckProxy for that.
func New(opts ...Option) (*Client, error) {
	o := &clientOptions{
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{
		proxyAddress: o.proxyAddress,
		userAgent:    o.userAgent,
		cache:        o.cache,
		cacheTTL:     o.cacheTTL,
		logger:       o.logger,
	}
	if o.httpClient != nil {
		c.httpClient = o.httpClient
		return c, nil
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if o.proxyAddress != "" {
		if !isValidProxyAddress(o.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", o.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	// KonText keeps the authenticated session in a cookie.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var rt http.RoundTripper = transport
	if len(o.headers) > 0 {
		rt = &headerInjectingTransport{base: transport, headers: o.headers}
	}
	c.httpClient = &http.Client{
		Transport: rt,
		Timeout:   o.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return c, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// configured headers into every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		if clone.Header.Get(key) == "" {
			clone.Header.Set(key, value)
		}
	}
	return t.base.RoundTrip(clone)
}

// Request describes one backend call.
type Request struct {
	Method      string
	URL         string
	Args        url.Values
	Body        []byte
	ContentType string
	Headers     map[string]string

	// NoCache bypasses the response cache.
	NoCache bool
}

// FullURL returns the request URL with Args appended to its query.
func (r Request) FullURL() string {
	if len(r.Args) == 0 {
		return r.URL
	}
	sep := "?"
	if strings.Contains(r.URL, "?") {
		sep = "&"
	}
	return r.URL + sep + r.Args.Encode()
}

// Response is a raw backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// CacheKey derives the cache key of a request from its method, URL and body.
func CacheKey(method, fullURL string, body []byte) string {
	h := sha3.New256()
	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte{0})
	h.Write([]byte(fullURL))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) cacheable(req Request) bool {
	return c.cache != nil && c.cacheTTL > 0 && !req.NoCache
}

// Do performs the call and returns the raw response regardless of its
// status. Only transport failures are returned as errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	fullURL := req.FullURL()

	var key string
	if c.cacheable(req) {
		key = CacheKey(method, fullURL, req.Body)
		body, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Debug("cache lookup failed", "url", fullURL, "error", err)
		}
		if ok {
			c.logger.Debug("cache hit", "url", fullURL)
			return &Response{Status: http.StatusOK, Header: http.Header{}, Body: body}, nil
		}
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, &model.RequestError{URL: req.URL, Message: err.Error()}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &model.RequestError{URL: req.URL, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.RequestError{URL: req.URL, Message: fmt.Sprintf("failed to read response: %v", err)}
	}
	c.logger.Debug("backend call",
		"method", method,
		"url", fullURL,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	ans := &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}
	if key != "" && ans.OK() {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
			c.logger.Debug("cache store failed", "url", fullURL, "error", err)
		}
	}
	return ans, nil
}

// Call performs the request and decodes a 2xx JSON body into out.
// Non-2xx statuses are returned as *model.RequestError.
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &model.RequestError{
			Status:  resp.Status,
			URL:     req.URL,
			Message: errorMessage(resp.Body),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &model.RequestError{
			Status:  resp.Status,
			URL:     req.URL,
			Message: fmt.Sprintf("failed to decode response: %v", err),
		}
	}
	return nil
}

// GetJSON performs a GET request with query arguments and decodes the JSON answer.
func (c *Client) GetJSON(ctx context.Context, rawURL string, args url.Values, headers map[string]string, out any) error {
	return c.Call(ctx, Request{
		Method:  http.MethodGet,
		URL:     rawURL,
		Args:    args,
		Headers: headers,
	}, out)
}

// PostJSON encodes payload as the JSON body of a POST request and decodes the answer.
func (c *Client) PostJSON(ctx context.Context, rawURL string, args url.Values, payload any, headers map[string]string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.Call(ctx, Request{
		Method:      http.MethodPost,
		URL:         rawURL,
		Args:        args,
		Body:        body,
		ContentType: "application/json",
		Headers:     headers,
	}, out)
}

// PostForm sends an url-encoded form. Responses are never cached.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		URL:         rawURL,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		NoCache:     true,
	})
}

// ProxyAddress returns the configured proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// errorMessage extracts a readable message from an error body. JSON bodies
// with an "error" or "messages" field are recognized (KonText, MQuery);
// anything else is truncated.
func errorMessage(body []byte) string {
	var parsed struct {
		Error    any   `json:"error"`
		Messages []any `json:"messages"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Error != nil && parsed.Error != "":
			return fmt.Sprint(parsed.Error)
		case len(parsed.Messages) > 0:
			return fmt.Sprint(parsed.Messages[0])
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessageLen {
		cut := maxErrorMessageLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}
