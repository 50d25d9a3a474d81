// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "stock-backoffice/internal/common/errors"
	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/metrics"
)

// Authorizer supplies the bearer token for a request. ok=false abandons the
// request; the caller then receives a nil response.
type Authorizer interface {
	Authorize(ctx context.Context) (token string, ok bool)
}

// Request describes one backend call. Endpoint is relative to the base URL
// and may carry its own query string. File, when set, is sent as a
// multipart form instead of Body.
type Request struct {
	Method   string
	Endpoint string
	Params   url.Values
	Body     interface{}
	File     *File
	Binary   bool
}

// File is one uploaded form file.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// Response is a successful, non-empty backend response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	Binary      bool
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Grace   time.Duration
	Auth    Authorizer
	Logger  logger.Logger
}

type inflight struct {
	endpoint string
	started  time.Time
	cancel   context.CancelFunc
	done     chan struct{}
	loading  bool
	aborted  bool

	resp *Response
	err  error
}

// Client executes authenticated backend calls. Identical concurrent calls
// share one transport round trip and one *Response.
type Client struct {
	httpClient *http.Client
	baseURL    string
	grace      time.Duration
	auth       Authorizer
	logger     logger.Logger
	now        func() time.Time

	mu       sync.Mutex
	requests map[string]*inflight
}

func NewClient(opts Options) *Client {
	grace := opts.Grace
	if grace <= 0 {
		grace = 100 * time.Millisecond
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL:  opts.BaseURL,
		grace:    grace,
		auth:     opts.Auth,
		logger:   logger.ForComponent(opts.Logger, "http"),
		now:      time.Now,
		requests: make(map[string]*inflight),
	}
}

func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Params: params})
}

func (c *Client) Post(ctx context.Context, endpoint string, params url.Values, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Params: params, Body: body})
}

func (c *Client) Patch(ctx context.Context, endpoint string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Endpoint: endpoint, Body: body})
}

// Upload posts file as multipart/form-data.
func (c *Client) Upload(ctx context.Context, endpoint string, file File) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, File: &file})
}

// Do executes req. A nil response with a nil error means the call produced
// no data: it was aborted, its ctx was cancelled, it was unauthenticated
// (401 or no credential), 204, or not JSON. A ctx deadline that expires
// first is a timeout error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	key, err := Fingerprint(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	entry, joined := c.requests[key]
	if joined && !entry.loading {
		joined = false
	}
	if !joined {
		reqCtx, cancel := context.WithCancel(context.Background())
		entry = &inflight{
			endpoint: target(req),
			started:  c.now(),
			cancel:   cancel,
			done:     make(chan struct{}),
			loading:  true,
		}
		c.requests[key] = entry
		metrics.HTTPInFlight.Set(float64(len(c.requests)))
		go c.run(reqCtx, key, entry, req)
	}
	c.mu.Unlock()

	if joined {
		metrics.HTTPDedupJoins.Inc()
	}

	select {
	case <-entry.done:
		return entry.resp, entry.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, nil
		}
		metrics.HTTPRequests.WithLabelValues(req.Method, "timeout").Inc()
		c.logger.Warn("request timed out", map[string]interface{}{"endpoint": req.Endpoint})
		return nil, apperrors.NewTimeoutError(req.Endpoint, ctx.Err())
	}
}

func (c *Client) run(ctx context.Context, key string, entry *inflight, req Request) {
	start := c.now()
	resp, err := c.execute(ctx, req)

	c.mu.Lock()
	if entry.aborted {
		resp, err = nil, nil
	}
	entry.resp, entry.err = resp, err
	entry.loading = false
	c.mu.Unlock()
	entry.cancel()
	close(entry.done)

	metrics.HTTPRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

	time.AfterFunc(c.grace, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.requests[key] == entry {
			delete(c.requests, key)
			metrics.HTTPInFlight.Set(float64(len(c.requests)))
		}
	})
}

// execute runs req on the entry's own context, which only Abort cancels.
func (c *Client) execute(ctx context.Context, req Request) (*Response, error) {
	var token string
	if c.auth != nil {
		var ok bool
		token, ok = c.auth.Authorize(ctx)
		if !ok {
			c.logger.Info("request skipped while authenticating", map[string]interface{}{"endpoint": req.Endpoint})
			metrics.HTTPRequests.WithLabelValues(req.Method, "unauthenticated").Inc()
			return nil, nil
		}
	}

	httpReq, err := c.newRequest(ctx, req, token)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			metrics.HTTPRequests.WithLabelValues(req.Method, "aborted").Inc()
			return nil, nil
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			metrics.HTTPRequests.WithLabelValues(req.Method, "timeout").Inc()
			c.logger.Error("request timed out", map[string]interface{}{"endpoint": req.Endpoint, "error": err.Error()})
			return nil, apperrors.NewTimeoutError(req.Endpoint, err)
		}
		metrics.HTTPRequests.WithLabelValues(req.Method, "network_error").Inc()
		c.logger.Error("request failed", map[string]interface{}{"endpoint": req.Endpoint, "error": err.Error()})
		return nil, apperrors.NewNetworkError(req.Endpoint, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, nil
		}
		return nil, apperrors.NewNetworkError(req.Endpoint, err)
	}

	metrics.HTTPRequests.WithLabelValues(req.Method, strconv.Itoa(res.StatusCode)).Inc()
	return c.normalize(req, res, body)
}

func (c *Client) newRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	target := c.url(req.Endpoint, req.Params)

	reader, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, apperrors.NewNetworkError(req.Endpoint, err)
	}

	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Cache-Control", "no-store")
	httpReq.Header.Set("Pragma", "no-cache")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	return httpReq, nil
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.File != nil {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		field := req.File.Field
		if field == "" {
			field = "file"
		}
		part, err := form.CreateFormFile(field, req.File.Name)
		if err != nil {
			return nil, "", apperrors.NewSerializationError(err)
		}
		if _, err := part.Write(req.File.Content); err != nil {
			return nil, "", apperrors.NewSerializationError(err)
		}
		if err := form.Close(); err != nil {
			return nil, "", apperrors.NewSerializationError(err)
		}
		return &buf, form.FormDataContentType(), nil
	}

	if req.Body == nil {
		return nil, "application/json", nil
	}
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", apperrors.NewSerializationError(err)
	}
	return bytes.NewReader(payload), "application/json", nil
}

func (c *Client) url(endpoint string, params url.Values) string {
	target := strings.TrimSuffix(c.baseURL, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	if len(params) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + params.Encode()
}

func (c *Client) normalize(req Request, res *http.Response, body []byte) (*Response, error) {
	switch {
	case res.StatusCode == http.StatusUnauthorized:
		c.logger.Warn("credential rejected", map[string]interface{}{"endpoint": req.Endpoint})
		return nil, nil
	case res.StatusCode == http.StatusForbidden:
		return nil, apperrors.NewForbiddenError(req.Endpoint, string(body))
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, apperrors.NewHTTPError(req.Endpoint, res.StatusCode, string(body))
	}

	contentType := res.Header.Get("Content-Type")
	if req.Binary {
		return &Response{Status: res.StatusCode, ContentType: contentType, Body: body, Binary: true}, nil
	}
	if res.StatusCode == http.StatusNoContent || !strings.Contains(contentType, "application/json") {
		return nil, nil
	}
	return &Response{Status: res.StatusCode, ContentType: contentType, Body: body}, nil
}

// Abort cancels every in-flight request whose target (endpoint plus encoded
// params) starts with prefix. Their callers receive a nil response. It
// returns how many were cancelled.
func (c *Client) Abort(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, entry := range c.requests {
		if !strings.HasPrefix(entry.endpoint, prefix) {
			continue
		}
		if entry.loading {
			entry.aborted = true
			entry.cancel()
			n++
		}
		delete(c.requests, key)
	}
	if n > 0 {
		metrics.HTTPAborted.Add(float64(n))
		c.logger.Debug("aborted in-flight requests", map[string]interface{}{"prefix": prefix, "count": n})
	}
	metrics.HTTPInFlight.Set(float64(len(c.requests)))
	return n
}

// target is the endpoint with its params, as matched by Abort.
func target(req Request) string {
	if len(req.Params) == 0 {
		return req.Endpoint
	}
	sep := "?"
	if strings.Contains(req.Endpoint, "?") {
		sep = "&"
	}
	return req.Endpoint + sep + req.Params.Encode()
}

// AbortAll cancels every in-flight request.
func (c *Client) AbortAll() int {
	return c.Abort("")
}

// Sweep drops completed entries older than maxAge.
func (c *Client) Sweep(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for key, entry := range c.requests {
		if !entry.loading && now.Sub(entry.started) > maxAge {
			delete(c.requests, key)
			n++
		}
	}
	metrics.HTTPInFlight.Set(float64(len(c.requests)))
	return n
}

// InFlight returns the number of entries in the request map.
func (c *Client) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Fingerprint identifies a request by method, endpoint, sorted params and
// key-sorted body. Uploads are identified by file name and content digest.
func Fingerprint(req Request) (string, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body string
	if req.File != nil {
		sum := sha256.Sum256(req.File.Content)
		body = "file:" + req.File.Name + ":" + hex.EncodeToString(sum[:])
	} else if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return "", apperrors.NewSerializationError(err)
		}
		// Re-encoding through interface{} sorts object keys at every level.
		var generic interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return "", apperrors.NewSerializationError(err)
		}
		stable, err := json.Marshal(generic)
		if err != nil {
			return "", apperrors.NewSerializationError(err)
		}
		body = string(stable)
	}

	return fmt.Sprintf("%s:%s:%s:%s", method, req.Endpoint, req.Params.Encode(), body), nil
}
