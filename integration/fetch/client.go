package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/relay/event"
	"github.com/dshills/relay/hook"
	"github.com/dshills/relay/topic"
)

// Interception points fired around every request.
const (
	PointBeforeRequest hook.Point = "beforeRequest"
	PointAfterResponse hook.Point = "afterResponse"
)

// Lifecycle topics emitted for every request.
const (
	TopicStart    = topic.Topic("request:start")
	TopicComplete = topic.Topic("request:complete")
	TopicError    = topic.Topic("request:error")
)

// MetaCorrelationID is the hook context Meta key carrying the request's
// correlation id.
const MetaCorrelationID = "correlation_id"

// RequestEvent is the payload of request:start.
type RequestEvent struct {
	CorrelationID string
	Method        string
	URL           string
	Time          time.Time
}

// ResponseEvent is the payload of request:complete.
type ResponseEvent struct {
	CorrelationID string
	Status        int
	Duration      time.Duration

	// FromHook marks responses synthesized by a beforeRequest handler.
	FromHook bool
}

// ErrorEvent is the payload of request:error.
type ErrorEvent struct {
	CorrelationID string
	Method        string
	URL           string
	Err           error
}

// Result is what a completed request returns.
type Result struct {
	Status        int
	Headers       http.Header
	Body          []byte
	CorrelationID string

	// FromHook marks responses synthesized by a beforeRequest handler
	// without touching the network.
	FromHook bool
}

// Client issues HTTP requests through the dispatch core.
type Client struct {
	http  *http.Client
	bus   *event.Bus
	hooks *hook.Registry
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient creates a client wired to a bus and a hook registry.
// Either may be nil; the matching stage is then skipped.
func NewClient(bus *event.Bus, hooks *hook.Registry, opts ...ClientOption) *Client {
	c := &Client{
		http:  &http.Client{Timeout: 30 * time.Second},
		bus:   bus,
		hooks: hooks,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string) (*Result, error) {
	return c.Do(ctx, http.MethodGet, url, nil, nil)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers http.Header) (*Result, error) {
	return c.Do(ctx, http.MethodPost, url, body, headers)
}

// Do issues a request. beforeRequest handlers run first and may rewrite
// the request, inject headers, or stop the chain; a stopping handler
// that supplies a Response descriptor short-circuits the network
// entirely. afterResponse handlers then see, and may rewrite, the
// response before it is returned.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, headers http.Header) (*Result, error) {
	correlationID := uuid.NewString()
	start := time.Now()

	req := &hook.RequestInfo{
		Method:  method,
		URL:     url,
		Headers: cloneHeaders(headers),
		Body:    body,
	}

	hc, err := c.runHooks(ctx, PointBeforeRequest, req, nil, correlationID)
	if err != nil {
		return nil, err
	}
	if hc.Request != nil {
		req = hc.Request
	}

	if hc.Stop {
		if hc.Response == nil {
			return nil, ErrShortCircuit
		}
		res := resultFrom(hc.Response, correlationID, true)
		c.emit(TopicComplete, ResponseEvent{
			CorrelationID: correlationID,
			Status:        res.Status,
			Duration:      time.Since(start),
			FromHook:      true,
		})
		return res, nil
	}

	c.emit(TopicStart, RequestEvent{
		CorrelationID: correlationID,
		Method:        req.Method,
		URL:           req.URL,
		Time:          start,
	})

	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		c.emit(TopicError, ErrorEvent{
			CorrelationID: correlationID,
			Method:        req.Method,
			URL:           req.URL,
			Err:           err,
		})
		return nil, err
	}

	hc, err = c.runHooks(ctx, PointAfterResponse, req, resp, correlationID)
	if err != nil {
		return nil, err
	}
	if hc.Response != nil {
		resp = hc.Response
	}

	res := resultFrom(resp, correlationID, false)
	c.emit(TopicComplete, ResponseEvent{
		CorrelationID: correlationID,
		Status:        res.Status,
		Duration:      time.Since(start),
	})
	return res, nil
}

// runHooks fires one interception point. A nil registry yields a
// context carrying only the descriptors.
func (c *Client) runHooks(ctx context.Context, point hook.Point, req *hook.RequestInfo, resp *hook.ResponseInfo, correlationID string) (*hook.Context, error) {
	input := hook.NewContext()
	input.Request = req
	input.Response = resp
	input.SetMeta(MetaCorrelationID, correlationID)

	if c.hooks == nil {
		return input, nil
	}
	return c.hooks.Run(ctx, point, input)
}

// roundTrip performs the actual HTTP exchange and drains the body.
func (c *Client) roundTrip(ctx context.Context, req *hook.RequestInfo) (*hook.ResponseInfo, error) {
	var reader io.Reader
	if len(req.Body) > 0 {
		reader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &hook.ResponseInfo{
		Status:  httpResp.StatusCode,
		Headers: httpResp.Header,
		Body:    respBody,
	}, nil
}

func (c *Client) emit(t topic.Topic, payload any) {
	if c.bus == nil {
		return
	}
	_ = c.bus.Emit(context.Background(), t, payload)
}

func resultFrom(resp *hook.ResponseInfo, correlationID string, fromHook bool) *Result {
	return &Result{
		Status:        resp.Status,
		Headers:       http.Header(resp.Headers),
		Body:          resp.Body,
		CorrelationID: correlationID,
		FromHook:      fromHook,
	}
}

func cloneHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, vs := range h {
		cp := make([]string, len(vs))
		copy(cp, vs)
		out[k] = cp
	}
	return out
}
