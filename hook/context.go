package hook

import (
	"github.com/brunoga/deep"
)

// RequestInfo describes an outbound request flowing through an
// interception point.
type RequestInfo struct {
	Method  string
	URL     string
	Headers map[string][]string
	Body    []byte
}

// ResponseInfo describes a received response.
type ResponseInfo struct {
	Status  int
	Headers map[string][]string
	Body    []byte
}

// UserInfo describes the acting user.
type UserInfo struct {
	ID         string
	Name       string
	Roles      []string
	Attributes map[string]string
}

// RouteInfo describes the active navigation target.
type RouteInfo struct {
	Path   string
	Name   string
	Params map[string]string
}

// Context is the payload threaded through a handler chain. Handlers
// receive the working context and return a delta; nil descriptor
// fields in the delta leave the working value untouched, non-nil
// fields replace it, and Meta entries overlay key by key.
//
// Context is a plain data carrier. It is not safe for concurrent
// mutation; the registry hands each parallel handler its own clone.
type Context struct {
	Request  *RequestInfo
	Response *ResponseInfo
	User     *UserInfo
	Route    *RouteInfo

	// Stop terminates the sequential chain after the current handler's
	// delta is merged. It has no effect in parallel runs.
	Stop bool

	// Meta carries point-specific values that have no descriptor field.
	Meta map[string]any
}

// NewContext returns an empty context with an initialized Meta map.
func NewContext() *Context {
	return &Context{Meta: make(map[string]any)}
}

// Clone returns a deep copy of the context. Cloning a nil context
// returns a fresh empty one. Meta values that cannot be deep-copied
// (channels, functions) fall back to a shallow entry copy.
func (c *Context) Clone() *Context {
	if c == nil {
		return NewContext()
	}
	cp, err := deep.Copy(c)
	if err == nil {
		if cp.Meta == nil {
			cp.Meta = make(map[string]any)
		}
		return cp
	}

	out := &Context{
		Request:  c.Request,
		Response: c.Response,
		User:     c.User,
		Route:    c.Route,
		Stop:     c.Stop,
		Meta:     make(map[string]any, len(c.Meta)),
	}
	for k, v := range c.Meta {
		out.Meta[k] = v
	}
	return out
}

// merge applies a handler's delta to the working context.
func (c *Context) merge(delta *Context) {
	if delta == nil {
		return
	}
	if delta.Request != nil {
		c.Request = delta.Request
	}
	if delta.Response != nil {
		c.Response = delta.Response
	}
	if delta.User != nil {
		c.User = delta.User
	}
	if delta.Route != nil {
		c.Route = delta.Route
	}
	if delta.Stop {
		c.Stop = true
	}
	for k, v := range delta.Meta {
		if c.Meta == nil {
			c.Meta = make(map[string]any)
		}
		c.Meta[k] = v
	}
}

// SetMeta stores a metadata value, initializing the map if needed.
func (c *Context) SetMeta(key string, value any) {
	if c.Meta == nil {
		c.Meta = make(map[string]any)
	}
	c.Meta[key] = value
}

// MetaString returns the string value under key.
func (c *Context) MetaString(key string) (string, bool) {
	v, ok := c.Meta[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MetaInt returns the int value under key.
func (c *Context) MetaInt(key string) (int, bool) {
	v, ok := c.Meta[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// MetaBool returns the bool value under key.
func (c *Context) MetaBool(key string) (bool, bool) {
	v, ok := c.Meta[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
