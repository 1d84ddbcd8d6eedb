// Package fetch wraps an HTTP client with interception points and
// request lifecycle events. Hook handlers on beforeRequest can rewrite
// or short-circuit the outgoing request; afterResponse handlers can
// rewrite what the caller sees. Every request carries a correlation id
// through its hook contexts and lifecycle events.
package fetch
