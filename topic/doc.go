// Package topic defines the names that listeners subscribe to and hook
// handlers attach to.
//
// Topics are colon-separated, mirroring the platform's conventions:
//
//	request:start      - an outbound request began
//	request:complete   - an outbound request finished
//	auth:login         - a session was established
//	error              - the diagnostics channel
//
// Subscription patterns may contain wildcards:
//
//	request:*   - matches request:start, request:complete (one segment)
//	auth:**     - matches auth:login, auth:session:expired (any depth)
package topic
