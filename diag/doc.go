// Package diag attaches observability consumers to an event bus. The
// failure consumer turns error-topic traffic into structured log
// records so handler failures surface somewhere even when no
// application listener cares.
package diag
