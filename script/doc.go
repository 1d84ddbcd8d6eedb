// Package script embeds a Lua interpreter that can subscribe to the
// event bus and register hook handlers. Scripts see one global table,
// relay, with emit/on/once/register/log functions; payloads and hook
// contexts cross the boundary as plain tables.
//
// A Host owns one Lua state. The state is single-threaded, so every
// entry into it, whether from Do or from a dispatched event, is
// serialized behind the host's lock. Emissions from Lua are
// fire-and-forget so a script can never deadlock itself.
package script
