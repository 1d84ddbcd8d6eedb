// Package registry provides the ordered registration table shared by the
// event bus and the hook registry.
//
// A Table maps a key (topic or hook point) to an ordered sequence of
// handler entries. Within a key, entries are kept in descending priority
// order; entries with equal priority keep registration order. Ids are
// assigned from one process-wide monotonic counter, so the id doubles as
// the tie-breaker and is stable across keys.
//
// Readers never iterate live sequences: Snapshot and SnapshotMatch return
// copies, insulating an in-flight dispatch from concurrent mutation.
package registry
