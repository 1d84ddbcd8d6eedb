package registry

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// nextID is the process-wide entry id counter. Monotonic ids give every
// entry a stable tie-breaker within equal priorities, across all tables.
var nextID atomic.Uint64

// NextID reserves and returns a fresh registration id.
func NextID() uint64 {
	return nextID.Add(1)
}

// Entry is one handler's binding to a key.
type Entry[H any] struct {
	// ID is the process-unique, monotonically increasing identifier.
	ID uint64

	// Key is the topic or hook point this entry answers to.
	Key string

	// Priority determines execution order; higher values run earlier.
	Priority int

	// Once marks the entry for removal after its first execution.
	Once bool

	// Handler is the registered capability.
	Handler H
}

// Table is an ordered registration table keyed by topic/point name.
// It is safe for concurrent use. All operations are total functions over
// possibly-missing keys; none of them return errors.
type Table[H any] struct {
	mu      sync.RWMutex
	buckets map[string][]Entry[H]
}

// NewTable creates an empty registration table.
func NewTable[H any]() *Table[H] {
	return &Table[H]{
		buckets: make(map[string][]Entry[H]),
	}
}

// Insert adds a handler entry for key, maintaining descending-priority
// order with registration order preserved among equal priorities.
// It returns the stored entry, whose ID can be used for removal.
func (t *Table[H]) Insert(key string, priority int, once bool, handler H) Entry[H] {
	e := Entry[H]{
		ID:       NextID(),
		Key:      key,
		Priority: priority,
		Once:     once,
		Handler:  handler,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.buckets[key]

	// The new entry carries the largest id, so its slot is directly
	// after every entry with priority >= e.Priority. An explicit ordered
	// insert keeps equal-priority entries in registration order, which a
	// re-sort would not guarantee.
	idx := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].Priority < e.Priority
	})

	bucket = append(bucket, Entry[H]{})
	copy(bucket[idx+1:], bucket[idx:])
	bucket[idx] = e
	t.buckets[key] = bucket

	return e
}

// RemoveID removes the entry with the given id from key's sequence.
// It reports whether anything was removed; removing an unknown id is a
// no-op. The key's bucket is deleted entirely once empty so the index
// does not accumulate stale keys.
func (t *Table[H]) RemoveID(key string, id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket, ok := t.buckets[key]
	if !ok {
		return false
	}

	for i, e := range bucket {
		if e.ID == id {
			t.deleteAt(key, bucket, i)
			return true
		}
	}
	return false
}

// RemoveHandler removes the first entry under key whose handler is
// identical to the given handler. Function values are compared by code
// pointer, so distinct closures over the same function body compare
// equal; callers registering one function several times should prefer
// removal by id.
func (t *Table[H]) RemoveHandler(key string, handler H) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket, ok := t.buckets[key]
	if !ok {
		return false
	}

	for i, e := range bucket {
		if identical(e.Handler, handler) {
			t.deleteAt(key, bucket, i)
			return true
		}
	}
	return false
}

// deleteAt removes bucket[i], storing the shrunk bucket or dropping the
// key when the bucket empties. Caller must hold t.mu.
func (t *Table[H]) deleteAt(key string, bucket []Entry[H], i int) {
	if len(bucket) == 1 {
		delete(t.buckets, key)
		return
	}
	t.buckets[key] = append(bucket[:i], bucket[i+1:]...)
}

// Snapshot returns a point-in-time copy of key's entry sequence for safe
// iteration. Mutations after the snapshot affect only future snapshots.
func (t *Table[H]) Snapshot(key string) []Entry[H] {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bucket := t.buckets[key]
	if len(bucket) == 0 {
		return nil
	}

	out := make([]Entry[H], len(bucket))
	copy(out, bucket)
	return out
}

// SnapshotMatch returns a point-in-time copy of the entries under every
// key accepted by match, merged into one sequence ordered by descending
// priority and ascending id. This is how the bus resolves wildcard
// subscription patterns against a concrete topic.
func (t *Table[H]) SnapshotMatch(match func(key string) bool) []Entry[H] {
	t.mu.RLock()
	var out []Entry[H]
	for key, bucket := range t.buckets {
		if match(key) {
			out = append(out, bucket...)
		}
	}
	t.mu.RUnlock()

	if len(out) == 0 {
		return nil
	}

	// Ids are unique so the comparator is strict; no stability concern.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of entries registered under key.
func (t *Table[H]) Count(key string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.buckets[key])
}

// Keys returns every key with at least one entry.
func (t *Table[H]) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.buckets) == 0 {
		return nil
	}
	keys := make([]string, 0, len(t.buckets))
	for k := range t.buckets {
		keys = append(keys, k)
	}
	return keys
}

// Clear removes every entry from the table. Intended for test isolation.
func (t *Table[H]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets = make(map[string][]Entry[H])
}

// identical reports whether two handlers are the same value. Comparable
// values compare with ==; functions compare by code pointer; anything
// else falls back to pointer identity.
func identical[H any](a, b H) bool {
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)

	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Kind() == reflect.Func || vb.Kind() == reflect.Func {
		return va.Kind() == vb.Kind() && va.Pointer() == vb.Pointer()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Interface() == vb.Interface()
	}
	if va.Kind() == reflect.Pointer && vb.Kind() == reflect.Pointer {
		return va.Pointer() == vb.Pointer()
	}
	return false
}
