package topic

import "strings"

// Topic names a channel on the event bus or an extension point on the
// hook registry. Segments are separated by colons.
// Examples: "request:start", "auth:login", "beforeRequest".
type Topic string

// Wildcard constants for pattern matching.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator is the character used to separate topic segments.
	Separator = ":"
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Base returns the last segment of the topic.
//
// Example: "request:start" -> "start"
func (t Topic) Base() string {
	s := string(t)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// Family returns the topic with its last segment removed.
// Returns an empty topic for single-segment names.
//
// Example: "request:start" -> "request"
func (t Topic) Family() Topic {
	s := string(t)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return ""
	}
	return Topic(s[:idx])
}

// IsPattern returns true if the topic contains any wildcard segment.
func (t Topic) IsPattern() bool {
	for _, seg := range t.Segments() {
		if seg == WildcardSingle || seg == WildcardMulti {
			return true
		}
	}
	return false
}

// IsValid returns true if the topic is well formed.
// A valid topic:
//   - Is not empty
//   - Does not start or end with a separator
//   - Does not contain empty segments
func (t Topic) IsValid() bool {
	s := string(t)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, Separator) || strings.HasSuffix(s, Separator) {
		return false
	}
	return !strings.Contains(s, Separator+Separator)
}

// Matches reports whether this concrete topic matches the given
// subscription pattern. The pattern may contain wildcards:
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// A pattern without wildcards matches only itself.
func (t Topic) Matches(pattern Topic) bool {
	if !pattern.IsPattern() {
		return t == pattern
	}
	return matchSegments(t.Segments(), pattern.Segments())
}

// matchSegments performs recursive pattern matching on topic segments.
func matchSegments(name, pattern []string) bool {
	ni, pi := 0, 0

	for pi < len(pattern) {
		if pattern[pi] == WildcardMulti {
			// ** matches zero or more segments; try each split point.
			for ni <= len(name) {
				if matchSegments(name[ni:], pattern[pi+1:]) {
					return true
				}
				ni++
			}
			return false
		}

		if ni >= len(name) {
			return false
		}

		if pattern[pi] == WildcardSingle || pattern[pi] == name[ni] {
			ni++
			pi++
			continue
		}

		return false
	}

	return ni == len(name)
}

// Join joins segments into a topic.
func Join(segments ...string) Topic {
	return Topic(strings.Join(segments, Separator))
}
