package policy

import "strings"

// TaskKey identifies a kind of task for policy lookup.
//
// Keys are structured as "namespace.name" (e.g. "agent.research"). The
// namespace groups related tasks; the name identifies the specific task
// kind within it.
type TaskKey struct {
	Namespace string
	Name      string
}

// ParseKey parses "namespace.name" into a TaskKey.
//
// A string with no dot becomes {Name: s}. Only the first dot splits; the
// remainder is the name.
func ParseKey(s string) TaskKey {
	s = strings.TrimSpace(s)
	if s == "" {
		return TaskKey{}
	}
	idx := strings.Index(s, ".")
	if idx < 0 {
		return TaskKey{Name: s}
	}
	return TaskKey{
		Namespace: strings.TrimSpace(s[:idx]),
		Name:      strings.TrimSpace(s[idx+1:]),
	}
}

func (k TaskKey) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	return k.Namespace + "." + k.Name
}

// IsZero reports whether the key is empty.
func (k TaskKey) IsZero() bool {
	return k.Namespace == "" && k.Name == ""
}
