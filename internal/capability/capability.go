package capability

// StacktraceLink is the capability gating per-line source-link lookups.
const StacktraceLink = "integrations-stacktrace-link"

// Set is the read-only view of an organization's enabled features.
type Set interface {
	// Includes reports whether the named capability is enabled.
	Includes(name string) bool
}

// StaticSet is an in-memory Set built from a fixed list of names.
type StaticSet map[string]bool

// NewStaticSet creates a StaticSet from capability names.
// Empty names are ignored.
func NewStaticSet(names ...string) StaticSet {
	s := make(StaticSet, len(names))
	for _, name := range names {
		if name != "" {
			s[name] = true
		}
	}
	return s
}

// Includes implements Set.
func (s StaticSet) Includes(name string) bool {
	return s[name]
}

// None is the empty capability set.
var None Set = StaticSet{}
