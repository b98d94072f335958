// Package schema describes the fixed object tree of the report database.
// The notification core only needs membership testing against the known
// top-level object lists, so the registry exposes exactly that.
package schema

// ObjectListMeta defines the canonical description of a top-level object
// list in the report database.
type ObjectListMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ObjectLists defines the authoritative top-level object lists of the
// latest report schema. All components MUST validate list names against
// this table.
var ObjectLists = map[string]ObjectListMeta{
	"checkouts": {Name: "checkouts", Description: "Source code checkouts being tested"},
	"builds":    {Name: "builds", Description: "Builds of checked out source code"},
	"tests":     {Name: "tests", Description: "Test runs against builds"},
	"issues":    {Name: "issues", Description: "Known problems matched in reports"},
	"incidents": {Name: "incidents", Description: "Occurrences of issues in reports"},
}

// Registry provides membership testing for top-level object list names.
// The notification constructor takes a Registry rather than reading the
// package-level table, enabling test doubles with a minimal fixed set.
type Registry interface {
	// Contains reports whether name is a known top-level object list.
	Contains(name string) bool
}

// FixedRegistry is a Registry backed by a fixed set of list names.
type FixedRegistry struct {
	names map[string]struct{}
}

// NewFixedRegistry creates a FixedRegistry containing exactly the given
// object list names.
func NewFixedRegistry(names ...string) *FixedRegistry {
	r := &FixedRegistry{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		r.names[n] = struct{}{}
	}
	return r
}

// Contains implements Registry.
func (r *FixedRegistry) Contains(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Latest returns a Registry over the latest schema's object lists.
func Latest() *FixedRegistry {
	names := make([]string, 0, len(ObjectLists))
	for n := range ObjectLists {
		names = append(names, n)
	}
	return NewFixedRegistry(names...)
}

// Compile-time assertion that FixedRegistry implements Registry.
var _ Registry = (*FixedRegistry)(nil)
