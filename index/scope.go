package index

import (
	"strings"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/parse"
)

// ScopeContext tags the lexical context a scope represents, used by the
// resolvers to decide, e.g., whether an extension-function receiver type
// should also be searched (spec.md §4.3 "Receiverless call").
type ScopeContext string

const (
	ScopeTopLevel          ScopeContext = "top-level"
	ScopeClassBody         ScopeContext = "class-body"
	ScopeFunctionBody      ScopeContext = "function-body"
	ScopeExtensionReceiver ScopeContext = "extension-receiver"
	ScopeBlock             ScopeContext = "block"
)

// DefinitionMap is the two-tier name table every scope carries: a single
// binding per unique name, and an ordered list of bindings for names that
// shadow within the same scope by range containment (spec.md §3 "Scope
// tree").
type DefinitionMap struct {
	Unique     map[string]*parse.Binding
	Duplicated map[string][]*parse.Binding
}

func newDefinitionMap() *DefinitionMap {
	return &DefinitionMap{
		Unique:     map[string]*parse.Binding{},
		Duplicated: map[string][]*parse.Binding{},
	}
}

// Add inserts a binding for name, moving to the duplicated list once a
// second binding for the same name appears in the scope (spec.md §4.1
// "for properties/fields, stores the binding under the enclosing scope's
// unique_definitions (or duplicated_definitions if the name already
// exists in that scope)").
func (m *DefinitionMap) Add(name string, b *parse.Binding) {
	if existing, ok := m.Unique[name]; ok {
		m.Duplicated[name] = append(m.Duplicated[name], existing, b)
		delete(m.Unique, name)
		return
	}
	if _, ok := m.Duplicated[name]; ok {
		m.Duplicated[name] = append(m.Duplicated[name], b)
		return
	}
	m.Unique[name] = b
}

// Lookup finds the binding for name visible at refRange: a unique binding
// always matches; a duplicated binding matches only when its range
// contains refRange, so an inner shadow wins over an outer one (spec.md
// §4.3 "duplicated match wins only if the definition's range contains the
// reference's range").
func (m *DefinitionMap) Lookup(name string, refRange graph.Range) (*parse.Binding, bool) {
	if b, ok := m.Unique[name]; ok {
		return b, true
	}
	if list, ok := m.Duplicated[name]; ok {
		var best *parse.Binding
		for _, b := range list {
			if rangeContains(b.Range, refRange) {
				if best == nil || rangeContains(best.Range, b.Range) {
					best = b
				}
			}
		}
		if best != nil {
			return best, true
		}
	}
	return nil, false
}

func rangeContains(outer, inner graph.Range) bool {
	return outer.StartByte <= inner.StartByte && inner.EndByte <= outer.EndByte
}

// Scope is one node of a file's scope tree, identified by its FQN string.
type Scope struct {
	FQN     string
	Context ScopeContext
	Defs    *DefinitionMap
}

func newScope(fqn string, ctx ScopeContext) *Scope {
	return &Scope{FQN: fqn, Context: ctx, Defs: newDefinitionMap()}
}

// ParentFQN derives a scope or definition's lexical parent from its FQN
// structure alone (spec.md §4.1 "Scope hierarchy is derived from fqn
// structure, not from the parser"):
//   - "A.B.m"  -> "A.B"   (dotted member access)
//   - "A#m"    -> "A"     (instance method notation)
//   - "A::m"   -> "A"     (singleton/qualified notation)
//
// When more than one delimiter appears, the rightmost one wins, since
// that is always the one separating the innermost member from its
// immediate enclosing scope.
func ParentFQN(fqn string) (parent string, ok bool) {
	dot := strings.LastIndex(fqn, ".")
	hash := strings.LastIndex(fqn, "#")
	colon := strings.LastIndex(fqn, "::")

	best := -1
	if dot > best {
		best = dot
	}
	if hash > best {
		best = hash
	}
	if colon > best {
		best = colon
	}
	if best < 0 {
		return "", false
	}
	return fqn[:best], true
}
