package index

import (
	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/parse"
)

// LookupIdentifier walks the scope ancestor chain from scopeFQN outward
// (via ParentScope), checking each scope's DefinitionMap before falling
// to the enclosing scope, matching the shadowing rule shared by every
// language's identifier resolution (spec.md §4.3 "Identifier").
func (fi *FileIndex) LookupIdentifier(scopeFQN, name string, refRange graph.Range) (*parse.Binding, bool) {
	fqn := scopeFQN
	for {
		scope, ok := fi.Scopes[fqn]
		if ok {
			if b, found := scope.Defs.Lookup(name, refRange); found {
				return b, true
			}
		}
		parent, ok := fi.ParentScope[fqn]
		if !ok {
			return nil, false
		}
		fqn = parent
	}
}

// AncestorChain walks a class's super-type chain breadth-first, guarding
// against inheritance cycles with a visited set (spec.md §4.3; §9
// explicitly calls out cyclic superclass chains as a required guard, not
// an assumed-absent case). classOf resolves an unresolved super-type
// name string (as written in ClassInfo.SuperTypes) to the FQN of the
// class it refers to; it returns ok=false when the name cannot be
// resolved, in which case that branch of the walk simply terminates.
// The returned order excludes startFQN itself.
func AncestorChain(global *GlobalIndex, startFQN string, classOf func(name string) (string, bool)) []string {
	visited := map[string]bool{startFQN: true}
	queue := []string{startFQN}
	var order []string

	for len(queue) > 0 {
		fqn := queue[0]
		queue = queue[1:]

		fi := fileOwning(global, fqn)
		if fi == nil {
			continue
		}
		class, ok := fi.Classes[fqn]
		if !ok {
			continue
		}
		for _, superName := range class.SuperTypes {
			superFQN, ok := classOf(superName)
			if !ok || visited[superFQN] {
				continue
			}
			visited[superFQN] = true
			order = append(order, superFQN)
			queue = append(queue, superFQN)
		}
	}
	return order
}

// LeastCommonAncestor computes the nearest type every fqn in fqns can be
// widened to, by intersecting each type's BFS ancestor order (itself
// first, then superclasses and interfaces outward). Used for the merged
// type of conditional/ternary/when branches (spec.md §4.3 "return the
// least common ancestor type computed via BFS over superclass +
// interface edges from each branch's type, intersecting ancestor sets").
// Returns ok=false when the intersection is empty.
func LeastCommonAncestor(global *GlobalIndex, fqns []string, classOf func(name string) (string, bool)) (string, bool) {
	if len(fqns) == 0 {
		return "", false
	}
	first := append([]string{fqns[0]}, AncestorChain(global, fqns[0], classOf)...)
	if len(fqns) == 1 {
		return fqns[0], true
	}

	common := map[string]int{}
	for _, a := range first {
		common[a] = 1
	}
	for _, fqn := range fqns[1:] {
		chain := append([]string{fqn}, AncestorChain(global, fqn, classOf)...)
		for _, a := range chain {
			if common[a] == 1 {
				common[a] = 2
			}
		}
		for a, seen := range common {
			if seen != 2 {
				delete(common, a)
				continue
			}
			common[a] = 1
		}
	}

	// first's BFS order decides nearness; the first surviving entry is the
	// least common ancestor.
	for _, a := range first {
		if common[a] == 1 {
			return a, true
		}
	}
	return "", false
}

func fileOwning(global *GlobalIndex, fqn string) *FileIndex {
	def, ok := global.Lookup(fqn)
	if !ok {
		return nil
	}
	fi, ok := global.File(def.Primary.FilePath)
	if !ok {
		return nil
	}
	return fi
}

// ReturnTypeGuard prevents infinite recursion when inferring a method
// call's result type from the called method's own body, which can itself
// require resolving a call back into an already-visited method (spec.md
// §4.3 "Cycle safety"). A fresh guard is created per top-level reference
// being resolved, not shared across the whole file, since two independent
// references may both legitimately need to infer the same method's
// return type.
type ReturnTypeGuard struct {
	visiting map[string]bool
}

// NewReturnTypeGuard returns an empty per-reference guard.
func NewReturnTypeGuard() *ReturnTypeGuard {
	return &ReturnTypeGuard{visiting: map[string]bool{}}
}

// Enter marks methodFQN as being visited and reports whether it was
// already in progress (a cycle). Callers must call Exit when done, even
// on early return.
func (g *ReturnTypeGuard) Enter(methodFQN string) (cycle bool) {
	if g.visiting[methodFQN] {
		return true
	}
	g.visiting[methodFQN] = true
	return false
}

// Exit clears methodFQN from the in-progress set.
func (g *ReturnTypeGuard) Exit(methodFQN string) {
	delete(g.visiting, methodFQN)
}
