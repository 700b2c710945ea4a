package index

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/parse"
)

// Warning records a dropped or degraded Parse Output (spec.md §4.1
// "Failure semantics").
type Warning struct {
	FilePath string
	Reason   string
}

// FileIndex is the set of maps built from one file's Parse Outputs
// (spec.md §3 "Per-File Index"). It is built once by a single goroutine
// and, after that, read-only -- safe to hand to the global index and to
// resolvers without further synchronization.
type FileIndex struct {
	Path    string
	Package string

	Definitions map[string]*graph.DefinitionNode
	Classes     map[string]*parse.ClassInfo
	Bindings    map[string]*parse.Binding // fqn -> function/property binding
	Scopes      map[string]*Scope
	ParentScope map[string]string // scope fqn -> parent scope fqn

	ImportedNames   map[string]*graph.ImportedSymbolNode // local name -> the import binding it
	WildcardImports map[string]bool                      // set of wildcard import paths
	ImportNodes     []*graph.ImportedSymbolNode          // every textual import site, in arrival order

	warnings []Warning
	log      *logrus.Entry
}

// NewFileIndex creates an empty per-file index. log may be nil; the
// standard logrus logger is used in that case.
func NewFileIndex(path string, log *logrus.Entry) *FileIndex {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FileIndex{
		Path:            path,
		Definitions:     map[string]*graph.DefinitionNode{},
		Classes:         map[string]*parse.ClassInfo{},
		Bindings:        map[string]*parse.Binding{},
		Scopes:          map[string]*Scope{},
		ParentScope:     map[string]string{},
		ImportedNames:   map[string]*graph.ImportedSymbolNode{},
		WildcardImports: map[string]bool{},
		log:             log.WithField("file", path),
	}
}

// Warnings returns the per-file warnings accumulated while indexing.
func (fi *FileIndex) Warnings() []Warning { return fi.warnings }

func (fi *FileIndex) warn(reason string) {
	fi.warnings = append(fi.warnings, Warning{FilePath: fi.Path, Reason: reason})
	fi.log.WithField("stage", "index").Warn(reason)
}

// AddFile records the file's package; idempotent.
func (fi *FileIndex) AddFile(pkg string) {
	if fi.Package == "" {
		fi.Package = pkg
	}
}

// scopeFor returns the Scope for fqn, creating it (and its ancestor
// chain, derived from FQN structure per ParentFQN) on first use. A
// synthetic "<ReceiverType>+ext" segment always gets the
// extension-receiver context, whatever context its creator asked for.
func (fi *FileIndex) scopeFor(fqn string, ctx ScopeContext) *Scope {
	if s, ok := fi.Scopes[fqn]; ok {
		return s
	}
	if strings.HasSuffix(fqn, "+ext") {
		ctx = ScopeExtensionReceiver
	}
	s := newScope(fqn, ctx)
	fi.Scopes[fqn] = s
	if parent, ok := ParentFQN(fqn); ok {
		fi.ParentScope[fqn] = parent
		if _, exists := fi.Scopes[parent]; !exists {
			fi.scopeFor(parent, ScopeTopLevel)
		}
	}
	return s
}

// AddDefinition inserts info into the per-file tables. Re-adding the same
// FQN (a re-opened class or partial type) keeps the first primary
// location and increments TotalLocations (spec.md §4.1 policies).
func (fi *FileIndex) AddDefinition(info *parse.DefinitionInfo) {
	fqn := info.FQN()
	if fqn == "" || info.Location.Range.Empty() {
		fi.warn("dropped definition: empty fqn or missing primary location")
		return
	}

	if existing, ok := fi.Definitions[fqn]; ok {
		existing.TotalLocations++
	} else {
		fi.Definitions[fqn] = &graph.DefinitionNode{
			FQN:            fqn,
			Name:           info.Name,
			Language:       info.Language,
			Kind:           info.Kind,
			Primary:        info.Location,
			TotalLocations: 1,
		}
	}

	if info.Class != nil {
		fi.Classes[fqn] = info.Class
	}

	switch info.Kind {
	case graph.DefinitionProperty, graph.DefinitionField:
		parent, ok := ParentFQN(fqn)
		if !ok {
			return
		}
		scope := fi.scopeFor(parent, ScopeClassBody)
		scope.Defs.Add(info.Name, &parse.Binding{
			Name:  info.Name,
			Range: info.Location.Range,
		})
	case graph.DefinitionMethod, graph.DefinitionFunction, graph.DefinitionConstructor:
		fi.Bindings[fqn] = &parse.Binding{Name: info.Name, Range: info.Location.Range}
		// register the scope this definition's body occupies, plus its
		// parent link, so resolvers can walk outward from calls inside it.
		fi.scopeFor(fqn, ScopeFunctionBody)
	default:
		fi.scopeFor(fqn, ScopeTopLevel)
	}
}

// AddImport records an import site. Wildcard imports go into
// WildcardImports; others are additionally registered under
// ImportedNames[localName] (spec.md §4.1), a later import of the same
// local name shadowing an earlier one. Every node is appended to
// ImportNodes: two imports of the same target in the same file are
// distinct nodes because they have distinct ranges (spec.md §3), so the
// slice never collapses them.
func (fi *FileIndex) AddImport(node *graph.ImportedSymbolNode) {
	if node.Kind == graph.ImportWildcard {
		fi.WildcardImports[node.ImportPath] = true
	} else {
		fi.ImportedNames[node.LocalName()] = node
	}
	fi.ImportNodes = append(fi.ImportNodes, node)
}

// AddBinding registers a local-variable-shaped binding (e.g. a parameter
// or a local declaration) directly into a scope's definition map, where
// later identifier lookups within the same file find it. The resolvers
// only read these bindings; none of them calls AddBinding.
func (fi *FileIndex) AddBinding(scopeFQN, name string, b *parse.Binding) {
	scope := fi.scopeFor(scopeFQN, ScopeBlock)
	scope.Defs.Add(name, b)
}
