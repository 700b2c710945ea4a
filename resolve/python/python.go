// Package python resolves Python references. Unlike the other
// languages, name resolution for Python identifiers is done by an
// earlier pass (parse.PythonResolution, attached to each parse.Reference)
// that already walked the module's wildcard-import graph and scoping
// rules; this resolver's job is to turn that pre-computed
// Resolved/Ambiguous/Unresolved state into graph relationships, including
// the transitive walk across re-exported imported symbols (spec.md §4.3
// "Python specifics"), grounded on
// original_source/crates/indexer/src/analysis/languages/python/analyzer.rs.
package python

import (
	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

type Resolver struct {
	// AmbiguousWildcards controls whether an ambiguous reference fans out
	// to one AMBIGUOUSLY_CALLS edge per definition candidate, or collapses
	// to the first candidate only (the upstream's original single-candidate
	// behavior). Imported-symbol candidates are not tagged
	// AMBIGUOUSLY_CALLS: each is followed through its imports and produces
	// a CALLS or DEFINES_IMPORTED_SYMBOL edge as in the resolved case.
	AmbiguousWildcards bool
}

func New() *Resolver { return &Resolver{AmbiguousWildcards: true} }

func (r *Resolver) Language() graph.Language { return graph.LanguagePython }

func (r *Resolver) Resolve(file *index.FileIndex, global *index.GlobalIndex, ref *parse.Reference, sink graph.Sink) {
	if ref.Python == nil {
		return
	}
	site := graph.SourceLocation{FilePath: file.Path, Range: ref.Range}

	switch ref.Python.State {
	case parse.PythonResolved:
		if len(ref.Python.Candidates) == 1 {
			r.emitCandidate(file, global, ref.EnclosingScope, ref.Python.Candidates[0], site, sink)
		}
	case parse.PythonAmbiguous:
		if !r.AmbiguousWildcards {
			if len(ref.Python.Candidates) > 0 {
				r.emitCandidate(file, global, ref.EnclosingScope, ref.Python.Candidates[0], site, sink)
			}
			return
		}
		var fqns []string
		for _, c := range ref.Python.Candidates {
			if c.Kind == parse.PythonCandidateDefinition {
				fqns = append(fqns, c.FQN)
			}
		}
		if len(fqns) > 0 {
			sink.AmbiguouslyCalls(ref.EnclosingScope, fqns, site)
		}
		for _, c := range ref.Python.Candidates {
			if c.Kind == parse.PythonCandidateImportedSymbol {
				r.emitCandidate(file, global, ref.EnclosingScope, c, site, sink)
			}
		}
	case parse.PythonUnresolved:
		// References reachable only through a wildcard import that could not
		// be narrowed to a single module are dropped, matching the
		// upstream TODO: wildcard-import fallback is not attempted.
	}
}

func (r *Resolver) emitCandidate(file *index.FileIndex, global *index.GlobalIndex, scopeFQN string, c parse.PythonCandidate, site graph.SourceLocation, sink graph.Sink) {
	switch c.Kind {
	case parse.PythonCandidateDefinition:
		if _, ok := global.Lookup(c.FQN); ok {
			sink.Calls(scopeFQN, c.FQN, site)
		}
	case parse.PythonCandidateImportedSymbol:
		r.resolveTransitiveImport(file, global, scopeFQN, c.ImportFile, c.ImportRange, site, sink, map[string]bool{})
	}
}

// resolveTransitiveImport follows an imported symbol through further
// re-export chains: "from a import b" in module X, where b is itself
// imported (not defined) in module a, should ultimately point at a's own
// import of b -- or, if that resolves to a concrete definition, straight
// to the definition. The visited set is keyed by (file, range) to
// terminate import cycles (spec.md §4.3 "cycle-safe traversal").
func (r *Resolver) resolveTransitiveImport(file *index.FileIndex, global *index.GlobalIndex, scopeFQN, importFile string, importRange graph.Range, site graph.SourceLocation, sink graph.Sink, visited map[string]bool) {
	key := importFile + "@" + rangeKey(importRange)
	if visited[key] {
		return
	}
	visited[key] = true

	fi, ok := global.File(importFile)
	if !ok {
		return
	}
	var node *graph.ImportedSymbolNode
	for _, n := range fi.ImportNodes {
		if n.Location.Range == importRange {
			node = n
			break
		}
	}
	if node == nil {
		return
	}

	if def, ok := global.Lookup(node.ImportPath); ok {
		sink.Calls(scopeFQN, def.FQN, site)
		return
	}

	// node.ImportPath doesn't name a definition directly; see whether the
	// module it points at re-exports the same local name from elsewhere.
	// Module paths are dotted ("pkg.mod"), not file paths, so a miss on
	// the literal path falls back to the optimized file tree's
	// root-dir-aware, case-folded module lookup.
	modulePath := node.ImportPath
	targetModule, ok := global.File(modulePath)
	if !ok {
		if tree := global.Tree(); tree != nil {
			if p, found := tree.ResolveModule(node.ImportPath); found {
				modulePath = p
				targetModule, ok = global.File(p)
			}
		}
	}
	if !ok {
		sink.ImportsSymbol(scopeFQN, node, site)
		return
	}
	localName := node.LocalName()
	for _, n := range targetModule.ImportNodes {
		if n.LocalName() == localName {
			r.resolveTransitiveImport(file, global, scopeFQN, modulePath, n.Location.Range, site, sink, visited)
			return
		}
	}
	sink.ImportsSymbol(scopeFQN, node, site)
}

func rangeKey(rg graph.Range) string {
	return itoa(rg.StartByte) + ":" + itoa(rg.EndByte)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
