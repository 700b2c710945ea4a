// Package rust is a minimal Rust resolver, the same shallow scope of
// resolve/csharp for the same reason: spec.md §2 names Rust "analogous"
// without specifying its lookup rules (trait resolution, module paths,
// impl blocks). SPEC_FULL.md §4.4 scopes this down to identifier,
// single-level field-access/method-call and constructor-call resolution;
// flagged in DESIGN.md.
package rust

import (
	"strings"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

type Resolver struct{}

func New() *Resolver { return &Resolver{} }

func (r *Resolver) Language() graph.Language { return graph.LanguageRust }

func (r *Resolver) Resolve(file *index.FileIndex, global *index.GlobalIndex, ref *parse.Reference, sink graph.Sink) {
	site := graph.SourceLocation{FilePath: file.Path, Range: ref.Range}
	r.resolve(file, global, ref.EnclosingScope, ref.Expr, sink, site)
}

func (r *Resolver) resolve(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, e *parse.Expr, sink graph.Sink, site graph.SourceLocation) {
	if e == nil {
		return
	}
	switch e.Kind {
	case parse.ExprIdentifier:
		if b, ok := fi.LookupIdentifier(scopeFQN, e.Name, e.Range); ok && b.DeclaredType != "" {
			if def, ok := global.Lookup(b.DeclaredType); ok {
				sink.Calls(scopeFQN, def.FQN, site)
			}
			return
		}
		if imp, ok := fi.ImportedNames[e.Name]; ok {
			if def, ok := global.Lookup(imp.ImportPath); ok {
				sink.Calls(scopeFQN, def.FQN, site)
				return
			}
			sink.ImportsSymbol(scopeFQN, imp, site)
			return
		}
		if modPath, ok := modulePath(fi, e.Name); ok {
			if def, ok := global.Lookup(modPath); ok {
				sink.Calls(scopeFQN, def.FQN, site)
			}
		}

	case parse.ExprFieldAccess, parse.ExprMethodCall:
		if e.Operand == nil || e.Operand.Kind != parse.ExprIdentifier {
			return
		}
		b, ok := fi.LookupIdentifier(scopeFQN, e.Operand.Name, e.Operand.Range)
		if !ok || b.DeclaredType == "" {
			return
		}
		memberFQN := b.DeclaredType + "::" + e.Name
		if def, ok := global.Lookup(memberFQN); ok {
			sink.Calls(scopeFQN, def.FQN, site)
		}

	case parse.ExprConstructorCall:
		if def, ok := global.Lookup(e.TypeName); ok {
			sink.Calls(scopeFQN, def.FQN, site)
		}
	}
}

// modulePath applies Rust's "::"-qualified module path, the closest
// analogue to Java's package-prefixed lookup this stub attempts.
func modulePath(fi *index.FileIndex, name string) (string, bool) {
	if fi.Package == "" {
		return "", false
	}
	return strings.TrimSuffix(fi.Package, "::") + "::" + name, true
}
