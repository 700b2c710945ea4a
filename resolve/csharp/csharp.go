// Package csharp is a minimal C# resolver. spec.md §2 lists C# as
// "analogous" to the four fully specified languages but does not specify
// its lookup rules; per SPEC_FULL.md §4.4 this implements only
// identifier resolution, single-level field-access and method-call
// resolution on a receiver typed through the file's own scope tree, and
// constructor-call resolution -- no cross-file inheritance walk, no
// extension-method search. Flagged in DESIGN.md as a shallow implementation rather than
// silently presented as complete.
package csharp

import (
	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

type Resolver struct{}

func New() *Resolver { return &Resolver{} }

func (r *Resolver) Language() graph.Language { return graph.LanguageCSharp }

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
		if fi.Package != "" {
			if def, ok := global.Lookup(fi.Package + "." + e.Name); ok {
				sink.Calls(scopeFQN, def.FQN, site)
			}
		}

	case parse.ExprFieldAccess, parse.ExprMethodCall:
		receiver, ok := receiverType(fi, scopeFQN, e.Operand)
		if !ok {
			return
		}
		memberFQN := receiver + "." + e.Name
		if def, ok := global.Lookup(memberFQN); ok {
			sink.Calls(scopeFQN, def.FQN, site)
		}

	case parse.ExprConstructorCall:
		if def, ok := global.Lookup(e.TypeName); ok {
			sink.Calls(scopeFQN, def.FQN, site)
		}
	}
}

// receiverType resolves only an identifier operand's declared type -- no
// recursive chain walk, matching the stub's scoped-down contract.
func receiverType(fi *index.FileIndex, scopeFQN string, operand *parse.Expr) (string, bool) {
	if operand == nil || operand.Kind != parse.ExprIdentifier {
		return "", false
	}
	b, ok := fi.LookupIdentifier(scopeFQN, operand.Name, operand.Range)
	if !ok || b.DeclaredType == "" {
		return "", false
	}
	return b.DeclaredType, true
}
