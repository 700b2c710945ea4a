// Package typescript resolves TypeScript expression references
// (SPEC_FULL.md §4.4 supplement: TypeScript is named in spec.md's own
// GLOSSARY language-tag enumeration but the distilled spec only sketches
// Java/Kotlin/Python/Ruby in full). TypeScript's class/interface/function
// resolution is close enough to Java's nominal-OOP shape (classes,
// interfaces, inheritance, field/method lookup) that this resolver reuses
// the same field-access/method-call/constructor/this/super machinery,
// scoped down per SPEC_FULL.md §4.4: no generics variance, no structural
// typing, no module-augmentation merging.
package typescript

import (
	"strings"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

type Resolver struct {
	// EmitChainEdges controls whether intermediate resolutions in a member
	// chain (a.b.c()) each produce their own edge, or only the terminal
	// call does.
	EmitChainEdges bool
}

func New() *Resolver { return &Resolver{EmitChainEdges: true} }

func (r *Resolver) Language() graph.Language { return graph.LanguageTypeScript }

type target struct {
	isImport bool
	name     string
	fqn      string
	imp      *graph.ImportedSymbolNode
}

func defTarget(name, fqn string) target              { return target{name: name, fqn: fqn} }
func impTarget(imp *graph.ImportedSymbolNode) target { return target{isImport: true, imp: imp} }

func (r *Resolver) Resolve(file *index.FileIndex, global *index.GlobalIndex, ref *parse.Reference, sink graph.Sink) {
	site := graph.SourceLocation{FilePath: file.Path, Range: ref.Range}
	r.resolveExpr(file, global, ref.EnclosingScope, ref.Expr, sink, site)
}

func (r *Resolver) chainSink(sink graph.Sink) graph.Sink {
	if r.EmitChainEdges {
		return sink
	}
	return graph.NopSink{}
}

func (r *Resolver) resolveExpr(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, e *parse.Expr, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	if e == nil {
		return target{}, false
	}
	switch e.Kind {
	case parse.ExprIdentifier:
		return r.resolveIdentifier(fi, global, scopeFQN, e.Name, e.Range, sink, site)

	case parse.ExprFieldAccess:
		t, ok := r.resolveExpr(fi, global, scopeFQN, e.Operand, r.chainSink(sink), site)
		if !ok {
			return target{}, false
		}
		if t.isImport {
			sink.ImportsSymbol(scopeFQN, t.imp, site)
			return target{}, false
		}
		return r.resolveMember(fi, global, scopeFQN, t, e.Name, sink, site)

	case parse.ExprMethodCall:
		t, ok := r.resolveExpr(fi, global, scopeFQN, e.Operand, r.chainSink(sink), site)
		if !ok {
			return target{}, false
		}
		if t.isImport {
			sink.ImportsSymbol(scopeFQN, t.imp, site)
			return target{}, false
		}
		return r.resolveMember(fi, global, scopeFQN, t, e.Name, sink, site)

	case parse.ExprReceiverlessCall:
		return r.resolveReceiverless(fi, global, scopeFQN, e.Name, sink, site)

	case parse.ExprConstructorCall:
		return r.resolveConstructorCall(fi, global, scopeFQN, e.TypeName, sink, site)

	case parse.ExprThis:
		return r.resolveThis(fi, scopeFQN)

	case parse.ExprSuper:
		return r.resolveSuper(fi, global, scopeFQN)

	case parse.ExprConditional:
		return r.resolveConditional(fi, global, scopeFQN, e, sink, site)

	default:
		return target{}, false
	}
}

// resolveConditional resolves every ternary branch and merges the branch
// types into their least common ancestor (spec.md §4.3).
func (r *Resolver) resolveConditional(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, e *parse.Expr, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	var branchFQNs []string
	var last target
	var lastOk bool
	for _, branch := range e.Branches {
		last, lastOk = r.resolveExpr(fi, global, scopeFQN, branch, sink, site)
		if lastOk && !last.isImport {
			branchFQNs = append(branchFQNs, last.fqn)
		}
	}
	if len(branchFQNs) <= 1 {
		return last, lastOk
	}
	classOf := func(name string) (string, bool) {
		t, ok := r.resolveTypeName(fi, global, scopeFQN, name)
		if !ok || t.isImport {
			return "", false
		}
		return t.fqn, true
	}
	lca, ok := index.LeastCommonAncestor(global, branchFQNs, classOf)
	if !ok {
		return target{}, false
	}
	return defTarget(lastSegment(lca), lca), true
}

func (r *Resolver) resolveIdentifier(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name string, refRange graph.Range, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	if b, ok := fi.LookupIdentifier(scopeFQN, name, refRange); ok {
		if b.DeclaredType != "" {
			if t, ok := r.resolveTypeName(fi, global, scopeFQN, b.DeclaredType); ok {
				sink.Calls(scopeFQN, t.fqn, site)
				return t, true
			}
		}
		if b.Initializer != nil {
			return r.resolveExpr(fi, global, scopeFQN, b.Initializer, sink, site)
		}
	}

	if imp, ok := fi.ImportedNames[name]; ok {
		if def, ok := global.Lookup(imp.ImportPath); ok {
			t := defTarget(def.Name, def.FQN)
			sink.Calls(scopeFQN, t.fqn, site)
			return t, true
		}
		sink.ImportsSymbol(scopeFQN, imp, site)
		return impTarget(imp), true
	}

	for wildcard := range fi.WildcardImports {
		candidate := wildcard + "." + name
		if def, ok := global.Lookup(candidate); ok {
			t := defTarget(def.Name, def.FQN)
			sink.Calls(scopeFQN, t.fqn, site)
			return t, true
		}
	}

	if fi.Package != "" {
		if def, ok := global.Lookup(fi.Package + "." + name); ok {
			t := defTarget(def.Name, def.FQN)
			sink.Calls(scopeFQN, t.fqn, site)
			return t, true
		}
	}
	return target{}, false
}

func (r *Resolver) resolveTypeName(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, typeName string) (target, bool) {
	head := strings.SplitN(typeName, ".", 2)[0]
	if classFQN, ok := enclosingClass(fi, scopeFQN); ok {
		if candidate := classFQN + "." + head; fi.Classes[candidate] != nil {
			return defTarget(head, candidate), true
		}
	}
	if fi.Package != "" {
		if def, ok := global.Lookup(fi.Package + "." + head); ok {
			return defTarget(def.Name, def.FQN), true
		}
	}
	if imp, ok := fi.ImportedNames[head]; ok {
		if def, ok := global.Lookup(imp.ImportPath); ok {
			return defTarget(def.Name, def.FQN), true
		}
		return impTarget(imp), true
	}
	return target{}, false
}

func (r *Resolver) resolveMember(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, t target, member string, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	ownerFI, ok := ownerFile(global, t.fqn)
	if !ok {
		return target{}, false
	}
	class, ok := ownerFI.Classes[t.fqn]
	if !ok {
		return target{}, false
	}
	res, ok := resolveMemberInHierarchy(global, ownerFI, class, member, map[string]bool{})
	if ok {
		sink.Calls(scopeFQN, res.fqn, site)
	}
	return res, ok
}

func resolveMemberInHierarchy(global *index.GlobalIndex, fi *index.FileIndex, class *parse.ClassInfo, member string, visited map[string]bool) (target, bool) {
	if visited[class.FQN] {
		return target{}, false
	}
	visited[class.FQN] = true

	memberFQN := class.FQN + "." + member
	if b, ok := fi.Bindings[memberFQN]; ok {
		return defTarget(b.Name, memberFQN), true
	}
	if scope, ok := fi.Scopes[class.FQN]; ok {
		if b, ok := scope.Defs.Unique[member]; ok {
			return defTarget(member, class.FQN+"."+b.Name), true
		}
	}
	for _, superName := range class.SuperTypes {
		head := strings.SplitN(superName, ".", 2)[0]
		var superFI *index.FileIndex
		var superClass *parse.ClassInfo
		if parent, ok := fi.ParentScope[class.FQN]; ok {
			if c, ok := fi.Classes[parent+"."+head]; ok {
				superFI, superClass = fi, c
			}
		}
		if superClass == nil {
			if def, ok := global.Lookup(fi.Package + "." + head); ok {
				if f, ok := global.File(def.Primary.FilePath); ok {
					if c, ok := f.Classes[def.FQN]; ok {
						superFI, superClass = f, c
					}
				}
			}
		}
		if superClass == nil {
			continue
		}
		if t, ok := resolveMemberInHierarchy(global, superFI, superClass, member, visited); ok {
			return t, true
		}
	}
	return target{}, false
}

func (r *Resolver) resolveReceiverless(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name string, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	if classFQN, ok := enclosingClass(fi, scopeFQN); ok {
		if class, ok := fi.Classes[classFQN]; ok {
			if res, ok := resolveMemberInHierarchy(global, fi, class, name, map[string]bool{}); ok {
				sink.Calls(scopeFQN, res.fqn, site)
				return res, true
			}
		}
	}
	if fi.Package != "" {
		if def, ok := global.Lookup(fi.Package + "." + name); ok {
			t := defTarget(def.Name, def.FQN)
			sink.Calls(scopeFQN, t.fqn, site)
			return t, true
		}
	}
	return registryFallback(fi, global, scopeFQN, name, sink, site)
}

// registryFallback is the last-resort receiverless lookup against the
// per-name function registry (spec.md §4.3 "Receiverless call"). A
// candidate is accepted only when its enclosing type is visible through
// this file's imports -- a plausible receiver -- otherwise the reference
// is dropped rather than matched to an arbitrary same-named function.
func registryFallback(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name string, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	for _, def := range global.FunctionsNamed(name) {
		parent, ok := index.ParentFQN(def.FQN)
		if !ok || !importedType(fi, parent) {
			continue
		}
		sink.Calls(scopeFQN, def.FQN, site)
		return defTarget(def.Name, def.FQN), true
	}
	return target{}, false
}

func importedType(fi *index.FileIndex, typeFQN string) bool {
	for _, imp := range fi.ImportedNames {
		if imp.ImportPath == typeFQN {
			return true
		}
	}
	if pkg, ok := index.ParentFQN(typeFQN); ok && fi.WildcardImports[pkg] {
		return true
	}
	return false
}

func (r *Resolver) resolveConstructorCall(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, typeName string, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	t, ok := r.resolveTypeName(fi, global, scopeFQN, typeName)
	if !ok {
		return target{}, false
	}
	if t.isImport {
		sink.ImportsSymbol(scopeFQN, t.imp, site)
		return target{}, false
	}
	if ownerFI, ok := ownerFile(global, t.fqn); ok {
		ctorFQN := t.fqn + ".constructor"
		if _, ok := ownerFI.Bindings[ctorFQN]; ok {
			sink.Calls(scopeFQN, ctorFQN, site)
			return t, true
		}
	}
	sink.Calls(scopeFQN, t.fqn, site)
	return t, true
}

func (r *Resolver) resolveThis(fi *index.FileIndex, scopeFQN string) (target, bool) {
	classFQN, ok := enclosingClass(fi, scopeFQN)
	if !ok {
		return target{}, false
	}
	class, ok := fi.Classes[classFQN]
	if !ok {
		return target{}, false
	}
	return defTarget(class.SimpleName, class.FQN), true
}

func (r *Resolver) resolveSuper(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string) (target, bool) {
	classFQN, ok := enclosingClass(fi, scopeFQN)
	if !ok {
		return target{}, false
	}
	class, ok := fi.Classes[classFQN]
	if !ok || len(class.SuperTypes) == 0 {
		return target{}, false
	}
	head := strings.SplitN(class.SuperTypes[0], ".", 2)[0]
	if def, ok := global.Lookup(fi.Package + "." + head); ok {
		return defTarget(def.Name, def.FQN), true
	}
	return target{}, false
}

func ownerFile(global *index.GlobalIndex, fqn string) (*index.FileIndex, bool) {
	def, ok := global.Lookup(fqn)
	if !ok {
		return nil, false
	}
	return global.File(def.Primary.FilePath)
}

func enclosingClass(fi *index.FileIndex, scopeFQN string) (string, bool) {
	fqn := scopeFQN
	for {
		if _, ok := fi.Classes[fqn]; ok {
			return fqn, true
		}
		parent, ok := fi.ParentScope[fqn]
		if !ok {
			return "", false
		}
		fqn = parent
	}
}

func lastSegment(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return fqn
	}
	return fqn[idx+1:]
}
