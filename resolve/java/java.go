// Package java resolves Java expression references to definitions or
// imported symbols (spec.md §4.3 "Java"), grounded on
// original_source/crates/indexer/src/analysis/languages/java/expression_resolver.rs.
package java

import (
	"strings"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

// Resolver resolves Java references. It holds no per-file state of its
// own -- unlike the Rust original, which owns its own
// files/definition_nodes maps, the Go pipeline keeps that state in
// index.FileIndex/index.GlobalIndex and passes them in per call.
type Resolver struct {
	// EmitChainEdges controls whether intermediate resolutions in a member
	// chain (a.b.c()) each produce their own edge, or only the terminal
	// call does.
	EmitChainEdges bool
}

// New returns a Java resolver with chain-edge emission on.
func New() *Resolver { return &Resolver{EmitChainEdges: true} }

func (r *Resolver) Language() graph.Language { return graph.LanguageJava }

// target is the Java analogue of the Rust ResolvedType enum: either a
// definition (name+fqn) or a reference to a textual import site.
type target struct {
	isImport bool
	name     string
	fqn      string
	imp      *graph.ImportedSymbolNode // the import site, when isImport
}

func defTarget(name, fqn string) target              { return target{name: name, fqn: fqn} }
func impTarget(imp *graph.ImportedSymbolNode) target { return target{isImport: true, imp: imp} }

// Resolve walks ref.Expr and emits CALLS and imports-symbol relationships
// into sink.
func (r *Resolver) Resolve(file *index.FileIndex, global *index.GlobalIndex, ref *parse.Reference, sink graph.Sink) {
	site := graph.SourceLocation{FilePath: file.Path, Range: ref.Range}
	r.resolveExpr(file, global, ref.EnclosingScope, ref.Expr, sink, site)
}

// chainSink is the sink used for a chain's non-terminal links: the real
// sink when chain edges are on, a discard otherwise.
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
		return r.resolveFieldAccess(fi, global, scopeFQN, t, e.Name, sink, site)

	case parse.ExprMethodCall:
		t, ok := r.resolveExpr(fi, global, scopeFQN, e.Operand, r.chainSink(sink), site)
		if !ok {
			return target{}, false
		}
		if t.isImport {
			sink.ImportsSymbol(scopeFQN, t.imp, site)
			return target{}, false
		}
		return r.resolveMethodCall(fi, global, scopeFQN, t, e.Name, sink, site)

	case parse.ExprReceiverlessCall:
		return r.resolveClassMethodCall(fi, global, scopeFQN, e.Name, sink, site)

	case parse.ExprConstructorCall:
		return r.resolveConstructorCall(fi, global, scopeFQN, e.TypeName, sink, site)

	case parse.ExprThis:
		return r.resolveThis(fi, scopeFQN, e.Name)

	case parse.ExprSuper:
		return r.resolveSuper(fi, global, scopeFQN)

	case parse.ExprConditional:
		return r.resolveConditional(fi, global, scopeFQN, e, sink, site)

	default:
		return target{}, false
	}
}

// resolveConditional resolves every branch and merges the branch types
// into their least common ancestor (spec.md §4.3 "Conditional / ternary /
// when / try expressions").
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
		t, ok := r.resolveType(fi, global, scopeFQN, name)
		if !ok || t.isImport {
			return "", false
		}
		return t.fqn, true
	}
	lca, ok := index.LeastCommonAncestor(global, branchFQNs, classOf)
	if !ok {
		return target{}, false
	}
	return defTarget(lastPart(lca), lca), true
}

func emit(sink graph.Sink, scopeFQN string, t target, site graph.SourceLocation) {
	if t.isImport {
		sink.ImportsSymbol(scopeFQN, t.imp, site)
		return
	}
	sink.Calls(scopeFQN, t.fqn, site)
}

func (r *Resolver) resolveIdentifier(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name string, refRange graph.Range, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	if imp, ok := fi.ImportedNames[name]; ok {
		if def, ok := global.Lookup(imp.ImportPath); ok {
			if _, isClass := classOf(global, def.FQN); isClass {
				t := defTarget(def.Name, def.FQN)
				sink.Calls(scopeFQN, t.fqn, site)
				return t, true
			}
			if def.Kind == graph.DefinitionEnumConstant {
				parent, _ := parentFQN(def.FQN)
				t := defTarget(lastPart(parent), parent)
				sink.Calls(scopeFQN, t.fqn, site)
				return t, true
			}
		}
		sink.ImportsSymbol(scopeFQN, imp, site)
		return impTarget(imp), true
	}

	for wildcard := range fi.WildcardImports {
		potential := wildcard + "." + name
		if def, ok := global.Lookup(potential); ok {
			if _, isClass := classOf(global, def.FQN); isClass {
				t := defTarget(def.Name, def.FQN)
				sink.Calls(scopeFQN, t.fqn, site)
				return t, true
			}
		}
	}

	if fi.Package != "" {
		potential := fi.Package + "." + name
		if def, ok := global.Lookup(potential); ok {
			if _, isClass := classOf(global, def.FQN); isClass {
				t := defTarget(def.Name, def.FQN)
				sink.Calls(scopeFQN, t.fqn, site)
				return t, true
			}
		}
	}

	return r.resolveIdentifierType(fi, global, scopeFQN, name, refRange, sink, site)
}

func (r *Resolver) resolveIdentifierType(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name string, refRange graph.Range, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	b, ok := fi.LookupIdentifier(scopeFQN, name, refRange)
	if !ok {
		return target{}, false
	}
	if b.DeclaredType != "" {
		t, ok := r.resolveType(fi, global, scopeFQN, b.DeclaredType)
		if ok {
			emit(sink, scopeFQN, t, site)
		}
		return t, ok
	}
	if b.Initializer != nil {
		return r.resolveExpr(fi, global, scopeFQN, b.Initializer, sink, site)
	}
	return target{}, false
}

func (r *Resolver) resolveFieldAccess(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, t target, member string, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	ownerFI, ok := ownerFile(global, t.fqn)
	if !ok {
		return target{}, false
	}
	potentialClass := t.fqn + "." + member
	if class, ok := ownerFI.Classes[potentialClass]; ok {
		res := defTarget(class.SimpleName, class.FQN)
		sink.Calls(scopeFQN, res.fqn, site)
		return res, true
	}

	class, ok := ownerFI.Classes[t.fqn]
	if !ok {
		return target{}, false
	}
	res, ok := resolveFieldInHierarchy(global, ownerFI, class, member)
	if ok {
		sink.Calls(scopeFQN, res.fqn, site)
	}
	return res, ok
}

func resolveFieldInHierarchy(global *index.GlobalIndex, fi *index.FileIndex, class *parse.ClassInfo, member string) (target, bool) {
	if scope, ok := fi.Scopes[class.FQN]; ok {
		if b, ok := scope.Defs.Unique[member]; ok && b.DeclaredType != "" {
			if t, ok := resolveTypeInClass(global, fi, class.FQN, b.DeclaredType); ok {
				return t, true
			}
		}
	}
	for _, superName := range class.SuperTypes {
		superFI, superClass, ok := superClassOf(global, fi, class.FQN, superName)
		if !ok {
			continue
		}
		if t, ok := resolveFieldInHierarchy(global, superFI, superClass, member); ok {
			return t, true
		}
	}
	return target{}, false
}

func (r *Resolver) resolveMethodCall(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, t target, member string, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	ownerFI, ok := ownerFile(global, t.fqn)
	if !ok {
		return target{}, false
	}
	class, ok := ownerFI.Classes[t.fqn]
	if !ok {
		return target{}, false
	}
	res, ok := resolveMethodInHierarchy(global, ownerFI, class, member, sink, scopeFQN, site)
	return res, ok
}

func resolveMethodInHierarchy(global *index.GlobalIndex, fi *index.FileIndex, class *parse.ClassInfo, member string, sink graph.Sink, scopeFQN string, site graph.SourceLocation) (target, bool) {
	methodFQN := class.FQN + "." + member
	if b, ok := fi.Bindings[methodFQN]; ok {
		sink.Calls(scopeFQN, methodFQN, site)
		if b.DeclaredType != "" {
			if t, ok := resolveTypeInClass(global, fi, class.FQN, b.DeclaredType); ok {
				return t, true
			}
		}
		return defTarget(b.Name, methodFQN), true
	}
	for _, superName := range class.SuperTypes {
		superFI, superClass, ok := superClassOf(global, fi, class.FQN, superName)
		if !ok {
			continue
		}
		if t, ok := resolveMethodInHierarchy(global, superFI, superClass, member, sink, scopeFQN, site); ok {
			return t, true
		}
	}
	return target{}, false
}

func (r *Resolver) resolveClassMethodCall(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name string, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	if classFQN, ok := enclosingClass(fi, scopeFQN); ok {
		if class, ok := fi.Classes[classFQN]; ok {
			if t, ok := resolveMethodInHierarchy(global, fi, class, name, sink, scopeFQN, site); ok {
				return t, true
			}
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
		parent, ok := parentFQN(def.FQN)
		if !ok || !importedType(fi, parent) {
			continue
		}
		sink.Calls(scopeFQN, def.FQN, site)
		return defTarget(def.Name, def.FQN), true
	}
	return target{}, false
}

// importedType reports whether typeFQN is reachable through the file's
// imports: named directly by an import, or living in a
// wildcard-imported package.
func importedType(fi *index.FileIndex, typeFQN string) bool {
	for _, imp := range fi.ImportedNames {
		if imp.ImportPath == typeFQN {
			return true
		}
	}
	if pkg, ok := parentFQN(typeFQN); ok && fi.WildcardImports[pkg] {
		return true
	}
	return false
}

// resolveThis resolves `this` to the nearest enclosing class, or, for a
// qualified `Outer.this`, to the first enclosing class whose simple name
// matches the label.
func (r *Resolver) resolveThis(fi *index.FileIndex, scopeFQN, label string) (target, bool) {
	fqn := scopeFQN
	for {
		if class, ok := fi.Classes[fqn]; ok {
			if label == "" || class.SimpleName == label {
				return defTarget(class.SimpleName, class.FQN), true
			}
		}
		parent, ok := fi.ParentScope[fqn]
		if !ok {
			return target{}, false
		}
		fqn = parent
	}
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
	_, superClass, ok := superClassOf(global, fi, classFQN, class.SuperTypes[0])
	if !ok {
		return target{}, false
	}
	return defTarget(superClass.SimpleName, superClass.FQN), true
}

func (r *Resolver) resolveConstructorCall(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, typeName string, sink graph.Sink, site graph.SourceLocation) (target, bool) {
	t, ok := r.resolveType(fi, global, scopeFQN, typeName)
	if !ok {
		return target{}, false
	}
	if t.isImport {
		sink.ImportsSymbol(scopeFQN, t.imp, site)
		return target{}, false
	}
	ctorFQN := t.fqn + "." + t.name
	if ownerFI, ok := ownerFile(global, t.fqn); ok {
		if _, ok := ownerFI.Bindings[ctorFQN]; ok {
			sink.Calls(scopeFQN, ctorFQN, site)
			return t, true
		}
	}
	sink.Calls(scopeFQN, t.fqn, site)
	return t, true
}

// resolveType implements the Rust resolve_type's lowercase-is-FQN /
// uppercase-is-class-name split, plus the enclosing-scope-chain search
// for a nested type name.
func (r *Resolver) resolveType(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, typeName string) (target, bool) {
	if typeName == "" {
		return target{}, false
	}
	if isLower(typeName[0]) {
		if def, ok := global.Lookup(typeName); ok {
			return defTarget(def.Name, def.FQN), true
		}
		return target{}, false
	}
	if classFQN, ok := enclosingClass(fi, scopeFQN); ok {
		if t, ok := resolveTypeInClass(global, fi, classFQN, typeName); ok {
			return t, true
		}
	}
	return r.resolveClassName(fi, global, typeName)
}

func resolveTypeInClass(global *index.GlobalIndex, fi *index.FileIndex, classFQN, typeName string) (target, bool) {
	part := strings.SplitN(typeName, ".", 2)[0]
	parent, ok := fi.ParentScope[classFQN]
	for ok {
		potential := parent + "." + part
		if class, ok := fi.Classes[potential]; ok {
			return defTarget(class.SimpleName, class.FQN), true
		}
		parent, ok = fi.ParentScope[parent]
	}
	return target{}, false
}

// resolveClassName walks: same-file class, imported symbol, wildcard
// imports, then same-package files -- each narrowing to a candidate file
// whose Classes map is checked for the fully dotted type name prefixed by
// its package.
func (r *Resolver) resolveClassName(fi *index.FileIndex, global *index.GlobalIndex, typeName string) (target, bool) {
	parts := strings.SplitN(typeName, ".", 2)
	head := parts[0]

	var ownerFI *index.FileIndex
	potential := fi.Package + "." + head
	if _, ok := fi.Classes[potential]; ok {
		ownerFI = fi
	}

	if imp, ok := fi.ImportedNames[head]; ok {
		if def, ok := global.Lookup(imp.ImportPath); ok {
			if f, ok := global.File(def.Primary.FilePath); ok {
				ownerFI = f
			}
		} else {
			return impTarget(imp), true
		}
	}

	if ownerFI == nil {
		for wildcard := range fi.WildcardImports {
			candidate := wildcard + "." + head
			if def, ok := global.Lookup(candidate); ok {
				if f, ok := global.File(def.Primary.FilePath); ok {
					ownerFI = f
					break
				}
			}
		}
	}

	if ownerFI == nil {
		candidate := fi.Package + "." + head
		if def, ok := global.Lookup(candidate); ok {
			if f, ok := global.File(def.Primary.FilePath); ok {
				ownerFI = f
			}
		}
	}

	if ownerFI == nil {
		return target{}, false
	}
	full := ownerFI.Package + "." + typeName
	if class, ok := ownerFI.Classes[full]; ok {
		return defTarget(class.SimpleName, class.FQN), true
	}
	return target{}, false
}

func classOf(global *index.GlobalIndex, fqn string) (*parse.ClassInfo, bool) {
	def, ok := global.Lookup(fqn)
	if !ok {
		return nil, false
	}
	fi, ok := global.File(def.Primary.FilePath)
	if !ok {
		return nil, false
	}
	class, ok := fi.Classes[fqn]
	return class, ok
}

func ownerFile(global *index.GlobalIndex, fqn string) (*index.FileIndex, bool) {
	def, ok := global.Lookup(fqn)
	if !ok {
		return nil, false
	}
	return global.File(def.Primary.FilePath)
}

func superClassOf(global *index.GlobalIndex, fi *index.FileIndex, classFQN, superName string) (*index.FileIndex, *parse.ClassInfo, bool) {
	t, ok := (&Resolver{}).resolveType(fi, global, classFQN, superName)
	if !ok || t.isImport {
		return nil, nil, false
	}
	superFI, ok := ownerFile(global, t.fqn)
	if !ok {
		return nil, nil, false
	}
	superClass, ok := superFI.Classes[t.fqn]
	return superFI, superClass, ok
}

// enclosingClass walks scopeFQN's ancestor chain looking for the nearest
// scope that is itself a class (has a Classes entry).
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

func parentFQN(fqn string) (string, bool) {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return "", false
	}
	return fqn[:idx], true
}

func lastPart(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return fqn
	}
	return fqn[idx+1:]
}

func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
