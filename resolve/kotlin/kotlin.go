// Package kotlin resolves Kotlin expression references, grounded on
// original_source/crates/indexer/src/analysis/languages/kotlin/expression_resolver.rs.
// Kotlin's resolution rules are a superset of Java's (same class/field/
// method-call/constructor/this/super machinery) plus two features Java
// doesn't have: companion objects (an implicit nested scope checked
// before falling through to inherited members) and extension functions/
// fields (free functions that attach to a receiver type named in their
// own declaration rather than being nested in it). Extension members are
// indexed under a synthetic scope FQN of "<ReceiverType>+ext", which the
// per-file indexer registers as an ScopeExtensionReceiver scope when it
// sees an extension declaration (spec.md §4.1 "Scope hierarchy" note on
// ExtensionReceiver).
package kotlin

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

func (r *Resolver) Language() graph.Language { return graph.LanguageKotlin }

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
	guard := index.NewReturnTypeGuard()
	r.resolveExpr(file, global, ref.EnclosingScope, ref.Expr, sink, site, guard)
}

func (r *Resolver) chainSink(sink graph.Sink) graph.Sink {
	if r.EmitChainEdges {
		return sink
	}
	return graph.NopSink{}
}

func (r *Resolver) resolveExpr(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, e *parse.Expr, sink graph.Sink, site graph.SourceLocation, guard *index.ReturnTypeGuard) (target, bool) {
	if e == nil {
		return target{}, false
	}
	switch e.Kind {
	case parse.ExprIdentifier:
		return r.resolveIdentifier(fi, global, scopeFQN, e.Name, e.Range, sink, site, guard)

	case parse.ExprFieldAccess:
		t, ok := r.resolveExpr(fi, global, scopeFQN, e.Operand, r.chainSink(sink), site, guard)
		if !ok {
			return target{}, false
		}
		if t.isImport {
			sink.ImportsSymbol(scopeFQN, t.imp, site)
			return target{}, false
		}
		return r.resolveMember(fi, global, scopeFQN, t, e.Name, sink, site, guard, true)

	case parse.ExprMethodCall:
		t, ok := r.resolveExpr(fi, global, scopeFQN, e.Operand, r.chainSink(sink), site, guard)
		if !ok {
			return target{}, false
		}
		if t.isImport {
			sink.ImportsSymbol(scopeFQN, t.imp, site)
			return target{}, false
		}
		return r.resolveMember(fi, global, scopeFQN, t, e.Name, sink, site, guard, false)

	case parse.ExprReceiverlessCall:
		return r.resolveClassMethodCall(fi, global, scopeFQN, e.Name, sink, site, guard)

	case parse.ExprConstructorCall:
		return r.resolveConstructorCall(fi, global, scopeFQN, e.TypeName, sink, site)

	case parse.ExprThis:
		return r.resolveSelf(fi, scopeFQN, e.Name)

	case parse.ExprSuper:
		return r.resolveSuper(fi, global, scopeFQN)

	case parse.ExprConditional:
		return r.resolveConditional(fi, global, scopeFQN, e, sink, site, guard)

	case parse.ExprBinaryOp:
		return r.resolveOperator(fi, global, scopeFQN, e, binaryOperatorMethods, sink, site, guard)

	case parse.ExprUnaryOp:
		return r.resolveOperator(fi, global, scopeFQN, e, unaryOperatorMethods, sink, site, guard)

	default:
		// literals and Unit contribute no edges and no type.
		return target{}, false
	}
}

// binaryOperatorMethods maps an operator token to the convention method
// Kotlin dispatches it to (spec.md §4.3 "Binary / unary operators").
var binaryOperatorMethods = map[string]string{
	"+":  "plus",
	"-":  "minus",
	"*":  "times",
	"/":  "div",
	"%":  "rem",
	"..": "rangeTo",
	"in": "contains",
	"==": "equals",
	"<":  "compareTo",
	">":  "compareTo",
	"<=": "compareTo",
	">=": "compareTo",
}

var unaryOperatorMethods = map[string]string{
	"+":  "unaryPlus",
	"-":  "unaryMinus",
	"!":  "not",
	"++": "inc",
	"--": "dec",
}

// resolveOperator treats an operator expression as a method call on the
// left (or only) operand's type.
func (r *Resolver) resolveOperator(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, e *parse.Expr, methods map[string]string, sink graph.Sink, site graph.SourceLocation, guard *index.ReturnTypeGuard) (target, bool) {
	method, ok := methods[e.Operator]
	if !ok {
		return target{}, false
	}
	t, ok := r.resolveExpr(fi, global, scopeFQN, e.Operand, r.chainSink(sink), site, guard)
	if !ok || t.isImport {
		return target{}, false
	}
	return r.resolveMember(fi, global, scopeFQN, t, method, sink, site, guard, false)
}

// resolveConditional resolves every when/try/if branch and merges the
// branch types into their least common ancestor (spec.md §4.3).
func (r *Resolver) resolveConditional(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, e *parse.Expr, sink graph.Sink, site graph.SourceLocation, guard *index.ReturnTypeGuard) (target, bool) {
	var branchFQNs []string
	var last target
	var lastOk bool
	for _, branch := range e.Branches {
		last, lastOk = r.resolveExpr(fi, global, scopeFQN, branch, sink, site, guard)
		if lastOk && !last.isImport {
			branchFQNs = append(branchFQNs, last.fqn)
		}
	}
	if len(branchFQNs) <= 1 {
		return last, lastOk
	}
	classOf := func(name string) (string, bool) {
		def, ok := global.Lookup(name)
		if !ok {
			return "", false
		}
		return def.FQN, true
	}
	lca, ok := index.LeastCommonAncestor(global, branchFQNs, classOf)
	if !ok {
		return target{}, false
	}
	return defTarget(lastPart(lca), lca), true
}

func (r *Resolver) resolveIdentifier(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name string, refRange graph.Range, sink graph.Sink, site graph.SourceLocation, guard *index.ReturnTypeGuard) (target, bool) {
	if imp, ok := fi.ImportedNames[name]; ok {
		if def, ok := global.Lookup(imp.ImportPath); ok {
			sink.Calls(scopeFQN, def.FQN, site)
			return defTarget(def.Name, def.FQN), true
		}
		sink.ImportsSymbol(scopeFQN, imp, site)
		return impTarget(imp), true
	}
	if b, ok := fi.LookupIdentifier(scopeFQN, name, refRange); ok {
		if b.DeclaredType != "" {
			if def, ok := global.Lookup(b.DeclaredType); ok {
				sink.Calls(scopeFQN, def.FQN, site)
				return defTarget(def.Name, def.FQN), true
			}
		}
		if b.Initializer != nil {
			return r.resolveExpr(fi, global, scopeFQN, b.Initializer, sink, site, guard)
		}
	}
	return target{}, false
}

// resolveMember resolves a.b (wantsField=true) or a.b(...) (wantsField=false)
// against the target's own class, its companion object, then its
// ancestor chain -- and, when nothing matches there, against extension
// members declared anywhere against the target's type. For a method call
// the result propagated down the chain is the method's return type: a
// declared return type wins; an expression-body function's type is
// inferred by resolving its initializer under the per-reference cycle
// guard (spec.md §4.3 "Method call", "Cycle safety").
func (r *Resolver) resolveMember(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, t target, member string, sink graph.Sink, site graph.SourceLocation, guard *index.ReturnTypeGuard, wantsField bool) (target, bool) {
	ownerFI, ok := ownerFile(global, t.fqn)
	if !ok {
		return target{}, false
	}
	class, ok := ownerFI.Classes[t.fqn]
	if !ok {
		return target{}, false
	}
	if res, b, ok := findInClassChain(global, ownerFI, class, member, wantsField); ok {
		sink.Calls(scopeFQN, res.fqn, site)
		if wantsField {
			return res, true
		}
		return r.inferResult(global, res, b, site, guard)
	}
	if res, ok := resolveExtension(global, t.fqn, member); ok {
		sink.Calls(scopeFQN, res.fqn, site)
		return r.inferResult(global, res, bindingFor(global, res.fqn), site, guard)
	}
	return target{}, false
}

// inferResult turns a resolved method into the type its call evaluates
// to. On a cycle (a function whose body's type depends on itself) the
// guard declines the recursion and the call contributes no type.
func (r *Resolver) inferResult(global *index.GlobalIndex, method target, b *parse.Binding, site graph.SourceLocation, guard *index.ReturnTypeGuard) (target, bool) {
	if b == nil {
		return method, true
	}
	if b.DeclaredType != "" {
		if def, ok := global.Lookup(b.DeclaredType); ok {
			return defTarget(def.Name, def.FQN), true
		}
		return method, true
	}
	if b.Initializer == nil {
		return method, true
	}
	if guard.Enter(method.fqn) {
		return target{}, false
	}
	defer guard.Exit(method.fqn)

	methodFI, ok := ownerFile(global, method.fqn)
	if !ok {
		return method, true
	}
	// the body is walked for its type only; its own calls were already
	// attributed when the method's file was resolved.
	return r.resolveExpr(methodFI, global, method.fqn, b.Initializer, graph.NopSink{}, site, guard)
}

func bindingFor(global *index.GlobalIndex, fqn string) *parse.Binding {
	fi, ok := ownerFile(global, fqn)
	if !ok {
		return nil
	}
	return fi.Bindings[fqn]
}

func findInClassChain(global *index.GlobalIndex, fi *index.FileIndex, class *parse.ClassInfo, member string, wantsField bool) (target, *parse.Binding, bool) {
	if class.Companion != "" {
		companionFQN := class.FQN + "." + class.Companion
		if companionClass, ok := fi.Classes[companionFQN]; ok {
			if res, b, ok := findInClassChain(global, fi, companionClass, member, wantsField); ok {
				return res, b, true
			}
		}
	}
	if wantsField {
		if scope, ok := fi.Scopes[class.FQN]; ok {
			if b, ok := scope.Defs.Unique[member]; ok && b != nil {
				return defTarget(member, class.FQN+"."+member), b, true
			}
		}
	} else {
		methodFQN := class.FQN + "." + member
		if b, ok := fi.Bindings[methodFQN]; ok {
			return defTarget(member, methodFQN), b, true
		}
	}
	for _, superName := range class.SuperTypes {
		superFI, superClass, ok := superClassOf(global, fi, class.FQN, superName)
		if !ok {
			continue
		}
		if res, b, ok := findInClassChain(global, superFI, superClass, member, wantsField); ok {
			return res, b, true
		}
	}
	return target{}, nil, false
}

// resolveExtension looks for an extension member declared against
// receiverFQN under the synthetic "<fqn>+ext" scope the per-file indexer
// registers for extension declarations.
func resolveExtension(global *index.GlobalIndex, receiverFQN, member string) (target, bool) {
	extScope := receiverFQN + "+ext"
	methodFQN := extScope + "." + member
	if def, ok := global.Lookup(methodFQN); ok {
		return defTarget(def.Name, def.FQN), true
	}
	return target{}, false
}

func (r *Resolver) resolveClassMethodCall(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name string, sink graph.Sink, site graph.SourceLocation, guard *index.ReturnTypeGuard) (target, bool) {
	if classFQN, ok := enclosingClassOrReceiver(fi, scopeFQN); ok {
		if class, ok := fi.Classes[classFQN]; ok {
			if res, b, ok := findInClassChain(global, fi, class, name, false); ok {
				sink.Calls(scopeFQN, res.fqn, site)
				return r.inferResult(global, res, b, site, guard)
			}
		} else if res, ok := resolveExtension(global, classFQN, name); ok {
			// scopeFQN might itself be an extension-receiver scope.
			sink.Calls(scopeFQN, res.fqn, site)
			return r.inferResult(global, res, bindingFor(global, res.fqn), site, guard)
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
	def, ok := global.Lookup(typeName)
	if !ok {
		if imp, ok := fi.ImportedNames[typeName]; ok {
			if def, ok := global.Lookup(imp.ImportPath); ok {
				sink.Calls(scopeFQN, def.FQN, site)
				return defTarget(def.Name, def.FQN), true
			}
			sink.ImportsSymbol(scopeFQN, imp, site)
		}
		return target{}, false
	}
	sink.Calls(scopeFQN, def.FQN, site)
	return defTarget(def.Name, def.FQN), true
}

// resolveSelf resolves `this` to the nearest enclosing class or
// extension receiver; a `this@Outer` label skips inward classes until
// the matching one.
func (r *Resolver) resolveSelf(fi *index.FileIndex, scopeFQN, label string) (target, bool) {
	fqn := scopeFQN
	for {
		if class, ok := fi.Classes[fqn]; ok {
			if label == "" || class.SimpleName == label {
				return defTarget(class.SimpleName, class.FQN), true
			}
		} else if strings.HasSuffix(fqn, "+ext") {
			receiver := strings.TrimSuffix(fqn, "+ext")
			if label == "" || lastPart(receiver) == label {
				return defTarget(lastPart(receiver), receiver), true
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
	classFQN, ok := enclosingClassOrReceiver(fi, scopeFQN)
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

func ownerFile(global *index.GlobalIndex, fqn string) (*index.FileIndex, bool) {
	def, ok := global.Lookup(fqn)
	if !ok {
		return nil, false
	}
	return global.File(def.Primary.FilePath)
}

func superClassOf(global *index.GlobalIndex, fi *index.FileIndex, classFQN, superName string) (*index.FileIndex, *parse.ClassInfo, bool) {
	def, ok := global.Lookup(superName)
	if !ok {
		return nil, nil, false
	}
	superFI, ok := ownerFile(global, def.FQN)
	if !ok {
		return nil, nil, false
	}
	superClass, ok := superFI.Classes[def.FQN]
	return superFI, superClass, ok
}

func enclosingClassOrReceiver(fi *index.FileIndex, scopeFQN string) (string, bool) {
	fqn := scopeFQN
	for {
		if _, ok := fi.Classes[fqn]; ok {
			return fqn, true
		}
		if strings.HasSuffix(fqn, "+ext") {
			return strings.TrimSuffix(fqn, "+ext"), true
		}
		parent, ok := fi.ParentScope[fqn]
		if !ok {
			return "", false
		}
		fqn = parent
	}
}

func lastPart(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return fqn
	}
	return fqn[idx+1:]
}
