// Package ruby resolves Ruby expression references, grounded on
// original_source/crates/indexer/src/analysis/languages/ruby/{expression_resolver,scope_resolver}.rs.
// Ruby name lookup has no static type system to lean on, so this
// resolver leans on the same heuristics the original does: local types
// taken from the declared types of bindings already recorded in the file
// index (this resolver does not itself process assignments), the
// "@instance_var -> ClassName" snake_case-to-PascalCase
// guess for untyped instance variables, and a small filtered set of
// framework method names that are never worth turning into edges.
package ruby

import (
	"strings"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

// frameworkMethods is the built-in version-1 set of common
// Rails/ActiveRecord method names filtered out of CALLS edges to reduce
// noise (spec.md §4.3 "Ruby specifics"); kept as a small versioned set
// rather than a heuristic on the receiver alone, since the receiver type
// is frequently unknown in Ruby. The factory can swap in a different set
// from the resolver policy.
var frameworkMethods = map[string]bool{
	"present?": true, "blank?": true, "nil?": true, "respond_to?": true,
	"send": true, "instance_eval": true, "class_eval": true, "define_method": true,
	"attr_reader": true, "attr_writer": true, "attr_accessor": true,
	"validates": true, "belongs_to": true, "has_many": true, "has_one": true,
	"before_action": true, "after_action": true, "render": true, "redirect_to": true,
	"params": true, "request": true, "response": true, "session": true,
}

type Resolver struct {
	filtered map[string]bool
}

func New() *Resolver { return &Resolver{filtered: frameworkMethods} }

// SetFilteredMethods replaces the built-in framework-method filter with
// an explicit set (the versioned list from the resolver policy).
func (r *Resolver) SetFilteredMethods(names []string) {
	filtered := make(map[string]bool, len(names))
	for _, name := range names {
		filtered[name] = true
	}
	r.filtered = filtered
}

func (r *Resolver) Language() graph.Language { return graph.LanguageRuby }

func (r *Resolver) Resolve(file *index.FileIndex, global *index.GlobalIndex, ref *parse.Reference, sink graph.Sink) {
	site := graph.SourceLocation{FilePath: file.Path, Range: ref.Range}
	var receiverType string
	r.resolveChain(file, global, ref.EnclosingScope, ref.Expr, &receiverType, site, sink)
}

// resolveChain walks one expression, carrying the inferred receiver type
// of the preceding symbol forward, mirroring resolve_symbol_chain's
// sequential current_type threading. It reports false when the chain hit
// an operand it could not type (an unguessable instance variable, an
// unknown constructor class) -- the rest of the chain is then abandoned
// rather than mis-resolved against the current scope.
func (r *Resolver) resolveChain(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN string, e *parse.Expr, receiverType *string, site graph.SourceLocation, sink graph.Sink) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case parse.ExprFieldAccess, parse.ExprMethodCall:
		if !r.resolveChain(fi, global, scopeFQN, e.Operand, receiverType, site, sink) {
			return false
		}
		r.resolveSymbol(fi, global, scopeFQN, e.Name, *receiverType, site, sink)
		*receiverType = ""
		return true

	case parse.ExprIdentifier:
		if strings.HasPrefix(e.Name, "@") {
			t, ok := r.instanceVariableType(fi, global, scopeFQN, e.Name)
			if ok {
				*receiverType = t
			}
			return ok
		}
		if t, ok := r.localType(fi, scopeFQN, e.Name, e.Range); ok {
			*receiverType = t
			return true
		}
		r.resolveSymbol(fi, global, scopeFQN, e.Name, *receiverType, site, sink)
		return true

	case parse.ExprConstructorCall:
		def, ok := findClass(global, e.TypeName)
		if ok {
			*receiverType = def.FQN
		}
		return ok

	case parse.ExprReceiverlessCall:
		if e.Name == "new" && *receiverType != "" {
			// handled at the FieldAccess level above; a bare receiverless
			// "new" with no preceding receiver can't be inferred.
			return true
		}
		r.resolveSymbol(fi, global, scopeFQN, e.Name, "", site, sink)
		return true

	default:
		return false
	}
}

// instanceVariableType infers an instance variable's type: an
// assignment-seeded binding wins; otherwise the snake_case-to-PascalCase
// class guess, accepted only when such a class actually exists in the
// project (spec.md §4.3 "Ruby specifics").
func (r *Resolver) instanceVariableType(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, varName string) (string, bool) {
	if t, ok := r.localType(fi, scopeFQN, varName, graph.Range{}); ok {
		return t, true
	}
	guessed := guessClassFromInstanceVariable(varName)
	if guessed == "" {
		return "", false
	}
	def, ok := findClass(global, guessed)
	if !ok {
		return "", false
	}
	return def.FQN, true
}

func (r *Resolver) resolveSymbol(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, name, receiverType string, site graph.SourceLocation, sink graph.Sink) {
	if r.filtered[name] {
		return
	}

	var target *graph.DefinitionNode
	if receiverType != "" {
		if name == "new" {
			if def, ok := global.Lookup(receiverType); ok {
				target = def
			}
		} else if def, ok := instanceMethod(global, receiverType, name); ok {
			target = def
		} else if def, ok := singletonMethod(global, receiverType, name); ok {
			target = def
		}
	} else {
		target = resolveOnCurrentScope(fi, global, scopeFQN, name)
	}

	if target == nil {
		return
	}
	if calling, ok := global.Lookup(scopeFQN); !ok || (calling.Kind != graph.DefinitionMethod) {
		return
	}
	sink.Calls(scopeFQN, target.FQN, site)
}

func (r *Resolver) localType(fi *index.FileIndex, scopeFQN, name string, refRange graph.Range) (string, bool) {
	b, ok := fi.LookupIdentifier(scopeFQN, name, refRange)
	if !ok || b.DeclaredType == "" {
		return "", false
	}
	return b.DeclaredType, true
}

func resolveOnCurrentScope(fi *index.FileIndex, global *index.GlobalIndex, scopeFQN, method string) *graph.DefinitionNode {
	if hash := strings.Index(scopeFQN, "#"); hash >= 0 {
		class := scopeFQN[:hash]
		if def, ok := instanceMethod(global, class, method); ok {
			return def
		}
		return nil
	}
	if strings.Contains(scopeFQN, "::") {
		class := strings.SplitN(scopeFQN, "::", 2)[0]
		if def, ok := singletonMethod(global, class, method); ok {
			return def
		}
		return nil
	}
	if def, ok := singletonMethod(global, scopeFQN, method); ok {
		return def
	}
	return nil
}

func instanceMethod(global *index.GlobalIndex, class, method string) (*graph.DefinitionNode, bool) {
	return global.Lookup(class + "#" + method)
}

func singletonMethod(global *index.GlobalIndex, class, method string) (*graph.DefinitionNode, bool) {
	return global.Lookup(class + "::" + method)
}

func findClass(global *index.GlobalIndex, name string) (*graph.DefinitionNode, bool) {
	def, ok := global.Lookup(name)
	if !ok || (def.Kind != graph.DefinitionClass && def.Kind != graph.DefinitionModule) {
		return nil, false
	}
	return def, true
}

// guessClassFromInstanceVariable implements the same snake_case ->
// PascalCase heuristic as the original's infer_class_from_instance_variable:
// strip a leading "@" or "@@", split on "_", capitalize each part.
func guessClassFromInstanceVariable(varName string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(varName, "@@"), "@")
	if trimmed == varName {
		return ""
	}
	parts := strings.Split(trimmed, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		if len(part) > 1 {
			b.WriteString(strings.ToLower(part[1:]))
		}
	}
	return b.String()
}
