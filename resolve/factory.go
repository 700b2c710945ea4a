package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/resolve/csharp"
	"github.com/viant/codegraph/resolve/java"
	"github.com/viant/codegraph/resolve/kotlin"
	"github.com/viant/codegraph/resolve/python"
	"github.com/viant/codegraph/resolve/ruby"
	"github.com/viant/codegraph/resolve/rust"
	"github.com/viant/codegraph/resolve/typescript"
)

// Factory returns the appropriate Resolver for a file, mirroring the
// teacher's inspector.Factory (one concrete type per language, selected
// by extension, no shared base type; the factory owns the config and
// hands each constructed resolver the slice of it that language acts
// on). The teacher's own javascript inspector package is not part of
// this module's domain -- .ts/.tsx route to resolve/typescript instead,
// per SPEC_FULL.md §4.4.
type Factory struct {
	policy *Policy
}

// NewFactory returns a resolver factory applying policy; nil means
// DefaultPolicy.
func NewFactory(policy *Policy) *Factory {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Factory{policy: policy}
}

// ForFile returns the resolver appropriate for filename's extension.
func (f *Factory) ForFile(filename string) (Resolver, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".java":
		return f.java(), nil
	case ".kt", ".kts":
		return f.kotlin(), nil
	case ".py":
		return f.python(), nil
	case ".rb":
		return f.ruby(), nil
	case ".ts", ".tsx":
		return f.typescript(), nil
	case ".cs":
		return csharp.New(), nil
	case ".rs":
		return rust.New(), nil
	default:
		return nil, fmt.Errorf("codegraph/resolve: unsupported file type: %s", filename)
	}
}

// ForLanguage returns the resolver for an already-classified language tag.
func (f *Factory) ForLanguage(lang graph.Language) (Resolver, error) {
	switch lang {
	case graph.LanguageJava:
		return f.java(), nil
	case graph.LanguageKotlin:
		return f.kotlin(), nil
	case graph.LanguagePython:
		return f.python(), nil
	case graph.LanguageRuby:
		return f.ruby(), nil
	case graph.LanguageTypeScript:
		return f.typescript(), nil
	case graph.LanguageCSharp:
		return csharp.New(), nil
	case graph.LanguageRust:
		return rust.New(), nil
	default:
		return nil, fmt.Errorf("codegraph/resolve: unsupported language: %s", lang)
	}
}

func (f *Factory) java() *java.Resolver {
	r := java.New()
	r.EmitChainEdges = f.policy.EmitChainEdges
	return r
}

func (f *Factory) kotlin() *kotlin.Resolver {
	r := kotlin.New()
	r.EmitChainEdges = f.policy.EmitChainEdges
	return r
}

func (f *Factory) typescript() *typescript.Resolver {
	r := typescript.New()
	r.EmitChainEdges = f.policy.EmitChainEdges
	return r
}

func (f *Factory) python() *python.Resolver {
	r := python.New()
	r.AmbiguousWildcards = f.policy.PythonAmbiguousWildcards
	return r
}

func (f *Factory) ruby() *ruby.Resolver {
	r := ruby.New()
	if len(f.policy.RubyFilteredMethods) > 0 {
		r.SetFilteredMethods(f.policy.RubyFilteredMethods)
	}
	return r
}
