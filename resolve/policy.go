package resolve

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Policy toggles resolver behaviors that spec.md §9 leaves as open
// questions rather than fixed rules, so a single config load -- not a
// per-language constant -- decides them uniformly across every resolver.
type Policy struct {
	// EmitChainEdges controls whether intermediate resolutions in a member
	// chain (a.b.c()) each produce their own edge, or only the terminal
	// call does (spec.md §9 "emit all passed-through resolutions" open
	// question; SPEC_FULL.md §6 decision 1: default true).
	EmitChainEdges bool `yaml:"emitChainEdges"`

	// RubyFilteredMethods is the versioned set of common framework method
	// names Ruby's resolver never turns into edges (SPEC_FULL.md §6
	// decision 2). Empty means "use resolve/ruby's built-in default set".
	RubyFilteredMethods []string `yaml:"rubyFilteredMethods"`
	// RubyFilteredMethodsVersion tags which revision of the filtered set
	// this policy carries, so downstream consumers can detect drift
	// between a cached graph and the filter that produced it.
	RubyFilteredMethodsVersion int `yaml:"rubyFilteredMethodsVersion"`

	// PythonAmbiguousWildcards controls whether a wildcard import resolved
	// to more than one candidate file emits one AMBIGUOUSLY_CALLS edge per
	// definition candidate (true, SPEC_FULL.md §6 decision 3) or only the first
	// candidate, matching the upstream's original single-candidate
	// behavior (false).
	PythonAmbiguousWildcards bool `yaml:"pythonAmbiguousWildcards"`
}

// DefaultPolicy returns the SPEC_FULL.md §6 open-question decisions.
func DefaultPolicy() *Policy {
	return &Policy{
		EmitChainEdges:             true,
		RubyFilteredMethodsVersion: 1,
		PythonAmbiguousWildcards:   true,
	}
}

// LoadPolicy reads a yaml policy file, falling back to DefaultPolicy for
// any zero-valued field the file doesn't set explicitly. This mirrors the
// teacher's use of gopkg.in/yaml.v3 for round-trippable test fixtures,
// repurposed here for resolver configuration rather than test data.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}
