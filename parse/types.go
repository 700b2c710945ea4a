// Package parse defines the shapes the external parser component hands to
// the indexing and resolution engine: per-file definitions, imports, and
// references with their language-specific expression payload (spec.md §3
// "Parse Outputs"). The parser itself -- the tree-sitter-style component
// that produces these records -- is an external collaborator; this
// package only fixes the contract.
package parse

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/codegraph/graph"
)

// ExtensionLanguage is the closed extension -> language tag map project
// discovery uses to classify a file (spec.md §6 "Inputs"; SPEC_FULL.md
// §4.1 addition). Extensions are matched lowercase, including the dot.
var ExtensionLanguage = map[string]graph.Language{
	".rb":   graph.LanguageRuby,
	".py":   graph.LanguagePython,
	".java": graph.LanguageJava,
	".kt":   graph.LanguageKotlin,
	".kts":  graph.LanguageKotlin,
	".ts":   graph.LanguageTypeScript,
	".tsx":  graph.LanguageTypeScript,
	".cs":   graph.LanguageCSharp,
	".rs":   graph.LanguageRust,
}

// LanguageForPath classifies a repository-relative file path by
// extension, returning graph.LanguageUnknown (and ok=false) for
// extensions outside the closed map -- an unsupported-language skip,
// spec.md §7, not an error.
func LanguageForPath(path string) (graph.Language, bool) {
	lang, ok := ExtensionLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// DefaultMaxFileSize is the default per-file size ceiling above which a
// file is skipped rather than parsed (spec.md §6 "Files above
// max_file_size are skipped with a recorded reason").
const DefaultMaxFileSize = 2 << 20 // 2 MiB

// SkipReason is the closed set of reasons project discovery records for a
// file it declines to parse (spec.md §6/§7).
type SkipReason string

const (
	SkipTooLarge            SkipReason = "file_too_large"
	SkipUnsupportedLanguage SkipReason = "unsupported_language"
)

// DefinitionInfo is one definition (class, method, function, property,
// etc.) discovered in a file.
type DefinitionInfo struct {
	Language graph.Language
	Kind     graph.DefinitionKind
	// FQNParts are the dot/delimiter-separated segments of the fully
	// qualified name, e.g. ["pkg", "A", "B", "m"].
	FQNParts []string
	Name     string
	Location graph.SourceLocation

	// Class-only metadata (zero value for non-class kinds).
	Class *ClassInfo
}

// FQN joins FQNParts with ".", the delimiter §4.1's scope-hierarchy
// derivation expects; language-specific delimiters (Ruby's "#"/"::") are
// applied by the definition's own FQN string when the parser already
// encodes them -- FQNParts is a convenience for parsers that hand us
// un-joined segments.
func (d *DefinitionInfo) FQN() string {
	if len(d.FQNParts) == 0 {
		return ""
	}
	out := d.FQNParts[0]
	for _, p := range d.FQNParts[1:] {
		out += "." + p
	}
	return out
}

// ClassInfo carries per-file class/interface/enum metadata: unresolved
// super-type name strings, an optional companion object, and enum
// entries.
type ClassInfo struct {
	FQN           string
	SimpleName    string
	SuperTypes    []string // as written, unresolved
	Companion     string   // empty when none
	EnumConstants []string
}

// ImportedSymbolInfo is one textual import site.
type ImportedSymbolInfo struct {
	Language   graph.Language
	Kind       graph.ImportKind
	ImportPath string
	Identifier *graph.ImportIdentifier
	Location   graph.SourceLocation
	// Scope is the enclosing scope FQN, when the language allows
	// non-top-level imports (e.g. Python's function-local imports).
	Scope string
}

// Binding records a declared name inside a scope: an optional declared
// type, an optional initializer expression, and the byte range the name
// occupies (used for shadowing-by-containment, spec.md §4.3).
type Binding struct {
	Name         string
	DeclaredType string
	Initializer  *Expr
	Range        graph.Range
}

// Reference is a single expression reference the resolver must process:
// its enclosing scope, source range, and language-specific expression
// tree.
type Reference struct {
	Range          graph.Range
	EnclosingScope string
	Expr           *Expr
	// Python carries an additional resolution hint computed by an earlier
	// pass (spec.md §4.3 "Python specifics").
	Python *PythonResolution
}

// ExprKind is the closed tag for the expression sum type. Per spec.md §9
// ("Polymorphic AST expressions... use tagged variants... do not use
// dynamic dispatch"), every resolver does a total switch over this set.
type ExprKind uint8

const (
	ExprIdentifier ExprKind = iota
	ExprFieldAccess
	ExprMethodCall
	ExprReceiverlessCall
	ExprConstructorCall
	ExprThis
	ExprSuper
	ExprConditional
	ExprBinaryOp
	ExprUnaryOp
	ExprLiteral
	ExprUnit
)

// Expr is a tagged-union expression node. Only the fields relevant to Kind
// are populated; this mirrors a Rust enum more closely than an open
// interface hierarchy would, per spec.md §9.
type Expr struct {
	Kind  ExprKind
	Range graph.Range

	// ExprIdentifier / ExprThis(label) / ExprReceiverlessCall(name)
	Name string

	// ExprFieldAccess / ExprMethodCall: operand.Field / operand.Method(Args)
	// ExprBinaryOp: Operand = left, Args[0] = right
	// ExprUnaryOp: Operand = the single operand
	Operand *Expr
	Args    []*Expr

	// ExprConstructorCall: the type name being constructed.
	TypeName string

	// ExprConditional: every branch, resolved and LCA'd by the resolver.
	Branches []*Expr

	// ExprBinaryOp / ExprUnaryOp: the source operator text, e.g. "+", "!".
	Operator string

	// RawNode is the tree-sitter node this expression was derived from,
	// when the external parser is tree-sitter-backed. Resolvers never read
	// it -- resolution operates over Kind/Name/Operand/Args, never over
	// source text -- it exists so a caller's parser can hand back the
	// original node for diagnostics (e.g. printing the offending source
	// span) without this package losing the rest of its shape-only
	// contract.
	RawNode *sitter.Node
}

// PythonCandidateKind tags what an Ambiguous python reference candidate
// resolves to (spec.md §4.3 "Python specifics").
type PythonCandidateKind uint8

const (
	PythonCandidateDefinition PythonCandidateKind = iota
	PythonCandidateImportedSymbol
	PythonCandidatePartial // ignored
)

// PythonCandidate is one candidate target for an Ambiguous python
// reference.
type PythonCandidate struct {
	Kind PythonCandidateKind
	FQN  string // definition FQN, when Kind == PythonCandidateDefinition
	// ImportFile and ImportRange identify an ImportedSymbolNode by
	// (file, range), when Kind == PythonCandidateImportedSymbol.
	ImportFile  string
	ImportRange graph.Range
}

// PythonResolutionState is the closed set of states a Python reference's
// pre-pass resolution can be in.
type PythonResolutionState uint8

const (
	PythonResolved PythonResolutionState = iota
	PythonAmbiguous
	PythonUnresolved
)

// PythonResolution carries the result of python's external pre-pass
// (import-graph walk across the three maps described in spec.md §4.3)
// that the resolver consumes rather than recomputes.
type PythonResolution struct {
	State      PythonResolutionState
	Candidates []PythonCandidate // populated for Resolved (len 1) and Ambiguous (len > 1)
}
