// Package resolve selects and configures the per-language expression
// resolvers (spec.md §4.3). Each language gets its own resolver type
// with its own total switch over parse.ExprKind -- per spec.md §9 these
// are deliberately NOT factored behind a shared abstraction beyond the
// minimal Resolver contract below, since the lookup rules genuinely
// differ per language and a forced common base would blur that. What IS
// shared lives next to the data it traverses: graph.Sink (the edge
// sink), index.FileIndex.LookupIdentifier (scope-chain lookup),
// index.AncestorChain / index.LeastCommonAncestor (inheritance BFS), and
// index.ReturnTypeGuard (return-type-inference cycle guard).
package resolve

import (
	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

// Resolver is the contract every per-language resolver satisfies. file
// is the per-file index of the file currently being resolved; global is
// the sealed project-wide index built during the indexing stage. Every
// relationship the walk produces goes through sink.
type Resolver interface {
	Language() graph.Language
	Resolve(file *index.FileIndex, global *index.GlobalIndex, ref *parse.Reference, sink graph.Sink)
}
