package graph

// Sink collects the relationships a resolver emits while walking one
// file's references. Resolvers never build Relationship values against
// the global index directly -- they call Sink methods, so the pipeline
// stage can buffer, dedup, or stream them as it sees fit.
type Sink interface {
	Calls(siteScope, targetFQN string, site SourceLocation)
	AmbiguouslyCalls(siteScope string, candidates []string, site SourceLocation)
	ImportsSymbol(siteScope string, imp *ImportedSymbolNode, site SourceLocation)
}

// BufferedSink accumulates the relationships one file's resolver run
// emits into a plain slice, so the pipeline stage can hand each file's
// buffer to the assembler independently (spec.md §5 "each file's
// resolver writes into a thread-local edge buffer that is concatenated
// at the end").
type BufferedSink struct {
	Relationships []Relationship
}

// NewBufferedSink returns an empty per-file sink.
func NewBufferedSink() *BufferedSink {
	return &BufferedSink{}
}

func (s *BufferedSink) Calls(siteScope, targetFQN string, site SourceLocation) {
	s.Relationships = append(s.Relationships, Relationship{
		Kind:      KindCalls,
		SourceFQN: siteScope,
		TargetFQN: targetFQN,
		Site:      site,
	})
}

func (s *BufferedSink) AmbiguouslyCalls(siteScope string, candidates []string, site SourceLocation) {
	for _, candidate := range candidates {
		s.Relationships = append(s.Relationships, Relationship{
			Kind:      KindAmbiguouslyCalls,
			SourceFQN: siteScope,
			TargetFQN: candidate,
			Site:      site,
		})
	}
}

func (s *BufferedSink) ImportsSymbol(siteScope string, imp *ImportedSymbolNode, site SourceLocation) {
	s.Relationships = append(s.Relationships, Relationship{
		Kind:         KindDefinesImportedSymbol,
		SourceFQN:    siteScope,
		TargetFQN:    imp.ImportPath,
		TargetIsPath: true,
		TargetImport: imp.Location,
		Site:         site,
	})
}

// NopSink discards everything. Resolvers use it when walking an
// expression purely for its inferred type -- e.g. intermediate chain
// links when chain-edge emission is disabled, or a method body visited
// only to infer the method's return type.
type NopSink struct{}

func (NopSink) Calls(string, string, SourceLocation)                      {}
func (NopSink) AmbiguouslyCalls(string, []string, SourceLocation)         {}
func (NopSink) ImportsSymbol(string, *ImportedSymbolNode, SourceLocation) {}
