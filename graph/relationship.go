package graph

import "fmt"

// NodeKind identifies which of the four node tables a relationship
// endpoint belongs to. The assembler uses (source kind, target kind) to
// classify an edge into one of the three consolidated edge tables.
type NodeKind uint8

const (
	NodeDirectory NodeKind = iota
	NodeFile
	NodeDefinition
	NodeImportedSymbol
)

// RelationshipKind is the closed dictionary of relationship kinds from
// spec.md §3. It is a small bidirectional enum: the numeric tag is what
// gets persisted, the name is what the kind dictionary sidecar records.
type RelationshipKind uint8

const (
	KindDirContainsDir RelationshipKind = iota
	KindDirContainsFile
	KindFileDefines
	KindFileImports
	KindCalls
	KindAmbiguouslyCalls
	KindDefinesImportedSymbol
	KindInherits
	KindModuleToMethod
	KindClassToMethod
	KindClassInheritsFrom
	// kindFirstDynamic marks the start of the range available for kinds
	// registered at runtime by the kind dictionary (spec.md §4.4 "extended
	// in insertion order if new names appear").
	kindFirstDynamic
)

var seedKindNames = map[RelationshipKind]string{
	KindDirContainsDir:        "DIR_CONTAINS_DIR",
	KindDirContainsFile:       "DIR_CONTAINS_FILE",
	KindFileDefines:           "FILE_DEFINES",
	KindFileImports:           "FILE_IMPORTS",
	KindCalls:                 "CALLS",
	KindAmbiguouslyCalls:      "AMBIGUOUSLY_CALLS",
	KindDefinesImportedSymbol: "DEFINES_IMPORTED_SYMBOL",
	KindInherits:              "INHERITS",
	KindModuleToMethod:        "MODULE_TO_METHOD",
	KindClassToMethod:         "CLASS_TO_METHOD",
	KindClassInheritsFrom:     "CLASS_INHERITS_FROM",
}

// endpointKinds records, for every seeded relationship kind, which node
// kind its source and target must be. The assembler consults this to
// route an edge into the directory/file/definition edge table (spec.md
// §3 invariant: "an edge's source and target IDs must refer to nodes of
// the kinds admitted by its kind tag").
var endpointKinds = map[RelationshipKind][2]NodeKind{
	KindDirContainsDir:        {NodeDirectory, NodeDirectory},
	KindDirContainsFile:       {NodeDirectory, NodeFile},
	KindFileDefines:           {NodeFile, NodeDefinition},
	KindFileImports:           {NodeFile, NodeImportedSymbol},
	KindCalls:                 {NodeDefinition, NodeDefinition},
	KindAmbiguouslyCalls:      {NodeDefinition, NodeDefinition},
	KindDefinesImportedSymbol: {NodeDefinition, NodeImportedSymbol},
	KindInherits:              {NodeDefinition, NodeDefinition},
	KindModuleToMethod:        {NodeDefinition, NodeDefinition},
	KindClassToMethod:         {NodeDefinition, NodeDefinition},
	KindClassInheritsFrom:     {NodeDefinition, NodeDefinition},
}

// KindDictionary is a bidirectional, append-only map from relationship
// kind tags to their symbolic names, seeded with the closed set above and
// extended in insertion order when a resolver or caller registers a new
// kind (e.g. a language-specific containment edge). u8 overflow is fatal
// per spec.md §4.4/§7.
type KindDictionary struct {
	names  map[RelationshipKind]string
	byName map[string]RelationshipKind
	// next is a uint16, wider than RelationshipKind itself, so the
	// overflow check below can observe next climbing past 255 before a
	// uint8 truncation would silently wrap it back into the already-used
	// range (spec.md §9 "do not let u8 overflow").
	next     uint16
	overflow bool
}

// ErrKindOverflow is returned once more than 256 relationship kinds have
// been registered. Per spec.md §9, recovering from this requires widening
// the tag to u16 and revving the output format version -- it is not
// something this package can do unilaterally, so it is surfaced as an
// error rather than a panic.
var ErrKindOverflow = fmt.Errorf("codegraph/graph: relationship kind dictionary overflowed u8")

// NewKindDictionary returns a dictionary seeded with the closed set from
// spec.md §3.
func NewKindDictionary() *KindDictionary {
	d := &KindDictionary{
		names:  make(map[RelationshipKind]string, len(seedKindNames)),
		byName: make(map[string]RelationshipKind, len(seedKindNames)),
		next:   uint16(kindFirstDynamic),
	}
	for k, name := range seedKindNames {
		d.names[k] = name
		d.byName[name] = k
	}
	return d
}

// Intern returns the tag for name, registering a new dynamic tag in
// insertion order if name is not already known.
func (d *KindDictionary) Intern(name string) (RelationshipKind, error) {
	if k, ok := d.byName[name]; ok {
		return k, nil
	}
	if d.overflow || d.next > 255 {
		d.overflow = true
		return 0, ErrKindOverflow
	}
	k := RelationshipKind(d.next)
	d.next++
	d.names[k] = name
	d.byName[name] = k
	return k, nil
}

// Name returns the symbolic name for a tag, or "" if unknown.
func (d *KindDictionary) Name(k RelationshipKind) string {
	return d.names[k]
}

// AsMap returns the dictionary as {"<u8>": "<symbolic_name>"} string keys,
// matching the writer's JSON sidecar schema (spec.md §6).
func (d *KindDictionary) AsMap() map[string]string {
	out := make(map[string]string, len(d.names))
	for k, name := range d.names {
		out[fmt.Sprintf("%d", k)] = name
	}
	return out
}

// EndpointKinds reports the (source, target) node kinds admitted by a
// seeded relationship kind, or by a dynamic kind registered through
// RegisterEndpointKinds. For any other kind it reports ok=false; the
// assembler then routes the edge as (NodeDefinition, NodeDefinition).
func EndpointKinds(k RelationshipKind) (NodeKind, NodeKind, bool) {
	pair, ok := endpointKinds[k]
	if !ok {
		return 0, 0, false
	}
	return pair[0], pair[1], true
}

// RegisterEndpointKinds records the endpoint kinds for a dynamically
// interned relationship kind so the assembler can route it correctly.
func RegisterEndpointKinds(k RelationshipKind, source, target NodeKind) {
	endpointKinds[k] = [2]NodeKind{source, target}
}

// Relationship is a relationship emitted by a resolver, prior to ID
// assignment: its endpoints are identified by stable keys (FQN or path),
// not yet by u32 ID.
type Relationship struct {
	Kind         RelationshipKind
	SourceFQN    string // definition FQN, or directory/file path
	TargetFQN    string // definition FQN, import key, or directory/file path
	TargetIsPath bool   // true when TargetFQN is a directory/file path rather than a definition FQN
	SourceIsPath bool
	// TargetImport identifies the textual import site the edge points at
	// when Kind is DEFINES_IMPORTED_SYMBOL: an ImportedSymbolNode is keyed
	// by (file, range), not by import path, so two same-path imports in
	// one file stay distinguishable.
	TargetImport SourceLocation
	// Site is the call/reference location where this relationship was
	// observed -- distinct from either endpoint's own definition location.
	Site SourceLocation
}

// Edge is a relationship after ID assignment, ready for the writer.
type Edge struct {
	SourceID uint32
	TargetID uint32
	Kind     RelationshipKind
	Site     *SourceLocation // nil when the relationship carries no site
}
