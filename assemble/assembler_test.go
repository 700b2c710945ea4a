package assemble_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/assemble"
	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

func TestAssemblerSealAssignsDenseIDsAndContainment(t *testing.T) {
	asm := assemble.New(nil, nil)

	asm.AddFile(&graph.FileNode{Path: "src/pkg/a.go", Name: "a.go"})
	asm.AddDefinition(&graph.DefinitionNode{
		FQN: "pkg.A", Name: "A", Kind: graph.DefinitionClass,
		Primary: graph.SourceLocation{FilePath: "src/pkg/a.go"},
	})
	asm.AddDefinition(&graph.DefinitionNode{
		FQN: "pkg.A.m", Name: "m", Kind: graph.DefinitionMethod,
		Primary: graph.SourceLocation{FilePath: "src/pkg/a.go"},
	})

	global := index.NewGlobalIndex()
	require.NoError(t, asm.Seal(global))

	dirRows := asm.Directories()
	require.NotEmpty(t, dirRows)
	fileRows := asm.Files()
	require.Len(t, fileRows, 1)
	defRows := asm.Definitions()
	require.Len(t, defRows, 2)

	for i, row := range dirRows {
		assert.Equal(t, uint32(i+1), row.ID)
	}

	fileEdges := asm.FileEdges()
	require.NotEmpty(t, fileEdges)

	defEdges := asm.DefinitionEdges()
	found := false
	for _, e := range defEdges {
		if e.Kind == graph.KindClassToMethod {
			found = true
		}
	}
	assert.True(t, found, "expected a CLASS_TO_METHOD edge between pkg.A and pkg.A.m")
}

func TestAssemblerSealTwiceErrors(t *testing.T) {
	asm := assemble.New(nil, nil)
	require.NoError(t, asm.Seal(nil))
	assert.Error(t, asm.Seal(nil))
}

func TestAssemblerAddRelationshipBeforeSealErrors(t *testing.T) {
	asm := assemble.New(nil, nil)
	err := asm.AddRelationship(graph.Relationship{})
	assert.Error(t, err)
}

func TestAssemblerAddRelationshipDropsUnknownEndpoints(t *testing.T) {
	asm := assemble.New(nil, nil)
	require.NoError(t, asm.Seal(nil))
	err := asm.AddRelationship(graph.Relationship{
		Kind: graph.KindCalls, SourceFQN: "missing.a", TargetFQN: "missing.b",
	})
	assert.NoError(t, err)
	assert.Empty(t, asm.DefinitionEdges())
}

func TestAssemblerAddRelationshipImportTarget(t *testing.T) {
	asm := assemble.New(nil, nil)
	asm.AddFile(&graph.FileNode{Path: "a.py", Name: "a.py"})
	asm.AddDefinition(&graph.DefinitionNode{
		FQN: "pkg.foo", Name: "foo", Kind: graph.DefinitionFunction,
		Primary: graph.SourceLocation{FilePath: "a.py"},
	})
	importNode := &graph.ImportedSymbolNode{
		Kind: graph.ImportPlain, ImportPath: "os.path",
		Location: graph.SourceLocation{FilePath: "a.py", Range: graph.Range{StartByte: 0, EndByte: 5}},
	}
	asm.AddImport(importNode)

	require.NoError(t, asm.Seal(nil))

	err := asm.AddRelationship(graph.Relationship{
		Kind:         graph.KindDefinesImportedSymbol,
		SourceFQN:    "pkg.foo",
		TargetFQN:    "os.path",
		TargetImport: importNode.Location,
		Site:         graph.SourceLocation{FilePath: "a.py", Range: graph.Range{StartByte: 10, EndByte: 15}},
	})
	require.NoError(t, err)

	defEdges := asm.DefinitionEdges()
	found := false
	for _, e := range defEdges {
		if e.Kind == graph.KindDefinesImportedSymbol {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemblerSamePathImportsStayDistinct(t *testing.T) {
	asm := assemble.New(nil, nil)
	asm.AddFile(&graph.FileNode{Path: "a.py", Name: "a.py"})
	asm.AddDefinition(&graph.DefinitionNode{
		FQN: "pkg.foo", Name: "foo", Kind: graph.DefinitionFunction,
		Primary: graph.SourceLocation{FilePath: "a.py"},
	})
	first := &graph.ImportedSymbolNode{
		Kind: graph.ImportFrom, ImportPath: "os",
		Identifier: &graph.ImportIdentifier{Name: "path"},
		Location:   graph.SourceLocation{FilePath: "a.py", Range: graph.Range{StartByte: 0, EndByte: 20}},
	}
	second := &graph.ImportedSymbolNode{
		Kind: graph.ImportFrom, ImportPath: "os",
		Identifier: &graph.ImportIdentifier{Name: "sep"},
		Location:   graph.SourceLocation{FilePath: "a.py", Range: graph.Range{StartByte: 21, EndByte: 40}},
	}
	asm.AddImport(first)
	asm.AddImport(second)

	require.NoError(t, asm.Seal(nil))

	// both textual imports of "os" are their own nodes with their own
	// FILE_IMPORTS edge.
	require.Len(t, asm.Imports(), 2)
	fileImports := 0
	for _, e := range asm.FileEdges() {
		if e.Kind == graph.KindFileImports {
			fileImports++
		}
	}
	assert.Equal(t, 2, fileImports)

	// a reference through the second import resolves to the second node's
	// ID, not whichever same-path node happened to be registered last.
	require.NoError(t, asm.AddRelationship(graph.Relationship{
		Kind:         graph.KindDefinesImportedSymbol,
		SourceFQN:    "pkg.foo",
		TargetFQN:    "os",
		TargetImport: second.Location,
		Site:         graph.SourceLocation{FilePath: "a.py", Range: graph.Range{StartByte: 50, EndByte: 60}},
	}))

	var secondID uint32
	for _, row := range asm.Imports() {
		if row.Node == second {
			secondID = row.ID
		}
	}
	require.NotZero(t, secondID)
	found := false
	for _, e := range asm.DefinitionEdges() {
		if e.Kind == graph.KindDefinesImportedSymbol {
			assert.Equal(t, secondID, e.TargetID)
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemblerClassInheritsFrom(t *testing.T) {
	asm := assemble.New(nil, nil)
	asm.AddFile(&graph.FileNode{Path: "a.rb", Name: "a.rb"})
	asm.AddDefinition(&graph.DefinitionNode{
		FQN: "Base", Name: "Base", Kind: graph.DefinitionClass,
		Primary: graph.SourceLocation{FilePath: "a.rb"},
	})
	asm.AddDefinition(&graph.DefinitionNode{
		FQN: "Child", Name: "Child", Kind: graph.DefinitionClass,
		Primary: graph.SourceLocation{FilePath: "a.rb"},
	})

	fi := index.NewFileIndex("a.rb", nil)
	fi.AddFile("")
	fi.Classes["Child"] = &parse.ClassInfo{FQN: "Child", SuperTypes: []string{"Base"}}
	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	require.NoError(t, asm.Seal(global))

	defEdges := asm.DefinitionEdges()
	found := false
	for _, e := range defEdges {
		if e.Kind == graph.KindClassInheritsFrom {
			found = true
		}
	}
	assert.True(t, found)
}
