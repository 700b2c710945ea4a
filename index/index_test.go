package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
)

func TestParentFQN(t *testing.T) {
	cases := []struct {
		fqn    string
		parent string
		ok     bool
	}{
		{"A.B.m", "A.B", true},
		{"A#m", "A", true},
		{"A::m", "A", true},
		{"A", "", false},
	}
	for _, c := range cases {
		parent, ok := index.ParentFQN(c.fqn)
		assert.Equal(t, c.ok, ok, c.fqn)
		assert.Equal(t, c.parent, parent, c.fqn)
	}
}

func TestFileIndexAddDefinitionReopenedClass(t *testing.T) {
	fi := index.NewFileIndex("a.java", nil)
	def := &parse.DefinitionInfo{
		Language: graph.LanguageJava,
		Kind:     graph.DefinitionClass,
		FQNParts: []string{"com", "example", "User"},
		Name:     "User",
		Location: graph.SourceLocation{FilePath: "a.java", Range: graph.Range{EndByte: 10}},
	}
	fi.AddDefinition(def)
	fi.AddDefinition(def)

	node := fi.Definitions["com.example.User"]
	require.NotNil(t, node)
	assert.Equal(t, 2, node.TotalLocations)
}

func TestFileIndexAddDefinitionDropsMalformed(t *testing.T) {
	fi := index.NewFileIndex("a.java", nil)
	fi.AddDefinition(&parse.DefinitionInfo{Name: "x"}) // no FQNParts, empty location
	assert.Empty(t, fi.Definitions)
	assert.Len(t, fi.Warnings(), 1)
}

func TestFileIndexAddImport(t *testing.T) {
	fi := index.NewFileIndex("a.py", nil)
	fi.AddImport(&graph.ImportedSymbolNode{
		Kind:       graph.ImportWildcard,
		ImportPath: "pkg.sub",
	})
	fi.AddImport(&graph.ImportedSymbolNode{
		Kind:       graph.ImportAliased,
		ImportPath: "pkg.other",
		Identifier: &graph.ImportIdentifier{Name: "other", Alias: "o"},
	})

	assert.True(t, fi.WildcardImports["pkg.sub"])
	require.NotNil(t, fi.ImportedNames["o"])
	assert.Equal(t, "pkg.other", fi.ImportedNames["o"].ImportPath)
	assert.Len(t, fi.ImportNodes, 2)
}

func TestFileIndexAddImportKeepsSamePathImportsDistinct(t *testing.T) {
	fi := index.NewFileIndex("a.py", nil)
	fi.AddImport(&graph.ImportedSymbolNode{
		Kind: graph.ImportFrom, ImportPath: "os",
		Identifier: &graph.ImportIdentifier{Name: "path"},
		Location:   graph.SourceLocation{FilePath: "a.py", Range: graph.Range{StartByte: 0, EndByte: 20}},
	})
	fi.AddImport(&graph.ImportedSymbolNode{
		Kind: graph.ImportFrom, ImportPath: "os",
		Identifier: &graph.ImportIdentifier{Name: "sep"},
		Location:   graph.SourceLocation{FilePath: "a.py", Range: graph.Range{StartByte: 21, EndByte: 40}},
	})

	require.Len(t, fi.ImportNodes, 2)
	require.NotNil(t, fi.ImportedNames["path"])
	require.NotNil(t, fi.ImportedNames["sep"])
	assert.Equal(t, 0, fi.ImportedNames["path"].Location.Range.StartByte)
	assert.Equal(t, 21, fi.ImportedNames["sep"].Location.Range.StartByte)
}

func TestDefinitionMapShadowing(t *testing.T) {
	fi := index.NewFileIndex("a.java", nil)
	outer := &parse.Binding{Name: "x", Range: graph.Range{StartByte: 0, EndByte: 100}}
	inner := &parse.Binding{Name: "x", Range: graph.Range{StartByte: 10, EndByte: 20}}

	fi.AddBinding("A.m", "x", outer)
	fi.AddBinding("A.m", "x", inner)

	b, ok := fi.Scopes["A.m"].Defs.Lookup("x", graph.Range{StartByte: 12, EndByte: 14})
	require.True(t, ok)
	assert.Same(t, inner, b)

	b, ok = fi.Scopes["A.m"].Defs.Lookup("x", graph.Range{StartByte: 50, EndByte: 60})
	require.True(t, ok)
	assert.Same(t, outer, b)
}

func TestGlobalIndexMergeAndLookup(t *testing.T) {
	global := index.NewGlobalIndex()

	fi1 := index.NewFileIndex("a.py", nil)
	fi1.AddFile("pkg")
	fi1.AddDefinition(&parse.DefinitionInfo{
		Kind: graph.DefinitionFunction, FQNParts: []string{"pkg", "foo"}, Name: "foo",
		Location: graph.SourceLocation{FilePath: "a.py", Range: graph.Range{EndByte: 1}},
	})
	global.Merge(fi1)

	fi2 := index.NewFileIndex("b.py", nil)
	fi2.AddFile("pkg")
	global.Merge(fi2)
	global.Seal()

	def, ok := global.Lookup("pkg.foo")
	require.True(t, ok)
	assert.Equal(t, "foo", def.Name)

	assert.ElementsMatch(t, []string{"a.py", "b.py"}, global.FilesInPackage("pkg"))

	funcs := global.FunctionsNamed("foo")
	require.Len(t, funcs, 1)
	assert.Equal(t, "pkg.foo", funcs[0].FQN)
}

func TestOptimizedFileTree(t *testing.T) {
	tree := index.NewOptimizedFileTree([]string{"src/pkg/A.java", "src/pkg/B.java"})
	p, ok := tree.Denormalize("src/pkg/a.java")
	require.True(t, ok)
	assert.Equal(t, "src/pkg/A.java", p)
	assert.True(t, tree.Dirs()["src/pkg"])
}

func TestOptimizedFileTreeResolveModule(t *testing.T) {
	tree := index.NewOptimizedFileTree([]string{
		"src/pkg/__init__.py", "src/pkg/Mod.py", "src/other/util.py",
	})

	p, ok := tree.ResolveModule("pkg.mod")
	require.True(t, ok)
	assert.Equal(t, "src/pkg/Mod.py", p)

	p, ok = tree.ResolveModule("pkg")
	require.True(t, ok)
	assert.Equal(t, "src/pkg/__init__.py", p)

	_, ok = tree.ResolveModule("nope.missing")
	assert.False(t, ok)
}
