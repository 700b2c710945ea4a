package kotlin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
	"github.com/viant/codegraph/resolve/kotlin"
)

func TestResolverExtensionFunctionCall(t *testing.T) {
	fi := index.NewFileIndex("a.kt", nil)
	fi.AddFile("p")

	fi.AddDefinition(&parse.DefinitionInfo{
		Language: graph.LanguageKotlin, Kind: graph.DefinitionMethod,
		FQNParts: []string{"p", "Foo+ext", "bar"}, Name: "bar",
		Location: graph.SourceLocation{FilePath: "a.kt", Range: graph.Range{StartByte: 2, EndByte: 3}},
	})
	fi.Definitions["p.Foo+ext.baz"] = &graph.DefinitionNode{
		FQN: "p.Foo+ext.baz", Name: "baz", Kind: graph.DefinitionFunction,
		Primary: graph.SourceLocation{FilePath: "a.kt"},
	}

	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	sink := graph.NewBufferedSink()
	r := kotlin.New()
	assert.Equal(t, graph.LanguageKotlin, r.Language())

	ref := &parse.Reference{
		EnclosingScope: "p.Foo+ext.bar",
		Expr:           &parse.Expr{Kind: parse.ExprReceiverlessCall, Name: "baz"},
	}
	r.Resolve(fi, global, ref, sink)

	require.Len(t, sink.Relationships, 1)
	assert.Equal(t, "p.Foo+ext.baz", sink.Relationships[0].TargetFQN)
}

func TestResolverReturnTypeInferenceCycleTerminates(t *testing.T) {
	fi := index.NewFileIndex("a.kt", nil)
	fi.AddFile("p")

	fi.AddDefinition(&parse.DefinitionInfo{
		Language: graph.LanguageKotlin, Kind: graph.DefinitionClass,
		FQNParts: []string{"p", "A"}, Name: "A",
		Location: graph.SourceLocation{FilePath: "a.kt", Range: graph.Range{EndByte: 1}},
		Class:    &parse.ClassInfo{FQN: "p.A", SimpleName: "A"},
	})
	fi.AddDefinition(&parse.DefinitionInfo{
		Language: graph.LanguageKotlin, Kind: graph.DefinitionMethod,
		FQNParts: []string{"p", "A", "m"}, Name: "m",
		Location: graph.SourceLocation{FilePath: "a.kt", Range: graph.Range{StartByte: 2, EndByte: 3}},
	})
	// expression-body function whose type depends on its own call: fun m() = m()
	fi.Bindings["p.A.m"].Initializer = &parse.Expr{Kind: parse.ExprReceiverlessCall, Name: "m"}
	fi.AddBinding("p.A.caller", "a", &parse.Binding{Name: "a", DeclaredType: "p.A", Range: graph.Range{StartByte: 0, EndByte: 100}})

	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	sink := graph.NewBufferedSink()
	ref := &parse.Reference{
		EnclosingScope: "p.A.caller",
		Expr: &parse.Expr{
			Kind: parse.ExprMethodCall, Name: "m",
			Operand: &parse.Expr{Kind: parse.ExprIdentifier, Name: "a", Range: graph.Range{StartByte: 10, EndByte: 11}},
		},
	}
	kotlin.New().Resolve(fi, global, ref, sink)

	var targets []string
	for _, rel := range sink.Relationships {
		targets = append(targets, rel.TargetFQN)
	}
	assert.Equal(t, []string{"p.A", "p.A.m"}, targets)
}

func TestResolverMethodCallPropagatesDeclaredReturnType(t *testing.T) {
	fi := index.NewFileIndex("a.kt", nil)
	fi.AddFile("p")

	for _, name := range []string{"A", "B"} {
		fi.AddDefinition(&parse.DefinitionInfo{
			Language: graph.LanguageKotlin, Kind: graph.DefinitionClass,
			FQNParts: []string{"p", name}, Name: name,
			Location: graph.SourceLocation{FilePath: "a.kt", Range: graph.Range{EndByte: 1}},
			Class:    &parse.ClassInfo{FQN: "p." + name, SimpleName: name},
		})
	}
	fi.AddDefinition(&parse.DefinitionInfo{
		Language: graph.LanguageKotlin, Kind: graph.DefinitionMethod,
		FQNParts: []string{"p", "A", "b"}, Name: "b",
		Location: graph.SourceLocation{FilePath: "a.kt", Range: graph.Range{StartByte: 2, EndByte: 3}},
	})
	fi.Bindings["p.A.b"].DeclaredType = "p.B"
	fi.AddDefinition(&parse.DefinitionInfo{
		Language: graph.LanguageKotlin, Kind: graph.DefinitionMethod,
		FQNParts: []string{"p", "B", "save"}, Name: "save",
		Location: graph.SourceLocation{FilePath: "a.kt", Range: graph.Range{StartByte: 4, EndByte: 5}},
	})
	fi.AddBinding("p.A.caller", "a", &parse.Binding{Name: "a", DeclaredType: "p.A", Range: graph.Range{StartByte: 0, EndByte: 100}})

	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	sink := graph.NewBufferedSink()
	ref := &parse.Reference{
		EnclosingScope: "p.A.caller",
		Expr: &parse.Expr{
			Kind: parse.ExprMethodCall, Name: "save",
			Operand: &parse.Expr{
				Kind: parse.ExprMethodCall, Name: "b",
				Operand: &parse.Expr{Kind: parse.ExprIdentifier, Name: "a", Range: graph.Range{StartByte: 10, EndByte: 11}},
			},
		},
	}
	kotlin.New().Resolve(fi, global, ref, sink)

	var targets []string
	for _, rel := range sink.Relationships {
		targets = append(targets, rel.TargetFQN)
	}
	assert.Equal(t, []string{"p.A", "p.A.b", "p.B.save"}, targets)
}

func TestResolverBinaryOperatorDispatchesToConventionMethod(t *testing.T) {
	fi := index.NewFileIndex("a.kt", nil)
	fi.AddFile("p")

	fi.AddDefinition(&parse.DefinitionInfo{
		Language: graph.LanguageKotlin, Kind: graph.DefinitionClass,
		FQNParts: []string{"p", "Money"}, Name: "Money",
		Location: graph.SourceLocation{FilePath: "a.kt", Range: graph.Range{EndByte: 1}},
		Class:    &parse.ClassInfo{FQN: "p.Money", SimpleName: "Money"},
	})
	fi.AddDefinition(&parse.DefinitionInfo{
		Language: graph.LanguageKotlin, Kind: graph.DefinitionMethod,
		FQNParts: []string{"p", "Money", "plus"}, Name: "plus",
		Location: graph.SourceLocation{FilePath: "a.kt", Range: graph.Range{StartByte: 2, EndByte: 3}},
	})
	fi.AddBinding("p.Money.total", "a", &parse.Binding{Name: "a", DeclaredType: "p.Money", Range: graph.Range{StartByte: 0, EndByte: 100}})

	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	sink := graph.NewBufferedSink()
	ref := &parse.Reference{
		EnclosingScope: "p.Money.total",
		Expr: &parse.Expr{
			Kind: parse.ExprBinaryOp, Operator: "+",
			Operand: &parse.Expr{Kind: parse.ExprIdentifier, Name: "a", Range: graph.Range{StartByte: 10, EndByte: 11}},
			Args:    []*parse.Expr{{Kind: parse.ExprIdentifier, Name: "b"}},
		},
	}
	kotlin.New().Resolve(fi, global, ref, sink)

	var targets []string
	for _, rel := range sink.Relationships {
		targets = append(targets, rel.TargetFQN)
	}
	assert.Equal(t, []string{"p.Money", "p.Money.plus"}, targets)
}
