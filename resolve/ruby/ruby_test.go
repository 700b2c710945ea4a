package ruby_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
	"github.com/viant/codegraph/resolve/ruby"
)

func TestResolverInstanceMethodOnCurrentScope(t *testing.T) {
	fi := index.NewFileIndex("user.rb", nil)
	fi.AddFile("")
	fi.Definitions["User#greet"] = &graph.DefinitionNode{
		FQN: "User#greet", Name: "greet", Kind: graph.DefinitionMethod,
		Primary: graph.SourceLocation{FilePath: "user.rb"},
	}
	fi.Definitions["User#validate_name"] = &graph.DefinitionNode{
		FQN: "User#validate_name", Name: "validate_name", Kind: graph.DefinitionMethod,
		Primary: graph.SourceLocation{FilePath: "user.rb"},
	}

	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	sink := graph.NewBufferedSink()
	r := ruby.New()
	assert.Equal(t, graph.LanguageRuby, r.Language())

	ref := &parse.Reference{
		EnclosingScope: "User#greet",
		Expr:           &parse.Expr{Kind: parse.ExprReceiverlessCall, Name: "validate_name"},
	}
	r.Resolve(fi, global, ref, sink)

	require.Len(t, sink.Relationships, 1)
	rel := sink.Relationships[0]
	assert.Equal(t, "User#greet", rel.SourceFQN)
	assert.Equal(t, "User#validate_name", rel.TargetFQN)
}

func TestResolverFiltersFrameworkMethods(t *testing.T) {
	fi := index.NewFileIndex("user.rb", nil)
	fi.AddFile("")
	fi.Definitions["User#greet"] = &graph.DefinitionNode{
		FQN: "User#greet", Name: "greet", Kind: graph.DefinitionMethod,
		Primary: graph.SourceLocation{FilePath: "user.rb"},
	}
	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	sink := graph.NewBufferedSink()
	r := ruby.New()
	ref := &parse.Reference{
		EnclosingScope: "User#greet",
		Expr:           &parse.Expr{Kind: parse.ExprReceiverlessCall, Name: "present?"},
	}
	r.Resolve(fi, global, ref, sink)
	assert.Empty(t, sink.Relationships)
}

func TestResolverSetFilteredMethodsReplacesBuiltInSet(t *testing.T) {
	fi := index.NewFileIndex("user.rb", nil)
	fi.AddFile("")
	for _, fqn := range []string{"User#greet", "User#validate_name", "User#present?"} {
		name := fqn[strings.Index(fqn, "#")+1:]
		fi.Definitions[fqn] = &graph.DefinitionNode{
			FQN: fqn, Name: name, Kind: graph.DefinitionMethod,
			Primary: graph.SourceLocation{FilePath: "user.rb"},
		}
	}
	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	r := ruby.New()
	r.SetFilteredMethods([]string{"validate_name"})

	sink := graph.NewBufferedSink()
	r.Resolve(fi, global, &parse.Reference{
		EnclosingScope: "User#greet",
		Expr:           &parse.Expr{Kind: parse.ExprReceiverlessCall, Name: "validate_name"},
	}, sink)
	assert.Empty(t, sink.Relationships)

	// present? was only in the built-in set; the explicit set replaced it.
	sink = graph.NewBufferedSink()
	r.Resolve(fi, global, &parse.Reference{
		EnclosingScope: "User#greet",
		Expr:           &parse.Expr{Kind: parse.ExprReceiverlessCall, Name: "present?"},
	}, sink)
	require.Len(t, sink.Relationships, 1)
	assert.Equal(t, "User#present?", sink.Relationships[0].TargetFQN)
}

func TestResolverInstanceVariableClassGuess(t *testing.T) {
	fi := index.NewFileIndex("user.rb", nil)
	fi.AddFile("")
	fi.Definitions["UserProfile"] = &graph.DefinitionNode{
		FQN: "UserProfile", Name: "UserProfile", Kind: graph.DefinitionClass,
		Primary: graph.SourceLocation{FilePath: "user_profile.rb"},
	}
	fi.Definitions["UserProfile#save"] = &graph.DefinitionNode{
		FQN: "UserProfile#save", Name: "save", Kind: graph.DefinitionMethod,
		Primary: graph.SourceLocation{FilePath: "user_profile.rb"},
	}
	fi.Definitions["User#update"] = &graph.DefinitionNode{
		FQN: "User#update", Name: "update", Kind: graph.DefinitionMethod,
		Primary: graph.SourceLocation{FilePath: "user.rb"},
	}

	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	ref := &parse.Reference{
		Range:          graph.Range{StartByte: 30, EndByte: 50},
		EnclosingScope: "User#update",
		Expr: &parse.Expr{
			Kind: parse.ExprMethodCall, Name: "save",
			Operand: &parse.Expr{Kind: parse.ExprIdentifier, Name: "@user_profile"},
		},
	}
	sink := graph.NewBufferedSink()
	ruby.New().Resolve(fi, global, ref, sink)

	require.Len(t, sink.Relationships, 1)
	rel := sink.Relationships[0]
	assert.Equal(t, "UserProfile#save", rel.TargetFQN)
	assert.Equal(t, 30, rel.Site.Range.StartByte)
}

func TestResolverInstanceVariableWithoutMatchingClassEmitsNothing(t *testing.T) {
	fi := index.NewFileIndex("user.rb", nil)
	fi.AddFile("")
	fi.Definitions["User#update"] = &graph.DefinitionNode{
		FQN: "User#update", Name: "update", Kind: graph.DefinitionMethod,
		Primary: graph.SourceLocation{FilePath: "user.rb"},
	}
	fi.Definitions["User#save"] = &graph.DefinitionNode{
		FQN: "User#save", Name: "save", Kind: graph.DefinitionMethod,
		Primary: graph.SourceLocation{FilePath: "user.rb"},
	}
	global := index.NewGlobalIndex()
	global.Merge(fi)
	global.Seal()

	ref := &parse.Reference{
		EnclosingScope: "User#update",
		Expr: &parse.Expr{
			Kind: parse.ExprMethodCall, Name: "save",
			Operand: &parse.Expr{Kind: parse.ExprIdentifier, Name: "@user_profile"},
		},
	}
	sink := graph.NewBufferedSink()
	ruby.New().Resolve(fi, global, ref, sink)
	assert.Empty(t, sink.Relationships)
}
