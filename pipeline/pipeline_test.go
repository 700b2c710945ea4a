package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	_ "github.com/viant/afs/mem"

	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/parse"
	"github.com/viant/codegraph/pipeline"
	"github.com/viant/codegraph/write"
)

func TestPipelineBuildSingleFile(t *testing.T) {
	files := []pipeline.FileInput{
		{
			Path:     "com/example/Foo.java",
			Package:  "com.example",
			Language: graph.LanguageJava,
			Definitions: []*parse.DefinitionInfo{
				{
					Language: graph.LanguageJava, Kind: graph.DefinitionClass,
					FQNParts: []string{"com", "example", "Foo"}, Name: "Foo",
					Location: graph.SourceLocation{FilePath: "com/example/Foo.java", Range: graph.Range{EndByte: 1}},
					Class:    &parse.ClassInfo{FQN: "com.example.Foo", SimpleName: "Foo"},
				},
				{
					Language: graph.LanguageJava, Kind: graph.DefinitionMethod,
					FQNParts: []string{"com", "example", "Foo", "bar"}, Name: "bar",
					Location: graph.SourceLocation{FilePath: "com/example/Foo.java", Range: graph.Range{StartByte: 2, EndByte: 3}},
				},
				{
					Language: graph.LanguageJava, Kind: graph.DefinitionMethod,
					FQNParts: []string{"com", "example", "Foo", "baz"}, Name: "baz",
					Location: graph.SourceLocation{FilePath: "com/example/Foo.java", Range: graph.Range{StartByte: 4, EndByte: 5}},
				},
			},
			References: []*parse.Reference{
				{
					Range:          graph.Range{StartByte: 2, EndByte: 3},
					EnclosingScope: "com.example.Foo.bar",
					Expr:           &parse.Expr{Kind: parse.ExprReceiverlessCall, Name: "baz"},
				},
			},
		},
	}

	p := pipeline.New(pipeline.Config{Workers: 2}, nil)
	asm, global, summary, err := p.Build(context.Background(), "example-repo", files)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.True(t, summary.AssemblySucceeded)
	assert.Equal(t, 1, summary.Processed)
	assert.Empty(t, summary.Errors)

	defRows := asm.Definitions()
	assert.Len(t, defRows, 3)

	found := false
	for _, e := range asm.DefinitionEdges() {
		if e.Kind == graph.KindCalls {
			found = true
		}
	}
	assert.True(t, found, "expected a resolved CALLS edge from bar to baz")
}

func TestPipelineWriteStage(t *testing.T) {
	files := []pipeline.FileInput{
		{
			Path:     "app/user.rb",
			Language: graph.LanguageRuby,
			Definitions: []*parse.DefinitionInfo{
				{
					Language: graph.LanguageRuby, Kind: graph.DefinitionClass,
					FQNParts: []string{"User"}, Name: "User",
					Location: graph.SourceLocation{FilePath: "app/user.rb", Range: graph.Range{EndByte: 1}},
					Class:    &parse.ClassInfo{FQN: "User", SimpleName: "User"},
				},
			},
		},
	}
	p := pipeline.New(pipeline.Config{Workers: 1}, nil)
	ctx := context.Background()
	asm, _, summary, err := p.Build(ctx, "example-repo", files)
	require.NoError(t, err)

	w := write.New(nil, write.WithFS(afs.New()))
	destURL := "mem://localhost/codegraph-pipeline-out"
	require.NoError(t, p.Write(ctx, w, destURL, asm, &summary))
	assert.True(t, summary.WriteSucceeded)

	exists, err := afs.New().Exists(ctx, destURL+"/"+write.DefinitionsFile)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPipelineWriteCancelled(t *testing.T) {
	p := pipeline.New(pipeline.Config{Workers: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	asm, _, summary, err := p.Build(ctx, "example-repo", nil)
	require.NoError(t, err)

	cancel()
	w := write.New(nil, write.WithFS(afs.New()))
	err = p.Write(ctx, w, "mem://localhost/codegraph-cancelled-out", asm, &summary)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, summary.WriteSucceeded)
}

func TestPipelineSkipsUnsupportedLanguage(t *testing.T) {
	files := []pipeline.FileInput{
		{Path: "README.md"},
	}
	p := pipeline.New(pipeline.Config{Workers: 1}, nil)
	_, _, summary, err := p.Build(context.Background(), "example-repo", files)
	require.NoError(t, err)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, parse.SkipUnsupportedLanguage, summary.Skipped[0].Reason)
}
