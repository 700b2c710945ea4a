package write_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	_ "github.com/viant/afs/mem"

	"github.com/viant/codegraph/assemble"
	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/write"
)

func TestCSVEncoderEncodeDirectories(t *testing.T) {
	enc := write.NewCSVEncoder()
	data, err := enc.EncodeDirectories([]assemble.DirectoryRow{
		{ID: 1, Node: &graph.DirectoryNode{Path: "src", Name: "src"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,path,absolute_path,repository_name,name")
	assert.Contains(t, string(data), "1,src,,,src")
}

func TestCSVEncoderEncodeEdgesEmptySite(t *testing.T) {
	enc := write.NewCSVEncoder()
	data, err := enc.EncodeEdges([]graph.Edge{
		{SourceID: 1, TargetID: 2, Kind: graph.KindCalls},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), "1,2,4")
}

func TestWriterCommitRoundTrip(t *testing.T) {
	asm := assemble.New(nil, nil)
	asm.AddFile(&graph.FileNode{Path: "a.go", Name: "a.go"})
	asm.AddDefinition(&graph.DefinitionNode{
		FQN: "pkg.A", Name: "A", Kind: graph.DefinitionClass,
		Primary: graph.SourceLocation{FilePath: "a.go"},
	})
	require.NoError(t, asm.Seal(nil))

	w := write.New(nil, write.WithFS(afs.New()))
	ctx := context.Background()
	destURL := "mem://localhost/codegraph-test-out"

	err := w.Commit(ctx, destURL, asm)
	require.NoError(t, err)

	fs := afs.New()
	exists, err := fs.Exists(ctx, destURL+"/"+write.DefinitionsFile)
	require.NoError(t, err)
	assert.True(t, exists)
}
