package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/graph"
)

func TestKindDictionarySeeded(t *testing.T) {
	d := graph.NewKindDictionary()
	assert.Equal(t, "CALLS", d.Name(graph.KindCalls))
	assert.Equal(t, "DIR_CONTAINS_FILE", d.Name(graph.KindDirContainsFile))

	k, err := d.Intern("CALLS")
	require.NoError(t, err)
	assert.Equal(t, graph.KindCalls, k)
}

func TestKindDictionaryInternNewKind(t *testing.T) {
	d := graph.NewKindDictionary()
	k, err := d.Intern("CLASS_TO_PROPERTY")
	require.NoError(t, err)
	assert.Equal(t, "CLASS_TO_PROPERTY", d.Name(k))

	// re-interning the same name returns the same tag
	k2, err := d.Intern("CLASS_TO_PROPERTY")
	require.NoError(t, err)
	assert.Equal(t, k, k2)
}

func TestKindDictionaryOverflow(t *testing.T) {
	d := graph.NewKindDictionary()
	var lastErr error
	for i := 0; i < 300; i++ {
		_, err := d.Intern(string(rune('a')) + itoa(i))
		if err != nil {
			lastErr = err
			break
		}
	}
	require.Error(t, lastErr)
	assert.Equal(t, graph.ErrKindOverflow, lastErr)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func TestEndpointKinds(t *testing.T) {
	source, target, ok := graph.EndpointKinds(graph.KindFileImports)
	require.True(t, ok)
	assert.Equal(t, graph.NodeFile, source)
	assert.Equal(t, graph.NodeImportedSymbol, target)
}

func TestImportedSymbolNodeLocalName(t *testing.T) {
	aliased := &graph.ImportedSymbolNode{
		ImportPath: "pkg/foo",
		Identifier: &graph.ImportIdentifier{Name: "foo", Alias: "f"},
	}
	assert.Equal(t, "f", aliased.LocalName())

	named := &graph.ImportedSymbolNode{
		ImportPath: "pkg/foo",
		Identifier: &graph.ImportIdentifier{Name: "foo"},
	}
	assert.Equal(t, "foo", named.LocalName())

	bare := &graph.ImportedSymbolNode{ImportPath: "pkg/foo"}
	assert.Equal(t, "foo", bare.LocalName())
}
