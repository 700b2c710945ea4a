package resolve_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/resolve"
)

func TestDefaultPolicy(t *testing.T) {
	p := resolve.DefaultPolicy()
	assert.True(t, p.EmitChainEdges)
	assert.True(t, p.PythonAmbiguousWildcards)
	assert.Equal(t, 1, p.RubyFilteredMethodsVersion)
}

func TestLoadPolicyOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("emitChainEdges: false\npythonAmbiguousWildcards: false\n"), 0644))

	p, err := resolve.LoadPolicy(path)
	require.NoError(t, err)
	assert.False(t, p.EmitChainEdges)
	assert.False(t, p.PythonAmbiguousWildcards)
	assert.Equal(t, 1, p.RubyFilteredMethodsVersion)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := resolve.LoadPolicy("/nonexistent/policy.yaml")
	assert.Error(t, err)
}
