package index

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/codegraph/graph"
)

const definitionShards = 16

// definitionShard is one stripe of the global definition table: an
// append-only map guarded by its own lock, so that merging N files'
// per-file indexes in parallel only contends within a shard (spec.md §5
// "amortized-lock-free scheme (per-kind append-only maps with
// shard-striped write locks); readers are lock-free once the merge is
// complete").
type definitionShard struct {
	mu   sync.RWMutex
	defs map[string]*graph.DefinitionNode
}

func shardIndex(fqn string) int {
	var h uint32 = 2166136261
	for i := 0; i < len(fqn); i++ {
		h ^= uint32(fqn[i])
		h *= 16777619
	}
	return int(h % definitionShards)
}

// GlobalIndex is the read-only (from the resolvers' perspective) union of
// every file's per-file index in a project (spec.md §4.2).
type GlobalIndex struct {
	shards [definitionShards]*definitionShard

	filesMu      sync.RWMutex
	files        map[string]*FileIndex // path -> file index
	packageFiles map[string][]string   // package name -> file paths

	funcsMu         sync.RWMutex
	functionsByName map[string][]*graph.DefinitionNode

	tree *OptimizedFileTree

	sealed bool
}

// NewGlobalIndex returns an empty, mutable global index. Call Seal once
// every file of the project has been merged in; after that, Lookup et al.
// may be called concurrently from resolver goroutines without further
// locking overhead on the read path.
func NewGlobalIndex() *GlobalIndex {
	g := &GlobalIndex{
		files:           map[string]*FileIndex{},
		packageFiles:    map[string][]string{},
		functionsByName: map[string][]*graph.DefinitionNode{},
	}
	for i := range g.shards {
		g.shards[i] = &definitionShard{defs: map[string]*graph.DefinitionNode{}}
	}
	return g
}

// Merge folds one file's per-file index into the global index. Safe to
// call concurrently from multiple file-indexing goroutines (spec.md §5
// "Parallelism is per file... merged into the global index under an
// amortized-lock-free scheme").
func (g *GlobalIndex) Merge(fi *FileIndex) {
	g.filesMu.Lock()
	g.files[fi.Path] = fi
	if fi.Package != "" {
		g.packageFiles[fi.Package] = append(g.packageFiles[fi.Package], fi.Path)
	}
	g.filesMu.Unlock()

	for fqn, def := range fi.Definitions {
		shard := g.shards[shardIndex(fqn)]
		shard.mu.Lock()
		if existing, ok := shard.defs[fqn]; ok {
			// keep first-seen primary location; total_locations already
			// accumulated per-file, so add this file's count onward.
			if existing != def {
				existing.TotalLocations += def.TotalLocations
			}
		} else {
			shard.defs[fqn] = def
		}
		shard.mu.Unlock()

		if def.Kind == graph.DefinitionFunction || def.Kind == graph.DefinitionMethod {
			g.funcsMu.Lock()
			g.functionsByName[def.Name] = append(g.functionsByName[def.Name], def)
			g.funcsMu.Unlock()
		}
	}
}

// Seal finalizes the file-path set used for the optimized file tree.
// Call once after every file has been merged (spec.md §4.2 "After
// construction it is read-only from resolvers' perspective").
func (g *GlobalIndex) Seal() {
	g.filesMu.Lock()
	paths := make([]string, 0, len(g.files))
	for p := range g.files {
		paths = append(paths, p)
	}
	g.filesMu.Unlock()
	g.tree = NewOptimizedFileTree(paths)
	g.sealed = true
}

// Lookup resolves a definition FQN to its node.
func (g *GlobalIndex) Lookup(fqn string) (*graph.DefinitionNode, bool) {
	shard := g.shards[shardIndex(fqn)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	def, ok := shard.defs[fqn]
	return def, ok
}

// FilesInPackage returns the file paths belonging to a package.
func (g *GlobalIndex) FilesInPackage(pkg string) []string {
	g.filesMu.RLock()
	defer g.filesMu.RUnlock()
	return append([]string(nil), g.packageFiles[pkg]...)
}

// FunctionsNamed is the last-resort fallback lookup for receiverless
// calls that cannot be matched against any scope or import (spec.md §4.2,
// §4.3 "Receiverless call").
func (g *GlobalIndex) FunctionsNamed(name string) []*graph.DefinitionNode {
	g.funcsMu.RLock()
	defer g.funcsMu.RUnlock()
	return append([]*graph.DefinitionNode(nil), g.functionsByName[name]...)
}

// File returns the per-file index for path, if present.
func (g *GlobalIndex) File(path string) (*FileIndex, bool) {
	g.filesMu.RLock()
	defer g.filesMu.RUnlock()
	fi, ok := g.files[path]
	return fi, ok
}

// Tree returns the optimized file tree built at Seal time.
func (g *GlobalIndex) Tree() *OptimizedFileTree { return g.tree }

// AllDefinitions returns every definition node across all shards, sorted
// by FQN by the caller if determinism is required (the assembler sorts
// before ID assignment per spec.md §5).
func (g *GlobalIndex) AllDefinitions() []*graph.DefinitionNode {
	var out []*graph.DefinitionNode
	for _, shard := range g.shards {
		shard.mu.RLock()
		for _, def := range shard.defs {
			out = append(out, def)
		}
		shard.mu.RUnlock()
	}
	return out
}

// OptimizedFileTree provides case-folded file lookup and precomputed
// directory/root-directory sets (spec.md §3, §9), grounded on
// original_source's Rust OptimizedFileTree.
type OptimizedFileTree struct {
	normalized map[string]string // lowercased path -> original path
	dirs       map[string]bool
	rootDirs   map[string]bool
}

// NewOptimizedFileTree builds the tree from a project's file paths.
func NewOptimizedFileTree(paths []string) *OptimizedFileTree {
	t := &OptimizedFileTree{
		normalized: map[string]string{},
		dirs:       map[string]bool{},
		rootDirs:   map[string]bool{},
	}
	shortest := ""
	for _, p := range paths {
		t.normalized[strings.ToLower(p)] = p
		dir := path.Dir(p)
		t.dirs[dir] = true
		if shortest == "" || len(dir) < len(shortest) {
			shortest = dir
		}
	}
	if shortest != "" {
		t.rootDirs[shortest] = true
	}
	// package-root heuristic: a directory containing __init__.py implies
	// its parent is a plausible package root.
	for _, original := range t.normalized {
		if strings.HasSuffix(original, "__init__.py") {
			dir := path.Dir(original)
			parent := path.Dir(dir)
			t.rootDirs[parent] = true
		}
	}
	return t
}

// Denormalize returns the original-cased path for a lowercased lookup.
func (t *OptimizedFileTree) Denormalize(lower string) (string, bool) {
	p, ok := t.normalized[lower]
	return p, ok
}

// ResolveModule maps a dotted module path ("pkg.mod") to a project file
// via case-folded lookup, probing the path as written and then under
// each candidate root directory, for both "pkg/mod.py" and
// "pkg/mod/__init__.py" layouts. Roots are probed in sorted order so
// the result does not depend on map iteration.
func (t *OptimizedFileTree) ResolveModule(modulePath string) (string, bool) {
	rel := strings.ReplaceAll(modulePath, ".", "/")
	candidates := []string{rel + ".py", path.Join(rel, "__init__.py")}
	for _, c := range candidates {
		if p, ok := t.Denormalize(strings.ToLower(c)); ok {
			return p, true
		}
	}
	roots := make([]string, 0, len(t.rootDirs))
	for root := range t.rootDirs {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	for _, root := range roots {
		for _, c := range candidates {
			if p, ok := t.Denormalize(strings.ToLower(path.Join(root, c))); ok {
				return p, true
			}
		}
	}
	return "", false
}

// Dirs returns the set of directories observed across all files.
func (t *OptimizedFileTree) Dirs() map[string]bool { return t.dirs }

// RootDirs returns the precomputed candidate root directories.
func (t *OptimizedFileTree) RootDirs() map[string]bool { return t.rootDirs }
