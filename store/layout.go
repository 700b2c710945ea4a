// Package store implements the narrow slice of the out-of-scope
// workspace/project registry the writer actually needs: where to put a
// project's output (spec.md §6 "Persisted state layout"). It is not a
// general registry -- just a deterministic path derivation -- which is
// why it lives at the interface boundary spec.md §1 reserves for that
// collaborator rather than as a full implementation of it.
package store

import (
	"encoding/binary"
	"path"

	"github.com/cespare/xxhash/v2"
)

// ProjectPaths derives `<data-root>/<workspace-hash>/<project-hash>/`
// from a data root and the canonicalized workspace/project paths
// (spec.md §6). The hashes use xxhash rather than graph.Hash's
// highwayhash: this is a short, fast path-keying job (directory-name
// derivation), not a content fingerprint needing a stable dedup digest --
// the corpus itself splits these two hash jobs across two different
// libraries (DESIGN.md), and this is the xxhash one.
type ProjectPaths struct {
	DataRoot      string
	WorkspacePath string
	ProjectPath   string
}

// WorkspaceHash returns the stable hex digest of the canonicalized
// workspace path.
func (p ProjectPaths) WorkspaceHash() string {
	return hashPath(canonicalize(p.WorkspacePath))
}

// ProjectHash returns the stable hex digest of the canonicalized project
// path.
func (p ProjectPaths) ProjectHash() string {
	return hashPath(canonicalize(p.ProjectPath))
}

// Dir returns the per-project output directory:
// `<data-root>/<workspace-hash>/<project-hash>`. Deleting this directory
// forces a full rebuild on the next run (spec.md §6).
func (p ProjectPaths) Dir() string {
	return path.Join(p.DataRoot, p.WorkspaceHash(), p.ProjectHash())
}

// canonicalize normalizes a path for stable hashing: cleaned, forward
// slashes, no trailing slash (matching path.Clean's own convention).
func canonicalize(p string) string {
	return path.Clean(p)
}

func hashPath(p string) string {
	sum := xxhash.Sum64String(p)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], sum)
	return hexEncode(buf[:])
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
