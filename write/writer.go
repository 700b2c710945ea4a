// Package write implements the writer boundary (spec.md §4.5/§6): given
// the assembler's sealed node/edge tables, it emits deterministically
// named columnar files plus a kind-dictionary JSON sidecar, committing
// them atomically via a temp-file-then-rename so a failed write never
// leaves partial output in place.
//
// No Parquet/Arrow library appears anywhere in the retrieved corpus (see
// DESIGN.md), so the default Encoder renders the columnar node/edge
// tables as CSV and the kind dictionary as JSON -- both are the wire
// formats spec.md §6 itself names, not a "library concern" the corpus
// otherwise covers. Encoder is the pluggable seam spec.md §1 calls out
// ("the columnar writer... specified only at their interface boundary"):
// swapping in a real Parquet encoder later only means implementing this
// interface.
package write

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/viant/codegraph/assemble"
	"github.com/viant/codegraph/graph"
)

// Output filenames, fixed per spec.md §4.5.
const (
	DirectoriesFile     = "directories.parquet"
	FilesFile           = "files.parquet"
	DefinitionsFile     = "definitions.parquet"
	ImportedSymbolsFile = "imported_symbols.parquet"
	DirectoryEdgesFile  = "directory_edges.parquet"
	FileEdgesFile       = "file_edges.parquet"
	DefinitionEdgesFile = "definition_edges.parquet"
	KindDictionaryFile  = "kind_dictionary.json"
)

// Encoder renders one named table (a node or edge table) to bytes. The
// default CSVEncoder satisfies spec.md §6's fixed logical schemas using
// stdlib encoding/csv; a Parquet/Arrow-backed Encoder is a drop-in
// replacement at this seam.
type Encoder interface {
	EncodeDirectories(rows []assemble.DirectoryRow) ([]byte, error)
	EncodeFiles(rows []assemble.FileRow) ([]byte, error)
	EncodeDefinitions(rows []assemble.DefinitionRow) ([]byte, error)
	EncodeImportedSymbols(rows []assemble.ImportedSymbolRow) ([]byte, error)
	EncodeEdges(edges []graph.Edge) ([]byte, error)
}

// Writer commits an assembled project graph to a destination directory
// URL using afs, exactly as the teacher's analyzer.Analyzer.fs reads
// source files (no direct os.WriteFile calls in analysis code).
type Writer struct {
	fs      afs.Service
	encoder Encoder
	log     *logrus.Entry
}

// Option configures a Writer, mirroring the teacher's functional-options
// idiom (analyzer/option.go).
type Option func(*Writer)

// WithEncoder overrides the default CSV/JSON encoder.
func WithEncoder(e Encoder) Option {
	return func(w *Writer) { w.encoder = e }
}

// WithFS overrides the afs.Service used for commits (tests inject an
// in-memory or mem:// backed service).
func WithFS(fs afs.Service) Option {
	return func(w *Writer) { w.fs = fs }
}

// New returns a Writer using afs.New() and CSVEncoder unless overridden.
func New(log *logrus.Entry, opts ...Option) *Writer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	w := &Writer{fs: afs.New(), encoder: NewCSVEncoder(), log: log}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Commit writes every table from asm into destURL (a directory URL, per
// spec.md §6's persisted-state-layout). Each table is written to a "<name>.tmp"
// object first and renamed into place only once it has been fully
// written, so a crash mid-write never leaves a half-written table at its
// final name (spec.md §4.5 "the writer must be idempotent"; §7 "Writer
// errors... outputs are not committed (temp files are removed)").
func (w *Writer) Commit(ctx context.Context, destURL string, asm *assemble.Assembler) error {
	tables := []struct {
		name string
		data func() ([]byte, error)
	}{
		{DirectoriesFile, func() ([]byte, error) { return w.encoder.EncodeDirectories(asm.Directories()) }},
		{FilesFile, func() ([]byte, error) { return w.encoder.EncodeFiles(asm.Files()) }},
		{DefinitionsFile, func() ([]byte, error) { return w.encoder.EncodeDefinitions(asm.Definitions()) }},
		{ImportedSymbolsFile, func() ([]byte, error) { return w.encoder.EncodeImportedSymbols(asm.Imports()) }},
		{DirectoryEdgesFile, func() ([]byte, error) { return w.encoder.EncodeEdges(asm.DirectoryEdges()) }},
		{FileEdgesFile, func() ([]byte, error) { return w.encoder.EncodeEdges(asm.FileEdges()) }},
		{DefinitionEdgesFile, func() ([]byte, error) { return w.encoder.EncodeEdges(asm.DefinitionEdges()) }},
	}

	var committed []string
	for _, t := range tables {
		data, err := t.data()
		if err != nil {
			w.rollback(ctx, destURL, committed)
			return errors.Wrapf(err, "codegraph/write: encoding %s", t.name)
		}
		if err := w.commitOne(ctx, destURL, t.name, data); err != nil {
			w.rollback(ctx, destURL, committed)
			return errors.Wrapf(err, "codegraph/write: committing %s", t.name)
		}
		committed = append(committed, t.name)
	}

	dictJSON, err := json.Marshal(asm.Dictionary().AsMap())
	if err != nil {
		w.rollback(ctx, destURL, committed)
		return errors.Wrap(err, "codegraph/write: encoding kind dictionary")
	}
	if err := w.commitOne(ctx, destURL, KindDictionaryFile, dictJSON); err != nil {
		w.rollback(ctx, destURL, committed)
		return errors.Wrap(err, "codegraph/write: committing kind dictionary")
	}
	return nil
}

// commitOne uploads data to a "<name>.tmp" object and moves it into
// place at "<name>", so readers never observe a partially written table.
// Each table's content digest is logged so two runs over identical inputs
// can be checked for byte-identical outputs without diffing the files.
func (w *Writer) commitOne(ctx context.Context, destURL, name string, data []byte) error {
	if digest, err := graph.Hash(data); err == nil {
		w.log.WithField("table", name).WithField("digest", fmt.Sprintf("%016x", digest)).
			Debug("codegraph/write: table encoded")
	}
	tmpURL := url.Join(destURL, name+".tmp")
	finalURL := url.Join(destURL, name)
	if err := w.fs.Upload(ctx, tmpURL, file0644, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := w.fs.Move(ctx, tmpURL, finalURL); err != nil {
		_ = w.fs.Delete(ctx, tmpURL)
		return err
	}
	return nil
}

// rollback removes any table already committed for this project build,
// per spec.md §7 "outputs are not committed (temp files are removed)" --
// a later table's encode/commit failure must not leave an inconsistent
// partial graph behind.
func (w *Writer) rollback(ctx context.Context, destURL string, committed []string) {
	for _, name := range committed {
		if err := w.fs.Delete(ctx, url.Join(destURL, name)); err != nil {
			w.log.WithField("stage", "write").WithError(err).Warn("codegraph/write: rollback delete failed")
		}
	}
}

const file0644 = os.FileMode(0644)

// CSVEncoder is the default Encoder (spec.md §4.5; no Parquet/Arrow
// library in the retrieved corpus, see DESIGN.md).
type CSVEncoder struct{}

func NewCSVEncoder() *CSVEncoder { return &CSVEncoder{} }

func (CSVEncoder) EncodeDirectories(rows []assemble.DirectoryRow) ([]byte, error) {
	return writeCSV([]string{"id", "path", "absolute_path", "repository_name", "name"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{itoa(r.ID), r.Node.Path, r.Node.AbsolutePath, r.Node.RepositoryName, r.Node.Name}
	})
}

func (CSVEncoder) EncodeFiles(rows []assemble.FileRow) ([]byte, error) {
	return writeCSV([]string{"id", "path", "absolute_path", "language", "repository_name", "extension", "name"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{itoa(r.ID), r.Node.Path, r.Node.AbsolutePath, string(r.Node.Language), r.Node.RepositoryName, r.Node.Extension, r.Node.Name}
	})
}

func (CSVEncoder) EncodeDefinitions(rows []assemble.DefinitionRow) ([]byte, error) {
	return writeCSV([]string{
		"id", "fqn", "name", "definition_type", "primary_file_path",
		"primary_start_byte", "primary_end_byte", "primary_line_number", "total_locations",
	}, len(rows), func(i int) []string {
		r := rows[i]
		n := r.Node
		return []string{
			itoa(r.ID), n.FQN, n.Name, string(n.Kind), n.Primary.FilePath,
			itoa(uint32(n.Primary.Range.StartByte)), itoa(uint32(n.Primary.Range.EndByte)),
			itoa(uint32(n.Primary.Range.Start.Line)), itoa(uint32(n.TotalLocations)),
		}
	})
}

func (CSVEncoder) EncodeImportedSymbols(rows []assemble.ImportedSymbolRow) ([]byte, error) {
	return writeCSV([]string{
		"id", "import_type", "import_path", "name", "alias", "file_path",
		"start_line", "end_line", "start_col", "end_col", "start_byte", "end_byte",
	}, len(rows), func(i int) []string {
		r := rows[i]
		n := r.Node
		var name, alias string
		if n.Identifier != nil {
			name, alias = n.Identifier.Name, n.Identifier.Alias
		}
		return []string{
			itoa(r.ID), string(n.Kind), n.ImportPath, name, alias, n.Location.FilePath,
			itoa(uint32(n.Location.Range.Start.Line)), itoa(uint32(n.Location.Range.End.Line)),
			itoa(uint32(n.Location.Range.Start.Column)), itoa(uint32(n.Location.Range.End.Column)),
			itoa(uint32(n.Location.Range.StartByte)), itoa(uint32(n.Location.Range.EndByte)),
		}
	})
}

func (CSVEncoder) EncodeEdges(edges []graph.Edge) ([]byte, error) {
	return writeCSV([]string{
		"source_id", "target_id", "type", "source_file_path",
		"source_start_byte", "source_end_byte", "source_start_line", "source_end_line",
		"source_start_col", "source_end_col",
	}, len(edges), func(i int) []string {
		e := edges[i]
		row := []string{itoa(e.SourceID), itoa(e.TargetID), itoa(uint32(e.Kind))}
		if e.Site == nil {
			return append(row, "", "", "", "", "", "")
		}
		return append(row,
			e.Site.FilePath,
			itoa(uint32(e.Site.Range.StartByte)), itoa(uint32(e.Site.Range.EndByte)),
			itoa(uint32(e.Site.Range.Start.Line)), itoa(uint32(e.Site.Range.End.Line)),
			itoa(uint32(e.Site.Range.Start.Column)), itoa(uint32(e.Site.Range.End.Column)),
		)
	})
}

func writeCSV(header []string, n int, row func(i int) []string) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func itoa(n uint32) string { return strconv.FormatUint(uint64(n), 10) }
