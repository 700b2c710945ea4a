// Package pipeline is the driver tying indexing, resolution, assembly,
// and writing together (spec.md §5 concurrency model, §7 error handling).
// It is the one place that actually runs the four stages in order; every
// other package in this module is a library the driver calls.
//
// Grounded on the teacher's analyzer.Analyzer.AnalyzeDir/analyzePackages
// (afs.Walk-driven fan-out across files) for the per-file parallel stage
// shape, and on analyzer/option.go's AnalyzerPlugin for the
// stage-boundary style. Concurrency uses golang.org/x/sync/errgroup +
// golang.org/x/sync/semaphore (already an indirect teacher dependency,
// promoted to direct here) for the bounded worker pool spec.md §5
// describes; github.com/pkg/errors wraps stage failures; logrus logs the
// per-project summary.
package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/viant/codegraph/assemble"
	"github.com/viant/codegraph/graph"
	"github.com/viant/codegraph/index"
	"github.com/viant/codegraph/parse"
	"github.com/viant/codegraph/resolve"
	"github.com/viant/codegraph/write"
)

// FileInput is one file's Parse Output plus the bookkeeping project
// discovery attaches to it (spec.md §3 "Parse Outputs", §6 "Inputs").
// The parser itself is an external collaborator; the driver only
// consumes its output shape.
type FileInput struct {
	Path        string
	Package     string
	Language    graph.Language
	Size        int64
	Definitions []*parse.DefinitionInfo
	Imports     []*parse.ImportedSymbolInfo
	References  []*parse.Reference
}

// Stage is the closed set of pipeline stages, used both for cancellation
// checks and for per-file error bookkeeping (spec.md §5, §7).
type Stage string

const (
	StageIndex    Stage = "index"
	StageResolve  Stage = "resolve"
	StageAssemble Stage = "assemble"
	StageWrite    Stage = "write"
)

// ErrorCategory is the closed set of per-file error kinds spec.md §7
// distinguishes for the driver's summary.
type ErrorCategory string

const (
	CategoryFileSystem ErrorCategory = "file_system"
	CategoryParsing    ErrorCategory = "parsing"
)

// FileError records one file's failure without failing the whole
// project build (spec.md §7 "Per-file errors are accumulated and
// returned alongside the successful results").
type FileError struct {
	Path     string
	Stage    Stage
	Category ErrorCategory
	Err      error
}

// Skip records a file project discovery declined to process, and why
// (spec.md §6/§7 "Unsupported language... not an error").
type Skip struct {
	Path   string
	Reason parse.SkipReason
}

// Summary is the driver's per-project report (spec.md §7 "user-visible
// behavior"): counts of processed, skipped, and errored files, plus
// whether assembly and writing succeeded.
type Summary struct {
	Processed         int
	Skipped           []Skip
	Errors            []FileError
	AssemblySucceeded bool
	WriteSucceeded    bool
}

// FileSystemErrors and ParseErrors report the per-category counts spec.md
// §7's summary calls for.
func (s Summary) FileSystemErrors() int { return s.countCategory(CategoryFileSystem) }
func (s Summary) ParseErrors() int      { return s.countCategory(CategoryParsing) }

func (s Summary) countCategory(cat ErrorCategory) int {
	n := 0
	for _, e := range s.Errors {
		if e.Category == cat {
			n++
		}
	}
	return n
}

// Config tunes the driver. Workers defaults to runtime.NumCPU when <= 0,
// matching spec.md §5's "default = one per hardware thread".
type Config struct {
	Workers     int
	MaxFileSize int64
	Policy      *resolve.Policy
}

// Pipeline runs the index -> resolve -> assemble stages over a project's
// FileInputs. Writing is deliberately a separate call (write.Writer.Commit)
// so a caller can inspect the assembled graph, or skip writing entirely,
// without the driver owning an afs.Service.
type Pipeline struct {
	cfg     Config
	factory *resolve.Factory
	log     *logrus.Entry
}

// New returns a driver. log may be nil (a discard-to-stderr default is
// used).
func New(cfg Config, log *logrus.Entry) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = parse.DefaultMaxFileSize
	}
	if cfg.Policy == nil {
		cfg.Policy = resolve.DefaultPolicy()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{cfg: cfg, factory: resolve.NewFactory(cfg.Policy), log: log}
}

// Build runs all three in-scope stages (index, resolve, assemble) and
// returns the sealed assembler plus a per-project summary. It checks
// ctx.Err() at each stage boundary (spec.md §5 "a cooperative
// cancellation token checked at file boundaries and at the start of
// each of the four pipeline stages"); on cancellation the partial state
// is discarded and no output is returned.
func (p *Pipeline) Build(ctx context.Context, repositoryName string, files []FileInput) (*assemble.Assembler, *index.GlobalIndex, Summary, error) {
	summary := Summary{}

	if err := ctx.Err(); err != nil {
		return nil, nil, summary, err
	}
	global, skips, errs := p.indexStage(ctx, files)
	summary.Skipped = append(summary.Skipped, skips...)
	summary.Errors = append(summary.Errors, errs...)
	summary.Processed = len(files) - len(skips) - len(errs)

	if err := ctx.Err(); err != nil {
		return nil, nil, summary, err
	}
	global.Seal()

	if err := ctx.Err(); err != nil {
		return nil, nil, summary, err
	}
	relsByFile, resolveErrs := p.resolveStage(ctx, files, global)
	summary.Errors = append(summary.Errors, resolveErrs...)

	if err := ctx.Err(); err != nil {
		return nil, nil, summary, err
	}
	asm, err := p.assembleStage(repositoryName, files, global, relsByFile)
	if err != nil {
		return nil, global, summary, errors.Wrap(err, "codegraph/pipeline: assemble stage")
	}
	summary.AssemblySucceeded = true
	return asm, global, summary, nil
}

// Write runs the final pipeline stage: it checks the cancellation token
// once more (spec.md §5), commits the assembled graph via w, records the
// outcome in summary, and emits the per-project summary line (spec.md §7
// "User-visible behavior").
func (p *Pipeline) Write(ctx context.Context, w *write.Writer, destURL string, asm *assemble.Assembler, summary *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.Commit(ctx, destURL, asm); err != nil {
		p.logSummary(summary)
		return errors.Wrap(err, "codegraph/pipeline: write stage")
	}
	summary.WriteSucceeded = true
	p.logSummary(summary)
	return nil
}

func (p *Pipeline) logSummary(summary *Summary) {
	p.log.WithFields(logrus.Fields{
		"processed":          summary.Processed,
		"skipped":            len(summary.Skipped),
		"errored":            len(summary.Errors),
		"file_system_errors": summary.FileSystemErrors(),
		"parse_errors":       summary.ParseErrors(),
		"assembly_succeeded": summary.AssemblySucceeded,
		"write_succeeded":    summary.WriteSucceeded,
	}).Info("codegraph/pipeline: project build complete")
}

// indexStage builds one FileIndex per file in parallel (bounded by
// cfg.Workers) and merges each into a shared GlobalIndex as it completes
// (spec.md §5 "Parallelism is per file... merged into the global index
// under an amortized-lock-free scheme").
func (p *Pipeline) indexStage(ctx context.Context, files []FileInput) (*index.GlobalIndex, []Skip, []FileError) {
	global := index.NewGlobalIndex()
	sem := semaphore.NewWeighted(int64(p.cfg.Workers))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var skips []Skip
	var errs []FileError

	for _, f := range files {
		f := f
		if f.Size > p.cfg.MaxFileSize {
			skips = append(skips, Skip{Path: f.Path, Reason: parse.SkipTooLarge})
			continue
		}
		if f.Language == graph.LanguageUnknown {
			if _, ok := parse.LanguageForPath(f.Path); !ok {
				skips = append(skips, Skip{Path: f.Path, Reason: parse.SkipUnsupportedLanguage})
				continue
			}
		}

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return nil
			}
			fi, fileErr := p.indexFile(f)
			if fileErr != nil {
				mu.Lock()
				errs = append(errs, *fileErr)
				mu.Unlock()
				return nil
			}
			global.Merge(fi)
			return nil
		})
	}
	_ = g.Wait()
	return global, skips, errs
}

func (p *Pipeline) indexFile(f FileInput) (*index.FileIndex, *FileError) {
	log := p.log.WithField("file", f.Path)
	fi := index.NewFileIndex(f.Path, log)
	fi.AddFile(f.Package)
	for _, def := range f.Definitions {
		fi.AddDefinition(def)
	}
	for _, imp := range f.Imports {
		node := &graph.ImportedSymbolNode{
			Kind:       imp.Kind,
			ImportPath: imp.ImportPath,
			Identifier: imp.Identifier,
			Location:   imp.Location,
		}
		fi.AddImport(node)
	}
	return fi, nil
}

// resolveStage runs each language's resolver over a file's references in
// parallel (bounded by cfg.Workers), each writing into its own buffer
// (spec.md §5 "each file's resolver writes into a thread-local edge
// buffer that is concatenated at the end"). The returned map is keyed by
// file path; assembleStage folds in every file's relationships without
// using the key, since each DEFINES_IMPORTED_SYMBOL relationship already
// names its import site (file and range) in TargetImport.
func (p *Pipeline) resolveStage(ctx context.Context, files []FileInput, global *index.GlobalIndex) (map[string][]graph.Relationship, []FileError) {
	out := make(map[string][]graph.Relationship, len(files))
	sem := semaphore.NewWeighted(int64(p.cfg.Workers))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var errs []FileError

	for _, f := range files {
		f := f
		resolver, err := p.factory.ForFile(f.Path)
		if err != nil {
			continue // unsupported language, already recorded as a skip in indexStage
		}
		fi, ok := global.File(f.Path)
		if !ok {
			continue // dropped during indexing
		}

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if gctx.Err() != nil {
				return nil
			}
			sink := graph.NewBufferedSink()
			for _, ref := range f.References {
				resolver.Resolve(fi, global, ref, sink)
			}
			mu.Lock()
			out[f.Path] = sink.Relationships
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out, errs
}

// assembleStage registers every directory/file/definition/import node
// the project discovered, seals the assembler (which derives the
// structural containment/inheritance edges), and then folds in every
// resolver-emitted relationship (spec.md §4.4).
func (p *Pipeline) assembleStage(repositoryName string, files []FileInput, global *index.GlobalIndex, relsByFile map[string][]graph.Relationship) (*assemble.Assembler, error) {
	asm := assemble.New(nil, p.log)

	for _, f := range files {
		fi, ok := global.File(f.Path)
		if !ok {
			continue
		}
		asm.AddFile(&graph.FileNode{
			Path:           f.Path,
			Language:       f.Language,
			RepositoryName: repositoryName,
			Extension:      fileExt(f.Path),
			Name:           fileBase(f.Path),
		})
		for _, node := range fi.ImportNodes {
			asm.AddImport(node)
		}
	}
	// the global index already merged every file's definitions (and their
	// re-opened-class location counts), so it is the single authority the
	// assembler registers definitions from.
	for _, def := range global.AllDefinitions() {
		asm.AddDefinition(def)
	}

	if err := asm.Seal(global); err != nil {
		return nil, err
	}

	for _, rels := range relsByFile {
		for _, rel := range rels {
			if err := asm.AddRelationship(rel); err != nil {
				return nil, err
			}
		}
	}
	return asm, nil
}

func fileExt(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '.' {
			return p[i:]
		}
		if p[i] == '/' {
			break
		}
	}
	return ""
}

func fileBase(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
