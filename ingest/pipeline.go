// Package ingest loads course and round workbooks into the database.
//
// Both kinds of workbook go through the same Pipeline:
//
//	load → validate → resolve references → idempotence check → write → archive
//
// One file is processed at a time. A failure aborts only that file, which is
// left in the input directory so it can be fixed and retried; imported and
// skipped files are moved to the processed directory.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/padraicbc/golfstats/workbook"
)

// Importer adapts one aggregate kind to the pipeline.
type Importer[T any] interface {
	// Kind names the aggregate in logs, e.g. "course".
	Kind() string
	// Sheets lists the sheets a workbook must contain.
	Sheets() []string
	// Parse validates the workbook and builds the aggregate. No I/O.
	Parse(wb *workbook.Workbook) (*T, error)
	// Key returns the aggregate's natural key.
	Key(agg *T) string
	// Resolve fills in references to already stored rows.
	Resolve(ctx context.Context, agg *T) error
	// Exists reports whether the natural key is already stored.
	Exists(ctx context.Context, agg *T) (bool, error)
	// Write stores the aggregate atomically. It returns ErrAlreadyExists if
	// the natural key turned out to be taken.
	Write(ctx context.Context, agg *T) error
	// Rows counts the rows Write inserts.
	Rows(agg *T) int
}

// Outcome is the terminal state of one file.
type Outcome int

const (
	Failed Outcome = iota
	Imported
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Imported:
		return "imported"
	case Skipped:
		return "skipped (duplicate)"
	default:
		return "failed"
	}
}

// Result reports what happened to one input file.
type Result struct {
	File    string
	Outcome Outcome
	Key     string
	Rows    int
	// Archived is where the file was moved, empty if it stayed put.
	Archived string
	Err      error
}

func (r Result) String() string {
	switch r.Outcome {
	case Imported:
		return fmt.Sprintf("%s: imported %s (%d rows)", r.File, r.Key, r.Rows)
	case Skipped:
		return fmt.Sprintf("%s: skipped %s, already exists", r.File, r.Key)
	default:
		return fmt.Sprintf("%s: failed: %v", r.File, r.Err)
	}
}

// Pipeline runs workbooks of one kind through an Importer.
type Pipeline[T any] struct {
	fs       afero.Fs
	importer Importer[T]
	archiver *Archiver
	logger   *zap.Logger
}

// NewPipeline wires an importer to the filesystem it reads from and the
// archiver that moves finished files.
func NewPipeline[T any](fs afero.Fs, importer Importer[T], archiver *Archiver, logger *zap.Logger) *Pipeline[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline[T]{
		fs:       fs,
		importer: importer,
		archiver: archiver,
		logger:   logger.With(zap.String("kind", importer.Kind())),
	}
}

// Run imports every file in dir matching pattern, in name order. Files whose
// name matches any of exclude are left alone. The returned error is only
// for problems listing the directory; per-file failures are in the results.
func (p *Pipeline[T]) Run(ctx context.Context, dir, pattern string, exclude ...string) ([]Result, error) {
	files, err := p.inputs(dir, pattern, exclude)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, filepath.Join(dir, pattern))
	}

	results := make([]Result, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, p.ImportFile(ctx, path))
	}
	return results, nil
}

func (p *Pipeline[T]) inputs(dir, pattern string, exclude []string) ([]string, error) {
	matches, err := afero.Glob(p.fs, filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	files := matches[:0]
	for _, path := range matches {
		name := filepath.Base(path)
		// Excel leaves "~$name.xlsx" lock files next to open workbooks
		if strings.HasPrefix(name, "~$") || excluded(name, exclude) {
			continue
		}
		if info, err := p.fs.Stat(path); err != nil || info.IsDir() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func excluded(name string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// ImportFile runs one file through the pipeline. The file is archived if and
// only if it was imported or skipped as a duplicate.
func (p *Pipeline[T]) ImportFile(ctx context.Context, path string) Result {
	res := Result{File: filepath.Base(path)}
	err := p.process(ctx, path, &res)

	switch {
	case err == nil:
		res.Outcome = Imported
	case errors.Is(err, ErrAlreadyExists):
		res.Outcome = Skipped
	default:
		res.Outcome = Failed
		res.Err = err
		p.logger.Warn("import failed", zap.String("file", path), zap.String("key", res.Key), zap.Error(err))
		return res
	}

	dst, err := p.archiver.Archive(path)
	if err != nil {
		// committed but not archived: the next run will skip it and retry the move
		res.Outcome = Failed
		res.Err = fmt.Errorf("archive: %w", err)
		p.logger.Error("archive failed", zap.String("file", path), zap.String("key", res.Key), zap.Error(err))
		return res
	}
	res.Archived = dst

	p.logger.Info("import done",
		zap.String("file", path),
		zap.String("outcome", res.Outcome.String()),
		zap.String("key", res.Key),
		zap.Int("rows", res.Rows),
		zap.String("archived", dst),
	)
	return res
}

func (p *Pipeline[T]) process(ctx context.Context, path string, res *Result) error {
	wb, err := workbook.LoadFile(p.fs, path, p.importer.Sheets()...)
	if err != nil {
		return err
	}

	agg, err := p.importer.Parse(wb)
	if err != nil {
		return err
	}
	res.Key = p.importer.Key(agg)

	if err := p.importer.Resolve(ctx, agg); err != nil {
		return err
	}

	exists, err := p.importer.Exists(ctx, agg)
	if err != nil {
		return fmt.Errorf("check %s %q: %w", p.importer.Kind(), res.Key, err)
	}
	if exists {
		return ErrAlreadyExists
	}

	if err := p.importer.Write(ctx, agg); err != nil {
		return err
	}
	res.Rows = p.importer.Rows(agg)
	return nil
}
