package merge

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

const defaultDirConcurrency = 4

type DirOptions struct {
	// Concurrency bounds the number of files merged at once. Zero means 4.
	Concurrency int
	// LockOutput, if set, is held around the merge of each output file.
	LockOutput  func(ctx context.Context, outPath string) (unlock func(), err error)
}

// SkippedFile is an additive file MergeDir did not merge.
type SkippedFile struct {
	Name   string
	Reason string
}

// DirReport lists what MergeDir did, sorted by file name.
type DirReport struct {
	Merged  []*Result
	Skipped []SkippedFile
}

// MergeDir merges every file directly inside additiveDir that has a schema
// entry and a same-named file in baseDir into outDir. Each file gets its own
// output path, so files are merged concurrently. One file failing does not
// stop the others; all failures are returned together.
func MergeDir(ctx context.Context, schema Schema, baseDir, additiveDir, outDir string, opts DirOptions) (*DirReport, error) {
	entries, err := os.ReadDir(additiveDir)
	if err != nil {
		return nil, newError(KindIO, additiveDir, err)
	}

	report := &DirReport{}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()

		if _, err := schema.Find(name); err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Name: name, Reason: "not in schema"})
			continue
		}
		if _, err := os.Stat(filepath.Join(baseDir, name)); err != nil {
			if !os.IsNotExist(err) {
				return nil, newError(KindIO, filepath.Join(baseDir, name), err)
			}
			report.Skipped = append(report.Skipped, SkippedFile{Name: name, Reason: "no base file"})
			continue
		}

		names = append(names, name)
	}

	if len(names) > 0 {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, newError(KindWrite, outDir, err)
		}
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultDirConcurrency
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		result *multierror.Error
	)
	g.SetLimit(limit)

	for _, name := range names {
		g.Go(func() error {
			res, err := mergeLocked(ctx, schema,
				filepath.Join(baseDir, name),
				filepath.Join(additiveDir, name),
				filepath.Join(outDir, name),
				opts.LockOutput,
			)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result = multierror.Append(result, err)
				return nil
			}
			report.Merged = append(report.Merged, res)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(report.Merged, func(a, b *Result) int {
		return strings.Compare(a.FileName, b.FileName)
	})
	slices.SortFunc(report.Skipped, func(a, b SkippedFile) int {
		return strings.Compare(a.Name, b.Name)
	})

	return report, result.ErrorOrNil()
}

func mergeLocked(ctx context.Context, schema Schema, basePath, additivePath, outPath string, lock func(context.Context, string) (func(), error)) (*Result, error) {
	if lock != nil {
		unlock, err := lock(ctx, outPath)
		if err != nil {
			return nil, newError(KindWrite, outPath, err)
		}
		defer unlock()
	}

	return MergeWithResult(ctx, schema, basePath, additivePath, outPath)
}
