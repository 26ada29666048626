// Package merge appends the list entries of an "additive" .meta file into a
// "base" file of the same name, under the parent tags a schema configures for
// that file name.
//
// A merge runs in order and stops at the first failure:
//  1. both paths must end in the same file name,
//  2. that name must have a schema entry,
//  3. the additive file is parsed and its entries harvested,
//  4. the base file is parsed and the entries spliced in,
//  5. the base tree is written to the output path.
//
// Nothing is written unless steps 1-4 succeed. A failure while writing may
// leave a truncated output file behind.
package merge

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/zedseven/vanilla/internal/log"
	"github.com/zedseven/vanilla/internal/utils"
	"github.com/zedseven/vanilla/pkg/metaxml"
	"go.uber.org/zap"
)

// Result describes a completed merge.
type Result struct {
	FileName     string
	OutPath      string
	Stats        Stats
	BytesWritten int64
}

// Merge merges additivePath into basePath and writes the result to outPath,
// creating or truncating it.
func Merge(ctx context.Context, schema Schema, basePath, additivePath, outPath string) error {
	_, err := MergeWithResult(ctx, schema, basePath, additivePath, outPath)
	return err
}

// MergeWithResult is Merge, also reporting what was appended and written.
func MergeWithResult(ctx context.Context, schema Schema, basePath, additivePath, outPath string) (*Result, error) {
	name, base, stats, err := prepare(ctx, schema, basePath, additivePath, nil)
	if err != nil {
		return nil, err
	}

	n, err := writeFile(outPath, base)
	if err != nil {
		return nil, err
	}

	log.From(ctx).Info(fmt.Sprintf("Merged %d entries into %s", stats.Total(), outPath),
		zap.String("file", name),
		zap.Int64("bytes", n),
	)

	return &Result{
		FileName:     name,
		OutPath:      outPath,
		Stats:        stats,
		BytesWritten: n,
	}, nil
}

// MergeFilesWithError loads the schema at schemaPath and runs Merge with it.
func MergeFilesWithError(ctx context.Context, schemaPath, basePath, newPath, outPath string) error {
	schema, err := LoadSchema(schemaPath)
	if err != nil {
		return err
	}

	return Merge(ctx, schema, basePath, newPath, outPath)
}

// MergeFiles merges using the schema at DefaultSchemaPath and reports only
// whether it worked. Use MergeFilesWithError to find out why it did not.
func MergeFiles(basePath, newPath, outPath string) bool {
	return MergeFilesWithError(context.Background(), DefaultSchemaPath, basePath, newPath, outPath) == nil
}

// PreviewResult holds the base document and the merged document, both
// serialized with the merge output configuration.
type PreviewResult struct {
	FileName string
	Before   []byte
	After    []byte
	Stats    Stats
}

// Preview runs a merge in memory without writing anything.
func Preview(ctx context.Context, schema Schema, basePath, additivePath string) (*PreviewResult, error) {
	res := &PreviewResult{}

	name, base, stats, err := prepare(ctx, schema, basePath, additivePath, func(base *metaxml.Document) error {
		before, err := metaxml.Marshal(base, metaxml.MetaEmitterConfig)
		if err != nil {
			return newError(KindWrite, basePath, err)
		}
		res.Before = before
		return nil
	})
	if err != nil {
		return nil, err
	}

	after, err := metaxml.Marshal(base, metaxml.MetaEmitterConfig)
	if err != nil {
		return nil, newError(KindWrite, basePath, err)
	}

	res.FileName = name
	res.After = after
	res.Stats = stats

	return res, nil
}

// prepare runs every step short of writing and returns the spliced base
// document. beforeSplice, if set, sees the base document as parsed.
func prepare(ctx context.Context, schema Schema, basePath, additivePath string, beforeSplice func(*metaxml.Document) error) (string, *metaxml.Document, Stats, error) {
	logger := log.From(ctx)

	name, err := resolvePair(basePath, additivePath)
	if err != nil {
		return "", nil, Stats{}, err
	}

	entry, err := schema.Find(name)
	if err != nil {
		return "", nil, Stats{}, err
	}
	logger = logger.With(zap.String("file", name))
	if n := schema.Count(name); n > 1 {
		logger.Warnf("Schema declares %s %d times; using the first entry", name, n)
	}

	additive, err := parseFile(additivePath)
	if err != nil {
		return "", nil, Stats{}, err
	}
	harvested := Harvest(additive, entry.ParentTags)
	for _, h := range harvested {
		if !h.Found {
			logger.Info(fmt.Sprintf("%s has no <%s>; nothing to add for it", additivePath, h.Tag))
		}
	}

	base, err := parseFile(basePath)
	if err != nil {
		return "", nil, Stats{}, err
	}

	if beforeSplice != nil {
		if err := beforeSplice(base); err != nil {
			return "", nil, Stats{}, err
		}
	}

	stats := Splice(base, harvested)
	for _, tag := range stats.Skipped {
		logger.Info(fmt.Sprintf("%s has no <%s>; its additive entries were not merged", basePath, tag))
	}

	return name, base, stats, nil
}

func parseFile(path string) (*metaxml.Document, error) {
	doc, err := metaxml.ParseFile(path)
	if err != nil {
		var pErr *metaxml.ParseError
		if errors.As(err, &pErr) {
			return nil, newError(KindParse, path, pErr.Err)
		}
		return nil, newError(KindIO, path, err)
	}
	return doc, nil
}

func writeFile(outPath string, doc *metaxml.Document) (int64, error) {
	if err := utils.CreateDirectory(outPath); err != nil {
		return 0, newError(KindWrite, outPath, err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return 0, newError(KindWrite, outPath, err)
	}

	n, err := metaxml.Write(f, doc, metaxml.MetaEmitterConfig)
	if err != nil {
		_ = f.Close()
		return n, newError(KindWrite, outPath, errors.Wrap(err, "serializing merged document"))
	}
	if err := f.Close(); err != nil {
		return n, newError(KindWrite, outPath, err)
	}

	return n, nil
}
