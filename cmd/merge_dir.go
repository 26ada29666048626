package cmd

import (
	"context"
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/zedseven/vanilla/internal/charm/styles"
	"github.com/zedseven/vanilla/internal/log"
	"github.com/zedseven/vanilla/internal/model"
	"github.com/zedseven/vanilla/internal/model/flag"
	"github.com/zedseven/vanilla/pkg/merge"
)

type MergeDirFlags struct {
	Base        string `json:"base"`
	New         string `json:"new"`
	Out         string `json:"out"`
	Concurrency int    `json:"concurrency"`
}

var mergeDirCmd = model.ExecutableCommand[MergeDirFlags]{
	Usage: "merge-dir",
	Short: "Merge every configured .meta file in a directory",
	Long: `Merge every file directly inside --new that has a schema entry and a file of the same name in --base.
Merged files are written to --out under their own names. Files that cannot be merged are reported and skipped;
a failure in one file does not stop the others.`,
	Flags: []flag.Flag{
		flag.StringFlag{
			Name:        "base",
			Shorthand:   "b",
			Description: "directory holding the base files",
			Required:    true,
			Directory:   true,
		},
		flag.StringFlag{
			Name:        "new",
			Shorthand:   "n",
			Description: "directory holding the files whose entries are added",
			Required:    true,
			Directory:   true,
		},
		flag.StringFlag{
			Name:        "out",
			Shorthand:   "o",
			Description: "directory to write merged files to",
			Required:    true,
			Directory:   true,
		},
		flag.IntFlag{
			Name:         "concurrency",
			Shorthand:    "c",
			Description:  "maximum number of files merged at once",
			DefaultValue: 4,
		},
	},
	PreRun: func(cmd *cobra.Command, flags *MergeDirFlags) error {
		if flags.Concurrency < 1 {
			return errors.New("--concurrency must be at least 1")
		}
		return nil
	},
	Run: runMergeDir,
}

func runMergeDir(ctx context.Context, flags MergeDirFlags) error {
	logger := log.From(ctx)

	schema, err := loadSchema(ctx)
	if err != nil {
		return err
	}

	report, err := merge.MergeDir(ctx, schema, flags.Base, flags.New, flags.Out, merge.DirOptions{
		Concurrency: flags.Concurrency,
		LockOutput:  lockOutput,
	})
	if report == nil {
		return err
	}

	for _, s := range report.Skipped {
		logger.PrintfStyled(styles.DimmedItalic, "Skipped %s: %s", s.Name, s.Reason)
	}

	written := lo.SumBy(report.Merged, func(r *merge.Result) int64 {
		return r.BytesWritten
	})
	if len(report.Merged) > 0 {
		logger.Successf("Merged %d files into %s (%s)", len(report.Merged), flags.Out, humanize.Bytes(uint64(written)))
	}

	return err
}
