package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/zedseven/vanilla/internal/charm/styles"
	"github.com/zedseven/vanilla/internal/config"
	"github.com/zedseven/vanilla/internal/locks"
	"github.com/zedseven/vanilla/internal/log"
	"github.com/zedseven/vanilla/internal/model"
	"github.com/zedseven/vanilla/internal/model/flag"
	"github.com/zedseven/vanilla/pkg/merge"
)

const lockRetryDelay = 250 * time.Millisecond

type MergeFlags struct {
	Base   string `json:"base"`
	New    string `json:"new"`
	Out    string `json:"out"`
	DryRun bool   `json:"dry-run"`
}

var mergeCmd = model.ExecutableCommand[MergeFlags]{
	Usage: "merge",
	Short: "Merge a modded .meta file into a base file of the same name",
	Long: `Merge the entries of a modded .meta file into a base file of the same name.

For each parent tag the schema lists for the file name, the children of that tag in the new file
are appended, in order, to the same tag in the base file. Everything else in the base file is kept
as it is. The result is written to --out with CRLF line endings and two-space indentation.`,
	Flags: []flag.Flag{
		flag.StringFlag{
			Name:           "base",
			Shorthand:      "b",
			Description:    "path to the base .meta file",
			Required:       true,
			FileExtensions: []string{"meta", "xml"},
		},
		flag.StringFlag{
			Name:           "new",
			Shorthand:      "n",
			Description:    "path to the .meta file whose entries are added",
			Required:       true,
			FileExtensions: []string{"meta", "xml"},
		},
		flag.StringFlag{
			Name:        "out",
			Shorthand:   "o",
			Description: "path to write the merged file to, required unless --dry-run is set",
		},
		flag.BooleanFlag{
			Name:        "dry-run",
			Description: "show what the merge would change without writing anything",
		},
	},
	PreRun: func(cmd *cobra.Command, flags *MergeFlags) error {
		if flags.Out == "" && !flags.DryRun {
			return errors.New(`required flag(s) "out" not set`)
		}
		return nil
	},
	Run: runMerge,
}

func runMerge(ctx context.Context, flags MergeFlags) error {
	schema, err := loadSchema(ctx)
	if err != nil {
		return err
	}

	if flags.DryRun {
		return previewMerge(ctx, schema, flags)
	}

	unlock, err := lockOutput(ctx, flags.Out)
	if err != nil {
		return err
	}
	defer unlock()

	res, err := merge.MergeWithResult(ctx, schema, flags.Base, flags.New, flags.Out)
	if err != nil {
		return err
	}

	log.From(ctx).Successf("Merged %d entries into %s (%s)", res.Stats.Total(), res.OutPath, humanize.Bytes(uint64(res.BytesWritten)))

	return nil
}

func previewMerge(ctx context.Context, schema merge.Schema, flags MergeFlags) error {
	logger := log.From(ctx)

	res, err := merge.Preview(ctx, schema, flags.Base, flags.New)
	if err != nil {
		return err
	}

	diff := renderDiff(lineDiff(res.Before, res.After))
	if diff == "" {
		logger.Infof("Merging %s would not change %s", flags.New, flags.Base)
		return nil
	}

	logger.PrintfStyled(styles.HeavilyEmphasized, "--- %s\n+++ merged", flags.Base)
	logger.Print(diff)
	logger.Infof("Would merge %d entries into %s", res.Stats.Total(), res.FileName)

	return nil
}

// lockOutput takes the inter-process lock for outPath unless locking is
// disabled. The returned func releases it.
func lockOutput(ctx context.Context, outPath string) (func(), error) {
	if !config.ShouldLockOutput() {
		return func() {}, nil
	}

	m := locks.ForOutput(outPath)
	err := m.Lock(ctx, lockRetryDelay, func() {
		log.From(ctx).Infof("Waiting for another process writing %s", outPath)
	})
	if err != nil {
		return nil, err
	}

	return func() { _ = m.Unlock() }, nil
}
