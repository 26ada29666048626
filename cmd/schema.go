package cmd

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/zedseven/vanilla/internal/config"
	"github.com/zedseven/vanilla/internal/log"
	"github.com/zedseven/vanilla/internal/model"
	"github.com/zedseven/vanilla/internal/model/flag"
	"github.com/zedseven/vanilla/pkg/merge"
)

var schemaCmd = model.CommandGroup{
	Usage: "schema",
	Short: "Inspect the merge schema",
	Commands: []model.Command{
		schemaListCmd,
		schemaCheckCmd,
	},
}

type schemaListFlags struct {
	JSON bool `json:"json"`
}

var schemaListCmd = model.ExecutableCommand[schemaListFlags]{
	Usage:   "list",
	Short:   "List the file kinds the schema can merge",
	Aliases: []string{"ls"},
	Flags: []flag.Flag{
		flag.BooleanFlag{
			Name:        "json",
			Shorthand:   "j",
			Description: "output in JSON format",
		},
	},
	Run: runSchemaList,
}

type schemaCheckFlags struct{}

var schemaCheckCmd = model.ExecutableCommand[schemaCheckFlags]{
	Usage: "check",
	Short: "Report schema entries that will not merge the way they look like they should",
	Run:   runSchemaCheck,
}

func runSchemaList(ctx context.Context, flags schemaListFlags) error {
	schema, err := merge.LoadSchema(config.GetSchemaPath())
	if err != nil {
		return err
	}

	log.PrintArray(ctx, schema, flags.JSON, map[string]string{
		"FileName":   "File",
		"ParentTags": "Parent tags",
	})

	return nil
}

func runSchemaCheck(ctx context.Context, flags schemaCheckFlags) error {
	path := config.GetSchemaPath()

	schema, err := merge.LoadSchema(path)
	if err != nil {
		return err
	}

	problems := schemaProblems(schema)
	if len(problems) == 0 {
		log.From(ctx).Successf("%s is valid (%d file kinds)", path, len(schema))
		return nil
	}

	logger := log.From(ctx).WithAssociatedFile(path)
	for _, p := range problems {
		logger.Warn(p.Error())
	}

	return fmt.Errorf("found %d problems in %s", len(problems), path)
}

// loadSchema loads the configured schema and warns about entries that will
// not behave as written.
func loadSchema(ctx context.Context) (merge.Schema, error) {
	path := config.GetSchemaPath()

	schema, err := merge.LoadSchema(path)
	if err != nil {
		return nil, err
	}

	logger := log.From(ctx).WithAssociatedFile(path)
	for _, p := range schemaProblems(schema) {
		logger.Warn(p.Error())
	}

	return schema, nil
}

func schemaProblems(schema merge.Schema) []error {
	err := schema.Check()
	if err == nil {
		return nil
	}

	var mErr *multierror.Error
	if errors.As(err, &mErr) {
		return mErr.Errors
	}
	return []error{err}
}
