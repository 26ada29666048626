package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zedseven/vanilla/internal/charm/styles"
	"github.com/zedseven/vanilla/internal/config"
	"github.com/zedseven/vanilla/internal/env"
	"github.com/zedseven/vanilla/internal/log"
	"github.com/zedseven/vanilla/internal/model"
	"github.com/zedseven/vanilla/internal/utils"
	"go.uber.org/zap"
)

var l = log.New().WithLevel(log.LevelInfo)

func init() {
	// We want our commands to be sorted in defined order, not alphabetically
	cobra.EnableCommandSorting = false
	if err := config.Load(); err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}
}

func newRootCmd(version, artifactArch string) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "vanilla",
		Short: "Merge GTA V .meta files",
		Long: `vanilla merges the list entries of a modded .meta file into a base file of the same name.

Which lists are merged for each kind of file is read from a TOML schema:

	[[meta_file_types]]
	file_name = "vehicles.meta"
	parent_tags = ["Infos"]
`,
		Version:       version + "\n" + artifactArch,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().String("logLevel", string(log.LevelInfo), fmt.Sprintf("the log level (available options: [%s])", strings.Join(log.Levels, ", ")))
	rootCmd.PersistentFlags().String("schema", config.GetSchemaPath(), "path to the merge schema")
	rootCmd.PersistentFlags().String("config", "", "path to a vanilla settings file")

	if err := config.BindFlag(config.LogLevelKey, rootCmd.PersistentFlags().Lookup("logLevel")); err != nil {
		return nil, err
	}
	if err := config.BindFlag(config.SchemaPathKey, rootCmd.PersistentFlags().Lookup("schema")); err != nil {
		return nil, err
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			if err := config.LoadFile(path); err != nil {
				return err
			}
		}

		return setLogLevel(cmd)
	}

	for _, c := range []model.Command{mergeCmd, mergeDirCmd, schemaCmd} {
		if err := addCommand(rootCmd, c); err != nil {
			return nil, err
		}
	}

	return rootCmd, nil
}

func addCommand(cmd *cobra.Command, command model.Command) error {
	c, err := command.Init()
	if err != nil {
		return err
	}
	cmd.AddCommand(c)
	return nil
}

// CmdForTest builds a fresh command tree.
func CmdForTest(version, artifactArch string) (*cobra.Command, error) {
	return newRootCmd(version, artifactArch)
}

func Execute(version, artifactArch string) {
	rootCmd, err := newRootCmd(version, artifactArch)
	if err != nil {
		l.Error("", zap.Error(err))
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		l.Error("", zap.Error(err))
		l.WithInteractiveOnly().PrintfStyled(styles.DimmedItalic, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
		os.Exit(1)
	}
}

func setLogLevel(cmd *cobra.Command) error {
	logLevel := config.GetLogLevel()
	if !slices.Contains(log.Levels, logLevel) {
		return fmt.Errorf("log level must be one of: %s", strings.Join(log.Levels, ", "))
	}

	l = l.WithLevel(log.Level(logLevel))
	// Piped output has no colours to tell levels apart
	if !utils.IsInteractive() && !env.IsGithubAction() {
		l = l.WithFormatter(log.PrefixedFormatter)
	}

	ctx := log.With(cmd.Context(), l.WithWriter(cmd.ErrOrStderr()))
	cmd.SetContext(ctx)

	return nil
}
