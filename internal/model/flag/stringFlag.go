package flag

import (
	"github.com/spf13/cobra"
)

type StringFlag struct {
	Name, Shorthand, Description string
	Required, Hidden             bool
	DefaultValue                 string
	FileExtensions               []string // shell completion hint
	Directory                    bool     // shell completion hint
}

func (f StringFlag) Init(cmd *cobra.Command) error {
	cmd.Flags().StringP(f.Name, f.Shorthand, f.DefaultValue, f.Description)
	if err := setRequiredAndHidden(cmd, f.Name, f.Required, f.Hidden); err != nil {
		return err
	}
	if len(f.FileExtensions) > 0 {
		if err := cmd.MarkFlagFilename(f.Name, f.FileExtensions...); err != nil {
			return err
		}
	}
	if f.Directory {
		if err := cmd.MarkFlagDirname(f.Name); err != nil {
			return err
		}
	}
	return nil
}

func (f StringFlag) GetName() string {
	return f.Name
}

func (f StringFlag) ParseValue(v string) (any, error) {
	return v, nil
}
