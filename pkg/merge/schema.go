package merge

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// DefaultSchemaPath is where the schema is looked up when the caller does not
// supply one.
const DefaultSchemaPath = "config/mergeFiles.toml"

// SchemaEntry names the parent tags, directly under the root of a file called
// FileName, whose children are appended when merging.
type SchemaEntry struct {
	FileName   string   `json:"file_name"`
	ParentTags []string `json:"parent_tags"`
}

// Schema is the ordered list of mergeable file kinds.
type Schema []SchemaEntry

type schemaFile struct {
	MetaFileTypes *[]schemaFileEntry `toml:"meta_file_types"`
}

type schemaFileEntry struct {
	FileName   *string   `toml:"file_name"`
	ParentTags *[]string `toml:"parent_tags"`
}

// LoadSchema reads and decodes the schema at path.
func LoadSchema(path string) (Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindConfigUnreadable, path, err)
	}
	defer f.Close()

	schema, err := DecodeSchema(f)
	if err != nil {
		var mErr *Error
		if errors.As(err, &mErr) {
			mErr.Path = path
		}
		return nil, err
	}

	return schema, nil
}

// DecodeSchema decodes a TOML schema document of the form
//
//	[[meta_file_types]]
//	file_name = "vehicles.meta"
//	parent_tags = ["Infos"]
//
// Unknown keys and missing fields are rejected.
func DecodeSchema(r io.Reader) (Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindConfigUnreadable, "", err)
	}

	var f schemaFile
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&f); err != nil {
		return nil, newError(KindConfigMalformed, "", describeTOMLError(err))
	}

	if f.MetaFileTypes == nil {
		return nil, newError(KindConfigMalformed, "", errors.New("missing field `meta_file_types`"))
	}

	schema := make(Schema, 0, len(*f.MetaFileTypes))
	for i, e := range *f.MetaFileTypes {
		if e.FileName == nil {
			return nil, newError(KindConfigMalformed, "", errors.Errorf("meta_file_types[%d]: missing field `file_name`", i))
		}
		if e.ParentTags == nil {
			return nil, newError(KindConfigMalformed, "", errors.Errorf("meta_file_types[%d]: missing field `parent_tags`", i))
		}
		schema = append(schema, SchemaEntry{
			FileName:   *e.FileName,
			ParentTags: *e.ParentTags,
		})
	}

	return schema, nil
}

func describeTOMLError(err error) error {
	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, col := decErr.Position()
		return errors.Errorf("line %d, column %d: %s", row, col, decErr.Error())
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		return errors.New(strictErr.String())
	}
	return err
}

// Find returns the first entry whose FileName equals name exactly.
//
// Entries are not required to be unique; later duplicates are unreachable.
// Check reports them.
func (s Schema) Find(name string) (SchemaEntry, error) {
	entry, ok := lo.Find(s, func(e SchemaEntry) bool {
		return e.FileName == name
	})
	if !ok {
		return SchemaEntry{}, newError(KindFileTypeNotInConfig, name, nil)
	}
	return entry, nil
}

// Count returns how many entries are declared for name.
func (s Schema) Count(name string) int {
	return lo.CountBy(s, func(e SchemaEntry) bool {
		return e.FileName == name
	})
}

// FileNames lists the configured file names in schema order.
func (s Schema) FileNames() []string {
	return lo.Map(s, func(e SchemaEntry, _ int) string {
		return e.FileName
	})
}

// Check reports schema authoring problems that do not prevent merging but
// probably do not do what the author intended.
func (s Schema) Check() error {
	var result *multierror.Error

	for _, name := range lo.FindDuplicates(s.FileNames()) {
		result = multierror.Append(result, fmt.Errorf("file_name %q is declared %d times; only the first entry is used", name, s.Count(name)))
	}

	for i, e := range s {
		if e.FileName == "" {
			result = multierror.Append(result, fmt.Errorf("meta_file_types[%d]: empty file_name can never match", i))
		}
		if len(e.ParentTags) == 0 {
			result = multierror.Append(result, fmt.Errorf("meta_file_types[%d] (%s): no parent_tags, nothing will be merged", i, e.FileName))
		}
		if lo.Contains(e.ParentTags, "") {
			result = multierror.Append(result, fmt.Errorf("meta_file_types[%d] (%s): empty parent tag", i, e.FileName))
		}
		for _, tag := range lo.FindDuplicates(e.ParentTags) {
			result = multierror.Append(result, fmt.Errorf("meta_file_types[%d] (%s): parent tag %q is listed more than once and will be merged repeatedly", i, e.FileName, tag))
		}
	}

	return result.ErrorOrNil()
}
