package merge

import (
	"path/filepath"
	"unicode/utf8"
)

// ResolveFileName returns the final component of path, which is what schema
// entries are matched against.
func ResolveFileName(path string) (string, error) {
	if path == "" {
		return "", newError(KindBadFilePath, path, nil)
	}

	name := filepath.Base(path)
	switch name {
	case ".", "..", string(filepath.Separator):
		return "", newError(KindBadFilePath, path, nil)
	}
	if !utf8.ValidString(name) {
		return "", newError(KindBadFilePath, path, nil)
	}

	return name, nil
}

// resolvePair resolves both inputs and requires them to name the same kind of file.
func resolvePair(basePath, additivePath string) (string, error) {
	baseName, err := ResolveFileName(basePath)
	if err != nil {
		return "", err
	}
	additiveName, err := ResolveFileName(additivePath)
	if err != nil {
		return "", err
	}
	if baseName != additiveName {
		return "", newError(KindDifferentInputFiles, baseName+" != "+additiveName, nil)
	}
	return baseName, nil
}
