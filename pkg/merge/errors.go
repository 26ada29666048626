package merge

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a merge failure.
type Kind int

const (
	KindIO Kind = iota + 1
	KindConfigUnreadable
	KindConfigMalformed
	KindBadFilePath
	KindDifferentInputFiles
	KindFileTypeNotInConfig
	KindParse
	KindWrite
)

var kindMessages = map[Kind]string{
	KindIO:                  "input file could not be read",
	KindConfigUnreadable:    "schema file could not be read",
	KindConfigMalformed:     "schema file could not be parsed correctly",
	KindBadFilePath:         "input file path did not have a file name or was not valid UTF-8",
	KindDifferentInputFiles: "files provided to merge are not the same kind of file",
	KindFileTypeNotInConfig: "files provided to merge are of a kind not in the schema",
	KindParse:               "there was a parse error in one of the provided files",
	KindWrite:               "there was a write error when writing the merged document",
}

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IOError"
	case KindConfigUnreadable:
		return "ConfigUnreadable"
	case KindConfigMalformed:
		return "ConfigMalformed"
	case KindBadFilePath:
		return "BadFilePath"
	case KindDifferentInputFiles:
		return "DifferentInputFiles"
	case KindFileTypeNotInConfig:
		return "FileTypeNotInConfig"
	case KindParse:
		return "ParseError"
	case KindWrite:
		return "WriteError"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single error type returned by this package. Match a kind with
// errors.Is against the Err* sentinels, or extract it with errors.As.
type Error struct {
	Kind Kind
	// Path is the file or file name the failure relates to, if any.
	Path string
	Err  error
}

var (
	ErrIO                  = &Error{Kind: KindIO}
	ErrConfigUnreadable    = &Error{Kind: KindConfigUnreadable}
	ErrConfigMalformed     = &Error{Kind: KindConfigMalformed}
	ErrBadFilePath         = &Error{Kind: KindBadFilePath}
	ErrDifferentInputFiles = &Error{Kind: KindDifferentInputFiles}
	ErrFileTypeNotInConfig = &Error{Kind: KindFileTypeNotInConfig}
	ErrParse               = &Error{Kind: KindParse}
	ErrWrite               = &Error{Kind: KindWrite}
)

func (e *Error) Error() string {
	msg, ok := kindMessages[e.Kind]
	if !ok {
		msg = e.Kind.String()
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not from this package.
func KindOf(err error) Kind {
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Kind
	}
	return 0
}
