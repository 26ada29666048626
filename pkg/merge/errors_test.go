package merge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", newError(KindParse, "a/vehicles.meta", cause))

	assert.ErrorIs(t, err, ErrParse)
	assert.NotErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(cause))
	assert.Equal(t,
		"wrapped: there was a parse error in one of the provided files (a/vehicles.meta): boom",
		err.Error(),
	)
	assert.Equal(t, "files provided to merge are not the same kind of file", ErrDifferentInputFiles.Error())
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DifferentInputFiles", KindDifferentInputFiles.String())
	assert.Equal(t, "FileTypeNotInConfig", KindFileTypeNotInConfig.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
