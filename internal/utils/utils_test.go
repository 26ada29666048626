package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zedseven/vanilla/internal/utils"
)

func TestCreateDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "merged", "data", "vehicles.meta")

	require.NoError(t, utils.CreateDirectory(target))

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// existing directories are left alone
	require.NoError(t, utils.CreateDirectory(target))
}
