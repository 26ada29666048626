package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zedseven/vanilla/pkg/merge"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.Equal(t, merge.DefaultSchemaPath, GetSchemaPath())
	assert.Equal(t, "info", GetLogLevel())
	assert.True(t, ShouldLockOutput())
}

func TestPrecedence(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	settings := filepath.Join(dir, "vanilla.toml")
	require.NoError(t, os.WriteFile(settings, []byte("schema_path = \"from-file.toml\"\nlog_level = \"warn\"\nlock_output = false\n"), 0o644))

	require.NoError(t, LoadFile(settings))
	assert.Equal(t, "from-file.toml", GetSchemaPath())
	assert.Equal(t, "warn", GetLogLevel())
	assert.False(t, ShouldLockOutput())

	t.Setenv("VANILLA_SCHEMA_PATH", "from-env.toml")
	assert.Equal(t, "from-env.toml", GetSchemaPath())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("schema", "", "")
	require.NoError(t, BindFlag(SchemaPathKey, flags.Lookup("schema")))
	assert.Equal(t, "from-env.toml", GetSchemaPath(), "unset flags do not override")

	require.NoError(t, flags.Parse([]string{"--schema", "from-flag.toml"}))
	assert.Equal(t, "from-flag.toml", GetSchemaPath())
}

func TestLockOutputEnv(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("VANILLA_LOCK_DISABLED", "true")
	assert.False(t, ShouldLockOutput())
}

func TestLoadFile_Missing(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "vanilla.yaml")))
	assert.Error(t, BindFlag(LogLevelKey, nil))
}

func TestLoad_OptionalFile(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	require.NoError(t, Load())
	assert.Equal(t, merge.DefaultSchemaPath, GetSchemaPath())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "vanilla.yaml"), []byte("log_level: error\n"), 0o644))
	Reset()
	require.NoError(t, Load())
	assert.Equal(t, "error", GetLogLevel())
}
