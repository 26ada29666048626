// Package config holds the CLI's own settings, as opposed to the merge schema
// it points at. Values come from flags, VANILLA_* environment variables and an
// optional vanilla.{yaml,toml} settings file, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zedseven/vanilla/internal/env"
	"github.com/zedseven/vanilla/pkg/merge"
)

const (
	SchemaPathKey = "schema_path"
	LogLevelKey   = "log_level"
	LockOutputKey = "lock_output"

	envPrefix = "VANILLA"
)

var vCfg = newViper()

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(SchemaPathKey, merge.DefaultSchemaPath)
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LockOutputKey, true)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional settings file. A missing file is not an error.
func Load() error {
	return load(vCfg, "")
}

// LoadFile reads settings from an explicit file, which must exist.
func LoadFile(path string) error {
	return load(vCfg, path)
}

func load(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read settings file %s", path)
		}
		return nil
	}

	v.SetConfigName("vanilla")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".vanilla"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "failed to read settings file")
		}
	}

	return nil
}

// BindFlag lets a command flag override the setting stored under key.
func BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return errors.Errorf("no flag to bind to %s", key)
	}
	return vCfg.BindPFlag(key, flag)
}

func GetSchemaPath() string {
	return vCfg.GetString(SchemaPathKey)
}

func GetLogLevel() string {
	return vCfg.GetString(LogLevelKey)
}

// ShouldLockOutput reports whether merges should take an inter-process lock
// on their output path.
func ShouldLockOutput() bool {
	if env.IsOutputLockDisabled() {
		return false
	}
	return vCfg.GetBool(LockOutputKey)
}

// Reset restores defaults, dropping any loaded file and flag bindings.
func Reset() {
	vCfg = newViper()
}
