package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zedseven/vanilla/internal/config"
	"github.com/zedseven/vanilla/pkg/merge"
)

const testSchema = `[[meta_file_types]]
file_name = "vehicles.meta"
parent_tags = ["Infos"]

[[meta_file_types]]
file_name = "handling.meta"
parent_tags = ["HandlingData"]
`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the CLI with args and returns everything it logged.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("VANILLA_LOCK_DISABLED", "true")

	root, err := CmdForTest("test", "test")
	require.NoError(t, err)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err = root.Execute()
	return out.String(), err
}

func TestMergeCmd(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, filepath.Join(dir, "mergeFiles.toml"), testSchema)
	base := writeFile(t, filepath.Join(dir, "a", "vehicles.meta"), `<Root><Infos><Item>A</Item></Infos></Root>`)
	add := writeFile(t, filepath.Join(dir, "b", "vehicles.meta"), `<Root><Infos><Item>B</Item></Infos></Root>`)
	out := filepath.Join(dir, "out", "vehicles.meta")

	logs, err := execute(t, "merge", "--schema", schema, "--base", base, "--new", add, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, logs, "Merged 1 entries into "+out)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<Root>`,
		`  <Infos>`,
		`    <Item>A</Item>`,
		`    <Item>B</Item>`,
		`  </Infos>`,
		`</Root>`,
	}, "\r\n"), string(got))
}

func TestMergeCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, filepath.Join(dir, "mergeFiles.toml"), testSchema)
	base := writeFile(t, filepath.Join(dir, "a", "vehicles.meta"), `<Root/>`)
	add := writeFile(t, filepath.Join(dir, "b", "handling.meta"), `<Root/>`)
	out := filepath.Join(dir, "out", "vehicles.meta")

	_, err := execute(t, "merge", "--schema", schema, "--base", base, "--new", add, "--out", out)
	require.ErrorIs(t, err, merge.ErrDifferentInputFiles)
	assert.NoFileExists(t, out)

	_, err = execute(t, "merge", "--schema", filepath.Join(dir, "missing.toml"), "--base", base, "--new", base, "--out", out)
	assert.ErrorIs(t, err, merge.ErrConfigUnreadable)

	_, err = execute(t, "merge", "--schema", schema, "--base", base, "--new", base)
	assert.ErrorContains(t, err, `required flag(s) "out" not set`)

	_, err = execute(t, "merge", "--schema", schema, "--logLevel", "debug", "--base", base, "--new", base, "--out", out)
	assert.ErrorContains(t, err, "log level must be one of")
}

func TestMergeCmd_DryRun(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, filepath.Join(dir, "mergeFiles.toml"), testSchema)
	base := writeFile(t, filepath.Join(dir, "a", "vehicles.meta"), `<Root><Infos><Item>A</Item></Infos></Root>`)
	add := writeFile(t, filepath.Join(dir, "b", "vehicles.meta"), `<Root><Infos><Item>B</Item></Infos></Root>`)

	logs, err := execute(t, "merge", "--schema", schema, "--base", base, "--new", add, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, logs, "+     <Item>B</Item>")
	assert.Contains(t, logs, "Would merge 1 entries into vehicles.meta")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "dry run must not write files")
}

func TestMergeDirCmd(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, filepath.Join(dir, "mergeFiles.toml"), testSchema)
	writeFile(t, filepath.Join(dir, "base", "vehicles.meta"), `<Root><Infos/></Root>`)
	writeFile(t, filepath.Join(dir, "mod", "vehicles.meta"), `<Root><Infos><Item>B</Item></Infos></Root>`)
	writeFile(t, filepath.Join(dir, "mod", "carcols.meta"), `<Root/>`)
	out := filepath.Join(dir, "out")

	logs, err := execute(t, "merge-dir", "--schema", schema,
		"--base", filepath.Join(dir, "base"),
		"--new", filepath.Join(dir, "mod"),
		"--out", out,
	)
	require.NoError(t, err)
	assert.Contains(t, logs, "Skipped carcols.meta: not in schema")
	assert.Contains(t, logs, "Merged 1 files into "+out)
	assert.FileExists(t, filepath.Join(out, "vehicles.meta"))

	_, err = execute(t, "merge-dir", "--schema", schema, "--base", dir, "--new", dir, "--out", out, "--concurrency", "0")
	assert.ErrorContains(t, err, "--concurrency must be at least 1")
}

func TestSchemaCmd(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, filepath.Join(dir, "mergeFiles.toml"), testSchema)

	logs, err := execute(t, "schema", "list", "--json", "--schema", schema)
	require.NoError(t, err)

	var entries []merge.SchemaEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(logs)), &entries))
	assert.Equal(t, []string{"vehicles.meta", "handling.meta"}, merge.Schema(entries).FileNames())

	logs, err = execute(t, "schema", "list", "--schema", schema)
	require.NoError(t, err)
	assert.Contains(t, logs, "Parent tags: HandlingData")

	logs, err = execute(t, "schema", "check", "--schema", schema)
	require.NoError(t, err)
	assert.Contains(t, logs, "is valid (2 file kinds)")

	dup := writeFile(t, filepath.Join(dir, "dup.toml"), testSchema+`
[[meta_file_types]]
file_name = "vehicles.meta"
parent_tags = ["Other"]
`)
	logs, err = execute(t, "schema", "check", "--schema", dup)
	assert.ErrorContains(t, err, "found 1 problems")
	assert.Contains(t, logs, `file_name "vehicles.meta" is declared 2 times`)
}

func TestSettingsFile(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, filepath.Join(dir, "schemas", "custom.toml"), testSchema)
	settings := writeFile(t, filepath.Join(dir, "vanilla.yaml"), "schema_path: "+schema+"\n")

	logs, err := execute(t, "schema", "check", "--config", settings)
	require.NoError(t, err)
	assert.Contains(t, logs, schema+" is valid")
}

func TestRenderDiff(t *testing.T) {
	t.Parallel()

	before := []byte(strings.Join([]string{"<Root>", "  <Infos>", "    <Item>A</Item>", "  </Infos>", "</Root>"}, "\r\n"))
	after := []byte(strings.Join([]string{"<Root>", "  <Infos>", "    <Item>A</Item>", "    <Item>B</Item>", "  </Infos>", "</Root>"}, "\r\n"))

	lines := lineDiff(before, after)
	require.Len(t, lines, 6)
	assert.Equal(t, diffLine{Op: diffmatchpatch.DiffInsert, Text: "    <Item>B</Item>"}, lines[3])

	assert.Empty(t, renderDiff(lineDiff(before, before)))

	var long []string
	for i := 0; i < 20; i++ {
		long = append(long, "  <Keep/>")
	}
	withTail := []byte(strings.Join(append(long, "</Root>"), "\n"))
	changedTail := []byte(strings.Join(append(long, "  <New/>", "</Root>"), "\n"))

	rendered := renderDiff(lineDiff(withTail, changedTail))
	assert.Contains(t, rendered, "  ...")
	assert.Contains(t, rendered, "+   <New/>")
	assert.Equal(t, 1, strings.Count(rendered, "..."))
}
