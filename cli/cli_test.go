package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colorfulnotion/a64map/cells"
	"github.com/colorfulnotion/a64map/scanerrors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallCells = "2^16"

func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestVerifyUsage(t *testing.T) {
	var out bytes.Buffer
	err := run(t, NewVerifyCmd(&out))
	assert.Equal(t, ExitUsage, ExitCode(err))

	err = run(t, NewVerifyCmd(&out), "a", "b")
	assert.Equal(t, ExitUsage, ExitCode(err))

	err = run(t, NewVerifyCmd(&out), "--no-such-flag", "a")
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestVerifyFatalOpenErrors(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	err := run(t, NewVerifyCmd(&out), filepath.Join(dir, "missing.dat"))
	assert.Equal(t, ExitRuntime, ExitCode(err))
	assert.ErrorIs(t, err, scanerrors.ErrCCellFileMissing)

	short := filepath.Join(dir, "short.dat")
	require.NoError(t, os.WriteFile(short, make([]byte, 100), 0o644))
	err = run(t, NewVerifyCmd(&out), short)
	assert.Equal(t, ExitRuntime, ExitCode(err))
	assert.ErrorIs(t, err, scanerrors.ErrCCellFileSize)
	assert.Empty(t, out.String())
}

func TestVerifyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.dat")
	require.NoError(t, cells.Create(path, 1<<16))

	var out bytes.Buffer
	err := run(t, NewVerifyCmd(&out), "--cells-count", smallCells, "--progress-every", "16384", path)
	require.NoError(t, err)
	s := out.String()
	assert.Contains(t, s, "0.000%\n")
	assert.Equal(t, "0.000%\n25.000%\n50.000%\n75.000%\n100.000%\n", s[:strings.Index(s, "100.000%\n")+len("100.000%\n")])
	assert.Contains(t, s, "scanned 65536, skipped 0")

	// invalid cells are skipped, valid ones are asked about again and stay valid
	out.Reset()
	err = run(t, NewVerifyCmd(&out), "--cells-count", smallCells, "--workers", "2", "--chunk-size", "4096", path)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "marked 0 invalid")

	err = run(t, NewVerifyCmd(&out), "--cells-count", smallCells, "--oracle", "nope", path)
	assert.Equal(t, ExitRuntime, ExitCode(err))
	assert.ErrorIs(t, err, scanerrors.ErrOUnknownOracle)
}

func TestMapPipeline(t *testing.T) {
	dir := t.TempDir()
	cellsPath := filepath.Join(dir, "arm64.dat")
	recordsPath := filepath.Join(dir, "arm64.json")
	mapPath := filepath.Join(dir, "arm64.map")
	xmlDir := filepath.Join("..", "mra", "testdata", "xml")

	a64map := func(args ...string) (string, error) {
		var out bytes.Buffer
		full := append([]string{args[0], "--cells-count", smallCells}, args[1:]...)
		err := run(t, NewRootCmd(&out), full...)
		return out.String(), err
	}

	out, err := a64map("classify", xmlDir, "-o", recordsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 records written")

	out, err = a64map("summary", recordsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "LDADD.xml")

	out, err = a64map("diff", recordsPath, recordsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "FullMatch")

	out, err = a64map("create", cellsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "65536 cells")
	_, err = a64map("create", cellsPath)
	assert.Equal(t, ExitRuntime, ExitCode(err))

	// cells still hold 0 everywhere, which record 0 does not accept
	_, err = a64map("map", cellsPath, "--records", recordsPath, "-o", mapPath)
	assert.ErrorIs(t, err, scanerrors.ErrRNotGenerated)
	assert.Equal(t, ExitRuntime, ExitCode(err))
	_, err = os.Stat(mapPath)
	assert.True(t, os.IsNotExist(err))

	out, err = a64map("gen", cellsPath, "--records", recordsPath, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "65536 words")

	out, err = a64map("stats", cellsPath, "--chunk", "2^15")
	require.NoError(t, err)
	assert.Contains(t, out, "total:")
	assert.Equal(t, 4, strings.Count(out, "\n"))

	_, err = a64map("map", cellsPath, "--records", recordsPath, "-o", mapPath)
	require.NoError(t, err)
	_, err = os.Stat(mapPath)
	require.NoError(t, err)

	pngPath := filepath.Join(dir, "arm64.png")
	out, err = a64map("vis", mapPath, "-o", pngPath, "--order", "4", "--theme", "monokai")
	require.NoError(t, err)
	assert.Contains(t, out, "general")
	_, err = os.Stat(pngPath)
	require.NoError(t, err)

	_, err = a64map("vis", mapPath, "--theme", "neon")
	assert.ErrorIs(t, err, scanerrors.ErrVUnknownTheme)
	assert.Equal(t, ExitUsage, ExitCode(err))

	htmlPath := filepath.Join(dir, "arm64.html")
	_, err = a64map("chart", mapPath, "-o", htmlPath)
	require.NoError(t, err)
	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Valid encodings per class")

	out, err = a64map("checksum", cellsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "131072 bytes")

	out, err = a64map("verify", cellsPath, "--progress-every", "65536")
	require.NoError(t, err)
	assert.Contains(t, out, "100.000%")

	out, err = a64map("version")
	require.NoError(t, err)
	assert.Contains(t, out, "arm64asm")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cellsPath := filepath.Join(dir, "from-config.dat")
	cfgPath := filepath.Join(dir, "a64map.yaml")
	cfg := "cells:\n  path: " + cellsPath + "\n  count: 4096\nlog:\n  level: warn\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(t, NewRootCmd(&out), "create", "--config", cfgPath))
	st, err := os.Stat(cellsPath)
	require.NoError(t, err)
	assert.Equal(t, int64(4096*cells.CellSize), st.Size())

	err = run(t, NewRootCmd(&out), "create", "--config", cfgPath, "--log-level", "shouty")
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestCreateForgetsCheckpoints(t *testing.T) {
	dir := t.TempDir()
	cellsPath := filepath.Join(dir, "arm64.dat")
	cfgPath := filepath.Join(dir, "a64map.yaml")
	cfg := "cells:\n  path: " + cellsPath + "\n  count: 4096\ncheckpoint:\n  path: " + filepath.Join(dir, "ckpt") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	a64map := func(args ...string) string {
		var out bytes.Buffer
		require.NoError(t, run(t, NewRootCmd(&out), append(args, "--config", cfgPath)...))
		return out.String()
	}

	a64map("create")
	assert.Contains(t, a64map("verify", "--chunk-size", "1024"), "scanned 4096")
	assert.Contains(t, a64map("verify", "--chunk-size", "1024"), "(4 chunks resumed)")

	// the truncated file is the same inode, yet must be verified again
	a64map("create", "--force")
	out := a64map("verify", "--chunk-size", "1024")
	assert.Contains(t, out, "scanned 4096")
	assert.NotContains(t, out, "resumed")
}
