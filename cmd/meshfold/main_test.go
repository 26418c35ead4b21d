package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshfold/internal/stage"
)

// quietConfig writes a config that keeps the console logger silent and
// makes the disc primitive a six-segment fan.
func quietConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshfold.yaml")
	data := "logging:\n  level: error\nmesh:\n  subdivisions: 6\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(args, &out)
	return out.String(), err
}

func TestRun_Usage(t *testing.T) {
	_, err := runCmd(t)
	assert.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, "bogus")
	assert.ErrorIs(t, err, errUsage)

	out, err := runCmd(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Commands:")
}

func TestInfo(t *testing.T) {
	out, err := runCmd(t, "info", "-config", quietConfig(t), "cube")
	require.NoError(t, err)

	assert.Contains(t, out, "Triangles:  12")
	assert.Contains(t, out, "Vertices:   8 (8 after welding)")
	assert.Contains(t, out, "Components: 1")
	assert.Contains(t, out, "Open edges: 0")
	assert.Contains(t, out, "  3  12")
}

func TestInfo_MeshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.obj")
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 5 0 0\nv 6 0 0\nv 5 1 0\nf 1 2 3\nf 4 5 6\n"
	require.NoError(t, os.WriteFile(path, []byte(obj), 0644))

	out, err := runCmd(t, "info", "-config", quietConfig(t), path)
	require.NoError(t, err)
	assert.Contains(t, out, "Components: 2")
	assert.Contains(t, out, "Open edges: 6")
}

func TestPlan(t *testing.T) {
	out, err := runCmd(t, "plan", "-config", quietConfig(t), "-seed", "0", "-v", "disc")
	require.NoError(t, err)

	assert.Contains(t, out, "Stages:      3")
	assert.Contains(t, out, "Demoted:     1")
	assert.Contains(t, out, "Unreached:   0")
}

func TestPlan_BadSeed(t *testing.T) {
	_, err := runCmd(t, "plan", "-config", quietConfig(t), "-seed", "99", "cube")
	assert.True(t, errors.Is(err, stage.ErrSeedOutOfRange), "got %v", err)
}

func TestRunCommand(t *testing.T) {
	out, err := runCmd(t, "run", "-config", quietConfig(t), "-seed", "0", "-fps", "30", "cube")
	require.NoError(t, err)

	assert.Contains(t, out, "Seed:    0")
	assert.Contains(t, out, "Result:  12 triangles, 8 vertices")
	assert.Contains(t, out, "at 30 fps")
}

func TestRunCommand_RandomSeedIsReproducible(t *testing.T) {
	cfg := quietConfig(t)
	first, err := runCmd(t, "run", "-config", cfg, "-rand", "7", "icosphere")
	require.NoError(t, err)
	second, err := runCmd(t, "run", "-config", cfg, "-rand", "7", "icosphere")
	require.NoError(t, err)

	seedLine := func(s string) string {
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "Seed:") {
				return line
			}
		}
		return ""
	}
	assert.NotEmpty(t, seedLine(first))
	assert.Equal(t, seedLine(first), seedLine(second))
}

func TestRunCommand_BadFPS(t *testing.T) {
	_, err := runCmd(t, "run", "-config", quietConfig(t), "-seed", "0", "-fps", "0", "cube")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	out, err := runCmd(t, "render", "-config", quietConfig(t), "-seed", "0", "-size", "48", "-o", dir, "disc")
	require.NoError(t, err)
	assert.Contains(t, out, "frames of disc")

	files, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(files), 3)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "meshfold.yaml")
	out, err := runCmd(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "size_offset_step: 800")
}
