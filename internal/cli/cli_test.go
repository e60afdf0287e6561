package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

type testEnv struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })
	dir := t.TempDir()
	return &testEnv{
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "timeline %s", strings.Join(args, " "))
	return out
}

func (e *testEnv) createClip(t *testing.T, name string, length string) string {
	t.Helper()
	return strings.TrimSpace(e.mustRun(t, "clip", "create", name, "--layer", "base", "--length", length))
}

func TestVersion(t *testing.T) {
	out := newEnv(t).mustRun(t, "version")
	assert.Contains(t, out, "timeline v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "init")
	assert.Contains(t, out, "Wrote")
	assert.Contains(t, out, e.dataDir)

	for _, p := range []string{
		filepath.Join(e.configDir, "config.yaml"),
		filepath.Join(e.dataDir, "clips.jsonl"),
		filepath.Join(e.dataDir, "refs.jsonl"),
	} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	cfg, err := loadConfig(e.configDir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, e.dataDir, cfg.DataDir)
	assert.Equal(t, types.CurveTypeSmooth, cfg.Animation.DefaultCurveType)

	out = e.mustRun(t, "init")
	assert.NotContains(t, out, "Wrote", "existing config is kept")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := `backend: sqlite
data_dir: /srv/timeline
sqlite:
  sync_strategy: batch
  batch_size: 5
log:
  format: json
animation:
  default_curve_type: linear
  min_keyframes: 3
  default_length: 4.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/timeline", cfg.DataDir)
	require.NotNil(t, cfg.SQLiteConfig)
	assert.Equal(t, types.SyncBatch, cfg.SQLiteConfig.SyncStrategy)
	assert.Equal(t, 5, cfg.SQLiteConfig.BatchSize)
	assert.Equal(t, types.LogFormatJSON, cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, types.CurveTypeLinear, cfg.Animation.DefaultCurveType)
	assert.Equal(t, 3, cfg.Animation.MinKeyframes)
	assert.Equal(t, 4.5, cfg.Animation.DefaultLength)

	t.Setenv("TIMELINE_LOG_LEVEL", "debug")
	cfg, err = loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	cfg, err = loadConfig(t.TempDir())
	require.NoError(t, err, "missing config.yaml uses defaults")
	assert.Nil(t, cfg.SQLiteConfig)
}

func TestInvalidConfigIsUserError(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("animation:\n  default_curve_type: wobbly\n"), 0o644))

	_, err := e.run(t, "clip", "list")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
	assert.ErrorIs(t, err, types.ErrInvalidCurveType)
}

func TestClipCreateListShow(t *testing.T) {
	e := newEnv(t)
	id := e.createClip(t, "walk", "2")
	e.createClip(t, "wave", "1")

	out := e.mustRun(t, "clip", "list")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "walk")
	assert.Contains(t, out, "wave")

	out = e.mustRun(t, "--json", "clip", "list", "--name", "walk")
	var list []clipSummary
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, 2.0, list[0].Length)

	out = e.mustRun(t, "clip", "show", id)
	assert.Contains(t, out, "Name:    walk")
	assert.Contains(t, out, "Layer:   base")
}

func TestClipShow_NotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "clip", "show", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestKeySetAndEval(t *testing.T) {
	e := newEnv(t)
	id := e.createClip(t, "walk", "2")

	e.mustRun(t, "key", "set", id, "atom", "geometry", "morph", "0", "0", "--curve", "linear")
	out := e.mustRun(t, "key", "set", id, "atom", "geometry", "morph", "2", "10", "--curve", "linear")
	assert.Contains(t, out, "atom geometry.morph")

	out = e.mustRun(t, "--json", "eval", id, "1")
	var results []evalResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Value)
	assert.InDelta(t, 5, *results[0].Value, 1e-9)
	assert.Equal(t, types.RefKindParam, results[0].Kind)

	out = e.mustRun(t, "eval", id, "2")
	assert.Contains(t, out, "10")

	out = e.mustRun(t, "key", "delete", id, "2")
	assert.Contains(t, out, "Deleted 1 keyframes")
}

func TestKeySet_BadInput(t *testing.T) {
	e := newEnv(t)
	id := e.createClip(t, "walk", "2")

	tests := []struct {
		name string
		args []string
	}{
		{"bad time", []string{"key", "set", id, "a", "b", "c", "soon", "1"}},
		{"bad curve", []string{"key", "set", id, "a", "b", "c", "0", "1", "--curve", "wobbly"}},
		{"missing args", []string{"key", "set", id}},
		{"unknown clip", []string{"key", "set", "missing", "a", "b", "c", "0", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestClipValidateAndEdges(t *testing.T) {
	e := newEnv(t)
	id := e.createClip(t, "walk", "2")
	e.mustRun(t, "key", "set", id, "atom", "geometry", "morph", "1", "3")

	out, err := e.run(t, "clip", "validate", id)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
	assert.Contains(t, out, "param:atom/geometry/morph")

	out = e.mustRun(t, "clip", "edges", id)
	assert.Contains(t, out, "Added edge frames")
	out = e.mustRun(t, "clip", "validate", id)
	assert.Contains(t, out, "1 targets ok")

	out = e.mustRun(t, "clip", "edges", id)
	assert.Contains(t, out, "No edge frames missing")
}

func TestClipExportImportDelete(t *testing.T) {
	e := newEnv(t)
	id := e.createClip(t, "walk", "2")
	e.mustRun(t, "key", "set", id, "atom", "geometry", "morph", "0.5", "4", "--curve", "flat")

	path := filepath.Join(t.TempDir(), "walk.yaml")
	e.mustRun(t, "clip", "export", id, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "curveType: flat")

	stdout := e.mustRun(t, "clip", "export", id, "-")
	assert.Equal(t, string(data), stdout)

	e.mustRun(t, "clip", "delete", id)
	_, err = e.run(t, "clip", "show", id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	out := e.mustRun(t, "clip", "import", path)
	assert.Equal(t, id, strings.TrimSpace(out))
	out = e.mustRun(t, "--json", "eval", id, "0.5")
	assert.Contains(t, out, `"value": 4`)
}

func TestFrameCopy(t *testing.T) {
	e := newEnv(t)
	src := e.createClip(t, "src", "4")
	dst := e.createClip(t, "dst", "4")
	e.mustRun(t, "key", "set", src, "atom", "geometry", "morph", "1", "7", "--curve", "flat")
	e.mustRun(t, "key", "set", dst, "atom", "geometry", "morph", "0", "0", "--curve", "flat")

	out := e.mustRun(t, "frame", "copy", src, "1", dst, "3")
	assert.Contains(t, out, "Copied 1, pasted 1 keyframes")
	out = e.mustRun(t, "--json", "eval", dst, "3")
	assert.Contains(t, out, `"value": 7`)

	out = e.mustRun(t, "frame", "copy", src, "1", dst, "2", "--cut")
	assert.Contains(t, out, "pasted 1")
	out = e.mustRun(t, "--json", "clip", "show", src)
	var rec types.ClipRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	require.Len(t, rec.Targets, 1)
	assert.Empty(t, rec.Targets[0].Keyframes, "cut removes the source keyframe")

	_, err := e.run(t, "frame", "copy", src, "1", dst, "2", "--cut", "--until", "3")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(errors.New("unknown command")))
	assert.Equal(t, exitSysError, exitCode(fail(os.ErrPermission)))
	assert.Equal(t, exitUserError, exitCode(fail(types.ErrInvalidName)))
	assert.Equal(t, exitUserError, exitCode(fail(usage("bad"))))
	assert.Nil(t, fail(nil))
}

func TestWriteTable_AlignsWideNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"NAME", "V"}, [][]string{
		{"跳跃", "1"},
		{"walk", "2"},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "NAME  V", lines[0])
	assert.Equal(t, "跳跃  1", lines[1])
	assert.Equal(t, "walk  2", lines[2])
}
