package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// fakeFFmpeg writes the input video bytes to the last argument.
const fakeFFmpeg = `#!/bin/sh
in=""
prev=""
for arg; do
	if [ "$prev" = "-i" ]; then in="$arg"; fi
	prev="$arg"
	out="$arg"
done
cat "$in" > "$out"
`

type env struct {
	root      string
	input     string
	ffmpeg    string
	outputDir string
	tempDir   string
	server    *httptest.Server
}

func newEnv(t *testing.T, document func(base string) string) *env {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg scripts need a POSIX shell")
	}
	color.NoColor = true

	mux := http.NewServeMux()
	mux.HandleFunc("/v/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "video bytes for %s", r.URL.Path)
	})
	mux.HandleFunc("/missing/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	root := t.TempDir()
	e := &env{
		root:      root,
		input:     filepath.Join(root, "links.md"),
		ffmpeg:    filepath.Join(root, "ffmpeg"),
		outputDir: filepath.Join(root, "frames"),
		tempDir:   filepath.Join(root, "temp_videos"),
		server:    server,
	}
	require.NoError(t, os.WriteFile(e.ffmpeg, []byte(fakeFFmpeg), 0755))
	require.NoError(t, os.WriteFile(e.input, []byte(document(server.URL)), 0644))
	return e
}

func (e *env) args(extra ...string) []string {
	return append([]string{
		"--input", e.input,
		"--ffmpeg", e.ffmpeg,
		"--output-dir", e.outputDir,
		"--temp-dir", e.tempDir,
		"--host-prefix", e.server.URL,
	}, extra...)
}

func execute(t *testing.T, args []string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(context.Background(), zaptest.NewLogger(t), zap.NewAtomicLevel())
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRun_EndToEnd(t *testing.T) {
	e := newEnv(t, func(base string) string {
		return fmt.Sprintf("# Lesson videos\n1. %s/v/abc.mp4\nthis line has no link\n2. %s/v/def.mp4\n", base, base)
	})
	metricsFile := filepath.Join(e.root, "framegrab.prom")

	out, err := execute(t, e.args("--metrics-file", metricsFile, "--verbose"))
	require.NoError(t, err)

	assert.Contains(t, out, "Total videos:           2")
	assert.Contains(t, out, "Successfully processed: 2")
	assert.Contains(t, out, "Failed:                 0")
	assert.Equal(t, []string{"frame_01_abc.jpg", "frame_02_def.jpg"}, listDir(t, e.outputDir))

	data, err := os.ReadFile(filepath.Join(e.outputDir, "frame_01_abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "video bytes for /v/abc.mp4", string(data))

	_, err = os.Stat(e.tempDir)
	assert.True(t, os.IsNotExist(err), "temp dir removed after a clean run")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `framegrab_items_processed_total{status="success"} 2`)
}

func TestRun_FailuresDoNotFailTheCommand(t *testing.T) {
	e := newEnv(t, func(base string) string {
		return fmt.Sprintf("1. %s/missing/gone.mp4\n2. %s/v/ok.mp4\n", base, base)
	})

	out, err := execute(t, e.args())
	require.NoError(t, err, "item failures are reported in the summary only")

	assert.Contains(t, out, "Successfully processed: 1")
	assert.Contains(t, out, "Failed:                 1")
	assert.Equal(t, []string{"frame_02_ok.jpg"}, listDir(t, e.outputDir))
}

func TestRun_MissingFFmpeg(t *testing.T) {
	e := newEnv(t, func(base string) string {
		return fmt.Sprintf("%s/v/abc.mp4\n", base)
	})
	args := e.args()
	args = append(args, "--ffmpeg", filepath.Join(e.root, "no-such-ffmpeg"))

	out, err := execute(t, args)
	require.NoError(t, err)
	assert.Contains(t, out, "Failed:                 1")
	assert.Empty(t, listDir(t, e.outputDir))
	_, err = os.Stat(e.tempDir)
	assert.True(t, os.IsNotExist(err), "downloaded video removed after failed extraction, so the temp dir is too")
}

func TestRun_SetupErrors(t *testing.T) {
	e := newEnv(t, func(base string) string { return "" })

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing document", args: e.args("--input", filepath.Join(e.root, "absent.md"))},
		{name: "invalid host prefix", args: e.args("--host-prefix", "not a url")},
		{name: "missing config file", args: e.args("--config", filepath.Join(e.root, "absent.yml"))},
		{name: "unexpected argument", args: e.args("extra")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args)
			assert.Error(t, err)
		})
	}
}

func TestRun_ConfigFileWithFlagOverride(t *testing.T) {
	e := newEnv(t, func(base string) string {
		return fmt.Sprintf("%s/v/abc.mp4\n", base)
	})

	cfgPath := filepath.Join(e.root, "framegrab.yml")
	cfg := fmt.Sprintf("input_path: %s\nffmpeg_binary: %s\noutput_dir: %s\ntemp_dir: %s\nhost_prefix: %s\n",
		e.input, e.ffmpeg, filepath.Join(e.root, "ignored"), e.tempDir, e.server.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	_, err := execute(t, []string{"--config", cfgPath, "--output-dir", e.outputDir})
	require.NoError(t, err)

	assert.Equal(t, []string{"frame_01_abc.jpg"}, listDir(t, e.outputDir))
	_, err = os.Stat(filepath.Join(e.root, "ignored"))
	assert.True(t, os.IsNotExist(err), "flag overrides the file value")
}

func TestRun_EmptyDocument(t *testing.T) {
	e := newEnv(t, func(base string) string { return "no links here\n" })

	out, err := execute(t, e.args())
	require.NoError(t, err)
	assert.Contains(t, out, "Total videos:           0")
}
