package frameextractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"framegrab/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// writeTool installs a fake ffmpeg shell script into a temp dir.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

// copyInputTool writes the input video contents to the last argument, so output
// depends only on the input.
const copyInputTool = `
in=""
prev=""
for arg; do
	if [ "$prev" = "-i" ]; then in="$arg"; fi
	prev="$arg"
	out="$arg"
done
cat "$in" > "$out"
`

func TestArgs(t *testing.T) {
	got := Args("/tmp/video_01.mp4", "/out/frame_01_a.jpg")
	want := []string{"-sseof", "-0.1", "-i", "/tmp/video_01.mp4", "-vframes", "1", "-q:v", "2", "-y", "/out/frame_01_a.jpg"}
	assert.Equal(t, want, got)
}

func TestExtractLastFrame(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name         string
		tool         string
		missingTool  bool
		expectErr    bool
		expectStderr string
	}{
		{
			name: "success",
			tool: copyInputTool,
		},
		{
			name:         "non zero exit",
			tool:         "echo 'moov atom not found' >&2\nexit 1\n",
			expectErr:    true,
			expectStderr: "moov atom not found",
		},
		{
			name:      "zero exit without output",
			tool:      "exit 0\n",
			expectErr: true,
		},
		{
			name:        "tool not found",
			missingTool: true,
			expectErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			video := filepath.Join(dir, "video_01.mp4")
			require.NoError(t, os.WriteFile(video, []byte("video-bytes"), 0644))
			output := filepath.Join(dir, "frame_01_a.jpg")

			toolPath := filepath.Join(dir, "no-such-ffmpeg")
			if !tt.missingTool {
				toolPath = writeTool(t, tt.tool)
			}

			err := New(toolPath, logger).ExtractLastFrame(context.Background(), video, output)

			if !tt.expectErr {
				require.NoError(t, err)
				data, err := os.ReadFile(output)
				require.NoError(t, err)
				assert.Equal(t, "video-bytes", string(data))
				return
			}

			var exErr *models.ExtractionError
			require.True(t, errors.As(err, &exErr), "expected ExtractionError, got %v", err)
			assert.Equal(t, video, exErr.VideoPath)
			if tt.expectStderr != "" {
				assert.True(t, strings.Contains(exErr.Stderr, tt.expectStderr), "stderr %q", exErr.Stderr)
				assert.Contains(t, err.Error(), tt.expectStderr)
			}
		})
	}
}

func TestExtractLastFrame_Overwrites(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "video_01.mp4")
	output := filepath.Join(dir, "frame_01_a.jpg")
	require.NoError(t, os.WriteFile(video, []byte("same-input"), 0644))
	require.NoError(t, os.WriteFile(output, []byte("stale image from a previous run"), 0644))

	e := New(writeTool(t, copyInputTool), zaptest.NewLogger(t))
	for i := 0; i < 2; i++ {
		require.NoError(t, e.ExtractLastFrame(context.Background(), video, output))
		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, "same-input", string(data), "run %d", i+1)
	}
}

func TestProber(t *testing.T) {
	assert.Nil(t, NewProber("ffmpeg", ""))

	var p *Prober
	_, err := p.Duration("/tmp/video_01.mp4")
	assert.Error(t, err)

	assert.NotNil(t, NewProber("ffmpeg", "ffprobe"))
}

func TestParseSeconds(t *testing.T) {
	d, err := parseSeconds("12.500000")
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)

	_, err = parseSeconds("N/A")
	assert.Error(t, err)
}

func TestShorterThanSeek(t *testing.T) {
	assert.True(t, ShorterThanSeek(50*time.Millisecond))
	assert.False(t, ShorterThanSeek(2*time.Second))
}
