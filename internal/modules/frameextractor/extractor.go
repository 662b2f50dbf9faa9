package frameextractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"framegrab/internal/models"

	"go.uber.org/zap"
)

// Fixed ffmpeg settings. The seek is relative to end of stream and is not frame
// accurate: videos shorter than SeekFromEnd may fail or yield an earlier frame.
const (
	SeekFromEnd  = 0.1
	JPEGQuality  = 2
	FramesToGrab = 1
)

// Extractor pulls the last frame of a video with an ffmpeg binary.
type Extractor struct {
	ffmpegPath string
	logger     *zap.Logger
}

// New creates an Extractor that runs the ffmpeg binary at ffmpegPath.
func New(ffmpegPath string, logger *zap.Logger) *Extractor {
	return &Extractor{ffmpegPath: ffmpegPath, logger: logger}
}

// Args returns the ffmpeg argument list used to write the last frame of videoPath
// to outputPath.
func Args(videoPath, outputPath string) []string {
	return []string{
		"-sseof", fmt.Sprintf("-%g", SeekFromEnd),
		"-i", videoPath,
		"-vframes", fmt.Sprint(FramesToGrab),
		"-q:v", fmt.Sprint(JPEGQuality),
		"-y",
		outputPath,
	}
}

// ExtractLastFrame writes the final frame of videoPath to outputPath, replacing any
// existing file.
func (e *Extractor) ExtractLastFrame(ctx context.Context, videoPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, Args(videoPath, outputPath)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("running ffmpeg", zap.String("binary", e.ffmpegPath), zap.Strings("args", cmd.Args[1:]))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("ffmpeg exited with code %d: %w", exitErr.ExitCode(), err)
		} else {
			err = fmt.Errorf("ffmpeg failed to start: %w", err)
		}
		return &models.ExtractionError{
			VideoPath: videoPath,
			Stderr:    strings.TrimSpace(stderr.String()),
			Err:       err,
		}
	}

	if _, err := os.Stat(outputPath); err != nil {
		return &models.ExtractionError{
			VideoPath: videoPath,
			Stderr:    strings.TrimSpace(stderr.String()),
			Err:       fmt.Errorf("no image written: %w", err),
		}
	}

	e.logger.Debug("frame extracted", zap.String("video_path", videoPath), zap.String("output_path", outputPath))
	return nil
}
