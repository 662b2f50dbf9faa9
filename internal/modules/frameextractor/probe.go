package frameextractor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/floostack/transcoder/ffmpeg"
)

// Prober reads container metadata through ffprobe.
type Prober struct {
	ffmpegPath  string
	ffprobePath string
}

// NewProber returns nil when no ffprobe binary is configured; a nil Prober is
// valid and simply reports that probing is unavailable.
func NewProber(ffmpegPath, ffprobePath string) *Prober {
	if ffprobePath == "" {
		return nil
	}
	return &Prober{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Duration reports the container duration of the video at path.
func (p *Prober) Duration(path string) (time.Duration, error) {
	if p == nil {
		return 0, fmt.Errorf("no ffprobe binary configured")
	}

	cfg := &ffmpeg.Config{
		FfmpegBinPath:  p.ffmpegPath,
		FfprobeBinPath: p.ffprobePath,
	}
	metadata, err := ffmpeg.New(cfg).Input(path).GetMetadata()
	if err != nil {
		return 0, fmt.Errorf("failed to extract file metadata information using ffprobe: %w", err)
	}

	return parseSeconds(metadata.GetFormat().GetDuration())
}

// ShorterThanSeek reports whether d is too short for the end-relative seek to land
// inside the stream.
func ShorterThanSeek(d time.Duration) bool {
	return d < time.Duration(SeekFromEnd*float64(time.Second))
}

func parseSeconds(raw string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
