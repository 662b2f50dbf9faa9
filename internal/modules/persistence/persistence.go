package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"framegrab/internal/models"

	"go.uber.org/zap"
)

// Workspace owns the scratch and output directories of a run and the file names
// placed inside them.
type Workspace struct {
	tempDir   string // Directory for downloaded videos, removed at the end of a run
	outputDir string // Directory where still images are kept
	logger    *zap.Logger
}

// New creates a Workspace over the given directories. Nothing is created on disk
// until Prepare is called.
func New(tempDir, outputDir string, logger *zap.Logger) *Workspace {
	return &Workspace{tempDir: tempDir, outputDir: outputDir, logger: logger}
}

// OutputDir returns the directory holding the still images.
func (w *Workspace) OutputDir() string { return w.outputDir }

// Prepare creates both directories if they are absent.
func (w *Workspace) Prepare() error {
	for _, dir := range []string{w.tempDir, w.outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Item derives the file locations for the link at the given 1-based index.
//
// Parameters:
//   - index: position of the link in the document, starting at 1.
//   - url: the link itself; its final path segment names the output image.
//
// Returns:
//   - A WorkItem with VideoPath under the temp dir and OutputPath under the output dir.
func (w *Workspace) Item(index int, url string) models.WorkItem {
	id := VideoID(url)
	return models.WorkItem{
		Index:      index,
		URL:        url,
		VideoID:    id,
		VideoPath:  filepath.Join(w.tempDir, fmt.Sprintf("video_%02d.mp4", index)),
		OutputPath: filepath.Join(w.outputDir, fmt.Sprintf("frame_%02d_%s.jpg", index, id)),
	}
}

// VideoID is the last "/" separated segment of url without a trailing ".mp4".
func VideoID(url string) string {
	segment := url[strings.LastIndex(url, "/")+1:]
	return strings.TrimSuffix(segment, ".mp4")
}

// Release removes path on a best-effort basis: a failure is logged and discarded.
func (w *Workspace) Release(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.logger.Debug("release failed", zap.Error(&models.CleanupError{Path: path, Err: err}))
		return
	}
	w.logger.Debug("cleaned up", zap.String("path", path))
}

// ReleaseTempDir removes the temp dir if it is empty. Leftover entries or any other
// failure leave it in place and are only logged.
func (w *Workspace) ReleaseTempDir() {
	if err := os.Remove(w.tempDir); err != nil {
		w.logger.Debug("temp directory kept", zap.Error(&models.CleanupError{Path: w.tempDir, Err: err}))
		return
	}
	w.logger.Info("cleaned up temp directory", zap.String("path", w.tempDir))
}
