package models

import "fmt"

// DownloadError reports a failed fetch: transport error, bad status or a broken transfer.
type DownloadError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: bad status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExtractionError reports a failed ffmpeg invocation. Stderr carries the tool's diagnostics.
type ExtractionError struct {
	VideoPath string
	Stderr    string
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("extract frame from %s: %v, stderr: %s", e.VideoPath, e.Err, e.Stderr)
	}
	return fmt.Sprintf("extract frame from %s: %v", e.VideoPath, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// CleanupError is produced by best-effort releases. It is logged, never returned upward.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// UnexpectedError wraps a panic recovered while processing a single item.
type UnexpectedError struct {
	Index int
	Value any
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error processing item %d: %v", e.Index, e.Value)
}

func (e *UnexpectedError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
