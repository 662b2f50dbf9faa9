package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"framegrab/internal/models"
	"framegrab/internal/modules/frameextractor"
	"framegrab/internal/modules/metrics"
	"framegrab/internal/modules/persistence"
	"framegrab/internal/modules/report"

	"go.uber.org/zap"
)

// Fetcher downloads a single URL to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) (int64, error)
}

// FrameExtractor writes the last frame of a video file as a still image.
type FrameExtractor interface {
	ExtractLastFrame(ctx context.Context, videoPath, outputPath string) error
}

// DurationProber reports the playing time of a video file.
type DurationProber interface {
	Duration(path string) (time.Duration, error)
}

// Pipeline drives every link through fetch, extract and cleanup, one at a time and
// in document order.
type Pipeline struct {
	workspace *persistence.Workspace
	fetcher   Fetcher
	extractor FrameExtractor
	prober    DurationProber // optional
	metrics   *metrics.Recorder
	out       io.Writer   // summary destination
	logger    *zap.Logger // Logger for pipeline-wide logging
}

// New creates a new Pipeline instance.
//
// Parameters:
//   - workspace: Directory layout and file naming for the run.
//   - fetcher: Downloads each link to its temp video path.
//   - extractor: Turns each downloaded video into a still image.
//   - logger: Logger for logging pipeline events.
//
// Returns:
//   - A pointer to a new Pipeline that prints its summary to stdout and records
//     metrics into a fresh Recorder.
func New(workspace *persistence.Workspace, fetcher Fetcher, extractor FrameExtractor, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		workspace: workspace,
		fetcher:   fetcher,
		extractor: extractor,
		metrics:   metrics.New(),
		out:       os.Stdout,
		logger:    logger,
	}
}

// WithProber enables the short-video duration check.
func (p *Pipeline) WithProber(prober DurationProber) *Pipeline {
	p.prober = prober
	return p
}

// WithMetrics replaces the Recorder the run reports into.
func (p *Pipeline) WithMetrics(recorder *metrics.Recorder) *Pipeline {
	p.metrics = recorder
	return p
}

// WithOutput sets where the summary is printed.
func (p *Pipeline) WithOutput(w io.Writer) *Pipeline {
	p.out = w
	return p
}

// Run processes links in order and returns the run summary.
//
// Per-item failures never stop the loop. The only error returned is a failure to
// create the temp or output directory, in which case nothing is processed. When ctx
// is cancelled the items not yet started are counted as failed.
func (p *Pipeline) Run(ctx context.Context, links []string) (models.Summary, error) {
	summary := models.Summary{Total: len(links), OutputDir: p.workspace.OutputDir()}

	if err := p.workspace.Prepare(); err != nil {
		return summary, err
	}

	p.logger.Info("found video links", zap.Int("total", len(links)))

	for i, link := range links {
		if ctx.Err() != nil {
			remaining := len(links) - i
			p.logger.Warn("run interrupted, skipping remaining links",
				zap.Int("remaining", remaining),
				zap.Error(ctx.Err()))
			summary.Failed += remaining
			p.metrics.ItemsProcessed.WithLabelValues(models.StatusFailed.String()).Add(float64(remaining))
			break
		}

		item := p.workspace.Item(i+1, link)
		p.logger.Info("processing video", zap.Int("index", item.Index), zap.Int("total", len(links)))

		outcome := p.processItem(ctx, item)
		summary.Record(outcome)
		p.metrics.ItemsProcessed.WithLabelValues(outcome.Status.String()).Inc()
	}

	p.logger.Info("run statistics",
		zap.Int("total", summary.Total),
		zap.Int("successful", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	report.Print(p.out, summary)

	p.workspace.ReleaseTempDir()
	return summary, nil
}

// processItem takes one item to a terminal state. The temp video is always released,
// and a panic is converted into a failed outcome.
func (p *Pipeline) processItem(ctx context.Context, item models.WorkItem) (outcome models.Outcome) {
	outcome = models.Outcome{Item: item, Status: models.StatusFailed}
	log := p.logger.With(zap.Int("index", item.Index), zap.String("url", item.URL))

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = models.StatusFailed
			outcome.Err = &models.UnexpectedError{Index: item.Index, Value: r}
			log.Error("unexpected error processing video", zap.Error(outcome.Err))
		}
	}()
	defer p.workspace.Release(item.VideoPath)

	log.Info("downloading", zap.String("video_path", item.VideoPath))
	start := time.Now()
	n, err := p.fetcher.Fetch(ctx, item.URL, item.VideoPath)
	p.metrics.ObserveStage("download", start)
	if err != nil {
		log.Error("download failed", zap.Error(err))
		outcome.Err = err
		return outcome
	}
	p.metrics.DownloadedBytes.Add(float64(n))

	p.checkDuration(item, log)

	log.Info("extracting last frame", zap.String("output_path", item.OutputPath))
	start = time.Now()
	err = p.extractor.ExtractLastFrame(ctx, item.VideoPath, item.OutputPath)
	p.metrics.ObserveStage("extract", start)
	if err != nil {
		log.Error("frame extraction failed", zap.Error(err))
		outcome.Err = err
		return outcome
	}

	log.Info("successfully extracted frame", zap.String("output_path", item.OutputPath))
	outcome.Status = models.StatusSuccess
	return outcome
}

// checkDuration warns about videos too short for the end-relative seek. It never
// changes the outcome of the item.
func (p *Pipeline) checkDuration(item models.WorkItem, log *zap.Logger) {
	if p.prober == nil {
		return
	}

	d, err := p.prober.Duration(item.VideoPath)
	if err != nil {
		log.Debug("probe failed", zap.Error(err))
		return
	}
	if frameextractor.ShorterThanSeek(d) {
		log.Warn("video is shorter than the seek offset, frame may be missing or not the last",
			zap.Duration("duration", d))
	}
}
