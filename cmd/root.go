package cmd

import (
	"context"
	"fmt"
	"os"

	"framegrab/internal/config"
	"framegrab/internal/modules/downloader"
	"framegrab/internal/modules/filereader"
	"framegrab/internal/modules/frameextractor"
	"framegrab/internal/modules/metrics"
	"framegrab/internal/modules/persistence"
	"framegrab/internal/modules/pipeline"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	configPath  string
	inputPath   string
	ffmpegPath  string
	ffprobePath string
	outputDir   string
	tempDir     string
	hostPrefix  string
	metricsFile string
	verbose     bool
}

// Execute runs the root command and exits non-zero only on setup failures.
func Execute(ctx context.Context, logger *zap.Logger, level zap.AtomicLevel) {
	if err := NewRootCmd(ctx, logger, level).Execute(); err != nil {
		logger.Error("execution failed", zap.Error(err))
		os.Exit(1)
	}
}

// NewRootCmd builds the framegrab command bound to ctx and logger.
func NewRootCmd(ctx context.Context, logger *zap.Logger, level zap.AtomicLevel) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "framegrab",
		Short: "Save the last frame of every video linked from a document",
		Long: `A CLI tool that reads video links from a text document, downloads each video,
extracts its final frame with ffmpeg and saves it as frame_<NN>_<id>.jpg.

` + config.Usage(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				level.SetLevel(zap.DebugLevel)
			}
			return run(ctx, cmd, opts, logger)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	flags.StringVarP(&opts.inputPath, "input", "i", "", "Path to the document containing video links")
	flags.StringVar(&opts.ffmpegPath, "ffmpeg", "", "Path to the ffmpeg executable")
	flags.StringVar(&opts.ffprobePath, "ffprobe", "", "Path to the ffprobe executable (enables duration checks)")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for extracted frames")
	flags.StringVar(&opts.tempDir, "temp-dir", "", "Scratch directory for downloaded videos")
	flags.StringVar(&opts.hostPrefix, "host-prefix", "", "Only links starting with this prefix are processed")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write prometheus metrics to this file after the run")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.Duration("download-timeout", 0, "Overall limit for a single download (0 disables)")

	return rootCmd
}

func run(ctx context.Context, cmd *cobra.Command, opts *options, logger *zap.Logger) error {
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd.Flags(), opts, cfg); err != nil {
		return err
	}
	if err := cfg.Finalize(); err != nil {
		return err
	}

	logger.Info("starting frame extraction",
		zap.String("input_path", cfg.InputPath),
		zap.String("output_dir", cfg.OutputDir),
		zap.String("temp_dir", cfg.TempDir))

	links, err := filereader.ReadLinks(cfg.InputPath, cfg.HostPrefix, logger)
	if err != nil {
		return err
	}

	recorder := metrics.New()
	p := pipeline.New(
		persistence.New(cfg.TempDir, cfg.OutputDir, logger),
		downloader.New(cfg.DownloadTimeout, logger),
		frameextractor.New(cfg.FFmpegPath, logger),
		logger,
	).WithMetrics(recorder).WithOutput(cmd.OutOrStdout())

	if prober := frameextractor.NewProber(cfg.FFmpegPath, cfg.FFprobePath); prober != nil {
		p.WithProber(prober)
	}

	if _, err := p.Run(ctx, links); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics not written", zap.Error(err))
		}
	}
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(flags *pflag.FlagSet, opts *options, cfg *config.Config) error {
	overrides := map[string]struct {
		src string
		dst *string
	}{
		"input":        {opts.inputPath, &cfg.InputPath},
		"ffmpeg":       {opts.ffmpegPath, &cfg.FFmpegPath},
		"ffprobe":      {opts.ffprobePath, &cfg.FFprobePath},
		"output-dir":   {opts.outputDir, &cfg.OutputDir},
		"temp-dir":     {opts.tempDir, &cfg.TempDir},
		"host-prefix":  {opts.hostPrefix, &cfg.HostPrefix},
		"metrics-file": {opts.metricsFile, &cfg.MetricsFile},
	}
	for name, o := range overrides {
		if flags.Changed(name) {
			*o.dst = o.src
		}
	}

	if flags.Changed("download-timeout") {
		d, err := flags.GetDuration("download-timeout")
		if err != nil {
			return fmt.Errorf("read download-timeout flag: %w", err)
		}
		cfg.DownloadTimeout = d
	}
	return nil
}
