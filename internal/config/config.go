package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// Config is everything a run needs. It is built once at startup and handed to the
// pipeline; nothing reads paths from package-level state. The env-default tags hold
// the locations used when nothing overrides them.
type Config struct {
	InputPath       string        `yaml:"input_path" env:"FRAMEGRAB_INPUT_PATH" env-default:"./links.md" validate:"required"`
	FFmpegPath      string        `yaml:"ffmpeg_binary" env:"FRAMEGRAB_FFMPEG_BINARY" env-default:"ffmpeg" validate:"required"`
	FFprobePath     string        `yaml:"ffprobe_binary" env:"FRAMEGRAB_FFPROBE_BINARY"`
	OutputDir       string        `yaml:"output_dir" env:"FRAMEGRAB_OUTPUT_DIR" env-default:"./frames" validate:"required"`
	TempDir         string        `yaml:"temp_dir" env:"FRAMEGRAB_TEMP_DIR" env-default:"./temp_videos" validate:"required,nefield=OutputDir"`
	HostPrefix      string        `yaml:"host_prefix" env:"FRAMEGRAB_HOST_PREFIX" env-default:"https://static.17xueba.com" validate:"required,url"`
	DownloadTimeout time.Duration `yaml:"download_timeout" env:"FRAMEGRAB_DOWNLOAD_TIMEOUT" env-default:"30m"`
	MetricsFile     string        `yaml:"metrics_file" env:"FRAMEGRAB_METRICS_FILE"`
}

// Load builds a Config from defaults, an optional YAML file and the environment,
// in that order of precedence (environment wins).
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}
	return cfg, nil
}

// Finalize expands home-relative paths and validates the result. Call it after any
// flag overrides have been applied.
func (c *Config) Finalize() error {
	for _, p := range []*string{&c.InputPath, &c.FFmpegPath, &c.FFprobePath, &c.OutputDir, &c.TempDir, &c.MetricsFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expand path %q: %w", *p, err)
		}
		*p = expanded
	}

	if c.DownloadTimeout < 0 {
		return fmt.Errorf("download timeout must not be negative, got %s", c.DownloadTimeout)
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Usage describes the environment variables understood by Load.
func Usage() string {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return desc
}
