// Package config provides configuration loading and validation for contribfang.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/contribfang/pkg/gitlog"
	"github.com/Sumatoshi-tech/contribfang/pkg/render"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("pipeline workers must not be negative")
	ErrInvalidTimeout     = errors.New("pipeline git timeout must not be negative")
	ErrInvalidLogSize     = errors.New("invalid pipeline max log size")
	ErrInvalidBackend     = errors.New("invalid pipeline backend")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidLogFormat   = errors.New("invalid logging format")
	ErrInvalidSampleRatio = errors.New("telemetry sample ratio must be within [0, 1]")
	ErrInvalidWindow      = errors.New("invalid analysis window")
)

const (
	envPrefix  = "CONTRIBFANG"
	configName = "contribfang"

	defaultGitTimeout = "5m"
	defaultMaxLogSize = "512MB"

	logFormatText = "text"
	logFormatJSON = "json"
)

// Config holds all configuration for contribfang.
type Config struct {
	Analysis     AnalysisConfig     `mapstructure:"analysis"`
	Repositories RepositoriesConfig `mapstructure:"repositories"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Output       OutputConfig       `mapstructure:"output"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

// AnalysisConfig selects what counts as a contribution.
type AnalysisConfig struct {
	Since           string   `mapstructure:"since"`
	Until           string   `mapstructure:"until"`
	ExcludeDocs     bool     `mapstructure:"exclude_docs"`
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
	ExcludeAuthors  []string `mapstructure:"exclude_authors"`
}

// RepositoriesConfig selects the repositories to scan. Paths win over Dir.
type RepositoriesConfig struct {
	Dir   string   `mapstructure:"dir"`
	Paths []string `mapstructure:"paths"`
}

// PipelineConfig tunes log retrieval.
type PipelineConfig struct {
	Backend    string        `mapstructure:"backend"`
	Workers    int           `mapstructure:"workers"`
	GitTimeout time.Duration `mapstructure:"git_timeout"`
	// MaxLogSize is a humanized byte size such as "512MB". "0" disables the cap.
	MaxLogSize string `mapstructure:"max_log_size"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format          string `mapstructure:"format"`
	Path            string `mapstructure:"path"`
	NoColor         bool   `mapstructure:"no_color"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig configures OTLP export. An empty endpoint disables it.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
}

// LoadConfig loads configuration from file and environment variables.
// With an empty configPath, contribfang.yaml is looked up in the working
// directory, ./config and $HOME/.config/contribfang; a missing file is not
// an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME/.config/contribfang")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("analysis.since", "")
	viperCfg.SetDefault("analysis.until", "")
	viperCfg.SetDefault("analysis.exclude_docs", false)
	viperCfg.SetDefault("analysis.exclude_patterns", []string{})
	viperCfg.SetDefault("analysis.exclude_authors", []string{})

	viperCfg.SetDefault("repositories.dir", "")
	viperCfg.SetDefault("repositories.paths", []string{})

	viperCfg.SetDefault("pipeline.backend", gitlog.BackendCLI)
	viperCfg.SetDefault("pipeline.workers", 0)
	viperCfg.SetDefault("pipeline.git_timeout", defaultGitTimeout)
	viperCfg.SetDefault("pipeline.max_log_size", defaultMaxLogSize)

	viperCfg.SetDefault("output.format", string(render.FormatText))
	viperCfg.SetDefault("output.path", "")
	viperCfg.SetDefault("output.no_color", false)
	viperCfg.SetDefault("output.metrics_textfile", "")

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", logFormatText)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.environment", "")
}

// Validate checks every section. It is called by LoadConfig and again by
// callers that override fields from flags.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Pipeline.Workers)
	}

	if c.Pipeline.GitTimeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Pipeline.GitTimeout)
	}

	if _, err := c.Pipeline.MaxLogBytes(); err != nil {
		return err
	}

	if _, err := gitlog.NewSource(gitlog.SourceOptions{Backend: c.Pipeline.Backend}); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Pipeline.Backend)
	}

	if _, err := render.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if !slices.Contains([]string{logFormatText, logFormatJSON}, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if _, err := c.Analysis.Window(); err != nil {
		return err
	}

	return nil
}

// MaxLogBytes parses MaxLogSize. Empty and "0" mean unlimited.
func (p PipelineConfig) MaxLogBytes() (uint64, error) {
	if strings.TrimSpace(p.MaxLogSize) == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(p.MaxLogSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidLogSize, p.MaxLogSize, err)
	}

	return n, nil
}

// Window parses Since and Until.
func (a AnalysisConfig) Window() (gitlog.Window, error) {
	w, err := gitlog.NewWindow(a.Since, a.Until)
	if err != nil {
		return gitlog.Window{}, fmt.Errorf("%w: %w", ErrInvalidWindow, err)
	}

	return w, nil
}

// LogJSON reports whether logs are JSON formatted.
func (l LoggingConfig) LogJSON() bool {
	return strings.EqualFold(l.Format, logFormatJSON)
}
