package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/backoff"
	"github.com/blackwell-systems/assay/internal/evaluation"
)

// Config is the top-level assay configuration.
type Config struct {
	DataDir   string             `mapstructure:"data_dir"`
	ServeAddr string             `mapstructure:"serve_addr"`
	Artifacts Artifacts          `mapstructure:"artifacts"`
	Stream    Stream             `mapstructure:"stream"`
	Weights   evaluation.Weights `mapstructure:"weights"`
	Analyzer  analyzer.Tunables  `mapstructure:"analyzer"`
	Backoff   Backoff            `mapstructure:"backoff"`
	Output    Output             `mapstructure:"output"`
}

// Artifacts defines artifact store settings.
type Artifacts struct {
	// InlineLimit is the largest snapshot kept inline in the event payload.
	InlineLimit int `mapstructure:"inline_limit"`

	// SigningSecret signs time-limited artifact URLs. Required for the
	// serve command; there is no usable default.
	SigningSecret string `mapstructure:"signing_secret"`

	URLTTL time.Duration `mapstructure:"url_ttl"`
}

// Stream defines live-streaming settings.
type Stream struct {
	Buffer int `mapstructure:"buffer"`
}

// Backoff defines the append retry schedule.
type Backoff struct {
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Jitter       bool          `mapstructure:"jitter"`
}

// Policy converts the configured schedule into a backoff policy.
func (b Backoff) Policy() backoff.Policy {
	return backoff.Policy{
		InitialDelay: b.InitialDelay,
		MaxDelay:     b.MaxDelay,
		Multiplier:   b.Multiplier,
		MaxAttempts:  b.MaxAttempts,
		Jitter:       b.Jitter,
	}
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Environment variables
// prefixed ASSAY_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("serve_addr", DefaultServeAddr)
	v.SetDefault("artifacts.inline_limit", DefaultArtifacts.InlineLimit)
	// Registered so AutomaticEnv can populate it; the value itself has no
	// usable default.
	v.SetDefault("artifacts.signing_secret", "")
	v.SetDefault("artifacts.url_ttl", DefaultArtifacts.URLTTL)
	v.SetDefault("stream.buffer", DefaultStream.Buffer)
	v.SetDefault("weights.code_quality", DefaultWeights.CodeQuality)
	v.SetDefault("weights.problem_solving", DefaultWeights.ProblemSolving)
	v.SetDefault("weights.ai_collaboration", DefaultWeights.AICollaboration)
	v.SetDefault("weights.communication", DefaultWeights.Communication)
	v.SetDefault("analyzer.optimum_iterations", DefaultTunables.OptimumIterations)
	v.SetDefault("analyzer.iteration_sigma", DefaultTunables.IterationSigma)
	v.SetDefault("analyzer.comment_density_low", DefaultTunables.CommentDensityLow)
	v.SetDefault("analyzer.comment_density_high", DefaultTunables.CommentDensityHigh)
	v.SetDefault("backoff.initial_delay", DefaultBackoff.InitialDelay)
	v.SetDefault("backoff.max_delay", DefaultBackoff.MaxDelay)
	v.SetDefault("backoff.multiplier", DefaultBackoff.Multiplier)
	v.SetDefault("backoff.max_attempts", DefaultBackoff.MaxAttempts)
	v.SetDefault("backoff.jitter", DefaultBackoff.Jitter)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	v.SetEnvPrefix("ASSAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	return &cfg, nil
}

// DBPath returns the full path to the SQLite database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DefaultDBName)
}

// ArtifactRoot returns the filesystem root of the artifact store.
func (c *Config) ArtifactRoot() string {
	return filepath.Join(c.DataDir, DefaultArtifactDir)
}
