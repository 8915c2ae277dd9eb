// Package config loads the service configuration from the environment, an optional .env file and an optional config file.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/nudge"
	"github.com/drakos74/impulse/internal/persona"
	"github.com/drakos74/impulse/internal/pipeline"
	"github.com/drakos74/impulse/internal/provider"
	"github.com/drakos74/impulse/internal/score"
	"github.com/drakos74/impulse/internal/storage"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of all environment variables.
const EnvPrefix = "IMPULSE"

const (
	DefaultPort     = 5000
	DefaultLogLevel = "info"
)

// Config holds the service configuration.
type Config struct {
	Port            int
	LogLevel        string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiURL       string
	NudgeTimeout    time.Duration
	DemoDatasetPath string
	MaxRows         int
	Clusters        int
	Seed            int64
	MaxIterations   int
	Workers         int
	StorageDir      string
	Weights         score.Weights
}

// Defaults sets the default value of every key.
func Defaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", nudge.DefaultGeminiModel)
	v.SetDefault("gemini_url", nudge.DefaultGeminiURL)
	v.SetDefault("nudge_timeout", nudge.DefaultTimeout)
	v.SetDefault("demo_dataset_path", "")
	v.SetDefault("max_rows", provider.DefaultMaxRows)
	v.SetDefault("clusters", persona.DefaultClusters)
	v.SetDefault("seed", persona.DefaultSeed)
	v.SetDefault("max_iterations", persona.DefaultIterations)
	v.SetDefault("workers", 0)
	v.SetDefault("storage_dir", storage.DefaultDir)
	for _, c := range model.Components {
		v.SetDefault(weightKey(c), score.DefaultWeights.Get(c))
	}
}

func weightKey(c model.Component) string {
	return fmt.Sprintf("weights.%s", c)
}

// New creates a viper instance bound to the environment.
// A .env file in the working directory is loaded first, if present.
func New() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the generative api key is also picked up without the prefix
	_ = v.BindEnv("gemini_api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")
	return v
}

// ReadFile merges the given config file into the configuration.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("could not read config file '%s': %w", path, err)
	}
	return nil
}

// Load builds and validates the configuration.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:            v.GetInt("port"),
		LogLevel:        v.GetString("log_level"),
		GeminiAPIKey:    v.GetString("gemini_api_key"),
		GeminiModel:     v.GetString("gemini_model"),
		GeminiURL:       v.GetString("gemini_url"),
		NudgeTimeout:    v.GetDuration("nudge_timeout"),
		DemoDatasetPath: v.GetString("demo_dataset_path"),
		MaxRows:         v.GetInt("max_rows"),
		Clusters:        v.GetInt("clusters"),
		Seed:            v.GetInt64("seed"),
		MaxIterations:   v.GetInt("max_iterations"),
		Workers:         v.GetInt("workers"),
		StorageDir:      v.GetString("storage_dir"),
	}
	for _, c := range model.Components {
		cfg.Weights[c] = v.GetFloat64(weightKey(c))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration bounds.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.LogLevel, err)
	}
	if c.NudgeTimeout <= 0 {
		return fmt.Errorf("nudge timeout must be positive: %v", c.NudgeTimeout)
	}
	if c.MaxRows < 1 {
		return fmt.Errorf("max rows must be positive: %d", c.MaxRows)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative: %d", c.Workers)
	}
	return c.Options().Validate()
}

// Options are the training options of the configuration.
func (c *Config) Options() pipeline.Options {
	workers := c.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return pipeline.Options{
		Weights: c.Weights,
		Persona: persona.Config{
			Clusters:      c.Clusters,
			Seed:          c.Seed,
			MaxIterations: c.MaxIterations,
			MaxFitUsers:   persona.MaxFitUsers,
		},
		Workers: workers,
	}
}

// Level is the configured log level.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Generator returns the generative nudge client, nil if no api key is configured.
func (c *Config) Generator() nudge.Generator {
	if c.GeminiAPIKey == "" {
		return nil
	}
	return nudge.NewGemini(c.GeminiAPIKey, c.GeminiModel).WithURL(c.GeminiURL)
}
