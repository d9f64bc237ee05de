package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MRCPREP_SERVER_PORT.
const EnvPrefix = "MRCPREP"

// Config is the process-wide configuration shared by the server and the CLI.
type Config struct {
	Server             ServerConfig      `mapstructure:"server"`
	DataDir            string            `mapstructure:"data_dir"`
	Segmenter          string            `mapstructure:"segmenter"`            // whitespace, words or jieba; applied to raw questions
	SegmenterCacheSize int               `mapstructure:"segmenter_cache_size"` // Cached question cuts, 0 disables the cache
	Pipeline           PipelineConfig    `mapstructure:"pipeline"`
	Index              IndexSettings     `mapstructure:"index"`
	Meilisearch        MeilisearchConfig `mapstructure:"meilisearch"`
	Logging            LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port      int     `mapstructure:"port"`
	RateLimit float64 `mapstructure:"rate_limit"` // Requests per second per client IP, 0 disables limiting
	RateBurst int     `mapstructure:"rate_burst"`
	JobsRoot  string  `mapstructure:"jobs_root"` // Directory holding the dataset files job requests may read and write
}

// PipelineConfig contains fake answer pipeline settings
type PipelineConfig struct {
	Workers       int  `mapstructure:"workers"`
	KeepUnmatched bool `mapstructure:"keep_unmatched"`
}

// MeilisearchConfig points at an external Meilisearch server.
type MeilisearchConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file and MRCPREP_* environment variables.
// An empty path searches ./mrcprep.yaml and $HOME/.config/mrcprep. Variables
// from a .env file in the working directory are exported first without
// overriding the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mrcprep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mrcprep")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Index.ApplyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.jobs_root", "./mrc_jobs")
	v.SetDefault("data_dir", "./mrc_data")
	v.SetDefault("segmenter", "whitespace")
	v.SetDefault("segmenter_cache_size", 4096)

	v.SetDefault("pipeline.workers", runtime.NumCPU())
	v.SetDefault("pipeline.keep_unmatched", false)

	v.SetDefault("index.name", "dureader")
	v.SetDefault("index.number_of_shards", DefaultShards)
	v.SetDefault("index.number_of_replicas", DefaultReplicas)
	v.SetDefault("index.similarity.type", SimilarityLMJelinekMercer)
	v.SetDefault("index.similarity.lambda", DefaultLambda)
	v.SetDefault("index.field", DefaultField)
	v.SetDefault("index.bulk_size", DefaultBulkSize)

	v.SetDefault("meilisearch.host", "http://localhost:7700")
	v.SetDefault("meilisearch.api_key", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func (cfg *Config) validate() error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("server rate limit cannot be negative, got %g", cfg.Server.RateLimit)
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst < 1 {
		return fmt.Errorf("server rate burst must be at least 1, got %d", cfg.Server.RateBurst)
	}
	if cfg.SegmenterCacheSize < 0 {
		return fmt.Errorf("segmenter cache size cannot be negative, got %d", cfg.SegmenterCacheSize)
	}
	if cfg.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got %d", cfg.Pipeline.Workers)
	}
	if problems := cfg.Index.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid index settings: %s", strings.Join(problems, "; "))
	}
	return nil
}
