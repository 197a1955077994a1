package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	Sources    Sources    `mapstructure:"sources"`
	Pipeline   Pipeline   `mapstructure:"pipeline"`
	Clustering Clustering `mapstructure:"clustering"`
	Ranking    Ranking    `mapstructure:"ranking"`
	Checkpoint Checkpoint `mapstructure:"checkpoint"`
	Server     Server     `mapstructure:"server"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// AI holds LLM backend configuration
type AI struct {
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey              string  `mapstructure:"api_key"`
	Model               string  `mapstructure:"model"`
	Timeout             string  `mapstructure:"timeout"`
	MaxTokens           int32   `mapstructure:"max_tokens"`
	Temperature         float32 `mapstructure:"temperature"`
	EmbeddingModel      string  `mapstructure:"embedding_model"`
	EmbeddingDimensions int32   `mapstructure:"embedding_dimensions"`
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	BaseURL        string `mapstructure:"base_url"`
	Timeout        string `mapstructure:"timeout"`
}

// Sources holds news provider configuration
type Sources struct {
	Enabled       []string       `mapstructure:"enabled"`
	MaxItems      int            `mapstructure:"max_items"`
	Timeout       string         `mapstructure:"timeout"`
	EventRegistry ProviderConfig `mapstructure:"eventregistry"`
	NewsData      ProviderConfig `mapstructure:"newsdata"`
	Finlight      ProviderConfig `mapstructure:"finlight"`
	TheNewsAPI    ProviderConfig `mapstructure:"thenewsapi"`
	Fixture       FixtureConfig  `mapstructure:"fixture"`
}

// ProviderConfig holds the credentials and endpoint of one news API
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// FixtureConfig points at a YAML file of canned articles
type FixtureConfig struct {
	Path string `mapstructure:"path"`
}

// Pipeline holds workflow tuning
type Pipeline struct {
	TopNeighbors      int    `mapstructure:"top_neighbors"`
	MaxArticles       int    `mapstructure:"max_articles"`
	TopK              int    `mapstructure:"top_k"`
	EnrichConcurrency int    `mapstructure:"enrich_concurrency"`
	ScoreConcurrency  int    `mapstructure:"score_concurrency"`
	MaxRefineRounds   int    `mapstructure:"max_refine_rounds"`
	OverlapScorer     string `mapstructure:"overlap_scorer"`
	Retriever         string `mapstructure:"retriever"`
}

// Clustering holds community detection parameters
type Clustering struct {
	Resolution float64 `mapstructure:"resolution"`
	Seed       int64   `mapstructure:"seed"`
}

// Ranking holds reranker configuration
type Ranking struct {
	BatchSize int `mapstructure:"batch_size"`
}

// Checkpoint holds run state persistence configuration
type Checkpoint struct {
	Driver    string `mapstructure:"driver"`
	Directory string `mapstructure:"directory"`
	DSN       string `mapstructure:"dsn"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  string   `mapstructure:"read_timeout"`
	WriteTimeout string   `mapstructure:"write_timeout"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsgraph")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".newsgraph")

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.timeout", "60s")
	viper.SetDefault("ai.gemini.max_tokens", 8192)
	viper.SetDefault("ai.gemini.temperature", 0.2)
	viper.SetDefault("ai.gemini.embedding_model", "text-embedding-004")
	viper.SetDefault("ai.gemini.embedding_dimensions", 768)
	viper.SetDefault("ai.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.openai.embedding_model", "text-embedding-3-large")
	viper.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.openai.timeout", "60s")

	viper.SetDefault("sources.enabled", []string{"eventregistry", "newsdata", "finlight", "thenewsapi"})
	viper.SetDefault("sources.max_items", 10)
	viper.SetDefault("sources.timeout", "20s")
	viper.SetDefault("sources.eventregistry.base_url", "https://eventregistry.org")
	viper.SetDefault("sources.newsdata.base_url", "https://newsdata.io")
	viper.SetDefault("sources.finlight.base_url", "https://api.finlight.me")
	viper.SetDefault("sources.thenewsapi.base_url", "https://api.thenewsapi.com")

	viper.SetDefault("pipeline.top_neighbors", 3)
	viper.SetDefault("pipeline.max_articles", 40)
	viper.SetDefault("pipeline.top_k", 8)
	viper.SetDefault("pipeline.enrich_concurrency", 4)
	viper.SetDefault("pipeline.score_concurrency", 8)
	viper.SetDefault("pipeline.max_refine_rounds", 3)
	viper.SetDefault("pipeline.overlap_scorer", "llm")
	viper.SetDefault("pipeline.retriever", "vector")

	viper.SetDefault("clustering.resolution", 1.0)
	viper.SetDefault("clustering.seed", 1)

	viper.SetDefault("ranking.batch_size", 5)

	viper.SetDefault("checkpoint.driver", "sqlite")
	viper.SetDefault("checkpoint.directory", ".newsgraph")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "300s")
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("ai.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	bindEnvKeys("sources.eventregistry.api_key", []string{
		"EVENT_REGISTRY_API_KEY",
		"EVENTREGISTRY_API_KEY",
		"NEWSAPI_AI_KEY",
	})

	bindEnvKeys("sources.newsdata.api_key", []string{
		"NEWSDATA_API_KEY",
		"NEWSDATA_IO_API_KEY",
	})

	bindEnvKeys("sources.finlight.api_key", []string{
		"FINLIGHT_API_KEY",
	})

	bindEnvKeys("sources.thenewsapi.api_key", []string{
		"THENEWSAPI_API_KEY",
		"THE_NEWS_API_KEY",
	})

	bindEnvKeys("checkpoint.dsn", []string{
		"NEWSGRAPH_DATABASE_URL",
		"DATABASE_URL",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"NEWSGRAPH_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Checkpoint.Directory != "" {
		config.Checkpoint.Directory = expandPath(config.Checkpoint.Directory)
	}
	if config.Sources.Fixture.Path != "" {
		config.Sources.Fixture.Path = expandPath(config.Sources.Fixture.Path)
	}

	durations := map[string]string{
		"ai.gemini.timeout":    config.AI.Gemini.Timeout,
		"ai.openai.timeout":    config.AI.OpenAI.Timeout,
		"sources.timeout":      config.Sources.Timeout,
		"server.read_timeout":  config.Server.ReadTimeout,
		"server.write_timeout": config.Server.WriteTimeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	switch config.AI.Provider {
	case "gemini":
		if config.AI.Gemini.APIKey == "" {
			errors = append(errors, "Gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file.")
		}
	case "openai":
		if config.AI.OpenAI.APIKey == "" {
			errors = append(errors, "OpenAI API key is required. Set OPENAI_API_KEY environment variable or ai.openai.api_key in config file.")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown AI provider: %s. Supported: gemini, openai", config.AI.Provider))
	}

	for _, name := range config.Sources.Enabled {
		switch name {
		case "eventregistry", "newsdata", "finlight", "thenewsapi":
		case "fixture":
			if config.Sources.Fixture.Path == "" {
				errors = append(errors, "Fixture source requires sources.fixture.path")
			}
		default:
			errors = append(errors, fmt.Sprintf("Unknown news source: %s. Supported: eventregistry, newsdata, finlight, thenewsapi, fixture", name))
		}
	}

	switch config.Checkpoint.Driver {
	case "none", "sqlite":
	case "postgres":
		if config.Checkpoint.DSN == "" {
			errors = append(errors, "Postgres checkpoints require checkpoint.dsn or DATABASE_URL")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown checkpoint driver: %s. Supported: none, sqlite, postgres", config.Checkpoint.Driver))
	}

	switch config.Pipeline.OverlapScorer {
	case "llm", "jaccard":
	default:
		errors = append(errors, fmt.Sprintf("Unknown overlap scorer: %s. Supported: llm, jaccard", config.Pipeline.OverlapScorer))
	}

	switch config.Pipeline.Retriever {
	case "vector", "rerank":
	default:
		errors = append(errors, fmt.Sprintf("Unknown retriever: %s. Supported: vector, rerank", config.Pipeline.Retriever))
	}

	if config.Pipeline.TopNeighbors < 1 {
		errors = append(errors, "pipeline.top_neighbors must be at least 1")
	}
	if config.Pipeline.MaxArticles < 1 {
		errors = append(errors, "pipeline.max_articles must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Duration parses a validated duration string, returning fallback when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
