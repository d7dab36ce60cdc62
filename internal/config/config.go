package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the bookmatch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	LLM       LLMConfig       `yaml:"llm"`
	Recommend RecommendConfig `yaml:"recommend"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig holds book-catalog client settings.
type CatalogConfig struct {
	BaseURL       string `yaml:"base_url"`
	CoversBaseURL string `yaml:"covers_base_url"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	SearchLimit   int    `yaml:"search_limit"`
}

// LLMConfig holds hosted language-model settings.
type LLMConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RecommendConfig holds the recommendation pipeline tunables.
type RecommendConfig struct {
	SimilarityThreshold  float64  `yaml:"similarity_threshold"`
	MaxResults           int      `yaml:"max_results"`
	MaxKeywords          int      `yaml:"max_keywords"`
	KeywordSearchLimit   int      `yaml:"keyword_search_limit"`
	MinDescriptionLength int      `yaml:"min_description_length"`
	ExcludedTitleTerms   []string `yaml:"excluded_title_terms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// The pipeline makes dozens of upstream calls per request; leave
		// headroom above the per-call deadlines.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = "https://openlibrary.org"
	}
	if c.Catalog.CoversBaseURL == "" {
		c.Catalog.CoversBaseURL = "https://covers.openlibrary.org"
	}
	if c.Catalog.TimeoutSec <= 0 {
		c.Catalog.TimeoutSec = 10
	}
	if c.Catalog.SearchLimit <= 0 {
		c.Catalog.SearchLimit = 10
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.3-70b-versatile"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 100
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 15
	}
	if c.Recommend.SimilarityThreshold <= 0 {
		c.Recommend.SimilarityThreshold = 0.3
	}
	if c.Recommend.MaxResults <= 0 {
		c.Recommend.MaxResults = 3
	}
	if c.Recommend.MaxKeywords <= 0 {
		c.Recommend.MaxKeywords = 5
	}
	if c.Recommend.KeywordSearchLimit <= 0 {
		c.Recommend.KeywordSearchLimit = 10
	}
	if c.Recommend.MinDescriptionLength <= 0 {
		c.Recommend.MinDescriptionLength = 20
	}
	if len(c.Recommend.ExcludedTitleTerms) == 0 {
		c.Recommend.ExcludedTitleTerms = []string{
			"study guide", "companion", "analysis", "summary",
			"cliff notes", "sparknotes", "workbook",
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.Recommend.SimilarityThreshold >= 1 {
		return fmt.Errorf("recommend.similarity_threshold must be below 1, got %v",
			c.Recommend.SimilarityThreshold)
	}
	for _, term := range c.Recommend.ExcludedTitleTerms {
		if term != strings.ToLower(term) {
			return fmt.Errorf("recommend.excluded_title_terms must be lower-case, got %q", term)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
