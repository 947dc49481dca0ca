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

// Config holds the vecsync service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Connector   ConnectorConfig   `yaml:"connector"`
	VectorStore VectorStoreConfig `yaml:"vectorstore"`
	Sync        SyncConfig        `yaml:"sync"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Auth        AuthConfig        `yaml:"auth"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds webhook authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ConnectorConfig holds connector platform API settings.
type ConnectorConfig struct {
	BaseURL    string `yaml:"base_url"`
	SecretKey  string `yaml:"secret_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
	PageLimit  int    `yaml:"page_limit"`
}

// VectorStoreConfig holds vector store API settings. Credentials are
// per-user and live in the database, only the endpoint is global.
type VectorStoreConfig struct {
	BaseURL        string `yaml:"base_url"`
	CollectionName string `yaml:"collection_name"`
	TimeoutSec     int    `yaml:"timeout_sec"`
}

// SyncConfig holds pipeline sizing and delivery queue settings.
type SyncConfig struct {
	ChunkSize          int `yaml:"chunk_size"`
	DocumentBatchSize  int `yaml:"document_batch_size"`
	UpsertBatchSize    int `yaml:"upsert_batch_size"`
	MaxPredicates      int `yaml:"max_predicates"`
	DeleteKeysPerBatch int `yaml:"delete_keys_per_batch"`
	QueueSize          int `yaml:"queue_size"`
	Workers            int `yaml:"workers"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds the optional embedding provider settings.
// When APIKey is empty, chunks are upserted without precomputed vectors
// and the vector store embeds them server-side.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool {
	return e.APIKey != ""
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 30
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Connector.TimeoutSec <= 0 {
		c.Connector.TimeoutSec = 30
	}
	if c.Connector.PageLimit <= 0 {
		c.Connector.PageLimit = 1000
	}
	if c.VectorStore.CollectionName == "" {
		c.VectorStore.CollectionName = "default"
	}
	if c.VectorStore.TimeoutSec <= 0 {
		c.VectorStore.TimeoutSec = 60
	}
	if c.Sync.ChunkSize <= 0 {
		c.Sync.ChunkSize = 800
	}
	if c.Sync.DocumentBatchSize <= 0 {
		c.Sync.DocumentBatchSize = 300
	}
	if c.Sync.UpsertBatchSize <= 0 {
		c.Sync.UpsertBatchSize = 100
	}
	if c.Sync.MaxPredicates <= 0 {
		c.Sync.MaxPredicates = 8
	}
	if c.Sync.DeleteKeysPerBatch <= 0 {
		c.Sync.DeleteKeysPerBatch = c.Sync.MaxPredicates / 2
	}
	if c.Sync.QueueSize <= 0 {
		c.Sync.QueueSize = 256
	}
	if c.Sync.Workers <= 0 {
		c.Sync.Workers = 4
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "vecsync:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Connector.BaseURL == "" {
		return fmt.Errorf("connector.base_url is required")
	}
	if c.Connector.SecretKey == "" {
		return fmt.Errorf("connector.secret_key is required")
	}
	if c.VectorStore.BaseURL == "" {
		return fmt.Errorf("vectorstore.base_url is required")
	}
	if c.Embedding.Enabled() && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required when embedding.api_key is set")
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
