// Package file provides TOML-based configuration loading.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// Default configuration values.
const (
	DefaultMinScore    = 0.55
	DefaultTopK        = 3
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.2
)

// Config is the full application configuration loaded from TOML.
type Config struct {
	// DataDir is the directory holding the SQLite database. Empty means
	// ~/.hrkb/data.
	DataDir string `toml:"data_dir"`

	Tenants   []TenantConfig  `toml:"tenants"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Cache     CacheConfig     `toml:"cache"`
	Watch     WatchConfig     `toml:"watch"`
}

// TenantConfig defines one tenant and its knowledge directory.
type TenantConfig struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	KnowledgeDir string   `toml:"knowledge_dir"`
	Features     []string `toml:"features"`
}

// ChunkingConfig controls how documents are split.
type ChunkingConfig struct {
	Size           int `toml:"size"`
	Overlap        int `toml:"overlap"`
	BoundaryWindow int `toml:"boundary_window"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	APIKey     string `toml:"api_key"`
	// APIKeyEnv names an environment variable consulted when api_key is
	// empty, so keys stay out of the config file.
	APIKeyEnv string `toml:"api_key_env"`
}

// LLMConfig selects and configures the answer-generation model.
type LLMConfig struct {
	Provider    string  `toml:"provider"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	APIKeyEnv   string  `toml:"api_key_env"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// RetrievalConfig controls ranking and filtering.
type RetrievalConfig struct {
	// MinScore is the relevance floor; matches below it are discarded.
	MinScore float64 `toml:"min_score"`
	TopK     int     `toml:"top_k"`
}

// CacheConfig controls the embedding cache.
type CacheConfig struct {
	// TTLSeconds is the entry lifetime; zero means the default, a
	// negative value disables expiry.
	TTLSeconds int `toml:"ttl_seconds"`
	Capacity   int `toml:"capacity"`
}

// WatchConfig controls the knowledge-directory watcher.
type WatchConfig struct {
	// DebounceMillis is how long to wait after the last filesystem
	// event before triggering a reload.
	DebounceMillis int `toml:"debounce_millis"`
}

// Load reads and validates configuration from a TOML file. If path is
// empty, defaults to ~/.hrkb/config.toml.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".hrkb", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.Retrieval.MinScore == 0 {
		c.Retrieval.MinScore = DefaultMinScore
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = DefaultTopK
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = DefaultTemperature
	}
	if c.Watch.DebounceMillis == 0 {
		c.Watch.DebounceMillis = 500
	}
	if c.Embedding.APIKey == "" && c.Embedding.APIKeyEnv != "" {
		c.Embedding.APIKey = os.Getenv(c.Embedding.APIKeyEnv)
	}
	if c.LLM.APIKey == "" && c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Tenants) == 0 {
		return fmt.Errorf("%w: no tenants configured", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool)
	for _, t := range c.Tenants {
		if err := domain.TenantID(t.ID).Validate(); err != nil {
			return fmt.Errorf("tenant %q: %w", t.ID, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate tenant %q", domain.ErrInvalidInput, t.ID)
		}
		seen[t.ID] = true
		if t.KnowledgeDir == "" {
			return fmt.Errorf("%w: tenant %q has no knowledge_dir", domain.ErrInvalidInput, t.ID)
		}
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be in [0, 1]", domain.ErrInvalidInput)
	}
	return nil
}

// DomainTenants converts the tenant configuration to domain tenants.
func (c *Config) DomainTenants() []domain.Tenant {
	tenants := make([]domain.Tenant, 0, len(c.Tenants))
	for _, t := range c.Tenants {
		tenants = append(tenants, domain.Tenant{
			ID:           domain.TenantID(t.ID),
			Name:         t.Name,
			KnowledgeDir: t.KnowledgeDir,
			Features:     t.Features,
		})
	}
	return tenants
}

// CacheTTL returns the configured cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds < 0 {
		return -1
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Tenant returns the configuration for a tenant ID, or nil.
func (c *Config) Tenant(id domain.TenantID) *TenantConfig {
	for i := range c.Tenants {
		if c.Tenants[i].ID == string(id) {
			return &c.Tenants[i]
		}
	}
	return nil
}
