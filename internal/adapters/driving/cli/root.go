// Package cli implements the command-line interface. Commands are
// registered on the root command in their init functions; services are
// wired lazily before the first command that needs them runs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/cleardesk/hrkb/internal/adapters/driven/config/file"
	ollamaembed "github.com/cleardesk/hrkb/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/cleardesk/hrkb/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/cleardesk/hrkb/internal/adapters/driven/llm/ollama"
	openaillm "github.com/cleardesk/hrkb/internal/adapters/driven/llm/openai"
	"github.com/cleardesk/hrkb/internal/adapters/driven/storage/sqlite"
	"github.com/cleardesk/hrkb/internal/chunker"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
	"github.com/cleardesk/hrkb/internal/core/ports/driving"
	"github.com/cleardesk/hrkb/internal/core/services"
	"github.com/cleardesk/hrkb/internal/embedcache"
	"github.com/cleardesk/hrkb/internal/extractors"
	"github.com/cleardesk/hrkb/internal/extractors/docx"
	"github.com/cleardesk/hrkb/internal/extractors/markdown"
	"github.com/cleardesk/hrkb/internal/extractors/pdf"
	"github.com/cleardesk/hrkb/internal/extractors/plaintext"
	"github.com/cleardesk/hrkb/internal/index"
	"github.com/cleardesk/hrkb/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Wired services, populated by initServices.
var (
	cfg              *configfile.Config
	store            *sqlite.Store
	retrievalService driving.RetrievalService
	askService       driving.AskService
	ingestService    driving.IngestService
)

var rootCmd = &cobra.Command{
	Use:   "hrkb",
	Short: "Multi-tenant HR knowledge base with semantic retrieval",
	Long: `hrkb ingests HR policy documents per tenant, indexes them for
semantic similarity search, and answers employee questions grounded in
the retrieved policy text.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if skipWiring(cmd) {
			return nil
		}
		return initServices(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if store != nil {
			store.Close() //nolint:errcheck
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.hrkb/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// skipWiring reports whether a command runs without the full service
// graph.
func skipWiring(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return false
}

// initServices loads configuration and wires the service graph.
func initServices(cmd *cobra.Command) error {
	var err error
	cfg, err = configfile.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedding, err := newEmbeddingProvider(cfg)
	if err != nil {
		return err
	}

	cacheOpts := []embedcache.Option{embedcache.WithStore(store.CacheStore())}
	if cfg.Cache.TTLSeconds != 0 {
		cacheOpts = append(cacheOpts, embedcache.WithTTL(cfg.CacheTTL()))
	}
	if cfg.Cache.Capacity > 0 {
		cacheOpts = append(cacheOpts, embedcache.WithCapacity(cfg.Cache.Capacity))
	}
	cache := embedcache.New(embedding, cacheOpts...)

	ch, err := chunker.New(chunker.Config{
		Size:           cfg.Chunking.Size,
		Overlap:        cfg.Chunking.Overlap,
		BoundaryWindow: cfg.Chunking.BoundaryWindow,
	})
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	registry := index.NewRegistry(embedding.Dimensions())
	catalog := services.NewCatalog()
	extractorRegistry := newExtractorRegistry()

	retrievalService = services.NewRetrievalService(
		registry, embedding, catalog, cfg.Retrieval.TopK, cfg.Retrieval.MinScore)
	ingestService = services.NewIngestService(
		cfg.DomainTenants(), registry, extractorRegistry, ch, cache, store.CorpusStore(), catalog)

	llm, err := newLLMService(cfg)
	if err != nil {
		// The ask flow is optional; retrieval works without an LLM.
		logger.Warn("LLM unavailable, ask commands disabled: %v", err)
	} else {
		askService = services.NewAskService(retrievalService, llm, driven.GenerateOptions{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
	}

	if err := ingestService.Warmup(cmd.Context()); err != nil {
		return fmt.Errorf("warming up indexes: %w", err)
	}
	return nil
}

// newExtractorRegistry registers all built-in extractors.
func newExtractorRegistry() *extractors.Registry {
	r := extractors.NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// newEmbeddingProvider builds the configured embedding provider.
func newEmbeddingProvider(cfg *configfile.Config) (driven.EmbeddingProvider, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case "openai":
		return openaiembed.New(openaiembed.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// newLLMService builds the configured LLM service.
func newLLMService(cfg *configfile.Config) (driven.LLMService, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		}), nil
	case "openai":
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// errAskUnavailable is returned by ask commands when no LLM is wired.
var errAskUnavailable = errors.New("ask requires a configured LLM provider")

// watchDebounce returns the configured watcher debounce.
func watchDebounce() time.Duration {
	return time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
}
