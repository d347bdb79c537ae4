// Command docs-agent answers questions from ingested GitHub READMEs.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docs-agent/internal/adapters/driven/ai"
	"github.com/custodia-labs/docs-agent/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docs-agent/internal/adapters/driven/fetch"
	"github.com/custodia-labs/docs-agent/internal/adapters/driving/cli"
	"github.com/custodia-labs/docs-agent/internal/connectors/github"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/core/services"
	"github.com/custodia-labs/docs-agent/internal/logger"
	"github.com/custodia-labs/docs-agent/internal/normalisers/markdown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	dir, err := file.DefaultDir()
	if err != nil {
		logger.Error("resolving data directory: %v", err)
		return err
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		logger.Error("opening config: %v", err)
		return err
	}
	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		logger.Error("opening prompts: %v", err)
		return err
	}
	projectStore, err := file.NewProjectStore(dir)
	if err != nil {
		logger.Error("opening project registry: %v", err)
		return err
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(), nil)
	settings, err := settingsService.Get()
	if err != nil {
		logger.Error("loading settings: %v", err)
		return err
	}
	if settings.VectorStore.DataDir == "" {
		settings.VectorStore.DataDir = filepath.Join(dir, "data")
	}

	var current atomic.Pointer[domain.AppSettings]
	current.Store(settings)

	rt := newRuntimes(settings.VectorStore.DataDir)
	defer rt.close()

	holder := services.NewRuntimeHolder(rt.build(settings), settings.Embedding.APIKey)
	holder.SetDeriver(func(apiKey string) (*driven.Runtime, error) {
		return rt.derive(current.Load(), apiKey)
	})
	settingsService.OnChange(func(next *domain.AppSettings) {
		current.Store(next)
		holder.Swap(rt.build(next), next.Embedding.APIKey, rt.retire)
	})

	// Timeouts and retrieval limits are read once. SettingsService has no
	// setters for them; edits to the config file apply on restart.
	ingest := services.NewIngestService(holder, newFetcher(ctx, settings), markdown.NewSectioner(), settings.Timeouts)
	answer := services.NewAnswerService(holder, prompts, settings.Retrieval, settings.Timeouts)
	projects := services.NewProjectService(projectStore, holder, settings.Timeouts)

	cli.SetServices(cli.Services{
		Answer:       answer,
		Ingest:       ingest,
		Project:      projects,
		Settings:     settingsService,
		WatchPrompts: prompts.Watch,
	})

	return cli.Execute(ctx)
}

// newFetcher reads READMEs through the GitHub API when a token is set,
// which covers private repositories, and over plain HTTP otherwise.
func newFetcher(ctx context.Context, settings *domain.AppSettings) driven.Fetcher {
	if settings.GitHubToken != "" {
		logger.Debug("fetching READMEs through the GitHub API")
		client := github.NewClientWithToken(ctx, settings.GitHubToken, settings.Timeouts.Fetch)
		return github.NewReadmeFetcher(client)
	}
	return fetch.NewHTTPFetcher(fetch.Config{Timeout: settings.Timeouts.Fetch})
}

// runtimes builds provider runtimes around one shared vector store. The
// store is only rebuilt when its settings change.
type runtimes struct {
	dataDir string

	mu       sync.Mutex
	store    driven.VectorStore
	storeCfg domain.VectorStoreSettings

	// replaced holds stores superseded by a settings change that a
	// retired runtime may still be using.
	replaced []driven.VectorStore
}

func newRuntimes(dataDir string) *runtimes {
	return &runtimes{dataDir: dataDir}
}

// build returns a runtime for settings, or nil when providers are not
// configured yet. Commands then fail with an authorisation error.
func (r *runtimes) build(settings *domain.AppSettings) *driven.Runtime {
	base, err := r.base(settings)
	if err != nil {
		logger.Warn("vector store unavailable: %v", err)
		return nil
	}
	rt, err := ai.Rebuild(settings, base)
	if err != nil {
		logger.Warn("providers not ready: %v", err)
		return nil
	}
	return rt
}

// derive builds a request-scoped runtime that uses apiKey. The caller
// closes its providers; the store stays shared.
func (r *runtimes) derive(settings *domain.AppSettings, apiKey string) (*driven.Runtime, error) {
	base, err := r.base(settings)
	if err != nil {
		return nil, err
	}
	return ai.Rebuild(withAPIKey(settings, apiKey), base)
}

// base returns a runtime carrying only the shared vector store.
func (r *runtimes) base(settings *domain.AppSettings) (*driven.Runtime, error) {
	cfg := settings.VectorStore
	if cfg.DataDir == "" {
		cfg.DataDir = r.dataDir
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil || r.storeCfg != cfg {
		store, err := ai.CreateVectorStore(&cfg, settings.Timeouts.Search)
		if err != nil {
			return nil, err
		}
		if r.store != nil {
			r.replaced = append(r.replaced, r.store)
		}
		r.store, r.storeCfg = store, cfg
	}
	return &driven.Runtime{VectorStore: r.store, Collection: cfg.Collection}, nil
}

// retire closes a runtime no request uses any more. Its vector store is
// closed too once a settings change has superseded it.
func (r *runtimes) retire(prev *driven.Runtime) {
	closeProviders(prev)

	r.mu.Lock()
	var stale driven.VectorStore
	for i, s := range r.replaced {
		if s == prev.VectorStore {
			stale = s
			r.replaced = append(r.replaced[:i], r.replaced[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if stale != nil {
		closeStore(stale)
	}
}

func (r *runtimes) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.replaced {
		closeStore(s)
	}
	r.replaced = nil
	if r.store != nil {
		closeStore(r.store)
		r.store = nil
	}
}

func closeStore(store driven.VectorStore) {
	if err := store.Close(); err != nil {
		logger.Warn("closing vector store: %v", err)
	}
}

// withAPIKey returns a copy of settings whose OpenAI credentials are key.
func withAPIKey(settings *domain.AppSettings, key string) *domain.AppSettings {
	out := *settings
	if out.Embedding.Provider == domain.AIProviderOpenAI {
		out.Embedding.APIKey = key
	}
	if out.LLM.Provider == domain.AIProviderOpenAI {
		out.LLM.APIKey = key
	}
	return &out
}

// closeProviders closes the credential-bearing adapters of rt.
func closeProviders(rt *driven.Runtime) {
	if rt.Embedder != nil {
		if err := rt.Embedder.Close(); err != nil {
			logger.Warn("closing embedder: %v", err)
		}
	}
	if rt.Generator != nil {
		if err := rt.Generator.Close(); err != nil {
			logger.Warn("closing generator: %v", err)
		}
	}
}
