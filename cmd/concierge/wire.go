package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/concierge/internal/adapters/driven/ai"
	"github.com/custodia-labs/concierge/internal/adapters/driven/config/file"
	docfile "github.com/custodia-labs/concierge/internal/adapters/driven/documents/file"
	"github.com/custodia-labs/concierge/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/concierge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/concierge/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/concierge/internal/adapters/driven/vectordb/chroma"
	"github.com/custodia-labs/concierge/internal/adapters/driven/vectordb/chromem"
	"github.com/custodia-labs/concierge/internal/adapters/driving/cli"
	"github.com/custodia-labs/concierge/internal/core/domain"
	"github.com/custodia-labs/concierge/internal/core/ports/driven"
	"github.com/custodia-labs/concierge/internal/core/ports/driving"
	"github.com/custodia-labs/concierge/internal/core/services"
	"github.com/custodia-labs/concierge/internal/logger"
	"github.com/custodia-labs/concierge/internal/postprocessors/chunker"
)

// dataDirName holds the history database under the config directory.
const dataDirName = "data"

var _ io.Closer = closerFunc(nil)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// build wires the answer and index pipeline for settings.
func build(ctx context.Context, store driven.SettingsStore, settings domain.Settings) (app *cli.App, err error) {
	app = &cli.App{Settings: settings}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	aiServices, err := ai.NewServices(ctx, settings)
	if err != nil {
		return app, err
	}
	app.Closers = append(app.Closers, closerFunc(func() error {
		aiServices.Close()
		return nil
	}))
	app.Ping = aiServices.Ping

	vectorDB, err := openVectorDB(settings.VectorStore)
	if err != nil {
		return app, err
	}
	app.Closers = append(app.Closers, vectorDB)

	history, err := openHistory(store, settings.History)
	if err != nil {
		return app, err
	}
	app.Closers = append(app.Closers, history)

	prompts, err := file.NewPromptStore(promptDir(store))
	if err != nil {
		return app, err
	}

	textChunker, err := chunker.New(chunker.WithChunkSize(settings.Index.ChunkSize))
	if err != nil {
		return app, err
	}

	metrics := prometheus.NewMetrics()
	app.Metrics = metrics.Handler()

	index := services.NewVectorIndex(vectorDB, settings.Index.Collection)
	source := docfile.NewSource(settings.Documents.Path)

	manager := services.NewIndexManager(source, textChunker, aiServices.Embedding, index, history, metrics,
		services.IndexManagerConfig{
			EmbedConcurrency:   settings.Index.EmbedConcurrency,
			EmbedBatchSize:     settings.Index.EmbedBatchSize,
			EmbedRatePerSecond: settings.Index.EmbedRatePerSecond,
			VerifyOnStart:      settings.Index.VerifyOnStart,
		})
	app.Index = manager

	// Classification samples like generation.
	genOpts := driven.GenerateOptions{
		MaxTokens:   settings.Generation.MaxTokens,
		Temperature: settings.Generation.Temperature,
		TopP:        settings.Generation.TopP,
	}
	timeout := settings.Generation.RequestTimeout()
	classifier := services.NewIntentClassifier(aiServices.LLM, prompts, genOpts, timeout)

	cfg := services.DefaultResponseGeneratorConfig()
	cfg.TopK = settings.Retrieval.TopK
	cfg.SimilarityFloor = settings.Retrieval.SimilarityFloor
	cfg.MaxSources = settings.Retrieval.MaxSources
	cfg.Generate = genOpts
	cfg.RequestTimeout = timeout

	app.Answers = services.NewResponseGenerator(classifier, index, aiServices.Embedding, aiServices.LLM,
		services.NewPromptBuilder(prompts), metrics, cfg)

	var docs driven.ChangeWatcher
	if settings.Documents.Watch {
		docs = docfile.NewWatcher(settings.Documents.Path, docfile.DefaultDebounce)
	}
	app.Watch = watchFunc(manager, docs, prompts, promptWatchers(prompts)...)

	return app, nil
}

// watchFunc runs the reindex worker fed by documents file changes, and
// reloads prompts whenever one of the prompt watchers fires. docs may be nil.
func watchFunc(
	index driving.IndexService,
	docs driven.ChangeWatcher,
	prompts driven.PromptStore,
	promptWatchers ...driven.ChangeWatcher,
) func(context.Context) error {
	return func(ctx context.Context) error {
		worker := services.NewReindexWorker(index)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return worker.Start(gctx) })
		if docs != nil {
			g.Go(func() error { return docs.Watch(gctx, worker.Notify) })
		}
		for _, w := range promptWatchers {
			g.Go(func() error {
				return w.Watch(gctx, func() {
					logger.Info("Prompt templates changed, reloading")
					prompts.Reload()
				})
			})
		}
		return g.Wait()
	}
}

// promptWatchers returns one watcher per prompt template file.
func promptWatchers(prompts *file.PromptStore) []driven.ChangeWatcher {
	files, err := prompts.Files()
	if err != nil {
		logger.Warn("Prompt files are not watched: %v", err)
		return nil
	}
	watchers := make([]driven.ChangeWatcher, 0, len(files))
	for _, path := range files {
		watchers = append(watchers, docfile.NewWatcher(path, docfile.DefaultDebounce))
	}
	return watchers
}

func openVectorDB(cfg domain.VectorStoreSettings) (driven.VectorDatabase, error) {
	switch cfg.Backend {
	case domain.VectorBackendChroma:
		logger.Debug("Using Chroma server at %s", cfg.URL)
		client, err := chroma.NewClient(chroma.Config{BaseURL: cfg.URL})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		logger.Debug("Using embedded vector store at %s", cfg.Path)
		db, err := chromem.NewDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

func openHistory(store driven.SettingsStore, cfg domain.HistorySettings) (driven.ReindexHistoryStore, error) {
	if cfg.Backend == domain.HistoryBackendMemory {
		return memory.NewHistoryStore(), nil
	}
	dir := filepath.Join(filepath.Dir(store.Path()), dataDirName)
	s, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return s, nil
}

// promptDir returns the prompts directory beside the config file.
func promptDir(store driven.SettingsStore) string {
	if s, ok := store.(interface{ PromptDir() string }); ok {
		return s.PromptDir()
	}
	return filepath.Join(filepath.Dir(store.Path()), "prompts")
}
