package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/api"
	"github.com/mvidal/phishguard/internal/config"
	"github.com/mvidal/phishguard/internal/core"
	"github.com/mvidal/phishguard/internal/factory"
	"github.com/mvidal/phishguard/internal/logging"
	"github.com/mvidal/phishguard/internal/ml"
	"github.com/mvidal/phishguard/internal/osint"
	"github.com/mvidal/phishguard/internal/ports"
	"github.com/mvidal/phishguard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewIntelFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register document store
	if err := container.Provide(func(f *factory.StoreFactory) (core.DocumentStore, error) {
		return f.CreateDocumentStore()
	}); err != nil {
		return nil, err
	}

	// Register risk model
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.ModelScorer {
		return ml.Load(cfg.GetString("model.artifact_path"), logger)
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(core.NewAnalysisService); err != nil {
		return nil, err
	}

	// Register enrichment orchestrator
	if err := container.Provide(func(f *factory.IntelFactory, cacheRepo core.CacheRepository, docStore core.DocumentStore) *osint.Enricher {
		return f.CreateEnricher(cacheRepo, docStore)
	}); err != nil {
		return nil, err
	}

	// Register OSINT aggregator
	if err := container.Provide(func(docStore core.DocumentStore, logger *zap.Logger) *osint.Aggregator {
		return osint.NewAggregator(docStore, logger)
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	// Register HTTP API server
	if err := container.Provide(func(cfg *config.Config, service *core.AnalysisService, enricher *osint.Enricher, aggregator *osint.Aggregator, logger *zap.Logger) *api.Server {
		apiCfg := cfg.GetAPI()
		handlers := api.NewHandlers(service, enricher, aggregator, logger, apiCfg.DefaultOwner)
		return api.NewServer(apiCfg, handlers, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
