package factory

import (
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/adapters/intel"
	"github.com/mvidal/phishguard/internal/config"
	"github.com/mvidal/phishguard/internal/core"
	"github.com/mvidal/phishguard/internal/osint"
)

// IntelFactory creates the threat-intel provider clients and wires them
// into the enrichment orchestrator.
type IntelFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIntelFactory creates a new intel factory
func NewIntelFactory(cfg *config.Config, logger *zap.Logger) *IntelFactory {
	return &IntelFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEnricher builds the enrichment orchestrator with all provider clients.
func (f *IntelFactory) CreateEnricher(cacheRepo core.CacheRepository, docStore core.DocumentStore) *osint.Enricher {
	osintCfg := f.cfg.GetOsint()

	resolver := intel.NewDNSResolver(osintCfg.DNSServer, osintCfg.DNSTimeout, f.logger)
	reputation := intel.NewVirusTotalClient(osintCfg.VirusTotalAPIKey, osintCfg.Timeout, f.logger)
	geo := intel.NewIPAPIClient(osintCfg.Timeout, f.logger)
	whois := intel.NewWhoisClient(osintCfg.WhoisAPIKey, osintCfg.Timeout, f.logger)
	blocklist := intel.NewOpenPhishClient(osintCfg.Timeout, f.logger)
	phishReport := intel.NewPhishTankClient(osintCfg.PhishTankAppKey, osintCfg.Timeout, f.logger)

	return osint.NewEnricher(
		cacheRepo,
		docStore,
		resolver,
		reputation,
		geo,
		whois,
		blocklist,
		phishReport,
		f.logger,
	)
}
