package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/adapters/filter"
	"github.com/mvidal/phishguard/internal/config"
	"github.com/mvidal/phishguard/internal/core"
	"github.com/mvidal/phishguard/internal/ports"
	"github.com/mvidal/phishguard/internal/utils"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalysisService
	text    *utils.TextProcessor
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.AnalysisService, text *utils.TextProcessor) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		text:    text,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	serverCfg := f.cfg.GetServer()

	switch serverCfg.FilterType {
	case "postfix":
		return filter.NewPostfixFilter(f.service, f.text, f.logger, serverCfg), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			serverCfg.Owner,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", serverCfg.FilterType)
	}
}
