package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// CliFilter implements a command-line interface for phishing analysis
type CliFilter struct {
	service *core.AnalysisService
	logger  *zap.Logger
	owner   string
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.AnalysisService, logger *zap.Logger, owner string, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		owner:   owner,
		verbose: verbose,
	}, nil
}

// ProcessEmail analyzes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.EmailInput) (*core.AnalysisRecord, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.Sender))

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.Sender)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	// Print body preview if verbose
	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n")

	// Analyze email
	fmt.Printf("=== Analysis ===\n")
	startTime := time.Now()
	record, err := f.service.Analyze(ctx, email, f.owner)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Risk score: %d\n", record.Result.RiskScore)
	fmt.Printf("Label: %s\n", record.Result.Label)
	fmt.Printf("Heuristic score: %d\n", record.HeuristicScore)
	fmt.Printf("Model probability: %.4f\n", record.ModelProbability)
	fmt.Printf("Model: %s %s (%s mode)\n", record.ModelInfo.Name, record.ModelInfo.Version, record.ModelInfo.Mode)
	fmt.Printf("Reasons:\n  %s\n", strings.Join(record.Result.Reasons, "\n  "))
	fmt.Printf("Processing time: %v\n", duration)

	return record, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
