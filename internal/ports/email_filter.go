package ports

import (
	"context"

	"github.com/mvidal/phishguard/internal/core"
)

// EmailFilter defines the interface for email ingress filtering
type EmailFilter interface {
	// ProcessEmail analyzes an email and returns the stored record
	ProcessEmail(ctx context.Context, email *core.EmailInput) (*core.AnalysisRecord, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
