package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Validation errors surfaced to callers before any scoring happens.
var (
	ErrEmptySubject = errors.New("subject is required")
	ErrEmptyBody    = errors.New("body is required")
)

// AnalysisService is the core service for email phishing analysis. It runs
// the heuristic rule engine and the model scorer, blends the two scores, and
// persists the result.
type AnalysisService struct {
	scorer ModelScorer
	store  DocumentStore
	logger *zap.Logger
	clock  func() time.Time
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(scorer ModelScorer, store DocumentStore, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		scorer: scorer,
		store:  store,
		logger: logger,
		clock:  time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *AnalysisService) WithClock(clock func() time.Time) *AnalysisService {
	s.clock = clock
	return s
}

// Analyze validates and scores an email, persists the record under the owner,
// and returns it. Scoring itself cannot fail; only validation and persistence
// produce errors.
func (s *AnalysisService) Analyze(ctx context.Context, email *EmailInput, owner string) (*AnalysisRecord, error) {
	if strings.TrimSpace(email.Subject) == "" {
		return nil, ErrEmptySubject
	}
	if strings.TrimSpace(email.Body) == "" {
		return nil, ErrEmptyBody
	}

	heuristic := ScoreEmail(email)
	features := ExtractFeatures(email, heuristic.Indicators, s.scorer.Shape())
	probability := s.scorer.Probability(features, EmailText(email))
	result := CombineScores(heuristic, probability, s.scorer.Info())

	record := &AnalysisRecord{
		ID:               uuid.NewString(),
		Owner:            owner,
		Email:            *email,
		Result:           *result,
		HeuristicScore:   heuristic.RiskScore,
		ModelProbability: probability,
		ModelInfo:        s.scorer.Info(),
		CreatedAt:        s.clock().UTC(),
	}

	if err := s.store.SaveAnalysis(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	s.logger.Info("Email analyzed",
		zap.String("analysis_id", record.ID),
		zap.Int("heuristic_score", heuristic.RiskScore),
		zap.Float64("ml_probability", probability),
		zap.Int("risk_score", result.RiskScore),
		zap.String("label", string(result.Label)))

	return record, nil
}

// Get fetches a stored analysis by ID, scoped to its owner.
func (s *AnalysisService) Get(ctx context.Context, id, owner string) (*AnalysisRecord, error) {
	return s.store.GetAnalysis(ctx, id, owner)
}

// List returns the owner's analyses, newest first. The limit is clamped
// to 1..100.
func (s *AnalysisService) List(ctx context.Context, owner string, limit int) ([]*AnalysisRecord, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.ListAnalyses(ctx, owner, limit)
}

// ClearHistory removes every stored analysis for the owner and reports how
// many were removed.
func (s *AnalysisService) ClearHistory(ctx context.Context, owner string) (int, error) {
	deleted, err := s.store.DeleteAnalyses(ctx, owner)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Cleared analysis history",
		zap.String("owner", owner),
		zap.Int("deleted", deleted))
	return deleted, nil
}

// ModelInfo exposes the loaded model descriptor.
func (s *AnalysisService) ModelInfo() ModelInfo {
	return s.scorer.Info()
}

// CombineScores blends the heuristic score with the model probability at
// equal weight and re-applies the label thresholds. The model's contribution
// is rounded to a 0-100 scale before blending.
func CombineScores(heuristic *AnalyzeResult, probability float64, info ModelInfo) *AnalyzeResult {
	modelScore := math.Round(probability * 100)
	combined := clampScore(int(math.Round(0.5*float64(heuristic.RiskScore) + 0.5*modelScore)))

	reasons := make([]string, 0, len(heuristic.Reasons)+1)
	reasons = append(reasons, heuristic.Reasons...)
	reasons = append(reasons, fmt.Sprintf("Model probability %.2f (%s mode)", probability, info.Mode))

	return &AnalyzeResult{
		RiskScore:  combined,
		Label:      LabelForScore(combined),
		Reasons:    reasons,
		Indicators: heuristic.Indicators,
	}
}
