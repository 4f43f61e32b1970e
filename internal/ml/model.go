package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// Scorer modes recorded in the model info snapshot.
const (
	ModeArtifact = "artifact"
	ModeFallback = "fallback"
)

// Fixed-weight logistic fallback, tuned against the classic 8-feature layout.
var (
	fallbackWeights   = core.FeatureVector{0.90, 0.55, 1.30, 1.25, 0.95, 0.55, 0.0010, 0.0004}
	fallbackIntercept = -4.25
)

// Artifact is the on-disk model descriptor produced by the training scripts.
// Shape selects the feature layout; hybrid artifacts additionally carry
// per-token text weights applied to the raw email text.
type Artifact struct {
	Name        string             `json:"name"`
	Version     string             `json:"version"`
	Shape       core.ModelShape    `json:"shape"`
	Weights     []float64          `json:"weights"`
	Intercept   float64            `json:"intercept"`
	TextWeights map[string]float64 `json:"text_weights,omitempty"`
}

func (a *Artifact) validate() error {
	switch a.Shape {
	case core.ShapeClassic:
		if len(a.Weights) != 8 {
			return fmt.Errorf("classic model expects 8 weights, got %d", len(a.Weights))
		}
	case core.ShapeHybrid:
		if len(a.Weights) != 6 {
			return fmt.Errorf("hybrid model expects 6 weights, got %d", len(a.Weights))
		}
	default:
		return fmt.Errorf("unknown model shape %q", a.Shape)
	}
	return nil
}

// Load reads a model artifact and returns the scorer to use for the lifetime
// of the process. A missing or unreadable artifact is not an error: the
// fixed-weight fallback is returned instead.
func Load(path string, logger *zap.Logger) core.ModelScorer {
	if path == "" {
		logger.Info("No model artifact configured, using fallback scorer")
		return newFallback()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Model artifact not available, using fallback scorer",
			zap.String("path", path), zap.Error(err))
		return newFallback()
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		logger.Warn("Failed to parse model artifact, using fallback scorer",
			zap.String("path", path), zap.Error(err))
		return newFallback()
	}
	if err := artifact.validate(); err != nil {
		logger.Warn("Invalid model artifact, using fallback scorer",
			zap.String("path", path), zap.Error(err))
		return newFallback()
	}

	logger.Info("Model artifact loaded",
		zap.String("path", path),
		zap.String("name", artifact.Name),
		zap.String("version", artifact.Version),
		zap.String("shape", string(artifact.Shape)))

	return &trainedScorer{
		artifact: artifact,
		info: core.ModelInfo{
			Mode:     ModeArtifact,
			Name:     artifact.Name,
			Version:  artifact.Version,
			LoadedAt: time.Now().UTC(),
		},
	}
}

// trainedScorer applies a loaded logistic model.
type trainedScorer struct {
	artifact Artifact
	info     core.ModelInfo
}

func (s *trainedScorer) Shape() core.ModelShape { return s.artifact.Shape }
func (s *trainedScorer) Info() core.ModelInfo   { return s.info }

func (s *trainedScorer) Probability(features core.FeatureVector, emailText string) float64 {
	// A vector of the wrong length means the caller extracted against a
	// different shape; degrade to the fallback formula rather than fail.
	if len(features) != len(s.artifact.Weights) {
		return fallbackProbability(features)
	}

	z := s.artifact.Intercept
	for i, w := range s.artifact.Weights {
		z += w * features[i]
	}
	if s.artifact.Shape == core.ShapeHybrid {
		z += textScore(emailText, s.artifact.TextWeights)
	}
	return sigmoid(z)
}

// textScore sums the weights of artifact vocabulary tokens present in the
// email text.
func textScore(text string, weights map[string]float64) float64 {
	if len(weights) == 0 {
		return 0
	}
	var z float64
	for token, w := range weights {
		if strings.Contains(text, token) {
			z += w
		}
	}
	return z
}

// fallbackScorer is the fixed-weight logistic scorer used when no artifact
// is loaded.
type fallbackScorer struct {
	info core.ModelInfo
}

func newFallback() *fallbackScorer {
	return &fallbackScorer{
		info: core.ModelInfo{
			Mode:     ModeFallback,
			Name:     "LogisticLite",
			Version:  "0.5",
			LoadedAt: time.Now().UTC(),
		},
	}
}

func (s *fallbackScorer) Shape() core.ModelShape { return core.ShapeClassic }
func (s *fallbackScorer) Info() core.ModelInfo   { return s.info }

func (s *fallbackScorer) Probability(features core.FeatureVector, _ string) float64 {
	return fallbackProbability(features)
}

func fallbackProbability(features core.FeatureVector) float64 {
	z := fallbackIntercept
	for i, x := range features {
		if i >= len(fallbackWeights) {
			break
		}
		z += fallbackWeights[i] * x
	}
	return sigmoid(z)
}

// sigmoid is numerically stable: it saturates to 0 or 1 instead of
// overflowing for large magnitude inputs.
func sigmoid(z float64) float64 {
	switch {
	case z < -500:
		return 0.0
	case z > 500:
		return 1.0
	default:
		return 1.0 / (1.0 + math.Exp(-z))
	}
}
