package ml

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

func TestLoadMissingArtifactUsesFallback(t *testing.T) {
	scorer := Load(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())

	info := scorer.Info()
	if info.Mode != ModeFallback {
		t.Errorf("Mode = %q, want %q", info.Mode, ModeFallback)
	}
	if info.Name != "LogisticLite" || info.Version != "0.5" {
		t.Errorf("model = %s %s, want LogisticLite 0.5", info.Name, info.Version)
	}
	if scorer.Shape() != core.ShapeClassic {
		t.Errorf("Shape = %q, want %q", scorer.Shape(), core.ShapeClassic)
	}
}

func TestLoadEmptyPathUsesFallback(t *testing.T) {
	scorer := Load("", zap.NewNop())
	if scorer.Info().Mode != ModeFallback {
		t.Errorf("Mode = %q, want %q", scorer.Info().Mode, ModeFallback)
	}
}

func TestLoadBadArtifactUsesFallback(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{not json`},
		{"wrong weight count", `{"name":"m","version":"1","shape":"classic","weights":[1,2,3],"intercept":0}`},
		{"unknown shape", `{"name":"m","version":"1","shape":"deep","weights":[1,2,3,4,5,6,7,8],"intercept":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			scorer := Load(path, zap.NewNop())
			if scorer.Info().Mode != ModeFallback {
				t.Errorf("Mode = %q, want %q", scorer.Info().Mode, ModeFallback)
			}
		})
	}
}

func TestLoadClassicArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	artifact := `{
		"name": "phish-lr",
		"version": "1.2",
		"shape": "classic",
		"weights": [0.9, 0.5, 1.3, 1.2, 0.9, 0.5, 0.001, 0.0004],
		"intercept": -4.0
	}`
	if err := os.WriteFile(path, []byte(artifact), 0644); err != nil {
		t.Fatal(err)
	}

	scorer := Load(path, zap.NewNop())

	info := scorer.Info()
	if info.Mode != ModeArtifact {
		t.Errorf("Mode = %q, want %q", info.Mode, ModeArtifact)
	}
	if info.Name != "phish-lr" || info.Version != "1.2" {
		t.Errorf("model = %s %s, want phish-lr 1.2", info.Name, info.Version)
	}
	if scorer.Shape() != core.ShapeClassic {
		t.Errorf("Shape = %q, want %q", scorer.Shape(), core.ShapeClassic)
	}

	p := scorer.Probability(core.FeatureVector{0, 0, 0, 0, 0, 0, 0, 0}, "")
	if p <= 0 || p >= 0.5 {
		t.Errorf("zero-vector probability = %v, want in (0, 0.5)", p)
	}
}

func TestTrainedScorerWrongVectorLengthDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	artifact := `{"name":"m","version":"1","shape":"classic","weights":[0,0,0,0,0,0,0,0],"intercept":100}`
	if err := os.WriteFile(path, []byte(artifact), 0644); err != nil {
		t.Fatal(err)
	}
	scorer := Load(path, zap.NewNop())

	// A six-element vector does not match the classic layout, so the fixed
	// fallback weights apply and the huge intercept is ignored.
	p := scorer.Probability(core.FeatureVector{0, 0, 0, 0, 0, 0}, "")
	if p >= 0.5 {
		t.Errorf("probability = %v, want fallback value below 0.5", p)
	}
}

func TestHybridArtifactUsesTextWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	artifact := `{
		"name": "phish-hybrid",
		"version": "2.0",
		"shape": "hybrid",
		"weights": [0, 0, 0, 0, 0, 0],
		"intercept": 0,
		"text_weights": {"premio": 600}
	}`
	if err := os.WriteFile(path, []byte(artifact), 0644); err != nil {
		t.Fatal(err)
	}
	scorer := Load(path, zap.NewNop())

	if scorer.Shape() != core.ShapeHybrid {
		t.Fatalf("Shape = %q, want %q", scorer.Shape(), core.ShapeHybrid)
	}

	features := core.FeatureVector{0, 0, 0, 0, 0, 0}
	if p := scorer.Probability(features, "reclama tu premio ahora"); p != 1.0 {
		t.Errorf("probability with token hit = %v, want 1.0", p)
	}
	if p := scorer.Probability(features, "nos vemos en la oficina"); p != 0.5 {
		t.Errorf("probability without token hit = %v, want 0.5", p)
	}
}

func TestFallbackProbabilityBounds(t *testing.T) {
	scorer := newFallback()

	low := scorer.Probability(core.FeatureVector{0, 0, 0, 0, 0, 0, 0, 0}, "")
	high := scorer.Probability(core.FeatureVector{6, 3, 1, 1, 3, 1, 60, 500}, "")

	if low <= 0 || low >= 1 {
		t.Errorf("low probability = %v, want in (0,1)", low)
	}
	if high <= 0 || high >= 1 {
		t.Errorf("high probability = %v, want in (0,1)", high)
	}
	if high <= low {
		t.Errorf("high (%v) should exceed low (%v)", high, low)
	}
}

func TestSigmoidSaturation(t *testing.T) {
	if got := sigmoid(-1000); got != 0.0 {
		t.Errorf("sigmoid(-1000) = %v, want 0", got)
	}
	if got := sigmoid(1000); got != 1.0 {
		t.Errorf("sigmoid(1000) = %v, want 1", got)
	}
	if got := sigmoid(0); got != 0.5 {
		t.Errorf("sigmoid(0) = %v, want 0.5", got)
	}
}
