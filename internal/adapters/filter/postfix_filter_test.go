package filter

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/adapters/store"
	"github.com/mvidal/phishguard/internal/config"
	"github.com/mvidal/phishguard/internal/core"
	"github.com/mvidal/phishguard/internal/utils"
)

type fixedScorer struct{}

func (fixedScorer) Probability(_ core.FeatureVector, _ string) float64 { return 0.5 }
func (fixedScorer) Shape() core.ModelShape                             { return core.ShapeClassic }
func (fixedScorer) Info() core.ModelInfo {
	return core.ModelInfo{Mode: "fallback", Name: "LogisticLite", Version: "0.5"}
}

func TestPostfixFilterProcessEmail(t *testing.T) {
	logger := zap.NewNop()
	docStore := store.NewMemoryStore(logger)
	service := core.NewAnalysisService(fixedScorer{}, docStore, logger)
	cfg := config.ServerConfig{Owner: "mailflow"}

	f := NewPostfixFilter(service, utils.NewTextProcessor(logger), logger, cfg)

	email := &core.EmailInput{
		Sender:  "soporte@banco.com",
		Subject: "URGENTE: verifica tu cuenta",
		Body:    "Haz clic aquí http://bit.ly/abc123 para confirmar",
	}
	record, err := f.ProcessEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("ProcessEmail() error = %v", err)
	}

	if record.Owner != "mailflow" {
		t.Errorf("Owner = %q, want mailflow", record.Owner)
	}
	if record.Result.RiskScore <= 0 {
		t.Errorf("RiskScore = %d, want positive", record.Result.RiskScore)
	}

	// The analysis is persisted under the mailflow owner.
	stored, err := docStore.ListAnalyses(context.Background(), "mailflow", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Errorf("stored %d records, want 1", len(stored))
	}
}

func TestNewPostfixFilterDefaultSubjectPrefix(t *testing.T) {
	logger := zap.NewNop()
	docStore := store.NewMemoryStore(logger)
	service := core.NewAnalysisService(fixedScorer{}, docStore, logger)

	f := NewPostfixFilter(service, utils.NewTextProcessor(logger), logger, config.ServerConfig{ModifySubject: true})
	if f.cfg.SubjectPrefix == "" {
		t.Error("SubjectPrefix not defaulted when subject rewriting is enabled")
	}

	f = NewPostfixFilter(service, utils.NewTextProcessor(logger), logger, config.ServerConfig{ModifySubject: true, SubjectPrefix: "[CAUTION] "})
	if f.cfg.SubjectPrefix != "[CAUTION] " {
		t.Errorf("SubjectPrefix = %q, want configured value kept", f.cfg.SubjectPrefix)
	}
}
