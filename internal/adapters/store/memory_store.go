package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// MemoryStore is an in-memory implementation of the DocumentStore port,
// used for tests and single-process deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*core.AnalysisRecord
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory document store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*core.AnalysisRecord),
		logger:  logger,
	}
}

// SaveAnalysis upserts a record by ID.
func (s *MemoryStore) SaveAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[record.ID] = &clone
	return nil
}

// GetAnalysis fetches a record by ID, scoped to its owner.
func (s *MemoryStore) GetAnalysis(ctx context.Context, id, owner string) (*core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok || record.Owner != owner {
		return nil, core.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

// ListAnalyses returns the owner's records, newest first.
func (s *MemoryStore) ListAnalyses(ctx context.Context, owner string, limit int) ([]*core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*core.AnalysisRecord
	for _, record := range s.records {
		if record.Owner == owner {
			clone := *record
			records = append(records, &clone)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// CountAnalyses returns the number of records stored for the owner.
func (s *MemoryStore) CountAnalyses(ctx context.Context, owner string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.records {
		if record.Owner == owner {
			count++
		}
	}
	return count, nil
}

// DeleteAnalyses removes every record owned by the owner.
func (s *MemoryStore) DeleteAnalyses(ctx context.Context, owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, record := range s.records {
		if record.Owner == owner {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// ReplaceArtifacts overwrites the enrichment artifacts on a record.
func (s *MemoryStore) ReplaceArtifacts(ctx context.Context, id, owner string, artifacts []core.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok || record.Owner != owner {
		return core.ErrNotFound
	}
	record.Artifacts = append([]core.Artifact(nil), artifacts...)
	return nil
}

// ListArtifacts returns every artifact stored for the owner.
func (s *MemoryStore) ListArtifacts(ctx context.Context, owner string) ([]core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, record := range s.records {
		if record.Owner == owner && len(record.Artifacts) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var artifacts []core.Artifact
	for _, id := range ids {
		artifacts = append(artifacts, s.records[id].Artifacts...)
	}
	return artifacts, nil
}
