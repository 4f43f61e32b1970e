package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/core"
)

// SQLiteStore is a SQLite implementation of the DocumentStore port. Records
// are stored as JSON documents; only the fields the queries need (owner,
// created_at) are lifted into columns.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite document store.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			doc TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_owner_created ON analyses(owner, created_at DESC)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// SaveAnalysis upserts a record by ID.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, record *core.AnalysisRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode analysis record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses (id, owner, doc, created_at)
		VALUES (?, ?, ?, ?)
	`, record.ID, record.Owner, string(doc), record.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store analysis record: %w", err)
	}
	return nil
}

// GetAnalysis fetches a record by ID, scoped to its owner.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id, owner string) (*core.AnalysisRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT doc FROM analyses WHERE id = ? AND owner = ?
	`, id, owner).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query analysis record: %w", err)
	}
	return decodeRecord(doc)
}

// ListAnalyses returns the owner's records, newest first.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, owner string, limit int) ([]*core.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM analyses
		WHERE owner = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}
	defer rows.Close()

	var records []*core.AnalysisRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		record, err := decodeRecord(doc)
		if err != nil {
			s.logger.Warn("Skipping undecodable analysis record", zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// CountAnalyses returns the number of records stored for the owner.
func (s *SQLiteStore) CountAnalyses(ctx context.Context, owner string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM analyses WHERE owner = ?
	`, owner).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analysis records: %w", err)
	}
	return count, nil
}

// DeleteAnalyses removes every record owned by the owner.
func (s *SQLiteStore) DeleteAnalyses(ctx context.Context, owner string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM analyses WHERE owner = ?
	`, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete analysis records: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted records: %w", err)
	}
	return int(deleted), nil
}

// ReplaceArtifacts overwrites the enrichment artifacts on a record.
func (s *SQLiteStore) ReplaceArtifacts(ctx context.Context, id, owner string, artifacts []core.Artifact) error {
	record, err := s.GetAnalysis(ctx, id, owner)
	if err != nil {
		return err
	}
	record.Artifacts = append([]core.Artifact(nil), artifacts...)
	return s.SaveAnalysis(ctx, record)
}

// ListArtifacts returns every artifact stored for the owner.
func (s *SQLiteStore) ListArtifacts(ctx context.Context, owner string) ([]core.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM analyses
		WHERE owner = ?
		ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}
	defer rows.Close()

	var artifacts []core.Artifact
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		record, err := decodeRecord(doc)
		if err != nil {
			s.logger.Warn("Skipping undecodable analysis record", zap.Error(err))
			continue
		}
		artifacts = append(artifacts, record.Artifacts...)
	}
	return artifacts, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeRecord(doc string) (*core.AnalysisRecord, error) {
	var record core.AnalysisRecord
	if err := json.Unmarshal([]byte(doc), &record); err != nil {
		return nil, fmt.Errorf("failed to decode analysis record: %w", err)
	}
	return &record, nil
}
