package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite history store. It creates the
// database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_id TEXT NOT NULL DEFAULT '',
		drug TEXT NOT NULL DEFAULT '',
		risk_label TEXT NOT NULL,
		severity TEXT NOT NULL,
		confidence REAL NOT NULL,
		ocr_text TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_drug ON history(drug);
	CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores an assessment run.
func (s *SQLiteStore) Save(ctx context.Context, ocrText string, assessment domain.RiskAssessment) (*Record, error) {
	payload, err := json.Marshal(assessment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assessment: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO history (
			assessment_id, drug, risk_label, severity, confidence, ocr_text, payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		assessment.ID,
		assessment.Drug,
		string(assessment.RiskLabel),
		string(assessment.Severity),
		assessment.ConfidenceScore,
		ocrText,
		string(payload),
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get record ID: %w", err)
	}

	return &Record{
		ID:         id,
		Assessment: assessment,
		OCRText:    ocrText,
		CreatedAt:  now,
	}, nil
}

// scanner is an interface over sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a Record.
func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var payload string

	if err := s.Scan(&rec.ID, &rec.OCRText, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &rec.Assessment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored assessment: %w", err)
	}
	return rec, nil
}

const recordColumns = "id, ocr_text, payload, created_at"

// Get retrieves a record by its local ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM history WHERE id = ?", id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history record %d: %w", id, domain.ErrAssessmentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return rec, nil
}

// List returns the most recent records, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM history ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByDrug returns records for a specific generic drug.
func (s *SQLiteStore) ListByDrug(ctx context.Context, drug string, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM history WHERE drug = ? ORDER BY id DESC LIMIT ?",
		drug, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history by drug: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Export writes every stored record to w as a JSON array, oldest
// first.
func (s *SQLiteStore) Export(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM history ORDER BY id ASC")
	if err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Count returns the total number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
