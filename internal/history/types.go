// Package history keeps a local record of assessments run on this
// machine, primarily for the CLI. It is a lightweight alternative to
// the PostgreSQL repository and needs no external services.
package history

import (
	"context"
	"io"
	"time"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
)

// Record is one stored assessment run.
type Record struct {
	ID         int64                 `json:"id"`
	Assessment domain.RiskAssessment `json:"assessment"`
	OCRText    string                `json:"ocr_text"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Store persists assessment history.
type Store interface {
	// Save stores an assessment run.
	Save(ctx context.Context, ocrText string, assessment domain.RiskAssessment) (*Record, error)

	// Get retrieves a record by its local ID.
	Get(ctx context.Context, id int64) (*Record, error)

	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// ListByDrug returns records for a specific generic drug.
	ListByDrug(ctx context.Context, drug string, limit int) ([]*Record, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// Export writes all records to w as indented JSON, oldest first.
	Export(ctx context.Context, w io.Writer) error

	// Close releases the store.
	Close() error
}
