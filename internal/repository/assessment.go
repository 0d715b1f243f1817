// Package repository persists risk assessments to PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard/pgx-risk-engine/internal/domain"
)

// AssessmentRepository handles assessment persistence.
type AssessmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAssessmentRepository creates a new assessment repository.
func NewAssessmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: logger,
	}
}

// Save inserts a completed assessment. The searchable columns are
// duplicated out of the JSON payload for indexed queries.
func (r *AssessmentRepository) Save(ctx context.Context, assessment domain.RiskAssessment) error {
	payload, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("marshaling assessment: %w", err)
	}

	query := `
		INSERT INTO assessments (
			id, created_at, drug, risk_label, severity, confidence, payload
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err = r.db.Exec(ctx, query,
		assessment.ID,
		assessment.Timestamp,
		assessment.Drug,
		string(assessment.RiskLabel),
		string(assessment.Severity),
		assessment.ConfidenceScore,
		payload,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"assessment_id": assessment.ID,
			"drug":          assessment.Drug,
			"error":         err,
		}).Error("Failed to save assessment")
		return fmt.Errorf("saving assessment: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"assessment_id": assessment.ID,
		"drug":          assessment.Drug,
		"risk_label":    assessment.RiskLabel,
	}).Info("Assessment saved")

	return nil
}

// GetByID retrieves an assessment by its ID.
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (domain.RiskAssessment, error) {
	query := `SELECT payload FROM assessments WHERE id = $1`

	var payload []byte
	err := r.db.QueryRow(ctx, query, id).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.RiskAssessment{}, domain.ErrAssessmentNotFound
		}
		r.log.WithFields(logrus.Fields{
			"assessment_id": id,
			"error":         err,
		}).Error("Failed to get assessment by ID")
		return domain.RiskAssessment{}, fmt.Errorf("getting assessment by ID: %w", err)
	}

	var assessment domain.RiskAssessment
	if err := json.Unmarshal(payload, &assessment); err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("unmarshaling assessment %s: %w", id, err)
	}

	return assessment, nil
}

// ListRecent returns the most recent assessments, newest first.
func (r *AssessmentRepository) ListRecent(ctx context.Context, limit int) ([]domain.RiskAssessment, error) {
	query := `SELECT payload FROM assessments ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var assessments []domain.RiskAssessment
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning assessment row: %w", err)
		}
		var assessment domain.RiskAssessment
		if err := json.Unmarshal(payload, &assessment); err != nil {
			return nil, fmt.Errorf("unmarshaling assessment row: %w", err)
		}
		assessments = append(assessments, assessment)
	}

	return assessments, rows.Err()
}

// CountByRiskLabel returns how many stored assessments carry each risk
// label, for reporting.
func (r *AssessmentRepository) CountByRiskLabel(ctx context.Context) (map[domain.RiskLabel]int64, error) {
	query := `SELECT risk_label, COUNT(*) FROM assessments GROUP BY risk_label`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting assessments: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.RiskLabel]int64)
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[domain.RiskLabel(label)] = count
	}

	return counts, rows.Err()
}
