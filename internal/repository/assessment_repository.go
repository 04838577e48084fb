package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexskill/institute-api/internal/models"
)

// AssessmentRepository manages tests and scores.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs an AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListTests returns tests for a batch, most recent first.
func (r *AssessmentRepository) ListTests(ctx context.Context, batchID string) ([]models.Test, error) {
	const query = `SELECT id, batch_id, name, max_marks, held_on, created_at, updated_at
        FROM tests WHERE batch_id = $1 ORDER BY held_on DESC`
	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, query, batchID); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

// FindTest fetches a test by ID.
func (r *AssessmentRepository) FindTest(ctx context.Context, id string) (*models.Test, error) {
	const query = `SELECT id, batch_id, name, max_marks, held_on, created_at, updated_at FROM tests WHERE id = $1 LIMIT 1`
	var test models.Test
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		return nil, err
	}
	return &test, nil
}

// CreateTest inserts a test.
func (r *AssessmentRepository) CreateTest(ctx context.Context, test *models.Test) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if test.CreatedAt.IsZero() {
		test.CreatedAt = now
	}
	test.UpdatedAt = now
	const query = `INSERT INTO tests (id, batch_id, name, max_marks, held_on, created_at, updated_at)
        VALUES (:id, :batch_id, :name, :max_marks, :held_on, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

// DeleteTest removes a test and its scores.
func (r *AssessmentRepository) DeleteTest(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete test tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM scores WHERE test_id = $1", id); err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tests WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	return tx.Commit()
}

// UpsertScore writes one student's marks for a test; re-recording overwrites.
func (r *AssessmentRepository) UpsertScore(ctx context.Context, score *models.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO scores (id, test_id, student_id, marks, remarks, created_at, updated_at)
        VALUES (:id, :test_id, :student_id, :marks, :remarks, :created_at, :updated_at)
        ON CONFLICT (test_id, student_id)
        DO UPDATE SET marks = EXCLUDED.marks, remarks = EXCLUDED.remarks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// ListScores returns all scores for a test.
func (r *AssessmentRepository) ListScores(ctx context.Context, testID string) ([]models.Score, error) {
	const query = `SELECT id, test_id, student_id, marks, remarks, created_at, updated_at
        FROM scores WHERE test_id = $1 ORDER BY marks DESC`
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, testID); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// CountUpcoming counts tests held today or later for a trainer's batches.
func (r *AssessmentRepository) CountUpcoming(ctx context.Context, trainerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tests t JOIN batches b ON b.id = t.batch_id
        WHERE b.trainer_id = $1 AND t.held_on >= CURRENT_DATE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, trainerID); err != nil {
		return 0, fmt.Errorf("count upcoming tests: %w", err)
	}
	return count, nil
}
