package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexskill/institute-api/internal/models"
)

// PortfolioRepository manages portfolio tasks and submissions.
type PortfolioRepository struct {
	db *sqlx.DB
}

// NewPortfolioRepository constructs a PortfolioRepository.
func NewPortfolioRepository(db *sqlx.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// ListTasks returns tasks for a batch ordered by due date.
func (r *PortfolioRepository) ListTasks(ctx context.Context, batchID string) ([]models.PortfolioTask, error) {
	const query = `SELECT id, batch_id, title, description, due_date, created_by, created_at, updated_at
        FROM portfolio_tasks WHERE batch_id = $1 ORDER BY due_date ASC`
	var tasks []models.PortfolioTask
	if err := r.db.SelectContext(ctx, &tasks, query, batchID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// FindTask fetches a task by ID.
func (r *PortfolioRepository) FindTask(ctx context.Context, id string) (*models.PortfolioTask, error) {
	const query = `SELECT id, batch_id, title, description, due_date, created_by, created_at, updated_at
        FROM portfolio_tasks WHERE id = $1 LIMIT 1`
	var task models.PortfolioTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask inserts a task.
func (r *PortfolioRepository) CreateTask(ctx context.Context, task *models.PortfolioTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	const query = `INSERT INTO portfolio_tasks (id, batch_id, title, description, due_date, created_by, created_at, updated_at)
        VALUES (:id, :batch_id, :title, :description, :due_date, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// DeleteTask removes a task and its submissions.
func (r *PortfolioRepository) DeleteTask(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete task tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM portfolio_submissions WHERE task_id = $1", id); err != nil {
		return fmt.Errorf("delete submissions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM portfolio_tasks WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return tx.Commit()
}

// UpsertSubmission writes a student's submission; resubmitting resets the
// review state back to SUBMITTED.
func (r *PortfolioRepository) UpsertSubmission(ctx context.Context, sub *models.PortfolioSubmission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	const query = `INSERT INTO portfolio_submissions (id, task_id, student_id, url, status, feedback, reviewed_by, created_at, updated_at)
        VALUES (:id, :task_id, :student_id, :url, :status, :feedback, :reviewed_by, :created_at, :updated_at)
        ON CONFLICT (task_id, student_id)
        DO UPDATE SET url = EXCLUDED.url, status = EXCLUDED.status, feedback = '', reviewed_by = NULL, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// FindSubmission fetches a submission by ID.
func (r *PortfolioRepository) FindSubmission(ctx context.Context, id string) (*models.PortfolioSubmission, error) {
	const query = `SELECT id, task_id, student_id, url, status, feedback, reviewed_by, created_at, updated_at
        FROM portfolio_submissions WHERE id = $1 LIMIT 1`
	var sub models.PortfolioSubmission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions returns submissions for a task.
func (r *PortfolioRepository) ListSubmissions(ctx context.Context, taskID string) ([]models.PortfolioSubmission, error) {
	const query = `SELECT id, task_id, student_id, url, status, feedback, reviewed_by, created_at, updated_at
        FROM portfolio_submissions WHERE task_id = $1 ORDER BY created_at ASC`
	var subs []models.PortfolioSubmission
	if err := r.db.SelectContext(ctx, &subs, query, taskID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// Review records a trainer's verdict on a submission.
func (r *PortfolioRepository) Review(ctx context.Context, id string, status models.SubmissionStatus, feedback, reviewerID string) error {
	const query = `UPDATE portfolio_submissions SET status = $2, feedback = $3, reviewed_by = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, feedback, reviewerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("review submission: %w", err)
	}
	return nil
}

// CountPendingReviews counts SUBMITTED items across a trainer's batches.
func (r *PortfolioRepository) CountPendingReviews(ctx context.Context, trainerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM portfolio_submissions ps
        JOIN portfolio_tasks pt ON pt.id = ps.task_id
        JOIN batches b ON b.id = pt.batch_id
        WHERE b.trainer_id = $1 AND ps.status = 'SUBMITTED'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, trainerID); err != nil {
		return 0, fmt.Errorf("count pending reviews: %w", err)
	}
	return count, nil
}

// CountPendingTasks counts tasks a student has not submitted yet.
func (r *PortfolioRepository) CountPendingTasks(ctx context.Context, studentID, batchID string) (int, error) {
	const query = `SELECT COUNT(*) FROM portfolio_tasks pt
        WHERE pt.batch_id = $1 AND NOT EXISTS (
            SELECT 1 FROM portfolio_submissions ps WHERE ps.task_id = pt.id AND ps.student_id = $2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, batchID, studentID); err != nil {
		return 0, fmt.Errorf("count pending tasks: %w", err)
	}
	return count, nil
}
