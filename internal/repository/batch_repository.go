package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexskill/institute-api/internal/models"
)

const batchDetailColumns = `b.id, b.name, b.course_id, b.branch_id, b.trainer_id, b.start_date, b.end_date,
        b.start_time, b.end_time, b.active, b.created_at, b.updated_at,
        c.name AS course_name, br.name AS branch_name,
        u.first_name || ' ' || u.last_name AS trainer_name,
        (SELECT COUNT(*) FROM batch_students bs WHERE bs.batch_id = b.id) AS student_count`

const batchDetailJoins = `FROM batches b
        JOIN courses c ON c.id = b.course_id
        JOIN branches br ON br.id = b.branch_id
        JOIN users u ON u.id = b.trainer_id`

// BatchRepository manages batches and their student rosters.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs a BatchRepository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns batches matching the filter.
func (r *BatchRepository) List(ctx context.Context, filter models.BatchFilter) ([]models.BatchDetail, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("b.branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("b.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TrainerID != "" {
		conditions = append(conditions, fmt.Sprintf("b.trainer_id = $%d", len(args)+1))
		args = append(args, filter.TrainerID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("b.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(b.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY b.start_date DESC LIMIT %d OFFSET %d",
		batchDetailColumns, batchDetailJoins, where, size, (page-1)*size)

	var batches []models.BatchDetail
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", batchDetailJoins, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}
	return batches, total, nil
}

// FindByID fetches a batch detail by ID.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.BatchDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE b.id = $1", batchDetailColumns, batchDetailJoins)
	var detail models.BatchDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new batch.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now
	const query = `INSERT INTO batches (id, name, course_id, branch_id, trainer_id, start_date, end_date, start_time, end_time, active, created_at, updated_at)
        VALUES (:id, :name, :course_id, :branch_id, :trainer_id, :start_date, :end_date, :start_time, :end_time, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// Update modifies an existing batch.
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch) error {
	batch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE batches SET name = :name, course_id = :course_id, branch_id = :branch_id, trainer_id = :trainer_id,
        start_date = :start_date, end_date = :end_date, start_time = :start_time, end_time = :end_time, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return nil
}

// IsAssigned reports whether a student already sits in the batch roster.
func (r *BatchRepository) IsAssigned(ctx context.Context, batchID, studentID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM batch_students WHERE batch_id = $1 AND student_id = $2 LIMIT 1", batchID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// AssignStudent adds a student to the roster and stamps their batch reference.
func (r *BatchRepository) AssignStudent(ctx context.Context, batchID, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "INSERT INTO batch_students (batch_id, student_id, assigned_at) VALUES ($1, $2, $3)", batchID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign student: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE students SET batch_id = $2, updated_at = $3 WHERE id = $1", studentID, batchID, time.Now().UTC()); err != nil {
		return fmt.Errorf("stamp student batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign tx: %w", err)
	}
	return nil
}

// RemoveStudent drops a student from the roster.
func (r *BatchRepository) RemoveStudent(ctx context.Context, batchID, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM batch_students WHERE batch_id = $1 AND student_id = $2", batchID, studentID); err != nil {
		return fmt.Errorf("remove student: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE students SET batch_id = NULL, updated_at = $2 WHERE id = $1 AND batch_id = $3", studentID, time.Now().UTC(), batchID); err != nil {
		return fmt.Errorf("clear student batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove tx: %w", err)
	}
	return nil
}

// Roster lists the students assigned to a batch.
func (r *BatchRepository) Roster(ctx context.Context, batchID string) ([]models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s JOIN batch_students bs ON bs.student_id = s.id WHERE bs.batch_id = $1 ORDER BY u.first_name ASC`,
		studentDetailColumns, studentDetailJoins)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, batchID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return students, nil
}

// CountActive returns the count of active batches, optionally branch or trainer scoped.
func (r *BatchRepository) CountActive(ctx context.Context, branchID, trainerID string) (int, error) {
	query := "SELECT COUNT(*) FROM batches WHERE active = true"
	args := []interface{}{}
	if branchID != "" {
		query += fmt.Sprintf(" AND branch_id = $%d", len(args)+1)
		args = append(args, branchID)
	}
	if trainerID != "" {
		query += fmt.Sprintf(" AND trainer_id = $%d", len(args)+1)
		args = append(args, trainerID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count active batches: %w", err)
	}
	return count, nil
}
