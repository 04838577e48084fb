package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexskill/institute-api/internal/models"
)

const studentDetailColumns = `s.id, s.user_id, s.admission_id, s.course_id, s.branch_id, s.batch_id,
        s.aadhaar, s.pan, s.photo, s.placement_eligible, s.certificate_locked, s.active, s.created_at, s.updated_at,
        u.first_name, u.last_name, u.email, u.phone,
        c.name AS course_name, br.name AS branch_name, b.name AS batch_name`

const studentDetailJoins = `FROM students s
        JOIN users u ON u.id = s.user_id
        LEFT JOIN courses c ON c.id = s.course_id
        LEFT JOIN branches br ON br.id = s.branch_id
        LEFT JOIN batches b ON b.id = s.batch_id`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("s.branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("s.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("s.batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Eligible != nil {
		conditions = append(conditions, fmt.Sprintf("s.placement_eligible = $%d", len(args)+1))
		args = append(args, *filter.Eligible)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.first_name) LIKE $%d OR LOWER(u.last_name) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"name":       "u.first_name",
		"created_at": "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		studentDetailColumns, studentDetailJoins, where, column, order, size, (page-1)*size)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", studentDetailJoins, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1", studentDetailColumns, studentDetailJoins)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID fetches the student profile bound to a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.user_id = $1", studentDetailColumns, studentDetailJoins)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, admission_id, course_id, branch_id, batch_id, aadhaar, pan, photo, placement_eligible, certificate_locked, active, created_at, updated_at)
        VALUES (:id, :user_id, :admission_id, :course_id, :branch_id, :batch_id, :aadhaar, :pan, :photo, :placement_eligible, :certificate_locked, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET course_id = :course_id, branch_id = :branch_id, batch_id = :batch_id,
        aadhaar = :aadhaar, pan = :pan, photo = :photo, placement_eligible = :placement_eligible,
        certificate_locked = :certificate_locked, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetEligibility flips the placement-eligibility flag.
func (r *StudentRepository) SetEligibility(ctx context.Context, id string, eligible bool) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE students SET placement_eligible = $2, updated_at = $3 WHERE id = $1", id, eligible, time.Now().UTC()); err != nil {
		return fmt.Errorf("set eligibility: %w", err)
	}
	return nil
}

// SetCertificateLock flips the certificate lock.
func (r *StudentRepository) SetCertificateLock(ctx context.Context, id string, locked bool) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE students SET certificate_locked = $2, updated_at = $3 WHERE id = $1", id, locked, time.Now().UTC()); err != nil {
		return fmt.Errorf("set certificate lock: %w", err)
	}
	return nil
}

// Deactivate marks a student as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE students SET active = false, updated_at = $2 WHERE id = $1", id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}

// CountActive returns the number of active students, optionally branch scoped.
func (r *StudentRepository) CountActive(ctx context.Context, branchID string) (int, error) {
	query := "SELECT COUNT(*) FROM students WHERE active = true"
	args := []interface{}{}
	if branchID != "" {
		query += " AND branch_id = $1"
		args = append(args, branchID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count active students: %w", err)
	}
	return count, nil
}
