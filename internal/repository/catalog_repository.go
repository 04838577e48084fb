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

// CatalogRepository manages courses and branches.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCourses returns courses matching the filter.
func (r *CatalogRepository) ListCourses(ctx context.Context, filter models.CatalogFilter) ([]models.Course, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT id, name, code, duration_weeks, fee, active, created_at, updated_at
        FROM courses WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`, where, size, (page-1)*size)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM courses WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindCourse fetches a course by ID.
func (r *CatalogRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	const query = `SELECT id, name, code, duration_weeks, fee, active, created_at, updated_at FROM courses WHERE id = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// CreateCourse inserts a course.
func (r *CatalogRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, name, code, duration_weeks, fee, active, created_at, updated_at)
        VALUES (:id, :name, :code, :duration_weeks, :fee, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// UpdateCourse modifies a course.
func (r *CatalogRepository) UpdateCourse(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, code = :code, duration_weeks = :duration_weeks, fee = :fee, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// ListBranches returns branches matching the filter.
func (r *CatalogRepository) ListBranches(ctx context.Context, filter models.CatalogFilter) ([]models.Branch, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(city) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT id, name, code, city, active, created_at, updated_at
        FROM branches WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`, where, size, (page-1)*size)
	var branches []models.Branch
	if err := r.db.SelectContext(ctx, &branches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list branches: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM branches WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count branches: %w", err)
	}
	return branches, total, nil
}

// FindBranch fetches a branch by ID.
func (r *CatalogRepository) FindBranch(ctx context.Context, id string) (*models.Branch, error) {
	var branch models.Branch
	const query = `SELECT id, name, code, city, active, created_at, updated_at FROM branches WHERE id = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &branch, query, id); err != nil {
		return nil, err
	}
	return &branch, nil
}

// CreateBranch inserts a branch.
func (r *CatalogRepository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	if branch.ID == "" {
		branch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if branch.CreatedAt.IsZero() {
		branch.CreatedAt = now
	}
	branch.UpdatedAt = now
	const query = `INSERT INTO branches (id, name, code, city, active, created_at, updated_at)
        VALUES (:id, :name, :code, :city, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

// UpdateBranch modifies a branch.
func (r *CatalogRepository) UpdateBranch(ctx context.Context, branch *models.Branch) error {
	branch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE branches SET name = :name, code = :code, city = :city, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	return nil
}
