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

// PlacementRepository manages companies, placements and partner incentives.
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository constructs a PlacementRepository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

// ListCompanies returns hiring partners matching the search.
func (r *PlacementRepository) ListCompanies(ctx context.Context, search string, page, pageSize int) ([]models.Company, int, error) {
	where := "1=1"
	args := []interface{}{}
	if search != "" {
		where = "(LOWER(name) LIKE $1 OR LOWER(city) LIKE $1)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	p, size := normalisePage(page, pageSize)

	query := fmt.Sprintf(`SELECT id, name, contact, city, created_at, updated_at
        FROM companies WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`, where, size, (p-1)*size)
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM companies WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}
	return companies, total, nil
}

// FindCompany fetches a company by ID.
func (r *PlacementRepository) FindCompany(ctx context.Context, id string) (*models.Company, error) {
	var company models.Company
	const query = `SELECT id, name, contact, city, created_at, updated_at FROM companies WHERE id = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, err
	}
	return &company, nil
}

// CreateCompany inserts a company.
func (r *PlacementRepository) CreateCompany(ctx context.Context, company *models.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	company.UpdatedAt = now
	const query = `INSERT INTO companies (id, name, contact, city, created_at, updated_at)
        VALUES (:id, :name, :contact, :city, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// UpdateCompany modifies a company.
func (r *PlacementRepository) UpdateCompany(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()
	const query = `UPDATE companies SET name = :name, contact = :contact, city = :city, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return nil
}

// ListPlacements returns placements, optionally scoped to a student or company.
func (r *PlacementRepository) ListPlacements(ctx context.Context, studentID, companyID string, page, pageSize int) ([]models.Placement, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if studentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, studentID)
	}
	if companyID != "" {
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)+1))
		args = append(args, companyID)
	}
	where := strings.Join(conditions, " AND ")
	p, size := normalisePage(page, pageSize)

	query := fmt.Sprintf(`SELECT id, student_id, company_id, role_title, ctc, placed_on, created_at, updated_at
        FROM placements WHERE %s ORDER BY placed_on DESC LIMIT %d OFFSET %d`, where, size, (p-1)*size)
	var placements []models.Placement
	if err := r.db.SelectContext(ctx, &placements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list placements: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM placements WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count placements: %w", err)
	}
	return placements, total, nil
}

// CreatePlacement inserts a placement.
func (r *PlacementRepository) CreatePlacement(ctx context.Context, placement *models.Placement) error {
	if placement.ID == "" {
		placement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if placement.CreatedAt.IsZero() {
		placement.CreatedAt = now
	}
	placement.UpdatedAt = now
	const query = `INSERT INTO placements (id, student_id, company_id, role_title, ctc, placed_on, created_at, updated_at)
        VALUES (:id, :student_id, :company_id, :role_title, :ctc, :placed_on, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, placement); err != nil {
		return fmt.Errorf("create placement: %w", err)
	}
	return nil
}

// CountPlacements returns the total placements recorded.
func (r *PlacementRepository) CountPlacements(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM placements"); err != nil {
		return 0, fmt.Errorf("count placements: %w", err)
	}
	return count, nil
}

// ListIncentives returns incentives, optionally scoped to a partner.
func (r *PlacementRepository) ListIncentives(ctx context.Context, partnerID string, page, pageSize int) ([]models.Incentive, int, error) {
	where := "1=1"
	args := []interface{}{}
	if partnerID != "" {
		where = "partner_id = $1"
		args = append(args, partnerID)
	}
	p, size := normalisePage(page, pageSize)

	query := fmt.Sprintf(`SELECT id, partner_id, admission_id, amount, status, created_at, updated_at
        FROM incentives WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, (p-1)*size)
	var incentives []models.Incentive
	if err := r.db.SelectContext(ctx, &incentives, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list incentives: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM incentives WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count incentives: %w", err)
	}
	return incentives, total, nil
}

// FindIncentive fetches an incentive by ID.
func (r *PlacementRepository) FindIncentive(ctx context.Context, id string) (*models.Incentive, error) {
	var incentive models.Incentive
	const query = `SELECT id, partner_id, admission_id, amount, status, created_at, updated_at FROM incentives WHERE id = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &incentive, query, id); err != nil {
		return nil, err
	}
	return &incentive, nil
}

// CreateIncentive inserts an incentive.
func (r *PlacementRepository) CreateIncentive(ctx context.Context, incentive *models.Incentive) error {
	if incentive.ID == "" {
		incentive.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if incentive.CreatedAt.IsZero() {
		incentive.CreatedAt = now
	}
	incentive.UpdatedAt = now
	const query = `INSERT INTO incentives (id, partner_id, admission_id, amount, status, created_at, updated_at)
        VALUES (:id, :partner_id, :admission_id, :amount, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, incentive); err != nil {
		return fmt.Errorf("create incentive: %w", err)
	}
	return nil
}

// UpdateIncentiveStatus transitions an incentive's payout state.
func (r *PlacementRepository) UpdateIncentiveStatus(ctx context.Context, id string, status models.IncentiveStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE incentives SET status = $2, updated_at = $3 WHERE id = $1", id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update incentive status: %w", err)
	}
	return nil
}

// SumIncentivesDue totals non-paid incentives for a partner.
func (r *PlacementRepository) SumIncentivesDue(ctx context.Context, partnerID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM incentives WHERE partner_id = $1 AND status <> 'PAID'`
	var total int64
	if err := r.db.GetContext(ctx, &total, query, partnerID); err != nil {
		return 0, fmt.Errorf("sum incentives due: %w", err)
	}
	return total, nil
}
