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

const admissionColumns = "id, admission_no, lead_id, name, email, phone, course_id, branch_id, total_fee, fee_paid, status, created_by, created_at, updated_at"

// AdmissionRepository manages persistence for admissions and fee payments.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs an AdmissionRepository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// List returns admissions matching the filter plus a total count.
func (r *AdmissionRepository) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(admission_no) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"name":         "name",
		"admission_no": "admission_no",
		"created_at":   "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM admissions WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		admissionColumns, where, column, order, size, (page-1)*size)

	var admissions []models.Admission
	if err := r.db.SelectContext(ctx, &admissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list admissions: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM admissions WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count admissions: %w", err)
	}
	return admissions, total, nil
}

// FindByID fetches an admission by ID.
func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	query := fmt.Sprintf("SELECT %s FROM admissions WHERE id = $1 LIMIT 1", admissionColumns)
	var admission models.Admission
	if err := r.db.GetContext(ctx, &admission, query, id); err != nil {
		return nil, err
	}
	return &admission, nil
}

// NextAdmissionNo allocates the next sequence-backed admission number.
func (r *AdmissionRepository) NextAdmissionNo(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, "SELECT nextval('admission_no_seq')"); err != nil {
		return "", fmt.Errorf("next admission no: %w", err)
	}
	return fmt.Sprintf("ADM-%06d", seq), nil
}

// Create inserts a new admission.
func (r *AdmissionRepository) Create(ctx context.Context, admission *models.Admission) error {
	if admission.ID == "" {
		admission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admission.CreatedAt.IsZero() {
		admission.CreatedAt = now
	}
	admission.UpdatedAt = now
	const query = `INSERT INTO admissions (id, admission_no, lead_id, name, email, phone, course_id, branch_id, total_fee, fee_paid, status, created_by, created_at, updated_at)
        VALUES (:id, :admission_no, :lead_id, :name, :email, :phone, :course_id, :branch_id, :total_fee, :fee_paid, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admission); err != nil {
		return fmt.Errorf("create admission: %w", err)
	}
	return nil
}

// Update modifies an existing admission.
func (r *AdmissionRepository) Update(ctx context.Context, admission *models.Admission) error {
	admission.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admissions SET name = :name, email = :email, phone = :phone, course_id = :course_id,
        branch_id = :branch_id, total_fee = :total_fee, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, admission); err != nil {
		return fmt.Errorf("update admission: %w", err)
	}
	return nil
}

// UpdateStatus transitions the admission workflow state.
func (r *AdmissionRepository) UpdateStatus(ctx context.Context, id string, status models.AdmissionStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE admissions SET status = $2, updated_at = $3 WHERE id = $1", id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update admission status: %w", err)
	}
	return nil
}

// RecordPayment inserts a payment and bumps the admission's paid total in one
// transaction so the two can never drift.
func (r *AdmissionRepository) RecordPayment(ctx context.Context, payment *models.FeePayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = payment.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO fee_payments (id, admission_id, amount, mode, reference, recorded_by, paid_at, created_at)
        VALUES (:id, :admission_id, :amount, :mode, :reference, :recorded_by, :paid_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, payment); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	const bump = `UPDATE admissions SET fee_paid = fee_paid + $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, bump, payment.AdmissionID, payment.Amount, time.Now().UTC()); err != nil {
		return fmt.Errorf("bump fee paid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}
	return nil
}

// ListPayments returns payments recorded against an admission, newest first.
func (r *AdmissionRepository) ListPayments(ctx context.Context, admissionID string) ([]models.FeePayment, error) {
	const query = `SELECT id, admission_id, amount, mode, reference, recorded_by, paid_at, created_at
        FROM fee_payments WHERE admission_id = $1 ORDER BY paid_at DESC`
	var payments []models.FeePayment
	if err := r.db.SelectContext(ctx, &payments, query, admissionID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// FeeTotals sums collected and outstanding fees, optionally scoped to a branch.
func (r *AdmissionRepository) FeeTotals(ctx context.Context, branchID string) (collected, outstanding int64, err error) {
	query := `SELECT COALESCE(SUM(fee_paid), 0) AS collected, COALESCE(SUM(total_fee - fee_paid), 0) AS outstanding
        FROM admissions WHERE status IN ($1, $2)`
	args := []interface{}{models.AdmissionStatusApproved, models.AdmissionStatusConverted}
	if branchID != "" {
		query += " AND branch_id = $3"
		args = append(args, branchID)
	}
	var row struct {
		Collected   int64 `db:"collected"`
		Outstanding int64 `db:"outstanding"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return 0, 0, fmt.Errorf("fee totals: %w", err)
	}
	return row.Collected, row.Outstanding, nil
}

// CountByMonth returns admissions grouped by creation month (YYYY-MM).
func (r *AdmissionRepository) CountByMonth(ctx context.Context, months int) ([]models.KV, error) {
	if months <= 0 {
		months = 6
	}
	query := fmt.Sprintf(`SELECT TO_CHAR(created_at, 'YYYY-MM') AS key, COUNT(*) AS count FROM admissions
        WHERE created_at >= NOW() - INTERVAL '%d months' GROUP BY 1 ORDER BY 1`, months)
	var rows []models.KV
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count admissions by month: %w", err)
	}
	return rows, nil
}
