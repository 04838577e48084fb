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

// OperationsRepository manages branch expenses and event plans.
type OperationsRepository struct {
	db *sqlx.DB
}

// NewOperationsRepository constructs an OperationsRepository.
func NewOperationsRepository(db *sqlx.DB) *OperationsRepository {
	return &OperationsRepository{db: db}
}

// ListExpenses returns expenses, optionally scoped to a branch and category.
func (r *OperationsRepository) ListExpenses(ctx context.Context, branchID, category string, page, pageSize int) ([]models.Expense, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if branchID != "" {
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)+1))
		args = append(args, branchID)
	}
	if category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, category)
	}
	where := strings.Join(conditions, " AND ")
	p, size := normalisePage(page, pageSize)

	query := fmt.Sprintf(`SELECT id, branch_id, category, amount, spent_on, notes, created_by, created_at, updated_at
        FROM expenses WHERE %s ORDER BY spent_on DESC LIMIT %d OFFSET %d`, where, size, (p-1)*size)
	var expenses []models.Expense
	if err := r.db.SelectContext(ctx, &expenses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM expenses WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}
	return expenses, total, nil
}

// CreateExpense inserts an expense.
func (r *OperationsRepository) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now
	const query = `INSERT INTO expenses (id, branch_id, category, amount, spent_on, notes, created_by, created_at, updated_at)
        VALUES (:id, :branch_id, :category, :amount, :spent_on, :notes, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, expense); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense.
func (r *OperationsRepository) DeleteExpense(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ListEvents returns event plans, optionally scoped to a branch.
func (r *OperationsRepository) ListEvents(ctx context.Context, branchID string, page, pageSize int) ([]models.EventPlan, int, error) {
	where := "1=1"
	args := []interface{}{}
	if branchID != "" {
		where = "branch_id = $1"
		args = append(args, branchID)
	}
	p, size := normalisePage(page, pageSize)

	query := fmt.Sprintf(`SELECT id, branch_id, title, scheduled_on, budget, status, created_at, updated_at
        FROM event_plans WHERE %s ORDER BY scheduled_on DESC LIMIT %d OFFSET %d`, where, size, (p-1)*size)
	var events []models.EventPlan
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM event_plans WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindEvent fetches an event plan by ID.
func (r *OperationsRepository) FindEvent(ctx context.Context, id string) (*models.EventPlan, error) {
	var event models.EventPlan
	const query = `SELECT id, branch_id, title, scheduled_on, budget, status, created_at, updated_at FROM event_plans WHERE id = $1 LIMIT 1`
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent inserts an event plan.
func (r *OperationsRepository) CreateEvent(ctx context.Context, event *models.EventPlan) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO event_plans (id, branch_id, title, scheduled_on, budget, status, created_at, updated_at)
        VALUES (:id, :branch_id, :title, :scheduled_on, :budget, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// UpdateEvent modifies an event plan.
func (r *OperationsRepository) UpdateEvent(ctx context.Context, event *models.EventPlan) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE event_plans SET title = :title, scheduled_on = :scheduled_on, budget = :budget, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}
