package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type operationsRepository interface {
	ListExpenses(ctx context.Context, branchID, category string, page, pageSize int) ([]models.Expense, int, error)
	CreateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	ListEvents(ctx context.Context, branchID string, page, pageSize int) ([]models.EventPlan, int, error)
	FindEvent(ctx context.Context, id string) (*models.EventPlan, error)
	CreateEvent(ctx context.Context, event *models.EventPlan) error
	UpdateEvent(ctx context.Context, event *models.EventPlan) error
}

// CreateExpenseRequest holds payload for logging branch spend.
type CreateExpenseRequest struct {
	BranchID string    `json:"branch_id" validate:"required"`
	Category string    `json:"category" validate:"required"`
	Amount   int64     `json:"amount" validate:"required,gt=0"`
	SpentOn  time.Time `json:"spent_on" validate:"required"`
	Notes    string    `json:"notes"`
}

// EventPlanRequest holds payload for scheduling a branch event.
type EventPlanRequest struct {
	BranchID    string    `json:"branch_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	ScheduledOn time.Time `json:"scheduled_on" validate:"required"`
	Budget      int64     `json:"budget" validate:"gte=0"`
	Status      string    `json:"status"`
}

// OperationsService handles branch expenses and event planning.
type OperationsService struct {
	repo      operationsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOperationsService constructs the operations service.
func NewOperationsService(repo operationsRepository, validate *validator.Validate, logger *zap.Logger) *OperationsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationsService{repo: repo, validator: validate, logger: logger}
}

// ListExpenses returns branch spend entries.
func (s *OperationsService) ListExpenses(ctx context.Context, branchID, category string, page, pageSize int) ([]models.Expense, *models.Pagination, error) {
	expenses, total, err := s.repo.ListExpenses(ctx, branchID, category, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expenses")
	}
	return expenses, paginationFor(page, pageSize, total), nil
}

// CreateExpense logs a spend entry.
func (s *OperationsService) CreateExpense(ctx context.Context, req CreateExpenseRequest, createdBy string) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expense payload")
	}
	expense := &models.Expense{
		ID:       uuid.NewString(),
		BranchID: req.BranchID,
		Category: req.Category,
		Amount:   req.Amount,
		SpentOn:  req.SpentOn,
		Notes:    req.Notes,
	}
	if createdBy != "" {
		expense.CreatedBy = &createdBy
	}
	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create expense")
	}
	return expense, nil
}

// DeleteExpense removes a spend entry.
func (s *OperationsService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete expense")
	}
	return nil
}

// ListEvents returns planned branch events.
func (s *OperationsService) ListEvents(ctx context.Context, branchID string, page, pageSize int) ([]models.EventPlan, *models.Pagination, error) {
	events, total, err := s.repo.ListEvents(ctx, branchID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, paginationFor(page, pageSize, total), nil
}

// CreateEvent schedules a branch event.
func (s *OperationsService) CreateEvent(ctx context.Context, req EventPlanRequest) (*models.EventPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event := &models.EventPlan{
		ID:          uuid.NewString(),
		BranchID:    req.BranchID,
		Title:       req.Title,
		ScheduledOn: req.ScheduledOn,
		Budget:      req.Budget,
		Status:      models.EventPlanned,
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// UpdateEvent edits a planned event, including transitioning its status.
func (s *OperationsService) UpdateEvent(ctx context.Context, id string, req EventPlanRequest) (*models.EventPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	status := models.EventStatus(req.Status)
	if req.Status != "" && status != models.EventPlanned && status != models.EventDone && status != models.EventCancelled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid event status")
	}

	event, err := s.repo.FindEvent(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	event.BranchID = req.BranchID
	event.Title = req.Title
	event.ScheduledOn = req.ScheduledOn
	event.Budget = req.Budget
	if req.Status != "" {
		event.Status = status
	}
	event.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}
