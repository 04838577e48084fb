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

type portfolioRepository interface {
	ListTasks(ctx context.Context, batchID string) ([]models.PortfolioTask, error)
	FindTask(ctx context.Context, id string) (*models.PortfolioTask, error)
	CreateTask(ctx context.Context, task *models.PortfolioTask) error
	DeleteTask(ctx context.Context, id string) error
	UpsertSubmission(ctx context.Context, sub *models.PortfolioSubmission) error
	FindSubmission(ctx context.Context, id string) (*models.PortfolioSubmission, error)
	ListSubmissions(ctx context.Context, taskID string) ([]models.PortfolioSubmission, error)
	Review(ctx context.Context, id string, status models.SubmissionStatus, feedback, reviewerID string) error
}

// CreateTaskRequest holds payload for publishing a portfolio task.
type CreateTaskRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

// SubmitWorkRequest holds a student's submission link.
type SubmitWorkRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ReviewSubmissionRequest holds the trainer's verdict.
type ReviewSubmissionRequest struct {
	Status   string `json:"status" validate:"required"`
	Feedback string `json:"feedback"`
}

// PortfolioService handles tasks, submissions and reviews.
type PortfolioService struct {
	repo      portfolioRepository
	roster    rosterChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPortfolioService constructs the portfolio service.
func NewPortfolioService(repo portfolioRepository, roster rosterChecker, validate *validator.Validate, logger *zap.Logger) *PortfolioService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioService{repo: repo, roster: roster, validator: validate, logger: logger}
}

// ListTasks returns the tasks published to a batch.
func (s *PortfolioService) ListTasks(ctx context.Context, batchID string) ([]models.PortfolioTask, error) {
	tasks, err := s.repo.ListTasks(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// GetTask returns a single task.
func (s *PortfolioService) GetTask(ctx context.Context, id string) (*models.PortfolioTask, error) {
	task, err := s.repo.FindTask(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// CreateTask publishes a task to a batch.
func (s *PortfolioService) CreateTask(ctx context.Context, batchID string, req CreateTaskRequest, createdBy string) (*models.PortfolioTask, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task := &models.PortfolioTask{
		ID:          uuid.NewString(),
		BatchID:     batchID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if createdBy != "" {
		task.CreatedBy = &createdBy
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// DeleteTask removes a task and its submissions.
func (s *PortfolioService) DeleteTask(ctx context.Context, id string) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

// Submit records a student's work. Resubmitting replaces the earlier upload
// and resets any review.
func (s *PortfolioService) Submit(ctx context.Context, taskID, studentID string, req SubmitWorkRequest) (*models.PortfolioSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	assigned, err := s.roster.IsAssigned(ctx, task.BatchID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is not in the task's batch")
	}

	sub := &models.PortfolioSubmission{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		StudentID: studentID,
		URL:       req.URL,
		Status:    models.SubmissionSubmitted,
	}
	if err := s.repo.UpsertSubmission(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submission")
	}
	return sub, nil
}

// ListSubmissions returns all submissions for a task.
func (s *PortfolioService) ListSubmissions(ctx context.Context, taskID string) ([]models.PortfolioSubmission, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubmissions(ctx, taskID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return subs, nil
}

// Review records the trainer's verdict on a submission.
func (s *PortfolioService) Review(ctx context.Context, submissionID string, req ReviewSubmissionRequest, reviewerID string) (*models.PortfolioSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	status := models.SubmissionStatus(req.Status)
	if status != models.SubmissionApproved && status != models.SubmissionRework {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review status must be APPROVED or REWORK")
	}

	sub, err := s.repo.FindSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	if err := s.repo.Review(ctx, submissionID, status, req.Feedback, reviewerID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review")
	}

	sub.Status = status
	sub.Feedback = req.Feedback
	if reviewerID != "" {
		sub.ReviewedBy = &reviewerID
	}
	return sub, nil
}
