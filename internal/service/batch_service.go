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

type batchRepository interface {
	List(ctx context.Context, filter models.BatchFilter) ([]models.BatchDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.BatchDetail, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	IsAssigned(ctx context.Context, batchID, studentID string) (bool, error)
	AssignStudent(ctx context.Context, batchID, studentID string) error
	RemoveStudent(ctx context.Context, batchID, studentID string) error
	Roster(ctx context.Context, batchID string) ([]models.StudentDetail, error)
}

type batchTrainerResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type batchStudentResolver interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// BatchRequest holds payload for creating or updating a batch.
type BatchRequest struct {
	Name      string    `json:"name" validate:"required"`
	CourseID  string    `json:"course_id" validate:"required"`
	BranchID  string    `json:"branch_id" validate:"required"`
	TrainerID string    `json:"trainer_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
	Active    bool      `json:"active"`
}

// BatchService handles cohort scheduling and rosters.
type BatchService struct {
	repo      batchRepository
	trainers  batchTrainerResolver
	students  batchStudentResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBatchService constructs the batch service.
func NewBatchService(repo batchRepository, trainers batchTrainerResolver, students batchStudentResolver, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{repo: repo, trainers: trainers, students: students, validator: validate, logger: logger}
}

// List returns batches and pagination metadata.
func (s *BatchService) List(ctx context.Context, filter models.BatchFilter) ([]models.BatchDetail, *models.Pagination, error) {
	batches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a batch with its joined names and roster size.
func (s *BatchService) Get(ctx context.Context, id string) (*models.BatchDetail, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

// Create schedules a new batch under a trainer.
func (s *BatchService) Create(ctx context.Context, req BatchRequest) (*models.Batch, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	batch := &models.Batch{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CourseID:  req.CourseID,
		BranchID:  req.BranchID,
		TrainerID: req.TrainerID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Active:    true,
	}
	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	return batch, nil
}

// Update edits a batch schedule.
func (s *BatchService) Update(ctx context.Context, id string, req BatchRequest) (*models.Batch, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	batch := detail.Batch
	batch.Name = req.Name
	batch.CourseID = req.CourseID
	batch.BranchID = req.BranchID
	batch.TrainerID = req.TrainerID
	batch.StartDate = req.StartDate
	batch.EndDate = req.EndDate
	batch.StartTime = req.StartTime
	batch.EndTime = req.EndTime
	batch.Active = req.Active
	batch.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update batch")
	}
	return &batch, nil
}

// AssignStudent places a student into the batch roster.
func (s *BatchService) AssignStudent(ctx context.Context, batchID, studentID string) error {
	if _, err := s.Get(ctx, batchID); err != nil {
		return err
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return appErrors.Clone(appErrors.ErrConflict, "inactive students cannot join a batch")
	}

	assigned, err := s.repo.IsAssigned(ctx, batchID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
	}
	if assigned {
		return appErrors.Clone(appErrors.ErrConflict, "student is already in the batch")
	}

	if err := s.repo.AssignStudent(ctx, batchID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign student")
	}
	return nil
}

// RemoveStudent drops a student from the roster.
func (s *BatchService) RemoveStudent(ctx context.Context, batchID, studentID string) error {
	assigned, err := s.repo.IsAssigned(ctx, batchID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
	}
	if !assigned {
		return appErrors.Clone(appErrors.ErrNotFound, "student is not in the batch")
	}
	if err := s.repo.RemoveStudent(ctx, batchID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	return nil
}

// Roster lists the students assigned to a batch.
func (s *BatchService) Roster(ctx context.Context, batchID string) ([]models.StudentDetail, error) {
	if _, err := s.Get(ctx, batchID); err != nil {
		return nil, err
	}
	roster, err := s.repo.Roster(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

func (s *BatchService) validateRequest(ctx context.Context, req BatchRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	trainer, err := s.trainers.FindByID(ctx, req.TrainerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	if trainer.Role != models.RoleTrainer {
		return appErrors.Clone(appErrors.ErrValidation, "assigned user is not a trainer")
	}
	if !trainer.Active {
		return appErrors.Clone(appErrors.ErrConflict, "trainer account is inactive")
	}
	return nil
}
