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

type assessmentRepository interface {
	ListTests(ctx context.Context, batchID string) ([]models.Test, error)
	FindTest(ctx context.Context, id string) (*models.Test, error)
	CreateTest(ctx context.Context, test *models.Test) error
	DeleteTest(ctx context.Context, id string) error
	UpsertScore(ctx context.Context, score *models.Score) error
	ListScores(ctx context.Context, testID string) ([]models.Score, error)
}

// CreateTestRequest holds payload for scheduling a test.
type CreateTestRequest struct {
	Name     string    `json:"name" validate:"required"`
	MaxMarks int       `json:"max_marks" validate:"required,gt=0"`
	HeldOn   time.Time `json:"held_on" validate:"required"`
}

// ScoreEntry is one student's marks inside a bulk score submission.
type ScoreEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Marks     int    `json:"marks" validate:"gte=0"`
	Remarks   string `json:"remarks"`
}

// RecordScoresRequest holds bulk marks for a test.
type RecordScoresRequest struct {
	Scores []ScoreEntry `json:"scores" validate:"required,min=1,dive"`
}

// AssessmentService handles tests and scores for batches.
type AssessmentService struct {
	repo      assessmentRepository
	roster    rosterChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentService constructs the assessment service.
func NewAssessmentService(repo assessmentRepository, roster rosterChecker, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{repo: repo, roster: roster, validator: validate, logger: logger}
}

// ListTests returns the tests scheduled for a batch.
func (s *AssessmentService) ListTests(ctx context.Context, batchID string) ([]models.Test, error) {
	tests, err := s.repo.ListTests(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tests")
	}
	return tests, nil
}

// GetTest returns a single test.
func (s *AssessmentService) GetTest(ctx context.Context, id string) (*models.Test, error) {
	test, err := s.repo.FindTest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test")
	}
	return test, nil
}

// CreateTest schedules a test for a batch.
func (s *AssessmentService) CreateTest(ctx context.Context, batchID string, req CreateTestRequest) (*models.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}
	test := &models.Test{
		ID:       uuid.NewString(),
		BatchID:  batchID,
		Name:     req.Name,
		MaxMarks: req.MaxMarks,
		HeldOn:   req.HeldOn,
	}
	if err := s.repo.CreateTest(ctx, test); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create test")
	}
	return test, nil
}

// DeleteTest removes a test and its scores.
func (s *AssessmentService) DeleteTest(ctx context.Context, id string) error {
	if err := s.repo.DeleteTest(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete test")
	}
	return nil
}

// RecordScores upserts marks for roster students. Marks above the test's
// maximum are rejected.
func (s *AssessmentService) RecordScores(ctx context.Context, testID string, req RecordScoresRequest) ([]models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scores payload")
	}

	test, err := s.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	for _, entry := range req.Scores {
		if entry.Marks > test.MaxMarks {
			return nil, appErrors.Clone(appErrors.ErrValidation, "marks exceed the test maximum")
		}
		assigned, err := s.roster.IsAssigned(ctx, test.BatchID, entry.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
		}
		if !assigned {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student is not in the batch")
		}
	}

	scores := make([]models.Score, 0, len(req.Scores))
	for _, entry := range req.Scores {
		score := models.Score{
			ID:        uuid.NewString(),
			TestID:    testID,
			StudentID: entry.StudentID,
			Marks:     entry.Marks,
			Remarks:   entry.Remarks,
		}
		if err := s.repo.UpsertScore(ctx, &score); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score")
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// ListScores returns all marks for a test.
func (s *AssessmentService) ListScores(ctx context.Context, testID string) ([]models.Score, error) {
	if _, err := s.GetTest(ctx, testID); err != nil {
		return nil, err
	}
	scores, err := s.repo.ListScores(ctx, testID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return scores, nil
}
