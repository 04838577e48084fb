package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	ListByBatchDate(ctx context.Context, batchID string, date time.Time) ([]models.AttendanceRecord, error)
	SummaryByBatch(ctx context.Context, batchID string) ([]models.AttendanceSummary, error)
	StudentPercentage(ctx context.Context, studentID string) (float64, error)
}

type rosterChecker interface {
	IsAssigned(ctx context.Context, batchID, studentID string) (bool, error)
}

// AttendanceEntry is one student's mark inside a bulk sheet submission.
type AttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// MarkAttendanceRequest holds a full day sheet for a batch.
type MarkAttendanceRequest struct {
	Date    time.Time         `json:"date" validate:"required"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceService handles per-session marking and rollups.
type AttendanceService struct {
	repo      attendanceRepository
	roster    rosterChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, roster rosterChecker, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, roster: roster, validator: validate, logger: logger}
}

// Mark upserts the day's sheet for a batch. Re-marking the same day replaces
// the earlier entries. Students outside the roster are rejected before any
// row is written.
func (s *AttendanceService) Mark(ctx context.Context, batchID string, req MarkAttendanceRequest, markedBy string) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	for _, entry := range req.Entries {
		status := models.AttendanceStatus(entry.Status)
		if status != models.AttendancePresent && status != models.AttendanceAbsent && status != models.AttendanceLate {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status")
		}
		assigned, err := s.roster.IsAssigned(ctx, batchID, entry.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
		}
		if !assigned {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student is not in the batch")
		}
	}

	day := req.Date.UTC().Truncate(24 * time.Hour)
	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		record := models.AttendanceRecord{
			ID:        uuid.NewString(),
			BatchID:   batchID,
			StudentID: entry.StudentID,
			Date:      day,
			Status:    models.AttendanceStatus(entry.Status),
		}
		if markedBy != "" {
			record.MarkedBy = &markedBy
		}
		if err := s.repo.Upsert(ctx, &record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
		}
		records = append(records, record)
	}
	return records, nil
}

// Sheet returns the marks for a batch on one day.
func (s *AttendanceService) Sheet(ctx context.Context, batchID string, date time.Time) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListByBatchDate(ctx, batchID, date.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return records, nil
}

// Summary returns per-student rollups for a batch.
func (s *AttendanceService) Summary(ctx context.Context, batchID string) ([]models.AttendanceSummary, error) {
	summary, err := s.repo.SummaryByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance summary")
	}
	return summary, nil
}

// StudentPercentage returns one student's overall attendance percentage.
func (s *AttendanceService) StudentPercentage(ctx context.Context, studentID string) (float64, error) {
	pct, err := s.repo.StudentPercentage(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute attendance percentage")
	}
	return pct, nil
}
