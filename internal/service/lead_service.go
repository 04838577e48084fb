package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type leadRepository interface {
	List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error)
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error
}

type leadAdmissionRepository interface {
	NextAdmissionNo(ctx context.Context) (string, error)
	Create(ctx context.Context, admission *models.Admission) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// notifier is the slice of NotificationService the domain services depend on.
type notifier interface {
	NotifyUsers(title, body string, userIDs ...string)
	NotifyRoles(title, body string, roles ...models.UserRole)
}

// CreateLeadRequest holds payload for capturing a lead.
type CreateLeadRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Phone    string  `json:"phone" validate:"required"`
	Source   string  `json:"source"`
	BranchID string  `json:"branch_id" validate:"required"`
	CourseID *string `json:"course_id"`
	Notes    string  `json:"notes"`
}

// UpdateLeadRequest holds payload for editing a lead.
type UpdateLeadRequest struct {
	Name       string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"omitempty,email"`
	Phone      string  `json:"phone" validate:"required"`
	Source     string  `json:"source"`
	CourseID   *string `json:"course_id"`
	AssignedTo *string `json:"assigned_to"`
	Notes      string  `json:"notes"`
}

// ConvertLeadRequest carries the admission terms for a lead conversion.
type ConvertLeadRequest struct {
	CourseID string `json:"course_id" validate:"required"`
	TotalFee int64  `json:"total_fee" validate:"required,gt=0"`
}

// LeadService handles the enquiry pipeline.
type LeadService struct {
	repo       leadRepository
	admissions leadAdmissionRepository
	audits     auditRecorder
	notifier   notifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewLeadService constructs the lead service.
func NewLeadService(repo leadRepository, admissions leadAdmissionRepository, audits auditRecorder, notify notifier, validate *validator.Validate, logger *zap.Logger) *LeadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{repo: repo, admissions: admissions, audits: audits, notifier: notify, validator: validate, logger: logger}
}

// List returns leads and pagination metadata.
func (s *LeadService) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, *models.Pagination, error) {
	leads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leads")
	}
	return leads, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single lead.
func (s *LeadService) Get(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lead")
	}
	return lead, nil
}

// Create captures a lead from a staff member. assignedTo may be empty.
func (s *LeadService) Create(ctx context.Context, req CreateLeadRequest, assignedTo string) (*models.Lead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead payload")
	}

	lead := &models.Lead{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Source:   req.Source,
		BranchID: req.BranchID,
		CourseID: req.CourseID,
		Status:   models.LeadStatusNew,
		Notes:    req.Notes,
	}
	if lead.Source == "" {
		lead.Source = "WALK_IN"
	}
	if assignedTo != "" {
		lead.AssignedTo = &assignedTo
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lead")
	}
	return lead, nil
}

// CreatePublic captures a lead from the unauthenticated enquiry form. The
// source is forced so website submissions cannot spoof attribution.
func (s *LeadService) CreatePublic(ctx context.Context, req CreateLeadRequest) (*models.Lead, error) {
	req.Source = "WEBSITE"
	lead, err := s.Create(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyRoles("New website enquiry", fmt.Sprintf("%s enquired about a course", lead.Name), models.RoleAdmin, models.RoleChannelPartner)
	}
	return lead, nil
}

// Update edits lead fields. Converted leads are frozen.
func (s *LeadService) Update(ctx context.Context, id string, req UpdateLeadRequest) (*models.Lead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead payload")
	}

	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Status == models.LeadStatusConverted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "converted leads cannot be edited")
	}

	lead.Name = req.Name
	lead.Email = req.Email
	lead.Phone = req.Phone
	lead.Source = req.Source
	lead.CourseID = req.CourseID
	lead.AssignedTo = req.AssignedTo
	lead.Notes = req.Notes
	lead.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lead")
	}
	return lead, nil
}

// UpdateStatus moves a lead along the pipeline. CONVERTED is only reachable
// through Convert, and terminal states stay terminal.
func (s *LeadService) UpdateStatus(ctx context.Context, id string, status models.LeadStatus) (*models.Lead, error) {
	if !models.ValidLeadStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid lead status")
	}
	if status == models.LeadStatusConverted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "use the convert operation to convert a lead")
	}

	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Status == models.LeadStatusConverted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "converted leads cannot change status")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lead status")
	}
	lead.Status = status
	return lead, nil
}

// Delete removes a lead.
func (s *LeadService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lead")
	}
	return nil
}

// Convert turns a lead into a pending admission and freezes the lead.
func (s *LeadService) Convert(ctx context.Context, id string, req ConvertLeadRequest, actorID string) (*models.Admission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid convert payload")
	}

	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch lead.Status {
	case models.LeadStatusConverted:
		return nil, appErrors.Clone(appErrors.ErrConflict, "lead is already converted")
	case models.LeadStatusLost:
		return nil, appErrors.Clone(appErrors.ErrConflict, "lost leads cannot be converted")
	}

	admissionNo, err := s.admissions.NextAdmissionNo(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate admission number")
	}

	admission := &models.Admission{
		ID:          uuid.NewString(),
		AdmissionNo: admissionNo,
		LeadID:      &lead.ID,
		Name:        lead.Name,
		Email:       lead.Email,
		Phone:       lead.Phone,
		CourseID:    req.CourseID,
		BranchID:    lead.BranchID,
		TotalFee:    req.TotalFee,
		FeePaid:     0,
		Status:      models.AdmissionStatusPending,
	}
	if actorID != "" {
		admission.CreatedBy = &actorID
	}
	if err := s.admissions.Create(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admission")
	}

	if err := s.repo.UpdateStatus(ctx, lead.ID, models.LeadStatusConverted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark lead converted")
	}

	if s.audits != nil {
		if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     admission.CreatedBy,
			Action:     models.AuditActionConvert,
			Resource:   "lead",
			ResourceID: &lead.ID,
			NewValues:  []byte(fmt.Sprintf(`{"admission_no":%q}`, admission.AdmissionNo)),
		}); err != nil {
			s.logger.Warn("failed to record conversion audit log", zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyRoles("Lead converted", fmt.Sprintf("%s converted to admission %s", lead.Name, admission.AdmissionNo), models.RoleAdmin, models.RoleCEO)
	}

	s.logger.Info("lead converted", zap.String("lead_id", lead.ID), zap.String("admission_no", admission.AdmissionNo))
	return admission, nil
}
