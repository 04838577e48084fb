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

type placementRepository interface {
	ListCompanies(ctx context.Context, search string, page, pageSize int) ([]models.Company, int, error)
	FindCompany(ctx context.Context, id string) (*models.Company, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	UpdateCompany(ctx context.Context, company *models.Company) error
	ListPlacements(ctx context.Context, studentID, companyID string, page, pageSize int) ([]models.Placement, int, error)
	CreatePlacement(ctx context.Context, placement *models.Placement) error
	ListIncentives(ctx context.Context, partnerID string, page, pageSize int) ([]models.Incentive, int, error)
	FindIncentive(ctx context.Context, id string) (*models.Incentive, error)
	UpdateIncentiveStatus(ctx context.Context, id string, status models.IncentiveStatus) error
}

// CompanyRequest holds payload for creating or updating a hiring partner.
type CompanyRequest struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
	City    string `json:"city"`
}

// CreatePlacementRequest holds payload for recording a placement.
type CreatePlacementRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	CompanyID string    `json:"company_id" validate:"required"`
	RoleTitle string    `json:"role_title" validate:"required"`
	CTC       int64     `json:"ctc" validate:"required,gt=0"`
	PlacedOn  time.Time `json:"placed_on" validate:"required"`
}

// PlacementService handles hiring partners, placements and incentives.
type PlacementService struct {
	repo      placementRepository
	students  batchStudentResolver
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlacementService constructs the placement service.
func NewPlacementService(repo placementRepository, students batchStudentResolver, notify notifier, validate *validator.Validate, logger *zap.Logger) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{repo: repo, students: students, notifier: notify, validator: validate, logger: logger}
}

// ListCompanies returns hiring partners.
func (s *PlacementService) ListCompanies(ctx context.Context, search string, page, pageSize int) ([]models.Company, *models.Pagination, error) {
	companies, total, err := s.repo.ListCompanies(ctx, search, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list companies")
	}
	return companies, paginationFor(page, pageSize, total), nil
}

// CreateCompany registers a hiring partner.
func (s *PlacementService) CreateCompany(ctx context.Context, req CompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid company payload")
	}
	company := &models.Company{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Contact: req.Contact,
		City:    req.City,
	}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create company")
	}
	return company, nil
}

// UpdateCompany edits a hiring partner.
func (s *PlacementService) UpdateCompany(ctx context.Context, id string, req CompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid company payload")
	}
	company, err := s.repo.FindCompany(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	company.Name = req.Name
	company.Contact = req.Contact
	company.City = req.City
	company.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update company")
	}
	return company, nil
}

// ListPlacements returns recorded placements.
func (s *PlacementService) ListPlacements(ctx context.Context, studentID, companyID string, page, pageSize int) ([]models.Placement, *models.Pagination, error) {
	placements, total, err := s.repo.ListPlacements(ctx, studentID, companyID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list placements")
	}
	return placements, paginationFor(page, pageSize, total), nil
}

// CreatePlacement records a student placed at a company. Only students flagged
// placement-eligible can be placed.
func (s *PlacementService) CreatePlacement(ctx context.Context, req CreatePlacementRequest) (*models.Placement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.PlacementEligible {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is not placement eligible")
	}

	if _, err := s.repo.FindCompany(ctx, req.CompanyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}

	placement := &models.Placement{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		CompanyID: req.CompanyID,
		RoleTitle: req.RoleTitle,
		CTC:       req.CTC,
		PlacedOn:  req.PlacedOn,
	}
	if err := s.repo.CreatePlacement(ctx, placement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create placement")
	}

	if s.notifier != nil {
		s.notifier.NotifyUsers("Placement recorded", fmt.Sprintf("You were placed as %s", placement.RoleTitle), student.UserID)
	}
	return placement, nil
}

// ListIncentives returns partner incentives, optionally scoped to one partner.
func (s *PlacementService) ListIncentives(ctx context.Context, partnerID string, page, pageSize int) ([]models.Incentive, *models.Pagination, error) {
	incentives, total, err := s.repo.ListIncentives(ctx, partnerID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list incentives")
	}
	return incentives, paginationFor(page, pageSize, total), nil
}

// ApproveIncentive moves a pending incentive to APPROVED.
func (s *PlacementService) ApproveIncentive(ctx context.Context, id string) (*models.Incentive, error) {
	return s.transitionIncentive(ctx, id, models.IncentivePending, models.IncentiveApproved)
}

// PayIncentive marks an approved incentive as paid out.
func (s *PlacementService) PayIncentive(ctx context.Context, id string) (*models.Incentive, error) {
	incentive, err := s.transitionIncentive(ctx, id, models.IncentiveApproved, models.IncentivePaid)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyUsers("Incentive paid", fmt.Sprintf("Your incentive of %d was paid out", incentive.Amount), incentive.PartnerID)
	}
	return incentive, nil
}

func (s *PlacementService) transitionIncentive(ctx context.Context, id string, from, to models.IncentiveStatus) (*models.Incentive, error) {
	incentive, err := s.repo.FindIncentive(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "incentive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load incentive")
	}
	if incentive.Status != from {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("incentive is not %s", from))
	}
	if err := s.repo.UpdateIncentiveStatus(ctx, id, to); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update incentive")
	}
	incentive.Status = to
	return incentive, nil
}
