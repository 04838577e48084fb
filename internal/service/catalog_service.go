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

type catalogRepository interface {
	ListCourses(ctx context.Context, filter models.CatalogFilter) ([]models.Course, int, error)
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, course *models.Course) error
	ListBranches(ctx context.Context, filter models.CatalogFilter) ([]models.Branch, int, error)
	FindBranch(ctx context.Context, id string) (*models.Branch, error)
	CreateBranch(ctx context.Context, branch *models.Branch) error
	UpdateBranch(ctx context.Context, branch *models.Branch) error
}

// CourseRequest holds payload for creating or updating a course.
type CourseRequest struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required"`
	DurationWeeks int    `json:"duration_weeks" validate:"required,gt=0"`
	Fee           int64  `json:"fee" validate:"required,gt=0"`
	Active        bool   `json:"active"`
}

// BranchRequest holds payload for creating or updating a branch.
type BranchRequest struct {
	Name   string `json:"name" validate:"required"`
	Code   string `json:"code" validate:"required"`
	City   string `json:"city"`
	Active bool   `json:"active"`
}

// CatalogService manages courses and branches.
type CatalogService struct {
	repo      catalogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(repo catalogRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, validator: validate, logger: logger}
}

// ListCourses returns courses and pagination metadata.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CatalogFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.ListCourses(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetCourse returns a single course.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindCourse(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// CreateCourse adds a course to the catalog.
func (s *CatalogService) CreateCourse(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Code:          req.Code,
		DurationWeeks: req.DurationWeeks,
		Fee:           req.Fee,
		Active:        true,
	}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// UpdateCourse edits a course.
func (s *CatalogService) UpdateCourse(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Name = req.Name
	course.Code = req.Code
	course.DurationWeeks = req.DurationWeeks
	course.Fee = req.Fee
	course.Active = req.Active
	course.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// ListBranches returns branches and pagination metadata.
func (s *CatalogService) ListBranches(ctx context.Context, filter models.CatalogFilter) ([]models.Branch, *models.Pagination, error) {
	branches, total, err := s.repo.ListBranches(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list branches")
	}
	return branches, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetBranch returns a single branch.
func (s *CatalogService) GetBranch(ctx context.Context, id string) (*models.Branch, error) {
	branch, err := s.repo.FindBranch(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}
	return branch, nil
}

// CreateBranch opens a new branch.
func (s *CatalogService) CreateBranch(ctx context.Context, req BranchRequest) (*models.Branch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid branch payload")
	}
	branch := &models.Branch{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Code:   req.Code,
		City:   req.City,
		Active: true,
	}
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create branch")
	}
	return branch, nil
}

// UpdateBranch edits a branch.
func (s *CatalogService) UpdateBranch(ctx context.Context, id string, req BranchRequest) (*models.Branch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid branch payload")
	}
	branch, err := s.GetBranch(ctx, id)
	if err != nil {
		return nil, err
	}
	branch.Name = req.Name
	branch.Code = req.Code
	branch.City = req.City
	branch.Active = req.Active
	branch.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateBranch(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update branch")
	}
	return branch, nil
}
