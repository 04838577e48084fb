package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type admissionRepository interface {
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error)
	FindByID(ctx context.Context, id string) (*models.Admission, error)
	NextAdmissionNo(ctx context.Context) (string, error)
	Create(ctx context.Context, admission *models.Admission) error
	Update(ctx context.Context, admission *models.Admission) error
	UpdateStatus(ctx context.Context, id string, status models.AdmissionStatus) error
	RecordPayment(ctx context.Context, payment *models.FeePayment) error
	ListPayments(ctx context.Context, admissionID string) ([]models.FeePayment, error)
}

type admissionUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

type admissionStudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
}

type incentiveCreator interface {
	CreateIncentive(ctx context.Context, incentive *models.Incentive) error
}

// Channel partners earn a flat share of the admission fee once the admission
// is approved.
const partnerIncentivePercent = 10

// CreateAdmissionRequest holds payload for a direct (walk-in) admission.
type CreateAdmissionRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
	BranchID string `json:"branch_id" validate:"required"`
	TotalFee int64  `json:"total_fee" validate:"required,gt=0"`
}

// UpdateAdmissionRequest holds payload for editing a pending admission.
type UpdateAdmissionRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
	TotalFee int64  `json:"total_fee" validate:"required,gt=0"`
}

// RecordPaymentRequest holds payload for logging a fee payment.
type RecordPaymentRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Mode      string `json:"mode" validate:"required"`
	Reference string `json:"reference"`
}

// ConvertAdmissionRequest optionally places the new student into a batch.
type ConvertAdmissionRequest struct {
	BatchID *string `json:"batch_id"`
}

// ConvertAdmissionResponse returns the created student and the one-time
// password for the new account.
type ConvertAdmissionResponse struct {
	Student      models.Student `json:"student"`
	UserID       string         `json:"user_id"`
	Email        string         `json:"email"`
	TempPassword string         `json:"temp_password"`
}

// AdmissionService handles the enrollment workflow.
type AdmissionService struct {
	repo       admissionRepository
	users      admissionUserRepository
	students   admissionStudentRepository
	incentives incentiveCreator
	audits     auditRecorder
	notifier   notifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAdmissionService constructs the admission service.
func NewAdmissionService(repo admissionRepository, users admissionUserRepository, students admissionStudentRepository, incentives incentiveCreator, audits auditRecorder, notify notifier, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{
		repo:       repo,
		users:      users,
		students:   students,
		incentives: incentives,
		audits:     audits,
		notifier:   notify,
		validator:  validate,
		logger:     logger,
	}
}

// List returns admissions and pagination metadata.
func (s *AdmissionService) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, *models.Pagination, error) {
	admissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admissions")
	}
	return admissions, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single admission.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.Admission, error) {
	admission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission")
	}
	return admission, nil
}

// Create registers a direct admission without a lead.
func (s *AdmissionService) Create(ctx context.Context, req CreateAdmissionRequest, actorID string) (*models.Admission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}

	admissionNo, err := s.repo.NextAdmissionNo(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate admission number")
	}

	admission := &models.Admission{
		ID:          uuid.NewString(),
		AdmissionNo: admissionNo,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		CourseID:    req.CourseID,
		BranchID:    req.BranchID,
		TotalFee:    req.TotalFee,
		Status:      models.AdmissionStatusPending,
	}
	if actorID != "" {
		admission.CreatedBy = &actorID
	}
	if err := s.repo.Create(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admission")
	}
	return admission, nil
}

// Update edits admission terms while the admission is still pending.
func (s *AdmissionService) Update(ctx context.Context, id string, req UpdateAdmissionRequest) (*models.Admission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}

	admission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission.Status != models.AdmissionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending admissions can be edited")
	}

	admission.Name = req.Name
	admission.Email = req.Email
	admission.Phone = req.Phone
	admission.CourseID = req.CourseID
	admission.TotalFee = req.TotalFee
	admission.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admission")
	}
	return admission, nil
}

// Approve moves a pending admission to APPROVED and credits the referring
// channel partner's incentive.
func (s *AdmissionService) Approve(ctx context.Context, id string, actorID string) (*models.Admission, error) {
	admission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission.Status != models.AdmissionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending admissions can be approved")
	}

	if err := s.repo.UpdateStatus(ctx, id, models.AdmissionStatusApproved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve admission")
	}
	admission.Status = models.AdmissionStatusApproved

	s.creditPartnerIncentive(ctx, admission)
	s.audit(ctx, actorID, models.AuditActionUpdate, "admission", admission.ID, `{"status":"APPROVED"}`)

	if s.notifier != nil && admission.CreatedBy != nil {
		s.notifier.NotifyUsers("Admission approved", fmt.Sprintf("Admission %s was approved", admission.AdmissionNo), *admission.CreatedBy)
	}
	return admission, nil
}

// Reject moves a pending admission to REJECTED.
func (s *AdmissionService) Reject(ctx context.Context, id string, actorID string) (*models.Admission, error) {
	admission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission.Status != models.AdmissionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending admissions can be rejected")
	}

	if err := s.repo.UpdateStatus(ctx, id, models.AdmissionStatusRejected); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject admission")
	}
	admission.Status = models.AdmissionStatusRejected

	s.audit(ctx, actorID, models.AuditActionUpdate, "admission", admission.ID, `{"status":"REJECTED"}`)
	return admission, nil
}

// Convert provisions the student account and profile from an approved
// admission. The admission email becomes the login email, so it is required
// at this point even though leads may omit it.
func (s *AdmissionService) Convert(ctx context.Context, id string, req ConvertAdmissionRequest, actorID string) (*ConvertAdmissionResponse, error) {
	admission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission.Status != models.AdmissionStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only approved admissions can be converted")
	}
	if admission.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "admission has no email for the student account")
	}

	exists, err := s.users.ExistsByEmail(ctx, admission.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a user with the admission email already exists")
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	firstName, lastName := splitName(admission.Name)
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        admission.Email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        admission.Phone,
		Role:         models.RoleStudent,
		BranchID:     &admission.BranchID,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student account")
	}

	student := &models.Student{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		AdmissionID: &admission.ID,
		CourseID:    admission.CourseID,
		BranchID:    admission.BranchID,
		BatchID:     req.BatchID,
		Active:      true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
	}

	if err := s.repo.UpdateStatus(ctx, admission.ID, models.AdmissionStatusConverted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark admission converted")
	}

	s.audit(ctx, actorID, models.AuditActionConvert, "admission", admission.ID, fmt.Sprintf(`{"student_id":%q}`, student.ID))
	s.logger.Info("admission converted", zap.String("admission_no", admission.AdmissionNo), zap.String("student_id", student.ID))

	return &ConvertAdmissionResponse{
		Student:      *student,
		UserID:       user.ID,
		Email:        user.Email,
		TempPassword: tempPassword,
	}, nil
}

// RecordPayment logs a fee payment against an admission. Payments above the
// outstanding balance are accepted; the balance simply goes negative.
func (s *AdmissionService) RecordPayment(ctx context.Context, id string, req RecordPaymentRequest, actorID string) (*models.FeePayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	admission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admission.Status == models.AdmissionStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payments cannot be recorded on rejected admissions")
	}

	payment := &models.FeePayment{
		ID:          uuid.NewString(),
		AdmissionID: admission.ID,
		Amount:      req.Amount,
		Mode:        req.Mode,
		Reference:   req.Reference,
		PaidAt:      time.Now().UTC(),
	}
	if actorID != "" {
		payment.RecordedBy = &actorID
	}
	if err := s.repo.RecordPayment(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.audit(ctx, actorID, models.AuditActionCreate, "fee_payment", payment.ID, fmt.Sprintf(`{"amount":%d}`, payment.Amount))
	return payment, nil
}

// ListPayments returns the payment ledger for an admission.
func (s *AdmissionService) ListPayments(ctx context.Context, id string) ([]models.FeePayment, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

func (s *AdmissionService) creditPartnerIncentive(ctx context.Context, admission *models.Admission) {
	if s.incentives == nil || admission.CreatedBy == nil {
		return
	}
	creator, err := s.users.FindByID(ctx, *admission.CreatedBy)
	if err != nil {
		s.logger.Warn("failed to load admission creator for incentive", zap.Error(err))
		return
	}
	if creator.Role != models.RoleChannelPartner {
		return
	}
	incentive := &models.Incentive{
		ID:          uuid.NewString(),
		PartnerID:   creator.ID,
		AdmissionID: admission.ID,
		Amount:      admission.TotalFee * partnerIncentivePercent / 100,
		Status:      models.IncentivePending,
	}
	if err := s.incentives.CreateIncentive(ctx, incentive); err != nil {
		s.logger.Warn("failed to create partner incentive", zap.String("admission_id", admission.ID), zap.Error(err))
	}
}

func (s *AdmissionService) audit(ctx context.Context, actorID, action, resource, resourceID, values string) {
	if s.audits == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  []byte(values),
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("resource", resource), zap.Error(err))
	}
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func splitName(full string) (string, string) {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == ' ' {
			return full[:i], full[i+1:]
		}
	}
	return full, ""
}
