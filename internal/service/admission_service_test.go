package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type mockAdmissionRepo struct {
	items    map[string]*models.Admission
	payments []*models.FeePayment
	statuses map[string]models.AdmissionStatus
}

func (m *mockAdmissionRepo) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	return nil, len(m.items), nil
}

func (m *mockAdmissionRepo) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	if adm, ok := m.items[id]; ok {
		cp := *adm
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdmissionRepo) NextAdmissionNo(ctx context.Context) (string, error) {
	return "ADM-0001", nil
}

func (m *mockAdmissionRepo) Create(ctx context.Context, admission *models.Admission) error {
	if m.items == nil {
		m.items = make(map[string]*models.Admission)
	}
	cp := *admission
	m.items[admission.ID] = &cp
	return nil
}

func (m *mockAdmissionRepo) Update(ctx context.Context, admission *models.Admission) error {
	cp := *admission
	m.items[admission.ID] = &cp
	return nil
}

func (m *mockAdmissionRepo) UpdateStatus(ctx context.Context, id string, status models.AdmissionStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.AdmissionStatus)
	}
	m.statuses[id] = status
	if adm, ok := m.items[id]; ok {
		adm.Status = status
	}
	return nil
}

func (m *mockAdmissionRepo) RecordPayment(ctx context.Context, payment *models.FeePayment) error {
	m.payments = append(m.payments, payment)
	if adm, ok := m.items[payment.AdmissionID]; ok {
		adm.FeePaid += payment.Amount
	}
	return nil
}

func (m *mockAdmissionRepo) ListPayments(ctx context.Context, admissionID string) ([]models.FeePayment, error) {
	out := make([]models.FeePayment, 0, len(m.payments))
	for _, p := range m.payments {
		if p.AdmissionID == admissionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type mockUserDirectory struct {
	users   map[string]*models.User
	emails  map[string]bool
	created []*models.User
}

func (m *mockUserDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserDirectory) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return m.emails[email], nil
}

func (m *mockUserDirectory) Create(ctx context.Context, user *models.User) error {
	m.created = append(m.created, user)
	return nil
}

type mockStudentCreator struct {
	created []*models.Student
}

func (m *mockStudentCreator) Create(ctx context.Context, student *models.Student) error {
	m.created = append(m.created, student)
	return nil
}

type mockIncentiveCreator struct {
	created []*models.Incentive
}

func (m *mockIncentiveCreator) CreateIncentive(ctx context.Context, incentive *models.Incentive) error {
	m.created = append(m.created, incentive)
	return nil
}

func newAdmissionFixture() (*mockAdmissionRepo, *mockUserDirectory, *mockStudentCreator, *mockIncentiveCreator, *AdmissionService) {
	repo := &mockAdmissionRepo{items: map[string]*models.Admission{}}
	users := &mockUserDirectory{users: map[string]*models.User{}, emails: map[string]bool{}}
	students := &mockStudentCreator{}
	incentives := &mockIncentiveCreator{}
	service := NewAdmissionService(repo, users, students, incentives, &mockAuditRecorder{}, &mockNotifier{}, NewValidator(), nil)
	return repo, users, students, incentives, service
}

func TestAdmissionServiceApprove(t *testing.T) {
	repo, _, _, incentives, service := newAdmissionFixture()
	repo.items["a1"] = &models.Admission{ID: "a1", AdmissionNo: "ADM-0001", Status: models.AdmissionStatusPending, TotalFee: 45000}

	admission, err := service.Approve(context.Background(), "a1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusApproved, admission.Status)
	assert.Empty(t, incentives.created)
}

func TestAdmissionServiceApproveCreditsPartnerIncentive(t *testing.T) {
	repo, users, _, incentives, service := newAdmissionFixture()
	partner := "partner-1"
	users.users[partner] = &models.User{ID: partner, Role: models.RoleChannelPartner}
	repo.items["a1"] = &models.Admission{ID: "a1", Status: models.AdmissionStatusPending, TotalFee: 45000, CreatedBy: &partner}

	_, err := service.Approve(context.Background(), "a1", "admin-1")
	require.NoError(t, err)
	require.Len(t, incentives.created, 1)
	assert.Equal(t, partner, incentives.created[0].PartnerID)
	assert.Equal(t, int64(4500), incentives.created[0].Amount)
	assert.Equal(t, models.IncentivePending, incentives.created[0].Status)
}

func TestAdmissionServiceApproveNonPendingConflicts(t *testing.T) {
	repo, _, _, _, service := newAdmissionFixture()
	repo.items["a1"] = &models.Admission{ID: "a1", Status: models.AdmissionStatusApproved}

	_, err := service.Approve(context.Background(), "a1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceConvertCreatesStudentAccount(t *testing.T) {
	repo, users, students, _, service := newAdmissionFixture()
	repo.items["a1"] = &models.Admission{
		ID:          "a1",
		AdmissionNo: "ADM-0001",
		Name:        "Asha Kumari Verma",
		Email:       "asha@example.com",
		CourseID:    "c1",
		BranchID:    "b1",
		Status:      models.AdmissionStatusApproved,
	}

	result, err := service.Convert(context.Background(), "a1", ConvertAdmissionRequest{}, "admin-1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.TempPassword)
	assert.Equal(t, "asha@example.com", result.Email)

	require.Len(t, users.created, 1)
	assert.Equal(t, models.RoleStudent, users.created[0].Role)
	assert.Equal(t, "Asha Kumari", users.created[0].FirstName)
	assert.Equal(t, "Verma", users.created[0].LastName)

	require.Len(t, students.created, 1)
	require.NotNil(t, students.created[0].AdmissionID)
	assert.Equal(t, "a1", *students.created[0].AdmissionID)
	assert.Equal(t, models.AdmissionStatusConverted, repo.statuses["a1"])
}

func TestAdmissionServiceConvertRequiresApproval(t *testing.T) {
	repo, _, _, _, service := newAdmissionFixture()
	repo.items["a1"] = &models.Admission{ID: "a1", Email: "x@example.com", Status: models.AdmissionStatusPending}

	_, err := service.Convert(context.Background(), "a1", ConvertAdmissionRequest{}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceConvertRequiresEmail(t *testing.T) {
	repo, _, _, _, service := newAdmissionFixture()
	repo.items["a1"] = &models.Admission{ID: "a1", Status: models.AdmissionStatusApproved}

	_, err := service.Convert(context.Background(), "a1", ConvertAdmissionRequest{}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceConvertDuplicateEmailConflicts(t *testing.T) {
	repo, users, _, _, service := newAdmissionFixture()
	users.emails["asha@example.com"] = true
	repo.items["a1"] = &models.Admission{ID: "a1", Email: "asha@example.com", Status: models.AdmissionStatusApproved}

	_, err := service.Convert(context.Background(), "a1", ConvertAdmissionRequest{}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceRecordPaymentAllowsOverpayment(t *testing.T) {
	repo, _, _, _, service := newAdmissionFixture()
	repo.items["a1"] = &models.Admission{ID: "a1", Status: models.AdmissionStatusApproved, TotalFee: 45000, FeePaid: 40000}

	payment, err := service.RecordPayment(context.Background(), "a1", RecordPaymentRequest{Amount: 10000, Mode: "CASH"}, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), payment.Amount)

	adm, err := service.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), adm.Balance())
}

func TestAdmissionServiceRecordPaymentRejectedBlocked(t *testing.T) {
	repo, _, _, _, service := newAdmissionFixture()
	repo.items["a1"] = &models.Admission{ID: "a1", Status: models.AdmissionStatusRejected}

	_, err := service.RecordPayment(context.Background(), "a1", RecordPaymentRequest{Amount: 100, Mode: "CASH"}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Asha Kumari Verma")
	assert.Equal(t, "Asha Kumari", first)
	assert.Equal(t, "Verma", last)

	first, last = splitName("Asha")
	assert.Equal(t, "Asha", first)
	assert.Empty(t, last)
}
