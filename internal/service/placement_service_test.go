package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type mockPlacementRepo struct {
	companies  map[string]*models.Company
	placements []models.Placement
	incentives map[string]*models.Incentive
}

func newMockPlacementRepo() *mockPlacementRepo {
	return &mockPlacementRepo{
		companies:  map[string]*models.Company{},
		incentives: map[string]*models.Incentive{},
	}
}

func (m *mockPlacementRepo) ListCompanies(_ context.Context, search string, page, pageSize int) ([]models.Company, int, error) {
	out := make([]models.Company, 0, len(m.companies))
	for _, company := range m.companies {
		out = append(out, *company)
	}
	return out, len(out), nil
}

func (m *mockPlacementRepo) FindCompany(_ context.Context, id string) (*models.Company, error) {
	company, ok := m.companies[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *company
	return &cp, nil
}

func (m *mockPlacementRepo) CreateCompany(_ context.Context, company *models.Company) error {
	cp := *company
	m.companies[company.ID] = &cp
	return nil
}

func (m *mockPlacementRepo) UpdateCompany(_ context.Context, company *models.Company) error {
	if _, ok := m.companies[company.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *company
	m.companies[company.ID] = &cp
	return nil
}

func (m *mockPlacementRepo) ListPlacements(_ context.Context, studentID, companyID string, page, pageSize int) ([]models.Placement, int, error) {
	return m.placements, len(m.placements), nil
}

func (m *mockPlacementRepo) CreatePlacement(_ context.Context, placement *models.Placement) error {
	m.placements = append(m.placements, *placement)
	return nil
}

func (m *mockPlacementRepo) ListIncentives(_ context.Context, partnerID string, page, pageSize int) ([]models.Incentive, int, error) {
	out := make([]models.Incentive, 0, len(m.incentives))
	for _, incentive := range m.incentives {
		if partnerID == "" || incentive.PartnerID == partnerID {
			out = append(out, *incentive)
		}
	}
	return out, len(out), nil
}

func (m *mockPlacementRepo) FindIncentive(_ context.Context, id string) (*models.Incentive, error) {
	incentive, ok := m.incentives[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *incentive
	return &cp, nil
}

func (m *mockPlacementRepo) UpdateIncentiveStatus(_ context.Context, id string, status models.IncentiveStatus) error {
	incentive, ok := m.incentives[id]
	if !ok {
		return sql.ErrNoRows
	}
	incentive.Status = status
	return nil
}

func newPlacementFixture() (*mockPlacementRepo, *mockStudentRepo, *mockNotifier, *PlacementService) {
	repo := newMockPlacementRepo()
	repo.companies["co1"] = &models.Company{ID: "co1", Name: "Acme Corp", City: "Pune"}
	students := newMockStudentRepo()
	notify := &mockNotifier{}
	svc := NewPlacementService(repo, students, notify, NewValidator(), nil)
	return repo, students, notify, svc
}

func validPlacementRequest() CreatePlacementRequest {
	return CreatePlacementRequest{
		StudentID: "s1",
		CompanyID: "co1",
		RoleTitle: "Backend Engineer",
		CTC:       600000,
		PlacedOn:  time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlacementServiceCreatePlacement(t *testing.T) {
	repo, students, notify, svc := newPlacementFixture()
	detail := seedStudent(students, "s1", "u1")
	detail.PlacementEligible = true

	placement, err := svc.CreatePlacement(context.Background(), validPlacementRequest())
	require.NoError(t, err)
	assert.Equal(t, "co1", placement.CompanyID)
	assert.Len(t, repo.placements, 1)
	assert.Len(t, notify.userNotes, 1)
}

func TestPlacementServiceCreatePlacementRequiresEligibility(t *testing.T) {
	repo, students, _, svc := newPlacementFixture()
	seedStudent(students, "s1", "u1")

	_, err := svc.CreatePlacement(context.Background(), validPlacementRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.placements)
}

func TestPlacementServiceCreatePlacementUnknownCompany(t *testing.T) {
	_, students, _, svc := newPlacementFixture()
	detail := seedStudent(students, "s1", "u1")
	detail.PlacementEligible = true

	req := validPlacementRequest()
	req.CompanyID = "missing"
	_, err := svc.CreatePlacement(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlacementServiceIncentiveLifecycle(t *testing.T) {
	repo, _, notify, svc := newPlacementFixture()
	repo.incentives["i1"] = &models.Incentive{ID: "i1", PartnerID: "p1", Amount: 4500, Status: models.IncentivePending}

	approved, err := svc.ApproveIncentive(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, models.IncentiveApproved, approved.Status)

	paid, err := svc.PayIncentive(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, models.IncentivePaid, paid.Status)
	assert.Equal(t, models.IncentivePaid, repo.incentives["i1"].Status)
	assert.Len(t, notify.userNotes, 1)
}

func TestPlacementServiceIncentiveTransitionGuards(t *testing.T) {
	repo, _, _, svc := newPlacementFixture()
	repo.incentives["i1"] = &models.Incentive{ID: "i1", PartnerID: "p1", Status: models.IncentivePending}

	// Paying before approval is a conflict.
	_, err := svc.PayIncentive(context.Background(), "i1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Approving twice is a conflict.
	_, err = svc.ApproveIncentive(context.Background(), "i1")
	require.NoError(t, err)
	_, err = svc.ApproveIncentive(context.Background(), "i1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPlacementServiceUpdateCompany(t *testing.T) {
	repo, _, _, svc := newPlacementFixture()

	company, err := svc.UpdateCompany(context.Background(), "co1", CompanyRequest{Name: "Acme Corporation", City: "Mumbai"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", company.Name)
	assert.Equal(t, "Mumbai", repo.companies["co1"].City)

	_, err = svc.UpdateCompany(context.Background(), "missing", CompanyRequest{Name: "Ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
