package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// mockDashboardData serves every aggregate the dashboards read.
type mockDashboardData struct {
	leadCounts     []models.KV
	admissionCount int
	feeCollected   int64
	feeOutstanding int64
	activeStudents int
	activeBatches  int
	placements     int
	incentivesDue  int64
	pendingReviews int
	pendingTasks   int
	upcomingTests  int
	attendancePct  float64
	batches        []models.BatchDetail
	student        *models.StudentDetail
	admission      *models.Admission

	leadQueries int
}

func (m *mockDashboardData) CountByStatus(_ context.Context, branchID string) ([]models.KV, error) {
	m.leadQueries++
	return m.leadCounts, nil
}

func (m *mockDashboardData) List(_ context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	return nil, m.admissionCount, nil
}

func (m *mockDashboardData) FindByID(_ context.Context, id string) (*models.Admission, error) {
	if m.admission == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
	}
	cp := *m.admission
	return &cp, nil
}

func (m *mockDashboardData) FeeTotals(_ context.Context, branchID string) (int64, int64, error) {
	return m.feeCollected, m.feeOutstanding, nil
}

func (m *mockDashboardData) CountByMonth(_ context.Context, months int) ([]models.KV, error) {
	return []models.KV{{Key: "2026-08", Count: m.admissionCount}}, nil
}

func (m *mockDashboardData) FindByUserID(_ context.Context, userID string) (*models.StudentDetail, error) {
	if m.student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
	}
	cp := *m.student
	return &cp, nil
}

type mockDashboardStudents struct{ *mockDashboardData }

func (m mockDashboardStudents) CountActive(_ context.Context, branchID string) (int, error) {
	return m.activeStudents, nil
}

type mockDashboardBatches struct{ *mockDashboardData }

func (m mockDashboardBatches) CountActive(_ context.Context, branchID, trainerID string) (int, error) {
	return m.activeBatches, nil
}

func (m mockDashboardBatches) List(_ context.Context, filter models.BatchFilter) ([]models.BatchDetail, int, error) {
	return m.batches, len(m.batches), nil
}

func (m *mockDashboardData) CountPlacements(_ context.Context) (int, error) {
	return m.placements, nil
}

func (m *mockDashboardData) SumIncentivesDue(_ context.Context, partnerID string) (int64, error) {
	return m.incentivesDue, nil
}

func (m *mockDashboardData) CountPendingReviews(_ context.Context, trainerID string) (int, error) {
	return m.pendingReviews, nil
}

func (m *mockDashboardData) CountPendingTasks(_ context.Context, studentID, batchID string) (int, error) {
	return m.pendingTasks, nil
}

func (m *mockDashboardData) CountUpcoming(_ context.Context, trainerID string) (int, error) {
	return m.upcomingTests, nil
}

func (m *mockDashboardData) StudentPercentage(_ context.Context, studentID string) (float64, error) {
	return m.attendancePct, nil
}

func newDashboardFixture(cacheEnabled bool) (*mockDashboardData, *memoryCacheRepo, *DashboardService) {
	data := &mockDashboardData{
		leadCounts: []models.KV{
			{Key: string(models.LeadStatusNew), Count: 5},
			{Key: string(models.LeadStatusConverted), Count: 3},
			{Key: string(models.LeadStatusLost), Count: 2},
		},
		admissionCount: 4,
		feeCollected:   90000,
		feeOutstanding: 30000,
		activeStudents: 12,
		activeBatches:  2,
		placements:     6,
		incentivesDue:  4500,
		pendingReviews: 3,
		pendingTasks:   1,
		upcomingTests:  2,
		attendancePct:  88.5,
	}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, cacheEnabled)
	svc := NewDashboardService(DashboardServiceParams{
		Leads:       data,
		Admissions:  data,
		Students:    mockDashboardStudents{data},
		Batches:     mockDashboardBatches{data},
		Placements:  data,
		Portfolios:  data,
		Assessments: data,
		Attendance:  data,
		Cache:       cache,
		CacheTTL:    time.Minute,
	})
	return data, cacheRepo, svc
}

func TestDashboardServiceAdmin(t *testing.T) {
	_, _, svc := newDashboardFixture(true)

	dashboard, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 10, dashboard.TotalLeads)
	assert.Equal(t, 5, dashboard.OpenLeads)
	assert.Equal(t, 3, dashboard.ConvertedLeads)
	assert.Equal(t, 4, dashboard.TotalAdmissions)
	assert.Equal(t, int64(90000), dashboard.FeeCollected)
	assert.Equal(t, int64(30000), dashboard.FeeOutstanding)
	assert.Equal(t, 6, dashboard.TotalPlacements)
}

func TestDashboardServiceAdminCacheHit(t *testing.T) {
	data, _, svc := newDashboardFixture(true)

	first, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 1, data.leadQueries)

	second, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, data.leadQueries)
	assert.Equal(t, first.TotalLeads, second.TotalLeads)
}

func TestDashboardServiceCacheDisabled(t *testing.T) {
	data, _, svc := newDashboardFixture(false)

	_, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, data.leadQueries)
}

func TestDashboardServiceInvalidateAll(t *testing.T) {
	data, cacheRepo, svc := newDashboardFixture(true)

	_, _, err := svc.Admin(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, cacheRepo.entries)

	svc.InvalidateAll(context.Background())
	assert.Empty(t, cacheRepo.entries)

	_, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, data.leadQueries)
}

func TestDashboardServiceBranch(t *testing.T) {
	_, _, svc := newDashboardFixture(true)

	dashboard, hit, err := svc.Branch(context.Background(), "b1", "p1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "b1", dashboard.BranchID)
	assert.Equal(t, 10, dashboard.TotalLeads)
	assert.Equal(t, int64(4500), dashboard.IncentivesDue)
}

func TestDashboardServiceTrainer(t *testing.T) {
	data, _, svc := newDashboardFixture(true)
	data.batches = []models.BatchDetail{
		{StudentCount: 8},
		{StudentCount: 7},
	}

	dashboard, hit, err := svc.Trainer(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, dashboard.ActiveBatches)
	assert.Equal(t, 15, dashboard.TotalStudents)
	assert.Equal(t, 3, dashboard.PendingReviews)
	assert.Equal(t, 2, dashboard.UpcomingTests)
}

func TestDashboardServiceStudent(t *testing.T) {
	data, _, svc := newDashboardFixture(true)
	batchID := "bt1"
	batchName := "Morning Go Cohort"
	admissionID := "a1"
	data.student = &models.StudentDetail{
		Student: models.Student{
			ID:                "s1",
			UserID:            "u1",
			BatchID:           &batchID,
			AdmissionID:       &admissionID,
			PlacementEligible: true,
		},
		BatchName: &batchName,
	}
	data.admission = &models.Admission{ID: "a1", TotalFee: 45000, FeePaid: 30000}

	dashboard, hit, err := svc.Student(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "s1", dashboard.StudentID)
	assert.Equal(t, "Morning Go Cohort", dashboard.BatchName)
	assert.InDelta(t, 88.5, dashboard.AttendancePercentage, 0.001)
	assert.Equal(t, 1, dashboard.PendingTasks)
	assert.True(t, dashboard.PlacementEligible)
	assert.Equal(t, int64(45000), dashboard.TotalFee)
	assert.Equal(t, int64(15000), dashboard.FeeBalance)
}

func TestDashboardServiceStudentWithoutProfile(t *testing.T) {
	_, _, svc := newDashboardFixture(true)

	_, _, err := svc.Student(context.Background(), "unknown")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
