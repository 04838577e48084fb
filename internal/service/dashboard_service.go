package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type dashboardLeadRepository interface {
	CountByStatus(ctx context.Context, branchID string) ([]models.KV, error)
}

type dashboardAdmissionRepository interface {
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error)
	FindByID(ctx context.Context, id string) (*models.Admission, error)
	FeeTotals(ctx context.Context, branchID string) (collected, outstanding int64, err error)
	CountByMonth(ctx context.Context, months int) ([]models.KV, error)
}

type dashboardStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	CountActive(ctx context.Context, branchID string) (int, error)
}

type dashboardBatchRepository interface {
	List(ctx context.Context, filter models.BatchFilter) ([]models.BatchDetail, int, error)
	CountActive(ctx context.Context, branchID, trainerID string) (int, error)
}

type dashboardPlacementRepository interface {
	CountPlacements(ctx context.Context) (int, error)
	SumIncentivesDue(ctx context.Context, partnerID string) (int64, error)
}

type dashboardPortfolioRepository interface {
	CountPendingReviews(ctx context.Context, trainerID string) (int, error)
	CountPendingTasks(ctx context.Context, studentID, batchID string) (int, error)
}

type dashboardAssessmentRepository interface {
	CountUpcoming(ctx context.Context, trainerID string) (int, error)
}

type dashboardAttendanceRepository interface {
	StudentPercentage(ctx context.Context, studentID string) (float64, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Leads       dashboardLeadRepository
	Admissions  dashboardAdmissionRepository
	Students    dashboardStudentRepository
	Batches     dashboardBatchRepository
	Placements  dashboardPlacementRepository
	Portfolios  dashboardPortfolioRepository
	Assessments dashboardAssessmentRepository
	Attendance  dashboardAttendanceRepository
	Cache       *CacheService
	Logger      *zap.Logger
	CacheTTL    time.Duration
}

// DashboardService composes the role-scoped overview payloads. Results are
// cached per scope and rebuilt on expiry; callers learn whether the payload
// came from cache so the handler can expose it in response metadata.
type DashboardService struct {
	leads       dashboardLeadRepository
	admissions  dashboardAdmissionRepository
	students    dashboardStudentRepository
	batches     dashboardBatchRepository
	placements  dashboardPlacementRepository
	portfolios  dashboardPortfolioRepository
	assessments dashboardAssessmentRepository
	attendance  dashboardAttendanceRepository
	cache       *CacheService
	logger      *zap.Logger
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		leads:       params.Leads,
		admissions:  params.Admissions,
		students:    params.Students,
		batches:     params.Batches,
		placements:  params.Placements,
		portfolios:  params.Portfolios,
		assessments: params.Assessments,
		attendance:  params.Attendance,
		cache:       params.Cache,
		logger:      logger,
		cacheTTL:    ttl,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Admin builds the institute-wide overview for ADMIN and CEO users.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	const cacheKey = "dashboard:admin"
	var cached models.AdminDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	leadsByStatus, err := s.leads.CountByStatus(ctx, "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate leads")
	}
	totalLeads, openLeads, convertedLeads := splitLeadCounts(leadsByStatus)

	_, totalAdmissions, err := s.admissions.List(ctx, models.AdmissionFilter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admissions")
	}

	admissionsByMonth, err := s.admissions.CountByMonth(ctx, 6)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate admissions")
	}

	collected, outstanding, err := s.admissions.FeeTotals(ctx, "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate fees")
	}

	activeStudents, err := s.students.CountActive(ctx, "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	activeBatches, err := s.batches.CountActive(ctx, "", "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count batches")
	}

	totalPlacements, err := s.placements.CountPlacements(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count placements")
	}

	dashboard := &models.AdminDashboard{
		TotalLeads:        totalLeads,
		OpenLeads:         openLeads,
		ConvertedLeads:    convertedLeads,
		TotalAdmissions:   totalAdmissions,
		ActiveStudents:    activeStudents,
		ActiveBatches:     activeBatches,
		TotalPlacements:   totalPlacements,
		FeeCollected:      collected,
		FeeOutstanding:    outstanding,
		LeadsByStatus:     leadsByStatus,
		AdmissionsByMonth: admissionsByMonth,
		GeneratedAt:       s.now(),
	}
	s.store(ctx, cacheKey, dashboard)
	return dashboard, false, nil
}

// Branch builds the branch-scoped overview for channel partners.
func (s *DashboardService) Branch(ctx context.Context, branchID, partnerID string) (*models.BranchDashboard, bool, error) {
	cacheKey := fmt.Sprintf("dashboard:branch:%s:%s", branchID, partnerID)
	var cached models.BranchDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	leadsByStatus, err := s.leads.CountByStatus(ctx, branchID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate leads")
	}
	totalLeads, openLeads, _ := splitLeadCounts(leadsByStatus)

	_, totalAdmissions, err := s.admissions.List(ctx, models.AdmissionFilter{BranchID: branchID, Page: 1, PageSize: 1})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admissions")
	}

	collected, outstanding, err := s.admissions.FeeTotals(ctx, branchID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate fees")
	}

	activeStudents, err := s.students.CountActive(ctx, branchID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	incentivesDue, err := s.placements.SumIncentivesDue(ctx, partnerID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum incentives")
	}

	dashboard := &models.BranchDashboard{
		BranchID:        branchID,
		TotalLeads:      totalLeads,
		OpenLeads:       openLeads,
		TotalAdmissions: totalAdmissions,
		ActiveStudents:  activeStudents,
		FeeCollected:    collected,
		FeeOutstanding:  outstanding,
		IncentivesDue:   incentivesDue,
		GeneratedAt:     s.now(),
	}
	s.store(ctx, cacheKey, dashboard)
	return dashboard, false, nil
}

// Trainer builds the teaching overview for one trainer.
func (s *DashboardService) Trainer(ctx context.Context, trainerID string) (*models.TrainerDashboard, bool, error) {
	cacheKey := "dashboard:trainer:" + trainerID
	var cached models.TrainerDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	activeBatches, err := s.batches.CountActive(ctx, "", trainerID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count batches")
	}

	batches, _, err := s.batches.List(ctx, models.BatchFilter{TrainerID: trainerID, Page: 1, PageSize: 100})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	totalStudents := 0
	for _, b := range batches {
		totalStudents += b.StudentCount
	}

	pendingReviews, err := s.portfolios.CountPendingReviews(ctx, trainerID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count reviews")
	}

	upcomingTests, err := s.assessments.CountUpcoming(ctx, trainerID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tests")
	}

	dashboard := &models.TrainerDashboard{
		TrainerID:      trainerID,
		ActiveBatches:  activeBatches,
		TotalStudents:  totalStudents,
		PendingReviews: pendingReviews,
		UpcomingTests:  upcomingTests,
		GeneratedAt:    s.now(),
	}
	s.store(ctx, cacheKey, dashboard)
	return dashboard, false, nil
}

// Student builds the personal overview for a student account.
func (s *DashboardService) Student(ctx context.Context, userID string) (*models.StudentDashboard, bool, error) {
	cacheKey := "dashboard:student:" + userID
	var cached models.StudentDashboard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
	}

	percentage, err := s.attendance.StudentPercentage(ctx, student.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute attendance")
	}

	batchID := ""
	batchName := ""
	if student.BatchID != nil {
		batchID = *student.BatchID
	}
	if student.BatchName != nil {
		batchName = *student.BatchName
	}

	pendingTasks := 0
	if batchID != "" {
		pendingTasks, err = s.portfolios.CountPendingTasks(ctx, student.ID, batchID)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tasks")
		}
	}

	dashboard := &models.StudentDashboard{
		StudentID:            student.ID,
		BatchName:            batchName,
		AttendancePercentage: percentage,
		PendingTasks:         pendingTasks,
		PlacementEligible:    student.PlacementEligible,
		GeneratedAt:          s.now(),
	}

	if student.AdmissionID != nil {
		admission, err := s.admissions.FindByID(ctx, *student.AdmissionID)
		if err != nil {
			s.logger.Warn("failed to load admission for student dashboard", zap.String("student_id", student.ID), zap.Error(err))
		} else {
			dashboard.TotalFee = admission.TotalFee
			dashboard.FeePaid = admission.FeePaid
			dashboard.FeeBalance = admission.Balance()
		}
	}

	s.store(ctx, cacheKey, dashboard)
	return dashboard, false, nil
}

// InvalidateAll drops every cached dashboard, called after mutations that
// change the aggregates.
func (s *DashboardService) InvalidateAll(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboards", zap.Error(err))
	}
}

func (s *DashboardService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard", zap.String("key", key), zap.Error(err))
	}
}

func splitLeadCounts(counts []models.KV) (total, open, converted int) {
	for _, kv := range counts {
		total += kv.Count
		switch models.LeadStatus(kv.Key) {
		case models.LeadStatusConverted:
			converted += kv.Count
		case models.LeadStatusLost:
		default:
			open += kv.Count
		}
	}
	return total, open, converted
}
