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

type mockPortfolioRepo struct {
	tasks map[string]*models.PortfolioTask
	subs  map[string]*models.PortfolioSubmission
}

func newMockPortfolioRepo() *mockPortfolioRepo {
	return &mockPortfolioRepo{tasks: map[string]*models.PortfolioTask{}, subs: map[string]*models.PortfolioSubmission{}}
}

func (m *mockPortfolioRepo) ListTasks(_ context.Context, batchID string) ([]models.PortfolioTask, error) {
	out := []models.PortfolioTask{}
	for _, task := range m.tasks {
		if task.BatchID == batchID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *mockPortfolioRepo) FindTask(_ context.Context, id string) (*models.PortfolioTask, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *task
	return &cp, nil
}

func (m *mockPortfolioRepo) CreateTask(_ context.Context, task *models.PortfolioTask) error {
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *mockPortfolioRepo) DeleteTask(_ context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockPortfolioRepo) UpsertSubmission(_ context.Context, sub *models.PortfolioSubmission) error {
	for id, existing := range m.subs {
		if existing.TaskID == sub.TaskID && existing.StudentID == sub.StudentID {
			delete(m.subs, id)
		}
	}
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *mockPortfolioRepo) FindSubmission(_ context.Context, id string) (*models.PortfolioSubmission, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sub
	return &cp, nil
}

func (m *mockPortfolioRepo) ListSubmissions(_ context.Context, taskID string) ([]models.PortfolioSubmission, error) {
	out := []models.PortfolioSubmission{}
	for _, sub := range m.subs {
		if sub.TaskID == taskID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *mockPortfolioRepo) Review(_ context.Context, id string, status models.SubmissionStatus, feedback, reviewerID string) error {
	sub, ok := m.subs[id]
	if !ok {
		return sql.ErrNoRows
	}
	sub.Status = status
	sub.Feedback = feedback
	if reviewerID != "" {
		sub.ReviewedBy = &reviewerID
	}
	return nil
}

func newPortfolioFixture(t *testing.T) (*mockPortfolioRepo, *PortfolioService, *models.PortfolioTask) {
	t.Helper()
	repo := newMockPortfolioRepo()
	roster := &mockRoster{assigned: map[string]bool{"bt1|s1": true}}
	svc := NewPortfolioService(repo, roster, NewValidator(), nil)

	task, err := svc.CreateTask(context.Background(), "bt1", CreateTaskRequest{
		Title:   "Deploy a REST API",
		DueDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	}, "trainer-1")
	require.NoError(t, err)
	return repo, svc, task
}

func TestPortfolioServiceSubmit(t *testing.T) {
	repo, svc, task := newPortfolioFixture(t)

	sub, err := svc.Submit(context.Background(), task.ID, "s1", SubmitWorkRequest{URL: "https://github.com/s1/rest-api"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, sub.Status)
	assert.Len(t, repo.subs, 1)
}

func TestPortfolioServiceSubmitRequiresURL(t *testing.T) {
	_, svc, task := newPortfolioFixture(t)

	_, err := svc.Submit(context.Background(), task.ID, "s1", SubmitWorkRequest{URL: "not-a-url"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPortfolioServiceSubmitOutsideRosterForbidden(t *testing.T) {
	repo, svc, task := newPortfolioFixture(t)

	_, err := svc.Submit(context.Background(), task.ID, "outsider", SubmitWorkRequest{URL: "https://example.com/work"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.subs)
}

func TestPortfolioServiceResubmitReplacesAndResetsReview(t *testing.T) {
	repo, svc, task := newPortfolioFixture(t)

	first, err := svc.Submit(context.Background(), task.ID, "s1", SubmitWorkRequest{URL: "https://example.com/v1"})
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), first.ID, ReviewSubmissionRequest{Status: string(models.SubmissionRework), Feedback: "needs tests"}, "trainer-1")
	require.NoError(t, err)

	second, err := svc.Submit(context.Background(), task.ID, "s1", SubmitWorkRequest{URL: "https://example.com/v2"})
	require.NoError(t, err)

	require.Len(t, repo.subs, 1)
	stored := repo.subs[second.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "https://example.com/v2", stored.URL)
	assert.Equal(t, models.SubmissionSubmitted, stored.Status)
	assert.Empty(t, stored.Feedback)
}

func TestPortfolioServiceReview(t *testing.T) {
	repo, svc, task := newPortfolioFixture(t)
	sub, err := svc.Submit(context.Background(), task.ID, "s1", SubmitWorkRequest{URL: "https://example.com/work"})
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), sub.ID, ReviewSubmissionRequest{Status: string(models.SubmissionApproved), Feedback: "well done"}, "trainer-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "trainer-1", *reviewed.ReviewedBy)
	assert.Equal(t, models.SubmissionApproved, repo.subs[sub.ID].Status)
}

func TestPortfolioServiceReviewRejectsOtherStatuses(t *testing.T) {
	_, svc, task := newPortfolioFixture(t)
	sub, err := svc.Submit(context.Background(), task.ID, "s1", SubmitWorkRequest{URL: "https://example.com/work"})
	require.NoError(t, err)

	for _, status := range []string{string(models.SubmissionSubmitted), "GRADED"} {
		_, err := svc.Review(context.Background(), sub.ID, ReviewSubmissionRequest{Status: status}, "trainer-1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestPortfolioServiceReviewUnknownSubmission(t *testing.T) {
	_, svc, _ := newPortfolioFixture(t)

	_, err := svc.Review(context.Background(), "missing", ReviewSubmissionRequest{Status: string(models.SubmissionApproved)}, "trainer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPortfolioServiceDeleteTask(t *testing.T) {
	repo, svc, task := newPortfolioFixture(t)

	require.NoError(t, svc.DeleteTask(context.Background(), task.ID))
	assert.Empty(t, repo.tasks)
}
