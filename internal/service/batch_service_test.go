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

type mockBatchRepo struct {
	items  map[string]*models.BatchDetail
	roster map[string]map[string]bool
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{items: map[string]*models.BatchDetail{}, roster: map[string]map[string]bool{}}
}

func (m *mockBatchRepo) List(_ context.Context, filter models.BatchFilter) ([]models.BatchDetail, int, error) {
	out := make([]models.BatchDetail, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (m *mockBatchRepo) FindByID(_ context.Context, id string) (*models.BatchDetail, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *item
	return &cp, nil
}

func (m *mockBatchRepo) Create(_ context.Context, batch *models.Batch) error {
	m.items[batch.ID] = &models.BatchDetail{Batch: *batch}
	return nil
}

func (m *mockBatchRepo) Update(_ context.Context, batch *models.Batch) error {
	item, ok := m.items[batch.ID]
	if !ok {
		return sql.ErrNoRows
	}
	item.Batch = *batch
	return nil
}

func (m *mockBatchRepo) IsAssigned(_ context.Context, batchID, studentID string) (bool, error) {
	return m.roster[batchID][studentID], nil
}

func (m *mockBatchRepo) AssignStudent(_ context.Context, batchID, studentID string) error {
	if m.roster[batchID] == nil {
		m.roster[batchID] = map[string]bool{}
	}
	m.roster[batchID][studentID] = true
	return nil
}

func (m *mockBatchRepo) RemoveStudent(_ context.Context, batchID, studentID string) error {
	delete(m.roster[batchID], studentID)
	return nil
}

func (m *mockBatchRepo) Roster(_ context.Context, batchID string) ([]models.StudentDetail, error) {
	out := make([]models.StudentDetail, 0, len(m.roster[batchID]))
	for studentID := range m.roster[batchID] {
		out = append(out, models.StudentDetail{Student: models.Student{ID: studentID}})
	}
	return out, nil
}

type mockTrainerDirectory struct {
	users map[string]*models.User
}

func (m *mockTrainerDirectory) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func newBatchFixture() (*mockBatchRepo, *mockTrainerDirectory, *mockStudentRepo, *BatchService) {
	repo := newMockBatchRepo()
	trainers := &mockTrainerDirectory{users: map[string]*models.User{
		"t1": {ID: "t1", Role: models.RoleTrainer, Active: true},
	}}
	students := newMockStudentRepo()
	svc := NewBatchService(repo, trainers, students, NewValidator(), nil)
	return repo, trainers, students, svc
}

func validBatchRequest() BatchRequest {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return BatchRequest{
		Name:      "Morning Go Cohort",
		CourseID:  "c1",
		BranchID:  "b1",
		TrainerID: "t1",
		StartDate: start,
		EndDate:   start.AddDate(0, 3, 0),
		StartTime: "09:00",
		EndTime:   "11:00",
		Active:    true,
	}
}

func TestBatchServiceCreate(t *testing.T) {
	repo, _, _, svc := newBatchFixture()

	batch, err := svc.Create(context.Background(), validBatchRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.True(t, batch.Active)
	assert.Len(t, repo.items, 1)
}

func TestBatchServiceCreateRejectsEndBeforeStart(t *testing.T) {
	_, _, _, svc := newBatchFixture()

	req := validBatchRequest()
	req.EndDate = req.StartDate.AddDate(0, 0, -1)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceCreateTrainerChecks(t *testing.T) {
	_, trainers, _, svc := newBatchFixture()
	trainers.users["staff"] = &models.User{ID: "staff", Role: models.RoleAdmin, Active: true}
	trainers.users["t2"] = &models.User{ID: "t2", Role: models.RoleTrainer, Active: false}

	req := validBatchRequest()
	req.TrainerID = "missing"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	req.TrainerID = "staff"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.TrainerID = "t2"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceAssignStudent(t *testing.T) {
	repo, _, students, svc := newBatchFixture()
	batch, err := svc.Create(context.Background(), validBatchRequest())
	require.NoError(t, err)
	seedStudent(students, "s1", "u1")

	require.NoError(t, svc.AssignStudent(context.Background(), batch.ID, "s1"))
	assert.True(t, repo.roster[batch.ID]["s1"])
}

func TestBatchServiceAssignDuplicateConflicts(t *testing.T) {
	_, _, students, svc := newBatchFixture()
	batch, err := svc.Create(context.Background(), validBatchRequest())
	require.NoError(t, err)
	seedStudent(students, "s1", "u1")

	require.NoError(t, svc.AssignStudent(context.Background(), batch.ID, "s1"))
	err = svc.AssignStudent(context.Background(), batch.ID, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceAssignInactiveStudent(t *testing.T) {
	_, _, students, svc := newBatchFixture()
	batch, err := svc.Create(context.Background(), validBatchRequest())
	require.NoError(t, err)
	detail := seedStudent(students, "s1", "u1")
	detail.Active = false

	err = svc.AssignStudent(context.Background(), batch.ID, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceRemoveStudentNotAssigned(t *testing.T) {
	_, _, _, svc := newBatchFixture()
	batch, err := svc.Create(context.Background(), validBatchRequest())
	require.NoError(t, err)

	err = svc.RemoveStudent(context.Background(), batch.ID, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceRoster(t *testing.T) {
	_, _, students, svc := newBatchFixture()
	batch, err := svc.Create(context.Background(), validBatchRequest())
	require.NoError(t, err)
	seedStudent(students, "s1", "u1")
	require.NoError(t, svc.AssignStudent(context.Background(), batch.ID, "s1"))

	roster, err := svc.Roster(context.Background(), batch.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "s1", roster[0].ID)

	_, err = svc.Roster(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
