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

type mockStudentRepo struct {
	items       map[string]*models.StudentDetail
	eligibility map[string]bool
	certLocks   map[string]bool
	deactivated []string
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		items:       map[string]*models.StudentDetail{},
		eligibility: map[string]bool{},
		certLocks:   map[string]bool{},
	}
}

func (m *mockStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	out := make([]models.StudentDetail, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *item
	return &cp, nil
}

func (m *mockStudentRepo) FindByUserID(_ context.Context, userID string) (*models.StudentDetail, error) {
	for _, item := range m.items {
		if item.UserID == userID {
			cp := *item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Update(_ context.Context, student *models.Student) error {
	item, ok := m.items[student.ID]
	if !ok {
		return sql.ErrNoRows
	}
	item.Student = *student
	return nil
}

func (m *mockStudentRepo) SetEligibility(_ context.Context, id string, eligible bool) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	m.eligibility[id] = eligible
	return nil
}

func (m *mockStudentRepo) SetCertificateLock(_ context.Context, id string, locked bool) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	m.certLocks[id] = locked
	return nil
}

func (m *mockStudentRepo) Deactivate(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	m.deactivated = append(m.deactivated, id)
	return nil
}

func seedStudent(repo *mockStudentRepo, id, userID string) *models.StudentDetail {
	detail := &models.StudentDetail{
		Student: models.Student{
			ID:        id,
			UserID:    userID,
			CourseID:  "c1",
			BranchID:  "b1",
			Active:    true,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		},
		FirstName: "Asha",
		LastName:  "Verma",
		Email:     "asha@example.com",
	}
	repo.items[id] = detail
	return detail
}

func TestStudentServiceUpdateValidatesAadhaar(t *testing.T) {
	repo := newMockStudentRepo()
	seedStudent(repo, "s1", "u1")
	svc := NewStudentService(repo, NewValidator(), nil)

	_, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{Aadhaar: "12345"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(context.Background(), "s1", UpdateStudentRequest{Aadhaar: "123456789012"})
	require.NoError(t, err)
}

func TestStudentServiceUpdateValidatesPAN(t *testing.T) {
	repo := newMockStudentRepo()
	seedStudent(repo, "s1", "u1")
	svc := NewStudentService(repo, NewValidator(), nil)

	_, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{PAN: "abcde1234f"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{PAN: "ABCDE1234F"})
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", updated.PAN)
}

func TestStudentServiceUpdateAllowsEmptyDocuments(t *testing.T) {
	repo := newMockStudentRepo()
	seedStudent(repo, "s1", "u1")
	svc := NewStudentService(repo, NewValidator(), nil)

	batch := "batch-9"
	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{BatchID: &batch})
	require.NoError(t, err)
	assert.Empty(t, updated.Aadhaar)
	require.NotNil(t, updated.BatchID)
	assert.Equal(t, "batch-9", *updated.BatchID)
}

func TestStudentServiceUpdateNotFound(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), NewValidator(), nil)

	_, err := svc.Update(context.Background(), "missing", UpdateStudentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceGetByUserID(t *testing.T) {
	repo := newMockStudentRepo()
	seedStudent(repo, "s1", "u1")
	svc := NewStudentService(repo, NewValidator(), nil)

	found, err := svc.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "s1", found.ID)

	_, err = svc.GetByUserID(context.Background(), "unknown")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceEligibilityAndLock(t *testing.T) {
	repo := newMockStudentRepo()
	seedStudent(repo, "s1", "u1")
	svc := NewStudentService(repo, NewValidator(), nil)

	require.NoError(t, svc.SetEligibility(context.Background(), "s1", true))
	assert.True(t, repo.eligibility["s1"])

	require.NoError(t, svc.SetCertificateLock(context.Background(), "s1", true))
	assert.True(t, repo.certLocks["s1"])

	err := svc.SetEligibility(context.Background(), "missing", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeactivate(t *testing.T) {
	repo := newMockStudentRepo()
	seedStudent(repo, "s1", "u1")
	svc := NewStudentService(repo, NewValidator(), nil)

	require.NoError(t, svc.Deactivate(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, repo.deactivated)
}
