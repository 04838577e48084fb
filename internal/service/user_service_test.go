package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type mockUserRepo struct {
	users       map[string]*models.User
	revoked     []string
	deactivated []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{}}
}

func (m *mockUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (m *mockUserRepo) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) Deactivate(_ context.Context, id string) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = false
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func validCreateUserRequest() CreateUserRequest {
	return CreateUserRequest{
		Email:     "trainer@institute.example",
		Password:  "secret123",
		FirstName: "Ravi",
		LastName:  "Iyer",
		Role:      string(models.RoleTrainer),
	}
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewValidator(), nil)

	user, err := svc.Create(context.Background(), validCreateUserRequest())
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.Equal(t, models.RoleTrainer, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestUserServiceCreateRejectsStudentRole(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), NewValidator(), nil)

	req := validCreateUserRequest()
	req.Role = string(models.RoleStudent)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.Role = "SUPERUSER"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewValidator(), nil)

	_, err := svc.Create(context.Background(), validCreateUserRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreateUserRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewValidator(), nil)

	user, err := svc.Create(context.Background(), validCreateUserRequest())
	require.NoError(t, err)

	branch := "b2"
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserRequest{
		FirstName: "Ravi",
		LastName:  "Iyer",
		Phone:     "9876543210",
		Role:      string(models.RoleChannelPartner),
		BranchID:  &branch,
		Active:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleChannelPartner, updated.Role)
	require.NotNil(t, updated.BranchID)
	assert.Equal(t, "b2", *updated.BranchID)
}

func TestUserServiceDeactivateRevokesSessions(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewValidator(), nil)

	user, err := svc.Create(context.Background(), validCreateUserRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))
	assert.False(t, repo.users[user.ID].Active)
	assert.Contains(t, repo.revoked, user.ID)

	err = svc.Deactivate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaginationForNormalises(t *testing.T) {
	p := paginationFor(0, 0, 45)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 45, p.TotalCount)

	p = paginationFor(2, 500, 45)
	assert.Equal(t, 100, p.PageSize)
}
