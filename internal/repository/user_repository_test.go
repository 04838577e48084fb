package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() { db.Close() }
}

func userRows(id, email string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "phone",
		"role", "branch_id", "photo", "active", "last_login", "created_at", "updated_at",
	}).AddRow(id, email, "$2a$10$hash", "Asha", "Verma", "9876543210",
		"TRAINER", nil, "", true, nil, now, now)
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewUserRepository(db)

	query := "SELECT " + userColumns + " FROM users WHERE email = $1 LIMIT 1"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("asha@institute.example").
		WillReturnRows(userRows("u1", "asha@institute.example"))

	user, err := repo.FindByEmail(context.Background(), "asha@institute.example")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, models.RoleTrainer, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewUserRepository(db)

	query := "SELECT " + userColumns + " FROM users WHERE id = $1 LIMIT 1"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFiltersByRole(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE 1=1 AND role = \$1 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(models.RoleTrainer).
		WillReturnRows(userRows("u1", "asha@institute.example"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1")).
		WithArgs(models.RoleTrainer).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	role := models.RoleTrainer
	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListSearchLowercasesTerm(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE 1=1 AND \(LOWER\(first_name\) LIKE \$1`).
		WithArgs("%asha%").
		WillReturnRows(userRows("u1", "asha@institute.example"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WithArgs("%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.UserFilter{Search: "Asha"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAssignsID(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "new@institute.example", Role: models.RoleAdmin, Active: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmail(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("taken@institute.example").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "taken@institute.example", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 AND id <> $2 LIMIT 1")).
		WithArgs("free@institute.example", "u1").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByEmail(context.Background(), "free@institute.example", "u1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "opaque-token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))

	mock.ExpectQuery("FROM refresh_tokens WHERE token = ").
		WithArgs("opaque-token").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent",
		}).AddRow("rt1", "u1", "opaque-token", token.ExpiresAt, token.CreatedAt, false, nil, "", ""))

	stored, err := repo.FindRefreshToken(context.Background(), "opaque-token")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.False(t, stored.Revoked)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked = true, revoked_at = ").
		WithArgs("rt1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "rt1", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeactivate(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET active = false").
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
