package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
)

func leadRows(id, name string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "source", "branch_id", "course_id",
		"status", "assigned_to", "notes", "created_at", "updated_at",
	}).AddRow(id, name, "", "9876543210", "WALK_IN", "b1", nil,
		"NEW", nil, "", now, now)
}

func TestLeadRepositoryFindByID(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewLeadRepository(db)

	query := "SELECT " + leadColumns + " FROM leads WHERE id = $1 LIMIT 1"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("ld1").
		WillReturnRows(leadRows("ld1", "Ravi Iyer"))

	lead, err := repo.FindByID(context.Background(), "ld1")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Iyer", lead.Name)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewLeadRepository(db)

	mock.ExpectQuery("FROM leads WHERE id = ").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryListFiltersByStatusAndBranch(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewLeadRepository(db)

	mock.ExpectQuery(`FROM leads WHERE 1=1 AND status = \$1 AND branch_id = \$2 ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(models.LeadStatusQualified, "b1").
		WillReturnRows(leadRows("ld1", "Ravi Iyer"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leads WHERE 1=1 AND status = $1 AND branch_id = $2")).
		WithArgs(models.LeadStatusQualified, "b1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	status := models.LeadStatusQualified
	leads, total, err := repo.List(context.Background(), models.LeadFilter{Status: &status, BranchID: "b1"})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryListClampsPageSize(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewLeadRepository(db)

	mock.ExpectQuery(`FROM leads WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 20`).
		WillReturnRows(leadRows("ld1", "Ravi Iyer"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	_, _, err := repo.List(context.Background(), models.LeadFilter{Page: 2, PageSize: 500})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryCreateAssignsID(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewLeadRepository(db)

	mock.ExpectExec("INSERT INTO leads").
		WillReturnResult(sqlmock.NewResult(1, 1))

	lead := &models.Lead{Name: "Ravi Iyer", Phone: "9876543210", Source: "WEBSITE", BranchID: "b1", Status: models.LeadStatusNew}
	require.NoError(t, repo.Create(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)
	assert.False(t, lead.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryUpdateStatus(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewLeadRepository(db)

	mock.ExpectExec("UPDATE leads SET status = ").
		WithArgs("ld1", models.LeadStatusConverted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "ld1", models.LeadStatusConverted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryCountByStatusScopesToBranch(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewLeadRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status AS key, COUNT(*) AS count FROM leads WHERE branch_id = $1 GROUP BY status")).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).
			AddRow("NEW", 5).
			AddRow("CONVERTED", 2))

	rows, err := repo.CountByStatus(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "NEW", rows[0].Key)
	assert.Equal(t, 5, rows[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryDelete(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewLeadRepository(db)

	mock.ExpectExec("DELETE FROM leads WHERE id = ").
		WithArgs("ld1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "ld1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
