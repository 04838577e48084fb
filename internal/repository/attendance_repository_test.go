package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
)

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance").
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AttendanceRecord{
		BatchID:   "bt1",
		StudentID: "s1",
		Date:      time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Status:    models.AttendancePresent,
	}
	require.NoError(t, repo.Upsert(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByBatchDate(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM attendance WHERE batch_id = \$1 AND date = \$2 ORDER BY student_id`).
		WithArgs("bt1", day).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "batch_id", "student_id", "date", "status", "marked_by", "created_at", "updated_at",
		}).
			AddRow("a1", "bt1", "s1", day, "PRESENT", nil, now, now).
			AddRow("a2", "bt1", "s2", day, "ABSENT", nil, now, now))

	records, err := repo.ListByBatchDate(context.Background(), "bt1", day)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.AttendanceAbsent, records[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummaryByBatch(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(`FROM attendance a\s+JOIN students s ON s.id = a.student_id`).
		WithArgs("bt1").
		WillReturnRows(sqlmock.NewRows([]string{
			"student_id", "student_name", "marked", "attended", "percentage",
		}).AddRow("s1", "Asha Verma", 20, 18, 90.0))

	summaries, err := repo.SummaryByBatch(context.Background(), "bt1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Asha Verma", summaries[0].StudentName)
	assert.InDelta(t, 90.0, summaries[0].Percentage, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStudentPercentage(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(`(?s)NULLIF\(COUNT\(\*\), 0\).+FROM attendance WHERE student_id = \$1`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"round"}).AddRow(87.5))

	pct, err := repo.StudentPercentage(context.Background(), "s1")
	require.NoError(t, err)
	assert.InDelta(t, 87.5, pct, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStudentPercentageNoMarks(t *testing.T) {
	db, mock, closeDB := newMock(t)
	defer closeDB()
	repo := NewAttendanceRepository(db)

	// With no marks the aggregate still yields a row, with a NULL percentage.
	mock.ExpectQuery(`(?s)NULLIF\(COUNT\(\*\), 0\).+FROM attendance WHERE student_id = \$1`).
		WithArgs("unmarked").
		WillReturnRows(sqlmock.NewRows([]string{"round"}).AddRow(nil))

	pct, err := repo.StudentPercentage(context.Background(), "unmarked")
	require.NoError(t, err)
	assert.Zero(t, pct)
	assert.NoError(t, mock.ExpectationsWereMet())
}
