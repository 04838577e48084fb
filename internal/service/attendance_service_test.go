package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records map[string]*models.AttendanceRecord
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: map[string]*models.AttendanceRecord{}}
}

func attendanceKey(batchID, studentID string, date time.Time) string {
	return batchID + "|" + studentID + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, record *models.AttendanceRecord) error {
	cp := *record
	m.records[attendanceKey(record.BatchID, record.StudentID, record.Date)] = &cp
	return nil
}

func (m *mockAttendanceRepo) ListByBatchDate(_ context.Context, batchID string, date time.Time) ([]models.AttendanceRecord, error) {
	out := []models.AttendanceRecord{}
	for _, record := range m.records {
		if record.BatchID == batchID && record.Date.Equal(date) {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) SummaryByBatch(_ context.Context, batchID string) ([]models.AttendanceSummary, error) {
	return nil, nil
}

func (m *mockAttendanceRepo) StudentPercentage(_ context.Context, studentID string) (float64, error) {
	return 75, nil
}

type mockRoster struct {
	assigned map[string]bool
}

func (m *mockRoster) IsAssigned(_ context.Context, batchID, studentID string) (bool, error) {
	return m.assigned[batchID+"|"+studentID], nil
}

func newAttendanceFixture() (*mockAttendanceRepo, *mockRoster, *AttendanceService) {
	repo := newMockAttendanceRepo()
	roster := &mockRoster{assigned: map[string]bool{"bt1|s1": true, "bt1|s2": true}}
	svc := NewAttendanceService(repo, roster, NewValidator(), nil)
	return repo, roster, svc
}

func TestAttendanceServiceMark(t *testing.T) {
	repo, _, svc := newAttendanceFixture()

	records, err := svc.Mark(context.Background(), "bt1", MarkAttendanceRequest{
		Date: time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC),
		Entries: []AttendanceEntry{
			{StudentID: "s1", Status: string(models.AttendancePresent)},
			{StudentID: "s2", Status: string(models.AttendanceLate)},
		},
	}, "trainer-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Len(t, repo.records, 2)

	// Timestamps are normalised to midnight so re-marks land on the same row.
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), records[0].Date)
	require.NotNil(t, records[0].MarkedBy)
	assert.Equal(t, "trainer-1", *records[0].MarkedBy)
}

func TestAttendanceServiceReMarkReplacesDay(t *testing.T) {
	repo, _, svc := newAttendanceFixture()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Mark(context.Background(), "bt1", MarkAttendanceRequest{
		Date:    day,
		Entries: []AttendanceEntry{{StudentID: "s1", Status: string(models.AttendanceAbsent)}},
	}, "trainer-1")
	require.NoError(t, err)

	_, err = svc.Mark(context.Background(), "bt1", MarkAttendanceRequest{
		Date:    day,
		Entries: []AttendanceEntry{{StudentID: "s1", Status: string(models.AttendancePresent)}},
	}, "trainer-1")
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	sheet, err := svc.Sheet(context.Background(), "bt1", day)
	require.NoError(t, err)
	require.Len(t, sheet, 1)
	assert.Equal(t, models.AttendancePresent, sheet[0].Status)
}

func TestAttendanceServiceMarkInvalidStatus(t *testing.T) {
	_, _, svc := newAttendanceFixture()

	_, err := svc.Mark(context.Background(), "bt1", MarkAttendanceRequest{
		Date:    time.Now().UTC(),
		Entries: []AttendanceEntry{{StudentID: "s1", Status: "SLEEPING"}},
	}, "trainer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceMarkRejectsOutsideRoster(t *testing.T) {
	repo, _, svc := newAttendanceFixture()

	_, err := svc.Mark(context.Background(), "bt1", MarkAttendanceRequest{
		Date: time.Now().UTC(),
		Entries: []AttendanceEntry{
			{StudentID: "s1", Status: string(models.AttendancePresent)},
			{StudentID: "outsider", Status: string(models.AttendancePresent)},
		},
	}, "trainer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	// The whole sheet is rejected, including entries that were individually valid.
	assert.Empty(t, repo.records)
}

func TestAttendanceServiceMarkRequiresEntries(t *testing.T) {
	_, _, svc := newAttendanceFixture()

	_, err := svc.Mark(context.Background(), "bt1", MarkAttendanceRequest{Date: time.Now().UTC()}, "trainer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceStudentPercentage(t *testing.T) {
	_, _, svc := newAttendanceFixture()

	pct, err := svc.StudentPercentage(context.Background(), "s1")
	require.NoError(t, err)
	assert.InDelta(t, 75, pct, 0.001)
}
