package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexskill/institute-api/internal/models"
)

// AttendanceRepository manages per-day attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert writes one mark for (batch, student, date); re-marking overwrites.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance (id, batch_id, student_id, date, status, marked_by, created_at, updated_at)
        VALUES (:id, :batch_id, :student_id, :date, :status, :marked_by, :created_at, :updated_at)
        ON CONFLICT (batch_id, student_id, date)
        DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListByBatchDate returns all marks for one batch day.
func (r *AttendanceRepository) ListByBatchDate(ctx context.Context, batchID string, date time.Time) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, batch_id, student_id, date, status, marked_by, created_at, updated_at
        FROM attendance WHERE batch_id = $1 AND date = $2 ORDER BY student_id`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, batchID, date); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// SummaryByBatch aggregates per-student attendance for a batch. The percentage
// is computed in SQL so every caller reports the same value.
func (r *AttendanceRepository) SummaryByBatch(ctx context.Context, batchID string) ([]models.AttendanceSummary, error) {
	const query = `SELECT a.student_id,
        u.first_name || ' ' || u.last_name AS student_name,
        COUNT(*) AS marked,
        COUNT(*) FILTER (WHERE a.status IN ('PRESENT', 'LATE')) AS attended,
        ROUND(100.0 * COUNT(*) FILTER (WHERE a.status IN ('PRESENT', 'LATE')) / COUNT(*), 2) AS percentage
        FROM attendance a
        JOIN students s ON s.id = a.student_id
        JOIN users u ON u.id = s.user_id
        WHERE a.batch_id = $1
        GROUP BY a.student_id, u.first_name, u.last_name
        ORDER BY student_name`
	var summaries []models.AttendanceSummary
	if err := r.db.SelectContext(ctx, &summaries, query, batchID); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return summaries, nil
}

// StudentPercentage returns one student's attendance percentage across all
// marks; zero when nothing is marked yet.
func (r *AttendanceRepository) StudentPercentage(ctx context.Context, studentID string) (float64, error) {
	const query = `SELECT ROUND(100.0 * COUNT(*) FILTER (WHERE status IN ('PRESENT', 'LATE')) / NULLIF(COUNT(*), 0), 2)
        FROM attendance WHERE student_id = $1`
	var pct sql.NullFloat64
	if err := r.db.GetContext(ctx, &pct, query, studentID); err != nil {
		return 0, fmt.Errorf("student attendance percentage: %w", err)
	}
	if !pct.Valid {
		return 0, nil
	}
	return pct.Float64, nil
}
