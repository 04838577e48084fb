package models

import "time"

// AttendanceStatus enumerates the per-session marks.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// AttendanceRecord is one student's mark for one batch day.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	BatchID   string           `db:"batch_id" json:"batch_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  *string          `db:"marked_by" json:"marked_by,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceSummary aggregates a student's attendance over a batch.
// Percentage counts PRESENT and LATE as attended; computed in SQL so every
// surface reports the same number.
type AttendanceSummary struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	Marked      int     `db:"marked" json:"marked"`
	Attended    int     `db:"attended" json:"attended"`
	Percentage  float64 `db:"percentage" json:"percentage"`
}
