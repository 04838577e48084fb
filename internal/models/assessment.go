package models

import "time"

// Test is an assessment scheduled for a batch.
type Test struct {
	ID        string    `db:"id" json:"id"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	Name      string    `db:"name" json:"name"`
	MaxMarks  int       `db:"max_marks" json:"max_marks"`
	HeldOn    time.Time `db:"held_on" json:"held_on"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Score is one student's result for one test.
type Score struct {
	ID        string    `db:"id" json:"id"`
	TestID    string    `db:"test_id" json:"test_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Marks     int       `db:"marks" json:"marks"`
	Remarks   string    `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
